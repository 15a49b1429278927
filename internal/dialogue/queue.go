package dialogue

// QuestionOrigin tags where a pending question came from. The tag is used
// only for deduplication; it is never sent to the estimation service.
type QuestionOrigin string

const (
	OriginContact QuestionOrigin = "contact"
	OriginService QuestionOrigin = "service"
)

// PendingQuestion is one clarification prompt awaiting an answer.
type PendingQuestion struct {
	Text   string
	Origin QuestionOrigin
}

// Answer pairs a presented question with the user's reply. Answers are
// collected in presentation order and sent verbatim on follow-up.
type Answer struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// QuestionQueue is an ordered list of pending questions plus a cursor.
// The cursor stays within [0, len]; cursor == len means the queue is
// exhausted and a follow-up submission is due. Queues are rebuilt, never
// mutated in place, when a new batch arrives.
type QuestionQueue struct {
	questions []PendingQuestion
	cursor    int
}

func NewQuestionQueue(questions []PendingQuestion) *QuestionQueue {
	qs := make([]PendingQuestion, len(questions))
	copy(qs, questions)
	return &QuestionQueue{questions: qs}
}

// Current returns the question under the cursor, or false when exhausted.
func (q *QuestionQueue) Current() (PendingQuestion, bool) {
	if q == nil || q.cursor >= len(q.questions) {
		return PendingQuestion{}, false
	}
	return q.questions[q.cursor], true
}

func (q *QuestionQueue) Advance() {
	if q.cursor < len(q.questions) {
		q.cursor++
	}
}

func (q *QuestionQueue) Exhausted() bool {
	return q == nil || q.cursor >= len(q.questions)
}

func (q *QuestionQueue) Len() int {
	if q == nil {
		return 0
	}
	return len(q.questions)
}

func (q *QuestionQueue) Cursor() int {
	if q == nil {
		return 0
	}
	return q.cursor
}

// Questions returns a copy of the queued prompts in presentation order.
func (q *QuestionQueue) Questions() []PendingQuestion {
	if q == nil {
		return nil
	}
	out := make([]PendingQuestion, len(q.questions))
	copy(out, q.questions)
	return out
}
