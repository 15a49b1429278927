package dialogue

import "sync"

// Sender identifies who produced a transcript message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// Message is one entry of the session transcript. Messages are immutable
// once appended; ordering is append order.
type Message struct {
	Sender       Sender `json:"sender"`
	Text         string `json:"text"`
	AttachedLink string `json:"attachedLink,omitempty"`
}

// Transcript is the append-only ordered log of exchanged messages for one
// session. An optional change hook fires after every append; the autosave
// scheduler observes the transcript through it.
type Transcript struct {
	mu       sync.Mutex
	messages []Message
	onChange func()
}

func NewTranscript() *Transcript {
	return &Transcript{}
}

// OnChange registers the hook invoked after each append. The hook runs
// outside the transcript lock.
func (t *Transcript) OnChange(fn func()) {
	t.mu.Lock()
	t.onChange = fn
	t.mu.Unlock()
}

func (t *Transcript) Append(m Message) {
	t.mu.Lock()
	t.messages = append(t.messages, m)
	hook := t.onChange
	t.mu.Unlock()

	if hook != nil {
		hook()
	}
}

// Messages returns a snapshot copy of the transcript.
func (t *Transcript) Messages() []Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Message, len(t.messages))
	copy(out, t.messages)
	return out
}

func (t *Transcript) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.messages)
}

// Reset clears the log. Only an explicit session restart calls this.
func (t *Transcript) Reset() {
	t.mu.Lock()
	t.messages = nil
	t.mu.Unlock()
}

// Last returns the most recent message, if any.
func (t *Transcript) Last() (Message, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.messages) == 0 {
		return Message{}, false
	}
	return t.messages[len(t.messages)-1], true
}
