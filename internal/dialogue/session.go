package dialogue

import (
	"context"
	"encoding/base64"
	stderrors "errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"proposal-chat/internal/common/errors"
	"proposal-chat/internal/common/logger"
	"proposal-chat/internal/common/metrics"

	"github.com/google/uuid"
)

// ErrCloseAborted is returned when the close confirmation callback declines
// losing an incomplete lead contact.
var ErrCloseAborted = stderrors.New("session close aborted by user")

// User-visible transcript messages.
const (
	msgEstimateFailed   = "Sorry, I couldn't reach the estimation service. Please send that again in a moment."
	msgArtifactProgress = "Great, I have everything I need. Preparing your estimate document now..."
	msgArtifactReady    = "Your estimate is ready:"
	// Format used instead of msgArtifactReady when the service priced the project.
	msgArtifactReadyTotal = "Your estimate is ready (estimated total $%.2f):"
	msgArtifactFailed   = "Something went wrong while preparing your estimate document. Please try again."
	msgLeadConfirmed    = "Thanks! Your details were passed to our team, and we'll follow up shortly."
	msgLeadFailed       = "We couldn't register your contact details right now."
	msgShareFailed      = "Couldn't export this conversation right now."
)

// Fixed lead status literals.
const (
	leadStatusCompleted   = "completed via estimator"
	leadStatusInterrupted = "interrupted / incomplete — request follow-up"
)

// Options wires a Session to its collaborators. Estimator is required;
// every other collaborator is optional and its absence turns the matching
// side effect into a no-op.
type Options struct {
	Logger    logger.Logger
	Estimator EstimatorService
	Documents DocumentService
	Leads     LeadSink
	Store     TranscriptStore
	Packager  SharePackager
	Files     FileSaver
	Matcher   FieldMatcher

	Mode             string
	AutosaveInterval time.Duration
	NamePrompt       string
	EmailPrompt      string

	// OnMessage observes every transcript append, for presentation.
	OnMessage func(Message)

	// SessionID overrides the generated id so collaborators keyed on the
	// session (the chat store) can be constructed first.
	SessionID string
}

// NewSessionID generates a fresh session identifier.
func NewSessionID() string {
	return uuid.NewString()
}

// Session drives the turn-by-turn estimation dialogue: it submits user
// text, tracks the question queue and ordered answers, injects and
// deduplicates contact questions, finalizes completions into a document
// artifact, and delivers the lead. All state transitions run to completion
// under one lock; the only suspension points are collaborator calls.
type Session struct {
	id  string
	log logger.Logger

	estimator EstimatorService
	documents DocumentService
	leads     LeadSink
	packager  SharePackager
	files     FileSaver

	mode        string
	namePrompt  string
	emailPrompt string
	onMessage   func(Message)

	mu            sync.Mutex
	transcript    *Transcript
	queue         *QuestionQueue
	answers       []Answer
	contact       *ContactTracker
	lastUserQuery string
	lastDocument  string
	completed     bool
	deferred      *CompletionPayload
	inFlight      bool
	generation    uint64
	closed        bool

	autosave *Autosave
}

func NewSession(opts Options) (*Session, error) {
	if opts.Estimator == nil {
		return nil, fmt.Errorf("dialogue: estimator service is required")
	}
	log := opts.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	mode := opts.Mode
	if mode == "" {
		mode = "production"
	}
	namePrompt := opts.NamePrompt
	if namePrompt == "" {
		namePrompt = "What's your name?"
	}
	emailPrompt := opts.EmailPrompt
	if emailPrompt == "" {
		emailPrompt = "What's your email?"
	}
	interval := opts.AutosaveInterval
	if interval <= 0 {
		interval = time.Second
	}

	id := opts.SessionID
	if id == "" {
		id = NewSessionID()
	}

	s := &Session{
		id:          id,
		log:         log,
		estimator:   opts.Estimator,
		documents:   opts.Documents,
		leads:       opts.Leads,
		packager:    opts.Packager,
		files:       opts.Files,
		mode:        mode,
		namePrompt:  namePrompt,
		emailPrompt: emailPrompt,
		onMessage:   opts.OnMessage,
		transcript:  NewTranscript(),
		contact:     NewContactTracker(opts.Matcher),
	}

	if opts.Store != nil {
		s.autosave = NewAutosave(opts.Store, interval, s.transcriptTitle, s.Transcript, log)
		s.transcript.OnChange(s.autosave.Notify)
	}

	s.log.Info("dialogue session created", map[string]interface{}{
		"sessionId": s.id,
		"mode":      mode,
	})
	return s, nil
}

func (s *Session) ID() string { return s.id }

// Transcript returns a snapshot of the message log.
func (s *Session) Transcript() []Message { return s.transcript.Messages() }

// Contact returns the captured contact attributes.
func (s *Session) Contact() ContactInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.contact.Info()
}

func (s *Session) Completed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.completed
}

// CurrentQuestion returns the prompt awaiting an answer, if any.
func (s *Session) CurrentQuestion() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.queue.Current()
	return q.Text, ok
}

// Answers returns a copy of the answers collected for the current queue.
func (s *Session) Answers() []Answer {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Answer, len(s.answers))
	copy(out, s.answers)
	return out
}

// HasDeferredCompletion reports whether a completion payload is buffered
// awaiting contact info.
func (s *Session) HasDeferredCompletion() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deferred != nil
}

// Submit feeds one line of user input into the dialogue. Empty input after
// trimming is a no-op. While a service request is in flight further
// submits are rejected so answers cannot interleave.
func (s *Session) Submit(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errors.NewSessionClosedError()
	}
	if s.inFlight {
		return errors.NewRequestInFlightError()
	}

	if s.queue != nil && !s.queue.Exhausted() {
		s.recordAnswerLocked(ctx, text)
		return nil
	}

	if s.queue != nil && s.queue.Exhausted() {
		// A follow-up is due; the previous attempt failed in transport.
		// The submit acts as a manual resend.
		s.appendLocked(Message{Sender: SenderUser, Text: text})
		s.flushFollowUpLocked(ctx)
		return nil
	}

	// No pending queue: initial request with the raw project description.
	s.lastUserQuery = text
	s.appendLocked(Message{Sender: SenderUser, Text: text})

	resp, err := s.exchangeLocked(ctx, EstimateRequest{Text: text, Mode: s.mode})
	if err != nil {
		s.log.Error("initial estimation request failed", map[string]interface{}{
			"sessionId": s.id,
			"errorCode": errors.CodeOf(err),
			"error":     err.Error(),
		})
		s.appendLocked(Message{Sender: SenderBot, Text: msgEstimateFailed})
		return nil
	}
	if resp == nil {
		return nil
	}
	s.handleResponseLocked(ctx, resp)
	return nil
}

// recordAnswerLocked attributes the user text to the question under the
// cursor and advances. Answers stay in lockstep with the cursor.
func (s *Session) recordAnswerLocked(ctx context.Context, text string) {
	q, _ := s.queue.Current()
	s.appendLocked(Message{Sender: SenderUser, Text: text})
	s.answers = append(s.answers, Answer{Question: q.Text, Answer: text})

	_, assigned := s.contact.Record(q.Text, text)
	s.queue.Advance()

	if s.deferred != nil {
		// Completeness watcher: the moment name and email are both
		// present, the buffered payload finalizes exactly once.
		if assigned && s.contact.Complete() {
			payload := *s.deferred
			s.deferred = nil
			metrics.DeferredCompletions.Dec()
			s.queue = nil
			s.answers = nil
			s.finalizeLocked(ctx, payload)
			return
		}
		if next, ok := s.queue.Current(); ok {
			s.appendLocked(Message{Sender: SenderBot, Text: next.Text})
		}
		return
	}

	if s.queue.Exhausted() {
		s.flushFollowUpLocked(ctx)
		return
	}

	next, _ := s.queue.Current()
	s.appendLocked(Message{Sender: SenderBot, Text: next.Text})
}

// flushFollowUpLocked consolidates the collected answers into a single
// follow-up request referencing the original query. On transport failure
// the queue and answers are left intact so the user can resend.
func (s *Session) flushFollowUpLocked(ctx context.Context) {
	answers := make([]Answer, len(s.answers))
	copy(answers, s.answers)

	resp, err := s.exchangeLocked(ctx, EstimateRequest{
		Text:    s.lastUserQuery,
		Answers: answers,
		Mode:    s.mode,
	})
	if err != nil {
		s.log.Error("follow-up estimation request failed", map[string]interface{}{
			"sessionId": s.id,
			"answers":   len(answers),
			"errorCode": errors.CodeOf(err),
			"error":     err.Error(),
		})
		s.appendLocked(Message{Sender: SenderBot, Text: msgEstimateFailed})
		return
	}
	if resp == nil {
		return
	}

	s.queue = nil
	s.answers = nil
	s.handleResponseLocked(ctx, resp)
}

// exchangeLocked performs one round with the estimation service. It is
// called with the session lock held, releases it for the duration of the
// call, and drops responses that arrive after a restart or close.
func (s *Session) exchangeLocked(ctx context.Context, req EstimateRequest) (*EstimateResponse, error) {
	s.inFlight = true
	gen := s.generation
	s.mu.Unlock()

	start := time.Now()
	resp, err := s.estimator.SendMessage(ctx, req)
	elapsed := time.Since(start).Seconds()

	s.mu.Lock()
	s.inFlight = false
	metrics.DialogueRounds.Inc()
	metrics.ObserveCall(metrics.CallEstimate, elapsed, err)

	if s.closed || gen != s.generation {
		s.log.Warn("dropping stale estimation response", map[string]interface{}{
			"sessionId": s.id,
		})
		return nil, nil
	}
	return resp, err
}

// handleResponseLocked applies a service response: enqueue merged
// questions, finalize a completion, or echo a summary. A response with
// neither questions nor a completion marker degrades to echoing its raw
// body, a lossy safety net.
func (s *Session) handleResponseLocked(ctx context.Context, resp *EstimateResponse) {
	if resp.Completed && len(resp.Questions) == 0 {
		s.finalizeOrDeferLocked(ctx, completionFromResponse(resp))
		return
	}

	merged := s.mergeQuestionsLocked(resp.Questions)
	if len(merged) > 0 {
		s.queue = NewQuestionQueue(merged)
		s.answers = nil
		s.appendLocked(Message{Sender: SenderBot, Text: merged[0].Text})
		return
	}

	if resp.Completed {
		s.finalizeOrDeferLocked(ctx, completionFromResponse(resp))
		return
	}

	if resp.Summary != "" {
		s.appendLocked(Message{Sender: SenderBot, Text: resp.Summary})
		return
	}

	s.log.Warn("estimation response carried neither questions nor completion", map[string]interface{}{
		"sessionId": s.id,
		"errorCode": string(errors.ErrCodeMalformedResponse),
	})
	s.appendLocked(Message{Sender: SenderBot, Text: string(resp.Raw)})
}

// mergeQuestionsLocked builds the merged question set: contact questions
// not yet answered ahead of service questions, minus any service question
// keyword-matching an already-satisfied name or email field.
func (s *Session) mergeQuestionsLocked(serviceQuestions []string) []PendingQuestion {
	var merged []PendingQuestion
	if !s.contact.IsAnswered(FieldName, s.answers) {
		merged = append(merged, PendingQuestion{Text: s.namePrompt, Origin: OriginContact})
	}
	if !s.contact.IsAnswered(FieldEmail, s.answers) {
		merged = append(merged, PendingQuestion{Text: s.emailPrompt, Origin: OriginContact})
	}
	matcher := s.contact.matcher
	for _, q := range serviceQuestions {
		if field, ok := matcher.Match(q); ok && (field == FieldName || field == FieldEmail) && s.contact.IsAnswered(field, s.answers) {
			continue
		}
		merged = append(merged, PendingQuestion{Text: q, Origin: OriginService})
	}
	return merged
}

// finalizeOrDeferLocked gates completion on contact completeness. An
// incomplete contact buffers the payload in the single deferred slot,
// overwriting any prior value, and enqueues the outstanding contact
// questions.
func (s *Session) finalizeOrDeferLocked(ctx context.Context, payload CompletionPayload) {
	if payload.Document != "" {
		s.lastDocument = payload.Document
	}

	if !s.contact.Complete() {
		if s.deferred == nil {
			metrics.DeferredCompletions.Inc()
		}
		p := payload
		s.deferred = &p

		var pending []PendingQuestion
		if !s.contact.IsAnswered(FieldName, s.answers) {
			pending = append(pending, PendingQuestion{Text: s.namePrompt, Origin: OriginContact})
		}
		if !s.contact.IsAnswered(FieldEmail, s.answers) {
			pending = append(pending, PendingQuestion{Text: s.emailPrompt, Origin: OriginContact})
		}
		s.queue = NewQuestionQueue(pending)
		s.answers = nil
		if first, ok := s.queue.Current(); ok {
			s.appendLocked(Message{Sender: SenderBot, Text: first.Text})
		}
		return
	}

	s.finalizeLocked(ctx, payload)
}

// finalizeLocked turns a completion payload into a downloadable artifact
// and delivers the lead. The raw document content and full estimate object
// are deliberately not echoed into the transcript.
func (s *Session) finalizeLocked(ctx context.Context, payload CompletionPayload) {
	if payload.Document != "" {
		s.lastDocument = payload.Document
	}
	s.appendLocked(Message{Sender: SenderBot, Text: msgArtifactProgress})

	if s.documents == nil {
		s.log.Warn("document service not configured, skipping artifact creation", map[string]interface{}{
			"sessionId": s.id,
		})
		s.completed = true
		s.deliverLeadLocked(ctx, true, payload.Document)
		return
	}

	title := s.artifactTitle()
	start := time.Now()
	url, err := s.documents.CreateArtifact(ctx, ArtifactRequest{
		DocumentPayload: payload.Document,
		Estimate:        payload.Estimate,
		Title:           title,
	})
	metrics.ObserveCall(metrics.CallArtifact, time.Since(start).Seconds(), err)
	if err != nil {
		s.log.Error("artifact creation failed", map[string]interface{}{
			"sessionId": s.id,
			"title":     title,
			"errorCode": errors.CodeOf(err),
			"error":     err.Error(),
		})
		s.appendLocked(Message{Sender: SenderBot, Text: msgArtifactFailed})
		return
	}

	ready := msgArtifactReady
	if payload.HasTotal {
		ready = fmt.Sprintf(msgArtifactReadyTotal, payload.TotalCost)
	}
	s.appendLocked(Message{Sender: SenderBot, Text: ready, AttachedLink: url})
	s.completed = true
	s.log.Info("estimate finalized", map[string]interface{}{
		"sessionId":   s.id,
		"title":       title,
		"downloadUrl": url,
	})

	s.deliverLeadLocked(ctx, true, payload.Document)
}

// deliverLeadLocked sends the lead to the external sink. It requires name
// and email, surfaces success and failure as transcript messages, and
// never propagates an error past this boundary.
func (s *Session) deliverLeadLocked(ctx context.Context, completed bool, documentPayload string) {
	if s.leads == nil || !s.contact.Complete() {
		return
	}

	info := s.contact.Info()
	statusMsg := leadStatusInterrupted
	if completed {
		statusMsg = leadStatusCompleted
	}

	lead := Lead{
		Name:            info.Name,
		Email:           info.Email,
		Phone:           info.Phone,
		Message:         statusMsg,
		DocumentPayload: documentPayload,
		Transcript:      s.transcript.Messages(),
	}

	start := time.Now()
	err := s.leads.SendLead(ctx, lead)
	metrics.ObserveCall(metrics.CallLead, time.Since(start).Seconds(), err)
	if err != nil {
		s.log.Error("lead delivery failed", map[string]interface{}{
			"sessionId": s.id,
			"email":     info.Email,
			"errorCode": errors.CodeOf(err),
			"error":     err.Error(),
		})
		s.appendLocked(Message{Sender: SenderBot, Text: msgLeadFailed})
		return
	}

	s.appendLocked(Message{Sender: SenderBot, Text: msgLeadConfirmed})
}

// ShareCurrentSession exports transcript plus last-known document payload
// as a downloadable bundle. Fire-and-forget: failures surface as a single
// transcript message and never disturb the dialogue state machine.
func (s *Session) ShareCurrentSession(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errors.NewSessionClosedError()
	}
	if s.packager == nil {
		return nil
	}

	title := s.transcriptTitle()
	start := time.Now()
	data, err := s.packager.Package(ctx, title, s.transcript.Messages(), s.lastDocument)
	metrics.ObserveCall(metrics.CallPackage, time.Since(start).Seconds(), err)
	if err != nil {
		s.log.Error("session package export failed", map[string]interface{}{
			"sessionId": s.id,
			"errorCode": errors.CodeOf(err),
			"error":     err.Error(),
		})
		s.appendLocked(Message{Sender: SenderBot, Text: msgShareFailed})
		return nil
	}

	if s.files != nil {
		name := fmt.Sprintf("proposal-chat-%s.zip", shortID(s.id))
		if err := s.files.Save(name, data); err != nil {
			s.log.Error("saving session package failed", map[string]interface{}{
				"sessionId": s.id,
				"file":      name,
				"error":     err.Error(),
			})
			s.appendLocked(Message{Sender: SenderBot, Text: msgShareFailed})
		}
	}
	return nil
}

// Restart resets the session to empty. In-flight responses from before the
// restart are discarded when they land.
func (s *Session) Restart() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	s.generation++
	s.transcript.Reset()
	s.queue = nil
	s.answers = nil
	s.contact.Reset()
	s.lastUserQuery = ""
	s.lastDocument = ""
	s.completed = false
	if s.deferred != nil {
		s.deferred = nil
		metrics.DeferredCompletions.Dec()
	}

	s.log.Info("dialogue session restarted", map[string]interface{}{
		"sessionId": s.id,
	})
}

// Close tears the session down. When contact info is incomplete the
// confirm callback decides whether the lead contact may be lost; when the
// dialogue never completed but any contact field is present, one last
// best-effort lead delivery goes out with a summary derived from the bot
// messages. Closing a completed session never re-delivers the lead.
func (s *Session) Close(ctx context.Context, confirm func() bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	if !s.completed && !s.contact.Complete() && confirm != nil && !confirm() {
		return ErrCloseAborted
	}

	if !s.completed && s.contact.AnyPresent() {
		s.deliverLeadLocked(ctx, false, s.derivedDocumentLocked())
	}

	if s.autosave != nil {
		s.autosave.Stop()
	}
	s.generation++
	s.closed = true

	s.log.Info("dialogue session closed", map[string]interface{}{
		"sessionId": s.id,
		"completed": s.completed,
	})
	return nil
}

// derivedDocumentLocked builds the last-resort summary artifact: a
// deterministic encoding of all bot messages concatenated in order.
func (s *Session) derivedDocumentLocked() string {
	var parts []string
	for _, m := range s.transcript.Messages() {
		if m.Sender == SenderBot {
			parts = append(parts, m.Text)
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return base64.StdEncoding.EncodeToString([]byte(strings.Join(parts, "\n")))
}

func (s *Session) appendLocked(m Message) {
	s.transcript.Append(m)
	if s.onMessage != nil {
		s.onMessage(m)
	}
}

func (s *Session) transcriptTitle() string {
	return fmt.Sprintf("Estimator chat %s", shortID(s.id))
}

// artifactTitle is unique per session and per finalization attempt.
func (s *Session) artifactTitle() string {
	return fmt.Sprintf("Estimate %s %s", shortID(s.id), time.Now().UTC().Format("20060102-150405"))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
