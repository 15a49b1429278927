package dialogue

import "strings"

// ContactField names the contact attributes the dialogue can capture.
type ContactField string

const (
	FieldName  ContactField = "name"
	FieldEmail ContactField = "email"
	FieldPhone ContactField = "phone"
)

// FieldMatcher decides whether a question text targets a contact field.
// The default is keyword containment; a stricter scheme (explicit field
// tags from the service) can replace it without touching the state machine.
type FieldMatcher interface {
	Match(questionText string) (ContactField, bool)
}

// KeywordMatcher matches by case-insensitive substring search, checking
// name, then email, then phone.
type KeywordMatcher struct{}

func (KeywordMatcher) Match(questionText string) (ContactField, bool) {
	lower := strings.ToLower(questionText)
	for _, f := range []ContactField{FieldName, FieldEmail, FieldPhone} {
		if strings.Contains(lower, string(f)) {
			return f, true
		}
	}
	return "", false
}

// ContactInfo holds the captured contact attributes. Any text is accepted
// as a value; this is a best-effort heuristic, not a validated form.
type ContactInfo struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// ContactTracker captures name/email/phone as contact-tagged questions are
// answered and exposes the completeness predicate used to gate completion.
type ContactTracker struct {
	matcher FieldMatcher
	info    ContactInfo
}

func NewContactTracker(matcher FieldMatcher) *ContactTracker {
	if matcher == nil {
		matcher = KeywordMatcher{}
	}
	return &ContactTracker{matcher: matcher}
}

// Record keyword-matches questionText and assigns answerText to the first
// unset matching field. Returns the field and true when an assignment
// happened.
func (c *ContactTracker) Record(questionText, answerText string) (ContactField, bool) {
	answerText = strings.TrimSpace(answerText)
	if answerText == "" {
		return "", false
	}
	field, ok := c.matcher.Match(questionText)
	if !ok {
		return "", false
	}
	switch field {
	case FieldName:
		if c.info.Name == "" {
			c.info.Name = answerText
			return FieldName, true
		}
	case FieldEmail:
		if c.info.Email == "" {
			c.info.Email = answerText
			return FieldEmail, true
		}
	case FieldPhone:
		if c.info.Phone == "" {
			c.info.Phone = answerText
			return FieldPhone, true
		}
	}
	return "", false
}

// IsAnswered reports whether the field is already satisfied: either set on
// the tracked info, or present in a recorded answer whose question text
// contains the field keyword.
func (c *ContactTracker) IsAnswered(field ContactField, answers []Answer) bool {
	switch field {
	case FieldName:
		if c.info.Name != "" {
			return true
		}
	case FieldEmail:
		if c.info.Email != "" {
			return true
		}
	case FieldPhone:
		if c.info.Phone != "" {
			return true
		}
	}
	for _, a := range answers {
		if strings.TrimSpace(a.Answer) == "" {
			continue
		}
		if strings.Contains(strings.ToLower(a.Question), string(field)) {
			return true
		}
	}
	return false
}

// Complete reports whether name and email are both present. Phone is
// optional.
func (c *ContactTracker) Complete() bool {
	return c.info.Name != "" && c.info.Email != ""
}

// AnyPresent reports whether at least one contact field has been captured.
func (c *ContactTracker) AnyPresent() bool {
	return c.info.Name != "" || c.info.Email != "" || c.info.Phone != ""
}

// Info returns a copy of the captured contact attributes.
func (c *ContactTracker) Info() ContactInfo {
	return c.info
}

// Reset clears all captured fields.
func (c *ContactTracker) Reset() {
	c.info = ContactInfo{}
}
