package dialogue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeywordMatcher_Match(t *testing.T) {
	tests := []struct {
		question string
		field    ContactField
		matched  bool
	}{
		{"What's your name?", FieldName, true},
		{"Please enter your FULL NAME", FieldName, true},
		{"What's your email?", FieldEmail, true},
		{"Best email address to reach you?", FieldEmail, true},
		{"What's the best phone number?", FieldPhone, true},
		{"What's your budget?", "", false},
		{"How many pages do you need?", "", false},
	}

	m := KeywordMatcher{}
	for _, tt := range tests {
		field, ok := m.Match(tt.question)
		assert.Equal(t, tt.matched, ok, tt.question)
		assert.Equal(t, tt.field, field, tt.question)
	}
}

func TestContactTracker_RecordFirstUnsetWins(t *testing.T) {
	c := NewContactTracker(nil)

	field, assigned := c.Record("What's your name?", "Ada Lovelace")
	require.True(t, assigned)
	assert.Equal(t, FieldName, field)

	// A second name answer does not overwrite the first.
	_, assigned = c.Record("Your name again?", "Grace Hopper")
	assert.False(t, assigned)
	assert.Equal(t, "Ada Lovelace", c.Info().Name)

	_, assigned = c.Record("What's your email?", "ada@example.com")
	require.True(t, assigned)
	assert.True(t, c.Complete())

	_, assigned = c.Record("What's your budget?", "about $5k")
	assert.False(t, assigned)
}

func TestContactTracker_RecordIgnoresEmptyAnswers(t *testing.T) {
	c := NewContactTracker(nil)
	_, assigned := c.Record("What's your name?", "   ")
	assert.False(t, assigned)
	assert.False(t, c.AnyPresent())
}

func TestContactTracker_IsAnswered(t *testing.T) {
	c := NewContactTracker(nil)

	assert.False(t, c.IsAnswered(FieldName, nil))

	// Satisfied through the tracked info.
	c.Record("What's your name?", "Ada")
	assert.True(t, c.IsAnswered(FieldName, nil))

	// Satisfied through a recorded answer even when the tracker never
	// captured the field itself.
	answers := []Answer{{Question: "What's your email?", Answer: "ada@example.com"}}
	assert.True(t, c.IsAnswered(FieldEmail, answers))

	// An empty answer does not satisfy the field.
	blank := []Answer{{Question: "What's your email?", Answer: ""}}
	assert.False(t, c.IsAnswered(FieldEmail, blank))
}

func TestContactTracker_CompletenessAndReset(t *testing.T) {
	c := NewContactTracker(nil)
	assert.False(t, c.Complete())
	assert.False(t, c.AnyPresent())

	c.Record("What's your phone number?", "555-0100")
	assert.True(t, c.AnyPresent())
	assert.False(t, c.Complete(), "phone alone does not complete the contact")

	c.Record("What's your name?", "Ada")
	c.Record("What's your email?", "ada@example.com")
	assert.True(t, c.Complete())

	c.Reset()
	assert.Equal(t, ContactInfo{}, c.Info())
	assert.False(t, c.AnyPresent())
}
