package leads

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"proposal-chat/internal/common/errors"
	"proposal-chat/internal/common/logger"
	"proposal-chat/internal/dialogue"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubNotifier struct {
	calls []dialogue.Lead
	err   error
}

func (s *stubNotifier) Notify(_ context.Context, lead dialogue.Lead) error {
	s.calls = append(s.calls, lead)
	return s.err
}

func testLead() dialogue.Lead {
	return dialogue.Lead{
		Name:    "Ada Lovelace",
		Email:   "ada@example.com",
		Phone:   "555-0100",
		Message: "completed via estimator",
		Transcript: []dialogue.Message{
			{Sender: dialogue.SenderUser, Text: "Build me a WordPress site"},
		},
	}
}

func TestSendLead_Success(t *testing.T) {
	var got map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/leads", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	notifier := &stubNotifier{}
	client := NewClient(server.URL, 5*time.Second, notifier, logger.NewTestLogger(t))

	require.NoError(t, client.SendLead(context.Background(), testLead()))

	assert.Equal(t, "Ada Lovelace", got["name"])
	assert.Equal(t, "ada@example.com", got["email"])
	assert.Equal(t, "completed via estimator", got["message"])

	require.Len(t, notifier.calls, 1)
	assert.Equal(t, "ada@example.com", notifier.calls[0].Email)
}

func TestSendLead_NotifierFailureDoesNotFailDelivery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	notifier := &stubNotifier{err: fmt.Errorf("ses throttled")}
	client := NewClient(server.URL, 5*time.Second, notifier, logger.NewTestLogger(t))

	require.NoError(t, client.SendLead(context.Background(), testLead()))
	assert.Len(t, notifier.calls, 1)
}

func TestSendLead_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "crm down", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	notifier := &stubNotifier{}
	client := NewClient(server.URL, 5*time.Second, notifier, logger.NewTestLogger(t))

	err := client.SendLead(context.Background(), testLead())
	require.Error(t, err)
	assert.Equal(t, string(errors.ErrCodeLeadDeliveryFailed), errors.CodeOf(err))
	// The notifier never fires for a failed delivery.
	assert.Empty(t, notifier.calls)
}

func TestSendLead_NilNotifier(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second, nil, logger.NewTestLogger(t))
	require.NoError(t, client.SendLead(context.Background(), testLead()))
}
