package documents

import (
	"context"
	"encoding/json"
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

func TestCreateArtifact_Success(t *testing.T) {
	var got map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/documents", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Write([]byte(`{"downloadUrl":"https://files.example.com/estimate.pdf"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second, logger.NewTestLogger(t))
	url, err := client.CreateArtifact(context.Background(), dialogue.ArtifactRequest{
		DocumentPayload: "ZG9j",
		Estimate:        map[string]interface{}{"totalCost": 4500.0},
		Title:           "Estimate abc12345 20260901-120000",
	})
	require.NoError(t, err)

	assert.Equal(t, "https://files.example.com/estimate.pdf", url)
	assert.Equal(t, "ZG9j", got["documentPayload"])
	assert.Equal(t, "Estimate abc12345 20260901-120000", got["title"])
}

func TestCreateArtifact_MissingDownloadURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second, logger.NewTestLogger(t))
	_, err := client.CreateArtifact(context.Background(), dialogue.ArtifactRequest{Title: "t"})
	require.Error(t, err)
	assert.Equal(t, string(errors.ErrCodeArtifactCreateFailed), errors.CodeOf(err))
}

func TestCreateArtifact_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "render timeout", http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second, logger.NewTestLogger(t))
	_, err := client.CreateArtifact(context.Background(), dialogue.ArtifactRequest{Title: "t"})
	require.Error(t, err)
	assert.Equal(t, string(errors.ErrCodeArtifactCreateFailed), errors.CodeOf(err))
	assert.True(t, errors.IsRetryable(err))
}
