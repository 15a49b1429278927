package packager

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"proposal-chat/internal/common/errors"
	"proposal-chat/internal/common/logger"
	"proposal-chat/internal/dialogue"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPackage_Success(t *testing.T) {
	var got map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/package", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/octet-stream")
		w.Write([]byte("bundle-bytes"))
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second, logger.NewTestLogger(t))
	data, err := client.Package(context.Background(), "Estimator chat abc12345", []dialogue.Message{
		{Sender: dialogue.SenderUser, Text: "Build me a WordPress site"},
		{Sender: dialogue.SenderBot, Text: "What's your name?"},
	}, "ZG9j")
	require.NoError(t, err)

	assert.Equal(t, []byte("bundle-bytes"), data)
	assert.Equal(t, "Estimator chat abc12345", got["title"])
	assert.Equal(t, "ZG9j", got["documentPayload"])
	transcript, ok := got["transcript"].([]interface{})
	require.True(t, ok)
	assert.Len(t, transcript, 2)
}

func TestPackage_EmptyBundle(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second, logger.NewTestLogger(t))
	_, err := client.Package(context.Background(), "t", nil, "")
	require.Error(t, err)
	assert.Equal(t, string(errors.ErrCodePackageExportFailed), errors.CodeOf(err))
}

func TestPackage_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bundler down", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second, logger.NewTestLogger(t))
	_, err := client.Package(context.Background(), "t", nil, "")
	require.Error(t, err)
	assert.Equal(t, string(errors.ErrCodePackageExportFailed), errors.CodeOf(err))
}

func TestDiskSaver_WritesFile(t *testing.T) {
	dir := t.TempDir()
	saver := DiskSaver{Dir: dir}

	require.NoError(t, saver.Save("proposal-chat-abc12345.zip", []byte("bundle-bytes")))

	data, err := os.ReadFile(filepath.Join(dir, "proposal-chat-abc12345.zip"))
	require.NoError(t, err)
	assert.Equal(t, []byte("bundle-bytes"), data)
}
