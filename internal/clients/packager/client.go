// Package packager is the client for the external packaging service that
// bundles transcript and artifact into a downloadable file.
package packager

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"proposal-chat/internal/common/errors"
	"proposal-chat/internal/common/httpclient"
	"proposal-chat/internal/common/logger"
	"proposal-chat/internal/dialogue"
)

type Client struct {
	baseURL    string
	httpClient *httpclient.Client
	log        logger.Logger
}

type packageRequest struct {
	Title           string             `json:"title"`
	Transcript      []dialogue.Message `json:"transcript"`
	DocumentPayload string             `json:"documentPayload,omitempty"`
}

func NewClient(baseURL string, timeout time.Duration, log logger.Logger) *Client {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: httpclient.NewClient(timeout),
		log:        log,
	}
}

// Package requests a binary bundle of the transcript and the last-known
// document payload (which may be absent).
func (c *Client) Package(ctx context.Context, title string, transcript []dialogue.Message, documentPayload string) ([]byte, error) {
	jsonData, err := json.Marshal(packageRequest{
		Title:           title,
		Transcript:      transcript,
		DocumentPayload: documentPayload,
	})
	if err != nil {
		return nil, errors.NewPackageExportFailedError(fmt.Errorf("failed to marshal request: %w", err))
	}

	url := fmt.Sprintf("%s/api/package", c.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, errors.NewPackageExportFailedError(fmt.Errorf("failed to create request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/octet-stream")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, errors.NewPackageExportFailedError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.NewPackageExportFailedError(fmt.Errorf("failed to read bundle: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.NewPackageExportFailedError(
			fmt.Errorf("packaging service returned status %d: %s", resp.StatusCode, string(body)))
	}
	if len(body) == 0 {
		return nil, errors.NewPackageExportFailedError(fmt.Errorf("packaging service returned an empty bundle"))
	}

	c.log.Info("session bundle packaged", map[string]interface{}{
		"title": title,
		"bytes": len(body),
	})
	return body, nil
}

// DiskSaver writes share bundles into a local directory, the terminal
// client's save-as action.
type DiskSaver struct {
	Dir string
}

func (d DiskSaver) Save(name string, data []byte) error {
	dir := d.Dir
	if dir == "" {
		dir = "."
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to save bundle to %s: %w", path, err)
	}
	return nil
}
