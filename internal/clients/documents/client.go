// Package documents is the HTTP client for the external document service
// that renders completed estimates into downloadable artifacts.
package documents

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
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

type createResponse struct {
	DownloadURL string `json:"downloadUrl"`
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

// CreateArtifact submits the opaque document payload, the raw estimate
// object and a title, and returns the download link of the produced
// artifact.
func (c *Client) CreateArtifact(ctx context.Context, req dialogue.ArtifactRequest) (string, error) {
	jsonData, err := json.Marshal(req)
	if err != nil {
		return "", errors.NewArtifactCreateFailedError(fmt.Errorf("failed to marshal request: %w", err))
	}

	url := fmt.Sprintf("%s/api/documents", c.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", errors.NewArtifactCreateFailedError(fmt.Errorf("failed to create request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", errors.NewArtifactCreateFailedError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.NewArtifactCreateFailedError(fmt.Errorf("failed to read response body: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", errors.NewArtifactCreateFailedError(
			fmt.Errorf("document service returned status %d: %s", resp.StatusCode, string(body)))
	}

	var out createResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", errors.NewArtifactCreateFailedError(fmt.Errorf("failed to unmarshal response: %w", err))
	}
	if out.DownloadURL == "" {
		return "", errors.NewArtifactCreateFailedError(fmt.Errorf("response missing downloadUrl"))
	}

	c.log.Info("artifact created", map[string]interface{}{
		"title":       req.Title,
		"downloadUrl": out.DownloadURL,
	})
	return out.DownloadURL, nil
}
