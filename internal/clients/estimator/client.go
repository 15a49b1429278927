// Package estimator is the HTTP client for the remote estimation service.
package estimator

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

	"github.com/xeipuuv/gojsonschema"
)

// responseSchema is deliberately permissive: it pins the types of the
// fields the dialogue consumes without rejecting extra fields the service
// may send. A violating body degrades to the raw-echo fallback rather
// than failing the exchange.
const responseSchema = `{
	"type": "object",
	"properties": {
		"questions": {"type": "array", "items": {"type": "string"}},
		"requires_clarification": {"type": "boolean"},
		"status": {"type": "string"},
		"summary": {"type": "string"},
		"estimate": {"type": "object"},
		"document": {"type": "string"},
		"sow": {"type": "string"}
	}
}`

type Client struct {
	baseURL    string
	httpClient *httpclient.Client
	schema     *gojsonschema.Schema
	log        logger.Logger
}

type messageRequest struct {
	Text    string            `json:"text"`
	Answers []dialogue.Answer `json:"answers,omitempty"`
	Mode    string            `json:"mode"`
}

type messageResponse struct {
	Questions []string               `json:"questions"`
	Status    string                 `json:"status"`
	Summary   string                 `json:"summary"`
	Estimate  map[string]interface{} `json:"estimate"`
	Document  string                 `json:"document"`
	// Sow is the legacy field name for the base64 document payload.
	Sow string `json:"sow"`
}

func NewClient(baseURL string, timeout time.Duration, log logger.Logger) (*Client, error) {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(responseSchema))
	if err != nil {
		return nil, fmt.Errorf("failed to compile estimator response schema: %w", err)
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: httpclient.NewClient(timeout),
		schema:     schema,
		log:        log,
	}, nil
}

// SendMessage posts one dialogue round. The service is stateless at the
// request boundary; follow-ups carry the original text plus all answers.
func (c *Client) SendMessage(ctx context.Context, req dialogue.EstimateRequest) (*dialogue.EstimateResponse, error) {
	payload := messageRequest{Text: req.Text, Answers: req.Answers, Mode: req.Mode}
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.NewEstimateRequestFailedError(fmt.Errorf("failed to marshal request: %w", err))
	}

	url := fmt.Sprintf("%s/api/message", c.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, errors.NewEstimateRequestFailedError(fmt.Errorf("failed to create request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, errors.NewEstimateRequestFailedError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.NewEstimateRequestFailedError(fmt.Errorf("failed to read response body: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.NewEstimateRequestFailedError(
			fmt.Errorf("estimation service returned status %d: %s", resp.StatusCode, string(body)))
	}

	return c.parseResponse(body), nil
}

// parseResponse never fails: an invalid body comes back with only Raw set
// so the orchestrator can echo it as a best-effort message.
func (c *Client) parseResponse(body []byte) *dialogue.EstimateResponse {
	result, err := c.schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil || !result.Valid() {
		details := "not a JSON object"
		if err == nil {
			details = fmt.Sprintf("%v", result.Errors())
		}
		c.log.Warn("estimation response failed schema validation", map[string]interface{}{
			"errorCode": string(errors.ErrCodeMalformedResponse),
			"details":   details,
		})
		return &dialogue.EstimateResponse{Raw: json.RawMessage(body)}
	}

	var wire messageResponse
	if err := json.Unmarshal(body, &wire); err != nil {
		c.log.Warn("estimation response failed to unmarshal", map[string]interface{}{
			"errorCode": string(errors.ErrCodeMalformedResponse),
			"error":     err.Error(),
		})
		return &dialogue.EstimateResponse{Raw: json.RawMessage(body)}
	}

	out := &dialogue.EstimateResponse{
		Questions: wire.Questions,
		Completed: wire.Status == "completed",
		Summary:   wire.Summary,
		Estimate:  wire.Estimate,
		Document:  wire.Document,
		Raw:       json.RawMessage(body),
	}
	if out.Document == "" {
		out.Document = wire.Sow
	}
	if wire.Estimate != nil {
		if total, ok := wire.Estimate["totalCost"].(float64); ok {
			out.TotalCost = total
			out.HasTotal = true
		}
	}
	return out
}
