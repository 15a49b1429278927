// Package leads is the client for the external lead-tracking sink, with an
// optional email alert to the sales team on delivered leads.
package leads

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

// Notifier is a side channel informed after each delivered lead. Notifier
// failures never fail the delivery.
type Notifier interface {
	Notify(ctx context.Context, lead dialogue.Lead) error
}

type Client struct {
	baseURL    string
	httpClient *httpclient.Client
	notifier   Notifier
	log        logger.Logger
}

func NewClient(baseURL string, timeout time.Duration, notifier Notifier, log logger.Logger) *Client {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: httpclient.NewClient(timeout),
		notifier:   notifier,
		log:        log,
	}
}

// SendLead posts contact details, status message, optional document
// payload and the full transcript to the lead sink.
func (c *Client) SendLead(ctx context.Context, lead dialogue.Lead) error {
	jsonData, err := json.Marshal(lead)
	if err != nil {
		return errors.NewLeadDeliveryFailedError(fmt.Errorf("failed to marshal lead: %w", err))
	}

	url := fmt.Sprintf("%s/api/leads", c.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return errors.NewLeadDeliveryFailedError(fmt.Errorf("failed to create request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return errors.NewLeadDeliveryFailedError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		return errors.NewLeadDeliveryFailedError(
			fmt.Errorf("lead sink returned status %d: %s", resp.StatusCode, string(body)))
	}

	c.log.Info("lead delivered", map[string]interface{}{
		"email":  lead.Email,
		"status": lead.Message,
	})

	if c.notifier != nil {
		if err := c.notifier.Notify(ctx, lead); err != nil {
			c.log.Warn("lead notification failed", map[string]interface{}{
				"email": lead.Email,
				"error": err.Error(),
			})
		}
	}
	return nil
}
