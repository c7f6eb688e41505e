// Package brevo sends transactional email through the Brevo SMTP API.
package brevo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/namahsea/sellmo-landing-page/internal/metrics"
	"github.com/namahsea/sellmo-landing-page/internal/notify"
)

// DefaultBaseURL is the production Brevo API.
const DefaultBaseURL = "https://api.brevo.com"

const sendPath = "/v3/smtp/email"

// maxResponseSize bounds how much of a provider response is read.
const maxResponseSize = 64 * 1024

// APIError is a non-2xx answer from Brevo.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("brevo: status %d", e.StatusCode)
	}
	return fmt.Sprintf("brevo: status %d: %s", e.StatusCode, e.Message)
}

// Client is a Brevo transactional email client.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	logger     zerolog.Logger
}

// NewClient creates a client. The HTTP client carries no timeout of its own;
// callers bound each send through the context.
func NewClient(baseURL string, logger zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{},
		logger:     logger,
	}
}

type sendResponse struct {
	MessageID string `json:"messageId"`
	Code      string `json:"code"`
	Message   string `json:"message"`
}

// Send delivers one notification and returns the provider message ID.
// A provider rejection is returned as *APIError; anything else is a transport
// or decoding failure.
func (c *Client) Send(ctx context.Context, apiKey string, n notify.Notification) (string, error) {
	body, err := json.Marshal(n)
	if err != nil {
		return "", fmt.Errorf("encode notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+sendPath, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("api-key", apiKey)

	start := time.Now()
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		metrics.DeliveryDuration.WithLabelValues("transport_error").Observe(time.Since(start).Seconds())
		c.logger.Error().Err(err).Msg("brevo request failed")
		return "", err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		metrics.DeliveryDuration.WithLabelValues("transport_error").Observe(time.Since(start).Seconds())
		return "", fmt.Errorf("read response: %w", err)
	}

	var parsed sendResponse
	decodeErr := json.Unmarshal(respBody, &parsed)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.DeliveryDuration.WithLabelValues("rejected").Observe(time.Since(start).Seconds())
		c.logger.Warn().
			Int("status", resp.StatusCode).
			Str("code", parsed.Code).
			Str("message", parsed.Message).
			Msg("brevo rejected email")
		return "", &APIError{StatusCode: resp.StatusCode, Code: parsed.Code, Message: parsed.Message}
	}

	metrics.DeliveryDuration.WithLabelValues("ok").Observe(time.Since(start).Seconds())
	if decodeErr != nil && len(bytes.TrimSpace(respBody)) > 0 {
		return "", fmt.Errorf("decode response: %w", decodeErr)
	}

	c.logger.Info().Str("message_id", parsed.MessageID).Msg("email sent")
	return parsed.MessageID, nil
}
