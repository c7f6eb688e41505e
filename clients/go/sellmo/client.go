// Package sellmo provides a client for the Sellmo landing page API.
package sellmo

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultBaseURL is the production landing page.
const DefaultBaseURL = "https://justsellmo.com"

// Client is a Sellmo API client.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// APIError is an error response from the API.
type APIError struct {
	StatusCode int
	Message    string `json:"error"`
	Details    string `json:"details"`
}

func (e *APIError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("sellmo error %d: %s: %s", e.StatusCode, e.Message, e.Details)
	}
	return fmt.Sprintf("sellmo error %d: %s", e.StatusCode, e.Message)
}

// NewClient creates a new Sellmo client.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// doRequest performs an HTTP request and returns the body of a 2xx response.
func (c *Client) doRequest(method, path, contentType string, body []byte) ([]byte, error) {
	req, err := http.NewRequest(method, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		json.Unmarshal(respBody, apiErr)
		return nil, apiErr
	}

	return respBody, nil
}

// SignupRequest is the JSON body accepted by the signup relay.
type SignupRequest struct {
	Email    string `json:"email"`
	FormName string `json:"form-name,omitempty"`
}

// SignupResponse is returned once the welcome email is accepted.
type SignupResponse struct {
	Message string `json:"message"`
	Email   string `json:"email"`
}

// Signup submits an email as JSON, the way the chat widget does.
func (c *Client) Signup(email, formName string) (*SignupResponse, error) {
	body, _ := json.Marshal(SignupRequest{Email: email, FormName: formName})
	respBody, err := c.doRequest("POST", "/api/signup", "application/json", body)
	if err != nil {
		return nil, err
	}

	var resp SignupResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SignupForm submits an email URL-encoded, the way the HTML form does.
func (c *Client) SignupForm(email, formName string) (*SignupResponse, error) {
	form := url.Values{}
	form.Set("email", email)
	if formName != "" {
		form.Set("form-name", formName)
	}
	respBody, err := c.doRequest("POST", "/api/signup", "application/x-www-form-urlencoded", []byte(form.Encode()))
	if err != nil {
		return nil, err
	}

	var resp SignupResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TimelineEntry is one reveal event in the chat intro.
type TimelineEntry struct {
	ID         string `json:"id"`
	RevealAtMs int64  `json:"reveal_at_ms"`
}

// IntroResponse is the chat intro timeline.
type IntroResponse struct {
	RunID        string          `json:"run_id"`
	TransitionMs int64           `json:"transition_ms"`
	Entries      []TimelineEntry `json:"entries"`
}

// Intro fetches the chat intro timeline.
func (c *Client) Intro() (*IntroResponse, error) {
	respBody, err := c.doRequest("GET", "/api/intro", "", nil)
	if err != nil {
		return nil, err
	}

	var resp IntroResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// HealthCheck is one component of the health report.
type HealthCheck struct {
	Status  string `json:"status"`
	Latency string `json:"latency,omitempty"`
	Message string `json:"message,omitempty"`
}

// HealthResponse is the health report.
type HealthResponse struct {
	Status    string                 `json:"status"`
	Version   string                 `json:"version"`
	Checks    map[string]HealthCheck `json:"checks"`
	Timestamp string                 `json:"timestamp"`
}

// Health checks server health. A degraded server (503) still returns its
// report alongside the error.
func (c *Client) Health() (*HealthResponse, error) {
	resp, err := c.HTTPClient.Get(c.BaseURL + "/health")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var report HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		return nil, fmt.Errorf("decode health report: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return &report, &APIError{StatusCode: resp.StatusCode, Message: report.Status}
	}
	return &report, nil
}
