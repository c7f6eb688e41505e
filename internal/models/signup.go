package models

// Origin identifies how a signup reached the relay.
type Origin string

const (
	OriginJSON Origin = "json" // programmatic fetch from the chat widget
	OriginForm Origin = "form" // native HTML form POST
)

// SignupSubmission is one email handed to the relay. It lives for a single request.
type SignupSubmission struct {
	ID         string `json:"id"` // ULID, log correlation only
	Email      string `json:"email"`
	SourceForm string `json:"form-name,omitempty"`
	Origin     Origin `json:"-"`
}

// RelayResult is the outcome of one delivery attempt.
type RelayResult struct {
	Success   bool   `json:"success"`
	MessageID string `json:"messageId,omitempty"`
	Error     string `json:"error,omitempty"`
}
