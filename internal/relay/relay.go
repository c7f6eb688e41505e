// Package relay forwards beta signups to the transactional email provider.
//
// Each invocation is independent: the request is negotiated into a typed
// submission, validated, rendered into a welcome notification and sent with a
// single bounded call. Nothing is retried and nothing is stored.
package relay

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/namahsea/sellmo-landing-page/internal/brevo"
	"github.com/namahsea/sellmo-landing-page/internal/models"
	"github.com/namahsea/sellmo-landing-page/internal/notify"
)

// APIKeyEnv names the variable holding the provider credential.
const APIKeyEnv = "BREVO_API_KEY"

// DefaultTimeout bounds the provider call.
const DefaultTimeout = 10 * time.Second

// Response bodies returned to callers.
const (
	msgMethodNotAllowed = "Method not allowed"
	msgInvalidJSON      = "Invalid JSON data"
	msgInvalidEmail     = "Valid email is required"
	msgSent             = "Welcome email sent successfully!"
	msgSendFailed       = "Failed to send welcome email"
	msgNotConfigured    = "Brevo API key not configured"
	msgProviderDefault  = "Failed to send email"
)

// Outcome is the terminal state of one invocation.
type Outcome int

const (
	MethodRejected Outcome = iota
	PayloadRejected
	EmailRejected
	DeliveryConfirmed
	DeliveryFailed
)

func (o Outcome) String() string {
	switch o {
	case MethodRejected:
		return "method_rejected"
	case PayloadRejected:
		return "payload_rejected"
	case EmailRejected:
		return "email_rejected"
	case DeliveryConfirmed:
		return "delivery_confirmed"
	case DeliveryFailed:
		return "delivery_failed"
	default:
		return "unknown"
	}
}

// Status maps the outcome to its HTTP status code.
func (o Outcome) Status() int {
	switch o {
	case MethodRejected:
		return http.StatusMethodNotAllowed
	case PayloadRejected, EmailRejected:
		return http.StatusBadRequest
	case DeliveryConfirmed:
		return http.StatusOK
	default:
		return http.StatusInternalServerError
	}
}

// SuccessBody is returned once the provider accepts the email.
type SuccessBody struct {
	Message string `json:"message"`
	Email   string `json:"email"`
}

// ErrorBody is returned for every rejected or failed invocation.
type ErrorBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// Response is the uniform result of one invocation.
type Response struct {
	Outcome    Outcome
	Status     int
	Body       any
	Submission models.SignupSubmission
	Result     models.RelayResult
	Err        error
}

// Sender delivers a rendered notification and returns the provider message ID.
type Sender interface {
	Send(ctx context.Context, apiKey string, n notify.Notification) (string, error)
}

// KeyFunc returns the provider credential. It is called once per invocation.
type KeyFunc func() string

// EnvKey reads the credential from BREVO_API_KEY.
func EnvKey() string {
	return os.Getenv(APIKeyEnv)
}

// Option configures a Relay.
type Option func(*Relay)

// WithKeyFunc replaces EnvKey.
func WithKeyFunc(f KeyFunc) Option {
	return func(rl *Relay) { rl.apiKey = f }
}

// WithTimeout bounds the provider call. Zero or negative keeps DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(rl *Relay) {
		if d > 0 {
			rl.timeout = d
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(rl *Relay) { rl.logger = logger }
}

// Relay turns one signup request into one provider call.
type Relay struct {
	sender   Sender
	template *notify.Template
	apiKey   KeyFunc
	timeout  time.Duration
	logger   zerolog.Logger
}

// New creates a relay that renders tmpl and sends it through sender.
func New(sender Sender, tmpl *notify.Template, opts ...Option) *Relay {
	rl := &Relay{
		sender:   sender,
		template: tmpl,
		apiKey:   EnvKey,
		timeout:  DefaultTimeout,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(rl)
	}
	return rl
}

// Handle runs one invocation to a terminal state.
func (rl *Relay) Handle(r *http.Request) Response {
	if r.Method != http.MethodPost {
		return rl.reject(MethodRejected, models.SignupSubmission{}, ErrMethodNotAllowed, msgMethodNotAllowed)
	}

	sub, err := Negotiate(r)
	log := rl.logger.With().
		Str("submission_id", sub.ID).
		Str("content_type", r.Header.Get("Content-Type")).
		Str("origin", string(sub.Origin)).
		Logger()
	if err != nil {
		log.Warn().Err(err).Msg("signup payload rejected")
		return rl.reject(PayloadRejected, sub, err, msgInvalidJSON)
	}

	if err := Validate(sub); err != nil {
		log.Info().Err(err).Msg("signup email rejected")
		return rl.reject(EmailRejected, sub, err, msgInvalidEmail)
	}

	log = log.With().Str("email_domain", domainOf(sub.Email)).Str("form", sub.SourceForm).Logger()

	result, err := rl.deliver(r.Context(), sub)
	if err != nil {
		log.Error().Err(err).Str("details", result.Error).Msg("welcome email failed")
		return Response{
			Outcome:    DeliveryFailed,
			Status:     DeliveryFailed.Status(),
			Body:       ErrorBody{Error: msgSendFailed, Details: result.Error},
			Submission: sub,
			Result:     result,
			Err:        err,
		}
	}

	log.Info().Str("message_id", result.MessageID).Msg("welcome email sent")
	return Response{
		Outcome:    DeliveryConfirmed,
		Status:     DeliveryConfirmed.Status(),
		Body:       SuccessBody{Message: msgSent, Email: sub.Email},
		Submission: sub,
		Result:     result,
	}
}

// deliver renders and sends the welcome notification. The returned result
// always carries the caller-facing detail on failure.
func (rl *Relay) deliver(ctx context.Context, sub models.SignupSubmission) (models.RelayResult, error) {
	key := ""
	if rl.apiKey != nil {
		key = rl.apiKey()
	}
	if key == "" {
		return models.RelayResult{Error: msgNotConfigured}, ErrConfiguration
	}

	ctx, cancel := context.WithTimeout(ctx, rl.timeout)
	defer cancel()

	messageID, err := rl.sender.Send(ctx, key, rl.template.Render(sub.Email))
	if err == nil {
		return models.RelayResult{Success: true, MessageID: messageID}, nil
	}

	var apiErr *brevo.APIError
	if errors.As(err, &apiErr) {
		detail := apiErr.Message
		if detail == "" {
			detail = msgProviderDefault
		}
		return models.RelayResult{Error: detail}, errors.Join(ErrDelivery, err)
	}
	return models.RelayResult{Error: "Network error: " + err.Error()}, errors.Join(ErrDelivery, err)
}

func (rl *Relay) reject(o Outcome, sub models.SignupSubmission, err error, msg string) Response {
	return Response{
		Outcome:    o,
		Status:     o.Status(),
		Body:       ErrorBody{Error: msg},
		Submission: sub,
		Err:        err,
	}
}

func domainOf(email string) string {
	if i := strings.LastIndexByte(email, '@'); i >= 0 {
		return email[i+1:]
	}
	return ""
}
