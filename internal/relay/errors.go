package relay

import "errors"

var (
	ErrMethodNotAllowed = errors.New("method not allowed")
	ErrInvalidPayload   = errors.New("invalid payload")
	ErrInvalidEmail     = errors.New("invalid email")
	ErrConfiguration    = errors.New("configuration error")
	ErrDelivery         = errors.New("delivery failed")
)
