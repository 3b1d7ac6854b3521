package errors

import (
	"errors"
	"fmt"
)

// Storage sentinels.
var (
	ErrNotFound         = errors.New("not found")
	ErrIdentityMismatch = errors.New("detail record does not match requested user")
)

// Kind classifies failures of the remote user-directory API.
type Kind int

const (
	KindInvalidRequest Kind = iota + 1
	KindNoData
	KindDecoding
	KindTransport
	KindRateLimitExceeded
	KindServer
	KindUnknown
)

func (k Kind) String() string {
	switch k {
	case KindInvalidRequest:
		return "invalid_request"
	case KindNoData:
		return "no_data"
	case KindDecoding:
		return "decoding_error"
	case KindTransport:
		return "transport_error"
	case KindRateLimitExceeded:
		return "rate_limit_exceeded"
	case KindServer:
		return "server_error"
	default:
		return "unknown"
	}
}

// APIError is the closed error taxonomy surfaced by the API client.
// Every kind is recoverable by retrying.
type APIError struct {
	Kind   Kind
	Detail string
	Err    error
}

// Sentinels for errors.Is; matching is by kind.
var (
	ErrInvalidRequest    = &APIError{Kind: KindInvalidRequest}
	ErrNoData            = &APIError{Kind: KindNoData}
	ErrDecoding          = &APIError{Kind: KindDecoding}
	ErrTransport         = &APIError{Kind: KindTransport}
	ErrRateLimitExceeded = &APIError{Kind: KindRateLimitExceeded}
	ErrServer            = &APIError{Kind: KindServer}
	ErrUnknown           = &APIError{Kind: KindUnknown}
)

// TransportError wraps a connection-level failure.
func TransportError(err error) *APIError {
	detail := "network error"
	if err != nil {
		detail = err.Error()
	}
	return &APIError{Kind: KindTransport, Detail: detail, Err: err}
}

// NewAPIError builds an error of the given kind wrapping cause.
func NewAPIError(kind Kind, cause error) *APIError {
	return &APIError{Kind: kind, Err: cause}
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return e.Kind.String()
}

func (e *APIError) Unwrap() error { return e.Err }

// Is matches any APIError of the same kind.
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	return ok && t.Kind == e.Kind
}

// Message returns the text shown to the user.
func (e *APIError) Message() string {
	switch e.Kind {
	case KindInvalidRequest:
		return "Invalid request."
	case KindNoData:
		return "No data received."
	case KindDecoding:
		return "The response could not be processed."
	case KindTransport:
		if e.Detail != "" {
			return e.Detail
		}
		return "Network error."
	case KindRateLimitExceeded:
		return "API rate limit exceeded. Please try again later."
	case KindServer:
		return "The server encountered an error."
	default:
		return "An unexpected error occurred."
	}
}

// UserMessage translates any error into a human-readable message.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message()
	}
	return ErrUnknown.Message()
}
