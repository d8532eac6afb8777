package assistant

import (
	"errors"
	"fmt"
	"time"
)

// Kind classifies a failure inside the suggestion pipeline
type Kind int

const (
	// KindUnknown is any error that was not produced by this module
	KindUnknown Kind = iota
	// KindConfigurationAbsent means the provider credential is missing
	KindConfigurationAbsent
	// KindRateLimited means the provider asked us to slow down
	KindRateLimited
	// KindProviderServerError is a 5xx-equivalent provider failure
	KindProviderServerError
	// KindProviderOtherError is any other provider failure
	KindProviderOtherError
	// KindQuotaExceeded means the local per-user quota is used up
	KindQuotaExceeded
	// KindNotFound means the contact or context could not be loaded
	KindNotFound
	// KindMalformedResponse means the provider output did not match the expected shape
	KindMalformedResponse
	// KindLedgerWriteFailure means a usage record could not be persisted
	KindLedgerWriteFailure
)

// String returns the string representation of Kind
func (k Kind) String() string {
	switch k {
	case KindConfigurationAbsent:
		return "configuration_absent"
	case KindRateLimited:
		return "rate_limited"
	case KindProviderServerError:
		return "provider_server_error"
	case KindProviderOtherError:
		return "provider_other_error"
	case KindQuotaExceeded:
		return "quota_exceeded"
	case KindNotFound:
		return "not_found"
	case KindMalformedResponse:
		return "malformed_response"
	case KindLedgerWriteFailure:
		return "ledger_write_failure"
	default:
		return "unknown"
	}
}

// Retryable reports whether a failure of this kind may succeed on another attempt
func (k Kind) Retryable() bool {
	return k == KindRateLimited || k == KindProviderServerError
}

// Error is a classified pipeline error
type Error struct {
	Kind    Kind
	Message string
	// RetryAfter is the provider-specified delay, only set for KindRateLimited
	RetryAfter time.Duration
	Err        error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (inner: %v)", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the wrapped error
func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of err, or KindUnknown if err is not an *Error
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// NewConfigurationError creates a new configuration-absent error
func NewConfigurationError(message string) *Error {
	return &Error{Kind: KindConfigurationAbsent, Message: message}
}

// NewRateLimitError creates a new provider rate limit error
func NewRateLimitError(message string, retryAfter time.Duration, inner error) *Error {
	return &Error{Kind: KindRateLimited, Message: message, RetryAfter: retryAfter, Err: inner}
}

// NewServerError creates a new provider server error
func NewServerError(message string, inner error) *Error {
	return &Error{Kind: KindProviderServerError, Message: message, Err: inner}
}

// NewProviderError creates a new non-retryable provider error
func NewProviderError(message string, inner error) *Error {
	return &Error{Kind: KindProviderOtherError, Message: message, Err: inner}
}

// NewQuotaError creates a new local quota error
func NewQuotaError(message string) *Error {
	return &Error{Kind: KindQuotaExceeded, Message: message}
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string, inner error) *Error {
	return &Error{Kind: KindNotFound, Message: message, Err: inner}
}

// NewMalformedResponseError creates a new malformed response error
func NewMalformedResponseError(message string, inner error) *Error {
	return &Error{Kind: KindMalformedResponse, Message: message, Err: inner}
}

// NewLedgerError creates a new ledger write error
func NewLedgerError(message string, inner error) *Error {
	return &Error{Kind: KindLedgerWriteFailure, Message: message, Err: inner}
}
