package tiktok

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failed lookup. Every kind ends up as a single
// user-facing message; none of them is fatal to the process.
type ErrorKind string

const (
	KindInvalidInput        ErrorKind = "InvalidInput"
	KindUpstreamUnavailable ErrorKind = "UpstreamUnavailable"
	KindMalformedResponse   ErrorKind = "MalformedResponse"
	KindExtractionFailed    ErrorKind = "ExtractionFailed"
	KindUnknown             ErrorKind = "Unknown"
)

// Sentinels for errors.Is. A *LookupError matches the sentinel of its kind.
var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrMalformedResponse   = errors.New("malformed response")
	ErrExtractionFailed    = errors.New("extraction failed")
	ErrUnknown             = errors.New("unknown lookup error")
)

const (
	msgInvalidLink   = "Invalid TikTok URL. Please copy a valid link from TikTok."
	msgNotProcessed  = "Could not process this video. It might be private, deleted, or region-locked."
	msgLookupFailed  = "Failed to extract video data. Please try again or check the link."
	msgProxyStatus   = "Proxy service unavailable (Status: %d)"
	msgLookupTimeout = "The lookup timed out. Please try again."
)

// LookupError is the only error type Lookup returns.
type LookupError struct {
	Kind    ErrorKind
	Message string // safe to show to the user
	Err     error  // underlying cause, may be nil
}

func (e *LookupError) Error() string {
	return e.Message
}

func (e *LookupError) Unwrap() error {
	return e.Err
}

func (e *LookupError) Is(target error) bool {
	return target == e.Kind.sentinel()
}

func (k ErrorKind) sentinel() error {
	switch k {
	case KindInvalidInput:
		return ErrInvalidInput
	case KindUpstreamUnavailable:
		return ErrUpstreamUnavailable
	case KindMalformedResponse:
		return ErrMalformedResponse
	case KindExtractionFailed:
		return ErrExtractionFailed
	default:
		return ErrUnknown
	}
}

// KindOf returns the kind of err, or KindUnknown when err is not a *LookupError.
func KindOf(err error) ErrorKind {
	var le *LookupError
	if errors.As(err, &le) {
		return le.Kind
	}
	return KindUnknown
}

// AsLookupError converts any error into a *LookupError, keeping the original
// message when there is one and falling back to a generic one otherwise.
func AsLookupError(err error) *LookupError {
	if err == nil {
		return nil
	}
	var le *LookupError
	if errors.As(err, &le) {
		return le
	}
	msg := err.Error()
	if msg == "" {
		msg = msgLookupFailed
	}
	return &LookupError{Kind: KindUnknown, Message: msg, Err: err}
}

func malformed(layer string, err error) *LookupError {
	return &LookupError{
		Kind:    KindMalformedResponse,
		Message: fmt.Sprintf("Unexpected response from the %s. Please try again later.", layer),
		Err:     fmt.Errorf("decode %s response: %w", layer, err),
	}
}
