package bot

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrEmptyReply signals that the completion API returned no usable text.
// Callers treat it as a non-fatal no-op: nothing is posted and the dedup
// state is left unchanged.
var ErrEmptyReply = errors.New("completion returned empty reply")

// ConfigError reports a missing or invalid required setting.
type ConfigError struct {
	Setting string
}

func (e *ConfigError) Error() string { return "missing required setting: " + e.Setting }

// AuthError reports a missing or invalid credential. Hint tells the operator
// how to recover (usually: complete the OAuth flow at /auth).
type AuthError struct {
	Err  error
	Hint string
}

func (e *AuthError) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("auth: %v (%s)", e.Err, e.Hint)
	}
	return "auth: " + e.Err.Error()
}

func (e *AuthError) Unwrap() error { return e.Err }

// UpstreamError reports a vendor API non-success response or transport failure.
// Timeout marks deadline-style failures; they share the upstream classification.
type UpstreamError struct {
	Op      string
	Err     error
	Timeout bool
}

func (e *UpstreamError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("%s: timeout: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// GenerationError reports a transport-level failure of the completion API.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string { return "generate reply: " + e.Err.Error() }

func (e *GenerationError) Unwrap() error { return e.Err }

// WrapUpstream wraps a vendor call failure, detecting timeouts so they can be
// surfaced distinctly while still classifying as upstream.
func WrapUpstream(op string, err error) error {
	ue := &UpstreamError{Op: op, Err: err}
	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		ue.Timeout = true
	}
	return ue
}

// Classify maps an error to its taxonomy bucket for logging and HTTP responses.
func Classify(err error) string {
	var (
		ce *ConfigError
		ae *AuthError
		ue *UpstreamError
		ge *GenerationError
	)
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrEmptyReply):
		return "empty-reply"
	case errors.As(err, &ce):
		return "config"
	case errors.As(err, &ae):
		return "auth"
	case errors.As(err, &ue):
		return "upstream"
	case errors.As(err, &ge):
		return "generation"
	default:
		return "internal"
	}
}
