package llm

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/hyperjump/kotae/internal/models"
)

// Kind classifies a completion failure for user-facing messages.
type Kind string

const (
	KindAuth      Kind = "auth"
	KindQuota     Kind = "quota"
	KindRateLimit Kind = "rate_limit"
	KindOther     Kind = "other"
)

// CompletionError is returned by every ChatModel. errors.Is(err, models.ErrCompletionFailed)
// holds for all of them.
type CompletionError struct {
	Provider   string
	Kind       Kind
	StatusCode int
	Err        error
}

func (e *CompletionError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s completion failed (%s, status %d): %v", e.Provider, e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s completion failed (%s): %v", e.Provider, e.Kind, e.Err)
}

func (e *CompletionError) Unwrap() error { return e.Err }

// Is reports whether target is models.ErrCompletionFailed.
func (e *CompletionError) Is(target error) bool {
	return target == models.ErrCompletionFailed
}

// KindOf returns the Kind of the first CompletionError in err's chain, or KindOther.
func KindOf(err error) Kind {
	var ce *CompletionError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindOther
}

// classify wraps err as a CompletionError. statusCode is 0 when the backend gave none.
func classify(provider string, statusCode int, err error) *CompletionError {
	var ce *CompletionError
	if errors.As(err, &ce) {
		return ce
	}
	return &CompletionError{
		Provider:   provider,
		Kind:       classifyKind(statusCode, err),
		StatusCode: statusCode,
		Err:        err,
	}
}

func classifyKind(statusCode int, err error) Kind {
	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return KindAuth
	case http.StatusPaymentRequired:
		return KindQuota
	case http.StatusTooManyRequests:
		return KindRateLimit
	}
	if err == nil {
		return KindOther
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "api key"), strings.Contains(msg, "api_key"), strings.Contains(msg, "unauthorized"):
		return KindAuth
	case strings.Contains(msg, "quota"):
		return KindQuota
	case strings.Contains(msg, "rate limit"), strings.Contains(msg, "rate_limit"), strings.Contains(msg, "too many requests"):
		return KindRateLimit
	default:
		return KindOther
	}
}
