// Package provider defines the normalized error taxonomy and retry policy
// shared by every external data source (enrichment, discovery, copy
// generation). Provider-specific error shapes must not escape this taxonomy.
package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// Kind is the normalized failure class for a provider call.
type Kind int

const (
	// KindRateLimited means the provider throttled the call. Retryable.
	KindRateLimited Kind = iota
	// KindAuthFailed means credentials were rejected. Never retried; the
	// provider is disabled for the remainder of the run.
	KindAuthFailed
	// KindUnavailable covers 5xx responses, network failures and timeouts.
	// Retryable.
	KindUnavailable
	// KindNotFound is the expected "no data" outcome, not a failure.
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindRateLimited:
		return "rate_limited"
	case KindAuthFailed:
		return "auth_failed"
	case KindUnavailable:
		return "unavailable"
	case KindNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// Error is a normalized provider failure.
type Error struct {
	Provider string
	Op       string
	Kind     Kind
	Err      error
}

func (e *Error) Error() string {
	if e == nil {
		return "provider error"
	}
	parts := []string{fmt.Sprintf("provider=%s op=%s kind=%s", e.Provider, e.Op, e.Kind)}
	if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}
	return strings.Join(parts, ": ")
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Errorf wraps a cause with a normalized kind.
func Errorf(name, op string, kind Kind, format string, args ...any) *Error {
	return &Error{Provider: name, Op: op, Kind: kind, Err: fmt.Errorf(format, args...)}
}

// KindOf extracts the normalized kind from an error chain. Timeouts and
// temporary network errors without an explicit kind classify as unavailable.
func KindOf(err error) (Kind, bool) {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind, true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindUnavailable, true
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return KindUnavailable, true
	}
	return 0, false
}

// IsNotFound reports whether err represents absent data.
func IsNotFound(err error) bool {
	k, ok := KindOf(err)
	return ok && k == KindNotFound
}

// IsAuthFailed reports whether err is a credential rejection.
func IsAuthFailed(err error) bool {
	k, ok := KindOf(err)
	return ok && k == KindAuthFailed
}

// IsTransient reports whether err should be retried with backoff.
func IsTransient(err error) bool {
	k, ok := KindOf(err)
	return ok && (k == KindRateLimited || k == KindUnavailable)
}
