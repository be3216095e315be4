// Package errors provides domain-specific error types for tlsdial.
//
// These types carry structured context (operation, address, attempt
// counts) that helps callers decide how to handle failures and provides
// better diagnostics than plain string wrapping.
package errors

import (
	"errors"
	"fmt"
	"net"
)

// ── Sentinel errors ──────────────────────────────────────────────────

var (
	// ErrNoPort is returned by the host/port splitter when the host
	// specification carries no port component.
	ErrNoPort = errors.New("no port provided")

	// ErrAlreadyConnected is returned when a connect entry point is
	// invoked on a session that has already reached the connected state.
	ErrAlreadyConnected = errors.New("session is already connected")

	// ErrNotConnected is returned when an operation requires a
	// connected session.
	ErrNotConnected = errors.New("not connected")
)

// ── Structured error types ───────────────────────────────────────────

// RoleError reports an operation invoked on a session of the wrong role.
type RoleError struct {
	Op   string // the entry point that was invoked
	Role string // the session's actual role
}

func (e *RoleError) Error() string {
	return fmt.Sprintf("%s: not a client context (role %s)", e.Op, e.Role)
}

// ConfigError reports missing or invalid required input: a null host,
// invalid descriptors, a missing callback, or an unsupported feature.
type ConfigError struct {
	Field   string      // offending field or parameter name
	Value   interface{} // the invalid value (nil if missing)
	Message string      // human-readable explanation
}

func (e *ConfigError) Error() string {
	msg := "config: " + e.Field
	if e.Value != nil {
		msg += fmt.Sprintf("=%v", e.Value)
	}
	return msg + ": " + e.Message
}

// ResolveError reports that every resolution stage failed for a host.
// Err carries the name-service diagnostic from the final stage.
type ResolveError struct {
	Host string
	Port string
	Err  error
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("resolve %s port %s: %v", e.Host, e.Port, e.Err)
}

func (e *ResolveError) Unwrap() error { return e.Err }

// ConnectError reports that every candidate address failed to connect.
// Addr and Err describe the last attempt; earlier failures are logged
// but not retained.
type ConnectError struct {
	Addr     string // address of the last failed candidate
	Attempts int    // number of candidates tried
	Err      error  // last per-candidate diagnostic
}

func (e *ConnectError) Error() string {
	if e.Attempts == 0 || e.Err == nil {
		return "connect: no candidate addresses"
	}
	return fmt.Sprintf("connect %s (%d candidates tried): %v", e.Addr, e.Attempts, e.Err)
}

func (e *ConnectError) Unwrap() error { return e.Err }

// ── Classification helpers ───────────────────────────────────────────

// IsRetryable reports whether err is worth retrying.  Configuration
// and role errors are never retryable; resolution failures follow the
// resolver's diagnostic; connection failures are retryable because a
// refused or timed-out connect may succeed later.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var re *RoleError
	var ce *ConfigError
	if errors.As(err, &re) || errors.As(err, &ce) {
		return false
	}
	var rse *ResolveError
	if errors.As(err, &rse) {
		return classifyRetryable(rse.Err)
	}
	var cne *ConnectError
	if errors.As(err, &cne) {
		return cne.Attempts > 0
	}
	return classifyRetryable(err)
}

// classifyRetryable inspects standard library error types.
func classifyRetryable(err error) bool {
	if err == nil {
		return false
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return opErr.Temporary() //nolint:staticcheck // Temporary is deprecated but still useful
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.Temporary() //nolint:staticcheck
	}
	return false
}

// ── Re-exports for convenience ───────────────────────────────────────
//
// These allow callers to use tlsdial/internal/errors as a drop-in
// replacement for the standard library in common operations.

// As is [errors.As].
func As(err error, target interface{}) bool { return errors.As(err, target) }

// Is is [errors.Is].
func Is(err, target error) bool { return errors.Is(err, target) }

// New is [errors.New].
func New(text string) error { return errors.New(text) }

// Unwrap is [errors.Unwrap].
func Unwrap(err error) error { return errors.Unwrap(err) }
