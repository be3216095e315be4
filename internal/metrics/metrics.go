// Package metrics provides lightweight counters for tracking how a
// connection bootstrap went: which resolution stage answered, how many
// candidates were tried, and how much data moved once connected.
//
// All methods are safe for concurrent use.  A nil *Collector is a
// valid no-op receiver, so callers never need to nil-check.
package metrics

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"
)

// Collector tracks runtime metrics for one session.
// A nil Collector is safe to use — all methods become no-ops.
type Collector struct {
	resolveLiteral atomic.Int64 // stage 1/2 answers (no name service)
	resolveLookup  atomic.Int64 // stage 3 answers
	dialAttempts   atomic.Int64
	dialFailures   atomic.Int64
	connections    atomic.Int64
	bytesIn        atomic.Int64
	bytesOut       atomic.Int64
	errorsTotal    atomic.Int64

	mu           sync.RWMutex
	startTime    time.Time
	lastError    time.Time
	lastErrorMsg string
}

// New creates a metrics collector with the start time set to now.
func New() *Collector {
	return &Collector{startTime: time.Now()}
}

// ── Resolution metrics ───────────────────────────────────────────────

// ResolvedLiteral records a resolution answered by a literal stage.
func (c *Collector) ResolvedLiteral() {
	if c == nil {
		return
	}
	c.resolveLiteral.Add(1)
}

// ResolvedLookup records a resolution answered by full name resolution.
func (c *Collector) ResolvedLookup() {
	if c == nil {
		return
	}
	c.resolveLookup.Add(1)
}

// ── Connection metrics ───────────────────────────────────────────────

// DialAttempt records one candidate connection attempt.
func (c *Collector) DialAttempt() {
	if c == nil {
		return
	}
	c.dialAttempts.Add(1)
}

// DialFailure records one failed candidate.
func (c *Collector) DialFailure() {
	if c == nil {
		return
	}
	c.dialFailures.Add(1)
}

// ConnectionOpened records a successfully established connection.
func (c *Collector) ConnectionOpened() {
	if c == nil {
		return
	}
	c.connections.Add(1)
}

// DialAttempts returns the number of candidate attempts so far.
func (c *Collector) DialAttempts() int64 {
	if c == nil {
		return 0
	}
	return c.dialAttempts.Load()
}

// ── I/O metrics ──────────────────────────────────────────────────────

// BytesReceived records n bytes read from the peer.
func (c *Collector) BytesReceived(n int64) {
	if c == nil {
		return
	}
	c.bytesIn.Add(n)
}

// BytesSent records n bytes written to the peer.
func (c *Collector) BytesSent(n int64) {
	if c == nil {
		return
	}
	c.bytesOut.Add(n)
}

// ── Error metrics ────────────────────────────────────────────────────

// ErrorOccurred records an error with its message for the snapshot.
func (c *Collector) ErrorOccurred(msg string) {
	if c == nil {
		return
	}
	c.errorsTotal.Add(1)
	c.mu.Lock()
	c.lastError = time.Now()
	c.lastErrorMsg = msg
	c.mu.Unlock()
}

// ── Snapshot ─────────────────────────────────────────────────────────

// Snapshot is a point-in-time copy of all counters.
type Snapshot struct {
	ResolveLiteral int64         `json:"resolve_literal"`
	ResolveLookup  int64         `json:"resolve_lookup"`
	DialAttempts   int64         `json:"dial_attempts"`
	DialFailures   int64         `json:"dial_failures"`
	Connections    int64         `json:"connections"`
	BytesIn        int64         `json:"bytes_in"`
	BytesOut       int64         `json:"bytes_out"`
	ErrorsTotal    int64         `json:"errors_total"`
	LastErrorMsg   string        `json:"last_error,omitempty"`
	Uptime         time.Duration `json:"uptime"`
}

// Snapshot returns a copy of the current counters.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.RLock()
	lastMsg := c.lastErrorMsg
	start := c.startTime
	c.mu.RUnlock()

	return Snapshot{
		ResolveLiteral: c.resolveLiteral.Load(),
		ResolveLookup:  c.resolveLookup.Load(),
		DialAttempts:   c.dialAttempts.Load(),
		DialFailures:   c.dialFailures.Load(),
		Connections:    c.connections.Load(),
		BytesIn:        c.bytesIn.Load(),
		BytesOut:       c.bytesOut.Load(),
		ErrorsTotal:    c.errorsTotal.Load(),
		LastErrorMsg:   lastMsg,
		Uptime:         time.Since(start),
	}
}

// JSON renders the snapshot for the CLI's verbose summary.
func (c *Collector) JSON() ([]byte, error) {
	return json.MarshalIndent(c.Snapshot(), "", "  ")
}
