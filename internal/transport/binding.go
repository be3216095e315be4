package transport

import (
	"io"
	"net"
	"os"
	"time"

	ncerr "tlsdial/internal/errors"
)

// ReadFunc reads up to len(buf) bytes into buf and returns the number
// of bytes read.  userCtx is the opaque value supplied at connect time.
type ReadFunc func(userCtx interface{}, buf []byte) (int, error)

// WriteFunc writes buf and returns the number of bytes written.
type WriteFunc func(userCtx interface{}, buf []byte) (int, error)

// BindingKind tags the active variant of a Binding.
type BindingKind int

const (
	// BindingOwned means the session owns the duplex channel and must
	// close it on teardown.
	BindingOwned BindingKind = iota

	// BindingExternal means the channel is caller-supplied callbacks;
	// closing and cleanup stay the caller's responsibility.
	BindingExternal
)

func (k BindingKind) String() string {
	switch k {
	case BindingOwned:
		return "owned"
	case BindingExternal:
		return "external"
	}
	return "unknown"
}

// Binding is the duplex channel a connected session hands to the
// handshake engine.  It is a two-variant sum: an owned channel
// (a dialed connection or a descriptor pair) or an external callback
// pair.  The variant is fixed at construction and every I/O method
// switches on it explicitly.
type Binding struct {
	kind BindingKind

	// Owned variant.
	rwc io.ReadWriteCloser

	// External variant.
	read    ReadFunc
	write   WriteFunc
	userCtx interface{}
}

// NewOwnedConn wraps a connection the session now owns, typically the
// result of a successful dial.
func NewOwnedConn(conn net.Conn) (*Binding, error) {
	if conn == nil {
		return nil, &ncerr.ConfigError{Field: "conn", Message: "no connection provided"}
	}
	return &Binding{kind: BindingOwned, rwc: conn}, nil
}

// NewOwnedFDs wraps a read/write descriptor pair the session now owns.
// The descriptors may be the same.  Validation happens here, before
// any I/O is attempted.
func NewOwnedFDs(readFD, writeFD int) (*Binding, error) {
	if readFD < 0 || writeFD < 0 {
		return nil, &ncerr.ConfigError{Field: "fd",
			Value:   [2]int{readFD, writeFD},
			Message: "invalid file descriptors"}
	}
	p := &fdPair{r: os.NewFile(uintptr(readFD), "read")}
	if writeFD == readFD {
		p.w = p.r
	} else {
		p.w = os.NewFile(uintptr(writeFD), "write")
	}
	return &Binding{kind: BindingOwned, rwc: p}, nil
}

// NewExternal wraps a caller-supplied callback pair.  Both callbacks
// are required; userCtx is passed back verbatim on every invocation.
func NewExternal(read ReadFunc, write WriteFunc, userCtx interface{}) (*Binding, error) {
	if read == nil || write == nil {
		return nil, &ncerr.ConfigError{Field: "callbacks", Message: "no callbacks provided"}
	}
	return &Binding{kind: BindingExternal, read: read, write: write, userCtx: userCtx}, nil
}

// Kind returns the active variant.
func (b *Binding) Kind() BindingKind { return b.kind }

func (b *Binding) Read(p []byte) (int, error) {
	switch b.kind {
	case BindingExternal:
		return b.read(b.userCtx, p)
	default:
		return b.rwc.Read(p)
	}
}

func (b *Binding) Write(p []byte) (int, error) {
	switch b.kind {
	case BindingExternal:
		return b.write(b.userCtx, p)
	default:
		return b.rwc.Write(p)
	}
}

// Close releases an owned channel.  For the external variant it is a
// no-op: the channel's lifetime belongs to the caller.
func (b *Binding) Close() error {
	switch b.kind {
	case BindingExternal:
		return nil
	default:
		return b.rwc.Close()
	}
}

// Conn adapts the binding to net.Conn for the handshake engine.  A
// binding built from a dialed connection is returned as-is.
func (b *Binding) Conn() net.Conn {
	if b.kind == BindingOwned {
		if c, ok := b.rwc.(net.Conn); ok {
			return c
		}
	}
	return &bindingConn{b: b}
}

// ── owned descriptor pair ────────────────────────────────────────────

// fdPair is the duplex channel over a read/write descriptor pair.
// r and w alias the same *os.File when one descriptor serves both
// directions, so Close never closes a descriptor twice.
type fdPair struct {
	r, w *os.File
}

func (p *fdPair) Read(buf []byte) (int, error)  { return p.r.Read(buf) }
func (p *fdPair) Write(buf []byte) (int, error) { return p.w.Write(buf) }

func (p *fdPair) Close() error {
	err := p.r.Close()
	if p.w != p.r {
		if werr := p.w.Close(); err == nil {
			err = werr
		}
	}
	return err
}

// ── net.Conn adapter ─────────────────────────────────────────────────

// bindingConn presents a Binding as a net.Conn.  Deadlines are not
// supported on callback channels or raw descriptor pairs and are
// silently ignored; cancellation belongs to the underlying I/O
// primitives.
type bindingConn struct {
	b *Binding
}

func (c *bindingConn) Read(p []byte) (int, error)  { return c.b.Read(p) }
func (c *bindingConn) Write(p []byte) (int, error) { return c.b.Write(p) }
func (c *bindingConn) Close() error                { return c.b.Close() }

func (c *bindingConn) LocalAddr() net.Addr  { return chanAddr(c.b.kind.String()) }
func (c *bindingConn) RemoteAddr() net.Addr { return chanAddr(c.b.kind.String()) }

func (c *bindingConn) SetDeadline(time.Time) error      { return nil }
func (c *bindingConn) SetReadDeadline(time.Time) error  { return nil }
func (c *bindingConn) SetWriteDeadline(time.Time) error { return nil }

type chanAddr string

func (a chanAddr) Network() string { return "tlsdial" }
func (a chanAddr) String() string  { return string(a) }
