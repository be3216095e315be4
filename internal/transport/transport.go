// Package transport provides connection establishment and the duplex
// channel binding handed to the handshake engine.  It covers the "how"
// of reaching the peer — candidate iteration over TCP, an SSH-tunnelled
// gateway, AF_VSOCK, or a websocket-carried byte stream — independent
// of the TLS negotiation that follows.
package transport

import (
	"context"
	"net"
)

// Dialer opens outbound network connections.  Implementations include
// the candidate-iterating TCP establisher, an SSH-tunnelled dialer,
// and an AF_VSOCK dialer for enclave or VM hosts.
type Dialer interface {
	// Dial establishes a connection to the given network address.
	Dial(ctx context.Context, network, address string) (net.Conn, error)

	// Close releases any long-lived resources held by the dialer
	// (e.g. an SSH session).  Stateless dialers return nil.
	Close() error
}

// ConnCallbacks exposes an existing connection as an external
// read/write callback pair.  The connection stays owned by the caller;
// use this to feed a tunnelled or otherwise pre-established channel
// into the callback connect entry point.
func ConnCallbacks(conn net.Conn) (ReadFunc, WriteFunc, interface{}) {
	read := func(userCtx interface{}, buf []byte) (int, error) {
		return userCtx.(net.Conn).Read(buf)
	}
	write := func(userCtx interface{}, buf []byte) (int, error) {
		return userCtx.(net.Conn).Write(buf)
	}
	return read, write, conn
}
