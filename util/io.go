package util

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
)

// DefaultBufSize is the standard buffer size for network I/O (32 KiB).
const DefaultBufSize = 32 * 1024

// BidirectionalCopy relays bytes between a connection and a local
// reader/writer pair (typically stdin/stdout) until the peer stops
// sending, the local side fails, or the context is cancelled.
func BidirectionalCopy(ctx context.Context, conn net.Conn, in io.Reader, out io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		fromPeer error
		toPeer   error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		_, fromPeer = io.Copy(out, conn)
		// The peer has nothing more to send; the relay is over.
		cancel()
	}()
	go func() {
		defer wg.Done()
		_, toPeer = io.Copy(conn, in)
		// Signal EOF to the peer but keep reading its response.
		halfClose(conn)
		// Local EOF alone must not tear the connection down; the
		// peer may still be mid-reply.
		if toPeer != nil {
			cancel()
		}
	}()

	<-ctx.Done()
	conn.Close() // unblock whichever copy is still pending
	wg.Wait()

	for _, err := range []error{fromPeer, toPeer} {
		if err != nil && !shutdownErr(err) {
			return err
		}
	}
	return nil
}

// halfClose closes the write side when the transport supports it
// (*net.TCPConn and *tls.Conn both do).
func halfClose(conn net.Conn) {
	if hc, ok := conn.(interface{ CloseWrite() error }); ok {
		hc.CloseWrite() //nolint:errcheck
	}
}

// shutdownErr reports whether err is one of the errors an orderly
// teardown produces.
func shutdownErr(err error) bool {
	switch {
	case err == nil:
		return true
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrClosedPipe):
		return true
	case errors.Is(err, net.ErrClosed):
		return true
	}
	var op *net.OpError
	return errors.As(err, &op) && errors.Is(op.Err, net.ErrClosed)
}
