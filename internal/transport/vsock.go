package transport

import (
	"context"
	"fmt"
	"net"

	"github.com/mdlayher/vsock"
)

// VsockDialer opens AF_VSOCK connections, for peers running in a VM or
// enclave behind a hypervisor socket (context ID + port instead of an
// IP address).
type VsockDialer struct {
	ContextID uint32
	Port      uint32
}

// Dial connects to the configured vsock endpoint.  The network and
// address arguments are ignored — vsock addressing comes from the
// dialer itself.  The underlying dial has no context support, so only
// cancellation before the call is honored.
func (d *VsockDialer) Dial(ctx context.Context, network, address string) (net.Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	conn, err := vsock.Dial(d.ContextID, d.Port, nil)
	if err != nil {
		return nil, fmt.Errorf("vsock dial cid=%d port=%d: %w", d.ContextID, d.Port, err)
	}
	return conn, nil
}

// Close is a no-op for stateless vsock dialers.
func (d *VsockDialer) Close() error { return nil }
