// Package tunnel provides an SSH gateway through which the TLS
// destination can be reached, backed by golang.org/x/crypto/ssh.  The
// forwarded connection is handed to the bootstrap as a caller-owned
// channel.
package tunnel

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"

	ncerr "tlsdial/internal/errors"
	"tlsdial/util"
)

// SSHConfig holds everything needed to dial an SSH gateway.
type SSHConfig struct {
	User          string
	Host          string
	Port          int
	KeyPath       string
	PromptPass    bool
	UseAgent      bool
	StrictHostKey bool
	KnownHosts    string
	ConnTimeout   time.Duration
}

// SSHTunnel dials an SSH gateway and forwards traffic with
// ssh.Client.Dial.  It satisfies the transport Dialer contract.
type SSHTunnel struct {
	config *SSHConfig
	logger *util.Logger
	mu     sync.Mutex
	client *ssh.Client
}

// NewSSHTunnel creates a tunnel; the gateway is dialed lazily on the
// first Dial call.
func NewSSHTunnel(cfg *SSHConfig, logger *util.Logger) *SSHTunnel {
	if cfg.Port == 0 {
		cfg.Port = 22
	}
	if cfg.ConnTimeout == 0 {
		cfg.ConnTimeout = 30 * time.Second
	}
	return &SSHTunnel{config: cfg, logger: logger}
}

// connect dials the gateway and completes the SSH handshake.
func (t *SSHTunnel) connect(ctx context.Context) error {
	if t.client != nil {
		return nil
	}

	auth, err := authMethods(t.config)
	if err != nil {
		return fmt.Errorf("ssh auth %s:%d: %w", t.config.Host, t.config.Port, err)
	}
	hostKeys, err := hostKeyPolicy(t.config)
	if err != nil {
		return fmt.Errorf("ssh hostkey %s: %w", t.config.Host, err)
	}

	sshCfg := &ssh.ClientConfig{
		User:            t.config.User,
		Auth:            auth,
		HostKeyCallback: hostKeys,
		Timeout:         t.config.ConnTimeout,
	}

	addr := fmt.Sprintf("%s:%d", t.config.Host, t.config.Port)
	t.logger.Debug("ssh: dialing %s as %s", addr, t.config.User)

	// Context-aware TCP dial so callers can cancel.
	var dialer net.Dialer
	tcpConn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("ssh dial %s: %w", addr, err)
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(tcpConn, addr, sshCfg)
	if err != nil {
		tcpConn.Close()
		return fmt.Errorf("ssh handshake %s: %w", addr, err)
	}

	t.client = ssh.NewClient(sshConn, chans, reqs)
	t.logger.Verbose("ssh tunnel to %s established", addr)
	return nil
}

// Dial forwards a connection to address through the gateway,
// establishing the tunnel first if needed.
func (t *SSHTunnel) Dial(ctx context.Context, network, address string) (net.Conn, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.connect(ctx); err != nil {
		return nil, err
	}
	if t.client == nil {
		return nil, ncerr.ErrNotConnected
	}

	t.logger.Debug("tunnel: dialing %s %s", network, address)
	conn, err := t.client.Dial(network, address)
	if err != nil {
		return nil, fmt.Errorf("tunnel dial %s: %w", address, err)
	}
	return conn, nil
}

// Close shuts down the SSH connection.
func (t *SSHTunnel) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.client != nil {
		err := t.client.Close()
		t.client = nil
		return err
	}
	return nil
}
