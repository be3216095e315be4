// Package engine defines the handshake-engine seam consumed by the
// client bootstrap, together with an implementation backed by
// crypto/tls.
//
// The bootstrap only needs two capabilities from an engine: install
// identity material, and reset negotiation state for a new connection
// with a client role and an optional server name.  Everything else —
// record framing, cipher negotiation, certificate chain verification —
// is the engine's business.
package engine

import (
	"context"
	"crypto"
	"crypto/x509"
	"net"
	"sync"
)

// Role selects which side of the handshake the engine drives.
type Role int

const (
	RoleClient Role = iota
	RoleServer
)

func (r Role) String() string {
	if r == RoleServer {
		return "server"
	}
	return "client"
}

// KeyType selects the signing primitive for the configured identity:
// RSA keys sign with PKCS#1, EC keys with ECDSA/ASN.1.
type KeyType int

const (
	KeyRSA KeyType = iota
	KeyEC
)

// Engine is the handshake engine contract.
type Engine interface {
	// ConfigureIdentity installs a client certificate chain (DER, leaf
	// first) and its matching private key.
	ConfigureIdentity(chain [][]byte, key crypto.PrivateKey, kt KeyType) error

	// Reset (re)initializes handshake state for a new connection
	// attempt.  An empty serverName means no SNI is sent.  No cached
	// session is resumed.
	Reset(role Role, serverName string) error

	// Handshake performs the TLS handshake over conn and returns the
	// secured stream.
	Handshake(ctx context.Context, conn net.Conn) (net.Conn, error)
}

// ── process-wide initialization ──────────────────────────────────────

var (
	initOnce    sync.Once
	systemRoots *x509.CertPool
	initErr     error
)

// Init performs the one-time process-wide engine setup: loading the
// system trust store.  Idempotent; repeated calls are no-ops.  The
// client package calls it before constructing a session.
func Init() error {
	initOnce.Do(func() {
		systemRoots, initErr = x509.SystemCertPool()
	})
	return initErr
}

// SystemRoots returns the trust store loaded by Init, or nil when Init
// has not run or failed.
func SystemRoots() *x509.CertPool { return systemRoots }
