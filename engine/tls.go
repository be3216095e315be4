package engine

import (
	"context"
	"crypto"
	"crypto/ecdsa"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net"
)

// TLS is an Engine backed by crypto/tls.
//
// When Reset is given an empty server name the hostname check is
// skipped but the certificate chain is still verified against the
// trust store, unless SkipVerify disables chain verification too.
type TLS struct {
	// RootCAs overrides the system trust store (nil = system roots
	// loaded by Init).
	RootCAs *x509.CertPool

	// SkipVerify disables certificate chain verification entirely.
	SkipVerify bool

	cert *tls.Certificate
	cfg  *tls.Config
}

// ConfigureIdentity installs the client certificate chain and key.
// The key must match the declared type.
func (e *TLS) ConfigureIdentity(chain [][]byte, key crypto.PrivateKey, kt KeyType) error {
	if len(chain) == 0 {
		return fmt.Errorf("engine: empty certificate chain")
	}
	switch kt {
	case KeyRSA:
		if _, ok := key.(*rsa.PrivateKey); !ok {
			return fmt.Errorf("engine: key type RSA but key is %T", key)
		}
	case KeyEC:
		if _, ok := key.(*ecdsa.PrivateKey); !ok {
			return fmt.Errorf("engine: key type EC but key is %T", key)
		}
	default:
		return fmt.Errorf("engine: unknown key type %d", kt)
	}
	e.cert = &tls.Certificate{Certificate: chain, PrivateKey: key}
	return nil
}

// Reset builds a fresh negotiation config for one connection attempt.
// Session resumption is disabled.
func (e *TLS) Reset(role Role, serverName string) error {
	if role != RoleClient {
		return fmt.Errorf("engine: role %s not supported", role)
	}

	roots := e.RootCAs
	if roots == nil {
		roots = SystemRoots()
	}

	cfg := &tls.Config{
		MinVersion:             tls.VersionTLS12,
		RootCAs:                roots,
		ServerName:             serverName,
		SessionTicketsDisabled: true,
		ClientSessionCache:     nil,
	}
	if e.cert != nil {
		cfg.Certificates = []tls.Certificate{*e.cert}
	}

	switch {
	case e.SkipVerify:
		cfg.InsecureSkipVerify = true //nolint:gosec // caller opted out
	case serverName == "":
		// No usable SNI: verify the chain ourselves, skipping only
		// the hostname check.
		cfg.InsecureSkipVerify = true //nolint:gosec // chain still verified below
		cfg.VerifyConnection = func(cs tls.ConnectionState) error {
			return verifyChain(cs.PeerCertificates, roots)
		}
	}

	e.cfg = cfg
	return nil
}

// Handshake runs the client handshake over conn.
func (e *TLS) Handshake(ctx context.Context, conn net.Conn) (net.Conn, error) {
	if e.cfg == nil {
		return nil, fmt.Errorf("engine: not reset")
	}
	tc := tls.Client(conn, e.cfg)
	if err := tc.HandshakeContext(ctx); err != nil {
		return nil, fmt.Errorf("handshake: %w", err)
	}
	return tc, nil
}

// verifyChain checks the peer's certificate chain against roots
// without a hostname constraint.
func verifyChain(peers []*x509.Certificate, roots *x509.CertPool) error {
	if len(peers) == 0 {
		return fmt.Errorf("engine: no peer certificates")
	}
	opts := x509.VerifyOptions{
		Roots:         roots,
		Intermediates: x509.NewCertPool(),
	}
	for _, c := range peers[1:] {
		opts.Intermediates.AddCert(c)
	}
	_, err := peers[0].Verify(opts)
	return err
}
