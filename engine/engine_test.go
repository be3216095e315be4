package engine

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"net"
	"testing"
	"time"
)

// selfSigned produces a CA-less server certificate for localhost and a
// pool trusting it.
func selfSigned(t *testing.T) (tls.Certificate, *x509.CertPool) {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	tmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "localhost"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		IsCA:                  true,
		DNSNames:              []string{"localhost"},
		IPAddresses:           []net.IP{net.ParseIP("127.0.0.1")},
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		t.Fatal(err)
	}
	leaf, err := x509.ParseCertificate(der)
	if err != nil {
		t.Fatal(err)
	}
	pool := x509.NewCertPool()
	pool.AddCert(leaf)

	return tls.Certificate{Certificate: [][]byte{der}, PrivateKey: key}, pool
}

// tlsServer accepts one connection and completes a server handshake.
func tlsServer(t *testing.T, cert tls.Certificate) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		srv := tls.Server(conn, &tls.Config{Certificates: []tls.Certificate{cert}})
		if err := srv.Handshake(); err != nil {
			conn.Close()
			return
		}
		srv.Write([]byte("ok")) //nolint:errcheck
		srv.Close()
	}()
	return ln.Addr().String()
}

func TestInit_Idempotent(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := Init(); err != nil {
		t.Fatalf("second Init: %v", err)
	}
}

func TestReset_ServerRoleRejected(t *testing.T) {
	e := &TLS{}
	if err := e.Reset(RoleServer, "example.com"); err == nil {
		t.Error("Reset with server role succeeded")
	}
}

func TestHandshake_RequiresReset(t *testing.T) {
	e := &TLS{}
	c1, c2 := net.Pipe()
	defer c1.Close()
	defer c2.Close()
	if _, err := e.Handshake(context.Background(), c1); err == nil {
		t.Error("Handshake without Reset succeeded")
	}
}

func TestHandshake_WithSNI(t *testing.T) {
	cert, pool := selfSigned(t)
	addr := tlsServer(t, cert)

	e := &TLS{RootCAs: pool}
	if err := e.Reset(RoleClient, "localhost"); err != nil {
		t.Fatalf("Reset: %v", err)
	}

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	sconn, err := e.Handshake(ctx, conn)
	if err != nil {
		t.Fatalf("Handshake: %v", err)
	}
	buf := make([]byte, 2)
	if _, err := sconn.Read(buf); err != nil || string(buf) != "ok" {
		t.Errorf("read = %q, %v", buf, err)
	}
}

func TestHandshake_NoSNIStillVerifiesChain(t *testing.T) {
	cert, pool := selfSigned(t)
	addr := tlsServer(t, cert)

	// Empty server name: the hostname check is skipped but the chain
	// must still verify against the trust store.
	e := &TLS{RootCAs: pool}
	if err := e.Reset(RoleClient, ""); err != nil {
		t.Fatalf("Reset: %v", err)
	}

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if _, err := e.Handshake(ctx, conn); err != nil {
		t.Fatalf("Handshake: %v", err)
	}
}

func TestHandshake_NoSNIRejectsUntrustedChain(t *testing.T) {
	cert, _ := selfSigned(t)
	addr := tlsServer(t, cert)

	// A different pool: the chain must fail to verify.
	_, otherPool := selfSigned(t)
	e := &TLS{RootCAs: otherPool}
	if err := e.Reset(RoleClient, ""); err != nil {
		t.Fatal(err)
	}

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if _, err := e.Handshake(ctx, conn); err == nil {
		t.Error("handshake succeeded against an untrusted chain")
	}
}

func TestConfigureIdentity_TypeMismatch(t *testing.T) {
	rsaKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}
	e := &TLS{}

	if err := e.ConfigureIdentity([][]byte{{0x01}}, rsaKey, KeyEC); err == nil {
		t.Error("EC key type accepted an RSA key")
	}
	if err := e.ConfigureIdentity([][]byte{{0x01}}, rsaKey, KeyRSA); err != nil {
		t.Errorf("RSA identity rejected: %v", err)
	}
	if err := e.ConfigureIdentity(nil, rsaKey, KeyRSA); err == nil {
		t.Error("empty chain accepted")
	}
}

func TestParseIdentity(t *testing.T) {
	ecKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(2),
		Subject:      pkix.Name{CommonName: "client"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &ecKey.PublicKey, ecKey)
	if err != nil {
		t.Fatal(err)
	}
	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})

	keyDER, err := x509.MarshalECPrivateKey(ecKey)
	if err != nil {
		t.Fatal(err)
	}
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER})

	id, err := ParseIdentity(certPEM, keyPEM)
	if err != nil {
		t.Fatalf("ParseIdentity: %v", err)
	}
	if id.Type != KeyEC {
		t.Errorf("key type = %v, want KeyEC", id.Type)
	}
	if len(id.Chain) != 1 {
		t.Errorf("chain length = %d, want 1", len(id.Chain))
	}
}

func TestParseIdentity_RSAPKCS8(t *testing.T) {
	rsaKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(3),
		Subject:      pkix.Name{CommonName: "client"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &rsaKey.PublicKey, rsaKey)
	if err != nil {
		t.Fatal(err)
	}
	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})

	keyDER, err := x509.MarshalPKCS8PrivateKey(rsaKey)
	if err != nil {
		t.Fatal(err)
	}
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: keyDER})

	id, err := ParseIdentity(certPEM, keyPEM)
	if err != nil {
		t.Fatalf("ParseIdentity: %v", err)
	}
	if id.Type != KeyRSA {
		t.Errorf("key type = %v, want KeyRSA", id.Type)
	}
}

func TestParseIdentity_Garbage(t *testing.T) {
	if _, err := ParseIdentity([]byte("not pem"), []byte("not pem")); err == nil {
		t.Error("garbage identity accepted")
	}
}
