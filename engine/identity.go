package engine

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
)

// Identity is parsed client identity material ready for
// ConfigureIdentity.
type Identity struct {
	Chain [][]byte // DER certificates, leaf first
	Key   crypto.PrivateKey
	Type  KeyType
}

// LoadIdentity reads a PEM certificate chain and private key from
// files and determines the key type from the parsed key.
func LoadIdentity(certFile, keyFile string) (*Identity, error) {
	chainPEM, err := os.ReadFile(certFile)
	if err != nil {
		return nil, fmt.Errorf("reading certificate: %w", err)
	}
	keyPEM, err := os.ReadFile(keyFile)
	if err != nil {
		return nil, fmt.Errorf("reading key: %w", err)
	}
	return ParseIdentity(chainPEM, keyPEM)
}

// ParseIdentity parses PEM-encoded chain and key material.
func ParseIdentity(chainPEM, keyPEM []byte) (*Identity, error) {
	var chain [][]byte
	for rest := chainPEM; ; {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			break
		}
		if block.Type != "CERTIFICATE" {
			continue
		}
		if _, err := x509.ParseCertificate(block.Bytes); err != nil {
			return nil, fmt.Errorf("parsing certificate %d: %w", len(chain), err)
		}
		chain = append(chain, block.Bytes)
	}
	if len(chain) == 0 {
		return nil, fmt.Errorf("no certificates found")
	}

	key, err := parsePrivateKey(keyPEM)
	if err != nil {
		return nil, err
	}

	var kt KeyType
	switch key.(type) {
	case *rsa.PrivateKey:
		kt = KeyRSA
	case *ecdsa.PrivateKey:
		kt = KeyEC
	default:
		return nil, fmt.Errorf("unsupported key type %T", key)
	}

	return &Identity{Chain: chain, Key: key, Type: kt}, nil
}

// parsePrivateKey tries the PKCS#8, PKCS#1, and SEC 1 encodings.
func parsePrivateKey(keyPEM []byte) (crypto.PrivateKey, error) {
	block, _ := pem.Decode(keyPEM)
	if block == nil {
		return nil, fmt.Errorf("no PEM block in key material")
	}
	if k, err := x509.ParsePKCS8PrivateKey(block.Bytes); err == nil {
		return k, nil
	}
	if k, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return k, nil
	}
	if k, err := x509.ParseECPrivateKey(block.Bytes); err == nil {
		return k, nil
	}
	return nil, fmt.Errorf("unparsable private key (tried PKCS#8, PKCS#1, SEC 1)")
}

// LoadCertPool reads a PEM bundle into a certificate pool, for use as
// an alternative trust store.
func LoadCertPool(caFile string) (*x509.CertPool, error) {
	data, err := os.ReadFile(caFile)
	if err != nil {
		return nil, fmt.Errorf("reading CA bundle: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(data) {
		return nil, fmt.Errorf("no certificates in %s", caFile)
	}
	return pool, nil
}
