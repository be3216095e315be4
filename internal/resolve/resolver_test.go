package resolve

import (
	"context"
	"net"
	"testing"

	ncerr "tlsdial/internal/errors"
)

// forbidLookup fails the test if full name resolution is ever invoked.
func forbidLookup(t *testing.T) func(context.Context, string) ([]net.IPAddr, error) {
	t.Helper()
	return func(ctx context.Context, host string) ([]net.IPAddr, error) {
		t.Fatalf("name resolution invoked for %q", host)
		return nil, nil
	}
}

func TestResolve_IPv4Literal(t *testing.T) {
	r := &Resolver{LookupIPAddr: forbidLookup(t)}

	cands, err := r.Resolve(context.Background(), "127.0.0.1", "443")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(cands) != 1 {
		t.Fatalf("got %d candidates, want 1", len(cands))
	}
	if cands[0].Network != "tcp4" {
		t.Errorf("network = %q, want tcp4", cands[0].Network)
	}
	if got := cands[0].Addr.String(); got != "127.0.0.1:443" {
		t.Errorf("addr = %q, want 127.0.0.1:443", got)
	}
}

func TestResolve_IPv6Literal(t *testing.T) {
	r := &Resolver{LookupIPAddr: forbidLookup(t)}

	cands, err := r.Resolve(context.Background(), "::1", "8443")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(cands) != 1 || cands[0].Network != "tcp6" {
		t.Fatalf("candidates = %v, want single tcp6", cands)
	}
	if got := cands[0].Addr.String(); got != "[::1]:8443" {
		t.Errorf("addr = %q, want [::1]:8443", got)
	}
}

func TestResolve_Hostname(t *testing.T) {
	r := &Resolver{
		LookupIPAddr: func(ctx context.Context, host string) ([]net.IPAddr, error) {
			if host != "example.com" {
				t.Errorf("lookup host = %q", host)
			}
			return []net.IPAddr{
				{IP: net.ParseIP("192.0.2.1")},
				{IP: net.ParseIP("2001:db8::1")},
			}, nil
		},
	}

	cands, err := r.Resolve(context.Background(), "example.com", "443")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(cands) != 2 {
		t.Fatalf("got %d candidates, want 2", len(cands))
	}
	// Resolver ordering is preserved.
	if cands[0].Network != "tcp4" || cands[1].Network != "tcp6" {
		t.Errorf("networks = %s, %s; want tcp4, tcp6", cands[0].Network, cands[1].Network)
	}
}

func TestResolve_LookupFailure(t *testing.T) {
	dnsErr := &net.DNSError{Err: "no such host", Name: "nope.invalid", IsNotFound: true}
	r := &Resolver{
		LookupIPAddr: func(context.Context, string) ([]net.IPAddr, error) {
			return nil, dnsErr
		},
	}

	_, err := r.Resolve(context.Background(), "nope.invalid", "443")
	var re *ncerr.ResolveError
	if !ncerr.As(err, &re) {
		t.Fatalf("err = %v, want *ResolveError", err)
	}
	// The final stage's diagnostic is carried.
	if !ncerr.Is(re.Err, dnsErr) && re.Err.Error() != dnsErr.Error() {
		t.Errorf("diagnostic = %v, want %v", re.Err, dnsErr)
	}
}

func TestResolve_ServiceNamePort(t *testing.T) {
	r := &Resolver{
		LookupIPAddr: forbidLookup(t),
		LookupPort: func(ctx context.Context, network, service string) (int, error) {
			if service != "https" {
				t.Errorf("service = %q", service)
			}
			return 443, nil
		},
	}

	cands, err := r.Resolve(context.Background(), "127.0.0.1", "https")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if cands[0].Addr.Port() != 443 {
		t.Errorf("port = %d, want 443", cands[0].Addr.Port())
	}
}

func TestResolve_BadPort(t *testing.T) {
	r := &Resolver{LookupIPAddr: forbidLookup(t)}

	for _, port := range []string{"", "70000", "-1"} {
		if _, err := r.Resolve(context.Background(), "127.0.0.1", port); err == nil {
			t.Errorf("Resolve with port %q succeeded, want error", port)
		}
	}
}
