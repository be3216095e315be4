package config

import (
	"strings"
	"testing"
)

func TestParseTunnelSpec(t *testing.T) {
	tests := []struct {
		spec string
		user string
		host string
		port int
	}{
		{"admin@bastion.example.com:2222", "admin", "bastion.example.com", 2222},
		{"bastion.example.com", "", "bastion.example.com", 22},
		{"root@10.0.0.1", "root", "10.0.0.1", 22},
	}
	for _, tt := range tests {
		user, host, port, err := ParseTunnelSpec(tt.spec)
		if err != nil {
			t.Errorf("ParseTunnelSpec(%q): %v", tt.spec, err)
			continue
		}
		if user != tt.user || host != tt.host || port != tt.port {
			t.Errorf("ParseTunnelSpec(%q) = (%q, %q, %d), want (%q, %q, %d)",
				tt.spec, user, host, port, tt.user, tt.host, tt.port)
		}
	}
}

func TestParseTunnelSpec_Invalid(t *testing.T) {
	for _, spec := range []string{"user@host:notaport", "user@host:99999", "@:"} {
		if _, _, _, err := ParseTunnelSpec(spec); err == nil {
			t.Errorf("ParseTunnelSpec(%q) succeeded, want error", spec)
		}
	}
}

func TestParseVsockSpec(t *testing.T) {
	cid, port, err := ParseVsockSpec("3:5000")
	if err != nil {
		t.Fatal(err)
	}
	if cid != 3 || port != 5000 {
		t.Errorf("got cid=%d port=%d", cid, port)
	}

	for _, spec := range []string{"3", "x:5000", "3:x", ""} {
		if _, _, err := ParseVsockSpec(spec); err == nil {
			t.Errorf("ParseVsockSpec(%q) succeeded, want error", spec)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults need host", func(c *Config) {}, "hostname is required"},
		{"host ok", func(c *Config) { c.Host = "example.com" }, ""},
		{"stdio needs no host", func(c *Config) { c.Stdio = true }, ""},
		{"ws needs no host", func(c *Config) { c.WSURL = "wss://gw.example/tls" }, ""},
		{"exclusive channels", func(c *Config) {
			c.Stdio = true
			c.WSURL = "wss://gw.example/tls"
		}, "mutually exclusive"},
		{"cert without key", func(c *Config) {
			c.Host = "example.com"
			c.CertFile = "c.pem"
		}, "together"},
		{"insecure with verify-name", func(c *Config) {
			c.Host = "example.com"
			c.SkipVerify = true
		}, "mutually exclusive"},
		{"negative retry", func(c *Config) {
			c.Host = "example.com"
			c.RetryAttempts = -1
		}, "retry"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := New()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestNewDefaults(t *testing.T) {
	cfg := New()
	if !cfg.VerifyName {
		t.Error("name verification not on by default")
	}
	if cfg.Timeout != DefaultConnTimeout {
		t.Errorf("timeout = %v, want %v", cfg.Timeout, DefaultConnTimeout)
	}
}
