package config

import (
	"testing"
	"time"
)

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("TLSDIAL_HOST", "env.example.com")
	t.Setenv("TLSDIAL_PORT", "8443")
	t.Setenv("TLSDIAL_SERVERNAME", "sni.example.com")
	t.Setenv("TLSDIAL_TIMEOUT", "5")
	t.Setenv("TLSDIAL_RETRY", "4")

	cfg := New()
	LoadFromEnv(cfg)

	if cfg.Host != "env.example.com" {
		t.Errorf("Host = %q", cfg.Host)
	}
	if cfg.Port != "8443" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if cfg.ServerName != "sni.example.com" {
		t.Errorf("ServerName = %q", cfg.ServerName)
	}
	if cfg.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v", cfg.Timeout)
	}
	if cfg.RetryAttempts != 4 {
		t.Errorf("RetryAttempts = %d", cfg.RetryAttempts)
	}
}

func TestLoadFromEnv_Booleans(t *testing.T) {
	t.Setenv("TLSDIAL_NO_VERIFY_NAME", "yes")
	t.Setenv("TLSDIAL_REQUIRE_OCSP", "1")

	cfg := New()
	LoadFromEnv(cfg)

	if cfg.VerifyName {
		t.Error("VerifyName still set")
	}
	if !cfg.RequireOCSPStapling {
		t.Error("RequireOCSPStapling not set")
	}
}

func TestLoadFromEnv_InsecureImpliesNoVerifyName(t *testing.T) {
	t.Setenv("TLSDIAL_INSECURE", "true")

	cfg := New()
	LoadFromEnv(cfg)

	if !cfg.SkipVerify || cfg.VerifyName {
		t.Errorf("SkipVerify=%v VerifyName=%v", cfg.SkipVerify, cfg.VerifyName)
	}
}

func TestLoadFromEnv_EmptyLeavesDefaults(t *testing.T) {
	cfg := New()
	LoadFromEnv(cfg)

	if cfg.Timeout != DefaultConnTimeout {
		t.Errorf("Timeout = %v, want default", cfg.Timeout)
	}
	if !cfg.VerifyName {
		t.Error("VerifyName lost its default")
	}
}
