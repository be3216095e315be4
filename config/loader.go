package config

// loader.go - configuration loading from environment variables.
//
// Precedence order (highest wins):
//   1. CLI flags  (handled by cmd/root.go)
//   2. Environment variables  (this file)
//   3. Defaults   (defaults.go)

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ── Environment variable mapping ─────────────────────────────────────
//
// Every supported env var uses the TLSDIAL_ prefix.  Boolean values
// accept "1", "true", "yes" (case-insensitive).

// LoadDotEnv overlays a .env file onto the process environment if one
// exists in the working directory.  Existing variables win.
func LoadDotEnv() {
	_ = godotenv.Load()
}

// LoadFromEnv overlays environment variables onto cfg.  Only non-empty
// env vars override the existing value.  This should be called BEFORE
// CLI flag parsing so that flags take precedence.
func LoadFromEnv(cfg *Config) {
	if v := os.Getenv("TLSDIAL_HOST"); v != "" {
		cfg.Host = v
	}
	if v := os.Getenv("TLSDIAL_PORT"); v != "" {
		cfg.Port = v
	}
	if v := os.Getenv("TLSDIAL_SERVERNAME"); v != "" {
		cfg.ServerName = v
	}
	if v := envInt("TLSDIAL_LOCAL_PORT"); v > 0 {
		cfg.LocalPort = v
	}
	if v := envInt("TLSDIAL_TIMEOUT"); v > 0 {
		cfg.Timeout = time.Duration(v) * time.Second
	}

	// Verification
	if envBool("TLSDIAL_NO_VERIFY_NAME") {
		cfg.VerifyName = false
	}
	if envBool("TLSDIAL_INSECURE") {
		cfg.SkipVerify = true
		cfg.VerifyName = false
	}
	if envBool("TLSDIAL_REQUIRE_OCSP") {
		cfg.RequireOCSPStapling = true
	}
	if v := os.Getenv("TLSDIAL_CA_FILE"); v != "" {
		cfg.CAFile = v
	}

	// Identity
	if v := os.Getenv("TLSDIAL_CERT_FILE"); v != "" {
		cfg.CertFile = v
	}
	if v := os.Getenv("TLSDIAL_KEY_FILE"); v != "" {
		cfg.KeyFile = v
	}

	// SSH gateway
	if v := os.Getenv("TLSDIAL_TUNNEL"); v != "" {
		cfg.TunnelSpec = v
	}
	if v := os.Getenv("TLSDIAL_SSH_KEY"); v != "" {
		cfg.SSHKeyPath = v
	}
	if envBool("TLSDIAL_SSH_AGENT") {
		cfg.UseSSHAgent = true
	}
	if envBool("TLSDIAL_STRICT_HOSTKEY") {
		cfg.StrictHostKey = true
	}
	if v := os.Getenv("TLSDIAL_KNOWN_HOSTS"); v != "" {
		cfg.KnownHostsPath = v
	}

	// Behaviour
	if v := envInt("TLSDIAL_RETRY"); v > 0 {
		cfg.RetryAttempts = v
	}
}

// ── helpers ──────────────────────────────────────────────────────────

func envBool(name string) bool {
	v := strings.ToLower(os.Getenv(name))
	return v == "1" || v == "true" || v == "yes"
}

func envInt(name string) int {
	v := os.Getenv(name)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}
