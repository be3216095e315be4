package config

import "time"

// ── Default values ───────────────────────────────────────────────────
//
// All tuneable defaults live here so they are easy to audit and reuse
// across CLI flags and environment variable loading.

const (
	// DefaultSSHPort is the standard SSH port.
	DefaultSSHPort = 22

	// DefaultConnTimeout is the per-candidate TCP connection timeout.
	DefaultConnTimeout = 30 * time.Second

	// DefaultRetryAttempts is used when --retry is given without a value.
	DefaultRetryAttempts = 3

	// DefaultRetryBackoff is the initial delay between retries.
	DefaultRetryBackoff = 1 * time.Second

	// DefaultMaxRetryBackoff caps the exponential backoff.
	DefaultMaxRetryBackoff = 30 * time.Second
)

// New returns a Config with defaults applied.  Name verification is on
// by default; connecting to a literal address therefore requires
// explicitly relaxing it.
func New() *Config {
	return &Config{
		VerifyName: true,
		Timeout:    DefaultConnTimeout,
	}
}
