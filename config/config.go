// Package config defines the runtime configuration for tlsdial and
// provides helpers for parsing gateway specifications.
package config

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Config holds every tuneable for a single tlsdial session.
type Config struct {
	// ── Destination ──────────────────────────────────────────────────
	Host       string
	Port       string // numeric or service name; empty → derive from Host
	ServerName string // SNI override; empty → resolved host
	LocalPort  int    // optional source-port binding (0 = ephemeral)
	Timeout    time.Duration

	// ── Verification ─────────────────────────────────────────────────
	VerifyName          bool // require a usable SNI and check it against the peer cert
	SkipVerify          bool // disable certificate chain verification
	RequireOCSPStapling bool // not supported; rejected at connect time
	CAFile              string

	// ── Client identity ──────────────────────────────────────────────
	CertFile string
	KeyFile  string

	// ── Alternate channels ───────────────────────────────────────────
	Stdio     bool   // use descriptors 0 and 1 as the channel
	WSURL     string // carry the stream over a websocket
	VsockCID  uint32 // AF_VSOCK context ID (with VsockPort)
	VsockPort uint32

	// ── SSH gateway ──────────────────────────────────────────────────
	TunnelSpec     string // raw user@host[:port] from -T
	TunnelEnabled  bool
	TunnelUser     string
	TunnelHost     string
	TunnelPort     int
	SSHKeyPath     string
	SSHPassword    bool // true → prompt interactively
	UseSSHAgent    bool
	StrictHostKey  bool
	KnownHostsPath string

	// ── Behaviour ────────────────────────────────────────────────────
	RetryAttempts int // reconnect attempts with backoff (0 = none)
	Verbose       int
}

// ── Gateway-spec parser ──────────────────────────────────────────────

// tunnelRe matches [user@]host[:port].
var tunnelRe = regexp.MustCompile(`^(?:([^@]+)@)?([^:]+)(?::(\d+))?$`)

// ParseTunnelSpec extracts user, host, and port from a string such as
// "admin@bastion.example.com:2222".  Port defaults to 22.
func ParseTunnelSpec(spec string) (user, host string, port int, err error) {
	m := tunnelRe.FindStringSubmatch(spec)
	if m == nil {
		return "", "", 0, fmt.Errorf("invalid tunnel spec %q – expected [user@]host[:port]", spec)
	}
	user = m[1]
	host = m[2]
	port = DefaultSSHPort
	if m[3] != "" {
		port, err = strconv.Atoi(m[3])
		if err != nil || port < 1 || port > 65535 {
			return "", "", 0, fmt.Errorf("invalid tunnel port %q", m[3])
		}
	}
	if host == "" {
		return "", "", 0, fmt.Errorf("tunnel host is required")
	}
	return user, host, port, nil
}

// ParseVsockSpec parses "cid:port".
func ParseVsockSpec(spec string) (cid, port uint32, err error) {
	parts := strings.SplitN(spec, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid vsock spec %q – expected cid:port", spec)
	}
	c, err := strconv.ParseUint(parts[0], 10, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid vsock cid %q", parts[0])
	}
	p, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid vsock port %q", parts[1])
	}
	return uint32(c), uint32(p), nil
}

// ── Validation ───────────────────────────────────────────────────────

// Validate checks that the configuration is internally consistent.
// Connection-time requirements (port presence, descriptor validity)
// are enforced by the session, not here.
func (c *Config) Validate() error {
	channels := 0
	for _, on := range []bool{c.Stdio, c.WSURL != "", c.VsockPort != 0, c.TunnelEnabled} {
		if on {
			channels++
		}
	}
	if channels > 1 {
		return fmt.Errorf("--stdio, --ws, --vsock, and -T are mutually exclusive")
	}

	needsHost := !c.Stdio && c.VsockPort == 0 && c.WSURL == ""
	if needsHost && c.Host == "" {
		return fmt.Errorf("hostname is required (use --help for usage)")
	}

	if (c.CertFile == "") != (c.KeyFile == "") {
		return fmt.Errorf("--cert and --key must be given together")
	}

	if c.SkipVerify && c.VerifyName {
		return fmt.Errorf("--insecure and name verification are mutually exclusive")
	}

	if c.TunnelEnabled && c.TunnelHost == "" {
		return fmt.Errorf("tunnel host is required")
	}

	if c.RetryAttempts < 0 {
		return fmt.Errorf("--retry must be ≥ 0")
	}

	return nil
}
