// Package cmd wires up the CLI flags and dispatches to the client
// bootstrap.
package cmd

import (
	"context"
	"fmt"
	"net"
	"os"
	"time"

	flag "github.com/spf13/pflag"

	"tlsdial/client"
	"tlsdial/config"
	"tlsdial/engine"
	ncerr "tlsdial/internal/errors"
	"tlsdial/internal/resolve"
	"tlsdial/internal/retry"
	"tlsdial/internal/transport"
	"tlsdial/tunnel"
	"tlsdial/util"
)

// version is overridable at link time:
//
//	go build -ldflags "-X tlsdial/cmd.version=2.0.0"
var version = "1.0.0" //nolint:gochecknoglobals

// Execute parses args and runs a tlsdial session.
func Execute(ctx context.Context, args []string) error {
	config.LoadDotEnv()
	cfg := config.New()
	config.LoadFromEnv(cfg)

	fs := flag.NewFlagSet("tlsdial", flag.ContinueOnError)

	// ── destination ──────────────────────────────────────────────
	fs.StringVarP(&cfg.ServerName, "servername", "s", cfg.ServerName, "SNI override (default: the host)")
	fs.IntVarP(&cfg.LocalPort, "local-port", "p", cfg.LocalPort, "Local source port (0 = ephemeral)")

	var timeoutSec int
	fs.IntVarP(&timeoutSec, "timeout", "w", 0, "Per-candidate connect timeout in seconds")

	// ── verification ─────────────────────────────────────────────
	var noVerifyName bool
	fs.BoolVar(&noVerifyName, "no-verify-name", false, "Do not require a usable SNI")
	var insecure bool
	fs.BoolVarP(&insecure, "insecure", "k", false, "Skip certificate verification entirely")
	fs.BoolVar(&cfg.RequireOCSPStapling, "require-ocsp", cfg.RequireOCSPStapling, "Require stapled OCSP (unsupported, connect fails)")
	fs.StringVar(&cfg.CAFile, "ca", cfg.CAFile, "CA bundle overriding the system trust store")

	// ── client identity ──────────────────────────────────────────
	fs.StringVar(&cfg.CertFile, "cert", cfg.CertFile, "Client certificate chain (PEM)")
	fs.StringVar(&cfg.KeyFile, "key", cfg.KeyFile, "Client private key (PEM)")

	// ── alternate channels ───────────────────────────────────────
	fs.BoolVar(&cfg.Stdio, "stdio", false, "Run TLS over descriptors 0 and 1 (inetd style)")
	fs.StringVar(&cfg.WSURL, "ws", cfg.WSURL, "Carry the stream over a websocket at URL")
	var vsockSpec string
	fs.StringVar(&vsockSpec, "vsock", "", "AF_VSOCK destination as cid:port")

	// ── SSH gateway ──────────────────────────────────────────────
	fs.StringVarP(&cfg.TunnelSpec, "tunnel", "T", cfg.TunnelSpec, "Reach the host via SSH gateway [user@]host[:port]")
	fs.StringVar(&cfg.SSHKeyPath, "ssh-key", cfg.SSHKeyPath, "SSH private key file")
	fs.BoolVar(&cfg.SSHPassword, "ssh-password", cfg.SSHPassword, "Prompt for SSH password")
	fs.BoolVar(&cfg.UseSSHAgent, "ssh-agent", cfg.UseSSHAgent, "Use SSH agent")
	fs.BoolVar(&cfg.StrictHostKey, "strict-hostkey", cfg.StrictHostKey, "Verify SSH host keys")
	fs.StringVar(&cfg.KnownHostsPath, "known-hosts", cfg.KnownHostsPath, "Custom known_hosts path")

	// ── behaviour ────────────────────────────────────────────────
	fs.IntVar(&cfg.RetryAttempts, "retry", cfg.RetryAttempts, "Retry failed connects with backoff")
	fs.CountVarP(&cfg.Verbose, "verbose", "v", "Increase verbosity (repeatable)")

	var showVersion, showHelp bool
	fs.BoolVar(&showVersion, "version", false, "Print version and exit")
	fs.BoolVarP(&showHelp, "help", "h", false, "Show this help")

	fs.Usage = func() { printUsage(fs) }

	// ── parse ────────────────────────────────────────────────────
	if err := fs.Parse(args); err != nil {
		return err
	}

	if showHelp || len(args) == 0 {
		printUsage(fs)
		return nil
	}
	if showVersion {
		fmt.Printf("tlsdial %s\n", version)
		return nil
	}

	if timeoutSec > 0 {
		cfg.Timeout = time.Duration(timeoutSec) * time.Second
	}
	if noVerifyName {
		cfg.VerifyName = false
	}
	if insecure {
		cfg.SkipVerify = true
		cfg.VerifyName = false
	}

	// ── positional arguments ─────────────────────────────────────
	if err := parsePositional(cfg, fs.Args()); err != nil {
		return err
	}

	// ── gateway / vsock specs ────────────────────────────────────
	if cfg.TunnelSpec != "" {
		user, host, port, err := config.ParseTunnelSpec(cfg.TunnelSpec)
		if err != nil {
			return fmt.Errorf("tunnel: %w", err)
		}
		cfg.TunnelEnabled = true
		cfg.TunnelUser = user
		cfg.TunnelHost = host
		cfg.TunnelPort = port
	}
	if vsockSpec != "" {
		cid, port, err := config.ParseVsockSpec(vsockSpec)
		if err != nil {
			return err
		}
		cfg.VsockCID = cid
		cfg.VsockPort = port
	}

	// ── validate ─────────────────────────────────────────────────
	if err := cfg.Validate(); err != nil {
		return err
	}

	return run(ctx, cfg)
}

// run builds the engine and session, connects over the configured
// channel, performs the handshake, and relays stdin/stdout.
func run(ctx context.Context, cfg *config.Config) error {
	logger := util.NewLogger(cfg.Verbose)

	eng := &engine.TLS{SkipVerify: cfg.SkipVerify}
	if cfg.CAFile != "" {
		pool, err := engine.LoadCertPool(cfg.CAFile)
		if err != nil {
			return err
		}
		eng.RootCAs = pool
	}

	sess, err := client.New(cfg, eng, logger)
	if err != nil {
		return err
	}

	servername := serverNameDefault(cfg)

	switch {
	case cfg.Stdio:
		logger.Verbose("using descriptors 0/1 as the channel")
		err = sess.ConnectFDs(0, 1, servername)

	case cfg.WSURL != "":
		logger.Verbose("dialing websocket %s", cfg.WSURL)
		ws, werr := transport.DialWS(ctx, cfg.WSURL)
		if werr != nil {
			return fmt.Errorf("websocket %s: %w", cfg.WSURL, werr)
		}
		defer ws.Close()
		read, write, userCtx := transport.WSCallbacks(ws)
		err = sess.ConnectCallbacks(read, write, userCtx, servername)

	case cfg.VsockPort != 0:
		d := &transport.VsockDialer{ContextID: cfg.VsockCID, Port: cfg.VsockPort}
		conn, derr := d.Dial(ctx, "", "")
		if derr != nil {
			return derr
		}
		defer conn.Close()
		read, write, userCtx := transport.ConnCallbacks(conn)
		err = sess.ConnectCallbacks(read, write, userCtx, servername)

	case cfg.TunnelEnabled:
		tun := tunnel.NewSSHTunnel(&tunnel.SSHConfig{
			User:          cfg.TunnelUser,
			Host:          cfg.TunnelHost,
			Port:          cfg.TunnelPort,
			KeyPath:       cfg.SSHKeyPath,
			PromptPass:    cfg.SSHPassword,
			UseAgent:      cfg.UseSSHAgent,
			StrictHostKey: cfg.StrictHostKey,
			KnownHosts:    cfg.KnownHostsPath,
			ConnTimeout:   cfg.Timeout,
		}, logger)
		defer tun.Close()

		conn, terr := tun.Dial(ctx, "tcp", tunnelTarget(cfg))
		if terr != nil {
			return terr
		}
		defer conn.Close()
		read, write, userCtx := transport.ConnCallbacks(conn)
		err = sess.ConnectCallbacks(read, write, userCtx, servername)

	default:
		err = connectDirect(ctx, sess, cfg)
	}
	if err != nil {
		return err
	}
	defer sess.Close()

	sconn, err := sess.Handshake(ctx)
	if err != nil {
		return err
	}
	logger.Verbose("handshake complete, relaying")

	relayErr := util.BidirectionalCopy(ctx, sconn, os.Stdin, os.Stdout)

	if cfg.Verbose >= 2 {
		if stats, jerr := sess.Metrics().JSON(); jerr == nil {
			logger.Verbose("session stats:\n%s", stats)
		}
	}
	return relayErr
}

// connectDirect resolves and connects, optionally retrying with
// backoff.  A failed attempt leaves the session unconnected, so it is
// safe to re-enter.
func connectDirect(ctx context.Context, sess *client.Session, cfg *config.Config) error {
	attempt := func() error {
		err := sess.ConnectServerName(ctx, cfg.Host, cfg.Port, cfg.ServerName)
		if err != nil && !ncerr.IsRetryable(err) {
			return retry.Permanent(err)
		}
		return err
	}

	if cfg.RetryAttempts <= 0 {
		return sess.ConnectServerName(ctx, cfg.Host, cfg.Port, cfg.ServerName)
	}

	b := &retry.Backoff{
		InitialDelay: config.DefaultRetryBackoff,
		MaxDelay:     config.DefaultMaxRetryBackoff,
		MaxAttempts:  cfg.RetryAttempts,
		Jitter:       true,
	}
	return b.Do(ctx, attempt)
}

// serverNameDefault picks the SNI for channels that take the name from
// configuration: an explicit -s wins, otherwise the host — with an
// embedded port split off first, so the combined host:port form never
// leaks the port into the servername.
func serverNameDefault(cfg *config.Config) string {
	if cfg.ServerName != "" {
		return cfg.ServerName
	}
	if cfg.Port == "" {
		if host, _, err := resolve.SplitHostPort(cfg.Host); err == nil {
			return host
		}
	}
	return cfg.Host
}

// tunnelTarget builds the host:port the gateway should forward to.
func tunnelTarget(cfg *config.Config) string {
	if cfg.Port == "" {
		return cfg.Host // port embedded in the host spec
	}
	return net.JoinHostPort(cfg.Host, cfg.Port)
}

// ── helpers ──────────────────────────────────────────────────────────

func parsePositional(cfg *config.Config, remaining []string) error {
	switch len(remaining) {
	case 0:
		if !cfg.Stdio && cfg.WSURL == "" && cfg.Host == "" {
			return fmt.Errorf("hostname required (use --help for usage)")
		}
	case 1:
		cfg.Host = remaining[0] // port may be embedded: host:port
	case 2:
		cfg.Host = remaining[0]
		cfg.Port = remaining[1]
	default:
		return fmt.Errorf("too many arguments")
	}
	return nil
}

func printUsage(fs *flag.FlagSet) {
	fmt.Fprintf(os.Stderr, `tlsdial – TLS client connection bootstrapper v%s

Connects to a destination, negotiates TLS, and relays stdin/stdout.

Usage:
  tlsdial [options] <host> <port>             Connect
  tlsdial [options] <host:port>               Connect (combined form)
  tlsdial --stdio [options]                   TLS over descriptors 0/1
  tlsdial --ws wss://gw.example/tls           TLS over a websocket
  tlsdial -T user@bastion <host> <port>       Via SSH gateway

Options:
`, version)
	fs.PrintDefaults()
	fmt.Fprintf(os.Stderr, `
Examples:
  tlsdial example.com 443                     Fetch-anything client
  tlsdial -s example.com 192.0.2.7 443        Literal address, explicit SNI
  tlsdial --no-verify-name 127.0.0.1 8443     Local endpoint, no SNI check
  tlsdial --ca ca.pem --cert c.pem --key k.pem db.internal 5432
  echo Q | tlsdial --retry 5 host.example 443 Retry with backoff
`)
}
