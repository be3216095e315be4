// Package client implements the client-side transport bootstrap that
// precedes a TLS handshake: it turns a destination — a hostname or
// address, an existing descriptor pair, or a caller-driven callback
// channel — into a single connected duplex stream plus a validated
// SNI value, and hands both to a handshake engine.
//
// A session is single-owner and fully synchronous; callers wanting
// concurrency run independent sessions.  Cancellation is imposed
// through the context passed to the connect entry points, not by the
// session itself.
package client

import (
	"context"
	"net"

	"github.com/google/uuid"

	"tlsdial/config"
	"tlsdial/engine"
	ncerr "tlsdial/internal/errors"
	"tlsdial/internal/metrics"
	"tlsdial/internal/resolve"
	"tlsdial/internal/transport"
	"tlsdial/util"
)

// State is the session lifecycle position.  It only moves forward.
type State int

const (
	StateNew State = iota
	StateConnected
)

// Session drives one connection bootstrap.  Exactly one of the connect
// entry points may succeed per session; afterwards the session owns
// (or, for the callback variant, borrows) its transport until Close.
type Session struct {
	cfg     *config.Config
	eng     engine.Engine
	logger  *util.Logger
	metrics *metrics.Collector
	id      string

	role  engine.Role
	state State

	// servername is the normalized name kept for diagnostics even
	// when the effective SNI is suppressed (literal addresses).
	servername string
	binding    *transport.Binding
}

// New creates an unconnected client-role session.  The engine is the
// external handshake collaborator; process-wide engine initialization
// runs here, once.
func New(cfg *config.Config, eng engine.Engine, logger *util.Logger) (*Session, error) {
	if err := engine.Init(); err != nil {
		return nil, &ncerr.ConfigError{Field: "engine", Message: "init: " + err.Error()}
	}
	return &Session{
		cfg:     cfg,
		eng:     eng,
		logger:  logger,
		metrics: metrics.New(),
		id:      uuid.NewString(),
		role:    engine.RoleClient,
		state:   StateNew,
	}, nil
}

// ── accessors ────────────────────────────────────────────────────────

// ID returns the session's correlation ID.
func (s *Session) ID() string { return s.id }

// State returns the current lifecycle state.
func (s *Session) State() State { return s.state }

// ServerName returns the normalized servername recorded at connect
// time, which may differ from the SNI actually sent (empty for
// literal addresses).
func (s *Session) ServerName() string { return s.servername }

// Binding returns the transport binding, or nil before the session is
// connected.
func (s *Session) Binding() *transport.Binding { return s.binding }

// Metrics returns the session's metrics collector.
func (s *Session) Metrics() *metrics.Collector { return s.metrics }

// ── connect entry points ─────────────────────────────────────────────

// Connect resolves host and port, establishes a TCP connection, and
// completes the bootstrap with the resolved host as the default
// servername.  An empty port is extracted from host ("host:port" or
// "[v6]:port" forms).
func (s *Session) Connect(ctx context.Context, host, port string) error {
	return s.ConnectServerName(ctx, host, port, "")
}

// ConnectServerName is Connect with an explicit servername overriding
// the resolved host for SNI purposes.
func (s *Session) ConnectServerName(ctx context.Context, host, port, servername string) error {
	if err := s.checkEntry("connect"); err != nil {
		return err
	}
	if host == "" {
		return &ncerr.ConfigError{Field: "host", Message: "host not specified"}
	}

	h, p := host, port
	if p == "" {
		var err error
		h, p, err = resolve.SplitHostPort(host)
		if err != nil {
			if ncerr.Is(err, ncerr.ErrNoPort) {
				return &ncerr.ConfigError{Field: "port", Message: "no port provided"}
			}
			return &ncerr.ConfigError{Field: "host", Value: host, Message: err.Error()}
		}
	}

	res := &resolve.Resolver{}
	cands, err := res.Resolve(ctx, h, p)
	if err != nil {
		s.metrics.ErrorOccurred(err.Error())
		return err
	}
	if util.IsLiteralAddr(h) {
		s.metrics.ResolvedLiteral()
	} else {
		s.metrics.ResolvedLookup()
	}
	s.logger.Debug("session %s: %d candidate(s) for %s port %s", s.id, len(cands), h, p)

	est := &transport.Establisher{
		Timeout:   s.cfg.Timeout,
		LocalPort: s.cfg.LocalPort,
		Logger:    s.logger,
		Metrics:   s.metrics,
	}
	conn, err := est.Establish(ctx, cands)
	if err != nil {
		s.metrics.ErrorOccurred(err.Error())
		return err
	}

	if servername == "" {
		servername = h
	}
	b, err := transport.NewOwnedConn(conn)
	if err != nil {
		conn.Close()
		return err
	}
	if err := s.connectCommon(servername); err != nil {
		// The socket was connected but engine setup failed; it is
		// ours to close, not the caller's.
		conn.Close()
		return err
	}
	s.complete(b)
	return nil
}

// ConnectSocket completes the bootstrap over a single connected
// descriptor used for both directions.
func (s *Session) ConnectSocket(fd int, servername string) error {
	return s.ConnectFDs(fd, fd, servername)
}

// ConnectFDs completes the bootstrap over an existing read/write
// descriptor pair, skipping resolution and connection entirely.  On
// success the session owns both descriptors; on failure they remain
// the caller's.
func (s *Session) ConnectFDs(readFD, writeFD int, servername string) error {
	if err := s.checkEntry("connect-fds"); err != nil {
		return err
	}
	if readFD < 0 || writeFD < 0 {
		return &ncerr.ConfigError{Field: "fd",
			Value:   [2]int{readFD, writeFD},
			Message: "invalid file descriptors"}
	}
	if err := s.connectCommon(servername); err != nil {
		return err
	}
	b, err := transport.NewOwnedFDs(readFD, writeFD)
	if err != nil {
		return err
	}
	s.complete(b)
	return nil
}

// ConnectCallbacks completes the bootstrap over a caller-driven
// channel.  The channel stays owned by the caller for its entire
// lifetime; userCtx is handed back on every read and write.
func (s *Session) ConnectCallbacks(read transport.ReadFunc, write transport.WriteFunc,
	userCtx interface{}, servername string) error {

	if err := s.checkEntry("connect-callbacks"); err != nil {
		return err
	}
	b, err := transport.NewExternal(read, write, userCtx)
	if err != nil {
		return err
	}
	if err := s.connectCommon(servername); err != nil {
		return err
	}
	s.complete(b)
	return nil
}

// ── shared tail ──────────────────────────────────────────────────────

// checkEntry guards every connect entry point: client role only, and
// a session never re-enters connection establishment.
func (s *Session) checkEntry(op string) error {
	if s.role != engine.RoleClient {
		return &ncerr.RoleError{Op: op, Role: s.role.String()}
	}
	if s.state != StateNew {
		return ncerr.ErrAlreadyConnected
	}
	return nil
}

// connectCommon is the shared tail of all three entry points: SNI
// normalization, feature checks, identity configuration, and the
// engine reset.  It acquires no resources, so a failure needs no
// cleanup here; callers release anything they dialed.
func (s *Session) connectCommon(servername string) error {
	sni, kept, err := normalizeServerName(servername, s.cfg.VerifyName)
	if err != nil {
		return err
	}
	s.servername = kept

	if s.cfg.RequireOCSPStapling {
		return &ncerr.ConfigError{Field: "require-ocsp",
			Message: "OCSP stapling is not supported"}
	}

	if s.cfg.CertFile != "" {
		id, err := engine.LoadIdentity(s.cfg.CertFile, s.cfg.KeyFile)
		if err != nil {
			return &ncerr.ConfigError{Field: "cert", Value: s.cfg.CertFile,
				Message: err.Error()}
		}
		if err := s.eng.ConfigureIdentity(id.Chain, id.Key, id.Type); err != nil {
			return &ncerr.ConfigError{Field: "cert", Message: err.Error()}
		}
	}

	if err := s.eng.Reset(engine.RoleClient, sni); err != nil {
		return &ncerr.ConfigError{Field: "engine", Message: err.Error()}
	}

	if sni == "" {
		s.logger.Verbose("session %s: no SNI (servername %q)", s.id, kept)
	} else {
		s.logger.Verbose("session %s: SNI %q", s.id, sni)
	}
	return nil
}

// complete transitions to Connected.  The transport is set if and
// only if the state is Connected.
func (s *Session) complete(b *transport.Binding) {
	s.binding = b
	s.state = StateConnected
	s.logger.Debug("session %s: connected (%s transport)", s.id, b.Kind())
}

// ── post-connect operations ──────────────────────────────────────────

// Handshake drives the engine's TLS handshake over the session's
// transport and returns the secured stream.
func (s *Session) Handshake(ctx context.Context) (net.Conn, error) {
	if s.state != StateConnected {
		return nil, ncerr.ErrNotConnected
	}
	return s.eng.Handshake(ctx, s.binding.Conn())
}

// Close releases the transport.  Owned channels (dialed connections,
// descriptor pairs) are closed; external callback channels are left
// to their owner.
func (s *Session) Close() error {
	if s.binding == nil {
		return nil
	}
	return s.binding.Close()
}
