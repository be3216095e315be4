package transport

import (
	"context"
	"fmt"
	"net"
	"time"

	ncerr "tlsdial/internal/errors"
	"tlsdial/internal/metrics"
	"tlsdial/internal/resolve"
	"tlsdial/util"
)

// Establisher turns an ordered candidate list into exactly one
// connected channel.  Candidates are tried in order; the first success
// wins; per-candidate failures are recorded and the last one is
// surfaced when the list is exhausted.
type Establisher struct {
	// Timeout bounds each candidate attempt (0 = no limit beyond ctx).
	Timeout time.Duration

	// LocalPort optionally binds the source port (0 = ephemeral).
	LocalPort int

	Logger  *util.Logger
	Metrics *metrics.Collector
}

// Establish tries each candidate in order and returns the first
// connected socket.  A failed attempt leaves nothing open: the dialer
// closes its socket before returning an error.  An empty candidate
// list fails immediately with a ConnectError.
func (e *Establisher) Establish(ctx context.Context, cands []resolve.Candidate) (net.Conn, error) {
	if len(cands) == 0 {
		return nil, &ncerr.ConnectError{}
	}

	var (
		lastErr  error
		lastAddr string
	)
	for _, c := range cands {
		e.Metrics.DialAttempt()

		d := net.Dialer{Timeout: e.Timeout}
		if e.LocalPort > 0 {
			a, err := net.ResolveTCPAddr("tcp", fmt.Sprintf(":%d", e.LocalPort))
			if err != nil {
				return nil, &ncerr.ConfigError{Field: "local-port",
					Value: e.LocalPort, Message: err.Error()}
			}
			d.LocalAddr = a
		}

		conn, err := d.DialContext(ctx, c.Network, c.Addr.String())
		if err != nil {
			e.Metrics.DialFailure()
			e.Logger.Debug("candidate %s (%s) failed: %v", c.Addr, c.Network, err)
			lastErr, lastAddr = err, c.Addr.String()
			continue
		}

		e.Metrics.ConnectionOpened()
		e.Logger.Verbose("connected to %s (%s)", conn.RemoteAddr(), c.Network)
		return conn, nil
	}

	return nil, &ncerr.ConnectError{Addr: lastAddr, Attempts: len(cands), Err: lastErr}
}
