// Package resolve turns a user-supplied destination into an ordered
// list of candidate network addresses.
//
// Numeric literals are recognised before any name service is consulted:
// a platform resolver configured to skip address families that are not
// present on a local interface can suppress loopback literals, so
// "127.0.0.1" and "::1" must stay connectable regardless of interface
// configuration.
package resolve

import (
	"context"
	"net"
	"net/netip"
	"strconv"

	ncerr "tlsdial/internal/errors"
)

// Candidate is one resolved endpoint eligible for a connection attempt.
// Candidates are ordered and consumed once; they hold no resources.
type Candidate struct {
	Network string // "tcp4" or "tcp6"
	Addr    netip.AddrPort
}

func (c Candidate) String() string { return c.Addr.String() }

// Resolver produces candidate addresses for a host/port pair.  The
// lookup functions default to net.DefaultResolver and exist so tests
// can substitute stubs (or forbid name resolution outright).
type Resolver struct {
	// LookupIPAddr resolves a hostname.  Nil means net.DefaultResolver.
	LookupIPAddr func(ctx context.Context, host string) ([]net.IPAddr, error)

	// LookupPort resolves a service name such as "https".  Nil means
	// net.DefaultResolver.  Numeric ports never reach it.
	LookupPort func(ctx context.Context, network, service string) (int, error)
}

// Resolve produces the ordered candidate list for host and port.
// Three stages, strictly in order, each an independent attempt:
//
//  1. host as a numeric IPv4 literal — no name service;
//  2. host as a numeric IPv6 literal — no name service;
//  3. full name resolution, which may return multiple families.
//
// Only a stage-3 failure is an error; it carries the resolver's
// diagnostic.  Port may be numeric or a service name.
func (r *Resolver) Resolve(ctx context.Context, host, port string) ([]Candidate, error) {
	pnum, err := r.resolvePort(ctx, port)
	if err != nil {
		return nil, &ncerr.ResolveError{Host: host, Port: port, Err: err}
	}

	// Stage 1: IPv4 literal.
	if addr, err := netip.ParseAddr(host); err == nil && addr.Unmap().Is4() {
		return []Candidate{{
			Network: "tcp4",
			Addr:    netip.AddrPortFrom(addr.Unmap(), pnum),
		}}, nil
	}

	// Stage 2: IPv6 literal (including zoned link-local addresses).
	if addr, err := netip.ParseAddr(host); err == nil {
		return []Candidate{{
			Network: "tcp6",
			Addr:    netip.AddrPortFrom(addr, pnum),
		}}, nil
	}

	// Stage 3: name resolution.
	ips, err := r.lookupIPAddr(ctx, host)
	if err != nil {
		return nil, &ncerr.ResolveError{Host: host, Port: port, Err: err}
	}

	cands := make([]Candidate, 0, len(ips))
	for _, ia := range ips {
		c, ok := candidateFromIP(ia, pnum)
		if !ok {
			continue
		}
		cands = append(cands, c)
	}
	if len(cands) == 0 {
		return nil, &ncerr.ResolveError{Host: host, Port: port,
			Err: ncerr.New("no usable addresses returned")}
	}
	return cands, nil
}

// resolvePort parses a numeric port locally and falls back to a
// service-name lookup (a local database read, not a DNS query).
func (r *Resolver) resolvePort(ctx context.Context, port string) (uint16, error) {
	if port == "" {
		return 0, ncerr.ErrNoPort
	}
	if n, err := strconv.Atoi(port); err == nil {
		if n < 0 || n > 65535 {
			return 0, ncerr.New("port out of range 0-65535")
		}
		return uint16(n), nil
	}
	lookup := r.LookupPort
	if lookup == nil {
		lookup = net.DefaultResolver.LookupPort
	}
	n, err := lookup(ctx, "tcp", port)
	if err != nil {
		return 0, err
	}
	return uint16(n), nil
}

func (r *Resolver) lookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error) {
	if r.LookupIPAddr != nil {
		return r.LookupIPAddr(ctx, host)
	}
	return net.DefaultResolver.LookupIPAddr(ctx, host)
}

// candidateFromIP converts one resolver result, preserving the
// resolver's ordering and the address family of each entry.
func candidateFromIP(ia net.IPAddr, port uint16) (Candidate, bool) {
	if ip4 := ia.IP.To4(); ip4 != nil {
		addr, ok := netip.AddrFromSlice(ip4)
		if !ok {
			return Candidate{}, false
		}
		return Candidate{Network: "tcp4", Addr: netip.AddrPortFrom(addr, port)}, true
	}
	addr, ok := netip.AddrFromSlice(ia.IP)
	if !ok {
		return Candidate{}, false
	}
	if ia.Zone != "" {
		addr = addr.WithZone(ia.Zone)
	}
	return Candidate{Network: "tcp6", Addr: netip.AddrPortFrom(addr, port)}, true
}
