package client

import (
	"net"
	"strings"

	"golang.org/x/net/idna"

	ncerr "tlsdial/internal/errors"
)

// normalizeServerName turns a caller-supplied servername into the
// effective SNI value.
//
// Rules, in order:
//
//  1. A single trailing dot is stripped: an FQDN may carry the root
//     label's terminating dot (RFC 8499 §2) but SNI must not
//     (RFC 6066 §3).
//  2. A name that parses as an IPv4 or IPv6 literal yields no SNI —
//     RFC 6066 forbids literal addresses in HostName.  The stripped
//     name is still returned as kept, for session bookkeeping.
//  3. Non-ASCII names are mapped to their IDNA A-label form.
//
// When verifyName is set an empty effective SNI is a configuration
// error: a session that must check the hostname cannot proceed
// without one.
func normalizeServerName(name string, verifyName bool) (sni, kept string, err error) {
	noName := &ncerr.ConfigError{Field: "servername", Message: "server name not specified"}

	if name == "" {
		if verifyName {
			return "", "", noName
		}
		return "", "", nil
	}

	kept = strings.TrimSuffix(name, ".")

	if net.ParseIP(kept) != nil {
		if verifyName {
			return "", kept, noName
		}
		return "", kept, nil
	}

	sni = kept
	if !isASCII(kept) {
		sni, err = idna.Lookup.ToASCII(kept)
		if err != nil {
			return "", kept, &ncerr.ConfigError{Field: "servername",
				Value: name, Message: "invalid server name: " + err.Error()}
		}
	}
	return sni, kept, nil
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}
