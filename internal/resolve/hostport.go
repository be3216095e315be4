package resolve

import (
	"fmt"
	"strings"

	ncerr "tlsdial/internal/errors"
)

// SplitHostPort extracts a host and port from a combined specification
// such as "example.com:443" or "[2001:db8::1]:443".  It is only used
// when the caller supplied no explicit port.
//
// A specification without a port component fails with
// [ncerr.ErrNoPort], distinct from a malformed one.  A bare IPv6
// literal ("2001:db8::1") counts as "no port": its colons separate
// hextets, not a port.  No network I/O is performed and the extracted
// values are not validated beyond the syntactic split.
func SplitHostPort(spec string) (host, port string, err error) {
	if spec == "" {
		return "", "", fmt.Errorf("empty host specification")
	}

	// Bracketed form: [host]:port or a bare [host].
	if spec[0] == '[' {
		end := strings.IndexByte(spec, ']')
		if end < 0 {
			return "", "", fmt.Errorf("unmatched '[' in %q", spec)
		}
		host = spec[1:end]
		rest := spec[end+1:]
		if rest == "" {
			return "", "", ncerr.ErrNoPort
		}
		if rest[0] != ':' || len(rest) == 1 {
			return "", "", fmt.Errorf("malformed port in %q", spec)
		}
		return host, rest[1:], nil
	}

	i := strings.LastIndexByte(spec, ':')
	if i < 0 {
		return "", "", ncerr.ErrNoPort
	}
	if strings.IndexByte(spec, ':') != i {
		// Multiple colons without brackets: an IPv6 literal.
		return "", "", ncerr.ErrNoPort
	}
	if i == len(spec)-1 {
		return "", "", fmt.Errorf("missing port after ':' in %q", spec)
	}
	return spec[:i], spec[i+1:], nil
}
