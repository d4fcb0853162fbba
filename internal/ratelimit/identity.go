package ratelimit

import (
	"net"
	"strings"
)

// ipv6TruncateLen coarsens IPv6 identities so clients rotating within
// one allocation share a window.
const ipv6TruncateLen = 19

// RequestContext carries the request facts needed to identify a
// client. It is passed explicitly rather than read from ambient
// request state.
type RequestContext struct {
	Identity        string // authenticated user id, if any
	NetworkAddress  string // direct peer address, may include a port
	ForwardedHeader string // comma-separated forwarded addresses, may be empty
}

// ClientKey resolves the identity used for rate limiting. An
// authenticated user id wins; otherwise the first forwarded address
// (or the direct peer) is used, with IPv6 addresses truncated for
// coarse-grained anonymization.
func (rc RequestContext) ClientKey() string {
	if rc.Identity != "" {
		return "user:" + rc.Identity
	}

	addr := rc.NetworkAddress
	if rc.ForwardedHeader != "" {
		first, _, _ := strings.Cut(rc.ForwardedHeader, ",")
		addr = strings.TrimSpace(first)
	}

	if host, _, err := net.SplitHostPort(addr); err == nil {
		addr = host
	}
	if strings.Contains(addr, ":") && len(addr) > ipv6TruncateLen {
		addr = addr[:ipv6TruncateLen]
	}
	return "ip:" + addr
}
