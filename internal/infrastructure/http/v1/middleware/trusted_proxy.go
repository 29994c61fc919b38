package middleware

import (
	"fmt"
	"net/netip"
	"strings"
)

// ProxyTrust lists the peers allowed to forward the acting user.
// The zero value trusts nobody.
type ProxyTrust struct {
	prefixes []netip.Prefix
}

// NewProxyTrust parses CIDRs or bare IP addresses.
func NewProxyTrust(proxies []string) (*ProxyTrust, error) {
	pt := &ProxyTrust{}
	for _, raw := range proxies {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if strings.Contains(raw, "/") {
			prefix, err := netip.ParsePrefix(raw)
			if err != nil {
				return nil, fmt.Errorf("trusted proxy %q: %w", raw, err)
			}
			pt.prefixes = append(pt.prefixes, prefix.Masked())
			continue
		}
		addr, err := netip.ParseAddr(raw)
		if err != nil {
			return nil, fmt.Errorf("trusted proxy %q: %w", raw, err)
		}
		pt.prefixes = append(pt.prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return pt, nil
}

// Trusted reports whether the direct peer is a trusted proxy.
func (pt *ProxyTrust) Trusted(remoteIP string) bool {
	if pt == nil {
		return false
	}
	addr, err := netip.ParseAddr(remoteIP)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, prefix := range pt.prefixes {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}
