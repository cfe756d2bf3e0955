package mw

import (
	"net"
	"net/http"
	"net/netip"
	"strings"

	"github.com/MrSnakeDoc/anansi/internal/logger"
)

// proxyHeaders are consulted in order when the service runs behind a
// trusted reverse proxy or tunnel.
var proxyHeaders = []string{"CF-Connecting-IP", "X-Forwarded-For", "X-Real-IP"}

// clientAddr resolves the address a request came from. Proxy headers are
// honoured only when trustProxy is set, and X-Forwarded-For contributes
// its left-most entry. The zero Addr means nothing parsed.
func clientAddr(r *http.Request, trustProxy bool) netip.Addr {
	if trustProxy {
		for _, h := range proxyHeaders {
			v := r.Header.Get(h)
			if h == "X-Forwarded-For" {
				v, _, _ = strings.Cut(v, ",")
			}
			if a, ok := parseAddr(v); ok {
				return a
			}
		}
	}
	a, _ := parseAddr(r.RemoteAddr)
	return a
}

// clientKey identifies a client for rate limiting, falling back to the raw
// RemoteAddr when it is not an address.
func clientKey(r *http.Request, trustProxy bool) string {
	if a := clientAddr(r, trustProxy); a.IsValid() {
		return a.String()
	}
	return r.RemoteAddr
}

// parseAddr accepts "ip", "ip:port", "[v6]" and "[v6]:port". IPv4-mapped
// IPv6 addresses are unmapped so they match IPv4 networks.
func parseAddr(s string) (netip.Addr, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return netip.Addr{}, false
	}
	if ap, err := netip.ParseAddrPort(s); err == nil {
		return ap.Addr().Unmap(), true
	}
	a, err := netip.ParseAddr(strings.Trim(s, "[]"))
	if err != nil {
		return netip.Addr{}, false
	}
	return a.Unmap(), true
}

// hostOnly lower-cases a Host header and strips its port and trailing dot.
func hostOnly(host string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	return strings.TrimSuffix(strings.ToLower(host), ".")
}

// prefixSet holds allowed networks. Single addresses become /32 or /128.
type prefixSet []netip.Prefix

func parsePrefixes(list []string, log logger.Logger) prefixSet {
	set := make(prefixSet, 0, len(list))
	for _, raw := range list {
		s := strings.TrimSpace(raw)
		if s == "" {
			continue
		}
		if p, err := netip.ParsePrefix(s); err == nil {
			set = append(set, p.Masked())
			continue
		}
		if a, err := netip.ParseAddr(s); err == nil {
			a = a.Unmap()
			set = append(set, netip.PrefixFrom(a, a.BitLen()))
			continue
		}
		log.Warn("ignoring unparseable allowed network", logger.String("entry", s))
	}
	return set
}

func (s prefixSet) contains(a netip.Addr) bool {
	if !a.IsValid() {
		return false
	}
	for _, p := range s {
		if p.Contains(a) {
			return true
		}
	}
	return false
}
