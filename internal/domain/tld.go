package domain

import (
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// RegisteredDomain returns the registrable domain of rawURL
// ("https://www.bbc.co.uk/news" -> "bbc.co.uk"). It returns "" when the
// URL has no host or the host is an IP address or a bare public suffix.
func RegisteredDomain(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}
	if u.Host == "" && u.Scheme == "" {
		// "example.com/path" parses as a relative path.
		if u, err = url.Parse("http://" + strings.TrimSpace(rawURL)); err != nil {
			return ""
		}
	}
	host := strings.TrimSuffix(strings.ToLower(u.Hostname()), ".")
	if host == "" || strings.Trim(host, "0123456789.:") == "" || strings.Contains(host, ":") {
		return ""
	}
	domain, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return ""
	}
	return domain
}
