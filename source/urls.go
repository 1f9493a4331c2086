package source

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
)

// ErrURLNotAllowed is returned for URLs that could reach internal hosts.
var ErrURLNotAllowed = errors.New("url not allowed")

// Reserved ranges not covered by the net.IP predicates.
var reservedNets = mustCIDRs(
	"100.64.0.0/10", // carrier-grade NAT
	"fc00::/7",      // IPv6 unique local
	"fe80::/10",     // IPv6 link-local
)

func mustCIDRs(cidrs ...string) []*net.IPNet {
	nets := make([]*net.IPNet, 0, len(cidrs))
	for _, c := range cidrs {
		_, n, err := net.ParseCIDR(c)
		if err != nil {
			panic("invalid CIDR " + c + ": " + err.Error())
		}
		nets = append(nets, n)
	}
	return nets
}

// ValidateURL accepts only HTTPS URLs that do not name localhost, a local
// domain, or a private address.
func ValidateURL(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrURLNotAllowed, err)
	}
	if parsed.Scheme != "https" {
		return fmt.Errorf("%w: only https is allowed", ErrURLNotAllowed)
	}

	host := strings.ToLower(parsed.Hostname())
	if host == "" {
		return fmt.Errorf("%w: missing host", ErrURLNotAllowed)
	}
	if host == "localhost" || strings.HasSuffix(host, ".local") || strings.HasSuffix(host, ".internal") {
		return fmt.Errorf("%w: local host %s", ErrURLNotAllowed, host)
	}
	if ip := net.ParseIP(host); ip != nil && IsPrivateIP(ip) {
		return fmt.Errorf("%w: private address %s", ErrURLNotAllowed, host)
	}
	return nil
}

// IsPrivateIP reports whether ip is loopback, private, link-local, or in
// another reserved range. IPv4-mapped IPv6 addresses are unwrapped first.
func IsPrivateIP(ip net.IP) bool {
	if v4 := ip.To4(); v4 != nil {
		ip = v4
	}
	if ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() || ip.IsUnspecified() {
		return true
	}
	for _, n := range reservedNets {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

// SourceID derives a stable source id from a URL, so the same page attached
// to several sections deduplicates:
//
//	https://contoso.com/about/team -> src-web-contoso-com-about-team
func SourceID(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Hostname() == "" {
		sum := sha256.Sum256([]byte(rawURL))
		return "src-web-" + hex.EncodeToString(sum[:8])
	}

	slug := strings.ToLower(parsed.Hostname() + "/" + strings.Trim(parsed.Path, "/"))
	slug = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			return r
		}
		return '-'
	}, slug)
	for strings.Contains(slug, "--") {
		slug = strings.ReplaceAll(slug, "--", "-")
	}
	slug = strings.Trim(slug, "-")
	if len(slug) > 80 {
		slug = strings.TrimRight(slug[:80], "-")
	}
	return "src-web-" + slug
}
