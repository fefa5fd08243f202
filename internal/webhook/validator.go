package webhook

import (
	"context"
	"errors"
	"net"
	"net/netip"
	"net/url"
	"strings"
	"time"
)

// Target URL rejections.
var (
	ErrInvalidURL       = errors.New("invalid URL format")
	ErrInvalidScheme    = errors.New("only HTTPS allowed")
	ErrEmptyHost        = errors.New("URL must have a host")
	ErrLocalhostBlocked = errors.New("localhost not allowed")
	ErrInvalidPort      = errors.New("only port 443 allowed")
	ErrPrivateIP        = errors.New("private IP addresses not allowed")
)

// blockedPrefixes are address ranges a webhook may never target.
var blockedPrefixes = []netip.Prefix{
	netip.MustParsePrefix("0.0.0.0/8"),
	netip.MustParsePrefix("10.0.0.0/8"),
	netip.MustParsePrefix("100.64.0.0/10"),
	netip.MustParsePrefix("127.0.0.0/8"),
	netip.MustParsePrefix("169.254.0.0/16"),
	netip.MustParsePrefix("172.16.0.0/12"),
	netip.MustParsePrefix("192.168.0.0/16"),
	netip.MustParsePrefix("::1/128"),
	netip.MustParsePrefix("fc00::/7"),
	netip.MustParsePrefix("fe80::/10"),
}

// resolveTimeout bounds the DNS check done at startup.
const resolveTimeout = 3 * time.Second

// lookupAddrs is swapped in tests.
var lookupAddrs = func(ctx context.Context, host string) ([]netip.Addr, error) {
	return net.DefaultResolver.LookupNetIP(ctx, "ip", host)
}

// ValidateTargetURL checks that a webhook target cannot be used to reach
// the host's own network. Strict mode requires HTTPS on the default port
// and a public address. allowInsecure only checks the URL shape, for
// receivers running next to the mock.
func ValidateTargetURL(targetURL string, allowInsecure bool) error {
	u, err := url.Parse(targetURL)
	if err != nil {
		return ErrInvalidURL
	}

	switch {
	case u.Scheme == "https":
	case u.Scheme == "http" && allowInsecure:
	default:
		return ErrInvalidScheme
	}

	host := u.Hostname()
	if host == "" {
		return ErrEmptyHost
	}
	if allowInsecure {
		return nil
	}

	if isLocalName(host) {
		return ErrLocalhostBlocked
	}
	if port := u.Port(); port != "" && port != "443" {
		return ErrInvalidPort
	}

	if addr, err := netip.ParseAddr(host); err == nil {
		if isBlockedAddr(addr) {
			return ErrPrivateIP
		}
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), resolveTimeout)
	defer cancel()
	addrs, err := lookupAddrs(ctx, host)
	if err != nil {
		// Unresolvable hosts fail at delivery time instead.
		return nil
	}
	for _, addr := range addrs {
		if isBlockedAddr(addr) {
			return ErrPrivateIP
		}
	}
	return nil
}

func isLocalName(host string) bool {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	if host == "localhost" || strings.HasSuffix(host, ".localhost") || strings.HasSuffix(host, ".local") {
		return true
	}
	addr, err := netip.ParseAddr(host)
	return err == nil && addr.Unmap().IsLoopback()
}

func isBlockedAddr(addr netip.Addr) bool {
	addr = addr.Unmap()
	if addr.IsUnspecified() {
		return true
	}
	for _, p := range blockedPrefixes {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// ExtractHost returns the host part of targetURL for logging. Paths and
// query strings can carry tokens and are never logged.
func ExtractHost(targetURL string) string {
	u, err := url.Parse(targetURL)
	if err != nil {
		return "(invalid)"
	}
	return u.Host
}
