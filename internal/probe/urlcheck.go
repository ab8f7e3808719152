package probe

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// ValidateURL rejects a candidate URL before any network round-trip.
// It requires an absolute http(s) URL and refuses loopback, private,
// link-local and unspecified hosts so a misconfigured endpoint can never
// point probes (or visitors) at internal infrastructure. Only literal IPs
// and localhost are checked; no DNS resolution happens here.
func ValidateURL(raw string) error {
	u, err := validateSyntax(raw)
	if err != nil {
		return err
	}

	host := u.Hostname()

	if strings.EqualFold(host, "localhost") || strings.HasSuffix(strings.ToLower(host), ".localhost") {
		return fmt.Errorf("loopback host %q not allowed", host)
	}

	if ip := net.ParseIP(host); ip != nil {
		switch {
		case ip.IsLoopback():
			return fmt.Errorf("loopback address %q not allowed", host)
		case ip.IsPrivate():
			return fmt.Errorf("private address %q not allowed", host)
		case ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast():
			return fmt.Errorf("link-local address %q not allowed", host)
		case ip.IsUnspecified():
			return fmt.Errorf("unspecified address %q not allowed", host)
		}
	}

	return nil
}

// validateSyntax checks only that raw is an absolute http(s) URL with a host.
func validateSyntax(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("malformed URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Hostname() == "" {
		return nil, fmt.Errorf("missing host")
	}
	return u, nil
}
