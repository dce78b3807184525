package validation

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// EndpointValidator checks GraphQL endpoint URLs from config and flags.
type EndpointValidator struct {
	// AllowInsecure permits plain http, localhost and private addresses,
	// for a locally running API.
	AllowInsecure bool
	MaxLength     int
}

func NewEndpointValidator(allowInsecure bool) *EndpointValidator {
	return &EndpointValidator{AllowInsecure: allowInsecure, MaxLength: 2048}
}

// ValidateAndNormalize returns the endpoint with a scheme, defaulting to https.
func (v *EndpointValidator) ValidateAndNormalize(input string) (string, error) {
	input = strings.TrimSpace(input)

	if input == "" {
		return "", fmt.Errorf("endpoint cannot be empty")
	}
	if len(input) > v.MaxLength {
		return "", fmt.Errorf("endpoint too long (max %d characters)", v.MaxLength)
	}
	if strings.ContainsAny(input, "<>\"'` ") {
		return "", fmt.Errorf("endpoint contains invalid characters")
	}

	if !strings.Contains(input, "://") {
		input = "https://" + input
	}

	u, err := url.Parse(input)
	if err != nil {
		return "", fmt.Errorf("invalid endpoint format: %w", err)
	}

	switch u.Scheme {
	case "https":
	case "http":
		if !v.AllowInsecure {
			return "", fmt.Errorf("plain http endpoints require api.allow_insecure")
		}
	default:
		return "", fmt.Errorf("endpoint must use http or https, got %q", u.Scheme)
	}

	host := u.Hostname()
	if host == "" {
		return "", fmt.Errorf("endpoint must have a hostname")
	}
	if !v.AllowInsecure {
		if isLocalhost(host) {
			return "", fmt.Errorf("localhost endpoints require api.allow_insecure")
		}
		if ip := net.ParseIP(host); ip != nil && isPrivateIP(ip) {
			return "", fmt.Errorf("private IP endpoints require api.allow_insecure")
		}
	}
	if u.User != nil {
		return "", fmt.Errorf("endpoint must not embed credentials")
	}
	u.Fragment, u.RawFragment = "", ""

	return u.String(), nil
}

func isLocalhost(host string) bool {
	host = strings.ToLower(host)
	return host == "localhost" || strings.HasSuffix(host, ".localhost")
}

func isPrivateIP(ip net.IP) bool {
	return ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() || ip.IsUnspecified()
}
