package validation

import (
	"net"
	"net/url"
	"regexp"
	"strings"
)

// IdentifierPattern defines the valid agent and task id format: alphanumeric, hyphens, underscores.
var IdentifierPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ValidateIdentifier checks if an id is safe to use as a path segment or key.
func ValidateIdentifier(id string) bool {
	if id == "" || len(id) > 100 {
		return false
	}
	return IdentifierPattern.MatchString(id)
}

// ValidateURL checks if a URL is valid and uses an allowed scheme (http/https only).
// This prevents javascript:, data:, vbscript:, and other dangerous URL schemes.
func ValidateURL(urlStr string) (bool, string) {
	if urlStr == "" {
		return false, "URL is required"
	}

	u, err := url.Parse(urlStr)
	if err != nil {
		return false, "Invalid URL format"
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return false, "URL must use http:// or https:// scheme"
	}

	if u.Host == "" {
		return false, "URL must have a valid host"
	}

	return true, ""
}

// ValidateOptionalURL is ValidateURL for fields that may be left empty.
func ValidateOptionalURL(urlStr string) (bool, string) {
	if urlStr == "" {
		return true, ""
	}
	return ValidateURL(urlStr)
}

// IsPrivateIP checks if an IP address is in a private/reserved range.
// Used to prevent SSRF attacks against internal networks.
func IsPrivateIP(ip net.IP) bool {
	if ip == nil {
		return false
	}

	if ip.IsLoopback() {
		return true
	}

	if ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() {
		return true
	}

	if ip.IsPrivate() {
		return true
	}

	// 0.0.0.0 or ::
	if ip.IsUnspecified() {
		return true
	}

	// Cloud metadata endpoints (AWS/GCP, Azure)
	for _, metadata := range []string{"169.254.169.254", "168.63.129.16"} {
		if ip.Equal(net.ParseIP(metadata)) {
			return true
		}
	}

	return false
}

// IsPrivateHost checks if a hostname resolves to a private IP address.
// Returns true if the host is private/blocked, false if it's safe to access.
func IsPrivateHost(host string) (bool, error) {
	hostname := host
	if h, _, err := net.SplitHostPort(host); err == nil {
		hostname = h
	}

	ips, err := net.LookupIP(hostname)
	if err != nil {
		// Unresolvable hosts are blocked
		return true, err
	}

	for _, ip := range ips {
		if IsPrivateIP(ip) {
			return true, nil
		}
	}

	return false, nil
}

// ValidateURLForProbe validates a URL is safe to fetch from the server.
// Blocks private IPs, localhost, and cloud metadata endpoints.
func ValidateURLForProbe(urlStr string) (bool, string) {
	valid, msg := ValidateURL(urlStr)
	if !valid {
		return false, msg
	}

	u, _ := url.Parse(urlStr)

	isPrivate, err := IsPrivateHost(u.Host)
	if err != nil {
		return false, "Cannot resolve hostname"
	}
	if isPrivate {
		return false, "URL points to a private or reserved IP address"
	}

	return true, ""
}
