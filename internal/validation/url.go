package validation

import (
	"fmt"
	"net/url"
	"strings"
)

// ValidateURL validates the base URL of the evaluator service.
func ValidateURL(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	// Only allow http/https schemes to prevent protocol handlers
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("invalid URL scheme: %q (only http/https allowed)", parsed.Scheme)
	}

	dangerous := []string{";", "|", "`", "$", "<", ">", "\"", "'", "\\", "\n", "\r", " "}
	for _, char := range dangerous {
		if strings.Contains(rawURL, char) {
			return fmt.Errorf("URL contains invalid character: %q", char)
		}
	}

	if parsed.Host == "" {
		return fmt.Errorf("URL must have a valid hostname")
	}

	if parsed.RawQuery != "" || parsed.Fragment != "" {
		return fmt.Errorf("URL must not carry a query or fragment")
	}

	return nil
}

// ValidateOrigin validates an entry of the CORS allow list. "*" allows
// every origin; anything else must be a scheme://host[:port] origin.
func ValidateOrigin(origin string) error {
	if origin == "*" {
		return nil
	}
	if err := ValidateURL(origin); err != nil {
		return err
	}

	parsed, _ := url.Parse(origin)
	if parsed.Path != "" && parsed.Path != "/" {
		return fmt.Errorf("origin must not contain a path: %s", origin)
	}
	return nil
}

// IsAllowedOrigin reports whether origin matches one of allowed.
func IsAllowedOrigin(origin string, allowed []string) bool {
	origin = strings.TrimSuffix(origin, "/")
	for _, a := range allowed {
		if a == "*" || strings.EqualFold(strings.TrimSuffix(a, "/"), origin) {
			return true
		}
	}
	return false
}
