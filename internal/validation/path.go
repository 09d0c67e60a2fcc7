package validation

import (
	"fmt"
	"path/filepath"
	"strings"
)

// restrictedPaths are system locations abacus never writes to.
var restrictedPaths = []string{
	"/etc/",
	"/proc/",
	"/sys/",
	"/dev/",
	"/boot/",
}

// ValidatePath validates a file path abacus writes to, such as the history
// database or the preferences file. A leading "~" is allowed.
func ValidatePath(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("path cannot be empty")
	}
	if strings.ContainsRune(path, 0) {
		return fmt.Errorf("path contains a NUL byte")
	}

	dangerousChars := []string{";", "&", "|", "$", "`", "<", ">", "\n", "\r"}
	for _, char := range dangerousChars {
		if strings.Contains(path, char) {
			return fmt.Errorf("path contains dangerous character: %q", char)
		}
	}

	cleanPath := strings.ToLower(filepath.ToSlash(filepath.Clean(path)))
	for _, restricted := range restrictedPaths {
		if strings.HasPrefix(cleanPath+"/", restricted) {
			return fmt.Errorf("access to restricted path denied: %s", path)
		}
	}

	if strings.HasSuffix(path, "/") || strings.HasSuffix(path, string(filepath.Separator)) {
		return fmt.Errorf("path must name a file, not a directory: %s", path)
	}

	return nil
}
