// Package validation checks template names, output paths and rendered
// markup before they reach the filesystem or the user.
package validation

import (
	"fmt"
	"path/filepath"
	"strings"
)

// MaxTemplateNameLength bounds template names derived from file names.
const MaxTemplateNameLength = 128

// ValidateTemplateName reports whether name can be used by a reference
// marker. Names consist of ASCII letters, digits and underscores.
func ValidateTemplateName(name string) error {
	if name == "" {
		return fmt.Errorf("template name cannot be empty")
	}
	if len(name) > MaxTemplateNameLength {
		return fmt.Errorf("template name is longer than %d characters", MaxTemplateNameLength)
	}

	for i, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
		default:
			return fmt.Errorf("template name %q contains invalid character %q at position %d", name, r, i)
		}
	}

	return nil
}

// ValidateOutputPath validates a file path that rendered output will be
// written to.
func ValidateOutputPath(path string) error {
	if path == "" {
		return fmt.Errorf("path cannot be empty")
	}

	cleanPath := filepath.Clean(path)
	if strings.HasSuffix(path, "/") || strings.HasSuffix(path, string(filepath.Separator)) {
		return fmt.Errorf("path must name a file: %s", path)
	}

	restrictedPaths := []string{
		"/etc/",
		"/proc/",
		"/sys/",
		"/dev/",
		"/boot/",
	}

	cleanPathLower := strings.ToLower(filepath.ToSlash(cleanPath))
	for _, restricted := range restrictedPaths {
		if strings.HasPrefix(cleanPathLower, restricted) {
			return fmt.Errorf("writing to restricted path denied: %s", path)
		}
	}

	dangerousChars := []string{";", "&", "|", "$", "`", "<", ">"}
	for _, char := range dangerousChars {
		if strings.Contains(path, char) {
			return fmt.Errorf("path contains dangerous character: %s", char)
		}
	}

	return nil
}
