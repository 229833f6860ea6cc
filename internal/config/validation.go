package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

// validateConfig validates configuration values for correctness
func validateConfig(config *Config) error {
	if err := validateSyntaxConfig(&config.Syntax); err != nil {
		return fmt.Errorf("syntax config: %w", err)
	}
	if err := validateTemplatesConfig(&config.Templates); err != nil {
		return fmt.Errorf("templates config: %w", err)
	}
	if config.Render.MaxDepth <= 0 {
		return fmt.Errorf("render config: max_depth must be positive, got %d", config.Render.MaxDepth)
	}
	if config.Watch.Debounce < 0 {
		return fmt.Errorf("watch config: debounce must not be negative, got %s", config.Watch.Debounce)
	}
	switch config.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log config: unknown format %q", config.Log.Format)
	}
	return nil
}

// validateSyntaxConfig builds the parser so that every rule the engine
// enforces is reported at load time.
func validateSyntaxConfig(config *SyntaxConfig) error {
	if _, err := config.Parser(); err != nil {
		return err
	}
	return nil
}

func validateTemplatesConfig(config *TemplatesConfig) error {
	if len(config.Paths) == 0 {
		return fmt.Errorf("at least one template path is required")
	}
	for _, path := range config.Paths {
		if err := validatePath(path); err != nil {
			return fmt.Errorf("invalid template path '%s': %w", path, err)
		}
	}
	if len(config.Extensions) == 0 {
		return fmt.Errorf("at least one template extension is required")
	}
	for _, pattern := range config.Exclude {
		if _, err := filepath.Match(pattern, ""); err != nil {
			return fmt.Errorf("invalid exclude pattern '%s': %w", pattern, err)
		}
	}
	switch config.NameCase {
	case NameCasePreserve, NameCaseTitle:
	default:
		return fmt.Errorf("unknown name_case %q (want %q or %q)", config.NameCase, NameCasePreserve, NameCaseTitle)
	}
	return nil
}

// validatePath rejects empty paths, parent traversal and shell metacharacters.
func validatePath(path string) error {
	if path == "" {
		return fmt.Errorf("empty path")
	}

	cleanPath := filepath.Clean(path)
	for _, part := range strings.Split(filepath.ToSlash(cleanPath), "/") {
		if part == ".." {
			return fmt.Errorf("path contains traversal: %s", path)
		}
	}

	dangerousChars := []string{";", "&", "|", "$", "`", "<", ">", "\"", "'"}
	for _, char := range dangerousChars {
		if strings.Contains(cleanPath, char) {
			return fmt.Errorf("path contains dangerous character: %s", char)
		}
	}

	return nil
}
