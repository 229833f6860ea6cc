// Package internal contains the packages behind the snail CLI. The template
// language itself lives in pkg/snail and performs no I/O; everything here
// connects it to files, configuration and the terminal.
//
// # Package Organization
//
//   - config: Viper backed configuration with defaults and validation
//   - errors: Typed errors, error collection and fix suggestions
//   - logging: Structured logging on log/slog
//   - params: Decoding YAML and JSON documents into template parameters
//   - registry: Named templates, change events and reference analysis
//   - renderer: Rendering registered templates and atomic output writes
//   - scanner: Discovering and parsing template files with a worker pool
//   - validation: Template names, output paths and markup balance
//   - watcher: Debounced file system notifications
//   - version: Build metadata
//
// # Data Flow
//
// The scanner walks the configured template paths and registers each parsed
// file under its template name. The renderer looks templates up in the
// registry and resolves references against a snapshot of it. The watcher
// reports changed files so the scanner can refresh single entries.
package internal
