// Package cmd provides the command-line interface for snail.
//
// # Available Commands
//
//   - render: Render a template with parameters from YAML, JSON or --set
//   - inspect: Show how each line of a template file is classified
//   - list: List discovered templates with their references and parameters
//   - validate: Check templates for parse errors, missing references and cycles
//   - watch: Re-render a template whenever templates or parameters change
//   - init: Write a default .snail.yml and an example templates directory
//   - version: Show build information
//
// # Command Examples
//
//	// Render a page to stdout
//	snail render page -p params.yml
//
//	// Override a parameter and write the result
//	snail render page -p params.yml --set title=Home -o public/index.html
//
//	// Inspect a template file as JSON
//	snail inspect templates/row.html -f json
//
//	// Re-render on every change
//	snail watch page -p params.yml -o public/index.html
//
// # Configuration
//
// Configuration is read from .snail.yml in the working directory, the file
// named by --config or the SNAIL_CONFIG_FILE environment variable.
// Individual keys can be overridden with SNAIL_<SECTION>_<KEY> variables,
// for example SNAIL_RENDER_MAX_DEPTH=16.
package cmd
