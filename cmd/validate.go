package cmd

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/conneroisu/snail/internal/errors"
	"github.com/conneroisu/snail/internal/registry"
)

var validateCmd = &cobra.Command{
	Use:     "validate [name...]",
	Aliases: []string{"v"},
	Short:   "Check templates for errors",
	Long: `Parse every template in the configured paths and report problems:
files that cannot be loaded, references to templates that do not exist and
circular references. Name templates to limit the reference checks to them.

The command exits with a non-zero status when any error is found. Invalid
template file names are reported as warnings.

Examples:
  snail validate              # Check everything
  snail validate page row     # Check references of page and row only
  snail validate -f json      # Machine readable report`,
	RunE: runValidate,
}

var validateFormat *FormatFlag

func init() {
	rootCmd.AddCommand(validateCmd)

	validateFormat = AddFormatFlag(validateCmd, "text", "json")
}

type validationProblem struct {
	Template string `json:"template,omitempty"`
	File     string `json:"file,omitempty"`
	Line     int    `json:"line,omitempty"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

type validationReport struct {
	Templates int                 `json:"templates"`
	Errors    int                 `json:"errors"`
	Warnings  int                 `json:"warnings"`
	Problems  []validationProblem `json:"problems"`
}

func runValidate(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close()

	report, err := validateTemplates(cmd.Context(), a, args)
	if err != nil {
		return err
	}
	if err := writeReport(cmd.OutOrStdout(), report, validateFormat.Value); err != nil {
		return err
	}
	if report.Errors > 0 {
		return fmt.Errorf("validation failed with %d error(s)", report.Errors)
	}
	return nil
}

// validateTemplates scans the configured paths and collects load
// failures, missing references and reference cycles.
func validateTemplates(ctx context.Context, a *app, names []string) (*validationReport, error) {
	collector := errors.NewErrorCollector()

	for _, result := range a.scan(ctx) {
		collector.AddError(result.Err)
	}

	for _, name := range names {
		if _, ok := a.registry.Get(name); !ok {
			collector.AddError(&errors.SnailError{
				Type:     errors.ErrorTypeRender,
				Code:     errors.ErrCodeTemplateNotFound,
				Message:  notFoundMessage(name, a.registry.Names()),
				Template: name,
			})
		}
	}

	analyzer := registry.NewDependencyAnalyzer(a.registry)
	for _, missing := range analyzer.MissingReferences(names...) {
		file := ""
		if info, ok := a.registry.Get(missing.From); ok {
			file = info.FilePath
		}
		collector.Add(errors.TemplateError{
			Template: missing.From,
			File:     file,
			Message:  "references " + notFoundMessage(missing.Name, a.registry.Names()),
			Severity: errors.ErrorSeverityError,
		})
	}

	for _, cycle := range analyzer.DetectCircularDependencies() {
		info, _ := a.registry.Get(cycle[0])
		te := errors.TemplateError{
			Template: cycle[0],
			Message:  "circular reference: " + strings.Join(cycle, " > "),
			Severity: errors.ErrorSeverityError,
		}
		if info != nil {
			te.File = info.FilePath
		}
		collector.Add(te)
	}

	report := &validationReport{Templates: a.registry.Count(), Problems: []validationProblem{}}
	for _, file := range problemFiles(collector) {
		for _, te := range collector.GetErrorsByFile(file) {
			report.Problems = append(report.Problems, validationProblem{
				Template: te.Template,
				File:     te.File,
				Line:     te.Line,
				Severity: te.Severity.String(),
				Message:  te.Message,
			})
			if te.Severity >= errors.ErrorSeverityError {
				report.Errors++
			} else {
				report.Warnings++
			}
		}
	}
	for _, err := range collector.GetAllErrors()[len(report.Problems):] {
		report.Problems = append(report.Problems, validationProblem{Severity: "error", Message: err.Error()})
		report.Errors++
	}

	return report, nil
}

// problemFiles lists the distinct files of the collected template errors.
// Problems without a file come first.
func problemFiles(collector *errors.ErrorCollector) []string {
	var files []string
	seen := make(map[string]bool)
	for _, te := range collector.GetErrors() {
		if !seen[te.File] {
			seen[te.File] = true
			files = append(files, te.File)
		}
	}
	sort.Strings(files)
	return files
}

func notFoundMessage(name string, available []string) string {
	msg := fmt.Sprintf("unknown template %q", name)
	if similar := errors.SimilarNames(name, available, 3); len(similar) > 0 {
		msg += fmt.Sprintf(" (did you mean %s?)", strings.Join(similar, ", "))
	}
	return msg
}

func writeReport(w io.Writer, report *validationReport, format string) error {
	if strings.EqualFold(format, "json") {
		return writeJSON(w, report)
	}

	file := ""
	for _, p := range report.Problems {
		if p.File != "" && p.File != file {
			file = p.File
			fmt.Fprintf(w, "%s\n", file)
		}
		location := p.Template
		if p.File != "" {
			location = filepath.Base(p.File)
		}
		if p.Line > 0 {
			location = fmt.Sprintf("%s:%d", location, p.Line)
		}
		indent := ""
		if p.File != "" {
			indent = "  "
		}
		if location == "" {
			fmt.Fprintf(w, "%s%s: %s\n", indent, p.Severity, p.Message)
		} else {
			fmt.Fprintf(w, "%s%s: %s: %s\n", indent, location, p.Severity, p.Message)
		}
	}
	fmt.Fprintf(w, "%d template(s) checked, %d error(s), %d warning(s)\n",
		report.Templates, report.Errors, report.Warnings)
	return nil
}
