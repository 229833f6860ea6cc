package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/conneroisu/snail/internal/errors"
	"github.com/conneroisu/snail/pkg/snail"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "Show how each line of a template file is classified",
	Long: `Parse a template file and print every line with its classification:
raw text, a line with inline parameters, or a reference to another template.

Examples:
  snail inspect templates/row.html          # Table view
  snail inspect templates/row.html -f json  # Machine readable`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

var inspectFormat *FormatFlag

func init() {
	rootCmd.AddCommand(inspectCmd)

	inspectFormat = AddFormatFlag(inspectCmd, "table", "json", "yaml")
}

type inspectedToken struct {
	Literal   string `json:"literal,omitempty" yaml:"literal,omitempty"`
	Parameter string `json:"parameter,omitempty" yaml:"parameter,omitempty"`
	Optional  bool   `json:"optional,omitempty" yaml:"optional,omitempty"`
}

type inspectedLine struct {
	Line      int              `json:"line" yaml:"line"`
	Kind      string           `json:"kind" yaml:"kind"`
	Text      string           `json:"text,omitempty" yaml:"text,omitempty"`
	Tokens    []inspectedToken `json:"tokens,omitempty" yaml:"tokens,omitempty"`
	Reference string           `json:"reference,omitempty" yaml:"reference,omitempty"`
	Optional  bool             `json:"optional,omitempty" yaml:"optional,omitempty"`
	Left      string           `json:"left,omitempty" yaml:"left,omitempty"`
	Right     string           `json:"right,omitempty" yaml:"right,omitempty"`
}

func runInspect(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close()

	return inspectFile(cmd.OutOrStdout(), a.parser, args[0], inspectFormat.Value)
}

func inspectFile(w io.Writer, parser *snail.Parser, path, format string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return errors.WrapIO(err, path, "failed to read template")
	}

	tmpl, err := parser.Parse(string(content))
	if err != nil {
		return errors.FromEngineError(err, "", path)
	}

	lines := describeLines(tmpl)
	switch strings.ToLower(format) {
	case "json":
		return writeJSON(w, lines)
	case "yaml":
		return writeYAML(w, lines)
	default:
		return inspectTable(w, lines)
	}
}

func describeLines(tmpl *snail.Template) []inspectedLine {
	lines := make([]inspectedLine, 0, tmpl.Len())
	for i, line := range tmpl.Lines() {
		out := inspectedLine{Line: i + 1, Kind: line.Kind().String()}
		switch l := line.(type) {
		case snail.RawLine:
			out.Text = l.Text
		case snail.ParametersLine:
			for _, tok := range l.Tokens {
				if tok.Kind == snail.TokenParameter {
					out.Tokens = append(out.Tokens, inspectedToken{Parameter: tok.Name, Optional: tok.Optional})
				} else if tok.Text != "" {
					out.Tokens = append(out.Tokens, inspectedToken{Literal: tok.Text})
				}
			}
		case snail.ReferenceLine:
			out.Reference = l.Name
			out.Optional = l.Optional
			out.Left = l.Left
			out.Right = l.Right
		}
		lines = append(lines, out)
	}
	return lines
}

func inspectTable(w io.Writer, lines []inspectedLine) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "LINE\tKIND\tDETAIL")
	for _, l := range lines {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", l.Line, l.Kind, lineDetail(l))
	}
	return tw.Flush()
}

func lineDetail(l inspectedLine) string {
	switch l.Kind {
	case "parameters":
		parts := make([]string, 0, len(l.Tokens))
		for _, tok := range l.Tokens {
			switch {
			case tok.Parameter != "" && tok.Optional:
				parts = append(parts, "{"+tok.Parameter+"?}")
			case tok.Parameter != "":
				parts = append(parts, "{"+tok.Parameter+"}")
			default:
				parts = append(parts, fmt.Sprintf("%q", tok.Literal))
			}
		}
		return strings.Join(parts, " ")
	case "reference":
		ref := "@" + l.Reference
		if l.Optional {
			ref += "?"
		}
		return fmt.Sprintf("%q %s %q", l.Left, ref, l.Right)
	default:
		return fmt.Sprintf("%q", l.Text)
	}
}
