package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/conneroisu/snail/internal/config"
	"github.com/conneroisu/snail/internal/errors"
	"github.com/conneroisu/snail/internal/renderer"
	"github.com/conneroisu/snail/internal/validation"
	"github.com/conneroisu/snail/pkg/snail"
)

var renderCmd = &cobra.Command{
	Use:     "render [name]",
	Aliases: []string{"r"},
	Short:   "Render a template",
	Long: `Render a discovered template with parameters read from a YAML or JSON
file and --set overrides. References resolve against every template found
in the configured paths.

Examples:
  snail render page -p page.yml                  # Render to stdout
  snail render page -p page.yml -o out/page.html # Write atomically to a file
  snail render row --set cell=[a,b,c]            # Fan a line out over a list
  snail render --source draft.html -p page.yml   # Render a file that is not registered`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRender,
}

var (
	renderParams      *ParamFlags
	renderOutput      string
	renderSource      string
	renderCheckMarkup bool
)

func init() {
	rootCmd.AddCommand(renderCmd)

	renderParams = AddParamFlags(renderCmd)
	renderCmd.Flags().StringVarP(&renderOutput, "output", "o", "", "Write the result to this file instead of stdout")
	renderCmd.Flags().StringVar(&renderSource, "source", "", "Render this template file instead of a registered template")
	renderCmd.Flags().BoolVar(&renderCheckMarkup, "check-markup", false, "Warn about unbalanced tags in the result")
	AddFlagValidation(renderCmd, "source", ValidateFileExists)
}

func runRender(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && renderSource == "" {
		return fmt.Errorf("a template name or --source is required")
	}
	if len(args) == 1 && renderSource != "" {
		return fmt.Errorf("cannot specify both a template name and --source")
	}

	a, err := loadApp(cmd.ErrOrStderr(), func(cfg *config.Config) {
		if renderCheckMarkup {
			cfg.Render.CheckMarkup = true
		}
	})
	if err != nil {
		return err
	}
	defer a.Close()

	p, err := renderParams.Load()
	if err != nil {
		return err
	}

	req := renderRequest{Source: renderSource, Output: renderOutput, Params: p}
	if len(args) == 1 {
		req.Name = args[0]
	}

	return renderTemplate(cmd.Context(), a, cmd.OutOrStdout(), cmd.ErrOrStderr(), req)
}

// renderRequest names a registered template or a source file to render.
type renderRequest struct {
	Name   string
	Source string
	Output string
	Params snail.Params
}

// renderTemplate scans the configured paths and renders req to req.Output,
// or to out when no output file is set.
func renderTemplate(ctx context.Context, a *app, out, errOut io.Writer, req renderRequest) error {
	if ctx == nil {
		ctx = context.Background()
	}
	a.scan(ctx)

	var err error
	if req.Output == "" {
		var result string
		if result, err = renderOnce(ctx, a, req); err == nil {
			_, err = io.WriteString(out, result)
		}
	} else if err = renderToFile(ctx, a, req); err == nil {
		fmt.Fprintf(errOut, "Wrote %s\n", req.Output)
	}
	if err != nil {
		printSuggestions(errOut, a, err)
		return err
	}
	return nil
}

// renderToFile replaces req.Output atomically. The file is untouched when
// rendering fails.
func renderToFile(ctx context.Context, a *app, req renderRequest) error {
	if req.Name != "" {
		return a.engine.RenderToFile(ctx, req.Name, req.Params, req.Output)
	}

	if err := validation.ValidateOutputPath(req.Output); err != nil {
		return errors.NewValidationError(errors.ErrCodeInvalidPath, err.Error()).WithLocation(req.Output, 0)
	}
	result, err := renderOnce(ctx, a, req)
	if err != nil {
		return err
	}
	return renderer.WriteFile(req.Output, result)
}

func renderOnce(ctx context.Context, a *app, req renderRequest) (string, error) {
	if req.Name != "" {
		return a.engine.Render(ctx, req.Name, req.Params)
	}

	text, err := os.ReadFile(req.Source)
	if err != nil {
		return "", errors.WrapIO(err, req.Source, "failed to read template source")
	}
	return a.engine.RenderSource(ctx, string(text), req.Params)
}

// printSuggestions explains how to fix missing templates and parameters.
func printSuggestions(w io.Writer, a *app, err error) {
	var suggestions []errors.ErrorSuggestion
	if se := errors.FindError(err, errors.ErrCodeTemplateNotFound); se != nil {
		name := se.Template
		if p, ok := se.Context["parameter"].(string); ok {
			name = p
		}
		suggestions = errors.TemplateNotFoundSuggestions(name, a.registry.Names(), viper.ConfigFileUsed())
	} else if se := errors.FindError(err, errors.ErrCodeMissingParameter); se != nil {
		if p, ok := se.Context["parameter"].(string); ok {
			suggestions = errors.MissingParameterSuggestions(p)
		}
	}
	if len(suggestions) > 0 {
		fmt.Fprint(w, errors.FormatSuggestions(suggestions))
	}
}
