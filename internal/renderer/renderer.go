// Package renderer renders named templates from the template registry.
//
// The engine adds what the core template package leaves out on purpose:
// lookup by name, logging and timing, optional markup checking of the
// result and atomic writes of rendered output to disk.
package renderer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"

	"github.com/conneroisu/snail/internal/config"
	"github.com/conneroisu/snail/internal/errors"
	"github.com/conneroisu/snail/internal/logging"
	"github.com/conneroisu/snail/internal/registry"
	"github.com/conneroisu/snail/internal/validation"
	"github.com/conneroisu/snail/pkg/snail"
)

// Options configures an Engine.
type Options struct {
	Parser      *snail.Parser
	MaxDepth    int
	CheckMarkup bool
	Logger      logging.Logger
}

// OptionsFromConfig builds engine options from the render section.
func OptionsFromConfig(cfg *config.Config, parser *snail.Parser, logger logging.Logger) Options {
	return Options{
		Parser:      parser,
		MaxDepth:    cfg.Render.MaxDepth,
		CheckMarkup: cfg.Render.CheckMarkup,
		Logger:      logger,
	}
}

// Engine renders templates held by a TemplateRegistry.
type Engine struct {
	registry    *registry.TemplateRegistry
	parser      *snail.Parser
	maxDepth    int
	checkMarkup bool
	logger      logging.Logger
}

// New creates an engine over reg.
func New(reg *registry.TemplateRegistry, opts Options) *Engine {
	if opts.Parser == nil {
		opts.Parser = snail.NewDefaultParser()
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = snail.DefaultMaxDepth
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNopLogger()
	}

	return &Engine{
		registry:    reg,
		parser:      opts.Parser,
		maxDepth:    opts.MaxDepth,
		checkMarkup: opts.CheckMarkup,
		logger:      opts.Logger.WithComponent("renderer"),
	}
}

// Render renders the template registered as name with params. References
// resolve against a snapshot of the registry taken at call time.
func (e *Engine) Render(ctx context.Context, name string, params snail.Params) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	info, ok := e.registry.Get(name)
	if !ok {
		return "", e.notFound(name)
	}

	return e.render(ctx, info.Template, name, info.FilePath, params)
}

// RenderSource parses text with the engine's parser and renders it with
// references resolved against the registry.
func (e *Engine) RenderSource(ctx context.Context, text string, params snail.Params) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	tmpl, err := e.parser.Parse(text)
	if err != nil {
		return "", errors.FromEngineError(err, "", "")
	}

	return e.render(ctx, tmpl, "", "", params)
}

// RenderToFile renders name and atomically replaces path with the result.
// The file is left untouched when rendering fails.
func (e *Engine) RenderToFile(ctx context.Context, name string, params snail.Params, path string) error {
	if err := validation.ValidateOutputPath(path); err != nil {
		return errors.NewValidationError(errors.ErrCodeInvalidPath, err.Error()).WithLocation(path, 0)
	}

	out, err := e.Render(ctx, name, params)
	if err != nil {
		return err
	}

	return WriteFile(path, out)
}

// WriteFile atomically writes content to path, creating parent directories.
func WriteFile(path, content string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.WrapIO(err, dir, "failed to create output directory")
		}
	}
	if err := atomic.WriteFile(path, strings.NewReader(content)); err != nil {
		return errors.WrapIO(err, path, "failed to write rendered output")
	}
	return nil
}

func (e *Engine) render(ctx context.Context, tmpl *snail.Template, name, file string, params snail.Params) (string, error) {
	logger := e.logger
	if name != "" {
		logger = logger.With("template", name)
	}
	perf := logging.StartOperation(logger, "render")

	out, err := tmpl.Render(params, e.registry.Snapshot(), snail.WithMaxDepth(e.maxDepth))
	if err != nil {
		se := errors.FromEngineError(err, name, file)
		perf.EndWithError(ctx, se)
		return "", se
	}
	perf.End(ctx, "bytes", len(out))

	if e.checkMarkup {
		for _, issue := range validation.CheckMarkup(out) {
			logger.Warn(ctx, nil, "Rendered markup is unbalanced",
				"line", issue.Line, "tag", issue.Tag, "issue", issue.Message)
		}
	}

	return out, nil
}

func (e *Engine) notFound(name string) error {
	se := &errors.SnailError{
		Type:        errors.ErrorTypeRender,
		Code:        errors.ErrCodeTemplateNotFound,
		Message:     fmt.Sprintf("template %q is not registered", name),
		Template:    name,
		Recoverable: true,
	}
	if similar := errors.SimilarNames(name, e.registry.Names(), 3); len(similar) > 0 {
		se.WithContext("did_you_mean", similar)
	}
	return se
}
