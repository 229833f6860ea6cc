package cmd

import (
	"context"
	"io"

	"github.com/conneroisu/snail/internal/config"
	"github.com/conneroisu/snail/internal/errors"
	"github.com/conneroisu/snail/internal/logging"
	"github.com/conneroisu/snail/internal/registry"
	"github.com/conneroisu/snail/internal/renderer"
	"github.com/conneroisu/snail/internal/scanner"
	"github.com/conneroisu/snail/pkg/snail"
)

// app wires the services a command needs from one configuration.
type app struct {
	cfg      *config.Config
	logger   logging.Logger
	logFile  io.Closer
	parser   *snail.Parser
	registry *registry.TemplateRegistry
	scanner  *scanner.TemplateScanner
	engine   *renderer.Engine
}

// loadApp reads the configuration, applies command flag overrides and
// builds the services, logging to stderr or to log.file.
func loadApp(stderr io.Writer, overrides ...func(*config.Config)) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, errors.WrapConfig(err, "failed to load configuration")
	}
	for _, override := range overrides {
		override(cfg)
	}

	logger, logFile, err := newLogger(cfg, stderr)
	if err != nil {
		return nil, err
	}

	a, err := newApp(cfg, logger)
	if err != nil {
		if logFile != nil {
			_ = logFile.Close()
		}
		return nil, err
	}
	a.logFile = logFile
	return a, nil
}

// newLogger builds the logger described by cfg.Log. The returned closer is
// non-nil when records go to a log file.
func newLogger(cfg *config.Config, w io.Writer) (logging.Logger, io.Closer, error) {
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, nil, errors.WrapConfig(err, "invalid log level")
	}

	loggerConfig := &logging.LoggerConfig{
		Level:  level,
		Format: cfg.Log.Format,
		Output: w,
	}
	if cfg.Log.File == "" {
		return logging.NewLogger(loggerConfig), nil, nil
	}

	fileLogger, err := logging.NewFileLogger(loggerConfig, cfg.Log.File)
	if err != nil {
		return nil, nil, errors.WrapIO(err, cfg.Log.File, "failed to open log file")
	}
	fileLogger.Debug(context.Background(), "Logging to file", "path", fileLogger.Path())
	return fileLogger, fileLogger, nil
}

func newApp(cfg *config.Config, logger logging.Logger) (*app, error) {
	parser, err := cfg.Syntax.Parser()
	if err != nil {
		return nil, errors.FromEngineError(err, "", "")
	}

	reg := registry.NewTemplateRegistry()

	return &app{
		cfg:      cfg,
		logger:   logger,
		parser:   parser,
		registry: reg,
		scanner:  scanner.New(reg, scanner.OptionsFromConfig(cfg, parser, logger)),
		engine:   renderer.New(reg, renderer.OptionsFromConfig(cfg, parser, logger)),
	}, nil
}

// scan loads every configured template path. Missing directories are
// logged and skipped so commands still work on partial layouts.
func (a *app) scan(ctx context.Context) []scanner.ScanResult {
	var results []scanner.ScanResult
	for _, path := range a.cfg.Templates.Paths {
		found, err := a.scanner.ScanDirectory(ctx, path)
		if err != nil {
			a.logger.Warn(ctx, err, "Failed to scan template path", "path", path)
			continue
		}
		results = append(results, found...)
	}

	if failed := scanner.Errors(results); len(failed) > 0 {
		a.logger.Warn(ctx, errors.CombineErrors(failed...), "Some templates were not loaded", "failed", len(failed))
	}
	return results
}

func (a *app) Close() error {
	err := a.scanner.Close()
	if a.logFile != nil {
		err = errors.CombineErrors(err, a.logFile.Close())
	}
	return err
}
