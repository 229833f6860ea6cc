package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/conneroisu/snail/internal/errors"
	"github.com/conneroisu/snail/internal/registry"
	"github.com/conneroisu/snail/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:     "watch <name>",
	Aliases: []string{"w"},
	Short:   "Re-render a template whenever templates or parameters change",
	Long: `Render a template, then watch the configured template paths and the
parameters file and render again after every change. Changes arriving close
together are grouped using the watch.debounce setting.

Only changes to the parameters, the template or templates it references
trigger a render. Render failures are logged and the previous output is
kept.

Examples:
  snail watch page -p page.yml -o public/index.html
  snail watch page -p page.yml                       # Print each render`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

var (
	watchParams *ParamFlags
	watchOutput string
)

func init() {
	rootCmd.AddCommand(watchCmd)

	watchParams = AddParamFlags(watchCmd)
	watchCmd.Flags().StringVarP(&watchOutput, "output", "o", "", "Write each render to this file instead of stdout")
}

func runWatch(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	session := newWatchSession(a, watchParams, renderRequest{Name: args[0], Output: watchOutput},
		cmd.OutOrStdout(), cmd.ErrOrStderr())
	defer session.Close()
	if err := session.reloadParams(); err != nil {
		return err
	}

	a.scan(ctx)
	session.drainRegistryEvents(ctx)
	if err := session.render(ctx); err != nil && !errors.IsRecoverable(err) {
		return err
	}

	fw, err := session.newWatcher()
	if err != nil {
		return err
	}
	defer fw.Stop()

	if err := fw.Start(ctx); err != nil {
		return fmt.Errorf("failed to start file watcher: %w", err)
	}
	a.logger.Info(ctx, "Watching for changes", "template", args[0], "directories", len(fw.WatchList()))
	fmt.Fprintln(session.errOut, "Watching for changes. Press Ctrl+C to stop.")

	<-ctx.Done()
	return nil
}

// watchSession keeps one template rendered while its inputs change.
type watchSession struct {
	app    *app
	flags  *ParamFlags
	req    renderRequest
	out    io.Writer
	errOut io.Writer
	events <-chan registry.TemplateEvent
}

// newWatchSession subscribes to registry changes. Close releases the
// subscription.
func newWatchSession(a *app, flags *ParamFlags, req renderRequest, out, errOut io.Writer) *watchSession {
	return &watchSession{
		app:    a,
		flags:  flags,
		req:    req,
		out:    out,
		errOut: errOut,
		events: a.registry.Watch(),
	}
}

func (s *watchSession) Close() {
	if s.events != nil {
		s.app.registry.UnWatch(s.events)
		s.events = nil
	}
}

func (s *watchSession) newWatcher() (*watcher.FileWatcher, error) {
	fw, err := watcher.NewFileWatcher(s.app.cfg.Watch.Debounce, s.app.logger)
	if err != nil {
		return nil, err
	}

	isTemplate := watcher.ExtensionFilter(s.app.cfg.Templates.Extensions...)
	accept := func(path string) bool {
		return isTemplate(path) && s.underTemplatePath(path)
	}
	if s.flags.File != "" {
		accept = watcher.AnyFilter(accept, watcher.FilesFilter(s.flags.File))
		if err := fw.AddPath(s.flags.File); err != nil {
			fw.Stop()
			return nil, err
		}
	}
	fw.AddFilter(watcher.NoHiddenFilter)
	fw.AddFilter(accept)

	for _, path := range s.app.cfg.Templates.Paths {
		if _, err := os.Stat(path); err != nil {
			s.app.logger.Warn(context.Background(), err, "Template path not watched", "path", path)
			continue
		}
		if err := fw.AddRecursive(path); err != nil {
			fw.Stop()
			return nil, fmt.Errorf("failed to watch %s: %w", path, err)
		}
	}

	fw.AddHandler(s.handle)
	return fw, nil
}

func (s *watchSession) reloadParams() error {
	p, err := s.flags.Load()
	if err != nil {
		return err
	}
	s.req.Params = p
	return nil
}

// handle applies a batch of changes to the registry and parameters, then
// renders once if the parameters or a template the target uses changed.
// Failures that later changes cannot fix are returned.
func (s *watchSession) handle(ctx context.Context, events []watcher.ChangeEvent) error {
	problems := errors.NewErrorCollector()
	paramsChanged := false

	for _, event := range events {
		s.app.logger.Debug(ctx, "File changed", "path", event.Path, "type", event.Type.String())

		if s.isParamsFile(event.Path) {
			if err := s.reloadParams(); err != nil {
				problems.AddError(err)
				s.app.logger.Warn(ctx, err, "Keeping previous parameters")
				continue
			}
			paramsChanged = true
			continue
		}

		switch event.Type {
		case watcher.EventTypeDeleted, watcher.EventTypeRenamed:
			if _, err := os.Stat(event.Path); err == nil {
				problems.AddError(s.app.scanner.ScanFile(ctx, event.Path).Err)
			} else {
				s.app.scanner.RemoveFile(event.Path)
			}
		default:
			result := s.app.scanner.ScanFile(ctx, event.Path)
			if errors.HasErrorCode(result.Err, errors.ErrCodeFileNotFound) {
				// Gone again before the batch was handled.
				s.app.scanner.RemoveFile(event.Path)
				continue
			}
			problems.AddError(result.Err)
		}
	}

	if problems.Count() > 0 {
		fmt.Fprint(s.errOut, problems.Summary())
	}

	if !s.drainRegistryEvents(ctx) && !paramsChanged {
		s.app.logger.Debug(ctx, "Change does not affect template", "template", s.req.Name)
		return nil
	}
	if err := s.render(ctx); err != nil && !errors.IsRecoverable(err) {
		return err
	}
	return nil
}

// drainRegistryEvents logs the pending registry events and reports whether
// any of them touches the target template or a template it references.
// A full buffer may have dropped events, so it also counts as affecting.
func (s *watchSession) drainRegistryEvents(ctx context.Context) bool {
	if s.events == nil {
		return true
	}

	affected := len(s.events) == cap(s.events)
	for {
		select {
		case event, ok := <-s.events:
			if !ok {
				return true
			}
			s.app.logger.Info(ctx, "Template "+event.Type.String(),
				"template", event.Template.Name, "file", event.Template.FilePath)
			if s.affects(event.Template.Name) {
				affected = true
			}
		default:
			return affected
		}
	}
}

// affects reports whether the target template is name or reaches name
// through references.
func (s *watchSession) affects(name string) bool {
	analyzer := registry.NewDependencyAnalyzer(s.app.registry)
	seen := map[string]bool{name: true}
	queue := []string{name}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if current == s.req.Name {
			return true
		}
		for _, dependent := range analyzer.GetDependents(current) {
			if !seen[dependent.Name] {
				seen[dependent.Name] = true
				queue = append(queue, dependent.Name)
			}
		}
	}
	return false
}

// underTemplatePath reports whether path lies inside a configured template path.
func (s *watchSession) underTemplatePath(path string) bool {
	for _, root := range s.app.cfg.Templates.Paths {
		rel, err := filepath.Rel(filepath.Clean(root), filepath.Clean(path))
		if err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func (s *watchSession) isParamsFile(path string) bool {
	if s.flags.File == "" {
		return false
	}
	return filepath.Clean(path) == filepath.Clean(s.flags.File)
}

// render writes the current result. Failures are reported and the
// previous output is kept.
func (s *watchSession) render(ctx context.Context) error {
	logger := s.app.logger.With("template", s.req.Name)

	if s.req.Output != "" {
		if err := renderToFile(ctx, s.app, s.req); err != nil {
			errors.NewErrorHandler(logger).Handle(ctx, err)
			return err
		}
		logger.Info(ctx, "Rendered", "output", s.req.Output)
		return nil
	}

	result, err := renderOnce(ctx, s.app, s.req)
	if err != nil {
		errors.NewErrorHandler(logger).Handle(ctx, err)
		return err
	}
	fmt.Fprint(s.out, result)
	return nil
}
