// Package scanner discovers template files on disk, parses them and keeps
// the template registry in sync with the filesystem.
package scanner

import (
	"context"
	"fmt"
	"hash/crc32"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/conneroisu/snail/internal/config"
	"github.com/conneroisu/snail/internal/errors"
	"github.com/conneroisu/snail/internal/logging"
	"github.com/conneroisu/snail/internal/registry"
	"github.com/conneroisu/snail/internal/validation"
	"github.com/conneroisu/snail/pkg/snail"
)

// ScanStatus describes what happened to a scanned file.
type ScanStatus int

const (
	StatusAdded ScanStatus = iota
	StatusUpdated
	StatusUnchanged
	StatusFailed
)

func (s ScanStatus) String() string {
	switch s {
	case StatusAdded:
		return "added"
	case StatusUpdated:
		return "updated"
	case StatusUnchanged:
		return "unchanged"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ScanResult is the outcome of scanning one file.
type ScanResult struct {
	FilePath string
	Name     string
	Status   ScanStatus
	Err      error
}

// Options configures a TemplateScanner.
type Options struct {
	Parser     *snail.Parser
	Extensions []string
	Exclude    []string
	NameCase   string
	Workers    int
	Logger     logging.Logger
}

// OptionsFromConfig builds scanner options from the templates section.
func OptionsFromConfig(cfg *config.Config, parser *snail.Parser, logger logging.Logger) Options {
	return Options{
		Parser:     parser,
		Extensions: cfg.Templates.Extensions,
		Exclude:    cfg.Templates.Exclude,
		NameCase:   cfg.Templates.NameCase,
		Logger:     logger,
	}
}

// TemplateScanner discovers and parses template files.
//
// Files are walked recursively, hidden entries and excluded globs are
// skipped, and each accepted file is read, CRC32 hashed and parsed by a
// pool of workers. Files whose hash matches the registered template are
// not parsed again.
type TemplateScanner struct {
	registry   *registry.TemplateRegistry
	parser     *snail.Parser
	extensions map[string]bool
	exclude    []string
	nameCase   string
	logger     logging.Logger
	workerPool *WorkerPool
}

// New creates a scanner that registers templates into reg.
func New(reg *registry.TemplateRegistry, opts Options) *TemplateScanner {
	if opts.Parser == nil {
		opts.Parser = snail.NewDefaultParser()
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNopLogger()
	}
	if len(opts.Extensions) == 0 {
		opts.Extensions = config.DefaultConfig().Templates.Extensions
	}

	workerCount := opts.Workers
	if workerCount <= 0 {
		workerCount = min(runtime.NumCPU(), 8)
	}

	s := &TemplateScanner{
		registry:   reg,
		parser:     opts.Parser,
		extensions: make(map[string]bool, len(opts.Extensions)),
		exclude:    opts.Exclude,
		nameCase:   opts.NameCase,
		logger:     opts.Logger.WithComponent("scanner"),
	}
	for _, ext := range opts.Extensions {
		s.extensions[strings.ToLower(ext)] = true
	}
	s.workerPool = NewWorkerPool(workerCount, s.scanFile)

	return s
}

// GetRegistry returns the template registry
func (s *TemplateScanner) GetRegistry() *registry.TemplateRegistry {
	return s.registry
}

// Close stops the worker pool.
func (s *TemplateScanner) Close() error {
	s.workerPool.Stop()
	return nil
}

// Accepts reports whether path has a template extension and is not
// hidden or excluded.
func (s *TemplateScanner) Accepts(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return false
	}
	if !s.extensions[strings.ToLower(filepath.Ext(base))] {
		return false
	}
	return !s.excluded(path)
}

func (s *TemplateScanner) excluded(path string) bool {
	base := filepath.Base(path)
	slashPath := filepath.ToSlash(path)
	for _, pattern := range s.exclude {
		if ok, _ := filepath.Match(pattern, base); ok {
			return true
		}
		if ok, _ := filepath.Match(pattern, slashPath); ok {
			return true
		}
	}
	return false
}

// ScanPaths scans every path, which may be a directory or a single file.
// Per-file failures are reported in the results; the error is only set
// when a path cannot be walked at all.
func (s *TemplateScanner) ScanPaths(ctx context.Context, paths []string) ([]ScanResult, error) {
	var files []string
	for _, p := range paths {
		found, err := s.collect(p)
		if err != nil {
			return nil, err
		}
		files = append(files, found...)
	}

	return s.scanBatch(ctx, files), nil
}

// ScanDirectory scans one directory tree.
func (s *TemplateScanner) ScanDirectory(ctx context.Context, dir string) ([]ScanResult, error) {
	return s.ScanPaths(ctx, []string{dir})
}

// ScanFile scans a single file regardless of its extension.
func (s *TemplateScanner) ScanFile(ctx context.Context, path string) ScanResult {
	return s.scanFile(ctx, path)
}

// RemoveFile unregisters the template loaded from path, returning its name.
func (s *TemplateScanner) RemoveFile(path string) (string, bool) {
	info, ok := s.registry.FindByFile(path)
	if !ok {
		return "", false
	}
	s.registry.Remove(info.Name)
	s.logger.Info(context.Background(), "Template removed", "template", info.Name, "file", path)
	return info.Name, true
}

func (s *TemplateScanner) collect(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, errors.WrapIO(err, root, "cannot scan template path")
	}
	if !info.IsDir() {
		return []string{root}, nil
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path != root && s.excluded(path) {
				return filepath.SkipDir
			}
			return nil
		}
		if s.Accepts(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, errors.WrapIO(err, root, "failed to walk template directory")
	}

	return files, nil
}

func (s *TemplateScanner) scanBatch(ctx context.Context, files []string) []ScanResult {
	results := make([]ScanResult, 0, len(files))
	if len(files) == 0 {
		return results
	}

	perf := logging.StartOperation(s.logger, "scan")
	files, results = s.dedupe(ctx, files, results)
	resultChan := make(chan ScanResult, len(files))
	submitted := 0
	for _, file := range files {
		if s.workerPool.Submit(ctx, file, resultChan) {
			submitted++
		} else {
			results = append(results, s.scanFile(ctx, file))
		}
	}
	for i := 0; i < submitted; i++ {
		results = append(results, <-resultChan)
	}

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	perf.End(ctx, "files", len(results), "failed", failed)

	return results
}

// dedupe sorts files and keeps the first path for each template name.
// The remaining paths are reported as failed results.
func (s *TemplateScanner) dedupe(ctx context.Context, files []string, results []ScanResult) ([]string, []ScanResult) {
	sorted := append([]string(nil), files...)
	sort.Strings(sorted)

	owner := make(map[string]string, len(sorted))
	unique := sorted[:0]
	for _, file := range sorted {
		name := TemplateName(file, s.nameCase)
		first, seen := owner[name]
		if !seen {
			owner[name] = file
			unique = append(unique, file)
			continue
		}
		if first == file {
			continue
		}
		err := errors.NewValidationError(errors.ErrCodeDuplicateName,
			fmt.Sprintf("template name %q is already provided by %s", name, first)).
			WithTemplate(name).WithLocation(file, 0)
		s.logger.Warn(ctx, err, "Duplicate template name", "template", name, "file", file, "kept", first)
		results = append(results, ScanResult{FilePath: file, Name: name, Status: StatusFailed, Err: err})
	}
	return unique, results
}

func (s *TemplateScanner) scanFile(ctx context.Context, path string) ScanResult {
	name := TemplateName(path, s.nameCase)
	result := ScanResult{FilePath: path, Name: name, Status: StatusFailed}

	if err := ctx.Err(); err != nil {
		result.Err = err
		return result
	}

	if err := validation.ValidateTemplateName(name); err != nil {
		result.Err = errors.NewValidationError(errors.ErrCodeInvalidName, err.Error()).
			WithTemplate(name).WithLocation(path, 0)
		s.logger.Warn(ctx, result.Err, "Skipping template with invalid name", "file", path)
		return result
	}

	stat, err := os.Stat(path)
	if err != nil {
		result.Err = errors.WrapIO(err, path, "failed to stat template")
		return result
	}
	content, err := os.ReadFile(path)
	if err != nil {
		result.Err = errors.WrapIO(err, path, "failed to read template")
		return result
	}

	hash := fmt.Sprintf("%08x", crc32.ChecksumIEEE(content))
	existing, exists := s.registry.Get(name)
	if exists && existing.Hash == hash && existing.FilePath == path {
		result.Status = StatusUnchanged
		return result
	}
	if exists && existing.FilePath != path {
		s.logger.Warn(ctx, nil, "Template name registered from another file, replacing",
			"template", name, "previous", existing.FilePath, "file", path)
	}

	tmpl, err := s.parser.Parse(string(content))
	if err != nil {
		result.Err = errors.FromEngineError(err, name, path)
		s.logger.Warn(ctx, result.Err, "Failed to parse template", "file", path)
		return result
	}

	info := registry.NewTemplateInfo(name, path, tmpl)
	info.Hash = hash
	info.LastMod = stat.ModTime()
	s.registry.Register(info)

	result.Status = StatusAdded
	if exists {
		result.Status = StatusUpdated
	}
	s.logger.Debug(ctx, "Template registered", "template", name, "file", path, "status", result.Status.String())

	return result
}

// Errors returns the errors of failed results.
func Errors(results []ScanResult) []error {
	var errs []error
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, r.Err)
		}
	}
	return errs
}
