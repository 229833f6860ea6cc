package scanner

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/snail/internal/config"
	"github.com/conneroisu/snail/internal/errors"
	"github.com/conneroisu/snail/internal/registry"
	"github.com/conneroisu/snail/pkg/snail"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func newTestScanner(t *testing.T, opts Options) (*TemplateScanner, *registry.TemplateRegistry) {
	t.Helper()
	reg := registry.NewTemplateRegistry()
	s := New(reg, opts)
	t.Cleanup(func() { _ = s.Close() })
	return s, reg
}

func TestTemplateName(t *testing.T) {
	tests := []struct {
		path     string
		nameCase string
		expected string
	}{
		{"templates/row.html", config.NameCasePreserve, "row"},
		{"templates/Row.snail", config.NameCasePreserve, "Row"},
		{"templates/table_row.html", config.NameCasePreserve, "table_row"},
		{"row.html", config.NameCaseTitle, "Row"},
		{"table-row.html", config.NameCaseTitle, "TableRow"},
		{"table_row.tmpl", config.NameCaseTitle, "TableRow"},
		{"HTMLHead.html", config.NameCaseTitle, "HTMLHead"},
		{"page.en.html", config.NameCaseTitle, "PageEn"},
		{"noext", "", "noext"},
	}

	for _, tt := range tests {
		t.Run(tt.path+"/"+tt.nameCase, func(t *testing.T) {
			assert.Equal(t, tt.expected, TemplateName(tt.path, tt.nameCase))
		})
	}
}

func TestAccepts(t *testing.T) {
	s, _ := newTestScanner(t, Options{
		Extensions: []string{".html", ".snail"},
		Exclude:    []string{"*.bak.html", "drafts/*"},
	})

	assert.True(t, s.Accepts("templates/row.html"))
	assert.True(t, s.Accepts("templates/ROW.HTML"))
	assert.True(t, s.Accepts("row.snail"))
	assert.False(t, s.Accepts("row.txt"))
	assert.False(t, s.Accepts("templates/.hidden.html"))
	assert.False(t, s.Accepts("templates/row.bak.html"))
	assert.False(t, s.Accepts("drafts/row.html"))
}

func TestScanDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "page.html"), "<h1><!-- (param)title --></h1>\n<!-- (ref)row -->")
	writeFile(t, filepath.Join(dir, "nested", "row.html"), "<tr><!-- (param)cell --></tr>")
	writeFile(t, filepath.Join(dir, "notes.txt"), "ignored")
	writeFile(t, filepath.Join(dir, ".git", "hidden.html"), "ignored")
	writeFile(t, filepath.Join(dir, "vendor", "lib.html"), "ignored")

	s, reg := newTestScanner(t, Options{Exclude: []string{"vendor"}, Workers: 2})

	results, err := s.ScanDirectory(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Empty(t, Errors(results))

	assert.Equal(t, []string{"page", "row"}, reg.Names())

	page, ok := reg.Get("page")
	require.True(t, ok)
	assert.Equal(t, []string{"row"}, page.References)
	assert.Len(t, page.Hash, 8)
	assert.Equal(t, filepath.Join(dir, "page.html"), page.FilePath)

	out, err := page.Template.Render(snail.Params{
		"title": snail.Scalar("T"),
		"row":   snail.SubParameters{"cell": snail.ValueList{"a", "b"}},
	}, reg.Snapshot())
	require.NoError(t, err)
	assert.Equal(t, "<h1>T</h1>\n<tr>a</tr>\n<tr>b</tr>\n", out)
}

func TestScanSkipsUnchanged(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "row.html")
	writeFile(t, path, "<tr></tr>")

	s, reg := newTestScanner(t, Options{})
	ctx := context.Background()

	first := s.ScanFile(ctx, path)
	require.NoError(t, first.Err)
	assert.Equal(t, StatusAdded, first.Status)

	second := s.ScanFile(ctx, path)
	assert.Equal(t, StatusUnchanged, second.Status)

	writeFile(t, path, "<tr><td></td></tr>")
	third := s.ScanFile(ctx, path)
	assert.Equal(t, StatusUpdated, third.Status)

	info, _ := reg.Get("row")
	assert.Equal(t, 1, info.Template.Len())
	assert.Equal(t, snail.RawLine{Text: "<tr><td></td></tr>"}, info.Template.Lines()[0])
}

func TestScanManyFilesUsesPool(t *testing.T) {
	dir := t.TempDir()
	var want []string
	for _, name := range []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"} {
		writeFile(t, filepath.Join(dir, name+".html"), name)
		want = append(want, name)
	}

	s, reg := newTestScanner(t, Options{Workers: 3})
	results, err := s.ScanPaths(context.Background(), []string{dir})
	require.NoError(t, err)

	var names []string
	for _, r := range results {
		assert.Equal(t, StatusAdded, r.Status)
		names = append(names, r.Name)
	}
	sort.Strings(names)
	assert.Equal(t, want, names)
	assert.Equal(t, 10, reg.Count())
}

func TestScanErrors(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "bad-name.html"), "x")

	s, reg := newTestScanner(t, Options{})

	results, err := s.ScanDirectory(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, StatusFailed, results[0].Status)
	assert.True(t, errors.HasErrorCode(results[0].Err, errors.ErrCodeInvalidName))
	assert.Equal(t, 0, reg.Count())

	_, err = s.ScanPaths(context.Background(), []string{filepath.Join(dir, "missing")})
	require.Error(t, err)
	assert.True(t, errors.HasErrorCode(err, errors.ErrCodeFileNotFound))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := s.ScanFile(ctx, filepath.Join(dir, "bad-name.html"))
	assert.ErrorIs(t, res.Err, context.Canceled)
}

func TestScanDuplicateNames(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "a", "row.html")
	second := filepath.Join(dir, "b", "row.html")
	writeFile(t, first, "first")
	writeFile(t, second, "second")

	for i := 0; i < 5; i++ {
		s, reg := newTestScanner(t, Options{Workers: 4})
		results, err := s.ScanPaths(context.Background(), []string{dir, first})
		require.NoError(t, err)
		require.Len(t, results, 2)

		info, ok := reg.Get("row")
		require.True(t, ok)
		assert.Equal(t, first, info.FilePath)
		assert.Equal(t, snail.RawLine{Text: "first"}, info.Template.Lines()[0])

		failed := Errors(results)
		require.Len(t, failed, 1)
		assert.True(t, errors.HasErrorCode(failed[0], errors.ErrCodeDuplicateName))
		for _, r := range results {
			if r.Err != nil {
				assert.Equal(t, second, r.FilePath)
				assert.Equal(t, StatusFailed, r.Status)
			}
		}
	}
}

func TestScanTitleCase(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "table-row.html"), "x")

	s, reg := newTestScanner(t, Options{NameCase: config.NameCaseTitle})
	_, err := s.ScanDirectory(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, []string{"TableRow"}, reg.Names())
}

func TestRemoveFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "row.html")
	writeFile(t, path, "x")

	s, reg := newTestScanner(t, Options{})
	require.NoError(t, s.ScanFile(context.Background(), path).Err)

	name, ok := s.RemoveFile(path)
	assert.True(t, ok)
	assert.Equal(t, "row", name)
	assert.Equal(t, 0, reg.Count())

	_, ok = s.RemoveFile(path)
	assert.False(t, ok)
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Templates.NameCase = config.NameCaseTitle

	opts := OptionsFromConfig(cfg, snail.NewDefaultParser(), nil)
	assert.Equal(t, cfg.Templates.Extensions, opts.Extensions)
	assert.Equal(t, config.NameCaseTitle, opts.NameCase)
}

func TestCloseIsIdempotent(t *testing.T) {
	s := New(registry.NewTemplateRegistry(), Options{})
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "row.html"), "x")
	results, err := s.ScanDirectory(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, StatusAdded, results[0].Status)
}

func TestScanStatusString(t *testing.T) {
	assert.Equal(t, "added", StatusAdded.String())
	assert.Equal(t, "unchanged", StatusUnchanged.String())
	assert.Equal(t, "failed", StatusFailed.String())
	assert.Equal(t, "unknown", ScanStatus(42).String())
}
