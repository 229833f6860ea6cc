package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/snail/internal/config"
	"github.com/conneroisu/snail/internal/errors"
	"github.com/conneroisu/snail/internal/logging"
	"github.com/conneroisu/snail/internal/testutils"
	"github.com/conneroisu/snail/internal/version"
	"github.com/conneroisu/snail/internal/watcher"
	"github.com/conneroisu/snail/pkg/snail"
)

func newTestApp(t *testing.T, dir string) *app {
	t.Helper()
	a, err := newApp(testutils.CreateTestConfig(dir), logging.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return a
}

const expectedPage = `<html>
<body>
  <h1>Fruit</h1>
  <p></p>
  <table>
    <tr>
      <td>apple</td>
      <td>pear</td>
    </tr>
    <tr>
      <td>plum</td>
    </tr>
  </table>
</body>
</html>
`

func TestInitProjectAndRender(t *testing.T) {
	dir := t.TempDir()

	var out bytes.Buffer
	require.NoError(t, initProject(&out, dir, false, false))
	assert.FileExists(t, filepath.Join(dir, config.DefaultFileName))
	assert.FileExists(t, filepath.Join(dir, "templates", "page.html"))
	assert.FileExists(t, filepath.Join(dir, "templates", "Row.html"))
	assert.Contains(t, out.String(), "Created")

	out.Reset()
	require.NoError(t, initProject(&out, dir, false, false))
	assert.Contains(t, out.String(), "Skipped")
	assert.NotContains(t, out.String(), "Created")

	flags := &ParamFlags{File: filepath.Join(dir, "page.yml")}
	p, err := flags.Load()
	require.NoError(t, err)

	a := newTestApp(t, dir)
	var rendered, errOut bytes.Buffer
	require.NoError(t, renderTemplate(context.Background(), a, &rendered, &errOut, renderRequest{Name: "page", Params: p}))
	assert.Equal(t, expectedPage, rendered.String())
}

func TestInitProjectMinimal(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, initProject(&bytes.Buffer{}, dir, true, false))

	assert.FileExists(t, filepath.Join(dir, config.DefaultFileName))
	assert.NoDirExists(t, filepath.Join(dir, "templates"))
}

func TestRenderToFileAndSource(t *testing.T) {
	dir := t.TempDir()
	testutils.WriteFile(t, filepath.Join(dir, "templates", "greet.html"), "Hello <!-- (param)who -->!")
	testutils.WriteFile(t, filepath.Join(dir, "draft.txt"), "<< <!-- (ref)greet --> >>")

	a := newTestApp(t, dir)
	ctx := context.Background()
	params := snail.Params{"who": snail.Scalar("snail")}

	output := filepath.Join(dir, "out", "greet.txt")
	var errOut bytes.Buffer
	require.NoError(t, renderTemplate(ctx, a, &bytes.Buffer{}, &errOut, renderRequest{Name: "greet", Output: output, Params: params}))
	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, "Hello snail!\n", string(data))
	assert.Contains(t, errOut.String(), "Wrote")

	var out bytes.Buffer
	require.NoError(t, renderTemplate(ctx, a, &out, &errOut, renderRequest{
		Source: filepath.Join(dir, "draft.txt"),
		Params: snail.Params{"greet": snail.SubParameters{"who": snail.Scalar("you")}},
	}))
	assert.Equal(t, "<< Hello you! >>\n", out.String())
}

func TestRenderErrorsPrintSuggestions(t *testing.T) {
	dir := t.TempDir()
	testutils.WriteFile(t, filepath.Join(dir, "templates", "Row.html"), "<td><!-- (param)cell --></td>")

	a := newTestApp(t, dir)
	ctx := context.Background()

	var errOut bytes.Buffer
	err := renderTemplate(ctx, a, &bytes.Buffer{}, &errOut, renderRequest{Name: "Rowe"})
	require.Error(t, err)
	assert.True(t, errors.HasErrorCode(err, errors.ErrCodeTemplateNotFound))
	assert.Contains(t, errOut.String(), "Did you mean 'Row'?")

	errOut.Reset()
	err = renderTemplate(ctx, a, &bytes.Buffer{}, &errOut, renderRequest{Name: "Row", Params: snail.Params{}})
	require.Error(t, err)
	assert.True(t, errors.HasErrorCode(err, errors.ErrCodeMissingParameter))
	assert.Contains(t, errOut.String(), "--set cell=value")

	output := filepath.Join(dir, "kept.html")
	testutils.WriteFile(t, output, "previous")
	err = renderTemplate(ctx, a, &bytes.Buffer{}, &bytes.Buffer{}, renderRequest{Name: "Row", Output: output, Params: snail.Params{}})
	require.Error(t, err)
	data, readErr := os.ReadFile(output)
	require.NoError(t, readErr)
	assert.Equal(t, "previous", string(data))
}

func TestParamFlagsLoad(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "p.yml")
	testutils.WriteFile(t, file, "title: Old\ncells: [a, b]\n")

	flags := &ParamFlags{File: file, Set: []string{"title=New", "extra=[x,y]"}}
	p, err := flags.Load()
	require.NoError(t, err)
	assert.Equal(t, snail.Scalar("New"), p["title"])
	assert.Equal(t, snail.ValueList{"a", "b"}, p["cells"])
	assert.Equal(t, snail.ValueList{"x", "y"}, p["extra"])

	_, err = (&ParamFlags{Set: []string{"novalue"}}).Load()
	require.Error(t, err)
	assert.True(t, errors.HasErrorCode(err, errors.ErrCodeParamsInvalid))

	testutils.WriteFile(t, file, "bad: [a, [b]]\n")
	_, err = (&ParamFlags{File: file}).Load()
	require.Error(t, err)
	assert.True(t, errors.HasErrorCode(err, errors.ErrCodeParamsInvalid))

	p, err = (&ParamFlags{}).Load()
	require.NoError(t, err)
	assert.Empty(t, p)
}

func TestFormatFlagValidation(t *testing.T) {
	cmd := &cobra.Command{Use: "x"}
	format := AddFormatFlag(cmd, "table", "json")
	assert.Equal(t, "table", format.Value)

	require.NoError(t, cmd.Flags().Set("format", "json"))
	assert.Equal(t, "json", format.Value)

	err := cmd.Flags().Set("format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be one of: table, json")
	assert.Equal(t, "json", format.Value)

	assert.NoError(t, ValidateFormat("JSON", []string{"json"}))
	assert.NoError(t, ValidateFileExists(""))
	assert.Error(t, ValidateFileExists(filepath.Join(t.TempDir(), "missing.yml")))
}

func TestInspectFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "row.html")
	testutils.WriteFile(t, file, "<tr>\n  <td><!-- (optional)(param)cell --></td>\n  <!-- (ref)Cell -->\n")

	parser := snail.NewDefaultParser()

	var table bytes.Buffer
	require.NoError(t, inspectFile(&table, parser, file, "table"))
	assert.Contains(t, table.String(), "LINE")
	assert.Contains(t, table.String(), `"  <td>" {cell?} "</td>"`)
	assert.Contains(t, table.String(), `"  " @Cell ""`)

	var js bytes.Buffer
	require.NoError(t, inspectFile(&js, parser, file, "json"))
	var lines []inspectedLine
	require.NoError(t, json.Unmarshal(js.Bytes(), &lines))
	require.Len(t, lines, 3)
	assert.Equal(t, "raw", lines[0].Kind)
	assert.Equal(t, "<tr>", lines[0].Text)
	assert.Equal(t, "parameters", lines[1].Kind)
	assert.Equal(t, []inspectedToken{{Literal: "  <td>"}, {Parameter: "cell", Optional: true}, {Literal: "</td>"}}, lines[1].Tokens)
	assert.Equal(t, "reference", lines[2].Kind)
	assert.Equal(t, "Cell", lines[2].Reference)

	var yml bytes.Buffer
	require.NoError(t, inspectFile(&yml, parser, file, "yaml"))
	assert.Contains(t, yml.String(), "kind: reference")

	err := inspectFile(&bytes.Buffer{}, parser, filepath.Join(dir, "missing.html"), "table")
	assert.True(t, errors.HasErrorCode(err, errors.ErrCodeFileNotFound))
}

func TestListTemplates(t *testing.T) {
	dir := t.TempDir()
	testutils.WriteFile(t, filepath.Join(dir, "templates", "page.html"), "<h1><!-- (param)title --></h1>\n<!-- (ref)Row -->")
	testutils.WriteFile(t, filepath.Join(dir, "templates", "Row.html"), "<td><!-- (optional)(param)cell --></td>")

	a := newTestApp(t, dir)
	a.scan(context.Background())

	var table bytes.Buffer
	require.NoError(t, listTemplates(&table, a.registry, "table", true))
	assert.Contains(t, table.String(), "PARAMETERS")
	assert.Contains(t, table.String(), "cell?")

	var js bytes.Buffer
	require.NoError(t, listTemplates(&js, a.registry, "json", false))
	var listed []listedTemplate
	require.NoError(t, json.Unmarshal(js.Bytes(), &listed))
	require.Len(t, listed, 2)
	assert.Equal(t, "Row", listed[0].Name)
	assert.Equal(t, []string{}, listed[0].References)
	assert.Equal(t, "page", listed[1].Name)
	assert.Equal(t, []string{"Row"}, listed[1].References)
	assert.Empty(t, listed[1].Parameters)

	empty := newTestApp(t, t.TempDir())
	var none bytes.Buffer
	require.NoError(t, listTemplates(&none, empty.registry, "table", false))
	assert.Equal(t, "No templates found.\n", none.String())
}

func TestValidateTemplates(t *testing.T) {
	dir := t.TempDir()
	testutils.WriteFile(t, filepath.Join(dir, "templates", "Row.html"), "<td><!-- (param)cell --></td>")
	testutils.WriteFile(t, filepath.Join(dir, "templates", "page.html"), "<!-- (ref)Rwo -->")
	testutils.WriteFile(t, filepath.Join(dir, "templates", "a.html"), "<!-- (ref)b -->")
	testutils.WriteFile(t, filepath.Join(dir, "templates", "b.html"), "<!-- (ref)a -->")
	testutils.WriteFile(t, filepath.Join(dir, "templates", "bad-name.html"), "x")

	a := newTestApp(t, dir)
	report, err := validateTemplates(context.Background(), a, nil)
	require.NoError(t, err)

	assert.Equal(t, 4, report.Templates)
	assert.Equal(t, 2, report.Errors)
	assert.Equal(t, 1, report.Warnings)

	var messages []string
	for _, p := range report.Problems {
		messages = append(messages, p.Message)
	}
	assert.Contains(t, messages, "circular reference: a > b > a")
	assert.Contains(t, messages, `references unknown template "Rwo" (did you mean Row?)`)

	var text bytes.Buffer
	require.NoError(t, writeReport(&text, report, "text"))
	assert.Contains(t, text.String(), "4 template(s) checked, 2 error(s), 1 warning(s)")

	scoped, err := validateTemplates(context.Background(), newTestApp(t, dir), []string{"Row", "ghost"})
	require.NoError(t, err)
	assert.Equal(t, 2, scoped.Errors, "cycle and unknown template ghost")
}

func TestValidateGroupsProblemsByFile(t *testing.T) {
	dir := t.TempDir()
	aPath := filepath.Join(dir, "templates", "a.html")
	mPath := filepath.Join(dir, "templates", "m.html")
	testutils.WriteFile(t, aPath, "<!-- (ref)Q -->\n<!-- (ref)a -->")
	testutils.WriteFile(t, mPath, "<!-- (ref)Z -->")

	report, err := validateTemplates(context.Background(), newTestApp(t, dir), nil)
	require.NoError(t, err)
	require.Len(t, report.Problems, 3)

	var files []string
	for _, p := range report.Problems {
		files = append(files, p.File)
	}
	assert.Equal(t, []string{aPath, aPath, mPath}, files)

	var text bytes.Buffer
	require.NoError(t, writeReport(&text, report, "text"))
	out := text.String()
	assert.Equal(t, 1, strings.Count(out, aPath+"\n"))
	assert.Contains(t, out, "  a.html: error: circular reference: a > a\n")
	assert.Less(t, strings.Index(out, aPath), strings.Index(out, mPath))
}

func TestWatchSessionHandle(t *testing.T) {
	dir := t.TempDir()
	tmplPath := filepath.Join(dir, "templates", "greet.html")
	paramsPath := filepath.Join(dir, "p.yml")
	output := filepath.Join(dir, "out.txt")
	testutils.WriteFile(t, tmplPath, "Hi <!-- (param)who -->")
	testutils.WriteFile(t, paramsPath, "who: one\n")

	a := newTestApp(t, dir)
	s := newWatchSession(a, &ParamFlags{File: paramsPath}, renderRequest{Name: "greet", Output: output},
		&bytes.Buffer{}, &bytes.Buffer{})
	t.Cleanup(s.Close)
	require.NoError(t, s.reloadParams())
	ctx := context.Background()
	a.scan(ctx)
	require.NoError(t, s.render(ctx))
	assertFile(t, output, "Hi one\n")

	testutils.WriteFile(t, paramsPath, "who: two\n")
	require.NoError(t, s.handle(ctx, []watcher.ChangeEvent{{Type: watcher.EventTypeModified, Path: paramsPath}}))
	assertFile(t, output, "Hi two\n")

	testutils.WriteFile(t, tmplPath, "Bye <!-- (param)who -->")
	require.NoError(t, s.handle(ctx, []watcher.ChangeEvent{{Type: watcher.EventTypeModified, Path: tmplPath}}))
	assertFile(t, output, "Bye two\n")

	// A broken parameters file keeps the previous parameters.
	testutils.WriteFile(t, paramsPath, "who: [a, [b]]\n")
	require.NoError(t, s.handle(ctx, []watcher.ChangeEvent{{Type: watcher.EventTypeModified, Path: paramsPath}}))
	assertFile(t, output, "Bye two\n")

	// Removing the template keeps the last good output.
	require.NoError(t, os.Remove(tmplPath))
	require.NoError(t, s.handle(ctx, []watcher.ChangeEvent{{Type: watcher.EventTypeDeleted, Path: tmplPath}}))
	_, ok := a.registry.Get("greet")
	assert.False(t, ok)
	assertFile(t, output, "Bye two\n")

	assert.True(t, s.underTemplatePath(tmplPath))
	assert.False(t, s.underTemplatePath(filepath.Join(dir, "other.html")))
	assert.True(t, s.isParamsFile(paramsPath))
}

func TestWatchSessionRendersAffectedTemplatesOnly(t *testing.T) {
	dir := t.TempDir()
	pagePath := filepath.Join(dir, "templates", "page.html")
	rowPath := filepath.Join(dir, "templates", "row.html")
	otherPath := filepath.Join(dir, "templates", "other.html")
	testutils.WriteFile(t, pagePath, "<!-- (ref)row -->")
	testutils.WriteFile(t, rowPath, "r<!-- (param)x -->")
	testutils.WriteFile(t, otherPath, "o")

	a := newTestApp(t, dir)
	var out, errOut bytes.Buffer
	s := newWatchSession(a, &ParamFlags{}, renderRequest{
		Name:   "page",
		Params: snail.Params{"row": snail.SubParameters{"x": snail.Scalar("1")}},
	}, &out, &errOut)
	t.Cleanup(s.Close)

	ctx := context.Background()
	a.scan(ctx)
	assert.True(t, s.drainRegistryEvents(ctx))
	assert.False(t, s.drainRegistryEvents(ctx))
	require.NoError(t, s.render(ctx))
	assert.Equal(t, "r1\n", out.String())

	testutils.WriteFile(t, otherPath, "changed")
	require.NoError(t, s.handle(ctx, []watcher.ChangeEvent{{Type: watcher.EventTypeModified, Path: otherPath}}))
	assert.Equal(t, "r1\n", out.String())

	testutils.WriteFile(t, rowPath, "R<!-- (param)x -->")
	require.NoError(t, s.handle(ctx, []watcher.ChangeEvent{{Type: watcher.EventTypeModified, Path: rowPath}}))
	assert.Equal(t, "r1\nR1\n", out.String())

	// A file that vanished before its write event was handled is removed.
	require.NoError(t, os.Remove(otherPath))
	require.NoError(t, s.handle(ctx, []watcher.ChangeEvent{{Type: watcher.EventTypeModified, Path: otherPath}}))
	_, ok := a.registry.Get("other")
	assert.False(t, ok)
	assert.Empty(t, errOut.String())
	assert.Equal(t, "r1\nR1\n", out.String())

	assert.True(t, s.affects("page"))
	assert.True(t, s.affects("row"))
	assert.False(t, s.affects("other"))

	events := s.events
	s.Close()
	_, ok = <-events
	assert.False(t, ok)
}

func TestWatchSessionUnrecoverableRender(t *testing.T) {
	dir := t.TempDir()
	testutils.WriteFile(t, filepath.Join(dir, "templates", "greet.html"), "Hi")
	blocker := filepath.Join(dir, "blocker")
	testutils.WriteFile(t, blocker, "not a directory")

	a := newTestApp(t, dir)
	a.scan(context.Background())

	s := newWatchSession(a, &ParamFlags{}, renderRequest{Name: "greet", Output: filepath.Join(blocker, "out.txt")},
		&bytes.Buffer{}, &bytes.Buffer{})
	t.Cleanup(s.Close)

	err := s.render(context.Background())
	require.Error(t, err)
	assert.False(t, errors.IsRecoverable(err))

	s.req.Output = ""
	s.req.Name = "missing"
	err = s.render(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsRecoverable(err))
}

func TestWatchSessionNewWatcher(t *testing.T) {
	dir := t.TempDir()
	paramsPath := filepath.Join(dir, "p.yml")
	testutils.WriteFile(t, filepath.Join(dir, "templates", "sub", "x.html"), "x")
	testutils.WriteFile(t, paramsPath, "a: b\n")

	a := newTestApp(t, dir)
	a.cfg.Watch.Debounce = 10 * time.Millisecond
	s := &watchSession{app: a, flags: &ParamFlags{File: paramsPath}}

	fw, err := s.newWatcher()
	require.NoError(t, err)
	defer fw.Stop()

	assert.ElementsMatch(t, []string{
		dir,
		filepath.Join(dir, "templates"),
		filepath.Join(dir, "templates", "sub"),
	}, fw.WatchList())
}

func assertFile(t *testing.T, path, expected string) {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, expected, string(data))
}

func TestPrintVersion(t *testing.T) {
	info := &version.BuildInfo{Version: "v1.0.0", GitCommit: "abcdef123456", GoVersion: "go1.24", Platform: "linux/amd64"}

	var short bytes.Buffer
	require.NoError(t, printVersion(&short, info, "text", true))
	assert.Equal(t, "v1.0.0 (abcdef1)\n", short.String())

	var detailed bytes.Buffer
	require.NoError(t, printVersion(&detailed, info, "text", false))
	assert.Contains(t, detailed.String(), "Version: v1.0.0")
	assert.Contains(t, detailed.String(), "Platform: linux/amd64")

	var js bytes.Buffer
	require.NoError(t, printVersion(&js, info, "json", false))
	assert.Contains(t, js.String(), `"git_commit": "abcdef123456"`)
}

func TestRenderStandardTemplates(t *testing.T) {
	dir := testutils.CreateTempProject(t)
	for name, source := range testutils.StandardTemplates {
		testutils.CreateTestTemplate(t, dir, name, source)
	}

	a := newTestApp(t, dir)
	var out bytes.Buffer
	require.NoError(t, renderTemplate(context.Background(), a, &out, &bytes.Buffer{},
		renderRequest{Name: "Page", Params: testutils.StandardParams()}))
	assert.Equal(t, testutils.StandardOutput, out.String())

	for _, path := range testutils.PathTraversalCases {
		err := renderTemplate(context.Background(), a, &bytes.Buffer{}, &bytes.Buffer{},
			renderRequest{Name: "Page", Params: testutils.StandardParams(), Output: path})
		assert.True(t, errors.HasErrorCode(err, errors.ErrCodeInvalidPath), path)
	}
}

func TestNewLoggerWritesToLogFile(t *testing.T) {
	dir := t.TempDir()
	cfg := testutils.CreateTestConfig(dir)
	cfg.Log.File = filepath.Join(dir, "logs", "snail.log")

	var stderr bytes.Buffer
	logger, closer, err := newLogger(cfg, &stderr)
	require.NoError(t, err)
	require.NotNil(t, closer)

	logger.Info(context.Background(), "Template registered", "template", "row")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(cfg.Log.File)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Template registered")
	assert.Empty(t, stderr.String())

	cfg.Log.File = ""
	_, closer, err = newLogger(cfg, &stderr)
	require.NoError(t, err)
	assert.Nil(t, closer)

	cfg.Log.Level = "loud"
	_, _, err = newLogger(cfg, &stderr)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestConfigHint(t *testing.T) {
	configErr := errors.WrapConfig(assert.AnError, "failed to load configuration")

	assert.Equal(t, "Check the configuration in .snail.yml", configHint(configErr, ".snail.yml"))
	assert.Contains(t, configHint(configErr, ""), config.DefaultFileName)
	assert.Empty(t, configHint(errors.NewRenderError(errors.ErrCodeTypeMismatch, "bad", nil), ".snail.yml"))
	assert.Empty(t, configHint(nil, ".snail.yml"))
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"render", "inspect", "list", "validate", "watch", "init", "version"} {
		assert.True(t, names[want], "missing command %s", want)
	}
}
