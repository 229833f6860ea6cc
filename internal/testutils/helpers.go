// Package testutils holds fixtures shared by package tests.
package testutils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/conneroisu/snail/internal/config"
	"github.com/conneroisu/snail/internal/registry"
	"github.com/conneroisu/snail/pkg/snail"
)

// CreateTempProject creates a temporary project with an empty templates directory.
func CreateTempProject(t *testing.T) string {
	t.Helper()
	tempDir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(tempDir, "templates"), 0o755))
	return tempDir
}

// WriteFile writes content to path, creating parent directories.
func WriteFile(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// CreateTestTemplate writes templates/<name>.html below projectDir.
func CreateTestTemplate(t *testing.T, projectDir, name, content string) string {
	t.Helper()
	return WriteFile(t, filepath.Join(projectDir, "templates", name+".html"), content)
}

// CreateTestConfig returns the default configuration scanning projectDir/templates.
func CreateTestConfig(projectDir string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Templates.Paths = []string{filepath.Join(projectDir, "templates")}
	return cfg
}

// CreateTestRegistry returns a registry holding StandardTemplates.
func CreateTestRegistry(t *testing.T) *registry.TemplateRegistry {
	t.Helper()
	reg := registry.NewTemplateRegistry()
	parser := snail.NewDefaultParser()

	for name, source := range StandardTemplates {
		tmpl, err := parser.Parse(source)
		require.NoError(t, err)
		reg.Register(registry.NewTemplateInfo(name, "/test/"+name+".html", tmpl))
	}

	return reg
}

// StandardTemplates is a small page built from nested references.
var StandardTemplates = map[string]string{
	"Page": `<html>
  <h1><!-- (param)title --></h1>
  <table>
    <!-- (ref)Row -->
  </table>
  <!-- (optional)(ref)Footer -->
</html>`,
	"Row": `<tr>
  <!-- (ref)Cell -->
</tr>`,
	"Cell": `<td><!-- (param)value --></td>`,
	"Footer": `<footer><!-- (param)note --> <!-- (optional)(param)year --></footer>`,
}

// StandardParams renders StandardTemplates' Page as a two by two table.
func StandardParams() snail.Params {
	return snail.Params{
		"title": snail.Scalar("Grid"),
		"Row": snail.SubParametersList{
			{"Cell": snail.SubParametersList{{"value": snail.Scalar("1.1")}, {"value": snail.Scalar("1.2")}}},
			{"Cell": snail.SubParametersList{{"value": snail.Scalar("2.1")}, {"value": snail.Scalar("2.2")}}},
		},
	}
}

// StandardOutput is the result of rendering Page with StandardParams.
const StandardOutput = `<html>
  <h1>Grid</h1>
  <table>
    <tr>
      <td>1.1</td>
      <td>1.2</td>
    </tr>
    <tr>
      <td>2.1</td>
      <td>2.2</td>
    </tr>
  </table>
</html>
`

// PathTraversalCases are output paths that must be rejected.
var PathTraversalCases = []string{
	"/etc/passwd",
	"/proc/self/environ",
	"/sys/kernel/notes",
	"/dev/null",
	"out;rm -rf .html",
	"out|tee.html",
	"out$(id).html",
	"out/",
}
