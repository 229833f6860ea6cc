package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/conneroisu/snail/internal/config"
	"github.com/conneroisu/snail/internal/errors"
	"github.com/conneroisu/snail/internal/renderer"
)

var initCmd = &cobra.Command{
	Use:     "init [dir]",
	Aliases: []string{"i"},
	Short:   "Initialize a snail project",
	Long: `Write a default .snail.yml and an example templates directory. If no
directory is given, the current directory is used. Existing files are left
alone unless --force is set.

Examples:
  snail init                 # Initialize in current directory
  snail init site            # Initialize in ./site
  snail init --minimal       # Only write .snail.yml`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

var (
	initMinimal bool
	initForce   bool
)

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().BoolVar(&initMinimal, "minimal", false, "Only write the configuration file")
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite existing files")
}

const examplePage = `<html>
<body>
  <h1><!-- (param)title --></h1>
  <p><!-- (optional)(param)subtitle --></p>
  <table>
    <!-- (ref)Row -->
  </table>
</body>
</html>
`

const exampleRow = `<tr>
  <td><!-- (param)cell --></td>
</tr>
`

const exampleParams = `# snail render page -p page.yml
title: Fruit
Row:
  - cell: [apple, pear]
  - cell: plum
`

func runInit(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) == 1 {
		dir = args[0]
	}
	return initProject(cmd.OutOrStdout(), dir, initMinimal, initForce)
}

type projectFile struct {
	path    string
	content string
}

// initProject writes the default configuration and, unless minimal, the
// example templates and parameters into dir.
func initProject(w io.Writer, dir string, minimal, force bool) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.WrapIO(err, dir, "failed to create project directory")
	}

	cfgData, err := config.DefaultConfig().YAML()
	if err != nil {
		return errors.NewInternalError(errors.ErrCodeInternalError, "failed to encode default configuration", err)
	}

	files := []projectFile{{config.DefaultFileName, string(cfgData)}}
	if !minimal {
		files = append(files,
			projectFile{filepath.Join("templates", "page.html"), examplePage},
			projectFile{filepath.Join("templates", "Row.html"), exampleRow},
			projectFile{"page.yml", exampleParams},
		)
	}

	for _, f := range files {
		target := filepath.Join(dir, f.path)
		if _, err := os.Stat(target); err == nil && !force {
			fmt.Fprintf(w, "Skipped %s (exists)\n", target)
			continue
		}
		if err := renderer.WriteFile(target, f.content); err != nil {
			return err
		}
		fmt.Fprintf(w, "Created %s\n", target)
	}

	return nil
}
