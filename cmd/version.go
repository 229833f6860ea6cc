package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/conneroisu/snail/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long: `Display the snail version, git commit, build time, Go version and
target platform.

Examples:
  snail version               # Version and platform
  snail version --short       # Version only
  snail version -f json       # Output as JSON`,
	RunE: runVersion,
}

var (
	versionFormat *FormatFlag
	versionShort  bool
)

func init() {
	rootCmd.AddCommand(versionCmd)

	versionFormat = AddFormatFlag(versionCmd, "text", "json")
	versionCmd.Flags().BoolVar(&versionShort, "short", false, "Show short version only")
}

func runVersion(cmd *cobra.Command, args []string) error {
	return printVersion(cmd.OutOrStdout(), version.Get(), versionFormat.Value, versionShort)
}

func printVersion(w io.Writer, info *version.BuildInfo, format string, short bool) error {
	switch {
	case strings.EqualFold(format, "json"):
		return writeJSON(w, info)
	case short:
		_, err := fmt.Fprintln(w, info.Short())
		return err
	default:
		_, err := fmt.Fprintln(w, info.Detailed())
		return err
	}
}
