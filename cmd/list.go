package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/conneroisu/snail/internal/registry"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"l"},
	Short:   "List all discovered templates",
	Long: `List every template found in the configured paths with its file and the
templates it references. Parameters are shown with --with-params; optional
parameters are marked with a trailing "?".

Examples:
  snail list                    # Table format
  snail list -f json            # Output as JSON
  snail list --with-params      # Include inline parameters`,
	RunE: runList,
}

var (
	listFormat     *FormatFlag
	listWithParams bool
)

func init() {
	rootCmd.AddCommand(listCmd)

	listFormat = AddFormatFlag(listCmd, "table", "json", "yaml")
	listCmd.Flags().BoolVarP(&listWithParams, "with-params", "p", false, "Include template parameters")
}

type listedParameter struct {
	Name     string `json:"name" yaml:"name"`
	Optional bool   `json:"optional" yaml:"optional"`
}

type listedTemplate struct {
	Name       string            `json:"name" yaml:"name"`
	File       string            `json:"file" yaml:"file"`
	References []string          `json:"references" yaml:"references"`
	Parameters []listedParameter `json:"parameters,omitempty" yaml:"parameters,omitempty"`
}

func runList(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close()

	a.scan(cmd.Context())
	return listTemplates(cmd.OutOrStdout(), a.registry, listFormat.Value, listWithParams)
}

func listTemplates(w io.Writer, reg *registry.TemplateRegistry, format string, withParams bool) error {
	infos := reg.GetAll()
	if len(infos) == 0 && strings.ToLower(format) == "table" {
		fmt.Fprintln(w, "No templates found.")
		return nil
	}

	listed := make([]listedTemplate, 0, len(infos))
	for _, info := range infos {
		item := listedTemplate{
			Name:       info.Name,
			File:       info.FilePath,
			References: append([]string{}, info.References...),
		}
		if withParams {
			for _, p := range info.Parameters {
				item.Parameters = append(item.Parameters, listedParameter{Name: p.Name, Optional: p.Optional})
			}
		}
		listed = append(listed, item)
	}

	switch strings.ToLower(format) {
	case "json":
		return writeJSON(w, listed)
	case "yaml":
		return writeYAML(w, listed)
	default:
		return listTable(w, listed, withParams)
	}
}

func listTable(w io.Writer, listed []listedTemplate, withParams bool) error {
	tw := newTable(w)

	header := "NAME\tFILE\tREFERENCES"
	if withParams {
		header += "\tPARAMETERS"
	}
	fmt.Fprintln(tw, header)

	for _, t := range listed {
		row := fmt.Sprintf("%s\t%s\t%s", t.Name, t.File, joinOrDash(t.References))
		if withParams {
			names := make([]string, 0, len(t.Parameters))
			for _, p := range t.Parameters {
				if p.Optional {
					names = append(names, p.Name+"?")
				} else {
					names = append(names, p.Name)
				}
			}
			row += "\t" + joinOrDash(names)
		}
		fmt.Fprintln(tw, row)
	}

	return tw.Flush()
}

func joinOrDash(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, ", ")
}
