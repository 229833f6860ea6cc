package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/conneroisu/snail/internal/errors"
	"github.com/conneroisu/snail/internal/params"
	"github.com/conneroisu/snail/pkg/snail"
)

// ParamFlags collects template parameters from a file and assignments.
type ParamFlags struct {
	File string
	Set  []string
}

// AddParamFlags adds --params and --set to cmd.
func AddParamFlags(cmd *cobra.Command) *ParamFlags {
	flags := &ParamFlags{}
	cmd.Flags().StringVarP(&flags.File, "params", "p", "", "Parameters file (YAML or JSON)")
	cmd.Flags().StringArrayVar(&flags.Set, "set", nil, "Set a parameter (key=value, key=[a,b] for a list); repeatable")
	AddFlagValidation(cmd, "params", ValidateFileExists)
	return flags
}

// Load reads the parameters file, if any, and applies --set overrides.
func (f *ParamFlags) Load() (snail.Params, error) {
	base := snail.Params{}
	if f.File != "" {
		loaded, err := params.Load(f.File)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeValidation, errors.ErrCodeParamsInvalid, "failed to load parameters").
				WithLocation(f.File, 0)
		}
		base = loaded
	}

	overrides, err := params.ParseAssignments(f.Set)
	if err != nil {
		return nil, errors.NewValidationError(errors.ErrCodeParamsInvalid, err.Error())
	}

	return params.Merge(base, overrides), nil
}

// FormatFlag is an output format restricted to a fixed set of names.
type FormatFlag struct {
	Value   string
	allowed []string
}

// AddFormatFlag adds --format/-f to cmd with the first allowed value as default.
func AddFormatFlag(cmd *cobra.Command, allowed ...string) *FormatFlag {
	flag := &FormatFlag{Value: allowed[0], allowed: allowed}
	cmd.Flags().StringVarP(&flag.Value, "format", "f", allowed[0],
		fmt.Sprintf("Output format (%s)", strings.Join(allowed, "|")))
	AddFlagValidation(cmd, "format", func(format string) error {
		return ValidateFormat(format, allowed)
	})
	return flag
}

// AddFlagValidation adds validation for a specific flag
func AddFlagValidation(cmd *cobra.Command, flagName string, validator func(string) error) {
	flag := cmd.Flags().Lookup(flagName)
	if flag == nil {
		return
	}

	flag.Value = &validatingValue{
		Value:     flag.Value,
		validator: validator,
	}
}

type validatingValue struct {
	pflag.Value
	validator func(string) error
}

func (v *validatingValue) Set(val string) error {
	if v.validator != nil {
		if err := v.validator(val); err != nil {
			return err
		}
	}
	return v.Value.Set(val)
}

// ValidateFormat checks format against allowed, ignoring case.
func ValidateFormat(format string, allowed []string) error {
	for _, a := range allowed {
		if strings.EqualFold(format, a) {
			return nil
		}
	}
	return fmt.Errorf("invalid format %q, must be one of: %s", format, strings.Join(allowed, ", "))
}

// ValidateFileExists accepts an empty name or an existing file.
func ValidateFileExists(filename string) error {
	if filename == "" {
		return nil
	}

	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return fmt.Errorf("file does not exist: %s", filename)
	}

	return nil
}
