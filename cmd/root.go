package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/conneroisu/snail/internal/config"
	"github.com/conneroisu/snail/internal/errors"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "snail",
	Short: "A line-oriented text template engine",
	Long: `snail renders text templates whose markers live inside comments, so
template files stay valid documents in their host language.

Each line is either raw text, a line with inline parameters, or a whole-line
reference to another template. List values fan a line out once per value,
and references render other templates with their own parameters.

Quick Start:
  snail init                       Write .snail.yml and example templates
  snail list                       List discovered templates
  snail render page -p page.yml    Render a template
  snail validate                   Check all templates`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	err := rootCmd.Execute()
	if hint := configHint(err, viper.ConfigFileUsed()); hint != "" {
		fmt.Fprintln(rootCmd.ErrOrStderr(), hint)
	}
	return err
}

// configHint points at the configuration source when err is a
// configuration error.
func configHint(err error, configFile string) string {
	if !errors.IsType(err, errors.ErrorTypeConfig) {
		return ""
	}
	if configFile == "" {
		return "Check the SNAIL_ environment variables and flags, or run 'snail init' to write " + config.DefaultFileName
	}
	return "Check the configuration in " + configFile
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .snail.yml, can also use SNAIL_CONFIG_FILE env var)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error, silent)")
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
}

// initConfig selects the configuration file. The --config flag wins over
// SNAIL_CONFIG_FILE, which wins over .snail.yml in the working directory.
// SNAIL_ prefixed variables override individual keys.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv("SNAIL_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".snail")
	}

	viper.SetEnvPrefix("SNAIL")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// A missing file is fine; defaults apply.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}
