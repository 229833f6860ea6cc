// Package config provides configuration management for snail using Viper
// for loading from files, environment variables and command-line flags.
//
// The configuration covers the template marker syntax, where templates are
// discovered, render limits, the file watcher and logging. Environment
// variables override file values with the SNAIL_ prefix, for example
// SNAIL_RENDER_MAX_DEPTH=16.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/conneroisu/snail/pkg/snail"
)

// DefaultFileName is the configuration file looked up in the working directory.
const DefaultFileName = ".snail.yml"

// Name case policies for templates discovered on disk.
const (
	NameCasePreserve = "preserve"
	NameCaseTitle    = "title"
)

type Config struct {
	Syntax    SyntaxConfig    `mapstructure:"syntax" yaml:"syntax"`
	Templates TemplatesConfig `mapstructure:"templates" yaml:"templates"`
	Render    RenderConfig    `mapstructure:"render" yaml:"render"`
	Watch     WatchConfig     `mapstructure:"watch" yaml:"watch"`
	Log       LogConfig       `mapstructure:"log" yaml:"log"`
}

type SyntaxConfig struct {
	Open      string `mapstructure:"open" yaml:"open"`
	Close     string `mapstructure:"close" yaml:"close"`
	Optional  string `mapstructure:"optional" yaml:"optional"`
	Parameter string `mapstructure:"parameter" yaml:"parameter"`
	Reference string `mapstructure:"reference" yaml:"reference"`
}

type TemplatesConfig struct {
	Paths      []string `mapstructure:"paths" yaml:"paths"`
	Extensions []string `mapstructure:"extensions" yaml:"extensions"`
	Exclude    []string `mapstructure:"exclude" yaml:"exclude"`
	NameCase   string   `mapstructure:"name_case" yaml:"name_case"`
}

type RenderConfig struct {
	MaxDepth    int  `mapstructure:"max_depth" yaml:"max_depth"`
	CheckMarkup bool `mapstructure:"check_markup" yaml:"check_markup"`
}

type WatchConfig struct {
	Debounce time.Duration `mapstructure:"debounce" yaml:"debounce"`
}

// LogConfig controls diagnostics. File, when set, receives log records
// instead of stderr.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
	File   string `mapstructure:"file" yaml:"file,omitempty"`
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() *Config {
	return &Config{
		Syntax: SyntaxConfig{
			Open:      snail.DefaultOpen,
			Close:     snail.DefaultClose,
			Optional:  snail.DefaultOptional,
			Parameter: snail.DefaultParameterKeyword,
			Reference: snail.DefaultReferenceKeyword,
		},
		Templates: TemplatesConfig{
			Paths:      []string{"./templates"},
			Extensions: []string{".snail", ".html", ".tmpl"},
			Exclude:    []string{},
			NameCase:   NameCasePreserve,
		},
		Render: RenderConfig{
			MaxDepth: snail.DefaultMaxDepth,
		},
		Watch: WatchConfig{
			Debounce: 300 * time.Millisecond,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// SetDefaults registers every default on v so that Unmarshal, IsSet and
// environment overrides see the full key set.
func SetDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("syntax.open", d.Syntax.Open)
	v.SetDefault("syntax.close", d.Syntax.Close)
	v.SetDefault("syntax.optional", d.Syntax.Optional)
	v.SetDefault("syntax.parameter", d.Syntax.Parameter)
	v.SetDefault("syntax.reference", d.Syntax.Reference)
	v.SetDefault("templates.paths", d.Templates.Paths)
	v.SetDefault("templates.extensions", d.Templates.Extensions)
	v.SetDefault("templates.exclude", d.Templates.Exclude)
	v.SetDefault("templates.name_case", d.Templates.NameCase)
	v.SetDefault("render.max_depth", d.Render.MaxDepth)
	v.SetDefault("render.check_markup", d.Render.CheckMarkup)
	v.SetDefault("watch.debounce", d.Watch.Debounce)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("log.file", d.Log.File)
}

// Load reads the configuration from the global viper instance.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom applies defaults to v, unmarshals and validates it.
func LoadFrom(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}

	// Comma separated lists arrive as a single string from the environment.
	config.Templates.Paths = splitList(config.Templates.Paths)
	config.Templates.Extensions = normalizeExtensions(splitList(config.Templates.Extensions))
	config.Templates.Exclude = splitList(config.Templates.Exclude)
	config.Templates.NameCase = strings.ToLower(config.Templates.NameCase)

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Parser builds the template parser described by the syntax section.
func (s SyntaxConfig) Parser() (*snail.Parser, error) {
	return snail.NewParser(
		snail.Syntax{Open: s.Open, Close: s.Close, Optional: s.Optional},
		s.Parameter,
		s.Reference,
	)
}

// YAML renders c as a configuration file.
func (c *Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}

func splitList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func normalizeExtensions(exts []string) []string {
	for i, ext := range exts {
		ext = strings.ToLower(ext)
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts[i] = ext
	}
	return exts
}
