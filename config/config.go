// Package config loads the YAML configuration of the owlstore command.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/cayleygraph/quad/voc"
	"gopkg.in/yaml.v3"

	"github.com/nodeadmin/owlstore/ontology"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid config")

// Config is the command configuration.
type Config struct {
	LogLevel string            `yaml:"log_level"`
	Format   string            `yaml:"format"`
	BaseIRI  string            `yaml:"base_iri"`
	Prefixes map[string]string `yaml:"prefixes"`
	Journal  Journal           `yaml:"journal"`
	Metrics  Metrics           `yaml:"metrics"`
	Output   Output            `yaml:"output"`
}

// Journal configures the triple journal. An empty Path disables it.
type Journal struct {
	Path    string `yaml:"path"`
	Session string `yaml:"session"`
}

// Metrics configures the prometheus endpoint. An empty Addr disables it.
type Metrics struct {
	Addr string `yaml:"addr"`
	Path string `yaml:"path"`
}

// Output configures result rendering.
type Output struct {
	Pretty bool `yaml:"pretty"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Format:   ontology.FormatAuto,
		Metrics:  Metrics{Path: "/metrics"},
	}
}

// Load reads the YAML file at path over the defaults and validates the
// result. An empty path yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read failed: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse failed: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return cfg, nil
}

// Validate checks field values.
func (c *Config) Validate() error {
	var problems []string
	if _, err := c.Level(); err != nil {
		problems = append(problems, err.Error())
	}
	switch c.Format {
	case ontology.FormatAuto, ontology.FormatRDFXML, ontology.FormatNTriples, ontology.FormatOBO:
	default:
		problems = append(problems, fmt.Sprintf("unknown format %q", c.Format))
	}
	for prefix, ns := range c.Prefixes {
		if !strings.HasSuffix(prefix, ":") {
			problems = append(problems, fmt.Sprintf("prefix %q must end with ':'", prefix))
		}
		if ns == "" {
			problems = append(problems, fmt.Sprintf("prefix %q has no namespace", prefix))
		}
	}
	if c.Journal.Session != "" && c.Journal.Path == "" {
		problems = append(problems, "journal.session requires journal.path")
	}
	if c.Metrics.Addr != "" && !strings.HasPrefix(c.Metrics.Path, "/") {
		problems = append(problems, fmt.Sprintf("metrics.path %q must start with '/'", c.Metrics.Path))
	}
	if len(problems) > 0 {
		sort.Strings(problems)
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

// Level parses LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("log_level %q: %w", c.LogLevel, err)
	}
	return l, nil
}

// RegisterPrefixes makes the configured prefixes usable in prefixed IRIs
// such as query patterns.
func (c *Config) RegisterPrefixes() {
	for prefix, ns := range c.Prefixes {
		voc.RegisterPrefix(prefix, ns)
	}
}
