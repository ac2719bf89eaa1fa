package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/cayleygraph/quad"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "owlstore.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	level, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, level)
}

func TestLoad_File(t *testing.T) {
	path := writeFile(t, `
log_level: debug
format: obo
base_iri: http://purl.obolibrary.org/obo/chebi#
prefixes:
  chebi: http://purl.obolibrary.org/obo/CHEBI_
journal:
  path: /tmp/owlstore.db
  session: 01ARZ3NDEKTSV4RRFFQ69G5FAV
metrics:
  addr: ":9100"
output:
  pretty: true
`)
	// The prefix above lacks its colon; fix it and load again.
	_, err := Load(path)
	require.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), `prefix "chebi" must end with ':'`)

	path = writeFile(t, `
log_level: debug
format: obo
base_iri: http://purl.obolibrary.org/obo/chebi#
prefixes:
  "chebi:": http://purl.obolibrary.org/obo/CHEBI_
journal:
  path: /tmp/owlstore.db
  session: 01ARZ3NDEKTSV4RRFFQ69G5FAV
metrics:
  addr: ":9100"
output:
  pretty: true
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "obo", cfg.Format)
	assert.Equal(t, "http://purl.obolibrary.org/obo/chebi#", cfg.BaseIRI)
	assert.Equal(t, map[string]string{"chebi:": "http://purl.obolibrary.org/obo/CHEBI_"}, cfg.Prefixes)
	assert.Equal(t, Journal{Path: "/tmp/owlstore.db", Session: "01ARZ3NDEKTSV4RRFFQ69G5FAV"}, cfg.Journal)
	assert.Equal(t, Metrics{Addr: ":9100", Path: "/metrics"}, cfg.Metrics, "unset fields keep their defaults")
	assert.True(t, cfg.Output.Pretty)

	level, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)

	cfg.RegisterPrefixes()
	assert.Equal(t, quad.IRI("http://purl.obolibrary.org/obo/CHEBI_15377"), quad.IRI("chebi:15377").Full())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		ok     bool
	}{
		{"defaults", func(c *Config) {}, true},
		{"bad level", func(c *Config) { c.LogLevel = "loud" }, false},
		{"bad format", func(c *Config) { c.Format = "turtle" }, false},
		{"empty namespace", func(c *Config) { c.Prefixes = map[string]string{"ex:": ""} }, false},
		{"session without path", func(c *Config) { c.Journal.Session = "x" }, false},
		{"metrics path", func(c *Config) { c.Metrics = Metrics{Addr: ":9100", Path: "metrics"} }, false},
		{"metrics off", func(c *Config) { c.Metrics = Metrics{} }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			}
		})
	}
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = Load(writeFile(t, "log_level: [unclosed"))
	assert.Error(t, err)
}
