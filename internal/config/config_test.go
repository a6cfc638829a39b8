package config

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nainya/aroresolve/pkg/source"
)

func TestDefaultIsValid(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 50051, cfg.Server.GrpcPort)
	assert.Equal(t, 10, cfg.Resolver.FreeTextLimit)
	assert.Equal(t, source.FormatAuto, cfg.SourceFormat())
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aroresolve.yaml")
	yml := `
server:
  grpc_port: 6000
log:
  level: debug
ontology:
  path: /srv/aro.obo
  format: obo
search:
  fuzzy:
    enabled: false
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 6000, cfg.Server.GrpcPort)
	assert.Equal(t, 9090, cfg.Server.MetricsPort)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, source.FormatOBO, cfg.SourceFormat())
	assert.Equal(t, 200, cfg.Search.MaxLimit)

	opts := cfg.EngineOptions()
	assert.False(t, opts.Search.Fuzzy)
	assert.Equal(t, 2, opts.Search.MaxDistance)
}

func TestFlagsOverrideFile(t *testing.T) {
	cfg := Default()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg.RegisterFlags(fs)
	require.NoError(t, fs.Parse([]string{"-port", "7000", "-ontology", "aro.csv", "-format", "csv"}))

	assert.Equal(t, 7000, cfg.Server.GrpcPort)
	assert.Equal(t, "aro.csv", cfg.Ontology.Path)
	assert.Equal(t, source.FormatCSV, cfg.SourceFormat())
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [1, 2"), 0o644))
	_, err = Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"port":          func(c *Config) { c.Server.GrpcPort = 70000 },
		"same ports":    func(c *Config) { c.Server.MetricsPort = c.Server.GrpcPort },
		"log level":     func(c *Config) { c.Log.Level = "verbose" },
		"no path":       func(c *Config) { c.Ontology.Path = "" },
		"format":        func(c *Config) { c.Ontology.Format = "xml" },
		"free text":     func(c *Config) { c.Resolver.FreeTextLimit = 0 },
		"limits":        func(c *Config) { c.Search.DefaultLimit = 500 },
		"fuzzy":         func(c *Config) { c.Search.Fuzzy.MaxDistance = 9 },
		"message bytes": func(c *Config) { c.Server.MaxMsgBytes = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalid)
		})
	}

	cfg := Default()
	cfg.Server.MetricsPort = 0
	assert.NoError(t, cfg.Validate())
}
