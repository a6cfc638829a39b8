// Package config loads aroresolve settings from YAML with flag overrides
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/nainya/aroresolve/pkg/engine"
	"github.com/nainya/aroresolve/pkg/resolver"
	"github.com/nainya/aroresolve/pkg/search"
	"github.com/nainya/aroresolve/pkg/source"
)

// ErrInvalid wraps every validation failure
var ErrInvalid = errors.New("config: invalid")

// Config is the full process configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Ontology OntologyConfig `yaml:"ontology"`
	Resolver ResolverConfig `yaml:"resolver"`
	Search   SearchConfig   `yaml:"search"`
}

// ServerConfig holds listener settings
type ServerConfig struct {
	GrpcPort    int `yaml:"grpc_port"`
	MetricsPort int `yaml:"metrics_port"`
	MaxMsgBytes int `yaml:"max_msg_bytes"`
}

// LogConfig mirrors logger.Config
type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
	Caller bool   `yaml:"caller"`
}

// OntologyConfig names the ontology source file
type OntologyConfig struct {
	Path   string `yaml:"path"`
	Format string `yaml:"format"` // auto, json, csv, obo
}

// ResolverConfig tunes the free text path
type ResolverConfig struct {
	FreeTextLimit int `yaml:"free_text_limit"`
}

// SearchConfig tunes typeahead search
type SearchConfig struct {
	DefaultLimit int         `yaml:"default_limit"`
	MaxLimit     int         `yaml:"max_limit"`
	Fuzzy        FuzzyConfig `yaml:"fuzzy"`
}

// FuzzyConfig tunes the edit distance tier
type FuzzyConfig struct {
	Enabled     bool `yaml:"enabled"`
	MaxDistance int  `yaml:"max_distance"`
	MinQueryLen int  `yaml:"min_query_len"`
}

// Default returns the built-in configuration
func Default() Config {
	return Config{
		Server: ServerConfig{
			GrpcPort:    50051,
			MetricsPort: 9090,
			MaxMsgBytes: 16 * 1024 * 1024,
		},
		Log: LogConfig{
			Level: "info",
		},
		Ontology: OntologyConfig{
			Path:   "data/aro_sample.json",
			Format: string(source.FormatAuto),
		},
		Resolver: ResolverConfig{
			FreeTextLimit: resolver.DefaultFreeTextLimit,
		},
		Search: SearchConfig{
			DefaultLimit: 20,
			MaxLimit:     200,
			Fuzzy: FuzzyConfig{
				Enabled:     true,
				MaxDistance: 2,
				MinQueryLen: 4,
			},
		},
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// RegisterFlags binds command line flags to cfg. Flags parsed after Load
// override file values.
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.IntVar(&c.Server.GrpcPort, "port", c.Server.GrpcPort, "gRPC listen port")
	fs.IntVar(&c.Server.MetricsPort, "metrics-port", c.Server.MetricsPort, "Metrics and health HTTP port (0 disables)")
	fs.StringVar(&c.Log.Level, "log-level", c.Log.Level, "Log level: debug, info, warn, error")
	fs.BoolVar(&c.Log.Pretty, "log-pretty", c.Log.Pretty, "Human readable console logs")
	fs.StringVar(&c.Ontology.Path, "ontology", c.Ontology.Path, "Ontology source file")
	fs.StringVar(&c.Ontology.Format, "format", c.Ontology.Format, "Ontology format: auto, json, csv, obo")
}

// Validate reports the first problem found
func (c Config) Validate() error {
	if err := validPort("server.grpc_port", c.Server.GrpcPort, false); err != nil {
		return err
	}
	if err := validPort("server.metrics_port", c.Server.MetricsPort, true); err != nil {
		return err
	}
	if c.Server.MetricsPort != 0 && c.Server.MetricsPort == c.Server.GrpcPort {
		return fmt.Errorf("%w: server.metrics_port equals server.grpc_port", ErrInvalid)
	}
	if c.Server.MaxMsgBytes <= 0 {
		return fmt.Errorf("%w: server.max_msg_bytes must be positive", ErrInvalid)
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: log.level %q", ErrInvalid, c.Log.Level)
	}

	if c.Ontology.Path == "" {
		return fmt.Errorf("%w: ontology.path is required", ErrInvalid)
	}
	if _, err := source.ParseFormat(c.Ontology.Format); err != nil {
		return fmt.Errorf("%w: ontology.format: %v", ErrInvalid, err)
	}

	if c.Resolver.FreeTextLimit <= 0 {
		return fmt.Errorf("%w: resolver.free_text_limit must be positive", ErrInvalid)
	}
	if c.Search.DefaultLimit <= 0 || c.Search.MaxLimit <= 0 {
		return fmt.Errorf("%w: search limits must be positive", ErrInvalid)
	}
	if c.Search.DefaultLimit > c.Search.MaxLimit {
		return fmt.Errorf("%w: search.default_limit exceeds search.max_limit", ErrInvalid)
	}
	if f := c.Search.Fuzzy; f.Enabled && (f.MaxDistance < 1 || f.MaxDistance > 4 || f.MinQueryLen < 1) {
		return fmt.Errorf("%w: search.fuzzy needs max_distance 1..4 and min_query_len >= 1", ErrInvalid)
	}
	return nil
}

// SourceFormat returns the parsed ontology format
func (c Config) SourceFormat() source.Format {
	f, err := source.ParseFormat(c.Ontology.Format)
	if err != nil {
		return source.FormatAuto
	}
	return f
}

// EngineOptions converts the resolver and search sections
func (c Config) EngineOptions() engine.Options {
	return engine.Options{
		Resolver: resolver.Options{FreeTextLimit: c.Resolver.FreeTextLimit},
		Search: search.Options{
			Fuzzy:       c.Search.Fuzzy.Enabled,
			MaxDistance: c.Search.Fuzzy.MaxDistance,
			MinQueryLen: c.Search.Fuzzy.MinQueryLen,
		},
	}
}

func validPort(name string, port int, zeroOK bool) error {
	if port == 0 && zeroOK {
		return nil
	}
	if port < 1 || port > 65535 {
		return fmt.Errorf("%w: %s %d out of range", ErrInvalid, name, port)
	}
	return nil
}
