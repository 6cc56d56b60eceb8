package config

import (
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"tsresolve/internal/core/errors"
)

// DefaultFile is the config file looked up in the working directory.
const DefaultFile = "tsresolve.toml"

type Config struct {
	Version       int           `toml:"version"`
	Root          string        `toml:"root"`
	Universe      string        `toml:"universe"`
	Extensions    []string      `toml:"extensions"`
	Exclude       Exclude       `toml:"exclude"`
	Resolve       Resolve       `toml:"resolve"`
	Watch         Watch         `toml:"watch"`
	Index         Index         `toml:"index"`
	Observability Observability `toml:"observability"`
	Log           Log           `toml:"log"`
}

type Exclude struct {
	Dirs  []string `toml:"dirs"`
	Files []string `toml:"files"` // glob patterns matched against the base name
}

type Resolve struct {
	// NodeModules enables bare specifier lookup in node_modules.
	NodeModules *bool `toml:"node_modules"`
	// Aliases map glob patterns to root-relative targets, e.g.
	// "~lib/*" = "src/lib/*".
	Aliases map[string]string `toml:"aliases"`
}

func (r Resolve) NodeModulesEnabled() bool {
	if r.NodeModules == nil {
		return true
	}
	return *r.NodeModules
}

type Watch struct {
	Debounce         time.Duration `toml:"debounce"`
	MaxRunsPerSecond float64       `toml:"max_runs_per_second"`
}

type Index struct {
	Path        string        `toml:"path"`
	BusyTimeout time.Duration `toml:"busy_timeout"`
}

type Observability struct {
	MetricsAddr  string `toml:"metrics_addr"`
	OTLPEndpoint string `toml:"otlp_endpoint"`
}

type Log struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeNotFound, "read config"), errors.CtxPath, path)
	}

	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeValidationError, "decode config"), errors.CtxPath, path)
	}

	applyDefaults(&cfg)
	ApplyEnvOverrides(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, errors.AddContext(err, errors.CtxPath, path)
	}
	return &cfg, nil
}

// LoadOrDefault loads path, falling back to Default when the file does not
// exist.
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := Default()
		ApplyEnvOverrides(cfg)
		return cfg, Validate(cfg)
	}
	return Load(path)
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}
	if strings.TrimSpace(cfg.Root) == "" {
		cfg.Root = "."
	}
	if len(cfg.Extensions) == 0 {
		cfg.Extensions = []string{".ts", ".tsx", ".mts", ".cts", ".js", ".mjs", ".jsx"}
	}
	if cfg.Exclude.Dirs == nil {
		cfg.Exclude.Dirs = []string{"node_modules", ".git", "dist", "build"}
	}
	if cfg.Exclude.Files == nil {
		cfg.Exclude.Files = []string{"*.test.ts", "*.spec.ts"}
	}

	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 300 * time.Millisecond
	}
	if cfg.Watch.MaxRunsPerSecond == 0 {
		cfg.Watch.MaxRunsPerSecond = 2
	}

	if strings.TrimSpace(cfg.Index.Path) == "" {
		cfg.Index.Path = "data/tsresolve.db"
	}
	if cfg.Index.BusyTimeout <= 0 {
		cfg.Index.BusyTimeout = 5 * time.Second
	}

	if strings.TrimSpace(cfg.Log.Level) == "" {
		cfg.Log.Level = "info"
	}
	if strings.TrimSpace(cfg.Log.Format) == "" {
		cfg.Log.Format = "text"
	}
}
