package config

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"

	"tsresolve/internal/core/errors"
)

// Validate checks a fully defaulted configuration.
func Validate(cfg *Config) error {
	for _, check := range []func(*Config) error{
		validateVersion,
		validateExtensions,
		validateExclude,
		validateResolve,
		validateWatch,
		validateLog,
	} {
		if err := check(cfg); err != nil {
			return err
		}
	}
	return nil
}

func invalid(format string, args ...interface{}) error {
	return errors.Newf(errors.CodeValidationError, format, args...)
}

func validateVersion(cfg *Config) error {
	if cfg.Version < 1 {
		return invalid("version must be >= 1, got %d", cfg.Version)
	}
	if cfg.Version > 1 {
		return invalid("unsupported config version %d; supported version is 1", cfg.Version)
	}
	return nil
}

func validateExtensions(cfg *Config) error {
	seen := make(map[string]bool, len(cfg.Extensions))
	for i, ext := range cfg.Extensions {
		ext = strings.TrimSpace(ext)
		if ext == "" {
			return invalid("extensions[%d] must not be empty", i)
		}
		if !strings.HasPrefix(ext, ".") {
			return invalid("extensions[%d] must start with a dot, got %q", i, ext)
		}
		if seen[ext] {
			return invalid("duplicate extension %q", ext)
		}
		seen[ext] = true
	}
	return nil
}

func validateExclude(cfg *Config) error {
	for i, dir := range cfg.Exclude.Dirs {
		if strings.TrimSpace(dir) == "" {
			return invalid("exclude.dirs[%d] must not be empty", i)
		}
	}
	for i, pattern := range cfg.Exclude.Files {
		if _, err := glob.Compile(pattern); err != nil {
			return invalid("exclude.files[%d]: invalid pattern %q: %v", i, pattern, err)
		}
	}
	return nil
}

func validateResolve(cfg *Config) error {
	for pattern, target := range cfg.Resolve.Aliases {
		if strings.TrimSpace(pattern) == "" {
			return invalid("resolve.aliases keys must not be empty")
		}
		if _, err := glob.Compile(pattern); err != nil {
			return invalid("resolve.aliases: invalid pattern %q: %v", pattern, err)
		}
		if strings.TrimSpace(target) == "" {
			return invalid("resolve.aliases.%q must not be empty", pattern)
		}
		if strings.Count(pattern, "*") > 1 {
			return invalid("resolve.aliases: pattern %q may contain at most one wildcard", pattern)
		}
	}
	return nil
}

func validateWatch(cfg *Config) error {
	if cfg.Watch.Debounce < 0 {
		return invalid("watch.debounce must not be negative")
	}
	if cfg.Watch.MaxRunsPerSecond < 0 {
		return invalid("watch.max_runs_per_second must not be negative")
	}
	return nil
}

func validateLog(cfg *Config) error {
	switch strings.ToLower(cfg.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return invalid("log.level must be one of: debug, info, warn, error")
	}
	switch strings.ToLower(cfg.Log.Format) {
	case "text", "json":
	default:
		return invalid("log.format must be one of: text, json")
	}
	return nil
}

// String summarizes the settings that shape resolution.
func (c *Config) String() string {
	return fmt.Sprintf("root=%s extensions=%v node_modules=%t aliases=%d",
		c.Root, c.Extensions, c.Resolve.NodeModulesEnabled(), len(c.Resolve.Aliases))
}
