package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvOverrides applies environment variable overrides to the configuration.
// Pattern: TSRESOLVE_[SECTION]_[KEY] (e.g., TSRESOLVE_INDEX_PATH).
func ApplyEnvOverrides(cfg *Config) {
	setEnvString(&cfg.Root, "TSRESOLVE_ROOT")
	setEnvString(&cfg.Universe, "TSRESOLVE_UNIVERSE")

	if val, ok := os.LookupEnv("TSRESOLVE_RESOLVE_NODE_MODULES"); ok {
		if b, err := strconv.ParseBool(strings.ToLower(val)); err == nil {
			logOverride("TSRESOLVE_RESOLVE_NODE_MODULES", val)
			cfg.Resolve.NodeModules = &b
		}
	}

	setEnvDuration(&cfg.Watch.Debounce, "TSRESOLVE_WATCH_DEBOUNCE")
	setEnvFloat64(&cfg.Watch.MaxRunsPerSecond, "TSRESOLVE_WATCH_MAX_RUNS_PER_SECOND")

	setEnvString(&cfg.Index.Path, "TSRESOLVE_INDEX_PATH")
	setEnvDuration(&cfg.Index.BusyTimeout, "TSRESOLVE_INDEX_BUSY_TIMEOUT")

	setEnvString(&cfg.Observability.MetricsAddr, "TSRESOLVE_OBSERVABILITY_METRICS_ADDR")
	setEnvString(&cfg.Observability.OTLPEndpoint, "TSRESOLVE_OBSERVABILITY_OTLP_ENDPOINT")

	setEnvString(&cfg.Log.Level, "TSRESOLVE_LOG_LEVEL")
	setEnvString(&cfg.Log.Format, "TSRESOLVE_LOG_FORMAT")
}

func logOverride(key, val string) {
	slog.Debug("applying env override", "key", key, "value", val)
}

func setEnvString(target *string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		logOverride(key, val)
		*target = val
	}
}

func setEnvFloat64(target *float64, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			logOverride(key, val)
			*target = f
		}
	}
}

func setEnvDuration(target *time.Duration, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			logOverride(key, val)
			*target = d
		}
	}
}
