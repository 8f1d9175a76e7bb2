package engine

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// fileConfig mirrors the subset of EngineConfig a user may override from
// a config file. Zero values mean "not set in the file" and are left at
// the EngineConfig default, matching the non-zero-value merge convention
// blueman82-conductor's internal/config/config.go uses for its own
// YAML overlay.
type fileConfig struct {
	BasePaths              []string  `yaml:"base_paths"`
	RefreshIntervalSeconds int       `yaml:"refresh_interval_seconds"`
	P90CommonLimits        []float64 `yaml:"p90_common_limits"`
	P90LimitThreshold      float64   `yaml:"p90_limit_threshold"`
	P90DefaultMinLimit     float64   `yaml:"p90_default_min_limit"`
	P90CacheTTLSeconds     int       `yaml:"p90_cache_ttl_seconds"`
	SessionDurationHours   float64   `yaml:"session_duration_hours"`
	StrictUnknownModels    bool      `yaml:"strict_unknown_models"`
	CachePath              string    `yaml:"cache_path"`
}

// DefaultConfigPath returns $HOME/.ccdash/config.yaml, or "" if $HOME
// cannot be resolved.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ""
	}
	return filepath.Join(home, ".ccdash", "config.yaml")
}

// LoadEngineConfig starts from DefaultEngineConfig and overlays any
// non-zero value found in the YAML file at path. A missing file is not an
// error: it just means the defaults apply. A malformed file is an error.
func LoadEngineConfig(path string) (EngineConfig, error) {
	cfg := DefaultEngineConfig()

	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config file %s: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return cfg, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	if len(fc.BasePaths) > 0 {
		cfg.BasePaths = fc.BasePaths
	}
	if fc.RefreshIntervalSeconds > 0 {
		cfg.RefreshIntervalSeconds = fc.RefreshIntervalSeconds
	}
	if len(fc.P90CommonLimits) > 0 {
		cfg.P90CommonLimits = fc.P90CommonLimits
	}
	if fc.P90LimitThreshold > 0 {
		cfg.P90LimitThreshold = fc.P90LimitThreshold
	}
	if fc.P90DefaultMinLimit > 0 {
		cfg.P90DefaultMinLimit = fc.P90DefaultMinLimit
	}
	if fc.P90CacheTTLSeconds > 0 {
		cfg.P90CacheTTLSeconds = fc.P90CacheTTLSeconds
	}
	if fc.SessionDurationHours > 0 {
		cfg.SessionDurationHours = fc.SessionDurationHours
	}
	if fc.StrictUnknownModels {
		cfg.StrictUnknownModels = fc.StrictUnknownModels
	}
	if fc.CachePath != "" {
		cfg.CachePath = fc.CachePath
	}

	return cfg, nil
}
