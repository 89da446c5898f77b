package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
)

// Config represents the reviewr configuration.
type Config struct {
	Format      string     `json:"format"`
	Out         string     `json:"out,omitempty"`
	FailOn      string     `json:"failOn"`
	Parallelism int        `json:"parallelism"`
	Include     []string   `json:"include,omitempty"`
	Exclude     []string   `json:"exclude"`
	CatalogFile string     `json:"catalogFile,omitempty"`
	Disable     []string   `json:"disable,omitempty"`
	Thresholds  Thresholds `json:"thresholds"`
	Dedupe      Dedupe     `json:"dedupe"`
	Cache       Cache      `json:"cache"`
}

// Thresholds are the complexity cutoffs past which findings are emitted.
type Thresholds struct {
	Cyclomatic       int     `json:"cyclomatic"`
	CyclomaticSevere int     `json:"cyclomaticSevere"`
	Cognitive        int     `json:"cognitive"`
	Maintainability  float64 `json:"maintainability"`
}

// Dedupe controls near-duplicate collapsing.
type Dedupe struct {
	Window     int     `json:"window"`
	Similarity float64 `json:"similarity"`
}

// Cache controls the per-file result cache. Analysis is a pure function of
// file content and configuration, so cached results never go stale except
// through the TTL.
type Cache struct {
	Enabled    bool   `json:"enabled"`
	Dir        string `json:"dir,omitempty"` // empty = platform cache dir
	TTLSeconds int    `json:"ttlSeconds"`
}

// Default returns a Config with all defaults applied.
func Default() Config {
	return Config{
		Format:      "text",
		FailOn:      "none",
		Parallelism: 0, // 0 = number of CPUs
		Exclude:     []string{"vendor/**", "node_modules/**", "**/*.min.js", "**/*.gen.go"},
		Thresholds: Thresholds{
			Cyclomatic:       10,
			CyclomaticSevere: 20,
			Cognitive:        15,
			Maintainability:  65,
		},
		Dedupe: Dedupe{
			Window:     5,
			Similarity: 0.85,
		},
		Cache: Cache{
			Enabled:    false,
			TTLSeconds: 86400,
		},
	}
}

// AnalyzerEnabled reports whether the named analyzer (security, taint,
// metrics, semantic) is enabled. Everything runs unless listed in Disable.
func (c Config) AnalyzerEnabled(name string) bool {
	for _, d := range c.Disable {
		if d == name {
			return false
		}
	}
	return true
}

// ConfigDir returns the platform-appropriate config directory for reviewr.
func ConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "reviewr"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "reviewr"), nil
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "reviewr"), nil
		}
		return filepath.Join(home, "AppData", "Roaming", "reviewr"), nil
	default:
		return filepath.Join(home, ".config", "reviewr"), nil
	}
}

// ConfigPath returns the full path to the config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// LoadFile loads config from the config file. Returns zero Config and nil error if file doesn't exist.
func LoadFile() (Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return Config{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, nil
		}
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config file: %w", err)
	}
	return cfg, nil
}

// Save writes the config to the config file.
func Save(cfg Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Load builds the effective config by merging: defaults <- file <- env <- overrides.
// The overrides map comes from CLI flags (only non-zero values should be set).
func Load(overrides map[string]string) (Config, error) {
	cfg := Default()

	fileCfg, err := LoadFile()
	if err != nil {
		return Config{}, err
	}
	mergeFile(&cfg, fileCfg)
	mergeEnv(&cfg)
	mergeOverrides(&cfg, overrides)

	return cfg, nil
}

func mergeFile(dst *Config, src Config) {
	if src.Format != "" {
		dst.Format = src.Format
	}
	if src.Out != "" {
		dst.Out = src.Out
	}
	if src.FailOn != "" {
		dst.FailOn = src.FailOn
	}
	if src.Parallelism > 0 {
		dst.Parallelism = src.Parallelism
	}
	if len(src.Include) > 0 {
		dst.Include = src.Include
	}
	if len(src.Exclude) > 0 {
		dst.Exclude = src.Exclude
	}
	if src.CatalogFile != "" {
		dst.CatalogFile = src.CatalogFile
	}
	if len(src.Disable) > 0 {
		dst.Disable = src.Disable
	}
	if src.Thresholds.Cyclomatic > 0 {
		dst.Thresholds.Cyclomatic = src.Thresholds.Cyclomatic
	}
	if src.Thresholds.CyclomaticSevere > 0 {
		dst.Thresholds.CyclomaticSevere = src.Thresholds.CyclomaticSevere
	}
	if src.Thresholds.Cognitive > 0 {
		dst.Thresholds.Cognitive = src.Thresholds.Cognitive
	}
	if src.Thresholds.Maintainability > 0 {
		dst.Thresholds.Maintainability = src.Thresholds.Maintainability
	}
	if src.Dedupe.Window > 0 {
		dst.Dedupe.Window = src.Dedupe.Window
	}
	if src.Dedupe.Similarity > 0 {
		dst.Dedupe.Similarity = src.Dedupe.Similarity
	}
	if src.Cache.Enabled {
		dst.Cache.Enabled = true
	}
	if src.Cache.Dir != "" {
		dst.Cache.Dir = src.Cache.Dir
	}
	if src.Cache.TTLSeconds > 0 {
		dst.Cache.TTLSeconds = src.Cache.TTLSeconds
	}
}

func mergeEnv(cfg *Config) {
	if v := os.Getenv("REVIEWR_FORMAT"); v != "" {
		cfg.Format = v
	}
	if v := os.Getenv("REVIEWR_FAIL_ON"); v != "" {
		cfg.FailOn = v
	}
	if v := os.Getenv("REVIEWR_CATALOG"); v != "" {
		cfg.CatalogFile = v
	}
	if v := os.Getenv("REVIEWR_PARALLELISM"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Parallelism = n
		}
	}
}

func mergeOverrides(cfg *Config, overrides map[string]string) {
	if overrides == nil {
		return
	}
	if v, ok := overrides["format"]; ok && v != "" {
		cfg.Format = v
	}
	if v, ok := overrides["out"]; ok && v != "" {
		cfg.Out = v
	}
	if v, ok := overrides["failOn"]; ok && v != "" {
		cfg.FailOn = v
	}
	if v, ok := overrides["catalogFile"]; ok && v != "" {
		cfg.CatalogFile = v
	}
	if v, ok := overrides["parallelism"]; ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Parallelism = n
		}
	}
	if v, ok := overrides["cache"]; ok && v != "" {
		cfg.Cache.Enabled = v == "true"
	}
}

// SetField sets a single config field by key name. Returns error if key is unknown.
func SetField(cfg *Config, key, value string) error {
	switch key {
	case "format":
		cfg.Format = value
	case "failOn":
		cfg.FailOn = value
	case "catalogFile":
		cfg.CatalogFile = value
	case "parallelism":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("parallelism must be an integer: %w", err)
		}
		cfg.Parallelism = n
	case "thresholds.cyclomatic":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("thresholds.cyclomatic must be an integer: %w", err)
		}
		cfg.Thresholds.Cyclomatic = n
	case "thresholds.cognitive":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("thresholds.cognitive must be an integer: %w", err)
		}
		cfg.Thresholds.Cognitive = n
	case "thresholds.maintainability":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("thresholds.maintainability must be a number: %w", err)
		}
		cfg.Thresholds.Maintainability = f
	case "dedupe.window":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("dedupe.window must be an integer: %w", err)
		}
		cfg.Dedupe.Window = n
	case "dedupe.similarity":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("dedupe.similarity must be a number: %w", err)
		}
		cfg.Dedupe.Similarity = f
	case "cache.enabled":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("cache.enabled must be true or false: %w", err)
		}
		cfg.Cache.Enabled = b
	case "cache.dir":
		cfg.Cache.Dir = value
	case "cache.ttlSeconds":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("cache.ttlSeconds must be an integer: %w", err)
		}
		cfg.Cache.TTLSeconds = n
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}
