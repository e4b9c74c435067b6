package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/eugenenazirov/barbell-plates/internal/calculator"
	"github.com/eugenenazirov/barbell-plates/internal/units"
)

const (
	defaultPort           = "8080"
	defaultLogLevel       = "info"
	defaultRateLimitRPS   = 25.0
	defaultRateLimitBurst = 50
)

// Config aggregates runtime configuration resolved from multiple sources.
// Precedence: CLI flags > YAML config > Environment variables > Defaults
type Config struct {
	Port                 string
	Inventories          calculator.Inventories
	Bars                 units.BarCatalog
	StoragePath          string
	LogLevel             string
	ShutdownGracePeriod  time.Duration
	ReadHeaderTimeout    time.Duration
	WriteTimeout         time.Duration
	IdleTimeout          time.Duration
	EnableRequestLogging bool
	EnableMCP            bool
	RateLimitRPS         float64
	RateLimitBurst       int
}

// Setup returns the calculator setup described by the configuration.
func (c Config) Setup() calculator.Setup {
	return calculator.Setup{
		Inventories: c.Inventories.Clone(),
		Bars:        c.Bars.Clone(),
	}
}

// yamlConfig represents the YAML configuration file structure.
type yamlConfig struct {
	Port                 string             `yaml:"port"`
	Plates               yamlPlates         `yaml:"plates"`
	Bars                 map[string]yamlBar `yaml:"bars"`
	StoragePath          string             `yaml:"storage_path"`
	LogLevel             string             `yaml:"log_level"`
	ShutdownGracePeriod  string             `yaml:"shutdown_grace_period"`
	ReadHeaderTimeout    string             `yaml:"read_header_timeout"`
	WriteTimeout         string             `yaml:"write_timeout"`
	IdleTimeout          string             `yaml:"idle_timeout"`
	EnableRequestLogging *bool              `yaml:"enable_request_logging"`
	EnableMCP            *bool              `yaml:"enable_mcp"`
	RateLimit            yamlRateLimit      `yaml:"rate_limit"`
}

// yamlPlates represents the plates section in YAML.
type yamlPlates struct {
	Coarse *yamlInventory `yaml:"coarse"`
	Fine   *yamlInventory `yaml:"fine"`
}

type yamlInventory struct {
	Unit    string    `yaml:"unit"`
	Weights []float64 `yaml:"weights"`
}

type yamlBar struct {
	Weight float64 `yaml:"weight"`
	Unit   string  `yaml:"unit"`
}

// yamlRateLimit represents the rate limit section in YAML.
type yamlRateLimit struct {
	RPS   *float64 `yaml:"rps"`
	Burst *int     `yaml:"burst"`
}

// CLIOverrides holds command-line flag overrides.
type CLIOverrides struct {
	ConfigFile     string
	Port           *string
	CoarsePlates   *string
	FinePlates     *string
	StoragePath    *string
	LogLevel       *string
	RateLimitRPS   *float64
	RateLimitBurst *int
	EnableMCP      *bool
}

// Load extracts configuration from multiple sources with precedence:
// CLI flags > YAML config > Environment variables > Defaults
func Load(overrides *CLIOverrides) (Config, error) {
	cfg := defaultConfig()

	if err := applyEnvConfig(&cfg); err != nil {
		return Config{}, err
	}

	if overrides != nil && overrides.ConfigFile != "" {
		yamlCfg, err := loadFromFile(overrides.ConfigFile)
		if err != nil {
			return Config{}, fmt.Errorf("load YAML config: %w", err)
		}
		if err := applyYAMLConfig(&cfg, yamlCfg); err != nil {
			return Config{}, fmt.Errorf("apply YAML config: %w", err)
		}
	}

	if overrides != nil {
		if err := applyCLIOverrides(&cfg, overrides); err != nil {
			return Config{}, err
		}
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// defaultConfig returns a Config with default values.
func defaultConfig() Config {
	return Config{
		Port:                 defaultPort,
		Inventories:          calculator.DefaultInventories(),
		Bars:                 units.DefaultBars(),
		LogLevel:             defaultLogLevel,
		ShutdownGracePeriod:  10 * time.Second,
		ReadHeaderTimeout:    5 * time.Second,
		WriteTimeout:         15 * time.Second,
		IdleTimeout:          60 * time.Second,
		EnableRequestLogging: true,
		EnableMCP:            true,
		RateLimitRPS:         defaultRateLimitRPS,
		RateLimitBurst:       defaultRateLimitBurst,
	}
}

// loadFromFile loads configuration from a YAML file.
func loadFromFile(path string) (*yamlConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var yamlCfg yamlConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}

	return &yamlCfg, nil
}

// applyYAMLConfig applies YAML configuration to the Config struct.
func applyYAMLConfig(cfg *Config, yamlCfg *yamlConfig) error {
	if yamlCfg.Port != "" {
		cfg.Port = yamlCfg.Port
	}

	if yamlCfg.Plates.Coarse != nil {
		inv, err := yamlCfg.Plates.Coarse.inventory()
		if err != nil {
			return fmt.Errorf("coarse plates: %w", err)
		}
		cfg.Inventories.Coarse = inv
	}

	if yamlCfg.Plates.Fine != nil {
		inv, err := yamlCfg.Plates.Fine.inventory()
		if err != nil {
			return fmt.Errorf("fine plates: %w", err)
		}
		cfg.Inventories.Fine = inv
	}

	if len(yamlCfg.Bars) > 0 {
		bars := make(units.BarCatalog, len(yamlCfg.Bars))
		for name, bar := range yamlCfg.Bars {
			unit, err := units.ParseUnit(bar.Unit)
			if err != nil {
				return fmt.Errorf("bar %q: %w", name, err)
			}
			bars[units.BarType(name)] = units.BarSpec{Type: units.BarType(name), Weight: bar.Weight, Unit: unit}
		}
		cfg.Bars = bars
	}

	if yamlCfg.StoragePath != "" {
		cfg.StoragePath = yamlCfg.StoragePath
	}

	if yamlCfg.LogLevel != "" {
		cfg.LogLevel = yamlCfg.LogLevel
	}

	if yamlCfg.ShutdownGracePeriod != "" {
		if d, err := time.ParseDuration(yamlCfg.ShutdownGracePeriod); err == nil {
			cfg.ShutdownGracePeriod = d
		}
	}

	if yamlCfg.ReadHeaderTimeout != "" {
		if d, err := time.ParseDuration(yamlCfg.ReadHeaderTimeout); err == nil {
			cfg.ReadHeaderTimeout = d
		}
	}

	if yamlCfg.WriteTimeout != "" {
		if d, err := time.ParseDuration(yamlCfg.WriteTimeout); err == nil {
			cfg.WriteTimeout = d
		}
	}

	if yamlCfg.IdleTimeout != "" {
		if d, err := time.ParseDuration(yamlCfg.IdleTimeout); err == nil {
			cfg.IdleTimeout = d
		}
	}

	if yamlCfg.EnableRequestLogging != nil {
		cfg.EnableRequestLogging = *yamlCfg.EnableRequestLogging
	}

	if yamlCfg.EnableMCP != nil {
		cfg.EnableMCP = *yamlCfg.EnableMCP
	}

	if yamlCfg.RateLimit.RPS != nil && *yamlCfg.RateLimit.RPS >= 0 {
		cfg.RateLimitRPS = *yamlCfg.RateLimit.RPS
	}

	if yamlCfg.RateLimit.Burst != nil && *yamlCfg.RateLimit.Burst >= 0 {
		cfg.RateLimitBurst = *yamlCfg.RateLimit.Burst
	}

	return nil
}

func (y yamlInventory) inventory() (calculator.Inventory, error) {
	unit, err := units.ParseUnit(y.Unit)
	if err != nil {
		return calculator.Inventory{}, err
	}
	return calculator.Inventory{Unit: unit, Plates: y.Weights}, nil
}

// applyEnvConfig applies environment variable configuration.
func applyEnvConfig(cfg *Config) error {
	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		cfg.Port = port
	}

	if raw := strings.TrimSpace(os.Getenv("COARSE_PLATES")); raw != "" {
		inv, err := parseInventory(raw, cfg.Inventories.Coarse.Unit)
		if err != nil {
			return fmt.Errorf("COARSE_PLATES: %w", err)
		}
		cfg.Inventories.Coarse = inv
	}

	if raw := strings.TrimSpace(os.Getenv("FINE_PLATES")); raw != "" {
		inv, err := parseInventory(raw, cfg.Inventories.Fine.Unit)
		if err != nil {
			return fmt.Errorf("FINE_PLATES: %w", err)
		}
		cfg.Inventories.Fine = inv
	}

	if path := strings.TrimSpace(os.Getenv("STORAGE_PATH")); path != "" {
		cfg.StoragePath = path
	}

	if level := strings.TrimSpace(os.Getenv("LOG_LEVEL")); level != "" {
		cfg.LogLevel = level
	}

	if enabled := strings.TrimSpace(os.Getenv("ENABLE_MCP")); enabled != "" {
		if value, err := strconv.ParseBool(enabled); err == nil {
			cfg.EnableMCP = value
		}
	}

	if rps := strings.TrimSpace(os.Getenv("RATE_LIMIT_RPS")); rps != "" {
		if value, err := strconv.ParseFloat(rps, 64); err == nil && value >= 0 {
			cfg.RateLimitRPS = value
		}
	}

	if burst := strings.TrimSpace(os.Getenv("RATE_LIMIT_BURST")); burst != "" {
		if value, err := strconv.Atoi(burst); err == nil && value >= 0 {
			cfg.RateLimitBurst = value
		}
	}

	return nil
}

// applyCLIOverrides applies command-line flag overrides.
func applyCLIOverrides(cfg *Config, overrides *CLIOverrides) error {
	if overrides.Port != nil && *overrides.Port != "" {
		cfg.Port = *overrides.Port
	}

	if overrides.CoarsePlates != nil && *overrides.CoarsePlates != "" {
		inv, err := parseInventory(*overrides.CoarsePlates, cfg.Inventories.Coarse.Unit)
		if err != nil {
			return fmt.Errorf("parse coarse plates: %w", err)
		}
		cfg.Inventories.Coarse = inv
	}

	if overrides.FinePlates != nil && *overrides.FinePlates != "" {
		inv, err := parseInventory(*overrides.FinePlates, cfg.Inventories.Fine.Unit)
		if err != nil {
			return fmt.Errorf("parse fine plates: %w", err)
		}
		cfg.Inventories.Fine = inv
	}

	if overrides.StoragePath != nil && *overrides.StoragePath != "" {
		cfg.StoragePath = *overrides.StoragePath
	}

	if overrides.LogLevel != nil && *overrides.LogLevel != "" {
		cfg.LogLevel = *overrides.LogLevel
	}

	if overrides.EnableMCP != nil {
		cfg.EnableMCP = *overrides.EnableMCP
	}

	if overrides.RateLimitRPS != nil && *overrides.RateLimitRPS >= 0 {
		cfg.RateLimitRPS = *overrides.RateLimitRPS
	}

	if overrides.RateLimitBurst != nil && *overrides.RateLimitBurst >= 0 {
		cfg.RateLimitBurst = *overrides.RateLimitBurst
	}

	return nil
}

// validateConfig validates the final configuration.
func validateConfig(cfg Config) error {
	if cfg.RateLimitRPS < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must be >= 0")
	}
	if cfg.RateLimitBurst < 0 {
		return fmt.Errorf("RATE_LIMIT_BURST must be >= 0")
	}
	if err := cfg.Inventories.Validate(); err != nil {
		return fmt.Errorf("invalid plates: %w", err)
	}
	if err := cfg.Bars.Validate(); err != nil {
		return fmt.Errorf("invalid bars: %w", err)
	}
	if _, err := zapcore.ParseLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	return nil
}

// parseInventory parses "lb:45,35,25" into an Inventory. When the unit prefix is
// omitted, fallback is used. Plates must be listed heaviest first.
func parseInventory(raw string, fallback units.Unit) (calculator.Inventory, error) {
	unit := fallback
	if prefix, rest, ok := strings.Cut(raw, ":"); ok {
		parsed, err := units.ParseUnit(prefix)
		if err != nil {
			return calculator.Inventory{}, err
		}
		unit, raw = parsed, rest
	}

	plates, err := parsePlates(raw)
	if err != nil {
		return calculator.Inventory{}, err
	}
	return calculator.Inventory{Unit: unit, Plates: plates}, nil
}

// parsePlates parses a comma-separated string of plate weights.
// It validates that all values are positive numbers.
func parsePlates(raw string) ([]float64, error) {
	parts := strings.Split(raw, ",")
	plates := make([]float64, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		value, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", part)
		}
		if !(value > 0) {
			return nil, fmt.Errorf("plate weight must be positive, got %v", value)
		}
		plates = append(plates, value)
	}
	if len(plates) == 0 {
		return nil, fmt.Errorf("no plates provided")
	}
	return plates, nil
}
