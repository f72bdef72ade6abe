package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes environment overrides, e.g. HEALTHRISK_DB_PATH.
const EnvPrefix = "HEALTHRISK"

// Global configuration structure.
type Global struct {
	BasePath     string `mapstructure:"base_path" yaml:"base_path"`
	RawData      string `mapstructure:"raw_data" yaml:"raw_data"`
	CleanData    string `mapstructure:"clean_data" yaml:"clean_data"`
	DashboardDir string `mapstructure:"dashboard_dir" yaml:"dashboard_dir"`
	DBPath       string `mapstructure:"db_path" yaml:"db_path"`

	// Chart size in inches
	ChartWidthIn  float64 `mapstructure:"chart_width_in" yaml:"chart_width_in"`
	ChartHeightIn float64 `mapstructure:"chart_height_in" yaml:"chart_height_in"`

	KPIFormat string `mapstructure:"kpi_format" yaml:"kpi_format"`
	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
}

var defaults = map[string]any{
	"base_path":       ".",
	"raw_data":        "data/raw/insurance.csv",
	"clean_data":      "data/processed/cleaned_insurance.csv",
	"dashboard_dir":   "dashboard",
	"db_path":         "healthcare.db",
	"chart_width_in":  8.0,
	"chart_height_in": 5.0,
	"kpi_format":      "table",
	"log_level":       "info",
}

// Keys lists the configuration keys in sorted order.
func Keys() []string {
	keys := make([]string, 0, len(defaults))
	for k := range defaults {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Default returns the built-in configuration.
func Default() *Global {
	return &Global{
		BasePath:      ".",
		RawData:       "data/raw/insurance.csv",
		CleanData:     "data/processed/cleaned_insurance.csv",
		DashboardDir:  "dashboard",
		DBPath:        "healthcare.db",
		ChartWidthIn:  8,
		ChartHeightIn: 5,
		KPIFormat:     "table",
		LogLevel:      "info",
	}
}

// DefaultPath returns ~/.healthrisk/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".healthrisk", "config.yaml"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.healthrisk/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (applied by the caller) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		v.AddConfigPath(filepath.Join(home, ".healthrisk"))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		// The default file is optional, but a broken one is an error.
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config %s: %w", filepath.Join(home, ".healthrisk", "config.yaml"), err)
			}
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}

// Resolve joins a relative path onto BasePath. Absolute paths and ":memory:" are returned as is.
func (c *Global) Resolve(p string) string {
	if p == "" || p == ":memory:" || filepath.IsAbs(p) {
		return p
	}
	base := c.BasePath
	if base == "" {
		base = "."
	}
	return filepath.Join(base, p)
}

// Set assigns a value by key, parsing numbers where the field needs one.
func (c *Global) Set(key, value string) error {
	value = strings.TrimSpace(value)
	switch key {
	case "base_path":
		c.BasePath = value
	case "raw_data":
		c.RawData = value
	case "clean_data":
		c.CleanData = value
	case "dashboard_dir":
		c.DashboardDir = value
	case "db_path":
		c.DBPath = value
	case "chart_width_in", "chart_height_in":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f <= 0 {
			return fmt.Errorf("%s must be a positive number, got %q", key, value)
		}
		if key == "chart_width_in" {
			c.ChartWidthIn = f
		} else {
			c.ChartHeightIn = f
		}
	case "kpi_format":
		switch value {
		case "table", "json", "csv", "md":
			c.KPIFormat = value
		default:
			return fmt.Errorf("kpi_format must be one of table, json, csv, md; got %q", value)
		}
	case "log_level":
		switch strings.ToLower(value) {
		case "debug", "info", "warn", "error":
			c.LogLevel = strings.ToLower(value)
		default:
			return fmt.Errorf("log_level must be one of debug, info, warn, error; got %q", value)
		}
	default:
		return fmt.Errorf("unknown config key %q (valid: %s)", key, strings.Join(Keys(), ", "))
	}
	return nil
}
