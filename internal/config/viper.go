// Package config provides Viper-based hierarchical configuration management
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every configuration environment variable.
const EnvPrefix = "STATEMENTS"

// Config represents the complete application configuration
type Config struct {
	Log struct {
		Level  string `mapstructure:"level" yaml:"level"`
		Format string `mapstructure:"format" yaml:"format"`
	} `mapstructure:"log" yaml:"log"`

	CSV struct {
		Delimiter string `mapstructure:"delimiter" yaml:"delimiter"`
	} `mapstructure:"csv" yaml:"csv"`

	Data struct {
		Directory  string `mapstructure:"directory" yaml:"directory"`
		Database   string `mapstructure:"database" yaml:"database"`
		Keywords   string `mapstructure:"keywords" yaml:"keywords"`
		Categories string `mapstructure:"categories" yaml:"categories"`
	} `mapstructure:"data" yaml:"data"`

	Parsers struct {
		BudgetSeconds int `mapstructure:"budget_seconds" yaml:"budget_seconds"`
		DKB           struct {
			PreambleLines int `mapstructure:"preamble_lines" yaml:"preamble_lines"`
		} `mapstructure:"dkb" yaml:"dkb"`
		Amex struct {
			ReferenceYear int    `mapstructure:"reference_year" yaml:"reference_year"`
			PDFToText     string `mapstructure:"pdftotext" yaml:"pdftotext"`
		} `mapstructure:"amex" yaml:"amex"`
	} `mapstructure:"parsers" yaml:"parsers"`
}

// InitializeConfig loads defaults, the optional config.yaml and the
// environment, in increasing precedence.
func InitializeConfig() (*Config, error) {
	return InitializeConfigFromFile("")
}

// InitializeConfigFromFile is InitializeConfig with an explicit config file.
// An empty path searches $HOME/.statements, ./.statements and ./ instead.
func InitializeConfigFromFile(path string) (*Config, error) {
	v := viper.New()

	// 1. Set defaults
	setDefaults(v)

	// 2. Config file locations
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("$HOME/.statements")
		v.AddConfigPath(".statements")
		v.AddConfigPath(".")
	}

	// 3. Environment variables
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	if err := bindDeploymentEnv(v); err != nil {
		return nil, err
	}

	// 4. Read config file (optional unless given explicitly)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file %s: %w", v.ConfigFileUsed(), err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 5. Validate configuration
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// bindDeploymentEnv keeps the unprefixed variable names used by existing
// deployments working next to the prefixed ones.
func bindDeploymentEnv(v *viper.Viper) error {
	bindings := map[string]string{
		"data.directory":  "DATA_DIR",
		"data.database":   "DB_PATH",
		"data.keywords":   "KEYWORDS_PATH",
		"data.categories": "CATEGORIES_PATH",
		"log.level":       "LOG_LEVEL",
		"log.format":      "LOG_FORMAT",
	}
	for key, legacy := range bindings {
		prefixed := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, legacy); err != nil {
			return fmt.Errorf("failed to bind %s environment variable: %w", legacy, err)
		}
	}
	return nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("csv.delimiter", ",")

	v.SetDefault("data.directory", "")
	v.SetDefault("data.database", "")
	v.SetDefault("data.keywords", "")
	v.SetDefault("data.categories", "")

	v.SetDefault("parsers.budget_seconds", 60)
	v.SetDefault("parsers.dkb.preamble_lines", 4)
	v.SetDefault("parsers.amex.reference_year", 0)
	v.SetDefault("parsers.amex.pdftotext", "pdftotext")
}

// validateConfig validates the configuration values
func validateConfig(config *Config) error {
	if _, err := logrus.ParseLevel(config.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %s", config.Log.Level)
	}

	if config.Log.Format != "text" && config.Log.Format != "json" {
		return fmt.Errorf("invalid log format: %s (must be 'text' or 'json')", config.Log.Format)
	}

	if len(config.CSV.Delimiter) != 1 {
		return fmt.Errorf("CSV delimiter must be a single character, got: %s", config.CSV.Delimiter)
	}

	if config.Parsers.BudgetSeconds < 0 {
		return fmt.Errorf("parsers.budget_seconds must not be negative, got: %d", config.Parsers.BudgetSeconds)
	}

	if config.Parsers.DKB.PreambleLines < 0 || config.Parsers.DKB.PreambleLines > 100 {
		return fmt.Errorf("parsers.dkb.preamble_lines must be between 0 and 100, got: %d", config.Parsers.DKB.PreambleLines)
	}

	if y := config.Parsers.Amex.ReferenceYear; y != 0 && (y < 1970 || y > 9999) {
		return fmt.Errorf("parsers.amex.reference_year must be 0 or a four-digit year, got: %d", y)
	}

	return nil
}

// ParseBudget returns the per-document parse budget; zero means unlimited.
func (c *Config) ParseBudget() time.Duration {
	return time.Duration(c.Parsers.BudgetSeconds) * time.Second
}

// DatabasePath is data.database, or transactions.db in the data directory.
func (c *Config) DatabasePath() string {
	return c.dataFile(c.Data.Database, "transactions.db")
}

// KeywordsPath is data.keywords, or keywords.json in the data directory.
func (c *Config) KeywordsPath() string {
	return c.dataFile(c.Data.Keywords, "keywords.json")
}

// CategoriesPath is data.categories, or categories.json in the data
// directory.
func (c *Config) CategoriesPath() string {
	return c.dataFile(c.Data.Categories, "categories.json")
}

func (c *Config) dataFile(explicit, name string) string {
	if explicit != "" {
		return explicit
	}
	return filepath.Join(c.Data.Directory, name)
}

// CSVDelimiter returns the export delimiter as a rune.
func (c *Config) CSVDelimiter() rune {
	return rune(c.CSV.Delimiter[0])
}
