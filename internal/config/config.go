// Package config defines the data structures related to configuration and
// includes functions for loading and validating it.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/iwvelando/ratio-dashboard/internal/ratios"
	"github.com/iwvelando/ratio-dashboard/internal/trend"
	"github.com/iwvelando/ratio-dashboard/pkg/constants"
	"github.com/iwvelando/ratio-dashboard/pkg/validation"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Configuration holds all configuration for ratio-dashboard.
type Configuration struct {
	Inputs         ratios.FinancialInputs `yaml:"inputs" mapstructure:"inputs"`
	CurrencySymbol string                 `yaml:"currencySymbol,omitempty" mapstructure:"currencySymbol"`
	Trends         []TrendRule            `yaml:"trends,omitempty" mapstructure:"trends"`
	Logging        LoggingConfig          `yaml:"logging,omitempty" mapstructure:"logging"`
	Output         OutputConfig           `yaml:"output,omitempty" mapstructure:"output"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty" mapstructure:"level"`           // debug, info, warn, error
	Format     string `yaml:"format,omitempty" mapstructure:"format"`         // json, console
	OutputFile string `yaml:"outputFile,omitempty" mapstructure:"outputFile"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty" mapstructure:"format"` // pretty, csv, json
}

// TrendRule overrides one row of the card classification table.
type TrendRule struct {
	Metric     string  `yaml:"metric" mapstructure:"metric"`
	Comparison string  `yaml:"comparison" mapstructure:"comparison"`
	Threshold  float64 `yaml:"threshold" mapstructure:"threshold"`
	Pass       string  `yaml:"pass" mapstructure:"pass"`
	Fail       string  `yaml:"fail" mapstructure:"fail"`
}

// LoadEnvFile loads KEY=value pairs from envFile into the process environment
// so they can override configuration. A missing file is not an error; an
// empty path tries ./.env.
func LoadEnvFile(envFile string) error {
	if envFile == "" {
		_ = godotenv.Load()
		return nil
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed loading env file %s: %w", envFile, err)
	}
	return nil
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there. A missing file yields the defaults, still subject to
// RATIO_* environment overrides.
func LoadConfiguration(configPath string) (*Configuration, error) {
	if configPath == "" {
		return LoadConfigurationFromReader(nil)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return LoadConfigurationFromReader(nil)
		}
		return nil, fmt.Errorf("error reading config file, %w", err)
	}

	return LoadConfigurationFromReader(bytes.NewReader(data))
}

// LoadConfigurationFromReader loads YAML configuration from r. A nil reader
// yields the defaults.
func LoadConfigurationFromReader(r io.Reader) (*Configuration, error) {
	v := newViper()

	if r != nil {
		if err := v.ReadConfig(r); err != nil {
			return nil, fmt.Errorf("error reading config file, %w", err)
		}
	}

	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %w", err)
	}

	configuration.normalize()
	return &configuration, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yml")
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := ratios.DefaultInputs()
	for _, f := range ratios.Fields() {
		v.SetDefault("inputs."+string(f), defaults.Get(f))
	}
	v.SetDefault("currencySymbol", constants.DefaultCurrencySymbol)
	v.SetDefault("logging.level", "")
	v.SetDefault("logging.format", "")
	v.SetDefault("logging.outputFile", "")
	v.SetDefault("output.format", "")

	return v
}

func (c *Configuration) normalize() {
	c.CurrencySymbol = strings.TrimSpace(c.CurrencySymbol)
	if c.CurrencySymbol == "" {
		c.CurrencySymbol = constants.DefaultCurrencySymbol
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Output.Format = strings.ToLower(strings.TrimSpace(c.Output.Format))
}

// Validate checks the logging, output and trend settings.
func (c *Configuration) Validate() error {
	if err := validation.ValidateLogLevel(c.Logging.Level); err != nil {
		return err
	}
	if err := validation.ValidateLogFormat(c.Logging.Format); err != nil {
		return err
	}
	if c.Output.Format != "" {
		if err := validation.ValidateOutputFormat(c.Output.Format); err != nil {
			return err
		}
	}
	if _, err := c.TrendPolicy(); err != nil {
		return err
	}
	return nil
}

// TrendPolicy builds the card classification policy. Without configured
// trends the default table is used.
func (c *Configuration) TrendPolicy() (*trend.Policy, error) {
	if len(c.Trends) == 0 {
		return trend.DefaultPolicy(), nil
	}

	rules := make([]trend.Rule, 0, len(c.Trends))
	for i, tr := range c.Trends {
		metric, err := ratios.ParseMetric(tr.Metric)
		if err != nil {
			return nil, fmt.Errorf("trends[%d]: %w", i, err)
		}
		rules = append(rules, trend.Rule{
			Metric:     metric,
			Comparison: trend.Comparison(strings.TrimSpace(tr.Comparison)),
			Threshold:  tr.Threshold,
			Pass:       trend.Label(tr.Pass),
			Fail:       trend.Label(tr.Fail),
		})
	}

	policy, err := trend.NewPolicy(rules)
	if err != nil {
		return nil, fmt.Errorf("invalid trends: %w", err)
	}
	return policy, nil
}
