// Package config loads application settings (viper + environment) and
// scenario parameter files.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"project_finance/pkg/core/search"
	"project_finance/pkg/report"
)

// EnvPrefix prefixes every environment override, e.g. PFIN_SEARCH_MAX_ITERATIONS.
const EnvPrefix = "PFIN"

// Config aggregates all configuration settings for the application.
type Config struct {
	// LogLevel sets the global logging verbosity.
	LogLevel string `mapstructure:"log_level"`
	// Search holds the boundary-search limits.
	Search SearchConfig `mapstructure:"search"`
	// Targets holds the default return thresholds.
	Targets TargetsConfig `mapstructure:"targets"`
	// Report holds output settings.
	Report ReportConfig `mapstructure:"report"`
}

// SearchConfig mirrors search.Config in file form.
type SearchConfig struct {
	MaxIterations       int     `mapstructure:"max_iterations"`
	PriceTolerance      float64 `mapstructure:"price_tolerance"`
	AEPTolerance        float64 `mapstructure:"aep_tolerance"`
	InvestmentTolerance float64 `mapstructure:"investment_tolerance"`
	ProjectBasis        string  `mapstructure:"project_basis"`
}

// TargetsConfig holds the required IRRs.
type TargetsConfig struct {
	ProjectIRR float64 `mapstructure:"project_irr"`
	EquityIRR  float64 `mapstructure:"equity_irr"`
	// DiscountRate is used for NPV and LCOE in summaries.
	DiscountRate float64 `mapstructure:"discount_rate"`
}

// ReportConfig holds report output settings.
type ReportConfig struct {
	Dir    string `mapstructure:"dir"`
	Format string `mapstructure:"format"`
	Places int32  `mapstructure:"places"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")

	v.SetDefault("search.max_iterations", search.DefaultConfig.MaxIterations)
	v.SetDefault("search.price_tolerance", search.DefaultConfig.PriceTolerance)
	v.SetDefault("search.aep_tolerance", search.DefaultConfig.AEPTolerance)
	v.SetDefault("search.investment_tolerance", search.DefaultConfig.InvestmentTolerance)
	v.SetDefault("search.project_basis", search.DefaultConfig.ProjectBasis.String())

	v.SetDefault("targets.project_irr", 0.08)
	v.SetDefault("targets.equity_irr", 0.10)
	v.SetDefault("targets.discount_rate", 0.08)

	v.SetDefault("report.dir", "reports")
	v.SetDefault("report.format", string(report.FormatMarkdown))
	v.SetDefault("report.places", 2)
}

// Load reads configuration from path, or from pfin.yaml in . or ./configs when
// path is empty. A missing default file is not an error; environment variables
// override both.
func Load(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("pfin")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	// Set default values
	setDefaults(v)

	// Enable environment variable support
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: read: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("config: log_level: %w", err)
	}
	if _, err := search.ParseBasis(c.Search.ProjectBasis); err != nil {
		return fmt.Errorf("config: search.project_basis: %w", err)
	}
	if _, err := report.ParseFormat(c.Report.Format); err != nil {
		return fmt.Errorf("config: report.format: %w", err)
	}
	if c.Search.MaxIterations <= 0 {
		return fmt.Errorf("config: search.max_iterations must be positive, got %d", c.Search.MaxIterations)
	}
	return nil
}

// SolverConfig converts the search section.
func (c *Config) SolverConfig() search.Config {
	basis, _ := search.ParseBasis(c.Search.ProjectBasis)
	return search.Config{
		MaxIterations:       c.Search.MaxIterations,
		PriceTolerance:      c.Search.PriceTolerance,
		AEPTolerance:        c.Search.AEPTolerance,
		InvestmentTolerance: c.Search.InvestmentTolerance,
		ProjectBasis:        basis,
	}
}

// ReportFormat converts the report format name.
func (c *Config) ReportFormat() report.Format {
	f, _ := report.ParseFormat(c.Report.Format)
	return f
}

// NewLogger builds the application logger at the configured level.
func (c *Config) NewLogger() *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if level, err := logrus.ParseLevel(c.LogLevel); err == nil {
		log.SetLevel(level)
	}
	return log
}
