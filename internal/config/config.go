package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/banshee-data/gfe-panel/internal/export"
	"github.com/banshee-data/gfe-panel/internal/monitoring"
	"github.com/banshee-data/gfe-panel/internal/panel"
)

// EnvPrefix prefixes every environment override, e.g. GFE_SEED.
const EnvPrefix = "GFE"

// Defaults not covered by panel.DefaultConfig.
const (
	DefaultSeed      uint64 = 5
	DefaultOutputDir        = "."
	DefaultFormats          = "dta"
	DefaultLogLevel         = "info"
	DefaultCaseStudy        = "5yearpanel_GFE.dta"
)

// Config is the on-disk and environment configuration. Every field is
// optional; the Get* methods supply defaults for anything left unset, so
// partial files are safe.
type Config struct {
	Seed            *uint64   `json:"seed,omitempty" yaml:"seed,omitempty" envconfig:"SEED"`
	Individuals     *int      `json:"individuals,omitempty" yaml:"individuals,omitempty" envconfig:"INDIVIDUALS"`
	Periods         *int      `json:"periods,omitempty" yaml:"periods,omitempty" envconfig:"PERIODS"`
	Groups          *int      `json:"groups,omitempty" yaml:"groups,omitempty" envconfig:"GROUPS"`
	Thresholds      []float64 `json:"thresholds,omitempty" yaml:"thresholds,omitempty" envconfig:"THRESHOLDS"`
	TrendIncrements []float64 `json:"trend_increments,omitempty" yaml:"trend_increments,omitempty" envconfig:"TREND_INCREMENTS"`
	TrendNoise      *float64  `json:"trend_noise,omitempty" yaml:"trend_noise,omitempty" envconfig:"TREND_NOISE"`
	NoiseSD         *float64  `json:"noise_sd,omitempty" yaml:"noise_sd,omitempty" envconfig:"NOISE_SD"`
	BetaX1          *float64  `json:"beta_x1,omitempty" yaml:"beta_x1,omitempty" envconfig:"BETA_X1"`
	BetaX2          *float64  `json:"beta_x2,omitempty" yaml:"beta_x2,omitempty" envconfig:"BETA_X2"`

	OutputDir *string `json:"output_dir,omitempty" yaml:"output_dir,omitempty" envconfig:"OUTPUT_DIR"`
	Formats   *string `json:"formats,omitempty" yaml:"formats,omitempty" envconfig:"FORMATS"`
	DBPath    *string `json:"db_path,omitempty" yaml:"db_path,omitempty" envconfig:"DB_PATH"`
	LogLevel  *string `json:"log_level,omitempty" yaml:"log_level,omitempty" envconfig:"LOG_LEVEL"`
	CaseStudy *string `json:"casestudy_input,omitempty" yaml:"casestudy_input,omitempty" envconfig:"CASESTUDY_INPUT"`
}

// Load reads a Config from a .json, .yaml or .yml file of at most 1MB.
func Load(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	ext := strings.ToLower(filepath.Ext(cleanPath))
	if ext != ".json" && ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("config file must have .json, .yaml or .yml extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if ext == ".json" {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from prefixed environment variables. Unset
// variables leave the field untouched.
func (c *Config) ApplyEnv(prefix string) error {
	if err := envconfig.Process(prefix, c); err != nil {
		return fmt.Errorf("failed to load config from env: %w", err)
	}
	return c.Validate()
}

// Validate checks the fields that can be checked on their own. Cross-field
// panel rules are left to panel.Config.Validate.
func (c *Config) Validate() error {
	if c.Formats != nil {
		if _, err := export.ParseFormats(*c.Formats); err != nil {
			return fmt.Errorf("invalid formats %q: %w", *c.Formats, err)
		}
	}
	if c.LogLevel != nil {
		if _, err := monitoring.ParseLevel(*c.LogLevel); err != nil {
			return err
		}
	}
	if c.TrendNoise != nil && *c.TrendNoise < 0 {
		return fmt.Errorf("trend_noise must be non-negative, got %f", *c.TrendNoise)
	}
	if c.NoiseSD != nil && *c.NoiseSD < 0 {
		return fmt.Errorf("noise_sd must be non-negative, got %f", *c.NoiseSD)
	}
	return nil
}

// GetSeed returns the seed or the default.
func (c *Config) GetSeed() uint64 {
	if c.Seed == nil {
		return DefaultSeed
	}
	return *c.Seed
}

// GetOutputDir returns the output directory or the default.
func (c *Config) GetOutputDir() string {
	if c.OutputDir == nil || *c.OutputDir == "" {
		return DefaultOutputDir
	}
	return *c.OutputDir
}

// GetFormats returns the export format list or the default.
func (c *Config) GetFormats() string {
	if c.Formats == nil || *c.Formats == "" {
		return DefaultFormats
	}
	return *c.Formats
}

// GetDBPath returns the database path. Empty disables the store.
func (c *Config) GetDBPath() string {
	if c.DBPath == nil {
		return ""
	}
	return *c.DBPath
}

// GetLogLevel returns the log level or the default.
func (c *Config) GetLogLevel() string {
	if c.LogLevel == nil || *c.LogLevel == "" {
		return DefaultLogLevel
	}
	return *c.LogLevel
}

// GetCaseStudy returns the case study input path or the default.
func (c *Config) GetCaseStudy() string {
	if c.CaseStudy == nil || *c.CaseStudy == "" {
		return DefaultCaseStudy
	}
	return *c.CaseStudy
}

// PanelConfig merges the generator fields over panel.DefaultConfig.
func (c *Config) PanelConfig() panel.Config {
	pc := panel.DefaultConfig()
	if c.Individuals != nil {
		pc.Individuals = *c.Individuals
	}
	if c.Periods != nil {
		pc.Periods = *c.Periods
	}
	if c.Groups != nil {
		pc.Groups = *c.Groups
	}
	if c.Thresholds != nil {
		pc.Thresholds = append([]float64(nil), c.Thresholds...)
	}
	if c.TrendIncrements != nil {
		pc.TrendIncrements = append([]float64(nil), c.TrendIncrements...)
	}
	if c.TrendNoise != nil {
		pc.TrendNoise = *c.TrendNoise
	}
	if c.NoiseSD != nil {
		pc.NoiseSD = *c.NoiseSD
	}
	if c.BetaX1 != nil {
		pc.BetaX1 = *c.BetaX1
	}
	if c.BetaX2 != nil {
		pc.BetaX2 = *c.BetaX2
	}
	return pc
}

// Settings is a fully resolved configuration.
type Settings struct {
	Seed      uint64
	Panel     panel.Config
	OutputDir string          `validate:"required"`
	Formats   []export.Format `validate:"required,min=1"`
	DBPath    string
	LogLevel  string `validate:"oneof=debug info warn warning error"`
	CaseStudy string `validate:"required"`
}

var validate = validator.New()

// Resolve applies defaults and validates the result. Panel rule failures
// wrap panel.ErrInvalidConfig.
func (c *Config) Resolve() (*Settings, error) {
	formats, err := export.ParseFormats(c.GetFormats())
	if err != nil {
		return nil, err
	}
	s := &Settings{
		Seed:      c.GetSeed(),
		Panel:     c.PanelConfig(),
		OutputDir: c.GetOutputDir(),
		Formats:   formats,
		DBPath:    c.GetDBPath(),
		LogLevel:  strings.ToLower(strings.TrimSpace(c.GetLogLevel())),
		CaseStudy: c.GetCaseStudy(),
	}
	if err := validate.Struct(s); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	if err := s.Panel.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}
