// Package config holds every path and tunable of a pipeline run.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Raw input names, used as keys of Config.Inputs.
const (
	InputOrders              = "orders"
	InputItems               = "items"
	InputProducts            = "products"
	InputCategoryTranslation = "category_translation"
	InputPayments            = "payments"
	InputReviews             = "reviews"
	InputCustomers           = "customers"
	InputSellers             = "sellers"
	InputGeolocation         = "geolocation"
	InputMarketingLeads      = "marketing_leads"
	InputClosedDeals         = "closed_deals"
)

// Representative item policies.
const (
	ItemFirst        = "first"
	ItemHighestValue = "highest_value"
)

// Default configuration values
const (
	DefaultRawDir             = "data/raw"
	DefaultProcessedDir       = "data/processed"
	DefaultOutputDir          = "data/final"
	DefaultModelDir           = "data/modeling"
	DefaultFormat             = "csv"
	DefaultBadReviewThreshold = 3
	DefaultTestFraction       = 0.2
	DefaultSeed               = 42
	DefaultLogLevel           = "info"
	DefaultLogFormat          = "console"
)

// DefaultInputs maps each raw input to its file name in the public Olist snapshot.
func DefaultInputs() map[string]string {
	return map[string]string{
		InputOrders:              "olist_orders_dataset.csv",
		InputItems:               "olist_order_items_dataset.csv",
		InputProducts:            "olist_products_dataset.csv",
		InputCategoryTranslation: "product_category_name_translation.csv",
		InputPayments:            "olist_order_payments_dataset.csv",
		InputReviews:             "olist_order_reviews_dataset.csv",
		InputCustomers:           "olist_customers_dataset.csv",
		InputSellers:             "olist_sellers_dataset.csv",
		InputGeolocation:         "olist_geolocation_dataset.csv",
		InputMarketingLeads:      "olist_marketing_qualified_leads_dataset.csv",
		InputClosedDeals:         "olist_closed_deals_dataset.csv",
	}
}

// SplitConfig controls the train/test partition.
type SplitConfig struct {
	TestFraction float64 `json:"test_fraction" yaml:"test_fraction" mapstructure:"test_fraction"`
	Seed         uint64  `json:"seed" yaml:"seed" mapstructure:"seed"`
}

// LoggingConfig selects the slog handler.
type LoggingConfig struct {
	Level  string `json:"level" yaml:"level" mapstructure:"level"`    // debug, info, warn, error
	Format string `json:"format" yaml:"format" mapstructure:"format"` // console or json
}

// Config represents one pipeline run.
type Config struct {
	RawDir       string            `json:"raw_dir" yaml:"raw_dir" mapstructure:"raw_dir"`
	ProcessedDir string            `json:"processed_dir" yaml:"processed_dir" mapstructure:"processed_dir"`
	OutputDir    string            `json:"output_dir" yaml:"output_dir" mapstructure:"output_dir"`
	ModelDir     string            `json:"model_dir" yaml:"model_dir" mapstructure:"model_dir"`
	Format       string            `json:"format" yaml:"format" mapstructure:"format"` // csv or parquet
	Inputs       map[string]string `json:"inputs" yaml:"inputs" mapstructure:"inputs"`

	RepresentativeItem string      `json:"representative_item" yaml:"representative_item" mapstructure:"representative_item"`
	BadReviewThreshold int         `json:"bad_review_threshold" yaml:"bad_review_threshold" mapstructure:"bad_review_threshold"`
	Split              SplitConfig `json:"split" yaml:"split" mapstructure:"split"`
	SkipTextFeatures   bool        `json:"skip_text_features" yaml:"skip_text_features" mapstructure:"skip_text_features"`

	Workers    int           `json:"workers" yaml:"workers" mapstructure:"workers"` // 0 = NumCPU
	SQLitePath string        `json:"sqlite_path" yaml:"sqlite_path" mapstructure:"sqlite_path"`
	Logging    LoggingConfig `json:"logging" yaml:"logging" mapstructure:"logging"`
}

// NewConfig creates a new configuration with default values
func NewConfig() Config {
	return Config{
		RawDir:             DefaultRawDir,
		ProcessedDir:       DefaultProcessedDir,
		OutputDir:          DefaultOutputDir,
		ModelDir:           DefaultModelDir,
		Format:             DefaultFormat,
		Inputs:             DefaultInputs(),
		RepresentativeItem: ItemFirst,
		BadReviewThreshold: DefaultBadReviewThreshold,
		Split: SplitConfig{
			TestFraction: DefaultTestFraction,
			Seed:         DefaultSeed,
		},
		Logging: LoggingConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	for name, dir := range map[string]string{
		"raw_dir":       c.RawDir,
		"processed_dir": c.ProcessedDir,
		"output_dir":    c.OutputDir,
		"model_dir":     c.ModelDir,
	} {
		if strings.TrimSpace(dir) == "" {
			return fmt.Errorf("%s must not be empty", name)
		}
	}

	switch c.Format {
	case "csv", "parquet":
	default:
		return fmt.Errorf("format must be csv or parquet, got %q", c.Format)
	}

	for name := range DefaultInputs() {
		if c.Inputs[name] == "" {
			return fmt.Errorf("inputs.%s must name a file", name)
		}
	}

	switch c.RepresentativeItem {
	case ItemFirst, ItemHighestValue:
	default:
		return fmt.Errorf("representative_item must be %s or %s, got %q", ItemFirst, ItemHighestValue, c.RepresentativeItem)
	}

	if c.BadReviewThreshold < 1 || c.BadReviewThreshold > 4 {
		return fmt.Errorf("bad_review_threshold must be between 1 and 4, got %d", c.BadReviewThreshold)
	}

	if c.Split.TestFraction <= 0 || c.Split.TestFraction >= 1 {
		return fmt.Errorf("split.test_fraction must be in (0, 1), got %v", c.Split.TestFraction)
	}

	if c.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", c.Workers)
	}

	return nil
}

// WithDefaults returns a new configuration with default values filled in for zero values
func (c Config) WithDefaults() Config {
	defaults := NewConfig()

	if c.RawDir == "" {
		c.RawDir = defaults.RawDir
	}
	if c.ProcessedDir == "" {
		c.ProcessedDir = defaults.ProcessedDir
	}
	if c.OutputDir == "" {
		c.OutputDir = defaults.OutputDir
	}
	if c.ModelDir == "" {
		c.ModelDir = defaults.ModelDir
	}
	if c.Format == "" {
		c.Format = defaults.Format
	}
	inputs := defaults.Inputs
	for name, file := range c.Inputs {
		if file != "" {
			inputs[name] = file
		}
	}
	c.Inputs = inputs
	if c.RepresentativeItem == "" {
		c.RepresentativeItem = defaults.RepresentativeItem
	}
	if c.BadReviewThreshold == 0 {
		c.BadReviewThreshold = defaults.BadReviewThreshold
	}
	if c.Split.TestFraction == 0 {
		c.Split.TestFraction = defaults.Split.TestFraction
	}
	if c.Split.Seed == 0 {
		c.Split.Seed = defaults.Split.Seed
	}
	if c.Logging.Level == "" {
		c.Logging.Level = defaults.Logging.Level
	}
	if c.Logging.Format == "" {
		c.Logging.Format = defaults.Logging.Format
	}

	// Note: SkipTextFeatures is not defaulted; false is the default

	return c
}

// WorkerCount resolves Workers, where 0 means one per CPU.
func (c *Config) WorkerCount() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.NumCPU()
}

// RawPath returns the path of a raw input by name.
func (c *Config) RawPath(input string) string {
	return filepath.Join(c.RawDir, c.Inputs[input])
}

// ProcessedPath returns the path of a cleaned table.
func (c *Config) ProcessedPath(table string) string {
	return filepath.Join(c.ProcessedDir, table+"."+c.Format)
}

// OutputPath returns the path of a master table.
func (c *Config) OutputPath(table string) string {
	return filepath.Join(c.OutputDir, table+"."+c.Format)
}

// ModelPath returns the path of a modeling artifact. Names with an
// extension are used as is; bare names get the table format extension.
func (c *Config) ModelPath(name string) string {
	if filepath.Ext(name) == "" {
		name += "." + c.Format
	}
	return filepath.Join(c.ModelDir, name)
}

// LoadFromJSON loads configuration from JSON data
func LoadFromJSON(data []byte) (Config, error) {
	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("parsing JSON configuration: %w", err)
	}
	return config.WithDefaults(), nil
}

// LoadFromFile loads configuration from a JSON or YAML file
func LoadFromFile(filename string) (Config, error) {
	data, err := os.ReadFile(filename) //nolint:gosec // path is supplied by the operator
	if err != nil {
		return Config{}, fmt.Errorf("reading config file %s: %w", filename, err)
	}

	var config Config
	ext := strings.ToLower(filepath.Ext(filename))

	switch ext {
	case ".json":
		return LoadFromJSON(data)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &config)
	default:
		return Config{}, fmt.Errorf("unsupported config file format: %s", ext)
	}

	if err != nil {
		return Config{}, fmt.Errorf("parsing config file %s: %w", filename, err)
	}

	return config.WithDefaults(), nil
}

// Marshal renders the configuration as YAML.
func (c Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
