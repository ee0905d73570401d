package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	DataDir    string `env:"CATALOG_DATA_DIR" envDefault:"data"`
	ReportsDir string `env:"CATALOG_REPORTS_DIR" envDefault:"reports"`
	TempDir    string `env:"CATALOG_TEMP_DIR" envDefault:"temp"`

	ProductPrefix string `env:"CATALOG_PRODUCT_PREFIX" envDefault:"product"`
	ProductFile   string `env:"CATALOG_PRODUCT_FILE" envDefault:"product{0}.txt"`
	ReviewsFile   string `env:"CATALOG_REVIEWS_FILE" envDefault:"reviews{0}.txt"`
	ReportFile    string `env:"CATALOG_REPORT_FILE" envDefault:"product{0}report{1}.txt"`
	SnapshotFile  string `env:"CATALOG_SNAPSHOT_FILE" envDefault:"{0}.tmp"`

	FieldSeparator string `env:"CATALOG_FIELD_SEPARATOR" envDefault:","`

	Locale      string `env:"CATALOG_LOCALE" envDefault:"en-GB"`
	LogLevel    string `env:"CATALOG_LOG_LEVEL" envDefault:"info"`
	LoadWorkers int    `env:"CATALOG_LOAD_WORKERS" envDefault:"4"`
}

func Load() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Default returns the configuration with every field at its default value.
func Default() Config {
	cfg, _ := env.ParseAsWithOptions[Config](env.Options{Environment: map[string]string{}})
	return cfg
}

func (c Config) Validate() error {
	if c.FieldSeparator == "" {
		return fmt.Errorf("config: CATALOG_FIELD_SEPARATOR must not be empty")
	}
	if c.LoadWorkers < 1 {
		return fmt.Errorf("config: CATALOG_LOAD_WORKERS must be positive, got %d", c.LoadWorkers)
	}
	if !strings.HasPrefix(c.ProductFile, c.ProductPrefix) {
		return fmt.Errorf("config: CATALOG_PRODUCT_FILE %q must start with CATALOG_PRODUCT_PREFIX %q", c.ProductFile, c.ProductPrefix)
	}
	if strings.HasPrefix(c.ReviewsFile, c.ProductPrefix) {
		return fmt.Errorf("config: CATALOG_REVIEWS_FILE %q must not start with CATALOG_PRODUCT_PREFIX %q", c.ReviewsFile, c.ProductPrefix)
	}
	for name, pattern := range map[string]string{
		"CATALOG_REVIEWS_FILE":  c.ReviewsFile,
		"CATALOG_PRODUCT_FILE":  c.ProductFile,
		"CATALOG_SNAPSHOT_FILE": c.SnapshotFile,
		"CATALOG_REPORT_FILE":   c.ReportFile,
	} {
		if !strings.Contains(pattern, "{0}") {
			return fmt.Errorf("config: %s must contain {0}, got %q", name, pattern)
		}
	}
	return nil
}

// Expand substitutes positional {N} placeholders in pattern.
func Expand(pattern string, args ...any) string {
	pairs := make([]string, 0, 2*len(args))
	for i, a := range args {
		pairs = append(pairs, "{"+strconv.Itoa(i)+"}", fmt.Sprint(a))
	}
	return strings.NewReplacer(pairs...).Replace(pattern)
}
