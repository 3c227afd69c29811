package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/destek/pkg/destek/internalerr"
	"github.com/cognicore/destek/pkg/destek/store"
)

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config is the engine and server configuration. Zero fields in a YAML
// file keep their defaults.
type Config struct {
	Store           StoreConfig      `yaml:"store"`
	Server          ServerConfig     `yaml:"server"`
	Log             LogConfig        `yaml:"log"`
	Thresholds      Thresholds       `yaml:"thresholds"`
	SuggestionFloor float64          `yaml:"suggestion_floor"`
	MaxSuggestions  int              `yaml:"max_suggestions"`
	Blend           Blend            `yaml:"blend"`
	Recognizer      RecognizerConfig `yaml:"recognizer"`
	Analytics       AnalyticsConfig  `yaml:"analytics"`
	Stoplist        string           `yaml:"stoplist"` // path to a stoplist YAML, optional
	Lexicon         string           `yaml:"lexicon"`  // path to a synonym lexicon YAML, optional
}

// StoreConfig selects the association store.
type StoreConfig struct {
	Driver string `yaml:"driver"` // memory, sqlite or postgres
	DSN    string `yaml:"dsn"`    // sqlite file path or postgres URL
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// LogConfig configures slog output.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text or json
}

// Thresholds are the per-kind auto-selection thresholds (inclusive).
type Thresholds struct {
	Category   float64 `yaml:"category"`
	Department float64 `yaml:"department"`
	Personnel  float64 `yaml:"personnel"`
}

// For returns the threshold of a kind.
func (t Thresholds) For(kind store.Kind) float64 {
	switch kind {
	case store.Category:
		return t.Category
	case store.Department:
		return t.Department
	case store.Personnel:
		return t.Personnel
	}
	return 0
}

// Blend mixes keyword similarity with recognizer confidence for entities
// the recognizer found in the text.
type Blend struct {
	Base       float64 `yaml:"base"`
	Recognizer float64 `yaml:"recognizer"`
}

// RecognizerConfig configures name recognition.
type RecognizerConfig struct {
	MinConfidence float64 `yaml:"min_confidence"`
}

// AnalyticsConfig configures the association report.
type AnalyticsConfig struct {
	DominantShare float64 `yaml:"dominant_share"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Store:  StoreConfig{Driver: DriverSQLite, DSN: "destek.db"},
		Server: ServerConfig{Addr: ":3000"},
		Log:    LogConfig{Level: "info", Format: "text"},
		Thresholds: Thresholds{
			Category:   0.08,
			Department: 0.08,
			Personnel:  0.10,
		},
		SuggestionFloor: 0.05,
		MaxSuggestions:  3,
		Blend:           Blend{Base: 0.3, Recognizer: 0.7},
		Recognizer:      RecognizerConfig{MinConfidence: 0.75},
		Analytics:       AnalyticsConfig{DominantShare: 0.5},
	}
}

// Load reads path over the defaults, applies environment overrides and
// validates the result. An empty path falls back to $DESTEK_CONFIG and
// then to the defaults alone.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = os.Getenv("DESTEK_CONFIG")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from environment variables.
func (c *Config) ApplyEnv() error {
	c.Store.Driver = getEnv("DESTEK_STORE_DRIVER", c.Store.Driver)
	c.Store.DSN = getEnv("DATABASE_URL", c.Store.DSN)
	c.Server.Addr = getEnv("SERVER_ADDR", c.Server.Addr)
	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("LOG_FORMAT", c.Log.Format)
	c.Stoplist = getEnv("DESTEK_STOPLIST", c.Stoplist)
	c.Lexicon = getEnv("DESTEK_LEXICON", c.Lexicon)

	var err error
	if c.Recognizer.MinConfidence, err = getEnvFloat("DESTEK_MIN_CONFIDENCE", c.Recognizer.MinConfidence); err != nil {
		return err
	}
	return nil
}

// Validate rejects out-of-range values with internalerr.ErrInvalidConfig.
func (c Config) Validate() error {
	switch c.Store.Driver {
	case DriverMemory:
	case DriverSQLite, DriverPostgres:
		if c.Store.DSN == "" {
			return invalid("store.dsn is required for driver %q", c.Store.Driver)
		}
	default:
		return invalid("unknown store.driver %q", c.Store.Driver)
	}

	for _, kind := range store.Kinds {
		if t := c.Thresholds.For(kind); t < 0 || t > 1 {
			return invalid("thresholds.%s = %v, want 0..1", kind, t)
		}
	}
	if c.SuggestionFloor < 0 || c.SuggestionFloor > 1 {
		return invalid("suggestion_floor = %v, want 0..1", c.SuggestionFloor)
	}
	if c.MaxSuggestions < 1 {
		return invalid("max_suggestions = %d, want >= 1", c.MaxSuggestions)
	}
	if c.Blend.Base < 0 || c.Blend.Recognizer < 0 || c.Blend.Base+c.Blend.Recognizer == 0 {
		return invalid("blend weights must be non-negative and not both zero")
	}
	if c.Recognizer.MinConfidence <= 0 || c.Recognizer.MinConfidence > 1 {
		return invalid("recognizer.min_confidence = %v, want (0, 1]", c.Recognizer.MinConfidence)
	}
	if c.Analytics.DominantShare < 0 || c.Analytics.DominantShare > 1 {
		return invalid("analytics.dominant_share = %v, want 0..1", c.Analytics.DominantShare)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return invalid("log.format %q, want text or json", c.Log.Format)
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", internalerr.ErrInvalidConfig, fmt.Sprintf(format, args...))
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, invalid("%s=%q is not a number", key, v)
	}
	return f, nil
}

// Stoplist represents the stopword list configuration
type Stoplist struct {
	Terms []string `yaml:"terms"`
}

// LoadStoplist loads stopwords from a YAML file
func LoadStoplist(path string) (*Stoplist, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var sl Stoplist
	if err := yaml.Unmarshal(data, &sl); err != nil {
		return nil, err
	}

	return &sl, nil
}

// Seed is initial reference data: entity names with the keywords to
// reinforce for each.
//
//	categories:
//	  Yazıcı Arızası: [yazıcı, kağıt, toner]
//	departments:
//	  Muhasebe: [muhasebe, fatura]
type Seed struct {
	Categories  map[string][]string `yaml:"categories"`
	Departments map[string][]string `yaml:"departments"`
	Personnel   map[string][]string `yaml:"personnel"`
}

// For returns the seed entries of a kind.
func (s *Seed) For(kind store.Kind) map[string][]string {
	switch kind {
	case store.Category:
		return s.Categories
	case store.Department:
		return s.Departments
	case store.Personnel:
		return s.Personnel
	}
	return nil
}

// LoadSeed loads seed data from a YAML file
func LoadSeed(path string) (*Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, err
	}

	return &seed, nil
}
