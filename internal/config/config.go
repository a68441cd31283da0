package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/timmy/artmatch/internal/matcher"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Vision   VisionConfig   `mapstructure:"vision"`
	Wikidata WikidataConfig `mapstructure:"wikidata"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Matcher  MatcherConfig  `mapstructure:"matcher"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Storage  StorageConfig  `mapstructure:"storage"`
}

type ServerConfig struct {
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"` // sqlite, postgres
	Path            string        `mapstructure:"path"`
	URL             string        `mapstructure:"url"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
	LogLevel        string        `mapstructure:"log_level"` // silent, error, warn, info
}

// DSN returns the connection string for the configured driver.
func (c DatabaseConfig) DSN() string {
	if c.Driver == "postgres" {
		return c.URL
	}
	if c.URL != "" && !strings.HasPrefix(c.URL, "postgres") {
		return c.URL
	}
	return c.Path
}

type VisionConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	Provider      string        `mapstructure:"provider"`
	Model         string        `mapstructure:"model"`
	APIKey        string        `mapstructure:"api_key"`
	BaseURL       string        `mapstructure:"base_url"`
	Timeout       time.Duration `mapstructure:"timeout"`
	Preflight     bool          `mapstructure:"preflight"`
	DailyLimitUSD float64       `mapstructure:"daily_limit_usd"`

	// Breaker trips after this many consecutive failures.
	BreakerFailures uint32        `mapstructure:"breaker_failures"`
	BreakerCooldown time.Duration `mapstructure:"breaker_cooldown"`
}

type WikidataConfig struct {
	Endpoint     string        `mapstructure:"endpoint"`
	Language     string        `mapstructure:"language"`
	UserAgent    string        `mapstructure:"user_agent"`
	Timeout      time.Duration `mapstructure:"timeout"`
	RatePerSec   float64       `mapstructure:"rate_per_sec"`
	RetryCount   int           `mapstructure:"retry_count"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff"`
}

type CatalogConfig struct {
	Path string `mapstructure:"path"`
	Seed uint64 `mapstructure:"seed"`
}

type MatcherConfig struct {
	Source            string          `mapstructure:"source"` // wikidata, catalog
	Weights           matcher.Weights `mapstructure:"weights"`
	MinScore          float64         `mapstructure:"min_score"`
	EnrichmentBudget  int             `mapstructure:"enrichment_budget"`
	Workers           int             `mapstructure:"workers"`
	Count             int             `mapstructure:"count"`
	PopularityCeiling int             `mapstructure:"popularity_ceiling"`
	CandidateLimit    int             `mapstructure:"candidate_limit"`
}

type CacheConfig struct {
	QueryCapacity    int `mapstructure:"query_capacity"`
	VisionCapacity   int `mapstructure:"vision_capacity"`
	MetadataCapacity int `mapstructure:"metadata_capacity"`
}

type RedisConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type StorageConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Type      string `mapstructure:"type"` // r2, s3, s3compatible, memory
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	PublicURL string `mapstructure:"public_url"`
	Prefix    string `mapstructure:"prefix"`
}

func Load(configPath string) (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Secrets and deployment overrides
	_ = v.BindEnv("database.url", "DATABASE_URL")
	_ = v.BindEnv("vision.api_key", "OPENAI_API_KEY")
	_ = v.BindEnv("vision.base_url", "OPENAI_BASE_URL")
	_ = v.BindEnv("vision.model", "VISION_MODEL")
	_ = v.BindEnv("redis.addr", "REDIS_ADDR")
	_ = v.BindEnv("redis.password", "REDIS_PASSWORD")
	_ = v.BindEnv("storage.endpoint", "S3_ENDPOINT")
	_ = v.BindEnv("storage.access_key", "S3_ACCESS_KEY")
	_ = v.BindEnv("storage.secret_key", "S3_SECRET_KEY")
	_ = v.BindEnv("storage.bucket", "S3_BUCKET")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./data/artmatch.db")
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("database.log_level", "warn")

	v.SetDefault("vision.enabled", false)
	v.SetDefault("vision.provider", "openai")
	v.SetDefault("vision.model", "gpt-4o")
	v.SetDefault("vision.base_url", "https://api.openai.com/v1")
	v.SetDefault("vision.timeout", 30*time.Second)
	v.SetDefault("vision.preflight", true)
	v.SetDefault("vision.daily_limit_usd", 2.0)
	v.SetDefault("vision.breaker_failures", 3)
	v.SetDefault("vision.breaker_cooldown", time.Minute)

	v.SetDefault("wikidata.endpoint", "https://query.wikidata.org/sparql")
	v.SetDefault("wikidata.language", "en")
	v.SetDefault("wikidata.user_agent", "artmatch/1.0 (https://github.com/timmy/artmatch)")
	v.SetDefault("wikidata.timeout", 30*time.Second)
	v.SetDefault("wikidata.rate_per_sec", 2.0)
	v.SetDefault("wikidata.retry_count", 2)
	v.SetDefault("wikidata.retry_backoff", 500*time.Millisecond)

	v.SetDefault("catalog.path", "./data/catalog")
	v.SetDefault("catalog.seed", 0)

	v.SetDefault("matcher.source", "wikidata")
	w := matcher.DefaultWeights()
	v.SetDefault("matcher.weights.concrete", w.Concrete)
	v.SetDefault("matcher.weights.theme", w.Theme)
	v.SetDefault("matcher.weights.emotion", w.Emotion)
	v.SetDefault("matcher.weights.genre", w.Genre)
	v.SetDefault("matcher.min_score", 0.4)
	v.SetDefault("matcher.enrichment_budget", 5)
	v.SetDefault("matcher.workers", 4)
	v.SetDefault("matcher.count", 1)
	v.SetDefault("matcher.popularity_ceiling", 20)
	v.SetDefault("matcher.candidate_limit", 50)

	v.SetDefault("cache.query_capacity", 50)
	v.SetDefault("cache.vision_capacity", 100)
	v.SetDefault("cache.metadata_capacity", 200)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", 7*24*time.Hour)

	v.SetDefault("storage.enabled", false)
	v.SetDefault("storage.use_ssl", true)
	v.SetDefault("storage.bucket", "artmatch")
	v.SetDefault("storage.prefix", "reports")
}

// Validate checks the settings the matcher cannot run without.
func (c *Config) Validate() error {
	if err := c.Matcher.Weights.Validate(); err != nil {
		return fmt.Errorf("invalid matcher config: %w", err)
	}
	switch c.Matcher.Source {
	case "wikidata", "catalog":
	default:
		return fmt.Errorf("invalid matcher config: unknown source %q", c.Matcher.Source)
	}
	if c.Matcher.MinScore < 0 || c.Matcher.MinScore > 1 {
		return fmt.Errorf("invalid matcher config: min_score must be in [0,1], got %v", c.Matcher.MinScore)
	}
	if c.Matcher.Workers < 1 {
		return fmt.Errorf("invalid matcher config: workers must be positive, got %d", c.Matcher.Workers)
	}
	if c.Matcher.EnrichmentBudget < 0 {
		return fmt.Errorf("invalid matcher config: enrichment_budget must not be negative")
	}
	if c.Matcher.Count < 1 {
		return fmt.Errorf("invalid matcher config: count must be positive, got %d", c.Matcher.Count)
	}
	return nil
}
