// Package config loads the legisloom service configuration from defaults,
// an optional config file, a .env file and the environment.
//
// Every key can be set as LEGIS_<SECTION>_<KEY> (for example
// LEGIS_CACHE_BACKEND). The plain names OPENSTATES_API_KEY,
// ANTHROPIC_API_KEY, REDIS_URL, DATABASE_URL and PORT are honoured too.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment key.
const EnvPrefix = "LEGIS"

// Cache backends.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendSQL    = "sql"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the service configuration.
type Config struct {
	Port          string        `mapstructure:"port"`
	SourceTimeout time.Duration `mapstructure:"source_timeout"`

	Log        LogConfig        `mapstructure:"log"`
	Cache      CacheConfig      `mapstructure:"cache"`
	OpenStates OpenStatesConfig `mapstructure:"openstates"`
	LLM        LLMConfig        `mapstructure:"llm"`
}

// LogConfig selects log level and output format.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// CacheConfig selects and tunes the cache backend.
type CacheConfig struct {
	Backend     string        `mapstructure:"backend"`
	RedisURL    string        `mapstructure:"redis_url"`
	DatabaseURL string        `mapstructure:"database_url"`
	MemorySize  int           `mapstructure:"memory_size"`
	BillTTL     time.Duration `mapstructure:"bill_ttl"`
	TextTTL     time.Duration `mapstructure:"text_ttl"`
	SummaryTTL  time.Duration `mapstructure:"summary_ttl"`
}

// OpenStatesConfig configures the upstream client. An empty APIKey runs
// the service on the static catalog.
type OpenStatesConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// LLMConfig configures the language model client. An empty APIKey turns
// summaries into placeholders and chat into the fallback message.
type LLMConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	ChatTokens  int           `mapstructure:"chat_max_tokens"`
	Temperature float64       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// legacyEnv maps keys to the unprefixed variable names they also read.
var legacyEnv = map[string]string{
	"port":               "PORT",
	"openstates.api_key": "OPENSTATES_API_KEY",
	"llm.api_key":        "ANTHROPIC_API_KEY",
	"cache.redis_url":    "REDIS_URL",
	"cache.database_url": "DATABASE_URL",
}

// SetDefaults registers the default of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("source_timeout", 15*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("cache.backend", BackendMemory)
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.database_url", "")
	v.SetDefault("cache.memory_size", 10000)
	v.SetDefault("cache.bill_ttl", 24*time.Hour)
	v.SetDefault("cache.text_ttl", 24*time.Hour)
	v.SetDefault("cache.summary_ttl", 7*24*time.Hour)

	v.SetDefault("openstates.api_key", "")
	v.SetDefault("openstates.base_url", "https://v3.openstates.org")
	v.SetDefault("openstates.timeout", 10*time.Second)

	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", "https://api.anthropic.com")
	v.SetDefault("llm.model", "claude-3-haiku-20240307")
	v.SetDefault("llm.max_tokens", 300)
	v.SetDefault("llm.chat_max_tokens", 1000)
	v.SetDefault("llm.temperature", 0.0)
	v.SetDefault("llm.timeout", 30*time.Second)
}

// Options tell Load where to look besides the environment.
type Options struct {
	// ConfigFile is an optional YAML, TOML or JSON file.
	ConfigFile string

	// EnvFile is loaded into the environment when it exists. Defaults to
	// ".env".
	EnvFile string
}

// Load reads the configuration into a new viper instance and validates it.
func Load(opts Options) (*Config, error) {
	return LoadWith(viper.New(), opts)
}

// LoadWith reads the configuration through v, which may already carry
// bound flags.
func LoadWith(v *viper.Viper, opts Options) (*Config, error) {
	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", envFile, err)
	}

	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, legacy := range legacyEnv {
		prefixed := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, legacy); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	cfg.Cache.Backend = strings.ToLower(strings.TrimSpace(cfg.Cache.Backend))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration for values the service cannot run
// with. Missing API keys are allowed.
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Port) == "" {
		errs = append(errs, errors.New("port is required"))
	}

	switch c.Cache.Backend {
	case BackendMemory:
		if c.Cache.MemorySize <= 0 {
			errs = append(errs, errors.New("cache.memory_size must be positive"))
		}
	case BackendRedis:
		if c.Cache.RedisURL == "" {
			errs = append(errs, errors.New("cache.redis_url is required for the redis backend"))
		}
	case BackendSQL:
		if c.Cache.DatabaseURL == "" {
			errs = append(errs, errors.New("cache.database_url is required for the sql backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("cache.backend %q is not one of memory, redis, sql", c.Cache.Backend))
	}

	for name, ttl := range map[string]time.Duration{
		"cache.bill_ttl":    c.Cache.BillTTL,
		"cache.text_ttl":    c.Cache.TextTTL,
		"cache.summary_ttl": c.Cache.SummaryTTL,
	} {
		if ttl <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive", name))
		}
	}

	if c.SourceTimeout < 0 {
		errs = append(errs, errors.New("source_timeout cannot be negative"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// RedisOptions parses Cache.RedisURL. A bare host:port is accepted.
func (c *CacheConfig) RedisOptions() (*redis.Options, error) {
	if strings.Contains(c.RedisURL, "://") {
		opts, err := redis.ParseURL(c.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		return opts, nil
	}
	return &redis.Options{Addr: c.RedisURL}, nil
}
