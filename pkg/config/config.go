// Package config loads repairdesk settings from repairdesk.yaml, REPAIRDESK_*
// environment variables and built-in defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// EnvPrefix prefixes every environment override, e.g. REPAIRDESK_STORE_DRIVER.
const EnvPrefix = "REPAIRDESK"

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config is the application configuration.
type Config struct {
	Logger      LoggerConfig     `mapstructure:"logger" yaml:"logger"`
	Store       StoreConfig      `mapstructure:"store" yaml:"store"`
	LLM         LLMConfig        `mapstructure:"llm" yaml:"llm"`
	Classifier  ClassifierConfig `mapstructure:"classifier" yaml:"classifier"`
	Knowledge   KnowledgeConfig  `mapstructure:"knowledge" yaml:"knowledge"`
	CatalogFile string           `mapstructure:"catalog_file" yaml:"catalog_file"`
	CostFile    string           `mapstructure:"cost_file" yaml:"cost_file"`

	// API keys are only ever read from the environment.
	APIKeys APIKeys `mapstructure:"-" yaml:"-"`
}

// LoggerConfig configures the process logger.
type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"`
	AddSource   bool   `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int    `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool   `mapstructure:"compress" yaml:"compress"`
}

// StoreConfig selects the record store backing graphs and cases.
type StoreConfig struct {
	Driver   string        `mapstructure:"driver" yaml:"driver"`
	DSN      string        `mapstructure:"dsn" yaml:"dsn"`
	CacheTTL time.Duration `mapstructure:"cache_ttl" yaml:"cache_ttl"`
	// Fixtures is an optional YAML file of records preloaded into the memory driver.
	Fixtures string `mapstructure:"fixtures" yaml:"fixtures"`
}

// TargetConfig names one adapter/model pair.
type TargetConfig struct {
	Adapter string `mapstructure:"adapter" yaml:"adapter"`
	Model   string `mapstructure:"model" yaml:"model"`
}

// LLMConfig configures the optional language model.
type LLMConfig struct {
	Adapter     string            `mapstructure:"adapter" yaml:"adapter"`
	Model       string            `mapstructure:"model" yaml:"model"`
	Fallback    []TargetConfig    `mapstructure:"fallback" yaml:"fallback"`
	Aliases     map[string]string `mapstructure:"aliases" yaml:"aliases"`
	MaxRetries  int               `mapstructure:"max_retries" yaml:"max_retries"`
	BaseBackoff time.Duration     `mapstructure:"base_backoff" yaml:"base_backoff"`
	MaxBackoff  time.Duration     `mapstructure:"max_backoff" yaml:"max_backoff"`
	RateLimit   float64           `mapstructure:"rate_limit" yaml:"rate_limit"`
	Burst       int               `mapstructure:"burst" yaml:"burst"`
	Timeout     time.Duration     `mapstructure:"timeout" yaml:"timeout"`
	Feedback    bool              `mapstructure:"feedback" yaml:"feedback"`
}

// Enabled reports whether a language model adapter is configured.
func (c LLMConfig) Enabled() bool {
	a := strings.TrimSpace(c.Adapter)
	return a != "" && a != "none"
}

// ClassifierConfig configures symptom classification.
type ClassifierConfig struct {
	Threshold   float64 `mapstructure:"threshold" yaml:"threshold"`
	UseExternal bool    `mapstructure:"use_external" yaml:"use_external"`
}

// KnowledgeConfig configures reference material sources.
type KnowledgeConfig struct {
	LocalDir       string        `mapstructure:"local_dir" yaml:"local_dir"`
	ArticleIndex   string        `mapstructure:"article_index" yaml:"article_index"`
	FetchArticles  bool          `mapstructure:"fetch_articles" yaml:"fetch_articles"`
	FetchTimeout   time.Duration `mapstructure:"fetch_timeout" yaml:"fetch_timeout"`
	FetchRate      float64       `mapstructure:"fetch_rate" yaml:"fetch_rate"`
	CaseCollection string        `mapstructure:"case_collection" yaml:"case_collection"`
	TopN           int           `mapstructure:"top_n" yaml:"top_n"`
}

// APIKeys holds provider credentials.
type APIKeys struct {
	Anthropic string
	OpenAI    string
	Google    string
	DeepSeek  string
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "repairdesk")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 50)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 14)
	v.SetDefault("logger.compress", true)

	// -- Store --
	v.SetDefault("store.driver", DriverMemory)
	v.SetDefault("store.dsn", "")
	v.SetDefault("store.cache_ttl", "5m")
	v.SetDefault("store.fixtures", "")

	// -- LLM --
	v.SetDefault("llm.adapter", "none")
	v.SetDefault("llm.model", "quality")
	v.SetDefault("llm.max_retries", 2)
	v.SetDefault("llm.base_backoff", "200ms")
	v.SetDefault("llm.max_backoff", "2s")
	v.SetDefault("llm.rate_limit", 0)
	v.SetDefault("llm.burst", 1)
	v.SetDefault("llm.timeout", "20s")
	v.SetDefault("llm.feedback", false)

	// -- Classifier --
	v.SetDefault("classifier.threshold", 0.7)
	v.SetDefault("classifier.use_external", true)

	// -- Knowledge --
	v.SetDefault("knowledge.local_dir", "")
	v.SetDefault("knowledge.article_index", "")
	v.SetDefault("knowledge.fetch_articles", false)
	v.SetDefault("knowledge.fetch_timeout", "15s")
	v.SetDefault("knowledge.fetch_rate", 2.0)
	v.SetDefault("knowledge.case_collection", "cases")
	v.SetDefault("knowledge.top_n", 5)

	v.SetDefault("catalog_file", "")
	v.SetDefault("cost_file", "")
}

// NewDefaultConfig returns the configuration with only defaults applied.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// Read prepares v: defaults, the config file and environment overrides.
// An explicit file must exist; otherwise repairdesk.yaml is looked up in the
// working directory and $HOME/.repairdesk, and its absence is not an error.
func Read(v *viper.Viper, file string) error {
	SetDefaults(v)

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("repairdesk")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".repairdesk"))
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}
	return nil
}

// Load builds a validated Config from v.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	cfg.APIKeys = APIKeys{
		Anthropic: os.Getenv("ANTHROPIC_API_KEY"),
		OpenAI:    os.Getenv("OPENAI_API_KEY"),
		Google:    os.Getenv("GOOGLE_API_KEY"),
		DeepSeek:  os.Getenv("DEEPSEEK_API_KEY"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

var knownAdapters = map[string]bool{
	"none":      true,
	"anthropic": true,
	"openai":    true,
	"google":    true,
	"deepseek":  true,
	"mock":      true,
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	var level zap.AtomicLevel
	if err := level.UnmarshalText([]byte(c.Logger.Level)); err != nil {
		return fmt.Errorf("logger.level %q is not a valid level", c.Logger.Level)
	}
	switch c.Logger.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logger.format must be console or json, got %q", c.Logger.Format)
	}

	switch c.Store.Driver {
	case DriverMemory:
	case DriverSQLite, DriverPostgres:
		if c.Store.DSN == "" {
			return fmt.Errorf("store.dsn is required for the %s driver", c.Store.Driver)
		}
	default:
		return fmt.Errorf("store.driver must be memory, sqlite or postgres, got %q", c.Store.Driver)
	}
	if c.Store.CacheTTL < 0 {
		return fmt.Errorf("store.cache_ttl must not be negative")
	}

	if c.LLM.Adapter != "" && !knownAdapters[c.LLM.Adapter] {
		return fmt.Errorf("llm.adapter %q is not supported", c.LLM.Adapter)
	}
	aliases := c.Aliases()
	if c.LLM.Enabled() {
		if err := aliases.ValidateModel(c.LLM.Adapter, aliases.Resolve(c.LLM.Model)); err != nil {
			return fmt.Errorf("llm.model: %w", err)
		}
	}
	for i, fb := range c.LLM.Fallback {
		if !knownAdapters[fb.Adapter] || fb.Adapter == "none" {
			return fmt.Errorf("llm.fallback[%d].adapter %q is not supported", i, fb.Adapter)
		}
		if fb.Model == "" {
			continue
		}
		if err := aliases.ValidateModel(fb.Adapter, aliases.Resolve(fb.Model)); err != nil {
			return fmt.Errorf("llm.fallback[%d].model: %w", i, err)
		}
	}
	if c.LLM.MaxRetries < 0 {
		return fmt.Errorf("llm.max_retries must not be negative")
	}
	if c.LLM.RateLimit < 0 {
		return fmt.Errorf("llm.rate_limit must not be negative")
	}

	if c.Classifier.Threshold < 0 || c.Classifier.Threshold > 1 {
		return fmt.Errorf("classifier.threshold must be within [0, 1], got %v", c.Classifier.Threshold)
	}
	if c.Knowledge.TopN <= 0 {
		return fmt.Errorf("knowledge.top_n must be a positive integer")
	}
	return nil
}

// HasAdapter returns true if the API key for the given adapter is configured.
func (c *Config) HasAdapter(name string) bool {
	switch name {
	case "anthropic":
		return c.APIKeys.Anthropic != ""
	case "openai":
		return c.APIKeys.OpenAI != ""
	case "google":
		return c.APIKeys.Google != ""
	case "deepseek":
		return c.APIKeys.DeepSeek != ""
	case "mock":
		return true
	default:
		return false
	}
}

// Aliases returns the built-in model aliases overlaid with llm.aliases.
func (c *Config) Aliases() *ModelAliases {
	aliases := DefaultAliases()
	for k, v := range c.LLM.Aliases {
		aliases.Aliases[k] = v
	}
	return aliases
}

// ResolveModel maps an alias to its canonical model name.
func (c *Config) ResolveModel(modelOrAlias string) string {
	return c.Aliases().Resolve(modelOrAlias)
}
