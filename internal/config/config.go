package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Provider  string          `yaml:"provider" mapstructure:"provider"`
	Gemini    GeminiConfig    `yaml:"gemini" mapstructure:"gemini"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Generate  GenerateConfig  `yaml:"generate" mapstructure:"generate"`
	Segment   SegmentConfig   `yaml:"segment" mapstructure:"segment"`
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// GeminiConfig holds Gemini API settings. Keys may come from a single key,
// a comma-separated list, or numbered entries (gemini.key_1 .. key_10);
// all of them are pooled for rotation.
type GeminiConfig struct {
	Key               string   `yaml:"key" mapstructure:"key"`
	Keys              string   `yaml:"keys" mapstructure:"keys"`
	NumberedKeys      []string `yaml:"-" mapstructure:"-"`
	Model             string   `yaml:"model" mapstructure:"model"`
	RequestsPerSecond float64  `yaml:"requests_per_second" mapstructure:"requests_per_second"`
}

// AnthropicConfig holds Anthropic API settings for the alternate provider.
type AnthropicConfig struct {
	Key               string  `yaml:"key" mapstructure:"key"`
	Keys              string  `yaml:"keys" mapstructure:"keys"`
	Model             string  `yaml:"model" mapstructure:"model"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
}

// GenerateConfig configures the batch generation run.
type GenerateConfig struct {
	NumBatches        int    `yaml:"num_batches" mapstructure:"num_batches"`
	Concurrency       int    `yaml:"concurrency" mapstructure:"concurrency"`
	LeadsPerBatch     int    `yaml:"leads_per_batch" mapstructure:"leads_per_batch"`
	APIDelayMS        int    `yaml:"api_delay_ms" mapstructure:"api_delay_ms"`
	BackupInterval    int    `yaml:"backup_interval" mapstructure:"backup_interval"`
	MaxRequestsPerKey int    `yaml:"max_requests_per_key" mapstructure:"max_requests_per_key"`
	MaxErrorsPerKey   int    `yaml:"max_errors_per_key" mapstructure:"max_errors_per_key"`
	OutputFile        string `yaml:"output_file" mapstructure:"output_file"`
	BackupFile        string `yaml:"backup_file" mapstructure:"backup_file"`
}

// SegmentConfig configures segmentation pass output files. Empty paths are
// derived from the run timestamp at execution time.
type SegmentConfig struct {
	NonAdoptersFile      string `yaml:"non_adopters_file" mapstructure:"non_adopters_file"`
	ModerateAdoptersFile string `yaml:"moderate_adopters_file" mapstructure:"moderate_adopters_file"`
	HighVolumeFile       string `yaml:"high_volume_file" mapstructure:"high_volume_file"`
	XLSXFile             string `yaml:"xlsx_file" mapstructure:"xlsx_file"`
}

// StoreConfig configures the local run-history database. An empty DSN
// disables run history.
type StoreConfig struct {
	DSN string `yaml:"dsn" mapstructure:"dsn"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("LEADGEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("provider", "gemini")
	v.SetDefault("gemini.model", "gemini-1.5-pro")
	v.SetDefault("gemini.requests_per_second", 0)
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.requests_per_second", 0)
	v.SetDefault("generate.num_batches", 667)
	v.SetDefault("generate.concurrency", 12)
	v.SetDefault("generate.leads_per_batch", 15)
	v.SetDefault("generate.api_delay_ms", 300)
	v.SetDefault("generate.backup_interval", 25)
	v.SetDefault("generate.max_requests_per_key", 150)
	v.SetDefault("generate.max_errors_per_key", 5)
	v.SetDefault("store.dsn", "leadgen.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	// Numbered keys (gemini.key_1 .. key_10 / LEADGEN_GEMINI_KEY_N) are
	// collected separately; viper can't unmarshal a dynamic key range.
	for i := 1; i <= 10; i++ {
		if k := v.GetString(fmt.Sprintf("gemini.key_%d", i)); k != "" {
			cfg.Gemini.NumberedKeys = append(cfg.Gemini.NumberedKeys, k)
		}
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
