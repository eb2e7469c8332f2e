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
	Server          ServerConfig          `yaml:"server" mapstructure:"server"`
	Log             LogConfig             `yaml:"log" mapstructure:"log"`
	Data            DataConfig            `yaml:"data" mapstructure:"data"`
	Strompriser     StrompriserConfig     `yaml:"strompriser" mapstructure:"strompriser"`
	ElectricityMaps ElectricityMapsConfig `yaml:"electricitymaps" mapstructure:"electricitymaps"`
	Resilience      ResilienceConfig      `yaml:"resilience" mapstructure:"resilience"`
	Batch           BatchConfig           `yaml:"batch" mapstructure:"batch"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port               int      `yaml:"port" mapstructure:"port"`
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins" mapstructure:"cors_allowed_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// DataConfig points at reference data files. Empty paths use the built-in
// tables.
type DataConfig struct {
	StaticConfigPath string `yaml:"static_config_path" mapstructure:"static_config_path"`
	BenchmarkPath    string `yaml:"benchmark_path" mapstructure:"benchmark_path"`
}

// StrompriserConfig configures the spot price provider.
type StrompriserConfig struct {
	Key               string  `yaml:"key" mapstructure:"key"`
	BaseURL           string  `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs       int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
}

// ElectricityMapsConfig configures the carbon intensity provider.
type ElectricityMapsConfig struct {
	Key               string  `yaml:"key" mapstructure:"key"`
	BaseURL           string  `yaml:"base_url" mapstructure:"base_url"`
	CountryCode       string  `yaml:"country_code" mapstructure:"country_code"`
	TimeoutSecs       int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
}

// ResilienceConfig configures the provider circuit breakers.
type ResilienceConfig struct {
	FailureThreshold int `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	ResetTimeoutSecs int `yaml:"reset_timeout_secs" mapstructure:"reset_timeout_secs"`
}

// BatchConfig configures CSV batch estimation.
type BatchConfig struct {
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("ENVIRO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults. Every key needs one so env-only values reach Unmarshal.
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.cors_allowed_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("data.static_config_path", "")
	v.SetDefault("data.benchmark_path", "")
	v.SetDefault("strompriser.key", "")
	v.SetDefault("strompriser.base_url", "https://api.strompriser.no")
	v.SetDefault("strompriser.timeout_secs", 15)
	v.SetDefault("strompriser.requests_per_second", 5.0)
	v.SetDefault("electricitymaps.key", "")
	v.SetDefault("electricitymaps.base_url", "https://api.electricitymap.org")
	v.SetDefault("electricitymaps.country_code", "NO")
	v.SetDefault("electricitymaps.timeout_secs", 5)
	v.SetDefault("electricitymaps.requests_per_second", 5.0)
	v.SetDefault("resilience.failure_threshold", 5)
	v.SetDefault("resilience.reset_timeout_secs", 30)
	v.SetDefault("batch.concurrency", 8)

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

	return &cfg, nil
}

// Validate checks the settings a command depends on. mode is "serve",
// "estimate" or "batch".
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "serve":
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Sprintf("server.port must be > 0 and <= 65535, got %d", c.Server.Port))
		}
	case "estimate":
	case "batch":
		if c.Batch.Concurrency < 1 || c.Batch.Concurrency > 64 {
			errs = append(errs, fmt.Sprintf("batch.concurrency must be between 1 and 64, got %d", c.Batch.Concurrency))
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if c.Strompriser.TimeoutSecs < 0 {
		errs = append(errs, "strompriser.timeout_secs must be >= 0")
	}
	if c.ElectricityMaps.TimeoutSecs < 0 {
		errs = append(errs, "electricitymaps.timeout_secs must be >= 0")
	}
	if c.Strompriser.RequestsPerSecond < 0 || c.ElectricityMaps.RequestsPerSecond < 0 {
		errs = append(errs, "requests_per_second must be >= 0")
	}
	if c.Resilience.FailureThreshold < 0 {
		errs = append(errs, "resilience.failure_threshold must be >= 0")
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
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
