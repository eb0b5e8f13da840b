package shared

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	AppEnv      string `mapstructure:"app_env" validate:"required"`
	LogLevel    string `mapstructure:"log_level" validate:"oneof=trace debug info warn error fatal panic disabled"`
	Policy      string `mapstructure:"policy" validate:"oneof=strict mask loose"`
	MaxFailures int    `mapstructure:"max_failures" validate:"gte=0"`
	Workers     int    `mapstructure:"workers" validate:"gte=1,lte=256"`
	MetricsFile string `mapstructure:"metrics_file"`
}

// env var names, keyed by config key
var envKeys = map[string]string{
	"app_env":      "APP_ENV",
	"log_level":    "LOG_LEVEL",
	"policy":       "GEORECORDS_POLICY",
	"max_failures": "GEORECORDS_MAX_FAILURES",
	"workers":      "GEORECORDS_WORKERS",
	"metrics_file": "METRICS_FILE",
}

var validate = validator.New()

// Load reads .env (if present), then the optional config file, then the
// environment, which wins over the file.
func Load(configFile string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Msg(".env could not be parsed")
	}

	v := viper.New()
	v.SetDefault("app_env", "prod")
	v.SetDefault("log_level", "info")
	v.SetDefault("policy", "strict")
	v.SetDefault("max_failures", 0)
	v.SetDefault("workers", 8)
	v.SetDefault("metrics_file", "")
	for k, e := range envKeys {
		if err := v.BindEnv(k, e); err != nil {
			return Config{}, fmt.Errorf("bind env %s: %w", e, err)
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c.normalized(), nil
}

// Validate checks c after callers have applied their own overrides
// (command-line flags) on top of Load.
func (c Config) Validate() error {
	if err := validate.Struct(c.normalized()); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func (c Config) normalized() Config {
	c.LogLevel = strings.ToLower(c.LogLevel)
	c.Policy = strings.ToLower(c.Policy)
	return c
}
