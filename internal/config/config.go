// Package config loads service settings from the environment, an optional
// .env file and an optional YAML config file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/ukydev/equipment-maintenance/internal/validation"
)

// Config holds every setting of the maintenance service.
type Config struct {
	Port            string        `mapstructure:"port" validate:"required,numeric"`
	StoreBackend    string        `mapstructure:"store_backend" validate:"oneof=memory mongo sqlite"`
	MongoURI        string        `mapstructure:"mongo_uri" validate:"required_if=StoreBackend mongo"`
	MongoDB         string        `mapstructure:"mongo_db" validate:"required_if=StoreBackend mongo"`
	SQLitePath      string        `mapstructure:"sqlite_path" validate:"required_if=StoreBackend sqlite"`
	MQTTBroker      string        `mapstructure:"mqtt_broker"`
	MQTTTopic       string        `mapstructure:"mqtt_topic" validate:"required_with=MQTTBroker"`
	MQTTClientID    string        `mapstructure:"mqtt_client_id"`
	LogLevel        string        `mapstructure:"log_level" validate:"oneof=trace debug info warn warning error"`
	LogFormat       string        `mapstructure:"log_format" validate:"oneof=text json"`
	VocabularyFile  string        `mapstructure:"vocabulary_file"`
	FutureTolerance time.Duration `mapstructure:"future_tolerance" validate:"gte=0"`
	BackfillWindow  time.Duration `mapstructure:"backfill_window" validate:"gt=0"`
}

var defaults = map[string]any{
	"port":             "8080",
	"store_backend":    "memory",
	"mongo_uri":        "",
	"mongo_db":         "maintenance",
	"sqlite_path":      "maintenance.db",
	"mqtt_broker":      "",
	"mqtt_topic":       "maintenance/records",
	"mqtt_client_id":   "maintenance-api",
	"log_level":        "info",
	"log_format":       "text",
	"vocabulary_file":  "",
	"future_tolerance": "1m",
	"backfill_window":  "720h",
}

// Load reads the configuration. Precedence, highest first: environment,
// .env file, configFile (if given), defaults.
func Load(configFile string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.StoreBackend = strings.ToLower(cfg.StoreBackend)
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	cfg.LogFormat = strings.ToLower(cfg.LogFormat)

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// Limits returns the validation thresholds derived from the config.
func (c *Config) Limits() validation.Limits {
	l := validation.DefaultLimits()
	l.FutureTolerance = c.FutureTolerance
	l.BackfillWindow = c.BackfillWindow
	return l
}

// Vocabulary returns the configured vocabulary, or the default one.
func (c *Config) Vocabulary() (validation.Vocabulary, error) {
	if c.VocabularyFile == "" {
		return validation.DefaultVocabulary(), nil
	}
	return validation.LoadVocabulary(c.VocabularyFile)
}

// ConfigureLogging applies the log level and format to the standard logrus logger.
func (c *Config) ConfigureLogging() error {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return err
	}
	log.SetLevel(level)
	if c.LogFormat == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	return nil
}
