// Package config loads entityc settings from a config file and the
// environment.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variables overriding config keys,
// e.g. ENTITYC_ADAPTER_DSN for adapter.dsn.
const EnvPrefix = "ENTITYC"

// Config holds all configuration for entityc.
type Config struct {
	Schema  SchemaConfig  `mapstructure:"schema"`
	Adapter AdapterConfig `mapstructure:"adapter"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// SchemaConfig locates the schema files.
type SchemaConfig struct {
	// Path is a .ent or YAML file, or a directory of them.
	Path string `mapstructure:"path"`
}

// AdapterConfig selects the storage adapter.
type AdapterConfig struct {
	Name string `mapstructure:"name"`
	DSN  string `mapstructure:"dsn"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables. An explicit
// file overrides the search of entityc.yaml in the working directory and
// $HOME/.entityc.
func Load(file string) (*Config, error) {
	v := viper.New()

	v.SetDefault("schema.path", "schema")
	v.SetDefault("adapter.name", "sqlite")
	v.SetDefault("adapter.dsn", "entities.db")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("entityc")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(filepath.Join(homeDir(), ".entityc"))
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "reading config")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshalling config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "validating config")
	}
	return &cfg, nil
}

// Validate checks that required configuration fields are set and consistent.
func (c *Config) Validate() error {
	if c.Schema.Path == "" {
		return errors.New("schema.path must not be empty")
	}
	if c.Adapter.Name == "" {
		return errors.New("adapter.name must not be empty")
	}
	if c.Adapter.DSN == "" {
		return errors.New("adapter.dsn must not be empty")
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return errors.Newf("logging.level must be one of debug, info, warn, error (got %q)", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return errors.Newf("logging.format must be console or json (got %q)", c.Logging.Format)
	}
	return nil
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
