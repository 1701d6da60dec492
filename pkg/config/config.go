package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config is the full runtime configuration, resolved from defaults, the
// optional config.yaml, environment variables (TXNCLASS_ prefix) and
// command-line flags, in increasing priority.
type Config struct {
	DatabaseURL    string           `mapstructure:"database_url"`
	CategoriesPath string           `mapstructure:"categories_path"`
	Classifier     ClassifierConfig `mapstructure:"classifier"`
}

// ClassifierConfig tunes the statistical classifier stage.
type ClassifierConfig struct {
	Trees        int     `mapstructure:"trees"`
	Holdout      float64 `mapstructure:"holdout"`
	Seed         int64   `mapstructure:"seed"`
	MinTrainRows int     `mapstructure:"min_train_rows"`
}

// Build loads configuration. cfgFile overrides the default config.yaml
// lookup; flags (when non-nil) take precedence over everything else.
func Build(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	v.SetDefault("database_url", "postgres://localhost:5432/banking?sslmode=disable")
	v.SetDefault("categories_path", "categories.csv")
	v.SetDefault("classifier.trees", 1000)
	v.SetDefault("classifier.holdout", 0.2)
	v.SetDefault("classifier.seed", 0)
	v.SetDefault("classifier.min_train_rows", 10)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("txnclass")
	// Nested keys map to env vars with underscores:
	// classifier.trees -> TXNCLASS_CLASSIFIER_TREES.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// The default config.yaml is optional; a config named explicitly
		// is not, and a malformed file is always an error.
		_, notFound := err.(viper.ConfigFileNotFoundError)
		if cfgFile != "" || !notFound {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("failed to bind flags: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}
