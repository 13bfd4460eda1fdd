// Package config resolves CLI settings from flags, FMMETRICS_* environment
// variables and an optional ~/.fmmetrics/config.yaml, in that order of
// precedence.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides (FMMETRICS_DB, ...).
const EnvPrefix = "FMMETRICS"

// Config is the resolved runtime configuration.
type Config struct {
	DB          string   `mapstructure:"db"`
	RedisURL    string   `mapstructure:"redis_url"`
	Strict      bool     `mapstructure:"strict"`
	ScoreParser string   `mapstructure:"score_parser"`
	Listen      string   `mapstructure:"listen"`
	CORSOrigins []string `mapstructure:"cors_origins"`
	Model       string   `mapstructure:"model"`
}

// Dir returns the per-user state directory under home.
func Dir(home string) string {
	return filepath.Join(home, ".fmmetrics")
}

// Load merges flags, environment and the config file found in dir. A missing
// config file is not an error. Flag names map to keys with dashes replaced by
// underscores.
func Load(flags *pflag.FlagSet, dir string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("db", filepath.Join(dir, "metrics.db"))
	v.SetDefault("score_parser", "digits")
	v.SetDefault("listen", ":8080")
	v.SetDefault("model", "claude-haiku-4-5-20251001")

	if flags != nil {
		var bindErr error
		flags.VisitAll(func(f *pflag.Flag) {
			key := strings.ReplaceAll(f.Name, "-", "_")
			if err := v.BindPFlag(key, f); err != nil && bindErr == nil {
				bindErr = err
			}
		})
		if bindErr != nil {
			return nil, fmt.Errorf("bind flags: %w", bindErr)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}
