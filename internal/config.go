package internal

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type NovaFitsConfig struct {
	AppName string `mapstructure:"app_name"`

	Log struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`

	Dump struct {
		Overwrite bool `mapstructure:"overwrite"`
	} `mapstructure:"dump"`

	Build struct {
		Kind string `mapstructure:"kind"`
		Rows int    `mapstructure:"rows"`
	} `mapstructure:"build"`
}

// LoadConfig reads a YAML config file. An empty path uses the defaults.
// FITSTAB_* environment variables override both, e.g. FITSTAB_LOG_LEVEL.
func LoadConfig(path string) (*NovaFitsConfig, error) {
	v := viper.New()
	v.SetDefault("app_name", "fitstab")
	v.SetDefault("log.level", "info")
	v.SetDefault("dump.overwrite", false)
	v.SetDefault("build.kind", "binary")
	v.SetDefault("build.rows", 0)

	v.SetEnvPrefix("FITSTAB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg NovaFitsConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}
