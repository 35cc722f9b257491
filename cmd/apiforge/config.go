package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const envPrefix = "APIFORGE"

// settings are resolved from flags, APIFORGE_* variables and the config
// file, in that order of precedence.
type settings struct {
	Module  string `mapstructure:"module" validate:"required"`
	Path    string `mapstructure:"path" validate:"required"`
	Format  string `mapstructure:"format" validate:"oneof=yaml json"`
	Output  string `mapstructure:"output" validate:"oneof=yaml json"`
	Verbose bool   `mapstructure:"verbose"`
}

var settingKeys = []string{"module", "path", "format", "output", "verbose"}

func loadSettings(cmd *cobra.Command, configFile string) (settings, error) {
	v := viper.New()
	v.SetDefault("path", ".")
	v.SetDefault("format", "yaml")
	v.SetDefault("output", "yaml")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	for _, key := range settingKeys {
		if f := cmd.Flags().Lookup(key); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return settings{}, fmt.Errorf("bind flag %s: %w", key, err)
			}
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("apiforge")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return settings{}, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var s settings
	if err := v.Unmarshal(&s); err != nil {
		return settings{}, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := validator.New().Struct(s); err != nil {
		return settings{}, fmt.Errorf("invalid settings: %w", err)
	}
	return s, nil
}
