package main

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"

	"sortabletree/internal/config"
)

const (
	envPrefix      = "TREE"
	configFileName = "treectl"

	cfgKeyDatabaseURL = "database_url"
	cfgKeySQLitePath  = "sqlite_path"
	cfgKeyTablePrefix = "table_prefix"
	cfgKeySortGap     = "sort_gap"
	cfgKeyEnvironment = "environment"
)

// loadConfig resolves settings from TREE_* variables, then the config file,
// then defaults. A missing treectl.yaml is not an error.
func loadConfig(configFile string) (*config.Config, error) {
	v := viper.New()
	v.SetDefault(cfgKeySQLitePath, "sortabletree.db")
	v.SetDefault(cfgKeyTablePrefix, "dev_")
	v.SetDefault(cfgKeySortGap, config.DefaultSortGap)
	v.SetDefault(cfgKeyEnvironment, "dev")

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(configFileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	gap := v.GetInt64(cfgKeySortGap)
	if gap < 2 {
		return nil, fmt.Errorf("%s must be >= 2, got %d", cfgKeySortGap, gap)
	}

	return &config.Config{
		Environment: v.GetString(cfgKeyEnvironment),
		DatabaseURL: v.GetString(cfgKeyDatabaseURL),
		SQLitePath:  v.GetString(cfgKeySQLitePath),
		TablePrefix: v.GetString(cfgKeyTablePrefix),
		SortGap:     gap,
	}, nil
}
