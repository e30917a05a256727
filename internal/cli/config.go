package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/mesh-intelligence/traits/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	// envPrefix scopes environment overrides, for example TRAITS_LOG_LEVEL.
	envPrefix = "TRAITS"

	cfgKeyBackend      = "backend"
	cfgKeyDataDir      = "data_dir"
	cfgKeyMaxCallDepth = "max_call_depth"
	cfgKeyLogLevel     = "log_level"

	defaultLogLevel = "info"
)

// fileConfig is the structure written to config.yaml by init.
type fileConfig struct {
	Backend      string `yaml:"backend"`
	DataDir      string `yaml:"data_dir,omitempty"`
	MaxCallDepth int    `yaml:"max_call_depth"`
	LogLevel     string `yaml:"log_level"`
}

// defaultFileConfig returns the values a fresh config.yaml carries.
func defaultFileConfig() fileConfig {
	return fileConfig{
		Backend:      types.BackendSQLite,
		MaxCallDepth: types.DefaultMaxCallDepth,
		LogLevel:     defaultLogLevel,
	}
}

// loadConfig reads config.yaml from configDir using Viper. A missing config
// directory or file is not an error; defaults and TRAITS_* environment
// variables apply.
func loadConfig(configDir string) (*viper.Viper, error) {
	v := viper.New()
	v.SetDefault(cfgKeyBackend, types.BackendSQLite)
	v.SetDefault(cfgKeyMaxCallDepth, types.DefaultMaxCallDepth)
	v.SetDefault(cfgKeyLogLevel, defaultLogLevel)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return v, nil
		}
		return nil, userError{fmt.Errorf("read config: %w", err)}
	}
	return v, nil
}

// configPath returns the location of config.yaml inside configDir.
func configPath(configDir string) string {
	return filepath.Join(configDir, configFileExt)
}

// configExists reports whether config.yaml is present in configDir.
func configExists(configDir string) (bool, error) {
	_, err := os.Stat(configPath(configDir))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("stat config file: %w", err)
}
