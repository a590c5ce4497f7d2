package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	ferrors "github.com/matzehuels/findreq/pkg/errors"
)

// configName is the config file name without extension.
const configName = ".findreq"

// configType is the config file format.
const configType = "yaml"

// envPrefix is the environment variable prefix for findreq settings.
const envPrefix = "FINDREQ"

// envKeySeparator is the nested key separator in environment variable names.
const envKeySeparator = "_"

// LoadConfig loads configuration from defaults, a config file, a .env file
// and FINDREQ_* environment variables, in increasing precedence.
//
// If configPath is non-empty it is used as the explicit config file path.
// Otherwise .findreq.yaml is searched in root (or the working directory when
// root is empty) and then $HOME. A missing config file is not an error.
// A .env file in root is loaded without overriding variables already set.
func LoadConfig(configPath, root string) (*Config, error) {
	searchDir := root
	if searchDir == "" {
		searchDir = "."
	}
	if err := loadDotEnv(filepath.Join(searchDir, ".env")); err != nil {
		return nil, ferrors.Wrap(ferrors.ErrCodeInvalidConfig, err, "load .env")
	}

	viperCfg := viper.New()

	applyDefaults(viperCfg)
	if root != "" {
		viperCfg.SetDefault("project_root", root)
	}

	viperCfg.SetConfigType(configType)
	viperCfg.SetEnvPrefix(envPrefix)
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", envKeySeparator))
	viperCfg.AutomaticEnv()

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName(configName)
		viperCfg.AddConfigPath(searchDir)

		home, err := os.UserHomeDir()
		if err == nil {
			viperCfg.AddConfigPath(home)
		}
	}

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFound) {
			return nil, ferrors.Wrap(ferrors.ErrCodeInvalidConfig, readErr, "read config")
		}
	}

	var cfg Config

	unmarshalErr := viperCfg.Unmarshal(&cfg)
	if unmarshalErr != nil {
		return nil, ferrors.Wrap(ferrors.ErrCodeInvalidConfig, unmarshalErr, "unmarshal config")
	}

	validateErr := cfg.Validate()
	if validateErr != nil {
		return nil, ferrors.Wrap(ferrors.ErrCodeInvalidConfig, validateErr, "validate config")
	}

	cfg.File = viperCfg.ConfigFileUsed()

	return &cfg, nil
}

func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("%s: %w", path, err)
}
