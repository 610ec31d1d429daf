// Package config provides centralized configuration management for the application.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/viper"

	"github.com/aki-fujii/copilot-pr-metrics/internal/domain"
)

const (
	// DefaultAPIBase is used when no api base is configured.
	DefaultAPIBase = "https://api.github.com"

	// envFileName is the optional settings file checked in the working
	// directory. Values in it take precedence over flags, matching how the
	// tool is deployed alongside a test.env.
	envFileName = "test.env"
)

// Settings holds the resolved configuration the pipeline runs with.
type Settings struct {
	AppID          string
	PrivateKeyPath string
	InstallationID int64
	Enterprise     string
	APIBase        string
	Output         string
}

// Flags carries the raw CLI flag values into resolution. Flags are the
// lowest-precedence source.
type Flags struct {
	AppID          string
	PrivateKey     string
	InstallationID string
	Enterprise     string
	APIBase        string
	Output         string
}

// source is one entry of the precedence table: it returns the value for a
// settings key, or "" when the source has nothing for it.
type source func(key string) string

// Load resolves settings from the default env file, the process environment,
// and the given flags, in that order of precedence.
func Load(flags Flags) (*Settings, error) {
	return LoadFrom(envFileName, flags)
}

// LoadFrom is Load with an explicit env file path, used by tests.
// Resolution walks an ordered source list and takes the first non-empty
// value per key; several keys are aliased for compatibility with older
// deployments of the settings file.
func LoadFrom(envFile string, flags Flags) (*Settings, error) {
	v := viper.New()
	v.SetConfigFile(envFile)
	v.SetConfigType("env")
	fileLoaded := v.ReadInConfig() == nil

	fromFile := func(key string) string {
		if !fileLoaded {
			return ""
		}
		return v.GetString(key)
	}
	sources := []source{fromFile, os.Getenv}

	resolve := func(flagValue string, keys ...string) string {
		for _, lookup := range sources {
			for _, key := range keys {
				if value := lookup(key); value != "" {
					return value
				}
			}
		}
		return flagValue
	}

	appID := resolve(flags.AppID, "APP_ID", "AppID")
	privateKey := resolve(flags.PrivateKey, "PRIVATE_KEY", "PemPath", "PRIVATE_KEY_PATH")
	installationID := resolve(flags.InstallationID, "INSTALLATION_ID", "InstallationID")
	enterprise := resolve(flags.Enterprise, "ENTERPRISE")
	apiBase := resolve(flags.APIBase, "API_BASE")
	output := resolve(flags.Output, "OUTPUT")

	var missing []string
	if appID == "" {
		missing = append(missing, "--app-id")
	}
	if privateKey == "" {
		missing = append(missing, "--private-key")
	}
	if installationID == "" {
		missing = append(missing, "--installation-id")
	}
	if enterprise == "" {
		missing = append(missing, "--enterprise")
	}
	if len(missing) > 0 {
		return nil, &domain.ConfigError{Missing: missing}
	}

	installationIDNum, err := strconv.ParseInt(installationID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid installation id %q: %w", installationID, err)
	}

	if apiBase == "" {
		apiBase = DefaultAPIBase
	}

	return &Settings{
		AppID:          appID,
		PrivateKeyPath: privateKey,
		InstallationID: installationIDNum,
		Enterprise:     enterprise,
		APIBase:        apiBase,
		Output:         output,
	}, nil
}
