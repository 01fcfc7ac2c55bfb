package config

import (
	"os"
	"path/filepath"
)

type EnvConfig interface {
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
	GetStateFile() string
	GetMetricsAddr() string
}

type EnvVars struct {
	AppName     string `envconfig:"APP_NAME" default:"DevInsights"`
	Env         string `envconfig:"ENV" default:"DEV"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	StateFile   string `envconfig:"STATE_FILE"`
	MetricsAddr string `envconfig:"METRICS_ADDR"`
}

var _ EnvConfig = EnvVars{}

func (e EnvVars) GetAppName() string {
	return e.AppName
}

func (e EnvVars) GetEnv() string {
	if e.Env == "" {
		return "DEV"
	}
	return e.Env
}

func (e EnvVars) GetLogLevel() string {
	return e.LogLevel
}

// GetStateFile returns the path of the local state file. When unset it lives
// under the user's config directory.
func (e EnvVars) GetStateFile() string {
	if e.StateFile != "" {
		return e.StateFile
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "devinsights", "state.yaml")
}

func (e EnvVars) GetMetricsAddr() string {
	return e.MetricsAddr
}
