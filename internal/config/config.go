package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const envPrefix = "DEVINSIGHTS"

type Config interface {
	EnvConfig
	APIConfig
	WorkflowConfig
}

type mainConfig struct {
	EnvVars
	API
	Workflow
}

// New loads an optional .env file and then the DEVINSIGHTS_* environment.
func New() (Config, error) {
	_ = godotenv.Load()

	var c mainConfig
	if err := envconfig.Process(envPrefix, &c); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return c, nil
}
