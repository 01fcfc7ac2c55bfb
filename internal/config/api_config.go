package config

import (
	"strings"
	"time"
)

type APIConfig interface {
	GetAPIURL() string
	GetStatusTimeout() time.Duration
	GetIngestTimeout() time.Duration
	GetAuthTimeout() time.Duration
	GetValidateTimeout() time.Duration
}

type API struct {
	URL             string        `envconfig:"API_URL" default:"http://localhost:8000"`
	StatusTimeout   time.Duration `envconfig:"STATUS_TIMEOUT" default:"3s"`
	IngestTimeout   time.Duration `envconfig:"INGEST_TIMEOUT" default:"120s"`
	AuthTimeout     time.Duration `envconfig:"AUTH_TIMEOUT" default:"10s"`
	ValidateTimeout time.Duration `envconfig:"VALIDATE_TIMEOUT" default:"3s"`
}

var _ APIConfig = API{}

func (a API) GetAPIURL() string {
	return strings.TrimRight(a.URL, "/")
}

func (a API) GetStatusTimeout() time.Duration {
	return a.StatusTimeout
}

func (a API) GetIngestTimeout() time.Duration {
	return a.IngestTimeout
}

func (a API) GetAuthTimeout() time.Duration {
	return a.AuthTimeout
}

func (a API) GetValidateTimeout() time.Duration {
	return a.ValidateTimeout
}
