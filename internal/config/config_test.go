package config_test

import (
	"testing"
	"time"

	"github.com/jrsteele09/devinsights/internal/config"
	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	t.Setenv("DEVINSIGHTS_STATE_FILE", "/tmp/devinsights-state.yaml")

	c, err := config.New()
	require.NoError(t, err)

	require.Equal(t, "DevInsights", c.GetAppName())
	require.Equal(t, "DEV", c.GetEnv())
	require.Equal(t, "http://localhost:8000", c.GetAPIURL())
	require.Equal(t, 3*time.Second, c.GetPollInterval())
	require.Equal(t, 3*time.Second, c.GetStatusTimeout())
	require.Equal(t, 120*time.Second, c.GetIngestTimeout())
	require.Equal(t, 0, c.GetMaxPollAttempts())
	require.Equal(t, time.Duration(0), c.GetMaxPollDuration())
	require.Equal(t, "main", c.GetBranch())
	require.Equal(t, 100, c.GetCommitLimit())
	require.Equal(t, "/tmp/devinsights-state.yaml", c.GetStateFile())
}

func TestNew_Overrides(t *testing.T) {
	t.Setenv("DEVINSIGHTS_API_URL", "https://insights.example.com/")
	t.Setenv("DEVINSIGHTS_POLL_INTERVAL", "250ms")
	t.Setenv("DEVINSIGHTS_MAX_POLL_ATTEMPTS", "40")
	t.Setenv("DEVINSIGHTS_MAX_POLL_DURATION", "5m")
	t.Setenv("DEVINSIGHTS_BRANCH", "develop")

	c, err := config.New()
	require.NoError(t, err)

	require.Equal(t, "https://insights.example.com", c.GetAPIURL())
	require.Equal(t, 250*time.Millisecond, c.GetPollInterval())
	require.Equal(t, 40, c.GetMaxPollAttempts())
	require.Equal(t, 5*time.Minute, c.GetMaxPollDuration())
	require.Equal(t, "develop", c.GetBranch())
}

func TestNew_InvalidDuration(t *testing.T) {
	t.Setenv("DEVINSIGHTS_POLL_INTERVAL", "soon")

	_, err := config.New()
	require.Error(t, err)
}

func TestGetStateFile_DefaultsUnderConfigDir(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	require.Equal(t, "/tmp/xdg/devinsights/state.yaml", config.EnvVars{}.GetStateFile())
}
