package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg, err := unmarshal(v)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "database", cfg.Summary.Source)
	assert.Equal(t, 30*time.Second, cfg.Summary.StaleTime)
	assert.Equal(t, 10*time.Second, cfg.Summary.FetchTimeout)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("SUMMARY_STALE_TIME", "2m")
	t.Setenv("SUMMARY_SOURCE", "upstream")
	t.Setenv("SUMMARY_UPSTREAM_URL", "http://console.local/summary")

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()
	bindEnv(v)

	cfg, err := unmarshal(v)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 2*time.Minute, cfg.Summary.StaleTime)
	assert.Equal(t, "upstream", cfg.Summary.Source)
	assert.Equal(t, "http://console.local/summary", cfg.Summary.UpstreamURL)
}

func TestLoad_UpstreamWithoutURLFallsBack(t *testing.T) {
	t.Setenv("SUMMARY_SOURCE", "upstream")
	t.Setenv("SUMMARY_UPSTREAM_URL", "")

	cfg := Load()
	assert.Equal(t, "database", cfg.Summary.Source)
}
