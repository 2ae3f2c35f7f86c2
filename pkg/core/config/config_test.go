package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"liquidity_stress/pkg/core/covenant"
	"liquidity_stress/pkg/core/ingest"
)

func TestLoad(t *testing.T) {
	// run inside an empty dir so a developer .env is not picked up
	chdir(t, t.TempDir())

	tests := []struct {
		name        string
		env         map[string]string
		wantErr     bool
		validateCfg func(*testing.T, *Config)
	}{
		{
			name: "defaults",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, ingest.DefaultUserAgent, cfg.SEC.UserAgent)
				assert.Equal(t, 30*time.Second, cfg.SEC.Timeout)
				assert.Equal(t, 10.0, cfg.SEC.RateLimit)
				assert.Equal(t, 12*time.Hour, cfg.SEC.TickerCacheTTL)
				assert.Equal(t, 8080, cfg.Server.Port)
				assert.Equal(t, "info", cfg.Logging.Level)
				assert.Equal(t, "text", cfg.Logging.Format)
				assert.Equal(t, covenant.DefaultThresholds(), cfg.Covenants.Thresholds())
				assert.Empty(t, cfg.ScenarioDeck)
			},
		},
		{
			name: "env overrides",
			env: map[string]string{
				"STRESS_SEC_USER_AGENT":         "Risk Desk risk@example.org",
				"STRESS_SEC_TIMEOUT":            "5s",
				"STRESS_SERVER_PORT":            "9090",
				"STRESS_LOGGING_FORMAT":         "json",
				"STRESS_COVENANTS_MAX_LEVERAGE": "3.5",
				"STRESS_SCENARIO_DECK":          "decks/lender.yaml",
			},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "Risk Desk risk@example.org", cfg.SEC.UserAgent)
				assert.Equal(t, 5*time.Second, cfg.SEC.Timeout)
				assert.Equal(t, 9090, cfg.Server.Port)
				assert.Equal(t, "json", cfg.Logging.Format)
				assert.Equal(t, 3.5, cfg.Covenants.MaxLeverage)
				assert.Equal(t, "decks/lender.yaml", cfg.ScenarioDeck)
			},
		},
		{
			name:    "bad duration",
			env:     map[string]string{"STRESS_SEC_TIMEOUT": "soon"},
			wantErr: true,
		},
		{
			name:    "invalid port",
			env:     map[string]string{"STRESS_SERVER_PORT": "70000"},
			wantErr: true,
		},
		{
			name:    "invalid log level",
			env:     map[string]string{"STRESS_LOGGING_LEVEL": "chatty"},
			wantErr: true,
		},
		{
			name:    "non-positive rate",
			env:     map[string]string{"STRESS_SEC_RATE_LIMIT": "0"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := Load()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.validateCfg(t, cfg)
		})
	}
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("STRESS_SERVER_PORT=7070\n"), 0644))
	t.Cleanup(func() { os.Unsetenv("STRESS_SERVER_PORT") })

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
}

func TestLoadFile(t *testing.T) {
	chdir(t, t.TempDir())
	path := filepath.Join(t.TempDir(), "stress.yaml")
	doc := "sec:\n  rate_limit: 5\ncovenants:\n  min_cash: 250\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 5.0, cfg.SEC.RateLimit)
	assert.Equal(t, 250.0, cfg.Covenants.MinCash)
	assert.Equal(t, 30*time.Second, cfg.SEC.Timeout, "unset keys keep their defaults")

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

// chdir is a go1.21-compatible stand-in for testing.T.Chdir (added in go1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
