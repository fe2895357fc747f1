package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, "localhost:8080", cfg.ServerAddress)
	assert.Equal(t, "urls.db", cfg.SQLitePath)
	assert.Equal(t, ModeSQLite, cfg.Mode)
	assert.Equal(t, "http://localhost:3000", cfg.AllowedOrigin)
	assert.Equal(t, 6, cfg.CodeLength)
	assert.Equal(t, 5, cfg.CodeAttempts)
	assert.Equal(t, []string{"Mobile", "Android", "iPhone"}, cfg.MobileMarkers)
	assert.Equal(t, []string{"facebookexternalhit"}, cfg.CrawlerMarkers)
	assert.Equal(t, 3*time.Second, cfg.InterstitialRefresh)
	assert.Equal(t, 8*time.Second, cfg.InterstitialScriptDelay)
}

func TestLoad_EnvAndFlags(t *testing.T) {
	t.Setenv("SERVER_ADDRESS", "0.0.0.0:9000")
	t.Setenv("MOBILE_MARKERS", "Android, iPad ,")
	t.Setenv("INTERSTITIAL_REFRESH", "1s")

	cfg, err := Load([]string{"-a", "127.0.0.1:7000", "--code_attempts", "1"})
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:7000", cfg.ServerAddress)
	assert.Equal(t, 1, cfg.CodeAttempts)
	assert.Equal(t, []string{"Android", "iPad"}, cfg.MobileMarkers)
	assert.Equal(t, time.Second, cfg.InterstitialRefresh)
}

func TestLoad_Modes(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		args []string
		want string
	}{
		{name: "database", args: []string{"-d", "postgres://localhost/db"}, want: ModeDatabase},
		{name: "file", args: []string{"-l", "", "-f", "links.json"}, want: ModeFile},
		{name: "memory", env: map[string]string{"SQLITE_PATH": ""}, want: ModeMemory},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			cfg, err := Load(tt.args)
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.Mode)
		})
	}
}

func TestLoad_JSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"server_address": "localhost:8181",
		"crawler_markers": ["facebookexternalhit", "Twitterbot"],
		"allowed_origin": "https://links.example.com"
	}`), 0o600))

	cfg, err := Load([]string{"-c", path})
	require.NoError(t, err)

	assert.Equal(t, "localhost:8181", cfg.ServerAddress)
	assert.Equal(t, []string{"facebookexternalhit", "Twitterbot"}, cfg.CrawlerMarkers)
	assert.Equal(t, "https://links.example.com", cfg.AllowedOrigin)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load([]string{"-c", filepath.Join(t.TempDir(), "missing.json")})
	assert.Error(t, err)

	_, err = Load([]string{"--code_length=-1"})
	assert.Error(t, err)

	_, err = Load([]string{"--unknown"})
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := &Config{
		ServerAddress: "localhost:8080",
		AllowedOrigin: "http://localhost:3000",
		CodeLength:    6,
		CodeAttempts:  5,
	}
	require.NoError(t, cfg.Validate())

	cfg.EnableHTTPS = true
	assert.Error(t, cfg.Validate())

	cfg.TLSCertPath, cfg.TLSKeyPath = "cert.pem", "key.pem"
	assert.NoError(t, cfg.Validate())

	cfg.ServerAddress = ""
	assert.Error(t, cfg.Validate())
}
