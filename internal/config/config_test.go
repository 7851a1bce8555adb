package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var requiredEnv = map[string]string{
	"MYSQL_DSN":          "user:pass@tcp(localhost:3306)/tivoa?parseTime=true",
	"JWT_ACCESS_SECRET":  "access",
	"JWT_REFRESH_SECRET": "refresh",
	"BKASH_USERNAME":     "merchant",
	"BKASH_PASSWORD":     "secret",
	"APP_KEY":            "app-key",
	"APP_SECRET":         "app-secret",
	"BKASH_CALLBACK_URL": "http://localhost:3000/payment/callback",
	"RUNWARE_API_KEY":    "rw-key",
}

func setRequired(t *testing.T) {
	t.Helper()
	t.Chdir(t.TempDir())
	for k, v := range requiredEnv {
		t.Setenv(k, v)
	}
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":4000", cfg.ListenAddr)
	assert.Equal(t, "https://tokenized.pay.bka.sh/v1.2.0-beta/tokenized/checkout", cfg.BKashBaseURL)
	assert.Equal(t, 15*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 15*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, 10*time.Minute, cfg.OTPTTL)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.AllowedOrigins)
	assert.False(t, cfg.MirrorEnabled())
	assert.False(t, cfg.GoogleEnabled())
}

func TestLoadReportsAllMissingVariables(t *testing.T) {
	t.Chdir(t.TempDir())
	for k := range requiredEnv {
		t.Setenv(k, "")
	}

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MYSQL_DSN")
	assert.Contains(t, err.Error(), "RUNWARE_API_KEY")
}

func TestLoadRequiresCompleteS3Settings(t *testing.T) {
	setRequired(t)
	t.Setenv("S3_BUCKET", "images")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "S3_REGION")
}

func TestLoadReadsEnvFile(t *testing.T) {
	setRequired(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.env")
	require.NoError(t, os.WriteFile(path, []byte("PORT=9090\nCORS_ALLOWED_ORIGINS=https://a.example, https://b.example\n"), 0o600))
	t.Setenv("CONFIG_ENV_PATH", path)
	t.Setenv("PORT", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.ListenAddr)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
}

func TestLoadFailsWhenExplicitEnvFileMissing(t *testing.T) {
	setRequired(t)
	t.Setenv("CONFIG_ENV_PATH", filepath.Join(t.TempDir(), "nope.env"))

	_, err := Load()
	require.Error(t, err)
}

func TestNormalizeBaseURL(t *testing.T) {
	assert.Equal(t, "https://api.runware.ai/v1", normalizeBaseURL("api.runware.ai/v1/", "x"))
	assert.Equal(t, "http://localhost:8080", normalizeBaseURL("http://localhost:8080", "x"))
	assert.Equal(t, "fallback", normalizeBaseURL("  ", "fallback"))
}
