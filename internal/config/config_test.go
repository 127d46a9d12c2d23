package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir changes the working directory for the test and restores it on cleanup.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}

func requiredEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/leases")
	t.Setenv("MINIO_ENDPOINT", "localhost:9000")
	t.Setenv("MINIO_ACCESS_KEY", "minio")
	t.Setenv("MINIO_SECRET_KEY", "minio123")
}

func TestLoadFromEnvWithDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	requiredEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "leases", cfg.Minio.Bucket)
	assert.Equal(t, time.Hour, cfg.Minio.SignedURLTTL)
	assert.Equal(t, "llama-3.3-70b-versatile", cfg.Generation.Model)
	assert.Equal(t, DefaultFromEmail, cfg.Email.From)
	assert.Empty(t, cfg.Generation.APIKey)
}

func TestLoadFileThenEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "leasegen.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: "9090"
databaseURL: postgres://file/leases
minio:
  endpoint: files.example.com
  accessKey: a
  secretKey: b
  signedURLTTL: 15m
email:
  from: Leases <leases@example.com>
`), 0o600))
	t.Setenv("PORT", "7070")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "7070", cfg.Port)
	assert.Equal(t, "postgres://file/leases", cfg.DatabaseURL)
	assert.Equal(t, 15*time.Minute, cfg.Minio.SignedURLTTL)
	assert.Equal(t, "Leases <leases@example.com>", cfg.Email.From)
}

func TestLoadRequiresStoreCredentials(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("DATABASE_URL", "postgres://localhost/leases")
	t.Setenv("MINIO_ENDPOINT", "localhost:9000")
	t.Setenv("MINIO_ACCESS_KEY", "")
	t.Setenv("MINIO_SECRET_KEY", "")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "minio.accessKey")
}

func TestLoadRequiresDatabase(t *testing.T) {
	chdir(t, t.TempDir())
	requiredEnv(t)
	t.Setenv("DATABASE_URL", "")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "databaseURL")
}

func TestLoadExplicitMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestObjectBaseURL(t *testing.T) {
	assert.Equal(t, "http://localhost:9000", MinioConfig{Endpoint: "localhost:9000"}.ObjectBaseURL())
	assert.Equal(t, "https://s3.example.com", MinioConfig{Endpoint: "s3.example.com", UseSSL: true}.ObjectBaseURL())
	assert.Equal(t, "https://files.example.com", MinioConfig{Endpoint: "minio:9000", PublicURL: "https://files.example.com"}.ObjectBaseURL())
}
