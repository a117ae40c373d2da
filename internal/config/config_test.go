package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "0.0.0.0:6688", cfg.Addr())
	require.Equal(t, "local", cfg.Storage.Backend)
	require.Equal(t, int64(32<<20), cfg.Limits.MaxUploadBytes)
	require.Equal(t, time.Minute, cfg.Limits.UsersCacheTTL)
	require.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("STORAGE_BACKEND", "s3")
	t.Setenv("S3_ENDPOINT", "http://localhost:9000")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("USERS_CACHE_TTL", "30s")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 9000, cfg.Server.Port)
	require.Equal(t, "s3", cfg.Storage.Backend)
	require.Equal(t, "http://localhost:9000", cfg.Storage.S3Endpoint)
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
	require.Equal(t, 30*time.Second, cfg.Limits.UsersCacheTTL)
}

func TestLoad_InvalidInt(t *testing.T) {
	t.Setenv("SERVER_PORT", "eighty")

	_, err := Load()
	require.ErrorContains(t, err, "SERVER_PORT")
}

func TestValidate(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	require.ErrorContains(t, cfg.Validate(), "DATABASE_URL")

	cfg.Database.URL = "postgres://localhost/chat"
	cfg.Auth.SigningKeyPath = "/etc/chat/private.pem"
	cfg.Auth.VerifyingKeyPath = "/etc/chat/public.pem"
	require.NoError(t, cfg.Validate())

	cfg.Storage.Backend = "ftp"
	require.ErrorContains(t, cfg.Validate(), "STORAGE_BACKEND")
}

func TestLoad_NoDefaultKeys(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/chat")

	cfg, err := Load()
	require.NoError(t, err)
	require.Empty(t, cfg.Auth.SigningKeyPath)
	require.Empty(t, cfg.Auth.VerifyingKeyPath)

	err = cfg.Validate()
	require.ErrorContains(t, err, "AUTH_SIGNING_KEY_PATH")
	require.ErrorContains(t, err, "AUTH_VERIFYING_KEY_PATH")
}

func TestAuthConfig_KeySources(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "public.pem")
	require.NoError(t, os.WriteFile(path, []byte("from-file"), 0o600))

	a := AuthConfig{VerifyingKeyPath: path, SigningKeyPEM: "inline", SigningKeyPath: "/does/not/exist"}

	got, err := a.VerifyingKey()
	require.NoError(t, err)
	require.Equal(t, "from-file", string(got))

	got, err = a.SigningKey()
	require.NoError(t, err)
	require.Equal(t, "inline", string(got))

	a.SigningKeyPEM = ""
	_, err = a.SigningKey()
	require.Error(t, err)
}
