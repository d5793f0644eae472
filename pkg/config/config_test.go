package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "backoffice.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
APP_NAME: backoffice-test
DATABASE:
  TYPE: sqlite
  DBNAME: test.db
INVITATION:
  TTL: 48h
`), 0o600))

	cfg, err := LoadConfig(Params{Path: Path(path)})
	require.NoError(t, err)
	require.Equal(t, "backoffice-test", cfg.AppName)
	require.Equal(t, "test.db", cfg.Database.DBNAME)
	require.Equal(t, 48*time.Hour, cfg.Invitation.TTL)
	require.Equal(t, "8080", cfg.Server.Addr)
	require.True(t, cfg.Database.AutoMigrate)
	require.Equal(t, "http", cfg.Otel.Protocol)
}

func TestLoadConfigMissingExplicitFile(t *testing.T) {
	_, err := LoadConfig(Params{Path: Path(filepath.Join(t.TempDir(), "nope.yaml"))})
	require.Error(t, err)
}

func TestApplySecrets(t *testing.T) {
	cfg := &Config{}
	cfg.Database.User = "app"

	ApplySecrets(cfg, map[string]any{
		"jwt_secret":        "s3cret",
		"database_user":     "",
		"database_password": "pw",
		"minio_secret_key":  42,
	})

	require.Equal(t, "s3cret", cfg.Auth.JWTSecret)
	require.Equal(t, "app", cfg.Database.User)
	require.Equal(t, "pw", cfg.Database.Password)
	require.Empty(t, cfg.Minio.SecretKey)
}
