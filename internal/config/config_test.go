package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("BUYSELL_JWT_SECRET", "from-env")
	cfg, err := Load("")
	require.NoError(t, err)

	want := DefaultConfig()
	assert.Equal(t, want.Server, cfg.Server)
	assert.Equal(t, want.Database, cfg.Database)
	assert.Equal(t, want.Limits, cfg.Limits)
	assert.Equal(t, want.CAS, cfg.CAS)
	assert.Empty(t, cfg.Auth.CacheNodes)
	assert.Equal(t, 50, cfg.Auth.HashReplicas)
	assert.Equal(t, "0.0.0.0:5000", cfg.Server.Addr())
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	_, err := Load("")
	assert.ErrorContains(t, err, "jwt.secret")
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "buysell.yaml")
	body := []byte(`
server:
  port: 9090
database:
  driver: sqlite
  dsn: /tmp/buysell.db
limits:
  otp_max_attempts: 3
  attempt_window: 2m
`)
	require.NoError(t, os.WriteFile(path, body, 0o600))
	t.Setenv("BUYSELL_JWT_SECRET", "from-env")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 3, cfg.Limits.OTPMaxAttempts)
	assert.Equal(t, 2*time.Minute, cfg.Limits.AttemptWindow)
	assert.Equal(t, "from-env", cfg.JWT.Secret)
	// 未覆盖的键保持默认值
	assert.Equal(t, 10, cfg.Limits.LoginMaxAttempts)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := DefaultConfig()
		cfg.JWT.Secret = "s3cret"
		return cfg
	}
	assert.NoError(t, valid().Validate())

	cfg := valid()
	cfg.Database.Driver = "mongo"
	assert.Error(t, cfg.Validate())

	assert.Error(t, DefaultConfig().Validate())

	cfg = valid()
	cfg.Account.EmailPattern = "("
	assert.Error(t, cfg.Validate())
}

func TestAddrFallsBackToAllInterfaces(t *testing.T) {
	assert.Equal(t, "0.0.0.0:80", ServerConfig{Port: 80}.Addr())
}
