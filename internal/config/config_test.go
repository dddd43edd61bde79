package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	t.Parallel()

	content := `
server:
  host: "127.0.0.1"
  port: 8080
  max_connections: 500
  allowed_origins:
    - "http://localhost:3000"
    - "https://example.com"

redis:
  addr: "redis:6379"
  password: "secret"
  db: 1

database:
  driver: postgres
  dsn: "host=db user=emo dbname=emo"

game:
  default_vote_timeout: 45
  default_max_cycles: 2
  prompt_timeout: 5
  enforce_vote_timeout: true
  room_ttl: 15
  cleanup_schedule: "@every 1m"

security:
  message_rate: 5
  message_burst: 8
  host_token_secret: "s3cret"
  debug_token: "dbg"

log:
  level: debug
  development: true
`
	cfg, err := Load(writeConfig(t, content))
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 500, cfg.Server.MaxConnections)
	assert.Len(t, cfg.Server.AllowedOrigins, 2)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, 1, cfg.Redis.DB)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, 45, cfg.Game.DefaultVoteTimeout)
	assert.Equal(t, 2, cfg.Game.DefaultMaxCycles)
	assert.True(t, cfg.Game.EnforceVoteTimeout)
	assert.Equal(t, "@every 1m", cfg.Game.CleanupSchedule)
	assert.InDelta(t, 5.0, cfg.Security.MessageRate, 0.001)
	assert.Equal(t, 8, cfg.Security.MessageBurst)
	assert.Equal(t, "dbg", cfg.Security.DebugToken)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Log.Development)
}

func TestLoad_FileNotFound(t *testing.T) {
	t.Parallel()

	cfg, err := Load("/nonexistent/path/config.yaml")
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoad_InvalidYAML(t *testing.T) {
	t.Parallel()

	cfg, err := Load(writeConfig(t, "invalid: yaml: :::"))
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoad_AppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, `{}`))
	require.NoError(t, err)

	assert.Equal(t, defaultHost, cfg.Server.Host)
	assert.Equal(t, defaultPort, cfg.Server.Port)
	assert.Equal(t, defaultMaxConnections, cfg.Server.MaxConnections)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, defaultRedisAddr, cfg.Redis.Addr)
	assert.Equal(t, DriverMemory, cfg.Database.Driver)
	assert.Equal(t, defaultVoteTimeout, cfg.Game.DefaultVoteTimeout)
	assert.Equal(t, defaultMaxCycles, cfg.Game.DefaultMaxCycles)
	assert.False(t, cfg.Game.EnforceVoteTimeout)
	assert.InDelta(t, float64(defaultConnectRate), cfg.Security.ConnectRate, 0.001)
	assert.Equal(t, defaultConnectBurst, cfg.Security.ConnectBurst)
	assert.Equal(t, defaultLogLevel, cfg.Log.Level)
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NotNil(t, cfg)

	assert.Equal(t, "0.0.0.0:8000", cfg.Server.Addr())
	assert.NotEmpty(t, cfg.Security.HostTokenSecret)
}

func TestGameConfig_DurationMethods(t *testing.T) {
	t.Parallel()

	cfg := &GameConfig{DefaultVoteTimeout: 30, PromptTimeout: 3, RoomTTL: 10}

	assert.Equal(t, 30*time.Second, cfg.VoteTimeoutDuration())
	assert.Equal(t, 3*time.Second, cfg.PromptTimeoutDuration())
	assert.Equal(t, 10*time.Minute, cfg.RoomTTLDuration())
}

func TestLoadFromEnv(t *testing.T) {
	// 修改环境变量，不能并行
	t.Setenv(envHostTokenSecret, "env-secret")
	t.Setenv(envDebugToken, "env-debug")
	t.Setenv(envServerPort, "9999")
	t.Setenv(envRedisAddr, "env-redis:6380")
	t.Setenv(envAllowedOrigins, "http://a.com, http://b.com")

	cfg, err := Load(writeConfig(t, `{}`))
	require.NoError(t, err)

	assert.Equal(t, "env-secret", cfg.Security.HostTokenSecret)
	assert.Equal(t, "env-debug", cfg.Security.DebugToken)
	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, "env-redis:6380", cfg.Redis.Addr)
	assert.Equal(t, []string{"http://a.com", "http://b.com"}, cfg.Server.AllowedOrigins)
}
