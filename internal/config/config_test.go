package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dyluth/easel/internal/layout"
	"github.com/dyluth/easel/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "easel.yml")
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))
	return configPath
}

func TestLoad_ValidConfig(t *testing.T) {
	configPath := writeConfig(t, `version: "1.0"
server:
  addr: ":9090"
redis:
  url: "redis://cache:6379/2"
  namespace: "ward7"
store:
  require_durable: true
  session_ttl: 2h
  op_timeout: 750ms
session:
  mode: lenient
lock:
  wait_timeout: 3s
broadcast:
  heartbeat_interval: 15s
  instance_id: "node-1"
layout:
  zones:
    - name: tasks
      x: 0
      y: 0
      width: 800
      height: 1000
      columns: 2
      padding: 40
  free_area:
    x: 0
    y: 1200
    width: 1000
    height: 500
    padding: 10
    crowd_limit: 2000
    max_attempts: 5
`)

	config, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, ":9090", config.Server.Addr)
	assert.Equal(t, DefaultShutdownTimeout, config.Server.ShutdownTimeout)
	assert.Equal(t, "redis://cache:6379/2", config.Redis.URL)
	assert.Equal(t, "ward7", config.Redis.Namespace)
	assert.True(t, config.Store.RequireDurable)
	assert.Equal(t, 2*time.Hour, config.Store.SessionTTL)
	assert.Equal(t, 750*time.Millisecond, config.Store.OpTimeout)
	assert.Equal(t, session.ModeLenient, config.Session.Mode)
	assert.Equal(t, 3*time.Second, config.Lock.WaitTimeout)
	assert.Equal(t, 15*time.Second, config.Broadcast.HeartbeatInterval)
	assert.Equal(t, DefaultBufferSize, config.Broadcast.BufferSize)
	assert.Equal(t, "node-1", config.Broadcast.InstanceID)

	assert.Equal(t, []layout.Zone{{
		Name:    "tasks",
		Rect:    layout.Rect{Width: 800, Height: 1000},
		Columns: 2,
		Padding: 40,
	}}, config.Zones())
	assert.Equal(t, layout.FreeArea{
		Rect:        layout.Rect{Y: 1200, Width: 1000, Height: 500},
		Padding:     10,
		CrowdLimit:  2000,
		MaxAttempts: 5,
	}, config.FreeArea())
}

func TestLoad_FileNotFound(t *testing.T) {
	config, err := Load("/nonexistent/easel.yml")
	assert.Error(t, err)
	assert.Nil(t, config)
	assert.Contains(t, err.Error(), "failed to read config")
}

func TestLoadOptional_MissingFileUsesDefaults(t *testing.T) {
	config, err := LoadOptional(filepath.Join(t.TempDir(), "absent.yml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), config)
}

func TestLoad_InvalidYAML(t *testing.T) {
	configPath := writeConfig(t, `version: "1.0"
server:
  - this is invalid
    yaml syntax
`)

	config, err := Load(configPath)
	assert.Error(t, err)
	assert.Nil(t, config)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestDefault(t *testing.T) {
	config := Default()

	assert.Equal(t, "1.0", config.Version)
	assert.Equal(t, DefaultAddr, config.Server.Addr)
	assert.Equal(t, DefaultRedisURL, config.Redis.URL)
	assert.Equal(t, DefaultNamespace, config.Redis.Namespace)
	assert.False(t, config.Store.RequireDurable)
	assert.Equal(t, DefaultSessionTTL, config.Store.SessionTTL)
	assert.Equal(t, DefaultOpTimeout, config.Store.OpTimeout)
	assert.Equal(t, session.ModeStrict, config.Session.Mode)
	assert.Equal(t, DefaultLockWaitTimeout, config.Lock.WaitTimeout)
	assert.Equal(t, DefaultHeartbeatInterval, config.Broadcast.HeartbeatInterval)
	assert.Equal(t, layout.DefaultZones(), config.Zones())
	assert.Equal(t, layout.DefaultFreeArea(), config.FreeArea())
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		config  EaselConfig
		wantErr string
	}{
		{
			name:    "unsupported version",
			config:  EaselConfig{Version: "2.0"},
			wantErr: "unsupported version: 2.0",
		},
		{
			name:    "bad session mode",
			config:  EaselConfig{Session: SessionConfig{Mode: "loose"}},
			wantErr: "session.mode",
		},
		{
			name:    "short session ttl",
			config:  EaselConfig{Store: StoreConfig{SessionTTL: time.Millisecond}},
			wantErr: "store.session_ttl",
		},
		{
			name:    "negative lock wait",
			config:  EaselConfig{Lock: LockConfig{WaitTimeout: -time.Second}},
			wantErr: "lock.wait_timeout",
		},
		{
			name:    "negative buffer",
			config:  EaselConfig{Broadcast: BroadcastConfig{BufferSize: -1}},
			wantErr: "broadcast.buffer_size",
		},
		{
			name: "zone without strategy",
			config: EaselConfig{Layout: LayoutConfig{Zones: []ZoneConfig{
				{Name: "empty", Width: 100, Height: 100},
			}}},
			wantErr: "needs columns or a grid",
		},
		{
			name: "duplicate zones",
			config: EaselConfig{Layout: LayoutConfig{Zones: []ZoneConfig{
				{Name: "z", Width: 100, Height: 100, Columns: 1},
				{Name: "z", Width: 100, Height: 100, Columns: 1},
			}}},
			wantErr: "duplicate zone",
		},
		{
			name:    "empty free area",
			config:  EaselConfig{Layout: LayoutConfig{FreeArea: &FreeAreaConfig{}}},
			wantErr: "layout.free_area",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestApplyEnv(t *testing.T) {
	config := Default()
	env := map[string]string{
		"REDIS_URL":         "redis://elsewhere:6380",
		"EASEL_ADDR":        "127.0.0.1:7000",
		"EASEL_INSTANCE_ID": "pod-3",
	}

	config.ApplyEnv(func(key string) string { return env[key] })

	assert.Equal(t, "redis://elsewhere:6380", config.Redis.URL)
	assert.Equal(t, "127.0.0.1:7000", config.Server.Addr)
	assert.Equal(t, "pod-3", config.Broadcast.InstanceID)

	config.ApplyEnv(func(string) string { return "" })
	assert.Equal(t, "pod-3", config.Broadcast.InstanceID, "empty variables leave settings alone")
}
