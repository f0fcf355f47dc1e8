package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/dyluth/easel/internal/layout"
	"github.com/dyluth/easel/internal/session"
	"gopkg.in/yaml.v3"
)

// DefaultPath is where easeld looks for its configuration.
const DefaultPath = "easel.yml"

// Defaults applied by Validate.
const (
	DefaultAddr              = ":8080"
	DefaultRedisURL          = "redis://localhost:6379"
	DefaultNamespace         = "easel"
	DefaultShutdownTimeout   = 10 * time.Second
	DefaultSessionTTL        = 24 * time.Hour
	DefaultOpTimeout         = 5 * time.Second
	DefaultLockWaitTimeout   = 10 * time.Second
	DefaultHeartbeatInterval = 25 * time.Second
	DefaultBufferSize        = 32
)

// EaselConfig represents the top-level easel.yml configuration
type EaselConfig struct {
	Version   string          `yaml:"version"`
	Server    ServerConfig    `yaml:"server"`
	Redis     RedisConfig     `yaml:"redis"`
	Store     StoreConfig     `yaml:"store"`
	Session   SessionConfig   `yaml:"session"`
	Lock      LockConfig      `yaml:"lock"`
	Broadcast BroadcastConfig `yaml:"broadcast"`
	Layout    LayoutConfig    `yaml:"layout"`
}

// ServerConfig specifies the HTTP listener
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// RedisConfig specifies the durable backend
type RedisConfig struct {
	URL       string `yaml:"url"`
	Namespace string `yaml:"namespace"` // key prefix, "easel" by default
}

// StoreConfig specifies persistence behaviour
type StoreConfig struct {
	RequireDurable bool          `yaml:"require_durable"` // refuse to start without Redis
	SessionTTL     time.Duration `yaml:"session_ttl"`
	OpTimeout      time.Duration `yaml:"op_timeout"`
}

// SessionConfig specifies how requests without a session id are treated
type SessionConfig struct {
	Mode session.Mode `yaml:"mode"`
}

// LockConfig specifies the per-session mutation lock
type LockConfig struct {
	WaitTimeout time.Duration `yaml:"wait_timeout"`
}

// BroadcastConfig specifies viewer delivery
type BroadcastConfig struct {
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval"`
	BufferSize        int           `yaml:"buffer_size"`
	InstanceID        string        `yaml:"instance_id"` // relay origin; generated when empty
}

// LayoutConfig overrides the built-in zones and free area
type LayoutConfig struct {
	Zones    []ZoneConfig    `yaml:"zones,omitempty"`
	FreeArea *FreeAreaConfig `yaml:"free_area,omitempty"`
}

// ZoneConfig is one zone rectangle
type ZoneConfig struct {
	Name       string  `yaml:"name"`
	X          float64 `yaml:"x"`
	Y          float64 `yaml:"y"`
	Width      float64 `yaml:"width"`
	Height     float64 `yaml:"height"`
	Columns    int     `yaml:"columns,omitempty"`
	CellWidth  float64 `yaml:"cell_width,omitempty"`
	CellHeight float64 `yaml:"cell_height,omitempty"`
	Padding    float64 `yaml:"padding"`
}

// FreeAreaConfig is where zone-less items are dropped
type FreeAreaConfig struct {
	X           float64 `yaml:"x"`
	Y           float64 `yaml:"y"`
	Width       float64 `yaml:"width"`
	Height      float64 `yaml:"height"`
	Padding     float64 `yaml:"padding"`
	CrowdLimit  float64 `yaml:"crowd_limit"`
	MaxAttempts int     `yaml:"max_attempts"`
}

// Default returns a validated configuration with every default applied.
func Default() *EaselConfig {
	c := &EaselConfig{}
	if err := c.Validate(); err != nil {
		panic(fmt.Sprintf("default configuration is invalid: %v", err))
	}
	return c
}

// Validate applies defaults and performs strict validation on the configuration
func (c *EaselConfig) Validate() error {
	if c.Version == "" {
		c.Version = "1.0"
	}
	if c.Version != "1.0" {
		return fmt.Errorf("unsupported version: %s (expected: 1.0)", c.Version)
	}

	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if c.Redis.URL == "" {
		c.Redis.URL = DefaultRedisURL
	}
	if c.Redis.Namespace == "" {
		c.Redis.Namespace = DefaultNamespace
	}
	if c.Store.SessionTTL == 0 {
		c.Store.SessionTTL = DefaultSessionTTL
	}
	if c.Store.OpTimeout == 0 {
		c.Store.OpTimeout = DefaultOpTimeout
	}
	if c.Session.Mode == "" {
		c.Session.Mode = session.ModeStrict
	}
	if c.Lock.WaitTimeout == 0 {
		c.Lock.WaitTimeout = DefaultLockWaitTimeout
	}
	if c.Broadcast.HeartbeatInterval == 0 {
		c.Broadcast.HeartbeatInterval = DefaultHeartbeatInterval
	}
	if c.Broadcast.BufferSize == 0 {
		c.Broadcast.BufferSize = DefaultBufferSize
	}

	if c.Server.ShutdownTimeout < 0 {
		return fmt.Errorf("server.shutdown_timeout must be > 0, got %s", c.Server.ShutdownTimeout)
	}
	if c.Store.SessionTTL < time.Second {
		return fmt.Errorf("store.session_ttl must be at least 1s, got %s", c.Store.SessionTTL)
	}
	if c.Store.OpTimeout < 0 {
		return fmt.Errorf("store.op_timeout must be > 0, got %s", c.Store.OpTimeout)
	}
	if err := c.Session.Mode.Validate(); err != nil {
		return fmt.Errorf("session.mode: %w", err)
	}
	if c.Lock.WaitTimeout < 0 {
		return fmt.Errorf("lock.wait_timeout must be > 0, got %s", c.Lock.WaitTimeout)
	}
	if c.Broadcast.HeartbeatInterval < 0 {
		return fmt.Errorf("broadcast.heartbeat_interval must be > 0, got %s", c.Broadcast.HeartbeatInterval)
	}
	if c.Broadcast.BufferSize < 1 {
		return fmt.Errorf("broadcast.buffer_size must be >= 1, got %d", c.Broadcast.BufferSize)
	}

	if _, err := layout.NewEngine(c.Zones(), layout.WithFreeArea(c.FreeArea())); err != nil {
		return fmt.Errorf("layout: %w", err)
	}
	area := c.FreeArea()
	if area.Width <= 0 || area.Height <= 0 {
		return fmt.Errorf("layout.free_area: width and height must be positive")
	}

	return nil
}

// Zones returns the configured zones, or the built-in layout when none are set.
func (c *EaselConfig) Zones() []layout.Zone {
	if len(c.Layout.Zones) == 0 {
		return layout.DefaultZones()
	}
	zones := make([]layout.Zone, 0, len(c.Layout.Zones))
	for _, z := range c.Layout.Zones {
		zones = append(zones, layout.Zone{
			Name:       z.Name,
			Rect:       layout.Rect{X: z.X, Y: z.Y, Width: z.Width, Height: z.Height},
			Columns:    z.Columns,
			CellWidth:  z.CellWidth,
			CellHeight: z.CellHeight,
			Padding:    z.Padding,
		})
	}
	return zones
}

// FreeArea returns the configured free area, or the built-in one.
func (c *EaselConfig) FreeArea() layout.FreeArea {
	if c.Layout.FreeArea == nil {
		return layout.DefaultFreeArea()
	}
	f := c.Layout.FreeArea
	return layout.FreeArea{
		Rect:        layout.Rect{X: f.X, Y: f.Y, Width: f.Width, Height: f.Height},
		Padding:     f.Padding,
		CrowdLimit:  f.CrowdLimit,
		MaxAttempts: f.MaxAttempts,
	}
}

// ApplyEnv overrides settings from the environment: REDIS_URL, EASEL_ADDR and
// EASEL_INSTANCE_ID.
func (c *EaselConfig) ApplyEnv(getenv func(string) string) {
	if v := getenv("REDIS_URL"); v != "" {
		c.Redis.URL = v
	}
	if v := getenv("EASEL_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := getenv("EASEL_INSTANCE_ID"); v != "" {
		c.Broadcast.InstanceID = v
	}
}

// Load reads and validates easel.yml from the specified path
func Load(path string) (*EaselConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config EaselConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// LoadOptional is Load, except that a missing file yields the defaults.
func LoadOptional(path string) (*EaselConfig, error) {
	config, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return config, err
}
