package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Default values for the server configuration.
const (
	DefaultHost            = "0.0.0.0"
	DefaultPort            = 3000
	DefaultStaticDir       = "static"
	DefaultLogLevel        = "info"
	DefaultShutdownTimeout = 10 * time.Second

	DefaultWidth  = 500
	DefaultHeight = 500

	DefaultHubBuffer = 100

	DefaultWriteTimeout = 10 * time.Second
	DefaultPongWait     = 60 * time.Second
	DefaultReadLimit    = 4096
)

// Limits on canvas dimensions. Coordinates travel as uint16 on the wire, so
// a wider grid could never be painted past column 65535.
const (
	MaxDimension = 1 << 16
	MaxCells     = 1 << 24
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "CANVAS_"

// Config is the full server configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Canvas  CanvasConfig  `yaml:"canvas"`
	Hub     HubConfig     `yaml:"hub"`
	Session SessionConfig `yaml:"session"`
}

// ServerConfig holds listener and process settings.
type ServerConfig struct {
	// Host is the interface the HTTP server binds to.
	Host string `yaml:"host"`

	// Port is the HTTP port serving /ws, /canvas and the static client.
	Port int `yaml:"port"`

	// GRPCPort is the port for the gRPC health probe. Zero disables it.
	GRPCPort int `yaml:"grpc_port"`

	// StaticDir is served for any path no route matches. Empty disables it.
	StaticDir string `yaml:"static_dir"`

	// LogLevel is one of debug | info | warn | error.
	LogLevel string `yaml:"log_level"`

	// ShutdownTimeout bounds how long in-flight HTTP requests may drain.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Addr returns the host:port the HTTP server listens on.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// GRPCAddr returns the host:port of the health probe.
func (s ServerConfig) GRPCAddr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.GRPCPort))
}

// Level parses LogLevel. Call only on a validated Config.
func (s ServerConfig) Level() slog.Level {
	lvl, _ := parseLevel(s.LogLevel)
	return lvl
}

// CanvasConfig holds the grid dimensions, fixed for the life of the process.
type CanvasConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// HubConfig controls broadcast fan-out.
type HubConfig struct {
	// Buffer is the per-session queue depth. A session that falls further
	// behind loses its oldest pending updates.
	Buffer int `yaml:"buffer"`
}

// SessionConfig controls each WebSocket connection.
type SessionConfig struct {
	WriteTimeout time.Duration `yaml:"write_timeout"`
	PongWait     time.Duration `yaml:"pong_wait"`

	// ReadLimit is the largest accepted inbound frame in bytes. A larger
	// frame closes the session with status 1009.
	ReadLimit int64 `yaml:"read_limit"`
}

// PingPeriod is how often pings are sent; it must be shorter than PongWait.
func (s SessionConfig) PingPeriod() time.Duration {
	return s.PongWait * 9 / 10
}

// Load builds the configuration from defaults, the YAML file at path, a .env
// file and CANVAS_* environment variables, then validates it. An empty path
// skips the file.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse yaml: %w", err)
		}
	}

	// .env is optional; variables already set in the environment win.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}

	if err := applyEnv(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            DefaultHost,
			Port:            DefaultPort,
			StaticDir:       DefaultStaticDir,
			LogLevel:        DefaultLogLevel,
			ShutdownTimeout: DefaultShutdownTimeout,
		},
		Canvas: CanvasConfig{
			Width:  DefaultWidth,
			Height: DefaultHeight,
		},
		Hub: HubConfig{
			Buffer: DefaultHubBuffer,
		},
		Session: SessionConfig{
			WriteTimeout: DefaultWriteTimeout,
			PongWait:     DefaultPongWait,
			ReadLimit:    DefaultReadLimit,
		},
	}
}

// applyEnv overlays CANVAS_* variables onto cfg.
func applyEnv(cfg *Config) error {
	strs := map[string]*string{
		"HOST":       &cfg.Server.Host,
		"STATIC_DIR": &cfg.Server.StaticDir,
		"LOG_LEVEL":  &cfg.Server.LogLevel,
	}
	for key, dst := range strs {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok {
			*dst = v
		}
	}

	ints := map[string]*int{
		"PORT":       &cfg.Server.Port,
		"GRPC_PORT":  &cfg.Server.GRPCPort,
		"WIDTH":      &cfg.Canvas.Width,
		"HEIGHT":     &cfg.Canvas.Height,
		"HUB_BUFFER": &cfg.Hub.Buffer,
	}
	for key, dst := range ints {
		v, ok := os.LookupEnv(EnvPrefix + key)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s%s=%q: not an integer", EnvPrefix, key, v)
		}
		*dst = n
	}
	return nil
}

// validate checks structural constraints on the merged configuration.
func validate(cfg *Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port %d is out of range [1, 65535]", cfg.Server.Port)
	}
	if cfg.Server.GRPCPort < 0 || cfg.Server.GRPCPort > 65535 {
		return fmt.Errorf("server.grpc_port %d is out of range [0, 65535]", cfg.Server.GRPCPort)
	}
	if cfg.Server.GRPCPort != 0 && cfg.Server.GRPCPort == cfg.Server.Port {
		return fmt.Errorf("server.grpc_port must differ from server.port (%d)", cfg.Server.Port)
	}
	if _, err := parseLevel(cfg.Server.LogLevel); err != nil {
		return fmt.Errorf("server.log_level: %w", err)
	}
	if cfg.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.shutdown_timeout must be positive")
	}
	if cfg.Canvas.Width <= 0 || cfg.Canvas.Width > MaxDimension {
		return fmt.Errorf("canvas.width %d is out of range [1, %d]", cfg.Canvas.Width, MaxDimension)
	}
	if cfg.Canvas.Height <= 0 || cfg.Canvas.Height > MaxDimension {
		return fmt.Errorf("canvas.height %d is out of range [1, %d]", cfg.Canvas.Height, MaxDimension)
	}
	if cells := cfg.Canvas.Width * cfg.Canvas.Height; cells > MaxCells {
		return fmt.Errorf("canvas %dx%d has %d cells, limit is %d",
			cfg.Canvas.Width, cfg.Canvas.Height, cells, MaxCells)
	}
	if cfg.Hub.Buffer < 1 {
		return fmt.Errorf("hub.buffer must be at least 1")
	}
	if cfg.Session.WriteTimeout <= 0 {
		return fmt.Errorf("session.write_timeout must be positive")
	}
	if cfg.Session.PongWait <= 0 {
		return fmt.Errorf("session.pong_wait must be positive")
	}
	if cfg.Session.ReadLimit <= 0 {
		return fmt.Errorf("session.read_limit must be positive")
	}
	return nil
}

func parseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("unknown level %q: want debug|info|warn|error", s)
	}
	return lvl, nil
}
