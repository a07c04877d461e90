// Package config loads the whiteboard configuration file.
//
// Configuration is read from $XDG_CONFIG_HOME/whiteboard/config.toml (or
// ~/.config/whiteboard/config.toml), then overridden by WHITEBOARD_*
// environment variables. Command-line flags override both and are applied by
// the CLI.
//
//	[client]
//	server = "ws://localhost:8080/ws"
//	api = "http://localhost:8080"
//	debounce = "10ms"
//
//	[server]
//	listen = ":8080"
//	create_on_join = true
//	[server.tokens]
//	"s3cret" = "alice"
//
//	[store]
//	driver = "bolt"
//	path = "/var/lib/whiteboard/boards.db"
//
//	[fanout]
//	mode = "redis"
//	redis_addr = "localhost:6379"
//
//	[discovery]
//	enabled = true
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// AppName names the configuration directory.
const AppName = "whiteboard"

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverBolt     = "bolt"
	DriverRedis    = "redis"
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
)

// Drivers lists the supported store drivers.
var Drivers = []string{DriverMemory, DriverBolt, DriverRedis, DriverMongo, DriverPostgres}

// Fan-out modes.
const (
	FanoutLocal = "local"
	FanoutRedis = "redis"
)

// Duration is a time.Duration written as a string such as "10ms".
type Duration struct{ time.Duration }

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

// Config is the full configuration.
type Config struct {
	Client    Client    `toml:"client"`
	Server    Server    `toml:"server"`
	Store     Store     `toml:"store"`
	Fanout    Fanout    `toml:"fanout"`
	Discovery Discovery `toml:"discovery"`

	// Path is the file the configuration was read from, empty if none.
	Path string `toml:"-"`
}

// Client configures the engine runtime and the CLI commands that talk to a
// relay.
type Client struct {
	Server   string   `toml:"server"`
	API      string   `toml:"api"`
	Token    string   `toml:"token"`
	Debounce Duration `toml:"debounce"`
}

// Server configures the relay.
type Server struct {
	Listen       string            `toml:"listen"`
	Tokens       map[string]string `toml:"tokens"`
	CreateOnJoin bool              `toml:"create_on_join"`
}

// Store selects and configures the board store.
type Store struct {
	Driver    string `toml:"driver"`
	Path      string `toml:"path"`
	DSN       string `toml:"dsn"`
	RedisAddr string `toml:"redis_addr"`
	Database  string `toml:"database"`
}

// Fanout selects how updates reach members connected to other relay
// instances.
type Fanout struct {
	Mode      string `toml:"mode"`
	RedisAddr string `toml:"redis_addr"`
}

// Discovery configures LAN advertisement of the relay.
type Discovery struct {
	Enabled  bool   `toml:"enabled"`
	Instance string `toml:"instance"`
	Service  string `toml:"service"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Client: Client{
			Server:   "ws://localhost:8080/ws",
			API:      "http://localhost:8080",
			Debounce: Duration{10 * time.Millisecond},
		},
		Server: Server{
			Listen:       ":8080",
			Tokens:       map[string]string{},
			CreateOnJoin: true,
		},
		Store:     Store{Driver: DriverMemory, RedisAddr: "localhost:6379"},
		Fanout:    Fanout{Mode: FanoutLocal, RedisAddr: "localhost:6379"},
		Discovery: Discovery{Service: "_whiteboard._tcp"},
	}
}

// Dir returns the configuration directory.
func Dir() (string, error) {
	if home := os.Getenv("XDG_CONFIG_HOME"); home != "" {
		return filepath.Join(home, AppName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", AppName), nil
}

// DefaultPath returns the default configuration file path.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load reads the configuration at path, or at [DefaultPath] if path is empty.
// A missing default file is not an error; a missing explicit file is.
func Load(path string) (*Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	md, err := toml.DecodeFile(path, cfg)
	switch {
	case err == nil:
		cfg.Path = path
		if keys := md.Undecoded(); len(keys) > 0 {
			return nil, fmt.Errorf("%s: unknown keys %v", path, keys)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg.applyEnv(os.Getenv)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides fields from WHITEBOARD_* variables.
func (c *Config) applyEnv(getenv func(string) string) {
	set := func(dst *string, key string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	set(&c.Client.Server, "WHITEBOARD_SERVER")
	set(&c.Client.API, "WHITEBOARD_API")
	set(&c.Client.Token, "WHITEBOARD_TOKEN")
	set(&c.Server.Listen, "WHITEBOARD_LISTEN")
	set(&c.Store.Driver, "WHITEBOARD_STORE_DRIVER")
	set(&c.Store.DSN, "WHITEBOARD_STORE_DSN")
	set(&c.Store.Path, "WHITEBOARD_STORE_PATH")
	set(&c.Fanout.Mode, "WHITEBOARD_FANOUT")
	if v := getenv("WHITEBOARD_REDIS_ADDR"); v != "" {
		c.Store.RedisAddr = v
		c.Fanout.RedisAddr = v
	}
}

// Validate checks the enumerated fields.
func (c *Config) Validate() error {
	c.Store.Driver = strings.ToLower(c.Store.Driver)
	if !slices.Contains(Drivers, c.Store.Driver) {
		return fmt.Errorf("store.driver: unknown driver %q (want one of %s)", c.Store.Driver, strings.Join(Drivers, ", "))
	}
	if c.Store.Driver == DriverBolt && c.Store.Path == "" {
		return errors.New("store.path is required for the bolt driver")
	}
	if (c.Store.Driver == DriverMongo || c.Store.Driver == DriverPostgres) && c.Store.DSN == "" {
		return fmt.Errorf("store.dsn is required for the %s driver", c.Store.Driver)
	}
	switch c.Fanout.Mode {
	case FanoutLocal, FanoutRedis:
	default:
		return fmt.Errorf("fanout.mode: unknown mode %q", c.Fanout.Mode)
	}
	if c.Client.Debounce.Duration < 0 {
		return errors.New("client.debounce must not be negative")
	}
	return nil
}
