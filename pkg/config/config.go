// Package config loads archmap settings.
//
// Settings come from, in increasing precedence: built-in defaults, a TOML
// file, a .env file in the working directory, ARCHMAP_* environment
// variables, and finally command-line flags applied by the caller.
//
//	[server]
//	addr = ":8080"
//	shutdown_timeout = "10s"
//
//	[view]
//	layout = "elk"
//	padding = 30
//	[view.colors]
//	cycles = "#dc2626"
//
//	[cache]
//	backend = "redis"
//	redis_url = "redis://localhost:6379/0"
//
//	[storage]
//	backend = "mongo"
//	mongo_uri = "mongodb://localhost:27017"
//
//	[log]
//	level = "debug"
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/matzehuels/archmap/pkg/layout"
	"github.com/matzehuels/archmap/pkg/palette"
)

// Cache backends.
const (
	CacheNone   = "none"
	CacheFile   = "file"
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// Storage backends.
const (
	StorageMemory = "memory"
	StorageFile   = "file"
	StorageMongo  = "mongo"
)

// EnvConfigPath names the variable that points at the config file.
const EnvConfigPath = "ARCHMAP_CONFIG"

// Config is the complete configuration.
type Config struct {
	Server  ServerConfig  `toml:"server"`
	View    ViewConfig    `toml:"view"`
	Cache   CacheConfig   `toml:"cache"`
	Storage StorageConfig `toml:"storage"`
	Log     LogConfig     `toml:"log"`
}

// ServerConfig configures `archmap serve`.
type ServerConfig struct {
	Addr            string   `toml:"addr" validate:"required"`
	ReadTimeout     Duration `toml:"read_timeout"`
	WriteTimeout    Duration `toml:"write_timeout"`
	ShutdownTimeout Duration `toml:"shutdown_timeout"`
	MaxBodyBytes    int64    `toml:"max_body_bytes" validate:"gt=0"`
	AllowedOrigins  []string `toml:"allowed_origins"`
}

// ViewConfig configures view sessions.
type ViewConfig struct {
	Layout  string            `toml:"layout" validate:"required,layout"`
	Padding int               `toml:"padding" validate:"gte=0,lte=500"`
	Colors  map[string]string `toml:"colors" validate:"dive,keys,required,endkeys,hexcolor"`
}

// CacheConfig selects the cache backend.
type CacheConfig struct {
	Backend  string   `toml:"backend" validate:"oneof=none file memory redis"`
	Dir      string   `toml:"dir" validate:"required_if=Backend file"`
	Entries  int      `toml:"entries" validate:"gte=0"`
	RedisURL string   `toml:"redis_url" validate:"required_if=Backend redis"`
	Prefix   string   `toml:"prefix"`
	TTL      Duration `toml:"ttl"`
}

// StorageConfig selects the analysis store.
type StorageConfig struct {
	Backend    string `toml:"backend" validate:"oneof=memory file mongo"`
	Dir        string `toml:"dir" validate:"required_if=Backend file"`
	MongoURI   string `toml:"mongo_uri" validate:"required_if=Backend mongo"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `toml:"level" validate:"oneof=debug info warn error"`
}

// Duration is a time.Duration written as a string ("10s") in TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     Duration{30 * time.Second},
			WriteTimeout:    Duration{60 * time.Second},
			ShutdownTimeout: Duration{10 * time.Second},
			MaxBodyBytes:    10 << 20,
		},
		View: ViewConfig{
			Layout:  layout.Default,
			Padding: 30,
		},
		Cache: CacheConfig{
			Backend: CacheFile,
			Dir:     filepath.Join(configHome(), "cache"),
			Entries: 1024,
			TTL:     Duration{24 * time.Hour},
		},
		Storage: StorageConfig{
			Backend: StorageMemory,
			Dir:     filepath.Join(configHome(), "analyses"),
		},
		Log: LogConfig{Level: "info"},
	}
}

// DefaultPath returns ~/.config/archmap/config.toml.
func DefaultPath() string {
	return filepath.Join(configHome(), "config.toml")
}

func configHome() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "archmap")
	}
	return ".archmap"
}

// Palette builds a color registry from the curated table with the
// configured overrides applied.
func (c *Config) Palette() *palette.Registry {
	if len(c.View.Colors) == 0 {
		return palette.New()
	}
	fixed := palette.FixedColors()
	for kind, color := range c.View.Colors {
		fixed[palette.Normalize(kind)] = palette.Color(color)
	}
	return palette.NewWithPalette(fixed, palette.FallbackColors())
}
