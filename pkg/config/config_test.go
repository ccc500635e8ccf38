package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/archmap/pkg/errors"
	"github.com/matzehuels/archmap/pkg/palette"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
	if cfg.View.Layout != "elk" || cfg.View.Padding != 30 {
		t.Errorf("view defaults: %+v", cfg.View)
	}
	if cfg.Server.ShutdownTimeout.Duration != 10*time.Second {
		t.Errorf("shutdown timeout = %v", cfg.Server.ShutdownTimeout)
	}
}

func TestParse(t *testing.T) {
	cfg, err := Parse(`
[server]
addr = ":9090"
shutdown_timeout = "3s"
allowed_origins = ["http://localhost:3000"]

[view]
layout = "Dagre"
padding = 12
[view.colors]
"God Service" = "#123456"

[cache]
backend = "redis"
redis_url = "redis://localhost:6379/1"
prefix = "dev:"
ttl = "1h"

[storage]
backend = "mongo"
mongo_uri = "mongodb://localhost:27017"

[log]
level = "DEBUG"
`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Server.Addr != ":9090" || cfg.Server.ShutdownTimeout.Duration != 3*time.Second {
		t.Errorf("server: %+v", cfg.Server)
	}
	if cfg.View.Layout != "dagre" || cfg.View.Padding != 12 {
		t.Errorf("view: %+v", cfg.View)
	}
	if cfg.Cache.Backend != CacheRedis || cfg.Cache.TTL.Duration != time.Hour {
		t.Errorf("cache: %+v", cfg.Cache)
	}
	if cfg.Storage.Backend != StorageMongo {
		t.Errorf("storage: %+v", cfg.Storage)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("log level = %q", cfg.Log.Level)
	}
	if cfg.Server.MaxBodyBytes != 10<<20 {
		t.Errorf("unset keys should keep defaults, max body = %d", cfg.Server.MaxBodyBytes)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		toml string
		want string
	}{
		{"syntax", `[server`, "parse config"},
		{"unknown key", "[server]\nport = 1", "server.port"},
		{"unknown layout", "[view]\nlayout = \"circle\"", "unknown layout"},
		{"bad backend", "[cache]\nbackend = \"disk\"", "Cache.Backend"},
		{"redis without url", "[cache]\nbackend = \"redis\"", "Cache.RedisURL is required"},
		{"mongo without uri", "[storage]\nbackend = \"mongo\"", "Storage.MongoURI is required"},
		{"bad color", "[view.colors]\ncycles = \"red\"", "not a hex color"},
		{"negative padding", "[view]\npadding = -1", "View.Padding"},
		{"bad level", "[log]\nlevel = \"trace\"", "Log.Level"},
		{"bad duration", "[server]\nread_timeout = \"soon\"", "parse config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.toml)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, errors.ErrCodeInvalidConfig) {
				t.Errorf("code = %s, want INVALID_CONFIG", errors.GetCode(err))
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"ARCHMAP_LAYOUT":          "cola",
		"ARCHMAP_CACHE_BACKEND":   "memory",
		"ARCHMAP_PADDING":         "50",
		"ARCHMAP_CACHE_TTL":       "5m",
		"ARCHMAP_ALLOWED_ORIGINS": "http://a, http://b ,",
		"PORT":                    "3000",
		"ARCHMAP_LOG_LEVEL":       "  ",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := Default()
	if err := cfg.ApplyEnv(lookup); err != nil {
		t.Fatal(err)
	}
	if cfg.View.Layout != "cola" || cfg.Cache.Backend != "memory" || cfg.View.Padding != 50 {
		t.Errorf("overrides not applied: %+v %+v", cfg.View, cfg.Cache)
	}
	if cfg.Cache.TTL.Duration != 5*time.Minute {
		t.Errorf("ttl = %v", cfg.Cache.TTL)
	}
	if len(cfg.Server.AllowedOrigins) != 2 || cfg.Server.AllowedOrigins[1] != "http://b" {
		t.Errorf("origins = %v", cfg.Server.AllowedOrigins)
	}
	if cfg.Server.Addr != ":3000" {
		t.Errorf("PORT should set addr, got %q", cfg.Server.Addr)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("blank variable should be ignored, level = %q", cfg.Log.Level)
	}

	env["ARCHMAP_ADDR"] = "127.0.0.1:8000"
	cfg = Default()
	_ = cfg.ApplyEnv(lookup)
	if cfg.Server.Addr != "127.0.0.1:8000" {
		t.Errorf("ARCHMAP_ADDR should win over PORT, got %q", cfg.Server.Addr)
	}

	env["ARCHMAP_PADDING"] = "wide"
	if err := Default().ApplyEnv(lookup); !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("bad padding: %v", err)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	path := filepath.Join(dir, "archmap.toml")
	if err := os.WriteFile(path, []byte("[view]\nlayout = \"cola\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("ARCHMAP_LOG_LEVEL", "warn")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.View.Layout != "cola" || cfg.Log.Level != "warn" {
		t.Errorf("Load = %+v %+v", cfg.View, cfg.Log)
	}

	if _, err := Load(filepath.Join(dir, "missing.toml")); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("explicit missing file: %v", err)
	}

	t.Setenv(EnvConfigPath, path)
	cfg, err = Load("")
	if err != nil || cfg.View.Layout != "cola" {
		t.Errorf("Load via %s: %v", EnvConfigPath, err)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv(EnvConfigPath, "")
	t.Setenv("ARCHMAP_STORAGE_BACKEND", "")
	os.Unsetenv("ARCHMAP_STORAGE_BACKEND")

	if err := os.WriteFile(".env", []byte("ARCHMAP_STORAGE_BACKEND=file\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("ARCHMAP_STORAGE_BACKEND") })

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Storage.Backend != StorageFile {
		t.Errorf(".env not applied, backend = %q", cfg.Storage.Backend)
	}
}

func TestPalette(t *testing.T) {
	cfg := Default()
	cfg.View.Colors = map[string]string{"Cycles": "#000000", "brand new": "#111111"}

	reg := cfg.Palette()
	if got := reg.ColorFor("cycles"); got != "#000000" {
		t.Errorf("override ignored: %s", got)
	}
	if got := reg.ColorFor("brand-new"); got != "#111111" {
		t.Errorf("new kind: %s", got)
	}
	if got := reg.ColorFor("god_service"); got != palette.FixedColors()["god_service"] {
		t.Errorf("curated color lost: %s", got)
	}

	if Default().Palette().ColorFor("cycles") != palette.FixedColors()["cycles"] {
		t.Error("default palette should use the curated table")
	}
}
