package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/matzehuels/archmap/pkg/errors"
)

// Load reads the configuration. An empty path falls back to $ARCHMAP_CONFIG
// and then to DefaultPath; a missing default file is not an error, a
// missing explicit file is.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	explicit := path != ""
	if !explicit {
		if env := os.Getenv(EnvConfigPath); env != "" {
			path, explicit = env, true
		} else {
			path = DefaultPath()
		}
	}

	cfg := Default()
	if err := cfg.decodeFile(path, explicit); err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes TOML text over the defaults and validates the result.
// Environment variables are not consulted.
func Parse(data string) (*Config, error) {
	cfg := Default()
	md, err := toml.Decode(data, cfg)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse config")
	}
	if err := checkUndecoded(md); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decodeFile(path string, explicit bool) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if explicit {
			return errors.New(errors.ErrCodeFileNotFound, "config file not found: %s", path)
		}
		return nil
	}
	md, err := toml.DecodeFile(path, c)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	return checkUndecoded(md)
}

func checkUndecoded(md toml.MetaData) error {
	if keys := md.Undecoded(); len(keys) > 0 {
		names := make([]string, len(keys))
		for i, k := range keys {
			names[i] = k.String()
		}
		return errors.New(errors.ErrCodeInvalidConfig, "unknown config keys: %s", strings.Join(names, ", "))
	}
	return nil
}

// ApplyEnv overrides settings from ARCHMAP_* variables read through lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"ARCHMAP_ADDR":            &c.Server.Addr,
		"ARCHMAP_LAYOUT":          &c.View.Layout,
		"ARCHMAP_CACHE_BACKEND":   &c.Cache.Backend,
		"ARCHMAP_CACHE_DIR":       &c.Cache.Dir,
		"ARCHMAP_CACHE_PREFIX":    &c.Cache.Prefix,
		"ARCHMAP_REDIS_URL":       &c.Cache.RedisURL,
		"ARCHMAP_STORAGE_BACKEND": &c.Storage.Backend,
		"ARCHMAP_STORAGE_DIR":     &c.Storage.Dir,
		"ARCHMAP_MONGO_URI":       &c.Storage.MongoURI,
		"ARCHMAP_MONGO_DATABASE":  &c.Storage.Database,
		"ARCHMAP_LOG_LEVEL":       &c.Log.Level,
	}
	for name, dst := range strs {
		if v, ok := lookup(name); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}

	// PORT is honored for container platforms that only set a port.
	if v, ok := lookup("PORT"); ok && v != "" {
		if _, set := lookup("ARCHMAP_ADDR"); !set {
			c.Server.Addr = ":" + strings.TrimPrefix(v, ":")
		}
	}

	if v, ok := lookup("ARCHMAP_PADDING"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "ARCHMAP_PADDING")
		}
		c.View.Padding = n
	}
	if v, ok := lookup("ARCHMAP_CACHE_TTL"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "ARCHMAP_CACHE_TTL")
		}
		c.Cache.TTL = Duration{d}
	}
	if v, ok := lookup("ARCHMAP_ALLOWED_ORIGINS"); ok && v != "" {
		c.Server.AllowedOrigins = splitList(v)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
