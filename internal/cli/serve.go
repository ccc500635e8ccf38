package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/archmap/pkg/cache"
	"github.com/matzehuels/archmap/pkg/config"
	"github.com/matzehuels/archmap/pkg/metrics"
	"github.com/matzehuels/archmap/pkg/server"
	"github.com/matzehuels/archmap/pkg/storage"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr      string
		noMetrics bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and live overlay sessions",
		Long: `Serve the archmap HTTP API: submit analyses, fetch their annotated element
models, statistics and exports, and open live overlay sessions over
WebSocket. Storage and cache backends come from the config file.`,
		Example: `  archmap serve --addr :9090
  ARCHMAP_CACHE_BACKEND=redis ARCHMAP_REDIS_URL=redis://localhost:6379/0 archmap serve`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.config()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			ctx := cmd.Context()

			store, err := openStore(ctx, cfg.Storage)
			if err != nil {
				return fmt.Errorf("open %s store: %w", cfg.Storage.Backend, err)
			}
			defer func() {
				sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = store.Close(sctx)
			}()

			cc, err := openCache(ctx, cfg.Cache)
			if err != nil {
				return fmt.Errorf("open %s cache: %w", cfg.Cache.Backend, err)
			}
			defer cc.Close()

			var reg *metrics.Registry
			if !noMetrics {
				reg = metrics.NewRegistry()
				reg.Install()
			}

			c.Logger.Info("starting server",
				"addr", cfg.Server.Addr, "storage", cfg.Storage.Backend, "cache", cfg.Cache.Backend, "layout", cfg.View.Layout)
			srv := server.New(server.Options{
				Server:    cfg.Server,
				View:      cfg.View,
				Store:     store,
				Cache:     cc,
				Keys:      cache.NewDefaultKeyer(),
				Metrics:   reg,
				Logger:    c.Logger,
				Palette:   cfg.Palette,
				PaletteID: paletteID(cfg),
				CacheTTL:  cfg.Cache.TTL.Duration,
			})
			return srv.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	cmd.Flags().BoolVar(&noMetrics, "no-metrics", false, "disable the /metrics endpoint")
	return cmd
}

// openStore opens the configured analysis store.
func openStore(ctx context.Context, cfg config.StorageConfig) (storage.Store, error) {
	switch cfg.Backend {
	case config.StorageFile:
		return storage.NewFileStore(cfg.Dir)
	case config.StorageMongo:
		return storage.NewMongoStore(ctx, storage.MongoOptions{
			URI:        cfg.MongoURI,
			Database:   cfg.Database,
			Collection: cfg.Collection,
		})
	default:
		return storage.NewMemoryStore(), nil
	}
}

// openCache opens the configured cache backend.
func openCache(ctx context.Context, cfg config.CacheConfig) (cache.Cache, error) {
	switch cfg.Backend {
	case config.CacheFile:
		return cache.NewFileCache(cfg.Dir)
	case config.CacheMemory:
		return cache.NewMemoryCache(cfg.Entries)
	case config.CacheRedis:
		return cache.NewRedisCache(ctx, cache.RedisOptions{URL: cfg.RedisURL, Prefix: cfg.Prefix})
	default:
		return cache.NewNullCache(), nil
	}
}

// paletteID identifies the configured color overrides so element models
// cached under one palette are not served under another.
func paletteID(cfg *config.Config) string {
	if len(cfg.View.Colors) == 0 {
		return ""
	}
	// fmt prints maps with sorted keys.
	return cache.Hash([]byte(fmt.Sprint(cfg.View.Colors)))[:16]
}
