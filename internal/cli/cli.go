// Package cli implements the archmap command-line interface.
package cli

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/archmap/pkg/buildinfo"
	"github.com/matzehuels/archmap/pkg/cache"
	"github.com/matzehuels/archmap/pkg/config"
	"github.com/matzehuels/archmap/pkg/graph"
	"github.com/matzehuels/archmap/pkg/storage"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "archmap"

	// lastClient is the client session under which the CLI remembers the
	// last saved analysis.
	lastClient = "cli"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	cfg        *config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "archmap overlays architecture smells on service dependency graphs",
		Long: `archmap reads an architecture analysis (a service dependency graph plus the
smells detected on it), annotates every node and edge with its detections,
and draws severity halos and kind badges on top of a laid-out graph.`,
		Version:      buildinfo.Get().Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "config file (default $ARCHMAP_CONFIG or ~/.config/archmap/config.toml)")

	root.AddCommand(c.mapCommand())
	root.AddCommand(c.statsCommand())
	root.AddCommand(c.exportCommand())
	root.AddCommand(c.colorsCommand())
	root.AddCommand(c.layoutsCommand())
	root.AddCommand(c.watchCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.analysesCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.versionCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Config
// =============================================================================

// config loads the configuration once per process. A configured log level
// only raises verbosity; --verbose always wins.
func (c *CLI) config() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, err
	}
	if lvl, err := log.ParseLevel(cfg.Log.Level); err == nil && lvl < c.Logger.GetLevel() {
		c.Logger.SetLevel(lvl)
	}
	c.cfg = cfg
	return cfg, nil
}

// =============================================================================
// Inputs
// =============================================================================

// readAnalysis reads an analysis from path, or from stdin when path is "-".
func readAnalysis(cmd *cobra.Command, path string) (*graph.Analysis, error) {
	if path == "-" {
		return graph.ReadAnalysis(cmd.InOrStdin())
	}
	return graph.ReadAnalysisFile(path)
}

// =============================================================================
// Local store and cache
// =============================================================================

// localStore opens the file store the CLI saves analyses to.
func localStore(cfg *config.Config) (*storage.FileStore, error) {
	return storage.NewFileStore(cfg.Storage.Dir)
}

// localCache opens the file cache the CLI remembers the last analysis in.
func localCache(cfg *config.Config) (*cache.FileCache, error) {
	return cache.NewFileCache(cfg.Cache.Dir)
}

// rememberLast records id as the last analysis saved from the CLI.
func rememberLast(ctx context.Context, cfg *config.Config, id string) error {
	fc, err := localCache(cfg)
	if err != nil {
		return err
	}
	defer fc.Close()
	return fc.Set(ctx, cache.NewDefaultKeyer().LastAnalysisKey(lastClient), []byte(id), cfg.Cache.TTL.Duration)
}

// lastAnalysis loads the last analysis saved from the CLI.
func lastAnalysis(ctx context.Context, cfg *config.Config) (*storage.Record, error) {
	fc, err := localCache(cfg)
	if err != nil {
		return nil, err
	}
	defer fc.Close()
	id, ok, err := fc.Get(ctx, cache.NewDefaultKeyer().LastAnalysisKey(lastClient))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, storage.ErrNotFound
	}
	store, err := localStore(cfg)
	if err != nil {
		return nil, err
	}
	return store.Get(ctx, string(id))
}
