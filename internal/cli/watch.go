package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/archmap/pkg/export"
	"github.com/matzehuels/archmap/pkg/graph"
	"github.com/matzehuels/archmap/pkg/watch"
)

// watchCommand creates the watch command.
func (c *CLI) watchCommand() *cobra.Command {
	var (
		layoutName string
		exportPath string
		debounce   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "watch <analysis.json>",
		Short: "Re-map an analysis every time the file changes",
		Long: `Watch an analysis file and re-map it on every change, printing the halo and
detection counters. With --export, the export is rewritten after each
successful reload; the format follows the file extension.

Files replaced atomically (written to a temp file and renamed) are picked
up as well. A file that fails to parse is reported and the previous map is
kept.`,
		Example: `  archmap watch analysis.json
  archmap watch analysis.json --export graph.svg`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.config()
			if err != nil {
				return err
			}
			var format export.Format
			if exportPath != "" {
				if format, err = export.ParseFormat(strings.TrimPrefix(filepath.Ext(exportPath), ".")); err != nil {
					return err
				}
			}

			v := newOffscreen(cfg, layoutName, c.Logger)
			defer v.close()
			out := cmd.OutOrStdout()

			handler := func(a *graph.Analysis, err error) {
				if err != nil {
					printError(out, "%s", err)
					return
				}
				if err := v.load(a); err != nil {
					printError(out, "%s", err)
					return
				}
				printSuccess(out, "Mapped %d nodes, %d halos", len(v.nodes()), len(v.halos()))
				printStats(out, v.sess.Stats())

				if exportPath == "" {
					return
				}
				var buf bytes.Buffer
				if err := export.Write(cmd.Context(), &buf, format, a, v.sess.Colors(), export.DOTOptions{}); err != nil {
					printError(out, "export: %s", err)
					return
				}
				if err := os.WriteFile(exportPath, buf.Bytes(), 0o644); err != nil {
					printError(out, "export: %s", err)
					return
				}
				printFile(out, exportPath)
			}

			w, err := watch.New(args[0], handler, watch.Options{Debounce: debounce, Logger: c.Logger})
			if err != nil {
				return err
			}
			printInfo(out, "Watching %s", w.Path())
			return w.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVarP(&layoutName, "layout", "l", "", "layout (default from config)")
	cmd.Flags().StringVar(&exportPath, "export", "", "rewrite this export file after every reload")
	cmd.Flags().DurationVar(&debounce, "debounce", watch.DefaultDebounce, "quiet period before a reload")
	return cmd
}
