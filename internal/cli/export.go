package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/archmap/pkg/export"
)

// exportOpts holds options for the export command.
type exportOpts struct {
	format   string
	output   string
	detailed bool
	rankdir  string
}

// exportCommand creates the export command.
func (c *CLI) exportCommand() *cobra.Command {
	opts := exportOpts{}

	cmd := &cobra.Command{
		Use:   "export <analysis.json>",
		Short: "Export an annotated analysis as YAML, DOT, SVG or JSON",
		Long: `Export an analysis. yaml lists services and their dependencies; dot and svg
draw the graph with detection colors and severity-scaled outlines; json is
the annotated element model.

Without --output the export is written to stdout. With --output and no
--format the format is taken from the file extension.`,
		Example: `  archmap export analysis.json -o graph.svg
  archmap export analysis.json -f dot --detailed --rankdir TB`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.config()
			if err != nil {
				return err
			}
			format := opts.format
			if format == "" && opts.output != "" {
				format = strings.TrimPrefix(filepath.Ext(opts.output), ".")
			}
			if format == "" {
				format = string(export.FormatYAML)
			}
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}
			a, err := readAnalysis(cmd, args[0])
			if err != nil {
				return err
			}

			dotOpts := export.DOTOptions{Detailed: opts.detailed, RankDir: strings.ToUpper(opts.rankdir)}
			prog := newProgress(c.Logger)
			var spin *Spinner
			if f == export.FormatSVG && opts.output != "" {
				spin = newSpinnerWithContext(cmd.Context(), cmd.ErrOrStderr(), "Rendering SVG...")
				spin.Start()
			}
			var buf bytes.Buffer
			err = export.Write(cmd.Context(), &buf, f, a, cfg.Palette(), dotOpts)
			if spin != nil {
				spin.Stop()
			}
			if err != nil {
				return err
			}
			prog.done("exported analysis", "format", f, "bytes", buf.Len())

			out := cmd.OutOrStdout()
			if opts.output == "" {
				_, err := out.Write(buf.Bytes())
				return err
			}
			if err := os.WriteFile(opts.output, buf.Bytes(), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", opts.output, err)
			}
			printSuccess(out, "Exported %s", strings.ToUpper(string(f)))
			printFile(out, opts.output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "output format: yaml, dot, svg, json")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "include kinds, flags and attributes in node labels")
	cmd.Flags().StringVar(&opts.rankdir, "rankdir", "", "graphviz rank direction: LR, TB, RL, BT (default LR)")

	return cmd
}
