package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/archmap/pkg/config"
	"github.com/matzehuels/archmap/pkg/graph"
	"github.com/matzehuels/archmap/pkg/layout"
	"github.com/matzehuels/archmap/pkg/overlay"
	"github.com/matzehuels/archmap/pkg/storage"
	"github.com/matzehuels/archmap/pkg/surface"
)

// mapOpts holds options for the map command.
type mapOpts struct {
	layout string
	name   string
	save   bool
	last   bool
	json   bool
}

// mapResult is the JSON form of a mapped analysis.
type mapResult struct {
	Layout   string            `json:"layout"`
	Viewport surface.Viewport  `json:"viewport"`
	Nodes    []surface.Element `json:"nodes"`
	Halos    []surface.Element `json:"halos"`
	Badges   []overlay.Badge   `json:"badges"`
	SavedID  string            `json:"saved_id,omitempty"`
}

// mapCommand creates the map command.
func (c *CLI) mapCommand() *cobra.Command {
	opts := mapOpts{}

	cmd := &cobra.Command{
		Use:   "map [analysis.json]",
		Short: "Lay out an analysis and draw its severity halos",
		Long: `Lay out an analysis off-screen, annotate every node with its detections and
draw the severity halos and kind badges. Prints a table of nodes with their
flags, severity and halo outline.

Pass "-" to read the analysis from stdin, or --last to map the analysis
most recently saved with --save.`,
		Example: `  archmap map analysis.json
  archmap map analysis.json --layout dagre --save --name checkout
  archmap map --last --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.config()
			if err != nil {
				return err
			}
			if opts.layout != "" && !layout.Known(opts.layout) {
				return fmt.Errorf("unknown layout %q (valid: %s)", opts.layout, strings.Join(layout.Names(), ", "))
			}
			a, name, err := c.resolveAnalysis(cmd, cfg, args, opts.last)
			if err != nil {
				return err
			}
			if opts.name == "" {
				opts.name = name
			}
			return c.runMap(cmd, cfg, a, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.layout, "layout", "l", "", "layout: "+strings.Join(layout.Names(), ", ")+" (default from config)")
	cmd.Flags().StringVar(&opts.name, "name", "", "name stored with --save (default: file name)")
	cmd.Flags().BoolVar(&opts.save, "save", false, "save the analysis to the local store")
	cmd.Flags().BoolVar(&opts.last, "last", false, "map the last saved analysis")
	cmd.Flags().BoolVar(&opts.json, "json", false, "print nodes, halos and badges as JSON")

	return cmd
}

// resolveAnalysis reads the analysis named by args, or the last saved one.
func (c *CLI) resolveAnalysis(cmd *cobra.Command, cfg *config.Config, args []string, last bool) (*graph.Analysis, string, error) {
	if last {
		if len(args) > 0 {
			return nil, "", fmt.Errorf("--last takes no file argument")
		}
		rec, err := lastAnalysis(cmd.Context(), cfg)
		if err != nil {
			return nil, "", fmt.Errorf("load last analysis: %w", err)
		}
		return rec.Analysis, rec.Name, nil
	}
	if len(args) == 0 {
		return nil, "", fmt.Errorf("an analysis file is required (or --last)")
	}
	a, err := readAnalysis(cmd, args[0])
	if err != nil {
		return nil, "", err
	}
	return a, analysisName(args[0]), nil
}

func (c *CLI) runMap(cmd *cobra.Command, cfg *config.Config, a *graph.Analysis, opts mapOpts) error {
	prog := newProgress(c.Logger)
	v := newOffscreen(cfg, opts.layout, c.Logger)
	defer v.close()

	if err := v.load(a); err != nil {
		return err
	}
	res := mapResult{
		Layout:   v.sess.Layout(),
		Viewport: v.r.Viewport(),
		Nodes:    v.nodes(),
		Halos:    v.halos(),
		Badges:   v.sess.Badges(),
	}
	prog.done("mapped analysis", "nodes", len(res.Nodes), "halos", len(res.Halos))

	if opts.save {
		id, err := saveAnalysis(cmd, cfg, opts.name, a)
		if err != nil {
			return err
		}
		res.SavedID = id
	}

	out := cmd.OutOrStdout()
	if opts.json {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	printMap(out, v, res)
	return nil
}

func saveAnalysis(cmd *cobra.Command, cfg *config.Config, name string, a *graph.Analysis) (string, error) {
	store, err := localStore(cfg)
	if err != nil {
		return "", err
	}
	rec := storage.NewRecord(name, a)
	if err := store.Save(cmd.Context(), rec); err != nil {
		return "", fmt.Errorf("save analysis: %w", err)
	}
	if err := rememberLast(cmd.Context(), cfg, rec.ID); err != nil {
		return "", fmt.Errorf("remember analysis: %w", err)
	}
	return rec.ID, nil
}

func printMap(w io.Writer, v *offscreen, res mapResult) {
	fmt.Fprintln(w, StyleTitle.Render(fmt.Sprintf("Mapped %d nodes", len(res.Nodes)))+StyleDim.Render(" ("+res.Layout+" layout)"))

	t := newTable("Node", "Kind", "Severity", "Flags", "Halo")
	for _, n := range res.Nodes {
		halo := StyleDim.Render("-")
		if h, ok := v.halo(n.ID); ok {
			halo = fmt.Sprintf("%gpx %s", h.Data.StrokeWidth, h.Data.StrokePattern)
		}
		t.Row(n.Data.Label, string(n.Data.NodeKind), severity(n.Data.Severity), strings.Join(n.Data.Flags, ", "), halo)
	}
	fmt.Fprintln(w, t.Render())

	printStats(w, v.sess.Stats())
	printDetail(w, "%d halos · %d badges · zoom %.2f", len(res.Halos), len(res.Badges), res.Viewport.Zoom)
	if res.SavedID != "" {
		printSuccess(w, "Saved analysis %s", StyleNumber.Render(res.SavedID))
		printNextStep(w, "Map it again", "archmap map --last")
	}
}

// analysisName derives a record name from a file path.
func analysisName(path string) string {
	if path == "-" {
		return "stdin"
	}
	return strings.TrimSuffix(filepath.Base(path), ".json")
}
