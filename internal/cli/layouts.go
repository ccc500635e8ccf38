package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/archmap/pkg/layout"
)

// layoutsCommand creates the layouts command.
func (c *CLI) layoutsCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "layouts [name]",
		Short: "List the layouts and their renderer configuration",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			names := layout.Names()
			if len(args) == 1 {
				if !layout.Known(args[0]) {
					return fmt.Errorf("unknown layout %q", args[0])
				}
				names = []string{args[0]}
			}

			cfgs := make([]layout.Config, len(names))
			for i, n := range names {
				cfgs[i] = layout.ConfigFor(n)
			}
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(cfgs)
			}

			t := newTable("Layout", "Kind", "Direction", "Spacing", "Padding")
			for _, cfg := range cfgs {
				kind, spacing := "force", fmt.Sprintf("edge %g", cfg.IdealEdgeLength)
				if cfg.Layered() {
					kind, spacing = "layered", fmt.Sprintf("node %g · rank %g", cfg.NodeSep, cfg.RankSep)
				}
				name := cfg.Name
				if name == layout.Default {
					name += StyleDim.Render(" (default)")
				}
				t.Row(name, kind, string(cfg.Direction), spacing, fmt.Sprint(cfg.Padding))
			}
			fmt.Fprintln(out, t.Render())
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the configurations as JSON")
	return cmd
}
