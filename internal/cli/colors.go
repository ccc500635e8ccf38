package cli

import (
	"fmt"
	"maps"
	"slices"

	"github.com/spf13/cobra"

	"github.com/matzehuels/archmap/pkg/annotate"
	"github.com/matzehuels/archmap/pkg/palette"
)

// colorsCommand creates the colors command.
func (c *CLI) colorsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "colors [analysis.json]",
		Short: "Show the detection kind colors",
		Long: `Without an argument, show the curated color of every known detection kind,
including overrides from the [view.colors] config section.

With an analysis, show the color each of its detection kinds gets, in the
order they are first seen. Kinds without a curated color draw from the
fallback palette.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.config()
			if err != nil {
				return err
			}
			reg := cfg.Palette()
			out := cmd.OutOrStdout()

			if len(args) == 0 {
				kinds := slices.Collect(maps.Keys(palette.FixedColors()))
				for k := range cfg.View.Colors {
					kinds = append(kinds, palette.Normalize(k))
				}
				slices.Sort(kinds)
				kinds = slices.Compact(kinds)

				t := newTable("Kind", "Color")
				for _, k := range kinds {
					t.Row(k, swatch(reg.ColorFor(k)))
				}
				fmt.Fprintln(out, t.Render())
				return nil
			}

			a, err := readAnalysis(cmd, args[0])
			if err != nil {
				return err
			}
			var order []string
			counts := map[string]int{}
			for _, d := range a.Detections {
				k := palette.Normalize(d.Kind)
				if counts[k] == 0 {
					order = append(order, k)
				}
				counts[k]++
			}
			if len(order) == 0 {
				printInfo(out, "No detections")
				return nil
			}

			annotate.AssignColors(a, reg)
			t := newTable("Kind", "Color", "Source", "Detections")
			for _, k := range order {
				source := "fallback"
				if reg.IsFixed(k) {
					source = "curated"
				}
				t.Row(k, swatch(reg.ColorFor(k)), source, fmt.Sprint(counts[k]))
			}
			fmt.Fprintln(out, t.Render())
			return nil
		},
	}
}
