package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/archmap/pkg/annotate"
)

// statsCommand creates the stats command.
func (c *CLI) statsCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "stats <analysis.json>",
		Short: "Print service, edge and detection counters",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := readAnalysis(cmd, args[0])
			if err != nil {
				return err
			}
			s := annotate.ComputeStats(a)
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(s)
			}

			fmt.Fprintln(out, StyleTitle.Render(analysisName(args[0])))
			printKeyValue(out, "Services", fmt.Sprint(s.Services))
			printKeyValue(out, "Databases", fmt.Sprint(s.Databases))
			printKeyValue(out, "Edges", fmt.Sprint(s.Edges))
			printKeyValue(out, "Detections", fmt.Sprint(s.Detections))
			printKeyValue(out, "Annotated", fmt.Sprint(s.AnnotatedNodes))
			printStats(out, s)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the counters as JSON")
	return cmd
}
