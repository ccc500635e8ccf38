package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/archmap/pkg/buildinfo"
)

func (c *CLI) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info := buildinfo.Get()
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, StyleTitle.Render(appName)+" "+StyleValue.Render(info.Version))
			printKeyValue(out, "Commit", info.Commit)
			printKeyValue(out, "Built", info.Date)
			printKeyValue(out, "Go", info.GoVersion)
			return nil
		},
	}
}
