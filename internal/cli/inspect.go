package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

// inspectCommand creates the inspect command.
func (c *CLI) inspectCommand() *cobra.Command {
	var (
		layoutName string
		last       bool
		save       bool
	)

	cmd := &cobra.Command{
		Use:   "inspect [analysis.json]",
		Short: "Browse and dismiss detections interactively",
		Long: `Map an analysis and open an interactive browser over its detections. Select
a detection to see the nodes it implicates and their halos; dismiss it with
"d" and the halos are re-synchronized immediately.

With --save, the analysis left after dismissals is saved to the local store.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.config()
			if err != nil {
				return err
			}
			a, name, err := c.resolveAnalysis(cmd, cfg, args, last)
			if err != nil {
				return err
			}

			v := newOffscreen(cfg, layoutName, c.Logger)
			defer v.close()
			if err := v.load(a); err != nil {
				return err
			}
			if len(v.detections()) == 0 {
				printInfo(cmd.OutOrStdout(), "No detections in %s", name)
				return nil
			}

			p := tea.NewProgram(NewDetectionBrowser(v),
				tea.WithContext(cmd.Context()),
				tea.WithInput(cmd.InOrStdin()),
				tea.WithOutput(cmd.OutOrStdout()))
			final, err := p.Run()
			if err != nil {
				return fmt.Errorf("inspect: %w", err)
			}

			out := cmd.OutOrStdout()
			browser, ok := final.(DetectionBrowser)
			if !ok || len(browser.Dismissed) == 0 {
				return nil
			}
			printSuccess(out, "Dismissed %d detections, %d halos remain", len(browser.Dismissed), len(v.halos()))
			if save {
				id, err := saveAnalysis(cmd, cfg, name, v.sess.Analysis())
				if err != nil {
					return err
				}
				printSuccess(out, "Saved analysis %s", StyleNumber.Render(id))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&layoutName, "layout", "l", "", "layout (default from config)")
	cmd.Flags().BoolVar(&last, "last", false, "inspect the last saved analysis")
	cmd.Flags().BoolVar(&save, "save", false, "save the analysis left after dismissals")
	return cmd
}
