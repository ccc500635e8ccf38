package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/archmap/pkg/errors"
)

// analysesCommand creates the analyses command for the local store.
func (c *CLI) analysesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "analyses",
		Aliases: []string{"ls"},
		Short:   "Manage analyses saved with --save",
	}

	cmd.AddCommand(c.analysesListCommand())
	cmd.AddCommand(c.analysesShowCommand())
	cmd.AddCommand(c.analysesRemoveCommand())

	return cmd
}

func (c *CLI) analysesListCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved analyses, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.config()
			if err != nil {
				return err
			}
			store, err := localStore(cfg)
			if err != nil {
				return err
			}
			sums, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(sums) == 0 {
				printInfo(out, "No saved analyses")
				printDetail(out, "Directory: %s", store.Path())
				return nil
			}

			t := newTable("ID", "Name", "Nodes", "Edges", "Detections", "Saved")
			for _, s := range sums {
				t.Row(s.ID, s.Name, fmt.Sprint(s.Nodes), fmt.Sprint(s.Edges), fmt.Sprint(s.Detections), formatRelativeTime(s.CreatedAt, time.Now()))
			}
			fmt.Fprintln(out, t.Render())
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of analyses (0 for all)")
	return cmd
}

func (c *CLI) analysesShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print a saved analysis as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := errors.ValidateAnalysisID(args[0]); err != nil {
				return err
			}
			cfg, err := c.config()
			if err != nil {
				return err
			}
			store, err := localStore(cfg)
			if err != nil {
				return err
			}
			rec, err := store.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(rec.Analysis)
		},
	}
}

func (c *CLI) analysesRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>...",
		Aliases: []string{"delete"},
		Short:   "Delete saved analyses",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.config()
			if err != nil {
				return err
			}
			store, err := localStore(cfg)
			if err != nil {
				return err
			}
			for _, id := range args {
				if err := errors.ValidateAnalysisID(id); err != nil {
					return err
				}
				if err := store.Delete(cmd.Context(), id); err != nil {
					return err
				}
				printSuccess(cmd.OutOrStdout(), "Deleted %s", id)
			}
			return nil
		},
	}
}

// formatRelativeTime renders t relative to now.
func formatRelativeTime(t, now time.Time) string {
	diff := now.Sub(t)
	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	default:
		return t.Format("Jan 2, 2006")
	}
}
