package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the local cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cacheInfoCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.config()
			if err != nil {
				return err
			}
			fc, err := localCache(cfg)
			if err != nil {
				return fmt.Errorf("open cache: %w", err)
			}
			defer fc.Close()

			n, err := fc.Entries()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if n == 0 {
				printInfo(out, "Cache is empty")
				return nil
			}
			if err := fc.Clear(cmd.Context()); err != nil {
				return err
			}
			printSuccess(out, "Cleared %d cached entries", n)
			printDetail(out, "Directory: %s", fc.Dir())
			return nil
		},
	}
}

// cacheInfoCommand creates the "cache info" subcommand.
func (c *CLI) cacheInfoCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "info",
		Aliases: []string{"path"},
		Short:   "Print the cache location and size",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.config()
			if err != nil {
				return err
			}
			fc, err := localCache(cfg)
			if err != nil {
				return fmt.Errorf("open cache: %w", err)
			}
			defer fc.Close()
			n, err := fc.Entries()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			printKeyValue(out, "Directory", fc.Dir())
			printKeyValue(out, "Entries", fmt.Sprint(n))
			printKeyValue(out, "TTL", cfg.Cache.TTL.String())
			printKeyValue(out, "Server cache", cfg.Cache.Backend)
			return nil
		},
	}
}
