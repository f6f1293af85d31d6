package main

import (
	"fmt"
	"time"

	"github.com/dhamidi/phpsense/php/codebase"
	"github.com/spf13/cobra"
)

func newWatchCmd() *cobra.Command {
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:   "watch [dir]",
		Short: "Index a project and re-index it whenever sources change",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			c, cfg, stats, err := indexProject(ctx, rootArg(args), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			printStats(out, stats)

			if debounce == 0 {
				debounce = cfg.Watch.Debounce
			}
			w, err := codebase.NewWatcher(c, debounce, func(stats codebase.IndexStats, err error) {
				if err != nil {
					fmt.Fprintf(out, "re-index failed: %s\n", err)
					return
				}
				fmt.Fprintf(out, "re-indexed %d files, %d classes in %s\n", stats.Files, stats.Classes, stats.Duration)
			})
			if err != nil {
				return err
			}
			defer w.Close()
			if err := w.Start(ctx); err != nil {
				return err
			}

			fmt.Fprintf(out, "watching %s\n", c.Root())
			<-ctx.Done()
			return nil
		},
	}

	cmd.Flags().DurationVarP(&debounce, "debounce", "d", 0, "quiet period before re-indexing (default from config)")

	return cmd
}
