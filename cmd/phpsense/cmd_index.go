package main

import (
	"github.com/spf13/cobra"
)

func newIndexCmd() *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "index [dir]",
		Short: "Index a PHP project and print statistics",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			progress := cmd.ErrOrStderr()
			if quiet {
				progress = nil
			}
			_, _, stats, err := indexProject(cmd.Context(), rootArg(args), progress)
			if err != nil {
				return err
			}
			printStats(cmd.OutOrStdout(), stats)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "do not report progress")

	return cmd
}
