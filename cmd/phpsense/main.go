package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"

	_ "github.com/tliron/commonlog/simple"
)

const version = "0.1.0"

func main() {
	var verbosity int
	var logFile string

	rootCmd := &cobra.Command{
		Use:          "phpsense",
		Short:        "Code completion for PHP projects",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			commonlog.Initialize(verbosity, logFile)
		},
	}
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "increase log verbosity")
	rootCmd.PersistentFlags().StringVar(&logFile, "log", "", "write logs to this file instead of stderr")

	rootCmd.AddCommand(newLSPCmd())
	rootCmd.AddCommand(newIndexCmd())
	rootCmd.AddCommand(newCompleteCmd())
	rootCmd.AddCommand(newDumpCmd())
	rootCmd.AddCommand(newTokensCmd())
	rootCmd.AddCommand(newWatchCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
