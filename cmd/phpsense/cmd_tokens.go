package main

import (
	"fmt"
	"os"

	"github.com/dhamidi/phpsense/format"
	"github.com/dhamidi/phpsense/php/parser"
	"github.com/spf13/cobra"
)

func newTokensCmd() *cobra.Command {
	var tokenFormat string

	cmd := &cobra.Command{
		Use:   "tokens <file>",
		Short: "Print the token stream of a PHP file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read php file: %w", err)
			}
			enc, err := format.NewTokenEncoder(tokenFormat, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			return enc.Encode(parser.Tokenize(data, args[0]))
		},
	}

	cmd.Flags().StringVarP(&tokenFormat, "format", "f", "line", "output format (line, json)")

	return cmd
}
