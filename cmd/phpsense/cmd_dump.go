package main

import (
	"fmt"
	"os"

	"github.com/dhamidi/phpsense/format"
	"github.com/dhamidi/phpsense/php"
	"github.com/spf13/cobra"
)

func newDumpCmd() *cobra.Command {
	var (
		dumpFormat string
		className  string
	)

	cmd := &cobra.Command{
		Use:   "dump <file|dir>",
		Short: "Dump the declarations indexed from a file or project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			info, err := os.Stat(path)
			if err != nil {
				return fmt.Errorf("stat %s: %w", path, err)
			}

			var table *php.SymbolTable
			if info.IsDir() {
				c, _, _, err := indexProject(cmd.Context(), path, nil)
				if err != nil {
					return err
				}
				table = c.Table()
			} else {
				data, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("read php file: %w", err)
				}
				table = php.NewSymbolTable()
				table.IndexSource(path, data)
				table.ResolveAll()
			}

			enc, err := format.NewEncoder(dumpFormat, cmd.OutOrStdout())
			if err != nil {
				return err
			}

			if className != "" {
				class := table.Class(className)
				if class == nil {
					return fmt.Errorf("class %s not found", className)
				}
				return enc.Encode(class)
			}

			for _, class := range table.Classes() {
				if err := enc.Encode(class); err != nil {
					return fmt.Errorf("encode %s: %w", class.FQN, err)
				}
			}
			for _, fn := range table.Functions() {
				if err := enc.EncodeFunction(fn); err != nil {
					return fmt.Errorf("encode %s: %w", fn.FQN(), err)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&dumpFormat, "format", "f", "line", "output format (line, json)")
	cmd.Flags().StringVarP(&className, "class", "c", "", "dump only this fully-qualified class")

	return cmd
}
