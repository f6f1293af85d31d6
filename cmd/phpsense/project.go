package main

import (
	"context"
	"fmt"
	"io"

	"github.com/dhamidi/phpsense/config"
	"github.com/dhamidi/phpsense/php/codebase"
)

// openProject loads the configuration found in root and returns an
// unindexed codebase for it.
func openProject(root string) (*codebase.Codebase, *config.Config, error) {
	cfg, err := config.LoadDir(root)
	if err != nil {
		return nil, nil, err
	}
	opts, err := codebase.OptionsFromConfig(cfg)
	if err != nil {
		return nil, nil, err
	}
	return codebase.New(root, opts), cfg, nil
}

// indexProject opens root and indexes it, reporting progress to w when
// it is non-nil.
func indexProject(ctx context.Context, root string, w io.Writer) (*codebase.Codebase, *config.Config, codebase.IndexStats, error) {
	c, cfg, err := openProject(root)
	if err != nil {
		return nil, nil, codebase.IndexStats{}, err
	}
	var progress codebase.ProgressFunc
	if w != nil {
		progress = func(done, total int) {
			fmt.Fprintf(w, "\r[%d/%d]", done, total)
			if done == total {
				fmt.Fprintln(w)
			}
		}
	}
	stats, err := c.Index(ctx, progress)
	if err != nil {
		return nil, nil, stats, err
	}
	return c, cfg, stats, nil
}

func rootArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "."
}

func printStats(w io.Writer, stats codebase.IndexStats) {
	fmt.Fprintf(w, "Files:      %d\n", stats.Files)
	fmt.Fprintf(w, "Classes:    %d\n", stats.Classes)
	fmt.Fprintf(w, "Functions:  %d\n", stats.Functions)
	fmt.Fprintf(w, "Namespaces: %d\n", stats.Namespaces)
	fmt.Fprintf(w, "Skipped:    %d\n", stats.Skipped)
	fmt.Fprintf(w, "Duration:   %s\n", stats.Duration)
}
