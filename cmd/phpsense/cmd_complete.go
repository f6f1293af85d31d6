package main

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/dhamidi/phpsense/php/completion"
	"github.com/spf13/cobra"
)

func newCompleteCmd() *cobra.Command {
	var (
		line     string
		prefix   string
		file     string
		lineNo   int
		maxItems int
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "complete [dir]",
		Short: "Index a project and print completions for a line of code",
		Example: `  phpsense complete --line '$user->get'
  phpsense complete src --line 'parent::' --file src/Admin.php --lineno 12`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := rootArg(args)
			c, cfg, _, err := indexProject(cmd.Context(), root, nil)
			if err != nil {
				return err
			}
			if maxItems == 0 {
				maxItems = cfg.Completion.MaxItems
			}

			q := completion.Query{
				Line:     line,
				Prefix:   prefix,
				LineNo:   lineNo,
				MaxItems: maxItems,
			}
			if file != "" {
				rel := file
				if abs, err := filepath.Abs(file); err == nil {
					if absRoot, err := filepath.Abs(root); err == nil {
						if r, err := filepath.Rel(absRoot, abs); err == nil {
							rel = r
						}
					}
				}
				q.File = c.SourcePath(filepath.ToSlash(rel))
			}

			items := c.Complete(q)
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(toJSONItems(items))
			}
			for _, item := range items {
				fmt.Fprintf(out, "%s\t%s\t%s\t%s\n", item.Category(), item.Label(), item.InsertText(), item.Detail())
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&line, "line", "l", "", "text of the line up to the cursor")
	cmd.Flags().StringVarP(&prefix, "prefix", "p", "", "override the word being completed")
	cmd.Flags().StringVarP(&file, "file", "f", "", "file the cursor is in, for $this, self and parent")
	cmd.Flags().IntVarP(&lineNo, "lineno", "n", 0, "1-based line number of the cursor")
	cmd.Flags().IntVarP(&maxItems, "max", "m", 0, "maximum number of items (default from config)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print items as JSON")

	return cmd
}

type jsonItem struct {
	Label         string `json:"label"`
	InsertText    string `json:"insertText"`
	Category      string `json:"category"`
	Score         int    `json:"score"`
	Detail        string `json:"detail,omitempty"`
	Documentation string `json:"documentation,omitempty"`
}

func toJSONItems(items []completion.Item) []jsonItem {
	out := make([]jsonItem, len(items))
	for i, item := range items {
		out[i] = jsonItem{
			Label:         item.Label(),
			InsertText:    item.InsertText(),
			Category:      item.Category().String(),
			Score:         item.Score(),
			Detail:        item.Detail(),
			Documentation: item.Documentation(),
		}
	}
	return out
}
