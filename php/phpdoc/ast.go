// Package phpdoc provides a parser for /** ... */ doc comments.
package phpdoc

import (
	"sort"
	"strings"
)

// DocComment represents a parsed doc comment.
type DocComment struct {
	Summary     string              // First non-empty line
	Description string              // Remaining untagged lines, newline-joined
	Tags        map[string][]string // Tag name (without @) to values in source order
}

// Tag returns the first value recorded for name.
func (d *DocComment) Tag(name string) (string, bool) {
	if d == nil {
		return "", false
	}
	values := d.Tags[name]
	if len(values) == 0 {
		return "", false
	}
	return values[0], true
}

// TagNames returns the tag names in sorted order.
func (d *DocComment) TagNames() []string {
	if d == nil {
		return nil
	}
	names := make([]string, 0, len(d.Tags))
	for name := range d.Tags {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsEmpty reports whether the comment carries no text at all.
func (d *DocComment) IsEmpty() bool {
	return d == nil || (d.Summary == "" && d.Description == "" && len(d.Tags) == 0)
}

// Text renders the comment as plain text suitable for hover or
// completion documentation.
func (d *DocComment) Text() string {
	if d.IsEmpty() {
		return ""
	}
	var parts []string
	if d.Summary != "" {
		parts = append(parts, d.Summary)
	}
	if d.Description != "" {
		parts = append(parts, d.Description)
	}
	var tags []string
	for _, name := range d.TagNames() {
		for _, value := range d.Tags[name] {
			line := "@" + name
			if value != "" {
				line += " " + value
			}
			tags = append(tags, line)
		}
	}
	if len(tags) > 0 {
		parts = append(parts, strings.Join(tags, "\n"))
	}
	return strings.Join(parts, "\n\n")
}
