package phpdoc

import (
	"strings"
	"unicode"
)

type lineState int

const (
	stateSummary lineState = iota
	stateDescription
	stateTag
)

// Parse parses a doc comment including its /** and */ delimiters.
func Parse(comment string) *DocComment {
	doc := &DocComment{Tags: make(map[string][]string)}

	body := strings.TrimSpace(comment)
	body = strings.TrimPrefix(body, "/**")
	body = strings.TrimSuffix(body, "*/")

	var description []string
	var lastTag string
	state := stateSummary

	for _, raw := range strings.Split(body, "\n") {
		line := stripLinePrefix(raw)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "@") {
			name, value := splitTag(line[1:])
			if name == "" {
				continue
			}
			doc.Tags[name] = append(doc.Tags[name], value)
			lastTag = name
			state = stateTag
			continue
		}

		switch state {
		case stateSummary:
			doc.Summary = line
			state = stateDescription
		case stateDescription:
			description = append(description, line)
		case stateTag:
			values := doc.Tags[lastTag]
			last := len(values) - 1
			if values[last] == "" {
				values[last] = line
			} else {
				values[last] += "\n" + line
			}
		}
	}

	doc.Description = strings.Join(description, "\n")
	return doc
}

// stripLinePrefix removes surrounding whitespace and the leading
// asterisk that decorates continuation lines.
func stripLinePrefix(line string) string {
	line = strings.TrimSpace(line)
	line = strings.TrimLeft(line, "*")
	return strings.TrimSpace(line)
}

func splitTag(s string) (name, value string) {
	end := strings.IndexFunc(s, unicode.IsSpace)
	if end < 0 {
		return s, ""
	}
	return s[:end], strings.TrimSpace(s[end:])
}
