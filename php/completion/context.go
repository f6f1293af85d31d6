package completion

import (
	"regexp"
	"strings"
)

type ContextKind int

const (
	ContextDefault ContextKind = iota
	ContextClass
	ContextNamespace
	ContextMethod
	ContextStatic
)

var contextKindNames = map[ContextKind]string{
	ContextDefault:   "default",
	ContextClass:     "class",
	ContextNamespace: "namespace",
	ContextMethod:    "method",
	ContextStatic:    "static",
}

func (k ContextKind) String() string {
	if name, ok := contextKindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Context is what the text before the cursor asks for.
type Context struct {
	Kind   ContextKind
	Prefix string
	// Target is the expression left of -> or ::, e.g. "$this" or "Foo".
	Target string
}

var (
	useRe      = regexp.MustCompile(`^\s*use\s+(?:function\s+|const\s+)?\\?([\w\\]*)$`)
	staticRe   = regexp.MustCompile(`(\$?[\w\\]+)::\$?(\w*)$`)
	methodRe   = regexp.MustCompile(`(\$\w+|\))\s*\??->\s*(\w*)$`)
	classRe    = regexp.MustCompile(`(?i)\b(?:new|extends|implements|instanceof)\s+([\w\\]*)$`)
	catchRe    = regexp.MustCompile(`(?i)\bcatch\s*\(\s*(?:[\w\\]+\s*\|\s*)*([\w\\]*)$`)
	trailingRe = regexp.MustCompile(`\w*$`)
)

// Classify inspects line, the text up to the cursor.
func Classify(line string) Context {
	if m := useRe.FindStringSubmatch(line); m != nil {
		return Context{Kind: ContextNamespace, Prefix: m[1]}
	}
	if m := staticRe.FindStringSubmatch(line); m != nil {
		return Context{Kind: ContextStatic, Prefix: m[2], Target: m[1]}
	}
	if m := methodRe.FindStringSubmatch(line); m != nil {
		return Context{Kind: ContextMethod, Prefix: m[2], Target: m[1]}
	}
	if m := classRe.FindStringSubmatch(line); m != nil {
		return Context{Kind: ContextClass, Prefix: lastSegment(m[1])}
	}
	if m := catchRe.FindStringSubmatch(line); m != nil {
		return Context{Kind: ContextClass, Prefix: lastSegment(m[1])}
	}
	return Context{Kind: ContextDefault, Prefix: trailingRe.FindString(line)}
}

func lastSegment(name string) string {
	if i := strings.LastIndex(name, `\`); i >= 0 {
		return name[i+1:]
	}
	return name
}
