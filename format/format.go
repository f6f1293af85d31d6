// Package format renders indexed declarations and tokens as text.
package format

import (
	"encoding"
	"fmt"
	"io"

	"github.com/dhamidi/phpsense/php"
)

type Encoder interface {
	encoding.TextMarshaler
	Encode(class *php.ClassModel) error
	EncodeFunction(fn *php.FunctionModel) error
}

// NewEncoder returns the declaration encoder called name: "line" or "json".
func NewEncoder(name string, w io.Writer) (Encoder, error) {
	switch name {
	case "", "line":
		return NewLineEncoder(w), nil
	case "json":
		return NewJSONEncoder(w), nil
	default:
		return nil, fmt.Errorf("unknown format %q", name)
	}
}

// visibility splits mods into its visibility keyword and the rest.
func visibility(mods php.Modifiers) (string, []string) {
	vis := ""
	var rest []string
	for _, name := range mods.Names() {
		switch name {
		case "public", "protected", "private":
			vis = name
		case "const":
		default:
			rest = append(rest, name)
		}
	}
	return vis, rest
}
