package format

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/dhamidi/phpsense/php"
)

// LineEncoder writes one tab-separated line per declaration.
type LineEncoder struct {
	w     io.Writer
	class *php.ClassModel
	fn    *php.FunctionModel
}

func NewLineEncoder(w io.Writer) *LineEncoder {
	return &LineEncoder{w: w}
}

func (e *LineEncoder) Encode(class *php.ClassModel) error {
	e.class, e.fn = class, nil
	return e.write()
}

func (e *LineEncoder) EncodeFunction(fn *php.FunctionModel) error {
	e.class, e.fn = nil, fn
	return e.write()
}

func (e *LineEncoder) write() error {
	text, err := e.MarshalText()
	if err != nil {
		return err
	}
	_, err = e.w.Write(text)
	return err
}

// MarshalText renders the value passed to the last Encode call.
func (e *LineEncoder) MarshalText() ([]byte, error) {
	var sb strings.Builder
	if e.fn != nil {
		fmt.Fprintf(&sb, "function\t%s\t%s\t%s\t%s:%d\n",
			e.fn.FQN(),
			e.fn.ReturnType,
			parametersStr(e.fn.Parameters),
			e.fn.File,
			e.fn.Line,
		)
		return []byte(sb.String()), nil
	}

	c := e.class
	if c == nil {
		return nil, nil
	}
	fmt.Fprintf(&sb, "%s\t%s\t%s\t%s:%d\n", c.Kind, c.FQN, c.Modifiers, c.File, c.Line)
	for _, name := range c.Extends {
		fmt.Fprintf(&sb, "extends\t%s\n", name)
	}
	for _, name := range c.Implements {
		fmt.Fprintf(&sb, "implements\t%s\n", name)
	}
	for _, name := range c.Traits {
		fmt.Fprintf(&sb, "use\t%s\n", name)
	}

	for _, k := range sortedMembers(c.Constants) {
		vis, _ := visibility(k.Modifiers)
		fmt.Fprintf(&sb, "const\t%s\t%s\t%s\t%s\n", k.Name, k.Value, vis, memberFlags(nil, k.Inherited))
	}
	for _, p := range sortedMembers(c.Properties) {
		vis, rest := visibility(p.Modifiers)
		fmt.Fprintf(&sb, "property\t%s\t%s\t%s\t%s\n", p.Name, p.Type, vis, memberFlags(rest, p.Inherited))
	}
	for _, m := range sortedMethods(c) {
		vis, rest := visibility(m.Modifiers)
		fmt.Fprintf(&sb, "method\t%s\t%s\t%s\t%s\t%s\n",
			m.Name,
			m.ReturnType,
			parametersStr(m.Parameters),
			vis,
			memberFlags(rest, m.Inherited),
		)
	}

	return []byte(sb.String()), nil
}

func memberFlags(mods []string, inherited bool) string {
	if inherited {
		mods = append(mods, "inherited")
	}
	return strings.Join(mods, " ")
}

func parametersStr(params []php.Parameter) string {
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = p.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func sortedMembers(members map[string]*php.PropertyModel) []*php.PropertyModel {
	out := make([]*php.PropertyModel, 0, len(members))
	for _, m := range members {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func sortedMethods(c *php.ClassModel) []*php.FunctionModel {
	out := make([]*php.FunctionModel, 0, len(c.Methods))
	for _, m := range c.Methods {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
