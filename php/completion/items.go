package completion

import (
	"strings"

	"github.com/dhamidi/phpsense/php"
)

type Category int

const (
	CategoryClass Category = iota
	CategoryMethod
	CategoryProperty
	CategoryConstant
	CategoryNamespace
	CategoryFunction
)

var categoryNames = map[Category]string{
	CategoryClass:     "class",
	CategoryMethod:    "method",
	CategoryProperty:  "property",
	CategoryConstant:  "constant",
	CategoryNamespace: "namespace",
	CategoryFunction:  "function",
}

func (c Category) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return "unknown"
}

// Item is one ranked completion candidate. Each category has its own
// concrete type carrying the declaration it was built from.
type Item interface {
	Label() string
	InsertText() string
	Category() Category
	Score() int
	Detail() string
	// Documentation returns the rendered doc comment, or "".
	Documentation() string
}

type ClassItem struct {
	Class   *php.ClassModel
	Snippet string
	Points  int
}

func (i ClassItem) Label() string         { return i.Class.Name }
func (i ClassItem) InsertText() string    { return i.Snippet }
func (i ClassItem) Category() Category    { return CategoryClass }
func (i ClassItem) Score() int            { return i.Points }
func (i ClassItem) Documentation() string { return i.Class.Doc.Text() }

func (i ClassItem) Detail() string {
	var parts []string
	if mods := i.Class.Modifiers.String(); mods != "" {
		parts = append(parts, mods)
	}
	parts = append(parts, string(i.Class.Kind), i.Class.FQN)
	return strings.Join(parts, " ")
}

type MethodItem struct {
	Method *php.FunctionModel
	Points int
}

func (i MethodItem) Label() string         { return i.Method.Name }
func (i MethodItem) InsertText() string    { return i.Method.CallSnippet() }
func (i MethodItem) Category() Category    { return CategoryMethod }
func (i MethodItem) Score() int            { return i.Points }
func (i MethodItem) Detail() string        { return i.Method.Signature() }
func (i MethodItem) Documentation() string { return i.Method.Doc.Text() }

type PropertyItem struct {
	Property *php.PropertyModel
	Points   int
}

func (i PropertyItem) Label() string         { return i.Property.Name }
func (i PropertyItem) Category() Category    { return CategoryProperty }
func (i PropertyItem) Score() int            { return i.Points }
func (i PropertyItem) Documentation() string { return i.Property.Doc.Text() }

// InsertText includes the sigil for static properties, which are
// accessed as Foo::$name.
func (i PropertyItem) InsertText() string {
	if i.Property.Modifiers.Has(php.ModStatic) {
		return "$" + i.Property.Name
	}
	return i.Property.Name
}

func (i PropertyItem) Detail() string {
	if i.Property.Type != "" {
		return i.Property.Type
	}
	return i.Property.Modifiers.String()
}

type ConstantItem struct {
	Constant *php.PropertyModel
	Points   int
}

func (i ConstantItem) Label() string         { return i.Constant.Name }
func (i ConstantItem) InsertText() string    { return i.Constant.Name }
func (i ConstantItem) Category() Category    { return CategoryConstant }
func (i ConstantItem) Score() int            { return i.Points }
func (i ConstantItem) Documentation() string { return i.Constant.Doc.Text() }

func (i ConstantItem) Detail() string {
	if i.Constant.Value == "" {
		return "const"
	}
	return "= " + i.Constant.Value
}

type NamespaceItem struct {
	Name   string
	Points int
}

func (i NamespaceItem) Label() string         { return i.Name }
func (i NamespaceItem) InsertText() string    { return i.Name }
func (i NamespaceItem) Category() Category    { return CategoryNamespace }
func (i NamespaceItem) Score() int            { return i.Points }
func (i NamespaceItem) Detail() string        { return "namespace" }
func (i NamespaceItem) Documentation() string { return "" }

type FunctionItem struct {
	Function *php.FunctionModel
	Points   int
}

func (i FunctionItem) Label() string         { return i.Function.Name }
func (i FunctionItem) InsertText() string    { return i.Function.CallSnippet() }
func (i FunctionItem) Category() Category    { return CategoryFunction }
func (i FunctionItem) Score() int            { return i.Points }
func (i FunctionItem) Detail() string        { return i.Function.Signature() }
func (i FunctionItem) Documentation() string { return i.Function.Doc.Text() }
