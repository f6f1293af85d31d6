package php

import (
	"strings"
	"time"

	"github.com/dhamidi/phpsense/php/phpdoc"
)

// NamespaceSeparator joins namespace segments and short names.
const NamespaceSeparator = `\`

type ClassKind string

const (
	ClassKindClass     ClassKind = "class"
	ClassKindInterface ClassKind = "interface"
	ClassKindTrait     ClassKind = "trait"
)

// ResolutionState tracks a class through one inheritance resolution run.
type ResolutionState int

const (
	Unresolved ResolutionState = iota
	InProgress
	Resolved
)

func (s ResolutionState) String() string {
	switch s {
	case Unresolved:
		return "unresolved"
	case InProgress:
		return "in-progress"
	case Resolved:
		return "resolved"
	default:
		return "unknown"
	}
}

type ClassModel struct {
	Name       string // short name
	FQN        string
	Namespace  string
	Kind       ClassKind
	Modifiers  Modifiers // abstract, final
	Extends    []string  // as written
	Implements []string  // as written
	Traits     []string  // as written in `use` inside the body
	Methods    map[string]*FunctionModel
	Properties map[string]*PropertyModel
	Constants  map[string]*PropertyModel
	Doc        *phpdoc.DocComment
	File       string
	Line       int
	State      ResolutionState
}

func newClassModel(name, namespace string, kind ClassKind) *ClassModel {
	return &ClassModel{
		Name:       name,
		FQN:        qualify(namespace, name),
		Namespace:  namespace,
		Kind:       kind,
		Methods:    make(map[string]*FunctionModel),
		Properties: make(map[string]*PropertyModel),
		Constants:  make(map[string]*PropertyModel),
	}
}

// Constructor returns the class's own __construct, ignoring inherited ones.
func (c *ClassModel) Constructor() *FunctionModel {
	for name, m := range c.Methods {
		if strings.EqualFold(name, "__construct") && !m.Inherited {
			return m
		}
	}
	return nil
}

// InstantiationSnippet renders "Name($a, $b)" from the class's own
// constructor, or "Name()" when it has none.
func (c *ClassModel) InstantiationSnippet() string {
	if ctor := c.Constructor(); ctor != nil {
		return callSnippet(c.Name, ctor.Parameters)
	}
	return c.Name + "()"
}

type FunctionModel struct {
	Name       string
	Namespace  string // free functions only
	Modifiers  Modifiers
	Parameters []Parameter
	ReturnType string
	Doc        *phpdoc.DocComment
	File       string
	Line       int
	Class      string // enclosing class FQN; empty for free functions
	Inherited  bool
}

// FQN returns the namespace-qualified name of a free function.
func (f *FunctionModel) FQN() string {
	return qualify(f.Namespace, f.Name)
}

// Signature renders "name(Type $a, $b = 1): Ret".
func (f *FunctionModel) Signature() string {
	params := make([]string, len(f.Parameters))
	for i, p := range f.Parameters {
		params[i] = p.String()
	}
	sig := f.Name + "(" + strings.Join(params, ", ") + ")"
	if f.ReturnType != "" {
		sig += ": " + f.ReturnType
	}
	return sig
}

// CallSnippet renders "name($a, $b)" using parameter names.
func (f *FunctionModel) CallSnippet() string {
	return callSnippet(f.Name, f.Parameters)
}

func callSnippet(name string, params []Parameter) string {
	names := make([]string, len(params))
	for i, p := range params {
		names[i] = "$" + p.Name
	}
	return name + "(" + strings.Join(names, ", ") + ")"
}

// inheritedCopy returns a copy tagged as inherited, leaving the parent's
// own record untouched.
func (f *FunctionModel) inheritedCopy() *FunctionModel {
	cp := *f
	cp.Inherited = true
	return &cp
}

type Parameter struct {
	Name        string // without leading $
	Type        string
	Default     string
	IsReference bool
	IsVariadic  bool
}

func (p Parameter) String() string {
	var sb strings.Builder
	if p.Type != "" {
		sb.WriteString(p.Type)
		sb.WriteByte(' ')
	}
	if p.IsReference {
		sb.WriteByte('&')
	}
	if p.IsVariadic {
		sb.WriteString("...")
	}
	sb.WriteString("$" + p.Name)
	if p.Default != "" {
		sb.WriteString(" = " + p.Default)
	}
	return sb.String()
}

// PropertyModel describes both properties and class constants; constants
// carry ModConst.
type PropertyModel struct {
	Name      string // properties without leading $
	Modifiers Modifiers
	Type      string
	Value     string
	Doc       *phpdoc.DocComment
	File      string
	Line      int
	Inherited bool
}

func (p *PropertyModel) inheritedCopy() *PropertyModel {
	cp := *p
	cp.Inherited = true
	return &cp
}

// FileRecord holds what one source file contributed to the index.
type FileRecord struct {
	Path      string
	Namespace string
	Uses      map[string]string // alias -> fully-qualified target
	Classes   map[string]*ClassModel
	Functions map[string]*FunctionModel
	IndexedAt time.Time
}

func newFileRecord(path string) *FileRecord {
	return &FileRecord{
		Path:      path,
		Uses:      make(map[string]string),
		Classes:   make(map[string]*ClassModel),
		Functions: make(map[string]*FunctionModel),
		IndexedAt: time.Now(),
	}
}

// ClassAt returns the class declared in this file whose declaration line
// is the closest one at or before line.
func (f *FileRecord) ClassAt(line int) *ClassModel {
	var best *ClassModel
	for _, c := range f.Classes {
		if c.Line > line {
			continue
		}
		if best == nil || c.Line > best.Line || (c.Line == best.Line && c.FQN < best.FQN) {
			best = c
		}
	}
	return best
}

func qualify(namespace, name string) string {
	if namespace == "" {
		return name
	}
	return namespace + NamespaceSeparator + name
}

// ShortName returns the segment after the final namespace separator.
func ShortName(name string) string {
	if i := strings.LastIndex(name, NamespaceSeparator); i >= 0 {
		return name[i+1:]
	}
	return name
}
