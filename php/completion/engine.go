// Package completion answers completion queries against a resolved
// symbol table.
package completion

import (
	"sort"
	"strings"

	"github.com/dhamidi/phpsense/php"
)

// Scope is the class a member query is made against and how much of it
// is visible from the query site.
type Scope struct {
	Class *php.ClassModel
	// SameClass makes private and protected members visible.
	SameClass bool
	// Protected makes protected members visible, as from parent::.
	Protected bool
}

func (s Scope) allows(mods php.Modifiers) bool {
	switch {
	case s.SameClass:
		return true
	case s.Protected:
		return mods.Inheritable()
	default:
		return mods.Has(php.ModPublic)
	}
}

// Query is one completion request.
type Query struct {
	// Line is the text of the current line up to the cursor.
	Line string
	// Prefix overrides the word derived from Line when non-empty.
	Prefix string
	// File and LineNo locate the cursor for $this, self:: and parent::.
	File     string
	LineNo   int
	MaxItems int
}

type Engine struct {
	table *php.SymbolTable
}

func NewEngine(table *php.SymbolTable) *Engine {
	return &Engine{table: table}
}

// collector gathers one call's candidates. The seen set lives only as
// long as the call that created it.
type collector struct {
	prefix string
	seen   map[string]bool
	items  []Item
}

func newCollector(prefix string) *collector {
	return &collector{prefix: prefix, seen: make(map[string]bool)}
}

func (c *collector) add(name string, item Item) {
	if c.seen[name] {
		return
	}
	c.seen[name] = true
	c.items = append(c.items, item)
}

func (c *collector) ranked() []Item {
	Rank(c.items)
	return c.items
}

// Complete classifies q.Line and dispatches to the matching query.
func (e *Engine) Complete(q Query) []Item {
	ctx := Classify(q.Line)
	prefix := ctx.Prefix
	if q.Prefix != "" {
		prefix = q.Prefix
	}

	var items []Item
	switch ctx.Kind {
	case ContextClass:
		items = e.Classes(prefix)
	case ContextNamespace:
		items = e.Namespaces(prefix)
	case ContextMethod:
		items = e.Methods(prefix, e.inferScope(ctx.Target, q))
	case ContextStatic:
		items = e.StaticMembers(prefix, e.inferScope(ctx.Target, q))
	default:
		items = e.Default(prefix)
	}

	if q.MaxItems > 0 && len(items) > q.MaxItems {
		items = items[:q.MaxItems]
	}
	return items
}

// inferScope finds the class that target refers to. Only $this, self,
// static, parent and class names are understood; other variables give an
// empty scope.
func (e *Engine) inferScope(target string, q Query) Scope {
	file := e.table.File(q.File)
	var enclosing *php.ClassModel
	if file != nil {
		enclosing = file.ClassAt(q.LineNo)
	}

	switch strings.ToLower(target) {
	case "$this", "self", "static":
		if enclosing == nil {
			return Scope{}
		}
		return Scope{Class: enclosing, SameClass: true}
	case "parent":
		if enclosing == nil {
			return Scope{}
		}
		for _, name := range enclosing.Extends {
			if parent := e.table.ResolveClassName(name, e.table.File(enclosing.File)); parent != nil {
				return Scope{Class: parent, Protected: true}
			}
		}
		return Scope{}
	}

	if strings.HasPrefix(target, "$") || target == ")" {
		return Scope{}
	}
	c := e.table.ResolveClassName(target, file)
	if c == nil {
		return Scope{}
	}
	return Scope{Class: c, SameClass: c == enclosing}
}

// Classes matches short class names containing prefix. The snippet
// instantiates the class with its constructor's parameters.
func (e *Engine) Classes(prefix string) []Item {
	c := newCollector(prefix)
	e.collectClasses(c)
	return c.ranked()
}

func (e *Engine) collectClasses(c *collector) {
	for _, cls := range e.table.Classes() {
		if !containsFold(cls.Name, c.prefix) {
			continue
		}
		c.add(cls.Name, ClassItem{
			Class:   cls,
			Snippet: cls.InstantiationSnippet(),
			Points:  Score(cls.Name, c.prefix, cls.Modifiers),
		})
	}
}

// Namespaces matches namespaces and fully-qualified class names, for use
// statements.
func (e *Engine) Namespaces(prefix string) []Item {
	c := newCollector(prefix)
	for _, ns := range e.table.Namespaces() {
		if containsFold(ns, prefix) {
			c.add(ns, NamespaceItem{Name: ns, Points: Score(ns, prefix, 0)})
		}
	}
	for _, cls := range e.table.Classes() {
		if containsFold(cls.FQN, prefix) {
			c.add(cls.FQN, NamespaceItem{Name: cls.FQN, Points: Score(cls.FQN, prefix, 0)})
		}
	}
	return c.ranked()
}

// Methods lists instance methods and properties of scope's class. Without
// a class it falls back to public methods of every class.
func (e *Engine) Methods(prefix string, scope Scope) []Item {
	c := newCollector(prefix)
	if scope.Class == nil {
		for _, cls := range e.table.Classes() {
			for _, m := range sortedMethods(cls) {
				if m.Modifiers.Has(php.ModPublic) && hasPrefixFold(m.Name, prefix) {
					c.add(m.Name, MethodItem{Method: m, Points: Score(m.Name, prefix, m.Modifiers)})
				}
			}
		}
		return c.ranked()
	}

	for _, m := range sortedMethods(scope.Class) {
		if scope.allows(m.Modifiers) && hasPrefixFold(m.Name, prefix) {
			c.add(m.Name, MethodItem{Method: m, Points: Score(m.Name, prefix, m.Modifiers)})
		}
	}
	for _, p := range sortedMembers(scope.Class.Properties) {
		if p.Modifiers.Has(php.ModStatic) || !scope.allows(p.Modifiers) || !hasPrefixFold(p.Name, prefix) {
			continue
		}
		c.add(p.Name, PropertyItem{Property: p, Points: Score(p.Name, prefix, p.Modifiers)})
	}
	return c.ranked()
}

// StaticMembers lists static methods, static properties and constants.
// Without a class it falls back to public static methods and constants
// of every class.
func (e *Engine) StaticMembers(prefix string, scope Scope) []Item {
	c := newCollector(prefix)
	if scope.Class == nil {
		for _, cls := range e.table.Classes() {
			e.collectStatic(c, cls, Scope{Class: cls}, false)
		}
		return c.ranked()
	}
	e.collectStatic(c, scope.Class, scope, true)
	return c.ranked()
}

func (e *Engine) collectStatic(c *collector, cls *php.ClassModel, scope Scope, withProperties bool) {
	for _, m := range sortedMethods(cls) {
		if m.Modifiers.Has(php.ModStatic) && scope.allows(m.Modifiers) && hasPrefixFold(m.Name, c.prefix) {
			c.add(m.Name, MethodItem{Method: m, Points: Score(m.Name, c.prefix, m.Modifiers)})
		}
	}
	if withProperties {
		for _, p := range sortedMembers(cls.Properties) {
			if p.Modifiers.Has(php.ModStatic) && scope.allows(p.Modifiers) && hasPrefixFold(p.Name, c.prefix) {
				c.add(p.Name, PropertyItem{Property: p, Points: Score(p.Name, c.prefix, p.Modifiers)})
			}
		}
	}
	for _, k := range sortedMembers(cls.Constants) {
		if scope.allows(k.Modifiers) && hasPrefixFold(k.Name, c.prefix) {
			c.add(k.Name, ConstantItem{Constant: k, Points: Score(k.Name, c.prefix, k.Modifiers)})
		}
	}
}

// Functions matches free functions whose name starts with prefix.
func (e *Engine) Functions(prefix string) []Item {
	c := newCollector(prefix)
	e.collectFunctions(c)
	return c.ranked()
}

func (e *Engine) collectFunctions(c *collector) {
	for _, f := range e.table.Functions() {
		if hasPrefixFold(f.Name, c.prefix) {
			c.add(f.Name, FunctionItem{Function: f, Points: Score(f.Name, c.prefix, f.Modifiers)})
		}
	}
}

// Default is class completions followed by function completions. Each
// group is ranked on its own.
func (e *Engine) Default(prefix string) []Item {
	return append(e.Classes(prefix), e.Functions(prefix)...)
}

func sortedMethods(c *php.ClassModel) []*php.FunctionModel {
	out := make([]*php.FunctionModel, 0, len(c.Methods))
	for _, m := range c.Methods {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func sortedMembers(members map[string]*php.PropertyModel) []*php.PropertyModel {
	out := make([]*php.PropertyModel, 0, len(members))
	for _, p := range members {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
