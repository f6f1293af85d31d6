package php

import (
	"strings"
)

// ResolveClassName looks name up as seen from file: first as written, then
// inside the file's namespace, then through the file's use aliases. A
// leading separator marks an already fully-qualified name. Returns nil
// when nothing matches.
func (s *SymbolTable) ResolveClassName(name string, file *FileRecord) *ClassModel {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.resolveClassNameLocked(name, file)
}

func (s *SymbolTable) resolveClassNameLocked(name string, file *FileRecord) *ClassModel {
	if name == "" {
		return nil
	}
	if strings.HasPrefix(name, NamespaceSeparator) {
		return s.classes[strings.TrimPrefix(name, NamespaceSeparator)]
	}
	if c := s.classes[name]; c != nil {
		return c
	}
	if file == nil {
		return nil
	}
	if file.Namespace != "" {
		if c := s.classes[qualify(file.Namespace, name)]; c != nil {
			return c
		}
	}
	if target, ok := file.Uses[name]; ok {
		return s.classes[target]
	}
	// Alias\Rest goes through the alias of the first segment.
	if i := strings.Index(name, NamespaceSeparator); i > 0 {
		if target, ok := file.Uses[name[:i]]; ok {
			return s.classes[target+name[i:]]
		}
	}
	return nil
}

// ResolveInheritance copies inherited members into c. Parents are looked
// up from the file that declares c.
func (s *SymbolTable) ResolveInheritance(c *ClassModel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resolveLocked(c)
}

// ResolveAll resolves every class in the table in name order.
func (s *SymbolTable) ResolveAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.sortedClassesLocked() {
		s.resolveLocked(c)
	}
}

func (s *SymbolTable) resolveLocked(c *ClassModel) {
	if c.State != Unresolved {
		return
	}
	c.State = InProgress

	file := s.files[c.File]
	for _, name := range c.Extends {
		parent := s.resolveClassNameLocked(name, file)
		if parent == nil || parent.State == InProgress {
			continue
		}
		s.resolveLocked(parent)
		if s.extendsLocked(parent, c) {
			continue
		}
		inherit(c, parent, Modifiers.Inheritable)
	}

	for _, name := range c.Traits {
		trait := s.resolveClassNameLocked(name, file)
		if trait == nil || trait.State == InProgress {
			continue
		}
		s.resolveLocked(trait)
		inherit(c, trait, func(Modifiers) bool { return true })
	}

	c.State = Resolved
}

// extendsLocked reports whether ancestor is reachable from c through
// extends. Classes on a cycle do not inherit from one another.
func (s *SymbolTable) extendsLocked(c, ancestor *ClassModel) bool {
	seen := map[*ClassModel]bool{}
	queue := []*ClassModel{c}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if seen[cur] {
			continue
		}
		seen[cur] = true
		file := s.files[cur.File]
		for _, name := range cur.Extends {
			parent := s.resolveClassNameLocked(name, file)
			if parent == nil {
				continue
			}
			if parent == ancestor {
				return true
			}
			queue = append(queue, parent)
		}
	}
	return false
}

// inherit copies the members of from that child does not declare itself.
func inherit(child, from *ClassModel, keep func(Modifiers) bool) {
	for name, m := range from.Methods {
		if _, ok := child.Methods[name]; ok || !keep(m.Modifiers) {
			continue
		}
		child.Methods[name] = m.inheritedCopy()
	}
	for name, p := range from.Properties {
		if _, ok := child.Properties[name]; ok || !keep(p.Modifiers) {
			continue
		}
		child.Properties[name] = p.inheritedCopy()
	}
	for name, k := range from.Constants {
		if _, ok := child.Constants[name]; ok || !keep(k.Modifiers) {
			continue
		}
		child.Constants[name] = k.inheritedCopy()
	}
}
