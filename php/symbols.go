package php

import (
	"path/filepath"
	"sort"
	"sync"

	"github.com/dhamidi/phpsense/php/parser"
)

// SymbolTable is the index built by one indexing run. Writers and readers
// may run on different goroutines; every map access goes through mu.
type SymbolTable struct {
	mu         sync.RWMutex
	classes    map[string]*ClassModel
	functions  map[string]*FunctionModel
	namespaces map[string]map[string]bool
	files      map[string]*FileRecord
}

func NewSymbolTable() *SymbolTable {
	s := &SymbolTable{}
	s.reset()
	return s
}

func (s *SymbolTable) reset() {
	s.classes = make(map[string]*ClassModel)
	s.functions = make(map[string]*FunctionModel)
	s.namespaces = make(map[string]map[string]bool)
	s.files = make(map[string]*FileRecord)
}

// Clear discards everything from the previous run.
func (s *SymbolTable) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
}

// NormalizePath returns the key under which a file record is stored.
func NormalizePath(path string) string {
	return filepath.ToSlash(filepath.Clean(path))
}

// IndexSource tokenizes and parses src, replacing any record previously
// stored for path.
func (s *SymbolTable) IndexSource(path string, src []byte) *FileRecord {
	file := s.newFile(path)
	tokens := parser.Tokenize(src, path)
	ParseDeclarations(tokens, s, file)
	return file
}

func (s *SymbolTable) newFile(path string) *FileRecord {
	file := newFileRecord(NormalizePath(path))
	s.mu.Lock()
	s.files[file.Path] = file
	s.mu.Unlock()
	return file
}

func (s *SymbolTable) addNamespace(name string) {
	if name == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.namespaces[name] == nil {
		s.namespaces[name] = make(map[string]bool)
	}
}

// addClass registers c globally, in file, and in its namespace. An
// existing class with the same FQN is replaced.
func (s *SymbolTable) addClass(file *FileRecord, c *ClassModel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.classes[c.FQN] = c
	file.Classes[c.Name] = c
	s.addNamespaceMemberLocked(c.Namespace, c.FQN)
}

func (s *SymbolTable) addFunction(file *FileRecord, f *FunctionModel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fqn := f.FQN()
	s.functions[fqn] = f
	file.Functions[fqn] = f
	s.addNamespaceMemberLocked(f.Namespace, fqn)
}

func (s *SymbolTable) addNamespaceMemberLocked(namespace, fqn string) {
	if namespace == "" {
		return
	}
	members := s.namespaces[namespace]
	if members == nil {
		members = make(map[string]bool)
		s.namespaces[namespace] = members
	}
	members[fqn] = true
}

// addMethod, addProperty and addConstant mutate a class that may already
// be visible to other goroutines through the global map.
func (s *SymbolTable) addMethod(c *ClassModel, m *FunctionModel) {
	s.mu.Lock()
	c.Methods[m.Name] = m
	s.mu.Unlock()
}

func (s *SymbolTable) addProperty(c *ClassModel, p *PropertyModel) {
	s.mu.Lock()
	c.Properties[p.Name] = p
	s.mu.Unlock()
}

func (s *SymbolTable) addConstant(c *ClassModel, p *PropertyModel) {
	s.mu.Lock()
	c.Constants[p.Name] = p
	s.mu.Unlock()
}

func (s *SymbolTable) addTrait(c *ClassModel, name string) {
	s.mu.Lock()
	c.Traits = append(c.Traits, name)
	s.mu.Unlock()
}

func (s *SymbolTable) addUse(file *FileRecord, alias, target string) {
	s.mu.Lock()
	file.Uses[alias] = target
	s.mu.Unlock()
}

func (s *SymbolTable) setNamespace(file *FileRecord, namespace string) {
	s.mu.Lock()
	file.Namespace = namespace
	s.mu.Unlock()
}

// Class returns the class registered under fqn.
func (s *SymbolTable) Class(fqn string) *ClassModel {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.classes[fqn]
}

// Function returns the free function registered under fqn.
func (s *SymbolTable) Function(fqn string) *FunctionModel {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.functions[fqn]
}

// File returns the record for path, if it was indexed.
func (s *SymbolTable) File(path string) *FileRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.files[NormalizePath(path)]
}

// Classes returns all classes ordered by fully-qualified name.
func (s *SymbolTable) Classes() []*ClassModel {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedClassesLocked()
}

func (s *SymbolTable) sortedClassesLocked() []*ClassModel {
	out := make([]*ClassModel, 0, len(s.classes))
	for _, c := range s.classes {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FQN < out[j].FQN })
	return out
}

// Functions returns all free functions ordered by fully-qualified name.
func (s *SymbolTable) Functions() []*FunctionModel {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*FunctionModel, 0, len(s.functions))
	for _, f := range s.functions {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FQN() < out[j].FQN() })
	return out
}

// Namespaces returns all declared namespaces in sorted order.
func (s *SymbolTable) Namespaces() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.namespaces))
	for ns := range s.namespaces {
		out = append(out, ns)
	}
	sort.Strings(out)
	return out
}

// NamespaceMembers returns the sorted fully-qualified names declared in namespace.
func (s *SymbolTable) NamespaceMembers(namespace string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	members := s.namespaces[namespace]
	out := make([]string, 0, len(members))
	for fqn := range members {
		out = append(out, fqn)
	}
	sort.Strings(out)
	return out
}

// Files returns all file records ordered by path.
func (s *SymbolTable) Files() []*FileRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*FileRecord, 0, len(s.files))
	for _, f := range s.files {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// Stats summarizes the table's size.
type Stats struct {
	Files      int
	Classes    int
	Functions  int
	Namespaces int
}

func (s *SymbolTable) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Stats{
		Files:      len(s.files),
		Classes:    len(s.classes),
		Functions:  len(s.functions),
		Namespaces: len(s.namespaces),
	}
}
