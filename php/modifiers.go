package php

import (
	"strings"

	"github.com/dhamidi/phpsense/php/parser"
)

// Modifiers is a set of declaration modifiers.
type Modifiers uint8

const (
	ModPublic Modifiers = 1 << iota
	ModProtected
	ModPrivate
	ModStatic
	ModAbstract
	ModFinal
	ModConst
)

const visibilityMask = ModPublic | ModProtected | ModPrivate

var modifierNames = []struct {
	mod  Modifiers
	name string
}{
	{ModPublic, "public"},
	{ModProtected, "protected"},
	{ModPrivate, "private"},
	{ModStatic, "static"},
	{ModAbstract, "abstract"},
	{ModFinal, "final"},
	{ModConst, "const"},
}

// Has reports whether every modifier in m2 is present in m.
func (m Modifiers) Has(m2 Modifiers) bool {
	return m&m2 == m2
}

// HasVisibility reports whether an explicit visibility was given.
func (m Modifiers) HasVisibility() bool {
	return m&visibilityMask != 0
}

// WithDefaultVisibility adds public when no visibility is present.
func (m Modifiers) WithDefaultVisibility() Modifiers {
	if m.HasVisibility() {
		return m
	}
	return m | ModPublic
}

// Inheritable reports whether a member with these modifiers propagates
// to subclasses.
func (m Modifiers) Inheritable() bool {
	return m&(ModPublic|ModProtected) != 0
}

func (m Modifiers) Names() []string {
	var names []string
	for _, mn := range modifierNames {
		if m.Has(mn.mod) {
			names = append(names, mn.name)
		}
	}
	return names
}

func (m Modifiers) String() string {
	return strings.Join(m.Names(), " ")
}

// ModifierFor maps a modifier keyword token to its set member.
func ModifierFor(kind parser.TokenKind) (Modifiers, bool) {
	switch kind {
	case parser.TokenPublic:
		return ModPublic, true
	case parser.TokenProtected:
		return ModProtected, true
	case parser.TokenPrivate:
		return ModPrivate, true
	case parser.TokenStatic:
		return ModStatic, true
	case parser.TokenAbstract:
		return ModAbstract, true
	case parser.TokenFinal:
		return ModFinal, true
	case parser.TokenConst:
		return ModConst, true
	}
	return 0, false
}
