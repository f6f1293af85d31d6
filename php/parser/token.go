package parser

import "strings"

type Position struct {
	File   string
	Offset int
	Line   int
	Column int
}

type TokenKind int

const (
	TokenEOF TokenKind = iota
	TokenOpenTag
	TokenComment
	TokenDocComment
	TokenString
	TokenVariable
	TokenIdent
	TokenChar

	// Keywords
	TokenNamespace
	TokenUse
	TokenClass
	TokenInterface
	TokenTrait
	TokenFunction
	TokenConst
	TokenPublic
	TokenProtected
	TokenPrivate
	TokenStatic
	TokenAbstract
	TokenFinal
	TokenExtends
	TokenImplements
)

var tokenKindNames = map[TokenKind]string{
	TokenEOF:        "EOF",
	TokenOpenTag:    "OpenTag",
	TokenComment:    "Comment",
	TokenDocComment: "DocComment",
	TokenString:     "String",
	TokenVariable:   "Variable",
	TokenIdent:      "Identifier",
	TokenChar:       "Char",
	TokenNamespace:  "namespace",
	TokenUse:        "use",
	TokenClass:      "class",
	TokenInterface:  "interface",
	TokenTrait:      "trait",
	TokenFunction:   "function",
	TokenConst:      "const",
	TokenPublic:     "public",
	TokenProtected:  "protected",
	TokenPrivate:    "private",
	TokenStatic:     "static",
	TokenAbstract:   "abstract",
	TokenFinal:      "final",
	TokenExtends:    "extends",
	TokenImplements: "implements",
}

func (k TokenKind) String() string {
	if name, ok := tokenKindNames[k]; ok {
		return name
	}
	return "Unknown"
}

// IsKeyword reports whether k is one of the reserved declaration keywords.
func (k TokenKind) IsKeyword() bool {
	return k >= TokenNamespace && k <= TokenImplements
}

// IsModifier reports whether k is a visibility, static, abstract, final or const keyword.
func (k TokenKind) IsModifier() bool {
	switch k {
	case TokenPublic, TokenProtected, TokenPrivate, TokenStatic, TokenAbstract, TokenFinal, TokenConst:
		return true
	}
	return false
}

type Token struct {
	Kind    TokenKind
	Pos     Position
	Literal string
}

// End returns the byte offset just past the token.
func (t Token) End() int {
	return t.Pos.Offset + len(t.Literal)
}

// IsChar reports whether t is the single-character token ch.
func (t Token) IsChar(ch byte) bool {
	return t.Kind == TokenChar && len(t.Literal) == 1 && t.Literal[0] == ch
}

// IsWord reports whether t is an identifier or a keyword, both of which
// are valid member names.
func (t Token) IsWord() bool {
	return t.Kind == TokenIdent || t.Kind.IsKeyword()
}

var keywords = map[string]TokenKind{
	"namespace":  TokenNamespace,
	"use":        TokenUse,
	"class":      TokenClass,
	"interface":  TokenInterface,
	"trait":      TokenTrait,
	"function":   TokenFunction,
	"const":      TokenConst,
	"public":     TokenPublic,
	"protected":  TokenProtected,
	"private":    TokenPrivate,
	"static":     TokenStatic,
	"abstract":   TokenAbstract,
	"final":      TokenFinal,
	"extends":    TokenExtends,
	"implements": TokenImplements,
}

// LookupKeyword matches ident case-insensitively against the keyword set.
func LookupKeyword(ident string) TokenKind {
	if kind, ok := keywords[strings.ToLower(ident)]; ok {
		return kind
	}
	return TokenIdent
}
