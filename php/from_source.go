package php

import (
	"strings"

	"github.com/dhamidi/phpsense/php/parser"
	"github.com/dhamidi/phpsense/php/phpdoc"
)

// ParseDeclarations makes a single left-to-right pass over tokens and
// registers every namespace, use alias, class-like, member and free
// function it recognises into table and file. Constructs it does not
// understand are skipped; it never fails.
func ParseDeclarations(tokens []parser.Token, table *SymbolTable, file *FileRecord) {
	p := &declParser{
		tokens: tokens,
		table:  table,
		file:   file,
	}
	p.run()
}

type declParser struct {
	tokens    []parser.Token
	pos       int
	table     *SymbolTable
	file      *FileRecord
	namespace string
	class     *ClassModel
	doc       *phpdoc.DocComment
}

// paramDecl is a parsed parameter plus the modifiers that promote it to
// a property when it belongs to a constructor.
type paramDecl struct {
	Parameter
	promote  Modifiers
	readonly bool
	line     int
}

func (p *declParser) atEnd() bool {
	return p.pos >= len(p.tokens)
}

func (p *declParser) current() parser.Token {
	if p.atEnd() {
		return parser.Token{Kind: parser.TokenEOF}
	}
	return p.tokens[p.pos]
}

func isComment(tok parser.Token) bool {
	return tok.Kind == parser.TokenComment || tok.Kind == parser.TokenDocComment
}

// significant returns the index of the first non-comment token at or
// after from, or len(tokens).
func (p *declParser) significant(from int) int {
	for from < len(p.tokens) && isComment(p.tokens[from]) {
		from++
	}
	return from
}

func (p *declParser) tokenAt(i int) parser.Token {
	if i < 0 || i >= len(p.tokens) {
		return parser.Token{Kind: parser.TokenEOF}
	}
	return p.tokens[i]
}

// followsMemberAccess reports whether the token at pos is preceded by
// "::" or "->", as in Foo::class.
func (p *declParser) followsMemberAccess() bool {
	i := p.pos - 1
	for i >= 0 && isComment(p.tokens[i]) {
		i--
	}
	if i < 0 {
		return false
	}
	prev := p.tokens[i]
	if prev.IsChar(':') {
		return true
	}
	return prev.IsChar('>') && i > 0 && p.tokens[i-1].IsChar('-')
}

func (p *declParser) takeDoc() *phpdoc.DocComment {
	doc := p.doc
	p.doc = nil
	return doc
}

func (p *declParser) run() {
	var mods Modifiers
	for !p.atEnd() {
		tok := p.tokens[p.pos]

		switch tok.Kind {
		case parser.TokenDocComment:
			p.doc = phpdoc.Parse(tok.Literal)
			p.pos++
			continue
		case parser.TokenComment:
			p.pos++
			continue
		}

		if m, ok := ModifierFor(tok.Kind); ok {
			mods |= m
			p.pos++
			continue
		}
		if isSoftModifier(tok) {
			p.pos++
			continue
		}

		switch tok.Kind {
		case parser.TokenNamespace:
			p.parseNamespace()
		case parser.TokenUse:
			p.parseUse()
		case parser.TokenClass, parser.TokenInterface, parser.TokenTrait:
			p.parseClassLike(mods)
		case parser.TokenFunction:
			p.parseFunction(mods)
		default:
			p.pos++
		}
		mods = 0
	}
}

func (p *declParser) parseNamespace() {
	p.pos++
	var sb strings.Builder
	for !p.atEnd() {
		tok := p.tokens[p.pos]
		if isComment(tok) {
			p.pos++
			continue
		}
		if tok.Kind != parser.TokenIdent {
			break
		}
		sb.WriteString(tok.Literal)
		p.pos++
	}

	name := strings.Trim(sb.String(), NamespaceSeparator)
	p.namespace = name
	p.table.setNamespace(p.file, name)
	p.table.addNamespace(name)
}

// parseUse handles imports, including comma lists and group imports.
func (p *declParser) parseUse() {
	p.pos++
	next := p.significant(p.pos)
	if p.tokenAt(next).IsChar('(') {
		// closure use (...)
		return
	}
	if k := p.tokenAt(next).Kind; k == parser.TokenFunction || k == parser.TokenConst {
		p.pos = next + 1
	}

	var prefix, name, alias string
	afterAs := false
	flush := func() {
		imported := strings.TrimPrefix(prefix+name, NamespaceSeparator)
		if imported != "" && !strings.HasSuffix(imported, NamespaceSeparator) {
			if alias == "" {
				alias = ShortName(imported)
			}
			p.table.addUse(p.file, alias, imported)
		}
		name, alias, afterAs = "", "", false
	}

	for !p.atEnd() {
		tok := p.tokens[p.pos]
		switch {
		case isComment(tok):
		case tok.IsChar(';'):
			flush()
			p.pos++
			return
		case tok.IsChar(','):
			flush()
		case tok.IsChar('{'):
			prefix, name = prefix+name, ""
		case tok.IsChar('}'):
			flush()
			prefix = ""
		case (tok.Kind == parser.TokenFunction || tok.Kind == parser.TokenConst) && name == "":
		case tok.Kind == parser.TokenIdent && strings.EqualFold(tok.Literal, "as"):
			afterAs = true
		case tok.IsWord():
			if afterAs {
				alias += tok.Literal
			} else {
				name += tok.Literal
			}
		default:
			flush()
			return
		}
		p.pos++
	}
	flush()
}

func classKindFor(kind parser.TokenKind) ClassKind {
	switch kind {
	case parser.TokenInterface:
		return ClassKindInterface
	case parser.TokenTrait:
		return ClassKindTrait
	default:
		return ClassKindClass
	}
}

func (p *declParser) parseClassLike(mods Modifiers) {
	keyword := p.tokens[p.pos]
	if p.followsMemberAccess() {
		p.pos++
		return
	}
	p.pos++

	i := p.significant(p.pos)
	nameTok := p.tokenAt(i)
	if nameTok.Kind != parser.TokenIdent {
		return
	}
	p.pos = i + 1

	c := newClassModel(nameTok.Literal, p.namespace, classKindFor(keyword.Kind))
	c.Modifiers = mods & (ModAbstract | ModFinal)
	c.File = p.file.Path
	c.Line = keyword.Pos.Line

	var list *[]string
	hasBody := false
header:
	for !p.atEnd() {
		tok := p.tokens[p.pos]
		switch {
		case tok.IsChar('{'):
			hasBody = true
			p.pos++
			break header
		case tok.IsChar(';'), tok.IsChar('}'):
			break header
		case tok.Kind == parser.TokenExtends:
			list = &c.Extends
		case tok.Kind == parser.TokenImplements:
			list = &c.Implements
		case tok.Kind == parser.TokenIdent && list != nil:
			*list = append(*list, tok.Literal)
		}
		p.pos++
	}

	c.Doc = p.takeDoc()
	p.table.addClass(p.file, c)
	if !hasBody {
		return
	}

	p.class = c
	p.parseClassBody()
	p.class = nil
	// A doc comment left unattached inside the body belongs to nothing.
	p.doc = nil
}

// parseClassBody scans until the brace that closes the class. Members are
// only recognised at depth 1; method bodies are skipped token by token.
func (p *declParser) parseClassBody() {
	depth := 1
	for !p.atEnd() {
		tok := p.tokens[p.pos]
		switch {
		case tok.IsChar('{'):
			depth++
			p.pos++
			continue
		case tok.IsChar('}'):
			depth--
			p.pos++
			if depth == 0 {
				return
			}
			continue
		}
		if depth > 1 {
			p.pos++
			continue
		}

		switch {
		case tok.Kind == parser.TokenDocComment:
			p.doc = phpdoc.Parse(tok.Literal)
			p.pos++
		case tok.Kind == parser.TokenFunction:
			p.parseFunction(0)
		case tok.Kind.IsModifier(), isSoftModifier(tok):
			p.parseMember()
		case tok.Kind == parser.TokenUse:
			p.parseTraitUse()
		default:
			p.pos++
		}
	}
}

// isSoftModifier matches words that may open a member declaration
// without being reserved keywords.
func isSoftModifier(tok parser.Token) bool {
	if tok.Kind != parser.TokenIdent {
		return false
	}
	return strings.EqualFold(tok.Literal, "var") || strings.EqualFold(tok.Literal, "readonly")
}

func (p *declParser) parseTraitUse() {
	p.pos++
	for !p.atEnd() {
		tok := p.tokens[p.pos]
		switch {
		case isComment(tok), tok.IsChar(','):
		case tok.Kind == parser.TokenIdent:
			p.table.addTrait(p.class, tok.Literal)
		case tok.IsChar(';'):
			p.pos++
			return
		default:
			// `{ ... insteadof ... }` adaptation blocks are left to the
			// body scanner.
			return
		}
		p.pos++
	}
}

// parseMember handles constants, properties, and methods that start with
// a modifier.
func (p *declParser) parseMember() {
	var mods Modifiers
	for !p.atEnd() {
		tok := p.tokens[p.pos]
		if m, ok := ModifierFor(tok.Kind); ok {
			mods |= m
		} else if tok.Kind == parser.TokenDocComment {
			p.doc = phpdoc.Parse(tok.Literal)
		} else if !isSoftModifier(tok) && tok.Kind != parser.TokenComment {
			break
		}
		p.pos++
	}

	switch {
	case p.atEnd():
		return
	case p.current().Kind == parser.TokenFunction:
		p.parseFunction(mods)
	case mods.Has(ModConst):
		p.parseConstant(mods.WithDefaultVisibility())
	default:
		p.parseProperties(mods.WithDefaultVisibility())
	}
}

func (p *declParser) parseConstant(mods Modifiers) {
	var nameTok parser.Token
	found := false
	for !p.atEnd() {
		tok := p.current()
		if tok.IsChar('=') {
			break
		}
		if tok.IsChar(';') || tok.IsChar('{') || tok.IsChar('}') {
			p.skipStatement()
			return
		}
		if tok.IsWord() {
			nameTok = tok
			found = true
		}
		p.pos++
	}
	if !found || p.atEnd() {
		return
	}
	p.pos++

	value := p.collectValue()
	p.table.addConstant(p.class, &PropertyModel{
		Name:      nameTok.Literal,
		Modifiers: mods,
		Value:     value,
		Doc:       p.takeDoc(),
		File:      p.file.Path,
		Line:      nameTok.Pos.Line,
	})
	p.skipStatement()
}

func (p *declParser) parseProperties(mods Modifiers) {
	doc := p.takeDoc()
	for !p.atEnd() {
		var typeToks []parser.Token
		for !p.atEnd() {
			tok := p.current()
			if !isTypeToken(tok) {
				break
			}
			if !isComment(tok) {
				typeToks = append(typeToks, tok)
			}
			p.pos++
		}

		varTok := p.current()
		if varTok.Kind != parser.TokenVariable {
			p.skipStatement()
			return
		}
		p.pos++

		prop := &PropertyModel{
			Name:      strings.TrimPrefix(varTok.Literal, "$"),
			Modifiers: mods,
			Type:      concatTokens(typeToks),
			Doc:       doc,
			File:      p.file.Path,
			Line:      varTok.Pos.Line,
		}
		if p.current().IsChar('=') {
			p.pos++
			prop.Value = p.collectValue()
		}
		p.table.addProperty(p.class, prop)

		switch tok := p.current(); {
		case tok.IsChar(','):
			p.pos++
		case tok.IsChar(';'):
			p.pos++
			return
		default:
			p.skipStatement()
			return
		}
	}
}

func isTypeToken(tok parser.Token) bool {
	if tok.Kind == parser.TokenVariable {
		return false
	}
	return tok.IsWord() || isComment(tok) || tok.IsChar('?') || tok.IsChar('|') ||
		tok.IsChar('&') || tok.IsChar('(') || tok.IsChar(')')
}

// collectValue gathers tokens up to a top-level ',' or ';', or an
// unmatched closer, without consuming the terminator.
func (p *declParser) collectValue() string {
	var toks []parser.Token
	depth := 0
	for !p.atEnd() {
		tok := p.current()
		switch {
		case tok.IsChar('('), tok.IsChar('['), tok.IsChar('{'):
			depth++
		case tok.IsChar(')'), tok.IsChar(']'), tok.IsChar('}'):
			if depth == 0 {
				return joinTokens(toks)
			}
			depth--
		case (tok.IsChar(',') || tok.IsChar(';')) && depth == 0:
			return joinTokens(toks)
		}
		if !isComment(tok) {
			toks = append(toks, tok)
		}
		p.pos++
	}
	return joinTokens(toks)
}

// skipStatement advances past the next ';'. It stops in front of braces
// so the enclosing body keeps an accurate depth.
func (p *declParser) skipStatement() {
	for !p.atEnd() {
		tok := p.current()
		if tok.IsChar(';') {
			p.pos++
			return
		}
		if tok.IsChar('{') || tok.IsChar('}') {
			return
		}
		p.pos++
	}
}

func (p *declParser) parseFunction(mods Modifiers) {
	keyword := p.current()
	p.pos++

	i := p.significant(p.pos)
	if p.tokenAt(i).IsChar('&') {
		i = p.significant(i + 1)
	}
	nameTok := p.tokenAt(i)
	if !nameTok.IsWord() {
		p.skipAnonymous()
		return
	}
	p.pos = i + 1

	params := p.parseParameterList()
	fn := &FunctionModel{
		Name:       nameTok.Literal,
		Modifiers:  mods.WithDefaultVisibility(),
		ReturnType: p.parseReturnType(),
		Doc:        p.takeDoc(),
		File:       p.file.Path,
		Line:       keyword.Pos.Line,
	}
	for _, pd := range params {
		fn.Parameters = append(fn.Parameters, pd.Parameter)
	}

	if p.class != nil {
		fn.Class = p.class.FQN
		p.table.addMethod(p.class, fn)
		if strings.EqualFold(fn.Name, "__construct") {
			p.promoteParameters(params)
		}
		if p.current().IsChar(';') {
			p.pos++
		}
		return
	}

	// A visibility outside a tracked class means a method of a scope this
	// parser does not model, such as an enum.
	if !mods.HasVisibility() {
		fn.Namespace = p.namespace
		p.table.addFunction(p.file, fn)
	}
	p.skipFunctionBody()
}

func (p *declParser) promoteParameters(params []paramDecl) {
	for _, pd := range params {
		if pd.promote == 0 && !pd.readonly {
			continue
		}
		p.table.addProperty(p.class, &PropertyModel{
			Name:      pd.Name,
			Modifiers: pd.promote.WithDefaultVisibility(),
			Type:      pd.Type,
			File:      p.file.Path,
			Line:      pd.line,
		})
	}
}

// skipAnonymous steps over a closure header: its parameter list and any
// `use (...)` clause, stopping in front of the body.
func (p *declParser) skipAnonymous() {
	for !p.atEnd() {
		tok := p.current()
		if tok.IsChar('(') {
			break
		}
		if tok.IsChar('{') || tok.IsChar('}') || tok.IsChar(';') {
			return
		}
		p.pos++
	}
	depth := 0
	for !p.atEnd() {
		tok := p.current()
		p.pos++
		if tok.IsChar('(') {
			depth++
		} else if tok.IsChar(')') {
			depth--
			if depth == 0 {
				break
			}
		}
	}
	for !p.atEnd() {
		tok := p.current()
		if tok.IsChar('{') || tok.IsChar('}') || tok.IsChar(';') {
			return
		}
		p.pos++
	}
}

func (p *declParser) skipFunctionBody() {
	i := p.significant(p.pos)
	tok := p.tokenAt(i)
	if tok.IsChar(';') {
		p.pos = i + 1
		return
	}
	if !tok.IsChar('{') {
		return
	}
	p.pos = i
	depth := 0
	for !p.atEnd() {
		tok := p.current()
		p.pos++
		if tok.IsChar('{') {
			depth++
		} else if tok.IsChar('}') {
			depth--
			if depth == 0 {
				return
			}
		}
	}
}

// parseParameterList splits the parenthesized list on top-level commas.
func (p *declParser) parseParameterList() []paramDecl {
	i := p.significant(p.pos)
	if !p.tokenAt(i).IsChar('(') {
		return nil
	}
	p.pos = i + 1

	var params []paramDecl
	var current []parser.Token
	emit := func() {
		if pd, ok := parseParameter(current); ok {
			params = append(params, pd)
		}
		current = nil
	}

	depth := 1
	for !p.atEnd() {
		tok := p.current()
		p.pos++
		if isComment(tok) {
			continue
		}
		switch {
		case tok.IsChar('('), tok.IsChar('['), tok.IsChar('{'):
			depth++
		case tok.IsChar(')'), tok.IsChar(']'), tok.IsChar('}'):
			depth--
			if depth == 0 {
				emit()
				return params
			}
		case tok.IsChar(',') && depth == 1:
			emit()
			continue
		}
		current = append(current, tok)
	}
	emit()
	return params
}

func parseParameter(toks []parser.Token) (paramDecl, bool) {
	head, def := toks, []parser.Token(nil)
	depth := 0
	for j, t := range toks {
		switch {
		case t.IsChar('('), t.IsChar('['), t.IsChar('{'):
			depth++
		case t.IsChar(')'), t.IsChar(']'), t.IsChar('}'):
			depth--
		case t.IsChar('=') && depth == 0:
			head, def = toks[:j], toks[j+1:]
		}
		if def != nil {
			break
		}
	}

	var pd paramDecl
	var typeToks []parser.Token
	for j, t := range head {
		if pd.Name != "" {
			break
		}
		if m, ok := ModifierFor(t.Kind); ok && m.HasVisibility() {
			pd.promote |= m
			continue
		}
		switch {
		case t.Kind == parser.TokenVariable:
			pd.Name = strings.TrimPrefix(t.Literal, "$")
			pd.line = t.Pos.Line
		case t.Kind == parser.TokenIdent && strings.EqualFold(t.Literal, "readonly"):
			pd.readonly = true
		case t.IsChar('.'):
			pd.IsVariadic = true
		case t.IsChar('&') && j+1 < len(head) && (head[j+1].Kind == parser.TokenVariable || head[j+1].IsChar('.')):
			pd.IsReference = true
		default:
			typeToks = append(typeToks, t)
		}
	}
	if pd.Name == "" {
		return pd, false
	}
	pd.Type = concatTokens(typeToks)
	pd.Default = joinTokens(def)
	return pd, true
}

func (p *declParser) parseReturnType() string {
	i := p.significant(p.pos)
	if !p.tokenAt(i).IsChar(':') {
		return ""
	}
	p.pos = i + 1

	var toks []parser.Token
	for !p.atEnd() {
		tok := p.current()
		if isComment(tok) {
			p.pos++
			continue
		}
		if !tok.IsWord() && !tok.IsChar('?') && !tok.IsChar('|') {
			break
		}
		toks = append(toks, tok)
		p.pos++
	}
	return concatTokens(toks)
}

// joinTokens rebuilds source text from tokens, separating tokens that were
// not adjacent in the input with a single space.
func joinTokens(toks []parser.Token) string {
	var sb strings.Builder
	for i, t := range toks {
		if i > 0 && toks[i-1].End() != t.Pos.Offset {
			sb.WriteByte(' ')
		}
		sb.WriteString(t.Literal)
	}
	return strings.TrimSpace(sb.String())
}

func concatTokens(toks []parser.Token) string {
	var sb strings.Builder
	for _, t := range toks {
		sb.WriteString(t.Literal)
	}
	return sb.String()
}
