package msvc

import "github.com/skdltmxn/demangle-go/internal/ast"

// nameBackrefBehavior controls which kinds of name pieces get recorded
// into the backreference table as they are parsed.
type nameBackrefBehavior uint8

const (
	nbbNone     nameBackrefBehavior = 0
	nbbTemplate nameBackrefBehavior = 1 << 0 // record template instantiations
	nbbSimple   nameBackrefBehavior = 1 << 1 // record simple names
)

func isDigit(ch byte) bool { return ch >= '0' && ch <= '9' }

// ParseQualifiedName decodes a symbol's full scope chain: an
// unqualified leaf followed by zero or more scope pieces, terminated
// by '@'. Pieces are collected outermost-declared to innermost, and
// backreference-eligible pieces are recorded at first occurrence in
// chain order.
func (d *Demangler) ParseQualifiedName(c *Cursor) (*ast.QualifiedName, error) {
	leaf, err := d.parseUnqualifiedSymbolName(c, nbbSimple)
	if err != nil {
		return nil, err
	}
	qn, err := d.parseNameScopeChain(c, leaf)
	if err != nil {
		return nil, err
	}

	// A structor is named after its enclosing scope; patch the class
	// in now that the chain is known.
	if s, ok := leaf.(*ast.StructorIdentifier); ok {
		if len(qn.Components) < 2 {
			return nil, ErrMalformed
		}
		s.Class = qn.Components[len(qn.Components)-2]
	}
	return qn, nil
}

// parseFullyQualifiedTypeName decodes the scope chain of a type name;
// unlike symbol leaves, type leaves are always memorized.
func (d *Demangler) parseFullyQualifiedTypeName(c *Cursor) (*ast.QualifiedName, error) {
	leaf, err := d.parseUnqualifiedTypeName(c)
	if err != nil {
		return nil, err
	}
	return d.parseNameScopeChain(c, leaf)
}

func (d *Demangler) parseNameScopeChain(c *Cursor, leaf ast.Node) (*ast.QualifiedName, error) {
	var scopes []ast.Node
	for !c.ConsumeByte('@') {
		if c.Empty() {
			return nil, ErrTruncated
		}
		piece, err := d.parseNameScopePiece(c)
		if err != nil {
			return nil, err
		}
		scopes = append(scopes, piece)
	}

	qn := newNode[ast.QualifiedName](d)
	qn.Components = make([]ast.Node, 0, len(scopes)+1)
	for i := len(scopes) - 1; i >= 0; i-- {
		qn.Components = append(qn.Components, scopes[i])
	}
	qn.Components = append(qn.Components, leaf)
	return qn, nil
}

func (d *Demangler) parseNameScopePiece(c *Cursor) (ast.Node, error) {
	switch {
	case isDigit(c.Peek()):
		return d.parseBackrefName(c)
	case c.Peek() == '?' && c.PeekAt(1) == '$':
		return d.parseTemplateInstantiationName(c, nbbTemplate)
	case c.Peek() == '?' && c.PeekAt(1) == 'A':
		return d.parseAnonymousNamespaceName(c)
	case c.Peek() == '?':
		return d.parseLocallyScopedNamePiece(c)
	default:
		return d.parseSimpleName(c, true)
	}
}

func (d *Demangler) parseUnqualifiedSymbolName(c *Cursor, nbb nameBackrefBehavior) (ast.Node, error) {
	switch {
	case isDigit(c.Peek()):
		return d.parseBackrefName(c)
	case c.Peek() == '?' && c.PeekAt(1) == '$':
		return d.parseTemplateInstantiationName(c, nbb)
	case c.Peek() == '?':
		return d.parseFunctionIdentifierCode(c)
	default:
		return d.parseSimpleName(c, nbb&nbbSimple != 0)
	}
}

func (d *Demangler) parseUnqualifiedTypeName(c *Cursor) (ast.Node, error) {
	switch {
	case isDigit(c.Peek()):
		return d.parseBackrefName(c)
	case c.Peek() == '?' && c.PeekAt(1) == '$':
		return d.parseTemplateInstantiationName(c, nbbTemplate|nbbSimple)
	case c.Peek() == '?' && c.PeekAt(1) == 'A':
		return d.parseAnonymousNamespaceName(c)
	default:
		return d.parseSimpleName(c, true)
	}
}

func (d *Demangler) parseBackrefName(c *Cursor) (ast.Node, error) {
	idx := int(c.Consume() - '0')
	return d.backrefs.name(idx)
}

// parseSimpleName consumes characters up to the '@' separator.
func (d *Demangler) parseSimpleName(c *Cursor, memorize bool) (ast.Node, error) {
	s, err := d.parseSimpleString(c)
	if err != nil {
		return nil, err
	}
	id := newNode[ast.NamedIdentifier](d)
	id.Name = s
	if memorize {
		d.backrefs.memorizeName(id)
	}
	return id, nil
}

func (d *Demangler) parseSimpleString(c *Cursor) (string, error) {
	rest := c.Rest()
	end := -1
	for i := 0; i < len(rest); i++ {
		if rest[i] == '@' {
			end = i
			break
		}
	}
	if end < 0 {
		return "", ErrTruncated
	}
	if end == 0 {
		return "", ErrMalformed
	}
	s := d.arena.InternString(rest[:end])
	c.Advance(end + 1)
	return s, nil
}

func (d *Demangler) parseAnonymousNamespaceName(c *Cursor) (ast.Node, error) {
	if !c.ConsumeFront("?A") {
		return nil, ErrMalformed
	}
	// The compiler-generated tag (typically a hex cookie) is dropped.
	if _, err := d.parseSimpleString(c); err != nil {
		// "?A@" has an empty tag.
		if err != ErrTruncated && c.ConsumeByte('@') {
			err = nil
		}
		if err != nil {
			return nil, err
		}
	}
	d.memorizeText("`anonymous namespace'")
	return newNode[ast.AnonymousNamespace](d), nil
}

// parseLocallyScopedNamePiece decodes "?<number><mangled symbol>", the
// scope of a name declared inside a function body. The embedded symbol
// is parsed by the same attempt and therefore shares its arena and
// backreference table.
func (d *Demangler) parseLocallyScopedNamePiece(c *Cursor) (ast.Node, error) {
	if !c.ConsumeByte('?') {
		return nil, ErrMalformed
	}
	n, neg, err := d.steps.ParseNumber(c)
	if err != nil {
		return nil, err
	}
	if neg {
		return nil, ErrMalformed
	}
	// One '?' terminates the number; the embedded symbol's own sentinel
	// follows it.
	if !c.ConsumeByte('?') {
		return nil, ErrMalformed
	}
	owner, err := d.parseSymbol(c)
	if err != nil {
		return nil, err
	}
	piece := newNode[ast.LocallyScopedName](d)
	piece.Owner = owner
	piece.Index = n
	return piece, nil
}

// parseTemplateInstantiationName decodes "?$name@<args>@". Template
// arguments get a fresh backreference context; the outer table is
// restored afterwards, and the rendered instantiation is what gets
// memorized in it.
func (d *Demangler) parseTemplateInstantiationName(c *Cursor, nbb nameBackrefBehavior) (ast.Node, error) {
	if !c.ConsumeFront("?$") {
		return nil, ErrMalformed
	}

	outer := d.backrefs
	d.backrefs = backrefs{}
	name, err := d.parseUnqualifiedSymbolName(c, nbbSimple)
	var args []ast.Node
	if err == nil {
		args, err = d.steps.ParseTemplateParams(c)
	}
	d.backrefs = outer
	if err != nil {
		return nil, err
	}

	ti := newNode[ast.TemplateInstantiation](d)
	ti.Name = name
	ti.Args = args

	if s, ok := name.(*ast.StructorIdentifier); ok {
		// "?$?0..." names a structor of the template itself.
		s.Class = ti
		return s, nil
	}
	if nbb&nbbTemplate != 0 {
		d.memorizeText(ti.String())
	}
	return ti, nil
}

// memorizeText records a rendered name in the backreference table.
func (d *Demangler) memorizeText(s string) {
	id := newNode[ast.NamedIdentifier](d)
	id.Name = d.arena.InternString(s)
	d.backrefs.memorizeName(id)
}

// Operator spellings for the three function identifier code groups.
var basicOperators = map[byte]string{
	'2': "operator new",
	'3': "operator delete",
	'4': "operator=",
	'5': "operator>>",
	'6': "operator<<",
	'7': "operator!",
	'8': "operator==",
	'9': "operator!=",
	'A': "operator[]",
	'C': "operator->",
	'D': "operator*",
	'E': "operator++",
	'F': "operator--",
	'G': "operator-",
	'H': "operator+",
	'I': "operator&",
	'J': "operator->*",
	'K': "operator/",
	'L': "operator%",
	'M': "operator<",
	'N': "operator<=",
	'O': "operator>",
	'P': "operator>=",
	'Q': "operator,",
	'R': "operator()",
	'S': "operator~",
	'T': "operator^",
	'U': "operator|",
	'V': "operator&&",
	'W': "operator||",
	'X': "operator*=",
	'Y': "operator+=",
	'Z': "operator-=",
}

var underOperators = map[byte]string{
	'0': "operator/=",
	'1': "operator%=",
	'2': "operator>>=",
	'3': "operator<<=",
	'4': "operator&=",
	'5': "operator|=",
	'6': "operator^=",
	'U': "operator new[]",
	'V': "operator delete[]",
}

var doubleUnderOperators = map[byte]string{
	'L': "operator co_await",
	'M': "operator<=>",
}

// parseFunctionIdentifierCode decodes the '?'-prefixed special
// identifiers: structors, operators, conversion operators, and literal
// operators.
func (d *Demangler) parseFunctionIdentifierCode(c *Cursor) (ast.Node, error) {
	if !c.ConsumeByte('?') {
		return nil, ErrMalformed
	}

	if c.ConsumeFront("__") {
		ch := c.Consume()
		if ch == 'K' {
			return d.parseLiteralOperatorIdentifier(c)
		}
		if name, ok := doubleUnderOperators[ch]; ok {
			id := newNode[ast.NamedIdentifier](d)
			id.Name = name
			return id, nil
		}
		return nil, ErrMalformed
	}

	if c.ConsumeByte('_') {
		if name, ok := underOperators[c.Peek()]; ok {
			c.Consume()
			id := newNode[ast.NamedIdentifier](d)
			id.Name = name
			return id, nil
		}
		return nil, ErrMalformed
	}

	switch ch := c.Consume(); ch {
	case '0', '1':
		s := newNode[ast.StructorIdentifier](d)
		s.IsDestructor = ch == '1'
		return s, nil
	case 'B':
		return newNode[ast.ConversionOperator](d), nil
	default:
		if name, ok := basicOperators[ch]; ok {
			id := newNode[ast.NamedIdentifier](d)
			id.Name = name
			return id, nil
		}
		return nil, ErrMalformed
	}
}

func (d *Demangler) parseLiteralOperatorIdentifier(c *Cursor) (ast.Node, error) {
	s, err := d.parseSimpleString(c)
	if err != nil {
		return nil, err
	}
	op := newNode[ast.LiteralOperator](d)
	op.Name = s
	return op, nil
}

// ParseNumber decodes the scheme's variable-length integer: an
// optional '?' sign, then either one decimal digit (encoding its value
// plus one) or a run of 'A'-'P' base-16 digits closed by '@'. A bare
// '@' is zero.
func (d *Demangler) ParseNumber(c *Cursor) (uint64, bool, error) {
	neg := c.ConsumeByte('?')
	if c.Empty() {
		return 0, false, ErrTruncated
	}

	if isDigit(c.Peek()) {
		return uint64(c.Consume()-'0') + 1, neg, nil
	}

	var v uint64
	for {
		if c.Empty() {
			return 0, false, ErrTruncated
		}
		ch := c.Consume()
		if ch == '@' {
			return v, neg, nil
		}
		if ch < 'A' || ch > 'P' {
			return 0, false, ErrMalformed
		}
		v = v<<4 + uint64(ch-'A')
	}
}

func (d *Demangler) parseUnsigned(c *Cursor) (uint64, error) {
	n, neg, err := d.steps.ParseNumber(c)
	if err != nil {
		return 0, err
	}
	if neg {
		return 0, ErrMalformed
	}
	return n, nil
}

func (d *Demangler) parseSigned(c *Cursor) (int64, error) {
	n, neg, err := d.steps.ParseNumber(c)
	if err != nil {
		return 0, err
	}
	if neg {
		return -int64(n), nil
	}
	return int64(n), nil
}
