// Package itanium decodes Itanium C++ ABI mangled names ("_Z...") into
// the shared AST. Unlike the Microsoft scheme's 0-9 tables, this
// grammar compresses repeats through an unbounded substitution list
// ("S_", "S0_", ...) that grows as name prefixes and compound types are
// parsed.
package itanium

import (
	"errors"
	"strings"

	"github.com/skdltmxn/demangle-go/internal/arena"
	"github.com/skdltmxn/demangle-go/internal/ast"
)

var (
	ErrMalformed = errors.New("itanium: malformed mangled name")
	ErrTruncated = errors.New("itanium: unexpected end of mangled name")
)

// maxDepth bounds type recursion so adversarial input cannot exhaust
// the stack.
const maxDepth = 512

// Demangle decodes one "_Z"-prefixed name, failing without partial
// output on any grammar violation.
func Demangle(name string) (string, error) {
	rest, ok := strings.CutPrefix(name, "_Z")
	if !ok {
		return "", ErrMalformed
	}
	p := &parser{input: rest, arena: arena.New()}
	sym, err := p.parseEncoding()
	if err != nil {
		return "", err
	}
	if !p.empty() {
		return "", ErrMalformed
	}
	return sym.String(), nil
}

type parser struct {
	input string
	pos   int
	arena *arena.Arena
	subs  []ast.Node
	depth int
}

func (p *parser) empty() bool { return p.pos >= len(p.input) }

func (p *parser) peek() byte {
	if p.empty() {
		return 0
	}
	return p.input[p.pos]
}

func (p *parser) peekAt(i int) byte {
	if p.pos+i >= len(p.input) {
		return 0
	}
	return p.input[p.pos+i]
}

func (p *parser) consume() byte {
	if p.empty() {
		return 0
	}
	b := p.input[p.pos]
	p.pos++
	return b
}

func (p *parser) consumeFront(s string) bool {
	if !strings.HasPrefix(p.input[p.pos:], s) {
		return false
	}
	p.pos += len(s)
	return true
}

func (p *parser) substitute(n ast.Node) { p.subs = append(p.subs, n) }

// nameInfo carries what the encoding needs to know about the name it
// just parsed: member-function qualifiers, whether the leaf is a
// template instantiation (which makes the return type explicit), and
// whether it is a structor or conversion operator (which have none).
type nameInfo struct {
	qn       *ast.QualifiedName
	quals    ast.Qualifiers
	refQual  ast.RefQualifier
	template bool
	noReturn bool
}

// parseEncoding decodes <name> [<bare-function-type>]. A name with
// nothing after it is a data symbol.
func (p *parser) parseEncoding() (ast.Node, error) {
	ni, err := p.parseName()
	if err != nil {
		return nil, err
	}
	if p.empty() {
		v := arena.NewIn[ast.VariableSymbol](p.arena)
		v.Name = ni.qn
		return v, nil
	}

	sig := arena.NewIn[ast.FunctionSignature](p.arena)
	sig.Quals = ni.quals
	sig.RefQual = ni.refQual

	// Template functions spell their return type first.
	if ni.template && !ni.noReturn {
		ret, err := p.parseType()
		if err != nil {
			return nil, err
		}
		sig.ReturnType = ret
	}

	for !p.empty() {
		if p.consumeFront("z") {
			sig.Variadic = true
			continue
		}
		t, err := p.parseType()
		if err != nil {
			return nil, err
		}
		sig.Params = append(sig.Params, t)
	}
	// A lone void parameter means an empty list.
	if len(sig.Params) == 1 && !sig.Variadic {
		if prim, ok := sig.Params[0].(*ast.PrimitiveType); ok && prim.Name == "void" {
			sig.Params = nil
		}
	}

	fn := arena.NewIn[ast.FunctionSymbol](p.arena)
	fn.Name = ni.qn
	fn.Signature = sig
	return fn, nil
}

func (p *parser) parseName() (nameInfo, error) {
	switch {
	case p.peek() == 'N':
		return p.parseNestedName()
	case p.peek() == 'Z':
		return p.parseLocalName()
	case p.consumeFront("St"):
		leaf, err := p.parseUnqualifiedName(nil)
		if err != nil {
			return nameInfo{}, err
		}
		return p.finishUnscopedName(leaf, p.qualify(p.named("std"), leaf))
	case p.peek() == 'S':
		n, err := p.parseSubstitution()
		if err != nil {
			return nameInfo{}, err
		}
		return p.finishUnscopedName(n, p.qualify(n))
	default:
		leaf, err := p.parseUnqualifiedName(nil)
		if err != nil {
			return nameInfo{}, err
		}
		return p.finishUnscopedName(leaf, p.qualify(leaf))
	}
}

// finishUnscopedName applies a trailing template argument list, if
// present, to the leaf of an unscoped name.
func (p *parser) finishUnscopedName(leaf ast.Node, qn *ast.QualifiedName) (nameInfo, error) {
	ni := nameInfo{qn: qn}
	switch leaf.(type) {
	case *ast.StructorIdentifier, *ast.ConversionOperator:
		ni.noReturn = true
	}
	if p.peek() == 'I' {
		// The template name itself becomes a substitution candidate.
		p.substitute(qn)
		args, err := p.parseTemplateArgs()
		if err != nil {
			return nameInfo{}, err
		}
		ti := arena.NewIn[ast.TemplateInstantiation](p.arena)
		ti.Name = leaf
		ti.Args = args
		qn.Components[len(qn.Components)-1] = ti
		ni.template = true
	}
	return ni, nil
}

func (p *parser) named(s string) *ast.NamedIdentifier {
	id := arena.NewIn[ast.NamedIdentifier](p.arena)
	id.Name = s
	return id
}

func (p *parser) qualify(pieces ...ast.Node) *ast.QualifiedName {
	qn := arena.NewIn[ast.QualifiedName](p.arena)
	qn.Components = pieces
	return qn
}

// parseNestedName decodes N [<cv-quals>] [<ref-qual>] <pieces> E. Each
// proper prefix of the piece chain is recorded as a substitution
// candidate as soon as the following piece begins.
func (p *parser) parseNestedName() (nameInfo, error) {
	if !p.consumeFront("N") {
		return nameInfo{}, ErrMalformed
	}
	var ni nameInfo
	for {
		if p.consumeFront("r") {
			ni.quals |= ast.QualRestrict
		} else if p.consumeFront("V") {
			ni.quals |= ast.QualVolatile
		} else if p.consumeFront("K") {
			ni.quals |= ast.QualConst
		} else {
			break
		}
	}
	switch {
	case p.consumeFront("R"):
		ni.refQual = ast.RefQualLValue
	case p.consumeFront("O"):
		ni.refQual = ast.RefQualRValue
	}

	var components []ast.Node
	justSubstituted := false
	for !p.consumeFront("E") {
		if p.empty() {
			return nameInfo{}, ErrTruncated
		}
		if len(components) > 0 && !justSubstituted {
			snap := make([]ast.Node, len(components))
			copy(snap, components)
			p.substitute(p.qualify(snap...))
		}
		justSubstituted = false

		switch {
		case p.peek() == 'I':
			if len(components) == 0 {
				return nameInfo{}, ErrMalformed
			}
			args, err := p.parseTemplateArgs()
			if err != nil {
				return nameInfo{}, err
			}
			ti := arena.NewIn[ast.TemplateInstantiation](p.arena)
			ti.Name = components[len(components)-1]
			ti.Args = args
			components[len(components)-1] = ti
			ni.template = true
		case p.consumeFront("St"):
			components = append(components, p.named("std"))
			justSubstituted = true // "St" is its own abbreviation
		case p.peek() == 'S':
			n, err := p.parseSubstitution()
			if err != nil {
				return nameInfo{}, err
			}
			components = append(components, n)
			justSubstituted = true
		default:
			var prev ast.Node
			if len(components) > 0 {
				prev = components[len(components)-1]
			}
			piece, err := p.parseUnqualifiedName(prev)
			if err != nil {
				return nameInfo{}, err
			}
			components = append(components, piece)
			ni.template = false
		}
	}
	if len(components) == 0 {
		return nameInfo{}, ErrMalformed
	}

	switch components[len(components)-1].(type) {
	case *ast.StructorIdentifier, *ast.ConversionOperator:
		ni.noReturn = true
	}
	ni.qn = p.qualify(components...)
	return ni, nil
}

// parseLocalName decodes Z <encoding> E (<name> | s), a name declared
// inside a function body.
func (p *parser) parseLocalName() (nameInfo, error) {
	if !p.consumeFront("Z") {
		return nameInfo{}, ErrMalformed
	}
	owner, err := p.parseEncoding()
	if err != nil {
		return nameInfo{}, err
	}
	if !p.consumeFront("E") {
		return nameInfo{}, ErrMalformed
	}

	ownerID := p.named(owner.String())
	if p.consumeFront("s") {
		p.parseDiscriminator()
		return nameInfo{qn: p.qualify(ownerID, p.named("string literal"))}, nil
	}
	inner, err := p.parseName()
	if err != nil {
		return nameInfo{}, err
	}
	p.parseDiscriminator()
	ni := inner
	ni.qn = p.qualify(append([]ast.Node{ownerID}, inner.qn.Components...)...)
	return ni, nil
}

// parseDiscriminator skips the optional _<digit> disambiguator; it has
// no textual rendering.
func (p *parser) parseDiscriminator() {
	if p.peek() == '_' && isDigit(p.peekAt(1)) {
		p.pos += 2
		for isDigit(p.peek()) {
			p.pos++
		}
	}
}

func isDigit(ch byte) bool { return ch >= '0' && ch <= '9' }

var operatorNames = map[string]string{
	"nw": "operator new", "na": "operator new[]",
	"dl": "operator delete", "da": "operator delete[]",
	"ps": "operator+", "ng": "operator-", "ad": "operator&", "de": "operator*",
	"co": "operator~", "pl": "operator+", "mi": "operator-", "ml": "operator*",
	"dv": "operator/", "rm": "operator%", "an": "operator&", "or": "operator|",
	"eo": "operator^", "aS": "operator=", "pL": "operator+=", "mI": "operator-=",
	"mL": "operator*=", "dV": "operator/=", "rM": "operator%=",
	"aN": "operator&=", "oR": "operator|=", "eO": "operator^=",
	"ls": "operator<<", "rs": "operator>>", "lS": "operator<<=", "rS": "operator>>=",
	"eq": "operator==", "ne": "operator!=", "lt": "operator<", "gt": "operator>",
	"le": "operator<=", "ge": "operator>=", "ss": "operator<=>", "nt": "operator!",
	"aa": "operator&&", "oo": "operator||", "pp": "operator++", "mm": "operator--",
	"cm": "operator,", "pm": "operator->*", "pt": "operator->",
	"cl": "operator()", "ix": "operator[]", "qu": "operator?",
}

// parseUnqualifiedName decodes one scope piece: a length-prefixed
// source name, an operator, or a structor keyed to the enclosing
// piece.
func (p *parser) parseUnqualifiedName(enclosing ast.Node) (ast.Node, error) {
	// Internal-linkage marker carries no output.
	p.consumeFront("L")

	switch ch := p.peek(); {
	case isDigit(ch):
		s, err := p.parseSourceName()
		if err != nil {
			return nil, err
		}
		return p.named(s), nil
	case ch == 'C':
		if !isDigit(p.peekAt(1)) {
			return nil, ErrMalformed
		}
		p.pos += 2
		s := arena.NewIn[ast.StructorIdentifier](p.arena)
		s.Class = enclosing
		return s, nil
	case ch == 'D' && isDigit(p.peekAt(1)):
		p.pos += 2
		s := arena.NewIn[ast.StructorIdentifier](p.arena)
		s.Class = enclosing
		s.IsDestructor = true
		return s, nil
	case ch == 'c' && p.peekAt(1) == 'v':
		p.pos += 2
		t, err := p.parseType()
		if err != nil {
			return nil, err
		}
		conv := arena.NewIn[ast.ConversionOperator](p.arena)
		conv.TargetType = t
		return conv, nil
	case ch == 'l' && p.peekAt(1) == 'i':
		p.pos += 2
		s, err := p.parseSourceName()
		if err != nil {
			return nil, err
		}
		op := arena.NewIn[ast.LiteralOperator](p.arena)
		op.Name = s
		return op, nil
	default:
		if p.pos+2 <= len(p.input) {
			if name, ok := operatorNames[p.input[p.pos:p.pos+2]]; ok {
				p.pos += 2
				return p.named(name), nil
			}
		}
		return nil, ErrMalformed
	}
}

func (p *parser) parseSourceName() (string, error) {
	n, err := p.parsePositiveNumber()
	if err != nil {
		return "", err
	}
	if n == 0 || uint64(len(p.input)-p.pos) < n {
		return "", ErrTruncated
	}
	s := p.arena.InternString(p.input[p.pos : p.pos+int(n)])
	p.pos += int(n)
	return s, nil
}

func (p *parser) parsePositiveNumber() (uint64, error) {
	if !isDigit(p.peek()) {
		return 0, ErrMalformed
	}
	var v uint64
	for isDigit(p.peek()) {
		v = v*10 + uint64(p.consume()-'0')
		if v > 1<<31 {
			return 0, ErrMalformed
		}
	}
	return v, nil
}

// Seeded abbreviations for common std entities.
var stdAbbreviations = map[byte]string{
	'a': "std::allocator",
	'b': "std::basic_string",
	's': "std::string",
	'i': "std::istream",
	'o': "std::ostream",
	'd': "std::iostream",
}

// parseSubstitution resolves S_/S<seq>_ back into the node recorded
// when the referenced prefix or type was first parsed.
func (p *parser) parseSubstitution() (ast.Node, error) {
	if !p.consumeFront("S") {
		return nil, ErrMalformed
	}
	if name, ok := stdAbbreviations[p.peek()]; ok {
		p.pos++
		return p.named(name), nil
	}
	if p.consumeFront("_") {
		if len(p.subs) == 0 {
			return nil, ErrMalformed
		}
		return p.subs[0], nil
	}

	// Base-36 index, offset by one: "S0_" is the second entry.
	var idx uint64
	for {
		ch := p.consume()
		if ch == '_' {
			break
		}
		switch {
		case isDigit(ch):
			idx = idx*36 + uint64(ch-'0')
		case ch >= 'A' && ch <= 'Z':
			idx = idx*36 + uint64(ch-'A') + 10
		default:
			return nil, ErrMalformed
		}
		if idx > 1<<20 {
			return nil, ErrMalformed
		}
	}
	idx++
	if idx >= uint64(len(p.subs)) {
		return nil, ErrMalformed
	}
	return p.subs[idx], nil
}

// parseTemplateArgs decodes I <args> E. Argument packs flatten into
// the surrounding list.
func (p *parser) parseTemplateArgs() ([]ast.Node, error) {
	if !p.consumeFront("I") {
		return nil, ErrMalformed
	}
	var args []ast.Node
	for !p.consumeFront("E") {
		if p.empty() {
			return nil, ErrTruncated
		}
		arg, pack, err := p.parseTemplateArg()
		if err != nil {
			return nil, err
		}
		if pack != nil {
			args = append(args, pack...)
		} else {
			args = append(args, arg)
		}
	}
	return args, nil
}

func (p *parser) parseTemplateArg() (ast.Node, []ast.Node, error) {
	switch p.peek() {
	case 'L':
		n, err := p.parseExprLiteral()
		return n, nil, err
	case 'J':
		p.pos++
		var pack []ast.Node
		for !p.consumeFront("E") {
			if p.empty() {
				return nil, nil, ErrTruncated
			}
			arg, inner, err := p.parseTemplateArg()
			if err != nil {
				return nil, nil, err
			}
			if inner != nil {
				pack = append(pack, inner...)
			} else {
				pack = append(pack, arg)
			}
		}
		return nil, pack, nil
	default:
		t, err := p.parseType()
		return t, nil, err
	}
}

// parseExprLiteral decodes L <type> <value> E, a non-type template
// argument.
func (p *parser) parseExprLiteral() (ast.Node, error) {
	if !p.consumeFront("L") {
		return nil, ErrMalformed
	}
	isBool := p.peek() == 'b'
	t, err := p.parseType()
	if err != nil {
		return nil, err
	}
	_ = t

	neg := p.consumeFront("n")
	start := p.pos
	for isDigit(p.peek()) {
		p.pos++
	}
	if p.pos == start {
		return nil, ErrMalformed
	}
	text := p.input[start:p.pos]
	if !p.consumeFront("E") {
		return nil, ErrMalformed
	}

	if isBool {
		switch text {
		case "0":
			return p.named("false"), nil
		case "1":
			return p.named("true"), nil
		}
		return nil, ErrMalformed
	}
	if neg {
		text = "-" + text
	}
	return p.named(p.arena.InternString(text)), nil
}

var builtinTypes = map[byte]string{
	'v': "void", 'w': "wchar_t", 'b': "bool", 'c': "char",
	'a': "signed char", 'h': "unsigned char", 's': "short",
	't': "unsigned short", 'i': "int", 'j': "unsigned int",
	'l': "long", 'm': "unsigned long", 'x': "long long",
	'y': "unsigned long long", 'n': "__int128", 'o': "unsigned __int128",
	'f': "float", 'd': "double", 'e': "long double", 'g': "__float128",
}

var extendedBuiltinTypes = map[byte]string{
	'i': "char32_t", 's': "char16_t", 'u': "char8_t",
	'a': "auto", 'n': "std::nullptr_t", 'h': "__fp16",
}

func (p *parser) parseType() (ast.Node, error) {
	p.depth++
	defer func() { p.depth-- }()
	if p.depth > maxDepth {
		return nil, ErrMalformed
	}

	switch ch := p.peek(); {
	case ch == 'P':
		return p.parseIndirection(ast.AffinityPointer)
	case ch == 'R':
		return p.parseIndirection(ast.AffinityReference)
	case ch == 'O':
		return p.parseIndirection(ast.AffinityRValueReference)
	case ch == 'K' || ch == 'V' || ch == 'r':
		return p.parseQualifiedType()
	case ch == 'F':
		return p.parseFunctionType()
	case ch == 'A':
		return p.parseArrayType()
	case ch == 'u':
		p.pos++
		s, err := p.parseSourceName()
		if err != nil {
			return nil, err
		}
		ct := arena.NewIn[ast.CustomType](p.arena)
		ct.Name = p.named(s)
		p.substitute(ct)
		return ct, nil
	case ch == 'D':
		if name, ok := extendedBuiltinTypes[p.peekAt(1)]; ok {
			p.pos += 2
			prim := arena.NewIn[ast.PrimitiveType](p.arena)
			prim.Name = name
			return prim, nil
		}
		return nil, ErrMalformed
	case ch == 'S' && p.peekAt(1) != 't':
		n, err := p.parseSubstitution()
		if err != nil {
			return nil, err
		}
		if p.peek() == 'I' {
			return p.applyTemplateArgs(n)
		}
		return n, nil
	default:
		if name, ok := builtinTypes[ch]; ok {
			p.pos++
			prim := arena.NewIn[ast.PrimitiveType](p.arena)
			prim.Name = name
			return prim, nil
		}
		// Class or enum type: a name used as a type.
		ni, err := p.parseName()
		if err != nil {
			return nil, err
		}
		p.substitute(ni.qn)
		return ni.qn, nil
	}
}

// applyTemplateArgs handles a substituted template name directly
// followed by its argument list.
func (p *parser) applyTemplateArgs(name ast.Node) (ast.Node, error) {
	args, err := p.parseTemplateArgs()
	if err != nil {
		return nil, err
	}
	ti := arena.NewIn[ast.TemplateInstantiation](p.arena)
	ti.Name = name
	ti.Args = args
	p.substitute(ti)
	return ti, nil
}

func (p *parser) parseIndirection(affinity ast.PointerAffinity) (ast.Node, error) {
	p.pos++
	pointee, err := p.parseType()
	if err != nil {
		return nil, err
	}
	pt := arena.NewIn[ast.PointerType](p.arena)
	pt.Affinity = affinity
	pt.Pointee = pointee
	p.substitute(pt)
	return pt, nil
}

func (p *parser) parseQualifiedType() (ast.Node, error) {
	var quals ast.Qualifiers
	for {
		if p.consumeFront("K") {
			quals |= ast.QualConst
		} else if p.consumeFront("V") {
			quals |= ast.QualVolatile
		} else if p.consumeFront("r") {
			quals |= ast.QualRestrict
		} else {
			break
		}
	}
	inner, err := p.parseType()
	if err != nil {
		return nil, err
	}
	qt := arena.NewIn[ast.QualifiedType](p.arena)
	qt.Inner = inner
	qt.Quals = quals
	p.substitute(qt)
	return qt, nil
}

// parseFunctionType decodes F [Y] <return> <params> E.
func (p *parser) parseFunctionType() (ast.Node, error) {
	if !p.consumeFront("F") {
		return nil, ErrMalformed
	}
	p.consumeFront("Y") // extern "C", no textual rendering

	ret, err := p.parseType()
	if err != nil {
		return nil, err
	}
	sig := arena.NewIn[ast.FunctionSignature](p.arena)
	sig.ReturnType = ret
	for !p.consumeFront("E") {
		if p.empty() {
			return nil, ErrTruncated
		}
		if p.consumeFront("z") {
			sig.Variadic = true
			continue
		}
		t, err := p.parseType()
		if err != nil {
			return nil, err
		}
		sig.Params = append(sig.Params, t)
	}
	if len(sig.Params) == 1 && !sig.Variadic {
		if prim, ok := sig.Params[0].(*ast.PrimitiveType); ok && prim.Name == "void" {
			sig.Params = nil
		}
	}
	p.substitute(sig)
	return sig, nil
}

// parseArrayType decodes A <dimension> _ <element>.
func (p *parser) parseArrayType() (ast.Node, error) {
	if !p.consumeFront("A") {
		return nil, ErrMalformed
	}
	var dims []uint64
	if isDigit(p.peek()) {
		n, err := p.parsePositiveNumber()
		if err != nil {
			return nil, err
		}
		dims = []uint64{n}
	}
	if !p.consumeFront("_") {
		return nil, ErrMalformed
	}
	elem, err := p.parseType()
	if err != nil {
		return nil, err
	}
	at := arena.NewIn[ast.ArrayType](p.arena)
	at.Element = elem
	at.Dimensions = dims
	p.substitute(at)
	return at, nil
}
