package msvc

import "github.com/skdltmxn/demangle-go/internal/ast"

// QualifierMode selects how a type production treats the qualifier
// tokens to its left: parse-and-apply (pointees), parse-only-behind-?
// (return types), or none (parameters and variables, whose qualifiers
// live elsewhere in the encoding).
type QualifierMode int

const (
	ModeDrop QualifierMode = iota
	ModeMangle
	ModeResult
)

// parseQualifiers decodes one cv-qualifier pair token. The second
// result reports whether the token was the member-pointer flavor.
func (d *Demangler) parseQualifiers(c *Cursor) (ast.Qualifiers, bool, error) {
	switch c.Consume() {
	case 'A':
		return 0, false, nil
	case 'B':
		return ast.QualConst, false, nil
	case 'C':
		return ast.QualVolatile, false, nil
	case 'D':
		return ast.QualConst | ast.QualVolatile, false, nil
	case 'Q':
		return 0, true, nil
	case 'R':
		return ast.QualConst, true, nil
	case 'S':
		return ast.QualVolatile, true, nil
	case 'T':
		return ast.QualConst | ast.QualVolatile, true, nil
	default:
		return 0, false, ErrMalformed
	}
}

// parsePointerExtQualifiers consumes the extension qualifiers that may
// precede a pointee: __ptr64, __unaligned, and __restrict.
func (d *Demangler) parsePointerExtQualifiers(c *Cursor) (ast.Qualifiers, error) {
	var q ast.Qualifiers
	for {
		switch {
		case c.ConsumeByte('E'):
			q |= ast.QualPointer64
		case c.ConsumeByte('F'):
			q |= ast.QualUnaligned
		case c.ConsumeByte('I'):
			q |= ast.QualRestrict
		default:
			return q, nil
		}
	}
}

var primitiveTypes = map[byte]string{
	'X': "void",
	'C': "signed char",
	'D': "char",
	'E': "unsigned char",
	'F': "short",
	'G': "unsigned short",
	'H': "int",
	'I': "unsigned int",
	'J': "long",
	'K': "unsigned long",
	'M': "float",
	'N': "double",
	'O': "long double",
}

var extendedPrimitiveTypes = map[byte]string{
	'D': "__int8",
	'E': "unsigned __int8",
	'F': "__int16",
	'G': "unsigned __int16",
	'H': "__int32",
	'I': "unsigned __int32",
	'J': "__int64",
	'K': "unsigned __int64",
	'L': "__int128",
	'M': "unsigned __int128",
	'N': "bool",
	'Q': "char8_t",
	'S': "char16_t",
	'U': "char32_t",
	'W': "wchar_t",
}

// ParseType dispatches on the qualifier/kind prefix into the primitive,
// pointer, array, function, tag, or extension type productions.
func (d *Demangler) ParseType(c *Cursor, mode QualifierMode) (ast.Node, error) {
	var quals ast.Qualifiers
	switch mode {
	case ModeMangle:
		q, _, err := d.parseQualifiers(c)
		if err != nil {
			return nil, err
		}
		quals = q
	case ModeResult:
		if c.ConsumeByte('?') {
			q, _, err := d.parseQualifiers(c)
			if err != nil {
				return nil, err
			}
			quals = q
		}
	}
	if c.Empty() {
		return nil, ErrTruncated
	}

	t, err := d.parseUnqualifiedType(c)
	if err != nil {
		return nil, err
	}
	if quals != 0 {
		qt := newNode[ast.QualifiedType](d)
		qt.Inner = t
		qt.Quals = quals
		return qt, nil
	}
	return t, nil
}

func (d *Demangler) parseUnqualifiedType(c *Cursor) (ast.Node, error) {
	switch ch := c.Peek(); ch {
	case 'T', 'U', 'V', 'W':
		return d.parseTag(c)
	case 'A', 'P', 'Q', 'R', 'S':
		if isMemberPointer(c) {
			return d.parseMemberPointerType(c)
		}
		return d.parsePointerType(c)
	case 'Y':
		c.Consume()
		return d.parseArrayType(c)
	case '_':
		c.Consume()
		if name, ok := extendedPrimitiveTypes[c.Peek()]; ok {
			c.Consume()
			p := newNode[ast.PrimitiveType](d)
			p.Name = name
			return p, nil
		}
		return nil, ErrMalformed
	case '$':
		return d.parseExtendedType(c)
	default:
		if name, ok := primitiveTypes[ch]; ok {
			c.Consume()
			p := newNode[ast.PrimitiveType](d)
			p.Name = name
			return p, nil
		}
		return nil, ErrMalformed
	}
}

func (d *Demangler) parseTag(c *Cursor) (*ast.TagType, error) {
	var tag ast.TagKind
	switch c.Consume() {
	case 'T':
		tag = ast.TagUnion
	case 'U':
		tag = ast.TagStruct
	case 'V':
		tag = ast.TagClass
	case 'W':
		// Enums carry an underlying-type digit that undname ignores.
		if !c.ConsumeByte('4') {
			return nil, ErrMalformed
		}
		tag = ast.TagEnum
	default:
		return nil, ErrMalformed
	}

	name, err := d.parseFullyQualifiedTypeName(c)
	if err != nil {
		return nil, err
	}
	t := newNode[ast.TagType](d)
	t.Tag = tag
	t.Name = name
	return t, nil
}

// isMemberPointer looks ahead past the pointer token and its extension
// qualifiers to see whether the pointee is member-flavored: '8' marks
// a member function, and the 'Q'-'T' qualifier tokens mark member
// data. The cursor is not advanced.
func isMemberPointer(c *Cursor) bool {
	rest := c.Rest()
	if len(rest) == 0 || rest[0] == 'A' {
		return false // references are never member pointers
	}
	i := 1
	for i < len(rest) && (rest[i] == 'E' || rest[i] == 'F' || rest[i] == 'I') {
		i++
	}
	if i >= len(rest) {
		return false
	}
	switch rest[i] {
	case '8':
		return true
	case 'Q', 'R', 'S', 'T':
		return true
	default:
		return false
	}
}

func pointerAffinityAndQuals(ch byte) (ast.PointerAffinity, ast.Qualifiers, bool) {
	switch ch {
	case 'A':
		return ast.AffinityReference, 0, true
	case 'P':
		return ast.AffinityPointer, 0, true
	case 'Q':
		return ast.AffinityPointer, ast.QualConst, true
	case 'R':
		return ast.AffinityPointer, ast.QualVolatile, true
	case 'S':
		return ast.AffinityPointer, ast.QualConst | ast.QualVolatile, true
	default:
		return 0, 0, false
	}
}

func (d *Demangler) parsePointerType(c *Cursor) (ast.Node, error) {
	affinity, quals, ok := pointerAffinityAndQuals(c.Consume())
	if !ok {
		return nil, ErrMalformed
	}

	ext, err := d.parsePointerExtQualifiers(c)
	if err != nil {
		return nil, err
	}

	p := newNode[ast.PointerType](d)
	p.Affinity = affinity
	p.Quals = quals | ext

	// '6' introduces a pointer to a free function.
	if c.ConsumeByte('6') {
		sig, err := d.parseFunctionType(c, false)
		if err != nil {
			return nil, err
		}
		p.Pointee = sig
		return p, nil
	}

	pointee, err := d.steps.ParseType(c, ModeMangle)
	if err != nil {
		return nil, err
	}
	p.Pointee = pointee
	return p, nil
}

func (d *Demangler) parseMemberPointerType(c *Cursor) (ast.Node, error) {
	affinity, quals, ok := pointerAffinityAndQuals(c.Consume())
	if !ok || affinity != ast.AffinityPointer {
		return nil, ErrMalformed
	}

	ext, err := d.parsePointerExtQualifiers(c)
	if err != nil {
		return nil, err
	}

	p := newNode[ast.PointerType](d)
	p.Affinity = ast.AffinityPointer
	p.Quals = quals | ext

	if c.ConsumeByte('8') {
		// Pointer to member function: class name, then signature with
		// this-qualifiers.
		name, err := d.parseFullyQualifiedTypeName(c)
		if err != nil {
			return nil, err
		}
		sig, err := d.parseFunctionType(c, true)
		if err != nil {
			return nil, err
		}
		p.ClassParent = name
		p.Pointee = sig
		return p, nil
	}

	// Pointer to member data: member qualifiers, class name, type.
	mq, isMember, err := d.parseQualifiers(c)
	if err != nil {
		return nil, err
	}
	if !isMember {
		return nil, ErrMalformed
	}
	name, err := d.parseFullyQualifiedTypeName(c)
	if err != nil {
		return nil, err
	}
	pointee, err := d.steps.ParseType(c, ModeDrop)
	if err != nil {
		return nil, err
	}
	if mq != 0 {
		qt := newNode[ast.QualifiedType](d)
		qt.Inner = pointee
		qt.Quals = mq
		pointee = qt
	}
	p.ClassParent = name
	p.Pointee = pointee
	return p, nil
}

// parseArrayType decodes 'Y' <rank> <dimension>^rank <element>.
func (d *Demangler) parseArrayType(c *Cursor) (ast.Node, error) {
	rank, err := d.parseUnsigned(c)
	if err != nil {
		return nil, err
	}
	if rank == 0 || rank > 1024 {
		return nil, ErrMalformed
	}

	dims := make([]uint64, 0, rank)
	for i := uint64(0); i < rank; i++ {
		dim, err := d.parseUnsigned(c)
		if err != nil {
			return nil, err
		}
		dims = append(dims, dim)
	}

	elem, err := d.steps.ParseType(c, ModeDrop)
	if err != nil {
		return nil, err
	}
	a := newNode[ast.ArrayType](d)
	a.Element = elem
	a.Dimensions = dims
	return a, nil
}

// parseExtendedType decodes the '$$'-prefixed type codes.
func (d *Demangler) parseExtendedType(c *Cursor) (ast.Node, error) {
	if !c.ConsumeFront("$$") {
		return nil, ErrMalformed
	}
	switch {
	case c.ConsumeByte('T'):
		p := newNode[ast.PrimitiveType](d)
		p.Name = "std::nullptr_t"
		return p, nil
	case c.ConsumeByte('Q'):
		return d.parseRValueReference(c, 0)
	case c.ConsumeByte('R'):
		return d.parseRValueReference(c, ast.QualVolatile)
	case c.ConsumeFront("A6"):
		// A function type spelled directly, e.g. in a template
		// argument.
		return d.parseFunctionType(c, false)
	case c.ConsumeByte('C'):
		return d.steps.ParseType(c, ModeMangle)
	default:
		return nil, ErrMalformed
	}
}

func (d *Demangler) parseRValueReference(c *Cursor, quals ast.Qualifiers) (ast.Node, error) {
	ext, err := d.parsePointerExtQualifiers(c)
	if err != nil {
		return nil, err
	}
	pointee, err := d.steps.ParseType(c, ModeMangle)
	if err != nil {
		return nil, err
	}
	p := newNode[ast.PointerType](d)
	p.Affinity = ast.AffinityRValueReference
	p.Quals = quals | ext
	p.Pointee = pointee
	return p, nil
}

// ParseFunctionParams decodes a parameter list: 'X' alone means
// (void); otherwise types repeat until the '@' terminator or the 'Z'
// variadic marker. An exact repeat of an already-seen parameter type
// appears as its 0-9 index into the shared table instead of being
// re-encoded; the table is global to the whole symbol, so nested
// function types compress against each other.
func (d *Demangler) ParseFunctionParams(c *Cursor) ([]ast.Node, bool, error) {
	if c.ConsumeByte('X') {
		p := newNode[ast.PrimitiveType](d)
		p.Name = "void"
		return []ast.Node{p}, false, nil
	}

	var params []ast.Node
	for {
		if c.Empty() {
			return nil, false, ErrTruncated
		}
		if c.ConsumeByte('@') {
			return params, false, nil
		}
		if c.ConsumeByte('Z') {
			return params, true, nil
		}

		if isDigit(c.Peek()) {
			t, err := d.backrefs.param(int(c.Consume() - '0'))
			if err != nil {
				return nil, false, err
			}
			params = append(params, t)
			continue
		}

		before := c.Len()
		t, err := d.steps.ParseType(c, ModeDrop)
		if err != nil {
			return nil, false, err
		}
		// Single-character types are cheaper to re-encode than to
		// reference, so only wider encodings enter the table.
		if before-c.Len() > 1 {
			d.backrefs.memorizeParam(t)
		}
		params = append(params, t)
	}
}

// ParseTemplateParams decodes a template argument list terminated by
// '@'. Each element is a type or a non-type value, under the same
// backreference and qualifier rules as standalone types.
func (d *Demangler) ParseTemplateParams(c *Cursor) ([]ast.Node, error) {
	var args []ast.Node
	for !c.ConsumeByte('@') {
		if c.Empty() {
			return nil, ErrTruncated
		}

		// Empty parameter pack separators contribute nothing.
		if c.ConsumeFront("$S") || c.ConsumeFront("$$V") || c.ConsumeFront("$$Z") || c.ConsumeFront("$$$V") {
			continue
		}

		if c.Peek() == '$' && c.PeekAt(1) == '0' {
			c.Advance(2)
			n, neg, err := d.steps.ParseNumber(c)
			if err != nil {
				return nil, err
			}
			lit := newNode[ast.IntegerLiteral](d)
			lit.Value = n
			lit.Negative = neg
			args = append(args, lit)
			continue
		}

		if c.Peek() == '$' && c.PeekAt(1) == '1' {
			// Reference to another mangled symbol.
			c.Advance(2)
			sym, err := d.parseSymbol(c)
			if err != nil {
				return nil, err
			}
			ref := newNode[ast.NamedIdentifier](d)
			ref.Name = "&" + sym.String()
			args = append(args, ref)
			continue
		}

		t, err := d.steps.ParseType(c, ModeDrop)
		if err != nil {
			return nil, err
		}
		args = append(args, t)
	}
	return args, nil
}
