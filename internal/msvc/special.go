package msvc

import (
	"strconv"
	"strings"

	"github.com/skdltmxn/demangle-go/internal/ast"
)

// parseSpecialIntrinsic recognizes the compiler-generated symbol forms
// that spell a second "?_"-prefixed code after the leading '?': virtual
// tables, RTTI structures, static guards, thunks, string literals, and
// init/fini stubs. The caller has consumed the sentinel only, so every
// code here still carries its own '?'. The third result reports whether
// a code matched; when it did not, the cursor is untouched and the
// caller parses a plain declarator.
func (d *Demangler) parseSpecialIntrinsic(c *Cursor) (ast.Node, error, bool) {
	switch {
	case c.ConsumeFront("?__E"):
		n, err := d.parseInitFiniStub(c, false)
		return n, err, true
	case c.ConsumeFront("?__F"):
		n, err := d.parseInitFiniStub(c, true)
		return n, err, true
	case c.ConsumeFront("?__J"):
		n, err := d.parseLocalStaticGuard(c, true)
		return n, err, true
	case c.ConsumeFront("?_7"):
		n, err := d.parseSpecialTable(c, "`vftable'")
		return n, err, true
	case c.ConsumeFront("?_8"):
		n, err := d.parseSpecialTable(c, "`vbtable'")
		return n, err, true
	case c.ConsumeFront("?_9"):
		n, err := d.parseVcallThunk(c)
		return n, err, true
	case c.ConsumeFront("?_B"):
		n, err := d.parseLocalStaticGuard(c, false)
		return n, err, true
	case c.ConsumeFront("?_C@_"):
		n, err := d.parseStringLiteral(c)
		return n, err, true
	case c.ConsumeFront("?_R0"):
		n, err := d.parseRttiTypeDescriptor(c)
		return n, err, true
	case c.ConsumeFront("?_R1"):
		n, err := d.parseRttiBaseClassDescriptor(c)
		return n, err, true
	case c.ConsumeFront("?_R2"):
		n, err := d.parseUntypedVariable(c, "`RTTI Base Class Array'")
		return n, err, true
	case c.ConsumeFront("?_R3"):
		n, err := d.parseUntypedVariable(c, "`RTTI Class Hierarchy Descriptor'")
		return n, err, true
	case c.ConsumeFront("?_R4"):
		n, err := d.parseSpecialTable(c, "`RTTI Complete Object Locator'")
		return n, err, true
	case c.ConsumeFront("?_S"):
		n, err := d.parseSpecialTable(c, "`local vftable'")
		return n, err, true
	}
	return nil, nil, false
}

// synthesizeName wraps a rendered leaf string in a one-component
// qualified name.
func (d *Demangler) synthesizeName(leaf string) *ast.QualifiedName {
	id := newNode[ast.NamedIdentifier](d)
	id.Name = d.arena.InternString(leaf)
	qn := newNode[ast.QualifiedName](d)
	qn.Components = []ast.Node{id}
	return qn
}

// parseSpecialTable decodes a vftable-like symbol: the class scope
// chain, a '6' or '7' table marker, qualifiers, and an optional second
// class the table is "for" in diamond hierarchies.
func (d *Demangler) parseSpecialTable(c *Cursor, name string) (ast.Node, error) {
	leaf := newNode[ast.NamedIdentifier](d)
	leaf.Name = name
	qn, err := d.parseNameScopeChain(c, leaf)
	if err != nil {
		return nil, err
	}

	switch c.Consume() {
	case '6', '7':
	default:
		return nil, ErrMalformed
	}
	quals, _, err := d.parseQualifiers(c)
	if err != nil {
		return nil, err
	}

	t := newNode[ast.SpecialTableSymbol](d)
	t.Name = qn
	t.Quals = quals
	if !c.ConsumeByte('@') {
		target, err := d.parseFullyQualifiedTypeName(c)
		if err != nil {
			return nil, err
		}
		t.Target = target
		c.ConsumeByte('@')
	}
	return t, nil
}

func (d *Demangler) parseUntypedVariable(c *Cursor, name string) (ast.Node, error) {
	leaf := newNode[ast.NamedIdentifier](d)
	leaf.Name = name
	qn, err := d.parseNameScopeChain(c, leaf)
	if err != nil {
		return nil, err
	}
	if !c.ConsumeByte('8') {
		return nil, ErrMalformed
	}
	v := newNode[ast.VariableSymbol](d)
	v.Name = qn
	return v, nil
}

// parseVcallThunk decodes "?_9<scope>$B<offset>A<callconv>". The
// rendered leaf carries the vtable offset.
func (d *Demangler) parseVcallThunk(c *Cursor) (ast.Node, error) {
	leaf := newNode[ast.NamedIdentifier](d)
	qn, err := d.parseNameScopeChain(c, leaf)
	if err != nil {
		return nil, err
	}
	if !c.ConsumeFront("$B") {
		return nil, ErrMalformed
	}
	offset, err := d.parseUnsigned(c)
	if err != nil {
		return nil, err
	}
	if !c.ConsumeByte('A') {
		return nil, ErrMalformed
	}
	if _, err := d.parseCallingConvention(c); err != nil {
		return nil, err
	}
	leaf.Name = d.arena.InternString("`vcall'{" + strconv.FormatUint(offset, 10) + ",{flat}}'")

	fn := newNode[ast.FunctionSymbol](d)
	fn.Name = qn
	return fn, nil
}

// parseLocalStaticGuard decodes the guard variable of a function-local
// static: the owning scope chain, then either the "4IA" non-visible
// form or '5' with an optional disambiguating scope number.
func (d *Demangler) parseLocalStaticGuard(c *Cursor, isThread bool) (ast.Node, error) {
	text := "`local static guard'"
	if isThread {
		text = "`local static thread guard'"
	}
	leaf := newNode[ast.NamedIdentifier](d)
	leaf.Name = text
	qn, err := d.parseNameScopeChain(c, leaf)
	if err != nil {
		return nil, err
	}

	g := newNode[ast.LocalStaticGuard](d)
	g.Name = qn
	g.IsThread = isThread
	switch {
	case c.ConsumeFront("4IA"):
	case c.ConsumeByte('5'):
		if !c.Empty() {
			n, err := d.parseUnsigned(c)
			if err != nil {
				return nil, err
			}
			g.ScopeNum = n
		}
	default:
		return nil, ErrMalformed
	}
	return g, nil
}

// parseRttiTypeDescriptor decodes "?_R0<type>@8" into the descriptor
// variable for that type.
func (d *Demangler) parseRttiTypeDescriptor(c *Cursor) (ast.Node, error) {
	t, err := d.steps.ParseType(c, ModeResult)
	if err != nil {
		return nil, err
	}
	if !c.ConsumeFront("@8") {
		return nil, ErrMalformed
	}
	v := newNode[ast.VariableSymbol](d)
	v.Name = d.synthesizeName("`RTTI Type Descriptor'")
	v.Type = t
	return v, nil
}

// parseRttiBaseClassDescriptor decodes the displacement triple, the
// flags, and the base class name of "?_R1...8".
func (d *Demangler) parseRttiBaseClassDescriptor(c *Cursor) (ast.Node, error) {
	nvOffset, err := d.parseUnsigned(c)
	if err != nil {
		return nil, err
	}
	vbptrOffset, err := d.parseSigned(c)
	if err != nil {
		return nil, err
	}
	vbtableOffset, err := d.parseUnsigned(c)
	if err != nil {
		return nil, err
	}
	flags, err := d.parseUnsigned(c)
	if err != nil {
		return nil, err
	}
	name, err := d.parseFullyQualifiedTypeName(c)
	if err != nil {
		return nil, err
	}
	if !c.ConsumeByte('8') {
		return nil, ErrMalformed
	}

	r := newNode[ast.RttiBaseClassDescriptor](d)
	r.Name = name
	r.NVOffset = uint32(nvOffset)
	r.VBPtrOffset = int32(vbptrOffset)
	r.VBTableOffset = uint32(vbtableOffset)
	r.Flags = uint32(flags)
	return r, nil
}

// parseInitFiniStub decodes the "?__E"/"?__F" dynamic initializer and
// atexit destructor stubs. The stub wraps either a variable (followed
// by the stub's own function encoding) or a function symbol.
func (d *Demangler) parseInitFiniStub(c *Cursor, isDestructor bool) (ast.Node, error) {
	what := "`dynamic initializer for '"
	if isDestructor {
		what = "`dynamic atexit destructor for '"
	}

	// Static data members carry an extra '?' and a closing '@'.
	knownStaticMember := c.ConsumeByte('?')

	sym, err := d.steps.ParseDeclarator(c)
	if err != nil {
		return nil, err
	}
	switch s := sym.(type) {
	case *ast.VariableSymbol:
		if knownStaticMember && !c.ConsumeByte('@') {
			return nil, ErrMalformed
		}
		qn := d.synthesizeName(what + s.String() + "''")
		return d.parseFunctionEncoding(c, qn)
	case *ast.FunctionSymbol:
		if knownStaticMember {
			return nil, ErrMalformed
		}
		s.Name = d.synthesizeName(what + s.Name.String() + "''")
		return s, nil
	default:
		return nil, ErrMalformed
	}
}

// parseMD5Name round-trips an "??@<hash>@" name; the hash has no
// recoverable structure.
func (d *Demangler) parseMD5Name(c *Cursor) (ast.Node, error) {
	if !c.ConsumeFront("??@") {
		return nil, ErrMalformed
	}
	rest := c.Rest()
	i := strings.IndexByte(rest, '@')
	if i < 0 {
		return nil, ErrTruncated
	}
	if i == 0 {
		return nil, ErrMalformed
	}
	c.Advance(i + 1)

	id := newNode[ast.NamedIdentifier](d)
	id.Name = d.arena.InternString("??@" + rest[:i+1])
	return id, nil
}

// stringLiteralSpecials maps the '?'<digit> escapes.
const stringLiteralSpecials = ",/\\:. \n\t'-"

// parseStringLiteral decodes "?_C@_<width><length><checksum>@<bytes>@".
// Only a prefix of the bytes is mangled, so Decoded holds what could
// be recovered; rendering is always "`string'".
func (d *Demangler) parseStringLiteral(c *Cursor) (ast.Node, error) {
	lit := newNode[ast.EncodedStringLiteral](d)
	switch c.Consume() {
	case '0':
	case '1':
		lit.IsWide = true
	default:
		return nil, ErrMalformed
	}

	if _, err := d.parseUnsigned(c); err != nil {
		return nil, err
	}
	// The checksum is not reproducible from the prefix alone; skip it.
	if _, err := d.parseSimpleString(c); err != nil {
		return nil, err
	}

	var buf []byte
	for !c.ConsumeByte('@') {
		if c.Empty() {
			return nil, ErrTruncated
		}
		b, err := d.parseStringLiteralByte(c)
		if err != nil {
			return nil, err
		}
		buf = append(buf, b)
	}
	lit.Decoded = d.arena.InternString(string(buf))
	return lit, nil
}

func (d *Demangler) parseStringLiteralByte(c *Cursor) (byte, error) {
	ch := c.Consume()
	if ch != '?' {
		if isStringLiteralChar(ch) {
			return ch, nil
		}
		return 0, ErrMalformed
	}

	switch ch = c.Consume(); {
	case ch == '$':
		// Two 'A'-'P' nibbles.
		hi, lo := c.Consume(), c.Consume()
		if hi < 'A' || hi > 'P' || lo < 'A' || lo > 'P' {
			return 0, ErrMalformed
		}
		return (hi-'A')<<4 | (lo - 'A'), nil
	case isDigit(ch):
		return stringLiteralSpecials[ch-'0'], nil
	case ch >= 'a' && ch <= 'z':
		return 0xe1 + ch - 'a', nil
	case ch >= 'A' && ch <= 'Z':
		return 0xc1 + ch - 'A', nil
	default:
		return 0, ErrMalformed
	}
}

func isStringLiteralChar(ch byte) bool {
	switch {
	case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z', isDigit(ch):
		return true
	case ch == '_' || ch == '$':
		return true
	default:
		return false
	}
}
