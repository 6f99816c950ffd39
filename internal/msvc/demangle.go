// Package msvc decodes Microsoft Visual C++ decorated names into the
// shared AST. The grammar is context sensitive: repeated names and
// parameter types are compressed into 0-9 backreference indices whose
// meaning depends on population order, so the parser threads one
// cursor and one backreference table through every production.
package msvc

import (
	"errors"
	"strconv"

	"github.com/skdltmxn/demangle-go/internal/arena"
	"github.com/skdltmxn/demangle-go/internal/ast"
)

// Sentinel errors. Every production reports failure through one of
// these; once a step fails, the failure short-circuits out of the
// whole attempt without further cursor consumption.
var (
	ErrMalformed = errors.New("msvc: malformed mangled name")
	ErrTruncated = errors.New("msvc: unexpected end of mangled name")
	ErrBackref   = errors.New("msvc: backreference index out of range")
)

// Demangle decodes one MSVC decorated name. It fails without partial
// output on any grammar violation.
func Demangle(name string) (string, error) {
	node, err := New().ParseSymbol(NewCursor(name))
	if err != nil {
		return "", err
	}
	return node.String(), nil
}

// TagUniqueName decodes a type descriptor name of the form ".?AVFoo@@"
// into its tag type spelling ("class Foo").
func TagUniqueName(name string) (string, error) {
	d := New()
	c := NewCursor(name)
	if !c.ConsumeFront(".?A") {
		return "", ErrMalformed
	}
	d.ensureAttempt()
	t, err := d.parseTag(c)
	if err != nil {
		return "", err
	}
	if !c.Empty() {
		return "", ErrMalformed
	}
	return t.String(), nil
}

// Demangler decodes one symbol per ParseSymbol call. Each call owns a
// fresh arena and backreference table, so no state survives across
// attempts and separate Demanglers never share anything.
type Demangler struct {
	arena    *arena.Arena
	backrefs backrefs

	// steps receives every production call, defaulting to the
	// Demangler itself. Tests and extensions swap in their own
	// implementation to intercept individual productions.
	steps Productions
}

// New returns a Demangler using the default grammar productions.
func New() *Demangler {
	d := &Demangler{}
	d.steps = d
	return d
}

// Intercept routes all further production calls through p, including
// the Demangler's own recursive ones. p typically embeds this
// Demangler so that non-overridden productions keep their default
// behavior.
func (d *Demangler) Intercept(p Productions) {
	d.steps = p
}

func (d *Demangler) ensureAttempt() {
	if d.steps == nil {
		d.steps = d
	}
	d.arena = arena.New()
	d.backrefs = backrefs{}
}

// ParseSymbol is the top-level entry. It expects the scheme's leading
// '?' sentinel and dispatches to the variable, function, special
// intrinsic, or MD5 branch based on the next structural tokens.
func (d *Demangler) ParseSymbol(c *Cursor) (ast.Node, error) {
	d.ensureAttempt()
	return d.parseSymbol(c)
}

// parseSymbol is also the recursion point for symbols embedded inside
// other symbols (locally scoped names, template symbol references); it
// keeps the current arena and backreference table.
func (d *Demangler) parseSymbol(c *Cursor) (ast.Node, error) {
	// MD5 names carry no recoverable structure; they round-trip.
	if c.Peek() == '?' && c.PeekAt(1) == '?' && c.PeekAt(2) == '@' {
		return d.parseMD5Name(c)
	}
	if !c.ConsumeByte('?') {
		return nil, ErrMalformed
	}

	if sym, err, handled := d.parseSpecialIntrinsic(c); handled {
		return sym, err
	}
	return d.steps.ParseDeclarator(c)
}

// ParseDeclarator decodes a qualified name followed by its variable or
// function encoding.
func (d *Demangler) ParseDeclarator(c *Cursor) (ast.Node, error) {
	qn, err := d.steps.ParseQualifiedName(c)
	if err != nil {
		return nil, err
	}
	if c.Empty() {
		return nil, ErrTruncated
	}

	switch ch := c.Peek(); {
	case ch >= '0' && ch <= '4':
		c.Consume()
		return d.parseVariableEncoding(c, qn, storageClass(ch))
	case ch == '9':
		// Extern "C" function exported without a prototype.
		c.Consume()
		if !c.Empty() {
			return nil, ErrMalformed
		}
		fn := newNode[ast.FunctionSymbol](d)
		fn.Name = qn
		return fn, nil
	default:
		return d.parseFunctionEncoding(c, qn)
	}
}

func storageClass(ch byte) ast.StorageClass {
	switch ch {
	case '0':
		return ast.StoragePrivateStatic
	case '1':
		return ast.StorageProtectedStatic
	case '2':
		return ast.StoragePublicStatic
	case '4':
		return ast.StorageFunctionLocal
	default:
		return ast.StorageGlobal
	}
}

func (d *Demangler) parseVariableEncoding(c *Cursor, qn *ast.QualifiedName, sc ast.StorageClass) (ast.Node, error) {
	t, err := d.steps.ParseType(c, ModeDrop)
	if err != nil {
		return nil, err
	}

	// The type is followed by its storage qualifiers; pointers carry
	// the pointee's qualifiers here instead.
	switch pt := t.(type) {
	case *ast.PointerType:
		ext, err := d.parsePointerExtQualifiers(c)
		if err != nil {
			return nil, err
		}
		pt.Quals |= ext
		pq, _, err := d.parseQualifiers(c)
		if err != nil {
			return nil, err
		}
		if pq != 0 {
			qt := newNode[ast.QualifiedType](d)
			qt.Inner = pt.Pointee
			qt.Quals = pq
			pt.Pointee = qt
		}
	default:
		q, _, err := d.parseQualifiers(c)
		if err != nil {
			return nil, err
		}
		if q != 0 {
			qt := newNode[ast.QualifiedType](d)
			qt.Inner = t
			qt.Quals = q
			t = qt
		}
	}

	v := newNode[ast.VariableSymbol](d)
	v.Name = qn
	v.Type = t
	v.Storage = sc
	switch sc {
	case ast.StoragePrivateStatic:
		v.Access = ast.AccessPrivate
	case ast.StorageProtectedStatic:
		v.Access = ast.AccessProtected
	case ast.StoragePublicStatic:
		v.Access = ast.AccessPublic
	}
	return v, nil
}

// funcClass carries the decoded member/storage/thunk flags of a
// function encoding.
type funcClass struct {
	access    ast.AccessSpecifier
	isStatic  bool
	isVirtual bool
	isMember  bool
	thunk     bool // "this" adjustor thunk
}

func (d *Demangler) parseFunctionClass(c *Cursor) (funcClass, error) {
	switch c.Consume() {
	case 'A', 'B':
		return funcClass{access: ast.AccessPrivate, isMember: true}, nil
	case 'C', 'D':
		return funcClass{access: ast.AccessPrivate, isMember: true, isStatic: true}, nil
	case 'E', 'F':
		return funcClass{access: ast.AccessPrivate, isMember: true, isVirtual: true}, nil
	case 'G', 'H':
		return funcClass{access: ast.AccessPrivate, isMember: true, isVirtual: true, thunk: true}, nil
	case 'I', 'J':
		return funcClass{access: ast.AccessProtected, isMember: true}, nil
	case 'K', 'L':
		return funcClass{access: ast.AccessProtected, isMember: true, isStatic: true}, nil
	case 'M', 'N':
		return funcClass{access: ast.AccessProtected, isMember: true, isVirtual: true}, nil
	case 'O', 'P':
		return funcClass{access: ast.AccessProtected, isMember: true, isVirtual: true, thunk: true}, nil
	case 'Q', 'R':
		return funcClass{access: ast.AccessPublic, isMember: true}, nil
	case 'S', 'T':
		return funcClass{access: ast.AccessPublic, isMember: true, isStatic: true}, nil
	case 'U', 'V':
		return funcClass{access: ast.AccessPublic, isMember: true, isVirtual: true}, nil
	case 'W', 'X':
		return funcClass{access: ast.AccessPublic, isMember: true, isVirtual: true, thunk: true}, nil
	case 'Y', 'Z':
		return funcClass{}, nil
	default:
		return funcClass{}, ErrMalformed
	}
}

func (d *Demangler) parseFunctionEncoding(c *Cursor, qn *ast.QualifiedName) (ast.Node, error) {
	// Extern "C" decoration on a C++-mangled name; carries no output.
	c.ConsumeFront("$$J0")

	fc, err := d.parseFunctionClass(c)
	if err != nil {
		return nil, err
	}

	// A "this" adjustor thunk encodes the displacement right after the
	// function class.
	var adjustor string
	if fc.thunk {
		n, err := d.parseSigned(c)
		if err != nil {
			return nil, err
		}
		adjustor = "`adjustor{" + strconv.FormatInt(n, 10) + "}'"
	}

	hasThisQuals := fc.isMember && !fc.isStatic
	sig, err := d.parseFunctionType(c, hasThisQuals)
	if err != nil {
		return nil, err
	}

	// A conversion operator spells its target type as the return type.
	if conv, ok := qn.Last().(*ast.ConversionOperator); ok {
		conv.TargetType = sig.ReturnType
		sig.ReturnType = nil
	}

	if adjustor != "" {
		leaf := newNode[ast.NamedIdentifier](d)
		leaf.Name = qn.Last().String() + adjustor
		qn.Components[len(qn.Components)-1] = leaf
	}

	fn := newNode[ast.FunctionSymbol](d)
	fn.Name = qn
	fn.Signature = sig
	fn.Access = fc.access
	fn.IsStatic = fc.isStatic
	fn.IsVirtual = fc.isVirtual
	return fn, nil
}

// parseFunctionType decodes a full signature: optional this-qualifiers,
// calling convention, return type (or the '@' structor marker), the
// parameter list, and the throw specification.
func (d *Demangler) parseFunctionType(c *Cursor, hasThisQuals bool) (*ast.FunctionSignature, error) {
	sig := newNode[ast.FunctionSignature](d)

	if hasThisQuals {
		ext, err := d.parsePointerExtQualifiers(c)
		if err != nil {
			return nil, err
		}
		switch {
		case c.ConsumeByte('G'):
			sig.RefQual = ast.RefQualLValue
		case c.ConsumeByte('H'):
			sig.RefQual = ast.RefQualRValue
		}
		q, _, err := d.parseQualifiers(c)
		if err != nil {
			return nil, err
		}
		sig.Quals = q | ext
	}

	cc, err := d.parseCallingConvention(c)
	if err != nil {
		return nil, err
	}
	sig.CallConv = cc

	// Structors have no declared return type.
	if !c.ConsumeByte('@') {
		ret, err := d.steps.ParseType(c, ModeResult)
		if err != nil {
			return nil, err
		}
		sig.ReturnType = ret
	}

	params, variadic, err := d.steps.ParseFunctionParams(c)
	if err != nil {
		return nil, err
	}
	sig.Params = params
	sig.Variadic = variadic

	if err := d.parseThrowSpec(c); err != nil {
		return nil, err
	}
	return sig, nil
}

func (d *Demangler) parseCallingConvention(c *Cursor) (string, error) {
	switch c.Consume() {
	case 'A', 'B':
		return "", nil // __cdecl, the default, is not printed
	case 'C', 'D':
		return "__pascal", nil
	case 'E', 'F':
		return "__thiscall", nil
	case 'G', 'H':
		return "__stdcall", nil
	case 'I', 'J':
		return "__fastcall", nil
	case 'M', 'N':
		return "__clrcall", nil
	case 'O', 'P':
		return "__eabi", nil
	case 'Q':
		return "__vectorcall", nil
	case 'S':
		return "__swiftcall", nil
	case 'W':
		return "__swiftasynccall", nil
	default:
		return "", ErrMalformed
	}
}

func (d *Demangler) parseThrowSpec(c *Cursor) error {
	if c.ConsumeFront("_E") {
		return nil // noexcept
	}
	if c.ConsumeByte('Z') {
		return nil
	}
	return ErrMalformed
}

// newNode allocates one node slot from the attempt's arena. Nodes
// live exactly as long as the arena; nothing frees them individually.
func newNode[T any](d *Demangler) *T { return arena.NewIn[T](d.arena) }
