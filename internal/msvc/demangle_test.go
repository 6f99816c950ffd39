package msvc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skdltmxn/demangle-go/internal/ast"
)

func TestDemangleFunctions(t *testing.T) {
	tests := []struct {
		mangled string
		want    string
	}{
		{"?foo@@YAXXZ", "void foo(void)"},
		{"?f@@YGXXZ", "void __stdcall f(void)"},
		{"?bar@Foo@@QEAAHH@Z", "public: int Foo::bar(int)"},
		{"?get@Foo@@QEBAHXZ", "public: int Foo::get(void) const"},
		{"?pf@@YAXHZZ", "void pf(int, ...)"},
		{"?nx@@YAXX_E", "void nx(void)"},
		{"?f@@YAXPEAH0@Z", "void f(int *, int *)"},
		{"?inst@Foo@@SAPEAV1@XZ", "public: static class Foo *Foo::inst(void)"},
	}
	for _, tt := range tests {
		t.Run(tt.mangled, func(t *testing.T) {
			got, err := Demangle(tt.mangled)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDemangleStructorsAndOperators(t *testing.T) {
	tests := []struct {
		mangled string
		want    string
	}{
		{"??0Foo@@QEAA@XZ", "public: Foo::Foo(void)"},
		{"??1Foo@@QEAA@XZ", "public: Foo::~Foo(void)"},
		{"??4Foo@@QEAAAEAV0@AEBV0@@Z", "public: class Foo &Foo::operator=(const class Foo &)"},
		{"??BFoo@@QEAAHXZ", "public: Foo::operator int(void)"},
	}
	for _, tt := range tests {
		t.Run(tt.mangled, func(t *testing.T) {
			got, err := Demangle(tt.mangled)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDemangleVariables(t *testing.T) {
	tests := []struct {
		mangled string
		want    string
	}{
		{"?g_count@@3HA", "int g_count"},
		{"?count@Foo@@2HA", "public: static int Foo::count"},
		{"?g_ptr@@3PEAHA", "int *g_ptr"},
		{"?ws@@3_WA", "wchar_t ws"},
		{"?a@@3Y09HA", "int a[10]"},
		{"?a@@3Y0BA@HA", "int a[16]"},
	}
	for _, tt := range tests {
		t.Run(tt.mangled, func(t *testing.T) {
			got, err := Demangle(tt.mangled)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDemangleCompositeTypes(t *testing.T) {
	tests := []struct {
		mangled string
		want    string
	}{
		{"?r@@3AEAHA", "int &r"},
		{"?rv@@YAX$$QEAH@Z", "void rv(int &&)"},
		{"?fp@@3P6AHH@ZA", "int (*fp)(int)"},
		{"?pm@@3PEQFoo@@HQFoo@@", "int Foo::*pm"},
		{"?pmf@@3P8Foo@@EAAHXZQ1@", "int (Foo::*pmf)(void)"},
		{"?e@@3W4Color@@A", "enum Color e"},
		{"?s@@3UPoint@@A", "struct Point s"},
	}
	for _, tt := range tests {
		t.Run(tt.mangled, func(t *testing.T) {
			got, err := Demangle(tt.mangled)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDemangleThunksAndGuards(t *testing.T) {
	got, err := Demangle("??_9Base@@$B7AA")
	require.NoError(t, err)
	assert.Equal(t, "Base::`vcall'{8,{flat}}'", got)

	got, err = Demangle("??_B?1??f@@YAHXZ@51")
	require.NoError(t, err)
	assert.Equal(t, "`int f(void)'::`2'::`local static guard'{2}", got)
}

func TestDemangleInitFiniStubs(t *testing.T) {
	got, err := Demangle("??__Ex@@YAXXZ")
	require.NoError(t, err)
	assert.Equal(t, "void `dynamic initializer for 'x''(void)", got)

	got, err = Demangle("??__E?i@@3HA@YAXXZ")
	require.NoError(t, err)
	assert.Equal(t, "void `dynamic initializer for 'int i''(void)", got)
}

func TestDemangleTemplates(t *testing.T) {
	got, err := Demangle("??$func@H@@YAXH@Z")
	require.NoError(t, err)
	assert.Equal(t, "void func<int>(int)", got)

	got, err = Demangle("??$f@V?$vector@H@@@@YAXXZ")
	require.NoError(t, err)
	assert.Equal(t, "void f<class vector<int> >(void)", got)
}

func TestDemangleLocallyScopedName(t *testing.T) {
	got, err := Demangle("?x@?1??f@@YAHXZ@4HA")
	require.NoError(t, err)
	assert.Equal(t, "int `int f(void)'::`2'::x", got)
}

func TestDemangleSpecialIntrinsics(t *testing.T) {
	tests := []struct {
		mangled string
		want    string
	}{
		{"??_7Foo@@6B@", "const Foo::`vftable'"},
		{"??_7A@@6BB@@@", "const A::`vftable'{for `B'}"},
		{"??_R0?AVFoo@@@8", "class Foo `RTTI Type Descriptor'"},
		{"??_R1A@?0A@EA@Foo@@8", "Foo::`RTTI Base Class Descriptor at (0, -1, 0, 64)'"},
		{"??_C@_05CJBACGMB@hello?$AA@", "`string'"},
	}
	for _, tt := range tests {
		t.Run(tt.mangled, func(t *testing.T) {
			got, err := Demangle(tt.mangled)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDemangleMD5NameRoundTrips(t *testing.T) {
	in := "??@8ba8d245c9eca390356129098dbe9f73@"
	got, err := Demangle(in)
	require.NoError(t, err)
	assert.Equal(t, in, got)
}

func TestTagUniqueName(t *testing.T) {
	tests := []struct {
		mangled string
		want    string
	}{
		{".?AVFoo@@", "class Foo"},
		{".?AUBar@@", "struct Bar"},
		{".?AW4Color@@", "enum Color"},
	}
	for _, tt := range tests {
		got, err := TagUniqueName(tt.mangled)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := TagUniqueName("?AVFoo@@")
	assert.ErrorIs(t, err, ErrMalformed)
}

// Scope chains may hold more than ten backreference-eligible pieces;
// pieces past the tenth just never become referenceable.
func TestNameBackrefOverflowStillDemangles(t *testing.T) {
	got, err := Demangle("?x@a@b@c@d@e@f@g@h@i@j@k@@3HA")
	require.NoError(t, err)
	assert.Equal(t, "int k::j::i::h::g::f::e::d::c::b::a::x", got)
}

func TestNameBackrefOutOfRangeFails(t *testing.T) {
	_, err := Demangle("?x@3@@3HA")
	assert.ErrorIs(t, err, ErrBackref)
}

// Single-character parameter types are never recorded, so an index
// referring to one is out of range.
func TestParamBackrefRequiresMemorizedEntry(t *testing.T) {
	_, err := Demangle("?f@@YAXH0@Z")
	assert.ErrorIs(t, err, ErrBackref)
}

func TestDemangleFailsOnGarbage(t *testing.T) {
	for _, in := range []string{"", "foo", "?", "?foo", "?foo@@", "?foo@@YAX", "?foo@@YAXXY"} {
		_, err := Demangle(in)
		assert.Error(t, err, "input %q", in)
	}
}

func TestCursorAdvancesFullyOnSuccess(t *testing.T) {
	c := NewCursor("?foo@@YAXXZ")
	_, err := New().ParseSymbol(c)
	require.NoError(t, err)
	assert.True(t, c.Empty())
	assert.Equal(t, len("?foo@@YAXXZ"), c.Offset())
}

// A failing step may have consumed part of its input; the cursor
// reflects how far the parse got.
func TestCursorPartialConsumptionOnFailure(t *testing.T) {
	c := NewCursor("?foo@@YA")
	_, err := New().ParseSymbol(c)
	require.Error(t, err)
	assert.Greater(t, c.Offset(), 0)
}

func TestCursorPrimitives(t *testing.T) {
	c := NewCursor("abc")
	assert.Equal(t, byte('a'), c.Peek())
	assert.Equal(t, byte('c'), c.PeekAt(2))
	assert.Equal(t, byte(0), c.PeekAt(3))
	assert.True(t, c.ConsumeByte('a'))
	assert.False(t, c.ConsumeByte('x'))
	assert.True(t, c.ConsumeFront("bc"))
	assert.True(t, c.Empty())
	assert.Equal(t, byte(0), c.Consume())
}

func TestParseNumberEncoding(t *testing.T) {
	tests := []struct {
		in   string
		want uint64
		neg  bool
	}{
		{"0", 1, false},
		{"9", 10, false},
		{"?3", 4, true},
		{"@", 0, false},
		{"A@", 0, false},
		{"BA@", 16, false},
		{"P@", 15, false},
		{"BAA@", 256, false},
	}
	d := New()
	for _, tt := range tests {
		n, neg, err := d.ParseNumber(NewCursor(tt.in))
		require.NoError(t, err, "input %q", tt.in)
		assert.Equal(t, tt.want, n, "input %q", tt.in)
		assert.Equal(t, tt.neg, neg, "input %q", tt.in)
	}

	_, _, err := d.ParseNumber(NewCursor("Q"))
	assert.ErrorIs(t, err, ErrMalformed)
	_, _, err = d.ParseNumber(NewCursor(""))
	assert.ErrorIs(t, err, ErrTruncated)
}

func TestBackrefTableBounds(t *testing.T) {
	var b backrefs
	for i := 0; i < 15; i++ {
		id := &ast.NamedIdentifier{Name: string(rune('a' + i))}
		b.memorizeName(id)
	}
	assert.Equal(t, backrefMax, b.nameCount)

	got, err := b.name(9)
	require.NoError(t, err)
	assert.Equal(t, "j", got.Name)

	_, err = b.name(10)
	assert.ErrorIs(t, err, ErrBackref)
}

// paramCounter intercepts one production and delegates the rest.
type paramCounter struct {
	*Demangler
	calls int
}

func (p *paramCounter) ParseFunctionParams(c *Cursor) ([]ast.Node, bool, error) {
	p.calls++
	return p.Demangler.ParseFunctionParams(c)
}

func TestInterceptProduction(t *testing.T) {
	d := New()
	pc := &paramCounter{Demangler: d}
	d.Intercept(pc)

	node, err := d.ParseSymbol(NewCursor("?foo@@YAXXZ"))
	require.NoError(t, err)
	assert.Equal(t, "void foo(void)", node.String())
	assert.Equal(t, 1, pc.calls)
}

// Separate attempts never share state: the same demangler value can
// decode symbols back to back without one parse's backrefs leaking
// into the next.
func TestAttemptsAreIndependent(t *testing.T) {
	d := New()
	for i := 0; i < 3; i++ {
		node, err := d.ParseSymbol(NewCursor("?bar@Foo@@QEAAHH@Z"))
		require.NoError(t, err)
		assert.Equal(t, "public: int Foo::bar(int)", node.String())
	}
}
