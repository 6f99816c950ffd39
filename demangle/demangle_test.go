package demangle

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDemangleDispatch(t *testing.T) {
	tests := []struct {
		mangled string
		want    string
	}{
		{"_Z3fooi", "foo(int)"},
		{"?foo@@YAXXZ", "void foo(void)"},
		{"_RNvC7mycrate3foo", "mycrate::foo"},
		{"_Dmain", "D main"},
		{"_D8demangle4testFZv", "demangle.test"},
		{"__Z3fooi", "foo(int)"},
		{"___Z3fooi", "foo(int)"},
	}
	for _, tt := range tests {
		t.Run(tt.mangled, func(t *testing.T) {
			assert.Equal(t, tt.want, Demangle(tt.mangled))
		})
	}
}

func TestDemangleIdentityFallback(t *testing.T) {
	for _, in := range []string{"", "hello", "main", "_main", "_Zinvalid!!", "?broken@@"} {
		assert.Equal(t, in, Demangle(in), "input %q", in)
	}
}

// A leading dot marks a distinct symbol class and survives into the
// readable output.
func TestDemangleLeadingDot(t *testing.T) {
	assert.Equal(t, ".foo(int)", Demangle("._Z3fooi"))
	assert.Equal(t, ".mycrate::foo", Demangle("._RNvC7mycrate3foo"))
}

func TestTryNonMicrosoft(t *testing.T) {
	assert.Equal(t, "foo(int)", TryNonMicrosoft("_Z3fooi"))
	// MSVC decoration stays untouched without the Microsoft step.
	assert.Equal(t, "?foo@@YAXXZ", TryNonMicrosoft("?foo@@YAXXZ"))
}

func TestMicrosoft(t *testing.T) {
	out, err := Microsoft("?bar@Foo@@QEAAHH@Z")
	require.NoError(t, err)
	assert.Equal(t, "public: int Foo::bar(int)", out)

	out, err = Microsoft(".?AVFoo@@")
	require.NoError(t, err)
	assert.Equal(t, "class Foo `RTTI Type Descriptor Name'", out)

	_, err = Microsoft("_Z3fooi")
	assert.Error(t, err)
}

func TestMicrosoftErrorKinds(t *testing.T) {
	_, err := Microsoft("?x@3@@3HA")
	assert.True(t, errors.Is(err, ErrBackref))

	_, err = Microsoft("?foo@@YA")
	assert.True(t, errors.Is(err, ErrTruncated))
}

func TestIsMangled(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"?foo@@YAXXZ", true},
		{".?AVFoo@@", true},
		{"_Z3fooi", true},
		{"___Z3fooi", true},
		{"_RNvC7mycrate3foo", true},
		{"_Dmain", true},
		{"hello", false},
		{"_main", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsMangled(tt.name), "input %q", tt.name)
	}
}

func TestDemangleDeterminism(t *testing.T) {
	first := Demangle("?bar@Foo@@QEAAHH@Z")
	for i := 0; i < 8; i++ {
		assert.Equal(t, first, Demangle("?bar@Foo@@QEAAHH@Z"))
	}
}
