package itanium

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDemangleFreeFunctions(t *testing.T) {
	tests := []struct {
		mangled string
		want    string
	}{
		{"_Z3fooi", "foo(int)"},
		{"_Z3foov", "foo()"},
		{"_Z1fv", "f()"},
		{"_Z3fooPiS_", "foo(int *, int *)"},
		{"_Z3fooSt6vectorIiE", "foo(std::vector<int>)"},
		{"_Z3fooPKc", "foo(const char *)"},
		{"_Z6printfPKcz", "printf(const char *, ...)"},
	}
	for _, tt := range tests {
		t.Run(tt.mangled, func(t *testing.T) {
			got, err := Demangle(tt.mangled)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDemangleNestedNames(t *testing.T) {
	tests := []struct {
		mangled string
		want    string
	}{
		{"_ZN3foo3barEv", "foo::bar()"},
		{"_ZN3foo3barE", "foo::bar"},
		{"_ZN3FooC1Ev", "Foo::Foo()"},
		{"_ZN3FooD1Ev", "Foo::~Foo()"},
		{"_ZN3FooplERKS_", "Foo::operator+(const Foo &)"},
		{"_ZNSt6vectorIiE9push_backERKi", "std::vector<int>::push_back(const int &)"},
		{"_ZNKSt6vectorIiE4sizeEv", "std::vector<int>::size() const"},
	}
	for _, tt := range tests {
		t.Run(tt.mangled, func(t *testing.T) {
			got, err := Demangle(tt.mangled)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDemangleRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "foo", "_Z", "_Zx", "_Z99", "_Z3fo", "_ZN3fooQ", "_Z3fooQ"} {
		_, err := Demangle(in)
		assert.Error(t, err, "input %q", in)
	}
}

func TestDemangleRequiresFullConsumption(t *testing.T) {
	// Trailing bytes that are not a parameter list are a failure, not
	// an ignored suffix.
	_, err := Demangle("_Z3fooi!")
	assert.Error(t, err)
}
