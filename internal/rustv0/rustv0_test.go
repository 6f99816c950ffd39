package rustv0

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDemanglePaths(t *testing.T) {
	tests := []struct {
		mangled string
		want    string
	}{
		{"_RC7mycrate", "mycrate"},
		{"_RNvC7mycrate3foo", "mycrate::foo"},
		{"_RNvCs1234_7mycrate3foo", "mycrate::foo"},
		{"_RNvNtC3std3mem4swap", "std::mem::swap"},
		{"_RINvNtC3std3mem4swapdE", "std::mem::swap::<f64>"},
		{"_RINvNtC3std3mem4swapddE", "std::mem::swap::<f64, f64>"},
	}
	for _, tt := range tests {
		t.Run(tt.mangled, func(t *testing.T) {
			got, err := Demangle(tt.mangled)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDemangleGenericArgTypes(t *testing.T) {
	tests := []struct {
		mangled string
		want    string
	}{
		{"_RINvC1a1fRlE", "a::f::<&i32>"},
		{"_RINvC1a1fQlE", "a::f::<&mut i32>"},
		{"_RINvC1a1fPhE", "a::f::<*const u8>"},
		{"_RINvC1a1fTlmEE", "a::f::<(i32, u32)>"},
		{"_RINvC1a1fSbE", "a::f::<[bool]>"},
		{"_RINvC1a1fKb1_E", "a::f::<true>"},
	}
	for _, tt := range tests {
		t.Run(tt.mangled, func(t *testing.T) {
			got, err := Demangle(tt.mangled)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// A const backreference pointing at its own offset must bottom out in
// an error instead of recursing without bound.
func TestDemangleConstBackrefCycle(t *testing.T) {
	_, err := Demangle("_RIC1xKB4_E")
	assert.Error(t, err)
}

func TestDemangleRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "foo", "_R", "_RX", "_RC", "_RC9abc", "_RNvC1a", "_RNvC1au3abc"} {
		_, err := Demangle(in)
		assert.Error(t, err, "input %q", in)
	}
}
