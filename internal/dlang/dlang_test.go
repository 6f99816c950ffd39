package dlang

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDemangle(t *testing.T) {
	tests := []struct {
		mangled string
		want    string
	}{
		{"_Dmain", "D main"},
		{"_D8demangle4testFZv", "demangle.test"},
		{"_D3foo3barFiZi", "foo.bar"},
		{"_D3foo3bari", "foo.bar"},
		{"_D3foo3barxi", "foo.bar"},
		{"_D4core4time3durFlZS4core4time8Duration", "core.time.dur"},
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
	for _, in := range []string{"", "foo", "_D", "_D0", "_D9abc", "_D3foo!", "_D3fooF"} {
		_, err := Demangle(in)
		assert.Error(t, err, "input %q", in)
	}
}
