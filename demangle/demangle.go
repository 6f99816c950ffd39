// Package demangle converts compiler-mangled symbol names back into
// human-readable signatures. It dispatches on each scheme's sentinel
// prefix: Itanium C++ ("_Z"), Rust v0 ("_R"), D ("_D"), and the
// Microsoft C++ scheme ("?"), falling back to returning the input
// unchanged when nothing matches or decoding fails.
package demangle

import (
	"strings"

	"github.com/skdltmxn/demangle-go/internal/dlang"
	"github.com/skdltmxn/demangle-go/internal/itanium"
	"github.com/skdltmxn/demangle-go/internal/msvc"
	"github.com/skdltmxn/demangle-go/internal/rustv0"
)

// Demangle decodes a mangled name into a readable signature. It is a
// total function: for unrecognized or malformed input, the original
// text comes back unchanged, so "not mangled" and "could not decode"
// are indistinguishable by design.
//
// Scheme priority: the non-Microsoft schemes are tried against the raw
// input first; then once more with a single leading '_' stripped (a
// generic platform decoration); then the Microsoft scheme on the raw
// input.
func Demangle(name string) string {
	if out, ok := tryNonMicrosoft(name); ok {
		return out
	}
	if strings.HasPrefix(name, "_") {
		if out, ok := tryNonMicrosoft(name[1:]); ok {
			return out
		}
	}
	if out, err := Microsoft(name); err == nil {
		return out
	}
	return name
}

// TryNonMicrosoft runs only the non-Microsoft steps of the dispatch,
// with the same identity fallback. Useful when the caller already
// knows the input is not MSVC-decorated.
func TryNonMicrosoft(name string) string {
	if out, ok := tryNonMicrosoft(name); ok {
		return out
	}
	if strings.HasPrefix(name, "_") {
		if out, ok := tryNonMicrosoft(name[1:]); ok {
			return out
		}
	}
	return name
}

// tryNonMicrosoft gives the first scheme whose prefix matches the only
// attempt; a failed parse does not fall through to the other schemes.
// A leading dot marks a distinct symbol class (indirect/local alias)
// rather than an encoding artifact, so it survives into the output.
func tryNonMicrosoft(name string) (string, bool) {
	prefix := ""
	if rest, ok := strings.CutPrefix(name, "."); ok {
		name = rest
		prefix = "."
	}

	var out string
	var err error
	switch {
	case isItanium(name):
		out, err = itanium.Demangle(canonicalItanium(name))
	case strings.HasPrefix(name, "_R"):
		out, err = rustv0.Demangle(name)
	case strings.HasPrefix(name, "_D"):
		out, err = dlang.Demangle(name)
	default:
		return "", false
	}
	if err != nil {
		return "", false
	}
	return prefix + out, true
}

// isItanium reports the Itanium sentinel: one to four underscores
// followed by 'Z'.
func isItanium(name string) bool {
	i := 0
	for i < len(name) && name[i] == '_' {
		i++
	}
	return i >= 1 && i <= 4 && i < len(name) && name[i] == 'Z'
}

// canonicalItanium collapses the underscore run to the canonical "_Z"
// spelling the scheme parser expects.
func canonicalItanium(name string) string {
	i := 0
	for name[i] == '_' {
		i++
	}
	return "_Z" + name[i+1:]
}

// Microsoft decodes one MSVC decorated name, reporting failure through
// the error instead of the identity fallback. ".?A"-prefixed tag
// unique names decode to their type descriptor spelling.
func Microsoft(name string) (string, error) {
	if strings.HasPrefix(name, ".?A") {
		out, err := msvc.TagUniqueName(name)
		if err != nil {
			return "", err
		}
		return out + " `RTTI Type Descriptor Name'", nil
	}
	return msvc.Demangle(name)
}

// IsMangled reports whether name starts with a sentinel of any
// recognized scheme. It is a heuristic over the prefix only; a true
// result does not guarantee the name will decode.
func IsMangled(name string) bool {
	switch {
	case strings.HasPrefix(name, "?"),
		strings.HasPrefix(name, ".?A"),
		strings.HasPrefix(name, "_R"),
		strings.HasPrefix(name, "_D"):
		return true
	default:
		return isItanium(name)
	}
}
