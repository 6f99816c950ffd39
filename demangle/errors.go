package demangle

import "github.com/skdltmxn/demangle-go/internal/msvc"

// Sentinel errors surfaced by Microsoft. They alias the scheme
// parser's values so callers can match with errors.Is without
// importing internal packages.
var (
	// ErrMalformed indicates a grammar violation in the decorated name.
	ErrMalformed = msvc.ErrMalformed

	// ErrTruncated indicates the name ended before a required token.
	ErrTruncated = msvc.ErrTruncated

	// ErrBackref indicates a backreference index past the entries seen
	// so far.
	ErrBackref = msvc.ErrBackref
)
