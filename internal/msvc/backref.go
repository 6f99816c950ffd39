package msvc

import "github.com/skdltmxn/demangle-go/internal/ast"

// backrefMax is the scheme's fixed table size: only the first ten
// names and the first ten function parameter types of a symbol can be
// referenced by the @[0-9] and [0-9] shorthands. Entries past the
// tenth are simply never recorded; indices 0-9 stay valid for the
// whole parse.
const backrefMax = 10

// backrefs is the per-attempt memoization context. A single symbol
// uses one table for all function parameter lists, so nested function
// types (a pointer-to-function parameter, say) can reference types
// introduced by an enclosing parameter list and vice versa.
type backrefs struct {
	names     [backrefMax]*ast.NamedIdentifier
	nameCount int

	params     [backrefMax]ast.Node
	paramCount int
}

// memorizeName records a name at its first occurrence. Duplicates and
// entries past the table bound are ignored without error.
func (b *backrefs) memorizeName(id *ast.NamedIdentifier) {
	if b.nameCount >= backrefMax {
		return
	}
	for i := 0; i < b.nameCount; i++ {
		if b.names[i].Name == id.Name {
			return
		}
	}
	b.names[b.nameCount] = id
	b.nameCount++
}

// name resolves a 0-9 name backreference. An index at or past the
// current count is malformed input, not a default.
func (b *backrefs) name(i int) (*ast.NamedIdentifier, error) {
	if i < 0 || i >= b.nameCount {
		return nil, ErrBackref
	}
	return b.names[i], nil
}

// memorizeParam records a parameter type; overflow is silently
// dropped, matching the scheme's ten-slot format limit.
func (b *backrefs) memorizeParam(t ast.Node) {
	if b.paramCount >= backrefMax {
		return
	}
	b.params[b.paramCount] = t
	b.paramCount++
}

// param resolves a 0-9 parameter type backreference.
func (b *backrefs) param(i int) (ast.Node, error) {
	if i < 0 || i >= b.paramCount {
		return nil, ErrBackref
	}
	return b.params[i], nil
}
