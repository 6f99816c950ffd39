package msvc

import "github.com/skdltmxn/demangle-go/internal/ast"

// Productions is the set of grammar productions a Demangler routes its
// recursive calls through. The default implementation is the Demangler
// itself; a caller can supply its own to observe or override single
// productions (see Intercept) while delegating the rest back.
type Productions interface {
	// ParseSymbol decodes one complete decorated name.
	ParseSymbol(c *Cursor) (ast.Node, error)

	// ParseDeclarator decodes a qualified name plus its variable or
	// function encoding.
	ParseDeclarator(c *Cursor) (ast.Node, error)

	// ParseType decodes one type under the given qualifier mode.
	ParseType(c *Cursor, mode QualifierMode) (ast.Node, error)

	// ParseQualifiedName decodes a symbol's scope chain.
	ParseQualifiedName(c *Cursor) (*ast.QualifiedName, error)

	// ParseNumber decodes the scheme's variable-length integer,
	// returning the magnitude and the sign flag.
	ParseNumber(c *Cursor) (uint64, bool, error)

	// ParseFunctionParams decodes a parameter list, reporting whether
	// it ended with the variadic marker.
	ParseFunctionParams(c *Cursor) ([]ast.Node, bool, error)

	// ParseTemplateParams decodes a template argument list.
	ParseTemplateParams(c *Cursor) ([]ast.Node, error)
}

var _ Productions = (*Demangler)(nil)
