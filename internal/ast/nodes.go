// Package ast defines the node model shared by every demangling
// scheme, plus the printer that turns a decoded symbol back into a
// readable declaration.
package ast

import (
	"fmt"
	"strconv"
	"strings"
)

// NodeKind identifies the type of AST node.
type NodeKind int

const (
	KindUnknown NodeKind = iota
	// Identifier nodes
	KindNamedIdentifier
	KindTemplateInstantiation
	KindStructorIdentifier
	KindConversionOperator
	KindLiteralOperator
	KindAnonymousNamespace
	KindLocallyScopedName
	// Type nodes
	KindPrimitiveType
	KindPointerType
	KindArrayType
	KindFunctionSignature
	KindTagType
	KindCustomType
	KindQualifiedType
	// Symbol nodes
	KindFunctionSymbol
	KindVariableSymbol
	KindSpecialTableSymbol
	KindStringLiteral
	KindLocalStaticGuard
	KindRttiBaseClassDescriptor
	// Container nodes
	KindQualifiedName
	KindIntegerLiteral
)

// Node is the interface implemented by all AST nodes. Nodes are
// allocated from an arena, immutable once the parser has finished
// with them, and valid only as long as that arena.
type Node interface {
	Kind() NodeKind
	fmt.Stringer
}

// Qualifiers is the cv-qualifier and pointer-extension bitset consumed
// to the left of the type it modifies.
type Qualifiers uint8

const (
	QualConst Qualifiers = 1 << iota
	QualVolatile
	QualRestrict
	QualUnaligned
	QualPointer64
)

func (q Qualifiers) Has(f Qualifiers) bool { return q&f != 0 }

func (q Qualifiers) String() string {
	var parts []string
	if q.Has(QualConst) {
		parts = append(parts, "const")
	}
	if q.Has(QualVolatile) {
		parts = append(parts, "volatile")
	}
	if q.Has(QualRestrict) {
		parts = append(parts, "__restrict")
	}
	if q.Has(QualUnaligned) {
		parts = append(parts, "__unaligned")
	}
	return strings.Join(parts, " ")
}

// QualifiedName is a scope chain, outermost piece first. Component
// order is declaration order and the printer reproduces it
// left-to-right with "::" separators.
type QualifiedName struct {
	Components []Node
}

func (n *QualifiedName) Kind() NodeKind { return KindQualifiedName }

func (n *QualifiedName) String() string {
	var b strings.Builder
	for i, c := range n.Components {
		if i > 0 {
			b.WriteString("::")
		}
		b.WriteString(c.String())
	}
	return b.String()
}

// Last returns the innermost piece, or nil for an empty chain.
func (n *QualifiedName) Last() Node {
	if len(n.Components) == 0 {
		return nil
	}
	return n.Components[len(n.Components)-1]
}

// NamedIdentifier is a plain name, including operator spellings.
type NamedIdentifier struct {
	Name string
}

func (n *NamedIdentifier) Kind() NodeKind { return KindNamedIdentifier }
func (n *NamedIdentifier) String() string { return n.Name }

// TemplateInstantiation is a template name with its argument list.
type TemplateInstantiation struct {
	Name Node
	Args []Node
}

func (n *TemplateInstantiation) Kind() NodeKind { return KindTemplateInstantiation }

func (n *TemplateInstantiation) String() string {
	var b strings.Builder
	b.WriteString(n.Name.String())
	b.WriteByte('<')
	for i, a := range n.Args {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(a.String())
	}
	// Match source spelling: a closing ">>" would reparse as a shift.
	if strings.HasSuffix(b.String(), ">") {
		b.WriteByte(' ')
	}
	b.WriteByte('>')
	return b.String()
}

// StructorIdentifier marks a constructor or destructor. Class is the
// enclosing scope piece the structor is named after; the parser
// backpatches it once the full scope chain is known.
type StructorIdentifier struct {
	Class        Node
	IsDestructor bool
}

func (n *StructorIdentifier) Kind() NodeKind { return KindStructorIdentifier }

func (n *StructorIdentifier) String() string {
	name := "?"
	if n.Class != nil {
		name = n.Class.String()
	}
	if n.IsDestructor {
		return "~" + name
	}
	return name
}

// ConversionOperator is "operator T"; the converted-to type is encoded
// inline in the mangled name.
type ConversionOperator struct {
	TargetType Node
}

func (n *ConversionOperator) Kind() NodeKind { return KindConversionOperator }

func (n *ConversionOperator) String() string {
	if n.TargetType == nil {
		return "operator"
	}
	return "operator " + TypeString(n.TargetType)
}

// LiteralOperator is a user-defined literal suffix, operator "" _x.
type LiteralOperator struct {
	Name string
}

func (n *LiteralOperator) Kind() NodeKind { return KindLiteralOperator }
func (n *LiteralOperator) String() string { return `operator "" ` + n.Name }

// AnonymousNamespace is one unnamed-namespace scope piece.
type AnonymousNamespace struct{}

func (n *AnonymousNamespace) Kind() NodeKind { return KindAnonymousNamespace }
func (n *AnonymousNamespace) String() string { return "`anonymous namespace'" }

// LocallyScopedName is a name declared inside a function body,
// qualified by the owning symbol and a disambiguating scope number.
type LocallyScopedName struct {
	Owner Node
	Index uint64
}

func (n *LocallyScopedName) Kind() NodeKind { return KindLocallyScopedName }

func (n *LocallyScopedName) String() string {
	owner := ""
	if n.Owner != nil {
		owner = n.Owner.String()
	}
	return "`" + owner + "'::`" + strconv.FormatUint(n.Index, 10) + "'"
}

// IntegerLiteral is a non-type template argument value.
type IntegerLiteral struct {
	Value    uint64
	Negative bool
}

func (n *IntegerLiteral) Kind() NodeKind { return KindIntegerLiteral }

func (n *IntegerLiteral) String() string {
	if n.Negative {
		return "-" + strconv.FormatUint(n.Value, 10)
	}
	return strconv.FormatUint(n.Value, 10)
}
