package ast

import (
	"strconv"
	"strings"
)

// PrimitiveType is a built-in type, stored by its source spelling.
type PrimitiveType struct {
	Name string
}

func (n *PrimitiveType) Kind() NodeKind { return KindPrimitiveType }
func (n *PrimitiveType) String() string { return n.Name }

// PointerAffinity distinguishes the pointer-like type flavors.
type PointerAffinity int

const (
	AffinityPointer PointerAffinity = iota
	AffinityReference
	AffinityRValueReference
)

func (a PointerAffinity) token() string {
	switch a {
	case AffinityReference:
		return "&"
	case AffinityRValueReference:
		return "&&"
	default:
		return "*"
	}
}

// PointerType is a pointer, reference, or rvalue reference. A non-nil
// ClassParent makes it a pointer-to-member of that class.
type PointerType struct {
	Pointee     Node
	Affinity    PointerAffinity
	Quals       Qualifiers
	ClassParent Node
}

func (n *PointerType) Kind() NodeKind { return KindPointerType }
func (n *PointerType) String() string { return TypeString(n) }

// ArrayType is an element type with one or more dimensions.
type ArrayType struct {
	Element    Node
	Dimensions []uint64
}

func (n *ArrayType) Kind() NodeKind { return KindArrayType }
func (n *ArrayType) String() string { return TypeString(n) }

// RefQualifier is a member function's ref-qualifier.
type RefQualifier int

const (
	RefQualNone RefQualifier = iota
	RefQualLValue
	RefQualRValue
)

// FunctionSignature carries everything about a function type except
// its name: convention, return type, ordered parameters, variadic
// flag, and this-qualifiers.
type FunctionSignature struct {
	CallConv   string // "" means the platform default and is not printed
	ReturnType Node   // nil for structors and conversion operators
	Params     []Node
	Variadic   bool
	Quals      Qualifiers // this-qualifiers on member functions
	RefQual    RefQualifier
}

func (n *FunctionSignature) Kind() NodeKind { return KindFunctionSignature }
func (n *FunctionSignature) String() string { return TypeString(n) }

func (n *FunctionSignature) writeParams(b *strings.Builder) {
	b.WriteByte('(')
	for i, p := range n.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(TypeString(p))
	}
	if n.Variadic {
		if len(n.Params) > 0 {
			b.WriteString(", ")
		}
		b.WriteString("...")
	}
	b.WriteByte(')')
	if q := n.Quals.String(); q != "" {
		b.WriteByte(' ')
		b.WriteString(q)
	}
	switch n.RefQual {
	case RefQualLValue:
		b.WriteString(" &")
	case RefQualRValue:
		b.WriteString(" &&")
	}
}

// TagKind identifies the record flavor of a TagType.
type TagKind int

const (
	TagClass TagKind = iota
	TagStruct
	TagUnion
	TagEnum
)

func (t TagKind) String() string {
	switch t {
	case TagStruct:
		return "struct"
	case TagUnion:
		return "union"
	case TagEnum:
		return "enum"
	default:
		return "class"
	}
}

// TagType references a class, struct, union, or enum by name.
type TagType struct {
	Tag  TagKind
	Name *QualifiedName
}

func (n *TagType) Kind() NodeKind { return KindTagType }
func (n *TagType) String() string { return n.Tag.String() + " " + n.Name.String() }

// CustomType is a vendor-extended type spelled out in the mangling.
type CustomType struct {
	Name Node
}

func (n *CustomType) Kind() NodeKind { return KindCustomType }
func (n *CustomType) String() string { return n.Name.String() }

// QualifiedType wraps a type with cv-qualifiers.
type QualifiedType struct {
	Inner Node
	Quals Qualifiers
}

func (n *QualifiedType) Kind() NodeKind { return KindQualifiedType }
func (n *QualifiedType) String() string { return TypeString(n) }

func formatDimensions(dims []uint64) string {
	if len(dims) == 0 {
		return "[]"
	}
	var b strings.Builder
	for _, d := range dims {
		b.WriteByte('[')
		b.WriteString(strconv.FormatUint(d, 10))
		b.WriteByte(']')
	}
	return b.String()
}
