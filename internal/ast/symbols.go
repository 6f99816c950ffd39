package ast

import (
	"fmt"
	"strings"
)

// AccessSpecifier identifies member accessibility.
type AccessSpecifier int

const (
	AccessNone AccessSpecifier = iota
	AccessPrivate
	AccessProtected
	AccessPublic
)

func (a AccessSpecifier) String() string {
	switch a {
	case AccessPrivate:
		return "private"
	case AccessProtected:
		return "protected"
	case AccessPublic:
		return "public"
	default:
		return ""
	}
}

// StorageClass identifies how a variable symbol is stored.
type StorageClass int

const (
	StorageNone StorageClass = iota
	StoragePrivateStatic
	StorageProtectedStatic
	StoragePublicStatic
	StorageGlobal
	StorageFunctionLocal
)

// FunctionSymbol is a function with its qualified name and signature.
type FunctionSymbol struct {
	Name      *QualifiedName
	Signature *FunctionSignature
	Access    AccessSpecifier
	IsStatic  bool
	IsVirtual bool
}

func (n *FunctionSymbol) Kind() NodeKind { return KindFunctionSymbol }

func (n *FunctionSymbol) String() string {
	var b strings.Builder
	if n.Access != AccessNone {
		b.WriteString(n.Access.String())
		b.WriteString(": ")
	}
	if n.IsStatic {
		b.WriteString("static ")
	}
	if n.IsVirtual {
		b.WriteString("virtual ")
	}
	if n.Signature == nil {
		b.WriteString(n.Name.String())
		return b.String()
	}
	typePre(&b, n.Signature)
	writeDeclName(&b, n.Name.String())
	typePost(&b, n.Signature)
	return b.String()
}

// VariableSymbol is a variable with its qualified name and type.
type VariableSymbol struct {
	Name    *QualifiedName
	Type    Node // nil for untyped special variables
	Storage StorageClass
	Access  AccessSpecifier
}

func (n *VariableSymbol) Kind() NodeKind { return KindVariableSymbol }

func (n *VariableSymbol) String() string {
	var b strings.Builder
	if n.Access != AccessNone {
		b.WriteString(n.Access.String())
		b.WriteString(": ")
	}
	switch n.Storage {
	case StoragePrivateStatic, StorageProtectedStatic, StoragePublicStatic:
		b.WriteString("static ")
	}
	if n.Type == nil {
		b.WriteString(n.Name.String())
		return b.String()
	}
	typePre(&b, n.Type)
	writeDeclName(&b, n.Name.String())
	typePost(&b, n.Type)
	return b.String()
}

// SpecialTableSymbol is a vftable/vbtable-like construct, optionally
// scoped "for" a second class in diamond hierarchies.
type SpecialTableSymbol struct {
	Name   *QualifiedName
	Target *QualifiedName
	Quals  Qualifiers
}

func (n *SpecialTableSymbol) Kind() NodeKind { return KindSpecialTableSymbol }

func (n *SpecialTableSymbol) String() string {
	var b strings.Builder
	if q := n.Quals.String(); q != "" {
		b.WriteString(q)
		b.WriteByte(' ')
	}
	b.WriteString(n.Name.String())
	if n.Target != nil {
		b.WriteString("{for `")
		b.WriteString(n.Target.String())
		b.WriteString("'}")
	}
	return b.String()
}

// EncodedStringLiteral is a compiler-emitted string constant. The
// mangled form carries a checksum plus a prefix of the bytes; Decoded
// holds whatever prefix could be recovered.
type EncodedStringLiteral struct {
	Decoded string
	IsWide  bool
}

func (n *EncodedStringLiteral) Kind() NodeKind { return KindStringLiteral }
func (n *EncodedStringLiteral) String() string { return "`string'" }

// LocalStaticGuard guards one lazily-initialized function-local
// static. The guard piece is the innermost name component.
type LocalStaticGuard struct {
	Name     *QualifiedName
	IsThread bool
	ScopeNum uint64
}

func (n *LocalStaticGuard) Kind() NodeKind { return KindLocalStaticGuard }

func (n *LocalStaticGuard) String() string {
	s := n.Name.String()
	if n.ScopeNum > 0 {
		s += fmt.Sprintf("{%d}", n.ScopeNum)
	}
	return s
}

// RttiBaseClassDescriptor describes one base class in an RTTI
// hierarchy, with its member-displacement triple and flags.
type RttiBaseClassDescriptor struct {
	Name          *QualifiedName
	NVOffset      uint32
	VBPtrOffset   int32
	VBTableOffset uint32
	Flags         uint32
}

func (n *RttiBaseClassDescriptor) Kind() NodeKind { return KindRttiBaseClassDescriptor }

func (n *RttiBaseClassDescriptor) String() string {
	return fmt.Sprintf("%s::`RTTI Base Class Descriptor at (%d, %d, %d, %d)'",
		n.Name.String(), n.NVOffset, n.VBPtrOffset, n.VBTableOffset, n.Flags)
}
