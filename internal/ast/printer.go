package ast

import "strings"

// The printer is a pure function of the node tree. Composite types are
// rendered in two passes, the text to the left of where a declarator
// name would sit and the text to the right, so pointer-to-function and
// pointer-to-array nest with the parenthesization the source language
// requires.

// TypeString renders a type node as it would appear in a declaration
// with no declarator name.
func TypeString(n Node) string {
	var b strings.Builder
	typePre(&b, n)
	typePost(&b, n)
	return b.String()
}

// DeclString renders a declaration of name with type n, placing the
// name between the two printing passes.
func DeclString(n Node, name string) string {
	var b strings.Builder
	typePre(&b, n)
	writeDeclName(&b, name)
	typePost(&b, n)
	return b.String()
}

func writeDeclName(b *strings.Builder, name string) {
	if s := b.String(); s != "" && !strings.HasSuffix(s, "*") &&
		!strings.HasSuffix(s, "&") && !strings.HasSuffix(s, "(") &&
		!strings.HasSuffix(s, " ") {
		b.WriteByte(' ')
	}
	b.WriteString(name)
}

// needsParens reports whether a pointer to t must wrap its declarator
// in parentheses to keep the right precedence.
func needsParens(t Node) bool {
	switch t := t.(type) {
	case *FunctionSignature, *ArrayType:
		return true
	case *QualifiedType:
		return needsParens(t.Inner)
	}
	return false
}

func typePre(b *strings.Builder, n Node) {
	switch t := n.(type) {
	case *PointerType:
		typePre(b, t.Pointee)
		s := b.String()
		if needsParens(t.Pointee) {
			if s != "" && !strings.HasSuffix(s, " ") {
				b.WriteByte(' ')
			}
			b.WriteByte('(')
		} else if s != "" && !strings.HasSuffix(s, " ") &&
			!strings.HasSuffix(s, "*") && !strings.HasSuffix(s, "&") {
			b.WriteByte(' ')
		}
		if t.ClassParent != nil {
			b.WriteString(t.ClassParent.String())
			b.WriteString("::")
		}
		b.WriteString(t.Affinity.token())
		if q := t.Quals.String(); q != "" {
			b.WriteByte(' ')
			b.WriteString(q)
		}
	case *ArrayType:
		typePre(b, t.Element)
	case *FunctionSignature:
		if t.ReturnType != nil {
			typePre(b, t.ReturnType)
			// Pointer and reference returns bind to the declarator with
			// no intervening space, like "int *f()".
			if s := b.String(); !strings.HasSuffix(s, "*") &&
				!strings.HasSuffix(s, "&") {
				b.WriteByte(' ')
			}
		}
		if t.CallConv != "" {
			b.WriteString(t.CallConv)
			b.WriteByte(' ')
		}
	case *QualifiedType:
		if q := t.Quals.String(); q != "" {
			b.WriteString(q)
			b.WriteByte(' ')
		}
		typePre(b, t.Inner)
	default:
		b.WriteString(n.String())
	}
}

func typePost(b *strings.Builder, n Node) {
	switch t := n.(type) {
	case *PointerType:
		if needsParens(t.Pointee) {
			b.WriteByte(')')
		}
		typePost(b, t.Pointee)
	case *ArrayType:
		b.WriteString(formatDimensions(t.Dimensions))
		typePost(b, t.Element)
	case *FunctionSignature:
		t.writeParams(b)
		if t.ReturnType != nil {
			typePost(b, t.ReturnType)
		}
	case *QualifiedType:
		typePost(b, t.Inner)
	}
}
