package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func prim(name string) *PrimitiveType { return &PrimitiveType{Name: name} }

func TestTypeStringPointer(t *testing.T) {
	tests := []struct {
		name string
		node Node
		want string
	}{
		{"pointer", &PointerType{Pointee: prim("int")}, "int *"},
		{"pointer to pointer", &PointerType{Pointee: &PointerType{Pointee: prim("int")}}, "int **"},
		{"reference", &PointerType{Pointee: prim("int"), Affinity: AffinityReference}, "int &"},
		{"rvalue reference", &PointerType{Pointee: prim("int"), Affinity: AffinityRValueReference}, "int &&"},
		{"const pointer", &PointerType{Pointee: prim("char"), Quals: QualConst}, "char * const"},
		{"pointer to const", &PointerType{Pointee: &QualifiedType{Inner: prim("char"), Quals: QualConst}}, "const char *"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TypeString(tt.node))
		})
	}
}

func TestTypeStringFunctionPointer(t *testing.T) {
	sig := &FunctionSignature{
		ReturnType: prim("int"),
		Params:     []Node{prim("int"), prim("char")},
	}
	ptr := &PointerType{Pointee: sig}
	assert.Equal(t, "int (*)(int, char)", TypeString(ptr))
	assert.Equal(t, "int (*fn)(int, char)", DeclString(ptr, "fn"))
}

func TestTypeStringArray(t *testing.T) {
	arr := &ArrayType{Element: prim("int"), Dimensions: []uint64{2, 3}}
	assert.Equal(t, "int[2][3]", TypeString(arr))

	ptr := &PointerType{Pointee: arr}
	assert.Equal(t, "int (*)[2][3]", TypeString(ptr))
}

func TestTypeStringMemberPointer(t *testing.T) {
	ptr := &PointerType{
		Pointee:     prim("int"),
		ClassParent: &NamedIdentifier{Name: "Foo"},
	}
	assert.Equal(t, "int Foo::*", TypeString(ptr))
}

func TestDeclStringVariadicSignature(t *testing.T) {
	sig := &FunctionSignature{
		ReturnType: prim("void"),
		Params:     []Node{prim("int")},
		Variadic:   true,
	}
	assert.Equal(t, "void printf_like(int, ...)", DeclString(sig, "printf_like"))
}

func TestSignatureThisQualifiers(t *testing.T) {
	sig := &FunctionSignature{
		ReturnType: prim("int"),
		Quals:      QualConst,
		RefQual:    RefQualLValue,
	}
	assert.Equal(t, "int size() const &", DeclString(sig, "size"))
}

// Pointer and reference returns bind to the declarator name with no
// space, matching the variable forms "int *p" and "int &r".
func TestSignatureIndirectReturnSpacing(t *testing.T) {
	ptrRet := &FunctionSignature{
		ReturnType: &PointerType{Pointee: prim("char")},
		Params:     []Node{prim("void")},
	}
	assert.Equal(t, "char *dup(void)", DeclString(ptrRet, "dup"))

	refRet := &FunctionSignature{
		ReturnType: &PointerType{Pointee: prim("int"), Affinity: AffinityReference},
	}
	assert.Equal(t, "int &at()", DeclString(refRet, "at"))
}

func TestQualifiedNameString(t *testing.T) {
	qn := &QualifiedName{Components: []Node{
		&NamedIdentifier{Name: "std"},
		&NamedIdentifier{Name: "vector"},
	}}
	assert.Equal(t, "std::vector", qn.String())
	assert.Equal(t, "vector", qn.Last().String())
}

func TestTemplateInstantiationNestedClosing(t *testing.T) {
	inner := &TemplateInstantiation{Name: &NamedIdentifier{Name: "vector"}, Args: []Node{prim("int")}}
	outer := &TemplateInstantiation{Name: &NamedIdentifier{Name: "list"}, Args: []Node{inner}}
	assert.Equal(t, "list<vector<int> >", outer.String())
}

func TestStructorIdentifier(t *testing.T) {
	class := &NamedIdentifier{Name: "Foo"}
	ctor := &StructorIdentifier{Class: class}
	dtor := &StructorIdentifier{Class: class, IsDestructor: true}
	assert.Equal(t, "Foo", ctor.String())
	assert.Equal(t, "~Foo", dtor.String())
}

func TestFunctionSymbolString(t *testing.T) {
	fn := &FunctionSymbol{
		Name: &QualifiedName{Components: []Node{
			&NamedIdentifier{Name: "Foo"},
			&NamedIdentifier{Name: "bar"},
		}},
		Signature: &FunctionSignature{
			ReturnType: prim("int"),
			Params:     []Node{prim("void")},
		},
		Access:    AccessPublic,
		IsVirtual: true,
	}
	assert.Equal(t, "public: virtual int Foo::bar(void)", fn.String())
}

func TestVariableSymbolString(t *testing.T) {
	v := &VariableSymbol{
		Name:    &QualifiedName{Components: []Node{&NamedIdentifier{Name: "count"}}},
		Type:    prim("int"),
		Storage: StoragePublicStatic,
		Access:  AccessPublic,
	}
	assert.Equal(t, "public: static int count", v.String())
}

func TestPrinterDeterminism(t *testing.T) {
	sig := &FunctionSignature{
		ReturnType: &PointerType{Pointee: prim("char")},
		Params:     []Node{&ArrayType{Element: prim("int"), Dimensions: []uint64{4}}},
	}
	first := TypeString(sig)
	for i := 0; i < 8; i++ {
		assert.Equal(t, first, TypeString(sig))
	}
}
