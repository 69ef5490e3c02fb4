package pintype

import "fmt"

// Kind is the outer shape of a pin type.
type Kind uint8

const (
	KindWildcard Kind = iota
	KindScalar
	KindBuffer
	KindBufferArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindWildcard:
		return "wildcard"
	case KindScalar:
		return "scalar"
	case KindBuffer:
		return "buffer"
	case KindBufferArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Inner is the element type of scalar and buffer kinds.
type Inner uint8

const (
	InnerNone Inner = iota
	InnerBool
	InnerInt
	InnerFloat
	InnerSeed
	InnerName
	InnerVector2D
	InnerVector
)

var innerNames = map[Inner]string{
	InnerBool:     "bool",
	InnerInt:      "int",
	InnerFloat:    "float",
	InnerSeed:     "seed",
	InnerName:     "name",
	InnerVector2D: "vector2d",
	InnerVector:   "vector",
}

func (i Inner) String() string {
	if name, ok := innerNames[i]; ok {
		return name
	}
	return "none"
}

// InnerByName resolves a keyword such as "float" to its Inner value.
func InnerByName(name string) (Inner, bool) {
	for inner, n := range innerNames {
		if n == name {
			return inner, true
		}
	}
	return InnerNone, false
}

// Type describes the values a pin accepts or produces. The zero value is
// the wildcard type.
type Type struct {
	Kind  Kind
	Inner Inner
	Class string
}

// Wildcard returns the unresolved type.
func Wildcard() Type { return Type{} }

// Scalar returns a single-value type.
func Scalar(inner Inner) Type { return Type{Kind: KindScalar, Inner: inner} }

// Buffer returns a homogeneous buffer of inner values.
func Buffer(inner Inner) Type { return Type{Kind: KindBuffer, Inner: inner} }

// BufferArray returns an array of buffers of inner values.
func BufferArray(inner Inner) Type { return Type{Kind: KindBufferArray, Inner: inner} }

// Object returns an opaque object type of the given class. The empty class
// is the base of every object class.
func Object(class string) Type { return Type{Kind: KindObject, Class: class} }

var (
	Bool     = Scalar(InnerBool)
	Int      = Scalar(InnerInt)
	Float    = Scalar(InnerFloat)
	Seed     = Scalar(InnerSeed)
	Name     = Scalar(InnerName)
	Vector2D = Scalar(InnerVector2D)
	Vector   = Scalar(InnerVector)
)

func (t Type) IsWildcard() bool    { return t.Kind == KindWildcard }
func (t Type) IsScalar() bool      { return t.Kind == KindScalar }
func (t Type) IsBuffer() bool      { return t.Kind == KindBuffer }
func (t Type) IsBufferArray() bool { return t.Kind == KindBufferArray }
func (t Type) IsObject() bool      { return t.Kind == KindObject }

// InnerType returns the scalar element type of a buffer or buffer array.
// Scalars, objects and wildcards are returned unchanged.
func (t Type) InnerType() Type {
	switch t.Kind {
	case KindBuffer, KindBufferArray:
		return Scalar(t.Inner)
	default:
		return t
	}
}

// BufferType returns the buffer counterpart of a scalar type. Buffers are
// returned unchanged; other kinds have no buffer form and are returned as is.
func (t Type) BufferType() Type {
	if t.Kind == KindScalar {
		return Buffer(t.Inner)
	}
	return t
}

// WithBufferness switches a scalar or buffer type between its two forms
// while keeping the inner type.
func (t Type) WithBufferness(buffer bool) Type {
	switch {
	case t.Kind == KindScalar && buffer:
		return Buffer(t.Inner)
	case t.Kind == KindBuffer && !buffer:
		return Scalar(t.Inner)
	default:
		return t
	}
}

// HasDefault reports whether pins of this type can carry a default value.
func (t Type) HasDefault() bool {
	switch t.Kind {
	case KindScalar, KindBuffer:
		return t.Inner != InnerNone
	default:
		return false
	}
}

// CanCastTo reports whether a value of type t may flow into a pin of type to.
// A scalar flowing into a buffer of the same element type is allowed; the
// compiler materializes the conversion.
func (t Type) CanCastTo(to Type) bool {
	if t == to || t.IsWildcard() || to.IsWildcard() {
		return true
	}
	switch {
	case t.Kind == KindObject && to.Kind == KindObject:
		return to.Class == ""
	case t.Kind == KindScalar && to.Kind == KindBuffer:
		return innerCastable(t.Inner, to.Inner)
	case t.Kind == to.Kind && t.Kind != KindObject:
		return innerCastable(t.Inner, to.Inner)
	}
	return false
}

func innerCastable(from, to Inner) bool {
	if from == to {
		return true
	}
	// Ints and seeds share the number representation with floats.
	return (from == InnerInt || from == InnerSeed) && to == InnerFloat
}

func (t Type) String() string {
	switch t.Kind {
	case KindWildcard:
		return "wildcard"
	case KindScalar:
		return t.Inner.String()
	case KindBuffer:
		return fmt.Sprintf("buffer(%s)", t.Inner)
	case KindBufferArray:
		return fmt.Sprintf("array(%s)", t.Inner)
	case KindObject:
		if t.Class == "" {
			return "object"
		}
		return fmt.Sprintf("object(%s)", t.Class)
	default:
		return t.Kind.String()
	}
}
