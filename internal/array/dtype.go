package array

import "fmt"

// Kind classifies element types coarsely, the way casting rules see them.
type Kind int

// Element type kinds.
const (
	KindBool Kind = iota
	KindInt
	KindUint
	KindFloat
	KindString  // byte strings, flexible size
	KindUnicode // 4-byte code units, flexible size
	KindVoid    // raw/composite bytes, flexible size
)

// String returns the single-letter kind code.
func (k Kind) String() string {
	switch k {
	case KindBool:
		return "b"
	case KindInt:
		return "i"
	case KindUint:
		return "u"
	case KindFloat:
		return "f"
	case KindString:
		return "S"
	case KindUnicode:
		return "U"
	case KindVoid:
		return "V"
	default:
		return "?"
	}
}

// ByteOrder describes the stored byte order of an element type.
type ByteOrder int

// Byte orders. IgnoreOrder is used by single-byte and void types for which
// order is meaningless; it compares equal to everything.
const (
	NativeOrder ByteOrder = iota
	SwappedOrder
	IgnoreOrder
)

// SubArray marks an element type that is itself a fixed-shape array of a
// base type. Handles never carry a sub-array descriptor; construction
// expands it into trailing dimensions first.
type SubArray struct {
	Base  *Descriptor
	Shape Shape
}

// Descriptor describes the memory layout of one array element. Descriptors
// are treated as immutable values: anything that needs a different field
// works on a Clone. Sharing a descriptor between handles is therefore safe
// without reference counting.
type Descriptor struct {
	Kind      Kind
	Size      int // element size in bytes; 0 for an unsized flexible type
	Order     ByteOrder
	Sub       *SubArray
	NeedsInit bool // element contains reference-like fields and must be zeroed
}

// Predefined scalar descriptors. These are shared and must not be mutated;
// Clone before changing any field.
var (
	Bool    = &Descriptor{Kind: KindBool, Size: 1, Order: IgnoreOrder}
	Int8    = &Descriptor{Kind: KindInt, Size: 1, Order: IgnoreOrder}
	Int16   = &Descriptor{Kind: KindInt, Size: 2}
	Int32   = &Descriptor{Kind: KindInt, Size: 4}
	Int64   = &Descriptor{Kind: KindInt, Size: 8}
	Uint8   = &Descriptor{Kind: KindUint, Size: 1, Order: IgnoreOrder}
	Uint16  = &Descriptor{Kind: KindUint, Size: 2}
	Uint32  = &Descriptor{Kind: KindUint, Size: 4}
	Uint64  = &Descriptor{Kind: KindUint, Size: 8}
	Float16 = &Descriptor{Kind: KindFloat, Size: 2}
	Float32 = &Descriptor{Kind: KindFloat, Size: 4}
	Float64 = &Descriptor{Kind: KindFloat, Size: 8}
)

// DefaultType is the element type used when a constructor receives none.
var DefaultType = Float64

// StringType returns a byte-string descriptor of n bytes per element.
// n == 0 produces an unsized flexible type.
func StringType(n int) *Descriptor {
	return &Descriptor{Kind: KindString, Size: n, Order: IgnoreOrder}
}

// UnicodeType returns a descriptor of n 4-byte code units per element.
func UnicodeType(n int) *Descriptor {
	return &Descriptor{Kind: KindUnicode, Size: 4 * n}
}

// VoidType returns an opaque n-byte descriptor.
func VoidType(n int) *Descriptor {
	return &Descriptor{Kind: KindVoid, Size: n, Order: IgnoreOrder}
}

// SubArrayType returns a descriptor whose elements are fixed-shape arrays
// of base.
func SubArrayType(base *Descriptor, shape Shape) *Descriptor {
	size := base.Size
	for _, dim := range shape {
		size *= dim
	}
	return &Descriptor{
		Kind:      KindVoid,
		Size:      size,
		Order:     base.Order,
		Sub:       &SubArray{Base: base, Shape: shape.Clone()},
		NeedsInit: base.NeedsInit,
	}
}

// Clone returns a mutable copy sharing no state with the original.
func (d *Descriptor) Clone() *Descriptor {
	c := *d
	if d.Sub != nil {
		c.Sub = &SubArray{Base: d.Sub.Base.Clone(), Shape: d.Sub.Shape.Clone()}
	}
	return &c
}

// IsFlexible reports whether the element size is caller-chosen.
func (d *Descriptor) IsFlexible() bool {
	return d.Kind == KindString || d.Kind == KindUnicode || d.Kind == KindVoid
}

// IsString reports whether the type is a byte-string or unicode type.
func (d *Descriptor) IsString() bool {
	return d.Kind == KindString || d.Kind == KindUnicode
}

// HasSubarray reports whether elements are themselves fixed-shape arrays.
func (d *Descriptor) HasSubarray() bool { return d.Sub != nil }

// IsNativeOrder reports whether stored bytes need no swap before use.
func (d *Descriptor) IsNativeOrder() bool { return d.Order != SwappedOrder }

// Alignment returns the required alignment of the element type in bytes.
func (d *Descriptor) Alignment() int {
	switch d.Size {
	case 2, 4, 8:
		if d.Kind == KindInt || d.Kind == KindUint || d.Kind == KindFloat {
			return d.Size
		}
	}
	return 1
}

// String renders the descriptor in dtype-literal style, e.g. "f8" or "S16".
func (d *Descriptor) String() string {
	prefix := ""
	if d.Order == SwappedOrder {
		prefix = ">"
	}
	if d.Kind == KindUnicode {
		return fmt.Sprintf("%s%s%d", prefix, d.Kind, d.Size/4)
	}
	if d.Sub != nil {
		return fmt.Sprintf("(%s, %v)", d.Sub.Base, []int(d.Sub.Shape))
	}
	return fmt.Sprintf("%s%s%d", prefix, d.Kind, d.Size)
}
