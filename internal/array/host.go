package array

import (
	"encoding/binary"
	"fmt"
	"math"
	"reflect"

	"github.com/x448/float16"
)

// HostArray is a strided array resident in ordinary host memory. It is the
// source and sink of host<->device transfers and the result of converting
// arbitrary Go values.
type HostArray struct {
	descr   *Descriptor
	shape   Shape
	strides Strides
	data    []byte
	flags   Flags
}

// NewHostArray allocates a contiguous host array. Fortran layout is
// requested with the FContiguous flag, matching NewFromDescr.
func NewHostArray(d *Descriptor, shape Shape, flags Flags) (*HostArray, error) {
	if len(shape) > MaxDims {
		return nil, fmt.Errorf("%w: number of dimensions must be within [0, %d]", ErrBadRank, MaxDims)
	}
	for d.HasSubarray() {
		var err error
		d, shape, _, err = expandSubarray(d, shape, nil)
		if err != nil {
			return nil, err
		}
	}
	nbytes, empty, err := validateShape(shape, d.Size)
	if err != nil {
		return nil, err
	}
	if empty {
		nbytes = d.Size
	}
	h := &HostArray{
		descr: d,
		shape: shape.Clone(),
		data:  make([]byte, nbytes),
		flags: DefaultFlags,
	}
	if len(shape) > 0 {
		h.strides = make(Strides, len(shape))
		h.flags = fillStrides(h.strides, h.shape, d.Size, flags&FContiguous, h.flags)
	} else {
		h.flags |= CContiguous | FContiguous
	}
	return h, nil
}

// Descr returns the element type descriptor.
func (h *HostArray) Descr() *Descriptor { return h.descr }

// Shape returns the extents.
func (h *HostArray) Shape() Shape { return h.shape }

// Strides returns the byte strides.
func (h *HostArray) Strides() Strides { return h.strides }

// NDim returns the rank.
func (h *HostArray) NDim() int { return len(h.shape) }

// Flags returns the predicate bits.
func (h *HostArray) Flags() Flags { return h.flags }

// Size returns the total number of elements.
func (h *HostArray) Size() int { return h.shape.NumElements() }

// Bytes exposes the backing slab.
func (h *HostArray) Bytes() []byte { return h.data }

// Float64s decodes every element through the float channel, in C iteration
// order. Intended for tests and debugging.
func (h *HostArray) Float64s() []float64 {
	out := make([]float64, h.Size())
	it := newIndexIter(h.shape)
	for i := range out {
		off := it.offset(h.strides)
		out[i] = readElem(h.data[off:], h.descr).toFloat()
		it.next()
	}
	return out
}

// FromGoValue converts a Go scalar or (arbitrarily nested) slice into a
// host array. A nil dtype infers the element type from the value; an
// explicit dtype casts every element on the way in. This realizes the
// "construct from an arbitrary host value" path for non-array inputs.
func FromGoValue(value any, d *Descriptor) (*HostArray, error) {
	shape, err := nestedShape(reflect.ValueOf(value), 0)
	if err != nil {
		return nil, err
	}
	if d == nil {
		if d = inferDescr(reflect.ValueOf(value), len(shape)); d == nil {
			return nil, fmt.Errorf("cannot infer an element type from %T", value)
		}
	}
	h, err := NewHostArray(d, shape, 0)
	if err != nil {
		return nil, err
	}
	pos := 0
	if err := fillFromValue(h, reflect.ValueOf(value), &pos); err != nil {
		return nil, err
	}
	return h, nil
}

// nestedShape walks nested slices, requiring rectangular nesting.
func nestedShape(v reflect.Value, depth int) (Shape, error) {
	if depth > MaxDims {
		return nil, fmt.Errorf("%w: value nests deeper than %d", ErrBadRank, MaxDims)
	}
	if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
		return Shape{}, nil
	}
	if v.Len() == 0 {
		return Shape{0}, nil
	}
	inner, err := nestedShape(v.Index(0), depth+1)
	if err != nil {
		return nil, err
	}
	for i := 1; i < v.Len(); i++ {
		other, err := nestedShape(v.Index(i), depth+1)
		if err != nil {
			return nil, err
		}
		if !inner.Equal(other) {
			return nil, fmt.Errorf("ragged nested value at index %d", i)
		}
	}
	return append(Shape{v.Len()}, inner...), nil
}

func inferDescr(v reflect.Value, depth int) *Descriptor {
	for i := 0; i < depth; i++ {
		if v.Len() == 0 {
			return DefaultType
		}
		v = v.Index(0)
	}
	switch v.Kind() {
	case reflect.Bool:
		return Bool
	case reflect.Int8:
		return Int8
	case reflect.Int16:
		return Int16
	case reflect.Int32:
		return Int32
	case reflect.Int64, reflect.Int:
		return Int64
	case reflect.Uint8:
		return Uint8
	case reflect.Uint16:
		return Uint16
	case reflect.Uint32:
		return Uint32
	case reflect.Uint64, reflect.Uint:
		return Uint64
	case reflect.Float32:
		return Float32
	case reflect.Float64:
		return Float64
	default:
		return nil
	}
}

func fillFromValue(h *HostArray, v reflect.Value, pos *int) error {
	if v.Kind() == reflect.Slice || v.Kind() == reflect.Array {
		for i := 0; i < v.Len(); i++ {
			if err := fillFromValue(h, v.Index(i), pos); err != nil {
				return err
			}
		}
		return nil
	}
	var el value
	switch v.Kind() {
	case reflect.Bool:
		el = value{kind: KindBool, b: v.Bool()}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		el = value{kind: KindInt, i: v.Int()}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		el = value{kind: KindUint, u: v.Uint()}
	case reflect.Float32, reflect.Float64:
		el = value{kind: KindFloat, f: v.Float()}
	default:
		return fmt.Errorf("unsupported element %s", v.Kind())
	}
	writeElem(h.data[*pos*h.descr.Size:], h.descr, el)
	*pos++
	return nil
}

// value is the canonical element channel casts flow through: one field per
// kind group, tagged by kind.
type value struct {
	kind Kind
	b    bool
	i    int64
	u    uint64
	f    float64
}

func (v value) toFloat() float64 {
	switch v.kind {
	case KindBool:
		if v.b {
			return 1
		}
		return 0
	case KindInt:
		return float64(v.i)
	case KindUint:
		return float64(v.u)
	default:
		return v.f
	}
}

func (v value) toInt() int64 {
	switch v.kind {
	case KindBool:
		if v.b {
			return 1
		}
		return 0
	case KindUint:
		return int64(v.u)
	case KindFloat:
		return int64(v.f)
	default:
		return v.i
	}
}

func (v value) toUint() uint64 {
	switch v.kind {
	case KindBool:
		if v.b {
			return 1
		}
		return 0
	case KindInt:
		return uint64(v.i)
	case KindFloat:
		return uint64(v.f)
	default:
		return v.u
	}
}

func (v value) toBool() bool {
	switch v.kind {
	case KindBool:
		return v.b
	case KindInt:
		return v.i != 0
	case KindUint:
		return v.u != 0
	default:
		return v.f != 0
	}
}

// readElem decodes one element at p[0:d.Size], honoring a swapped byte
// order. Only fixed-size numeric kinds flow through the value channel;
// flexible kinds are copied bytewise by the assign kernels.
func readElem(p []byte, d *Descriptor) value {
	var raw uint64
	switch d.Size {
	case 1:
		raw = uint64(p[0])
	case 2:
		if d.IsNativeOrder() {
			raw = uint64(binary.NativeEndian.Uint16(p))
		} else {
			raw = uint64(swappedOrder16(p))
		}
	case 4:
		if d.IsNativeOrder() {
			raw = uint64(binary.NativeEndian.Uint32(p))
		} else {
			raw = uint64(swappedOrder32(p))
		}
	default:
		if d.IsNativeOrder() {
			raw = binary.NativeEndian.Uint64(p)
		} else {
			raw = swappedOrder64(p)
		}
	}
	switch d.Kind {
	case KindBool:
		return value{kind: KindBool, b: raw != 0}
	case KindInt:
		return value{kind: KindInt, i: signExtend(raw, d.Size)}
	case KindUint:
		return value{kind: KindUint, u: raw}
	default:
		switch d.Size {
		case 2:
			return value{kind: KindFloat, f: float64(float16.Frombits(uint16(raw)).Float32())}
		case 4:
			return value{kind: KindFloat, f: float64(math.Float32frombits(uint32(raw)))}
		default:
			return value{kind: KindFloat, f: math.Float64frombits(raw)}
		}
	}
}

// writeElem encodes one element into p[0:d.Size], honoring a swapped byte
// order and converting v through the canonical channel for d's kind.
func writeElem(p []byte, d *Descriptor, v value) {
	var raw uint64
	switch d.Kind {
	case KindBool:
		if v.toBool() {
			raw = 1
		}
	case KindInt:
		raw = uint64(v.toInt()) & sizeMask(d.Size)
	case KindUint:
		raw = v.toUint() & sizeMask(d.Size)
	default:
		switch d.Size {
		case 2:
			raw = uint64(float16.Fromfloat32(float32(v.toFloat())).Bits())
		case 4:
			raw = uint64(math.Float32bits(float32(v.toFloat())))
		default:
			raw = math.Float64bits(v.toFloat())
		}
	}
	switch d.Size {
	case 1:
		p[0] = byte(raw)
	case 2:
		binary.NativeEndian.PutUint16(p, uint16(raw))
		if !d.IsNativeOrder() {
			byteSwapVector(p, 1, 2)
		}
	case 4:
		binary.NativeEndian.PutUint32(p, uint32(raw))
		if !d.IsNativeOrder() {
			byteSwapVector(p, 1, 4)
		}
	default:
		binary.NativeEndian.PutUint64(p, raw)
		if !d.IsNativeOrder() {
			byteSwapVector(p, 1, 8)
		}
	}
}

func signExtend(raw uint64, size int) int64 {
	shift := 64 - 8*size
	return int64(raw<<shift) >> shift
}

func sizeMask(size int) uint64 {
	if size >= 8 {
		return ^uint64(0)
	}
	return (uint64(1) << (8 * size)) - 1
}

func swappedOrder16(p []byte) uint16 {
	v := binary.NativeEndian.Uint16(p)
	return v<<8 | v>>8
}

func swappedOrder32(p []byte) uint32 {
	var b [4]byte
	b[0], b[1], b[2], b[3] = p[3], p[2], p[1], p[0]
	return binary.NativeEndian.Uint32(b[:])
}

func swappedOrder64(p []byte) uint64 {
	var b [8]byte
	for i := range b {
		b[i] = p[7-i]
	}
	return binary.NativeEndian.Uint64(b[:])
}
