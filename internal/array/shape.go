package array

import "fmt"

// MaxDims is the hard upper bound on array rank.
const MaxDims = 32

// AxisFlatten is the sentinel axis meaning "flatten all axes first".
const AxisFlatten = MaxDims

// Shape holds the extent of each axis.
type Shape []int

// NumElements returns the total number of elements. A scalar shape has one
// element; any zero extent makes the product zero.
func (s Shape) NumElements() int {
	n := 1
	for _, dim := range s {
		n *= dim
	}
	return n
}

// Equal reports whether two shapes match extent for extent.
func (s Shape) Equal(other Shape) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// Clone returns a copy of the shape.
func (s Shape) Clone() Shape {
	if s == nil {
		return nil
	}
	clone := make(Shape, len(s))
	copy(clone, s)
	return clone
}

// Strides holds the byte offset per unit step along each axis.
type Strides []int

// Equal reports whether two stride vectors match.
func (s Strides) Equal(other Strides) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// Clone returns a copy of the strides.
func (s Strides) Clone() Strides {
	if s == nil {
		return nil
	}
	clone := make(Strides, len(s))
	copy(clone, s)
	return clone
}

// checkAndAdjustAxis wraps a negative axis into [0, ndim) and validates the
// result.
func checkAndAdjustAxis(axis *int, ndim int) error {
	a := *axis
	if a < 0 {
		a += ndim
	}
	if a < 0 || a >= ndim {
		return fmt.Errorf("%w: axis %d for array of dimension %d", ErrBadAxis, *axis, ndim)
	}
	*axis = a
	return nil
}
