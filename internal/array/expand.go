package array

import "fmt"

// expandSubarray replaces a sub-array element type with its base type and
// appends the sub-shape's extents to the shape. When strides are present
// (data was supplied by the caller), C-contiguous strides scaled by the
// base element size are synthesized for exactly the appended dimensions.
//
// Expanding past MaxDims is a hard error, never a truncation. One call
// strips one sub-array level; callers loop until none remains.
func expandSubarray(d *Descriptor, shape Shape, strides Strides) (*Descriptor, Shape, Strides, error) {
	sub := d.Sub
	base := sub.Base
	oldnd := len(shape)
	newnd := oldnd + len(sub.Shape)
	if newnd > MaxDims {
		return nil, nil, nil, fmt.Errorf("%w: %d > %d", ErrMaxDims, newnd, MaxDims)
	}

	newShape := make(Shape, newnd)
	copy(newShape, shape)
	copy(newShape[oldnd:], sub.Shape)

	var newStrides Strides
	if strides != nil {
		newStrides = make(Strides, newnd)
		copy(newStrides, strides)
		// Appended dimensions are always C-contiguous.
		size := base.Size
		for i := newnd - 1; i >= oldnd; i-- {
			newStrides[i] = size
			if newShape[i] != 0 {
				size *= newShape[i]
			}
		}
	}

	return base, newShape, newStrides, nil
}
