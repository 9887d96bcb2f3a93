package array

import (
	"errors"
	"testing"
)

func TestExpandSubarray(t *testing.T) {
	d := SubArrayType(Float32, Shape{4, 5})
	base, shape, strides, err := expandSubarray(d, Shape{3}, nil)
	if err != nil {
		t.Fatalf("expandSubarray failed: %v", err)
	}
	if base != d.Sub.Base {
		t.Errorf("base = %v, want the sub-array base type", base)
	}
	if !shape.Equal(Shape{3, 4, 5}) {
		t.Errorf("shape = %v, want [3 4 5]", shape)
	}
	if strides != nil {
		t.Errorf("strides = %v, want nil for a nil input", strides)
	}
}

func TestExpandSubarrayWithStrides(t *testing.T) {
	d := SubArrayType(Float32, Shape{4, 5})
	_, _, strides, err := expandSubarray(d, Shape{3}, Strides{100})
	if err != nil {
		t.Fatalf("expandSubarray failed: %v", err)
	}
	// Appended dims get fresh C-contiguous strides in base-type units.
	if !strides.Equal(Strides{100, 20, 4}) {
		t.Errorf("strides = %v, want [100 20 4]", strides)
	}
}

func TestExpandSubarrayNested(t *testing.T) {
	inner := SubArrayType(Int16, Shape{2})
	outer := SubArrayType(inner, Shape{3})
	base, shape, _, err := expandSubarray(outer, Shape{4}, nil)
	if err != nil {
		t.Fatalf("expandSubarray failed: %v", err)
	}
	// One call strips one level.
	if !base.HasSubarray() {
		t.Fatal("nested sub-array resolved in a single pass")
	}
	if !shape.Equal(Shape{4, 3}) {
		t.Errorf("shape = %v, want [4 3]", shape)
	}
}

func TestExpandSubarrayTooDeep(t *testing.T) {
	d := SubArrayType(Float64, Shape{2, 2})
	shape := make(Shape, MaxDims-1)
	for i := range shape {
		shape[i] = 1
	}
	_, _, _, err := expandSubarray(d, shape, nil)
	if !errors.Is(err, ErrMaxDims) {
		t.Fatalf("err = %v, want ErrMaxDims", err)
	}
}
