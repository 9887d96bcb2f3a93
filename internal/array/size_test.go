package array

import (
	"errors"
	"math"
	"testing"
)

func TestMulNoOverflow(t *testing.T) {
	tests := []struct {
		a, b, want int
		ok         bool
	}{
		{0, math.MaxInt, 0, true},
		{3, 7, 21, true},
		{math.MaxInt, 1, math.MaxInt, true},
		{math.MaxInt, 2, 0, false},
		{math.MaxInt / 2, 3, 0, false},
	}
	for _, tt := range tests {
		got, ok := mulNoOverflow(tt.a, tt.b)
		if got != tt.want || ok != tt.ok {
			t.Errorf("mulNoOverflow(%d, %d) = (%d, %v), want (%d, %v)",
				tt.a, tt.b, got, ok, tt.want, tt.ok)
		}
	}
}

func TestValidateShape(t *testing.T) {
	tests := []struct {
		shape    Shape
		elemSize int
		nbytes   int
		empty    bool
	}{
		{Shape{2, 3}, 8, 48, false},
		{Shape{}, 8, 8, false},
		{Shape{0}, 8, 8, true},
		{Shape{3, 0, 4}, 2, 24, true},
		{Shape{1, 1, 1}, 4, 4, false},
	}
	for _, tt := range tests {
		nbytes, empty, err := validateShape(tt.shape, tt.elemSize)
		if err != nil {
			t.Errorf("validateShape(%v, %d) failed: %v", tt.shape, tt.elemSize, err)
			continue
		}
		if nbytes != tt.nbytes || empty != tt.empty {
			t.Errorf("validateShape(%v, %d) = (%d, %v), want (%d, %v)",
				tt.shape, tt.elemSize, nbytes, empty, tt.nbytes, tt.empty)
		}
	}
}

func TestValidateShapeNegativeDim(t *testing.T) {
	_, _, err := validateShape(Shape{2, -1, 3}, 8)
	if !errors.Is(err, ErrNegativeDim) {
		t.Fatalf("err = %v, want ErrNegativeDim", err)
	}
}

func TestValidateShapeOverflow(t *testing.T) {
	_, _, err := validateShape(Shape{math.MaxInt, 2}, 1)
	if !errors.Is(err, ErrOverflow) {
		t.Fatalf("err = %v, want ErrOverflow", err)
	}
	_, _, err = validateShape(Shape{math.MaxInt / 4, 2}, 8)
	if !errors.Is(err, ErrOverflow) {
		t.Fatalf("err = %v, want ErrOverflow", err)
	}
}

func TestCheckAndAdjustAxis(t *testing.T) {
	tests := []struct {
		axis, ndim, want int
		ok               bool
	}{
		{0, 3, 0, true},
		{2, 3, 2, true},
		{-1, 3, 2, true},
		{-3, 3, 0, true},
		{3, 3, 0, false},
		{-4, 3, 0, false},
	}
	for _, tt := range tests {
		axis := tt.axis
		err := checkAndAdjustAxis(&axis, tt.ndim)
		if tt.ok {
			if err != nil {
				t.Errorf("checkAndAdjustAxis(%d, %d) failed: %v", tt.axis, tt.ndim, err)
			} else if axis != tt.want {
				t.Errorf("checkAndAdjustAxis(%d, %d) = %d, want %d", tt.axis, tt.ndim, axis, tt.want)
			}
			continue
		}
		if !errors.Is(err, ErrBadAxis) {
			t.Errorf("checkAndAdjustAxis(%d, %d) = %v, want ErrBadAxis", tt.axis, tt.ndim, err)
		}
	}
}
