package array

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcastStrides(t *testing.T) {
	tests := []struct {
		srcShape   Shape
		srcStrides Strides
		dstShape   Shape
		want       Strides
	}{
		{Shape{3, 4}, Strides{32, 8}, Shape{3, 4}, Strides{32, 8}},
		{Shape{3, 1}, Strides{8, 8}, Shape{3, 4}, Strides{8, 0}},
		{Shape{4}, Strides{8}, Shape{3, 4}, Strides{0, 8}},
		{Shape{}, nil, Shape{2, 2}, Strides{0, 0}},
		{Shape{1}, Strides{8}, Shape{5}, Strides{0}},
	}
	for _, tt := range tests {
		got, err := broadcastStrides(tt.srcShape, tt.srcStrides, tt.dstShape)
		if err != nil {
			t.Errorf("broadcastStrides(%v -> %v) failed: %v", tt.srcShape, tt.dstShape, err)
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("broadcastStrides(%v -> %v) = %v, want %v", tt.srcShape, tt.dstShape, got, tt.want)
		}
	}
}

func TestBroadcastStridesMismatch(t *testing.T) {
	_, err := broadcastStrides(Shape{3}, Strides{8}, Shape{4})
	assert.ErrorIs(t, err, ErrBroadcast)

	_, err = broadcastStrides(Shape{2, 3}, Strides{24, 8}, Shape{3})
	assert.ErrorIs(t, err, ErrBroadcast)
}

func TestByteExtent(t *testing.T) {
	lo, hi := byteExtent(Shape{2, 3}, Strides{24, 8}, 8)
	assert.Equal(t, 0, lo)
	assert.Equal(t, 48, hi)

	lo, hi = byteExtent(Shape{3}, Strides{-8}, 8)
	assert.Equal(t, -16, lo)
	assert.Equal(t, 8, hi)

	lo, hi = byteExtent(Shape{0, 4}, Strides{8, 2}, 2)
	assert.Equal(t, 0, lo)
	assert.Equal(t, 2, hi)
}

func TestCopyIntoSameType(t *testing.T) {
	f := testFactory(t, 1)
	src := deviceFromFloat64s(t, f, 0, []float64{1, 2, 3, 4})
	defer src.Release()
	dst, err := f.Empty(0, Shape{4}, Float64, false)
	require.NoError(t, err)
	defer dst.Release()

	require.NoError(t, f.CopyInto(dst, src, NoCasting))
	assert.Equal(t, []float64{1, 2, 3, 4}, hostFloat64s(t, f, dst))
}

func TestCopyIntoBroadcast(t *testing.T) {
	f := testFactory(t, 1)
	src := deviceFromFloat64s(t, f, 0, []float64{1, 2, 3})
	defer src.Release()
	dst, err := f.Zeros(0, Shape{2, 3}, Float64, false)
	require.NoError(t, err)
	defer dst.Release()

	require.NoError(t, f.CopyInto(dst, src, SafeCasting))
	assert.Equal(t, []float64{1, 2, 3, 1, 2, 3}, hostFloat64s(t, f, dst))
}

func TestCopyIntoCast(t *testing.T) {
	f := testFactory(t, 1)
	src := deviceFromFloat64s(t, f, 0, []float64{1.7, -2.2, 40000})
	defer src.Release()
	dst, err := f.Empty(0, Shape{3}, Int32, false)
	require.NoError(t, err)
	defer dst.Release()

	require.Error(t, f.CopyInto(dst, src, SafeCasting))
	require.NoError(t, f.CopyInto(dst, src, UnsafeCasting))
	assert.Equal(t, []float64{1, -2, 40000}, hostFloat64s(t, f, dst))
}

func TestCopyIntoCastRuleError(t *testing.T) {
	f := testFactory(t, 1)
	src, err := f.Zeros(0, Shape{2}, Int32, false)
	require.NoError(t, err)
	defer src.Release()
	dst, err := f.Empty(0, Shape{2}, Int64, false)
	require.NoError(t, err)
	defer dst.Release()

	err = f.CopyInto(dst, src, NoCasting)
	require.ErrorIs(t, err, ErrCast)
	assert.Contains(t, err.Error(), "'no'")
}

func TestCopyIntoReadOnlyDestination(t *testing.T) {
	f := testFactory(t, 1)
	src, err := f.Zeros(0, Shape{2}, Float64, false)
	require.NoError(t, err)
	defer src.Release()

	buf, err := f.Devices().Alloc(0, 16)
	require.NoError(t, err)
	defer buf.Release()
	dst, err := f.NewFromDescr(0, Float64, Shape{2}, &NewOptions{Data: buf, Flags: CContiguous | Aligned})
	require.NoError(t, err)
	defer dst.Release()

	err = f.CopyInto(dst, src, SafeCasting)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not writeable")
}

func TestCopyIntoCrossDevice(t *testing.T) {
	f := testFactory(t, 2)
	src := deviceFromFloat64s(t, f, 0, []float64{5, 6})
	defer src.Release()
	dst, err := f.Empty(1, Shape{2}, Float64, false)
	require.NoError(t, err)
	defer dst.Release()

	require.NoError(t, f.CopyInto(dst, src, SafeCasting))
	assert.Equal(t, []float64{5, 6}, hostFloat64s(t, f, dst))
}

func TestCopyIntoFortranDestination(t *testing.T) {
	f := testFactory(t, 1)
	src := deviceFromFloat64s(t, f, 0, [][]float64{{1, 2, 3}, {4, 5, 6}})
	defer src.Release()
	dst, err := f.Empty(0, Shape{2, 3}, Float64, true)
	require.NoError(t, err)
	defer dst.Release()

	require.NoError(t, f.CopyInto(dst, src, SafeCasting))
	// C iteration order is preserved regardless of the layouts.
	assert.Equal(t, []float64{1, 2, 3, 4, 5, 6}, hostFloat64s(t, f, dst))
}

func TestCopyIntoStridedRowsThreeDim(t *testing.T) {
	f := testFactory(t, 1)
	src := deviceFromFloat64s(t, f, 0, [][][]float64{
		{{1, 2}, {3, 4}},
		{{5, 6}, {7, 8}},
	})
	defer src.Release()
	dst, err := f.Empty(0, Shape{2, 2, 2}, Float64, true)
	require.NoError(t, err)
	defer dst.Release()

	// Same element type, so whole rows move as strided byte copies across
	// every axis combination of the Fortran destination.
	require.NoError(t, f.CopyInto(dst, src, SafeCasting))
	assert.Equal(t, []float64{1, 2, 3, 4, 5, 6, 7, 8}, hostFloat64s(t, f, dst))
}

func TestCopyStringsTruncateAndPad(t *testing.T) {
	f := testFactory(t, 1)
	host, err := NewHostArray(StringType(4), Shape{2}, 0)
	require.NoError(t, err)
	copy(host.Bytes(), "abcdefgh")

	narrow, err := f.Empty(0, Shape{2}, StringType(2), false)
	require.NoError(t, err)
	defer narrow.Release()
	require.NoError(t, f.CopyIntoFromHost(narrow, host, UnsafeCasting))
	got := make([]byte, 4)
	require.NoError(t, narrow.ReadBytes(got, 0))
	assert.Equal(t, []byte("abef"), got)

	wide, err := f.Empty(0, Shape{2}, StringType(6), false)
	require.NoError(t, err)
	defer wide.Release()
	require.NoError(t, f.CopyIntoFromHost(wide, host, SafeCasting))
	got = make([]byte, 12)
	require.NoError(t, wide.ReadBytes(got, 0))
	assert.Equal(t, []byte("abcd\x00\x00efgh\x00\x00"), got)
}

func TestCopyStringToNumericUnsupported(t *testing.T) {
	f := testFactory(t, 1)
	host, err := NewHostArray(StringType(8), Shape{2}, 0)
	require.NoError(t, err)
	dst, err := f.Empty(0, Shape{2}, Float64, false)
	require.NoError(t, err)
	defer dst.Release()

	err = f.CopyIntoFromHost(dst, host, UnsafeCasting)
	require.ErrorIs(t, err, ErrCast)
	assert.Contains(t, err.Error(), "no conversion kernel")
}

func TestMoveInto(t *testing.T) {
	f := testFactory(t, 1)
	src := deviceFromFloat64s(t, f, 0, []float64{1, 2})
	defer src.Release()
	dst, err := f.Empty(0, Shape{2}, Int16, false)
	require.NoError(t, err)
	defer dst.Release()

	require.NoError(t, f.MoveInto(dst, src))
	assert.Equal(t, []float64{1, 2}, hostFloat64s(t, f, dst))
}

func TestByteSwapVector(t *testing.T) {
	p := []byte{1, 2, 3, 4}
	byteSwapVector(p, 2, 2)
	if !bytes.Equal(p, []byte{2, 1, 4, 3}) {
		t.Errorf("swapped = %v, want [2 1 4 3]", p)
	}

	p = []byte{1, 2, 3, 4, 5, 6, 7, 8}
	byteSwapVector(p, 1, 8)
	if !bytes.Equal(p, []byte{8, 7, 6, 5, 4, 3, 2, 1}) {
		t.Errorf("swapped = %v, want full reversal", p)
	}

	p = []byte{9}
	byteSwapVector(p, 1, 1)
	if p[0] != 9 {
		t.Errorf("single byte changed: %v", p)
	}
}

func TestUnalignedStridedByteCopy(t *testing.T) {
	src := []byte{1, 2, 0, 3, 4, 0, 5, 6, 0}
	dst := make([]byte, 6)
	unalignedStridedByteCopy(dst, 2, src, 3, 3, 2)
	if !bytes.Equal(dst, []byte{1, 2, 3, 4, 5, 6}) {
		t.Errorf("copied = %v, want packed pairs", dst)
	}
}

func TestIndexIter(t *testing.T) {
	it := newIndexIter(Shape{2, 3})
	strides := Strides{24, 8}
	want := []int{0, 8, 16, 24, 32, 40}
	for i, w := range want {
		if got := it.offset(strides); got != w {
			t.Errorf("step %d offset = %d, want %d", i, got, w)
		}
		it.next()
	}
}
