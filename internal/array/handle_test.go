package array

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleRetainRelease(t *testing.T) {
	f := testFactory(t, 1)
	h, err := f.Zeros(0, Shape{2, 2}, Float64, false)
	require.NoError(t, err)

	h.Retain()
	h.Release()
	// One holder left; the handle is still live.
	require.NoError(t, h.WriteBytes(0, []byte{1, 2, 3, 4}))
	assert.Equal(t, Shape{2, 2}, h.Shape())
	h.Release()
}

func TestViewOutlivesBase(t *testing.T) {
	f := testFactory(t, 1)
	base := deviceFromFloat64s(t, f, 0, []float64{1, 2, 3})
	v := f.View(base, nil)
	base.Release()

	// The storage stays alive through the view.
	assert.Equal(t, []float64{1, 2, 3}, hostFloat64s(t, f, v))
	v.Release()
}

func TestWriteBytesReadOnly(t *testing.T) {
	f := testFactory(t, 1)
	buf, err := f.Devices().Alloc(0, 16)
	require.NoError(t, err)
	defer buf.Release()

	h, err := f.NewFromDescr(0, Float64, Shape{2}, &NewOptions{Data: buf, Flags: CContiguous})
	require.NoError(t, err)
	defer h.Release()

	err = h.WriteBytes(0, []byte{1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not writeable")
}

func TestHandleString(t *testing.T) {
	f := testFactory(t, 1)
	h, err := f.Zeros(0, Shape{2, 3}, Float64, false)
	require.NoError(t, err)
	defer h.Release()
	assert.Equal(t, "mica.Handle<f8, shape=[2 3], device=0>", h.String())
}

func TestFlagsString(t *testing.T) {
	s := (CContiguous | Writeable).String()
	assert.Contains(t, s, "C_CONTIGUOUS")
	assert.Contains(t, s, "WRITEABLE")
	assert.NotContains(t, s, "F_CONTIGUOUS")
}
