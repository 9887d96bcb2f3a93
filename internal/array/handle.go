package array

import (
	"fmt"
	"sync/atomic"

	"github.com/mica-ml/mica/internal/device"
)

// storage is the reference-counted backing of one or more handles. Owned
// storage returns its buffer to the device allocator when the last holder
// releases it; borrowed storage wraps a caller-supplied buffer and is never
// freed here.
type storage struct {
	buf   device.Buffer
	refs  atomic.Int32
	owned bool
}

func newStorage(buf device.Buffer, owned bool) *storage {
	s := &storage{buf: buf, owned: owned}
	s.refs.Store(1)
	return s
}

func (s *storage) retain() { s.refs.Add(1) }

func (s *storage) release() {
	if s.refs.Add(-1) == 0 && s.owned && s.buf != nil {
		s.buf.Release()
		s.buf = nil
	}
}

// Subtype identifies a non-base array variant and its finalize hook.
type Subtype struct {
	Name     string
	Finalize FinalizeHook
}

// FinalizeHook is the tagged finalize variant: at most one of Native and
// Generic is set, resolved once at construction time. The zero value means
// no hook.
type FinalizeHook struct {
	// Native is invoked with the new handle and the origin object (nil when
	// there is none).
	Native func(h *Handle, origin any) error

	// Generic is invoked with the origin (or NoOrigin); a non-error return
	// value is discarded.
	Generic func(origin any) (any, error)
}

// NoOrigin is the explicit "no origin object" sentinel handed to generic
// finalize hooks.
var NoOrigin = &struct{ name string }{"no origin"}

// Handle is the central array entity: a strided view of a buffer resident
// in one device memory space. Handles are created exclusively through a
// Factory and share storage by reference counting; Release must be called
// once per handle when it is no longer needed.
type Handle struct {
	dev       int
	descr     *Descriptor
	shape     Shape
	strides   Strides
	store     *storage
	offset    int // byte offset into store, non-zero only for views
	flags     Flags
	base      *Handle
	sub       *Subtype
	refs      atomic.Int32
	writeback any // flush target registered by a write-back-if-copy conversion

	// fac/dims tie the combined shape+stride buffer back to the factory
	// pool it came from.
	fac  *Factory
	dims []int
}

// Device returns the memory space the backing buffer lives in.
func (h *Handle) Device() int { return h.dev }

// Descr returns the element type descriptor. Treat it as immutable.
func (h *Handle) Descr() *Descriptor { return h.descr }

// NDim returns the rank.
func (h *Handle) NDim() int { return len(h.shape) }

// Shape returns the extents. The slice is owned by the handle.
func (h *Handle) Shape() Shape { return h.shape }

// Strides returns the byte strides. The slice is owned by the handle.
func (h *Handle) Strides() Strides { return h.strides }

// Flags returns the cached predicate bits.
func (h *Handle) Flags() Flags { return h.flags }

// Size returns the total number of elements.
func (h *Handle) Size() int { return h.shape.NumElements() }

// NBytes returns the logical byte size, size * itemsize.
func (h *Handle) NBytes() int { return h.Size() * h.descr.Size }

// Base returns the object this handle's buffer is a view of, or nil.
func (h *Handle) Base() *Handle { return h.base }

// Subtype returns the non-base variant marker, or nil for base arrays.
func (h *Handle) Subtype() *Subtype { return h.sub }

// OwnsData reports whether releasing the last reference frees the buffer.
func (h *Handle) OwnsData() bool { return h.flags&OwnsData != 0 }

// IsCContiguous reports the cached row-major contiguity predicate.
func (h *Handle) IsCContiguous() bool { return h.flags&CContiguous != 0 }

// IsFContiguous reports the cached column-major contiguity predicate.
func (h *Handle) IsFContiguous() bool { return h.flags&FContiguous != 0 }

// IsFortran reports Fortran layout that is not also C layout, the
// order-resolution predicate used by AnyOrder.
func (h *Handle) IsFortran() bool {
	return h.flags&FContiguous != 0 && h.flags&CContiguous == 0
}

// IsWriteable reports the writeable predicate.
func (h *Handle) IsWriteable() bool { return h.flags&Writeable != 0 }

// SharesStorageWith reports whether two handles alias the same buffer.
func (h *Handle) SharesStorageWith(other *Handle) bool {
	return h.store == other.store
}

// StorageSize returns the byte size of the backing buffer (which may exceed
// NBytes for empty arrays and pooled buffers).
func (h *Handle) StorageSize() int {
	if h.store == nil || h.store.buf == nil {
		return 0
	}
	return h.store.buf.Size()
}

// Retain registers an additional holder of this handle and returns it.
// Every Retain must be balanced by one Release.
func (h *Handle) Retain() *Handle {
	h.refs.Add(1)
	return h
}

// Release drops one holder. The handle is torn down only when its last
// holder releases it; when the last owned reference to the storage goes,
// the buffer returns to the device allocator, while borrowed buffers are
// left untouched.
func (h *Handle) Release() {
	if h.refs.Add(-1) > 0 {
		return
	}
	if h.store != nil {
		h.store.release()
		h.store = nil
	}
	if h.fac != nil && h.dims != nil {
		h.fac.dims.put(h.dims)
		h.dims = nil
		h.shape = nil
		h.strides = nil
	}
}

// ReadBytes copies n bytes starting at byte offset off (relative to this
// handle's view) into p.
func (h *Handle) ReadBytes(p []byte, off int) error {
	return h.store.buf.Read(p, h.offset+off)
}

// WriteBytes copies p into the handle's buffer at byte offset off.
func (h *Handle) WriteBytes(off int, p []byte) error {
	if !h.IsWriteable() {
		return fmt.Errorf("array is not writeable")
	}
	return h.store.buf.Write(h.offset+off, p)
}

// view returns a new handle aliasing the same storage, with base pointing
// at the original for lifetime bookkeeping. The view never owns the data.
func (h *Handle) view(sub *Subtype) *Handle {
	h.store.retain()
	v := &Handle{
		dev:     h.dev,
		descr:   h.descr,
		shape:   h.shape.Clone(),
		strides: h.strides.Clone(),
		store:   h.store,
		offset:  h.offset,
		flags:   h.flags &^ (OwnsData | WriteBackIfCopy),
		base:    h,
		sub:     sub,
	}
	v.refs.Store(1)
	return v
}

// reshapedView returns a contiguity-preserving view with a new shape.
// Valid only when the handle is contiguous in the given order.
func (h *Handle) reshapedView(shape Shape, order Order) *Handle {
	v := h.view(h.sub)
	v.shape = shape.Clone()
	v.strides = make(Strides, len(shape))
	inFlags := Flags(0)
	if order == FortranOrder {
		inFlags = FContiguous
	}
	v.flags = fillStrides(v.strides, v.shape, h.descr.Size, inFlags, v.flags&^(CContiguous|FContiguous))
	return v
}

// String renders a debug summary, e.g. "mica.Handle<f8, shape=[2 3], device=0>".
func (h *Handle) String() string {
	return fmt.Sprintf("mica.Handle<%s, shape=%v, device=%d>", h.descr, []int(h.shape), h.dev)
}
