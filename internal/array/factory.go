package array

import (
	"fmt"
	"sync"

	"github.com/mica-ml/mica/internal/device"
)

// dimCache pools the combined shape+stride buffers (2*rank ints) handed to
// every non-scalar handle, keyed by rank. Owned by a Factory instance, not
// shared process-wide.
type dimCache struct {
	pools [MaxDims + 1]sync.Pool
}

func (c *dimCache) get(nd int) []int {
	if v := c.pools[nd].Get(); v != nil {
		return v.([]int)
	}
	return make([]int, 2*nd)
}

func (c *dimCache) put(buf []int) {
	nd := len(buf) / 2
	if nd >= 1 && nd <= MaxDims {
		c.pools[nd].Put(buf) //nolint:staticcheck // slice headers are what we pool
	}
}

// ArrayLike is the common surface of device handles and host arrays that
// layout-preserving construction needs.
type ArrayLike interface {
	Descr() *Descriptor
	Shape() Shape
	Strides() Strides
	NDim() int
	Flags() Flags
}

// Factory constructs handles over a device registry. It owns the dim-buffer
// pool and performs all device, rank, type and size validation; no handle
// exists that did not pass through it.
type Factory struct {
	devices *device.Registry
	dims    dimCache
}

// NewFactory creates a factory over the given registry.
func NewFactory(reg *device.Registry) *Factory {
	return &Factory{devices: reg}
}

// Devices returns the registry this factory allocates from.
func (f *Factory) Devices() *device.Registry { return f.devices }

// NewOptions carries the optional arguments of NewFromDescr.
type NewOptions struct {
	// Strides overrides the computed layout. Must match the shape's rank.
	Strides Strides

	// Data supplies an external backing buffer. The handle borrows it and
	// will not free it.
	Data device.Buffer

	// Flags: with external Data, the caller's predicate bits are taken
	// verbatim (minus WriteBackIfCopy); without Data, any non-zero value
	// requests column-major layout and all other bits are ignored.
	Flags Flags

	// Subtype marks a non-base variant; its finalize hook runs last.
	Subtype *Subtype

	// Origin is handed to the finalize hook.
	Origin any

	// AllowEmptyString keeps a zero-size string type instead of widening it
	// to the one-element minimum.
	AllowEmptyString bool
}

// NewFromDescr is the generic construction routine. It expands sub-array
// element types, validates device, rank, type and size, computes or copies
// strides, acquires (or borrows) backing memory, rederives the cached
// flags, and runs the subtype finalize hook. On failure every partially
// acquired resource is released; no partial handle escapes.
func (f *Factory) NewFromDescr(dev int, d *Descriptor, shape Shape, opts *NewOptions) (*Handle, error) {
	if opts == nil {
		opts = &NewOptions{}
	}
	return f.newFromDescr(dev, opts.Subtype, d, shape, opts.Strides, opts.Data,
		opts.Flags, opts.Origin, false, opts.AllowEmptyString)
}

func (f *Factory) newFromDescr(dev int, sub *Subtype, d *Descriptor, shape Shape,
	strides Strides, data device.Buffer, flags Flags, origin any,
	zeroed, allowEmptyString bool) (*Handle, error) {

	// Resolve sub-array element types into trailing dimensions before
	// anything else; nested sub-arrays unwrap one level per pass.
	for d.HasSubarray() {
		var err error
		d, shape, strides, err = expandSubarray(d, shape, strides)
		if err != nil {
			return nil, err
		}
	}

	if err := f.devices.Check(dev); err != nil {
		return nil, err
	}

	nd := len(shape)
	if nd > MaxDims {
		return nil, fmt.Errorf("%w: number of dimensions must be within [0, %d]", ErrBadRank, MaxDims)
	}

	// A zero element size is only meaningful for flexible types; string
	// types are widened to their one-element minimum unless the caller
	// explicitly wants the empty form.
	if d.Size == 0 {
		if !d.IsFlexible() {
			return nil, ErrEmptyDType
		}
		if d.IsString() && !allowEmptyString {
			d = d.Clone()
			if d.Kind == KindString {
				d.Size = 1
			} else {
				d.Size = 4
			}
		}
	}

	nbytes, isEmpty, err := validateShape(shape, d.Size)
	if err != nil {
		return nil, err
	}

	h := &Handle{dev: dev, descr: d, sub: sub}
	h.refs.Store(1)

	if data == nil {
		h.flags = DefaultFlags
		if flags != 0 {
			h.flags |= FContiguous
			if nd > 1 {
				h.flags &^= CContiguous
			}
			flags = FContiguous
		}
	} else {
		h.flags = flags &^ WriteBackIfCopy
	}

	var dims []int
	if nd > 0 {
		dims = f.dims.get(nd)
		h.fac = f
		h.dims = dims
		h.shape = dims[:nd:nd]
		h.strides = dims[nd:]
		copy(h.shape, shape)
		if strides == nil {
			h.flags = fillStrides(h.strides, h.shape, d.Size, flags, h.flags)
		} else {
			// Caller strides are accepted even for memory allocated here;
			// the authoritative flag pass below sorts out contiguity.
			copy(h.strides, strides)
		}
	} else {
		h.flags |= CContiguous | FContiguous
	}

	if data == nil {
		// Allocate something even for zero-size shapes, e.g. (0,), so
		// buffer exposure stays well-defined.
		if isEmpty {
			nbytes = d.Size
		}
		var buf device.Buffer
		if zeroed || d.NeedsInit {
			buf, err = f.devices.AllocZeroed(dev, nbytes)
		} else {
			buf, err = f.devices.Alloc(dev, nbytes)
		}
		if err != nil {
			h.Release()
			return nil, err
		}
		h.store = newStorage(buf, true)
		h.flags |= OwnsData
	} else {
		// Externally supplied memory is never owned by default; the caller
		// must arrange ownership explicitly if truly desired.
		h.store = newStorage(data, false)
		h.flags &^= OwnsData
	}

	// Authoritative flag pass: borrowed buffers and caller strides may not
	// match the heuristics above.
	h.flags = updateContiguity(h.shape, h.strides, d.Size, h.flags)
	h.flags = updateAlignment(h.strides, h.offset, d, h.flags)

	if sub != nil {
		if err := runFinalize(sub.Finalize, h, origin); err != nil {
			h.Release()
			return nil, fmt.Errorf("%w: %v", ErrFinalize, err)
		}
	}
	return h, nil
}

func runFinalize(hook FinalizeHook, h *Handle, origin any) error {
	switch {
	case hook.Native != nil:
		return hook.Native(h, origin)
	case hook.Generic != nil:
		if origin == nil {
			origin = NoOrigin
		}
		_, err := hook.Generic(origin)
		return err
	default:
		return nil
	}
}

// New constructs from a descriptor plus an explicit itemsize, the entry
// point for flexible types whose element size is chosen per array.
func (f *Factory) New(dev int, d *Descriptor, itemsize int, shape Shape, opts *NewOptions) (*Handle, error) {
	if d.Size == 0 {
		if itemsize < 1 {
			return nil, fmt.Errorf("%w: data type must provide an itemsize", ErrEmptyDType)
		}
		d = d.Clone()
		d.Size = itemsize
	}
	return f.NewFromDescr(dev, d, shape, opts)
}

// Zeros allocates a zero-filled array. A nil type means DefaultType.
func (f *Factory) Zeros(dev int, shape Shape, d *Descriptor, fortran bool) (*Handle, error) {
	if d == nil {
		d = DefaultType
	}
	var flags Flags
	if fortran {
		flags = FContiguous
	}
	return f.newFromDescr(dev, nil, d, shape, nil, nil, flags, nil, true, false)
}

// Empty allocates an array without initializing its contents. A nil type
// means DefaultType.
func (f *Factory) Empty(dev int, shape Shape, d *Descriptor, fortran bool) (*Handle, error) {
	if d == nil {
		d = DefaultType
	}
	var flags Flags
	if fortran {
		flags = FContiguous
	}
	return f.newFromDescr(dev, nil, d, shape, nil, nil, flags, nil, false, false)
}

// NewLikeArray allocates a new array shaped like prototype.
//
//	COrder       - C-contiguous result.
//	FortranOrder - Fortran-contiguous result.
//	AnyOrder     - Fortran if prototype is Fortran, C otherwise.
//	KeepOrder    - keeps the axis ordering of prototype.
//
// A non-nil dtype overrides the prototype's element type. With subok, a
// subtype prototype produces a subtype result (and the prototype is handed
// to the finalize hook as origin).
func (f *Factory) NewLikeArray(dev int, proto ArrayLike, order Order, dtype *Descriptor, subok bool) (*Handle, error) {
	ndim := proto.NDim()
	if dtype == nil {
		dtype = proto.Descr()
	}

	protoFlags := proto.Flags()
	switch order {
	case AnyOrder:
		if protoFlags&FContiguous != 0 && protoFlags&CContiguous == 0 {
			order = FortranOrder
		} else {
			order = COrder
		}
	case KeepOrder:
		if protoFlags&CContiguous != 0 || ndim <= 1 {
			order = COrder
		} else if protoFlags&FContiguous != 0 {
			order = FortranOrder
		}
	}

	var sub *Subtype
	var origin any
	if ph, ok := proto.(*Handle); ok && subok {
		sub = ph.sub
		if sub != nil {
			origin = ph
		}
	}

	if order != KeepOrder {
		var flags Flags
		if order == FortranOrder {
			flags = FContiguous
		}
		return f.newFromDescr(dev, sub, dtype, proto.Shape(), nil, nil, flags, origin, false, false)
	}

	// KeepOrder proper: permute new strides so their magnitude order matches
	// the prototype's, scaled by the new element size.
	shape := proto.Shape()
	perm := sortedStridePerm(proto.Strides())
	strides := make(Strides, ndim)
	stride := dtype.Size
	for idim := ndim - 1; idim >= 0; idim-- {
		i := perm[idim]
		strides[i] = stride
		if shape[i] != 0 {
			stride *= shape[i]
		}
	}
	return f.newFromDescr(dev, sub, dtype, shape, strides, nil, 0, origin, false, false)
}
