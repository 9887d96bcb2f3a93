package array

import "fmt"

// FromArray adapts an existing device array to a requested type, device and
// set of requirement flags. When the source already satisfies everything the
// source handle itself is returned with its reference count incremented;
// otherwise a fresh array is allocated and the data copied across.
func (f *Factory) FromArray(src *Handle, newtype *Descriptor, dev int, flags Flags) (*Handle, error) {
	if newtype == nil {
		if dev == src.dev && flags == 0 {
			return src.Retain(), nil
		}
		newtype = src.descr
	}
	if newtype.Size == 0 {
		nt := newtype.Clone()
		nt.Size = src.descr.Size
		newtype = nt
	}

	rule := SafeCasting
	if flags.Has(ForceCast) {
		rule = UnsafeCasting
	}
	if !CanCastTypeTo(src.descr, newtype, rule) {
		return nil, castError(src.descr, newtype, rule)
	}

	copyRequired := dev != src.dev ||
		flags.Has(EnsureCopy) ||
		(flags.Has(CContiguous) && !src.IsCContiguous()) ||
		(flags.Has(FContiguous) && !src.IsFContiguous()) ||
		(flags.Has(Aligned) && !src.flags.Has(Aligned)) ||
		(flags.Has(Writeable) && !src.IsWriteable()) ||
		!EquivTypes(src.descr, newtype)

	if !copyRequired {
		if flags.Has(EnsureNoSubtype) && src.sub != nil {
			return src.view(nil), nil
		}
		return src.Retain(), nil
	}

	order := KeepOrder
	if flags.Has(FContiguous) {
		order = FortranOrder
	} else if flags.Has(CContiguous) {
		order = COrder
	}
	out, err := f.NewLikeArray(dev, src, order, newtype, !flags.Has(EnsureNoSubtype))
	if err != nil {
		return nil, err
	}
	if err := f.CopyInto(out, src, UnsafeCasting); err != nil {
		out.Release()
		return nil, err
	}
	if flags.Has(WriteBackIfCopy) {
		if err := f.setWriteBackTarget(out, src); err != nil {
			out.Release()
			return nil, err
		}
	}
	return out, nil
}

// setWriteBackTarget registers src as the flush target of a conversion copy.
// The source loses writeability until WriteBack resolves the copy, so the
// two views cannot diverge in the meantime.
func (f *Factory) setWriteBackTarget(cp, src *Handle) error {
	if !src.IsWriteable() {
		return fmt.Errorf("%w: cannot register write-back into a read-only array", ErrWriteBack)
	}
	src.Retain()
	src.flags &^= Writeable
	cp.writeback = src
	cp.flags |= WriteBackIfCopy
	return nil
}

// WriteBack flushes a write-back-if-copy conversion: the copy's contents are
// written into the original array and the original regains writeability.
// Handles without a registered target are left untouched.
func (f *Factory) WriteBack(h *Handle) error {
	if !h.flags.Has(WriteBackIfCopy) {
		return nil
	}
	target := h.writeback.(*Handle)
	target.flags |= Writeable
	h.flags &^= WriteBackIfCopy
	h.writeback = nil
	err := f.CopyInto(target, h, UnsafeCasting)
	target.Release()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWriteBack, err)
	}
	return nil
}

// FromAny builds a device array from an arbitrary value: an existing device
// array, a host array, or a (possibly nested) Go value. minDepth and
// maxDepth bound the result's rank when greater than zero.
func (f *Factory) FromAny(dev int, value any, newtype *Descriptor, minDepth, maxDepth int, flags Flags) (*Handle, error) {
	var (
		h   *Handle
		err error
	)
	switch v := value.(type) {
	case *Handle:
		h, err = f.FromArray(v, newtype, dev, flags)
	case *HostArray:
		h, err = f.fromHost(dev, v, newtype, flags)
	default:
		var host *HostArray
		host, err = FromGoValue(v, newtype)
		if err != nil {
			return nil, err
		}
		h, err = f.fromHost(dev, host, nil, flags)
	}
	if err != nil {
		return nil, err
	}
	if minDepth > 0 && h.NDim() < minDepth {
		h.Release()
		return nil, fmt.Errorf("%w: object of too small depth for desired array", ErrBadRank)
	}
	if maxDepth > 0 && h.NDim() > maxDepth {
		h.Release()
		return nil, fmt.Errorf("%w: object too deep for desired array", ErrBadRank)
	}
	return h, nil
}

// fromHost allocates a device array shaped like a host array and copies the
// host data in, casting to newtype when one is given.
func (f *Factory) fromHost(dev int, src *HostArray, newtype *Descriptor, flags Flags) (*Handle, error) {
	if newtype == nil {
		newtype = src.descr
	}
	if newtype.Size == 0 {
		nt := newtype.Clone()
		nt.Size = src.descr.Size
		newtype = nt
	}
	rule := SafeCasting
	if flags.Has(ForceCast) {
		rule = UnsafeCasting
	}
	if !CanCastTypeTo(src.descr, newtype, rule) {
		return nil, castError(src.descr, newtype, rule)
	}
	reqFlags := Flags(0)
	if flags.Has(FContiguous) && !flags.Has(CContiguous) {
		reqFlags = FContiguous
	}
	out, err := f.NewFromDescr(dev, newtype, src.shape, &NewOptions{Flags: reqFlags})
	if err != nil {
		return nil, err
	}
	if err := f.CopyIntoFromHost(out, src, UnsafeCasting); err != nil {
		out.Release()
		return nil, err
	}
	return out, nil
}

// CheckFromAny is FromAny plus requirement normalization: a native byte
// order requirement rewrites the target type, and an element-strides
// requirement forces a contiguous copy when the result lacks uniform
// element-sized strides.
func (f *Factory) CheckFromAny(dev int, value any, newtype *Descriptor, minDepth, maxDepth int, flags Flags) (*Handle, error) {
	if flags.Has(NotSwapped) {
		if newtype == nil {
			if al, ok := value.(ArrayLike); ok {
				newtype = al.Descr().Clone()
				newtype.Order = NativeOrder
			}
		} else if !newtype.IsNativeOrder() {
			newtype = newtype.Clone()
			newtype.Order = NativeOrder
		}
	}
	h, err := f.FromAny(dev, value, newtype, minDepth, maxDepth, flags)
	if err != nil {
		return nil, err
	}
	if flags.Has(ElementStrides) && !hasElementStrides(h.strides, h.descr.Size) {
		cp, err := f.NewCopy(h, AnyOrder)
		h.Release()
		if err != nil {
			return nil, err
		}
		h = cp
	}
	return h, nil
}

// EnsureArray coerces a value into a plain base-class device array on the
// given device.
func (f *Factory) EnsureArray(dev int, value any) (*Handle, error) {
	return f.FromAny(dev, value, nil, 0, 0, EnsureNoSubtype)
}

// NewCopy allocates a contiguous copy of src in the given order on the same
// device. AnyOrder preserves Fortran contiguity when src has it.
func (f *Factory) NewCopy(src *Handle, order Order) (*Handle, error) {
	out, err := f.NewLikeArray(src.dev, src, order, nil, true)
	if err != nil {
		return nil, err
	}
	if err := f.CopyInto(out, src, UnsafeCasting); err != nil {
		out.Release()
		return nil, err
	}
	return out, nil
}

// View returns a strided view of src sharing its storage, optionally tagged
// with a different subtype.
func (f *Factory) View(src *Handle, sub *Subtype) *Handle {
	return src.view(sub)
}

// Ravel flattens src to one dimension. A source already contiguous in the
// requested order yields a view; anything else costs a contiguous copy.
func (f *Factory) Ravel(src *Handle, order Order) (*Handle, error) {
	flat := Shape{src.Size()}
	switch {
	case order == FortranOrder && src.IsFContiguous():
		return src.reshapedView(flat, FortranOrder), nil
	case order != FortranOrder && src.IsCContiguous():
		return src.reshapedView(flat, COrder), nil
	}
	cp, err := f.NewCopy(src, order)
	if err != nil {
		return nil, err
	}
	v := cp.reshapedView(flat, order)
	cp.Release()
	v.base = nil
	return v, nil
}

// CheckAxis canonicalizes an axis argument against an array. The flatten
// sentinel collapses a multi-dimensional array to one dimension and resolves
// the axis to 0; otherwise negative axes wrap and out-of-range axes fail.
// Non-zero requirement flags re-verify the (possibly flattened) array
// through CheckFromAny before the axis check.
func (f *Factory) CheckAxis(h *Handle, axis *int, flags Flags) (*Handle, error) {
	var (
		out *Handle
		err error
	)
	if *axis == AxisFlatten && h.NDim() != 1 {
		out, err = f.Ravel(h, COrder)
		if err != nil {
			return nil, err
		}
		*axis = out.NDim() - 1
	} else {
		if *axis == AxisFlatten {
			*axis = 0
		}
		out = h.Retain()
	}
	if flags != 0 {
		checked, err := f.CheckFromAny(out.dev, out, nil, 0, 0, flags)
		out.Release()
		if err != nil {
			return nil, err
		}
		out = checked
	}
	if err := checkAndAdjustAxis(axis, out.NDim()); err != nil {
		out.Release()
		return nil, err
	}
	return out, nil
}
