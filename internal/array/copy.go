package array

import (
	"fmt"

	"github.com/mica-ml/mica/internal/parallel"
)

// indexIter walks a shape in C iteration order, tracking the
// multi-dimensional index.
type indexIter struct {
	shape Shape
	idx   []int
}

func newIndexIter(shape Shape) *indexIter {
	return &indexIter{shape: shape, idx: make([]int, len(shape))}
}

func (it *indexIter) offset(strides Strides) int {
	off := 0
	for i, ix := range it.idx {
		off += ix * strides[i]
	}
	return off
}

func (it *indexIter) next() {
	for axis := len(it.shape) - 1; axis >= 0; axis-- {
		it.idx[axis]++
		if it.idx[axis] < it.shape[axis] {
			return
		}
		it.idx[axis] = 0
	}
}

// broadcastStrides adapts src strides to dst's shape: axes are right
// aligned, a source extent of one broadcasts with stride zero, and missing
// leading axes broadcast likewise.
func broadcastStrides(srcShape Shape, srcStrides Strides, dstShape Shape) (Strides, error) {
	if len(srcShape) > len(dstShape) {
		return nil, fmt.Errorf("%w: source shape %v into %v", ErrBroadcast, []int(srcShape), []int(dstShape))
	}
	out := make(Strides, len(dstShape))
	shift := len(dstShape) - len(srcShape)
	for i := range srcShape {
		switch {
		case srcShape[i] == dstShape[shift+i]:
			out[shift+i] = srcStrides[i]
		case srcShape[i] == 1:
			out[shift+i] = 0
		default:
			return nil, fmt.Errorf("%w: source shape %v into %v", ErrBroadcast, []int(srcShape), []int(dstShape))
		}
	}
	return out, nil
}

// byteExtent returns the lowest and one-past-highest byte offset the given
// view can touch, relative to its own data offset.
func byteExtent(shape Shape, strides Strides, elemSize int) (lo, hi int) {
	hi = elemSize
	for i, dim := range shape {
		if dim == 0 {
			return 0, elemSize
		}
		span := (dim - 1) * strides[i]
		if span >= 0 {
			hi += span
		} else {
			lo += span
		}
	}
	return lo, hi
}

// castAssignHost copies every element of a host slab pair, converting
// through the canonical value channel. Both stride vectors are relative to
// the start of their slab and already broadcast to shape. The outermost
// axis is split across workers when it is long enough to pay for them.
func castAssignHost(dst []byte, dd *Descriptor, dStrides Strides,
	src []byte, sd *Descriptor, sStrides Strides, shape Shape) error {

	if shape.NumElements() == 0 {
		return nil
	}
	flexible := dd.IsFlexible() || sd.IsFlexible()
	if flexible && dd.Kind != sd.Kind {
		return fmt.Errorf("%w from %s to %s: no conversion kernel between these kinds", ErrCast, sd, dd)
	}
	bytewise := flexible || (EquivTypes(sd, dd) && sd.IsNativeOrder() == dd.IsNativeOrder())

	assign := func(dOff, sOff int) {
		if bytewise {
			copyElemBytes(dst[dOff:dOff+dd.Size], src[sOff:sOff+sd.Size])
		} else {
			writeElem(dst[dOff:], dd, readElem(src[sOff:], sd))
		}
	}

	if len(shape) == 0 {
		assign(0, 0)
		return nil
	}

	// Same-size bytewise copies move whole innermost rows as one strided
	// byte copy instead of element by element.
	if bytewise && dd.Size == sd.Size {
		last := len(shape) - 1
		n := shape[last]
		if last == 0 {
			unalignedStridedByteCopy(dst, dStrides[0], src, sStrides[0], n, dd.Size)
			return nil
		}
		mid := shape[1:last]
		midN := mid.NumElements()
		parallel.For(shape[0], func(r int) {
			it := newIndexIter(mid)
			for i := 0; i < midN; i++ {
				dOff := r*dStrides[0] + it.offset(dStrides[1:last])
				sOff := r*sStrides[0] + it.offset(sStrides[1:last])
				unalignedStridedByteCopy(dst[dOff:], dStrides[last],
					src[sOff:], sStrides[last], n, dd.Size)
				it.next()
			}
		}, parallel.DefaultConfig())
		return nil
	}

	inner := shape[1:]
	innerN := inner.NumElements()
	parallel.For(shape[0], func(r int) {
		it := newIndexIter(inner)
		for i := 0; i < innerN; i++ {
			assign(r*dStrides[0]+it.offset(dStrides[1:]),
				r*sStrides[0]+it.offset(sStrides[1:]))
			it.next()
		}
	}, parallel.DefaultConfig())
	return nil
}

// copyElemBytes moves one flexible or equivalent element, truncating or
// zero-padding when the sizes differ.
func copyElemBytes(dst, src []byte) {
	n := copy(dst, src)
	for i := n; i < len(dst); i++ {
		dst[i] = 0
	}
}

// stageRead pulls the byte extent a handle's view touches into a host slab
// and returns the slab plus the offset correction for negative strides.
func stageRead(h *Handle) ([]byte, int, error) {
	lo, hi := byteExtent(h.shape, h.strides, h.descr.Size)
	slab := make([]byte, hi-lo)
	if err := h.ReadBytes(slab, lo); err != nil {
		return nil, 0, err
	}
	return slab, -lo, nil
}

// CopyInto copies src into dst, broadcasting src to dst's shape and casting
// element types under the given rule. Both arrays are device resident; the
// devices need not match. Memory must not overlap.
func (f *Factory) CopyInto(dst, src *Handle, rule CastRule) error {
	if !CanCastTypeTo(src.descr, dst.descr, rule) {
		return castError(src.descr, dst.descr, rule)
	}
	if !dst.IsWriteable() {
		return fmt.Errorf("destination array is not writeable")
	}
	sStrides, err := broadcastStrides(src.shape, src.strides, dst.shape)
	if err != nil {
		return err
	}

	srcSlab, sAdj, err := stageRead(src)
	if err != nil {
		return err
	}
	dstSlab, dAdj, err := stageRead(dst)
	if err != nil {
		return err
	}
	if err := castAssignHost(dstSlab[dAdj:], dst.descr, dst.strides,
		srcSlab[sAdj:], src.descr, sStrides, dst.shape); err != nil {
		return err
	}
	lo, _ := byteExtent(dst.shape, dst.strides, dst.descr.Size)
	return dst.WriteBytes(lo, dstSlab)
}

// CopyIntoFromHost copies a host array into a device array, broadcasting
// and casting like CopyInto.
func (f *Factory) CopyIntoFromHost(dst *Handle, src *HostArray, rule CastRule) error {
	if !CanCastTypeTo(src.descr, dst.descr, rule) {
		return castError(src.descr, dst.descr, rule)
	}
	if !dst.IsWriteable() {
		return fmt.Errorf("destination array is not writeable")
	}
	sStrides, err := broadcastStrides(src.shape, src.strides, dst.shape)
	if err != nil {
		return err
	}
	dstSlab, dAdj, err := stageRead(dst)
	if err != nil {
		return err
	}
	if err := castAssignHost(dstSlab[dAdj:], dst.descr, dst.strides,
		src.data, src.descr, sStrides, dst.shape); err != nil {
		return err
	}
	lo, _ := byteExtent(dst.shape, dst.strides, dst.descr.Size)
	return dst.WriteBytes(lo, dstSlab)
}

// CopyIntoHost copies a device array into a host array.
func (f *Factory) CopyIntoHost(dst *HostArray, src *Handle, rule CastRule) error {
	if !CanCastTypeTo(src.descr, dst.descr, rule) {
		return castError(src.descr, dst.descr, rule)
	}
	sStrides, err := broadcastStrides(src.shape, src.strides, dst.shape)
	if err != nil {
		return err
	}
	srcSlab, sAdj, err := stageRead(src)
	if err != nil {
		return err
	}
	return castAssignHost(dst.data, dst.descr, dst.strides,
		srcSlab[sAdj:], src.descr, sStrides, dst.shape)
}

// MoveInto moves src's contents into dst with unsafe casting. Overlapping
// memory is the caller's concern.
func (f *Factory) MoveInto(dst, src *Handle) error {
	return f.CopyInto(dst, src, UnsafeCasting)
}

func castError(from, to *Descriptor, rule CastRule) error {
	return fmt.Errorf("%w from %s to %s according to the rule %s", ErrCast, from, to, rule)
}

// unalignedStridedByteCopy moves n elements of elsize bytes between two
// strided buffers without assuming any alignment.
func unalignedStridedByteCopy(dst []byte, outStride int, src []byte, inStride, n, elsize int) {
	di, si := 0, 0
	for i := 0; i < n; i++ {
		copy(dst[di:di+elsize], src[si:si+elsize])
		di += outStride
		si += inStride
	}
}

// byteSwapVector reverses the byte order of n consecutive elements of the
// given size, in place.
func byteSwapVector(p []byte, n, size int) {
	byteSwapStrided(p, size, n, size)
}

// byteSwapStrided reverses the byte order of n elements of the given size,
// separated by stride bytes, in place.
func byteSwapStrided(p []byte, stride, n, size int) {
	if size <= 1 {
		return
	}
	for e := 0; e < n; e++ {
		a := e * stride
		for i, j := a, a+size-1; i < j; i, j = i+1, j-1 {
			p[i], p[j] = p[j], p[i]
		}
	}
}
