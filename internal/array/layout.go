package array

// relaxedStrides selects the relaxed contiguity policy: axes of extent one
// make stride values numerically ambiguous without affecting iteration
// order, so the both-contiguous decision ignores them and counts only axes
// with extent != 1. The strict policy compares edge strides instead.
const relaxedStrides = true

// Order is a memory-layout request.
type Order int

const (
	// COrder requests a row-major result.
	COrder Order = iota
	// FortranOrder requests a column-major result.
	FortranOrder
	// AnyOrder requests Fortran iff the prototype is Fortran, else C.
	AnyOrder
	// KeepOrder preserves the prototype's observed axis ordering.
	KeepOrder
)

func (o Order) String() string {
	switch o {
	case COrder:
		return "C"
	case FortranOrder:
		return "F"
	case AnyOrder:
		return "A"
	case KeepOrder:
		return "K"
	default:
		return "?"
	}
}

// fillStrides computes strides for a freshly allocated array and merges the
// resulting contiguity bits into objFlags. A set FContiguous bit in inFlags
// requests column-major layout; anything else produces row-major. Zero
// extents contribute a factor of one so the running product never stalls.
func fillStrides(strides Strides, shape Shape, elemSize int, inFlags, objFlags Flags) Flags {
	nd := len(shape)

	notCFContig := false
	if relaxedStrides {
		// More than one axis with extent != 1 rules out simultaneous
		// C- and F-contiguity regardless of the numeric strides.
		nonUnit := false
		for i := 0; i < nd; i++ {
			if shape[i] != 1 {
				if nonUnit {
					notCFContig = true
					break
				}
				nonUnit = true
			}
		}
	}

	itemsize := elemSize
	if inFlags&(FContiguous|CContiguous) == FContiguous {
		for i := 0; i < nd; i++ {
			strides[i] = itemsize
			if shape[i] != 0 {
				itemsize *= shape[i]
			} else {
				notCFContig = false
			}
		}
		if bothContig := !fillNotContig(notCFContig, shape, strides, nd, true); bothContig {
			objFlags |= FContiguous | CContiguous
		} else {
			objFlags = (objFlags | FContiguous) &^ CContiguous
		}
		return objFlags
	}

	for i := nd - 1; i >= 0; i-- {
		strides[i] = itemsize
		if shape[i] != 0 {
			itemsize *= shape[i]
		} else {
			notCFContig = false
		}
	}
	if bothContig := !fillNotContig(notCFContig, shape, strides, nd, false); bothContig {
		objFlags |= CContiguous | FContiguous
	} else {
		objFlags = (objFlags | CContiguous) &^ FContiguous
	}
	return objFlags
}

// fillNotContig decides whether the freshly filled array fails to also be
// contiguous in the opposite order.
func fillNotContig(relaxedVerdict bool, shape Shape, strides Strides, nd int, fortran bool) bool {
	if relaxedStrides {
		return relaxedVerdict
	}
	if nd <= 1 {
		return false
	}
	edge := shape[0]
	if fortran {
		edge = shape[nd-1]
	}
	return strides[0] != strides[nd-1] || edge > 1
}

// updateContiguity rederives the C/F-contiguity bits from final shape,
// strides and element size. This pass is authoritative: caller-supplied
// strides and borrowed buffers may not match the heuristics used during
// construction.
func updateContiguity(shape Shape, strides Strides, elemSize int, flags Flags) Flags {
	flags &^= CContiguous | FContiguous
	if checkContiguity(shape, strides, elemSize, false) {
		flags |= CContiguous
	}
	if checkContiguity(shape, strides, elemSize, true) {
		flags |= FContiguous
	}
	return flags
}

func checkContiguity(shape Shape, strides Strides, elemSize int, fortran bool) bool {
	nd := len(shape)
	if nd == 0 {
		return true
	}
	if relaxedStrides {
		expected := elemSize
		for k := 0; k < nd; k++ {
			i := nd - 1 - k
			if fortran {
				i = k
			}
			dim := shape[i]
			if dim == 0 {
				// Empty arrays are contiguous in every order.
				return true
			}
			if dim != 1 {
				if strides[i] != expected {
					return false
				}
				expected *= dim
			}
		}
		return true
	}
	expected := elemSize
	for k := 0; k < nd; k++ {
		i := nd - 1 - k
		if fortran {
			i = k
		}
		if strides[i] != expected {
			return false
		}
		expected *= shape[i]
	}
	return true
}

// updateAlignment rederives the Aligned bit: the data offset and every
// stride must be multiples of the element alignment.
func updateAlignment(strides Strides, offset int, d *Descriptor, flags Flags) Flags {
	align := d.Alignment()
	aligned := offset%align == 0
	for _, s := range strides {
		if s%align != 0 {
			aligned = false
			break
		}
	}
	if aligned {
		return flags | Aligned
	}
	return flags &^ Aligned
}

// hasElementStrides reports whether every stride is a whole multiple of the
// element size, i.e. the array can be walked element-at-a-time.
func hasElementStrides(strides Strides, elemSize int) bool {
	if elemSize == 0 {
		return false
	}
	for _, s := range strides {
		if s%elemSize != 0 {
			return false
		}
	}
	return true
}

// sortedStridePerm returns axis indices ordered from slowest to fastest
// varying, judged by absolute stride. The sort is stable: ties keep their
// original axis order. Used by KeepOrder layout resolution.
func sortedStridePerm(strides Strides) []int {
	nd := len(strides)
	perm := make([]int, nd)
	for i := range perm {
		perm[i] = i
	}
	abs := func(v int) int {
		if v < 0 {
			return -v
		}
		return v
	}
	// Insertion sort keeps the tie order stable and nd is at most MaxDims.
	for i := 1; i < nd; i++ {
		j := i
		for j > 0 && abs(strides[perm[j-1]]) < abs(strides[perm[j]]) {
			perm[j-1], perm[j] = perm[j], perm[j-1]
			j--
		}
	}
	return perm
}
