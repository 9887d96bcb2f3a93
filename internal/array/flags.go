package array

import "strings"

// Flags is the cached-predicate bitset of a Handle. The same bit values
// double as requirement bits on conversion calls: requesting CContiguous
// from FromArray demands a C-contiguous result, and so on.
type Flags uint32

const (
	// CContiguous marks data laid out in row-major, densely packed order.
	CContiguous Flags = 1 << iota

	// FContiguous marks data laid out in column-major, densely packed order.
	FContiguous

	// OwnsData marks a handle whose buffer is released with the handle.
	OwnsData

	// Aligned marks data whose offset and strides are multiples of the
	// element alignment.
	Aligned

	// Writeable marks data the holder may mutate.
	Writeable

	// WriteBackIfCopy marks a converted copy that must be flushed back into
	// the array it was copied from.
	WriteBackIfCopy

	// ForceCast permits unsafe casting during conversion (request only).
	ForceCast

	// EnsureCopy demands a fresh buffer even when none is structurally
	// required (request only).
	EnsureCopy

	// EnsureNoSubtype demands a plain base-class result; subtype sources
	// are re-wrapped in a fresh view (request only).
	EnsureNoSubtype

	// NotSwapped demands native byte order (request only).
	NotSwapped

	// ElementStrides demands strides that are whole multiples of the
	// element size (request only).
	ElementStrides
)

// DefaultFlags is the flag set of a freshly allocated array.
const DefaultFlags = CContiguous | Aligned | Writeable

// Behaved requests aligned, writeable data.
const Behaved = Aligned | Writeable

// CArray requests behaved, C-contiguous data.
const CArray = CContiguous | Behaved

// FArray requests behaved, Fortran-contiguous data.
const FArray = FContiguous | Behaved

// Has reports whether every bit of q is set.
func (f Flags) Has(q Flags) bool { return f&q == q }

// String lists the set predicate bits, for logs and test failures.
func (f Flags) String() string {
	names := []struct {
		bit  Flags
		name string
	}{
		{CContiguous, "C_CONTIGUOUS"},
		{FContiguous, "F_CONTIGUOUS"},
		{OwnsData, "OWNDATA"},
		{Aligned, "ALIGNED"},
		{Writeable, "WRITEABLE"},
		{WriteBackIfCopy, "WRITEBACKIFCOPY"},
	}
	var parts []string
	for _, n := range names {
		if f&n.bit != 0 {
			parts = append(parts, n.name)
		}
	}
	if len(parts) == 0 {
		return "0"
	}
	return strings.Join(parts, "|")
}
