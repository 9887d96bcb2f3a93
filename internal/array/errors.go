package array

import (
	"errors"

	"github.com/mica-ml/mica/internal/device"
)

// Failure kinds. Construction and conversion errors wrap exactly one of
// these, so callers can classify with errors.Is while the message carries
// the offending device id, rank or type pair.
var (
	// ErrBadDevice reports a device id outside the registered range.
	ErrBadDevice = device.ErrBadDevice

	// ErrBadRank reports a dimension count outside [0, MaxDims].
	ErrBadRank = errors.New("number of dimensions out of range")

	// ErrNegativeDim reports a negative entry in a shape.
	ErrNegativeDim = errors.New("negative dimensions are not allowed")

	// ErrOverflow reports that size * itemsize exceeds the native int range.
	ErrOverflow = errors.New("array is too big; `size * itemsize` is larger than the maximum possible size")

	// ErrEmptyDType reports a zero-size non-flexible element type.
	ErrEmptyDType = errors.New("empty data-type")

	// ErrCast reports a conversion disallowed by the active casting rule.
	ErrCast = errors.New("cannot cast array data")

	// ErrNoMemory reports that a device or host allocator returned no memory.
	ErrNoMemory = device.ErrNoMemory

	// ErrFinalize reports a failed subtype finalize hook.
	ErrFinalize = errors.New("finalize hook failed")

	// ErrMaxDims reports that sub-array expansion would exceed MaxDims.
	ErrMaxDims = errors.New("sub-array expansion exceeds the maximum number of dimensions")

	// ErrBadAxis reports an axis outside the array's rank.
	ErrBadAxis = errors.New("axis out of bounds")

	// ErrBroadcast reports shapes that cannot be broadcast together.
	ErrBroadcast = errors.New("could not broadcast")

	// ErrWriteBack reports a failed write-back-if-copy registration or flush.
	ErrWriteBack = errors.New("write-back-if-copy failed")
)
