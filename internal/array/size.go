package array

import "fmt"

// mulNoOverflow multiplies two non-negative ints, reporting overflow of the
// native address-width integer.
func mulNoOverflow(a, b int) (int, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	c := a * b
	if c/b != a {
		return 0, false
	}
	return c, true
}

// validateShape walks the dimensions once, multiplying them into the total
// byte count. A zero extent marks the array empty and contributes a factor
// of one, so an empty array still allocates one element's worth of bytes.
// A negative extent or an overflowing product fails the whole validation.
func validateShape(shape Shape, elemSize int) (nbytes int, empty bool, err error) {
	nbytes = elemSize
	for i, dim := range shape {
		if dim == 0 {
			empty = true
			continue
		}
		if dim < 0 {
			return 0, false, fmt.Errorf("%w (axis %d)", ErrNegativeDim, i)
		}
		var ok bool
		if nbytes, ok = mulNoOverflow(nbytes, dim); !ok {
			return 0, false, ErrOverflow
		}
	}
	return nbytes, empty, nil
}
