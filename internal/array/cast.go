package array

// CastRule is the policy governing implicit type conversion during copy.
type CastRule int

const (
	// NoCasting permits only exactly equivalent types.
	NoCasting CastRule = iota
	// EquivCasting permits byte-order-only changes.
	EquivCasting
	// SafeCasting permits only casts that preserve values.
	SafeCasting
	// SameKindCasting permits safe casts plus casts within a kind.
	SameKindCasting
	// UnsafeCasting permits any cast between concrete types.
	UnsafeCasting
)

// String names the rule the way error messages report it.
func (r CastRule) String() string {
	switch r {
	case NoCasting:
		return "'no'"
	case EquivCasting:
		return "'equiv'"
	case SafeCasting:
		return "'safe'"
	case SameKindCasting:
		return "'same_kind'"
	case UnsafeCasting:
		return "'unsafe'"
	default:
		return "<unknown>"
	}
}

// EquivTypes reports whether two descriptors describe interchangeable
// memory: same kind, size and sub-array structure, with byte order
// compatible (IgnoreOrder matches anything).
func EquivTypes(a, b *Descriptor) bool {
	if a == b {
		return true
	}
	if a.Kind != b.Kind || a.Size != b.Size {
		return false
	}
	if a.Order != b.Order && a.Order != IgnoreOrder && b.Order != IgnoreOrder {
		return false
	}
	if (a.Sub == nil) != (b.Sub == nil) {
		return false
	}
	if a.Sub != nil {
		if !a.Sub.Shape.Equal(b.Sub.Shape) || !EquivTypes(a.Sub.Base, b.Sub.Base) {
			return false
		}
	}
	return true
}

// CanCastTypeTo reports whether a conversion from one concrete element type
// to another is permitted under the given rule.
func CanCastTypeTo(from, to *Descriptor, rule CastRule) bool {
	switch rule {
	case UnsafeCasting:
		return true
	case NoCasting, EquivCasting:
		return EquivTypes(from, to)
	case SameKindCasting:
		return canCastSafely(from, to) || sameKindGroup(from.Kind, to.Kind)
	default:
		return canCastSafely(from, to)
	}
}

// CanCastArrayTo reports whether the array's element type can be cast to
// the requested type under the given rule.
func CanCastArrayTo(h *Handle, to *Descriptor, rule CastRule) bool {
	return CanCastTypeTo(h.Descr(), to, rule)
}

// sameKindGroup groups bool, the two integer kinds, and float; flexible
// kinds are "same kind" only with themselves.
func sameKindGroup(a, b Kind) bool {
	group := func(k Kind) int {
		switch k {
		case KindBool:
			return 0
		case KindInt, KindUint:
			return 1
		case KindFloat:
			return 2
		default:
			return 3 + int(k)
		}
	}
	return group(a) == group(b)
}

// canCastSafely encodes the value-preserving lattice over the supported
// kinds and sizes.
func canCastSafely(from, to *Descriptor) bool {
	if EquivTypes(from, to) {
		return true
	}
	if from.Sub != nil || to.Sub != nil {
		return false
	}
	switch from.Kind {
	case KindBool:
		return to.Kind == KindBool || to.Kind == KindInt || to.Kind == KindUint || to.Kind == KindFloat
	case KindInt:
		switch to.Kind {
		case KindInt:
			return to.Size >= from.Size
		case KindFloat:
			return intFitsFloat(from.Size, to.Size)
		}
		return false
	case KindUint:
		switch to.Kind {
		case KindUint:
			return to.Size >= from.Size
		case KindInt:
			return to.Size > from.Size
		case KindFloat:
			return intFitsFloat(from.Size, to.Size)
		}
		return false
	case KindFloat:
		return to.Kind == KindFloat && to.Size >= from.Size
	case KindString:
		return to.Kind == KindString && to.Size >= from.Size
	case KindUnicode:
		return to.Kind == KindUnicode && to.Size >= from.Size
	default:
		return false
	}
}

// intFitsFloat reports whether an integer of intSize bytes round-trips
// through a float of floatSize bytes. The widest integers are conventionally
// accepted by the widest float even though the mantissa cannot hold every
// value.
func intFitsFloat(intSize, floatSize int) bool {
	if floatSize >= 8 {
		return true
	}
	return floatSize > intSize
}
