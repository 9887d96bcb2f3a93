// Copyright 2026 Mica ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package array provides the public API for device-resident n-dimensional
// arrays in the Mica framework.
//
// The package defines the core construction surface:
//   - Handle: a strided view of a buffer in one device memory space
//   - HostArray: the host-side counterpart used for data transfer
//   - Descriptor: shared description of element layout
//   - Factory: the sole constructor of handles
//
// Example:
//
//	reg := device.NewRegistry(log, device.NewHostArena("mic0"))
//	f := array.NewFactory(reg)
//	a, err := f.Zeros(0, array.Shape{2, 3}, array.Float32, false)
package array

import (
	"github.com/mica-ml/mica/internal/array"
	"github.com/mica-ml/mica/internal/device"
)

// Shape holds the extents of an array, outermost axis first.
type Shape = array.Shape

// Strides holds per-axis byte strides.
type Strides = array.Strides

// Rank and axis limits.
const (
	MaxDims     = array.MaxDims
	AxisFlatten = array.AxisFlatten
)

// Descriptor describes the layout of a single element: size, kind, byte
// order and an optional sub-array shape.
type Descriptor = array.Descriptor

// SubArray is the fixed-shape element payload of a sub-array descriptor.
type SubArray = array.SubArray

// Kind classifies element types.
type Kind = array.Kind

// Element kind constants.
const (
	KindBool    Kind = array.KindBool
	KindInt     Kind = array.KindInt
	KindUint    Kind = array.KindUint
	KindFloat   Kind = array.KindFloat
	KindString  Kind = array.KindString
	KindUnicode Kind = array.KindUnicode
	KindVoid    Kind = array.KindVoid
)

// ByteOrder marks a descriptor's storage order.
type ByteOrder = array.ByteOrder

// Byte order constants.
const (
	NativeOrder  ByteOrder = array.NativeOrder
	SwappedOrder ByteOrder = array.SwappedOrder
	IgnoreOrder  ByteOrder = array.IgnoreOrder
)

// Predefined element types.
var (
	Bool    = array.Bool
	Int8    = array.Int8
	Int16   = array.Int16
	Int32   = array.Int32
	Int64   = array.Int64
	Uint8   = array.Uint8
	Uint16  = array.Uint16
	Uint32  = array.Uint32
	Uint64  = array.Uint64
	Float16 = array.Float16
	Float32 = array.Float32
	Float64 = array.Float64

	// DefaultType is used when no element type is requested.
	DefaultType = array.DefaultType
)

// Flexible type constructors.
var (
	StringType   = array.StringType
	UnicodeType  = array.UnicodeType
	VoidType     = array.VoidType
	SubArrayType = array.SubArrayType
)

// Handle is a strided view of a buffer resident in one device memory
// space. Handles are created through a Factory and must be released.
type Handle = array.Handle

// HostArray is a host-resident array used as the source or destination of
// device transfers.
type HostArray = array.HostArray

// Subtype identifies a non-base array variant and its finalize hook.
type Subtype = array.Subtype

// FinalizeHook is the post-construction hook of a subtype.
type FinalizeHook = array.FinalizeHook

// NoOrigin is the explicit "no origin object" sentinel for generic
// finalize hooks.
var NoOrigin = array.NoOrigin

// Factory turns construction requests into fully populated handles.
type Factory = array.Factory

// NewOptions carries the optional arguments of Factory.NewFromDescr.
type NewOptions = array.NewOptions

// NewFactory binds a factory to a device registry.
func NewFactory(reg *device.Registry) *Factory { return array.NewFactory(reg) }

// Flags is the bit set of array predicates and construction requests.
type Flags = array.Flags

// Flag constants.
const (
	CContiguous     Flags = array.CContiguous
	FContiguous     Flags = array.FContiguous
	OwnsData        Flags = array.OwnsData
	Aligned         Flags = array.Aligned
	Writeable       Flags = array.Writeable
	WriteBackIfCopy Flags = array.WriteBackIfCopy
	ForceCast       Flags = array.ForceCast
	EnsureCopy      Flags = array.EnsureCopy
	EnsureNoSubtype Flags = array.EnsureNoSubtype
	NotSwapped      Flags = array.NotSwapped
	ElementStrides  Flags = array.ElementStrides

	DefaultFlags Flags = array.DefaultFlags
	Behaved      Flags = array.Behaved
	CArray       Flags = array.CArray
	FArray       Flags = array.FArray
)

// Order selects the memory layout of a new array.
type Order = array.Order

// Layout order constants.
const (
	COrder       Order = array.COrder
	FortranOrder Order = array.FortranOrder
	AnyOrder     Order = array.AnyOrder
	KeepOrder    Order = array.KeepOrder
)

// CastRule bounds the type conversions a copy may perform.
type CastRule = array.CastRule

// Casting rule constants.
const (
	NoCasting       CastRule = array.NoCasting
	EquivCasting    CastRule = array.EquivCasting
	SafeCasting     CastRule = array.SafeCasting
	SameKindCasting CastRule = array.SameKindCasting
	UnsafeCasting   CastRule = array.UnsafeCasting
)

// Casting predicates.
var (
	EquivTypes     = array.EquivTypes
	CanCastTypeTo  = array.CanCastTypeTo
	CanCastArrayTo = array.CanCastArrayTo
)

// Host-side constructors.
var (
	NewHostArray = array.NewHostArray
	FromGoValue  = array.FromGoValue
)

// Sentinel errors.
var (
	ErrBadDevice   = array.ErrBadDevice
	ErrBadRank     = array.ErrBadRank
	ErrNegativeDim = array.ErrNegativeDim
	ErrOverflow    = array.ErrOverflow
	ErrEmptyDType  = array.ErrEmptyDType
	ErrCast        = array.ErrCast
	ErrNoMemory    = array.ErrNoMemory
	ErrFinalize    = array.ErrFinalize
	ErrMaxDims     = array.ErrMaxDims
	ErrBadAxis     = array.ErrBadAxis
	ErrBroadcast   = array.ErrBroadcast
	ErrWriteBack   = array.ErrWriteBack
)
