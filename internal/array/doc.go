// Package array implements the device-aware N-dimensional array core:
// strided array construction over multiple memory spaces, and the
// cast-checked copy / view / broadcast-copy primitives that move data
// between host memory and device memory or between two devices.
//
// The central entity is Handle, a strided array whose backing buffer lives
// on one of the devices registered with a device.Registry. Handles are
// created exclusively through a Factory, which owns the per-instance
// shape/stride buffer pool and performs all layout, size and device
// validation. Conversion entry points (FromArray, FromAny, CheckFromAny)
// layer casting decisions and cross-memory-space copies on top of the
// factory.
package array
