// Copyright 2026 Mica ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package device provides the public API for device memory management in
// the Mica framework: arenas over raw memory spaces, a registry that maps
// device ordinals to arenas, and pooled allocation on top.
package device

import (
	"github.com/mica-ml/mica/internal/device"
)

// Buffer is a block of memory resident in one device memory space.
type Buffer = device.Buffer

// Arena acquires and releases buffers in a single memory space.
type Arena = device.Arena

// Registry maps device ordinals to arenas and pools their buffers.
type Registry = device.Registry

// HostArena is an Arena over ordinary process memory.
type HostArena = device.HostArena

// Constructors.
var (
	NewRegistry         = device.NewRegistry
	NewHostArena        = device.NewHostArena
	NewBoundedHostArena = device.NewBoundedHostArena
)

// Sentinel errors.
var (
	ErrNoMemory  = device.ErrNoMemory
	ErrBadDevice = device.ErrBadDevice
	ErrReleased  = device.ErrReleased
)
