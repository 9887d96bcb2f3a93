//go:build windows

// Package webgpu backs a device arena with WebGPU buffers, so array storage
// can live in real GPU memory behind the same Registry interface as the
// host-simulated arenas. Uses go-webgpu (github.com/go-webgpu/webgpu) for
// zero-CGO WebGPU bindings.
package webgpu

import (
	"fmt"
	"unsafe"

	"github.com/go-webgpu/webgpu/wgpu"

	"github.com/mica-ml/mica/internal/device"
)

// Arena allocates storage buffers on a WebGPU device.
type Arena struct {
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
}

var _ device.Arena = (*Arena)(nil)

// New initializes a WebGPU instance/adapter/device and returns an arena over
// its default queue. Returns an error if WebGPU is not available.
func New() (arena *Arena, err error) {
	// Recover from panic if wgpu_native library is not found.
	defer func() {
		if r := recover(); r != nil {
			arena = nil
			err = fmt.Errorf("webgpu: native library not available: %v", r)
		}
	}()

	instance := wgpu.CreateInstance(nil)
	adapter, adapterErr := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: wgpu.PowerPreferenceHighPerformance,
	})
	if adapterErr != nil {
		instance.Release()
		return nil, fmt.Errorf("webgpu: failed to request adapter: %w", adapterErr)
	}

	dev, deviceErr := adapter.RequestDevice(nil)
	if deviceErr != nil {
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("webgpu: failed to request device: %w", deviceErr)
	}

	queue := dev.GetQueue()
	if queue == nil {
		dev.Release()
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("webgpu: failed to get device queue")
	}

	return &Arena{instance: instance, adapter: adapter, device: dev, queue: queue}, nil
}

// Name identifies the arena in registry logs.
func (a *Arena) Name() string { return "webgpu" }

// Alloc creates an n-byte storage buffer usable as both copy source and
// destination.
func (a *Arena) Alloc(n int) (device.Buffer, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: negative size %d", device.ErrNoMemory, n)
	}
	buf := a.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc | wgpu.BufferUsageCopyDst,
		Size:  uint64(n),
	})
	if buf == nil {
		return nil, fmt.Errorf("%w: webgpu buffer of %d bytes", device.ErrNoMemory, n)
	}
	return &gpuBuffer{arena: a, buf: buf, size: n}, nil
}

// Free releases the underlying wgpu buffer.
func (a *Arena) Free(b device.Buffer) {
	if gb, ok := b.(*gpuBuffer); ok && gb.buf != nil {
		gb.buf.Release()
		gb.buf = nil
	}
}

// Close releases the queue, device, adapter and instance.
func (a *Arena) Close() {
	a.device.Release()
	a.adapter.Release()
	a.instance.Release()
}

type gpuBuffer struct {
	arena *Arena
	buf   *wgpu.Buffer
	size  int
}

func (b *gpuBuffer) Size() int { return b.size }

// Read copies through a MapRead staging buffer; storage buffers cannot be
// mapped directly.
func (b *gpuBuffer) Read(p []byte, off int) error {
	if b.buf == nil {
		return device.ErrReleased
	}
	if off < 0 || off+len(p) > b.size {
		return fmt.Errorf("read [%d, %d) outside buffer of %d bytes", off, off+len(p), b.size)
	}
	if len(p) == 0 {
		return nil
	}
	size := uint64(len(p))
	staging := b.arena.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
		Size:  size,
	})
	defer staging.Release()

	encoder := b.arena.device.CreateCommandEncoder(nil)
	encoder.CopyBufferToBuffer(b.buf, uint64(off), staging, 0, size)
	cmd := encoder.Finish(nil)
	b.arena.queue.Submit(cmd)

	if err := staging.MapAsync(b.arena.device, wgpu.MapModeRead, 0, size); err != nil {
		return fmt.Errorf("webgpu: failed to map staging buffer: %w", err)
	}
	mapped := staging.GetMappedRange(0, size)
	copy(p, unsafe.Slice((*byte)(mapped), size))
	staging.Unmap()
	return nil
}

// Write uploads through a mapped-at-creation staging buffer and a
// buffer-to-buffer copy at the requested offset.
func (b *gpuBuffer) Write(off int, p []byte) error {
	if b.buf == nil {
		return device.ErrReleased
	}
	if off < 0 || off+len(p) > b.size {
		return fmt.Errorf("write [%d, %d) outside buffer of %d bytes", off, off+len(p), b.size)
	}
	if len(p) == 0 {
		return nil
	}
	size := uint64(len(p))
	staging := b.arena.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage:            wgpu.BufferUsageCopySrc,
		Size:             size,
		MappedAtCreation: wgpu.True,
	})
	defer staging.Release()

	mapped := staging.GetMappedRange(0, size)
	copy(unsafe.Slice((*byte)(mapped), size), p)
	staging.Unmap()

	encoder := b.arena.device.CreateCommandEncoder(nil)
	encoder.CopyBufferToBuffer(staging, 0, b.buf, uint64(off), size)
	cmd := encoder.Finish(nil)
	b.arena.queue.Submit(cmd)
	return nil
}

func (b *gpuBuffer) Release() {
	b.arena.Free(b)
}
