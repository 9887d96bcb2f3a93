package device

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// Allocation failures surface as ErrNoMemory so callers can test the kind
// with errors.Is regardless of which arena refused the request.
var (
	ErrNoMemory  = errors.New("device allocator returned no memory")
	ErrBadDevice = errors.New("device number out of range")
	ErrReleased  = errors.New("buffer already released")
)

// Buffer is a single allocation inside an arena. The backing memory may not
// be host-addressable (a GPU buffer, for example), so access goes through
// Read/Write. Release returns the buffer to its arena; using a buffer after
// Release is an error.
type Buffer interface {
	// Size returns the usable size in bytes.
	Size() int

	// Read copies len(p) bytes starting at off into p.
	Read(p []byte, off int) error

	// Write copies p into the buffer starting at off.
	Write(off int, p []byte) error

	// Release returns the buffer to its arena (or pool).
	Release()
}

// Arena is one memory space. Alloc may block on a device driver call; it
// either returns a usable buffer or an error, never both.
type Arena interface {
	Name() string
	Alloc(n int) (Buffer, error)
	Free(Buffer)
}

// Registry maps small integer device ids to pooled arenas. The id space is
// fixed at construction; concurrent Alloc/Free calls targeting the same
// device serialize inside the per-arena pool.
type Registry struct {
	pools []*pool
	log   zerolog.Logger
}

// NewRegistry wraps each arena in a buffer pool and assigns device ids in
// argument order.
func NewRegistry(log zerolog.Logger, arenas ...Arena) *Registry {
	r := &Registry{log: log}
	for id, a := range arenas {
		r.pools = append(r.pools, newPool(id, a, log))
		log.Info().Int("device", id).Str("arena", a.Name()).Msg("registered device arena")
	}
	return r
}

// Count returns the number of registered devices.
func (r *Registry) Count() int {
	return len(r.pools)
}

// Check validates a device id against the registered range.
func (r *Registry) Check(dev int) error {
	if dev < 0 || dev >= len(r.pools) {
		return fmt.Errorf("%w: device number must be within [0, %d)", ErrBadDevice, len(r.pools))
	}
	return nil
}

// Alloc acquires n bytes on the given device. The contents are undefined.
func (r *Registry) Alloc(dev, n int) (Buffer, error) {
	if err := r.Check(dev); err != nil {
		return nil, err
	}
	buf, err := r.pools[dev].get(n)
	if err != nil {
		r.log.Error().Int("device", dev).Int("bytes", n).Err(err).Msg("device allocation failed")
	}
	return buf, err
}

// AllocZeroed is Alloc with the returned buffer filled with zero bytes.
func (r *Registry) AllocZeroed(dev, n int) (Buffer, error) {
	buf, err := r.Alloc(dev, n)
	if err != nil {
		return nil, err
	}
	if err := zeroFill(buf, n); err != nil {
		buf.Release()
		return nil, err
	}
	return buf, nil
}

// Name returns the arena name behind a device id, or "" if out of range.
func (r *Registry) Name(dev int) string {
	if r.Check(dev) != nil {
		return ""
	}
	return r.pools[dev].arena.Name()
}

// Close drains every pool, handing cached buffers back to their arenas.
func (r *Registry) Close() {
	for _, p := range r.pools {
		p.clear()
	}
}

func zeroFill(buf Buffer, n int) error {
	const chunk = 64 * 1024
	zeros := make([]byte, min(n, chunk))
	for off := 0; off < n; off += chunk {
		if err := buf.Write(off, zeros[:min(chunk, n-off)]); err != nil {
			return err
		}
	}
	return nil
}

// HostArena is an in-process memory space: buffers are plain Go slabs. It
// stands in for a device driver in tests and doubles as the staging space
// for host<->device transfers. An optional capacity bound makes it refuse
// allocations past a budget, like a real card running out of memory.
type HostArena struct {
	name     string
	capacity int64 // 0 means unbounded
	used     atomic.Int64
}

// NewHostArena creates an unbounded host-memory arena.
func NewHostArena(name string) *HostArena {
	return &HostArena{name: name}
}

// NewBoundedHostArena creates a host-memory arena that fails allocations
// once capacity bytes are outstanding.
func NewBoundedHostArena(name string, capacity int64) *HostArena {
	return &HostArena{name: name, capacity: capacity}
}

// Name returns the arena name.
func (a *HostArena) Name() string { return a.name }

// Alloc hands out an n-byte slab. The slab is not zeroed beyond what the Go
// runtime guarantees for fresh allocations.
func (a *HostArena) Alloc(n int) (Buffer, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: negative size %d", ErrNoMemory, n)
	}
	if a.capacity > 0 && a.used.Add(int64(n)) > a.capacity {
		a.used.Add(int64(-n))
		return nil, fmt.Errorf("%w: arena %q capacity exceeded", ErrNoMemory, a.name)
	}
	return &hostBuffer{arena: a, data: make([]byte, n)}, nil
}

// Free returns a buffer's bytes to the arena budget.
func (a *HostArena) Free(b Buffer) {
	hb, ok := b.(*hostBuffer)
	if !ok {
		return
	}
	hb.mu.Lock()
	defer hb.mu.Unlock()
	if hb.data != nil {
		a.used.Add(int64(-len(hb.data)))
		hb.data = nil
	}
}

// Used reports outstanding bytes (pooled buffers count as outstanding).
func (a *HostArena) Used() int64 { return a.used.Load() }

type hostBuffer struct {
	arena *HostArena
	data  []byte
	mu    sync.Mutex
}

func (b *hostBuffer) Size() int { return len(b.data) }

func (b *hostBuffer) Read(p []byte, off int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.data == nil {
		return ErrReleased
	}
	if off < 0 || off+len(p) > len(b.data) {
		return fmt.Errorf("read [%d, %d) outside buffer of %d bytes", off, off+len(p), len(b.data))
	}
	copy(p, b.data[off:])
	return nil
}

func (b *hostBuffer) Write(off int, p []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.data == nil {
		return ErrReleased
	}
	if off < 0 || off+len(p) > len(b.data) {
		return fmt.Errorf("write [%d, %d) outside buffer of %d bytes", off, off+len(p), len(b.data))
	}
	copy(b.data[off:], p)
	return nil
}

func (b *hostBuffer) Release() {
	b.arena.Free(b)
}
