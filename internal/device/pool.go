package device

import (
	"sync"

	"github.com/rs/zerolog"
)

// Size thresholds for pool categories.
const (
	smallThreshold  = 4 * 1024    // 4KB
	mediumThreshold = 1024 * 1024 // 1MB
	maxPoolBuffers  = 100         // Max buffers per category
)

type sizeCategory int

const (
	smallBuffer sizeCategory = iota
	mediumBuffer
	largeBuffer
)

func categorize(n int) sizeCategory {
	switch {
	case n < smallThreshold:
		return smallBuffer
	case n < mediumThreshold:
		return mediumBuffer
	default:
		return largeBuffer
	}
}

// pool caches released buffers per size category so repeated construction of
// similarly sized arrays reuses arena allocations instead of hitting the
// driver each time.
type pool struct {
	device int
	arena  Arena
	log    zerolog.Logger

	mu      sync.Mutex
	buckets [3][]Buffer
}

func newPool(device int, arena Arena, log zerolog.Logger) *pool {
	return &pool{device: device, arena: arena, log: log}
}

// get returns a cached buffer of at least n bytes, or allocates a fresh one.
func (p *pool) get(n int) (Buffer, error) {
	p.mu.Lock()
	cat := categorize(n)
	bucket := p.buckets[cat]
	for i, buf := range bucket {
		if buf.Size() >= n {
			last := len(bucket) - 1
			bucket[i] = bucket[last]
			p.buckets[cat] = bucket[:last]
			p.mu.Unlock()
			poolHits.Inc()
			poolSizeBytes.Sub(float64(buf.Size()))
			poolBuffers.Dec()
			return &pooledBuffer{Buffer: buf, pool: p}, nil
		}
	}
	p.mu.Unlock()

	poolMisses.Inc()
	buf, err := p.arena.Alloc(n)
	if err != nil {
		return nil, err
	}
	return &pooledBuffer{Buffer: buf, pool: p}, nil
}

// put returns a buffer to the pool, or hands it back to the arena when the
// category bucket is full.
func (p *pool) put(buf Buffer) {
	cat := categorize(buf.Size())
	p.mu.Lock()
	if len(p.buckets[cat]) >= maxPoolBuffers {
		p.mu.Unlock()
		p.arena.Free(buf)
		return
	}
	p.buckets[cat] = append(p.buckets[cat], buf)
	p.mu.Unlock()
	poolSizeBytes.Add(float64(buf.Size()))
	poolBuffers.Inc()
}

// clear hands every cached buffer back to the arena.
func (p *pool) clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	freed := 0
	for cat := range p.buckets {
		for _, buf := range p.buckets[cat] {
			poolSizeBytes.Sub(float64(buf.Size()))
			poolBuffers.Dec()
			p.arena.Free(buf)
			freed++
		}
		p.buckets[cat] = nil
	}
	if freed > 0 {
		p.log.Debug().Int("device", p.device).Int("buffers", freed).Msg("drained buffer pool")
	}
}

// pooledBuffer routes Release back to the pool instead of the arena.
type pooledBuffer struct {
	Buffer
	pool *pool
}

func (b *pooledBuffer) Release() {
	b.pool.put(b.Buffer)
}
