package device

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func testRegistry(arenas ...Arena) *Registry {
	if len(arenas) == 0 {
		arenas = []Arena{NewHostArena("mic0")}
	}
	return NewRegistry(zerolog.Nop(), arenas...)
}

func TestHostArenaAllocReadWrite(t *testing.T) {
	a := NewHostArena("mic0")
	buf, err := a.Alloc(16)
	if err != nil {
		t.Fatalf("Alloc failed: %v", err)
	}
	if buf.Size() != 16 {
		t.Errorf("Size() = %d, want 16", buf.Size())
	}

	want := []byte{1, 2, 3, 4}
	if err := buf.Write(4, want); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	got := make([]byte, 4)
	if err := buf.Read(got, 4); err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("Read = %v, want %v", got, want)
	}

	if err := buf.Read(got, 14); err == nil {
		t.Error("out-of-range Read succeeded")
	}
	if err := buf.Write(-1, want); err == nil {
		t.Error("negative-offset Write succeeded")
	}
}

func TestHostBufferUseAfterRelease(t *testing.T) {
	a := NewHostArena("mic0")
	buf, err := a.Alloc(8)
	if err != nil {
		t.Fatalf("Alloc failed: %v", err)
	}
	buf.Release()
	if err := buf.Read(make([]byte, 1), 0); !errors.Is(err, ErrReleased) {
		t.Errorf("Read after Release = %v, want ErrReleased", err)
	}
	if err := buf.Write(0, []byte{1}); !errors.Is(err, ErrReleased) {
		t.Errorf("Write after Release = %v, want ErrReleased", err)
	}
}

func TestBoundedHostArena(t *testing.T) {
	a := NewBoundedHostArena("mic0", 100)
	first, err := a.Alloc(80)
	if err != nil {
		t.Fatalf("Alloc within capacity failed: %v", err)
	}
	if _, err := a.Alloc(40); !errors.Is(err, ErrNoMemory) {
		t.Errorf("Alloc past capacity = %v, want ErrNoMemory", err)
	}
	first.Release()
	if a.Used() != 0 {
		t.Errorf("Used() = %d after release, want 0", a.Used())
	}
	if _, err := a.Alloc(40); err != nil {
		t.Errorf("Alloc after release failed: %v", err)
	}
}

func TestRegistryCheck(t *testing.T) {
	r := testRegistry(NewHostArena("mic0"), NewHostArena("mic1"))
	if r.Count() != 2 {
		t.Fatalf("Count() = %d, want 2", r.Count())
	}
	for _, dev := range []int{0, 1} {
		if err := r.Check(dev); err != nil {
			t.Errorf("Check(%d) = %v, want nil", dev, err)
		}
	}
	for _, dev := range []int{-1, 2, 5} {
		err := r.Check(dev)
		if !errors.Is(err, ErrBadDevice) {
			t.Errorf("Check(%d) = %v, want ErrBadDevice", dev, err)
		}
		if err != nil && !strings.Contains(err.Error(), "[0, 2)") {
			t.Errorf("Check(%d) error %q does not name the valid range", dev, err)
		}
	}
}

func TestRegistryNames(t *testing.T) {
	r := testRegistry(NewHostArena("mic0"), NewHostArena("mic1"))
	if got := r.Name(1); got != "mic1" {
		t.Errorf("Name(1) = %q, want %q", got, "mic1")
	}
	if got := r.Name(7); got != "" {
		t.Errorf("Name(7) = %q, want empty", got)
	}
}

func TestAllocZeroed(t *testing.T) {
	r := testRegistry()

	// Spans multiple zero-fill chunks with a ragged tail.
	const n = 130*1024 + 7
	buf, err := r.AllocZeroed(0, n)
	if err != nil {
		t.Fatalf("AllocZeroed failed: %v", err)
	}
	defer buf.Release()

	got := make([]byte, n)
	if err := buf.Read(got, 0); err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	for i, b := range got {
		if b != 0 {
			t.Fatalf("byte %d = %d, want 0", i, b)
		}
	}
}

func TestPoolReuse(t *testing.T) {
	r := testRegistry()
	buf, err := r.Alloc(0, 100)
	if err != nil {
		t.Fatalf("Alloc failed: %v", err)
	}
	if err := buf.Write(0, []byte{42}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	buf.Release()

	// A smaller request is served from the pooled 100-byte buffer.
	again, err := r.Alloc(0, 50)
	if err != nil {
		t.Fatalf("Alloc after release failed: %v", err)
	}
	if again.Size() != 100 {
		t.Errorf("Size() = %d, want the pooled 100-byte buffer", again.Size())
	}
	again.Release()
}

func TestRegistryClose(t *testing.T) {
	arena := NewHostArena("mic0")
	r := testRegistry(arena)
	buf, err := r.Alloc(0, 64)
	if err != nil {
		t.Fatalf("Alloc failed: %v", err)
	}
	buf.Release()
	if arena.Used() == 0 {
		t.Fatal("pooled buffer should still count against the arena")
	}
	r.Close()
	if arena.Used() != 0 {
		t.Errorf("Used() = %d after Close, want 0", arena.Used())
	}
}

func TestCategorize(t *testing.T) {
	tests := []struct {
		n    int
		want sizeCategory
	}{
		{0, smallBuffer},
		{smallThreshold - 1, smallBuffer},
		{smallThreshold, mediumBuffer},
		{mediumThreshold - 1, mediumBuffer},
		{mediumThreshold, largeBuffer},
		{1 << 30, largeBuffer},
	}
	for _, tt := range tests {
		if got := categorize(tt.n); got != tt.want {
			t.Errorf("categorize(%d) = %v, want %v", tt.n, got, tt.want)
		}
	}
}
