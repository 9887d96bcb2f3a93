//go:build !windows

package webgpu

import (
	"errors"
	"testing"

	"github.com/mica-ml/mica/internal/device"
)

func TestNewUnavailable(t *testing.T) {
	a, err := New()
	if err == nil {
		t.Fatal("expected error on platforms without webgpu support")
	}
	if a != nil {
		t.Fatalf("expected nil arena, got %v", a)
	}
}

func TestStubArenaAllocFails(t *testing.T) {
	var a Arena
	if _, err := a.Alloc(64); !errors.Is(err, device.ErrNoMemory) {
		t.Fatalf("expected ErrNoMemory, got %v", err)
	}
	if got := a.Name(); got != "webgpu" {
		t.Fatalf("Name() = %q, want %q", got, "webgpu")
	}
}
