package pool

import (
	"testing"

	"github.com/region-alloc/region"
)

func TestPoolExhaustionAndSpillover(t *testing.T) {
	a, err := New([]BucketConfig{
		{BlockSize: 32, BlockCount: 4},
		{BlockSize: 128, BlockCount: 2},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	var ptrs []region.Ptr
	for i := 0; i < 4; i++ {
		ptr, err := a.Allocate(32, 8)
		if err != nil {
			t.Fatalf("Allocate %d: %v", i, err)
		}
		ptrs = append(ptrs, ptr)
	}

	if _, err := a.Allocate(32, 8); err != region.ErrOutOfSpace {
		t.Errorf("5th 32-byte Allocate: got err %v, want ErrOutOfSpace", err)
	}

	if _, err := a.Allocate(64, 8); err != nil {
		t.Errorf("64-byte Allocate should spill into the 128-byte bucket: %v", err)
	}

	for _, p := range ptrs {
		if !a.Owns(p) {
			t.Errorf("Owns(%v) = false for a live allocation", p)
		}
	}
}

func TestPoolAllocateNFreeThenNPlusOneFails(t *testing.T) {
	const n = 6
	a, err := New([]BucketConfig{{BlockSize: 16, BlockCount: n}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	var ptrs []region.Ptr
	for i := 0; i < n; i++ {
		ptr, err := a.Allocate(16, 8)
		if err != nil {
			t.Fatalf("Allocate %d: %v", i, err)
		}
		ptrs = append(ptrs, ptr)
	}

	if _, err := a.Allocate(16, 8); err != region.ErrOutOfSpace {
		t.Errorf("Allocate n+1: got err %v, want ErrOutOfSpace", err)
	}

	seen := map[region.Ptr]bool{}
	for _, p := range ptrs {
		if seen[p] {
			t.Errorf("duplicate address returned: %v", p)
		}
		seen[p] = true
	}
}

func TestPoolNoSuitableBucket(t *testing.T) {
	a, err := New([]BucketConfig{{BlockSize: 32, BlockCount: 4}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := a.Allocate(64, 8); err != region.ErrNoSuitableBucket {
		t.Errorf("Allocate(64, ...): got err %v, want ErrNoSuitableBucket", err)
	}
}

func TestPoolFreeAndReallocate(t *testing.T) {
	a, _ := New([]BucketConfig{{BlockSize: 32, BlockCount: 2}})

	before := a.TotalAllocated()
	ptr, err := a.Allocate(32, 8)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	copy(a.Bytes(ptr), []byte("0123456789"))

	a.Free(ptr)
	if got := a.TotalAllocated(); got != before {
		t.Errorf("TotalAllocated after Free = %d, want %d", got, before)
	}

	ptr2, err := a.Allocate(32, 8)
	if err != nil {
		t.Fatalf("Allocate after free: %v", err)
	}

	grown, err := a.Reallocate(ptr2, 32, 8)
	if err != nil {
		t.Fatalf("Reallocate: %v", err)
	}
	if !a.Owns(grown) {
		t.Error("Reallocate result not owned")
	}
}

func TestPoolReset(t *testing.T) {
	a, _ := New([]BucketConfig{{BlockSize: 16, BlockCount: 4}})
	for i := 0; i < 4; i++ {
		if _, err := a.Allocate(16, 8); err != nil {
			t.Fatalf("Allocate %d: %v", i, err)
		}
	}
	a.Reset()
	if a.TotalAllocated() != 0 || a.AllocationCount() != 0 {
		t.Errorf("Reset did not zero counters")
	}
	for i := 0; i < 4; i++ {
		if _, err := a.Allocate(16, 8); err != nil {
			t.Errorf("Allocate %d after Reset: %v", i, err)
		}
	}
}

func TestPoolValidateInternalState(t *testing.T) {
	a, _ := New([]BucketConfig{{BlockSize: 16, BlockCount: 4}, {BlockSize: 64, BlockCount: 2}})
	if !a.ValidateInternalState() {
		t.Error("fresh pool should validate")
	}
	p, _ := a.Allocate(16, 8)
	if !a.ValidateInternalState() {
		t.Error("pool with one live allocation should validate")
	}
	a.Free(p)
	if !a.ValidateInternalState() {
		t.Error("pool after free should validate")
	}
}

func TestPoolInvalidConfig(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Error("New(nil): expected error")
	}
	if _, err := New([]BucketConfig{{BlockSize: 4, BlockCount: 4}}); err == nil {
		t.Error("New with BlockSize < 8: expected error")
	}
	if _, err := New([]BucketConfig{{BlockSize: 16, BlockCount: 0}}); err == nil {
		t.Error("New with BlockCount 0: expected error")
	}
}
