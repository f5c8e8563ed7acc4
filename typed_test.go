package region

import (
	"testing"
	"unsafe"
)

// fakeBumpAllocator is a minimal Allocator implementation used only to
// exercise New/Delete without introducing a dependency on a concrete
// allocator package (which would make region depend on its own
// dependents).
type fakeBumpAllocator struct {
	Base
	buf    []byte
	offset uint64
}

func newFakeBumpAllocator(size uint64) *fakeBumpAllocator {
	return &fakeBumpAllocator{buf: make([]byte, size)}
}

func (f *fakeBumpAllocator) Allocate(size, alignment uint64) (Ptr, error) {
	f.Lock()
	defer f.Unlock()
	base := BaseAddr(f.buf)
	pad := AlignPadding(base+uintptr(f.offset), alignment)
	start := f.offset + pad
	if start+size > uint64(len(f.buf)) {
		return NoAddress, ErrOutOfSpace
	}
	f.offset = start + size
	f.RecordAlloc(size)
	return Ptr(start), nil
}

func (f *fakeBumpAllocator) Free(ptr Ptr) {}

func (f *fakeBumpAllocator) Reallocate(ptr Ptr, newSize, alignment uint64) (Ptr, error) {
	return f.Allocate(newSize, alignment)
}

func (f *fakeBumpAllocator) AllocationSize(ptr Ptr) uint64 { return 0 }

func (f *fakeBumpAllocator) Bytes(ptr Ptr) []byte { return f.buf[ptr:] }

func (f *fakeBumpAllocator) Reset() {
	f.Lock()
	f.offset = 0
	f.ResetAll()
	f.Unlock()
}

func (f *fakeBumpAllocator) Owns(ptr Ptr) bool { return uint64(ptr) < uint64(len(f.buf)) }

func (f *fakeBumpAllocator) FragmentationPercentage() float64 { return 0 }

func (f *fakeBumpAllocator) ValidateInternalState() bool { return f.offset <= uint64(len(f.buf)) }

func (f *fakeBumpAllocator) DetailedStats() string { return "" }

type point struct {
	X, Y int64
}

func TestNewDelete(t *testing.T) {
	a := newFakeBumpAllocator(256)

	ptr, p, err := New[point](a, 8)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if p.X != 0 || p.Y != 0 {
		t.Errorf("New value not zeroed: %+v", *p)
	}

	p.X, p.Y = 3, 4
	buf := a.Bytes(ptr)
	again := (*point)(unsafe.Pointer(&buf[0]))
	if again.X != 3 || again.Y != 4 {
		t.Errorf("write through *T not visible via Bytes: %+v", *again)
	}

	Delete[point](a, ptr)
}

func TestNewOutOfSpace(t *testing.T) {
	a := newFakeBumpAllocator(4)
	_, _, err := New[point](a, 8)
	if err == nil {
		t.Fatal("New: expected error for oversized type, got nil")
	}
}
