// Package linear implements a monotonic bump allocator: Allocate always
// carves from the top of the buffer, Free is a no-op, and the buffer is
// only reclaimed in one shot by Reset.
package linear

import (
	"fmt"
	"strings"

	"github.com/region-alloc/region"
)

// Allocator is a linear (bump) allocator over a fixed-size buffer.
type Allocator struct {
	region.Base
	buf    []byte
	offset uint64
}

// New constructs a Linear allocator over a freshly allocated buffer of
// size bytes.
func New(size uint64, opts ...region.Option) (*Allocator, error) {
	if size == 0 {
		return nil, region.ErrZeroBufferSize
	}
	a := &Allocator{buf: make([]byte, size)}
	a.Apply(opts)
	if a.Name() == "" {
		a.SetName("LinearAllocator")
	}
	return a, nil
}

// Allocate reserves size bytes aligned to alignment by advancing the bump
// offset.
func (a *Allocator) Allocate(size, alignment uint64) (region.Ptr, error) {
	if !region.IsPowerOfTwo(alignment) {
		return region.NoAddress, region.ErrInvalidAlignment
	}

	a.Lock()
	defer a.Unlock()

	base := region.BaseAddr(a.buf)
	padding := region.AlignPadding(base+uintptr(a.offset), alignment)
	newOffset := a.offset + padding + size
	if newOffset > uint64(len(a.buf)) {
		return region.NoAddress, region.ErrOutOfSpace
	}

	ptr := region.Ptr(a.offset + padding)
	a.offset = newOffset
	a.RecordAlloc(size)
	return ptr, nil
}

// Free is a no-op: a linear allocator reclaims space only via Reset.
func (a *Allocator) Free(ptr region.Ptr) {}

// Reallocate always allocates a fresh block and copies the old payload's
// prefix into it; bump allocations are never moved in place, so the
// over-approximating AllocationSize (distance from ptr to the current
// top) is a safe upper bound for what to copy.
func (a *Allocator) Reallocate(ptr region.Ptr, newSize, alignment uint64) (region.Ptr, error) {
	if ptr == region.NoAddress {
		return a.Allocate(newSize, alignment)
	}
	if newSize == 0 {
		a.Free(ptr)
		return region.NoAddress, nil
	}

	oldSize := a.AllocationSize(ptr)
	newPtr, err := a.Allocate(newSize, alignment)
	if err != nil {
		return region.NoAddress, err
	}

	n := oldSize
	if newSize < n {
		n = newSize
	}
	copy(a.Bytes(newPtr), a.Bytes(ptr)[:n])
	return newPtr, nil
}

// AllocationSize returns the distance from ptr to the current bump top.
// Without a header this is an over-report rather than the originally
// requested size, but it is the only value computable without one, and
// it is the value Reallocate relies on as a safe copy bound.
func (a *Allocator) AllocationSize(ptr region.Ptr) uint64 {
	a.Lock()
	defer a.Unlock()
	if uint64(ptr) >= a.offset {
		return 0
	}
	return a.offset - uint64(ptr)
}

// Bytes returns a slice view of the payload at ptr, running to the
// current bump top (see AllocationSize for why that is an
// over-approximation of the original request).
func (a *Allocator) Bytes(ptr region.Ptr) []byte {
	a.Lock()
	defer a.Unlock()
	return a.unsafeBytesAt(ptr, a.offset-uint64(ptr))
}

// unsafeBytesAt returns buf[ptr:ptr+n] without taking the lock; callers
// must already hold it.
func (a *Allocator) unsafeBytesAt(ptr region.Ptr, n uint64) []byte {
	return a.buf[uint64(ptr) : uint64(ptr)+n]
}

// Reset reclaims the whole buffer; the bump offset returns to zero and
// every counter is zeroed.
func (a *Allocator) Reset() {
	a.Lock()
	a.offset = 0
	a.ResetAll()
	a.Unlock()
}

// Owns reports whether ptr lies within this allocator's buffer.
func (a *Allocator) Owns(ptr region.Ptr) bool {
	a.Lock()
	defer a.Unlock()
	return uint64(ptr) < uint64(len(a.buf))
}

// FragmentationPercentage always returns 0: a bump allocator never
// fragments its free space because it has none to speak of.
func (a *Allocator) FragmentationPercentage() float64 { return 0 }

// ValidateInternalState checks that the bump offset has not overrun the
// buffer.
func (a *Allocator) ValidateInternalState() bool {
	a.Lock()
	defer a.Unlock()
	return a.offset <= uint64(len(a.buf))
}

// DetailedStats returns a newline-delimited summary of buffer usage.
func (a *Allocator) DetailedStats() string {
	a.Lock()
	used := a.offset
	total := uint64(len(a.buf))
	a.Unlock()

	var sb strings.Builder
	fmt.Fprintf(&sb, "LinearAllocator %q Stats:\n", a.Name())
	fmt.Fprintf(&sb, "Total Size: %d\n", total)
	fmt.Fprintf(&sb, "Used: %d\n", used)
	fmt.Fprintf(&sb, "Peak Usage: %d\n", a.PeakUsage())
	fmt.Fprintf(&sb, "Allocation Count: %d\n", a.AllocationCount())
	return sb.String()
}
