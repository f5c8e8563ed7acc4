// Package stack implements a LIFO allocator: each allocation is preceded
// by a small header recording how to unwind it, and Free only restores
// the bump offset correctly when called in strict reverse allocation
// order. A marker stack lets callers roll back whole nested scopes at
// once.
package stack

import (
	"fmt"
	"strings"

	"github.com/region-alloc/region"
)

// headerSize is sizeof(AllocationHeader): an 8-byte payload size plus an
// 8-byte adjustment (header size + alignment padding that preceded it).
const headerSize = 16

// Allocator is a stack (LIFO) allocator over a fixed-size buffer.
type Allocator struct {
	region.Base
	buf     []byte
	offset  uint64
	markers []uint64
}

// New constructs a Stack allocator over a freshly allocated buffer of
// size bytes.
func New(size uint64, opts ...region.Option) (*Allocator, error) {
	if size == 0 {
		return nil, region.ErrZeroBufferSize
	}
	a := &Allocator{buf: make([]byte, size)}
	a.Apply(opts)
	if a.Name() == "" {
		a.SetName("StackAllocator")
	}
	return a, nil
}

// Allocate reserves size bytes aligned to alignment, preceded by a
// header that lets Free unwind it.
func (a *Allocator) Allocate(size, alignment uint64) (region.Ptr, error) {
	if !region.IsPowerOfTwo(alignment) {
		return region.NoAddress, region.ErrInvalidAlignment
	}

	a.Lock()
	defer a.Unlock()
	return a.allocateLocked(size, alignment)
}

func (a *Allocator) allocateLocked(size, alignment uint64) (region.Ptr, error) {
	base := region.BaseAddr(a.buf)
	headerAddr := base + uintptr(a.offset) + headerSize
	padding := region.AlignPadding(headerAddr, alignment)

	total := headerSize + padding + size
	newOffset := a.offset + total
	if newOffset > uint64(len(a.buf)) {
		return region.NoAddress, region.ErrOutOfSpace
	}

	headerOffset := a.offset + padding
	userOffset := headerOffset + headerSize

	region.PutUint64(a.buf, headerOffset, size)
	region.PutUint64(a.buf, headerOffset+8, headerSize+padding)

	a.offset = newOffset
	a.RecordAlloc(size)
	return region.Ptr(userOffset), nil
}

// header reads the {size, adjustment} header immediately preceding ptr.
func (a *Allocator) header(ptr region.Ptr) (size, adjustment uint64) {
	headerOffset := uint64(ptr) - headerSize
	return region.GetUint64(a.buf, headerOffset), region.GetUint64(a.buf, headerOffset+8)
}

// Free restores the bump offset to the value it held before the
// allocation at ptr was made. This is only correct when ptr is the most
// recently allocated, still-live block; freeing out of order is
// undefined behavior and is not detected.
func (a *Allocator) Free(ptr region.Ptr) {
	if ptr == region.NoAddress {
		return
	}
	a.Lock()
	defer a.Unlock()

	size, adjustment := a.header(ptr)
	a.offset = uint64(ptr) - adjustment
	a.RecordFree(size)
}

// Reallocate grows the allocation at ptr in place when ptr is the topmost
// live allocation and the larger size still fits in the buffer; otherwise,
// including every shrink, it allocates fresh, copies, and frees the old
// block.
func (a *Allocator) Reallocate(ptr region.Ptr, newSize, alignment uint64) (region.Ptr, error) {
	if !region.IsPowerOfTwo(alignment) {
		return region.NoAddress, region.ErrInvalidAlignment
	}
	if ptr == region.NoAddress {
		return a.Allocate(newSize, alignment)
	}
	if newSize == 0 {
		a.Free(ptr)
		return region.NoAddress, nil
	}

	a.Lock()
	oldSize, adjustment := a.header(ptr)
	isTop := uint64(ptr)+oldSize == a.offset
	if isTop {
		delta := newSize - oldSize
		if newSize >= oldSize && a.offset+delta <= uint64(len(a.buf)) {
			a.offset += delta
			headerOffset := uint64(ptr) - headerSize
			region.PutUint64(a.buf, headerOffset, newSize)
			a.AdjustAllocated(int64(delta))
			a.Unlock()
			return ptr, nil
		}
	}
	a.Unlock()

	_ = adjustment
	newPtr, err := a.Allocate(newSize, alignment)
	if err != nil {
		return region.NoAddress, err
	}
	n := oldSize
	if newSize < n {
		n = newSize
	}
	copy(a.Bytes(newPtr), a.Bytes(ptr)[:n])
	a.Free(ptr)
	return newPtr, nil
}

// AllocationSize returns the originally requested payload size for ptr.
func (a *Allocator) AllocationSize(ptr region.Ptr) uint64 {
	if !a.Owns(ptr) {
		return 0
	}
	a.Lock()
	defer a.Unlock()
	size, _ := a.header(ptr)
	return size
}

// Bytes returns a slice view of the payload at ptr.
func (a *Allocator) Bytes(ptr region.Ptr) []byte {
	a.Lock()
	defer a.Unlock()
	size, _ := a.header(ptr)
	return a.buf[uint64(ptr) : uint64(ptr)+size]
}

// Reset reclaims the whole buffer, clears the marker stack, and zeroes
// every counter.
func (a *Allocator) Reset() {
	a.Lock()
	a.offset = 0
	a.markers = a.markers[:0]
	a.ResetAll()
	a.Unlock()
}

// Owns reports whether ptr lies within this allocator's buffer.
func (a *Allocator) Owns(ptr region.Ptr) bool {
	a.Lock()
	defer a.Unlock()
	return uint64(ptr) < uint64(len(a.buf))
}

// FragmentationPercentage always returns 0: a stack allocator's free
// space is always one contiguous region above the bump offset.
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
	markers := len(a.markers)
	a.Unlock()

	var sb strings.Builder
	fmt.Fprintf(&sb, "StackAllocator %q Stats:\n", a.Name())
	fmt.Fprintf(&sb, "Total Size: %d\n", total)
	fmt.Fprintf(&sb, "Used: %d\n", used)
	fmt.Fprintf(&sb, "Peak Usage: %d\n", a.PeakUsage())
	fmt.Fprintf(&sb, "Allocation Count: %d\n", a.AllocationCount())
	fmt.Fprintf(&sb, "Marker Count: %d\n", markers)
	return sb.String()
}

// Marker returns a snapshot of the current bump offset, suitable for a
// later FreeToMarker call.
func (a *Allocator) Marker() uint64 {
	a.Lock()
	defer a.Unlock()
	return a.offset
}

// FreeToMarker rewinds the bump offset to marker, provided marker is not
// past the current offset (rewinding forward is refused rather than
// silently growing the live region).
func (a *Allocator) FreeToMarker(marker uint64) {
	a.Lock()
	defer a.Unlock()
	if marker <= a.offset {
		a.offset = marker
	}
}

// PushMarker saves the current bump offset on an internal marker stack.
func (a *Allocator) PushMarker() {
	a.Lock()
	a.markers = append(a.markers, a.offset)
	a.Unlock()
}

// PopMarker rewinds to the most recently pushed marker and removes it
// from the marker stack. It is a no-op if the marker stack is empty.
func (a *Allocator) PopMarker() {
	a.Lock()
	defer a.Unlock()
	if len(a.markers) == 0 {
		return
	}
	top := a.markers[len(a.markers)-1]
	a.markers = a.markers[:len(a.markers)-1]
	if top <= a.offset {
		a.offset = top
	}
}
