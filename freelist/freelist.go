// Package freelist implements a first-fit, splitting, coalescing
// variable-size allocator: the backing buffer starts as one free block
// and is carved on Allocate, with adjacent free neighbors merged back
// together on Free. This is the central subsystem of the module — see
// doc.go for the full placement and coalescing algorithm.
package freelist

import (
	"fmt"
	"strings"

	"github.com/region-alloc/region"
)

// freeBlockSize is sizeof(FreeBlock): an 8-byte size field plus an
// 8-byte next-block offset overlaid on every free block's first bytes.
const freeBlockSize = 16

// headerSize is sizeof(AllocationHeader): an 8-byte size field plus a
// 1-byte alignment-padding field, widened to 16 bytes to match
// freeBlockSize. The allocate/free arithmetic below (see doc.go) only
// stays self-consistent because these two sizes are equal, exactly as
// in the original library where both structs pad out to 16 bytes.
const headerSize = 16

// minBlockSize is the smallest range that can ever sit in the free
// list: it must be able to hold its own FreeBlock record.
const minBlockSize = freeBlockSize

// maxAlignmentPadding is the largest alignment-padding value the
// 1-byte padding field in AllocationHeader can record.
const maxAlignmentPadding = 255

// maxAlignment is the largest alignment Allocate can honor: beyond this,
// the worst-case padding (headerSize + alignment - 1) would not fit in
// the header's 1-byte padding field.
const maxAlignment = maxAlignmentPadding - headerSize + 1

// Allocator is a free-list allocator over a fixed-size buffer.
type Allocator struct {
	region.Base
	buf  []byte
	head region.Ptr // offset of the first free block, or region.NoAddress
}

// New constructs a FreeList allocator over a freshly allocated buffer of
// size bytes. size must be at least minBlockSize so the initial free
// block can hold its own bookkeeping.
func New(size uint64, opts ...region.Option) (*Allocator, error) {
	if size < minBlockSize {
		return nil, region.ErrZeroBufferSize
	}
	a := &Allocator{buf: make([]byte, size)}
	a.resetFreeList()
	a.Apply(opts)
	if a.Name() == "" {
		a.SetName("FreeListAllocator")
	}
	return a, nil
}

func (a *Allocator) resetFreeList() {
	putFreeBlock(a.buf, 0, uint64(len(a.buf)), region.NoAddress)
	a.head = 0
}

func getFreeBlock(buf []byte, off region.Ptr) (size uint64, next region.Ptr) {
	return region.GetUint64(buf, uint64(off)), region.Ptr(region.GetUint64(buf, uint64(off)+8))
}

func putFreeBlock(buf []byte, off region.Ptr, size uint64, next region.Ptr) {
	region.PutUint64(buf, uint64(off), size)
	region.PutUint64(buf, uint64(off)+8, uint64(next))
}

func setNext(buf []byte, off region.Ptr, next region.Ptr) {
	region.PutUint64(buf, uint64(off)+8, uint64(next))
}

func getHeader(buf []byte, userOff region.Ptr) (size uint64, padding uint64) {
	ho := uint64(userOff) - headerSize
	return region.GetUint64(buf, ho), uint64(buf[ho+8])
}

func putHeader(buf []byte, userOff region.Ptr, size uint64, padding uint64) {
	ho := uint64(userOff) - headerSize
	region.PutUint64(buf, ho, size)
	buf[ho+8] = byte(padding)
}

// link makes target the successor of prev, or the new free-list head if
// prev is region.NoAddress.
func (a *Allocator) link(prev, target region.Ptr) {
	if prev == region.NoAddress {
		a.head = target
	} else {
		setNext(a.buf, prev, target)
	}
}

// Allocate performs first-fit placement over the address-sorted free
// list, splitting the chosen block when the remainder would be large
// enough to stay useful and absorbing it whole otherwise.
func (a *Allocator) Allocate(size, alignment uint64) (region.Ptr, error) {
	if !region.IsPowerOfTwo(alignment) {
		return region.NoAddress, region.ErrInvalidAlignment
	}
	if alignment > maxAlignment {
		return region.NoAddress, region.ErrAlignmentTooLarge
	}

	a.Lock()
	defer a.Unlock()

	base := region.BaseAddr(a.buf)
	prev := region.NoAddress
	current := a.head

	for current != region.NoAddress {
		blockSize, next := getFreeBlock(a.buf, current)

		headerAddr := base + uintptr(current) + freeBlockSize
		userAddr := headerAddr + headerSize + uintptr(region.AlignPadding(headerAddr+headerSize, alignment))
		alignmentPadding := uint64(userAddr - headerAddr)

		required := size + headerSize + alignmentPadding

		if blockSize >= required {
			if blockSize-required <= minBlockSize {
				required = blockSize
				a.link(prev, next)
			} else {
				carved := current + region.Ptr(required)
				putFreeBlock(a.buf, carved, blockSize-required, next)
				a.link(prev, carved)
			}

			userOff := current + region.Ptr(freeBlockSize) + region.Ptr(alignmentPadding)
			putHeader(a.buf, userOff, required, alignmentPadding)

			a.RecordAlloc(required)
			return userOff, nil
		}

		prev = current
		current = next
	}

	return region.NoAddress, region.ErrOutOfSpace
}

// Free recovers the block that ptr's allocation occupied, reinserts it
// into the sorted free list at the right position, and coalesces it
// with an adjacent predecessor and/or successor if either is contiguous.
func (a *Allocator) Free(ptr region.Ptr) {
	if ptr == region.NoAddress {
		return
	}
	a.Lock()
	defer a.Unlock()

	size, padding := getHeader(a.buf, ptr)
	blockStart := region.Ptr(uint64(ptr) - headerSize - padding)
	putFreeBlock(a.buf, blockStart, size, region.NoAddress)

	prev := region.NoAddress
	current := a.head
	for current != region.NoAddress && current < blockStart {
		_, next := getFreeBlock(a.buf, current)
		prev = current
		current = next
	}
	next := current

	a.link(prev, blockStart)
	setNext(a.buf, blockStart, next)

	blockSize, _ := getFreeBlock(a.buf, blockStart)
	if next != region.NoAddress {
		if uint64(blockStart)+blockSize == uint64(next) {
			nextSize, nextNext := getFreeBlock(a.buf, next)
			blockSize += nextSize
			putFreeBlock(a.buf, blockStart, blockSize, nextNext)
		}
	}

	if prev != region.NoAddress {
		prevSize, _ := getFreeBlock(a.buf, prev)
		if uint64(prev)+prevSize == uint64(blockStart) {
			_, blockNext := getFreeBlock(a.buf, blockStart)
			putFreeBlock(a.buf, prev, prevSize+blockSize, blockNext)
		}
	}

	a.RecordFree(size)
}

// Reallocate returns ptr unchanged if its accessible payload is already
// at least newSize (no shrink-in-place); otherwise it allocates fresh,
// copies the old payload's prefix, and frees the old block. Growing by
// consuming an adjacent forward free block is not attempted.
func (a *Allocator) Reallocate(ptr region.Ptr, newSize, alignment uint64) (region.Ptr, error) {
	if ptr == region.NoAddress {
		return a.Allocate(newSize, alignment)
	}
	if newSize == 0 {
		a.Free(ptr)
		return region.NoAddress, nil
	}

	oldSize := a.AllocationSize(ptr)
	if oldSize >= newSize {
		return ptr, nil
	}

	newPtr, err := a.Allocate(newSize, alignment)
	if err != nil {
		return region.NoAddress, err
	}
	copy(a.Bytes(newPtr), a.Bytes(ptr)[:oldSize])
	a.Free(ptr)
	return newPtr, nil
}

// AllocationSize returns the payload size for ptr: the header's total
// block size, less the header and alignment padding. This equals the
// requested size unless Allocate absorbed a remainder too small to split
// off, in which case it is larger by that remainder; the requested size
// itself is not stored.
func (a *Allocator) AllocationSize(ptr region.Ptr) uint64 {
	a.Lock()
	defer a.Unlock()
	size, padding := getHeader(a.buf, ptr)
	return size - headerSize - padding
}

// Bytes returns a slice view of the payload at ptr.
func (a *Allocator) Bytes(ptr region.Ptr) []byte {
	a.Lock()
	defer a.Unlock()
	size, padding := getHeader(a.buf, ptr)
	payload := size - headerSize - padding
	return a.buf[uint64(ptr) : uint64(ptr)+payload]
}

// Reset reclaims the whole buffer as a single free block and zeroes
// every counter.
func (a *Allocator) Reset() {
	a.Lock()
	a.resetFreeList()
	a.ResetAll()
	a.Unlock()
}

// Owns reports whether ptr lies within this allocator's buffer.
func (a *Allocator) Owns(ptr region.Ptr) bool {
	return uint64(ptr) < uint64(len(a.buf))
}

// FragmentationPercentage walks the free list tracking the total free
// byte count F and the largest single free block M, and reports
// (1 - M/F) * 100, or 0 when there is no free space at all.
func (a *Allocator) FragmentationPercentage() float64 {
	a.Lock()
	defer a.Unlock()

	var free, largest uint64
	for cur := a.head; cur != region.NoAddress; {
		size, next := getFreeBlock(a.buf, cur)
		free += size
		if size > largest {
			largest = size
		}
		cur = next
	}
	if free == 0 {
		return 0
	}
	return (1 - float64(largest)/float64(free)) * 100
}

// ValidateInternalState walks the free list verifying the strict-sort/
// no-overlap invariant and that free bytes plus allocated bytes account
// for the whole buffer.
func (a *Allocator) ValidateInternalState() bool {
	a.Lock()
	defer a.Unlock()

	var free uint64
	for cur := a.head; cur != region.NoAddress; {
		size, next := getFreeBlock(a.buf, cur)
		free += size
		if next != region.NoAddress && uint64(cur)+size >= uint64(next) {
			return false
		}
		cur = next
	}
	return free+a.AllocatedLocked() == uint64(len(a.buf))
}

// DetailedStats returns a newline-delimited summary of buffer usage,
// including free-list-specific figures.
func (a *Allocator) DetailedStats() string {
	a.Lock()
	var freeBytes, largest, freeBlocks uint64
	for cur := a.head; cur != region.NoAddress; {
		size, next := getFreeBlock(a.buf, cur)
		freeBytes += size
		freeBlocks++
		if size > largest {
			largest = size
		}
		cur = next
	}
	total := uint64(len(a.buf))
	a.Unlock()

	frag := a.FragmentationPercentage()

	var sb strings.Builder
	fmt.Fprintf(&sb, "FreeListAllocator %q Stats:\n", a.Name())
	fmt.Fprintf(&sb, "Total Size: %d\n", total)
	fmt.Fprintf(&sb, "Allocated: %d\n", a.TotalAllocated())
	fmt.Fprintf(&sb, "Free: %d\n", freeBytes)
	fmt.Fprintf(&sb, "Peak Usage: %d\n", a.PeakUsage())
	fmt.Fprintf(&sb, "Allocation Count: %d\n", a.AllocationCount())
	fmt.Fprintf(&sb, "Free Block Count: %d\n", freeBlocks)
	fmt.Fprintf(&sb, "Largest Free Block: %d\n", largest)
	fmt.Fprintf(&sb, "Fragmentation: %.2f%%\n", frag)
	return sb.String()
}
