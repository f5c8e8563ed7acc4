// Package pool implements a segregated-fixed-size-free-list allocator: a
// set of size-class buckets, each its own backing buffer threaded into an
// intrusive singly-linked free list over fixed-size slots.
package pool

import (
	"fmt"
	"strings"

	"github.com/region-alloc/region"
)

// slotLinkSize is the size of the intrusive "next free slot" link
// overlaid on a free slot's first bytes.
const slotLinkSize = 8

// BucketConfig describes one size class: BlockCount slots of BlockSize
// bytes each. BlockSize must be at least 8 bytes, so a free slot can
// hold the intrusive next-pointer link.
type BucketConfig struct {
	BlockSize  uint64
	BlockCount uint64
}

// bucket is one size class's backing buffer and free list.
type bucket struct {
	buf       []byte
	blockSize uint64
	freeHead  region.Ptr // offset into buf, or region.NoAddress
}

// Allocator is a pool allocator over an ordered list of fixed-size-class
// buckets. Buckets are selected by "first bucket whose block size is at
// least the requested size"; each bucket owns its own backing buffer, so
// unlike Linear/Stack/FreeList there is no single shared buffer.
type Allocator struct {
	region.Base
	buckets []bucket
}

// New constructs a Pool allocator with one bucket per entry in configs,
// in the given order. Each bucket's BlockSize must be at least 8 bytes
// and BlockCount must be nonzero.
func New(configs []BucketConfig, opts ...region.Option) (*Allocator, error) {
	if len(configs) == 0 {
		return nil, region.ErrInvalidBucketConfig
	}
	buckets := make([]bucket, len(configs))
	for i, cfg := range configs {
		if cfg.BlockSize < slotLinkSize || cfg.BlockCount == 0 {
			return nil, region.ErrInvalidBucketConfig
		}
		buckets[i] = newBucket(cfg.BlockSize, cfg.BlockCount)
	}

	a := &Allocator{buckets: buckets}
	a.Apply(opts)
	if a.Name() == "" {
		a.SetName("PoolAllocator")
	}
	return a, nil
}

// newBucket allocates a bucket's backing buffer and threads every slot
// onto its free list in address-descending insertion order, so the free
// head starts at the last slot. The order is an implementation detail
// but kept stable for reproducibility and tests.
func newBucket(blockSize, blockCount uint64) bucket {
	b := bucket{
		buf:       make([]byte, blockSize*blockCount),
		blockSize: blockSize,
		freeHead:  region.NoAddress,
	}
	rebuildFreeList(&b)
	return b
}

func rebuildFreeList(b *bucket) {
	b.freeHead = region.NoAddress
	count := uint64(len(b.buf)) / b.blockSize
	for i := uint64(0); i < count; i++ {
		offset := i * b.blockSize
		region.PutUint64(b.buf, offset, uint64(b.freeHead))
		b.freeHead = region.Ptr(offset)
	}
}

func (b *bucket) contains(ptr region.Ptr) bool {
	return uint64(ptr) < uint64(len(b.buf))
}

// Allocate selects the first bucket whose block size is at least size
// and pops a slot off its free list.
func (a *Allocator) Allocate(size, alignment uint64) (region.Ptr, error) {
	if !region.IsPowerOfTwo(alignment) {
		return region.NoAddress, region.ErrInvalidAlignment
	}

	a.Lock()
	defer a.Unlock()

	idx := a.findBucket(size)
	if idx < 0 {
		return region.NoAddress, region.ErrNoSuitableBucket
	}
	b := &a.buckets[idx]
	if b.freeHead == region.NoAddress {
		return region.NoAddress, region.ErrOutOfSpace
	}

	slot := b.freeHead
	b.freeHead = region.Ptr(region.GetUint64(b.buf, uint64(slot)))

	a.RecordAlloc(b.blockSize)
	return a.encode(idx, slot), nil
}

// findBucket returns the index of the first bucket whose block size is
// at least size, or -1 if none qualifies.
func (a *Allocator) findBucket(size uint64) int {
	for i := range a.buckets {
		if a.buckets[i].blockSize >= size {
			return i
		}
	}
	return -1
}

// Pool allocations must be disambiguated by which bucket they came from,
// since buckets don't share a buffer. encode/decode pack the bucket
// index into the high bits of the returned Ptr; bucketIndexBits caps how
// many buckets a single Allocator can hold, which comfortably exceeds
// any realistic size-class count.
const bucketIndexBits = 8
const bucketIndexShift = 64 - bucketIndexBits

func (a *Allocator) encode(bucketIdx int, slot region.Ptr) region.Ptr {
	return region.Ptr(uint64(bucketIdx)<<bucketIndexShift | uint64(slot))
}

func (a *Allocator) decode(ptr region.Ptr) (bucketIdx int, slot region.Ptr) {
	return int(uint64(ptr) >> bucketIndexShift), region.Ptr(uint64(ptr) & (1<<bucketIndexShift - 1))
}

func (a *Allocator) bucketFor(ptr region.Ptr) (*bucket, region.Ptr, bool) {
	idx, slot := a.decode(ptr)
	if idx < 0 || idx >= len(a.buckets) {
		return nil, 0, false
	}
	b := &a.buckets[idx]
	if !b.contains(slot) {
		return nil, 0, false
	}
	return b, slot, true
}

// Free pushes the slot at ptr back onto its owning bucket's free list.
// Pointers owned by no bucket are ignored.
func (a *Allocator) Free(ptr region.Ptr) {
	if ptr == region.NoAddress {
		return
	}
	a.Lock()
	defer a.Unlock()

	b, slot, ok := a.bucketFor(ptr)
	if !ok {
		return
	}

	region.PutUint64(b.buf, uint64(slot), uint64(b.freeHead))
	b.freeHead = slot

	a.RecordFree(b.blockSize)
}

// Reallocate always allocates a (possibly differently-sized) slot,
// copies the old payload's prefix, and frees the old slot — pool slots
// are fixed size, so there is no in-place resize to special-case.
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
	a.Free(ptr)
	return newPtr, nil
}

// AllocationSize returns the owning bucket's block size, not the size
// originally requested (pool slots don't record that).
func (a *Allocator) AllocationSize(ptr region.Ptr) uint64 {
	a.Lock()
	defer a.Unlock()
	b, _, ok := a.bucketFor(ptr)
	if !ok {
		return 0
	}
	return b.blockSize
}

// Bytes returns a slice view of the whole slot at ptr.
func (a *Allocator) Bytes(ptr region.Ptr) []byte {
	a.Lock()
	defer a.Unlock()
	b, slot, ok := a.bucketFor(ptr)
	if !ok {
		return nil
	}
	return b.buf[uint64(slot) : uint64(slot)+b.blockSize]
}

// Reset rebuilds every bucket's free list over all its slots.
func (a *Allocator) Reset() {
	a.Lock()
	for i := range a.buckets {
		rebuildFreeList(&a.buckets[i])
	}
	a.ResetAll()
	a.Unlock()
}

// Owns reports whether ptr falls within any bucket's backing buffer.
func (a *Allocator) Owns(ptr region.Ptr) bool {
	a.Lock()
	defer a.Unlock()
	_, _, ok := a.bucketFor(ptr)
	return ok
}

// FragmentationPercentage always returns 0: every free slot in a pool is
// already the right size for its size class, so there is no fragmentation
// to speak of.
func (a *Allocator) FragmentationPercentage() float64 { return 0 }

// ValidateInternalState walks every bucket's free list and checks that
// each node lies within that bucket's sub-range and is aligned to the
// bucket's block size.
func (a *Allocator) ValidateInternalState() bool {
	a.Lock()
	defer a.Unlock()
	for i := range a.buckets {
		b := &a.buckets[i]
		seen := uint64(0)
		for node := b.freeHead; node != region.NoAddress; {
			if !b.contains(node) || uint64(node)%b.blockSize != 0 {
				return false
			}
			seen++
			if seen > uint64(len(b.buf))/b.blockSize {
				return false // cycle in the free list
			}
			node = region.Ptr(region.GetUint64(b.buf, uint64(node)))
		}
	}
	return true
}

// DetailedStats returns a newline-delimited summary of buffer usage
// across every bucket.
func (a *Allocator) DetailedStats() string {
	name := a.Name()
	a.Lock()
	var sb strings.Builder
	fmt.Fprintf(&sb, "PoolAllocator %q Stats:\n", name)
	fmt.Fprintf(&sb, "Bucket Count: %d\n", len(a.buckets))
	for i, b := range a.buckets {
		free := 0
		for node := b.freeHead; node != region.NoAddress; {
			free++
			node = region.Ptr(region.GetUint64(b.buf, uint64(node)))
		}
		total := uint64(len(b.buf)) / b.blockSize
		fmt.Fprintf(&sb, "Bucket %d: BlockSize=%d Free=%d/%d\n", i, b.blockSize, free, total)
	}
	a.Unlock()
	fmt.Fprintf(&sb, "Total Allocated: %d\n", a.TotalAllocated())
	fmt.Fprintf(&sb, "Peak Usage: %d\n", a.PeakUsage())
	fmt.Fprintf(&sb, "Allocation Count: %d\n", a.AllocationCount())
	return sb.String()
}
