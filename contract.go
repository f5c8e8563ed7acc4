package region

// Ptr is an opaque handle into an allocator's backing buffer: a byte
// offset from the start of the buffer the allocator owns. A Ptr from one
// allocator is meaningless when passed to another.
type Ptr uint64

// NoAddress is the sentinel "no address" value: returned by Allocate and
// Reallocate on failure, and accepted as a no-op input to Free and
// Reallocate.
const NoAddress Ptr = ^Ptr(0)

// Allocator is the operation set every allocator in this module exposes,
// so callers can substitute a Linear, Stack, Pool, or FreeList allocator
// at a call site without depending on which policy backs it.
type Allocator interface {
	// Allocate reserves size bytes aligned to alignment (which must be a
	// power of two) and returns a Ptr to the payload, or NoAddress and an
	// error if the request cannot be satisfied.
	Allocate(size, alignment uint64) (Ptr, error)

	// Free releases the range previously returned by Allocate or
	// Reallocate. It is a no-op on NoAddress. Freeing a foreign or
	// already-freed pointer is undefined behavior.
	Free(ptr Ptr)

	// Reallocate resizes the allocation at ptr to newSize, preserving the
	// leading min(oldSize, newSize) payload bytes. It behaves like
	// Allocate when ptr is NoAddress, and like Free (returning NoAddress)
	// when newSize is zero.
	Reallocate(ptr Ptr, newSize, alignment uint64) (Ptr, error)

	// AllocationSize returns the size associated with ptr: the originally
	// requested payload size for Stack; for FreeList, the payload room of
	// the block, which exceeds the request when Allocate absorbed a small
	// remainder; for Linear, the distance from ptr to the current bump top;
	// and the owning bucket's block size for Pool.
	AllocationSize(ptr Ptr) uint64

	// Bytes returns a slice view of the payload at ptr. The slice aliases
	// the allocator's backing buffer and is invalidated by Free or Reset.
	Bytes(ptr Ptr) []byte

	// TotalAllocated returns the number of bytes currently allocated.
	TotalAllocated() uint64

	// PeakUsage returns the highest TotalAllocated has been since
	// construction or the last Reset.
	PeakUsage() uint64

	// AllocationCount returns the number of live allocations.
	AllocationCount() uint64

	// Reset reclaims the whole buffer and zeroes the counters, without
	// running any destructor. All outstanding Ptr values become invalid.
	Reset()

	// Owns reports whether ptr lies within this allocator's backing
	// buffer.
	Owns(ptr Ptr) bool

	// FragmentationPercentage reports free-space fragmentation: always 0
	// for Linear, Stack, and Pool; for FreeList,
	// (1 - largest free block / total free bytes) * 100.
	FragmentationPercentage() float64

	// ValidateInternalState checks the allocator's invariants and reports
	// whether they hold. Intended for tests and diagnostics.
	ValidateInternalState() bool

	// Name returns the allocator's diagnostic name.
	Name() string

	// SetName sets the allocator's diagnostic name.
	SetName(name string)

	// SetThreadSafe toggles coarse-grained mutual exclusion for all
	// subsequent operations.
	SetThreadSafe(enabled bool)

	// IsThreadSafe reports whether coarse-grained mutual exclusion is
	// enabled.
	IsThreadSafe() bool

	// DetailedStats returns a newline-delimited human-readable summary of
	// the allocator's current state.
	DetailedStats() string
}
