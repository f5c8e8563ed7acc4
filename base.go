package region

import "sync"

// Base holds the bookkeeping identical across all four allocators: a
// diagnostic name, a thread-safety switch, and the allocated/peak/count
// counters. Each concrete allocator embeds Base by value and calls Lock/
// Unlock around its own operations; Base's name and thread-safety
// accessors (Name, SetName, SetThreadSafe, IsThreadSafe) always take the
// underlying mutex so toggling threadSafe is never itself a race,
// regardless of its current value. The counter accessors go through
// Lock/Unlock like any other operation.
type Base struct {
	mu         sync.Mutex
	threadSafe bool
	name       string

	allocated uint64
	peak      uint64
	count     uint64
}

// Option configures a Base at construction time.
type Option func(*Base)

// WithName sets the allocator's diagnostic name.
func WithName(name string) Option {
	return func(b *Base) { b.name = name }
}

// WithThreadSafe enables coarse-grained mutual exclusion from
// construction onward.
func WithThreadSafe(enabled bool) Option {
	return func(b *Base) { b.threadSafe = enabled }
}

// Apply runs opts against b. Constructors call this before returning.
func (b *Base) Apply(opts []Option) {
	for _, opt := range opts {
		opt(b)
	}
}

// Lock acquires the mutex if thread safety is enabled. Every allocator
// operation that touches shared state calls Lock at entry and Unlock (via
// defer) before returning.
func (b *Base) Lock() {
	if b.threadSafe {
		b.mu.Lock()
	}
}

// Unlock releases the mutex if thread safety is enabled.
func (b *Base) Unlock() {
	if b.threadSafe {
		b.mu.Unlock()
	}
}

// SetThreadSafe toggles coarse-grained mutual exclusion. This always
// takes the mutex, even when disabling it, so the flag itself can never
// be read mid-flip by a concurrent operation that is deciding whether to
// lock.
func (b *Base) SetThreadSafe(enabled bool) {
	b.mu.Lock()
	b.threadSafe = enabled
	b.mu.Unlock()
}

// IsThreadSafe reports whether coarse-grained mutual exclusion is
// enabled.
func (b *Base) IsThreadSafe() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.threadSafe
}

// Name returns the allocator's diagnostic name.
func (b *Base) Name() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.name
}

// SetName sets the allocator's diagnostic name.
func (b *Base) SetName(name string) {
	b.mu.Lock()
	b.name = name
	b.mu.Unlock()
}

// TotalAllocated returns the number of bytes currently allocated.
func (b *Base) TotalAllocated() uint64 {
	b.Lock()
	defer b.Unlock()
	return b.allocated
}

// PeakUsage returns the highest TotalAllocated has been since
// construction or the last Reset.
func (b *Base) PeakUsage() uint64 {
	b.Lock()
	defer b.Unlock()
	return b.peak
}

// AllocationCount returns the number of live allocations.
func (b *Base) AllocationCount() uint64 {
	b.Lock()
	defer b.Unlock()
	return b.count
}

// AllocatedLocked returns the allocated-bytes counter without taking the
// mutex. Callers must already hold the lock, via Lock, for the duration
// of the operation this is part of; it exists for allocators that need
// the counter from inside their own already-locked validation or stats
// path without double-locking a non-reentrant mutex.
func (b *Base) AllocatedLocked() uint64 {
	return b.allocated
}

// RecordAlloc updates the counters for a newly granted allocation of
// size bytes. Exported for embedders in the linear/stack/pool/freelist
// packages; the caller must already hold the lock, via Lock, for the
// duration of the operation this is part of.
func (b *Base) RecordAlloc(size uint64) {
	b.allocated += size
	b.count++
	if b.allocated > b.peak {
		b.peak = b.allocated
	}
}

// AdjustAllocated changes the allocated-bytes counter by delta (which may
// be negative) without touching the live allocation count. Used by
// in-place grow/shrink paths that resize an existing allocation rather
// than creating or destroying one. Same locking contract as RecordAlloc.
func (b *Base) AdjustAllocated(delta int64) {
	b.allocated = uint64(int64(b.allocated) + delta)
	if b.allocated > b.peak {
		b.peak = b.allocated
	}
}

// RecordFree updates the counters for a released allocation of size
// bytes. Same locking contract as RecordAlloc.
func (b *Base) RecordFree(size uint64) {
	b.allocated -= size
	b.count--
}

// ResetAll zeroes every counter, including peak. Concrete allocators'
// Reset methods call this while holding the lock.
func (b *Base) ResetAll() {
	b.allocated = 0
	b.peak = 0
	b.count = 0
}
