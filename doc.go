// Package region defines the shared allocator contract implemented by the
// linear, stack, pool, and freelist packages, plus the low-level plumbing
// (pointer type, error sentinels, counters, alignment math) they all build
// on.
//
// # Allocator
//
// [Allocator] is the capability set every allocator in this module
// implements: Allocate, Free, Reallocate, size and usage queries, Reset,
// Owns, and diagnostics. Code that wants to be agnostic to which of the
// four allocation policies backs it should depend on this interface
// rather than a concrete type.
//
// # Pointer representation
//
// Allocators do not hand out Go pointers or unsafe.Pointer values. Every
// allocation is identified by a [Ptr], a byte offset into the allocator's
// own backing buffer, with [NoAddress] as the distinguished failure/empty
// value. This keeps ownership unambiguous (a Ptr from one allocator is
// meaningless to another) and sidesteps the aliasing hazards of handing
// out raw pointers into a slice the allocator itself later overwrites via
// Reset. Use [Allocator.Bytes] to get a slice view of a live allocation's
// payload.
//
// # Base
//
// [Base] is an embeddable struct carrying the bookkeeping identical
// across all four allocators: name, thread-safety switch, and the
// allocated/peak/count counters. Each concrete allocator embeds it by
// value and only implements the operations that differ by policy.
//
// # Typed helpers
//
// [New] and [Delete] place a Go value of a given type into an allocator
// and free it again, the analog of the original library's
// AllocateAligned<T>/DeallocateAligned<T> template helpers.
package region
