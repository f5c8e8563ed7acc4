// The buffer starts life as one free block occupying [0, len(buf)) whose
// first bytes overlay a FreeBlock record {size, next}. The free list is
// singly linked and kept sorted by ascending address; that invariant is
// what makes the coalescing in Free an O(n) walk rather than a full
// rescan.
//
// # Allocate
//
// First-fit over the sorted list. For a candidate block at address c with
// size s:
//
//  1. headerAddr = c + sizeof(FreeBlock): the allocation header will sit
//     immediately after the free-block metadata that block c currently
//     carries.
//  2. userAddr = align_up(headerAddr + sizeof(AllocationHeader), align).
//  3. alignmentPadding = userAddr - headerAddr (the header size plus any
//     bytes skipped to reach alignment), recorded in the header's one-byte
//     padding field (see
//     maxAlignmentPadding/maxAlignment).
//  4. required = size + sizeof(AllocationHeader) + alignmentPadding.
//  5. If s < required, try the next block.
//  6. Split decision: if s - required <= minBlockSize, the remainder is too
//     small to ever hold its own bookkeeping, so the whole block is
//     absorbed (required is widened to s). Otherwise the tail
//     [c+required, c+s) is carved off as a new free block that replaces c
//     in the list.
//  7. The allocation header is written at userAddr-sizeof(AllocationHeader)
//     with {size: required, padding: alignmentPadding}, and userAddr is
//     returned.
//
// # Free
//
// The header immediately before ptr gives back the block's total size and
// alignment padding, which locates blockStart = ptr - sizeof(header) -
// padding. A FreeBlock record is written there and spliced into the sorted
// list at the position that keeps addresses ascending, then coalesced
// forward into its successor and backward into its predecessor, in that
// order, whenever either is exactly adjacent.
package freelist
