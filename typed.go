package region

import "unsafe"

// New allocates space for a zero-valued T from a, aligned to alignment,
// and returns a Ptr to it along with a *T view over that memory. It is
// the Go analog of the original library's
// AllocateAligned<T>(allocator, args...) template helper, minus
// constructor arguments: Go values don't need a placement-new step, so
// New simply zeroes the allocated bytes.
//
// The returned *T aliases the allocator's backing buffer; it is
// invalidated by Free(ptr) or Reset, same as the Ptr itself.
func New[T any](a Allocator, alignment uint64) (Ptr, *T, error) {
	var zero T
	size := uint64(unsafe.Sizeof(zero))
	ptr, err := a.Allocate(size, alignment)
	if err != nil {
		return NoAddress, nil, err
	}
	buf := a.Bytes(ptr)
	val := (*T)(unsafe.Pointer(&buf[0]))
	*val = zero
	return ptr, val, nil
}

// Delete frees the space held by a value previously obtained from New.
// Go has no destructor to run, unlike the original library's
// DeallocateAligned<T>, which called ptr->~T() before freeing.
func Delete[T any](a Allocator, ptr Ptr) {
	a.Free(ptr)
}
