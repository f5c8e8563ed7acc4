package region

import "errors"

// Common errors returned by allocator constructors and operations.
var (
	ErrZeroBufferSize      = errors.New("region: buffer size must be greater than zero")
	ErrInvalidAlignment    = errors.New("region: alignment must be a power of two")
	ErrOutOfSpace          = errors.New("region: no block large enough to satisfy the request")
	ErrNoSuitableBucket    = errors.New("region: no pool bucket large enough for the request")
	ErrAlignmentTooLarge   = errors.New("region: alignment padding does not fit in the block header")
	ErrInvalidBucketConfig = errors.New("region: pool bucket configuration is invalid")
)
