package region

import "encoding/binary"

// PutUint64 writes v at buf[off:off+8] in little-endian order. The
// allocators in this module overlay their intrusive headers and free-
// block records directly on buffer bytes; this and GetUint64 are the
// typed accessors the design calls for, keeping the rest of each
// allocator free of raw byte-slicing.
func PutUint64(buf []byte, off uint64, v uint64) {
	binary.LittleEndian.PutUint64(buf[off:off+8], v)
}

// GetUint64 reads a little-endian uint64 from buf[off:off+8].
func GetUint64(buf []byte, off uint64) uint64 {
	return binary.LittleEndian.Uint64(buf[off : off+8])
}
