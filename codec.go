package groupdata

import "encoding/binary"

// ValueCodec serializes values of type V into the fixed-width on-disk form
// used by WriteFile and ReadFile. Values are opaque to the library, so the
// codec comes from the caller: Size is the exact encoded width in bytes, Put
// must write exactly Size bytes into dst, and Get must read exactly Size
// bytes from src. dst and src always have exactly Size bytes.
type ValueCodec[V any] struct {
	Size int
	Put  func(dst []byte, v V)
	Get  func(src []byte) V
}

// Uint64Codec stores uint64 values little-endian.
var Uint64Codec = ValueCodec[uint64]{
	Size: 8,
	Put:  func(dst []byte, v uint64) { binary.LittleEndian.PutUint64(dst, v) },
	Get:  func(src []byte) uint64 { return binary.LittleEndian.Uint64(src) },
}

// Uint32Codec stores uint32 values little-endian.
var Uint32Codec = ValueCodec[uint32]{
	Size: 4,
	Put:  func(dst []byte, v uint32) { binary.LittleEndian.PutUint32(dst, v) },
	Get:  func(src []byte) uint32 { return binary.LittleEndian.Uint32(src) },
}
