package groupdata

import (
	"encoding/binary"

	grouperrors "github.com/sparsekit/groupdata/errors"
)

const (
	// magic number for groupdata layout files
	// "GRPD" in little-endian
	magic = uint32(0x47525044)

	// version is the current format version
	version = uint16(0x0001)

	// headerSize is the exact size of the serialized header (64 bytes)
	headerSize = 64

	// footerSize is the exact size of the serialized footer (32 bytes)
	footerSize = 32

	// offsetSize is the serialized size of one boundary entry
	offsetSize = 8

	// maxValueSize caps the encoded value width a file may declare. Guards
	// region arithmetic against absurd sizes before the checksums run.
	maxValueSize = 1 << 20
)

// header is the 64-byte layout file header.
//
// Layout:
//
//	Offset  Size  Field      Type
//	0       4     Magic      0x47525044 ("GRPD")
//	4       2     Version    0x0001
//	6       2     Reserved0  zero
//	8       4     ValueSize  uint32_le (bytes per encoded value)
//	12      4     Reserved1  zero
//	16      8     NumGroups  uint64_le
//	24      8     NumValues  uint64_le
//	32      32    Reserved   [32]byte (zero)
type header struct {
	Magic     uint32 // 4 bytes: magic number 0x47525044
	Version   uint16 // 2 bytes: format version
	ValueSize uint32 // 4 bytes: encoded bytes per value
	NumGroups uint64 // 8 bytes: number of groups (offsets entries minus one)
	NumValues uint64 // 8 bytes: total values across all groups
	Reserved  [32]byte
}

// encodeTo serializes the header to an existing buffer.
func (h *header) encodeTo(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:4], h.Magic)
	binary.LittleEndian.PutUint16(buf[4:6], h.Version)
	binary.LittleEndian.PutUint16(buf[6:8], 0)
	binary.LittleEndian.PutUint32(buf[8:12], h.ValueSize)
	binary.LittleEndian.PutUint32(buf[12:16], 0)
	binary.LittleEndian.PutUint64(buf[16:24], h.NumGroups)
	binary.LittleEndian.PutUint64(buf[24:32], h.NumValues)
	copy(buf[32:64], h.Reserved[:])
}

// decodeHeader parses a 64-byte header.
func decodeHeader(buf []byte) (*header, error) {
	if len(buf) < headerSize {
		return nil, grouperrors.ErrTruncatedFile
	}

	h := &header{
		Magic:     binary.LittleEndian.Uint32(buf[0:4]),
		Version:   binary.LittleEndian.Uint16(buf[4:6]),
		ValueSize: binary.LittleEndian.Uint32(buf[8:12]),
		NumGroups: binary.LittleEndian.Uint64(buf[16:24]),
		NumValues: binary.LittleEndian.Uint64(buf[24:32]),
	}
	copy(h.Reserved[:], buf[32:64])

	if h.Magic != magic {
		return nil, grouperrors.ErrInvalidMagic
	}
	if h.Version != version {
		return nil, grouperrors.ErrInvalidVersion
	}
	if h.ValueSize == 0 || h.ValueSize > maxValueSize {
		return nil, grouperrors.ErrCorruptedFile
	}

	return h, nil
}

// footer is the 32-byte file footer.
//
// Layout:
//
//	Offset  Size  Field        Type
//	0       8     OffsetsHash  uint64_le (xxHash64 of offsets region)
//	8       8     ValuesHash   uint64_le (xxHash64 of values region)
//	16      16    Reserved     [16]byte (zero)
type footer struct {
	OffsetsHash uint64   // 8 bytes: xxHash64 of the entire offsets region
	ValuesHash  uint64   // 8 bytes: xxHash64 of the entire values region
	Reserved    [16]byte // 16 bytes: reserved for future use
}

// encodeTo serializes the footer into an existing buffer.
func (f *footer) encodeTo(buf []byte) {
	binary.LittleEndian.PutUint64(buf[0:8], f.OffsetsHash)
	binary.LittleEndian.PutUint64(buf[8:16], f.ValuesHash)
	copy(buf[16:32], f.Reserved[:])
}

// decodeFooter parses a 32-byte footer.
func decodeFooter(buf []byte) (*footer, error) {
	if len(buf) < footerSize {
		return nil, grouperrors.ErrTruncatedFile
	}

	f := &footer{
		OffsetsHash: binary.LittleEndian.Uint64(buf[0:8]),
		ValuesHash:  binary.LittleEndian.Uint64(buf[8:16]),
	}
	copy(f.Reserved[:], buf[16:32])

	return f, nil
}
