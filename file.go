package groupdata

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"

	"github.com/cespare/xxhash/v2"
	"github.com/edsrzf/mmap-go"

	grouperrors "github.com/sparsekit/groupdata/errors"
)

// minSnapshotSize is the smallest valid snapshot: a header, the single
// leading zero offset of an empty layout, and a footer.
const minSnapshotSize = headerSize + offsetSize + footerSize

// ReadFile loads a layout snapshot written by WriteFile.
// It opens the file, memory-maps it read-only, decodes and verifies the
// contents, and releases the mapping before returning. The returned
// layout owns its slices and does not reference the file.
func ReadFile[V any](path string, codec ValueCodec[V]) (*Layout[V], error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot file: %w", err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat snapshot file: %w", err)
	}
	if stat.Size() < int64(minSnapshotSize) {
		return nil, grouperrors.ErrTruncatedFile
	}

	// The snapshot is consumed front to back exactly once.
	adviseSequential(file, stat.Size())

	mm, err := mmap.Map(file, mmap.RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("mmap snapshot file: %w", err)
	}

	layout, err := ReadBytes[V]([]byte(mm), codec)
	if err != nil {
		return nil, errors.Join(err, mm.Unmap())
	}
	if err := mm.Unmap(); err != nil {
		return nil, fmt.Errorf("unmap snapshot file: %w", err)
	}
	return layout, nil
}

// ReadBytes decodes a layout snapshot from an in-memory byte slice.
// The decoded layout copies everything it needs out of data, so the
// caller may reuse or unmap data once ReadBytes returns.
//
// Both region checksums are verified before any content is parsed, so
// a corrupted snapshot surfaces as ErrChecksumFailed rather than as a
// structural error from garbage offsets.
func ReadBytes[V any](data []byte, codec ValueCodec[V]) (*Layout[V], error) {
	if codec.Size <= 0 || codec.Get == nil {
		panic("groupdata: ReadBytes: codec needs a positive Size and a Get function")
	}
	if len(data) < minSnapshotSize {
		return nil, grouperrors.ErrTruncatedFile
	}

	hdr, err := decodeHeader(data[:headerSize])
	if err != nil {
		return nil, err
	}
	if uint32(codec.Size) != hdr.ValueSize {
		return nil, fmt.Errorf("%w: snapshot has %d-byte values, codec expects %d",
			grouperrors.ErrValueSizeMismatch, hdr.ValueSize, codec.Size)
	}

	// Region arithmetic stays in uint64 with divide-first guards so a
	// hostile header cannot overflow the size computations.
	rest := uint64(len(data)) - headerSize - footerSize
	if hdr.NumGroups >= rest/offsetSize {
		return nil, grouperrors.ErrTruncatedFile
	}
	offsetsLen := (hdr.NumGroups + 1) * offsetSize
	valueSize := uint64(hdr.ValueSize)
	if hdr.NumValues > (rest-offsetsLen)/valueSize {
		return nil, grouperrors.ErrTruncatedFile
	}
	if offsetsLen+hdr.NumValues*valueSize != rest {
		return nil, grouperrors.ErrCorruptedFile
	}

	ft, err := decodeFooter(data[uint64(len(data))-footerSize:])
	if err != nil {
		return nil, err
	}

	offsetsRegion := data[headerSize : headerSize+offsetsLen]
	valuesRegion := data[headerSize+offsetsLen : uint64(len(data))-footerSize]
	if xxhash.Sum64(offsetsRegion) != ft.OffsetsHash {
		return nil, grouperrors.ErrChecksumFailed
	}
	if xxhash.Sum64(valuesRegion) != ft.ValuesHash {
		return nil, grouperrors.ErrChecksumFailed
	}

	offsets := make([]uint64, hdr.NumGroups+1)
	for i := range offsets {
		offsets[i] = binary.LittleEndian.Uint64(offsetsRegion[uint64(i)*offsetSize:])
	}
	if offsets[0] != 0 {
		return nil, grouperrors.ErrCorruptedFile
	}
	for i := 0; i+1 < len(offsets); i++ {
		if offsets[i] > offsets[i+1] {
			return nil, grouperrors.ErrOffsetsNotMonotonic
		}
	}
	if offsets[len(offsets)-1] != hdr.NumValues {
		return nil, grouperrors.ErrCorruptedFile
	}

	values := make([]V, hdr.NumValues)
	for i := range values {
		pos := uint64(i) * valueSize
		values[i] = codec.Get(valuesRegion[pos : pos+valueSize])
	}

	return &Layout[V]{Offsets: offsets, Values: values}, nil
}
