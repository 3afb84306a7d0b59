package groupdata

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"

	"github.com/cespare/xxhash/v2"
	"github.com/edsrzf/mmap-go"
)

// WriteFile persists a materialized layout to path using mmap-based
// zero-copy writes.
// File layout: [Header 64B][Offsets (G+1)×8B][Values N×codec.Size][Footer 32B]
//
// The file size is exact and computed up front. Disk blocks are
// pre-allocated (platform fallocate) to prevent SIGBUS on disk full, the
// mapping is prefaulted, and the region hashes stored in the footer are
// computed while the written data is still hot.
func WriteFile[V any](path string, l *Layout[V], codec ValueCodec[V]) error {
	if codec.Size <= 0 || codec.Put == nil {
		panic("groupdata: WriteFile: codec needs a positive Size and a Put function")
	}

	offsets := l.Offsets
	if len(offsets) == 0 {
		// An unmaterialized layout still records the leading boundary entry.
		offsets = []uint64{0}
	}

	offsetsLen := uint64(len(offsets)) * offsetSize
	valuesLen := uint64(len(l.Values)) * uint64(codec.Size)
	totalSize := uint64(headerSize) + offsetsLen + valuesLen + footerSize

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create layout file: %w", err)
	}

	// Pre-allocate disk blocks to prevent SIGBUS on disk full
	if err := fallocateFile(file, int64(totalSize)); err != nil {
		primaryErr := fmt.Errorf("failed to allocate disk space: %w", err)
		return errors.Join(primaryErr, file.Close())
	}

	// Memory map the file for zero-copy writes
	mm, err := mmap.MapRegion(file, int(totalSize), mmap.RDWR, 0, 0)
	if err != nil {
		primaryErr := fmt.Errorf("failed to mmap file: %w", err)
		return errors.Join(primaryErr, file.Close())
	}
	data := []byte(mm)

	// Prefault the mapping for better write throughput.
	// On Linux 5.14+, uses MADV_POPULATE_WRITE. No-op on other platforms.
	prefaultRegion(data)

	hdr := header{
		Magic:     magic,
		Version:   version,
		ValueSize: uint32(codec.Size),
		NumGroups: uint64(len(offsets) - 1),
		NumValues: uint64(len(l.Values)),
	}
	hdr.encodeTo(data[0:headerSize])

	pos := uint64(headerSize)
	for _, off := range offsets {
		binary.LittleEndian.PutUint64(data[pos:pos+offsetSize], off)
		pos += offsetSize
	}

	vsize := uint64(codec.Size)
	for i := range l.Values {
		codec.Put(data[pos:pos+vsize], l.Values[i])
		pos += vsize
	}

	// Hash both regions while their pages are hot, then seal the footer.
	ftr := footer{
		OffsetsHash: xxhash.Sum64(data[headerSize : headerSize+offsetsLen]),
		ValuesHash:  xxhash.Sum64(data[headerSize+offsetsLen : pos]),
	}
	ftr.encodeTo(data[pos : pos+footerSize])

	// Flush dirty pages to the file before unmapping
	if err := mm.Flush(); err != nil {
		primaryErr := fmt.Errorf("mmap flush failed: %w", err)
		return errors.Join(primaryErr, mm.Unmap(), file.Close())
	}
	if err := mm.Unmap(); err != nil {
		primaryErr := fmt.Errorf("mmap unmap failed: %w", err)
		return errors.Join(primaryErr, file.Close())
	}
	return file.Close()
}
