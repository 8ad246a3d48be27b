// Package archive writes store-only (uncompressed) ZIP archives of
// already-compressed payloads plus a metadata manifest, matching the
// on-disk layout NanoDLP expects: a local file header per entry, a
// central directory, and an end-of-central-directory record.
package archive

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"

	"github.com/Open-Resin-Alliance/VoxelShift-sub000/internal/errkind"
)

const (
	maxEntrySize = 1<<32 - 1
	maxEntries   = 65535
	maxNameLen   = 65535

	localHeaderSig = 0x04034b50
	centralDirSig  = 0x02014b50
	eocdSig        = 0x06054b50
)

type centralRecord struct {
	name       string
	crc        uint32
	size       uint32
	localOff   uint32
}

// Writer assembles a store-only ZIP archive. Entries must be added in
// the order the caller wants them to appear; Writer does not reorder.
// Not safe for concurrent use — the packaging contract requires a single
// thread call Add.
type Writer struct {
	w       io.Writer
	offset  uint32
	records []centralRecord
	aborted bool
}

// NewWriter begins a new archive, writing directly to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Add appends one stored (uncompressed) entry. Exceeding the per-entry
// size, entry-count, or name-length limit fails with ErrorKind::ArchiveLimit.
func (z *Writer) Add(name string, data []byte) error {
	if len(z.records) >= maxEntries {
		return fmt.Errorf("%w: archive entry count exceeds %d", errkind.ArchiveLimit, maxEntries)
	}
	if len(name) > maxNameLen {
		return fmt.Errorf("%w: entry name %q exceeds %d bytes", errkind.ArchiveLimit, name, maxNameLen)
	}
	if uint64(len(data)) > maxEntrySize {
		return fmt.Errorf("%w: entry %q exceeds %d bytes", errkind.ArchiveLimit, name, maxEntrySize)
	}

	crc := crc32.ChecksumIEEE(data)
	size := uint32(len(data))
	localOff := z.offset

	hdr := make([]byte, 30)
	binary.LittleEndian.PutUint32(hdr[0:4], localHeaderSig)
	binary.LittleEndian.PutUint16(hdr[4:6], 20) // version needed
	binary.LittleEndian.PutUint16(hdr[6:8], 0)  // flags
	binary.LittleEndian.PutUint16(hdr[8:10], 0) // method: store
	binary.LittleEndian.PutUint16(hdr[10:12], 0) // mod time
	binary.LittleEndian.PutUint16(hdr[12:14], 0) // mod date
	binary.LittleEndian.PutUint32(hdr[14:18], crc)
	binary.LittleEndian.PutUint32(hdr[18:22], size)
	binary.LittleEndian.PutUint32(hdr[22:26], size)
	binary.LittleEndian.PutUint16(hdr[26:28], uint16(len(name)))
	binary.LittleEndian.PutUint16(hdr[28:30], 0) // extra field length

	if _, err := z.w.Write(hdr); err != nil {
		return fmt.Errorf("%w: writing local header for %q: %v", errkind.IoError, name, err)
	}
	if _, err := io.WriteString(z.w, name); err != nil {
		return fmt.Errorf("%w: writing entry name %q: %v", errkind.IoError, name, err)
	}
	if _, err := z.w.Write(data); err != nil {
		return fmt.Errorf("%w: writing entry data for %q: %v", errkind.IoError, name, err)
	}

	z.offset += uint32(len(hdr)) + uint32(len(name)) + size
	z.records = append(z.records, centralRecord{name: name, crc: crc, size: size, localOff: localOff})
	return nil
}

// Finalize writes the central directory and end-of-central-directory
// record, completing the archive.
func (z *Writer) Finalize() error {
	if z.aborted {
		return fmt.Errorf("%w: archive already aborted", errkind.IoError)
	}

	cdStart := z.offset
	for _, r := range z.records {
		hdr := make([]byte, 46)
		binary.LittleEndian.PutUint32(hdr[0:4], centralDirSig)
		binary.LittleEndian.PutUint16(hdr[4:6], 20)  // version made by
		binary.LittleEndian.PutUint16(hdr[6:8], 20)  // version needed
		binary.LittleEndian.PutUint16(hdr[8:10], 0)  // flags
		binary.LittleEndian.PutUint16(hdr[10:12], 0) // method: store
		binary.LittleEndian.PutUint16(hdr[12:14], 0) // mod time
		binary.LittleEndian.PutUint16(hdr[14:16], 0) // mod date
		binary.LittleEndian.PutUint32(hdr[16:20], r.crc)
		binary.LittleEndian.PutUint32(hdr[20:24], r.size)
		binary.LittleEndian.PutUint32(hdr[24:28], r.size)
		binary.LittleEndian.PutUint16(hdr[28:30], uint16(len(r.name)))
		binary.LittleEndian.PutUint16(hdr[30:32], 0) // extra field length
		binary.LittleEndian.PutUint16(hdr[32:34], 0) // comment length
		binary.LittleEndian.PutUint16(hdr[34:36], 0) // disk number start
		binary.LittleEndian.PutUint16(hdr[36:38], 0) // internal attrs
		binary.LittleEndian.PutUint32(hdr[38:42], 0) // external attrs
		binary.LittleEndian.PutUint32(hdr[42:46], r.localOff)

		if _, err := z.w.Write(hdr); err != nil {
			return fmt.Errorf("%w: writing central directory record for %q: %v", errkind.IoError, r.name, err)
		}
		if _, err := io.WriteString(z.w, r.name); err != nil {
			return fmt.Errorf("%w: writing central directory name %q: %v", errkind.IoError, r.name, err)
		}
		z.offset += uint32(46 + len(r.name))
	}
	cdSize := z.offset - cdStart

	eocd := make([]byte, 22)
	binary.LittleEndian.PutUint32(eocd[0:4], eocdSig)
	binary.LittleEndian.PutUint16(eocd[4:6], 0) // disk number
	binary.LittleEndian.PutUint16(eocd[6:8], 0) // disk with CD start
	binary.LittleEndian.PutUint16(eocd[8:10], uint16(len(z.records)))
	binary.LittleEndian.PutUint16(eocd[10:12], uint16(len(z.records)))
	binary.LittleEndian.PutUint32(eocd[12:16], cdSize)
	binary.LittleEndian.PutUint32(eocd[16:20], cdStart)
	binary.LittleEndian.PutUint16(eocd[20:22], 0) // comment length

	if _, err := z.w.Write(eocd); err != nil {
		return fmt.Errorf("%w: writing end-of-central-directory record: %v", errkind.IoError, err)
	}
	return nil
}

// Abort marks the archive as abandoned; no central directory is written.
// The underlying writer (e.g. an os.File) is the caller's to close/remove.
func (z *Writer) Abort() {
	z.aborted = true
}
