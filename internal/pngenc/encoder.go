// Package pngenc wraps a filtered-scanline buffer into a minimal,
// self-contained PNG file and can recompress an existing PNG's IDAT
// stream to a different zlib level.
package pngenc

import (
	"bytes"
	"compress/flate"
	"encoding/binary"
	"fmt"
	"hash/adler32"
	"io"

	"github.com/Open-Resin-Alliance/VoxelShift-sub000/internal/errkind"
	"github.com/Open-Resin-Alliance/VoxelShift-sub000/internal/scanline"
)

// Blob is a self-contained, encoded PNG file.
type Blob struct {
	LayerIndex     int
	Bytes          []byte
	CompressedSize int
}

// colorType maps a board to the PNG IHDR color type: 2 (truecolor) for
// RGB8BIT, 0 (greyscale) for GREY3BIT.
func colorType(board scanline.Board) byte {
	if board == scanline.RGB8BIT {
		return 2
	}
	return 0
}

// Encode wraps sl into a complete PNG file at the given deflate level
// (0-9). level is not validated here; callers resolve Options.PNGLevel
// (including the "auto" sentinel) before calling Encode.
func Encode(sl *scanline.Scanlines, board scanline.Board, layerIndex int, level int) (*Blob, error) {
	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:4], uint32(sl.OutWidth))
	binary.BigEndian.PutUint32(ihdr[4:8], uint32(sl.Height))
	ihdr[8] = 8
	ihdr[9] = colorType(board)
	ihdr[10] = 0
	ihdr[11] = 0
	ihdr[12] = 0

	idatPayload, err := deflateZlib(sl.RowBytes, level)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(pngSignature)+64+len(idatPayload))
	out = append(out, pngSignature[:]...)
	out = appendChunk(out, "IHDR", ihdr)
	out = appendChunk(out, "IDAT", idatPayload)
	out = appendChunk(out, "IEND", nil)

	return &Blob{LayerIndex: layerIndex, Bytes: out, CompressedSize: len(idatPayload)}, nil
}

// deflateZlib wraps raw in a hand-built zlib stream: a 2-byte header
// (CMF/FLG, FCHECK chosen so the big-endian uint16 is a multiple of 31),
// deflate blocks at level, and a big-endian Adler32 trailer.
func deflateZlib(raw []byte, level int) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(zlibHeader(level))

	fw, err := flate.NewWriter(&buf, level)
	if err != nil {
		return nil, fmt.Errorf("%w: constructing deflate writer: %v", errkind.InvalidFormat, err)
	}
	if _, err := fw.Write(raw); err != nil {
		return nil, fmt.Errorf("%w: deflating scanlines: %v", errkind.IoError, err)
	}
	if err := fw.Close(); err != nil {
		return nil, fmt.Errorf("%w: closing deflate writer: %v", errkind.IoError, err)
	}

	var trailer [4]byte
	binary.BigEndian.PutUint32(trailer[:], adler32.Checksum(raw))
	buf.Write(trailer[:])
	return buf.Bytes(), nil
}

// zlibHeader returns the 2-byte CMF/FLG header for a 32K-window zlib
// stream, with FLEVEL set to roughly reflect the deflate level used.
func zlibHeader(level int) []byte {
	const cmf = 0x78
	var flevel byte
	switch {
	case level == 6 || level == flate.DefaultCompression:
		flevel = 2
	case level <= 1:
		flevel = 0
	case level <= 5:
		flevel = 1
	default:
		flevel = 3
	}
	flg := flevel << 6
	rem := (int(cmf)*256 + int(flg)) % 31
	if rem != 0 {
		flg += byte(31 - rem)
	}
	return []byte{cmf, flg}
}

// inflateZlib reverses deflateZlib, discarding the header and trailer.
func inflateZlib(data []byte) ([]byte, error) {
	if len(data) < 6 {
		return nil, fmt.Errorf("%w: zlib stream too short", errkind.InvalidFormat)
	}
	fr := flate.NewReader(bytes.NewReader(data[2 : len(data)-4]))
	defer fr.Close()
	out, err := io.ReadAll(fr)
	if err != nil {
		return nil, fmt.Errorf("%w: inflating IDAT: %v", errkind.InvalidFormat, err)
	}
	return out, nil
}
