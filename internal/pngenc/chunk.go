package pngenc

import (
	"encoding/binary"
	"hash/crc32"
)

var pngSignature = [8]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

// appendChunk frames typ+data as length(4) + type(4) + data + crc32(4), the
// same "length-prefixed, CRC-trailed record" shape the teacher uses for its
// RIFF chunks, and appends it to dst.
func appendChunk(dst []byte, typ string, data []byte) []byte {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(data)))
	dst = append(dst, lenBuf[:]...)

	start := len(dst)
	dst = append(dst, typ...)
	dst = append(dst, data...)

	crc := crc32.ChecksumIEEE(dst[start:])
	var crcBuf [4]byte
	binary.BigEndian.PutUint32(crcBuf[:], crc)
	dst = append(dst, crcBuf[:]...)
	return dst
}

// chunk is one parsed chunk from an existing PNG stream.
type chunk struct {
	typ  string
	data []byte
}

// parseChunks splits a PNG byte stream (signature already consumed) into
// its chunks, validating each CRC32.
func parseChunks(data []byte) ([]chunk, error) {
	var chunks []chunk
	for len(data) > 0 {
		if len(data) < 8 {
			return nil, errTruncated
		}
		length := binary.BigEndian.Uint32(data[0:4])
		typ := string(data[4:8])
		end := 8 + uint64(length)
		if end+4 > uint64(len(data)) {
			return nil, errTruncated
		}
		body := data[8:end]
		wantCRC := binary.BigEndian.Uint32(data[end : end+4])
		gotCRC := crc32.ChecksumIEEE(data[4:end])
		if gotCRC != wantCRC {
			return nil, errBadCRC
		}
		chunks = append(chunks, chunk{typ: typ, data: body})
		data = data[end+4:]
	}
	return chunks, nil
}
