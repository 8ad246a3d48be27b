// Package codec implements the Layer Codec: decoding a single slice-file
// layer's RLE-compressed, optionally XOR-ciphered payload into a plain
// 8-bit greyscale bitmap.
package codec

import (
	"fmt"

	"github.com/Open-Resin-Alliance/VoxelShift-sub000/internal/errkind"
	"github.com/Open-Resin-Alliance/VoxelShift-sub000/internal/pool"
	"github.com/Open-Resin-Alliance/VoxelShift-sub000/internal/sliceio"
)

// Decode expands el's encoded payload into a srcWidth x height greyscale
// bitmap. The returned GreyLayer's Pixels is pool-backed and must be
// released via Release once the caller is done with it.
//
// A truncated or malformed RLE stream is not an error: decodeRLE stops
// early and leaves the remainder of the buffer at zero, matching the
// slicer's own tolerance for short writes at the final layer.
func Decode(el sliceio.EncodedLayer, srcWidth, height int) (*GreyLayer, error) {
	pixelCount := srcWidth * height
	if pixelCount < 0 {
		return nil, fmt.Errorf("%w: negative layer dimensions %dx%d", errkind.InvalidFormat, srcWidth, height)
	}

	buf, err := allocate(pixelCount)
	if err != nil {
		return nil, err
	}
	clear(buf)

	br := newByteReader(el.Data, el.DecodeKeySeed, el.EncryptionKey)
	decodeRLE(br, buf)

	return &GreyLayer{
		LayerIndex: el.LayerIndex,
		Width:      srcWidth,
		Height:     height,
		Pixels:     buf,
	}, nil
}

// allocate recovers from the pool's New (or the runtime) failing to
// produce pixelCount bytes, surfacing it as ErrorKind::OutOfMemory rather
// than letting a panic cross the package boundary.
func allocate(pixelCount int) (buf []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			buf = nil
			err = fmt.Errorf("%w: allocating %d-byte layer buffer: %v", errkind.OutOfMemory, pixelCount, r)
		}
	}()
	return pool.Get(pixelCount), nil
}
