// Package scanline builds PNG-ready filtered row blocks from a decoded
// greyscale layer, remapping the source subpixel row into the target
// panel's pixel row and applying the PNG "Up" filter in place.
package scanline

import (
	"fmt"

	"github.com/Open-Resin-Alliance/VoxelShift-sub000/internal/codec"
	"github.com/Open-Resin-Alliance/VoxelShift-sub000/internal/errkind"
	"github.com/Open-Resin-Alliance/VoxelShift-sub000/internal/pool"
)

// Board selects the output panel's pixel format.
type Board int

const (
	RGB8BIT Board = iota
	GREY3BIT
)

// Channels returns the number of output channels per pixel for b.
func (b Board) Channels() int {
	if b == RGB8BIT {
		return 3
	}
	return 1
}

// Scanlines is a PNG-ready, Up-filtered row block: Height rows of
// 1+OutWidth*Channels bytes each, the first byte of every row being the
// PNG filter type.
type Scanlines struct {
	OutWidth int
	Height   int
	Channels int
	RowBytes []byte // owned, pool-backed
}

// RowStride is the byte length of one row including its filter-type byte.
func (s *Scanlines) RowStride() int { return 1 + s.OutWidth*s.Channels }

// Release returns the buffer to the shared pool. The Scanlines must not be
// used again afterward.
func (s *Scanlines) Release() {
	if s.RowBytes != nil {
		pool.Put(s.RowBytes)
		s.RowBytes = nil
	}
}

// LeftPad returns the centered left padding applied when the target
// panel's raw pixel width exceeds the source subpixel width.
func LeftPad(outWidth, channels, srcWidth int) int {
	pad := (outWidth*channels - srcWidth) / 2
	if pad < 0 {
		return 0
	}
	return pad
}

// Build remaps layer into a filtered Scanlines block for the given board
// and output width. srcWidth is the layer's subpixel row width (its
// Width field); it may differ from outWidth*channels, in which case reads
// past either edge of the source row return 0.
func Build(layer *codec.GreyLayer, board Board, outWidth int) (*Scanlines, error) {
	if outWidth <= 0 || layer.Height < 0 {
		return nil, fmt.Errorf("%w: invalid scanline dimensions %dx%d", errkind.InvalidFormat, outWidth, layer.Height)
	}

	channels := board.Channels()
	stride := 1 + outWidth*channels
	total := layer.Height * stride

	buf, err := allocate(total)
	if err != nil {
		return nil, err
	}

	// A grey output pixel averages 2 source subpixels, so the panel spans
	// outWidth*2 subpixels there, not outWidth*channels.
	subPerPixel := channels
	if board == GREY3BIT {
		subPerPixel = 2
	}
	pad := LeftPad(outWidth, subPerPixel, layer.Width)
	srcRowLen := layer.Width

	switch board {
	case RGB8BIT:
		buildRGB(buf, layer.Pixels, layer.Height, srcRowLen, outWidth, stride, pad)
	case GREY3BIT:
		buildGrey(buf, layer.Pixels, layer.Height, srcRowLen, outWidth, stride, pad)
	default:
		pool.Put(buf)
		return nil, fmt.Errorf("%w: unknown board %d", errkind.InvalidFormat, board)
	}

	applyUpFilter(buf, layer.Height, stride)

	return &Scanlines{OutWidth: outWidth, Height: layer.Height, Channels: channels, RowBytes: buf}, nil
}

func allocate(n int) (buf []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			buf = nil
			err = fmt.Errorf("%w: allocating %d-byte scanline buffer: %v", errkind.OutOfMemory, n, r)
		}
	}()
	b := pool.Get(n)
	clear(b)
	return b, nil
}

// srcByte returns src[row*srcRowLen+i], or 0 when i is out of [0,srcRowLen).
func srcByte(src []byte, rowOff, srcRowLen, i int) byte {
	if i < 0 || i >= srcRowLen {
		return 0
	}
	return src[rowOff+i]
}

func buildRGB(buf, src []byte, height, srcRowLen, outWidth, stride, pad int) {
	for y := 0; y < height; y++ {
		rowOff := y * srcRowLen
		out := buf[y*stride : y*stride+stride]
		out[0] = 0 // filter byte set by applyUpFilter
		for x := 0; x < outWidth; x++ {
			base := x*3 - pad
			out[1+x*3+0] = srcByte(src, rowOff, srcRowLen, base+0)
			out[1+x*3+1] = srcByte(src, rowOff, srcRowLen, base+1)
			out[1+x*3+2] = srcByte(src, rowOff, srcRowLen, base+2)
		}
	}
}

func buildGrey(buf, src []byte, height, srcRowLen, outWidth, stride, pad int) {
	for y := 0; y < height; y++ {
		rowOff := y * srcRowLen
		out := buf[y*stride : y*stride+stride]
		out[0] = 0
		for x := 0; x < outWidth; x++ {
			base := x*2 - pad
			a := srcByte(src, rowOff, srcRowLen, base+0)
			b := srcByte(src, rowOff, srcRowLen, base+1)
			out[1+x] = byte((int(a) + int(b)) >> 1)
		}
	}
}
