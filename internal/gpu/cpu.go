package gpu

import (
	"context"
	"fmt"

	"github.com/Open-Resin-Alliance/VoxelShift-sub000/internal/codec"
	"github.com/Open-Resin-Alliance/VoxelShift-sub000/internal/errkind"
	"github.com/Open-Resin-Alliance/VoxelShift-sub000/internal/scanline"
)

// CPUBackend builds scanlines on the calling goroutine using the
// reference (non-GPU) implementation. It is always available and is the
// Router's terminal fallback.
type CPUBackend struct {
	// Budget bounds host memory devoted to concurrently resident layers.
	// A nil Budget leaves reservation unenforced and MaxConcurrentLayers
	// conservative (reports 1).
	Budget *Budget
}

func (c *CPUBackend) Name() string    { return "cpu" }
func (c *CPUBackend) Available() bool { return true }
func (c *CPUBackend) Init() error     { return nil }

// BuildScanlines reserves this layer's resident footprint against Budget
// before building, and releases it once the scanline buffer is handed
// back to the caller (who owns it from here on, via Scanlines.Release).
func (c *CPUBackend) BuildScanlines(layer *codec.GreyLayer, board scanline.Board, outWidth int) (*scanline.Scanlines, error) {
	if c.Budget != nil {
		size := layerResidentBytes(layer, board, outWidth)
		// A layer larger than the whole budget can never be admitted;
		// skip reservation rather than block forever waiting for room
		// that will never exist.
		if total := c.Budget.TotalBytes(); total > 0 && size <= total {
			if err := c.Budget.Reserve(context.Background(), size); err != nil {
				return nil, fmt.Errorf("%w: reserving cpu host memory budget: %v", errkind.OutOfMemory, err)
			}
			defer c.Budget.Release(size)
		}
	}
	return scanline.Build(layer, board, outWidth)
}

func (c *CPUBackend) BatchBuildScanlines(layers []*codec.GreyLayer, board scanline.Board, outWidth int) ([]*scanline.Scanlines, error) {
	out := make([]*scanline.Scanlines, 0, len(layers))
	for _, l := range layers {
		sl, err := c.BuildScanlines(l, board, outWidth)
		if err != nil {
			for _, done := range out {
				done.Release()
			}
			return nil, fmt.Errorf("cpu batch scanline build: %w", err)
		}
		out = append(out, sl)
	}
	return out, nil
}

// MaxConcurrentLayers divides Budget's usable bytes by one layer's
// resident footprint (decoded source plus output scanline buffer).
func (c *CPUBackend) MaxConcurrentLayers(srcWidth, height, outWidth, channels int) int {
	perLayer := int64(srcWidth*height) + int64(outWidth*channels*height)
	if perLayer <= 0 {
		return 1
	}
	if c.Budget == nil {
		return 1
	}
	n := int(c.Budget.TotalBytes() / perLayer)
	if n < 1 {
		return 1
	}
	return n
}

// layerResidentBytes estimates a layer's peak host memory footprint: its
// decoded greyscale buffer plus its encoded output scanline buffer.
func layerResidentBytes(layer *codec.GreyLayer, board scanline.Board, outWidth int) int64 {
	return int64(layer.Width*layer.Height) + int64(outWidth*board.Channels()*layer.Height)
}
