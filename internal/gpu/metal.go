package gpu

import (
	"runtime"

	"github.com/Open-Resin-Alliance/VoxelShift-sub000/internal/codec"
	"github.com/Open-Resin-Alliance/VoxelShift-sub000/internal/errkind"
	"github.com/Open-Resin-Alliance/VoxelShift-sub000/internal/scanline"
)

// MetalBackend is a placeholder: no Metal shader library is vendored, so
// Available always reports false, regardless of GOOS. isDarwin is kept
// separate from Available so the Router's auto-priority ("prefer Metal
// on Apple") can still be exercised in tests without a real device.
type MetalBackend struct{}

func (b *MetalBackend) Name() string    { return "metal" }
func (b *MetalBackend) Available() bool { return false }

func (b *MetalBackend) Init() error {
	return errkind.BackendUnavailable
}

func (b *MetalBackend) BuildScanlines(*codec.GreyLayer, scanline.Board, int) (*scanline.Scanlines, error) {
	return nil, errkind.BackendUnavailable
}

func (b *MetalBackend) BatchBuildScanlines([]*codec.GreyLayer, scanline.Board, int) ([]*scanline.Scanlines, error) {
	return nil, errkind.BackendUnavailable
}

func (b *MetalBackend) MaxConcurrentLayers(int, int, int, int) int {
	return 0
}

func isDarwin() bool { return runtime.GOOS == "darwin" }
