package gpu

import (
	"github.com/Open-Resin-Alliance/VoxelShift-sub000/internal/codec"
	"github.com/Open-Resin-Alliance/VoxelShift-sub000/internal/errkind"
	"github.com/Open-Resin-Alliance/VoxelShift-sub000/internal/scanline"
)

// CUDABackend is a placeholder: no CUDA runtime is vendored, so
// Available always reports false. HasTensorCores exists so the Router's
// auto-selection priority (prefer CUDA when has_tensor_cores) is
// testable even though no real device is ever probed.
type CUDABackend struct {
	HasTensorCores bool
}

func (b *CUDABackend) Name() string    { return "cuda" }
func (b *CUDABackend) Available() bool { return false }

func (b *CUDABackend) Init() error {
	return errkind.BackendUnavailable
}

func (b *CUDABackend) BuildScanlines(*codec.GreyLayer, scanline.Board, int) (*scanline.Scanlines, error) {
	return nil, errkind.BackendUnavailable
}

func (b *CUDABackend) BatchBuildScanlines([]*codec.GreyLayer, scanline.Board, int) ([]*scanline.Scanlines, error) {
	return nil, errkind.BackendUnavailable
}

func (b *CUDABackend) MaxConcurrentLayers(int, int, int, int) int {
	return 0
}
