package gpu

import (
	"github.com/Open-Resin-Alliance/VoxelShift-sub000/internal/codec"
	"github.com/Open-Resin-Alliance/VoxelShift-sub000/internal/errkind"
	"github.com/Open-Resin-Alliance/VoxelShift-sub000/internal/scanline"
)

// OpenCLBackend is a placeholder: this build carries no OpenCL ICD
// loader or kernel sources, so Available always reports false and the
// Router falls straight through to CUDA, Metal, or CPU. Swapping in a
// real implementation only requires satisfying Backend.
type OpenCLBackend struct{}

func (b *OpenCLBackend) Name() string    { return "opencl" }
func (b *OpenCLBackend) Available() bool { return false }

func (b *OpenCLBackend) Init() error {
	return errkind.BackendUnavailable
}

func (b *OpenCLBackend) BuildScanlines(*codec.GreyLayer, scanline.Board, int) (*scanline.Scanlines, error) {
	return nil, errkind.BackendUnavailable
}

func (b *OpenCLBackend) BatchBuildScanlines([]*codec.GreyLayer, scanline.Board, int) ([]*scanline.Scanlines, error) {
	return nil, errkind.BackendUnavailable
}

func (b *OpenCLBackend) MaxConcurrentLayers(int, int, int, int) int {
	return 0
}
