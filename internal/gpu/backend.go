// Package gpu routes scanline-building work to an available GPU backend
// (OpenCL, CUDA, Metal) or falls back to the CPU path, enforcing a VRAM
// budget and disabling backends that fail repeatedly within a run.
package gpu

import (
	"github.com/Open-Resin-Alliance/VoxelShift-sub000/internal/codec"
	"github.com/Open-Resin-Alliance/VoxelShift-sub000/internal/scanline"
)

// Backend is one GPU (or CPU) scanline-building implementation.
type Backend interface {
	// Name identifies the backend for logging and telemetry.
	Name() string

	// Available performs a cheap probe (e.g. resolving a canonical
	// driver symbol) without allocating device resources.
	Available() bool

	// Init prepares the backend for use (device context, command queue).
	// Called once, after Available reports true and before any
	// BuildScanlines/BatchBuildScanlines call.
	Init() error

	// BuildScanlines builds one layer's scanlines.
	BuildScanlines(layer *codec.GreyLayer, board scanline.Board, outWidth int) (*scanline.Scanlines, error)

	// BatchBuildScanlines builds scanlines for a batch of layers in a
	// single device round-trip (phased mode). Implementations that have
	// no batch advantage may fall back to calling BuildScanlines per
	// layer.
	BatchBuildScanlines(layers []*codec.GreyLayer, board scanline.Board, outWidth int) ([]*scanline.Scanlines, error)

	// MaxConcurrentLayers returns how many layers of the given
	// dimensions can be resident at once under this backend's VRAM (or
	// host memory, for the CPU backend) budget.
	MaxConcurrentLayers(srcWidth, height, outWidth, channels int) int
}
