// Package errkind holds the conversion pipeline's error-taxonomy sentinels
// (spec §7). It exists so every internal stage package and the public
// voxelshift package can wrap/compare the same underlying error values
// without an import cycle back through the root package.
package errkind

import "errors"

var (
	InvalidFormat      = errors.New("voxelshift: invalid format")
	IoError            = errors.New("voxelshift: io error")
	OutOfMemory        = errors.New("voxelshift: out of memory")
	BackendUnavailable = errors.New("voxelshift: gpu backend unavailable")
	OutOfDeviceMemory  = errors.New("voxelshift: gpu out of device memory")
	KernelLaunchFailed = errors.New("voxelshift: gpu kernel launch failed")
	TransferFailed     = errors.New("voxelshift: gpu transfer failed")
	ArchiveLimit       = errors.New("voxelshift: archive limit exceeded")
	Cancelled          = errors.New("voxelshift: cancelled")
)
