package voxelshift

import "github.com/Open-Resin-Alliance/VoxelShift-sub000/internal/errkind"

// ErrorKind sentinels for the conversion pipeline. Components wrap these
// with context via fmt.Errorf("...: %w", ErrXxx) so callers can test with
// errors.Is regardless of how deep in the pipeline the failure occurred.
// The underlying values live in internal/errkind so every stage package
// can produce/compare them without importing this root package.
var (
	// ErrInvalidFormat is returned when the source container's header or
	// layer-index table cannot be parsed.
	ErrInvalidFormat = errkind.InvalidFormat

	// ErrIoError is returned on a read/write failure against the source or
	// destination file.
	ErrIoError = errkind.IoError

	// ErrOutOfMemory is returned when a host allocation fails.
	ErrOutOfMemory = errkind.OutOfMemory

	// ErrBackendUnavailable is returned by a GPU backend's Init when the
	// backend's driver/library cannot be located. Recovered by CPU
	// fallback unless Options.GPUMode is GPUOnly.
	ErrBackendUnavailable = errkind.BackendUnavailable

	// ErrOutOfDeviceMemory is returned when a GPU allocation would exceed
	// the backend's VRAM budget. Recovered by CPU fallback unless
	// Options.GPUMode is GPUOnly.
	ErrOutOfDeviceMemory = errkind.OutOfDeviceMemory

	// ErrKernelLaunchFailed is returned when a GPU kernel launch fails.
	// Recovered by CPU fallback unless Options.GPUMode is GPUOnly.
	ErrKernelLaunchFailed = errkind.KernelLaunchFailed

	// ErrTransferFailed is returned when a host<->device transfer fails.
	// Recovered by CPU fallback unless Options.GPUMode is GPUOnly.
	ErrTransferFailed = errkind.TransferFailed

	// ErrArchiveLimit is returned when an output archive would exceed a
	// ZIP structural limit (entry count, per-entry size, or name length).
	ErrArchiveLimit = errkind.ArchiveLimit

	// ErrCancelled is returned when a run is stopped via its cancel token.
	// Not logged as an error; no archive is left on disk.
	ErrCancelled = errkind.Cancelled
)
