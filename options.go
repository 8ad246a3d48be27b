package voxelshift

import "github.com/rs/zerolog"

// PNGLevelAuto requests the "auto" deflate level policy: level 1 for
// speed-first encoding, with recompression handling the size/speed
// tradeoff afterward when RecompressMode is RecompressAdaptive.
const PNGLevelAuto = -1

// RecompressMode selects the PNG recompression policy applied after the
// initial (fast) encode.
type RecompressMode int

const (
	// RecompressOff never recompresses.
	RecompressOff RecompressMode = iota
	// RecompressOn always recompresses at level 9.
	RecompressOn
	// RecompressForce recompresses even when it enlarges the output,
	// useful for determinism tests.
	RecompressForce
	// RecompressAdaptive recompresses only when the encoder was called
	// with a low level (<= 3), keeping the smaller of original vs
	// recompressed (compared by total file size, not IDAT size alone).
	RecompressAdaptive
)

// GPUMode controls whether GPU acceleration is attempted.
type GPUMode int

const (
	// GPUAuto uses a GPU backend when one is available and falls back to
	// CPU on any failure.
	GPUAuto GPUMode = iota
	// GPUOnly elevates any backend failure to a fatal error instead of
	// falling back to CPU.
	GPUOnly
	// CPUOnly never attempts GPU acceleration.
	CPUOnly
)

// GPUBackendKind selects which GPU backend to prefer.
type GPUBackendKind int

const (
	// GPUBackendAuto prefers Metal on Apple platforms, else CUDA when a
	// device with tensor cores is present, else OpenCL, else CPU.
	GPUBackendAuto GPUBackendKind = iota
	GPUBackendOpenCL
	GPUBackendCUDA
	GPUBackendMetal
)

// Options configures a single [Convert] invocation.
type Options struct {
	// PNGLevel is the deflate level (0-9) used by the initial PNG encode,
	// or PNGLevelAuto.
	PNGLevel int

	// RecompressMode is the recompression policy applied after encoding.
	RecompressMode RecompressMode

	// GPUMode controls whether GPU acceleration is attempted.
	GPUMode GPUMode

	// GPUBackend selects which GPU backend to prefer when GPUMode != CPUOnly.
	GPUBackend GPUBackendKind

	// UsePhased opts into the batched decode/GPU-scanline/compress
	// pipeline mode. Required when a GPU backend drives the scanline
	// stage.
	UsePhased bool

	// DisableNativeAccel disables GPU probing entirely, equivalent to
	// GPUMode=CPUOnly but also skipping backend availability checks.
	DisableNativeAccel bool

	// CPUWorkers overrides the default CPU worker count. Zero selects the
	// default (runtime.NumCPU()).
	CPUWorkers int

	// GPUHostWorkers overrides the CPU-side worker count feeding and
	// draining the active backend in phased mode (the decode and compress
	// phases). Zero selects the default (runtime.NumCPU(), same as
	// CPUWorkers' default). Has no effect unless UsePhased is set.
	GPUHostWorkers int

	// WorkerMultiplierCap bounds an explicit CPUWorkers/GPUHostWorkers
	// override to this multiple of runtime.NumCPU(); the NumCPU default is
	// not affected. Defaults to 2.0 when zero.
	WorkerMultiplierCap float32

	// Analytics enables extra telemetry beyond the baseline per-layer
	// logging: per-phase timing Debug events in phased mode, and an Info
	// summary (duration, GPU fallback count, output size) on completion.
	Analytics bool

	// Logger receives structured diagnostics from every pipeline stage.
	// The zero value is zerolog.Nop() (silent).
	Logger zerolog.Logger
}

// DefaultOptions returns an Options value matching the documented
// zero/default behavior of every field.
func DefaultOptions() Options {
	return Options{
		PNGLevel:            PNGLevelAuto,
		RecompressMode:      RecompressOff,
		GPUMode:             GPUAuto,
		GPUBackend:          GPUBackendAuto,
		WorkerMultiplierCap: 2.0,
		Logger:              zerolog.Nop(),
	}
}

// resolvedPNGLevel returns the concrete deflate level (0-9) this run
// should use for the initial encode.
func (o Options) resolvedPNGLevel() int {
	if o.PNGLevel == PNGLevelAuto {
		return 1
	}
	if o.PNGLevel < 0 {
		return 0
	}
	if o.PNGLevel > 9 {
		return 9
	}
	return o.PNGLevel
}

// multiplierCap returns the effective worker multiplier cap, defaulting to
// 2.0 when unset.
func (o Options) multiplierCap() float32 {
	if o.WorkerMultiplierCap <= 0 {
		return 2.0
	}
	return o.WorkerMultiplierCap
}
