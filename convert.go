package voxelshift

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/Open-Resin-Alliance/VoxelShift-sub000/internal/archive"
	"github.com/Open-Resin-Alliance/VoxelShift-sub000/internal/errkind"
	"github.com/Open-Resin-Alliance/VoxelShift-sub000/internal/gpu"
	"github.com/Open-Resin-Alliance/VoxelShift-sub000/internal/pipeline"
	"github.com/Open-Resin-Alliance/VoxelShift-sub000/internal/pngenc"
	"github.com/Open-Resin-Alliance/VoxelShift-sub000/internal/scanline"
	"github.com/Open-Resin-Alliance/VoxelShift-sub000/internal/sliceio"
)

// Convert opens the slice-file at sourcePath, renders one PNG per layer
// for profile, and writes a store-only ZIP archive alongside the source
// (same name, .zip extension). progress, if non-nil, receives coalesced
// progress updates; cancel, if non-nil, lets the caller request early
// termination between layers.
func Convert(sourcePath string, profile TargetProfile, opts Options, progress ProgressSink, cancel *CancelToken) (*ConversionReport, error) {
	start := time.Now()
	log := opts.Logger

	f, err := os.Open(sourcePath)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %v", errkind.IoError, sourcePath, err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("%w: statting %s: %v", errkind.IoError, sourcePath, err)
	}

	sf, err := sliceio.Open(f, fi.Size())
	if err != nil {
		return nil, err
	}

	if err := profile.Validate(sf.ResolutionX()); err != nil {
		return nil, err
	}

	log.Debug().Int("layer_count", sf.LayerCount()).Str("profile", profile.Label).Msg("opened source")

	hostBudget := gpu.NewBudget(hostMemoryBudgetBytes, 0)
	router := gpu.NewRouter(
		[]gpu.Backend{&gpu.OpenCLBackend{}, &gpu.CUDABackend{}, &gpu.MetalBackend{}},
		&gpu.CPUBackend{Budget: hostBudget},
	)
	router.SetLogger(adaptGPULogger(log))
	pref := resolveGPUPreference(opts)
	active, err := router.Select(pref)
	if err != nil {
		return nil, err
	}
	if opts.GPUMode == GPUOnly && active.Name() == "cpu" {
		err := fmt.Errorf("%w: no GPU backend available and gpu_mode=GpuOnly", errkind.BackendUnavailable)
		log.Error().Err(err).Msg("aborting conversion")
		return nil, err
	}
	log.Debug().Str("backend", active.Name()).Msg("selected backend")

	cpuWorkers := resolveWorkerCount(opts.CPUWorkers, opts.multiplierCap())

	cfg := pipeline.Config{
		SrcWidth:   sf.ResolutionX(),
		SrcHeight:  sf.ResolutionY(),
		Board:      scanline.Board(profile.Board),
		OutWidth:   profile.OutWidth,
		PNGLevel:   opts.resolvedPNGLevel(),
		Recompress: pngenc.Mode(opts.RecompressMode),
		XPitchMM:   profile.PixelPitchUM / 1000.0,
		YPitchMM:   profile.PixelPitchUM / 1000.0,
		Workers:    cpuWorkers,
		Progress:   pipeline.NewCoalescer(adaptProgressSink(progress), 200*time.Millisecond),
		Logger:     adaptPipelineLogger(log),
		Analytics:  opts.Analytics,
	}

	ctx, cancelFn := contextFromToken(cancel)
	defer cancelFn()

	var results []pipeline.LayerResult
	var runErr error
	if opts.UsePhased {
		batchSize, err := router.MaxConcurrentLayers(cfg.SrcWidth, cfg.SrcHeight, cfg.OutWidth, cfg.Board.Channels())
		if err != nil || batchSize <= 0 {
			batchSize = cpuWorkers
		}
		phasedCfg := cfg
		phasedCfg.Workers = resolveWorkerCount(opts.GPUHostWorkers, opts.multiplierCap())
		results, runErr = pipeline.RunPhased(ctx, sf, phasedCfg, router, batchSize)
	} else {
		results, runErr = pipeline.RunPerLayer(ctx, sf, cfg)
	}
	if runErr != nil {
		log.Error().Err(runErr).Msg("conversion aborted")
		return nil, runErr
	}

	outputPath := defaultOutputPath(sourcePath)
	outBytes, err := writeArchive(outputPath, sf, profile, results)
	if err != nil {
		log.Error().Err(err).Msg("conversion aborted")
		return nil, err
	}

	duration := time.Since(start)
	if opts.Analytics {
		log.Info().
			Dur("duration", duration).
			Int("gpu_fallbacks", router.TotalFallbacks()).
			Int("layer_count", len(results)).
			Int64("output_bytes", outBytes).
			Msg("analytics summary")
	}

	return &ConversionReport{
		OutputPath:    outputPath,
		LayerCount:    len(results),
		Duration:      duration,
		TargetProfile: profile,
		OutputBytes:   outBytes,
	}, nil
}

// hostMemoryBudgetBytes is the CPU backend's host memory budget for
// concurrently resident layers (2 GiB).
const hostMemoryBudgetBytes = 2 << 30

// adaptPipelineLogger bridges pipeline.LogEvent to opts.Logger.
func adaptPipelineLogger(log zerolog.Logger) pipeline.LogFunc {
	return func(e pipeline.LogEvent) {
		var ev *zerolog.Event
		switch e.Level {
		case pipeline.LogWarn:
			ev = log.Warn()
		case pipeline.LogError:
			ev = log.Error()
		default:
			ev = log.Debug()
		}
		if e.LayerIndex >= 0 {
			ev = ev.Int("layer_index", e.LayerIndex)
		}
		ev.Msg(e.Msg)
	}
}

// adaptGPULogger bridges gpu.LogEvent to opts.Logger.
func adaptGPULogger(log zerolog.Logger) gpu.LogFunc {
	return func(e gpu.LogEvent) {
		var ev *zerolog.Event
		if e.Level == gpu.LogWarn {
			ev = log.Warn()
		} else {
			ev = log.Debug()
		}
		if e.Backend != "" {
			ev = ev.Str("backend", e.Backend)
		}
		ev.Msg(e.Msg)
	}
}

// resolveGPUPreference maps Options' GPU fields to a gpu.Preference.
func resolveGPUPreference(opts Options) gpu.Preference {
	if opts.DisableNativeAccel || opts.GPUMode == CPUOnly {
		return gpu.PreferCPUOnly
	}
	switch opts.GPUBackend {
	case GPUBackendOpenCL:
		return gpu.PreferOpenCL
	case GPUBackendCUDA:
		return gpu.PreferCUDA
	case GPUBackendMetal:
		return gpu.PreferMetal
	default:
		return gpu.PreferAuto
	}
}

// resolveWorkerCount applies the explicit override (if any) or defaults
// to runtime.NumCPU(), clamped by the multiplier cap.
func resolveWorkerCount(override int, multiplierCap float32) int {
	cores := runtime.NumCPU()
	ceiling := int(float32(cores) * multiplierCap)
	if ceiling < 1 {
		ceiling = cores
	}
	if override > 0 {
		if override > ceiling {
			return ceiling
		}
		return override
	}
	return cores
}

// contextFromToken derives a cancellable context.Context from a
// *CancelToken, which may be nil.
func contextFromToken(cancel *CancelToken) (context.Context, context.CancelFunc) {
	ctx, cancelFn := context.WithCancel(context.Background())
	if cancel == nil {
		return ctx, cancelFn
	}
	go func() {
		select {
		case <-cancel.Done():
			cancelFn()
		case <-ctx.Done():
		}
	}()
	return ctx, cancelFn
}

// adaptProgressSink wraps a public ProgressSink as a pipeline.Sink.
func adaptProgressSink(sink ProgressSink) pipeline.Sink {
	if sink == nil {
		return nil
	}
	return func(u pipeline.Update) {
		phase := PhaseLayer
		switch u.Phase {
		case "phase1_decode":
			phase = PhaseDecodeBatch
		case "phase2_scanlines":
			phase = PhaseScanlineBatch
		case "phase3_compress":
			phase = PhaseCompressBatch
		}
		sink(ProgressUpdate{Phase: phase, Current: u.Current, Total: u.Total, Workers: u.Workers})
	}
}

// defaultOutputPath replaces sourcePath's extension with .zip.
func defaultOutputPath(sourcePath string) string {
	ext := filepath.Ext(sourcePath)
	return strings.TrimSuffix(sourcePath, ext) + ".zip"
}

// writeArchive builds the manifest, writes it plus every layer's PNG in
// ascending layer_index order, and returns the archive's total size.
func writeArchive(outputPath string, sf *sliceio.SliceFile, profile TargetProfile, results []pipeline.LayerResult) (int64, error) {
	out, err := os.Create(outputPath)
	if err != nil {
		return 0, fmt.Errorf("%w: creating %s: %v", errkind.IoError, outputPath, err)
	}

	w := archive.NewWriter(out)
	manifest := buildManifest(sf, profile, results)
	manifestJSON, err := json.Marshal(manifest)
	if err != nil {
		w.Abort()
		out.Close()
		return 0, fmt.Errorf("%w: marshaling manifest: %v", errkind.InvalidFormat, err)
	}

	if err := w.Add("slice.json", manifestJSON); err != nil {
		w.Abort()
		out.Close()
		os.Remove(outputPath)
		return 0, err
	}

	width := entryNameWidth(len(results))
	for _, r := range results {
		name := fmt.Sprintf("%0*d.png", width, r.LayerIndex)
		if err := w.Add(name, r.PNG.Bytes); err != nil {
			w.Abort()
			out.Close()
			os.Remove(outputPath)
			return 0, err
		}
	}

	if err := w.Finalize(); err != nil {
		out.Close()
		os.Remove(outputPath)
		return 0, err
	}
	if err := out.Close(); err != nil {
		return 0, fmt.Errorf("%w: closing %s: %v", errkind.IoError, outputPath, err)
	}

	fi, err := os.Stat(outputPath)
	if err != nil {
		return 0, fmt.Errorf("%w: statting %s: %v", errkind.IoError, outputPath, err)
	}
	return fi.Size(), nil
}

// entryNameWidth returns the zero-padded width for layer filenames:
// ceil(log10(layerCount)), minimum 5.
func entryNameWidth(layerCount int) int {
	digits := 1
	for n := layerCount - 1; n >= 10; n /= 10 {
		digits++
	}
	if digits < 5 {
		return 5
	}
	return digits
}

func buildManifest(sf *sliceio.SliceFile, profile TargetProfile, results []pipeline.LayerResult) Manifest {
	m := Manifest{
		ResolutionX:      sf.ResolutionX(),
		ResolutionY:      sf.ResolutionY(),
		LayerCount:       sf.LayerCount(),
		LayerHeightMM:    sf.LayerHeightMM(),
		BottomLayerCount: sf.BottomLayerCount(),
		ExposureS:        sf.NormalExposureS(),
		BottomExposureS:  sf.BottomExposureS(),
		LiftHeightMM:     sf.LiftHeightMM(),
		PrintHeightMM:    sf.PrintHeightMM(),
		ProfileLabel:     profile.Label,
		Layers:           make([]LayerManifestEntry, len(results)),
	}
	for i, r := range results {
		m.Layers[i] = LayerManifestEntry{
			Index:       r.LayerIndex,
			ZMM:         r.ZMM,
			AreaMM2:     r.Area.TotalAreaMM2,
			IslandCount: r.Area.IslandCount,
			BBox:        r.Area.BBox,
		}
	}
	return m
}
