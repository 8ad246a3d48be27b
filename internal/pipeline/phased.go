package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Open-Resin-Alliance/VoxelShift-sub000/internal/area"
	"github.com/Open-Resin-Alliance/VoxelShift-sub000/internal/codec"
	"github.com/Open-Resin-Alliance/VoxelShift-sub000/internal/errkind"
	"github.com/Open-Resin-Alliance/VoxelShift-sub000/internal/gpu"
	"github.com/Open-Resin-Alliance/VoxelShift-sub000/internal/pngenc"
	"github.com/Open-Resin-Alliance/VoxelShift-sub000/internal/scanline"
)

// RunPhased executes the opt-in three-phase mode: decode+area over a
// batch of layers (Phase 1, CPU-parallel), scanline construction for the
// whole batch via router's active backend with CPU fan-out fallback
// (Phase 2), then deflate+wrap+recompress (Phase 3, CPU-parallel).
// Phased mode is required whenever a GPU backend is active for the
// scanline stage; the CPU-only path supports it too (router just never
// picks a GPU backend).
func RunPhased(ctx context.Context, src Source, cfg Config, router *gpu.Router, batchSize int) ([]LayerResult, error) {
	total := src.LayerCount()
	if batchSize <= 0 {
		batchSize = total
	}
	if batchSize == 0 {
		return nil, nil
	}

	results := make([]LayerResult, total)

	for start := 0; start < total; start += batchSize {
		end := start + batchSize
		if end > total {
			end = total
		}
		if err := ctx.Err(); err != nil {
			return nil, errkind.Cancelled
		}

		t1 := time.Now()
		layers, err := phase1Decode(ctx, src, cfg, start, end)
		if err != nil {
			return nil, err
		}
		logPhaseTiming(cfg, "phase1_decode", start, end, time.Since(t1))

		areaStats := make([]area.Stats, len(layers))
		zMMs := make([]float64, len(layers))
		exposures := make([]float64, len(layers))
		for i, d := range layers {
			areaStats[i] = d.area
			zMMs[i] = d.zMM
			exposures[i] = d.exposureS
		}

		t2 := time.Now()
		scanlines, err := phase2Scanlines(router, layers, cfg)
		releaseLayers(layers)
		if err != nil {
			return nil, err
		}
		logPhaseTiming(cfg, "phase2_scanlines", start, end, time.Since(t2))

		t3 := time.Now()
		batchResults, err := phase3Compress(ctx, scanlines, areaStats, zMMs, exposures, cfg, start)
		releaseScanlines(scanlines)
		if err != nil {
			return nil, err
		}
		logPhaseTiming(cfg, "phase3_compress", start, end, time.Since(t3))
		for i, r := range batchResults {
			results[start+i] = r
		}

		if cfg.Progress != nil {
			cfg.Progress.Publish(Update{Phase: "phase3_compress", Current: end, Total: total, Workers: cfg.Workers})
		}
	}

	return results, nil
}

// logPhaseTiming emits a Debug event naming the batch and elapsed time,
// gated on cfg.Analytics so the baseline per-layer logging both modes
// always emit isn't drowned out by default.
func logPhaseTiming(cfg Config, phase string, batchStart, batchEnd int, elapsed time.Duration) {
	if !cfg.Analytics {
		return
	}
	cfg.logDebug(fmt.Sprintf("%s batch [%d,%d) took %s", phase, batchStart, batchEnd, elapsed), -1)
}

type decodedLayer struct {
	layer     *codec.GreyLayer
	area      area.Stats
	zMM       float64
	exposureS float64
}

func phase1Decode(ctx context.Context, src Source, cfg Config, start, end int) ([]*decodedLayer, error) {
	n := end - start
	out := make([]*decodedLayer, n)
	g, gctx := errgroup.WithContext(ctx)
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	sem := make(chan struct{}, workers)

	for idx := 0; idx < n; idx++ {
		idx := idx
		layerIndex := start + idx
		sem <- struct{}{}
		g.Go(func() error {
			defer func() { <-sem }()
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			el, err := src.Layer(layerIndex)
			if err != nil {
				return fmt.Errorf("reading layer %d: %w", layerIndex, err)
			}
			gl, err := codec.Decode(el, cfg.SrcWidth, cfg.SrcHeight)
			if err != nil {
				return fmt.Errorf("decoding layer %d: %w", layerIndex, err)
			}
			stats := area.Analyze(gl, cfg.XPitchMM, cfg.YPitchMM)
			out[idx] = &decodedLayer{layer: gl, area: stats, zMM: el.ZMM, exposureS: el.ExposureS}
			cfg.logDebug("layer decoded", layerIndex)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		for _, d := range out {
			if d != nil {
				d.layer.Release()
			}
		}
		if errors.Is(err, context.Canceled) {
			return nil, errkind.Cancelled
		}
		return nil, err
	}
	return out, nil
}

func phase2Scanlines(router *gpu.Router, decoded []*decodedLayer, cfg Config) ([]*scanline.Scanlines, error) {
	layers := make([]*codec.GreyLayer, len(decoded))
	for i, d := range decoded {
		layers[i] = d.layer
	}

	active := router.Active()
	if active == nil {
		var err error
		active, err = router.Select(gpu.PreferAuto)
		if err != nil {
			return nil, err
		}
	}

	out, err := active.BatchBuildScanlines(layers, cfg.Board, cfg.OutWidth)
	if err != nil {
		router.RecordFailure(err)
		cpuFallback := &gpu.CPUBackend{}
		out, err = cpuFallback.BatchBuildScanlines(layers, cfg.Board, cfg.OutWidth)
		if err != nil {
			return nil, fmt.Errorf("phase2 scanline build (cpu fallback): %w", err)
		}
		return out, nil
	}
	router.RecordSuccess()
	return out, nil
}

func phase3Compress(ctx context.Context, scanlines []*scanline.Scanlines, areaStats []area.Stats, zMMs, exposures []float64, cfg Config, batchStart int) ([]LayerResult, error) {
	n := len(scanlines)
	out := make([]LayerResult, n)

	g, gctx := errgroup.WithContext(ctx)
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	sem := make(chan struct{}, workers)

	for idx := 0; idx < n; idx++ {
		idx := idx
		layerIndex := batchStart + idx
		sem <- struct{}{}
		g.Go(func() error {
			defer func() { <-sem }()
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			blob, err := pngenc.Encode(scanlines[idx], cfg.Board, layerIndex, cfg.PNGLevel)
			if err != nil {
				return fmt.Errorf("encoding PNG for layer %d: %w", layerIndex, err)
			}
			finalBytes, err := pngenc.ApplyPolicy(cfg.Recompress, blob.Bytes, cfg.PNGLevel)
			if err != nil {
				return fmt.Errorf("recompressing PNG for layer %d: %w", layerIndex, err)
			}
			blob.Bytes = finalBytes
			blob.CompressedSize = len(finalBytes)
			out[idx] = LayerResult{
				LayerIndex: layerIndex,
				PNG:        blob,
				Area:       areaStats[idx],
				ZMM:        zMMs[idx],
				ExposureS:  exposures[idx],
			}
			cfg.logDebug("layer compressed", layerIndex)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, errkind.Cancelled
		}
		return nil, err
	}
	return out, nil
}

func releaseLayers(decoded []*decodedLayer) {
	for _, d := range decoded {
		d.layer.Release()
	}
}

func releaseScanlines(sls []*scanline.Scanlines) {
	for _, s := range sls {
		s.Release()
	}
}
