// Package pipeline implements the Scheduler: fanning layer work out
// across bounded CPU (and, in phased mode, GPU-host) worker pools,
// reassembling finished PngBlobs into strict layer-index order, and
// publishing coalesced progress updates.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/Open-Resin-Alliance/VoxelShift-sub000/internal/area"
	"github.com/Open-Resin-Alliance/VoxelShift-sub000/internal/codec"
	"github.com/Open-Resin-Alliance/VoxelShift-sub000/internal/errkind"
	"github.com/Open-Resin-Alliance/VoxelShift-sub000/internal/pngenc"
	"github.com/Open-Resin-Alliance/VoxelShift-sub000/internal/scanline"
	"github.com/Open-Resin-Alliance/VoxelShift-sub000/internal/sliceio"
)

// Source is the subset of *sliceio.SliceFile the Scheduler needs; reading
// a layer must be safe to call concurrently and in any order.
type Source interface {
	LayerCount() int
	Layer(i int) (sliceio.EncodedLayer, error)
}

// LayerResult is one fully-processed layer: its encoded PNG, solid-area
// statistics, and the z-height/exposure it was sliced at.
type LayerResult struct {
	LayerIndex int
	PNG        *pngenc.Blob
	Area       area.Stats
	ZMM        float64
	ExposureS  float64
}

// Config parameterizes a per-layer run. It carries only primitives and
// stage types so this package never depends on the root configuration
// type (which in turn depends on this package).
type Config struct {
	SrcWidth, SrcHeight int
	Board               scanline.Board
	OutWidth            int
	PNGLevel            int
	Recompress          pngenc.Mode
	XPitchMM, YPitchMM  float64
	Workers             int
	Progress            *Coalescer
	Logger              LogFunc

	// Analytics enables extra per-phase timing Debug events in RunPhased,
	// beyond the baseline per-layer logging both modes always emit.
	Analytics bool
}

// logDebug emits a per-layer Debug event if cfg.Logger is set.
func (cfg Config) logDebug(msg string, layerIndex int) {
	if cfg.Logger != nil {
		cfg.Logger(LogEvent{Level: LogDebug, Msg: msg, LayerIndex: layerIndex})
	}
}

// logWarn emits a Warn event if cfg.Logger is set. GPU fallback and
// backend disablement are reported by gpu.Router's own logger, not here.
func (cfg Config) logWarn(msg string, layerIndex int) {
	if cfg.Logger != nil {
		cfg.Logger(LogEvent{Level: LogWarn, Msg: msg, LayerIndex: layerIndex})
	}
}

// RunPerLayer executes the default scheduling mode: N workers each run
// the full decode->area->scanline->encode pipeline for one layer at a
// time, bounded to Workers concurrent layers in flight. Results are
// returned in ascending layer_index order regardless of completion
// order. Cancelling ctx stops dispatch of new layers; layers already
// in flight run to completion, then RunPerLayer returns ErrCancelled.
func RunPerLayer(ctx context.Context, src Source, cfg Config) ([]LayerResult, error) {
	total := src.LayerCount()
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}

	// Workers complete layers out of order; buf reassembles them into
	// strict ascending layer_index order, matching the Packager's
	// single-writer, ascending-index contract.
	buf := NewOrderedBuffer[LayerResult](0)
	g, gctx := errgroup.WithContext(ctx)
	sem := make(chan struct{}, workers)
	var completed int32
	cancelled := false

	for i := 0; i < total; i++ {
		select {
		case <-gctx.Done():
			cancelled = true
		default:
		}
		if cancelled {
			break
		}

		i := i
		sem <- struct{}{}
		g.Go(func() error {
			defer func() { <-sem }()

			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			res, err := processLayer(src, i, cfg)
			if err != nil {
				return err
			}
			buf.Deposit(i, res)

			n := atomic.AddInt32(&completed, 1)
			if cfg.Progress != nil {
				cfg.Progress.Publish(Update{Phase: "layer", Current: int(n), Total: total, Workers: workers})
			}
			cfg.logDebug("layer complete", i)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, errkind.Cancelled
		}
		return nil, err
	}
	if cancelled {
		return nil, errkind.Cancelled
	}

	results := make([]LayerResult, total)
	for i := range results {
		v, ok := buf.Next(total)
		if !ok {
			break
		}
		results[i] = v
	}
	return results, nil
}

func processLayer(src Source, i int, cfg Config) (LayerResult, error) {
	el, err := src.Layer(i)
	if err != nil {
		return LayerResult{}, fmt.Errorf("reading layer %d: %w", i, err)
	}

	layer, err := codec.Decode(el, cfg.SrcWidth, cfg.SrcHeight)
	if err != nil {
		return LayerResult{}, fmt.Errorf("decoding layer %d: %w", i, err)
	}
	defer layer.Release()

	stats := area.Analyze(layer, cfg.XPitchMM, cfg.YPitchMM)

	sl, err := scanline.Build(layer, cfg.Board, cfg.OutWidth)
	if err != nil {
		return LayerResult{}, fmt.Errorf("building scanlines for layer %d: %w", i, err)
	}
	defer sl.Release()

	blob, err := pngenc.Encode(sl, cfg.Board, i, cfg.PNGLevel)
	if err != nil {
		return LayerResult{}, fmt.Errorf("encoding PNG for layer %d: %w", i, err)
	}

	finalBytes, err := pngenc.ApplyPolicy(cfg.Recompress, blob.Bytes, cfg.PNGLevel)
	if err != nil {
		return LayerResult{}, fmt.Errorf("recompressing PNG for layer %d: %w", i, err)
	}
	blob.Bytes = finalBytes
	blob.CompressedSize = len(finalBytes)

	return LayerResult{LayerIndex: i, PNG: blob, Area: stats, ZMM: el.ZMM, ExposureS: el.ExposureS}, nil
}
