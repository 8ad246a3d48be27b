package settings

import (
	"encoding/json"
	"fmt"
)

// BenchmarkEntry is one cached GPU-backend benchmarking result: how many
// layers of a given shape fit concurrently under that backend's budget.
type BenchmarkEntry struct {
	Backend              string
	SrcWidth, SrcHeight  int
	OutWidth, Channels   int
	MaxConcurrentLayers  int
}

// BenchmarkCache avoids re-probing a GPU backend's concurrency limit for
// dimensions already measured in a prior run, backed by an arbitrary
// Store.
type BenchmarkCache struct {
	store Store
}

// NewBenchmarkCache wraps store for benchmark-result caching.
func NewBenchmarkCache(store Store) *BenchmarkCache {
	return &BenchmarkCache{store: store}
}

func benchmarkKey(backend string, srcWidth, srcHeight, outWidth, channels int) string {
	return fmt.Sprintf("gpu_benchmark/%s/%d/%d/%d/%d", backend, srcWidth, srcHeight, outWidth, channels)
}

// Lookup returns a previously stored MaxConcurrentLayers value for the
// given backend and dimensions, if one was recorded.
func (c *BenchmarkCache) Lookup(backend string, srcWidth, srcHeight, outWidth, channels int) (int, bool) {
	raw, ok := c.store.Get(benchmarkKey(backend, srcWidth, srcHeight, outWidth, channels))
	if !ok {
		return 0, false
	}
	var entry BenchmarkEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return 0, false
	}
	return entry.MaxConcurrentLayers, true
}

// Record stores a freshly measured MaxConcurrentLayers value.
func (c *BenchmarkCache) Record(backend string, srcWidth, srcHeight, outWidth, channels, maxConcurrentLayers int) {
	entry := BenchmarkEntry{
		Backend:             backend,
		SrcWidth:            srcWidth,
		SrcHeight:           srcHeight,
		OutWidth:            outWidth,
		Channels:            channels,
		MaxConcurrentLayers: maxConcurrentLayers,
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		return
	}
	c.store.Set(benchmarkKey(backend, srcWidth, srcHeight, outWidth, channels), raw)
}
