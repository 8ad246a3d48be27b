// Package area computes per-layer solid-geometry statistics over a decoded
// greyscale bitmap using 8-connected flood fill.
package area

// Stats summarizes the solid regions ("islands") of a single layer.
type Stats struct {
	TotalAreaMM2   float64
	LargestAreaMM2 float64
	SmallestAreaMM2 float64
	IslandCount    int
	// BBox is [minX, minY, maxX, maxY], inclusive, over all solid pixels
	// combined. Zero value when IslandCount == 0.
	BBox [4]int
}
