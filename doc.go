// Package voxelshift converts masked-stereolithography slice files (the
// CTB/CBDDLP/Photon family used by consumer resin slicers) into the
// ZIP-packaged PNG-per-layer archive consumed by the NanoDLP printer
// controller.
//
// The package exposes a single entry point, [Convert], which drives a
// staged pipeline: a slice-file reader, a per-layer RLE/cipher codec, a
// connected-component area analyzer, a scanline remapper, a PNG encoder,
// and a store-only ZIP packager, fanned out across a CPU worker pool (and,
// where available, a GPU backend) by the scheduler in internal/pipeline.
package voxelshift
