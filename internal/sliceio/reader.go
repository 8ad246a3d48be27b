package sliceio

import (
	"fmt"
	"io"

	"github.com/Open-Resin-Alliance/VoxelShift-sub000/internal/errkind"
)

// layerDef is one entry of the on-disk layer-def table.
type layerDef struct {
	zMM        float32
	exposureS  float32
	dataOffset uint64
	dataLength uint32
}

// Thumbnail is a pass-through raw PNG preview image embedded in the
// source container.
type Thumbnail struct {
	Width  int
	Height int
	PNG    []byte
}

// EncodedLayer is a single layer's raw RLE payload, borrowed from the
// SliceFile's underlying buffer. Its lifetime is bounded by the SliceFile
// that produced it.
type EncodedLayer struct {
	LayerIndex    int
	Data          []byte
	ZMM           float64
	ExposureS     float64
	EncryptionKey uint32 // global key from the header, 0 = plain
	DecodeKeySeed uint32 // this layer's initial cipher-register value, 0 when unencrypted
}

// SliceFile is a parsed, immutable view over a CTB v4 source container.
// All reads are against the shared underlying buffer; SliceFile performs
// no mutation after Open, so Layer may be called concurrently from
// multiple goroutines.
type SliceFile struct {
	data   []byte
	header Header
	layers []layerDef
}

// Open parses the fixed-offset header and layer-def table from src,
// reading it fully into memory. A corrupt header or truncated layer table
// aborts with errkind.InvalidFormat.
func Open(src io.ReaderAt, size int64) (*SliceFile, error) {
	data := make([]byte, size)
	if _, err := io.ReadFull(io.NewSectionReader(src, 0, size), data); err != nil {
		return nil, fmt.Errorf("%w: reading source: %w", errkind.IoError, err)
	}
	return OpenBytes(data)
}

// OpenBytes parses a CTB v4 container already resident in memory. The
// SliceFile retains data; the caller must not mutate it afterward.
func OpenBytes(data []byte) (*SliceFile, error) {
	hdr, err := parseHeader(data)
	if err != nil {
		return nil, err
	}

	layers := make([]layerDef, hdr.LayerCount)
	base := hdr.LayerTableOffset
	for i := range layers {
		off := base + uint64(i)*layerDefSize
		if off+layerDefSize > uint64(len(data)) {
			return nil, fmt.Errorf("%w: layer table entry %d truncated", errkind.InvalidFormat, i)
		}
		entry := data[off : off+layerDefSize]
		layers[i] = layerDef{
			zMM:        leFloat32(entry[0:4]),
			exposureS:  leFloat32(entry[4:8]),
			dataOffset: le64(entry[8:16]),
			dataLength: le32(entry[16:20]),
		}
	}

	return &SliceFile{data: data, header: hdr, layers: layers}, nil
}

// LayerCount returns the number of layers in the source container.
func (sf *SliceFile) LayerCount() int { return int(sf.header.LayerCount) }

// ResolutionX returns the source's subpixel width.
func (sf *SliceFile) ResolutionX() int { return int(sf.header.ResolutionX) }

// ResolutionY returns the source's layer height in pixels.
func (sf *SliceFile) ResolutionY() int { return int(sf.header.ResolutionY) }

// LayerHeightMM returns the per-layer Z step in millimeters.
func (sf *SliceFile) LayerHeightMM() float64 { return float64(sf.header.LayerHeightMM) }

// NormalExposureS returns the default non-bottom-layer exposure time.
func (sf *SliceFile) NormalExposureS() float64 { return float64(sf.header.NormalExposureS) }

// BottomExposureS returns the bottom-layer exposure time.
func (sf *SliceFile) BottomExposureS() float64 { return float64(sf.header.BottomExposureS) }

// BottomLayerCount returns the number of bottom (extended-exposure) layers.
func (sf *SliceFile) BottomLayerCount() int { return int(sf.header.BottomLayerCount) }

// LiftHeightMM returns the per-layer lift height in millimeters.
func (sf *SliceFile) LiftHeightMM() float64 { return float64(sf.header.LiftHeightMM) }

// PrintHeightMM returns the total print height in millimeters.
func (sf *SliceFile) PrintHeightMM() float64 {
	if sf.header.PrintHeightMM > 0 {
		return float64(sf.header.PrintHeightMM)
	}
	return float64(sf.header.LayerCount) * float64(sf.header.LayerHeightMM)
}

// EncryptionKey returns the global encryption key (0 = plain).
func (sf *SliceFile) EncryptionKey() uint32 { return sf.header.EncryptionKey }

// initialCipherKey computes the per-layer evolving-cipher seed per spec
// §4.2: init = encryption_key*0x2d83cdac + 0xd8a83423; seed =
// (layer_index*0x1e1530cd + 0xec3d47cd) * init.
func initialCipherKey(encryptionKey uint32, layerIndex int) uint32 {
	if encryptionKey == 0 {
		return 0
	}
	init := encryptionKey*0x2d83cdac + 0xd8a83423
	return (uint32(layerIndex)*0x1e1530cd + 0xec3d47cd) * init
}

// Layer returns the encoded payload for layer i without decoding it. Safe
// to call concurrently from multiple goroutines and in any order.
func (sf *SliceFile) Layer(i int) (EncodedLayer, error) {
	if i < 0 || i >= len(sf.layers) {
		return EncodedLayer{}, fmt.Errorf("%w: layer %d out of range [0,%d)", errkind.InvalidFormat, i, len(sf.layers))
	}
	ld := sf.layers[i]
	end := ld.dataOffset + uint64(ld.dataLength)
	if end > uint64(len(sf.data)) {
		return EncodedLayer{}, fmt.Errorf("%w: layer %d payload (offset %d, len %d) exceeds file length %d",
			errkind.InvalidFormat, i, ld.dataOffset, ld.dataLength, len(sf.data))
	}

	seed := initialCipherKey(sf.header.EncryptionKey, i)
	return EncodedLayer{
		LayerIndex:    i,
		Data:          sf.data[ld.dataOffset:end],
		ZMM:           float64(ld.zMM),
		ExposureS:     float64(ld.exposureS),
		EncryptionKey: sf.header.EncryptionKey,
		DecodeKeySeed: seed,
	}, nil
}

// Thumbnails returns embedded preview images as raw, pass-through PNG
// bytes. Missing previews (offset 0) are omitted.
func (sf *SliceFile) Thumbnails() []Thumbnail {
	var out []Thumbnail
	for _, off := range []uint64{sf.header.PreviewLargeOffset, sf.header.PreviewSmallOffset} {
		if off == 0 || off+previewHeaderSize > uint64(len(sf.data)) {
			continue
		}
		hdr := sf.data[off : off+previewHeaderSize]
		w := int(le32(hdr[0:4]))
		h := int(le32(hdr[4:8]))
		n := le32(hdr[8:12])
		start := off + previewHeaderSize
		end := start + uint64(n)
		if end > uint64(len(sf.data)) {
			continue
		}
		out = append(out, Thumbnail{Width: w, Height: h, PNG: sf.data[start:end]})
	}
	return out
}
