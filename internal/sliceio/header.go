package sliceio

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/Open-Resin-Alliance/VoxelShift-sub000/internal/errkind"
)

// Header holds the parsed fixed-offset CTB v4 file header.
type Header struct {
	Version            uint32
	ResolutionX        uint32
	ResolutionY        uint32
	LayerHeightMM      float32
	NormalExposureS    float32
	BottomExposureS    float32
	BottomLayerCount   uint32
	LiftHeightMM       float32
	EncryptionKey      uint32 // 0 = plain
	LayerCount         uint32
	LayerTableOffset   uint64
	PrintHeightMM      float32
	PreviewLargeOffset uint64
	PreviewSmallOffset uint64
}

func le32(b []byte) uint32 { return binary.LittleEndian.Uint32(b) }
func le64(b []byte) uint64 { return binary.LittleEndian.Uint64(b) }

func leFloat32(b []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b))
}

// parseHeader reads and validates the fixed-offset header at the start of
// data. A corrupt magic/version aborts with errkind.InvalidFormat.
func parseHeader(data []byte) (Header, error) {
	if len(data) < headerSize {
		return Header{}, fmt.Errorf("%w: header truncated (%d bytes, need %d)", errkind.InvalidFormat, len(data), headerSize)
	}
	if magic := le32(data[offMagic:]); magic != Magic {
		return Header{}, fmt.Errorf("%w: bad magic 0x%08x", errkind.InvalidFormat, magic)
	}
	version := le32(data[offVersion:])
	if version != SupportedVersion {
		return Header{}, fmt.Errorf("%w: unsupported version %d", errkind.InvalidFormat, version)
	}

	h := Header{
		Version:            version,
		ResolutionX:        le32(data[offResolutionX:]),
		ResolutionY:        le32(data[offResolutionY:]),
		LayerHeightMM:      leFloat32(data[offLayerHeightMM:]),
		NormalExposureS:    leFloat32(data[offNormalExposureS:]),
		BottomExposureS:    leFloat32(data[offBottomExposureS:]),
		BottomLayerCount:   le32(data[offBottomLayerCount:]),
		LiftHeightMM:       leFloat32(data[offLiftHeightMM:]),
		EncryptionKey:      le32(data[offEncryptionKey:]),
		LayerCount:         le32(data[offLayerCount:]),
		LayerTableOffset:   le64(data[offLayerTableOffset:]),
		PrintHeightMM:      leFloat32(data[offPrintHeightMM:]),
		PreviewLargeOffset: le64(data[offPreviewLargeOffset:]),
		PreviewSmallOffset: le64(data[offPreviewSmallOffset:]),
	}

	if h.ResolutionX == 0 || h.ResolutionY == 0 {
		return Header{}, fmt.Errorf("%w: zero resolution", errkind.InvalidFormat)
	}

	tableBytes := uint64(h.LayerCount) * uint64(layerDefSize)
	if tableBytes > 0 && (h.LayerTableOffset == 0 || h.LayerTableOffset+tableBytes > uint64(len(data))) {
		return Header{}, fmt.Errorf("%w: layer table (offset %d, %d entries) exceeds file length %d",
			errkind.InvalidFormat, h.LayerTableOffset, h.LayerCount, len(data))
	}

	return h, nil
}
