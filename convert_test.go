package voxelshift

import (
	"archive/zip"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"
)

// buildCTB assembles a minimal, valid CTB v4 file matching the wire
// layout internal/sliceio parses: a 72-byte fixed header followed
// by a 24-byte-per-entry layer-def table and raw RLE payloads. Offsets
// here mirror the container format itself, not any package-private
// detail, so this black-box test can build fixtures without importing
// internal/sliceio.
func buildCTB(t *testing.T, resX, resY uint32, layers [][]byte) []byte {
	t.Helper()
	const headerSize = 72
	const layerDefSize = 24

	tableOff := uint64(headerSize)
	dataOff := tableOff + uint64(len(layers))*layerDefSize
	buf := make([]byte, dataOff)

	putU32 := func(off int, v uint32) { binary.LittleEndian.PutUint32(buf[off:], v) }
	putU64 := func(off int, v uint64) { binary.LittleEndian.PutUint64(buf[off:], v) }
	putF32 := func(off int, v float32) { binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(v)) }

	putU32(0, 0x12FD0019)  // magic
	putU32(4, 4)           // version
	putU32(8, resX)        // resolution_x
	putU32(12, resY)       // resolution_y
	putF32(16, 0.05)       // layer_height_mm
	putF32(20, 8)          // normal_exposure_s
	putF32(24, 60)         // bottom_exposure_s
	putU32(28, 1)          // bottom_layer_count
	putF32(32, 5)          // lift_height_mm
	putU32(36, 0)          // encryption_key (plain)
	putU32(40, uint32(len(layers)))
	putU64(44, tableOff)
	putF32(52, float32(len(layers))*0.05)
	putU64(56, 0) // preview_large_offset
	putU64(64, 0) // preview_small_offset

	cur := dataOff
	var payload []byte
	for i, l := range layers {
		entryOff := int(tableOff) + i*layerDefSize
		putF32(entryOff+0, float32(i+1)*0.05)
		putF32(entryOff+4, 8)
		putU64(entryOff+8, cur)
		putU32(entryOff+16, uint32(len(l)))
		payload = append(payload, l...)
		cur += uint64(len(l))
	}
	return append(buf, payload...)
}

// rleEncodeFlat encodes each pixel as its own single-pixel-run opcode.
func rleEncodeFlat(pixels []byte) []byte {
	out := make([]byte, len(pixels))
	for i, v := range pixels {
		var code byte
		if v != 0 {
			code = v >> 1
		}
		out[i] = code & 0x7F
	}
	return out
}

func TestConvert_ProducesArchiveWithManifestAndLayers(t *testing.T) {
	const srcW, srcH = 16, 4
	layers := make([][]byte, 3)
	for i := range layers {
		px := make([]byte, srcW*srcH)
		for j := range px {
			px[j] = byte((j + i*11) % 200)
		}
		layers[i] = rleEncodeFlat(px)
	}

	dir := t.TempDir()
	srcPath := filepath.Join(dir, "model.ctb")
	if err := os.WriteFile(srcPath, buildCTB(t, srcW, srcH, layers), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	profile := TargetProfile{Label: "test-panel", OutWidth: 8, Board: GREY3BIT, PixelPitchUM: 50}
	opts := DefaultOptions()
	opts.CPUWorkers = 2

	report, err := Convert(srcPath, profile, opts, nil, nil)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if report.LayerCount != 3 {
		t.Fatalf("LayerCount = %d, want 3", report.LayerCount)
	}

	zr, err := zip.OpenReader(report.OutputPath)
	if err != nil {
		t.Fatalf("opening output archive: %v", err)
	}
	defer zr.Close()

	if len(zr.File) != 4 { // slice.json + 3 layers
		t.Fatalf("archive entry count = %d, want 4", len(zr.File))
	}
	if zr.File[0].Name != "slice.json" {
		t.Fatalf("first entry = %q, want slice.json", zr.File[0].Name)
	}
	wantNames := []string{"slice.json", "00000.png", "00001.png", "00002.png"}
	for i, f := range zr.File {
		if f.Name != wantNames[i] {
			t.Fatalf("entry %d = %q, want %q", i, f.Name, wantNames[i])
		}
		if f.Method != 0 {
			t.Fatalf("entry %q uses compression method %d, want 0 (store)", f.Name, f.Method)
		}
	}
}

func TestConvert_RejectsTooNarrowProfile(t *testing.T) {
	layers := [][]byte{rleEncodeFlat(make([]byte, 16*4))}
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "model.ctb")
	if err := os.WriteFile(srcPath, buildCTB(t, 16, 4, layers), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	profile := TargetProfile{Label: "too-narrow", OutWidth: 1, Board: GREY3BIT, PixelPitchUM: 50}
	if _, err := Convert(srcPath, profile, DefaultOptions(), nil, nil); err == nil {
		t.Fatal("expected rejection of a profile narrower than the source")
	}
}
