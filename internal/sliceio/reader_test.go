package sliceio

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"
)

// buildCTB assembles a minimal synthetic CTB v4 file for tests: a fixed
// header, a layer-def table, and raw layer payloads laid out back to back.
func buildCTB(t *testing.T, resX, resY uint32, encryptionKey uint32, layers [][]byte) []byte {
	t.Helper()

	tableOff := uint64(headerSize)
	dataOff := tableOff + uint64(len(layers))*layerDefSize

	buf := make([]byte, dataOff)
	putU32 := func(off int, v uint32) { binary.LittleEndian.PutUint32(buf[off:], v) }
	putU64 := func(off int, v uint64) { binary.LittleEndian.PutUint64(buf[off:], v) }
	putF32 := func(off int, v float32) { binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(v)) }

	putU32(offMagic, Magic)
	putU32(offVersion, SupportedVersion)
	putU32(offResolutionX, resX)
	putU32(offResolutionY, resY)
	putF32(offLayerHeightMM, 0.05)
	putF32(offNormalExposureS, 8)
	putF32(offBottomExposureS, 60)
	putU32(offBottomLayerCount, 2)
	putF32(offLiftHeightMM, 5)
	putU32(offEncryptionKey, encryptionKey)
	putU32(offLayerCount, uint32(len(layers)))
	putU64(offLayerTableOffset, tableOff)
	putF32(offPrintHeightMM, float32(len(layers))*0.05)
	putU64(offPreviewLargeOffset, 0)
	putU64(offPreviewSmallOffset, 0)

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

func TestOpenBytes_Roundtrip(t *testing.T) {
	data := buildCTB(t, 3840, 2160, 0, [][]byte{{1, 2, 3}, {4, 5}, {6}})
	sf, err := OpenBytes(data)
	if err != nil {
		t.Fatalf("OpenBytes: %v", err)
	}
	if sf.LayerCount() != 3 {
		t.Fatalf("LayerCount = %d, want 3", sf.LayerCount())
	}
	if sf.ResolutionX() != 3840 || sf.ResolutionY() != 2160 {
		t.Fatalf("resolution = %dx%d, want 3840x2160", sf.ResolutionX(), sf.ResolutionY())
	}

	l1, err := sf.Layer(1)
	if err != nil {
		t.Fatalf("Layer(1): %v", err)
	}
	if !bytes.Equal(l1.Data, []byte{4, 5}) {
		t.Fatalf("Layer(1).Data = %v, want [4 5]", l1.Data)
	}
	if l1.DecodeKeySeed != 0 {
		t.Fatalf("unencrypted source should have zero seed, got %d", l1.DecodeKeySeed)
	}
}

func TestOpenBytes_BadMagic(t *testing.T) {
	data := buildCTB(t, 100, 100, 0, nil)
	data[0] ^= 0xFF
	if _, err := OpenBytes(data); err == nil {
		t.Fatal("expected error for corrupt magic")
	}
}

func TestOpenBytes_TruncatedLayerTable(t *testing.T) {
	data := buildCTB(t, 100, 100, 0, [][]byte{{1}, {2}})
	truncated := data[:headerSize+layerDefSize] // table says 2 entries, only 1 present
	if _, err := OpenBytes(truncated); err == nil {
		t.Fatal("expected error for truncated layer table")
	}
}

func TestLayer_OutOfRangeOffset(t *testing.T) {
	data := buildCTB(t, 100, 100, 0, [][]byte{{1, 2, 3}})
	// Corrupt the single layer's declared length to exceed the file.
	binary.LittleEndian.PutUint32(data[headerSize+16:], 0xFFFFFF)
	sf, err := OpenBytes(data)
	if err != nil {
		t.Fatalf("OpenBytes: %v", err)
	}
	if _, err := sf.Layer(0); err == nil {
		t.Fatal("expected error for out-of-range layer payload")
	}
}

func TestLayer_IndexOutOfRange(t *testing.T) {
	data := buildCTB(t, 100, 100, 0, [][]byte{{1}})
	sf, err := OpenBytes(data)
	if err != nil {
		t.Fatalf("OpenBytes: %v", err)
	}
	if _, err := sf.Layer(5); err == nil {
		t.Fatal("expected error for out-of-range layer index")
	}
	if _, err := sf.Layer(-1); err == nil {
		t.Fatal("expected error for negative layer index")
	}
}

func TestInitialCipherKey_ZeroWhenUnencrypted(t *testing.T) {
	if k := initialCipherKey(0, 7); k != 0 {
		t.Fatalf("initialCipherKey(0, 7) = %d, want 0", k)
	}
}

func TestInitialCipherKey_Deterministic(t *testing.T) {
	a := initialCipherKey(0x12345678, 3)
	b := initialCipherKey(0x12345678, 3)
	if a != b {
		t.Fatalf("initialCipherKey not deterministic: %d != %d", a, b)
	}
	c := initialCipherKey(0x12345678, 4)
	if a == c {
		t.Fatalf("initialCipherKey should vary with layer index")
	}
}

func TestThumbnails_EmptyWhenAbsent(t *testing.T) {
	data := buildCTB(t, 100, 100, 0, [][]byte{{1}})
	sf, err := OpenBytes(data)
	if err != nil {
		t.Fatalf("OpenBytes: %v", err)
	}
	if got := sf.Thumbnails(); len(got) != 0 {
		t.Fatalf("Thumbnails() = %v, want empty", got)
	}
}
