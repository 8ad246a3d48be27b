package sliceio

// Magic is the CTB v4 container's file-level magic number, read as a
// little-endian uint32 at offset 0.
const Magic uint32 = 0x12FD0019

// SupportedVersion is the only CTB layout version this reader parses.
const SupportedVersion uint32 = 4

// headerSize is the size in bytes of the fixed-offset file header.
const headerSize = 72

// layerDefSize is the size in bytes of one entry in the layer-def table.
const layerDefSize = 24

// previewHeaderSize is the size in bytes of a thumbnail's own small header
// (width, height, data length) preceding its raw PNG bytes.
const previewHeaderSize = 12

// Field byte offsets within the fixed header. Kept as named constants
// (rather than a binary.Read over a tagged struct) so each field's width
// and endianness stays explicit at the read site, matching the teacher's
// container.ReadChunkHeader/ParseRIFFHeader idiom of small, bounds-checked
// read helpers over a byte slice.
const (
	offMagic              = 0
	offVersion            = 4
	offResolutionX        = 8
	offResolutionY        = 12
	offLayerHeightMM      = 16
	offNormalExposureS    = 20
	offBottomExposureS    = 24
	offBottomLayerCount   = 28
	offLiftHeightMM       = 32
	offEncryptionKey      = 36
	offLayerCount         = 40
	offLayerTableOffset   = 44 // uint64
	offPrintHeightMM      = 52
	offPreviewLargeOffset = 56 // uint64
	offPreviewSmallOffset = 64 // uint64
)
