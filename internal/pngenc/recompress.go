package pngenc

import (
	"fmt"

	"github.com/Open-Resin-Alliance/VoxelShift-sub000/internal/errkind"
)

// Mode selects when Recompress re-encodes a PNG's IDAT stream.
type Mode int

const (
	RecompressOff Mode = iota
	RecompressOn
	RecompressForce
	RecompressAdaptive
)

// Recompress parses png, concatenates and inflates its IDAT payloads,
// re-deflates at targetLevel, and rebuilds a single-IDAT PNG that
// preserves the original IHDR exactly. The result is returned regardless
// of size; mode-driven "keep the smaller one" logic lives in ApplyPolicy.
func Recompress(png []byte, targetLevel int) ([]byte, error) {
	ihdr, raw, err := decodeForRecompress(png)
	if err != nil {
		return nil, err
	}

	idatPayload, err := deflateZlib(raw, targetLevel)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(pngSignature)+64+len(idatPayload))
	out = append(out, pngSignature[:]...)
	out = appendChunk(out, "IHDR", ihdr)
	out = appendChunk(out, "IDAT", idatPayload)
	out = appendChunk(out, "IEND", nil)
	return out, nil
}

// decodeForRecompress validates and extracts the IHDR body and the
// inflated, concatenated IDAT payload of png.
func decodeForRecompress(png []byte) (ihdr, raw []byte, err error) {
	if len(png) < len(pngSignature) {
		return nil, nil, errTruncated
	}
	chunks, err := parseChunks(png[len(pngSignature):])
	if err != nil {
		return nil, nil, err
	}

	var idat []byte
	sawIHDR := false
	for _, c := range chunks {
		switch c.typ {
		case "IHDR":
			if sawIHDR {
				return nil, nil, errNotSingleImage
			}
			sawIHDR = true
			ihdr = c.data
		case "IDAT":
			idat = append(idat, c.data...)
		}
	}
	if !sawIHDR {
		return nil, nil, errMissingIHDR
	}
	if idat == nil {
		return nil, nil, errMissingIDAT
	}
	if len(ihdr) < 13 {
		return nil, nil, fmt.Errorf("%w: truncated IHDR", errkind.InvalidFormat)
	}
	if ihdr[8] != 8 {
		return nil, nil, errUnsupportedBPC
	}
	switch ihdr[9] {
	case 0, 2, 4, 6:
	default:
		return nil, nil, errUnsupportedType
	}

	raw, err = inflateZlib(idat)
	if err != nil {
		return nil, nil, err
	}
	return ihdr, raw, nil
}

// ApplyPolicy implements the recompress_mode contract: off never
// recompresses; on always recompresses at level 9; force recompresses
// even when the result is larger; adaptive recompresses only when
// encodedAtLevel is low (<=3) and keeps whichever of original/recompressed
// is smaller.
func ApplyPolicy(mode Mode, original []byte, encodedAtLevel int) ([]byte, error) {
	switch mode {
	case RecompressOff:
		return original, nil

	case RecompressOn:
		return Recompress(original, 9)

	case RecompressForce:
		return Recompress(original, 9)

	case RecompressAdaptive:
		if encodedAtLevel > 3 {
			return original, nil
		}
		recompressed, err := Recompress(original, 9)
		if err != nil {
			return nil, err
		}
		if len(recompressed) < len(original) {
			return recompressed, nil
		}
		return original, nil

	default:
		return original, nil
	}
}
