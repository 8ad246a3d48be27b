package pngenc

import (
	"fmt"

	"github.com/Open-Resin-Alliance/VoxelShift-sub000/internal/errkind"
)

var (
	errTruncated       = fmt.Errorf("%w: truncated PNG chunk stream", errkind.InvalidFormat)
	errBadCRC          = fmt.Errorf("%w: chunk CRC mismatch", errkind.InvalidFormat)
	errNotSingleImage  = fmt.Errorf("%w: multiple IHDR chunks", errkind.InvalidFormat)
	errUnsupportedBPC  = fmt.Errorf("%w: unsupported bit depth (only 8 is accepted)", errkind.InvalidFormat)
	errUnsupportedType = fmt.Errorf("%w: unsupported color type", errkind.InvalidFormat)
	errMissingIHDR     = fmt.Errorf("%w: missing IHDR chunk", errkind.InvalidFormat)
	errMissingIDAT     = fmt.Errorf("%w: missing IDAT chunk", errkind.InvalidFormat)
)
