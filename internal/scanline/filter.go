package scanline

// applyUpFilter applies the PNG "Up" filter (type 2) to buf in place,
// processing rows bottom-up so each row is filtered against its
// still-raw predecessor: row[y][i] -= row[y-1][i] (mod 256), for
// i in [1, stride). Row 0 is filtered against an implicit zero row
// (its pixel bytes are left unchanged). Every row's filter-type byte
// (index 0) is set to 2.
func applyUpFilter(buf []byte, height, stride int) {
	for y := height - 1; y >= 1; y-- {
		cur := buf[y*stride : y*stride+stride]
		prev := buf[(y-1)*stride : (y-1)*stride+stride]
		for i := 1; i < stride; i++ {
			cur[i] = cur[i] - prev[i]
		}
		cur[0] = 2
	}
	if height > 0 {
		buf[0] = 2
	}
}
