package codec

import "github.com/Open-Resin-Alliance/VoxelShift-sub000/internal/pool"

// GreyLayer is a decoded 8-bit greyscale bitmap: Width*Height pixels, one
// byte each. Pixels is pool-backed; the owner must call Release when both
// the Area Analyzer and Scanline Builder have finished with it.
type GreyLayer struct {
	LayerIndex int
	Width      int
	Height     int
	Pixels     []byte
}

// Release returns the layer's pixel buffer to the shared pool. The
// GreyLayer must not be used again afterward.
func (g *GreyLayer) Release() {
	if g.Pixels != nil {
		pool.Put(g.Pixels)
		g.Pixels = nil
	}
}
