package area

import (
	"testing"

	"github.com/Open-Resin-Alliance/VoxelShift-sub000/internal/codec"
)

func layerFrom(w, h int, set func(x, y int) byte) *codec.GreyLayer {
	px := make([]byte, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			px[y*w+x] = set(x, y)
		}
	}
	return &codec.GreyLayer{Width: w, Height: h, Pixels: px}
}

func TestAnalyze_Empty(t *testing.T) {
	l := layerFrom(10, 10, func(x, y int) byte { return 0 })
	s := Analyze(l, 0.05, 0.05)
	if s.IslandCount != 0 {
		t.Fatalf("IslandCount = %d, want 0", s.IslandCount)
	}
	if s.TotalAreaMM2 != 0 || s.LargestAreaMM2 != 0 || s.SmallestAreaMM2 != 0 {
		t.Fatalf("expected all-zero stats for empty layer, got %+v", s)
	}
	if s.BBox != [4]int{} {
		t.Fatalf("expected zero BBox, got %v", s.BBox)
	}
}

func TestAnalyze_SingleSquareIsland(t *testing.T) {
	// A solid 4x4 block at (2,2)-(5,5) within a 10x10 layer.
	l := layerFrom(10, 10, func(x, y int) byte {
		if x >= 2 && x <= 5 && y >= 2 && y <= 5 {
			return 255
		}
		return 0
	})
	s := Analyze(l, 1.0, 1.0)
	if s.IslandCount != 1 {
		t.Fatalf("IslandCount = %d, want 1", s.IslandCount)
	}
	wantArea := 16.0
	if s.TotalAreaMM2 != wantArea {
		t.Fatalf("TotalAreaMM2 = %v, want %v", s.TotalAreaMM2, wantArea)
	}
	if s.LargestAreaMM2 != wantArea || s.SmallestAreaMM2 != wantArea {
		t.Fatalf("largest/smallest = %v/%v, want %v", s.LargestAreaMM2, s.SmallestAreaMM2, wantArea)
	}
	wantBBox := [4]int{2, 2, 5, 5}
	if s.BBox != wantBBox {
		t.Fatalf("BBox = %v, want %v", s.BBox, wantBBox)
	}
}

func TestAnalyze_DiagonalTouchIsOneIsland(t *testing.T) {
	// Two single pixels touching only at a corner must merge under
	// 8-connectivity.
	l := layerFrom(4, 4, func(x, y int) byte {
		if (x == 1 && y == 1) || (x == 2 && y == 2) {
			return 200
		}
		return 0
	})
	s := Analyze(l, 1, 1)
	if s.IslandCount != 1 {
		t.Fatalf("IslandCount = %d, want 1 (diagonal pixels should merge)", s.IslandCount)
	}
}

func TestAnalyze_SeparateIslands(t *testing.T) {
	l := layerFrom(10, 1, func(x, y int) byte {
		if x == 0 || x == 9 {
			return 128
		}
		return 0
	})
	s := Analyze(l, 1, 1)
	if s.IslandCount != 2 {
		t.Fatalf("IslandCount = %d, want 2", s.IslandCount)
	}
	if s.LargestAreaMM2 != s.SmallestAreaMM2 {
		t.Fatalf("both islands are 1px, largest should equal smallest: %v vs %v", s.LargestAreaMM2, s.SmallestAreaMM2)
	}
	wantBBox := [4]int{0, 0, 9, 0}
	if s.BBox != wantBBox {
		t.Fatalf("BBox = %v, want %v", s.BBox, wantBBox)
	}
}

func TestAnalyze_InvariantOrdering(t *testing.T) {
	l := layerFrom(20, 20, func(x, y int) byte {
		switch {
		case x < 2 && y < 2:
			return 255 // 4px island
		case x > 15 && y > 15:
			if x == 16 && y == 16 {
				return 255 // 1px island
			}
		}
		return 0
	})
	s := Analyze(l, 1, 1)
	if !(s.TotalAreaMM2 >= s.LargestAreaMM2 && s.LargestAreaMM2 >= s.SmallestAreaMM2 && s.SmallestAreaMM2 >= 0) {
		t.Fatalf("ordering invariant violated: %+v", s)
	}
	if s.IslandCount == 0 && s.TotalAreaMM2 != 0 {
		t.Fatalf("island_count==0 must imply total==0")
	}
}
