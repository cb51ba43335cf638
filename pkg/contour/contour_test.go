package contour

import (
	"math"
	"testing"
)

func fillRect(grid []uint8, width, x0, y0, x1, y1 int) {
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			grid[y*width+x] = 255
		}
	}
}

func extent(poly []float64) (minX, minY, maxX, maxY float64) {
	minX, minY = math.Inf(1), math.Inf(1)
	maxX, maxY = math.Inf(-1), math.Inf(-1)
	for i := 0; i < len(poly); i += 2 {
		minX = math.Min(minX, poly[i])
		maxX = math.Max(maxX, poly[i])
		minY = math.Min(minY, poly[i+1])
		maxY = math.Max(maxY, poly[i+1])
	}
	return
}

func TestIsoLinesSquare(t *testing.T) {
	w, h := 20, 20
	grid := make([]uint8, w*h)
	fillRect(grid, w, 5, 6, 15, 12)

	polys := IsoLines(grid, w, h, 128)
	if len(polys) != 1 {
		t.Fatalf("Expected 1 polygon, got %d", len(polys))
	}
	if len(polys[0])%2 != 0 {
		t.Fatal("Polygon must hold x,y pairs")
	}

	minX, minY, maxX, maxY := extent(polys[0])
	if math.Round(minX) != 5 || math.Round(maxX) != 14 {
		t.Errorf("Unexpected x extent %.3f..%.3f", minX, maxX)
	}
	if math.Round(minY) != 6 || math.Round(maxY) != 11 {
		t.Errorf("Unexpected y extent %.3f..%.3f", minY, maxY)
	}
}

func TestIsoLinesClosesAtBorder(t *testing.T) {
	w, h := 6, 4
	grid := make([]uint8, w*h)
	fillRect(grid, w, 0, 0, w, h)

	polys := IsoLines(grid, w, h, 128)
	if len(polys) != 1 {
		t.Fatalf("Expected 1 polygon for a full raster, got %d", len(polys))
	}
	minX, minY, maxX, maxY := extent(polys[0])
	if minX > 0 || minY > 0 || maxX < float64(w-1) || maxY < float64(h-1) {
		t.Errorf("Polygon does not enclose the raster: %.2f,%.2f..%.2f,%.2f", minX, minY, maxX, maxY)
	}
}

func TestIsoLinesEmpty(t *testing.T) {
	if polys := IsoLines(make([]uint8, 16), 4, 4, 128); len(polys) != 0 {
		t.Errorf("Expected no polygons, got %d", len(polys))
	}
	if polys := IsoLines(make([]uint8, 3), 4, 4, 128); polys != nil {
		t.Error("Expected nil for a size mismatch")
	}
}

func TestIsoLinesRing(t *testing.T) {
	w, h := 16, 16
	grid := make([]uint8, w*h)
	fillRect(grid, w, 2, 2, 14, 14)
	for y := 6; y < 10; y++ {
		for x := 6; x < 10; x++ {
			grid[y*w+x] = 0
		}
	}

	polys := IsoLines(grid, w, h, 128)
	if len(polys) != 2 {
		t.Fatalf("Expected outer and inner polygons, got %d", len(polys))
	}

	outer := Largest(polys)
	minX, _, maxX, _ := extent(outer)
	if math.Round(minX) != 2 || math.Round(maxX) != 13 {
		t.Errorf("Largest should be the outer boundary, got x %.2f..%.2f", minX, maxX)
	}
}

func TestLargestPrefersFirstOnTies(t *testing.T) {
	a := []float64{0, 0, 1, 0, 1, 1}
	b := []float64{5, 5, 6, 5, 6, 6}
	c := []float64{0, 0, 1, 1}

	got := Largest([][]float64{c, a, b})
	if &got[0] != &a[0] {
		t.Error("Expected the first of the longest polygons")
	}
	if Largest(nil) != nil {
		t.Error("Expected nil for no polygons")
	}
}

func TestIsoLinesTwoBlobs(t *testing.T) {
	w, h := 30, 10
	grid := make([]uint8, w*h)
	fillRect(grid, w, 1, 1, 4, 4)
	fillRect(grid, w, 10, 1, 25, 9)

	polys := IsoLines(grid, w, h, 128)
	if len(polys) != 2 {
		t.Fatalf("Expected 2 polygons, got %d", len(polys))
	}
	minX, _, _, _ := extent(Largest(polys))
	if math.Round(minX) != 10 {
		t.Errorf("Expected the larger blob, got minX %.2f", minX)
	}
}
