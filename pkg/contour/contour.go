// Package contour extracts iso-lines from a raster with marching squares.
package contour

import (
	"sort"
)

// edge identifies a cell edge of the padded grid. A horizontal edge joins
// (x,y)-(x+1,y); a vertical one joins (x,y)-(x,y+1).
type edge struct {
	x, y     int
	vertical bool
}

type segment struct {
	a, b edge
}

// IsoLines traces the closed iso-lines of grid at level. grid is row-major
// with the given width and height. The raster is framed by one pixel of
// background so every line closes. Polygons are flat x,y sequences in pixel
// coordinates, returned in the order their first cell is met scanning rows.
func IsoLines(grid []uint8, width, height int, level float64) [][]float64 {
	if width <= 0 || height <= 0 || len(grid) != width*height {
		return nil
	}
	pw, ph := width+2, height+2
	value := func(x, y int) float64 {
		// padded coordinates
		if x <= 0 || y <= 0 || x > width || y > height {
			return 0
		}
		return float64(grid[(y-1)*width+(x-1)])
	}

	var segments []segment
	for y := 0; y < ph-1; y++ {
		for x := 0; x < pw-1; x++ {
			tl, tr := value(x, y), value(x+1, y)
			br, bl := value(x+1, y+1), value(x, y+1)
			idx := 0
			if tl >= level {
				idx |= 8
			}
			if tr >= level {
				idx |= 4
			}
			if br >= level {
				idx |= 2
			}
			if bl >= level {
				idx |= 1
			}
			if idx == 0 || idx == 15 {
				continue
			}

			top := edge{x, y, false}
			bottom := edge{x, y + 1, false}
			left := edge{x, y, true}
			right := edge{x + 1, y, true}
			centerAbove := (tl+tr+br+bl)/4 >= level

			switch idx {
			case 1, 14:
				segments = append(segments, segment{left, bottom})
			case 2, 13:
				segments = append(segments, segment{bottom, right})
			case 3, 12:
				segments = append(segments, segment{left, right})
			case 4, 11:
				segments = append(segments, segment{top, right})
			case 6, 9:
				segments = append(segments, segment{top, bottom})
			case 7, 8:
				segments = append(segments, segment{top, left})
			case 5:
				if centerAbove {
					segments = append(segments, segment{top, left}, segment{right, bottom})
				} else {
					segments = append(segments, segment{top, right}, segment{left, bottom})
				}
			case 10:
				if centerAbove {
					segments = append(segments, segment{top, right}, segment{left, bottom})
				} else {
					segments = append(segments, segment{top, left}, segment{bottom, right})
				}
			}
		}
	}

	point := func(e edge) (float64, float64) {
		x0, y0 := e.x, e.y
		x1, y1 := e.x+1, e.y
		if e.vertical {
			x1, y1 = e.x, e.y+1
		}
		v0, v1 := value(x0, y0), value(x1, y1)
		t := 0.5
		if v1 != v0 {
			t = (level - v0) / (v1 - v0)
		}
		// back to image coordinates
		return float64(x0) + t*float64(x1-x0) - 1, float64(y0) + t*float64(y1-y0) - 1
	}

	byEdge := make(map[edge][]int, len(segments)*2)
	for i, s := range segments {
		byEdge[s.a] = append(byEdge[s.a], i)
		byEdge[s.b] = append(byEdge[s.b], i)
	}

	used := make([]bool, len(segments))
	var polygons [][]float64
	for i := range segments {
		if used[i] {
			continue
		}
		used[i] = true
		start := segments[i].a
		cur := segments[i].b
		x, y := point(start)
		poly := []float64{x, y}

		for cur != start {
			x, y = point(cur)
			poly = append(poly, x, y)
			next := -1
			for _, j := range byEdge[cur] {
				if !used[j] {
					next = j
					break
				}
			}
			if next < 0 {
				break
			}
			used[next] = true
			if segments[next].a == cur {
				cur = segments[next].b
			} else {
				cur = segments[next].a
			}
		}
		polygons = append(polygons, poly)
	}
	return polygons
}

// Largest returns the polygon with the most vertices; ties go to the one
// found first. It returns nil when there is none.
func Largest(polygons [][]float64) []float64 {
	if len(polygons) == 0 {
		return nil
	}
	sorted := make([][]float64, len(polygons))
	copy(sorted, polygons)
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i]) > len(sorted[j])
	})
	return sorted[0]
}
