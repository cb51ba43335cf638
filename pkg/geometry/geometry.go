// Package geometry provides the point and stroke math used by the selection
// operators. All coordinates are in image pixel space.
package geometry

import (
	"image"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Point is a position in image space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Floor returns the pixel containing p.
func (p Point) Floor() image.Point {
	return image.Point{X: int(math.Floor(p.X)), Y: int(math.Floor(p.Y))}
}

// Round returns p rounded to the nearest integer coordinates.
func (p Point) Round() image.Point {
	return image.Point{X: int(math.Round(p.X)), Y: int(math.Round(p.Y))}
}

// Midpoint returns the arithmetic mean of a and b.
func Midpoint(a, b Point) Point {
	return Point{X: a.X + (b.X-a.X)/2, Y: a.Y + (b.Y-a.Y)/2}
}

// QuadSegment is one quadratic curve piece of a smoothed stroke.
type QuadSegment struct {
	Control Point `json:"control"`
	End     Point `json:"end"`
}

// Smooth turns a polyline into quadratic segments: every input vertex is a
// control point and every midpoint between neighbours is an end point. The
// curve starts at points[0]; the last segment ends on the last vertex.
func Smooth(points []Point) []QuadSegment {
	if len(points) < 2 {
		return nil
	}
	segments := make([]QuadSegment, 0, len(points)-1)
	for i := 1; i < len(points)-1; i++ {
		segments = append(segments, QuadSegment{
			Control: points[i],
			End:     Midpoint(points[i], points[i+1]),
		})
	}
	last := points[len(points)-1]
	segments = append(segments, QuadSegment{Control: last, End: last})
	return segments
}

// ConnectPoints densifies a sparse stroke. Each consecutive pair is joined
// with a Bresenham line so that successive output pixels are at most one
// pixel apart. Pixels outside bounds are dropped.
func ConnectPoints(points []Point, bounds image.Rectangle) []image.Point {
	if len(points) == 0 {
		return nil
	}

	path := make([]image.Point, 0, len(points)*2)
	emit := func(p image.Point) {
		if !p.In(bounds) {
			return
		}
		if n := len(path); n > 0 && path[n-1] == p {
			return
		}
		path = append(path, p)
	}

	prev := points[0].Floor()
	emit(prev)
	for _, pt := range points[1:] {
		next := pt.Floor()
		bresenham(prev, next, emit)
		prev = next
	}
	return path
}

// bresenham visits every pixel on the line from a to b, both ends included.
func bresenham(a, b image.Point, visit func(image.Point)) {
	x0, y0 := a.X, a.Y
	dx := abs(b.X - x0)
	dy := -abs(b.Y - y0)
	sx, sy := 1, 1
	if x0 > b.X {
		sx = -1
	}
	if y0 > b.Y {
		sy = -1
	}
	err := dx + dy

	for {
		visit(image.Point{X: x0, Y: y0})
		if x0 == b.X && y0 == b.Y {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

// Box is an integer bounding box with MinX <= MaxX and MinY <= MaxY.
//
// Boxes derived from a contour hold the inclusive extent of the traced pixels.
// Boxes spanned by a dragged rectangle hold its edge coordinates, so the
// covered pixels are the half-open Rect and Width/Height count them.
type Box struct {
	MinX int `json:"minX"`
	MinY int `json:"minY"`
	MaxX int `json:"maxX"`
	MaxY int `json:"maxY"`
}

// BoxFromCorners returns the box spanned by two opposite corners, rounded to
// whole pixels.
func BoxFromCorners(a, b Point) Box {
	p, q := a.Round(), b.Round()
	return Box{
		MinX: min(p.X, q.X),
		MinY: min(p.Y, q.Y),
		MaxX: max(p.X, q.X),
		MaxY: max(p.Y, q.Y),
	}
}

// BoxFromContour returns the integer-rounded extent of a flat x,y sequence.
func BoxFromContour(flat []float64) (Box, bool) {
	n := len(flat) / 2
	if n == 0 {
		return Box{}, false
	}
	xs := make([]float64, n)
	ys := make([]float64, n)
	for i := 0; i < n; i++ {
		xs[i] = flat[2*i]
		ys[i] = flat[2*i+1]
	}
	return Box{
		MinX: int(math.Round(floats.Min(xs))),
		MinY: int(math.Round(floats.Min(ys))),
		MaxX: int(math.Round(floats.Max(xs))),
		MaxY: int(math.Round(floats.Max(ys))),
	}, true
}

// Width returns MaxX-MinX.
func (b Box) Width() int {
	return b.MaxX - b.MinX
}

// Height returns MaxY-MinY.
func (b Box) Height() int {
	return b.MaxY - b.MinY
}

// Empty reports whether the box has no area.
func (b Box) Empty() bool {
	return b.Width() <= 0 || b.Height() <= 0
}

// Rect converts the box to the half-open pixel rectangle [MinX,MaxX)×[MinY,MaxY).
func (b Box) Rect() image.Rectangle {
	return image.Rect(b.MinX, b.MinY, b.MaxX, b.MaxY)
}

// Corners returns the four corners as a flat closed-polygon contour.
func (b Box) Corners() []float64 {
	x0, y0 := float64(b.MinX), float64(b.MinY)
	x1, y1 := float64(b.MaxX), float64(b.MaxY)
	return []float64{x0, y0, x1, y0, x1, y1, x0, y1}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
