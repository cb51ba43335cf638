package selection

import (
	"github.com/menta2k/image-annotator/pkg/geometry"
	"github.com/menta2k/image-annotator/pkg/raster"
	"github.com/menta2k/image-annotator/pkg/rle"
)

// rectangle is the drag geometry shared by the rectangular and object
// operators.
type rectangle struct {
	machine
	width, height int
	origin        *geometry.Point
	corner        geometry.Point
}

func (r *rectangle) down(p geometry.Point) {
	if !r.begin() {
		return
	}
	r.origin = &p
	r.corner = p
}

func (r *rectangle) move(p geometry.Point) {
	if !r.selecting() {
		return
	}
	r.corner = p
}

func (r *rectangle) up(p geometry.Point, tool Tool) {
	if !r.selecting() {
		return
	}
	r.corner = p
	r.finish(tool)
}

func (r *rectangle) clear() {
	r.reset()
	r.origin = nil
	r.corner = geometry.Point{}
}

// box is the live rectangle; it reports false before any drag and for a
// zero-area rectangle once selected.
func (r *rectangle) box() (geometry.Box, bool) {
	if r.origin == nil {
		return geometry.Box{}, false
	}
	b := geometry.BoxFromCorners(*r.origin, r.corner)
	if r.state == Selected && b.Empty() {
		return geometry.Box{}, false
	}
	return b, true
}

func (r *rectangle) finalBox() (geometry.Box, bool) {
	if r.state != Selected {
		return geometry.Box{}, false
	}
	return r.box()
}

// RectangularOperator selects the axis-aligned rectangle spanned by a drag.
type RectangularOperator struct {
	rectangle
}

// NewRectangularOperator creates an operator for an image of the given size.
func NewRectangularOperator(width, height int) *RectangularOperator {
	return &RectangularOperator{rectangle{width: width, height: height}}
}

func (o *RectangularOperator) Tool() Tool { return Rectangular }

func (o *RectangularOperator) OnPointerDown(p geometry.Point) { o.down(p) }

func (o *RectangularOperator) OnPointerMove(p geometry.Point) { o.move(p) }

func (o *RectangularOperator) OnPointerUp(p geometry.Point) { o.up(p, Rectangular) }

func (o *RectangularOperator) Deselect() { o.clear() }

func (o *RectangularOperator) Size() (int, int) { return o.width, o.height }

// BoundingBox is (min(x0,x1), min(y0,y1), max(x0,x1), max(y0,y1)).
func (o *RectangularOperator) BoundingBox() (geometry.Box, bool) {
	return o.finalBox()
}

// Width is MaxX-MinX of the current drag, 0 before one starts.
func (o *RectangularOperator) Width() int {
	b, _ := o.box()
	return b.Width()
}

// Height is MaxY-MinY of the current drag, 0 before one starts.
func (o *RectangularOperator) Height() int {
	b, _ := o.box()
	return b.Height()
}

// Contour returns the rectangle's corners.
func (o *RectangularOperator) Contour() []float64 {
	b, ok := o.finalBox()
	if !ok {
		return nil
	}
	return b.Corners()
}

// Mask is the full rectangle, clipped to the image. The box holds edge
// coordinates: pixels in [MinX,MaxX)×[MinY,MaxY) are foreground, so the area
// is Width*Height.
func (o *RectangularOperator) Mask() rle.Runs {
	b, ok := o.finalBox()
	if !ok || o.width <= 0 || o.height <= 0 {
		return nil
	}
	return rle.Encode(raster.FillRect(o.width, o.height, b.Rect()))
}
