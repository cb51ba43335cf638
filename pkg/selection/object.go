package selection

import (
	"image"

	"github.com/disintegration/imaging"

	"github.com/menta2k/image-annotator/pkg/geometry"
	"github.com/menta2k/image-annotator/pkg/raster"
	"github.com/menta2k/image-annotator/pkg/rle"
)

// ObjectOperator is a rectangle whose content is handed to an external
// object-prediction service. The operator only carries the geometry and the
// prediction raster; it never runs inference itself.
type ObjectOperator struct {
	rectangle
	prediction *image.NRGBA
}

// NewObjectOperator creates an operator for an image of the given size.
func NewObjectOperator(width, height int) *ObjectOperator {
	return &ObjectOperator{rectangle: rectangle{width: width, height: height}}
}

func (o *ObjectOperator) Tool() Tool { return Object }

func (o *ObjectOperator) OnPointerDown(p geometry.Point) { o.down(p) }

func (o *ObjectOperator) OnPointerMove(p geometry.Point) { o.move(p) }

func (o *ObjectOperator) OnPointerUp(p geometry.Point) { o.up(p, Object) }

func (o *ObjectOperator) Deselect() {
	o.clear()
	o.prediction = nil
}

func (o *ObjectOperator) Size() (int, int) { return o.width, o.height }

func (o *ObjectOperator) BoundingBox() (geometry.Box, bool) {
	return o.finalBox()
}

// Origin is the top-left corner of the box, where a prediction is placed.
func (o *ObjectOperator) Origin() (image.Point, bool) {
	b, ok := o.box()
	if !ok {
		return image.Point{}, false
	}
	return image.Pt(b.MinX, b.MinY), true
}

func (o *ObjectOperator) Width() int {
	b, _ := o.box()
	return b.Width()
}

func (o *ObjectOperator) Height() int {
	b, _ := o.box()
	return b.Height()
}

// SetPrediction stores the raster returned for the box. Rasters of a
// different size are resampled to the box. It is ignored unless the operator
// holds a non-empty selection.
func (o *ObjectOperator) SetPrediction(img image.Image) {
	b, ok := o.finalBox()
	if !ok || img == nil || img.Bounds().Empty() {
		return
	}
	if img.Bounds().Dx() != b.Width() || img.Bounds().Dy() != b.Height() {
		o.prediction = imaging.Resize(img, b.Width(), b.Height(), imaging.NearestNeighbor)
		return
	}
	o.prediction = imaging.Clone(img)
}

// Prediction returns the stored prediction raster, nil when none.
func (o *ObjectOperator) Prediction() *image.NRGBA { return o.prediction }

func (o *ObjectOperator) Contour() []float64 {
	b, ok := o.finalBox()
	if !ok {
		return nil
	}
	return b.Corners()
}

// Mask is the prediction's non-transparent pixels placed at the box origin,
// or the whole rectangle before a prediction arrives.
func (o *ObjectOperator) Mask() rle.Runs {
	b, ok := o.finalBox()
	if !ok || o.width <= 0 || o.height <= 0 {
		return nil
	}
	if o.prediction == nil {
		return rle.Encode(raster.FillRect(o.width, o.height, b.Rect()))
	}

	mask := make([]byte, o.width*o.height)
	pw, ph := o.prediction.Bounds().Dx(), o.prediction.Bounds().Dy()
	for y := 0; y < ph; y++ {
		iy := b.MinY + y
		if iy < 0 || iy >= o.height {
			continue
		}
		row := o.prediction.Pix[y*o.prediction.Stride:]
		for x := 0; x < pw; x++ {
			ix := b.MinX + x
			if ix < 0 || ix >= o.width {
				continue
			}
			if row[x*4+3] != 0 {
				mask[iy*o.width+ix] = rle.Foreground
			}
		}
	}
	return rle.Encode(mask)
}
