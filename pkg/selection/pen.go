package selection

import (
	"context"
	"fmt"
	"image"
	"time"

	"go.uber.org/zap"

	"github.com/menta2k/image-annotator/internal/logging"
	"github.com/menta2k/image-annotator/pkg/contour"
	"github.com/menta2k/image-annotator/pkg/geometry"
	"github.com/menta2k/image-annotator/pkg/raster"
	"github.com/menta2k/image-annotator/pkg/rle"
)

// PenOptions tunes how a stroke becomes a mask.
type PenOptions struct {
	// CoverageThreshold is the disc coverage (0-255) a pixel must exceed to
	// become foreground.
	CoverageThreshold uint8
	// ContourLevel is the iso-level traced on the binarized raster.
	ContourLevel float64
}

// DefaultPenOptions returns the options used when none are given.
func DefaultPenOptions() PenOptions {
	return PenOptions{
		CoverageThreshold: raster.DefaultCoverageThreshold,
		ContourLevel:      128,
	}
}

// PenOperator is a freehand brush. The stroke is stamped with discs of the
// brush diameter when the pointer is released.
type PenOperator struct {
	machine
	width, height int
	brushSize     int
	opts          PenOptions

	points  []geometry.Point
	mask    []byte
	outline []float64
}

// SetupPen binds a pen operator to img and a brush diameter. It is the only
// way to build one.
func SetupPen(ctx context.Context, img image.Image, brushSize int, opts PenOptions) (*PenOperator, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if img == nil || img.Bounds().Empty() {
		return nil, fmt.Errorf("pen setup: %w", ErrInvalidImage)
	}
	if brushSize <= 0 {
		return nil, fmt.Errorf("pen setup: %w: %d", ErrInvalidBrushSize, brushSize)
	}
	if opts.ContourLevel <= 0 {
		opts.ContourLevel = DefaultPenOptions().ContourLevel
	}

	b := img.Bounds()
	logging.Logger.Debug("pen operator ready",
		zap.Int("width", b.Dx()), zap.Int("height", b.Dy()), zap.Int("brush_size", brushSize))

	return &PenOperator{
		width:     b.Dx(),
		height:    b.Dy(),
		brushSize: brushSize,
		opts:      opts,
	}, nil
}

func (o *PenOperator) Tool() Tool { return Pen }

func (o *PenOperator) Size() (int, int) { return o.width, o.height }

// BrushSize returns the disc diameter.
func (o *PenOperator) BrushSize() int { return o.brushSize }

// SetBrushSize changes the diameter used by the next stroke. Non-positive
// sizes are ignored.
func (o *PenOperator) SetBrushSize(size int) {
	if size > 0 {
		o.brushSize = size
	}
}

func (o *PenOperator) OnPointerDown(p geometry.Point) {
	if !o.begin() {
		return
	}
	o.points = append(o.points, p)
}

func (o *PenOperator) OnPointerMove(p geometry.Point) {
	if !o.selecting() {
		return
	}
	o.points = append(o.points, p)
}

// OnPointerUp rasterizes the stroke. The release position itself is not a
// sample; a stroke needs at least two samples to produce a mask.
func (o *PenOperator) OnPointerUp(geometry.Point) {
	if !o.selecting() {
		return
	}
	if len(o.points) >= 2 {
		o.rasterize()
	}
	o.finish(Pen)
}

func (o *PenOperator) rasterize() {
	start := time.Now()
	bounds := image.Rect(0, 0, o.width, o.height)

	path := geometry.ConnectPoints(o.points, bounds)
	coverage := raster.StampDiscs(path, float64(o.brushSize), o.width, o.height)
	mask := raster.Threshold(coverage.Pix, o.opts.CoverageThreshold)

	outline := contour.Largest(contour.IsoLines(mask, o.width, o.height, o.opts.ContourLevel))
	if len(outline) == 0 {
		return
	}
	o.mask = mask
	o.outline = outline

	logging.Logger.Debug("pen stroke rasterized",
		zap.Int("samples", len(o.points)),
		zap.Int("path", len(path)),
		zap.Int("contour_vertices", len(outline)/2),
		zap.Duration("elapsed", time.Since(start)))
}

func (o *PenOperator) Deselect() {
	o.reset()
	o.points = nil
	o.mask = nil
	o.outline = nil
}

// Points returns a copy of the samples collected so far.
func (o *PenOperator) Points() []geometry.Point {
	return append([]geometry.Point(nil), o.points...)
}

// Smoothed returns the live stroke as quadratic segments for a cosmetic
// renderer.
func (o *PenOperator) Smoothed() []geometry.QuadSegment {
	return geometry.Smooth(o.points)
}

// BoundingBox is the rounded extent of the contour.
func (o *PenOperator) BoundingBox() (geometry.Box, bool) {
	if o.state != Selected {
		return geometry.Box{}, false
	}
	return geometry.BoxFromContour(o.outline)
}

// Contour is the largest closed outline of the stroke.
func (o *PenOperator) Contour() []float64 {
	if o.state != Selected {
		return nil
	}
	return o.outline
}

// Mask is the run-length encoded, binarized stroke raster.
func (o *PenOperator) Mask() rle.Runs {
	if o.state != Selected || o.mask == nil {
		return nil
	}
	return rle.Encode(o.mask)
}

// Raster returns the stroke as a grayscale image, nil when empty.
func (o *PenOperator) Raster() *image.Gray {
	if o.mask == nil {
		return nil
	}
	g := image.NewGray(image.Rect(0, 0, o.width, o.height))
	copy(g.Pix, o.mask)
	return g
}
