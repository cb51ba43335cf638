package selection

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"slices"
	"time"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"

	"github.com/menta2k/image-annotator/internal/logging"
	"github.com/menta2k/image-annotator/pkg/geometry"
	"github.com/menta2k/image-annotator/pkg/raster"
	"github.com/menta2k/image-annotator/pkg/rle"
	"github.com/menta2k/image-annotator/pkg/superpixel"
)

// QuickOptions configures superpixel selection.
type QuickOptions struct {
	TargetCount int
	Superpixel  superpixel.Options
	// Color fills the active superpixel in preview overlays.
	Color color.NRGBA
}

// DefaultQuickOptions returns the options used when none are given.
func DefaultQuickOptions() QuickOptions {
	return QuickOptions{
		TargetCount: 100,
		Superpixel:  superpixel.DefaultOptions(),
		Color:       color.NRGBA{R: 0, G: 255, B: 0, A: 150},
	}
}

// QuickOperator selects a whole superpixel with one click. The image is
// segmented once at setup and every label's mask and overlay are kept.
type QuickOperator struct {
	machine
	segments *superpixel.Map
	masks    []rle.Runs
	overlays []*image.NRGBA
	active   int
}

// SetupQuick segments img and precomputes the per-label masks. It honours ctx
// between phases.
func SetupQuick(ctx context.Context, img image.Image, opts QuickOptions) (*QuickOperator, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if img == nil || img.Bounds().Empty() {
		return nil, fmt.Errorf("quick setup: %w", ErrInvalidImage)
	}
	if opts.TargetCount <= 0 {
		opts.TargetCount = DefaultQuickOptions().TargetCount
	}

	start := time.Now()
	nrgba := imaging.Clone(img)
	w, h := nrgba.Bounds().Dx(), nrgba.Bounds().Dy()

	segments, err := superpixel.SegmentWithOptions(nrgba.Pix, w, h, opts.TargetCount, opts.Superpixel)
	if err != nil {
		return nil, fmt.Errorf("quick setup: %w", err)
	}

	op := &QuickOperator{
		segments: segments,
		masks:    make([]rle.Runs, segments.Count),
		overlays: make([]*image.NRGBA, segments.Count),
		active:   -1,
	}
	for label := 0; label < segments.Count; label++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		mask := segments.Mask(label)
		op.masks[label] = rle.Encode(mask)
		op.overlays[label] = raster.Overlay(mask, w, h, opts.Color)
	}

	logging.Logger.Debug("quick operator ready",
		zap.Int("width", w), zap.Int("height", h),
		zap.Int("superpixels", segments.Count),
		zap.Duration("elapsed", time.Since(start)))
	return op, nil
}

func (o *QuickOperator) Tool() Tool { return Quick }

func (o *QuickOperator) Size() (int, int) { return o.segments.Width, o.segments.Height }

// OnPointerDown activates the superpixel under p. Clicks outside the image
// are ignored.
func (o *QuickOperator) OnPointerDown(p geometry.Point) {
	if o.state != Idle {
		return
	}
	px := p.Floor()
	label := o.segments.Label(px.X, px.Y)
	if label < 0 {
		return
	}
	o.active = label
	o.finish(Quick)
}

func (o *QuickOperator) OnPointerMove(geometry.Point) {}

func (o *QuickOperator) OnPointerUp(geometry.Point) {}

func (o *QuickOperator) Deselect() {
	o.reset()
	o.active = -1
}

func (o *QuickOperator) BoundingBox() (geometry.Box, bool) { return geometry.Box{}, false }

func (o *QuickOperator) Contour() []float64 { return nil }

// Mask returns the precomputed runs of the active superpixel.
func (o *QuickOperator) Mask() rle.Runs {
	if o.state != Selected || o.active < 0 {
		return nil
	}
	return slices.Clone(o.masks[o.active])
}

// Label is the active superpixel, -1 when none.
func (o *QuickOperator) Label() int { return o.active }

// Overlay is the preview of the active superpixel, cropped to its bounds.
func (o *QuickOperator) Overlay() *image.NRGBA {
	if o.active < 0 {
		return nil
	}
	return o.overlays[o.active]
}

// Superpixels exposes the segmentation computed at setup.
func (o *QuickOperator) Superpixels() *superpixel.Map { return o.segments }
