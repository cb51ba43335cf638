// Package raster holds the per-pixel helpers behind the selection operators:
// disc stamping, coverage thresholding and overlay previews.
package raster

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/vector"
)

// kappa is the cubic Bézier handle length for a quarter circle.
const kappa = 0.5522847498

// DefaultCoverageThreshold binarizes any non-trivial disc coverage.
const DefaultCoverageThreshold uint8 = 1

// StampDiscs fills a disc of the given diameter centred on every point into a
// width×height coverage raster. Edges are anti-aliased.
func StampDiscs(points []image.Point, diameter float64, width, height int) *image.Alpha {
	dst := image.NewAlpha(image.Rect(0, 0, width, height))
	if len(points) == 0 || diameter <= 0 || width <= 0 || height <= 0 {
		return dst
	}

	z := vector.NewRasterizer(width, height)
	r := float32(diameter / 2)
	k := r * kappa
	for _, p := range points {
		// centre on the middle of the pixel
		cx, cy := float32(p.X)+0.5, float32(p.Y)+0.5
		z.MoveTo(cx+r, cy)
		z.CubeTo(cx+r, cy+k, cx+k, cy+r, cx, cy+r)
		z.CubeTo(cx-k, cy+r, cx-r, cy+k, cx-r, cy)
		z.CubeTo(cx-r, cy-k, cx-k, cy-r, cx, cy-r)
		z.CubeTo(cx+k, cy-r, cx+r, cy-k, cx+r, cy)
		z.ClosePath()
	}
	z.DrawOp = draw.Src
	z.Draw(dst, dst.Bounds(), image.Opaque, image.Point{})
	return dst
}

// Threshold maps coverage above level to 255 and everything else to 0.
func Threshold(coverage []uint8, level uint8) []byte {
	mask := make([]byte, len(coverage))
	for i, v := range coverage {
		if v > level {
			mask[i] = 255
		}
	}
	return mask
}

// Overlay paints c over the foreground of mask and leaves the rest fully
// transparent. The result only spans the foreground bounds; its Bounds().Min
// is the offset in the source image. A mask without foreground yields nil.
func Overlay(mask []byte, width, height int, c color.NRGBA) *image.NRGBA {
	if width <= 0 || height <= 0 || len(mask) != width*height {
		return nil
	}
	var bounds image.Rectangle
	for y := 0; y < height; y++ {
		row := mask[y*width : (y+1)*width]
		for x, v := range row {
			if v != 0 {
				bounds = bounds.Union(image.Rect(x, y, x+1, y+1))
			}
		}
	}
	if bounds.Empty() {
		return nil
	}

	overlay := image.NewNRGBA(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if mask[y*width+x] != 0 {
				overlay.SetNRGBA(x, y, c)
			}
		}
	}
	return overlay
}

// FillRect returns a width×height mask with r set to 255, clipped to the raster.
func FillRect(width, height int, r image.Rectangle) []byte {
	mask := make([]byte, width*height)
	r = r.Intersect(image.Rect(0, 0, width, height))
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			mask[y*width+x] = 255
		}
	}
	return mask
}
