// Package prediction asks a vision model where the object inside a user
// rectangle is and turns the answer into a raster for the object operator.
package prediction

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/menta2k/image-annotator/internal/logging"
	"github.com/menta2k/image-annotator/pkg/client"
	"github.com/menta2k/image-annotator/pkg/geometry"
	"github.com/menta2k/image-annotator/pkg/processing"
	"github.com/menta2k/image-annotator/pkg/types"
)

// ErrNoObject is returned when the model found nothing usable in the region.
var ErrNoObject = errors.New("no object predicted")

// SimpleTestPrompt checks whether the model can see images at all
const SimpleTestPrompt = `What do you see in this image? Describe it briefly.`

// DefaultPrompt asks for the dominant object of a cropped region
const DefaultPrompt = `You are an object locator. The image is a region a user selected.

Return JSON only:
{
  "primary": {
    "label": "string",
    "confidence": 0.0,
    "box": {"x": 0.0, "y": 0.0, "w": 0.0, "h": 0.0}
  },
  "description": "short neutral sentence (≤ 20 words)",
  "tags": ["tag1", "tag2", "tag3"]
}

HARD RULES
- All coordinates are normalized to [0,1] relative to this image (NOT pixels).
- The box must tightly include the single most prominent object.
- Tags: lowercase, concise, no punctuation or duplicates.
- If there is no object, return {"primary":{"label":"none","confidence":0.0,"box":{"x":0,"y":0,"w":0,"h":0}},"description":"","tags":[]}
- JSON only. No markdown, no code fences, no comments, no trailing commas.`

// Options controls how regions are sent to the model
type Options struct {
	Model   string
	Prompt  string
	Format  string // jpg or png
	MaxDim  int
	Quality int
	// Fill colours the predicted object in the returned raster.
	Fill color.NRGBA
}

// DefaultOptions returns the options used by NewPredictor
func DefaultOptions(model string) Options {
	return Options{
		Model:   model,
		Prompt:  DefaultPrompt,
		Format:  "jpg",
		MaxDim:  1024,
		Quality: 85,
		Fill:    color.NRGBA{R: 255, G: 255, B: 255, A: 255},
	}
}

// Predictor handles object prediction using vision models
type Predictor struct {
	client    client.VisionClient
	processor *processing.Processor
	opts      Options
}

// Prediction is the outcome for one region
type Prediction struct {
	Result *types.AnalysisResult
	// Raster has the size of the requested box; the predicted object is
	// opaque and everything else transparent.
	Raster *image.NRGBA
}

// NewPredictor creates a predictor with a vision client
func NewPredictor(c client.VisionClient, model string) *Predictor {
	return NewPredictorWithOptions(c, DefaultOptions(model))
}

// NewPredictorWithOptions creates a predictor with custom options
func NewPredictorWithOptions(c client.VisionClient, opts Options) *Predictor {
	def := DefaultOptions(opts.Model)
	if opts.Prompt == "" {
		opts.Prompt = def.Prompt
	}
	if opts.Format == "" {
		opts.Format = def.Format
	}
	if opts.Quality <= 0 {
		opts.Quality = def.Quality
	}
	if opts.Fill.A == 0 {
		opts.Fill = def.Fill
	}
	return &Predictor{
		client:    c,
		processor: processing.NewProcessor(),
		opts:      opts,
	}
}

// Predict crops box out of img, asks the model for the object inside and
// renders the answer
func (p *Predictor) Predict(ctx context.Context, img image.Image, box geometry.Box) (*Prediction, error) {
	if box.Empty() {
		return nil, fmt.Errorf("predict: empty box %+v", box)
	}
	region, err := p.processor.CropToBox(img, box)
	if err != nil {
		return nil, fmt.Errorf("predict: %w", err)
	}
	encoded, err := p.processor.EncodeForModel(region, p.opts.Format, p.opts.MaxDim, p.opts.Quality)
	if err != nil {
		return nil, fmt.Errorf("predict: encode region: %w", err)
	}

	start := time.Now()
	result, err := p.client.AnalyzeImage(ctx, p.opts.Model, p.opts.Prompt, encoded)
	if err != nil {
		return nil, fmt.Errorf("predict: %w", err)
	}
	if result == nil {
		return &Prediction{Result: &types.AnalysisResult{Primary: types.Primary{Label: "none"}}}, ErrNoObject
	}
	result = normalizeResult(result)

	logging.Logger.Info("object predicted",
		zap.String("label", result.Primary.Label),
		zap.Float64("confidence", result.Primary.Confidence),
		zap.Duration("elapsed", time.Since(start)))

	if isEmpty(result) {
		return &Prediction{Result: result}, ErrNoObject
	}
	return &Prediction{
		Result: result,
		Raster: Rasterize(result.Primary.Box, box.Width(), box.Height(), p.opts.Fill),
	}, nil
}

// TestVision tests if the model can actually see an image
func (p *Predictor) TestVision(ctx context.Context, img image.Image) (string, error) {
	encoded, err := p.processor.EncodeForModel(img, p.opts.Format, p.opts.MaxDim, p.opts.Quality)
	if err != nil {
		return "", err
	}
	return p.client.SimpleQuery(ctx, p.opts.Model, SimpleTestPrompt, encoded)
}

// Rasterize fills the normalized box inside a width×height transparent raster
func Rasterize(b types.Box, width, height int, fill color.NRGBA) *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	x0 := int(b.X*float64(width) + 0.5)
	y0 := int(b.Y*float64(height) + 0.5)
	x1 := int((b.X+b.W)*float64(width) + 0.5)
	y1 := int((b.Y+b.H)*float64(height) + 0.5)
	r := image.Rect(x0, y0, x1, y1).Intersect(dst.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			dst.SetNRGBA(x, y, fill)
		}
	}
	return dst
}

// isEmpty reports whether a result should not become a mask
func isEmpty(result *types.AnalysisResult) bool {
	if strings.EqualFold(result.Primary.Label, "none") || slices.Contains(result.Tags, client.FallbackTag) {
		return true
	}
	return result.Primary.Box.W <= 0 || result.Primary.Box.H <= 0
}

// normalizeResult clamps the box and cleans the tags
func normalizeResult(result *types.AnalysisResult) *types.AnalysisResult {
	result.Primary.Box = normalizeBox(result.Primary.Box)
	result.Tags = normalizeTags(result.Tags)
	return result
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// normalizeBox keeps the box inside [0,1]
func normalizeBox(b types.Box) types.Box {
	x := clamp(b.X, 0, 1)
	y := clamp(b.Y, 0, 1)
	return types.Box{
		X: x,
		Y: y,
		W: clamp(b.W, 0, 1-x),
		H: clamp(b.H, 0, 1-y),
	}
}

// normalizeTags ensures tags are cleaned and limited to 5 entries
func normalizeTags(tags []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, 5)
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
		if len(out) == 5 {
			break
		}
	}
	return out
}
