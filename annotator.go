// Package annotator turns pointer input on an image into region selections.
//
// A selection is made with one of four operators: a rectangle drag, a
// freehand pen stroke, a click on a precomputed superpixel, or a rectangle
// refined by an object prediction. Every finished selection yields a
// run-length encoded binary mask of the image size.
//
// Basic usage:
//
//	ann := annotator.New()
//	img, err := ann.LoadImage(ctx, "photo.jpg")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	op, err := ann.NewOperator(ctx, selection.Pen, img)
//	if err != nil {
//		log.Fatal(err)
//	}
//	op.OnPointerDown(geometry.Pt(10, 10))
//	op.OnPointerMove(geometry.Pt(60, 40))
//	op.OnPointerUp(geometry.Pt(60, 40))
//
//	rec, ok := selection.Select(op, types.Unknown.ID)
//	if ok {
//		preview, _ := ann.RenderPreview(img, rec)
//		_ = ann.SaveImage(preview, "photo_selection.png")
//	}
//
// Packages:
//
//   - pkg/rle: run-length mask codec
//   - pkg/geometry: points, boxes and stroke densification
//   - pkg/superpixel: SLIC segmentation used by quick selection
//   - pkg/contour, pkg/raster: pen stroke rasterization and outlines
//   - pkg/selection: the operators and their state machine
//   - pkg/prediction: vision-model object prediction for the object tool
package annotator

import (
	"context"
	"fmt"
	"image"
	"image/color"

	"github.com/menta2k/image-annotator/internal/config"
	"github.com/menta2k/image-annotator/internal/store"
	"github.com/menta2k/image-annotator/pkg/client"
	"github.com/menta2k/image-annotator/pkg/llamacpp"
	"github.com/menta2k/image-annotator/pkg/ollama"
	"github.com/menta2k/image-annotator/pkg/prediction"
	"github.com/menta2k/image-annotator/pkg/processing"
	"github.com/menta2k/image-annotator/pkg/selection"
	"github.com/menta2k/image-annotator/pkg/superpixel"
)

// Version of the annotator library
const Version = "1.0.0"

// Annotator builds operators and renders selections from one configuration
type Annotator struct {
	cfg       *config.Config
	processor *processing.Processor
}

// New creates an Annotator with the default configuration
func New() *Annotator {
	return &Annotator{
		cfg:       config.Default(),
		processor: processing.NewProcessor(),
	}
}

// NewWithConfig creates an Annotator with a custom configuration
func NewWithConfig(cfg *config.Config) (*Annotator, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &Annotator{
		cfg:       cfg,
		processor: processing.NewProcessor(),
	}, nil
}

// Config returns the configuration in use
func (a *Annotator) Config() *config.Config {
	return a.cfg
}

// LoadImage loads an image from a file path or URL
func (a *Annotator) LoadImage(ctx context.Context, source string) (image.Image, error) {
	return a.processor.LoadImageSmart(ctx, source)
}

// SaveImage writes img with the configured output format
func (a *Annotator) SaveImage(img image.Image, path string) error {
	out := a.cfg.Output
	return a.processor.SaveImage(img, path, out.Format, out.Quality, out.Lossless)
}

// OverlayColor is the configured highlight colour
func (a *Annotator) OverlayColor() color.NRGBA {
	o := a.cfg.Overlay
	return color.NRGBA{R: o.R, G: o.G, B: o.B, A: o.A}
}

// NewOperator builds the operator for tool on img. Pen and quick operators
// do their setup work here and honour ctx.
func (a *Annotator) NewOperator(ctx context.Context, tool selection.Tool, img image.Image) (selection.Operator, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, fmt.Errorf("new %s operator: %w", tool, selection.ErrInvalidImage)
	}
	w, h := img.Bounds().Dx(), img.Bounds().Dy()

	switch tool {
	case selection.Rectangular:
		return selection.NewRectangularOperator(w, h), nil
	case selection.Object:
		return selection.NewObjectOperator(w, h), nil
	case selection.Pen:
		op, err := selection.SetupPen(ctx, img, a.cfg.Selection.BrushSize, selection.PenOptions{
			CoverageThreshold: uint8(a.cfg.Selection.CoverageThreshold),
			ContourLevel:      a.cfg.Selection.ContourLevel,
		})
		if err != nil {
			return nil, err
		}
		return op, nil
	case selection.Quick:
		op, err := selection.SetupQuick(ctx, img, selection.QuickOptions{
			TargetCount: a.cfg.Superpixel.TargetCount,
			Superpixel: superpixel.Options{
				Compactness: a.cfg.Superpixel.Compactness,
				Iterations:  a.cfg.Superpixel.Iterations,
			},
			Color: a.OverlayColor(),
		})
		if err != nil {
			return nil, err
		}
		return op, nil
	default:
		return nil, fmt.Errorf("unknown tool %s", tool)
	}
}

// NewToolbox builds every operator for img and activates the rectangle
func (a *Annotator) NewToolbox(ctx context.Context, img image.Image) (*selection.Toolbox, error) {
	tb := selection.NewToolbox()
	for _, tool := range []selection.Tool{selection.Rectangular, selection.Pen, selection.Quick, selection.Object} {
		op, err := a.NewOperator(ctx, tool, img)
		if err != nil {
			return nil, err
		}
		tb.Register(op)
	}
	if err := tb.Activate(selection.Rectangular); err != nil {
		return nil, err
	}
	return tb, nil
}

// RenderPreview draws a record over img
func (a *Annotator) RenderPreview(img image.Image, rec selection.Record) (*image.NRGBA, error) {
	b := img.Bounds()
	if b.Dx() != rec.Width || b.Dy() != rec.Height {
		return nil, fmt.Errorf("record is %dx%d, image is %dx%d", rec.Width, rec.Height, b.Dx(), b.Dy())
	}
	mask, err := rec.Decode()
	if err != nil {
		return nil, fmt.Errorf("decode record %s: %w", rec.ID, err)
	}
	return a.processor.RenderSelection(img, processing.Selection{
		Box:  rec.BoundingBox,
		Mask: mask,
	}, a.OverlayColor()), nil
}

// NewVisionClient creates the configured prediction backend
func (a *Annotator) NewVisionClient() (client.VisionClient, error) {
	p := a.cfg.Prediction
	switch p.Backend {
	case "ollama":
		c, err := ollama.NewClient(p.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to create Ollama client: %w", err)
		}
		c.SetTimeout(p.Timeout)
		return c, nil
	case "llamacpp":
		c, err := llamacpp.NewClient(p.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to create llama.cpp client: %w", err)
		}
		c.SetTimeout(p.Timeout)
		return c, nil
	default:
		return nil, fmt.Errorf("unknown backend: %s (use 'ollama' or 'llamacpp')", p.Backend)
	}
}

// NewPredictor creates an object predictor on the configured backend
func (a *Annotator) NewPredictor() (*prediction.Predictor, error) {
	c, err := a.NewVisionClient()
	if err != nil {
		return nil, err
	}
	p := a.cfg.Prediction
	opts := prediction.DefaultOptions(p.Model)
	opts.Format = p.SendFormat
	opts.MaxDim = p.SendSize
	opts.Quality = p.SendQuality
	return prediction.NewPredictorWithOptions(c, opts), nil
}

// NewStore opens the configured record store
func (a *Annotator) NewStore() *store.RecordStore {
	return store.NewRecordStore(&a.cfg.Store)
}

// GetVersion returns the library version
func GetVersion() string {
	return Version
}
