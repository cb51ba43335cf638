package annotator

import (
	"context"
	"errors"
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"github.com/menta2k/image-annotator/internal/config"
	"github.com/menta2k/image-annotator/pkg/geometry"
	"github.com/menta2k/image-annotator/pkg/selection"
)

// createTestImage creates a simple test image with a bright square subject
func createTestImage(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if x > width/3 && x < 2*width/3 && y > height/3 && y < 2*height/3 {
				img.Set(x, y, color.RGBA{255, 255, 255, 255})
			} else {
				img.Set(x, y, color.RGBA{64, 64, 64, 255})
			}
		}
	}
	return img
}

func TestNew(t *testing.T) {
	ann := New()
	if ann == nil || ann.Config() == nil || ann.processor == nil {
		t.Fatal("New() returned an incomplete annotator")
	}
	if ann.OverlayColor() != (color.NRGBA{0, 255, 0, 150}) {
		t.Errorf("Unexpected overlay colour %+v", ann.OverlayColor())
	}
}

func TestNewWithConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Selection.BrushSize = 0
	if _, err := NewWithConfig(cfg); err == nil {
		t.Error("Expected error for an invalid config")
	}
	if _, err := NewWithConfig(nil); err == nil {
		t.Error("Expected error for a nil config")
	}

	cfg = config.Default()
	cfg.Superpixel.TargetCount = 16
	ann, err := NewWithConfig(cfg)
	if err != nil {
		t.Fatalf("NewWithConfig failed: %v", err)
	}
	if ann.Config().Superpixel.TargetCount != 16 {
		t.Error("Config not kept")
	}
}

func TestNewOperator(t *testing.T) {
	ann := New()
	img := createTestImage(60, 40)
	ctx := context.Background()

	for _, tool := range []selection.Tool{selection.Rectangular, selection.Pen, selection.Quick, selection.Object} {
		op, err := ann.NewOperator(ctx, tool, img)
		if err != nil {
			t.Fatalf("NewOperator(%s) failed: %v", tool, err)
		}
		if op.Tool() != tool {
			t.Errorf("Expected %s, got %s", tool, op.Tool())
		}
		if w, h := op.Size(); w != 60 || h != 40 {
			t.Errorf("%s: expected 60x40, got %dx%d", tool, w, h)
		}
	}

	if _, err := ann.NewOperator(ctx, selection.Pen, nil); !errors.Is(err, selection.ErrInvalidImage) {
		t.Errorf("Expected ErrInvalidImage, got %v", err)
	}
	if _, err := ann.NewOperator(ctx, selection.Tool(42), img); err == nil {
		t.Error("Expected error for an unknown tool")
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	op, err := ann.NewOperator(cancelled, selection.Quick, img)
	if err == nil || op != nil {
		t.Error("Expected a cancelled setup to return no operator")
	}
}

func TestNewToolbox(t *testing.T) {
	ann := New()
	tb, err := ann.NewToolbox(context.Background(), createTestImage(60, 40))
	if err != nil {
		t.Fatalf("NewToolbox failed: %v", err)
	}
	if tb.Active().Tool() != selection.Rectangular {
		t.Errorf("Expected rectangular active, got %s", tb.Active().Tool())
	}
	for _, tool := range []selection.Tool{selection.Pen, selection.Quick, selection.Object} {
		if err := tb.Activate(tool); err != nil {
			t.Errorf("Activate(%s) failed: %v", tool, err)
		}
	}
}

func TestRenderPreviewAndSave(t *testing.T) {
	ann := New()
	img := createTestImage(60, 40)

	op := selection.NewRectangularOperator(60, 40)
	op.OnPointerDown(geometry.Pt(5, 5))
	op.OnPointerUp(geometry.Pt(25, 20))
	rec, ok := selection.Select(op, uuid.New())
	if !ok {
		t.Fatal("Expected a record")
	}

	preview, err := ann.RenderPreview(img, rec)
	if err != nil {
		t.Fatalf("RenderPreview failed: %v", err)
	}
	if c := preview.NRGBAAt(10, 10); c.G <= c.R {
		t.Errorf("Expected a tinted pixel, got %+v", c)
	}
	if c := preview.NRGBAAt(50, 35); c != (color.NRGBA{64, 64, 64, 255}) {
		t.Errorf("Expected an untouched pixel, got %+v", c)
	}

	path := filepath.Join(t.TempDir(), "preview.png")
	if err := ann.SaveImage(preview, path); err != nil {
		t.Fatalf("SaveImage failed: %v", err)
	}
	if _, err := ann.LoadImage(context.Background(), path); err != nil {
		t.Errorf("LoadImage failed: %v", err)
	}

	if _, err := ann.RenderPreview(createTestImage(10, 10), rec); err == nil {
		t.Error("Expected error for a size mismatch")
	}
}

func TestNewPredictor(t *testing.T) {
	ann := New()
	if _, err := ann.NewPredictor(); err != nil {
		t.Errorf("NewPredictor failed: %v", err)
	}

	cfg := config.Default()
	cfg.Prediction.Backend = "llamacpp"
	cfg.Prediction.URL = "http://localhost:8080"
	ann, _ = NewWithConfig(cfg)
	if _, err := ann.NewVisionClient(); err != nil {
		t.Errorf("NewVisionClient failed: %v", err)
	}

	ann.Config().Prediction.Backend = "tensorflow"
	if _, err := ann.NewVisionClient(); err == nil {
		t.Error("Expected error for an unknown backend")
	}
}

func TestNewStore(t *testing.T) {
	s := New().NewStore()
	if s == nil {
		t.Fatal("NewStore returned nil")
	}
	s.Close()
}

func TestGetVersion(t *testing.T) {
	if GetVersion() != Version {
		t.Error("Version mismatch")
	}
}
