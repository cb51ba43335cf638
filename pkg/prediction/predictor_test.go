package prediction

import (
	"context"
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/menta2k/image-annotator/pkg/client"
	"github.com/menta2k/image-annotator/pkg/geometry"
	"github.com/menta2k/image-annotator/pkg/types"
)

type fakeClient struct {
	result *types.AnalysisResult
	err    error
	calls  int
}

func (f *fakeClient) SimpleQuery(ctx context.Context, model, prompt, imgB64 string) (string, error) {
	f.calls++
	return "a grey square", nil
}

func (f *fakeClient) AnalyzeImage(ctx context.Context, model, prompt, imgB64 string) (*types.AnalysisResult, error) {
	f.calls++
	if imgB64 == "" {
		return nil, errors.New("no image")
	}
	return f.result, f.err
}

// createTestImage creates a simple test image
func createTestImage(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{128, 128, 128, 255})
		}
	}
	return img
}

func TestPredict(t *testing.T) {
	fc := &fakeClient{result: &types.AnalysisResult{
		Primary: types.Primary{Label: "Cup", Confidence: 0.9, Box: types.Box{X: 0.5, Y: 0, W: 0.5, H: 1}},
		Tags:    []string{"Cup", "cup", " mug "},
	}}
	p := NewPredictor(fc, "test-model")

	pred, err := p.Predict(context.Background(), createTestImage(100, 100), geometry.Box{MinX: 10, MinY: 10, MaxX: 50, MaxY: 30})
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if pred.Raster.Bounds().Dx() != 40 || pred.Raster.Bounds().Dy() != 20 {
		t.Fatalf("Expected a 40x20 raster, got %v", pred.Raster.Bounds())
	}
	if pred.Raster.NRGBAAt(5, 5).A != 0 {
		t.Error("Expected the left half to be transparent")
	}
	if pred.Raster.NRGBAAt(30, 10).A != 255 {
		t.Error("Expected the right half to be opaque")
	}
	if len(pred.Result.Tags) != 2 {
		t.Errorf("Expected cleaned tags, got %v", pred.Result.Tags)
	}
}

func TestPredictNoObject(t *testing.T) {
	cases := []*types.AnalysisResult{
		{Primary: types.Primary{Label: "none"}},
		{Primary: types.Primary{Label: "parse error", Box: types.Box{W: 0.5, H: 0.5}}, Tags: []string{client.FallbackTag}},
	}
	for _, result := range cases {
		p := NewPredictor(&fakeClient{result: result}, "m")
		pred, err := p.Predict(context.Background(), createTestImage(20, 20), geometry.Box{MaxX: 10, MaxY: 10})
		if !errors.Is(err, ErrNoObject) {
			t.Errorf("Expected ErrNoObject for %q, got %v", result.Primary.Label, err)
		}
		if pred == nil || pred.Raster != nil {
			t.Error("Expected a result without raster")
		}
	}
}

func TestPredictNilResult(t *testing.T) {
	p := NewPredictor(&fakeClient{}, "m")
	pred, err := p.Predict(context.Background(), createTestImage(20, 20), geometry.Box{MaxX: 10, MaxY: 10})
	if !errors.Is(err, ErrNoObject) {
		t.Errorf("Expected ErrNoObject for an empty backend answer, got %v", err)
	}
	if pred == nil || pred.Raster != nil || pred.Result == nil || pred.Result.Primary.Label != "none" {
		t.Errorf("Expected a \"none\" prediction without raster, got %+v", pred)
	}
}

func TestPredictErrors(t *testing.T) {
	fc := &fakeClient{err: errors.New("backend down")}
	p := NewPredictor(fc, "m")

	if _, err := p.Predict(context.Background(), createTestImage(20, 20), geometry.Box{MinX: 5, MinY: 5, MaxX: 5, MaxY: 9}); err == nil {
		t.Error("Expected error for an empty box")
	}
	if fc.calls != 0 {
		t.Error("Empty box must not reach the backend")
	}
	if _, err := p.Predict(context.Background(), createTestImage(20, 20), geometry.Box{MaxX: 10, MaxY: 10}); err == nil {
		t.Error("Expected backend error to propagate")
	}
}

func TestNormalizeBox(t *testing.T) {
	b := normalizeBox(types.Box{X: 0.8, Y: -0.2, W: 0.5, H: 2})
	if b.X != 0.8 || b.Y != 0 || b.H != 1 {
		t.Errorf("Unexpected box %+v", b)
	}
	if b.W < 0.19 || b.W > 0.21 {
		t.Errorf("Expected width clamped to 0.2, got %v", b.W)
	}
}

func TestTestVision(t *testing.T) {
	p := NewPredictor(&fakeClient{}, "m")
	answer, err := p.TestVision(context.Background(), createTestImage(8, 8))
	if err != nil || answer == "" {
		t.Errorf("Unexpected answer %q, %v", answer, err)
	}
}
