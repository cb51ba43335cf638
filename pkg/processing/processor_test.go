package processing

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/menta2k/image-annotator/pkg/geometry"
)

// createTestImage creates a simple test image
func createTestImage(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{64, 64, 64, 255})
		}
	}
	return img
}

func TestRGBAPixels(t *testing.T) {
	p := NewProcessor()
	img := image.NewRGBA(image.Rect(10, 10, 14, 13))
	img.Set(10, 10, color.RGBA{1, 2, 3, 255})

	pix, w, h := p.RGBAPixels(img)
	if w != 4 || h != 3 {
		t.Fatalf("Expected 4x3, got %dx%d", w, h)
	}
	if len(pix) != 4*3*4 {
		t.Fatalf("Expected %d bytes, got %d", 4*3*4, len(pix))
	}
	if pix[0] != 1 || pix[1] != 2 || pix[2] != 3 || pix[3] != 255 {
		t.Errorf("Unexpected first pixel %v", pix[:4])
	}
}

func TestEncodeForModelResizes(t *testing.T) {
	p := NewProcessor()
	encoded, err := p.EncodeForModel(createTestImage(400, 200), "png", 100, 85)
	if err != nil {
		t.Fatalf("EncodeForModel failed: %v", err)
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		t.Fatalf("Invalid base64: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Invalid png: %v", err)
	}
	if img.Bounds().Dx() != 100 || img.Bounds().Dy() != 50 {
		t.Errorf("Expected 100x50, got %v", img.Bounds())
	}
}

func TestSaveAndLoad(t *testing.T) {
	p := NewProcessor()
	dir := t.TempDir()
	img := createTestImage(32, 16)

	for _, format := range []string{"png", "jpg", "webp"} {
		path := filepath.Join(dir, "out."+format)
		if err := p.SaveImage(img, path, format, 90, true); err != nil {
			t.Fatalf("SaveImage(%s) failed: %v", format, err)
		}
		loaded, err := p.LoadImage(path)
		if err != nil {
			t.Fatalf("LoadImage(%s) failed: %v", format, err)
		}
		if loaded.Bounds().Dx() != 32 || loaded.Bounds().Dy() != 16 {
			t.Errorf("%s: expected 32x16, got %v", format, loaded.Bounds())
		}
	}
}

func TestLoadImageFromURL(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, createTestImage(8, 8)); err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/text" {
			w.Header().Set("Content-Type", "text/plain")
			w.Write([]byte("hello"))
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write(buf.Bytes())
	}))
	defer srv.Close()

	p := NewProcessor()
	img, err := p.LoadImageSmart(context.Background(), srv.URL+"/image.png")
	if err != nil {
		t.Fatalf("LoadImageSmart failed: %v", err)
	}
	if img.Bounds().Dx() != 8 {
		t.Errorf("Expected width 8, got %d", img.Bounds().Dx())
	}

	if _, err := p.LoadImageFromURL(context.Background(), srv.URL+"/text"); err == nil {
		t.Error("Expected error for non-image content")
	}
	if _, err := p.LoadImageFromURL(context.Background(), "ftp://example.com/a.png"); err == nil {
		t.Error("Expected error for unsupported scheme")
	}
}

func TestDecodeGarbage(t *testing.T) {
	p := NewProcessor()
	if _, err := p.decodeImageFromBytes([]byte("not an image")); err == nil {
		t.Error("Expected decode error")
	}
}

func TestCropToBox(t *testing.T) {
	p := NewProcessor()
	img := createTestImage(50, 40)

	cropped, err := p.CropToBox(img, geometry.Box{MinX: 10, MinY: 5, MaxX: 30, MaxY: 25})
	if err != nil {
		t.Fatalf("CropToBox failed: %v", err)
	}
	if cropped.Bounds().Dx() != 20 || cropped.Bounds().Dy() != 20 {
		t.Errorf("Expected 20x20, got %v", cropped.Bounds())
	}

	clipped, err := p.CropToBox(img, geometry.Box{MinX: 40, MinY: 30, MaxX: 80, MaxY: 80})
	if err != nil {
		t.Fatalf("CropToBox failed: %v", err)
	}
	if clipped.Bounds().Dx() != 10 || clipped.Bounds().Dy() != 10 {
		t.Errorf("Expected 10x10, got %v", clipped.Bounds())
	}

	if _, err := p.CropToBox(img, geometry.Box{MinX: 60, MinY: 60, MaxX: 70, MaxY: 70}); err == nil {
		t.Error("Expected error for a box outside the image")
	}
}

func TestRenderSelection(t *testing.T) {
	p := NewProcessor()
	w, h := 40, 40
	mask := make([]byte, w*h)
	mask[20*w+20] = 255

	box := geometry.Box{MinX: 5, MinY: 5, MaxX: 15, MaxY: 15}
	out := p.RenderSelection(createTestImage(w, h), Selection{
		Box:     &box,
		Contour: []float64{25, 25, 35, 25, 35, 35},
		Mask:    mask,
	}, color.NRGBA{0, 255, 0, 150})

	if c := out.NRGBAAt(5, 10); c != (color.NRGBA{0, 255, 0, 255}) {
		t.Errorf("Expected box stroke, got %+v", c)
	}
	if c := out.NRGBAAt(20, 20); c.G <= 64 || c.R >= 64 {
		t.Errorf("Expected the mask pixel to be tinted, got %+v", c)
	}
	if c := out.NRGBAAt(30, 25); c != (color.NRGBA{255, 204, 0, 255}) {
		t.Errorf("Expected contour stroke, got %+v", c)
	}
	if c := out.NRGBAAt(0, 39); c != (color.NRGBA{64, 64, 64, 255}) {
		t.Errorf("Expected untouched background, got %+v", c)
	}
}
