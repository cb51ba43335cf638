package raster

import (
	"image"
	"image/color"
	"testing"
)

func TestStampDiscsSinglePoint(t *testing.T) {
	a := StampDiscs([]image.Point{{X: 20, Y: 20}}, 8, 40, 40)

	if a.AlphaAt(20, 20).A != 255 {
		t.Errorf("Expected full coverage at the centre, got %d", a.AlphaAt(20, 20).A)
	}
	if a.AlphaAt(0, 0).A != 0 || a.AlphaAt(30, 20).A != 0 {
		t.Error("Expected no coverage far from the disc")
	}

	mask := Threshold(a.Pix, DefaultCoverageThreshold)
	count := 0
	for _, v := range mask {
		if v == 255 {
			count++
		}
	}
	// a disc of diameter 8 covers roughly pi*16 ≈ 50 pixels
	if count < 36 || count > 80 {
		t.Errorf("Unexpected disc area %d", count)
	}
}

func TestStampDiscsUnionOfOverlaps(t *testing.T) {
	a := StampDiscs([]image.Point{{X: 10, Y: 10}, {X: 11, Y: 10}, {X: 12, Y: 10}}, 6, 30, 30)
	for x := 10; x <= 12; x++ {
		if a.AlphaAt(x, 10).A != 255 {
			t.Errorf("Expected full coverage at (%d,10), got %d", x, a.AlphaAt(x, 10).A)
		}
	}
}

func TestStampDiscsEmpty(t *testing.T) {
	a := StampDiscs(nil, 8, 10, 10)
	for _, v := range a.Pix {
		if v != 0 {
			t.Fatal("Expected an empty raster")
		}
	}
	if a.Bounds().Dx() != 10 || a.Bounds().Dy() != 10 {
		t.Errorf("Unexpected bounds %v", a.Bounds())
	}
}

func TestThreshold(t *testing.T) {
	got := Threshold([]uint8{0, 1, 2, 200, 255}, 1)
	want := []byte{0, 0, 255, 255, 255}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Index %d: expected %d, got %d", i, want[i], got[i])
		}
	}
}

func TestOverlay(t *testing.T) {
	w, h := 8, 6
	mask := FillRect(w, h, image.Rect(2, 1, 5, 3))
	green := color.NRGBA{0, 255, 0, 150}

	o := Overlay(mask, w, h, green)
	if o == nil {
		t.Fatal("Expected an overlay")
	}
	if o.Bounds() != image.Rect(2, 1, 5, 3) {
		t.Errorf("Unexpected overlay bounds %v", o.Bounds())
	}
	if o.NRGBAAt(3, 2) != green {
		t.Errorf("Expected highlight on foreground, got %v", o.NRGBAAt(3, 2))
	}
	if o.NRGBAAt(0, 0).A != 0 {
		t.Error("Expected transparent outside the foreground")
	}

	if Overlay(make([]byte, w*h), w, h, green) != nil {
		t.Error("Expected nil overlay for an empty mask")
	}
}

func TestFillRectClips(t *testing.T) {
	mask := FillRect(4, 4, image.Rect(2, 2, 10, 10))
	count := 0
	for _, v := range mask {
		if v == 255 {
			count++
		}
	}
	if count != 4 {
		t.Errorf("Expected 4 pixels, got %d", count)
	}
}
