package utils

import (
	"os"
	"path/filepath"
	"testing"
)

func TestIsImageFile(t *testing.T) {
	for _, name := range []string{"a.png", "b.JPG", "c.webp"} {
		if !IsImageFile(name) {
			t.Errorf("Expected %s to be an image", name)
		}
	}
	if IsImageFile("notes.txt") || IsImageFile("noext") {
		t.Error("Unexpected image match")
	}
}

func TestGenerateOutputFilename(t *testing.T) {
	got := GenerateOutputFilename("/data/photo one.jpg", "out", "sel_", "_overlay", "webp")
	want := filepath.Join("out", "sel_photo one_overlay.webp")
	if got != want {
		t.Errorf("Expected %s, got %s", want, got)
	}
	if got := GenerateOutputFilename("noext", "out", "", "", ""); got != filepath.Join("out", "noext.png") {
		t.Errorf("Unexpected default format: %s", got)
	}
}

func TestImageKey(t *testing.T) {
	if got := ImageKey("/tmp/images/cat.png"); got != "cat.png" {
		t.Errorf("Unexpected key %q", got)
	}
	if got := ImageKey("https://example.com/img/cat.png?size=2"); got != "example.com_img_cat.png" {
		t.Errorf("Unexpected key %q", got)
	}
}

func TestSanitizeFilename(t *testing.T) {
	if got := SanitizeFilename(" a:b*c? "); got != "a_b_c_" {
		t.Errorf("Unexpected result %q", got)
	}
}

func TestEnsureDirAndFileExists(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	if err := EnsureDir(dir); err != nil {
		t.Fatalf("EnsureDir failed: %v", err)
	}
	if FileExists(dir) {
		t.Error("A directory is not a file")
	}
	file := filepath.Join(dir, "x.png")
	if err := os.WriteFile(file, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if !FileExists(file) {
		t.Error("Expected file to exist")
	}
}
