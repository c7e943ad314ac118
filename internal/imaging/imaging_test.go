package imaging_test

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"assetopt/internal/imaging"
	"assetopt/internal/services"
)

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 0x80, A: uint8(0x40 + (x+y)%0xbf)})
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func TestDimensions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Palm.png")
	writePNG(t, path, 40, 24)

	w, h, err := imaging.Dimensions(path)
	if err != nil {
		t.Fatalf("Dimensions returned error: %v", err)
	}
	if w != 40 || h != 24 {
		t.Fatalf("Dimensions = %dx%d, want 40x24", w, h)
	}
}

func TestDimensionsRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.png")
	if err := os.WriteFile(path, []byte("not a png"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := imaging.Dimensions(path); !errors.Is(err, services.ErrInvalidAsset) {
		t.Fatalf("expected invalid asset, got %v", err)
	}
}

func TestResizeWritesTargetSize(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "Floor.png")
	dst := filepath.Join(dir, "out.png")
	writePNG(t, src, 64, 32)

	if err := imaging.Resize(context.Background(), src, dst, 16, 8); err != nil {
		t.Fatalf("Resize returned error: %v", err)
	}
	w, h, err := imaging.Dimensions(dst)
	if err != nil {
		t.Fatalf("Dimensions(dst) error: %v", err)
	}
	if w != 16 || h != 8 {
		t.Fatalf("resized = %dx%d, want 16x8", w, h)
	}

	f, err := os.Open(dst)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatal(err)
	}
	if _, _, _, a := img.At(0, 0).RGBA(); a == 0xffff {
		t.Fatal("expected translucent pixel to keep alpha")
	}
}

func TestResizeHonoursCancellation(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.png")
	writePNG(t, src, 8, 8)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := imaging.Resize(ctx, src, filepath.Join(dir, "b.png"), 4, 4); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
}

func TestResizeRejectsInvalidTarget(t *testing.T) {
	if err := imaging.Resize(context.Background(), "x.png", "y.png", 0, 4); !errors.Is(err, services.ErrInvalidAsset) {
		t.Fatalf("expected invalid asset, got %v", err)
	}
}
