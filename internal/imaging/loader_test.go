package imaging

import (
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

// writeTestImage encodes img into dir/name, choosing PNG or JPEG by extension.
func writeTestImage(t *testing.T, dir, name string, img image.Image) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create test image: %v", err)
	}
	defer f.Close()

	switch filepath.Ext(name) {
	case ".jpg", ".jpeg":
		err = jpeg.Encode(f, img, &jpeg.Options{Quality: 90})
	default:
		err = png.Encode(f, img)
	}
	if err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	return path
}

// solidImage creates an RGBA image filled with c.
func solidImage(width, height int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestNewImageCache(t *testing.T) {
	cache := NewImageCache()
	if cache == nil {
		t.Fatal("NewImageCache returned nil")
	}
	if cache.Len() != 0 {
		t.Fatalf("new cache holds %d images", cache.Len())
	}
}

func TestImageCache_Load(t *testing.T) {
	cache := NewImageCache()
	path := writeTestImage(t, t.TempDir(), "red.png", solidImage(100, 80, color.RGBA{255, 0, 0, 255}))

	d1, err := cache.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if d1.Format != "png" {
		t.Errorf("Format: got %s, want png", d1.Format)
	}
	if b := d1.Image.Bounds(); b.Dx() != 100 || b.Dy() != 80 {
		t.Errorf("unexpected dimensions: got %dx%d, want 100x80", b.Dx(), b.Dy())
	}

	d2, err := cache.Load(path)
	if err != nil {
		t.Fatalf("second Load failed: %v", err)
	}
	if d1 != d2 {
		t.Error("second Load did not return cached image")
	}
}

func TestImageCache_Load_Errors(t *testing.T) {
	cache := NewImageCache()
	if _, err := cache.Load("/nonexistent/path/to/image.png"); err == nil {
		t.Error("Load should fail for non-existent file")
	}

	bad := filepath.Join(t.TempDir(), "bad.png")
	if err := os.WriteFile(bad, []byte("not an image"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	if _, err := cache.Load(bad); err == nil {
		t.Error("Load should fail for invalid image data")
	}
	if cache.Len() != 0 {
		t.Errorf("failed loads were cached: %d", cache.Len())
	}
}

func TestImageCache_ClearAndEvict(t *testing.T) {
	cache := NewImageCache()
	dir := t.TempDir()
	a := writeTestImage(t, dir, "a.png", solidImage(10, 10, color.White))
	b := writeTestImage(t, dir, "b.png", solidImage(10, 10, color.Black))

	for _, p := range []string{a, b} {
		if _, err := cache.Load(p); err != nil {
			t.Fatalf("Load failed: %v", err)
		}
	}
	cache.Evict(a)
	if cache.Len() != 1 {
		t.Errorf("after Evict: got %d images, want 1", cache.Len())
	}
	cache.Evict("/nonexistent/path")

	cache.Clear()
	if cache.Len() != 0 {
		t.Errorf("Clear did not empty cache: %d images remain", cache.Len())
	}
}

func TestImageCache_ConcurrentAccess(t *testing.T) {
	cache := NewImageCache()
	path := writeTestImage(t, t.TempDir(), "gray.png", solidImage(50, 50, color.RGBA{128, 128, 128, 255}))

	var wg sync.WaitGroup
	errs := make(chan error, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cache.Load(path); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent Load error: %v", err)
	}
}

func TestLoadImageInfo(t *testing.T) {
	cache := NewImageCache()
	dir := t.TempDir()

	tests := []struct {
		name   string
		img    image.Image
		format string
		mode   string
		alpha  bool
	}{
		{"rgb.png", solidImage(200, 150, color.RGBA{255, 128, 64, 255}), "png", "RGB", false},
		{"translucent.png", solidImage(8, 8, color.NRGBA{255, 128, 64, 128}), "png", "RGB", true},
		{"photo.jpg", solidImage(64, 32, color.RGBA{10, 20, 30, 255}), "jpeg", "RGB", false},
		{"gray.png", image.NewGray(image.Rect(0, 0, 12, 7)), "png", "L", false},
		{"gray.jpg", image.NewGray(image.Rect(0, 0, 5, 5)), "jpeg", "L", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeTestImage(t, dir, tt.name, tt.img)
			info, err := LoadImageInfo(cache, path)
			if err != nil {
				t.Fatalf("LoadImageInfo failed: %v", err)
			}
			b := tt.img.Bounds()
			if info.Width != b.Dx() || info.Height != b.Dy() {
				t.Errorf("size: got %dx%d, want %dx%d", info.Width, info.Height, b.Dx(), b.Dy())
			}
			if info.Format != tt.format {
				t.Errorf("Format: got %s, want %s", info.Format, tt.format)
			}
			if info.Mode != tt.mode {
				t.Errorf("Mode: got %s, want %s", info.Mode, tt.mode)
			}
			if info.HasAlpha != tt.alpha {
				t.Errorf("HasAlpha: got %v, want %v", info.HasAlpha, tt.alpha)
			}
			if info.FileSizeBytes <= 0 {
				t.Error("FileSizeBytes should be positive")
			}
			if info.CameraModel != "" || info.CaptureTime != nil {
				t.Errorf("unexpected EXIF data: %q %v", info.CameraModel, info.CaptureTime)
			}
		})
	}
}

func TestLoadImageInfo_NonExistent(t *testing.T) {
	if _, err := LoadImageInfo(NewImageCache(), "/nonexistent/image.png"); err == nil {
		t.Error("LoadImageInfo should fail for non-existent file")
	}
}
