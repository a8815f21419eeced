package imaging

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
)

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}
	return buf.Bytes()
}

func TestDecodeBytes(t *testing.T) {
	d, err := DecodeBytes(encodePNG(t, solidImage(7, 3, color.RGBA{1, 2, 3, 255})))
	if err != nil {
		t.Fatalf("DecodeBytes failed: %v", err)
	}
	if d.Format != "png" {
		t.Errorf("Format: got %s, want png", d.Format)
	}
	if b := d.Image.Bounds(); b.Dx() != 7 || b.Dy() != 3 {
		t.Errorf("size: got %dx%d, want 7x3", b.Dx(), b.Dy())
	}
}

func TestDecodeBytes_NotImage(t *testing.T) {
	_, err := DecodeBytes([]byte("definitely not pixels"))
	if !errors.Is(err, ErrNotImage) {
		t.Errorf("got %v, want ErrNotImage", err)
	}
}

func TestOpen(t *testing.T) {
	path := writeTestImage(t, t.TempDir(), "x.jpg", solidImage(16, 16, color.RGBA{200, 100, 50, 255}))
	d, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if d.Format != "jpeg" {
		t.Errorf("Format: got %s, want jpeg", d.Format)
	}
	if _, err := Open(filepath.Join(t.TempDir(), "missing.png")); err == nil {
		t.Error("Open should fail for a missing file")
	}
}

func TestFormatHelpers(t *testing.T) {
	tests := []struct {
		name string
		want imaging.Format
		ext  string
		mime string
	}{
		{"a.png", imaging.PNG, ".png", "image/png"},
		{"a.JPG", imaging.JPEG, ".jpg", "image/jpeg"},
		{"a.jpeg", imaging.JPEG, ".jpg", "image/jpeg"},
		{"a.gif", imaging.GIF, ".gif", "image/gif"},
		{"a.tiff", imaging.TIFF, ".tif", "image/tiff"},
		{"a.bmp", imaging.BMP, ".bmp", "image/bmp"},
		{"a.webp", imaging.PNG, ".png", "image/png"},
		{"noext", imaging.PNG, ".png", "image/png"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := FormatFromFilename(tt.name)
			if f != tt.want {
				t.Errorf("FormatFromFilename: got %v, want %v", f, tt.want)
			}
			if got := Extension(f); got != tt.ext {
				t.Errorf("Extension: got %s, want %s", got, tt.ext)
			}
			if got := MimeType(f); got != tt.mime {
				t.Errorf("MimeType: got %s, want %s", got, tt.mime)
			}
		})
	}

	if got := FormatFromName("jpeg"); got != imaging.JPEG {
		t.Errorf("FormatFromName(jpeg): got %v", got)
	}
	if got := FormatFromName("webp"); got != imaging.PNG {
		t.Errorf("FormatFromName(webp): got %v", got)
	}
	if got := MimeTypeFromFilename("x.webp"); got != "image/webp" {
		t.Errorf("MimeTypeFromFilename(x.webp): got %s", got)
	}
}

func TestSave(t *testing.T) {
	dir := t.TempDir()
	img := solidImage(9, 4, color.RGBA{30, 60, 90, 255})
	for _, name := range []string{"out.png", "out.jpg", "out.bmp", "out.tif", "out.gif"} {
		path := filepath.Join(dir, name)
		if err := Save(img, path); err != nil {
			t.Fatalf("Save(%s) failed: %v", name, err)
		}
		d, err := Open(path)
		if err != nil {
			t.Fatalf("Open(%s) failed: %v", name, err)
		}
		if want := FormatFromFilename(name).String(); !strings.EqualFold(d.Format, want) {
			t.Errorf("%s: decoded as %s, want %s", name, d.Format, want)
		}
	}
	if err := Save(img, filepath.Join(dir, "missing", "out.png")); err == nil {
		t.Error("Save should fail when the directory does not exist")
	}
	if _, err := os.Stat(filepath.Join(dir, "missing")); !os.IsNotExist(err) {
		t.Error("Save created a directory")
	}
}

func TestDataURLRoundTrip(t *testing.T) {
	img := solidImage(5, 5, color.RGBA{10, 20, 30, 255})
	url, err := EncodeDataURL(img, imaging.PNG)
	if err != nil {
		t.Fatalf("EncodeDataURL failed: %v", err)
	}
	if !strings.HasPrefix(url, "data:image/png;base64,") {
		t.Fatalf("unexpected prefix: %.40s", url)
	}

	for name, in := range map[string]string{
		"with header": url,
		"bare":        strings.TrimPrefix(url, "data:image/png;base64,"),
	} {
		d, err := DecodeDataURL(in)
		if err != nil {
			t.Fatalf("%s: DecodeDataURL failed: %v", name, err)
		}
		r, g, b, _ := d.Image.At(2, 2).RGBA()
		if r>>8 != 10 || g>>8 != 20 || b>>8 != 30 {
			t.Errorf("%s: pixel got (%d,%d,%d), want (10,20,30)", name, r>>8, g>>8, b>>8)
		}
	}
}

func TestDecodeDataURL_Invalid(t *testing.T) {
	for _, in := range []string{"data:image/png;base64", "%%%not-base64%%%", "aGVsbG8="} {
		if _, err := DecodeDataURL(in); !errors.Is(err, ErrNotImage) {
			t.Errorf("DecodeDataURL(%q): got %v, want ErrNotImage", in, err)
		}
	}
}

func TestKeepGray(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 3, 2))
	copy(src.Pix, []uint8{10, 20, 30, 40, 50, 60})
	// the NRGBA form imaging produces when applying EXIF orientation
	rotated := imaging.Rotate90(src)

	got, ok := keepGray(color.GrayModel, rotated).(*image.Gray)
	if !ok {
		t.Fatalf("got %T, want *image.Gray", keepGray(color.GrayModel, rotated))
	}
	if b := got.Bounds(); b.Dx() != 2 || b.Dy() != 3 {
		t.Fatalf("size: got %dx%d, want 2x3", b.Dx(), b.Dy())
	}
	for y := 0; y < 3; y++ {
		for x := 0; x < 2; x++ {
			if want := rotated.Pix[rotated.PixOffset(x, y)]; got.GrayAt(x, y).Y != want {
				t.Errorf("pixel (%d,%d): got %d, want %d", x, y, got.GrayAt(x, y).Y, want)
			}
		}
	}
	if Mode(got) != "L" || ToRaster(got).Channels() != 1 {
		t.Errorf("rotated grayscale must stay single channel")
	}

	rgb := imaging.Rotate90(solidImage(2, 2, color.RGBA{1, 2, 3, 255}))
	if _, ok := keepGray(color.RGBAModel, rgb).(*image.NRGBA); !ok {
		t.Error("color images must be left as decoded")
	}
}
