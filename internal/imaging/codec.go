package imaging

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/tiff" // Register TIFF format decoder
	_ "golang.org/x/image/webp" // Register WebP format decoder
)

// JPEGQuality is the quality used whenever a result is written as JPEG.
const JPEGQuality = 95

// ErrNotImage is returned when the input bytes are not a decodable image.
var ErrNotImage = errors.New("source is not a genuine image")

// Decoded is an image together with the name of the format it was read from.
type Decoded struct {
	Image image.Image

	// Format is the registered decoder name: "png", "jpeg", "gif", "webp",
	// "bmp" or "tiff".
	Format string
}

// Decode reads an image from r, applying any EXIF orientation so the pixels
// are upright.
func Decode(r io.Reader) (*Decoded, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	return DecodeBytes(data)
}

// DecodeBytes is Decode for an in-memory buffer.
func DecodeBytes(data []byte) (*Decoded, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotImage, err)
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s image: %w", format, err)
	}
	return &Decoded{Image: keepGray(cfg.ColorModel, img), Format: format}, nil
}

// keepGray undoes the NRGBA conversion imaging applies when it rotates or
// flips an image, so grayscale sources stay single channel.
func keepGray(model color.Model, img image.Image) image.Image {
	if model != color.GrayModel && model != color.Gray16Model {
		return img
	}
	src, ok := img.(*image.NRGBA)
	if !ok {
		return img
	}
	b := src.Bounds()
	gray := image.NewGray(b)
	for y := 0; y < b.Dy(); y++ {
		row := src.Pix[y*src.Stride : y*src.Stride+4*b.Dx()]
		out := gray.Pix[y*gray.Stride : y*gray.Stride+b.Dx()]
		for x := range out {
			out[x] = row[4*x]
		}
	}
	return gray
}

// Open decodes the image file at path.
func Open(path string) (*Decoded, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// FormatFromFilename picks an output format from the file extension. WebP and
// unknown extensions fall back to PNG since there is no encoder for them.
func FormatFromFilename(name string) imaging.Format {
	f, err := imaging.FormatFromFilename(name)
	if err != nil {
		return imaging.PNG
	}
	return f
}

// FormatFromName maps a decoder name such as "jpeg" or "webp" to the format
// a result should be written in.
func FormatFromName(name string) imaging.Format {
	f, err := imaging.FormatFromExtension(name)
	if err != nil {
		return imaging.PNG
	}
	return f
}

// Extension returns the canonical file extension for f, including the dot.
func Extension(f imaging.Format) string {
	switch f {
	case imaging.JPEG:
		return ".jpg"
	case imaging.GIF:
		return ".gif"
	case imaging.TIFF:
		return ".tif"
	case imaging.BMP:
		return ".bmp"
	}
	return ".png"
}

// MimeType returns the content type for f.
func MimeType(f imaging.Format) string {
	switch f {
	case imaging.JPEG:
		return "image/jpeg"
	case imaging.GIF:
		return "image/gif"
	case imaging.TIFF:
		return "image/tiff"
	case imaging.BMP:
		return "image/bmp"
	}
	return "image/png"
}

// MimeTypeFromFilename returns the content type matching a file's extension.
func MimeTypeFromFilename(name string) string {
	if strings.EqualFold(filepath.Ext(name), ".webp") {
		return "image/webp"
	}
	return MimeType(FormatFromFilename(name))
}

// Encode writes img to w in format f.
func Encode(w io.Writer, img image.Image, f imaging.Format) error {
	if err := imaging.Encode(w, img, f, imaging.JPEGQuality(JPEGQuality)); err != nil {
		return fmt.Errorf("failed to encode %s image: %w", f, err)
	}
	return nil
}

// EncodePNG writes img to w as PNG.
func EncodePNG(w io.Writer, img image.Image) error {
	return Encode(w, img, imaging.PNG)
}

// Save writes img to path, choosing the format from the extension.
func Save(img image.Image, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := Encode(f, img, FormatFromFilename(path)); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}

// EncodeDataURL encodes img as a "data:<mime>;base64,..." string.
func EncodeDataURL(img image.Image, f imaging.Format) (string, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, img, f); err != nil {
		return "", err
	}
	return "data:" + MimeType(f) + ";base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// DecodeDataURL decodes base64 image data, with or without a leading
// "data:<mime>;base64," header.
func DecodeDataURL(s string) (*Decoded, error) {
	if strings.HasPrefix(s, "data:") {
		i := strings.Index(s, ",")
		if i < 0 {
			return nil, fmt.Errorf("%w: malformed data URL", ErrNotImage)
		}
		s = s[i+1:]
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid base64: %v", ErrNotImage, err)
	}
	return DecodeBytes(data)
}
