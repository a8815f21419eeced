package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// PreviewResult contains a downscaled PNG rendition of an image
type PreviewResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// Preview shrinks img to fit within maxSize x maxSize, keeping the aspect
// ratio. Images that already fit, or a non-positive maxSize, are returned as is.
func Preview(img image.Image, maxSize int) image.Image {
	b := img.Bounds()
	if maxSize <= 0 || (b.Dx() <= maxSize && b.Dy() <= maxSize) {
		return img
	}
	return imaging.Fit(img, maxSize, maxSize, imaging.Lanczos)
}

// PreviewPNG returns a base64 PNG preview of img no larger than maxSize.
func PreviewPNG(img image.Image, maxSize int) (*PreviewResult, error) {
	small := Preview(img, maxSize)

	var buf bytes.Buffer
	if err := Encode(&buf, small, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode preview: %w", err)
	}

	return &PreviewResult{
		Width:       small.Bounds().Dx(),
		Height:      small.Bounds().Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}
