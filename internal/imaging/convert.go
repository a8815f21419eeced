package imaging

import (
	"image"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/image-tone/internal/tone"
)

// Mode reports "L" for single channel grayscale images and "RGB" otherwise,
// which is also the channel layout ToRaster produces.
func Mode(img image.Image) string {
	switch img.(type) {
	case *image.Gray, *image.Gray16:
		return "L"
	}
	return "RGB"
}

// HasAlpha reports whether any pixel of img is not fully opaque.
func HasAlpha(img image.Image) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return !o.Opaque()
	}
	return false
}

// ToRaster copies img into a tone raster. Grayscale images become one
// channel; everything else becomes three RGB channels with alpha dropped.
func ToRaster(img image.Image) *tone.Raster {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	switch src := img.(type) {
	case *image.Gray:
		r, _ := tone.NewRaster(h, w, 1)
		for y := 0; y < h; y++ {
			i := src.PixOffset(b.Min.X, b.Min.Y+y)
			copy(r.Row(y), src.Pix[i:i+w])
		}
		return r
	case *image.Gray16:
		r, _ := tone.NewRaster(h, w, 1)
		for y := 0; y < h; y++ {
			row := r.Row(y)
			i := src.PixOffset(b.Min.X, b.Min.Y+y)
			for x := range row {
				row[x] = src.Pix[i+2*x]
			}
		}
		return r
	}

	nrgba := imaging.Clone(img)
	r, _ := tone.NewRaster(h, w, 3)
	for y := 0; y < h; y++ {
		row := r.Row(y)
		src := nrgba.Pix[y*nrgba.Stride : y*nrgba.Stride+4*w]
		for x := 0; x < w; x++ {
			row[3*x] = src[4*x]
			row[3*x+1] = src[4*x+1]
			row[3*x+2] = src[4*x+2]
		}
	}
	return r
}

// FromRaster wraps a copy of r as an opaque *image.Gray or *image.NRGBA.
func FromRaster(r *tone.Raster) image.Image {
	w, h := r.Width(), r.Height()
	if r.Channels() == 1 {
		img := image.NewGray(image.Rect(0, 0, w, h))
		for y := 0; y < h; y++ {
			copy(img.Pix[y*img.Stride:y*img.Stride+w], r.Row(y))
		}
		return img
	}

	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		row := r.Row(y)
		dst := img.Pix[y*img.Stride : y*img.Stride+4*w]
		for x := 0; x < w; x++ {
			dst[4*x] = row[3*x]
			dst[4*x+1] = row[3*x+1]
			dst[4*x+2] = row[3*x+2]
			dst[4*x+3] = 0xff
		}
	}
	return img
}
