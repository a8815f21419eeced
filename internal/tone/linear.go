package tone

import (
	"github.com/anthonynsimon/bild/parallel"
)

// ITU-R BT.601 luma weights, the same weights used to desaturate.
const (
	lumaR = 0.299
	lumaG = 0.587
	lumaB = 0.114
)

// Adjustments groups the three linear enhancement factors. 1.0 leaves the
// image unchanged for each of them.
type Adjustments struct {
	Brightness float64 `json:"brightness" yaml:"brightness"`
	Contrast   float64 `json:"contrast" yaml:"contrast"`
	Saturation float64 `json:"saturation" yaml:"saturation"`
}

// NoAdjustments is the identity setting.
var NoAdjustments = Adjustments{Brightness: 1, Contrast: 1, Saturation: 1}

// Validate checks every factor without touching any pixels.
func (a Adjustments) Validate() error {
	if err := validateFactor("brightness", a.Brightness); err != nil {
		return err
	}
	if err := validateFactor("contrast", a.Contrast); err != nil {
		return err
	}
	return validateFactor("saturation", a.Saturation)
}

// Brightness blends src with a black image: out = src * factor.
//
// A factor of 0 produces an all-black raster and 1 returns an exact copy.
// Values above 1 brighten, saturating at 255.
func Brightness(src *Raster, factor float64) (*Raster, error) {
	if err := validateFactor("brightness", factor); err != nil {
		return nil, err
	}
	var lut [256]uint8
	for v := range lut {
		lut[v] = clampRound(float64(v) * factor)
	}
	return mapSamples(src, lut), nil
}

// Contrast blends src with a flat image at its mean: out = mean + factor*(src-mean).
//
// The mean is a single global value taken over every sample of every channel,
// not a per-channel mean. A factor of 0 yields a flat raster at round(mean).
func Contrast(src *Raster, factor float64) (*Raster, error) {
	if err := validateFactor("contrast", factor); err != nil {
		return nil, err
	}
	mean := GlobalMean(src)
	var lut [256]uint8
	for v := range lut {
		lut[v] = clampRound(mean + factor*(float64(v)-mean))
	}
	return mapSamples(src, lut), nil
}

// GlobalMean returns the arithmetic mean over all samples of all channels.
func GlobalMean(r *Raster) float64 {
	var sum uint64
	for _, v := range r.Pix {
		sum += uint64(v)
	}
	return float64(sum) / float64(len(r.Pix))
}

// Saturation blends each pixel with its own luma: out = gray + factor*(src-gray).
//
// Grayscale rasters have no chroma, so they are returned unchanged (as a copy).
func Saturation(src *Raster, factor float64) (*Raster, error) {
	if err := validateFactor("saturation", factor); err != nil {
		return nil, err
	}
	if src.channels != 3 {
		return src.Clone(), nil
	}
	dst := &Raster{
		Pix:      make([]uint8, len(src.Pix)),
		height:   src.height,
		width:    src.width,
		channels: src.channels,
	}
	stride := src.Stride()
	parallel.Line(src.height, func(start, end int) {
		for i := start * stride; i < end*stride; i += 3 {
			r := float64(src.Pix[i])
			g := float64(src.Pix[i+1])
			b := float64(src.Pix[i+2])
			gray := lumaR*r + lumaG*g + lumaB*b
			dst.Pix[i] = clampRound(gray + factor*(r-gray))
			dst.Pix[i+1] = clampRound(gray + factor*(g-gray))
			dst.Pix[i+2] = clampRound(gray + factor*(b-gray))
		}
	})
	return dst, nil
}

// Adjust applies Brightness, Contrast and Saturation in that order. All
// factors are validated before any work is done.
func Adjust(src *Raster, a Adjustments) (*Raster, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	out, err := Brightness(src, a.Brightness)
	if err != nil {
		return nil, err
	}
	if out, err = Contrast(out, a.Contrast); err != nil {
		return nil, err
	}
	return Saturation(out, a.Saturation)
}
