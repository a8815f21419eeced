package tone

import (
	"fmt"
	"math"

	"github.com/anthonynsimon/bild/math/f64"
	"github.com/anthonynsimon/bild/parallel"
)

// Raster is an owned height x width x channels array of 8-bit samples.
//
// Samples are stored row-major and interleaved: sample (y, x, c) lives at
// Pix[(y*width+x)*channels+c]. The shape is fixed at construction; transforms
// read and write Pix but never change its length.
type Raster struct {
	// Pix holds the samples. Callers may read and write values but must not
	// reslice or replace it.
	Pix []uint8

	height   int
	width    int
	channels int
}

// NewRaster allocates a zeroed raster of the given shape.
//
// Returns an error wrapping ErrInvalidParameter if either dimension is not
// positive or channels is not 1 (grayscale) or 3 (RGB).
func NewRaster(height, width, channels int) (*Raster, error) {
	if err := validateShape(height, width, channels); err != nil {
		return nil, err
	}
	return &Raster{
		Pix:      make([]uint8, height*width*channels),
		height:   height,
		width:    width,
		channels: channels,
	}, nil
}

// RasterFromPix wraps pix as a raster of the given shape. The raster takes
// ownership of pix; the caller must not retain it.
func RasterFromPix(height, width, channels int, pix []uint8) (*Raster, error) {
	if err := validateShape(height, width, channels); err != nil {
		return nil, err
	}
	if len(pix) != height*width*channels {
		return nil, fmt.Errorf("%w: %d samples for a %dx%dx%d raster",
			ErrShapeMismatch, len(pix), height, width, channels)
	}
	return &Raster{Pix: pix, height: height, width: width, channels: channels}, nil
}

func validateShape(height, width, channels int) error {
	if height <= 0 || width <= 0 {
		return fmt.Errorf("%w: raster dimensions must be positive, got %dx%d", ErrInvalidParameter, height, width)
	}
	if channels != 1 && channels != 3 {
		return fmt.Errorf("%w: raster must have 1 or 3 channels, got %d", ErrInvalidParameter, channels)
	}
	return nil
}

// Height returns the number of rows.
func (r *Raster) Height() int { return r.height }

// Width returns the number of columns.
func (r *Raster) Width() int { return r.width }

// Channels returns 1 for grayscale or 3 for RGB.
func (r *Raster) Channels() int { return r.channels }

// Stride returns the number of samples in one row.
func (r *Raster) Stride() int { return r.width * r.channels }

// Row returns the samples of row y. The slice aliases Pix.
func (r *Raster) Row(y int) []uint8 {
	s := r.Stride()
	return r.Pix[y*s : (y+1)*s]
}

// At returns sample (y, x, c).
func (r *Raster) At(y, x, c int) uint8 {
	return r.Pix[(y*r.width+x)*r.channels+c]
}

// Set stores v as sample (y, x, c).
func (r *Raster) Set(y, x, c int, v uint8) {
	r.Pix[(y*r.width+x)*r.channels+c] = v
}

// SameShape reports whether r and o have identical height, width and channels.
func (r *Raster) SameShape(o *Raster) bool {
	return r.height == o.height && r.width == o.width && r.channels == o.channels
}

// Clone returns an independent deep copy of r.
func (r *Raster) Clone() *Raster {
	pix := make([]uint8, len(r.Pix))
	copy(pix, r.Pix)
	return &Raster{Pix: pix, height: r.height, width: r.width, channels: r.channels}
}

// CopyFrom overwrites the samples of r with those of src. The rasters must
// have the same shape; nothing is copied otherwise.
func (r *Raster) CopyFrom(src *Raster) error {
	if !r.SameShape(src) {
		return fmt.Errorf("%w: cannot copy %dx%dx%d into %dx%dx%d", ErrShapeMismatch,
			src.height, src.width, src.channels, r.height, r.width, r.channels)
	}
	copy(r.Pix, src.Pix)
	return nil
}

// Plane extracts channel c as a contiguous height*width slice.
func (r *Raster) Plane(c int) []uint8 {
	plane := make([]uint8, r.height*r.width)
	for i := range plane {
		plane[i] = r.Pix[i*r.channels+c]
	}
	return plane
}

// SetPlane writes plane into channel c. The plane must hold height*width samples.
func (r *Raster) SetPlane(c int, plane []uint8) error {
	if len(plane) != r.height*r.width {
		return fmt.Errorf("%w: plane of %d samples for a %dx%d raster", ErrShapeMismatch,
			len(plane), r.height, r.width)
	}
	for i, v := range plane {
		r.Pix[i*r.channels+c] = v
	}
	return nil
}

// mapChannels returns a new raster where every sample of channel c has been
// replaced by luts[c][sample].
func mapChannels(src *Raster, luts [][256]uint8) *Raster {
	dst := &Raster{
		Pix:      make([]uint8, len(src.Pix)),
		height:   src.height,
		width:    src.width,
		channels: src.channels,
	}
	stride := src.Stride()
	ch := src.channels
	parallel.Line(src.height, func(start, end int) {
		for i := start * stride; i < end*stride; i++ {
			dst.Pix[i] = luts[i%ch][src.Pix[i]]
		}
	})
	return dst
}

// mapSamples applies one lookup table to every channel.
func mapSamples(src *Raster, lut [256]uint8) *Raster {
	luts := make([][256]uint8, src.channels)
	for c := range luts {
		luts[c] = lut
	}
	return mapChannels(src, luts)
}

func identityLUT() [256]uint8 {
	var lut [256]uint8
	for i := range lut {
		lut[i] = uint8(i)
	}
	return lut
}

// clampRound rounds half away from zero and clamps to the 8-bit range.
func clampRound(v float64) uint8 {
	return uint8(f64.Clamp(math.Round(v), 0, 255))
}

// validateFactor rejects negative and non-finite enhancement factors.
func validateFactor(name string, factor float64) error {
	if math.IsNaN(factor) || math.IsInf(factor, 0) || factor < 0 {
		return fmt.Errorf("%w: %s factor must be a finite value >= 0, got %v", ErrInvalidParameter, name, factor)
	}
	return nil
}
