// Package tone implements the pixel-level tone-adjustment engine.
//
// The engine operates on Raster values: owned, mutable height x width x channels
// arrays of 8-bit samples with one (grayscale) or three (RGB) channels. It never
// touches the filesystem or the network; callers decode bytes into a Raster,
// run transforms, and encode the result themselves.
//
// # Sessions
//
// A Session holds two rasters: the original, which is never modified after
// construction, and a working copy that every transform mutates in place.
// Reset copies the original back into the working buffer.
//
//	s := tone.NewSession(raster)
//	if _, err := s.AdjustBrightnessContrast(1.2, 1.5); err != nil {
//	    return err
//	}
//	out := s.Working()
//
// # Transforms
//
//   - Brightness, Contrast, Saturation: linear blends against black, the global
//     mean, and per-pixel luminance respectively (1.0 is the identity)
//   - AutoLevel: per-channel 2nd/98th percentile stretch
//   - CLAHE: tile-based contrast-limited adaptive histogram equalization on the
//     L* channel of CIE L*a*b* (or directly on grayscale)
//   - SCurve: piecewise power curve pivoting at the midtone
//   - Histogram: 256-bin counts per channel
//
// # Error Handling
//
// Invalid factors and tile grids are reported with errors wrapping
// ErrInvalidParameter; operations across rasters of different shapes wrap
// ErrShapeMismatch. A failed operation leaves the working buffer untouched.
//
// # Thread Safety
//
// Sessions are independent and may be used from different goroutines, but a
// single Session must not be used concurrently. Transforms split their work by
// rows internally; each worker writes disjoint output rows.
package tone
