// Package imaging connects encoded image files to the tone engine.
//
// It decodes PNG, JPEG, GIF, WebP, BMP and TIFF input (applying EXIF
// orientation), converts decoded images to and from tone.Raster values, and
// encodes results as files, base64 data URLs or downscaled previews. Output
// formats without an encoder fall back to PNG.
//
// # Channel Layout
//
// Grayscale images (*image.Gray, *image.Gray16) become one channel rasters.
// Every other color model becomes three RGB channels; alpha is dropped, so
// results are always opaque.
//
// # Metadata
//
// ImageInfo reports size, format, mode ("L" or "RGB"), bit depth, alpha and,
// when the file carries EXIF data, the camera model and capture time.
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. All other functions are
// stateless.
package imaging
