package imaging

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rwcarlsen/goexif/exif"
)

// ImageCache provides thread-safe caching of decoded images keyed by path.
//
// Once an image is loaded, subsequent Load() calls for the same path return
// the cached copy without disk I/O. Cached images stay in memory until Evict()
// or Clear() removes them.
//
//	cache := imaging.NewImageCache()
//	d, err := cache.Load("/path/to/photo.jpg")
//	if err != nil {
//	    return err
//	}
//	raster := imaging.ToRaster(d.Image)
type ImageCache struct {
	mu     sync.RWMutex
	images map[string]*Decoded
}

// NewImageCache creates an empty image cache.
func NewImageCache() *ImageCache {
	return &ImageCache{
		images: make(map[string]*Decoded),
	}
}

// Load retrieves an image from the cache or decodes it from disk.
//
// The image is cached under the exact path string provided, so a relative
// and an absolute path to the same file are separate entries.
func (c *ImageCache) Load(path string) (*Decoded, error) {
	c.mu.RLock()
	if d, ok := c.images[path]; ok {
		c.mu.RUnlock()
		return d, nil
	}
	c.mu.RUnlock()

	d, err := Open(path)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.images[path] = d
	c.mu.Unlock()

	return d, nil
}

// Len returns the number of cached images.
func (c *ImageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.images)
}

// Clear removes all images from the cache.
func (c *ImageCache) Clear() {
	c.mu.Lock()
	c.images = make(map[string]*Decoded)
	c.mu.Unlock()
}

// Evict removes a specific image from the cache. Unknown paths are ignored.
func (c *ImageCache) Evict(path string) {
	c.mu.Lock()
	delete(c.images, path)
	c.mu.Unlock()
}

// ImageInfo contains metadata about an image file.
type ImageInfo struct {
	// Width is the image width in pixels.
	Width int `json:"width"`

	// Height is the image height in pixels.
	Height int `json:"height"`

	// Format is the format detected from the file contents, e.g. "jpeg".
	Format string `json:"format"`

	// Mode is "L" for grayscale or "RGB" for color.
	Mode string `json:"mode"`

	// ColorDepth indicates the bit depth per channel: "8-bit" or "16-bit".
	ColorDepth string `json:"color_depth"`

	// HasAlpha indicates whether the image has an alpha channel. Alpha is
	// dropped by tone adjustments.
	HasAlpha bool `json:"has_alpha"`

	// FileSizeBytes is the size of the encoded image in bytes.
	FileSizeBytes int64 `json:"file_size_bytes"`

	// CameraModel and CaptureTime come from EXIF data when present.
	CameraModel string     `json:"camera_model,omitempty"`
	CaptureTime *time.Time `json:"capture_time,omitempty"`
}

// LoadImageInfo loads an image through the cache and describes it.
func LoadImageInfo(cache *ImageCache, path string) (*ImageInfo, error) {
	d, err := cache.Load(path)
	if err != nil {
		return nil, err
	}
	return describeFile(d, path)
}

// ReadImageInfo decodes the file at path and describes it without caching.
func ReadImageInfo(path string) (*ImageInfo, error) {
	d, err := Open(path)
	if err != nil {
		return nil, err
	}
	return describeFile(d, path)
}

func describeFile(d *Decoded, path string) (*ImageInfo, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	info := Describe(d, stat.Size())
	if f, err := os.Open(path); err == nil {
		readExif(f, info)
		f.Close()
	}
	return info, nil
}

// DescribeBytes decodes data and describes it, including EXIF metadata.
func DescribeBytes(data []byte) (*ImageInfo, error) {
	d, err := DecodeBytes(data)
	if err != nil {
		return nil, err
	}
	info := Describe(d, int64(len(data)))
	readExif(bytes.NewReader(data), info)
	return info, nil
}

// Describe fills the pixel-level fields of ImageInfo for a decoded image.
func Describe(d *Decoded, size int64) *ImageInfo {
	bounds := d.Image.Bounds()

	colorDepth := "8-bit"
	switch d.Image.(type) {
	case *image.RGBA64, *image.NRGBA64, *image.Gray16:
		colorDepth = "16-bit"
	}

	return &ImageInfo{
		Width:         bounds.Dx(),
		Height:        bounds.Dy(),
		Format:        d.Format,
		Mode:          Mode(d.Image),
		ColorDepth:    colorDepth,
		HasAlpha:      HasAlpha(d.Image),
		FileSizeBytes: size,
	}
}

// readExif adds camera model and capture time to info. Images without EXIF
// data are common, so every failure is ignored.
func readExif(r io.Reader, info *ImageInfo) {
	x, err := exif.Decode(r)
	if err != nil {
		return
	}
	if tag, err := x.Get(exif.Model); err == nil {
		if model, err := tag.StringVal(); err == nil {
			info.CameraModel = model
		}
	}
	if t, err := x.DateTime(); err == nil {
		info.CaptureTime = &t
	}
}
