package tone

import (
	"errors"
	"testing"
)

// mustRaster builds a raster from literal samples.
func mustRaster(t *testing.T, height, width, channels int, pix ...uint8) *Raster {
	t.Helper()
	r, err := RasterFromPix(height, width, channels, pix)
	if err != nil {
		t.Fatalf("RasterFromPix failed: %v", err)
	}
	return r
}

// gradientRaster builds a gray or RGB raster whose samples follow fn.
func gradientRaster(t *testing.T, height, width, channels int, fn func(y, x, c int) uint8) *Raster {
	t.Helper()
	r, err := NewRaster(height, width, channels)
	if err != nil {
		t.Fatalf("NewRaster failed: %v", err)
	}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			for c := 0; c < channels; c++ {
				r.Set(y, x, c, fn(y, x, c))
			}
		}
	}
	return r
}

func assertPix(t *testing.T, got *Raster, want ...uint8) {
	t.Helper()
	if len(got.Pix) != len(want) {
		t.Fatalf("sample count: got %d, want %d", len(got.Pix), len(want))
	}
	for i := range want {
		if got.Pix[i] != want[i] {
			t.Fatalf("samples: got %v, want %v", got.Pix, want)
		}
	}
}

func TestNewRaster(t *testing.T) {
	r, err := NewRaster(3, 4, 3)
	if err != nil {
		t.Fatalf("NewRaster failed: %v", err)
	}
	if r.Height() != 3 || r.Width() != 4 || r.Channels() != 3 {
		t.Errorf("shape: got %dx%dx%d, want 3x4x3", r.Height(), r.Width(), r.Channels())
	}
	if len(r.Pix) != 36 {
		t.Errorf("len(Pix): got %d, want 36", len(r.Pix))
	}
	if r.Stride() != 12 {
		t.Errorf("Stride: got %d, want 12", r.Stride())
	}
}

func TestNewRaster_InvalidShape(t *testing.T) {
	tests := []struct {
		name                     string
		height, width, channels int
	}{
		{"zero height", 0, 4, 1},
		{"negative width", 4, -1, 1},
		{"two channels", 4, 4, 2},
		{"four channels", 4, 4, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRaster(tt.height, tt.width, tt.channels)
			if !errors.Is(err, ErrInvalidParameter) {
				t.Errorf("got %v, want ErrInvalidParameter", err)
			}
		})
	}
}

func TestRasterFromPix_LengthMismatch(t *testing.T) {
	_, err := RasterFromPix(2, 2, 1, []uint8{1, 2, 3})
	if !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("got %v, want ErrShapeMismatch", err)
	}
}

func TestRaster_AtSetRow(t *testing.T) {
	r := mustRaster(t, 2, 2, 3,
		1, 2, 3, 4, 5, 6,
		7, 8, 9, 10, 11, 12)
	if got := r.At(1, 0, 2); got != 9 {
		t.Errorf("At(1,0,2): got %d, want 9", got)
	}
	r.Set(0, 1, 1, 99)
	if r.Pix[4] != 99 {
		t.Errorf("Set did not write to Pix[4]: %v", r.Pix)
	}
	row := r.Row(1)
	if len(row) != 6 || row[0] != 7 || row[5] != 12 {
		t.Errorf("Row(1): got %v", row)
	}
}

func TestRaster_CloneIsIndependent(t *testing.T) {
	r := mustRaster(t, 1, 2, 1, 10, 20)
	c := r.Clone()
	c.Pix[0] = 0
	if r.Pix[0] != 10 {
		t.Errorf("modifying clone changed source: %v", r.Pix)
	}
	if !c.SameShape(r) {
		t.Error("clone has a different shape")
	}
}

func TestRaster_CopyFrom(t *testing.T) {
	dst := mustRaster(t, 1, 2, 1, 0, 0)
	if err := dst.CopyFrom(mustRaster(t, 1, 2, 1, 5, 6)); err != nil {
		t.Fatalf("CopyFrom failed: %v", err)
	}
	assertPix(t, dst, 5, 6)

	err := dst.CopyFrom(mustRaster(t, 2, 1, 1, 7, 8))
	if !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("got %v, want ErrShapeMismatch", err)
	}
	assertPix(t, dst, 5, 6)
}

func TestRaster_PlaneRoundTrip(t *testing.T) {
	r := mustRaster(t, 1, 2, 3, 1, 2, 3, 4, 5, 6)
	g := r.Plane(1)
	if len(g) != 2 || g[0] != 2 || g[1] != 5 {
		t.Fatalf("Plane(1): got %v, want [2 5]", g)
	}
	if err := r.SetPlane(2, []uint8{30, 60}); err != nil {
		t.Fatalf("SetPlane failed: %v", err)
	}
	assertPix(t, r, 1, 2, 30, 4, 5, 60)

	if err := r.SetPlane(0, []uint8{1}); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("got %v, want ErrShapeMismatch", err)
	}
}

func TestClampRound(t *testing.T) {
	tests := []struct {
		in   float64
		want uint8
	}{
		{-3, 0},
		{0.49, 0},
		{0.5, 1},
		{1.5, 2},
		{2.5, 3},
		{254.4, 254},
		{254.5, 255},
		{1000, 255},
	}
	for _, tt := range tests {
		if got := clampRound(tt.in); got != tt.want {
			t.Errorf("clampRound(%v): got %d, want %d", tt.in, got, tt.want)
		}
	}
}
