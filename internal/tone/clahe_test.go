package tone

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/stat"
)

// grayGradient is a low contrast horizontal ramp from 100 to 115.
func grayGradient(t *testing.T, channels int) *Raster {
	t.Helper()
	return gradientRaster(t, 64, 64, channels, func(y, x, c int) uint8 { return uint8(100 + x/4) })
}

func stdDev(r *Raster) float64 {
	samples := make([]float64, len(r.Pix))
	for i, v := range r.Pix {
		samples[i] = float64(v)
	}
	_, sd := stat.PopMeanStdDev(samples, nil)
	return sd
}

func TestCLAHEParams_Validate(t *testing.T) {
	tests := []struct {
		name    string
		params  CLAHEParams
		wantErr bool
	}{
		{"defaults", DefaultCLAHEParams, false},
		{"single tile", CLAHEParams{ClipLimit: 1, TileRows: 1, TileCols: 1}, false},
		{"one tile per pixel", CLAHEParams{ClipLimit: 1, TileRows: 16, TileCols: 20}, false},
		{"zero clip", CLAHEParams{ClipLimit: 0, TileRows: 8, TileCols: 8}, true},
		{"negative clip", CLAHEParams{ClipLimit: -2, TileRows: 8, TileCols: 8}, true},
		{"nan clip", CLAHEParams{ClipLimit: math.NaN(), TileRows: 8, TileCols: 8}, true},
		{"zero rows", CLAHEParams{ClipLimit: 2, TileRows: 0, TileCols: 8}, true},
		{"zero cols", CLAHEParams{ClipLimit: 2, TileRows: 8, TileCols: 0}, true},
		{"rows exceed height", CLAHEParams{ClipLimit: 2, TileRows: 17, TileCols: 8}, true},
		{"cols exceed width", CLAHEParams{ClipLimit: 2, TileRows: 8, TileCols: 21}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.params.Validate(16, 20)
			if tt.wantErr && !errors.Is(err, ErrInvalidParameter) {
				t.Errorf("got %v, want ErrInvalidParameter", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestCLAHE_InvalidParamsLeaveSourceAlone(t *testing.T) {
	src := grayGradient(t, 1)
	before := src.Clone()
	if _, err := CLAHE(src, CLAHEParams{ClipLimit: 2, TileRows: 65, TileCols: 2}); !errors.Is(err, ErrInvalidParameter) {
		t.Fatalf("got %v, want ErrInvalidParameter", err)
	}
	assertPix(t, src, before.Pix...)
}

func TestCLAHE_ClipLimitControlsBoost(t *testing.T) {
	src := grayGradient(t, 1)

	low, err := CLAHE(src, CLAHEParams{ClipLimit: 0.1, TileRows: 2, TileCols: 2})
	if err != nil {
		t.Fatalf("CLAHE failed: %v", err)
	}
	high, err := CLAHE(src, CLAHEParams{ClipLimit: 10, TileRows: 2, TileCols: 2})
	if err != nil {
		t.Fatalf("CLAHE failed: %v", err)
	}

	base, lo, hi := stdDev(src), stdDev(low), stdDev(high)
	if !(lo < hi) {
		t.Errorf("stddev: low clip %.2f should be below high clip %.2f", lo, hi)
	}
	if !(hi > base) {
		t.Errorf("stddev: high clip %.2f should exceed source %.2f", hi, base)
	}
}

func TestCLAHE_PreservesShape(t *testing.T) {
	for _, channels := range []int{1, 3} {
		src := gradientRaster(t, 37, 23, channels, func(y, x, c int) uint8 { return uint8(y*5 + x*3 + c) })
		got, err := CLAHE(src, CLAHEParams{ClipLimit: 2, TileRows: 5, TileCols: 3})
		if err != nil {
			t.Fatalf("CLAHE(%d channels) failed: %v", channels, err)
		}
		if !got.SameShape(src) {
			t.Errorf("%d channels: got %dx%dx%d", channels, got.Height(), got.Width(), got.Channels())
		}
	}
}

func TestCLAHE_Deterministic(t *testing.T) {
	src := gradientRaster(t, 40, 40, 3, func(y, x, c int) uint8 { return uint8((x*7 + y*11 + c*50) % 256) })
	a, err := CLAHE(src, DefaultCLAHEParams)
	if err != nil {
		t.Fatalf("CLAHE failed: %v", err)
	}
	b, err := CLAHE(src, DefaultCLAHEParams)
	if err != nil {
		t.Fatalf("CLAHE failed: %v", err)
	}
	assertPix(t, b, a.Pix...)
}

func TestCLAHE_NeutralColorsStayNeutral(t *testing.T) {
	got, err := CLAHE(grayGradient(t, 3), CLAHEParams{ClipLimit: 4, TileRows: 4, TileCols: 4})
	if err != nil {
		t.Fatalf("CLAHE failed: %v", err)
	}
	for i := 0; i < len(got.Pix); i += 3 {
		r, g, b := int(got.Pix[i]), int(got.Pix[i+1]), int(got.Pix[i+2])
		if abs(r-g) > 1 || abs(g-b) > 1 {
			t.Fatalf("pixel %d: got (%d,%d,%d), want a neutral gray", i/3, r, g, b)
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func TestTileBounds(t *testing.T) {
	got := tileBounds(10, 3)
	want := []int{0, 3, 6, 10}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestNeighbours(t *testing.T) {
	tests := []struct {
		pos, tiles int
		size       float64
		i0, i1     int
		weight     float64
	}{
		{0, 4, 10, 0, 0, 0.55},
		{15, 4, 10, 1, 2, 0.05},
		{39, 4, 10, 3, 3, 0.45},
		{5, 1, 10, 0, 0, 0.05},
	}
	for _, tt := range tests {
		i0, i1, w := neighbours(tt.pos, tt.size, tt.tiles)
		if i0 != tt.i0 || i1 != tt.i1 {
			t.Errorf("neighbours(%d): got (%d,%d), want (%d,%d)", tt.pos, i0, i1, tt.i0, tt.i1)
		}
		if math.Abs(w-tt.weight) > 1e-9 {
			t.Errorf("neighbours(%d): weight got %v, want %v", tt.pos, w, tt.weight)
		}
	}
}
