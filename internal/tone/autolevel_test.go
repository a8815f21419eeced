package tone

import (
	"math"
	"testing"
)

func TestPercentile_LinearRule(t *testing.T) {
	var hist [256]int
	for _, v := range []int{0, 64, 128, 255} {
		hist[v]++
	}
	tests := []struct {
		p    float64
		want float64
	}{
		{0, 0},
		{2, 3.84},
		{50, 96},
		{98, 247.38},
		{100, 255},
	}
	for _, tt := range tests {
		got := percentile(&hist, tt.p)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("percentile(%v): got %v, want %v", tt.p, got, tt.want)
		}
	}
}

func TestPercentile_Empty(t *testing.T) {
	var hist [256]int
	if got := percentile(&hist, 50); got != 0 {
		t.Errorf("got %v, want 0", got)
	}
}

func TestAutoLevel_TwoByTwo(t *testing.T) {
	src := mustRaster(t, 2, 2, 1, 0, 64, 128, 255)
	got := AutoLevel(src)
	assertPix(t, got, 0, 63, 130, 255)
	assertPix(t, src, 0, 64, 128, 255)
}

func TestAutoLevel_FlatImageUnchanged(t *testing.T) {
	src := gradientRaster(t, 5, 7, 3, func(y, x, c int) uint8 { return 77 })
	got := AutoLevel(src)
	assertPix(t, got, src.Pix...)
}

func TestAutoLevel_IdempotentOnStretchedImage(t *testing.T) {
	// 100 samples: ten at 0, ten at 255 and a ramp in between, so the 2nd and
	// 98th percentiles are exactly 0 and 255.
	src := gradientRaster(t, 10, 10, 1, func(y, x, c int) uint8 {
		switch y {
		case 0:
			return 0
		case 9:
			return 255
		}
		return uint8(y*25 + x)
	})
	once := AutoLevel(src)
	assertPix(t, once, src.Pix...)
	twice := AutoLevel(once)
	assertPix(t, twice, once.Pix...)
}

func TestAutoLevel_ChannelsIndependent(t *testing.T) {
	// Red spans 50..150, green is flat, blue already spans the full range.
	src := gradientRaster(t, 1, 101, 3, func(y, x, c int) uint8 {
		switch c {
		case 0:
			return uint8(50 + x)
		case 1:
			return 90
		}
		return uint8(math.Round(float64(x) * 2.55))
	})
	got := AutoLevel(src)

	for x := 0; x < 101; x++ {
		if g := got.At(0, x, 1); g != 90 {
			t.Fatalf("green at x=%d: got %d, want 90", x, g)
		}
	}
	if r := got.At(0, 0, 0); r != 0 {
		t.Errorf("red minimum: got %d, want 0", r)
	}
	if r := got.At(0, 100, 0); r != 255 {
		t.Errorf("red maximum: got %d, want 255", r)
	}
	// p2 = 52, p98 = 148: 76 maps to 24/96*255 = 63.75.
	if r := got.At(0, 26, 0); r != 64 {
		t.Errorf("red at 76: got %d, want 64", r)
	}
}
