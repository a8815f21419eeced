package config

import (
	"errors"
	"fmt"
	"math"
)

// ErrOutOfRange is wrapped by every Limits check failure.
var ErrOutOfRange = errors.New("value out of range")

// Range is an inclusive interval of accepted values.
type Range struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// Check rejects values outside r and non-finite values.
func (r Range) Check(name string, v float64) error {
	if math.IsNaN(v) || v < r.Min || v > r.Max {
		return fmt.Errorf("%w: %s must be between %g and %g, got %g", ErrOutOfRange, name, r.Min, r.Max, v)
	}
	return nil
}

// Clamp limits v to r.
func (r Range) Clamp(v float64) float64 {
	return math.Max(r.Min, math.Min(r.Max, v))
}

// IntRange is an inclusive interval of accepted integers.
type IntRange struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

// Check rejects values outside r.
func (r IntRange) Check(name string, v int) error {
	if v < r.Min || v > r.Max {
		return fmt.Errorf("%w: %s must be between %d and %d, got %d", ErrOutOfRange, name, r.Min, r.Max, v)
	}
	return nil
}

// Limits holds the parameter ranges accepted at the service boundary. The
// tone engine itself only rejects negative or structurally invalid values.
type Limits struct {
	Brightness Range    `yaml:"brightness"`
	Contrast   Range    `yaml:"contrast"`
	Saturation Range    `yaml:"saturation"`
	ClipLimit  Range    `yaml:"clip_limit"`
	TileGrid   IntRange `yaml:"tile_grid"`
	Intensity  Range    `yaml:"intensity"`
}

// DefaultLimits mirrors the ranges of the web front end's sliders.
func DefaultLimits() Limits {
	return Limits{
		Brightness: Range{Min: 0, Max: 3},
		Contrast:   Range{Min: 0, Max: 3},
		Saturation: Range{Min: 0, Max: 3},
		ClipLimit:  Range{Min: 0.1, Max: 10},
		TileGrid:   IntRange{Min: 1, Max: 32},
		Intensity:  Range{Min: 0, Max: 2},
	}
}

// Validate checks that every range is well formed and stays within what
// the engine accepts.
func (l Limits) Validate() error {
	ranges := []struct {
		name     string
		r        Range
		positive bool
	}{
		{"brightness", l.Brightness, false},
		{"contrast", l.Contrast, false},
		{"saturation", l.Saturation, false},
		{"clip_limit", l.ClipLimit, true},
		{"intensity", l.Intensity, false},
	}
	for _, x := range ranges {
		if x.r.Min > x.r.Max || x.r.Min < 0 || math.IsInf(x.r.Max, 0) {
			return fmt.Errorf("limits.%s: invalid range [%g, %g]", x.name, x.r.Min, x.r.Max)
		}
		if x.positive && x.r.Min <= 0 {
			return fmt.Errorf("limits.%s: minimum must be positive, got %g", x.name, x.r.Min)
		}
	}
	if l.TileGrid.Min < 1 || l.TileGrid.Min > l.TileGrid.Max {
		return fmt.Errorf("limits.tile_grid: invalid range [%d, %d]", l.TileGrid.Min, l.TileGrid.Max)
	}
	return nil
}

// CheckAdjustments validates the three linear enhancement factors.
func (l Limits) CheckAdjustments(brightness, contrast, saturation float64) error {
	if err := l.Brightness.Check("brightness", brightness); err != nil {
		return err
	}
	if err := l.Contrast.Check("contrast", contrast); err != nil {
		return err
	}
	return l.Saturation.Check("saturation", saturation)
}

// CheckCLAHE validates a clip limit and square tile grid size.
func (l Limits) CheckCLAHE(clipLimit float64, tileGrid int) error {
	if err := l.ClipLimit.Check("clip_limit", clipLimit); err != nil {
		return err
	}
	return l.TileGrid.Check("tile_grid", tileGrid)
}

// CheckIntensity validates an S-curve intensity.
func (l Limits) CheckIntensity(intensity float64) error {
	return l.Intensity.Check("intensity", intensity)
}
