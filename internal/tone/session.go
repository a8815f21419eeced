package tone

import "fmt"

// Source selects which buffer of a session a read operation looks at.
type Source int

const (
	// Working is the buffer transforms write to.
	Working Source = iota
	// Original is the buffer captured when the session was created.
	Original
)

// String returns "working" or "original".
func (s Source) String() string {
	if s == Original {
		return "original"
	}
	return "working"
}

// ParseSource converts "original" or "working" (or "") to a Source.
func ParseSource(s string) (Source, error) {
	switch s {
	case "", "working", "processed":
		return Working, nil
	case "original":
		return Original, nil
	}
	return Working, fmt.Errorf("%w: unknown source %q", ErrInvalidParameter, s)
}

// Session holds an original raster and a working copy that successive
// transforms modify in place.
//
// A Session is not safe for concurrent use. Independent sessions share no
// state and may be used from different goroutines freely.
type Session struct {
	original *Raster
	working  *Raster
}

// NewSession starts a session from src. Both buffers are deep copies; later
// changes to src do not affect the session.
func NewSession(src *Raster) *Session {
	return &Session{
		original: src.Clone(),
		working:  src.Clone(),
	}
}

// Original returns a copy of the original buffer.
func (s *Session) Original() *Raster { return s.original.Clone() }

// Working returns the working buffer. The raster aliases session state and is
// changed by the next transform or Reset.
func (s *Session) Working() *Raster { return s.working }

// Snapshot returns an independent copy of the working buffer.
func (s *Session) Snapshot() *Raster { return s.working.Clone() }

// Reset discards all transforms by copying the original back into the working
// buffer.
func (s *Session) Reset() *Raster {
	copy(s.working.Pix, s.original.Pix)
	return s.working
}

// commit copies a fully computed result into the working buffer.
func (s *Session) commit(out *Raster, err error) (*Raster, error) {
	if err != nil {
		return nil, err
	}
	if err := s.working.CopyFrom(out); err != nil {
		return nil, err
	}
	return s.working, nil
}

// Brightness scales the working buffer by factor.
func (s *Session) Brightness(factor float64) (*Raster, error) {
	return s.commit(Brightness(s.working, factor))
}

// Contrast stretches the working buffer around its global mean.
func (s *Session) Contrast(factor float64) (*Raster, error) {
	return s.commit(Contrast(s.working, factor))
}

// Saturation scales the chroma of the working buffer.
func (s *Session) Saturation(factor float64) (*Raster, error) {
	return s.commit(Saturation(s.working, factor))
}

// AdjustBrightnessContrast applies brightness then contrast. Both factors are
// checked first, so an invalid contrast leaves the buffer untouched.
func (s *Session) AdjustBrightnessContrast(brightness, contrast float64) (*Raster, error) {
	a := Adjustments{Brightness: brightness, Contrast: contrast, Saturation: 1}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	out, err := Brightness(s.working, brightness)
	if err != nil {
		return nil, err
	}
	return s.commit(Contrast(out, contrast))
}

// Adjust applies brightness, contrast and saturation in that order.
func (s *Session) Adjust(a Adjustments) (*Raster, error) {
	return s.commit(Adjust(s.working, a))
}

// AutoLevel stretches every channel of the working buffer to the full range.
func (s *Session) AutoLevel() (*Raster, error) {
	return s.commit(AutoLevel(s.working), nil)
}

// CLAHE applies adaptive local contrast equalization.
func (s *Session) CLAHE(p CLAHEParams) (*Raster, error) {
	return s.commit(CLAHE(s.working, p))
}

// SCurve applies the midtone tone curve.
func (s *Session) SCurve(intensity float64) (*Raster, error) {
	return s.commit(SCurve(s.working, intensity))
}

// Histogram returns the histogram of the selected buffer.
func (s *Session) Histogram(src Source) HistogramTable {
	if src == Original {
		return Histogram(s.original)
	}
	return Histogram(s.working)
}
