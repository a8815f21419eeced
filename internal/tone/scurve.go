package tone

import (
	"fmt"
	"math"
)

// SCurve maps every sample through a piecewise power curve pivoting at the
// midtone. With x = v/255 and k = intensity:
//
//	x <  0.5: f(x) = 0.5 * (x/0.5)^(1/(1+k))
//	x >= 0.5: f(x) = 0.5 + 0.5 * ((x-0.5)/0.5)^(1+k)
//
// k = 0 is the identity. For every k the endpoints and the midpoint stay fixed.
// Each channel goes through the same curve independently.
func SCurve(src *Raster, intensity float64) (*Raster, error) {
	if math.IsNaN(intensity) || math.IsInf(intensity, 0) || intensity < 0 {
		return nil, fmt.Errorf("%w: s-curve intensity must be a finite value >= 0, got %v",
			ErrInvalidParameter, intensity)
	}
	return mapSamples(src, sCurveLUT(intensity)), nil
}

func sCurveLUT(intensity float64) [256]uint8 {
	var lut [256]uint8
	for v := range lut {
		lut[v] = clampRound(255 * sCurve(float64(v)/255, intensity))
	}
	return lut
}

func sCurve(x, k float64) float64 {
	if x < 0.5 {
		return 0.5 * math.Pow(x/0.5, 1/(1+k))
	}
	return 0.5 + 0.5*math.Pow((x-0.5)/0.5, 1+k)
}
