package tone

// Percentiles used by AutoLevel to pick the black and white points.
const (
	autoLevelLow  = 2.0
	autoLevelHigh = 98.0
)

// AutoLevel stretches each channel independently so that its 2nd percentile
// maps to 0 and its 98th percentile maps to 255:
//
//	out = (in - p2) / (p98 - p2) * 255
//
// Channels whose percentile spread is below one intensity level are passed
// through unchanged, so flat images come back identical instead of producing
// a division by zero.
func AutoLevel(src *Raster) *Raster {
	bins := channelHistograms(src)
	luts := make([][256]uint8, src.channels)
	for c := range bins {
		luts[c] = stretchLUT(&bins[c])
	}
	return mapChannels(src, luts)
}

func stretchLUT(hist *[256]int) [256]uint8 {
	low := percentile(hist, autoLevelLow)
	high := percentile(hist, autoLevelHigh)
	if high-low < 1 {
		return identityLUT()
	}
	var lut [256]uint8
	for v := range lut {
		lut[v] = clampRound((float64(v) - low) / (high - low) * 255)
	}
	return lut
}
