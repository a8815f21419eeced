package tone

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Channel names used as HistogramTable keys.
const (
	ChannelGray  = "gray"
	ChannelRed   = "red"
	ChannelGreen = "green"
	ChannelBlue  = "blue"
)

// HistogramTable maps a channel name to its 256 per-intensity pixel counts.
//
// Grayscale rasters produce a single "gray" entry; RGB rasters produce "red",
// "green" and "blue". Bin i counts the samples whose value is exactly i.
type HistogramTable map[string][]int

// ChannelNames returns the histogram keys for a raster with the given number
// of channels, in channel order.
func ChannelNames(channels int) []string {
	if channels == 1 {
		return []string{ChannelGray}
	}
	return []string{ChannelRed, ChannelGreen, ChannelBlue}
}

// Histogram counts the samples of every channel of r. It never modifies r.
func Histogram(r *Raster) HistogramTable {
	bins := channelHistograms(r)
	names := ChannelNames(r.channels)
	table := make(HistogramTable, len(names))
	for c, name := range names {
		counts := make([]int, 256)
		copy(counts, bins[c][:])
		table[name] = counts
	}
	return table
}

func channelHistograms(r *Raster) [][256]int {
	bins := make([][256]int, r.channels)
	ch := r.channels
	for i, v := range r.Pix {
		bins[i%ch][v]++
	}
	return bins
}

// percentile returns the p-th percentile (0..100) of the samples summarised by
// hist, using linear interpolation between the two nearest order statistics:
// pos = p/100*(n-1), result = s[floor(pos)] + (s[ceil(pos)]-s[floor(pos)])*frac(pos).
func percentile(hist *[256]int, p float64) float64 {
	n := 0
	for _, c := range hist {
		n += c
	}
	if n == 0 {
		return 0
	}
	pos := p / 100 * float64(n-1)
	lo := math.Floor(pos)
	hi := math.Ceil(pos)
	vlo := float64(orderStatistic(hist, int(lo)))
	vhi := float64(orderStatistic(hist, int(hi)))
	return vlo + (vhi-vlo)*(pos-lo)
}

// orderStatistic returns the k-th smallest sample (0-based).
func orderStatistic(hist *[256]int, k int) int {
	seen := 0
	for v, c := range hist {
		seen += c
		if seen > k {
			return v
		}
	}
	return 255
}

// ChannelStats summarises one histogram channel.
type ChannelStats struct {
	Min    int     `json:"min"`
	Max    int     `json:"max"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Median float64 `json:"median"`
	P2     float64 `json:"p2"`
	P98    float64 `json:"p98"`
	Count  int     `json:"count"`
}

// Summarize computes per-channel statistics from a histogram table. Mean and
// standard deviation are population statistics weighted by bin counts;
// percentiles use the same interpolation rule as AutoLevel.
func Summarize(table HistogramTable) map[string]ChannelStats {
	values := make([]float64, 256)
	for v := range values {
		values[v] = float64(v)
	}

	out := make(map[string]ChannelStats, len(table))
	for name, counts := range table {
		var hist [256]int
		weights := make([]float64, 256)
		total := 0
		for v := 0; v < 256 && v < len(counts); v++ {
			hist[v] = counts[v]
			weights[v] = float64(counts[v])
			total += counts[v]
		}
		if total == 0 {
			out[name] = ChannelStats{}
			continue
		}

		s := ChannelStats{Count: total, Min: -1}
		for v, c := range hist {
			if c == 0 {
				continue
			}
			if s.Min < 0 {
				s.Min = v
			}
			s.Max = v
		}
		s.Mean, s.StdDev = stat.PopMeanStdDev(values, weights)
		s.Median = percentile(&hist, 50)
		s.P2 = percentile(&hist, 2)
		s.P98 = percentile(&hist, 98)
		out[name] = s
	}
	return out
}
