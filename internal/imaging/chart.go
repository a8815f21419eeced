package imaging

import (
	"image"
	"strconv"

	"github.com/fogleman/gg"

	"github.com/ironsheep/image-tone/internal/tone"
)

// Default histogram chart size in pixels.
const (
	ChartWidth  = 512
	ChartHeight = 200
)

const chartMargin = 20

var channelColors = map[string][3]float64{
	tone.ChannelGray:  {0.55, 0.55, 0.55},
	tone.ChannelRed:   {0.94, 0.27, 0.27},
	tone.ChannelGreen: {0.13, 0.77, 0.37},
	tone.ChannelBlue:  {0.23, 0.51, 0.96},
}

// RenderHistogram draws table as overlaid translucent bar series, one per
// channel, on a dark background with quarter grid lines. Bars are scaled to
// the tallest bin of any channel. Non-positive sizes use the defaults.
func RenderHistogram(table tone.HistogramTable, width, height int) image.Image {
	if width <= 0 {
		width = ChartWidth
	}
	if height <= 0 {
		height = ChartHeight
	}

	dc := gg.NewContext(width, height)
	dc.SetRGB(0.12, 0.12, 0.14)
	dc.Clear()

	plotW := float64(width - 2*chartMargin)
	plotH := float64(height - 2*chartMargin)
	left := float64(chartMargin)
	bottom := float64(height - chartMargin)

	// grid
	dc.SetRGBA(1, 1, 1, 0.15)
	dc.SetLineWidth(1)
	for i := 0; i <= 4; i++ {
		x := left + plotW*float64(i)/4
		y := bottom - plotH*float64(i)/4
		dc.DrawLine(x, bottom, x, bottom-plotH)
		dc.DrawLine(left, y, left+plotW, y)
	}
	dc.Stroke()

	peak := 0
	for _, counts := range table {
		for _, c := range counts {
			if c > peak {
				peak = c
			}
		}
	}

	if peak > 0 {
		binW := plotW / 256
		for _, name := range channelOrder(table) {
			rgb := channelColors[name]
			dc.SetRGBA(rgb[0], rgb[1], rgb[2], 0.5)
			for v, c := range table[name] {
				if c == 0 || v > 255 {
					continue
				}
				h := plotH * float64(c) / float64(peak)
				dc.DrawRectangle(left+float64(v)*binW, bottom-h, binW, h)
			}
			dc.Fill()
		}
	}

	dc.SetRGB(0.8, 0.8, 0.8)
	for _, v := range []int{0, 128, 255} {
		x := left + plotW*float64(v)/255
		dc.DrawStringAnchored(strconv.Itoa(v), x, bottom+4, 0.5, 1)
	}

	return dc.Image()
}

// channelOrder lists the channels of table in a stable drawing order.
func channelOrder(table tone.HistogramTable) []string {
	var names []string
	for _, name := range []string{tone.ChannelGray, tone.ChannelRed, tone.ChannelGreen, tone.ChannelBlue} {
		if _, ok := table[name]; ok {
			names = append(names, name)
		}
	}
	return names
}
