package tone

import (
	"fmt"
	"math"

	"github.com/anthonynsimon/bild/parallel"
	colorful "github.com/lucasb-eyer/go-colorful"
)

// CLAHEParams configures contrast-limited adaptive histogram equalization.
type CLAHEParams struct {
	// ClipLimit bounds how far any histogram bin of a tile may rise above the
	// uniform level before the excess is redistributed. Must be positive.
	ClipLimit float64 `json:"clip_limit" yaml:"clip_limit"`

	// TileRows and TileCols give the grid of regions equalized independently.
	// Each must be at least 1 and at most the image size along its axis.
	TileRows int `json:"tile_rows" yaml:"tile_rows"`
	TileCols int `json:"tile_cols" yaml:"tile_cols"`
}

// DefaultCLAHEParams matches the usual 2.0 clip limit on an 8x8 grid.
var DefaultCLAHEParams = CLAHEParams{ClipLimit: 2.0, TileRows: 8, TileCols: 8}

// Validate checks the parameters against an image of the given size.
func (p CLAHEParams) Validate(height, width int) error {
	if math.IsNaN(p.ClipLimit) || math.IsInf(p.ClipLimit, 0) || p.ClipLimit <= 0 {
		return fmt.Errorf("%w: clip limit must be a finite value > 0, got %v", ErrInvalidParameter, p.ClipLimit)
	}
	if p.TileRows < 1 || p.TileRows > height {
		return fmt.Errorf("%w: tile rows must be in [1, %d], got %d", ErrInvalidParameter, height, p.TileRows)
	}
	if p.TileCols < 1 || p.TileCols > width {
		return fmt.Errorf("%w: tile columns must be in [1, %d], got %d", ErrInvalidParameter, width, p.TileCols)
	}
	return nil
}

// CLAHE equalizes local contrast tile by tile.
//
// # Algorithm
//
//  1. RGB rasters are converted to CIE L*a*b* (D65) and only L* is equalized,
//     which keeps hue and chroma. Grayscale rasters are equalized directly.
//  2. The luminance plane is split into TileRows x TileCols regions. Each
//     region gets a 256-bin histogram clipped at max(1, ClipLimit*area/256);
//     the clipped excess is spread evenly over all bins and the remainder is
//     handed out one count at a time at a regular stride.
//  3. The cumulative histogram of each tile becomes a lookup table. Every
//     pixel is mapped through a bilinear blend of the tables of the four
//     nearest tile centres, so tile borders leave no seams.
//  4. The equalized L* is recombined with the original a* and b* and
//     converted back to sRGB, clamping out-of-gamut results.
func CLAHE(src *Raster, p CLAHEParams) (*Raster, error) {
	if err := p.Validate(src.height, src.width); err != nil {
		return nil, err
	}
	if src.channels == 1 {
		eq := equalizePlane(src.Pix, src.height, src.width, p)
		return RasterFromPix(src.height, src.width, 1, eq)
	}

	n := src.height * src.width
	lum := make([]uint8, n)
	chromaA := make([]float64, n)
	chromaB := make([]float64, n)
	w := src.width
	parallel.Line(src.height, func(start, end int) {
		for i := start * w; i < end*w; i++ {
			col := colorful.Color{
				R: float64(src.Pix[3*i]) / 255,
				G: float64(src.Pix[3*i+1]) / 255,
				B: float64(src.Pix[3*i+2]) / 255,
			}
			l, a, b := col.Lab()
			lum[i] = clampRound(l * 255)
			chromaA[i] = a
			chromaB[i] = b
		}
	})

	eq := equalizePlane(lum, src.height, src.width, p)

	dst, err := NewRaster(src.height, src.width, 3)
	if err != nil {
		return nil, err
	}
	parallel.Line(src.height, func(start, end int) {
		for i := start * w; i < end*w; i++ {
			r, g, b := colorful.Lab(float64(eq[i])/255, chromaA[i], chromaB[i]).Clamped().RGB255()
			dst.Pix[3*i] = r
			dst.Pix[3*i+1] = g
			dst.Pix[3*i+2] = b
		}
	})
	return dst, nil
}

// equalizePlane runs clipped tile equalization with bilinear blending over a
// single height x width plane and returns a new plane.
func equalizePlane(plane []uint8, height, width int, p CLAHEParams) []uint8 {
	rows, cols := p.TileRows, p.TileCols
	yb := tileBounds(height, rows)
	xb := tileBounds(width, cols)

	luts := make([][256]uint8, rows*cols)
	for ty := 0; ty < rows; ty++ {
		for tx := 0; tx < cols; tx++ {
			luts[ty*cols+tx] = tileLUT(plane, width, xb[tx], xb[tx+1], yb[ty], yb[ty+1], p.ClipLimit)
		}
	}

	tileH := float64(height) / float64(rows)
	tileW := float64(width) / float64(cols)

	// Horizontal neighbours and weights are the same for every row.
	left := make([]int, width)
	right := make([]int, width)
	wx := make([]float64, width)
	for x := 0; x < width; x++ {
		left[x], right[x], wx[x] = neighbours(x, tileW, cols)
	}

	out := make([]uint8, len(plane))
	parallel.Line(height, func(start, end int) {
		for y := start; y < end; y++ {
			top, bottom, wy := neighbours(y, tileH, rows)
			for x := 0; x < width; x++ {
				v := plane[y*width+x]
				tl := float64(luts[top*cols+left[x]][v])
				tr := float64(luts[top*cols+right[x]][v])
				bl := float64(luts[bottom*cols+left[x]][v])
				br := float64(luts[bottom*cols+right[x]][v])
				upper := tl*(1-wx[x]) + tr*wx[x]
				lower := bl*(1-wx[x]) + br*wx[x]
				out[y*width+x] = clampRound(upper*(1-wy) + lower*wy)
			}
		}
	})
	return out
}

// tileBounds splits n pixels into parts contiguous ranges; range i is
// [b[i], b[i+1]). Every range is non-empty when parts <= n.
func tileBounds(n, parts int) []int {
	b := make([]int, parts+1)
	for i := range b {
		b[i] = i * n / parts
	}
	return b
}

// neighbours returns the two tiles whose centres bracket pixel pos along one
// axis, and the weight of the second. Pixels outside the outermost centres
// clamp to the edge tile.
func neighbours(pos int, tileSize float64, tiles int) (int, int, float64) {
	f := (float64(pos)+0.5)/tileSize - 0.5
	i0 := int(math.Floor(f))
	weight := f - float64(i0)
	i1 := i0 + 1
	if i0 < 0 {
		i0 = 0
	}
	if i1 > tiles-1 {
		i1 = tiles - 1
	}
	if i0 > tiles-1 {
		i0 = tiles - 1
	}
	return i0, i1, weight
}

// tileLUT builds the clipped-histogram equalization table of one tile.
func tileLUT(plane []uint8, width, x0, x1, y0, y1 int, clipLimit float64) [256]uint8 {
	var hist [256]int
	for y := y0; y < y1; y++ {
		row := plane[y*width+x0 : y*width+x1]
		for _, v := range row {
			hist[v]++
		}
	}
	area := (x1 - x0) * (y1 - y0)

	clip := int(clipLimit * float64(area) / 256)
	if clip < 1 {
		clip = 1
	}
	excess := 0
	for i := range hist {
		if hist[i] > clip {
			excess += hist[i] - clip
			hist[i] = clip
		}
	}
	batch := excess / 256
	residual := excess - batch*256
	for i := range hist {
		hist[i] += batch
	}
	if residual > 0 {
		step := 256 / residual
		if step < 1 {
			step = 1
		}
		for i := 0; i < 256 && residual > 0; i += step {
			hist[i]++
			residual--
		}
	}

	var lut [256]uint8
	scale := 255 / float64(area)
	sum := 0
	for i, c := range hist {
		sum += c
		lut[i] = clampRound(float64(sum) * scale)
	}
	return lut
}
