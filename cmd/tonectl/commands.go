package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/google/subcommands"

	"github.com/ironsheep/image-tone/internal/config"
	"github.com/ironsheep/image-tone/internal/imaging"
	"github.com/ironsheep/image-tone/internal/tone"
)

// transform reads the <input> argument, runs op on a new session and writes
// the result to the <output> argument.
func (a *app) transform(f *flag.FlagSet, name string, op func(*tone.Session) (*tone.Raster, error)) subcommands.ExitStatus {
	if f.NArg() != 2 {
		fmt.Fprintf(os.Stderr, "usage: tonectl %s [flags] <input> <output>\n", name)
		return subcommands.ExitUsageError
	}
	in, out := f.Arg(0), f.Arg(1)

	d, err := imaging.Open(in)
	if err != nil {
		a.log.Error().Err(err).Str("input", in).Msg("failed to load image")
		return subcommands.ExitFailure
	}

	start := time.Now()
	result, err := op(tone.NewSession(imaging.ToRaster(d.Image)))
	if err != nil {
		a.log.Error().Err(err).Str("operation", name).Msg("adjustment rejected")
		if errors.Is(err, tone.ErrInvalidParameter) || errors.Is(err, config.ErrOutOfRange) {
			return subcommands.ExitUsageError
		}
		return subcommands.ExitFailure
	}

	if err := imaging.Save(imaging.FromRaster(result), out); err != nil {
		a.log.Error().Err(err).Str("output", out).Msg("failed to save image")
		return subcommands.ExitFailure
	}
	a.log.Info().
		Str("operation", name).
		Str("input", in).
		Str("output", out).
		Dur("elapsed", time.Since(start)).
		Msg("image written")
	return subcommands.ExitSuccess
}

type adjustCmd struct {
	*app
	brightness, contrast, saturation float64
}

func (*adjustCmd) Name() string     { return "adjust" }
func (*adjustCmd) Synopsis() string { return "Scale brightness, contrast and saturation" }
func (*adjustCmd) Usage() string {
	return "adjust [-brightness f] [-contrast f] [-saturation f] <input> <output>\n"
}

func (c *adjustCmd) SetFlags(f *flag.FlagSet) {
	f.Float64Var(&c.brightness, "brightness", 1.0, "Brightness factor, 1.0 leaves it unchanged")
	f.Float64Var(&c.contrast, "contrast", 1.0, "Contrast factor about the global mean")
	f.Float64Var(&c.saturation, "saturation", 1.0, "Saturation factor, 0 gives grayscale")
}

func (c *adjustCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	adj := tone.Adjustments{Brightness: c.brightness, Contrast: c.contrast, Saturation: c.saturation}
	return c.transform(f, c.Name(), func(s *tone.Session) (*tone.Raster, error) {
		if err := c.limits.CheckAdjustments(adj.Brightness, adj.Contrast, adj.Saturation); err != nil {
			return nil, err
		}
		return s.Adjust(adj)
	})
}

type autoCmd struct {
	*app
}

func (*autoCmd) Name() string             { return "auto" }
func (*autoCmd) Synopsis() string         { return "Stretch each channel between its 2nd and 98th percentile" }
func (*autoCmd) Usage() string            { return "auto <input> <output>\n" }
func (*autoCmd) SetFlags(f *flag.FlagSet) {}

func (c *autoCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return c.transform(f, c.Name(), func(s *tone.Session) (*tone.Raster, error) {
		return s.AutoLevel()
	})
}

type claheCmd struct {
	*app
	clip       float64
	grid       int
	rows, cols int
}

func (*claheCmd) Name() string     { return "clahe" }
func (*claheCmd) Synopsis() string { return "Adaptive local contrast equalization" }
func (*claheCmd) Usage() string {
	return "clahe [-clip f] [-grid n | -rows n -cols n] <input> <output>\n"
}

func (c *claheCmd) SetFlags(f *flag.FlagSet) {
	f.Float64Var(&c.clip, "clip", tone.DefaultCLAHEParams.ClipLimit, "Histogram clip limit")
	f.IntVar(&c.grid, "grid", tone.DefaultCLAHEParams.TileRows, "Tiles along each axis")
	f.IntVar(&c.rows, "rows", 0, "Tile rows, overrides -grid")
	f.IntVar(&c.cols, "cols", 0, "Tile columns, overrides -grid")
}

func (c *claheCmd) params() tone.CLAHEParams {
	p := tone.CLAHEParams{ClipLimit: c.clip, TileRows: c.grid, TileCols: c.grid}
	if c.rows > 0 {
		p.TileRows = c.rows
	}
	if c.cols > 0 {
		p.TileCols = c.cols
	}
	return p
}

func (c *claheCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	p := c.params()
	return c.transform(f, c.Name(), func(s *tone.Session) (*tone.Raster, error) {
		if err := c.limits.CheckCLAHE(p.ClipLimit, p.TileRows); err != nil {
			return nil, err
		}
		if err := c.limits.TileGrid.Check("cols", p.TileCols); err != nil {
			return nil, err
		}
		return s.CLAHE(p)
	})
}

type scurveCmd struct {
	*app
	intensity float64
}

func (*scurveCmd) Name() string     { return "scurve" }
func (*scurveCmd) Synopsis() string { return "Apply an S-shaped tone curve" }
func (*scurveCmd) Usage() string    { return "scurve [-intensity f] <input> <output>\n" }

func (c *scurveCmd) SetFlags(f *flag.FlagSet) {
	f.Float64Var(&c.intensity, "intensity", 0.5, "Curve strength, 0 leaves the image unchanged")
}

func (c *scurveCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return c.transform(f, c.Name(), func(s *tone.Session) (*tone.Raster, error) {
		if err := c.limits.CheckIntensity(c.intensity); err != nil {
			return nil, err
		}
		return s.SCurve(c.intensity)
	})
}

type histogramCmd struct {
	*app
	asJSON bool
	chart  string
}

func (*histogramCmd) Name() string     { return "histogram" }
func (*histogramCmd) Synopsis() string { return "Print per-channel histogram statistics" }
func (*histogramCmd) Usage() string    { return "histogram [-json] [-chart out.png] <input>\n" }

func (c *histogramCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.asJSON, "json", false, "Print the full 256-bin histogram as JSON")
	f.StringVar(&c.chart, "chart", "", "Also render the histogram as a PNG chart to this file")
}

func (c *histogramCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprint(os.Stderr, "usage: tonectl "+c.Usage())
		return subcommands.ExitUsageError
	}
	d, err := imaging.Open(f.Arg(0))
	if err != nil {
		c.log.Error().Err(err).Str("input", f.Arg(0)).Msg("failed to load image")
		return subcommands.ExitFailure
	}
	table := tone.Histogram(imaging.ToRaster(d.Image))

	if c.chart != "" {
		chart := imaging.RenderHistogram(table, imaging.ChartWidth, imaging.ChartHeight)
		if err := imaging.Save(chart, c.chart); err != nil {
			c.log.Error().Err(err).Str("output", c.chart).Msg("failed to save chart")
			return subcommands.ExitFailure
		}
	}

	if c.asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		err = enc.Encode(map[string]interface{}{
			"histogram": table,
			"stats":     tone.Summarize(table),
		})
	} else {
		err = writeStats(os.Stdout, table)
	}
	if err != nil {
		c.log.Error().Err(err).Msg("failed to write output")
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// writeStats prints one aligned line of statistics per channel.
func writeStats(w io.Writer, table tone.HistogramTable) error {
	stats := tone.Summarize(table)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "channel\tmin\tmax\tmean\tstd\tmedian\tp2\tp98\t")
	for _, name := range tone.ChannelNames(len(table)) {
		s := stats[name]
		fmt.Fprintf(tw, "%s\t%d\t%d\t%.2f\t%.2f\t%.1f\t%.2f\t%.2f\t\n",
			name, s.Min, s.Max, s.Mean, s.StdDev, s.Median, s.P2, s.P98)
	}
	return tw.Flush()
}
