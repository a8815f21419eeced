// Command tonectl applies tone adjustments to image files from the command line.
//
//	tonectl adjust -brightness 1.2 -contrast 1.1 in.jpg out.jpg
//	tonectl auto in.png out.png
//	tonectl clahe -clip 2 -grid 8 in.png out.png
//	tonectl scurve -intensity 0.5 in.png out.png
//	tonectl histogram -chart hist.png in.png
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"github.com/rs/zerolog"

	"github.com/ironsheep/image-tone/internal/config"
	"github.com/ironsheep/image-tone/internal/logging"
	"github.com/ironsheep/image-tone/internal/version"
)

// app carries what every subcommand needs.
type app struct {
	limits config.Limits
	log    zerolog.Logger
}

func main() {
	showVersion := flag.Bool("version", false, "print version information")

	cfg, err := config.Load(config.OptionsFromEnv())
	if err != nil {
		fmt.Fprintf(os.Stderr, "tonectl: %v\n", err)
		os.Exit(int(subcommands.ExitFailure))
	}
	a := &app{
		limits: cfg.Limits,
		log:    logging.New(os.Stderr, "tonectl", cfg.LogLevel),
	}

	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(subcommands.CommandsCommand(), "")
	subcommands.Register(&adjustCmd{app: a}, "tone")
	subcommands.Register(&autoCmd{app: a}, "tone")
	subcommands.Register(&claheCmd{app: a}, "tone")
	subcommands.Register(&scurveCmd{app: a}, "tone")
	subcommands.Register(&histogramCmd{app: a}, "inspect")

	flag.Parse()
	if *showVersion {
		fmt.Print(version.Banner("tonectl"))
		return
	}

	ctx := context.Background()
	os.Exit(int(subcommands.Execute(ctx)))
}
