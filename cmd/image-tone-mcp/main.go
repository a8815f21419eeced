package main

import (
	"fmt"
	"os"

	"github.com/ironsheep/image-tone/internal/config"
	"github.com/ironsheep/image-tone/internal/logging"
	"github.com/ironsheep/image-tone/internal/server"
	"github.com/ironsheep/image-tone/internal/version"
)

func main() {
	// Handle --version and -v flags
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Print(version.Banner(server.ServerName))
			return
		case "--help", "-h", "help":
			fmt.Println("image-tone-mcp - MCP server for image tone adjustment")
			fmt.Println()
			fmt.Println("Usage: image-tone-mcp [options]")
			fmt.Println()
			fmt.Println("Options:")
			fmt.Println("  --version, -v    Print version information")
			fmt.Println("  --help, -h       Print this help message")
			fmt.Println()
			fmt.Println("Environment variables:")
			fmt.Println("  IMAGE_TONE_LOG_LEVEL=debug         Log level (default info)")
			fmt.Println("  IMAGE_TONE_CONFIG=/path/tone.yaml  Optional YAML configuration")
			fmt.Println("  IMAGE_TONE_PREVIEW_MAX_SIZE=1024   Default preview size in pixels")
			fmt.Println()
			fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
			fmt.Println("Configure it in your MCP client.")
			return
		}
	}

	cfg, err := config.Load(config.OptionsFromEnv())
	if err != nil {
		fmt.Fprintf(os.Stderr, "image-tone-mcp: %v\n", err)
		os.Exit(1)
	}

	// Logs go to stderr; stdout is for the MCP protocol
	logger := logging.New(os.Stderr, server.ServerName, cfg.LogLevel)
	logger.Debug().
		Str("version", version.String()).
		Str("build_time", version.BuildTime).
		Str("commit", version.GitCommit).
		Msg("starting")

	srv := server.New(cfg, logger)
	if err := srv.Run(); err != nil {
		logger.Fatal().Err(err).Msg("server error")
	}
}
