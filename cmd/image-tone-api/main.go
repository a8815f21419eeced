package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ironsheep/image-tone/internal/config"
	"github.com/ironsheep/image-tone/internal/httpapi"
	"github.com/ironsheep/image-tone/internal/logging"
	"github.com/ironsheep/image-tone/internal/store"
	"github.com/ironsheep/image-tone/internal/version"
)

const serviceName = "image-tone-api"

// shutdownGrace bounds how long in-flight requests may run after a signal.
const shutdownGrace = 15 * time.Second

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Print(version.Banner(serviceName))
			return
		case "--print-config":
			cfg, err := config.Load(config.OptionsFromEnv())
			if err != nil {
				fmt.Fprintf(os.Stderr, "%s: %v\n", serviceName, err)
				os.Exit(1)
			}
			out, err := cfg.AsYAML()
			if err != nil {
				fmt.Fprintf(os.Stderr, "%s: %v\n", serviceName, err)
				os.Exit(1)
			}
			fmt.Print(out)
			return
		case "--help", "-h", "help":
			fmt.Println("image-tone-api - REST API for image tone adjustment")
			fmt.Println()
			fmt.Println("Usage: image-tone-api [--version | --print-config | --help]")
			fmt.Println()
			fmt.Println("Settings come from IMAGE_TONE_CONFIG (YAML), ./.env and")
			fmt.Println("IMAGE_TONE_* environment variables, e.g. IMAGE_TONE_ADDR=:8000.")
			return
		}
	}

	cfg, err := config.Load(config.OptionsFromEnv())
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", serviceName, err)
		os.Exit(1)
	}
	logger := logging.New(os.Stderr, serviceName, cfg.LogLevel)

	st, err := store.New(cfg.UploadDir, cfg.OutputDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to prepare storage")
	}

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      httpapi.New(cfg, st, logger).Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		logger.Info().
			Str("addr", cfg.Addr).
			Str("version", version.String()).
			Strs("allowed_origins", cfg.AllowedOrigins).
			Msg("listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server error")
		}
	case <-ctx.Done():
		logger.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("graceful shutdown failed")
		}
	}
}
