package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/openclinic/cdabuild/internal/config"
	"github.com/openclinic/cdabuild/internal/platform/ccd"
	"github.com/openclinic/cdabuild/internal/platform/cda"
	"github.com/openclinic/cdabuild/internal/platform/middleware"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "cdabuild",
		Short: "Clinical document assembly engine",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(generateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the document generation API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func generateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Build a CCD from a patient-data JSON file",
		RunE: func(cmd *cobra.Command, args []string) error {
			input, _ := cmd.Flags().GetString("input")
			output, _ := cmd.Flags().GetString("output")
			compact, _ := cmd.Flags().GetBool("compact")

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			config.Set(cfg)

			var in io.Reader = os.Stdin
			if input != "" && input != "-" {
				f, err := os.Open(input)
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}

			var data ccd.PatientData
			if err := json.NewDecoder(in).Decode(&data); err != nil {
				return fmt.Errorf("decode patient data: %w", err)
			}

			gen := newGenerator(cfg)
			xml, err := gen.GenerateXML(&data, !compact)
			if err != nil {
				return err
			}

			if output != "" && output != "-" {
				return os.WriteFile(output, xml, 0o644)
			}
			_, err = os.Stdout.Write(xml)
			return err
		},
	}
	cmd.Flags().String("input", "-", "Patient data JSON file (- for stdin)")
	cmd.Flags().String("output", "-", "Output XML file (- for stdout)")
	cmd.Flags().Bool("compact", false, "Emit compact XML without indentation")
	return cmd
}

func newGenerator(cfg *config.Config) *ccd.Generator {
	return ccd.NewGenerator(cfg.OrgName, cfg.OrgOID, &ccd.Options{
		Release: cda.Release(cfg.Release),
		Style:   cda.NarrativeStyle(cfg.NarrativeStyle),
	})
}

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	config.Set(cfg)

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))

	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})

	// Document generation
	apiV1 := e.Group("/api/v1")
	handler := ccd.NewHandler(newGenerator(cfg), logger)
	handler.RegisterRoutes(apiV1)

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
