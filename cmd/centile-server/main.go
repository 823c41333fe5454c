package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/oauth2"

	"github.com/ehr/centile/internal/config"
	"github.com/ehr/centile/internal/domain/birthweight"
	"github.com/ehr/centile/internal/platform/artifact"
	"github.com/ehr/centile/internal/platform/db"
	"github.com/ehr/centile/internal/platform/google"
	"github.com/ehr/centile/internal/platform/imagehost"
	"github.com/ehr/centile/internal/platform/middleware"
	"github.com/ehr/centile/internal/platform/plot"
	"github.com/ehr/centile/internal/platform/tabular"
)

const version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:           "centile-server",
		Short:         "Birthweight centile chart service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(renderCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func renderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Chart the latest measurement once and write the PNG to a file",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, _ := cmd.Flags().GetString("out")
			return runRender(cmd.Context(), out)
		},
	}
	cmd.Flags().String("out", "chart.png", "output PNG path")
	return cmd
}

// newLogger writes JSON lines to w, or console output in development. A nil
// cfg means the configuration could not be loaded.
func newLogger(w io.Writer, cfg *config.Config) zerolog.Logger {
	if cfg != nil && cfg.IsDev() {
		return zerolog.New(zerolog.ConsoleWriter{Out: w}).With().Timestamp().Logger()
	}
	return zerolog.New(w).With().Timestamp().Logger()
}

// app holds everything built from the configuration.
type app struct {
	cfg    *config.Config
	logger zerolog.Logger
	source tabular.Source
	pool   *pgxpool.Pool
	svc    *birthweight.Service
}

func (a *app) Close() {
	if a.pool != nil {
		a.pool.Close()
	}
}

func newApp(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logger}

	var ts oauth2.TokenSource
	if needsGoogle(cfg) {
		creds, err := cfg.GoogleCredentials()
		if err != nil {
			return nil, err
		}
		ts, err = google.NewTokenSource(ctx, creds, googleScopes(cfg)...)
		if err != nil {
			return nil, err
		}
	}

	src, err := a.newSource(ctx, ts)
	if err != nil {
		return nil, err
	}
	a.source = src

	enc, err := newEncoder(ctx, cfg, ts)
	if err != nil {
		a.Close()
		return nil, err
	}

	tables := birthweight.Tables{
		Patient: cfg.PatientSheet,
		Male:    cfg.MaleCentileSheet,
		Female:  cfg.FemaleCentileSheet,
	}
	cols := birthweight.Columns{
		Sex:         cfg.SexColumn,
		Birthweight: cfg.BirthweightColumn,
		Gestation:   cfg.GestationColumn,
		Axis:        cfg.AxisColumn,
	}
	composer := plot.NewComposer(plot.Options{Width: cfg.ChartWidth, Height: cfg.ChartHeight})
	loader := tabular.NewLoader(src, cfg.SettleDelay)

	a.svc = birthweight.NewService(loader, tables, cols, composer, enc, logger)
	return a, nil
}

func needsGoogle(cfg *config.Config) bool {
	return cfg.Source == config.SourceSheets ||
		(cfg.DeliveryMode == config.DeliveryUpload && cfg.Uploader == config.UploaderDrive)
}

func googleScopes(cfg *config.Config) []string {
	var scopes []string
	if cfg.Source == config.SourceSheets {
		scopes = append(scopes, google.SheetsScopes...)
	}
	if cfg.DeliveryMode == config.DeliveryUpload && cfg.Uploader == config.UploaderDrive {
		scopes = append(scopes, google.DriveScopes...)
	}
	return scopes
}

func (a *app) newSource(ctx context.Context, ts oauth2.TokenSource) (tabular.Source, error) {
	cfg := a.cfg
	switch cfg.Source {
	case config.SourceSheets:
		svc, err := google.NewSheetsService(ctx, ts)
		if err != nil {
			return nil, fmt.Errorf("create sheets service: %w", err)
		}
		return tabular.NewSheetsSource(svc, cfg.SheetID), nil
	case config.SourceCSV:
		return tabular.NewCSVSource(cfg.CSVDir), nil
	case config.SourcePostgres:
		pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			return nil, err
		}
		a.pool = pool
		a.logger.Info().Msg("connected to database")
		return tabular.NewPostgresSource(pool), nil
	default:
		return nil, fmt.Errorf("unknown source %q", cfg.Source)
	}
}

func newEncoder(ctx context.Context, cfg *config.Config, ts oauth2.TokenSource) (*artifact.Encoder, error) {
	if cfg.DeliveryMode != config.DeliveryUpload {
		return artifact.NewInlineEncoder(), nil
	}

	var up artifact.Uploader
	switch cfg.Uploader {
	case config.UploaderDrive:
		svc, err := google.NewDriveService(ctx, ts)
		if err != nil {
			return nil, fmt.Errorf("create drive service: %w", err)
		}
		up = imagehost.NewDriveUploader(svc, cfg.DriveFolderID, cfg.DrivePublic)
	default:
		up = imagehost.NewHTTPUploader(cfg.ImageHostURL, cfg.ImageHostKey, nil)
	}
	return artifact.NewUploadEncoder(up, cfg.UploadTempDir)
}

func (a *app) checkSource(ctx context.Context) error {
	_, err := a.source.Table(ctx, a.cfg.PatientSheet)
	return err
}

func newServer(a *app) *echo.Echo {
	cfg := a.cfg

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = middleware.ErrorHandler(a.logger)

	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(a.logger))
	e.Use(middleware.Recovery(a.logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(middleware.BodyLimit(cfg.BodyLimit))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		AllowHeaders: []string{"Content-Type", middleware.RequestIDHeader},
	}))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":   "ok",
			"version":  version,
			"delivery": string(a.svc.DeliveryMode()),
		})
	})
	e.GET("/health/source", db.HealthHandler(cfg.Source, a.checkSource, a.pool))

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	plots := e.Group("", middleware.RateLimit(rateLimitCfg), middleware.RequestTimeout(cfg.RequestTimeout))
	birthweight.NewHandler(a.svc).RegisterRoutes(plots)

	return e
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		l := newLogger(os.Stderr, nil)
		l.Error().Err(err).Msg("failed to load config")
		return err
	}
	logger := newLogger(os.Stdout, cfg)

	ctx := context.Background()
	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("failed to initialise")
		return err
	}
	defer a.Close()

	e := newServer(a)

	errc := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Port
		logger.Info().
			Str("addr", addr).
			Str("source", cfg.Source).
			Str("delivery", cfg.DeliveryMode).
			Dur("settle_delay", cfg.SettleDelay).
			Msg("starting server")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errc:
		logger.Error().Err(err).Msg("server error")
		return err
	}

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}

func runRender(ctx context.Context, out string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	a, err := newApp(ctx, cfg, newLogger(os.Stdout, cfg))
	if err != nil {
		return err
	}
	defer a.Close()
	return render(ctx, a.svc, out)
}

// render writes the composed chart to path, bypassing the delivery mode.
func render(ctx context.Context, svc *birthweight.Service, path string) error {
	ch, err := svc.Compose(ctx)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := ch.Figure.Render(f); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}
