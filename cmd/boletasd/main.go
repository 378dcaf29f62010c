package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/vickotoAguilera/BoletasScaner/internal/assist"
	"github.com/vickotoAguilera/BoletasScaner/internal/assist/groq"
	"github.com/vickotoAguilera/BoletasScaner/internal/config"
	"github.com/vickotoAguilera/BoletasScaner/internal/drive"
	"github.com/vickotoAguilera/BoletasScaner/internal/extract/gemini"
	"github.com/vickotoAguilera/BoletasScaner/internal/ledger"
	"github.com/vickotoAguilera/BoletasScaner/internal/ledger/store"
	"github.com/vickotoAguilera/BoletasScaner/internal/server"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("boletasd.exit", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := store.Open(store.Dialect(cfg.DB.Driver), cfg.DB.DSN)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := store.RunMigrations(db, store.Dialect(cfg.DB.Driver)); err != nil {
		return err
	}
	logger.Info("db.ready", "driver", cfg.DB.Driver)

	st := store.New(db, store.Dialect(cfg.DB.Driver), logger)
	l := ledger.New(st)

	extractor := gemini.NewClient(gemini.Config{
		APIKey:        cfg.Gemini.APIKey,
		BaseURL:       cfg.Gemini.BaseURL,
		PrimaryModel:  cfg.Gemini.PrimaryModel,
		FallbackModel: cfg.Gemini.FallbackModel,
		Timeout:       cfg.Gemini.Timeout,
	}, logger)

	var driveClient *drive.Client
	if cfg.Drive.Enabled {
		driveClient, err = drive.NewFromEnv(ctx, logger)
		if err != nil {
			return err
		}
		logger.Info("drive.ready")
	}

	var assistant assist.Assistant
	if cfg.Groq.APIKey != "" {
		assistant = groq.NewClient(groq.Config{
			APIKey:        cfg.Groq.APIKey,
			BaseURL:       cfg.Groq.BaseURL,
			FastModel:     cfg.Groq.FastModel,
			BalancedModel: cfg.Groq.BalancedModel,
			Timeout:       cfg.Groq.Timeout,
		}, logger)
		logger.Info("assist.ready", "model", cfg.Groq.FastModel)
	} else {
		logger.Warn("GROQ_API_KEY not configured, help chat disabled")
	}

	srv := &http.Server{
		Addr:        cfg.Addr(),
		Handler:     server.New(l, extractor, driveClient, assistant, logger).Router(),
		ReadTimeout: cfg.Server.ReadTimeout,
		// No write timeout: the live endpoint holds its response open.
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("http.serving", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("http.shutdown")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
