package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sir_venger/fillmeter/internal/app/webhttp"
	"github.com/sir_venger/fillmeter/internal/config"
	"github.com/sir_venger/fillmeter/internal/logging"
	"github.com/sir_venger/fillmeter/internal/usecase/fillsvc"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 15 * time.Second

// main поднимает веб-форму и обеспечивает корректное завершение по сигналу.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}
	logger := logging.New(os.Stdout, cfg.LogFormat, level)
	slog.SetDefault(logger)

	handler, srv, err := webhttp.NewServer(cfg, webhttp.Options{Logger: logger})
	if err != nil {
		logging.LogError(logger, "init web server", err)
		os.Exit(1)
	}
	defer srv.Close()

	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	eg, egCtx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		logger.Info("web listening", slog.String("addr", cfg.ListenAddr), slog.String("calc", cfg.CalcBaseURL))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// Очистка простаивающих сессий живёт столько же, сколько сервер.
	eg.Go(func() error {
		stopSweeper := fillsvc.StartSweeper(srv.Sessions, cfg.SessionTTL, cfg.SessionSweepEvery)
		defer stopSweeper()
		<-egCtx.Done()
		return nil
	})

	// Сценарий graceful shutdown при получении SIGTERM/SIGINT или падении сервера.
	eg.Go(func() error {
		<-egCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if err := eg.Wait(); err != nil {
		logging.LogError(logger, "web stopped with error", err)
		srv.Close()
		os.Exit(1)
	}
	logger.Info("web stopped")
}
