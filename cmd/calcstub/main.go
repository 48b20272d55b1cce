package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/sir_venger/fillmeter/internal/app/calcstub"
	"github.com/sir_venger/fillmeter/internal/logging"
)

const defaultStubAddr = ":8000"

func main() {
	addr := flag.String("addr", defaultStubAddr, "listen address")
	logFormat := flag.String("log-format", "text", "log format: json or text")
	flag.Parse()

	var opts calcstub.Options
	if err := env.Parse(&opts); err != nil {
		log.Fatal(err)
	}

	logger := logging.New(os.Stdout, *logFormat, slog.LevelInfo)
	h := calcstub.New(opts, logger)

	server := &http.Server{Addr: *addr, Handler: h, ReadHeaderTimeout: 10 * time.Second}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && err != http.ErrServerClosed {
			logging.LogError(logger, "calcstub shutdown", err)
		}
	}()

	logger.Info("calcstub listening",
		slog.String("addr", *addr),
		slog.Float64("fill_percentage", opts.FillPercentage),
		slog.Bool("image", opts.RenderImage),
		slog.Duration("delay", opts.Delay))
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
}
