// Command fillctl отправляет объём и фото контейнера в сервис расчёта из терминала.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/sir_venger/fillmeter/internal/config"
	"github.com/sir_venger/fillmeter/internal/i18n"
	"github.com/sir_venger/fillmeter/internal/logging"
	"github.com/sir_venger/fillmeter/internal/models"
	"github.com/sir_venger/fillmeter/internal/usecase/fillsvc"
	"github.com/sir_venger/fillmeter/pkg/calcclient"
	"golang.org/x/text/language"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run возвращает код выхода: 0 успех, 1 ошибка расчёта или ввода, 2 неверные флаги.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	fs := flag.NewFlagSet("fillctl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	volume := fs.String("volume", "", "container volume, e.g. 20 or 20,5")
	imagePath := fs.String("image", "", "path to the container photo")
	api := fs.String("api", cfg.CalcBaseURL, "calculation service base URL")
	lang := fs.String("lang", cfg.DefaultLang, "output language: tr or en")
	out := fs.String("out", "", "write the rendered 3D image to this file")
	quiet := fs.Bool("quiet", false, "do not draw the upload progress bar")
	timeout := fs.Duration("timeout", cfg.RequestTimeout, "request timeout")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	bundle, err := i18n.LoadEmbedded(language.Turkish)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	tag, _ := bundle.Parse(*lang)
	loc := bundle.Localizer(tag)

	raw := fillsvc.RawInput{VolumeText: *volume}
	if *imagePath != "" {
		data, err := os.ReadFile(*imagePath)
		if err != nil {
			fmt.Fprintln(stderr, loc.Failure(err, cfg.MaxUploadBytes))
			return 1
		}
		raw.Image = data
		raw.ImageName = filepath.Base(*imagePath)
	}

	input, err := fillsvc.Validate(raw, fillsvc.Limits{MaxImageBytes: cfg.MaxUploadBytes})
	if err != nil {
		fmt.Fprintln(stderr, loc.Failure(err, cfg.MaxUploadBytes))
		return 1
	}

	opts := []calcclient.Option{
		calcclient.WithTimeout(*timeout),
		calcclient.WithMaxResponseBytes(cfg.MaxResponseBytes),
		calcclient.WithLogger(logging.New(stderr, "text", slog.LevelWarn)),
	}
	if !*quiet {
		opts = append(opts, calcclient.WithProgress(stderr))
	}
	cli, err := calcclient.New(*api, opts...)
	if err != nil {
		fmt.Fprintln(stderr, loc.Failure(&models.TransportError{Err: err}, cfg.MaxUploadBytes))
		return 1
	}

	res, err := cli.Calculate(ctx, input)
	if err != nil {
		fmt.Fprintln(stderr, loc.Failure(err, cfg.MaxUploadBytes))
		return 1
	}

	printResult(stdout, stderr, loc, res, cfg.VolumeUnit, *out)
	return 0
}

func printResult(stdout, stderr io.Writer, loc i18n.Localizer, res models.CalculationResult, unit, out string) {
	fmt.Fprintln(stdout, loc.T("result.title"))
	fmt.Fprintln(stdout, loc.T("result.fill.label"), loc.Percent(res.FillPercentage))
	fmt.Fprintln(stdout, loc.T("result.volume.label"), loc.Volume(res.FilledVolume, unit))
	if res.Volume3D != nil {
		fmt.Fprintln(stdout, loc.T("result.volume3d.label"), loc.Volume(*res.Volume3D, unit))
	}
	if !res.HasImage() || out == "" {
		return
	}

	// Визуализация необязательна: её ошибка не меняет код выхода.
	img, err := fillsvc.ParseRenderedImage(res.RenderedImage)
	if err != nil {
		fmt.Fprintln(stderr, loc.T("result.image.unavailable"))
		return
	}
	if err := os.WriteFile(out, img.Data, 0o644); err != nil {
		fmt.Fprintln(stderr, loc.Failure(err, 0))
		return
	}
	fmt.Fprintln(stdout, loc.T("result.image.label"), out)
}
