package webhttp

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sir_venger/fillmeter/internal/config"
	"github.com/sir_venger/fillmeter/internal/i18n"
	"github.com/sir_venger/fillmeter/internal/logging"
	"github.com/sir_venger/fillmeter/internal/usecase/fillsvc"
	"github.com/sir_venger/fillmeter/internal/usecase/fillsvc/adapters/calchealth"
	"github.com/sir_venger/fillmeter/pkg/calcclient"
	"golang.org/x/text/language"
)

//go:embed templates/*.html static/*
var assets embed.FS

type Server struct {
	// Forms выдаёт форму сессии; Sessions - то же хранилище, нужное для очистки и остановки.
	Forms    fillsvc.Service
	Sessions *fillsvc.Sessions
	Cfg      *config.Config
	Bundle   *i18n.Bundle
	Health   *calchealth.Checker

	logger  *slog.Logger
	tmpl    *template.Template
	limiter *submitLimiter
}

// Options позволяют подменить зависимости в тестах.
type Options struct {
	Calculator calcclient.Calculator
	Logger     *slog.Logger
}

// NewServer конструктор
func NewServer(cfg *config.Config, opts Options) (http.Handler, *Server, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	bundle, err := buildBundle(cfg)
	if err != nil {
		return nil, nil, err
	}

	calc := opts.Calculator
	if calc == nil {
		calc, err = buildCalculator(cfg, logger)
		if err != nil {
			return nil, nil, err
		}
	}

	tmpl, err := template.ParseFS(assets, "templates/*.html")
	if err != nil {
		return nil, nil, fmt.Errorf("parse templates: %w", err)
	}

	sessions := fillsvc.NewSessions(fillsvc.Deps{
		Calculator: calc,
		Limits:     fillsvc.Limits{MaxImageBytes: cfg.MaxUploadBytes},
		Logger:     logger.With(slog.String("component", "form")),
	})

	srv := &Server{
		Forms:    sessions,
		Sessions: sessions,
		Cfg:      cfg,
		Bundle:   bundle,
		Health:   calchealth.New(cfg.CalcBaseURL, 0),
		logger:   logger,
		tmpl:     tmpl,
		limiter:  newSubmitLimiter(cfg.SubmitRatePerMinute),
	}

	static, err := fs.Sub(assets, "static")
	if err != nil {
		return nil, nil, err
	}

	rtr := chi.NewRouter()
	rtr.Use(middleware.RequestID)
	rtr.Use(middleware.RealIP)
	rtr.Use(logging.Middleware(logger, "web"))
	rtr.Use(middleware.Recoverer)

	rtr.Get("/", srv.page)
	rtr.With(srv.limiter.Middleware(srv.limitKey, srv.rateLimited)).Post("/submit", srv.submit)
	rtr.Post("/reset", srv.reset)
	rtr.Get("/api/state", srv.state)
	rtr.Get("/health", srv.health)
	if cfg.Debug {
		rtr.Get("/debug/state", srv.debugState)
	}
	rtr.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))

	return rtr, srv, nil
}

// Close отменяет расчёты всех сессий.
func (s *Server) Close() {
	s.Sessions.Close()
}

func buildBundle(cfg *config.Config) (*i18n.Bundle, error) {
	tag, err := language.Parse(cfg.DefaultLang)
	if err != nil {
		return nil, fmt.Errorf("default_lang: %w", err)
	}
	return i18n.LoadEmbedded(tag)
}

func buildCalculator(cfg *config.Config, logger *slog.Logger) (calcclient.Calculator, error) {
	cli, err := calcclient.New(cfg.CalcBaseURL,
		calcclient.WithTimeout(cfg.RequestTimeout),
		calcclient.WithMaxResponseBytes(cfg.MaxResponseBytes),
		calcclient.WithLogger(logger.With(slog.String("component", "calcclient"))),
	)
	if err != nil {
		return nil, err
	}
	return cli, nil
}
