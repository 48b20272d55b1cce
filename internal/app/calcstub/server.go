package calcstub

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sir_venger/fillmeter/internal/logging"
	"github.com/sir_venger/fillmeter/pkg/calcproto"
)

// Options задают поведение заглушки.
type Options struct {
	FillPercentage float64       `env:"CALCSTUB_FILL" envDefault:"62.5"`
	RenderImage    bool          `env:"CALCSTUB_IMAGE" envDefault:"true"`
	Volume3D       bool          `env:"CALCSTUB_VOLUME3D"`
	FailMessage    string        `env:"CALCSTUB_FAIL_MESSAGE"`
	FailStatus     int           `env:"CALCSTUB_FAIL_STATUS" envDefault:"500"`
	Delay          time.Duration `env:"CALCSTUB_DELAY"`
	MaxUploadBytes int64         `env:"CALCSTUB_MAX_UPLOAD_BYTES" envDefault:"33554432"`
}

// Server обслуживает API заглушки.
type Server struct {
	opts   Options
	logger *slog.Logger
}

// New создаёт HTTP-обработчик заглушки.
func New(opts Options, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.FailStatus == 0 {
		opts.FailStatus = http.StatusInternalServerError
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 32 << 20
	}

	srv := &Server{
		opts:   opts,
		logger: logger,
	}

	return srv.routes()
}

// routes регистрирует обработчики расчёта и здоровья.
func (a *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(logging.Middleware(a.logger, "calcstub"))
	r.Use(middleware.Recoverer)

	r.Post(calcproto.CalculatePath, a.calculate)
	r.Get("/", a.home)
	r.Get(calcproto.HealthPath, a.health)

	return r
}
