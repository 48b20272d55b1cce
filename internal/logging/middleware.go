package logging

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

// Middleware кладёт логгер в контекст запроса и пишет итог обработки.
func Middleware(logger *slog.Logger, component string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			reqLogger := logger
			if id := middleware.GetReqID(r.Context()); id != "" {
				reqLogger = logger.With(slog.String("request_id", id))
			}
			r = r.WithContext(WithLogger(r.Context(), reqLogger))

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			LogHTTPRequest(reqLogger, r.Method, r.URL.Path, status,
				float64(time.Since(start).Nanoseconds())/1e6,
				slog.Int("bytes", ww.BytesWritten()),
				slog.String("component", component))
		})
	}
}
