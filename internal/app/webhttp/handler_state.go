package webhttp

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/sir_venger/fillmeter/internal/usecase/fillsvc/adapters/calchealth"
)

const healthProbeTimeout = 2 * time.Second

type healthResponse struct {
	OK       bool              `json:"ok"`
	Sessions int               `json:"sessions"`
	Calc     calchealth.Status `json:"calc"`
}

// state отдаёт состояние формы сессии для клиентов, опрашивающих сервер.
func (s *Server) state(w http.ResponseWriter, r *http.Request) {
	form := s.session(w, r)
	writeJSON(w, http.StatusOK, form.State())
}

// health всегда отвечает ok, доступность сервиса расчёта отдаётся отдельным полем.
func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthProbeTimeout)
	defer cancel()

	writeJSON(w, http.StatusOK, healthResponse{
		OK:       true,
		Sessions: s.Sessions.Len(),
		Calc:     s.Health.Check(ctx),
	})
}

type debugData struct {
	Title string
	Pre   string
}

func (s *Server) debugState(w http.ResponseWriter, r *http.Request) {
	var (
		title string
		data  any
	)
	switch r.URL.Query().Get("scope") {
	case "config":
		title, data = "Config", s.Cfg
	case "sessions":
		title, data = "Sessions", map[string]int{"count": s.Sessions.Len()}
	default:
		title, data = "Form state", s.session(w, r).State()
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.ExecuteTemplate(w, "debug.html", debugData{Title: title, Pre: spew.Sdump(data)}); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
