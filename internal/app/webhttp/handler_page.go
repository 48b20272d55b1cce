package webhttp

import (
	"bytes"
	"net/http"

	"github.com/sir_venger/fillmeter/internal/i18n"
	"github.com/sir_venger/fillmeter/internal/logging"
	"github.com/sir_venger/fillmeter/pkg/httperrors"
)

func (s *Server) page(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, r, http.StatusOK, "")
}

// renderPage рисует страницу сессии; notice перекрывает сообщение об ошибке формы.
func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, status int, notice string) {
	loc := s.localizer(w, r)
	form := s.session(w, r)
	logger := logging.FromContext(r.Context())

	view := s.buildPage(loc, form.State(), logger)
	if notice != "" {
		view.Error = notice
	}

	var buf bytes.Buffer
	if err := s.tmpl.ExecuteTemplate(&buf, "page.html", view); err != nil {
		logging.LogError(logger, "render page", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// localizer выбирает язык запроса и запоминает явный выбор в cookie.
func (s *Server) localizer(w http.ResponseWriter, r *http.Request) i18n.Localizer {
	tag, persist := s.Bundle.Resolve(r)
	if persist {
		i18n.SetLanguageCookie(w, tag)
	}
	return s.Bundle.Localizer(tag)
}

func (s *Server) rateLimited(w http.ResponseWriter, r *http.Request) {
	tag, _ := s.Bundle.Resolve(r)
	msg := s.Bundle.Localizer(tag).T("error.rate_limited")
	if wantsJSON(r) {
		httperrors.WriteMessage(w, http.StatusTooManyRequests, msg)
		return
	}
	s.renderPage(w, r, http.StatusTooManyRequests, msg)
}
