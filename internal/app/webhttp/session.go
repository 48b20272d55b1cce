package webhttp

import (
	"net"
	"net/http"

	"github.com/sir_venger/fillmeter/internal/usecase/fillsvc"
)

const sessionCookieName = "fm_session"

// session возвращает форму сессии запроса; для новой сессии выставляет cookie.
func (s *Server) session(w http.ResponseWriter, r *http.Request) *fillsvc.Form {
	var id string
	if c, err := r.Cookie(sessionCookieName); err == nil {
		id = c.Value
	}

	got, form := s.Forms.Ensure(id)
	if got != id {
		http.SetCookie(w, &http.Cookie{
			Name:     sessionCookieName,
			Value:    got,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return form
}

// limitKey - ключ лимитера: живая сессия, иначе адрес клиента.
func (s *Server) limitKey(r *http.Request) string {
	if c, err := r.Cookie(sessionCookieName); err == nil {
		if _, ok := s.Forms.Get(c.Value); ok {
			return "session:" + c.Value
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "addr:" + host
}
