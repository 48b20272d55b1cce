package calcstub

import (
	"encoding/json"
	"net/http"
)

type homePayload struct {
	Message string `json:"message"`
}

type healthPayload struct {
	OK bool `json:"ok"`
}

func (a *Server) home(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, homePayload{Message: "Container fill API is running"})
}

// health всегда готова: у заглушки нет внешних зависимостей.
func (a *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthPayload{OK: true})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
