package httperrors

import (
	"encoding/json"
	"net/http"

	"github.com/sir_venger/fillmeter/internal/models"
	"github.com/sir_venger/fillmeter/pkg/calcproto"
)

// Status подбирает HTTP-статус по классу ошибки.
func Status(err error) int {
	switch models.KindOf(err) {
	case models.KindNone:
		return http.StatusOK
	case models.KindValidation:
		return http.StatusBadRequest
	case models.KindTransport, models.KindService:
		return http.StatusBadGateway
	case models.KindImageDecode:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// Write отдаёт ошибку в формате {"error": "..."} с подходящим статусом.
func Write(w http.ResponseWriter, err error) {
	WriteMessage(w, Status(err), err.Error())
}

// WriteMessage отдаёт произвольное сообщение об ошибке с заданным статусом.
func WriteMessage(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(calcproto.ErrorResponse{Error: msg})
}
