package calcclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/sir_venger/fillmeter/internal/models"
	"github.com/sir_venger/fillmeter/pkg/calcproto"
)

// wireResponse повторяет объединение всех вариантов ответа; указатели отличают
// отсутствующее поле от нулевого значения.
type wireResponse struct {
	FillPercentage *float64        `json:"fill_percentage"`
	FilledVolume   *float64        `json:"filled_volume"`
	Image          json.RawMessage `json:"3d_image"`
	Volume3D       *float64        `json:"3d_volume"`
	Error          json.RawMessage `json:"error"`
}

// decodeResponse проверяет тело ответа по схеме и классифицирует ошибки.
func decodeResponse(status int, raw []byte) (models.CalculationResult, error) {
	ok := status >= 200 && status < 300
	raw = bytes.TrimSpace(raw)

	if len(raw) == 0 {
		if ok {
			return models.CalculationResult{}, invalid(status, "empty body")
		}
		return models.CalculationResult{}, &models.ServiceError{Status: status}
	}

	var wire wireResponse
	if err := json.Unmarshal(raw, &wire); err != nil {
		if ok {
			return models.CalculationResult{}, invalid(status, "body is not a JSON object")
		}
		return models.CalculationResult{}, &models.ServiceError{Status: status}
	}

	if msg := errorMessage(wire.Error); msg != "" {
		return models.CalculationResult{}, &models.ServiceError{Status: status, Message: msg}
	}
	if !ok {
		return models.CalculationResult{}, &models.ServiceError{Status: status}
	}

	switch {
	case wire.FillPercentage == nil:
		return models.CalculationResult{}, invalid(status, "missing "+calcproto.KeyFillPercentage)
	case wire.FilledVolume == nil:
		return models.CalculationResult{}, invalid(status, "missing "+calcproto.KeyFilledVolume)
	case !inRange(*wire.FillPercentage, 0, 100):
		return models.CalculationResult{}, invalid(status, calcproto.KeyFillPercentage+" out of range")
	case !inRange(*wire.FilledVolume, 0, math.MaxFloat64):
		return models.CalculationResult{}, invalid(status, calcproto.KeyFilledVolume+" is negative")
	case wire.Volume3D != nil && !inRange(*wire.Volume3D, 0, math.MaxFloat64):
		return models.CalculationResult{}, invalid(status, calcproto.KeyVolume3D+" is negative")
	}

	res := models.CalculationResult{
		FillPercentage: *wire.FillPercentage,
		FilledVolume:   *wire.FilledVolume,
		Volume3D:       wire.Volume3D,
	}

	if len(wire.Image) > 0 && string(wire.Image) != "null" {
		var img string
		if err := json.Unmarshal(wire.Image, &img); err != nil {
			return models.CalculationResult{}, invalid(status, calcproto.KeyImage+" must be a string")
		}
		res.RenderedImage = strings.TrimSpace(img)
	}

	return res, nil
}

// errorMessage достаёт поле error: строку как есть, иное значение - в виде JSON.
func errorMessage(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	return string(raw)
}

func invalid(status int, reason string) error {
	return &models.ServiceError{Status: status, Message: fmt.Sprintf("invalid response: %s", reason)}
}

func inRange(v, lo, hi float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= lo && v <= hi
}
