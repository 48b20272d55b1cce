// Package calcproto описывает протокол HTTP-взаимодействия с сервисом расчёта заполненности.
package calcproto

// Параметры REST-протокола сервиса расчёта.
const (
	CalculatePath = "/calculate"
	HealthPath    = "/health"

	FieldVolume = "containerVolume"
	FieldImage  = "containerImage"

	HeaderRequestID = "X-Request-ID"
)

// Ключи JSON-ответа.
const (
	KeyFillPercentage = "fill_percentage"
	KeyFilledVolume   = "filled_volume"
	KeyImage          = "3d_image"
	KeyVolume3D       = "3d_volume"
	KeyError          = "error"
)

// Поддерживаемые типы встроенных изображений в data URL.
const (
	MediaTypePNG  = "image/png"
	MediaTypeJPEG = "image/jpeg"
)

// CalculateResponse - тело успешного ответа /calculate.
type CalculateResponse struct {
	FillPercentage float64  `json:"fill_percentage"`
	FilledVolume   float64  `json:"filled_volume"`
	Image          string   `json:"3d_image,omitempty"`
	Volume3D       *float64 `json:"3d_volume,omitempty"`
}

// ErrorResponse - тело ответа с ошибкой.
type ErrorResponse struct {
	Error string `json:"error"`
}
