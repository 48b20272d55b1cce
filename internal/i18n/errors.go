package i18n

import (
	"errors"

	"github.com/sir_venger/fillmeter/internal/models"
	"github.com/sir_venger/fillmeter/pkg/calcclient"
)

// Failure переводит ошибку формы в сообщение для пользователя.
// maxUpload подставляется в текст об избыточном размере изображения.
func (l Localizer) Failure(err error, maxUpload int64) string {
	if err == nil {
		return ""
	}

	switch models.KindOf(err) {
	case models.KindValidation:
		switch {
		case errors.Is(err, models.ErrInvalidVolume):
			return l.T("error.validation.volume")
		case errors.Is(err, models.ErrNotImage):
			return l.T("error.validation.not_image")
		case errors.Is(err, models.ErrImageTooLarge):
			return l.T("error.validation.too_large", calcclient.HumanBytes(maxUpload))
		default:
			return l.T("error.validation.missing")
		}
	case models.KindTransport:
		var te *models.TransportError
		errors.As(err, &te)
		return l.T("error.transport", te.Error())
	case models.KindService:
		// Текст ошибки сервиса показывается как есть, без обёрток.
		var se *models.ServiceError
		errors.As(err, &se)
		return l.T("error.service", se.Error())
	default:
		return l.T("error.internal", err.Error())
	}
}
