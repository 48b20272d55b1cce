package models

import (
	"errors"
	"fmt"
	"net/http"
)

// Причины ошибок валидации формы.
var (
	ErrMissingInput  = errors.New("missing input")
	ErrInvalidVolume = errors.New("volume must be a positive number")
	ErrNotImage      = errors.New("file is not an image")
	ErrImageTooLarge = errors.New("image is too large")
)

// Kind классифицирует ошибку для показа пользователю и выбора HTTP-статуса.
type Kind string

const (
	KindNone        Kind = ""
	KindValidation  Kind = "validation"
	KindTransport   Kind = "transport"
	KindService     Kind = "service"
	KindImageDecode Kind = "image_decode"
	KindInternal    Kind = "internal"
)

// ValidationError - введённые данные неполны или некорректны; запрос не отправляется.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// TransportError - запрос к сервису расчёта не удалось выполнить.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return e.Err.Error() }

func (e *TransportError) Unwrap() error { return e.Err }

// ServiceError - сервис ответил ошибкой или телом, не прошедшим проверку схемы.
type ServiceError struct {
	Status  int
	Message string
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if text := http.StatusText(e.Status); text != "" {
		return text
	}
	return fmt.Sprintf("unexpected status %d", e.Status)
}

// ImageDecodeError - присланное изображение повреждено или в неподдерживаемой кодировке.
type ImageDecodeError struct {
	Reason string
}

func (e *ImageDecodeError) Error() string { return "rendered image: " + e.Reason }

// KindOf определяет класс ошибки с учётом обёрток.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}

	var (
		ve *ValidationError
		te *TransportError
		se *ServiceError
		ie *ImageDecodeError
	)
	switch {
	case errors.As(err, &ve):
		return KindValidation
	case errors.As(err, &te):
		return KindTransport
	case errors.As(err, &se):
		return KindService
	case errors.As(err, &ie):
		return KindImageDecode
	default:
		return KindInternal
	}
}
