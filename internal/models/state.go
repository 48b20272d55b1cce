package models

import (
	"errors"
	"time"
)

// Phase - фаза жизненного цикла формы.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseSubmitting Phase = "submitting"
	PhaseSuccess    Phase = "success"
	PhaseFailure    Phase = "failure"
)

// Failure описывает последнюю ошибку, показанную пользователю.
type Failure struct {
	Kind   Kind   `json:"kind"`
	Field  string `json:"field,omitempty"`
	Detail string `json:"detail"`
	// Cause хранит исходную ошибку для errors.Is при рендеринге.
	Cause error `json:"-"`
}

// Submission - метаданные текущей отправки.
type Submission struct {
	ID         string    `json:"id"`
	VolumeText string    `json:"volume"`
	ImageName  string    `json:"image_name,omitempty"`
	ImageSize  int64     `json:"image_size,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	// Preview - data URL загруженного фото для миниатюры; пусто, если фото крупное или не PNG/JPEG.
	Preview    string    `json:"-"`
}

// UiState - состояние формы; в каждый момент задана ровно одна фаза.
type UiState struct {
	Phase      Phase              `json:"phase"`
	Submission *Submission        `json:"submission,omitempty"`
	Result     *CalculationResult `json:"result,omitempty"`
	Failure    *Failure           `json:"failure,omitempty"`
}

// Idle возвращает начальное состояние.
func Idle() UiState {
	return UiState{Phase: PhaseIdle}
}

// Submitting переводит форму в ожидание ответа; прежний результат не сохраняется.
func Submitting(sub Submission) UiState {
	return UiState{Phase: PhaseSubmitting, Submission: &sub}
}

// Succeeded фиксирует полученный результат.
func Succeeded(sub *Submission, res CalculationResult) UiState {
	return UiState{Phase: PhaseSuccess, Submission: sub, Result: &res}
}

// Failed фиксирует ошибку, сохраняя её класс.
func Failed(sub *Submission, err error) UiState {
	f := &Failure{Kind: KindOf(err), Detail: err.Error(), Cause: err}
	var ve *ValidationError
	if errors.As(err, &ve) {
		f.Field = ve.Field
		f.Detail = ve.Err.Error()
	}
	return UiState{Phase: PhaseFailure, Submission: sub, Failure: f}
}

// Clone возвращает копию, не разделяющую указатели с оригиналом.
func (s UiState) Clone() UiState {
	out := UiState{Phase: s.Phase}
	if s.Submission != nil {
		sub := *s.Submission
		out.Submission = &sub
	}
	if s.Result != nil {
		res := *s.Result
		if s.Result.Volume3D != nil {
			v := *s.Result.Volume3D
			res.Volume3D = &v
		}
		out.Result = &res
	}
	if s.Failure != nil {
		f := *s.Failure
		out.Failure = &f
	}
	return out
}
