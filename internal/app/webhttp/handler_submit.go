package webhttp

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/sir_venger/fillmeter/internal/logging"
	"github.com/sir_venger/fillmeter/internal/models"
	"github.com/sir_venger/fillmeter/internal/usecase/fillsvc"
	"github.com/sir_venger/fillmeter/pkg/calcproto"
	"github.com/sir_venger/fillmeter/pkg/httperrors"
)

const (
	// multipartMemory - часть формы, которая держится в памяти; остальное уходит во временные файлы.
	multipartMemory = 8 << 20
	// formOverhead - запас на поле объёма и заголовки multipart сверх лимита на изображение.
	formOverhead = 1 << 20
)

// submit принимает форму и запускает расчёт, после чего перенаправляет на страницу (PRG).
func (s *Server) submit(w http.ResponseWriter, r *http.Request) {
	form := s.session(w, r)

	raw, err := s.readSubmission(w, r)
	if err != nil {
		form.Fail(err)
	} else {
		_, err = form.Submit(r.Context(), raw)
	}

	if !wantsJSON(r) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	status := http.StatusAccepted
	if err != nil {
		status = httperrors.Status(err)
	}
	writeJSON(w, status, form.State())
}

func (s *Server) reset(w http.ResponseWriter, r *http.Request) {
	form := s.session(w, r)
	form.Reset()

	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, form.State())
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// readSubmission достаёт поля формы. Отсутствующие поля не ошибка: их отметит валидация.
func (s *Server) readSubmission(w http.ResponseWriter, r *http.Request) (fillsvc.RawInput, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.Cfg.MaxUploadBytes+formOverhead)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || errors.Is(err, multipart.ErrMessageTooLarge) {
			return fillsvc.RawInput{}, &models.ValidationError{Field: calcproto.FieldImage, Err: models.ErrImageTooLarge}
		}
		logging.FromContext(r.Context()).Debug("form is not multipart", slog.String("error", err.Error()))
	}
	if r.MultipartForm != nil {
		defer func() { _ = r.MultipartForm.RemoveAll() }()
	}

	raw := fillsvc.RawInput{VolumeText: r.FormValue(calcproto.FieldVolume)}

	file, hdr, err := r.FormFile(calcproto.FieldImage)
	if err != nil {
		return raw, nil
	}
	defer file.Close()

	// Один лишний байт нужен, чтобы валидация увидела превышение лимита.
	data, err := io.ReadAll(io.LimitReader(file, s.Cfg.MaxUploadBytes+1))
	if err != nil {
		return fillsvc.RawInput{}, fmt.Errorf("read upload: %w", err)
	}
	raw.Image = data
	raw.ImageName = hdr.Filename
	return raw, nil
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}
