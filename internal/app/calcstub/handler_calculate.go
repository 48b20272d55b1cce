package calcstub

import (
	"bytes"
	"encoding/base64"
	"image"
	_ "image/jpeg"
	"io"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/sir_venger/fillmeter/internal/logging"
	"github.com/sir_venger/fillmeter/internal/usecase/fillsvc"
	"github.com/sir_venger/fillmeter/pkg/calcproto"
	"github.com/sir_venger/fillmeter/pkg/httperrors"
)

// calculate проверяет форму и отвечает настроенным результатом.
func (a *Server) calculate(w http.ResponseWriter, r *http.Request) {
	if a.opts.Delay > 0 {
		select {
		case <-time.After(a.opts.Delay):
		case <-r.Context().Done():
			return
		}
	}

	r.Body = http.MaxBytesReader(w, r.Body, a.opts.MaxUploadBytes)
	if err := r.ParseMultipartForm(a.opts.MaxUploadBytes); err != nil {
		httperrors.WriteMessage(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}

	volume, err := fillsvc.ParseVolume(r.FormValue(calcproto.FieldVolume))
	if err != nil {
		httperrors.WriteMessage(w, http.StatusBadRequest, calcproto.FieldVolume+": "+err.Error())
		return
	}

	file, _, err := r.FormFile(calcproto.FieldImage)
	if err != nil {
		httperrors.WriteMessage(w, http.StatusBadRequest, calcproto.FieldImage+" is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		httperrors.WriteMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	if _, _, err = image.DecodeConfig(bytes.NewReader(data)); err != nil {
		httperrors.WriteMessage(w, http.StatusBadRequest, "cannot identify image file")
		return
	}

	if a.opts.FailMessage != "" {
		httperrors.WriteMessage(w, a.opts.FailStatus, a.opts.FailMessage)
		return
	}

	fill := a.opts.FillPercentage
	resp := calcproto.CalculateResponse{
		FillPercentage: fill,
		FilledVolume:   round2(fill / 100 * volume),
	}
	if a.opts.Volume3D {
		v := volume
		resp.Volume3D = &v
	}
	if a.opts.RenderImage {
		png, err := renderGauge(fill)
		if err != nil {
			logging.LogError(logging.FromContext(r.Context()), "render gauge", err)
			httperrors.WriteMessage(w, http.StatusInternalServerError, "render failed")
			return
		}
		resp.Image = "data:" + calcproto.MediaTypePNG + ";base64," + base64.StdEncoding.EncodeToString(png)
	}

	logging.LogOperation(logging.FromContext(r.Context()), "calculated",
		slog.Float64("volume", volume),
		slog.Float64("fill_percentage", fill))
	writeJSON(w, http.StatusOK, resp)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
