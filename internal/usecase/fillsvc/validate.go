package fillsvc

import (
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/sir_venger/fillmeter/internal/models"
	"github.com/sir_venger/fillmeter/pkg/calcproto"
)

// RawInput - данные формы в том виде, в каком их прислал браузер.
type RawInput struct {
	VolumeText string
	Image      []byte
	ImageName  string
}

// Validate проверяет наличие и корректность обоих полей и нормализует объём.
func Validate(in RawInput, limits Limits) (models.SubmissionInput, error) {
	volumeText := strings.TrimSpace(in.VolumeText)
	switch {
	case volumeText == "" && len(in.Image) == 0:
		return models.SubmissionInput{}, &models.ValidationError{Err: models.ErrMissingInput}
	case volumeText == "":
		return models.SubmissionInput{}, &models.ValidationError{Field: calcproto.FieldVolume, Err: models.ErrMissingInput}
	case len(in.Image) == 0:
		return models.SubmissionInput{}, &models.ValidationError{Field: calcproto.FieldImage, Err: models.ErrMissingInput}
	}

	volume, err := ParseVolume(volumeText)
	if err != nil {
		return models.SubmissionInput{}, &models.ValidationError{Field: calcproto.FieldVolume, Err: err}
	}

	if limits.MaxImageBytes > 0 && int64(len(in.Image)) > limits.MaxImageBytes {
		return models.SubmissionInput{}, &models.ValidationError{Field: calcproto.FieldImage, Err: models.ErrImageTooLarge}
	}

	contentType := http.DetectContentType(in.Image)
	if !strings.HasPrefix(contentType, "image/") {
		return models.SubmissionInput{}, &models.ValidationError{Field: calcproto.FieldImage, Err: models.ErrNotImage}
	}

	return models.SubmissionInput{
		Volume:     volume,
		VolumeText: strconv.FormatFloat(volume, 'f', -1, 64),
		Image:      in.Image,
		ImageName:  strings.TrimSpace(in.ImageName),
		ImageType:  contentType,
	}, nil
}

// ParseVolume разбирает положительное десятичное число; одиночная запятая
// допускается как десятичный разделитель ("20,5").
func ParseVolume(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0, models.ErrInvalidVolume
	}
	return v, nil
}
