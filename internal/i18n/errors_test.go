package i18n

import (
	"errors"
	"fmt"
	"testing"

	"github.com/sir_venger/fillmeter/internal/models"
	"github.com/stretchr/testify/assert"
	"golang.org/x/text/language"
)

func TestLocalizer_Failure(t *testing.T) {
	en := loadBundle(t).Localizer(language.English)

	cases := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"missing", &models.ValidationError{Err: models.ErrMissingInput}, "Please fill in all fields!"},
		{"volume", &models.ValidationError{Field: "containerVolume", Err: models.ErrInvalidVolume}, "Container volume must be a positive number."},
		{"not image", &models.ValidationError{Field: "containerImage", Err: models.ErrNotImage}, "The selected file is not an image."},
		{"too large", &models.ValidationError{Field: "containerImage", Err: models.ErrImageTooLarge}, "The image is too large (max 10.0 MB)."},
		{"transport", &models.TransportError{Err: errors.New("connection refused")}, "An error occurred: connection refused"},
		{"service", fmt.Errorf("calculate: %w", &models.ServiceError{Status: 400, Message: "Invalid volume"}), "API error: Invalid volume"},
		{"internal", errors.New("boom"), "Unexpected error: boom"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, en.Failure(tc.err, 10<<20))
		})
	}
}

func TestLocalizer_FailureTurkish(t *testing.T) {
	tr := loadBundle(t).Localizer(language.Turkish)
	assert.Equal(t, "Lütfen tüm alanları doldurun!", tr.Failure(&models.ValidationError{Err: models.ErrMissingInput}, 0))
}
