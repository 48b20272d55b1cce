package fillsvc

import (
	"encoding/base64"
	"testing"

	"github.com/sir_venger/fillmeter/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRenderedImage_Valid(t *testing.T) {
	png := pngBytes(t)
	jpg := jpegBytes(t)

	img, err := ParseRenderedImage(dataURL("image/png", png))
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.MediaType)
	assert.Equal(t, 4, img.Width)
	assert.Equal(t, 3, img.Height)
	assert.Equal(t, dataURL("image/png", png), img.DataURL())

	img, err = ParseRenderedImage(dataURL("image/jpeg", jpg))
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", img.MediaType)

	img, err = ParseRenderedImage(dataURL("image/jpg", jpg))
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", img.MediaType)

	unpadded := "data:image/png;base64," + base64.RawStdEncoding.EncodeToString(png)
	_, err = ParseRenderedImage(unpadded)
	require.NoError(t, err)
}

func TestParseRenderedImage_Invalid(t *testing.T) {
	png := pngBytes(t)

	cases := map[string]string{
		"plain url":       "http://127.0.0.1:8000/render.png",
		"random text":     "not an image",
		"no payload":      "data:image/png;base64",
		"gif":             dataURL("image/gif", png),
		"not base64":      "data:image/png," + string(png[:8]),
		"bad base64":      "data:image/png;base64,@@@@",
		"format mismatch": dataURL("image/jpeg", png),
		"truncated":       dataURL("image/png", png[:10]),
		"empty":           "data:image/png;base64,",
	}

	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseRenderedImage(raw)
			require.Error(t, err)
			assert.Equal(t, models.KindImageDecode, models.KindOf(err))
		})
	}
}
