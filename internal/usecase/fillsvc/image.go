package fillsvc

import (
	"bytes"
	"encoding/base64"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"github.com/sir_venger/fillmeter/internal/models"
	"github.com/sir_venger/fillmeter/pkg/calcproto"
)

// RenderedImage - проверенная визуализация, присланная сервисом расчёта.
type RenderedImage struct {
	MediaType string
	Data      []byte
	Width     int
	Height    int
}

// DataURL собирает каноничный data URL из проверенных байт.
func (img RenderedImage) DataURL() string {
	return "data:" + img.MediaType + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
}

var imageFormats = map[string]string{
	calcproto.MediaTypePNG:  "png",
	calcproto.MediaTypeJPEG: "jpeg",
	"image/jpg":             "jpeg",
}

// ParseRenderedImage принимает только data URL с PNG или JPEG в base64 и
// проверяет, что заголовок изображения действительно декодируется.
func ParseRenderedImage(raw string) (RenderedImage, error) {
	raw = strings.TrimSpace(raw)
	if len(raw) < 5 || !strings.EqualFold(raw[:5], "data:") {
		return RenderedImage{}, &models.ImageDecodeError{Reason: "not a data URL"}
	}

	meta, payload, ok := strings.Cut(raw[5:], ",")
	if !ok {
		return RenderedImage{}, &models.ImageDecodeError{Reason: "data URL has no payload"}
	}

	params := strings.Split(meta, ";")
	mediaType := strings.ToLower(strings.TrimSpace(params[0]))
	format, supported := imageFormats[mediaType]
	if !supported {
		return RenderedImage{}, &models.ImageDecodeError{Reason: "unsupported media type " + mediaType}
	}
	if !hasBase64Param(params[1:]) {
		return RenderedImage{}, &models.ImageDecodeError{Reason: "payload is not base64-encoded"}
	}

	data, err := decodeBase64(payload)
	if err != nil || len(data) == 0 {
		return RenderedImage{}, &models.ImageDecodeError{Reason: "invalid base64 payload"}
	}

	cfg, gotFormat, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return RenderedImage{}, &models.ImageDecodeError{Reason: "cannot decode image: " + err.Error()}
	}
	if gotFormat != format {
		return RenderedImage{}, &models.ImageDecodeError{Reason: "payload is " + gotFormat + ", declared " + mediaType}
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return RenderedImage{}, &models.ImageDecodeError{Reason: "empty image"}
	}

	if format == "jpeg" {
		mediaType = calcproto.MediaTypeJPEG
	}
	return RenderedImage{
		MediaType: mediaType,
		Data:      data,
		Width:     cfg.Width,
		Height:    cfg.Height,
	}, nil
}

func hasBase64Param(params []string) bool {
	for _, p := range params {
		if strings.EqualFold(strings.TrimSpace(p), "base64") {
			return true
		}
	}
	return false
}

func decodeBase64(payload string) ([]byte, error) {
	payload = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\n', '\r', '\t':
			return -1
		}
		return r
	}, payload)

	data, err := base64.StdEncoding.DecodeString(payload)
	if err == nil {
		return data, nil
	}
	return base64.RawStdEncoding.DecodeString(payload)
}

// previewMaxBytes ограничивает фото, которое хранится в сессии ради миниатюры.
const previewMaxBytes = 512 << 10

// previewURL собирает data URL загруженного фото, если его тип показывается как миниатюра.
func previewURL(in models.SubmissionInput) string {
	if len(in.Image) == 0 || len(in.Image) > previewMaxBytes {
		return ""
	}
	if _, ok := imageFormats[in.ImageType]; !ok {
		return ""
	}
	return RenderedImage{MediaType: in.ImageType, Data: in.Image}.DataURL()
}
