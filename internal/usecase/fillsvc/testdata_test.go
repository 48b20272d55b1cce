package fillsvc

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"sync"
	"testing"

	"github.com/sir_venger/fillmeter/internal/models"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 3))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func jpegBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

func dataURL(mediaType string, data []byte) string {
	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// fakeCalc - подменный сервис расчёта; fn решает, что вернуть.
type fakeCalc struct {
	mu    sync.Mutex
	calls []models.SubmissionInput
	fn    func(ctx context.Context, in models.SubmissionInput) (models.CalculationResult, error)
}

func (f *fakeCalc) Calculate(ctx context.Context, in models.SubmissionInput) (models.CalculationResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, in)
	fn := f.fn
	f.mu.Unlock()
	return fn(ctx, in)
}

func (f *fakeCalc) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func fixed(res models.CalculationResult, err error) func(context.Context, models.SubmissionInput) (models.CalculationResult, error) {
	return func(context.Context, models.SubmissionInput) (models.CalculationResult, error) {
		return res, err
	}
}
