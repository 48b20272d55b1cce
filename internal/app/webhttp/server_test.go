package webhttp

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sir_venger/fillmeter/internal/config"
	"github.com/sir_venger/fillmeter/internal/models"
	"github.com/sir_venger/fillmeter/pkg/calcproto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type calcFunc func(ctx context.Context, in models.SubmissionInput) (models.CalculationResult, error)

func (f calcFunc) Calculate(ctx context.Context, in models.SubmissionInput) (models.CalculationResult, error) {
	return f(ctx, in)
}

func result(res models.CalculationResult) calcFunc {
	return func(context.Context, models.SubmissionInput) (models.CalculationResult, error) {
		return res, nil
	}
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 4, 4))))
	return buf.Bytes()
}

func newTestServer(t *testing.T, calc calcFunc, mutate func(*config.Config)) (*httptest.Server, *Server) {
	t.Helper()

	cfg := config.Default()
	cfg.DefaultLang = "en"
	cfg.CalcBaseURL = "http://127.0.0.1:1"
	cfg.SubmitRatePerMinute = 0
	cfg.Debug = true
	if mutate != nil {
		mutate(&cfg)
	}

	h, srv, err := NewServer(&cfg, Options{
		Calculator: calc,
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)

	ts := httptest.NewServer(h)
	t.Cleanup(func() {
		ts.Close()
		srv.Close()
	})
	return ts, srv
}

func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar, Timeout: 5 * time.Second}
}

func submitRequest(t *testing.T, base, volume, name string, img []byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField(calcproto.FieldVolume, volume))
	if img != nil {
		part, err := mw.CreateFormFile(calcproto.FieldImage, name)
		require.NoError(t, err)
		_, err = part.Write(img)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, base+"/submit", &body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")
	return req
}

func submit(t *testing.T, c *http.Client, base, volume string, img []byte) (int, models.UiState) {
	t.Helper()
	resp, err := c.Do(submitRequest(t, base, volume, "tank.png", img))
	require.NoError(t, err)
	defer resp.Body.Close()

	var st models.UiState
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&st))
	return resp.StatusCode, st
}

func fetchState(t *testing.T, c *http.Client, base string) models.UiState {
	t.Helper()
	resp, err := c.Get(base + "/api/state")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var st models.UiState
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&st))
	return st
}

func waitSettled(t *testing.T, c *http.Client, base string) models.UiState {
	t.Helper()
	var st models.UiState
	require.Eventually(t, func() bool {
		st = fetchState(t, c, base)
		return st.Phase != models.PhaseSubmitting
	}, 5*time.Second, 10*time.Millisecond)
	return st
}

func getPage(t *testing.T, c *http.Client, url string) string {
	t.Helper()
	resp, err := c.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func TestPage_Idle(t *testing.T) {
	ts, _ := newTestServer(t, result(models.CalculationResult{}), nil)
	c := newClient(t)

	resp, err := c.Get(ts.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/html; charset=utf-8", resp.Header.Get("Content-Type"))

	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	page := string(b)
	assert.Contains(t, page, "Container Volume Calculation")
	assert.Contains(t, page, `name="containerVolume"`)
	assert.Contains(t, page, `type="text" inputmode="decimal"`)
	assert.NotContains(t, page, `type="number"`)
	assert.Contains(t, page, `name="containerImage"`)
	assert.Contains(t, page, "Container volume (m³):")
	assert.NotContains(t, page, `class="result"`)
	assert.NotContains(t, page, `class="error"`)
	assert.NotContains(t, page, "http-equiv")

	var session string
	for _, ck := range resp.Cookies() {
		if ck.Name == sessionCookieName {
			session = ck.Value
		}
	}
	assert.NotEmpty(t, session)
}

func TestSubmit_SuccessRendersResult(t *testing.T) {
	got := make(chan models.SubmissionInput, 1)
	v3d := 20.0
	img := pngBytes(t)
	calc := func(_ context.Context, in models.SubmissionInput) (models.CalculationResult, error) {
		got <- in
		return models.CalculationResult{
			FillPercentage: 75,
			FilledVolume:   15,
			RenderedImage:  "data:image/png;base64," + base64.StdEncoding.EncodeToString(img),
			Volume3D:       &v3d,
		}, nil
	}
	ts, _ := newTestServer(t, calc, nil)
	c := newClient(t)

	status, _ := submit(t, c, ts.URL, "20", img)
	assert.Equal(t, http.StatusAccepted, status)

	st := waitSettled(t, c, ts.URL)
	require.Equal(t, models.PhaseSuccess, st.Phase)
	in := <-got
	assert.Equal(t, 20.0, in.Volume)
	assert.Equal(t, "tank.png", in.ImageName)

	page := getPage(t, c, ts.URL+"/")
	assert.Contains(t, page, `<span class="fill">75%</span>`)
	assert.Contains(t, page, `<span class="volume">15 m³</span>`)
	assert.Contains(t, page, `<span class="volume3d">20 m³</span>`)
	assert.Contains(t, page, `<img src="data:image/png;base64,`)
	assert.Contains(t, page, "Uploaded image: tank.png")
	assert.Contains(t, page, `<img class="preview" src="data:image/png;base64,`)
	assert.NotContains(t, page, `class="error"`)
}

func TestSubmit_TurkishFormatting(t *testing.T) {
	ts, _ := newTestServer(t, result(models.CalculationResult{FillPercentage: 75, FilledVolume: 12.5}), func(c *config.Config) {
		c.DefaultLang = "tr"
	})
	c := newClient(t)

	submit(t, c, ts.URL, "16,666", pngBytes(t))
	waitSettled(t, c, ts.URL)

	page := getPage(t, c, ts.URL+"/")
	assert.Contains(t, page, `<span class="fill">%75</span>`)
	assert.Contains(t, page, `<span class="volume">12,5 m³</span>`)

	page = getPage(t, c, ts.URL+"/?lang=en")
	assert.Contains(t, page, `<span class="fill">75%</span>`)
	assert.Contains(t, page, `<span class="volume">12.5 m³</span>`)

	// выбор языка запоминается в cookie
	page = getPage(t, c, ts.URL+"/")
	assert.Contains(t, page, `<html lang="en">`)
}

func TestSubmit_ValidationErrors(t *testing.T) {
	cases := []struct {
		name   string
		volume string
		img    []byte
		want   string
	}{
		{"nothing", "", nil, "Please fill in all fields!"},
		{"no image", "20", nil, "Please fill in all fields!"},
		{"no volume", "", []byte{0x89, 'P', 'N', 'G'}, "Please fill in all fields!"},
		{"bad volume without image", "abc", nil, "Please fill in all fields!"},
		{"negative volume", "-3", []byte("\x89PNG\r\n\x1a\n0000"), "Container volume must be a positive number."},
		{"not an image", "20", []byte("just some text"), "The selected file is not an image."},
		{"too large", "20", append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 2048)...), "The image is too large (max 1.0 KB)."},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var calls atomic.Int32
			calc := func(context.Context, models.SubmissionInput) (models.CalculationResult, error) {
				calls.Add(1)
				return models.CalculationResult{}, nil
			}
			ts, _ := newTestServer(t, calc, func(c *config.Config) { c.MaxUploadBytes = 1024 })
			c := newClient(t)

			status, st := submit(t, c, ts.URL, tc.volume, tc.img)
			assert.Equal(t, http.StatusBadRequest, status)
			assert.Equal(t, models.PhaseFailure, st.Phase)
			require.NotNil(t, st.Failure)
			assert.Equal(t, models.KindValidation, st.Failure.Kind)

			page := getPage(t, c, ts.URL+"/")
			assert.Contains(t, page, tc.want)
			assert.Zero(t, calls.Load())
		})
	}
}

func TestSubmit_BodyOverLimit(t *testing.T) {
	var calls atomic.Int32
	calc := func(context.Context, models.SubmissionInput) (models.CalculationResult, error) {
		calls.Add(1)
		return models.CalculationResult{}, nil
	}
	ts, _ := newTestServer(t, calc, func(c *config.Config) { c.MaxUploadBytes = 1024 })
	c := newClient(t)
	getPage(t, c, ts.URL+"/")

	body := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 3<<20)...)
	status, st := submit(t, c, ts.URL, "20", body)

	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, models.PhaseFailure, st.Phase)
	require.NotNil(t, st.Failure)
	assert.Equal(t, models.KindValidation, st.Failure.Kind)
	assert.Equal(t, calcproto.FieldImage, st.Failure.Field)

	assert.Contains(t, getPage(t, c, ts.URL+"/"), "The image is too large (max 1.0 KB).")
	assert.Zero(t, calls.Load())
}

func TestSubmit_CommaVolume(t *testing.T) {
	got := make(chan models.SubmissionInput, 1)
	calc := func(_ context.Context, in models.SubmissionInput) (models.CalculationResult, error) {
		got <- in
		return models.CalculationResult{FillPercentage: 50, FilledVolume: 10.25}, nil
	}
	ts, _ := newTestServer(t, calc, nil)
	c := newClient(t)

	status, _ := submit(t, c, ts.URL, "20,5", pngBytes(t))
	assert.Equal(t, http.StatusAccepted, status)
	waitSettled(t, c, ts.URL)

	in := <-got
	assert.Equal(t, 20.5, in.Volume)
	assert.Contains(t, getPage(t, c, ts.URL+"/"), `value="20.5"`)
}

func TestSubmit_CalculationFailures(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"transport", &models.TransportError{Err: errors.New("dial failed")}, "An error occurred: dial failed"},
		{"service", &models.ServiceError{Status: 400, Message: "bad image"}, "API error: bad image"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			calc := func(context.Context, models.SubmissionInput) (models.CalculationResult, error) {
				return models.CalculationResult{}, tc.err
			}
			ts, _ := newTestServer(t, calc, nil)
			c := newClient(t)

			submit(t, c, ts.URL, "20", pngBytes(t))
			st := waitSettled(t, c, ts.URL)
			require.Equal(t, models.PhaseFailure, st.Phase)

			page := getPage(t, c, ts.URL+"/")
			assert.Contains(t, page, tc.want)
			assert.NotContains(t, page, `class="result"`)
			assert.Contains(t, page, `<button type="submit">Calculate</button>`)
		})
	}
}

func TestSubmit_RenderedImageVariants(t *testing.T) {
	t.Run("malformed", func(t *testing.T) {
		ts, _ := newTestServer(t, result(models.CalculationResult{
			FillPercentage: 40, FilledVolume: 8, RenderedImage: "data:image/png;base64,bm90IGFuIGltYWdl",
		}), nil)
		c := newClient(t)

		submit(t, c, ts.URL, "20", pngBytes(t))
		waitSettled(t, c, ts.URL)

		page := getPage(t, c, ts.URL+"/")
		assert.Contains(t, page, "40%")
		assert.Contains(t, page, "3D image could not be loaded.")
		assert.NotContains(t, page, "<img src=\"data:")
	})

	t.Run("absent", func(t *testing.T) {
		ts, _ := newTestServer(t, result(models.CalculationResult{FillPercentage: 40, FilledVolume: 8}), nil)
		c := newClient(t)

		submit(t, c, ts.URL, "20", pngBytes(t))
		waitSettled(t, c, ts.URL)

		page := getPage(t, c, ts.URL+"/")
		assert.Contains(t, page, "8 m³")
		assert.NotContains(t, page, "3D image")
		assert.NotContains(t, page, `class="render"`)
	})
}

func TestSubmit_SubmittingState(t *testing.T) {
	release := make(chan struct{})
	calc := func(ctx context.Context, _ models.SubmissionInput) (models.CalculationResult, error) {
		select {
		case <-release:
		case <-ctx.Done():
		}
		return models.CalculationResult{FillPercentage: 10, FilledVolume: 2}, nil
	}
	ts, _ := newTestServer(t, calc, nil)
	c := newClient(t)

	submit(t, c, ts.URL, "20", pngBytes(t))

	page := getPage(t, c, ts.URL+"/")
	assert.Contains(t, page, `<meta http-equiv="refresh" content="1">`)
	assert.Contains(t, page, "Calculating...")
	assert.Contains(t, page, "<button type=\"submit\" disabled>")

	close(release)
	st := waitSettled(t, c, ts.URL)
	assert.Equal(t, models.PhaseSuccess, st.Phase)
	assert.NotContains(t, getPage(t, c, ts.URL+"/"), "http-equiv")
}

func TestSubmit_RedirectsBrowser(t *testing.T) {
	ts, _ := newTestServer(t, result(models.CalculationResult{FillPercentage: 1, FilledVolume: 1}), nil)
	c := newClient(t)
	c.CheckRedirect = func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }

	req := submitRequest(t, ts.URL, "20", "tank.png", pngBytes(t))
	req.Header.Del("Accept")
	resp, err := c.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))
}

func TestSessions_AreIsolated(t *testing.T) {
	ts, _ := newTestServer(t, result(models.CalculationResult{FillPercentage: 88, FilledVolume: 17.6}), nil)
	alice, bob := newClient(t), newClient(t)

	submit(t, alice, ts.URL, "20", pngBytes(t))
	waitSettled(t, alice, ts.URL)

	assert.Contains(t, getPage(t, alice, ts.URL+"/"), "88%")
	bobPage := getPage(t, bob, ts.URL+"/")
	assert.NotContains(t, bobPage, "88%")
	assert.NotContains(t, bobPage, `class="result"`)
	assert.Equal(t, models.PhaseIdle, fetchState(t, bob, ts.URL).Phase)
}

func TestSubmit_RateLimited(t *testing.T) {
	ts, _ := newTestServer(t, result(models.CalculationResult{FillPercentage: 1, FilledVolume: 1}), func(c *config.Config) {
		c.SubmitRatePerMinute = 1
	})
	c := newClient(t)

	// первая страница заводит сессию, лимит считается по ней
	getPage(t, c, ts.URL+"/")

	status, _ := submit(t, c, ts.URL, "20", pngBytes(t))
	assert.Equal(t, http.StatusAccepted, status)

	resp, err := c.Do(submitRequest(t, ts.URL, "20", "tank.png", pngBytes(t)))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "60", resp.Header.Get("Retry-After"))
	var body calcproto.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "Too many submissions, please wait a moment.", body.Error)
}

func TestReset(t *testing.T) {
	ts, _ := newTestServer(t, result(models.CalculationResult{FillPercentage: 5, FilledVolume: 1}), nil)
	c := newClient(t)

	submit(t, c, ts.URL, "20", pngBytes(t))
	waitSettled(t, c, ts.URL)

	resp, err := c.Post(ts.URL+"/reset", "", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, models.PhaseIdle, fetchState(t, c, ts.URL).Phase)
	assert.NotContains(t, getPage(t, c, ts.URL+"/"), `class="result"`)
}

func TestHealthAndDebug(t *testing.T) {
	ts, _ := newTestServer(t, result(models.CalculationResult{}), nil)
	c := newClient(t)

	resp, err := c.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var h healthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&h))
	assert.True(t, h.OK)
	assert.False(t, h.Calc.OK)

	page := getPage(t, c, ts.URL+"/debug/state")
	assert.Contains(t, page, "Form state")
	assert.Contains(t, page, "Phase")

	page = getPage(t, c, ts.URL+"/debug/state?scope=config")
	assert.Contains(t, page, "CalcBaseURL")
}

func TestDebugDisabled(t *testing.T) {
	ts, _ := newTestServer(t, result(models.CalculationResult{}), func(c *config.Config) { c.Debug = false })

	resp, err := http.Get(ts.URL + "/debug/state")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestStaticAssets(t *testing.T) {
	ts, _ := newTestServer(t, result(models.CalculationResult{}), nil)

	for _, p := range []string{"/static/style.css", "/static/logo.svg"} {
		resp, err := http.Get(ts.URL + p)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, p)
	}
}
