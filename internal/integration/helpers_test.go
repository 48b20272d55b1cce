package integration

import (
	"bytes"
	"encoding/json"
	"image"
	"image/png"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sir_venger/fillmeter/internal/app/calcstub"
	"github.com/sir_venger/fillmeter/internal/app/webhttp"
	"github.com/sir_venger/fillmeter/internal/config"
	"github.com/sir_venger/fillmeter/internal/models"
	"github.com/sir_venger/fillmeter/pkg/calcproto"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startStack поднимает заглушку сервиса расчёта и веб-форму, смотрящую на неё.
func startStack(t *testing.T, opts calcstub.Options) (web, calc *httptest.Server) {
	t.Helper()

	calc = httptest.NewServer(calcstub.New(opts, quietLogger()))
	t.Cleanup(calc.Close)

	cfg := config.Default()
	cfg.CalcBaseURL = calc.URL
	cfg.DefaultLang = "en"
	cfg.RequestTimeout = 5 * time.Second
	cfg.SubmitRatePerMinute = 0

	h, srv, err := webhttp.NewServer(&cfg, webhttp.Options{Logger: quietLogger()})
	if err != nil {
		t.Fatal(err)
	}
	web = httptest.NewServer(h)
	t.Cleanup(func() {
		web.Close()
		srv.Close()
	})
	return web, calc
}

func browser(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatal(err)
	}
	return &http.Client{Jar: jar, Timeout: 10 * time.Second}
}

func containerPhoto(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 16, 12))); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// postForm отправляет форму так же, как браузер, и проходит по редиректу на страницу.
func postForm(t *testing.T, c *http.Client, base, volume string, img []byte) string {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	_ = mw.WriteField(calcproto.FieldVolume, volume)
	part, err := mw.CreateFormFile(calcproto.FieldImage, "container.png")
	if err != nil {
		t.Fatal(err)
	}
	_, _ = part.Write(img)
	if err = mw.Close(); err != nil {
		t.Fatal(err)
	}

	resp, err := c.Post(base+"/submit", mw.FormDataContentType(), &body)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("submit status %s", resp.Status)
	}
	if resp.Request.URL.Path != "/" {
		t.Fatalf("submit did not redirect to the page: %s", resp.Request.URL)
	}
	b, _ := io.ReadAll(resp.Body)
	return string(b)
}

func state(t *testing.T, c *http.Client, base string) models.UiState {
	t.Helper()
	resp, err := c.Get(base + "/api/state")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var st models.UiState
	if err = json.NewDecoder(resp.Body).Decode(&st); err != nil {
		t.Fatal(err)
	}
	return st
}

// settle ждёт, пока форма выйдет из фазы Submitting.
func settle(t *testing.T, c *http.Client, base string) models.UiState {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		if st := state(t, c, base); st.Phase != models.PhaseSubmitting {
			return st
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("form is still submitting")
	return models.UiState{}
}

func page(t *testing.T, c *http.Client, base string) string {
	t.Helper()
	resp, err := c.Get(base + "/")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return string(b)
}

func mustContain(t *testing.T, s, sub string) {
	t.Helper()
	if !strings.Contains(s, sub) {
		t.Fatalf("expected %q in page", sub)
	}
}

func mustNotContain(t *testing.T, s, sub string) {
	t.Helper()
	if strings.Contains(s, sub) {
		t.Fatalf("unexpected %q in page", sub)
	}
}
