package calcclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sir_venger/fillmeter/internal/logging"
	"github.com/sir_venger/fillmeter/internal/models"
	"github.com/sir_venger/fillmeter/pkg/calcproto"
)

const (
	defaultTimeout          = 60 * time.Second
	defaultMaxResponseBytes = 16 << 20
)

// Calculator - внешний сервис расчёта заполненности контейнера.
type Calculator interface {
	// Calculate отправляет объём и фотографию и возвращает проверенный результат.
	Calculate(ctx context.Context, in models.SubmissionInput) (models.CalculationResult, error)
}

// Option настраивает клиента.
type Option func(*Client)

// WithHTTPClient подменяет HTTP-клиент (например, с другим таймаутом).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.hc = hc
		}
	}
}

// WithTimeout задаёт таймаут на весь запрос.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.hc = &http.Client{Timeout: d, Transport: c.hc.Transport}
		}
	}
}

// WithPath меняет путь эндпоинта расчёта.
func WithPath(path string) Option {
	return func(c *Client) {
		if strings.TrimSpace(path) != "" {
			c.path = path
		}
	}
}

// WithProgress включает индикатор выгрузки в указанный writer.
func WithProgress(w io.Writer) Option {
	return func(c *Client) { c.progress = w }
}

// WithLogger задаёт логгер для исходящих запросов.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMaxResponseBytes ограничивает размер тела ответа.
func WithMaxResponseBytes(n int64) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxResponse = n
		}
	}
}

// Client - HTTP-клиент сервиса расчёта.
type Client struct {
	base        *url.URL
	path        string
	hc          *http.Client
	progress    io.Writer
	logger      *slog.Logger
	maxResponse int64
}

var _ Calculator = (*Client)(nil)

// New создаёт клиента для сервиса по базовому адресу.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("invalid calc url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid calc url %q: scheme and host are required", baseURL)
	}

	c := &Client{
		base:        u,
		path:        calcproto.CalculatePath,
		hc:          &http.Client{Timeout: defaultTimeout},
		logger:      slog.Default(),
		maxResponse: defaultMaxResponseBytes,
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Endpoint возвращает полный адрес эндпоинта расчёта.
func (c *Client) Endpoint() string {
	return c.base.JoinPath(c.path).String()
}

// Calculate выполняет один POST multipart/form-data и разбирает ответ.
func (c *Client) Calculate(ctx context.Context, in models.SubmissionInput) (models.CalculationResult, error) {
	body, contentType, err := encodeForm(in)
	if err != nil {
		return models.CalculationResult{}, fmt.Errorf("encode form: %w", err)
	}

	var (
		reader io.Reader = bytes.NewReader(body)
		bar    *progressBar
	)
	if c.progress != nil {
		bar = newProgressBar(c.progress, "Uploading "+displayName(in.ImageName), int64(len(body)))
		reader = io.TeeReader(reader, progressWriter{bar: bar})
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint(), reader)
	if err != nil {
		return models.CalculationResult{}, fmt.Errorf("create request: %w", err)
	}
	requestID := uuid.NewString()
	req.ContentLength = int64(len(body))
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	req.Header.Set(calcproto.HeaderRequestID, requestID)

	start := time.Now()
	bar.render(true, "")
	resp, err := c.hc.Do(req)
	if err != nil {
		bar.Fail(err)
		logging.LogError(c.logger, "calc request failed", err,
			slog.String("request_id", requestID),
			slog.String("component", "calcclient"))
		return models.CalculationResult{}, &models.TransportError{Err: err}
	}
	defer resp.Body.Close()
	bar.Finish()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, c.maxResponse+1))
	if err != nil {
		return models.CalculationResult{}, &models.TransportError{Err: fmt.Errorf("read response: %w", err)}
	}
	if int64(len(raw)) > c.maxResponse {
		return models.CalculationResult{}, &models.ServiceError{Status: resp.StatusCode, Message: "response too large"}
	}

	res, err := decodeResponse(resp.StatusCode, raw)
	logging.LogOperation(c.logger, "calc request completed",
		slog.String("request_id", requestID),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)),
		slog.Bool("ok", err == nil))
	if err != nil {
		return models.CalculationResult{}, err
	}

	return res, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// encodeForm собирает multipart-тело с полями containerVolume и containerImage.
func encodeForm(in models.SubmissionInput) ([]byte, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	if err := writer.WriteField(calcproto.FieldVolume, in.VolumeText); err != nil {
		return nil, "", err
	}

	contentType := in.ImageType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		calcproto.FieldImage, quoteEscaper.Replace(displayName(in.ImageName))))
	header.Set("Content-Type", contentType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err = part.Write(in.Image); err != nil {
		return nil, "", err
	}
	if err = writer.Close(); err != nil {
		return nil, "", err
	}

	return body.Bytes(), writer.FormDataContentType(), nil
}

func displayName(name string) string {
	if name = strings.TrimSpace(name); name != "" {
		return name
	}
	return "image"
}
