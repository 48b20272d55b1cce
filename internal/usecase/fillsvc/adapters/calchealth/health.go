package calchealth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sir_venger/fillmeter/pkg/calcproto"
)

const defaultTimeout = 2 * time.Second

// Status - результат проверки доступности сервиса расчёта.
type Status struct {
	OK        bool   `json:"ok"`
	Code      int    `json:"status,omitempty"`
	LatencyMs int64  `json:"latency_ms"`
	Error     string `json:"error,omitempty"`
}

// Checker опрашивает health-эндпоинт сервиса расчёта.
type Checker struct {
	url    string
	client *http.Client
}

// New создаёт проверку для базового адреса сервиса.
func New(baseURL string, timeout time.Duration) *Checker {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Checker{
		url:    healthURL(baseURL),
		client: &http.Client{Timeout: timeout},
	}
}

type healthPayload struct {
	OK *bool `json:"ok"`
}

// Check выполняет один запрос. Сервис считается готовым при 2xx, если только
// тело явно не сообщает "ok": false.
func (c *Checker) Check(ctx context.Context) Status {
	start := time.Now()
	st, err := c.check(ctx)
	st.LatencyMs = time.Since(start).Milliseconds()
	if err != nil {
		st.OK = false
		st.Error = err.Error()
	}
	return st
}

func (c *Checker) check(ctx context.Context) (Status, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return Status{}, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return Status{}, err
	}
	defer resp.Body.Close()

	st := Status{Code: resp.StatusCode}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return st, fmt.Errorf("health check failed: %s", resp.Status)
	}

	var payload healthPayload
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if json.Unmarshal(body, &payload) == nil && payload.OK != nil && !*payload.OK {
		return st, fmt.Errorf("service reports not ready")
	}

	st.OK = true
	return st, nil
}

func healthURL(base string) string {
	return strings.TrimRight(base, "/") + calcproto.HealthPath
}
