package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

const defaultConfigPath = "./config.yaml"

type Config struct {
	ListenAddr          string        `yaml:"listen_addr" json:"listen_addr" env:"FILLMETER_LISTEN_ADDR"`
	CalcBaseURL         string        `yaml:"calc_base_url" json:"calc_base_url" env:"FILLMETER_CALC_BASE_URL"`
	RequestTimeout      time.Duration `yaml:"request_timeout" json:"request_timeout" env:"FILLMETER_REQUEST_TIMEOUT"`
	MaxUploadBytes      int64         `yaml:"max_upload_bytes" json:"max_upload_bytes" env:"FILLMETER_MAX_UPLOAD_BYTES"`
	MaxResponseBytes    int64         `yaml:"max_response_bytes" json:"max_response_bytes" env:"FILLMETER_MAX_RESPONSE_BYTES"`
	VolumeUnit          string        `yaml:"volume_unit" json:"volume_unit" env:"FILLMETER_VOLUME_UNIT"`
	DefaultLang         string        `yaml:"default_lang" json:"default_lang" env:"FILLMETER_DEFAULT_LANG"`
	SessionTTL          time.Duration `yaml:"session_ttl" json:"session_ttl" env:"FILLMETER_SESSION_TTL"`
	SessionSweepEvery   time.Duration `yaml:"session_sweep_every" json:"session_sweep_every" env:"FILLMETER_SESSION_SWEEP_EVERY"`
	SubmitRatePerMinute int           `yaml:"submit_rate_per_minute" json:"submit_rate_per_minute" env:"FILLMETER_SUBMIT_RATE_PER_MINUTE"`
	LogLevel            string        `yaml:"log_level" json:"log_level" env:"FILLMETER_LOG_LEVEL"`
	LogFormat           string        `yaml:"log_format" json:"log_format" env:"FILLMETER_LOG_FORMAT"`
	Debug               bool          `yaml:"debug" json:"debug" env:"FILLMETER_DEBUG"`
}

// Default возвращает конфигурацию для локального запуска рядом с сервисом расчёта.
func Default() Config {
	return Config{
		ListenAddr:          ":8080",
		CalcBaseURL:         "http://127.0.0.1:8000",
		RequestTimeout:      60 * time.Second,
		MaxUploadBytes:      10 << 20,
		MaxResponseBytes:    16 << 20,
		VolumeUnit:          "m³",
		DefaultLang:         "tr",
		SessionTTL:          30 * time.Minute,
		SessionSweepEvery:   5 * time.Minute,
		SubmitRatePerMinute: 30,
		LogLevel:            "info",
		LogFormat:           "json",
	}
}

// Load читает YAML-конфигурацию, применяет ENV-переопределения и возвращает актуальную структуру.
// Отсутствие файла по пути по умолчанию не считается ошибкой.
func Load() (*Config, error) {
	path := strings.TrimSpace(os.Getenv("CONFIG_PATH"))
	explicit := path != ""
	if !explicit {
		path = defaultConfigPath
	}

	c := Default()
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err = yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return nil, err
	}

	// ENV override
	if err = env.Parse(&c); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	c.fillDefaults()
	if err = c.Validate(); err != nil {
		return nil, err
	}

	return &c, nil
}

// fillDefaults подставляет значения по умолчанию вместо обнулённых в файле полей.
func (c *Config) fillDefaults() {
	def := Default()
	if strings.TrimSpace(c.ListenAddr) == "" {
		c.ListenAddr = def.ListenAddr
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = def.RequestTimeout
	}
	if c.MaxUploadBytes <= 0 {
		c.MaxUploadBytes = def.MaxUploadBytes
	}
	if c.MaxResponseBytes <= 0 {
		c.MaxResponseBytes = def.MaxResponseBytes
	}
	if strings.TrimSpace(c.VolumeUnit) == "" {
		c.VolumeUnit = def.VolumeUnit
	}
	if strings.TrimSpace(c.DefaultLang) == "" {
		c.DefaultLang = def.DefaultLang
	}
	if c.SessionTTL <= 0 {
		c.SessionTTL = def.SessionTTL
	}
	if c.SessionSweepEvery <= 0 {
		c.SessionSweepEvery = def.SessionSweepEvery
	}
}

// Validate проверяет обязательные поля.
func (c *Config) Validate() error {
	u, err := url.Parse(strings.TrimSpace(c.CalcBaseURL))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("calc_base_url must be an absolute URL, got %q", c.CalcBaseURL)
	}
	if c.SubmitRatePerMinute < 0 {
		return fmt.Errorf("submit_rate_per_minute must be >= 0")
	}
	return nil
}
