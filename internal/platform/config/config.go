// Package config carga la configuración de la app desde variables de entorno
// (12-factor). No hay archivos de config: todo entra por env.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

type Config struct {
	AppName string `env:"APP_NAME" envDefault:"bonvet-api"`
	Port    string `env:"PORT" envDefault:"8080"`

	// Si DB_DSN viene vacío se usan repos in-memory (modo dev/handoff).
	DBDSN string `env:"DB_DSN"`

	// URL base pública, se usa para armar access_url de los QR.
	BaseURL string `env:"BASE_URL" envDefault:"http://localhost:8080"`

	// Secreto de firma de sesiones. Obligatorio fuera de dev.
	JWTSecret string `env:"JWT_SECRET"`

	SessionTTLMinutes int `env:"SESSION_TTL_MINUTES" envDefault:"60"`
	QRTTLMinutes      int `env:"QR_TTL_MINUTES" envDefault:"15"`

	// Intervalo del barrido de tokens QR vencidos.
	QRSweepInterval time.Duration `env:"QR_SWEEP_INTERVAL" envDefault:"1h"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`

	ReadTimeout  time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT" envDefault:"10s"`
}

var ErrMissingJWTSecret = errors.New("JWT_SECRET is required")

func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if strings.TrimSpace(c.JWTSecret) == "" {
		return ErrMissingJWTSecret
	}
	return nil
}

func (c Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLMinutes) * time.Minute
}

func (c Config) QRTTL() time.Duration {
	return time.Duration(c.QRTTLMinutes) * time.Minute
}
