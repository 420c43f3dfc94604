// Package config centraliza la configuración del servicio.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	HTTPAddress string `env:"HTTP_ADDRESS" envDefault:":8080"`

	// Si DBDSN viene vacío, los repos corren in-memory (modo dev).
	DBDSN string `env:"DB_DSN"`

	// Verificación de tokens, en orden de preferencia:
	// JWTSecret (verificación local HS256) > IdentityURL (servicio de
	// identidad) > ninguno (modo dev con headers X-Debug-*).
	JWTSecret       string        `env:"JWT_SECRET"`
	JWTIssuer       string        `env:"JWT_ISSUER"`
	IdentityURL     string        `env:"IDENTITY_URL"`
	IdentityAPIKey  string        `env:"IDENTITY_API_KEY"`
	IdentityTimeout time.Duration `env:"IDENTITY_TIMEOUT" envDefault:"5s"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`
	AppName   string `env:"APP_NAME" envDefault:"rio-companion"`
}

// Load lee la configuración desde variables de entorno.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
