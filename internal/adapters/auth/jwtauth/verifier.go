package jwtauth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"rio-companion/internal/ports/auth"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid bearer token")
)

// Config para verificación local de tokens HS256, pensada para despliegues
// sin el servicio de identidad (el secreto se comparte con quien firma).
type Config struct {
	Secret string
	Issuer string // opcional; si viene, se exige en el token
}

// Verifier implementa auth.AuthVerifier validando el JWT localmente.
type Verifier struct {
	cfg Config
}

func NewVerifier(cfg Config) *Verifier {
	return &Verifier{cfg: cfg}
}

func (v *Verifier) Verify(ctx context.Context, token string) (auth.Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return auth.Claims{}, ErrInvalidToken
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
	}
	if strings.TrimSpace(v.cfg.Issuer) != "" {
		opts = append(opts, jwt.WithIssuer(v.cfg.Issuer))
	}

	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(v.cfg.Secret), nil
	}, opts...)
	if err != nil {
		return auth.Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return auth.Claims{}, ErrInvalidToken
	}

	subject, _ := claims["sub"].(string)
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return auth.Claims{}, ErrInvalidToken
	}

	email, _ := claims["email"].(string)
	role, _ := claims["role"].(string)
	if strings.EqualFold(strings.TrimSpace(role), auth.RoleAdmin) {
		role = auth.RoleAdmin
	} else {
		role = auth.RoleUser
	}

	return auth.Claims{
		UserID: subject,
		Email:  strings.TrimSpace(email),
		Role:   role,
	}, nil
}
