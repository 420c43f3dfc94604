package router

import (
	"database/sql"
	"fmt"
	"net/http"

	"rio-companion/internal/adapters/auth/identidad"
	"rio-companion/internal/adapters/auth/jwtauth"
	mem "rio-companion/internal/adapters/storage/memory"
	pg "rio-companion/internal/adapters/storage/postgres"
	"rio-companion/internal/config"
	"rio-companion/internal/domain/companions"
	"rio-companion/internal/domain/history"
	"rio-companion/internal/middleware"
	"rio-companion/internal/platform/logger"
	"rio-companion/internal/ports/auth"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Options struct {
	Config config.Config

	// AuthVerifier explícito gana sobre el resuelto desde Config.
	// Si ambos faltan => modo dev (headers X-Debug-*).
	AuthVerifier auth.AuthVerifier

	// Opcional: si viene, usa esta DB. Si no, abre DB_DSN (fatal si falla)
	// o cae a in-memory cuando no hay DSN configurado.
	DB *sql.DB

	Logger logger.Logger
}

func NewRouter(opts Options) (http.Handler, error) {
	log := opts.Logger
	if log == nil {
		log = logger.New(logger.Options{
			Level:  logger.ParseLevel(opts.Config.LogLevel),
			Format: logger.ParseFormat(opts.Config.LogFormat),
			App:    opts.Config.AppName,
		})
	}

	verifier, err := resolveVerifier(opts)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	r.Use(middleware.AuthContext(verifier))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	db := opts.DB
	if db == nil && opts.Config.DBDSN != "" {
		// DB_DSN configurado => Postgres es obligatorio. Arrancar en memoria
		// aquí serviría un estado vacío y perdería escrituras al reiniciar.
		opened, err := pg.Open(opts.Config.DBDSN)
		if err != nil {
			return nil, fmt.Errorf("router: postgres open: %w", err)
		}
		db = opened
	}

	var (
		companionRepo companions.Repository
		historyRepo   history.Repository
	)

	if db != nil {
		companionRepo = pg.NewCompanionsRepo(db)
		historyRepo = pg.NewHistoryRepo(db)
	} else {
		companionRepo = mem.NewCompanionRepo()
		historyRepo = mem.NewHistoryRepo()
	}

	// Services por módulo
	historySvc := history.NewService(historyRepo, log)
	companionsSvc := companions.NewService(companionRepo, history.NewRecorder(historySvc), log)

	// Rutas por módulo
	companions.RegisterRoutes(r, companionsSvc)
	history.RegisterRoutes(r, historySvc)

	return r, nil
}

// resolveVerifier elige el modo de verificación de tokens:
// explícito > JWT local > servicio de identidad > dev.
// Si un verifier configurado no puede inicializarse, el error es fatal:
// degradar a modo dev dejaría la autenticación en manos de headers X-Debug-*.
func resolveVerifier(opts Options) (auth.AuthVerifier, error) {
	if opts.AuthVerifier != nil {
		return opts.AuthVerifier, nil
	}

	cfg := opts.Config
	if cfg.JWTSecret != "" {
		return jwtauth.NewVerifier(jwtauth.Config{
			Secret: cfg.JWTSecret,
			Issuer: cfg.JWTIssuer,
		}), nil
	}
	if cfg.IdentityURL != "" {
		client, err := identidad.NewClient(identidad.Config{
			BaseURL: cfg.IdentityURL,
			APIKey:  cfg.IdentityAPIKey,
			Timeout: cfg.IdentityTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("router: identidad client: %w", err)
		}
		return identidad.NewVerifier(client), nil
	}

	return nil, nil // modo dev
}
