package companions

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"rio-companion/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	// Compañero (owner)
	r.Route("/companions", func(cr chi.Router) {
		cr.Post("/", adoptHandler(svc))

		// Cuidar: solo el owner del compañero
		cr.Post("/{companionID}/care", careHandler(svc))
	})

	r.Get("/me/companion", getMyCompanionHandler(svc))

	// Consola admin (requiere role=admin en claims)
	r.Route("/admin", func(ar chi.Router) {
		ar.Get("/users/{userID}/companion", adminGetCompanionHandler(svc))
		ar.Patch("/companions/{companionID}", adminUpdateCompanionHandler(svc))
		ar.Delete("/companions/{companionID}", adminDeleteCompanionHandler(svc))
	})
}

type adoptRequest struct {
	Name string `json:"name"`
	Kind string `json:"kind"` // fish | frog

	// confirm_replace: obligatorio en true si ya existe un compañero.
	ConfirmReplace bool `json:"confirm_replace"`
}

type companionResponse struct {
	ID          string    `json:"id"`
	OwnerUserID string    `json:"owner_user_id"`
	Name        string    `json:"name"`
	Kind        string    `json:"kind"`
	Health      int       `json:"health"`
	Level       int       `json:"level"`
	Experience  int       `json:"experience"`
	Version     int       `json:"version"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type adminUpdateRequest struct {
	// Punteros para PATCH real: nil = no tocar.
	Name       *string `json:"name"`
	Kind       *string `json:"kind"`
	Health     *int    `json:"health"`
	Level      *int    `json:"level"`
	Experience *int    `json:"experience"`
}

func adoptHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req adoptRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		c, err := svc.Adopt(r.Context(), claims.UserID, AdoptInput{
			Name:           req.Name,
			Kind:           req.Kind,
			ConfirmReplace: req.ConfirmReplace,
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toCompanionResponse(c))
	}
}

func getMyCompanionHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		c, err := svc.GetByOwner(r.Context(), claims.UserID)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toCompanionResponse(c))
	}
}

func careHandler(svc *Service) http.HandlerFunc {
	// Owner-only: se carga el registro para verificar pertenencia antes de mutar.
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		companionID := chi.URLParam(r, "companionID")
		current, err := svc.GetByID(r.Context(), companionID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		if current.OwnerUserID != claims.UserID {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		c, err := svc.Care(r.Context(), companionID)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toCompanionResponse(c))
	}
}

func adminGetCompanionHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireAdmin(w, r) {
			return
		}

		c, err := svc.GetByOwner(r.Context(), chi.URLParam(r, "userID"))
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toCompanionResponse(c))
	}
}

func adminUpdateCompanionHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireAdmin(w, r) {
			return
		}

		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()

		var req adminUpdateRequest
		if err := dec.Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		c, err := svc.AdminUpdate(r.Context(), chi.URLParam(r, "companionID"), AdminUpdateInput{
			Name:       req.Name,
			Kind:       req.Kind,
			Health:     req.Health,
			Level:      req.Level,
			Experience: req.Experience,
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toCompanionResponse(c))
	}
}

func adminDeleteCompanionHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireAdmin(w, r) {
			return
		}

		if err := svc.Release(r.Context(), chi.URLParam(r, "companionID")); err != nil {
			writeDomainError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// requireAdmin corta con 401/403 si el caller no trae role=admin.
// El rol viene del identity provider vía claims; acá se confía tal cual.
func requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok || strings.TrimSpace(claims.UserID) == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return false
	}
	if !claims.IsAdmin() {
		http.Error(w, "forbidden", http.StatusForbidden)
		return false
	}
	return true
}

func toCompanionResponse(c Companion) companionResponse {
	return companionResponse{
		ID:          c.ID,
		OwnerUserID: c.OwnerUserID,
		Name:        c.Name,
		Kind:        string(c.Kind),
		Health:      c.Health,
		Level:       c.Level,
		Experience:  c.Experience,
		Version:     c.Version,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

// writeDomainError mapea los sentinels del dominio a status HTTP.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrConflict):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, ErrNotFound):
		http.Error(w, "companion not found", http.StatusNotFound)
	case errors.Is(err, ErrStorage):
		http.Error(w, "storage unavailable", http.StatusBadGateway)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

// writeJSON está duplicado intencionalmente en handlers de distintos módulos
// (companions/history) para evitar helpers compartidos demasiado pronto.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
