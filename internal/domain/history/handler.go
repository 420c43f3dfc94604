package history

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"rio-companion/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Get("/me/companion/history", listMyHistoryHandler(svc))
}

type entryResponse struct {
	ID          string    `json:"id"`
	CompanionID string    `json:"companion_id"`
	Type        string    `json:"type"`
	Detail      string    `json:"detail,omitempty"`
	Health      int       `json:"health"`
	Level       int       `json:"level"`
	OccurredAt  time.Time `json:"occurred_at"`
}

func listMyHistoryHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		limit := 0
		if v := strings.TrimSpace(r.URL.Query().Get("limit")); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
				return
			}
			limit = n
		}

		items, err := svc.ListByOwner(r.Context(), claims.UserID, limit)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]entryResponse, 0, len(items))
		for _, e := range items {
			out = append(out, entryResponse{
				ID:          e.ID,
				CompanionID: e.CompanionID,
				Type:        string(e.Type),
				Detail:      e.Detail,
				Health:      e.Health,
				Level:       e.Level,
				OccurredAt:  e.OccurredAt,
			})
		}

		writeJSON(w, http.StatusOK, out)
	}
}

// writeJSON duplicado a propósito (ver nota en companions/handler.go).
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
