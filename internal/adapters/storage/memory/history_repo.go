package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"rio-companion/internal/domain/history"
)

type historyRepo struct {
	mu      sync.RWMutex
	byOwner map[string][]history.Entry
}

func NewHistoryRepo() history.Repository {
	return &historyRepo{
		byOwner: make(map[string][]history.Entry),
	}
}

func (r *historyRepo) Append(ctx context.Context, e history.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(e.ID) == "" || strings.TrimSpace(e.OwnerUserID) == "" {
		return errors.New("history entry id and owner required")
	}
	r.byOwner[e.OwnerUserID] = append(r.byOwner[e.OwnerUserID], e)
	return nil
}

func (r *historyRepo) ListByOwner(ctx context.Context, ownerUserID string, limit int) ([]history.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	src := r.byOwner[ownerUserID]
	out := make([]history.Entry, len(src))
	copy(out, src)

	// Más recientes primero (mismo orden que el repo de Postgres).
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].OccurredAt.After(out[j].OccurredAt)
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
