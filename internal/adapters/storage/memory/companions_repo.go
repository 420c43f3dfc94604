package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"rio-companion/internal/domain/companions"
)

type companionRepo struct {
	mu      sync.RWMutex
	byID    map[string]companions.Companion
	byOwner map[string]string // ownerUserID -> companionID
}

func NewCompanionRepo() companions.Repository {
	return &companionRepo{
		byID:    make(map[string]companions.Companion),
		byOwner: make(map[string]string),
	}
}

func (r *companionRepo) GetByOwner(ctx context.Context, ownerUserID string) (companions.Companion, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byOwner[ownerUserID]
	if !ok {
		return companions.Companion{}, companions.ErrNotFound
	}
	return r.byID[id], nil
}

func (r *companionRepo) GetByID(ctx context.Context, id string) (companions.Companion, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.byID[id]
	if !ok {
		return companions.Companion{}, companions.ErrNotFound
	}
	return c, nil
}

func (r *companionRepo) Create(ctx context.Context, c companions.Companion) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(c.ID) == "" || strings.TrimSpace(c.OwnerUserID) == "" {
		return fmt.Errorf("%w: companion id and owner required", companions.ErrInvalidInput)
	}
	if _, exists := r.byID[c.ID]; exists {
		return fmt.Errorf("%w: companion id already exists", companions.ErrConflict)
	}
	// Simula el unique sobre owner_user_id de Postgres.
	if _, exists := r.byOwner[c.OwnerUserID]; exists {
		return fmt.Errorf("%w: owner already has a companion", companions.ErrConflict)
	}

	r.byID[c.ID] = c
	r.byOwner[c.OwnerUserID] = c.ID
	return nil
}

func (r *companionRepo) Update(ctx context.Context, c companions.Companion) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, exists := r.byID[c.ID]
	if !exists {
		return companions.ErrNotFound
	}
	// Compare-and-swap sobre Version.
	if stored.Version != c.Version {
		return fmt.Errorf("%w: companion version changed", companions.ErrConflict)
	}

	c.Version++
	r.byID[c.ID] = c
	return nil
}

func (r *companionRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, exists := r.byID[id]
	if !exists {
		// Idempotente
		return nil
	}

	delete(r.byID, id)
	if r.byOwner[c.OwnerUserID] == id {
		delete(r.byOwner, c.OwnerUserID)
	}
	return nil
}
