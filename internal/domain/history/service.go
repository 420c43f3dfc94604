package history

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"rio-companion/internal/domain/companions"
	"rio-companion/internal/platform/logger"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
)

// DefaultListLimit acota el timeline cuando el caller no pide un límite.
const DefaultListLimit = 50

type Service struct {
	repo Repository
	log  logger.Logger // puede ser nil (tests)
	now  func() time.Time
}

func NewService(repo Repository, log logger.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log,
		now:  time.Now,
	}
}

// record inserta best-effort: una falla se loguea y no se propaga.
// El historial nunca bloquea un workflow.
func (s *Service) record(ctx context.Context, e Entry) {
	e.ID = uuid.NewString()
	e.OccurredAt = s.now()

	if err := s.repo.Append(ctx, e); err != nil {
		if s.log != nil {
			s.log.Warn("history append failed", map[string]any{
				"owner_id":     e.OwnerUserID,
				"companion_id": e.CompanionID,
				"type":         string(e.Type),
				"error":        err.Error(),
			})
		}
	}
}

func (s *Service) ListByOwner(ctx context.Context, ownerUserID string, limit int) ([]Entry, error) {
	ownerID := strings.TrimSpace(ownerUserID)
	if ownerID == "" {
		return nil, ErrInvalidInput
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}
	return s.repo.ListByOwner(ctx, ownerID, limit)
}

// Recorder adapta el Service al contrato companions.ActivityRecorder.
// Existe para evitar ciclos de imports (companions no importa history).
type Recorder struct {
	svc *Service
}

func NewRecorder(svc *Service) *Recorder {
	return &Recorder{svc: svc}
}

func (r *Recorder) CompanionAdopted(ctx context.Context, c companions.Companion) {
	r.svc.record(ctx, Entry{
		OwnerUserID: c.OwnerUserID,
		CompanionID: c.ID,
		Type:        EntryAdopted,
		Detail:      fmt.Sprintf("%s (%s)", c.Name, c.Kind),
		Health:      c.Health,
		Level:       c.Level,
	})
}

func (r *Recorder) CompanionCared(ctx context.Context, c companions.Companion, levelsGained int) {
	r.svc.record(ctx, Entry{
		OwnerUserID: c.OwnerUserID,
		CompanionID: c.ID,
		Type:        EntryCared,
		Health:      c.Health,
		Level:       c.Level,
	})

	if levelsGained > 0 {
		r.svc.record(ctx, Entry{
			OwnerUserID: c.OwnerUserID,
			CompanionID: c.ID,
			Type:        EntryLevelUp,
			Detail:      fmt.Sprintf("reached level %d", c.Level),
			Health:      c.Health,
			Level:       c.Level,
		})
	}
}

func (r *Recorder) CompanionReleased(ctx context.Context, c companions.Companion, reason string) {
	r.svc.record(ctx, Entry{
		OwnerUserID: c.OwnerUserID,
		CompanionID: c.ID,
		Type:        EntryReleased,
		Detail:      reason,
		Health:      c.Health,
		Level:       c.Level,
	})
}
