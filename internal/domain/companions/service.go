package companions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"rio-companion/internal/observability"
	"rio-companion/internal/platform/logger"

	"github.com/google/uuid"
)

// ActivityRecorder registra entradas del historial de actividad.
// Se define aquí (y no en history) para evitar ciclos de imports:
// companions no importa history; history adapta su Service a este contrato.
// Las implementaciones son best-effort: nunca fallan un workflow.
type ActivityRecorder interface {
	CompanionAdopted(ctx context.Context, c Companion)
	CompanionCared(ctx context.Context, c Companion, levelsGained int)
	CompanionReleased(ctx context.Context, c Companion, reason string)
}

type Service struct {
	repo     Repository
	recorder ActivityRecorder // puede ser nil
	log      logger.Logger    // puede ser nil (tests)
	now      func() time.Time
}

func NewService(repo Repository, recorder ActivityRecorder, log logger.Logger) *Service {
	return &Service{
		repo:     repo,
		recorder: recorder,
		log:      log,
		now:      time.Now,
	}
}

type AdoptInput struct {
	Name string
	Kind string

	// ConfirmReplace debe venir en true si el owner ya tiene compañero.
	// Reemplazar sin confirmación explícita no está permitido.
	ConfirmReplace bool
}

// Adopt crea el compañero del owner, retirando el anterior si lo hay.
// La validación ocurre antes de tocar cualquier registro. La eliminación del
// compañero viejo es tolerante a fallas: se loguea y la adopción continúa,
// para no bloquear al usuario por limpieza stale.
func (s *Service) Adopt(ctx context.Context, ownerUserID string, in AdoptInput) (Companion, error) {
	ownerID := strings.TrimSpace(ownerUserID)
	if ownerID == "" {
		return Companion{}, ErrInvalidInput
	}
	name := strings.TrimSpace(in.Name)
	if len(name) < MinNameLen {
		return Companion{}, fmt.Errorf("%w: name must have at least %d characters", ErrInvalidInput, MinNameLen)
	}
	kind, err := ParseKind(strings.TrimSpace(in.Kind))
	if err != nil {
		return Companion{}, fmt.Errorf("%w: unknown kind %q", ErrInvalidInput, in.Kind)
	}

	existing, err := s.repo.GetByOwner(ctx, ownerID)
	switch {
	case err == nil:
		if !in.ConfirmReplace {
			return Companion{}, fmt.Errorf("%w: owner already has a companion, replacement requires confirmation", ErrConflict)
		}
		if derr := s.repo.Delete(ctx, existing.ID); derr != nil {
			// Tolerado: la adopción sigue aunque la limpieza falle.
			s.warn("old companion cleanup failed", map[string]any{
				"companion_id": existing.ID,
				"owner_id":     ownerID,
				"error":        derr.Error(),
			})
		} else if s.recorder != nil {
			s.recorder.CompanionReleased(ctx, existing, "replaced")
		}
	case errors.Is(err, ErrNotFound):
		// primera adopción
	default:
		return Companion{}, err
	}

	now := s.now()
	c := Companion{
		ID:          uuid.NewString(),
		OwnerUserID: ownerID,
		Name:        name,
		Kind:        kind,
		Health:      0,
		Level:       1,
		Experience:  0,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, c); err != nil {
		// Si el delete de arriba ya pasó, el owner queda sin compañero.
		// Estado de falla visible y aceptado: se reporta, no se re-crea solo.
		return Companion{}, err
	}

	observability.RecordAdoption()
	if s.recorder != nil {
		s.recorder.CompanionAdopted(ctx, c)
	}
	return c, nil
}

// Care aplica un cuidado: salud +20 (con tope 100), experiencia +10 con
// rollover de nivel. Con salud llena es un no-op que devuelve el registro
// tal cual, sin escribir. Una falla de storage deja lo persistido intacto.
func (s *Service) Care(ctx context.Context, companionID string) (Companion, error) {
	id := strings.TrimSpace(companionID)
	if id == "" {
		return Companion{}, ErrInvalidInput
	}

	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Companion{}, err
	}

	if c.Health >= MaxHealth {
		return c, nil
	}

	prevLevel := c.Level
	c.Health = ClampHealth(c.Health + CareHealthGain)
	c.Level, c.Experience = AdvanceProgress(c.Level, c.Experience, CareExperienceGain)
	c.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, c); err != nil {
		if errors.Is(err, ErrConflict) {
			// Perdió el compare-and-swap. No se reintenta acá: el caller
			// relee y decide (su proyección optimista debe revertirse).
			observability.RecordUpdateConflict()
		}
		return Companion{}, err
	}
	c.Version++ // refleja el incremento que hizo el Update

	observability.RecordCare()
	levelsGained := c.Level - prevLevel
	if levelsGained > 0 {
		observability.RecordLevelUp(levelsGained)
	}
	if s.recorder != nil {
		s.recorder.CompanionCared(ctx, c, levelsGained)
	}
	return c, nil
}

// GetByOwner devuelve el compañero actual del owner (ErrNotFound si no tiene).
func (s *Service) GetByOwner(ctx context.Context, ownerUserID string) (Companion, error) {
	ownerID := strings.TrimSpace(ownerUserID)
	if ownerID == "" {
		return Companion{}, ErrInvalidInput
	}
	return s.repo.GetByOwner(ctx, ownerID)
}

func (s *Service) GetByID(ctx context.Context, id string) (Companion, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Companion{}, ErrInvalidInput
	}
	return s.repo.GetByID(ctx, id)
}

type AdminUpdateInput struct {
	// Punteros para PATCH real: nil = no tocar.
	Name       *string
	Kind       *string
	Health     *int
	Level      *int
	Experience *int
}

// AdminUpdate permite a un actor privilegiado editar campos del compañero.
// Valida rangos antes de escribir; experience se exige ya en forma resto.
func (s *Service) AdminUpdate(ctx context.Context, companionID string, in AdminUpdateInput) (Companion, error) {
	id := strings.TrimSpace(companionID)
	if id == "" {
		return Companion{}, ErrInvalidInput
	}

	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Companion{}, err
	}

	changed := false

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if len(name) < MinNameLen {
			return Companion{}, fmt.Errorf("%w: name must have at least %d characters", ErrInvalidInput, MinNameLen)
		}
		c.Name = name
		changed = true
	}
	if in.Kind != nil {
		kind, err := ParseKind(strings.TrimSpace(*in.Kind))
		if err != nil {
			return Companion{}, fmt.Errorf("%w: unknown kind %q", ErrInvalidInput, *in.Kind)
		}
		c.Kind = kind
		changed = true
	}
	if in.Health != nil {
		if *in.Health < 0 || *in.Health > MaxHealth {
			return Companion{}, fmt.Errorf("%w: health must be within [0, %d]", ErrInvalidInput, MaxHealth)
		}
		c.Health = *in.Health
		changed = true
	}
	if in.Level != nil {
		if *in.Level < 1 {
			return Companion{}, fmt.Errorf("%w: level must be >= 1", ErrInvalidInput)
		}
		c.Level = *in.Level
		changed = true
	}
	if in.Experience != nil {
		if *in.Experience < 0 || *in.Experience >= LevelThreshold {
			return Companion{}, fmt.Errorf("%w: experience must be within [0, %d)", ErrInvalidInput, LevelThreshold)
		}
		c.Experience = *in.Experience
		changed = true
	}

	if !changed {
		return c, nil
	}

	c.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, c); err != nil {
		if errors.Is(err, ErrConflict) {
			observability.RecordUpdateConflict()
		}
		return Companion{}, err
	}
	c.Version++
	return c, nil
}

// Release elimina el compañero. Idempotente: un id inexistente no es error.
func (s *Service) Release(ctx context.Context, companionID string) error {
	id := strings.TrimSpace(companionID)
	if id == "" {
		return ErrInvalidInput
	}

	c, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, c.ID); err != nil {
		return err
	}
	if s.recorder != nil {
		s.recorder.CompanionReleased(ctx, c, "released")
	}
	return nil
}

func (s *Service) warn(msg string, fields map[string]any) {
	if s.log != nil {
		s.log.Warn(msg, fields)
	}
}
