package history

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"rio-companion/internal/domain/companions"
)

// -------------------------
// Test repo (in-memory)
// -------------------------

type testRepo struct {
	entries    []Entry
	failAppend bool
}

func (r *testRepo) Append(ctx context.Context, e Entry) error {
	if r.failAppend {
		return errors.New("repo: down")
	}
	r.entries = append(r.entries, e)
	return nil
}

func (r *testRepo) ListByOwner(ctx context.Context, ownerUserID string, limit int) ([]Entry, error) {
	out := make([]Entry, 0)
	for _, e := range r.entries {
		if e.OwnerUserID == ownerUserID {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].OccurredAt.After(out[j].OccurredAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// tickingNow devuelve tiempos estrictamente crecientes para orden estable.
func tickingNow(start time.Time) func() time.Time {
	t := start
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func TestRecorder_CareWithLevelUp_RecordsTwoEntries(t *testing.T) {
	repo := &testRepo{}
	svc := NewService(repo, nil)
	svc.now = tickingNow(time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC))

	rec := NewRecorder(svc)
	c := companions.Companion{
		ID:          "c1",
		OwnerUserID: "owner-1",
		Name:        "Nemo",
		Kind:        companions.KindFish,
		Health:      60,
		Level:       2,
		Experience:  0,
	}
	rec.CompanionCared(context.Background(), c, 1)

	items, err := svc.ListByOwner(context.Background(), "owner-1", 0)
	if err != nil {
		t.Fatalf("ListByOwner returned error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 entries (cared + level_up), got %d", len(items))
	}
	// Más reciente primero: el level_up se registra después del cared.
	if items[0].Type != EntryLevelUp || items[1].Type != EntryCared {
		t.Fatalf("expected [LEVEL_UP, CARED], got [%s, %s]", items[0].Type, items[1].Type)
	}
	if items[0].Level != 2 || items[0].Health != 60 {
		t.Fatalf("expected snapshot (health 60, level 2), got (%d, %d)", items[0].Health, items[0].Level)
	}
}

func TestRecorder_CareWithoutLevelUp_RecordsOneEntry(t *testing.T) {
	repo := &testRepo{}
	svc := NewService(repo, nil)
	svc.now = tickingNow(time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC))

	rec := NewRecorder(svc)
	rec.CompanionCared(context.Background(), companions.Companion{
		ID: "c1", OwnerUserID: "owner-1", Health: 20, Level: 1, Experience: 10,
	}, 0)

	items, _ := svc.ListByOwner(context.Background(), "owner-1", 0)
	if len(items) != 1 || items[0].Type != EntryCared {
		t.Fatalf("expected single CARED entry, got %#v", items)
	}
}

func TestRecorder_AppendFailureIsSwallowed(t *testing.T) {
	// El historial es best-effort: una falla no se propaga al workflow.
	repo := &testRepo{failAppend: true}
	svc := NewService(repo, nil)
	svc.now = tickingNow(time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC))

	rec := NewRecorder(svc)
	rec.CompanionAdopted(context.Background(), companions.Companion{
		ID: "c1", OwnerUserID: "owner-1", Name: "Nemo", Kind: companions.KindFish,
	})

	items, err := svc.ListByOwner(context.Background(), "owner-1", 0)
	if err != nil {
		t.Fatalf("ListByOwner returned error: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected no entries, got %d", len(items))
	}
}

func TestService_ListByOwner_AppliesLimit(t *testing.T) {
	repo := &testRepo{}
	svc := NewService(repo, nil)
	svc.now = tickingNow(time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC))

	rec := NewRecorder(svc)
	for i := 0; i < 5; i++ {
		rec.CompanionCared(context.Background(), companions.Companion{
			ID: "c1", OwnerUserID: "owner-1", Health: 20 * (i + 1), Level: 1,
		}, 0)
	}

	items, err := svc.ListByOwner(context.Background(), "owner-1", 3)
	if err != nil {
		t.Fatalf("ListByOwner returned error: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(items))
	}
	// El más reciente es el último cuidado (health 100)
	if items[0].Health != 100 {
		t.Fatalf("expected newest entry first (health 100), got %d", items[0].Health)
	}
}

func TestService_ListByOwner_RequiresOwner(t *testing.T) {
	svc := NewService(&testRepo{}, nil)

	if _, err := svc.ListByOwner(context.Background(), "  ", 0); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
