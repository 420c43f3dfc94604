package companions

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

// -------------------------
// Test repo (in-memory)
// -------------------------

type testRepo struct {
	byID    map[string]Companion
	byOwner map[string]string

	failDelete   bool
	failCreate   bool
	failUpdate   bool
	conflictOnce bool
	updates      int
	deletes      int
}

func newTestRepo() *testRepo {
	return &testRepo{
		byID:    map[string]Companion{},
		byOwner: map[string]string{},
	}
}

func (r *testRepo) GetByOwner(ctx context.Context, ownerUserID string) (Companion, error) {
	id, ok := r.byOwner[ownerUserID]
	if !ok {
		return Companion{}, ErrNotFound
	}
	return r.byID[id], nil
}

func (r *testRepo) GetByID(ctx context.Context, id string) (Companion, error) {
	c, ok := r.byID[id]
	if !ok {
		return Companion{}, ErrNotFound
	}
	return c, nil
}

func (r *testRepo) Create(ctx context.Context, c Companion) error {
	if r.failCreate {
		return fmt.Errorf("%w: repo down", ErrStorage)
	}
	if c.ID == "" {
		return errors.New("repo: id required")
	}
	if _, ok := r.byID[c.ID]; ok {
		return fmt.Errorf("%w: id exists", ErrConflict)
	}
	if _, ok := r.byOwner[c.OwnerUserID]; ok {
		return fmt.Errorf("%w: owner has companion", ErrConflict)
	}
	r.byID[c.ID] = c
	r.byOwner[c.OwnerUserID] = c.ID
	return nil
}

func (r *testRepo) Update(ctx context.Context, c Companion) error {
	r.updates++
	if r.failUpdate {
		return fmt.Errorf("%w: repo down", ErrStorage)
	}
	if r.conflictOnce {
		r.conflictOnce = false
		return fmt.Errorf("%w: version changed", ErrConflict)
	}
	stored, ok := r.byID[c.ID]
	if !ok {
		return ErrNotFound
	}
	if stored.Version != c.Version {
		return fmt.Errorf("%w: version changed", ErrConflict)
	}
	c.Version++
	r.byID[c.ID] = c
	return nil
}

func (r *testRepo) Delete(ctx context.Context, id string) error {
	r.deletes++
	if r.failDelete {
		return fmt.Errorf("%w: repo down", ErrStorage)
	}
	c, ok := r.byID[id]
	if !ok {
		return nil
	}
	delete(r.byID, id)
	delete(r.byOwner, c.OwnerUserID)
	return nil
}

func (r *testRepo) countByOwner(ownerUserID string) int {
	n := 0
	for _, c := range r.byID {
		if c.OwnerUserID == ownerUserID {
			n++
		}
	}
	return n
}

// seedCompanion mete un registro directo al repo, sin pasar por Adopt.
func seedCompanion(t *testing.T, r *testRepo, c Companion) Companion {
	t.Helper()
	if c.ID == "" {
		c.ID = "seed-" + c.OwnerUserID
	}
	if c.Version == 0 {
		c.Version = 1
	}
	if err := r.Create(context.Background(), c); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	return c
}

// -------------------------
// Test recorder
// -------------------------

type testRecorder struct {
	adopted  []Companion
	cared    []Companion
	released []string // reasons
}

func (r *testRecorder) CompanionAdopted(ctx context.Context, c Companion) {
	r.adopted = append(r.adopted, c)
}

func (r *testRecorder) CompanionCared(ctx context.Context, c Companion, levelsGained int) {
	r.cared = append(r.cared, c)
}

func (r *testRecorder) CompanionReleased(ctx context.Context, c Companion, reason string) {
	r.released = append(r.released, reason)
}

// -------------------------
// Adopt
// -------------------------

func TestService_Adopt_RoundTrip(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo, nil, nil)

	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	c, err := svc.Adopt(context.Background(), "owner-1", AdoptInput{Name: "Nemo", Kind: "fish"})
	if err != nil {
		t.Fatalf("Adopt returned error: %v", err)
	}
	if c.Health != 0 || c.Level != 1 || c.Experience != 0 {
		t.Fatalf("expected fresh companion (0, 1, 0), got (%d, %d, %d)", c.Health, c.Level, c.Experience)
	}
	if c.CreatedAt != now || c.UpdatedAt != now {
		t.Fatalf("expected CreatedAt/UpdatedAt to be now")
	}

	got, err := svc.GetByOwner(context.Background(), "owner-1")
	if err != nil {
		t.Fatalf("GetByOwner returned error: %v", err)
	}
	if got.Name != "Nemo" || got.Kind != KindFish {
		t.Fatalf("expected Nemo the fish, got %q (%s)", got.Name, got.Kind)
	}
}

func TestService_Adopt_RejectsShortName(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo, nil, nil)

	for _, name := range []string{"", "ab", "  a  "} {
		_, err := svc.Adopt(context.Background(), "owner-1", AdoptInput{Name: name, Kind: "fish"})
		if !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("name %q: expected ErrInvalidInput, got %v", name, err)
		}
	}
	if len(repo.byID) != 0 {
		t.Fatalf("expected no mutation on validation failure, got %d records", len(repo.byID))
	}
}

func TestService_Adopt_RejectsUnknownKind(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo, nil, nil)

	_, err := svc.Adopt(context.Background(), "owner-1", AdoptInput{Name: "Nemo", Kind: "dragon"})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if len(repo.byID) != 0 {
		t.Fatalf("expected no mutation, got %d records", len(repo.byID))
	}
}

func TestService_Adopt_ReplaceRequiresConfirmation(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo, nil, nil)

	first, err := svc.Adopt(context.Background(), "owner-1", AdoptInput{Name: "Nemo", Kind: "fish"})
	if err != nil {
		t.Fatalf("Adopt #1 error: %v", err)
	}

	_, err = svc.Adopt(context.Background(), "owner-1", AdoptInput{Name: "Rana", Kind: "frog"})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict without confirmation, got %v", err)
	}

	got, err := svc.GetByOwner(context.Background(), "owner-1")
	if err != nil || got.ID != first.ID {
		t.Fatalf("expected original companion untouched, got %#v (err %v)", got, err)
	}
	if repo.deletes != 0 {
		t.Fatalf("expected no deletion attempt without confirmation")
	}
}

func TestService_Adopt_Replace_LeavesExactlyOne(t *testing.T) {
	repo := newTestRepo()
	rec := &testRecorder{}
	svc := NewService(repo, rec, nil)

	first, _ := svc.Adopt(context.Background(), "owner-1", AdoptInput{Name: "Nemo", Kind: "fish"})

	second, err := svc.Adopt(context.Background(), "owner-1", AdoptInput{
		Name: "Rana", Kind: "frog", ConfirmReplace: true,
	})
	if err != nil {
		t.Fatalf("replacement Adopt error: %v", err)
	}
	if second.ID == first.ID {
		t.Fatalf("expected a new companion id")
	}
	if n := repo.countByOwner("owner-1"); n != 1 {
		t.Fatalf("expected exactly 1 companion for owner, got %d", n)
	}
	if len(rec.released) != 1 || rec.released[0] != "replaced" {
		t.Fatalf("expected one 'replaced' release entry, got %#v", rec.released)
	}
	if len(rec.adopted) != 2 {
		t.Fatalf("expected two adoption entries, got %d", len(rec.adopted))
	}
}

func TestService_Adopt_Replace_ToleratesDeleteFailure(t *testing.T) {
	// La falla en la limpieza del compañero viejo no es fatal: el workflow
	// sigue. Con el unique de owner activo el Create reporta conflicto, y el
	// owner sigue teniendo exactamente un compañero (el viejo).
	repo := newTestRepo()
	svc := NewService(repo, nil, nil)

	first, _ := svc.Adopt(context.Background(), "owner-1", AdoptInput{Name: "Nemo", Kind: "fish"})

	repo.failDelete = true
	_, err := svc.Adopt(context.Background(), "owner-1", AdoptInput{
		Name: "Rana", Kind: "frog", ConfirmReplace: true,
	})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict from create after failed cleanup, got %v", err)
	}
	if repo.deletes != 1 {
		t.Fatalf("expected one delete attempt, got %d", repo.deletes)
	}
	if n := repo.countByOwner("owner-1"); n != 1 {
		t.Fatalf("expected exactly 1 companion for owner, got %d", n)
	}
	got, _ := svc.GetByOwner(context.Background(), "owner-1")
	if got.ID != first.ID {
		t.Fatalf("expected the original companion to survive")
	}
}

func TestService_Adopt_CreateFailureAfterDelete_IsVisible(t *testing.T) {
	// Delete ok + create fallido deja al owner sin compañero: estado de
	// falla visible y aceptado, sin re-creación automática.
	repo := newTestRepo()
	svc := NewService(repo, nil, nil)

	_, _ = svc.Adopt(context.Background(), "owner-1", AdoptInput{Name: "Nemo", Kind: "fish"})

	repo.failCreate = true
	_, err := svc.Adopt(context.Background(), "owner-1", AdoptInput{
		Name: "Rana", Kind: "frog", ConfirmReplace: true,
	})
	if !errors.Is(err, ErrStorage) {
		t.Fatalf("expected ErrStorage, got %v", err)
	}
	if n := repo.countByOwner("owner-1"); n != 0 {
		t.Fatalf("expected owner left without companion, got %d", n)
	}
}

// -------------------------
// Care
// -------------------------

func TestService_Care_AppliesGains(t *testing.T) {
	repo := newTestRepo()
	rec := &testRecorder{}
	svc := NewService(repo, rec, nil)

	seeded := seedCompanion(t, repo, Companion{
		OwnerUserID: "owner-1", Name: "Nemo", Kind: KindFish,
		Health: 40, Level: 1, Experience: 0,
	})

	c, err := svc.Care(context.Background(), seeded.ID)
	if err != nil {
		t.Fatalf("Care returned error: %v", err)
	}
	if c.Health != 60 {
		t.Fatalf("expected health 60, got %d", c.Health)
	}
	if c.Level != 1 || c.Experience != 10 {
		t.Fatalf("expected (level 1, exp 10), got (%d, %d)", c.Level, c.Experience)
	}
	if len(rec.cared) != 1 {
		t.Fatalf("expected one cared entry, got %d", len(rec.cared))
	}
}

func TestService_Care_ClampsHealthAtBoundary(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo, nil, nil)

	seeded := seedCompanion(t, repo, Companion{
		OwnerUserID: "owner-1", Name: "Nemo", Kind: KindFish,
		Health: 90, Level: 1, Experience: 0,
	})

	c, err := svc.Care(context.Background(), seeded.ID)
	if err != nil {
		t.Fatalf("Care returned error: %v", err)
	}
	if c.Health != 100 {
		t.Fatalf("expected health clamped to 100, got %d", c.Health)
	}
}

func TestService_Care_FullHealthIsNoOp(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo, nil, nil)

	seeded := seedCompanion(t, repo, Companion{
		OwnerUserID: "owner-1", Name: "Nemo", Kind: KindFish,
		Health: 100, Level: 2, Experience: 30,
	})

	c, err := svc.Care(context.Background(), seeded.ID)
	if err != nil {
		t.Fatalf("Care returned error: %v", err)
	}
	if c != seeded {
		t.Fatalf("expected unchanged record, got %#v", c)
	}
	if repo.updates != 0 {
		t.Fatalf("expected no persistence write, got %d updates", repo.updates)
	}
}

func TestService_Care_LevelUpAtThreshold(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo, nil, nil)

	seeded := seedCompanion(t, repo, Companion{
		OwnerUserID: "owner-1", Name: "Nemo", Kind: KindFish,
		Health: 50, Level: 1, Experience: 490,
	})

	c, err := svc.Care(context.Background(), seeded.ID)
	if err != nil {
		t.Fatalf("Care returned error: %v", err)
	}
	if c.Level != 2 || c.Experience != 0 {
		t.Fatalf("expected (level 2, exp 0), got (%d, %d)", c.Level, c.Experience)
	}
}

func TestService_Care_StorageFailureLeavesStateUntouched(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo, nil, nil)

	seeded := seedCompanion(t, repo, Companion{
		OwnerUserID: "owner-1", Name: "Nemo", Kind: KindFish,
		Health: 40, Level: 1, Experience: 120,
	})

	repo.failUpdate = true
	_, err := svc.Care(context.Background(), seeded.ID)
	if !errors.Is(err, ErrStorage) {
		t.Fatalf("expected ErrStorage, got %v", err)
	}

	stored, _ := repo.GetByID(context.Background(), seeded.ID)
	if stored != seeded {
		t.Fatalf("expected persisted record unchanged, got %#v", stored)
	}
}

func TestService_Care_SurfacesVersionConflict(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo, nil, nil)

	seeded := seedCompanion(t, repo, Companion{
		OwnerUserID: "owner-1", Name: "Nemo", Kind: KindFish,
		Health: 40, Level: 1, Experience: 0,
	})

	repo.conflictOnce = true
	_, err := svc.Care(context.Background(), seeded.ID)
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	// El caller relee y reintenta; el segundo intento pasa.
	c, err := svc.Care(context.Background(), seeded.ID)
	if err != nil {
		t.Fatalf("retry Care returned error: %v", err)
	}
	if c.Health != 60 {
		t.Fatalf("expected health 60 after retry, got %d", c.Health)
	}
}

func TestService_Care_NotFound(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo, nil, nil)

	_, err := svc.Care(context.Background(), "missing-id")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// -------------------------
// Admin edits / release
// -------------------------

func TestService_AdminUpdate_AppliesPartialFields(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo, nil, nil)

	seeded := seedCompanion(t, repo, Companion{
		OwnerUserID: "owner-1", Name: "Nemo", Kind: KindFish,
		Health: 40, Level: 1, Experience: 0,
	})

	name := "Burbuja"
	health := 75
	c, err := svc.AdminUpdate(context.Background(), seeded.ID, AdminUpdateInput{
		Name:   &name,
		Health: &health,
	})
	if err != nil {
		t.Fatalf("AdminUpdate returned error: %v", err)
	}
	if c.Name != "Burbuja" || c.Health != 75 {
		t.Fatalf("expected name/health updated, got %q / %d", c.Name, c.Health)
	}
	// Campos no enviados quedan igual
	if c.Kind != KindFish || c.Level != 1 || c.Experience != 0 {
		t.Fatalf("expected untouched fields preserved, got %#v", c)
	}
}

func TestService_AdminUpdate_RejectsOutOfRange(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo, nil, nil)

	seeded := seedCompanion(t, repo, Companion{
		OwnerUserID: "owner-1", Name: "Nemo", Kind: KindFish,
		Health: 40, Level: 1, Experience: 0,
	})

	badHealth := 150
	badLevel := 0
	badExp := LevelThreshold
	cases := []AdminUpdateInput{
		{Health: &badHealth},
		{Level: &badLevel},
		{Experience: &badExp},
	}
	for i, in := range cases {
		if _, err := svc.AdminUpdate(context.Background(), seeded.ID, in); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("case %d: expected ErrInvalidInput, got %v", i, err)
		}
	}

	stored, _ := repo.GetByID(context.Background(), seeded.ID)
	if stored != seeded {
		t.Fatalf("expected record unchanged after rejected edits")
	}
}

func TestService_AdminUpdate_NoFieldsIsNoOp(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo, nil, nil)

	seeded := seedCompanion(t, repo, Companion{
		OwnerUserID: "owner-1", Name: "Nemo", Kind: KindFish,
		Health: 40, Level: 1, Experience: 0,
	})

	c, err := svc.AdminUpdate(context.Background(), seeded.ID, AdminUpdateInput{})
	if err != nil {
		t.Fatalf("AdminUpdate returned error: %v", err)
	}
	if c != seeded {
		t.Fatalf("expected unchanged record, got %#v", c)
	}
	if repo.updates != 0 {
		t.Fatalf("expected no write for empty patch")
	}
}

func TestService_Release_Idempotent(t *testing.T) {
	repo := newTestRepo()
	rec := &testRecorder{}
	svc := NewService(repo, rec, nil)

	seeded := seedCompanion(t, repo, Companion{
		OwnerUserID: "owner-1", Name: "Nemo", Kind: KindFish,
		Health: 40, Level: 1, Experience: 0,
	})

	if err := svc.Release(context.Background(), seeded.ID); err != nil {
		t.Fatalf("Release returned error: %v", err)
	}
	if n := repo.countByOwner("owner-1"); n != 0 {
		t.Fatalf("expected companion removed, got %d", n)
	}

	// Segundo release del mismo id: no-op sin error
	if err := svc.Release(context.Background(), seeded.ID); err != nil {
		t.Fatalf("idempotent Release returned error: %v", err)
	}
	if len(rec.released) != 1 {
		t.Fatalf("expected exactly one release entry, got %d", len(rec.released))
	}
}
