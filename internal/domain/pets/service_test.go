package pets

import (
	"context"
	"errors"
	"testing"
	"time"
)

// -------------------------
// Test repo (in-memory)
// -------------------------

type testRepo struct {
	byID map[string]Pet

	getErr error // si está seteado, GetByID falla con él
}

func newTestRepo() *testRepo {
	return &testRepo{byID: map[string]Pet{}}
}

func (r *testRepo) Create(ctx context.Context, p Pet) error {
	if _, ok := r.byID[p.ID]; ok {
		return errors.New("repo: already exists")
	}
	r.byID[p.ID] = p
	return nil
}

func (r *testRepo) Update(ctx context.Context, p Pet) error {
	if _, ok := r.byID[p.ID]; !ok {
		return ErrNotFound
	}
	r.byID[p.ID] = p
	return nil
}

func (r *testRepo) GetByID(ctx context.Context, id string) (Pet, error) {
	if r.getErr != nil {
		return Pet{}, r.getErr
	}
	p, ok := r.byID[id]
	if !ok {
		return Pet{}, ErrNotFound
	}
	return p, nil
}

func (r *testRepo) ListByOwner(ctx context.Context, ownerUserID string) ([]Pet, error) {
	out := make([]Pet, 0)
	for _, p := range r.byID {
		if p.OwnerUserID == ownerUserID {
			out = append(out, p)
		}
	}
	return out, nil
}

// -------------------------
// Tests
// -------------------------

func TestService_Create_Defaults(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo)

	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	p, err := svc.Create(context.Background(), "owner-1", CreateInput{
		Name:    "  Milo ",
		Species: "dog",
		Gender:  "male",
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if p.Name != "Milo" {
		t.Fatalf("expected trimmed name, got %q", p.Name)
	}
	if !p.IsActive {
		t.Fatalf("expected new pet active")
	}
	if p.CreatedAt != now || p.UpdatedAt != now {
		t.Fatalf("expected timestamps = now")
	}
}

func TestService_Create_RejectsInvalidInput(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo)

	badWeight := -2.5
	cases := []struct {
		owner string
		in    CreateInput
	}{
		{"", CreateInput{Name: "Milo", Species: "dog", Gender: "male"}},
		{"owner-1", CreateInput{Name: "", Species: "dog", Gender: "male"}},
		{"owner-1", CreateInput{Name: "Milo", Species: "dragon", Gender: "male"}},
		{"owner-1", CreateInput{Name: "Milo", Species: "dog", Gender: "unknown"}},
		{"owner-1", CreateInput{Name: "Milo", Species: "dog", Gender: "male", Weight: &badWeight}},
	}
	for i, c := range cases {
		if _, err := svc.Create(context.Background(), c.owner, c.in); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("case %d: expected ErrInvalidInput, got %v", i, err)
		}
	}
}

func TestService_GetOwned_HidesForeignPets(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo)

	p, err := svc.Create(context.Background(), "owner-1", CreateInput{
		Name:    "Milo",
		Species: "dog",
		Gender:  "male",
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	if _, err := svc.GetOwned(context.Background(), p.ID, "owner-1"); err != nil {
		t.Fatalf("GetOwned by owner error: %v", err)
	}

	// Mascota ajena: ErrNotAuthorized (el handler la colapsa en 404).
	if _, err := svc.GetOwned(context.Background(), p.ID, "owner-2"); !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("expected ErrNotAuthorized, got %v", err)
	}
	if _, err := svc.GetOwned(context.Background(), "nope", "owner-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestService_GetByID_RepoFailureIsNotNotFound(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo)

	errDown := errors.New("connection refused")
	repo.getErr = errDown

	_, err := svc.GetByID(context.Background(), "pet-1")
	if errors.Is(err, ErrNotFound) {
		t.Fatalf("storage failure must not map to ErrNotFound")
	}
	if !errors.Is(err, errDown) {
		t.Fatalf("expected wrapped repo error, got %v", err)
	}
}

func TestService_Update_Patch(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo)

	t0 := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return t0 }

	p, err := svc.Create(context.Background(), "owner-1", CreateInput{
		Name:    "Milo",
		Species: "dog",
		Breed:   "mixed",
		Gender:  "male",
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	t1 := t0.Add(time.Hour)
	svc.now = func() time.Time { return t1 }

	newName := "Milo II"
	w := 4.2
	updated, err := svc.Update(context.Background(), p.ID, "owner-1", UpdateInput{
		Name:   &newName,
		Weight: &w,
	})
	if err != nil {
		t.Fatalf("Update error: %v", err)
	}
	if updated.Name != "Milo II" || updated.Weight == nil || *updated.Weight != 4.2 {
		t.Fatalf("unexpected update result: %#v", updated)
	}
	// El resto no se toca.
	if updated.Breed != "mixed" || updated.Species != "dog" {
		t.Fatalf("expected untouched fields preserved")
	}
	if updated.UpdatedAt != t1 || updated.CreatedAt != t0 {
		t.Fatalf("expected only UpdatedAt to move")
	}

	empty := " "
	if _, err := svc.Update(context.Background(), p.ID, "owner-1", UpdateInput{Name: &empty}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for blank name, got %v", err)
	}
}

func TestService_Delete_SoftAndHidden(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo)

	p, err := svc.Create(context.Background(), "owner-1", CreateInput{
		Name:    "Milo",
		Species: "dog",
		Gender:  "male",
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	if err := svc.Delete(context.Background(), p.ID, "owner-1"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}

	// La fila sigue pero inactiva; las lecturas la tratan como inexistente.
	raw, _ := repo.GetByID(context.Background(), p.ID)
	if raw.IsActive {
		t.Fatalf("expected soft-deleted pet inactive")
	}
	if _, err := svc.GetByID(context.Background(), p.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}

	items, err := svc.ListByOwner(context.Background(), "owner-1")
	if err != nil {
		t.Fatalf("ListByOwner error: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected empty list after delete, got %d", len(items))
	}
}

func TestPet_Age(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	bd := func(y int, m time.Month, d int) *time.Time {
		t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		return &t
	}

	cases := []struct {
		birth *time.Time
		want  string
	}{
		{bd(2023, time.December, 10), "2 años y 3 meses"},
		{bd(2025, time.March, 15), "1 año"},
		{bd(2025, time.October, 15), "5 meses"},
		{bd(2026, time.February, 15), "1 mes"},
		{bd(2026, time.March, 3), "12 días"},
		{bd(2026, time.March, 14), "1 día"},
		{nil, ""},
		{bd(2027, time.January, 1), ""}, // fecha futura
	}

	for _, c := range cases {
		p := Pet{BirthDate: c.birth}
		if got := p.Age(now); got != c.want {
			t.Errorf("Age(birth=%v) = %q, want %q", c.birth, got, c.want)
		}
	}
}
