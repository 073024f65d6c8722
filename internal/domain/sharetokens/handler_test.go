package sharetokens_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	mem "bonvet-api/internal/adapters/storage/memory"
	"bonvet-api/internal/domain/pets"
	"bonvet-api/internal/domain/records"
	"bonvet-api/internal/domain/sharetokens"
	"bonvet-api/internal/domain/users"
	"bonvet-api/internal/middleware"
	"bonvet-api/internal/ports/auth"

	"github.com/go-chi/chi/v5"
)

type fixture struct {
	tokens  *sharetokens.Service
	pets    *pets.Service
	users   *users.Service
	records *records.Service

	owner users.User
	pet   pets.Pet
}

func newFixture(t *testing.T, ttl time.Duration) *fixture {
	t.Helper()

	usersSvc := users.NewService(mem.NewUsersRepo())
	petsSvc := pets.NewService(mem.NewPetsRepo())
	recordsSvc := records.NewService(mem.NewRecordsRepo())
	tokensSvc := sharetokens.NewService(mem.NewShareTokensRepo(), sharetokens.Options{
		TTL:     ttl,
		BaseURL: "http://localhost:8080",
	})

	owner, err := usersSvc.Register(context.Background(), users.RegisterInput{
		Email:     "ana@example.com",
		Password:  "secret1",
		FirstName: "Ana",
		LastName:  "Pérez",
		Phone:     "+51 999 888 777",
	})
	if err != nil {
		t.Fatalf("register owner: %v", err)
	}

	bd := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	pet, err := petsSvc.Create(context.Background(), owner.ID, pets.CreateInput{
		Name:      "Milo",
		Species:   "dog",
		Breed:     "mixed",
		Gender:    "male",
		BirthDate: &bd,
	})
	if err != nil {
		t.Fatalf("create pet: %v", err)
	}

	for _, d := range []time.Time{
		time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	} {
		if _, err := recordsSvc.Create(context.Background(), pet.ID, records.CreateInput{
			Type:       records.TypeVaccination,
			Title:      "Vacuna",
			RecordDate: d,
		}); err != nil {
			t.Fatalf("create record: %v", err)
		}
	}

	return &fixture{
		tokens:  tokensSvc,
		pets:    petsSvc,
		users:   usersSvc,
		records: recordsSvc,
		owner:   owner,
		pet:     pet,
	}
}

// asUser inyecta claims directo en el contexto (sin pasar por RequireAuth).
func asUser(userID string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := middleware.WithClaims(r.Context(), auth.Claims{UserID: userID})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func (f *fixture) router(userID string) http.Handler {
	r := chi.NewRouter()
	sharetokens.RegisterPublicRoutes(r, f.tokens, f.pets, f.users, f.records)
	r.Group(func(pr chi.Router) {
		pr.Use(asUser(userID))
		sharetokens.RegisterOwnerRoutes(pr, f.tokens, f.pets)
	})
	return r
}

func TestCreateQR_ReturnsRenderedCode(t *testing.T) {
	f := newFixture(t, 15*time.Minute)
	h := f.router(f.owner.ID)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("POST", "/pets/"+f.pet.ID+"/qr", nil))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Token            string `json:"token"`
		AccessURL        string `json:"access_url"`
		QRCodeBase64     string `json:"qr_code_base64"`
		QRCodeDataURI    string `json:"qr_code_data_uri"`
		ExpiresAt        string `json:"expires_at"`
		ExpiresInMinutes int    `json:"expires_in_minutes"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if len(resp.Token) != 64 {
		t.Fatalf("expected 64-char token, got %d", len(resp.Token))
	}
	if !strings.HasSuffix(resp.AccessURL, "/qr/access/"+resp.Token) {
		t.Fatalf("unexpected access_url: %s", resp.AccessURL)
	}
	if resp.QRCodeBase64 == "" {
		t.Fatalf("expected rendered QR")
	}
	if !strings.HasPrefix(resp.QRCodeDataURI, "data:image/png;base64,") {
		t.Fatalf("unexpected data uri prefix: %.40s", resp.QRCodeDataURI)
	}
	if resp.ExpiresInMinutes != 15 {
		t.Fatalf("expected 15 minutes, got %d", resp.ExpiresInMinutes)
	}
	if _, err := time.Parse(time.RFC3339, resp.ExpiresAt); err != nil {
		t.Fatalf("expires_at not RFC3339: %v", err)
	}
}

func TestQRManagement_ForeignPetIs404(t *testing.T) {
	f := newFixture(t, 15*time.Minute)
	h := f.router("intruso-1")

	for _, req := range []*http.Request{
		httptest.NewRequest("POST", "/pets/"+f.pet.ID+"/qr", nil),
		httptest.NewRequest("DELETE", "/pets/"+f.pet.ID+"/qr", nil),
		httptest.NewRequest("GET", "/pets/"+f.pet.ID+"/qr/tokens", nil),
	} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("%s %s: expected 404 for foreign pet, got %d", req.Method, req.URL.Path, rec.Code)
		}
	}
}

func TestPublicAccess_RestrictedProjection(t *testing.T) {
	f := newFixture(t, 15*time.Minute)
	h := f.router(f.owner.ID)

	out, err := f.tokens.CreateForPet(context.Background(), f.pet.ID, "")
	if err != nil {
		t.Fatalf("CreateForPet: %v", err)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/qr/access/"+out.Token.Token+"/records", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}

	body := rec.Body.String()

	// Nada sensible en la vista pública.
	for _, leak := range []string{
		"ana@example.com", // email del dueño
		"$argon2id$",      // hash de password
		f.owner.ID,        // FK interna
		"owner_user_id",
		"is_active",
		"created_by_ip",
	} {
		if strings.Contains(body, leak) {
			t.Fatalf("public view leaks %q: %s", leak, body)
		}
	}

	var resp struct {
		Pet struct {
			Name string `json:"name"`
			Age  string `json:"age"`
		} `json:"pet"`
		Owner struct {
			FullName string `json:"full_name"`
			Phone    string `json:"phone"`
		} `json:"owner"`
		MedicalRecords []struct {
			RecordDate time.Time `json:"record_date"`
			Files      []any     `json:"files"`
		} `json:"medical_records"`
		AccessInfo struct {
			Token         string `json:"token"`
			RemainingTime string `json:"remaining_time"`
		} `json:"access_info"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if resp.Pet.Name != "Milo" || resp.Pet.Age == "" {
		t.Fatalf("unexpected pet view: %#v", resp.Pet)
	}
	if resp.Owner.FullName != "Ana Pérez" || resp.Owner.Phone != "+51 999 888 777" {
		t.Fatalf("unexpected owner view: %#v", resp.Owner)
	}
	if len(resp.MedicalRecords) != 2 {
		t.Fatalf("expected 2 records, got %d", len(resp.MedicalRecords))
	}
	if resp.MedicalRecords[0].RecordDate.Before(resp.MedicalRecords[1].RecordDate) {
		t.Fatalf("expected newest first")
	}
	if resp.MedicalRecords[0].Files == nil {
		t.Fatalf("expected files array present (puede ser vacío)")
	}
	if resp.AccessInfo.Token != out.Token.Token || resp.AccessInfo.RemainingTime == "" {
		t.Fatalf("unexpected access_info: %#v", resp.AccessInfo)
	}
}

func TestPublicAccess_OpaqueFailures(t *testing.T) {
	f := newFixture(t, 15*time.Minute)
	h := f.router(f.owner.ID)

	// Token revocado.
	out, err := f.tokens.CreateForPet(context.Background(), f.pet.ID, "")
	if err != nil {
		t.Fatalf("CreateForPet: %v", err)
	}
	if _, err := f.tokens.Deactivate(context.Background(), out.Token.Token); err != nil {
		t.Fatalf("Deactivate: %v", err)
	}

	paths := []string{
		"/qr/access/no-such-token/records",
		"/qr/access/" + out.Token.Token + "/records", // revocado
	}

	bodies := make([]string, 0, len(paths))
	for _, p := range paths {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest("GET", p, nil))
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", p, rec.Code)
		}
		bodies = append(bodies, strings.TrimSpace(rec.Body.String()))
	}

	// Inexistente y revocado responden EXACTAMENTE igual.
	if bodies[0] != bodies[1] || bodies[0] != "invalid or expired token" {
		t.Fatalf("expected identical opaque bodies, got %q vs %q", bodies[0], bodies[1])
	}
}

func TestPublicAccess_ExpiredToken(t *testing.T) {
	// Service con TTL negativo: el token nace vencido.
	usersSvc := users.NewService(mem.NewUsersRepo())
	petsSvc := pets.NewService(mem.NewPetsRepo())
	recordsSvc := records.NewService(mem.NewRecordsRepo())
	tokensSvc := sharetokens.NewService(mem.NewShareTokensRepo(), sharetokens.Options{
		TTL: -time.Minute,
	})

	owner, err := usersSvc.Register(context.Background(), users.RegisterInput{
		Email:     "ana@example.com",
		Password:  "secret1",
		FirstName: "Ana",
		LastName:  "Pérez",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	pet, err := petsSvc.Create(context.Background(), owner.ID, pets.CreateInput{
		Name:    "Milo",
		Species: "dog",
		Gender:  "male",
	})
	if err != nil {
		t.Fatalf("create pet: %v", err)
	}

	out, err := tokensSvc.CreateForPet(context.Background(), pet.ID, "")
	if err != nil {
		t.Fatalf("CreateForPet: %v", err)
	}

	r := chi.NewRouter()
	sharetokens.RegisterPublicRoutes(r, tokensSvc, petsSvc, usersSvc, recordsSvc)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/qr/access/"+out.Token.Token+"/records", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for expired token, got %d", rec.Code)
	}
	if strings.TrimSpace(rec.Body.String()) != "invalid or expired token" {
		t.Fatalf("expected opaque body, got %q", rec.Body.String())
	}
}

// downRepo simula un storage caído: toda operación falla.
type downRepo struct {
	err error
}

func (r *downRepo) InsertExclusive(ctx context.Context, t sharetokens.ShareToken) error {
	return r.err
}

func (r *downRepo) GetByToken(ctx context.Context, token string) (sharetokens.ShareToken, error) {
	return sharetokens.ShareToken{}, r.err
}

func (r *downRepo) DeactivateByToken(ctx context.Context, token string) (bool, error) {
	return false, r.err
}

func (r *downRepo) DeactivateAllForPet(ctx context.Context, petID string) (int, error) {
	return 0, r.err
}

func (r *downRepo) ListActiveByPet(ctx context.Context, petID string, now time.Time) ([]sharetokens.ShareToken, error) {
	return nil, r.err
}

func (r *downRepo) TouchLastUsed(ctx context.Context, token string, when time.Time) error {
	return r.err
}

func (r *downRepo) DeleteExpired(ctx context.Context, before time.Time) (int, error) {
	return 0, r.err
}

func TestPublicAccess_StorageFailureIs500(t *testing.T) {
	f := newFixture(t, 15*time.Minute)

	// Mismo fixture pero con el storage de tokens caído: la respuesta debe
	// ser 500, no el 401 opaco reservado para tokens malos.
	tokensSvc := sharetokens.NewService(&downRepo{err: errors.New("connection refused")}, sharetokens.Options{
		TTL:     15 * time.Minute,
		BaseURL: "http://localhost:8080",
	})

	r := chi.NewRouter()
	sharetokens.RegisterPublicRoutes(r, tokensSvc, f.pets, f.users, f.records)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/qr/access/some-token/records", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 on storage failure, got %d body=%s", rec.Code, rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), "invalid or expired token") {
		t.Fatalf("storage failure must not reuse the opaque token body")
	}
}

func TestHandlers_UseServiceClock(t *testing.T) {
	usersSvc := users.NewService(mem.NewUsersRepo())
	petsSvc := pets.NewService(mem.NewPetsRepo())
	recordsSvc := records.NewService(mem.NewRecordsRepo())

	// Reloj fijo: remaining_time y accessed_at salen deterministas.
	frozen := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	tokensSvc := sharetokens.NewService(mem.NewShareTokensRepo(), sharetokens.Options{
		TTL:     15 * time.Minute,
		BaseURL: "http://localhost:8080",
		Now:     func() time.Time { return frozen },
	})

	owner, err := usersSvc.Register(context.Background(), users.RegisterInput{
		Email:     "ana@example.com",
		Password:  "secret1",
		FirstName: "Ana",
		LastName:  "Pérez",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	pet, err := petsSvc.Create(context.Background(), owner.ID, pets.CreateInput{
		Name:    "Milo",
		Species: "dog",
		Gender:  "male",
	})
	if err != nil {
		t.Fatalf("create pet: %v", err)
	}

	out, err := tokensSvc.CreateForPet(context.Background(), pet.ID, "")
	if err != nil {
		t.Fatalf("CreateForPet: %v", err)
	}

	r := chi.NewRouter()
	sharetokens.RegisterPublicRoutes(r, tokensSvc, petsSvc, usersSvc, recordsSvc)
	r.Group(func(pr chi.Router) {
		pr.Use(asUser(owner.ID))
		sharetokens.RegisterOwnerRoutes(pr, tokensSvc, petsSvc)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/pets/"+pet.ID+"/qr/tokens", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var list []struct {
		RemainingTime string `json:"remaining_time"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(list) != 1 || list[0].RemainingTime != "15m" {
		t.Fatalf("expected remaining_time 15m with frozen clock, got %#v", list)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/qr/access/"+out.Token.Token+"/records", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}

	var resp struct {
		AccessInfo struct {
			RemainingTime string    `json:"remaining_time"`
			AccessedAt    time.Time `json:"accessed_at"`
		} `json:"access_info"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.AccessInfo.RemainingTime != "15m" {
		t.Fatalf("expected remaining_time 15m, got %q", resp.AccessInfo.RemainingTime)
	}
	if !resp.AccessInfo.AccessedAt.Equal(frozen) {
		t.Fatalf("expected accessed_at = frozen clock, got %v", resp.AccessInfo.AccessedAt)
	}
}

func TestListAndRevokeTokens(t *testing.T) {
	f := newFixture(t, 15*time.Minute)
	h := f.router(f.owner.ID)

	if _, err := f.tokens.CreateForPet(context.Background(), f.pet.ID, ""); err != nil {
		t.Fatalf("CreateForPet: %v", err)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/pets/"+f.pet.ID+"/qr/tokens", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var list []struct {
		Token         string `json:"token"`
		RemainingTime string `json:"remaining_time"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(list) != 1 || list[0].RemainingTime == "" {
		t.Fatalf("unexpected token list: %#v", list)
	}

	// Revocación masiva.
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("DELETE", "/pets/"+f.pet.ID+"/qr", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var out struct {
		Deactivated int `json:"deactivated"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Deactivated != 1 {
		t.Fatalf("expected 1 deactivated, got %d", out.Deactivated)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/pets/"+f.pet.ID+"/qr/tokens", nil))
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Fatalf("expected empty list after revoke, got %d %q", rec.Code, rec.Body.String())
	}
}
