package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"bonvet-api/internal/domain/sharetokens"
)

type shareTokenRepo struct {
	mu      sync.Mutex
	byToken map[string]sharetokens.ShareToken
}

func NewShareTokensRepo() sharetokens.Repository {
	return &shareTokenRepo{
		byToken: make(map[string]sharetokens.ShareToken),
	}
}

// InsertExclusive: el mutex es la sección crítica que serializa el
// deactivate+insert, igual que la transacción del adapter postgres.
func (r *shareTokenRepo) InsertExclusive(ctx context.Context, t sharetokens.ShareToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(t.Token) == "" {
		return errors.New("token value required")
	}
	if _, exists := r.byToken[t.Token]; exists {
		return errors.New("token already exists")
	}

	for k, existing := range r.byToken {
		if existing.PetID == t.PetID && existing.IsActive {
			existing.IsActive = false
			r.byToken[k] = existing
		}
	}

	r.byToken[t.Token] = t
	return nil
}

func (r *shareTokenRepo) GetByToken(ctx context.Context, token string) (sharetokens.ShareToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.byToken[token]
	if !ok {
		return sharetokens.ShareToken{}, sharetokens.ErrTokenNotFound
	}
	return t, nil
}

func (r *shareTokenRepo) DeactivateByToken(ctx context.Context, token string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.byToken[token]
	if !ok {
		return false, nil
	}
	t.IsActive = false
	r.byToken[token] = t
	return true, nil
}

func (r *shareTokenRepo) DeactivateAllForPet(ctx context.Context, petID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for k, t := range r.byToken {
		if t.PetID == petID && t.IsActive {
			t.IsActive = false
			r.byToken[k] = t
			n++
		}
	}
	return n, nil
}

func (r *shareTokenRepo) ListActiveByPet(ctx context.Context, petID string, now time.Time) ([]sharetokens.ShareToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]sharetokens.ShareToken, 0)
	for _, t := range r.byToken {
		if t.PetID == petID && t.IsActive && t.ExpiresAt.After(now) {
			out = append(out, t)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	return out, nil
}

func (r *shareTokenRepo) TouchLastUsed(ctx context.Context, token string, when time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.byToken[token]
	if !ok {
		return sharetokens.ErrTokenNotFound
	}
	t.LastUsedAt = &when
	r.byToken[token] = t
	return nil
}

func (r *shareTokenRepo) DeleteExpired(ctx context.Context, before time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for k, t := range r.byToken {
		if t.ExpiresAt.Before(before) {
			delete(r.byToken, k)
			n++
		}
	}
	return n, nil
}
