package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"bonvet-api/internal/domain/records"
)

type recordRepo struct {
	mu   sync.RWMutex
	byID map[string]records.MedicalRecord
}

func NewRecordsRepo() records.Repository {
	return &recordRepo{
		byID: make(map[string]records.MedicalRecord),
	}
}

func (r *recordRepo) Create(ctx context.Context, rec records.MedicalRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(rec.ID) == "" {
		return errors.New("record id required")
	}
	if _, exists := r.byID[rec.ID]; exists {
		return errors.New("record already exists")
	}
	if rec.Files == nil {
		rec.Files = []records.FileDescriptor{}
	}
	r.byID[rec.ID] = rec
	return nil
}

func (r *recordRepo) Update(ctx context.Context, rec records.MedicalRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(rec.ID) == "" {
		return errors.New("record id required")
	}
	current, exists := r.byID[rec.ID]
	if !exists {
		return records.ErrNotFound
	}
	// Los adjuntos no se actualizan por este camino.
	rec.Files = current.Files
	r.byID[rec.ID] = rec
	return nil
}

func (r *recordRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[id]; !exists {
		return records.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *recordRepo) GetByID(ctx context.Context, id string) (records.MedicalRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.byID[id]
	if !ok {
		return records.MedicalRecord{}, records.ErrNotFound
	}
	return rec, nil
}

func (r *recordRepo) ListByPet(ctx context.Context, petID string) ([]records.MedicalRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]records.MedicalRecord, 0)
	for _, rec := range r.byID {
		if rec.PetID == petID {
			out = append(out, rec)
		}
	}

	// Más recientes primero; desempate por created_at.
	sort.Slice(out, func(i, j int) bool {
		if !out[i].RecordDate.Equal(out[j].RecordDate) {
			return out[i].RecordDate.After(out[j].RecordDate)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	return out, nil
}
