package postgres

import (
	"context"
	"database/sql"
	"strings"

	"bonvet-api/internal/domain/records"
)

type RecordsRepo struct {
	db *sql.DB
}

func NewRecordsRepo(db *sql.DB) *RecordsRepo {
	return &RecordsRepo{db: db}
}

func (r *RecordsRepo) Create(ctx context.Context, rec records.MedicalRecord) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO medical_records (
			id, pet_id, type, title, description, record_date,
			veterinary_clinic, veterinarian_name, weight_at_visit, notes,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	`,
		rec.ID,
		rec.PetID,
		string(rec.Type),
		rec.Title,
		rec.Description,
		rec.RecordDate,
		rec.VeterinaryClinic,
		rec.VeterinarianName,
		toNullFloat(rec.WeightAtVisit),
		rec.Notes,
		rec.CreatedAt,
		rec.UpdatedAt,
	)
	return err
}

func (r *RecordsRepo) Update(ctx context.Context, rec records.MedicalRecord) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE medical_records
		SET
			type = $2,
			title = $3,
			description = $4,
			record_date = $5,
			veterinary_clinic = $6,
			veterinarian_name = $7,
			weight_at_visit = $8,
			notes = $9,
			updated_at = $10
		WHERE id = $1
	`,
		rec.ID,
		string(rec.Type),
		rec.Title,
		rec.Description,
		rec.RecordDate,
		rec.VeterinaryClinic,
		rec.VeterinarianName,
		toNullFloat(rec.WeightAtVisit),
		rec.Notes,
		rec.UpdatedAt,
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return records.ErrNotFound
	}
	return nil
}

func (r *RecordsRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM medical_records WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return records.ErrNotFound
	}
	return nil
}

func (r *RecordsRepo) GetByID(ctx context.Context, id string) (records.MedicalRecord, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return records.MedicalRecord{}, records.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT id, pet_id, type, title, description, record_date,
		       veterinary_clinic, veterinarian_name, weight_at_visit, notes,
		       created_at, updated_at
		FROM medical_records
		WHERE id = $1
	`, id)

	rec, err := scanRecord(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return records.MedicalRecord{}, records.ErrNotFound
		}
		return records.MedicalRecord{}, err
	}

	files, err := r.filesByRecord(ctx, []string{rec.ID})
	if err != nil {
		return records.MedicalRecord{}, err
	}
	rec.Files = files[rec.ID]
	if rec.Files == nil {
		rec.Files = []records.FileDescriptor{}
	}
	return rec, nil
}

func (r *RecordsRepo) ListByPet(ctx context.Context, petID string) ([]records.MedicalRecord, error) {
	petID = strings.TrimSpace(petID)
	if petID == "" {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, pet_id, type, title, description, record_date,
		       veterinary_clinic, veterinarian_name, weight_at_visit, notes,
		       created_at, updated_at
		FROM medical_records
		WHERE pet_id = $1
		ORDER BY record_date DESC, created_at DESC
	`, petID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]records.MedicalRecord, 0)
	ids := make([]string, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
		ids = append(ids, rec.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	files, err := r.filesByRecord(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Files = files[out[i].ID]
		if out[i].Files == nil {
			out[i].Files = []records.FileDescriptor{}
		}
	}
	return out, nil
}

// filesByRecord carga los descriptores para un conjunto de registros.
// La URL pública se deriva del id; la ruta física nunca sale del storage.
func (r *RecordsRepo) filesByRecord(ctx context.Context, recordIDs []string) (map[string][]records.FileDescriptor, error) {
	out := make(map[string][]records.FileDescriptor, len(recordIDs))
	if len(recordIDs) == 0 {
		return out, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, record_id, original_name, mime_type, size
		FROM files
		WHERE record_id = ANY($1)
		ORDER BY created_at ASC
	`, recordIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var f records.FileDescriptor
		var recordID string
		if err := rows.Scan(&f.ID, &recordID, &f.OriginalName, &f.MimeType, &f.Size); err != nil {
			return nil, err
		}
		f.URL = "/files/" + f.ID
		out[recordID] = append(out[recordID], f)
	}
	return out, rows.Err()
}

func scanRecord(row rowScanner) (records.MedicalRecord, error) {
	var rec records.MedicalRecord
	var typ string
	var weight sql.NullFloat64

	if err := row.Scan(
		&rec.ID,
		&rec.PetID,
		&typ,
		&rec.Title,
		&rec.Description,
		&rec.RecordDate,
		&rec.VeterinaryClinic,
		&rec.VeterinarianName,
		&weight,
		&rec.Notes,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	); err != nil {
		return records.MedicalRecord{}, err
	}

	rec.Type = records.RecordType(typ)
	rec.WeightAtVisit = fromNullFloat(weight)
	return rec, nil
}
