package postgres

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"bonvet-api/internal/domain/sharetokens"
)

type ShareTokensRepo struct {
	db *sql.DB
}

func NewShareTokensRepo(db *sql.DB) *ShareTokensRepo {
	return &ShareTokensRepo{db: db}
}

// InsertExclusive ejecuta deactivate + insert dentro de una transacción.
// El UPDATE solo no alcanza en READ COMMITTED: si no hay fila activa las dos
// transacciones actualizan cero filas y nada se bloquea, y aun con fila
// activa la recheck de la segunda no ve el insert de la primera. El lock
// advisory por mascota serializa la sección completa; el índice único
// parcial de schema.sql respalda el invariante a nivel de datos.
func (r *ShareTokensRepo) InsertExclusive(ctx context.Context, t sharetokens.ShareToken) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	// Se libera solo al cerrar la transacción.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, t.PetID); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE share_tokens
		SET is_active = FALSE
		WHERE pet_id = $1 AND is_active
	`, t.PetID); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO share_tokens (
			id, token, pet_id,
			expires_at, is_active, last_used_at,
			created_by_ip, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`,
		t.ID,
		t.Token,
		t.PetID,
		t.ExpiresAt,
		t.IsActive,
		toNullTime(t.LastUsedAt),
		t.CreatedByIP,
		t.CreatedAt,
	); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *ShareTokensRepo) GetByToken(ctx context.Context, token string) (sharetokens.ShareToken, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return sharetokens.ShareToken{}, sharetokens.ErrTokenNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT id, token, pet_id,
		       expires_at, is_active, last_used_at,
		       created_by_ip, created_at
		FROM share_tokens
		WHERE token = $1
	`, token)

	t, err := scanShareToken(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return sharetokens.ShareToken{}, sharetokens.ErrTokenNotFound
		}
		return sharetokens.ShareToken{}, err
	}
	return t, nil
}

func (r *ShareTokensRepo) DeactivateByToken(ctx context.Context, token string) (bool, error) {
	// Idempotente: el WHERE no filtra por is_active, así un segundo
	// deactivate cuenta como encontrado aunque no cambie nada.
	res, err := r.db.ExecContext(ctx, `
		UPDATE share_tokens
		SET is_active = FALSE
		WHERE token = $1
	`, token)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *ShareTokensRepo) DeactivateAllForPet(ctx context.Context, petID string) (int, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE share_tokens
		SET is_active = FALSE
		WHERE pet_id = $1 AND is_active
	`, petID)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func (r *ShareTokensRepo) ListActiveByPet(ctx context.Context, petID string, now time.Time) ([]sharetokens.ShareToken, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, token, pet_id,
		       expires_at, is_active, last_used_at,
		       created_by_ip, created_at
		FROM share_tokens
		WHERE pet_id = $1 AND is_active AND expires_at > $2
		ORDER BY created_at DESC
	`, petID, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]sharetokens.ShareToken, 0)
	for rows.Next() {
		t, err := scanShareToken(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *ShareTokensRepo) TouchLastUsed(ctx context.Context, token string, when time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE share_tokens
		SET last_used_at = $2
		WHERE token = $1
	`, token, when)
	return err
}

func (r *ShareTokensRepo) DeleteExpired(ctx context.Context, before time.Time) (int, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM share_tokens
		WHERE expires_at < $1
	`, before)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func scanShareToken(row rowScanner) (sharetokens.ShareToken, error) {
	var t sharetokens.ShareToken
	var lastUsed sql.NullTime

	if err := row.Scan(
		&t.ID,
		&t.Token,
		&t.PetID,
		&t.ExpiresAt,
		&t.IsActive,
		&lastUsed,
		&t.CreatedByIP,
		&t.CreatedAt,
	); err != nil {
		return sharetokens.ShareToken{}, err
	}

	t.LastUsedAt = fromNullTime(lastUsed)
	return t, nil
}
