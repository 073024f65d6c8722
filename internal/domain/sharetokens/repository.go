package sharetokens

import (
	"context"
	"time"
)

type Repository interface {
	// InsertExclusive desactiva todos los tokens activos de t.PetID e inserta
	// t como único activo, en UNA unidad atómica (transacción o sección
	// crítica). Dos creaciones concurrentes para la misma mascota deben
	// serializar acá; si no, ambas pueden pasar el "deactivate" y quedar dos
	// activos a la vez.
	InsertExclusive(ctx context.Context, t ShareToken) error

	// GetByToken devuelve ErrTokenNotFound si el token no existe; otros
	// errores son fallas del storage y se propagan tal cual.
	GetByToken(ctx context.Context, token string) (ShareToken, error)

	// DeactivateByToken devuelve found=false si el token no existe.
	// Sobre un token ya inactivo es un no-op (found=true).
	DeactivateByToken(ctx context.Context, token string) (found bool, err error)

	DeactivateAllForPet(ctx context.Context, petID string) (int, error)

	// ListActiveByPet: is_active y expires_at > now, más nuevos primero.
	ListActiveByPet(ctx context.Context, petID string, now time.Time) ([]ShareToken, error)

	TouchLastUsed(ctx context.Context, token string, when time.Time) error

	// DeleteExpired borra filas con expires_at < before y devuelve cuántas.
	DeleteExpired(ctx context.Context, before time.Time) (int, error)
}
