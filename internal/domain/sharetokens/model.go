package sharetokens

import (
	"fmt"
	"time"
)

// ShareToken da acceso público de solo lectura al historial de UNA mascota.
// Invariante: a lo sumo un token con IsActive=true por mascota.
//
// Ciclo de vida: Active -> Revoked (deactivate o supersedido por un token
// nuevo) o Active -> Expired (transición calculada contra el reloj, no un
// write). Ambos terminan en Purged cuando el barrido borra la fila.
type ShareToken struct {
	ID    string
	Token string // valor opaco, 256 bits de entropía, hex
	PetID string

	ExpiresAt  time.Time
	IsActive   bool
	LastUsedAt *time.Time

	CreatedByIP string
	CreatedAt   time.Time
}

// Expired es un estado calculado: nunca se persiste.
func (t ShareToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

// RemainingTime devuelve "2h 5m", "5m" o "< 1m"; "" si ya venció.
func (t ShareToken) RemainingTime(now time.Time) string {
	d := t.ExpiresAt.Sub(now)
	if d <= 0 {
		return ""
	}

	h := int(d.Hours())
	m := int(d.Minutes()) % 60

	switch {
	case h > 0:
		return fmt.Sprintf("%dh %dm", h, m)
	case m > 0:
		return fmt.Sprintf("%dm", m)
	default:
		return "< 1m"
	}
}
