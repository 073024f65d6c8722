package users

import (
	"strings"
	"time"
)

// User es el dueño de las mascotas. PasswordHash guarda el hash Argon2id
// en formato PHC; nunca se serializa hacia afuera.
type User struct {
	ID    string
	Email string

	PasswordHash string

	FirstName string
	LastName  string
	Phone     string
	AvatarURL string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// FullName combina nombre y apellidos para vistas públicas.
func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}
