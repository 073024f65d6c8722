package auth

import "context"

// AuthVerifier verifica un token de sesión y devuelve claims o error.
type AuthVerifier interface {
	Verify(ctx context.Context, token string) (Claims, error)
}

// SessionIssuer emite tokens de sesión firmados para un usuario ya autenticado.
type SessionIssuer interface {
	Issue(userID, email string) (string, error)
}
