package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"bonvet-api/internal/ports/auth"
)

type ctxKey string

const claimsKey ctxKey = "claims"

// Motivos internos de rechazo de la credencial, previos a verificar el
// token. Ambos responden el mismo 401; la distinción es para logs y tests.
var (
	ErrNoCredential = errors.New("no credential")
	ErrBadScheme    = errors.New("bad authorization scheme")
)

// RequireAuth corta con 401 cualquier request sin sesión válida:
// sin header, esquema distinto de Bearer, o token que no verifica.
// El motivo concreto (malformado, firma, vencido, usuario borrado) nunca
// llega a la respuesta; solo "unauthenticated".
func RequireAuth(verifier auth.AuthVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := credentialFromHeader(r.Header.Get("Authorization"))
			if err != nil {
				unauthenticated(w)
				return
			}

			claims, err := verifier.Verify(r.Context(), token)
			if err != nil {
				unauthenticated(w)
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetClaims devuelve la identidad resuelta por RequireAuth.
func GetClaims(ctx context.Context) (auth.Claims, bool) {
	v := ctx.Value(claimsKey)
	if v == nil {
		return auth.Claims{}, false
	}
	c, ok := v.(auth.Claims)
	return c, ok
}

// WithClaims inyecta claims en el contexto. Pensado para tests de handlers.
func WithClaims(ctx context.Context, c auth.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, c)
}

// credentialFromHeader extrae el token del header Authorization.
// ErrNoCredential: header ausente o Bearer sin token.
// ErrBadScheme: credencial presente pero con otro esquema (Basic, etc.).
func credentialFromHeader(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", ErrNoCredential
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", ErrBadScheme
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", ErrNoCredential
	}
	return token, nil
}

func unauthenticated(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": "unauthenticated"})
}
