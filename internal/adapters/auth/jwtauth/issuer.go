// Package jwtauth implementa la emisión y verificación de tokens de sesión
// (HS256, sin estado). Rotar el secreto invalida todas las sesiones emitidas.
package jwtauth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bonvet-api/internal/domain/users"
	"bonvet-api/internal/ports/auth"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrTokenMalformed   = errors.New("token malformed")
	ErrSignatureInvalid = errors.New("token signature invalid")
	ErrTokenExpired     = errors.New("token expired")
	ErrUserNotFound     = errors.New("token subject no longer exists")
)

// UserFinder resuelve que el sujeto del token siga existiendo.
// *users.Service lo satisface directamente.
type UserFinder interface {
	GetByID(ctx context.Context, id string) (users.User, error)
}

type Issuer struct {
	secret []byte
	ttl    time.Duration
	users  UserFinder
	now    func() time.Time
}

func NewIssuer(secret []byte, ttl time.Duration, users UserFinder) *Issuer {
	return &Issuer{
		secret: secret,
		ttl:    ttl,
		users:  users,
		now:    time.Now,
	}
}

// Issue firma un claim set {user_id, email, iat, exp}.
func (i *Issuer) Issue(userID, email string) (string, error) {
	now := i.now()
	claims := jwt.MapClaims{
		"user_id": userID,
		"email":   email,
		"iat":     now.Unix(),
		"exp":     now.Add(i.ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}

// Verify valida firma y expiración sin tocar el storage, y después confirma
// que el usuario siga existiendo. Sin efectos secundarios.
func (i *Issuer) Verify(ctx context.Context, tokenString string) (auth.Claims, error) {
	token, err := jwt.Parse(tokenString,
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return i.secret, nil
		},
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return auth.Claims{}, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return auth.Claims{}, ErrSignatureInvalid
		default:
			return auth.Claims{}, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
		}
	}
	if !token.Valid {
		return auth.Claims{}, ErrTokenMalformed
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return auth.Claims{}, ErrTokenMalformed
	}

	userID, ok := mapClaims["user_id"].(string)
	if !ok || userID == "" {
		return auth.Claims{}, ErrTokenMalformed
	}
	email, _ := mapClaims["email"].(string)

	if i.users != nil {
		if _, err := i.users.GetByID(ctx, userID); err != nil {
			return auth.Claims{}, ErrUserNotFound
		}
	}

	return auth.Claims{UserID: userID, Email: email}, nil
}
