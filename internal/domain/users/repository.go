package users

import "context"

type Repository interface {
	// Create inserta el usuario. La unicidad de email la garantiza el storage
	// (constraint UNIQUE); el repo devuelve ErrEmailTaken si ya existe.
	Create(ctx context.Context, u User) error
	// GetByID y GetByEmail devuelven ErrNotFound si el usuario no existe;
	// cualquier otro error es una falla del storage y se propaga tal cual.
	GetByID(ctx context.Context, id string) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
}
