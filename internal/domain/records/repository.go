package records

import "context"

type Repository interface {
	Create(ctx context.Context, rec MedicalRecord) error
	Update(ctx context.Context, rec MedicalRecord) error
	// Delete y GetByID devuelven ErrNotFound si el registro no existe;
	// otros errores son fallas del storage y se propagan tal cual.
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (MedicalRecord, error)
	// ListByPet devuelve los registros ordenados por record_date descendente,
	// con sus descriptores de archivos cargados.
	ListByPet(ctx context.Context, petID string) ([]MedicalRecord, error)
}
