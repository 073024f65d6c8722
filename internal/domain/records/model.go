package records

import "time"

// MedicalRecord es una entrada del historial clínico de una mascota.
type MedicalRecord struct {
	ID    string
	PetID string

	Type  RecordType
	Title string

	Description string
	RecordDate  time.Time

	VeterinaryClinic string
	VeterinarianName string
	WeightAtVisit    *float64 // kg
	Notes            string

	// Archivos adjuntos (solo descriptores; el upload/storage vive fuera
	// de este backend).
	Files []FileDescriptor

	CreatedAt time.Time
	UpdatedAt time.Time
}

// FileDescriptor describe un adjunto. Nunca expone la ruta física de storage:
// URL es la ruta de descarga pública (/files/{uuid}).
type FileDescriptor struct {
	ID           string
	OriginalName string
	MimeType     string
	Size         int64
	URL          string
}
