package pets

import (
	"fmt"
	"time"
)

// Gender define el sexo de la mascota.
// @Enum male, female
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// Pet representa el perfil de una mascota registrada en el sistema.
type Pet struct {
	ID          string
	OwnerUserID string

	Name    string
	Species string // dog, cat, bird, rabbit, hamster, fish, reptile, other
	Breed   string
	Gender  Gender

	BirthDate   *time.Time
	Weight      *float64 // kg
	Color       string
	Description string
	PhotoURL    string

	IsActive bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Species soportadas (lista abierta: se valida contra esto en el servicio).
var KnownSpecies = []string{"dog", "cat", "bird", "rabbit", "hamster", "fish", "reptile", "other"}

// Age devuelve la edad legible ("2 años y 3 meses", "5 meses", "12 días")
// o "" si no hay fecha de nacimiento.
func (p Pet) Age(now time.Time) string {
	if p.BirthDate == nil || p.BirthDate.After(now) {
		return ""
	}

	b := *p.BirthDate
	years := now.Year() - b.Year()
	months := int(now.Month()) - int(b.Month())
	if now.Day() < b.Day() {
		months--
	}
	if months < 0 {
		years--
		months += 12
	}

	switch {
	case years > 0:
		out := fmt.Sprintf("%d año", years)
		if years > 1 {
			out += "s"
		}
		if months > 0 {
			out += fmt.Sprintf(" y %d mes", months)
			if months > 1 {
				out += "es"
			}
		}
		return out
	case months > 0:
		out := fmt.Sprintf("%d mes", months)
		if months > 1 {
			out += "es"
		}
		return out
	default:
		days := int(now.Sub(b).Hours() / 24)
		out := fmt.Sprintf("%d día", days)
		if days != 1 {
			out += "s"
		}
		return out
	}
}
