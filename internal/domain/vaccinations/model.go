package vaccinations

import (
	"time"

	"pet-health/internal/domain/duedate"
)

// VaccinationRecord es una dosis aplicada. Varias dosis de la misma vacuna forman el
// historial; cada una aporta su propio NextDueDate.
type VaccinationRecord struct {
	ID    string
	PetID string

	VaccineName string
	DateGiven   time.Time
	NextDueDate *time.Time

	VetName     string
	BatchNumber string
	Notes       string

	CreatedAt time.Time
}

// VaccineStatus es el estado vigente de una vacuna (última dosis por nombre).
type VaccineStatus struct {
	VaccineName string
	Latest      VaccinationRecord
	Status      duedate.Status
}
