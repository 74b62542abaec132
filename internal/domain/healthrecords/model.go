package healthrecords

import "time"

// HealthRecord es un evento clínico de la mascota. Una vez creado solo cambia por
// updates explícitos del caller.
type HealthRecord struct {
	ID    string
	PetID string

	Date time.Time
	Type RecordType

	VetName     string
	VetClinic   string
	Diagnosis   string
	Treatment   string
	Medications string
	Notes       string

	FollowUpDate *time.Time
	Cost         *float64
	Attachments  []string

	CreatedAt time.Time
	UpdatedAt time.Time
}
