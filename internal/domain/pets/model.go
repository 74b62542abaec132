package pets

import "time"

// Species define las especies soportadas.
// @Enum dog, cat, other
type Species string

const (
	SpeciesDog   Species = "dog"
	SpeciesCat   Species = "cat"
	SpeciesOther Species = "other"
)

func (s Species) Valid() bool {
	return s == SpeciesDog || s == SpeciesCat || s == SpeciesOther
}

// Sex define el sexo de la mascota.
// @Enum male, female, unknown
type Sex string

const (
	SexMale    Sex = "male"
	SexFemale  Sex = "female"
	SexUnknown Sex = "unknown"
)

func (s Sex) Valid() bool {
	return s == SexMale || s == SexFemale || s == SexUnknown
}

// Pet es el dueño lógico de todos los registros de salud (health records,
// vacunas, recordatorios). Acá solo vive lo necesario para autorizar por owner.
type Pet struct {
	ID          string
	OwnerUserID string

	Name    string
	Species Species
	Breed   string
	Sex     Sex

	BirthDate *time.Time
	Notes     string

	CreatedAt time.Time
	UpdatedAt time.Time
}
