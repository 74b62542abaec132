package healthstats

import "time"

type Components struct {
	Recency     int `json:"recency"`
	Vaccination int `json:"vaccination"`
	Reminders   int `json:"reminders"`
}

// Stats es derivado: nunca se persiste salvo en el cache.
type Stats struct {
	PetID                 string     `json:"pet_id"`
	TotalRecords          int        `json:"total_records"`
	RecentCheckups        int        `json:"recent_checkups"`
	VaccinationsUpToDate  int        `json:"vaccinations_up_to_date"`
	UpcomingReminders     int        `json:"upcoming_reminders"`
	OverdueReminders      int        `json:"overdue_reminders"`
	VaccinationCompliance float64    `json:"vaccination_compliance"`
	HealthScore           int        `json:"health_score"`
	Components            Components `json:"components"`
	LastCheckup           *time.Time `json:"last_checkup,omitempty"`
	ComputedAt            time.Time  `json:"computed_at"`
}
