package reminders

type ReminderType string

const (
	TypeMedication  ReminderType = "medication"
	TypeVaccination ReminderType = "vaccination"
	TypeCheckup     ReminderType = "checkup"
	TypeGrooming    ReminderType = "grooming"
	TypeWeightCheck ReminderType = "weight_check"
	TypeOther       ReminderType = "other"
)

func (t ReminderType) Valid() bool {
	switch t {
	case TypeMedication, TypeVaccination, TypeCheckup, TypeGrooming, TypeWeightCheck, TypeOther:
		return true
	}
	return false
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (p Priority) Valid() bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

// rank: menor = más urgente (high antes que medium antes que low).
func (p Priority) rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	default:
		return 2
	}
}

// State es el estado derivado de la máquina: pending o completed (terminal solo para once).
type State string

const (
	StatePending   State = "pending"
	StateCompleted State = "completed"
)
