package duedate

import (
	"errors"
	"time"
)

// Day es la unidad con la que se expresan todas las ventanas de política.
const Day = 24 * time.Hour

// DefaultDueSoonWindow es la ventana "due soon" (30 días).
const DefaultDueSoonWindow = 30 * Day

// Status clasifica una fecha de vencimiento respecto de "now".
type Status string

const (
	StatusOverdue  Status = "overdue"
	StatusDueSoon  Status = "due_soon"
	StatusUpToDate Status = "up_to_date"
	StatusNoDate   Status = "no_date"
)

// Frequency define cada cuánto se repite una obligación.
type Frequency string

const (
	FrequencyOnce    Frequency = "once"
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
	FrequencyYearly  Frequency = "yearly"
)

var ErrNotRecurring = errors.New("frequency does not recur")
var ErrUnknownFrequency = errors.New("unknown frequency")

// Valid indica si f es una de las frecuencias soportadas.
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyOnce, FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyYearly:
		return true
	}
	return false
}

// Policy agrupa las constantes temporales; se puede sobreescribir desde config.
type Policy struct {
	DueSoonWindow time.Duration
}

func DefaultPolicy() Policy {
	return Policy{DueSoonWindow: DefaultDueSoonWindow}
}

// Classify usa la política por defecto.
func Classify(due *time.Time, now time.Time) Status {
	return DefaultPolicy().Classify(due, now)
}

// Classify compara en UTC: overdue si due < now, due_soon si está dentro de la ventana.
func (p Policy) Classify(due *time.Time, now time.Time) Status {
	if due == nil || due.IsZero() {
		return StatusNoDate
	}
	d := due.UTC()
	n := now.UTC()

	if d.Before(n) {
		return StatusOverdue
	}
	if d.Sub(n) <= p.window() {
		return StatusDueSoon
	}
	return StatusUpToDate
}

func (p Policy) window() time.Duration {
	if p.DueSoonWindow <= 0 {
		return DefaultDueSoonWindow
	}
	return p.DueSoonWindow
}

// DaysUntil devuelve los días completos entre now y due (negativo si ya venció).
func DaysUntil(due, now time.Time) int {
	return int(due.UTC().Sub(now.UTC()) / Day)
}

// Advance calcula el siguiente vencimiento. Meses y años se recortan al largo del mes
// destino (31-ene -> 28/29-feb, 29-feb -> 28-feb en años no bisiestos).
func Advance(due time.Time, f Frequency) (time.Time, error) {
	d := due.UTC()
	switch f {
	case FrequencyDaily:
		return d.AddDate(0, 0, 1), nil
	case FrequencyWeekly:
		return d.AddDate(0, 0, 7), nil
	case FrequencyMonthly:
		return addMonthsClamped(d, 1), nil
	case FrequencyYearly:
		return addMonthsClamped(d, 12), nil
	case FrequencyOnce:
		return time.Time{}, ErrNotRecurring
	default:
		return time.Time{}, ErrUnknownFrequency
	}
}

func addMonthsClamped(t time.Time, months int) time.Time {
	y, m, d := t.Date()

	// Normalizamos año/mes sin pasar por time.Date con día desbordado.
	total := int(m) - 1 + months
	ty := y + total/12
	tm := time.Month(total%12 + 1)

	if last := daysIn(ty, tm); d > last {
		d = last
	}
	return time.Date(ty, tm, d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

func daysIn(year int, month time.Month) int {
	// día 0 del mes siguiente = último día del mes
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ParseDate acepta RFC3339 o YYYY-MM-DD (medianoche UTC) y normaliza a UTC.
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
