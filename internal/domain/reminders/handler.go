package reminders

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"pet-health/internal/domain/duedate"
	"pet-health/internal/platform/apperr"
	"pet-health/internal/platform/validation"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/reminders", func(rr chi.Router) {
		rr.Post("/", createReminderHandler(svc))
		rr.Get("/", listRemindersHandler(svc))
		rr.Get("/upcoming", upcomingRemindersHandler(svc))
		rr.Get("/{reminderID}", getReminderHandler(svc))
		rr.Delete("/{reminderID}", deleteReminderHandler(svc))
		rr.Post("/{reminderID}/complete", completeReminderHandler(svc))
		rr.Get("/{reminderID}/completions", listCompletionsHandler(svc))
	})
}

type createReminderRequest struct {
	Type           string  `json:"type" validate:"required,oneof=medication vaccination checkup grooming weight_check other"`
	Title          string  `json:"title" validate:"required,max=200"`
	Description    string  `json:"description"`
	DueDate        string  `json:"due_date" validate:"required"`
	Frequency      *string `json:"frequency" validate:"omitempty,oneof=once daily weekly monthly yearly"`
	IsRecurring    bool    `json:"is_recurring"`
	ReminderDays   int     `json:"reminder_days" validate:"gte=0"`
	Priority       string  `json:"priority" validate:"omitempty,oneof=low medium high"`
	HealthRecordID string  `json:"health_record_id"`
	VaccinationID  string  `json:"vaccination_id"`
}

type completeReminderRequest struct {
	CompletedAt string `json:"completed_at"` // opcional, RFC3339
}

type reminderResponse struct {
	ID             string             `json:"id"`
	PetID          string             `json:"pet_id"`
	Type           ReminderType       `json:"type"`
	Title          string             `json:"title"`
	Description    string             `json:"description,omitempty"`
	DueDate        time.Time          `json:"due_date"`
	Frequency      *duedate.Frequency `json:"frequency"`
	IsRecurring    bool               `json:"is_recurring"`
	IsCompleted    bool               `json:"is_completed"`
	CompletedAt    *time.Time         `json:"completed_at,omitempty"`
	ReminderDays   int                `json:"reminder_days"`
	Priority       Priority           `json:"priority"`
	State          State              `json:"state"`
	DueStatus      duedate.Status     `json:"due_status"`
	HealthRecordID string             `json:"health_record_id,omitempty"`
	VaccinationID  string             `json:"vaccination_id,omitempty"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`
}

type completionResponse struct {
	ID          string     `json:"id"`
	DueDate     time.Time  `json:"due_date"`
	CompletedAt time.Time  `json:"completed_at"`
	NextDueDate *time.Time `json:"next_due_date,omitempty"`
}

// createReminderHandler godoc
// @Summary Crear recordatorio
// @Description Crea un recordatorio único o recurrente. is_recurring requiere frequency distinta de once.
// @Tags reminders
// @Accept json
// @Produce json
// @Param petID path string true "ID de la mascota"
// @Param payload body createReminderRequest true "Recordatorio"
// @Success 201 {object} reminderResponse
// @Failure 400 {string} string "validation error"
// @Router /pets/{petID}/health/reminders [post]
func createReminderHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createReminderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if err := validation.Struct(req); err != nil {
			writeError(w, err)
			return
		}

		due, err := duedate.ParseDate(req.DueDate)
		if err != nil {
			writeError(w, apperr.Invalid("due_date", req.DueDate, "must be RFC3339 or YYYY-MM-DD"))
			return
		}
		var freq *duedate.Frequency
		if req.Frequency != nil {
			f := duedate.Frequency(*req.Frequency)
			freq = &f
		}

		rem, err := svc.Create(r.Context(), chi.URLParam(r, "petID"), CreateInput{
			Type:           ReminderType(req.Type),
			Title:          req.Title,
			Description:    req.Description,
			DueDate:        due,
			Frequency:      freq,
			IsRecurring:    req.IsRecurring,
			ReminderDays:   req.ReminderDays,
			Priority:       Priority(req.Priority),
			HealthRecordID: req.HealthRecordID,
			VaccinationID:  req.VaccinationID,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toReminderResponse(svc, rem, svc.Now()))
	}
}

// listRemindersHandler godoc
// @Summary Listar recordatorios
// @Tags reminders
// @Produce json
// @Param petID path string true "ID de la mascota"
// @Param include_completed query bool false "Incluir completados (once)"
// @Success 200 {array} reminderResponse
// @Router /pets/{petID}/health/reminders [get]
func listRemindersHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		include, _ := strconv.ParseBool(r.URL.Query().Get("include_completed"))

		items, err := svc.ListByPet(r.Context(), chi.URLParam(r, "petID"), include)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toReminderResponses(svc, items, svc.Now()))
	}
}

// upcomingRemindersHandler godoc
// @Summary Próximos recordatorios
// @Description Pendientes cuya fecha efectiva (due_date - reminder_days) cae dentro del horizonte. Incluye vencidos.
// @Tags reminders
// @Produce json
// @Param petID path string true "ID de la mascota"
// @Param now query string false "Instante de referencia (RFC3339)"
// @Param horizon_days query int false "Horizonte en días (default de política: 30)"
// @Success 200 {array} reminderResponse
// @Failure 400 {string} string "parámetros inválidos"
// @Router /pets/{petID}/health/reminders/upcoming [get]
func upcomingRemindersHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now, err := nowParam(r, svc)
		if err != nil {
			writeError(w, err)
			return
		}

		horizon := -1
		if v := strings.TrimSpace(r.URL.Query().Get("horizon_days")); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				writeError(w, apperr.Invalid("horizon_days", v, "must be a non-negative integer"))
				return
			}
			horizon = n
		}

		items, err := svc.Upcoming(r.Context(), chi.URLParam(r, "petID"), now, horizon)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toReminderResponses(svc, items, now))
	}
}

// getReminderHandler godoc
// @Summary Obtener recordatorio
// @Tags reminders
// @Produce json
// @Param petID path string true "ID de la mascota"
// @Param reminderID path string true "ID del recordatorio"
// @Success 200 {object} reminderResponse
// @Failure 404 {string} string "not found"
// @Router /pets/{petID}/health/reminders/{reminderID} [get]
func getReminderHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rem, err := svc.Get(r.Context(), chi.URLParam(r, "petID"), chi.URLParam(r, "reminderID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toReminderResponse(svc, rem, svc.Now()))
	}
}

// deleteReminderHandler godoc
// @Summary Eliminar recordatorio
// @Tags reminders
// @Param petID path string true "ID de la mascota"
// @Param reminderID path string true "ID del recordatorio"
// @Success 204
// @Failure 404 {string} string "not found"
// @Router /pets/{petID}/health/reminders/{reminderID} [delete]
func deleteReminderHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Delete(r.Context(), chi.URLParam(r, "petID"), chi.URLParam(r, "reminderID")); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// completeReminderHandler godoc
// @Summary Completar recordatorio
// @Description Once: queda completado (idempotente). Recurrente: avanza due_date un período y vuelve a pending. 409 si hubo una completion concurrente.
// @Tags reminders
// @Accept json
// @Produce json
// @Param petID path string true "ID de la mascota"
// @Param reminderID path string true "ID del recordatorio"
// @Param payload body completeReminderRequest false "completed_at opcional"
// @Success 200 {object} reminderResponse
// @Failure 404 {string} string "not found"
// @Failure 409 {string} string "concurrency conflict"
// @Router /pets/{petID}/health/reminders/{reminderID}/complete [post]
func completeReminderHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req completeReminderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		var completedAt time.Time
		if v := strings.TrimSpace(req.CompletedAt); v != "" {
			t, err := duedate.ParseDate(v)
			if err != nil {
				writeError(w, apperr.Invalid("completed_at", v, "must be RFC3339 or YYYY-MM-DD"))
				return
			}
			completedAt = t
		}

		rem, err := svc.Complete(r.Context(), chi.URLParam(r, "petID"), chi.URLParam(r, "reminderID"), completedAt)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toReminderResponse(svc, rem, svc.Now()))
	}
}

// listCompletionsHandler godoc
// @Summary Historial de completions
// @Tags reminders
// @Produce json
// @Param petID path string true "ID de la mascota"
// @Param reminderID path string true "ID del recordatorio"
// @Success 200 {array} completionResponse
// @Failure 404 {string} string "not found"
// @Router /pets/{petID}/health/reminders/{reminderID}/completions [get]
func listCompletionsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.Completions(r.Context(), chi.URLParam(r, "petID"), chi.URLParam(r, "reminderID"))
		if err != nil {
			writeError(w, err)
			return
		}
		out := make([]completionResponse, 0, len(items))
		for _, c := range items {
			out = append(out, completionResponse{
				ID:          c.ID,
				DueDate:     c.DueDate,
				CompletedAt: c.CompletedAt,
				NextDueDate: c.NextDueDate,
			})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func nowParam(r *http.Request, svc *Service) (time.Time, error) {
	v := strings.TrimSpace(r.URL.Query().Get("now"))
	if v == "" {
		return svc.Now(), nil
	}
	t, err := duedate.ParseDate(v)
	if err != nil {
		return time.Time{}, apperr.Invalid("now", v, "must be RFC3339 or YYYY-MM-DD")
	}
	return t, nil
}

func toReminderResponses(svc *Service, items []Reminder, now time.Time) []reminderResponse {
	out := make([]reminderResponse, 0, len(items))
	for _, rem := range items {
		out = append(out, toReminderResponse(svc, rem, now))
	}
	return out
}

func toReminderResponse(svc *Service, rem Reminder, now time.Time) reminderResponse {
	status := svc.Classify(rem, now)
	if rem.IsCompleted {
		status = duedate.StatusNoDate
	}
	return reminderResponse{
		ID:             rem.ID,
		PetID:          rem.PetID,
		Type:           rem.Type,
		Title:          rem.Title,
		Description:    rem.Description,
		DueDate:        rem.DueDate,
		Frequency:      rem.Frequency,
		IsRecurring:    rem.IsRecurring,
		IsCompleted:    rem.IsCompleted,
		CompletedAt:    rem.CompletedAt,
		ReminderDays:   rem.ReminderDays,
		Priority:       rem.Priority,
		State:          rem.State(),
		DueStatus:      status,
		HealthRecordID: rem.HealthRecordID,
		VaccinationID:  rem.VaccinationID,
		CreatedAt:      rem.CreatedAt,
		UpdatedAt:      rem.UpdatedAt,
	}
}

func writeError(w http.ResponseWriter, err error) {
	http.Error(w, apperr.PublicMessage(err), apperr.HTTPStatus(err))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
