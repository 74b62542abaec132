package vaccinations

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"pet-health/internal/domain/duedate"
	"pet-health/internal/platform/apperr"
	"pet-health/internal/platform/validation"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/vaccinations", func(vr chi.Router) {
		vr.Post("/", createVaccinationHandler(svc))
		vr.Get("/", listVaccinationsHandler(svc))
		vr.Get("/upcoming", upcomingVaccinationsHandler(svc))
		vr.Get("/compliance", complianceHandler(svc))
		vr.Get("/{vaccinationID}", getVaccinationHandler(svc))
		vr.Delete("/{vaccinationID}", deleteVaccinationHandler(svc))
	})
}

type createVaccinationRequest struct {
	VaccineName    string `json:"vaccine_name" validate:"required,max=120"`
	DateGiven      string `json:"date_given" validate:"required"`
	NextDueDate    string `json:"next_due_date"`
	VetName        string `json:"vet_name" validate:"max=200"`
	BatchNumber    string `json:"batch_number" validate:"max=80"`
	Notes          string `json:"notes"`
	CreateReminder bool   `json:"create_reminder"`
}

type vaccinationResponse struct {
	ID          string     `json:"id"`
	PetID       string     `json:"pet_id"`
	VaccineName string     `json:"vaccine_name"`
	DateGiven   time.Time  `json:"date_given"`
	NextDueDate *time.Time `json:"next_due_date,omitempty"`
	VetName     string     `json:"vet_name,omitempty"`
	BatchNumber string     `json:"batch_number,omitempty"`
	Notes       string     `json:"notes,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	ReminderID  string     `json:"reminder_id,omitempty"`
}

type vaccineStatusResponse struct {
	VaccineName  string         `json:"vaccine_name"`
	Status       duedate.Status `json:"status"`
	DateGiven    time.Time      `json:"date_given"`
	NextDueDate  *time.Time     `json:"next_due_date,omitempty"`
	DaysUntilDue *int           `json:"days_until_due,omitempty"`
}

type complianceResponse struct {
	PetID    string                  `json:"pet_id"`
	Ratio    float64                 `json:"ratio"`
	Vaccines []vaccineStatusResponse `json:"vaccines"`
}

// createVaccinationHandler godoc
// @Summary Registrar vacuna
// @Description Registra una dosis. next_due_date debe ser posterior a date_given. Con create_reminder=true se deriva un recordatorio.
// @Tags vaccinations
// @Accept json
// @Produce json
// @Param petID path string true "ID de la mascota"
// @Param payload body createVaccinationRequest true "Dosis aplicada"
// @Success 201 {object} vaccinationResponse
// @Failure 400 {string} string "validation error"
// @Router /pets/{petID}/health/vaccinations [post]
func createVaccinationHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createVaccinationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if err := validation.Struct(req); err != nil {
			writeError(w, err)
			return
		}

		given, err := duedate.ParseDate(req.DateGiven)
		if err != nil {
			writeError(w, apperr.Invalid("date_given", req.DateGiven, "must be RFC3339 or YYYY-MM-DD"))
			return
		}
		var next *time.Time
		if v := strings.TrimSpace(req.NextDueDate); v != "" {
			t, err := duedate.ParseDate(v)
			if err != nil {
				writeError(w, apperr.Invalid("next_due_date", v, "must be RFC3339 or YYYY-MM-DD"))
				return
			}
			next = &t
		}

		res, err := svc.Create(r.Context(), chi.URLParam(r, "petID"), CreateInput{
			VaccineName:    req.VaccineName,
			DateGiven:      given,
			NextDueDate:    next,
			VetName:        req.VetName,
			BatchNumber:    req.BatchNumber,
			Notes:          req.Notes,
			CreateReminder: req.CreateReminder,
		})
		if err != nil {
			writeError(w, err)
			return
		}

		out := toVaccinationResponse(res.Record)
		out.ReminderID = res.ReminderID
		writeJSON(w, http.StatusCreated, out)
	}
}

// listVaccinationsHandler godoc
// @Summary Historial de vacunas
// @Tags vaccinations
// @Produce json
// @Param petID path string true "ID de la mascota"
// @Success 200 {array} vaccinationResponse
// @Router /pets/{petID}/health/vaccinations [get]
func listVaccinationsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.ListByPet(r.Context(), chi.URLParam(r, "petID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toVaccinationResponses(items))
	}
}

// upcomingVaccinationsHandler godoc
// @Summary Próximas vacunas
// @Description Obligaciones vigentes con next_due_date posterior a now, la más próxima primero.
// @Tags vaccinations
// @Produce json
// @Param petID path string true "ID de la mascota"
// @Param now query string false "Instante de referencia (RFC3339). Por defecto, ahora"
// @Success 200 {array} vaccinationResponse
// @Router /pets/{petID}/health/vaccinations/upcoming [get]
func upcomingVaccinationsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now, err := nowParam(r, svc.now)
		if err != nil {
			writeError(w, err)
			return
		}
		items, err := svc.UpcomingFor(r.Context(), chi.URLParam(r, "petID"), now)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toVaccinationResponses(items))
	}
}

// complianceHandler godoc
// @Summary Cumplimiento de vacunación
// @Description Ratio de vacunas distintas no vencidas (1.0 sin historial) y estado por vacuna.
// @Tags vaccinations
// @Produce json
// @Param petID path string true "ID de la mascota"
// @Param now query string false "Instante de referencia (RFC3339)"
// @Success 200 {object} complianceResponse
// @Router /pets/{petID}/health/vaccinations/compliance [get]
func complianceHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now, err := nowParam(r, svc.now)
		if err != nil {
			writeError(w, err)
			return
		}
		petID := chi.URLParam(r, "petID")
		statuses, err := svc.Compliance(r.Context(), petID, now)
		if err != nil {
			writeError(w, err)
			return
		}

		out := complianceResponse{
			PetID:    petID,
			Ratio:    Ratio(statuses),
			Vaccines: make([]vaccineStatusResponse, 0, len(statuses)),
		}
		for _, st := range statuses {
			vs := vaccineStatusResponse{
				VaccineName: st.VaccineName,
				Status:      st.Status,
				DateGiven:   st.Latest.DateGiven,
				NextDueDate: st.Latest.NextDueDate,
			}
			if st.Latest.NextDueDate != nil {
				d := duedate.DaysUntil(*st.Latest.NextDueDate, now)
				vs.DaysUntilDue = &d
			}
			out.Vaccines = append(out.Vaccines, vs)
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// getVaccinationHandler godoc
// @Summary Obtener vacuna
// @Tags vaccinations
// @Produce json
// @Param petID path string true "ID de la mascota"
// @Param vaccinationID path string true "ID de la vacuna"
// @Success 200 {object} vaccinationResponse
// @Failure 404 {string} string "not found"
// @Router /pets/{petID}/health/vaccinations/{vaccinationID} [get]
func getVaccinationHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, err := svc.Get(r.Context(), chi.URLParam(r, "petID"), chi.URLParam(r, "vaccinationID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toVaccinationResponse(v))
	}
}

// deleteVaccinationHandler godoc
// @Summary Eliminar vacuna
// @Tags vaccinations
// @Param petID path string true "ID de la mascota"
// @Param vaccinationID path string true "ID de la vacuna"
// @Success 204
// @Failure 404 {string} string "not found"
// @Router /pets/{petID}/health/vaccinations/{vaccinationID} [delete]
func deleteVaccinationHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Delete(r.Context(), chi.URLParam(r, "petID"), chi.URLParam(r, "vaccinationID")); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func nowParam(r *http.Request, clock func() time.Time) (time.Time, error) {
	v := strings.TrimSpace(r.URL.Query().Get("now"))
	if v == "" {
		return clock().UTC(), nil
	}
	t, err := duedate.ParseDate(v)
	if err != nil {
		return time.Time{}, apperr.Invalid("now", v, "must be RFC3339 or YYYY-MM-DD")
	}
	return t, nil
}

func toVaccinationResponses(items []VaccinationRecord) []vaccinationResponse {
	out := make([]vaccinationResponse, 0, len(items))
	for _, v := range items {
		out = append(out, toVaccinationResponse(v))
	}
	return out
}

func toVaccinationResponse(v VaccinationRecord) vaccinationResponse {
	return vaccinationResponse{
		ID:          v.ID,
		PetID:       v.PetID,
		VaccineName: v.VaccineName,
		DateGiven:   v.DateGiven,
		NextDueDate: v.NextDueDate,
		VetName:     v.VetName,
		BatchNumber: v.BatchNumber,
		Notes:       v.Notes,
		CreatedAt:   v.CreatedAt,
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
