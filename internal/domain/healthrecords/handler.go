package healthrecords

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"pet-health/internal/domain/duedate"
	"pet-health/internal/platform/apperr"
	"pet-health/internal/platform/validation"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes monta las rutas bajo un router ya acotado a /pets/{petID}/health
// (con la verificación de dueño aplicada por el caller).
func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/records", func(rr chi.Router) {
		rr.Post("/", createRecordHandler(svc))
		rr.Get("/", listRecordsHandler(svc))
		rr.Get("/{recordID}", getRecordHandler(svc))
		rr.Patch("/{recordID}", updateRecordHandler(svc))
		rr.Delete("/{recordID}", deleteRecordHandler(svc))
	})
}

// createRecordRequest es el cuerpo para registrar un evento clínico.
type createRecordRequest struct {
	Date         string   `json:"date" validate:"required"` // RFC3339 o YYYY-MM-DD
	Type         string   `json:"type" validate:"required,oneof=checkup illness injury surgery medication other"`
	VetName      string   `json:"vet_name" validate:"max=200"`
	VetClinic    string   `json:"vet_clinic" validate:"max=200"`
	Diagnosis    string   `json:"diagnosis"`
	Treatment    string   `json:"treatment"`
	Medications  string   `json:"medications"`
	Notes        string   `json:"notes"`
	FollowUpDate string   `json:"follow_up_date"`
	Cost         *float64 `json:"cost" validate:"omitempty,gte=0"`
	Attachments  []string `json:"attachments" validate:"omitempty,dive,required"`
}

type updateRecordRequest struct {
	Date         *string  `json:"date"`
	Type         *string  `json:"type" validate:"omitempty,oneof=checkup illness injury surgery medication other"`
	VetName      *string  `json:"vet_name"`
	VetClinic    *string  `json:"vet_clinic"`
	Diagnosis    *string  `json:"diagnosis"`
	Treatment    *string  `json:"treatment"`
	Medications  *string  `json:"medications"`
	Notes        *string  `json:"notes"`
	FollowUpDate *string  `json:"follow_up_date"`
	Cost         *float64 `json:"cost" validate:"omitempty,gte=0"`
	Attachments  []string `json:"attachments"`
}

// recordResponse representa un registro clínico devuelto por la API.
type recordResponse struct {
	ID           string     `json:"id"`
	PetID        string     `json:"pet_id"`
	Date         time.Time  `json:"date"`
	Type         RecordType `json:"type"`
	VetName      string     `json:"vet_name,omitempty"`
	VetClinic    string     `json:"vet_clinic,omitempty"`
	Diagnosis    string     `json:"diagnosis,omitempty"`
	Treatment    string     `json:"treatment,omitempty"`
	Medications  string     `json:"medications,omitempty"`
	Notes        string     `json:"notes,omitempty"`
	FollowUpDate *time.Time `json:"follow_up_date,omitempty"`
	Cost         *float64   `json:"cost,omitempty"`
	Attachments  []string   `json:"attachments"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// createRecordHandler godoc
// @Summary Crear registro de salud
// @Description Registra un evento clínico (checkup, illness, injury, surgery, medication, other). La fecha no puede ser futura.
// @Tags health-records
// @Accept json
// @Produce json
// @Param petID path string true "ID de la mascota"
// @Param payload body createRecordRequest true "Datos del registro"
// @Success 201 {object} recordResponse
// @Failure 400 {string} string "validation error"
// @Failure 404 {string} string "pet not found"
// @Router /pets/{petID}/health/records [post]
func createRecordHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createRecordRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if err := validation.Struct(req); err != nil {
			writeError(w, err)
			return
		}

		date, err := duedate.ParseDate(req.Date)
		if err != nil {
			writeError(w, apperr.Invalid("date", req.Date, "must be RFC3339 or YYYY-MM-DD"))
			return
		}
		followUp, err := optionalDate("follow_up_date", req.FollowUpDate)
		if err != nil {
			writeError(w, err)
			return
		}

		rec, err := svc.Create(r.Context(), chi.URLParam(r, "petID"), CreateInput{
			Date:         date,
			Type:         RecordType(req.Type),
			VetName:      req.VetName,
			VetClinic:    req.VetClinic,
			Diagnosis:    req.Diagnosis,
			Treatment:    req.Treatment,
			Medications:  req.Medications,
			Notes:        req.Notes,
			FollowUpDate: followUp,
			Cost:         req.Cost,
			Attachments:  req.Attachments,
		})
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toRecordResponse(rec))
	}
}

// listRecordsHandler godoc
// @Summary Listar registros de salud
// @Description Lista los registros de la mascota, más recientes primero. Sin registros devuelve [].
// @Tags health-records
// @Produce json
// @Param petID path string true "ID de la mascota"
// @Param types query string false "CSV de tipos (ej: checkup,surgery)"
// @Param from query string false "Fecha mínima (RFC3339 o YYYY-MM-DD)"
// @Param to query string false "Fecha máxima (RFC3339 o YYYY-MM-DD)"
// @Param limit query int false "Máximo (1-200). Por defecto 50"
// @Success 200 {array} recordResponse
// @Failure 400 {string} string "parámetros inválidos"
// @Router /pets/{petID}/health/records [get]
func listRecordsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := parseListFilter(r)
		if err != nil {
			writeError(w, err)
			return
		}

		items, err := svc.ListByPet(r.Context(), chi.URLParam(r, "petID"), filter)
		if err != nil {
			writeError(w, err)
			return
		}

		out := make([]recordResponse, 0, len(items))
		for _, rec := range items {
			out = append(out, toRecordResponse(rec))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// getRecordHandler godoc
// @Summary Obtener registro de salud
// @Tags health-records
// @Produce json
// @Param petID path string true "ID de la mascota"
// @Param recordID path string true "ID del registro"
// @Success 200 {object} recordResponse
// @Failure 404 {string} string "not found"
// @Router /pets/{petID}/health/records/{recordID} [get]
func getRecordHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, err := svc.Get(r.Context(), chi.URLParam(r, "petID"), chi.URLParam(r, "recordID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toRecordResponse(rec))
	}
}

// updateRecordHandler godoc
// @Summary Actualizar registro de salud
// @Description PATCH parcial; campos ausentes no se modifican.
// @Tags health-records
// @Accept json
// @Produce json
// @Param petID path string true "ID de la mascota"
// @Param recordID path string true "ID del registro"
// @Param payload body updateRecordRequest true "Campos a modificar"
// @Success 200 {object} recordResponse
// @Failure 400 {string} string "validation error"
// @Failure 404 {string} string "not found"
// @Router /pets/{petID}/health/records/{recordID} [patch]
func updateRecordHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()

		var req updateRecordRequest
		if err := dec.Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if err := validation.Struct(req); err != nil {
			writeError(w, err)
			return
		}

		in := UpdateInput{
			VetName:     req.VetName,
			VetClinic:   req.VetClinic,
			Diagnosis:   req.Diagnosis,
			Treatment:   req.Treatment,
			Medications: req.Medications,
			Notes:       req.Notes,
			Cost:        req.Cost,
			Attachments: req.Attachments,
		}
		if req.Type != nil {
			t := RecordType(*req.Type)
			in.Type = &t
		}
		if req.Date != nil {
			d, err := duedate.ParseDate(*req.Date)
			if err != nil {
				writeError(w, apperr.Invalid("date", *req.Date, "must be RFC3339 or YYYY-MM-DD"))
				return
			}
			in.Date = &d
		}
		if req.FollowUpDate != nil {
			f, err := optionalDate("follow_up_date", *req.FollowUpDate)
			if err != nil {
				writeError(w, err)
				return
			}
			in.FollowUpDate = f
		}

		rec, err := svc.Update(r.Context(), chi.URLParam(r, "petID"), chi.URLParam(r, "recordID"), in)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toRecordResponse(rec))
	}
}

// deleteRecordHandler godoc
// @Summary Eliminar registro de salud
// @Tags health-records
// @Param petID path string true "ID de la mascota"
// @Param recordID path string true "ID del registro"
// @Success 204
// @Failure 404 {string} string "not found"
// @Router /pets/{petID}/health/records/{recordID} [delete]
func deleteRecordHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Delete(r.Context(), chi.URLParam(r, "petID"), chi.URLParam(r, "recordID")); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func parseListFilter(r *http.Request) (ListFilter, error) {
	q := r.URL.Query()

	limit := 50
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}
	filter := ListFilter{Limit: limit}

	if v := strings.TrimSpace(q.Get("types")); v != "" {
		for _, p := range strings.Split(v, ",") {
			t := RecordType(strings.TrimSpace(p))
			if t == "" {
				continue
			}
			if !t.Valid() {
				return ListFilter{}, apperr.Invalid("types", t, "unknown record type")
			}
			filter.Types = append(filter.Types, t)
		}
	}

	for _, p := range []struct {
		name string
		dst  **time.Time
	}{{"from", &filter.From}, {"to", &filter.To}} {
		v := strings.TrimSpace(q.Get(p.name))
		if v == "" {
			continue
		}
		t, err := duedate.ParseDate(v)
		if err != nil {
			return ListFilter{}, apperr.Invalid(p.name, v, "must be RFC3339 or YYYY-MM-DD")
		}
		*p.dst = &t
	}

	return filter, nil
}

func optionalDate(field, v string) (*time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}
	t, err := duedate.ParseDate(v)
	if err != nil {
		return nil, apperr.Invalid(field, v, "must be RFC3339 or YYYY-MM-DD")
	}
	return &t, nil
}

func toRecordResponse(rec HealthRecord) recordResponse {
	attachments := rec.Attachments
	if attachments == nil {
		attachments = []string{}
	}
	return recordResponse{
		ID:           rec.ID,
		PetID:        rec.PetID,
		Date:         rec.Date,
		Type:         rec.Type,
		VetName:      rec.VetName,
		VetClinic:    rec.VetClinic,
		Diagnosis:    rec.Diagnosis,
		Treatment:    rec.Treatment,
		Medications:  rec.Medications,
		Notes:        rec.Notes,
		FollowUpDate: rec.FollowUpDate,
		Cost:         rec.Cost,
		Attachments:  attachments,
		CreatedAt:    rec.CreatedAt,
		UpdatedAt:    rec.UpdatedAt,
	}
}

func writeError(w http.ResponseWriter, err error) {
	http.Error(w, apperr.PublicMessage(err), apperr.HTTPStatus(err))
}

// writeJSON está duplicado a propósito en cada módulo (ver pets/handler.go).
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
