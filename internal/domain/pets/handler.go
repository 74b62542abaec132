package pets

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"pet-health/internal/middleware"
	"pet-health/internal/platform/apperr"
	"pet-health/internal/platform/validation"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes monta /pets. Las rutas de salud (/pets/{petID}/health/...) las
// monta el router detrás de middleware.RequirePetOwner.
func RegisterRoutes(r chi.Router, svc *Service) {
	r.Post("/", createPetHandler(svc))
	r.Get("/", listPetsHandler(svc))
	r.Get("/{petID}", getPetHandler(svc))
}

type createPetRequest struct {
	Name      string `json:"name" validate:"required,max=120"`
	Species   string `json:"species" validate:"required,oneof=dog cat other"`
	Breed     string `json:"breed" validate:"max=80"`
	Sex       string `json:"sex" validate:"omitempty,oneof=male female unknown"`
	BirthDate string `json:"birth_date"` // YYYY-MM-DD opcional
	Notes     string `json:"notes"`
}

type petResponse struct {
	ID          string     `json:"id"`
	OwnerUserID string     `json:"owner_user_id"`
	Name        string     `json:"name"`
	Species     Species    `json:"species"`
	Breed       string     `json:"breed"`
	Sex         Sex        `json:"sex"`
	BirthDate   *time.Time `json:"birth_date,omitempty"`
	Notes       string     `json:"notes"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// createPetHandler godoc
// @Summary Registrar mascota
// @Tags pets
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "User ID (solo dev)"
// @Param payload body createPetRequest true "Mascota"
// @Success 201 {object} petResponse
// @Failure 400 {string} string "validation error"
// @Failure 401 {string} string "unauthorized"
// @Router /pets [post]
func createPetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || claims.Anonymous() {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req createPetRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if err := validation.Struct(req); err != nil {
			writeError(w, err)
			return
		}

		var bd *time.Time
		if strings.TrimSpace(req.BirthDate) != "" {
			t, err := time.Parse(time.DateOnly, req.BirthDate)
			if err != nil {
				writeError(w, apperr.Invalid("birth_date", req.BirthDate, "must be YYYY-MM-DD"))
				return
			}
			bd = &t
		}

		p, err := svc.Create(r.Context(), claims.UserID, CreateInput{
			Name:      req.Name,
			Species:   Species(req.Species),
			Breed:     req.Breed,
			Sex:       Sex(req.Sex),
			BirthDate: bd,
			Notes:     req.Notes,
		})
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toPetResponse(p))
	}
}

// listPetsHandler godoc
// @Summary Mis mascotas
// @Tags pets
// @Produce json
// @Param X-Debug-User-ID header string false "User ID (solo dev)"
// @Success 200 {array} petResponse
// @Failure 401 {string} string "unauthorized"
// @Router /pets [get]
func listPetsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || claims.Anonymous() {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		items, err := svc.ListByOwner(r.Context(), claims.UserID)
		if err != nil {
			writeError(w, err)
			return
		}

		out := make([]petResponse, 0, len(items))
		for _, p := range items {
			out = append(out, toPetResponse(p))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// getPetHandler godoc
// @Summary Perfil de mascota
// @Tags pets
// @Produce json
// @Param X-Debug-User-ID header string false "User ID (solo dev)"
// @Param petID path string true "ID de la mascota"
// @Success 200 {object} petResponse
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "pet not found"
// @Router /pets/{petID} [get]
func getPetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || claims.Anonymous() {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		p, err := svc.GetByID(r.Context(), chi.URLParam(r, "petID"))
		if err != nil {
			if errors.Is(err, apperr.ErrNotFound) {
				http.Error(w, "pet not found", http.StatusNotFound)
				return
			}
			writeError(w, err)
			return
		}
		if p.OwnerUserID != claims.UserID {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		writeJSON(w, http.StatusOK, toPetResponse(p))
	}
}

func toPetResponse(p Pet) petResponse {
	return petResponse{
		ID:          p.ID,
		OwnerUserID: p.OwnerUserID,
		Name:        p.Name,
		Species:     p.Species,
		Breed:       p.Breed,
		Sex:         p.Sex,
		BirthDate:   p.BirthDate,
		Notes:       p.Notes,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
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
