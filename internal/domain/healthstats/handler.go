package healthstats

import (
	"encoding/json"
	"net/http"
	"strings"

	"pet-health/internal/domain/duedate"
	"pet-health/internal/platform/apperr"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Get("/stats", getStatsHandler(svc))
}

// getStatsHandler godoc
// @Summary Estadísticas de salud
// @Description Totales y health score 0-100 (recencia de checkups, cumplimiento de vacunas, recordatorios vencidos). Sin ?now= se sirve desde cache.
// @Tags stats
// @Produce json
// @Param petID path string true "ID de la mascota"
// @Param now query string false "Instante de referencia (RFC3339)"
// @Success 200 {object} Stats
// @Failure 400 {string} string "parámetros inválidos"
// @Router /pets/{petID}/health/stats [get]
func getStatsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		petID := chi.URLParam(r, "petID")

		var (
			st  Stats
			err error
		)
		if v := strings.TrimSpace(r.URL.Query().Get("now")); v != "" {
			now, perr := duedate.ParseDate(v)
			if perr != nil {
				writeError(w, apperr.Invalid("now", v, "must be RFC3339 or YYYY-MM-DD"))
				return
			}
			st, err = svc.Compute(r.Context(), petID, now)
		} else {
			st, err = svc.Current(r.Context(), petID)
		}
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, st)
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
