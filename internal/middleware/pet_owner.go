package middleware

import (
	"context"
	"errors"
	"net/http"

	"pet-health/internal/platform/apperr"

	"github.com/go-chi/chi/v5"
)

// PetOwnerLookup resuelve el dueño de una mascota (pets.Service lo implementa).
type PetOwnerLookup interface {
	OwnerOf(ctx context.Context, petID string) (string, error)
}

// RequirePetOwner protege las rutas bajo /pets/{petID}: exige claims y que el
// usuario sea el owner. 401 sin claims, 404 si la mascota no existe, 403 si no es suya.
func RequirePetOwner(pets PetOwnerLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := GetClaims(r.Context())
			if !ok || claims.Anonymous() {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			owner, err := pets.OwnerOf(r.Context(), chi.URLParam(r, "petID"))
			if err != nil {
				if errors.Is(err, apperr.ErrNotFound) {
					http.Error(w, "pet not found", http.StatusNotFound)
					return
				}
				http.Error(w, "internal error", http.StatusInternalServerError)
				return
			}
			if owner != claims.UserID {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
