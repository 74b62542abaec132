package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationError_UnwrapsToSentinel(t *testing.T) {
	err := Invalid("next_due_date", "2023-12-31", "must be after date_given")

	require.ErrorIs(t, err, ErrValidation)

	var ve *ValidationError
	require.ErrorAs(t, fmt.Errorf("create: %w", err), &ve)
	assert.Equal(t, "next_due_date", ve.Field)
	assert.Contains(t, err.Error(), "2023-12-31")
}

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"validation", Invalid("title", nil, "required"), http.StatusBadRequest},
		{"invalid state", fmt.Errorf("x: %w", ErrInvalidState), http.StatusBadRequest},
		{"not found", NotFound("reminder", "r-1"), http.StatusNotFound},
		{"conflict", Conflict("reminder", "r-1"), http.StatusConflict},
		{"other", errors.New("driver exploded"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, HTTPStatus(tc.err))
		})
	}
}

func TestPublicMessage_HidesInternalErrors(t *testing.T) {
	assert.Equal(t, "internal error", PublicMessage(errors.New("pq: connection refused")))
	assert.Contains(t, PublicMessage(NotFound("pet", "p-1")), "not found")
}
