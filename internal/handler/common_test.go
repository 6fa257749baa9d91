package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cine-reservas/internal/repository"
)

func TestWriteRepoErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid request", repository.ErrInvalidRequest, http.StatusBadRequest},
		{"seats unavailable", &repository.SeatsUnavailableError{MissingIDs: []uint64{3}}, http.StatusConflict},
		{"user limit", repository.ErrUserLimitExceeded, http.StatusConflict},
		{"already premium", repository.ErrAlreadyPremium, http.StatusConflict},
		{"capacity full", repository.ErrCapacityFull, http.StatusConflict},
		{"not found", repository.ErrNotFound, http.StatusNotFound},
		{"not provisioned", repository.ErrNotProvisioned, http.StatusInternalServerError},
		{"unknown", errors.New("broken pipe"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

			require.NoError(t, writeRepoError(c, tt.err))
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestGetUserID(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	assert.Zero(t, getUserID(c))

	c.Set("user_id", uint64(42))
	assert.Equal(t, uint64(42), getUserID(c))
}
