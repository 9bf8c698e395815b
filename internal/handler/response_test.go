package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/notes-api/internal/apperror"
)

func TestWriteError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
		wantField  string
	}{
		{"validation", apperror.ValidationFailed("text", "too long"), http.StatusBadRequest, "validation_error", "text"},
		{"unauthorized", apperror.Unauthorized("who are you"), http.StatusUnauthorized, "unauthorized", ""},
		{"forbidden", apperror.Forbidden("not yours"), http.StatusForbidden, "forbidden", ""},
		{"not found", apperror.NotFound("note", 3), http.StatusNotFound, "not_found", ""},
		{"conflict", apperror.Conflict("tag", 3), http.StatusConflict, "conflict", ""},
		{"wrapped", fmt.Errorf("updating: %w", apperror.NotFound("note", 3)), http.StatusNotFound, "not_found", ""},
		{"unknown", errors.New("disk on fire"), http.StatusInternalServerError, "internal_error", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeError(rec, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var body ErrorResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.Equal(t, tt.wantType, body.Error)
			assert.Equal(t, tt.wantField, body.Field)
			assert.NotEmpty(t, body.Message)
		})
	}
}

func TestWriteError_HidesInternalDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, errors.New("sqlite: no such table: note"))

	assert.NotContains(t, rec.Body.String(), "sqlite")
}

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	writeJSON(rec, http.StatusCreated, deletedResponse{ID: 4, Deleted: true})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"id": 4, "deleted": true}`, rec.Body.String())
}
