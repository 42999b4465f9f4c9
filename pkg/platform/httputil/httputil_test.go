package httputil

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "vetting/pkg/domain-errors"
)

func TestWriteError(t *testing.T) {
	t.Run("internal error omits description", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(dErrors.CodeInternal, "db failed"))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		var body map[string]string
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.Equal(t, "internal_error", body["error"])
		_, ok := body["error_description"]
		assert.False(t, ok)
	})

	t.Run("validation error includes description", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(dErrors.CodeValidation, "reason is required"))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		var body map[string]string
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.Equal(t, "validation_error", body["error"])
		assert.Equal(t, "reason is required", body["error_description"])
	})

	t.Run("status mapping", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, StatusFor(dErrors.CodeUnauthorized))
		assert.Equal(t, http.StatusForbidden, StatusFor(dErrors.CodeForbidden))
		assert.Equal(t, http.StatusNotFound, StatusFor(dErrors.CodeNotFound))
	})
}

type noteRequest struct {
	Note string `json:"note"`
}

func (r *noteRequest) Validate() error {
	r.Note = strings.TrimSpace(r.Note)
	if r.Note == "" {
		return dErrors.New(dErrors.CodeValidation, "note is required")
	}
	return nil
}

func TestDecodeAndPrepare(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("decodes and normalizes", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"note":"  hi  "}`))
		w := httptest.NewRecorder()
		req, ok := DecodeAndPrepare[noteRequest](w, r, logger, r.Context(), "req-1")
		require.True(t, ok)
		assert.Equal(t, "hi", req.Note)
	})

	t.Run("malformed body is a bad request", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"note":`))
		w := httptest.NewRecorder()
		_, ok := DecodeAndPrepare[noteRequest](w, r, logger, r.Context(), "req-2")
		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("validation failure is reported", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"note":"   "}`))
		w := httptest.NewRecorder()
		_, ok := DecodeAndPrepare[noteRequest](w, r, logger, r.Context(), "req-3")
		assert.False(t, ok)
		assert.Contains(t, w.Body.String(), "note is required")
	})
}
