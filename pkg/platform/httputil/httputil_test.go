package httputil

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "ledgerline/pkg/domain-errors"
)

// testRequest is a simple test struct for JSON decoding
type testRequest struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// validatingRequest implements Validatable
type validatingRequest struct {
	Name string `json:"name"`
}

func (r *validatingRequest) Validate() error {
	if r.Name == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "name is required")
	}
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDecodeJSON(t *testing.T) {
	logger := discardLogger()

	t.Run("successful decode", func(t *testing.T) {
		body := `{"name":"test","value":42}`
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(body))
		w := httptest.NewRecorder()

		result, ok := DecodeJSON[testRequest](w, req, logger)

		assert.True(t, ok)
		require.NotNil(t, result)
		assert.Equal(t, "test", result.Name)
		assert.Equal(t, 42, result.Value)
	})

	t.Run("invalid JSON returns bad request", func(t *testing.T) {
		body := `{invalid json}`
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(body))
		w := httptest.NewRecorder()

		result, ok := DecodeJSON[testRequest](w, req, logger)

		assert.False(t, ok)
		assert.Nil(t, result)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "bad_request")
	})
}

func TestDecodeAndValidate(t *testing.T) {
	logger := discardLogger()

	t.Run("validation failure maps to domain error", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"name":""}`))
		w := httptest.NewRecorder()

		result, ok := DecodeAndValidate[validatingRequest](w, req, logger)

		assert.False(t, ok)
		assert.Nil(t, result)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("validation success", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"name":"ok"}`))
		w := httptest.NewRecorder()

		result, ok := DecodeAndValidate[validatingRequest](w, req, logger)

		assert.True(t, ok)
		require.NotNil(t, result)
		assert.Equal(t, "ok", result.Name)
	})
}

func TestWriteError(t *testing.T) {
	t.Run("domain error maps status and code", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(dErrors.CodeNotFound, "no anchor for period"))

		assert.Equal(t, http.StatusNotFound, w.Code)
		var body map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "not_found", body["error"])
		assert.Equal(t, "no anchor for period", body["error_description"])
	})

	t.Run("wrapped domain error still maps", func(t *testing.T) {
		w := httptest.NewRecorder()
		inner := dErrors.New(dErrors.CodeChainCorrupted, "digest mismatch")
		WriteError(w, dErrors.Wrap(inner, dErrors.CodeChainCorrupted, "verification failed"))

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), "chain_corrupted")
	})

	t.Run("unknown error is internal", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, errors.New("boom"))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, w.Body.String(), "internal_error")
		// Raw error text must not leak to clients.
		assert.NotContains(t, w.Body.String(), "boom")
	})
}

func TestDomainCodeToHTTPStatus(t *testing.T) {
	cases := map[dErrors.Code]int{
		dErrors.CodeNotFound:       http.StatusNotFound,
		dErrors.CodeBadRequest:     http.StatusBadRequest,
		dErrors.CodeValidation:     http.StatusBadRequest,
		dErrors.CodeInvalidInput:   http.StatusBadRequest,
		dErrors.CodeConflict:       http.StatusConflict,
		dErrors.CodeUnauthorized:   http.StatusUnauthorized,
		dErrors.CodeForbidden:      http.StatusForbidden,
		dErrors.CodeUnavailable:    http.StatusServiceUnavailable,
		dErrors.CodeChainCorrupted: http.StatusConflict,
		dErrors.CodeInternal:       http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, DomainCodeToHTTPStatus(code), "code %s", code)
	}
}
