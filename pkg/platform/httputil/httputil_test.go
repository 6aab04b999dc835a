package httputil

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "abcretail/pkg/domain-errors"
)

func TestWriteError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   string
	}{
		{
			name:       "validation carries description",
			err:        dErrors.New(dErrors.CodeValidation, "productPrice must be a number"),
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"error":"validation_error","error_description":"productPrice must be a number"}`,
		},
		{
			name:       "wrapped not found keeps its code",
			err:        fmt.Errorf("load customer: %w", dErrors.New(dErrors.CodeNotFound, "customer c-1 not found")),
			wantStatus: http.StatusNotFound,
			wantBody:   `{"error":"not_found","error_description":"customer c-1 not found"}`,
		},
		{
			name:       "stale etag",
			err:        dErrors.New(dErrors.CodePreconditionFailed, "etag mismatch"),
			wantStatus: http.StatusPreconditionFailed,
			wantBody:   `{"error":"precondition_failed","error_description":"etag mismatch"}`,
		},
		{
			name:       "internal omits description",
			err:        dErrors.New(dErrors.CodeInternal, "db failed"),
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"error":"internal_error"}`,
		},
		{
			name:       "uncoded error is internal",
			err:        errors.New("connection reset"),
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"error":"internal_error"}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteError(w, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			assert.JSONEq(t, tt.wantBody, w.Body.String())
		})
	}
}

func TestWriteJSONWithoutBody(t *testing.T) {
	w := httptest.NewRecorder()
	WriteJSON(w, http.StatusAccepted, nil)
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestDecodeJSON(t *testing.T) {
	var v struct {
		Name string `json:"name"`
	}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"x"}`))
	require.NoError(t, DecodeJSON(req, &v))
	assert.Equal(t, "x", v.Name)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{`))
	err := DecodeJSON(req, &v)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest), "got %v", err)
}
