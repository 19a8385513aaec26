package respond

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/rideledger/internal/apperr"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) Envelope {
	t.Helper()
	var env Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestFromErrorMapsKinds(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{apperr.Validation(apperr.FieldError{Field: "amount", Message: "must be greater than 0"}), http.StatusUnprocessableEntity},
		{apperr.Unauthorized("could not validate credentials"), http.StatusUnauthorized},
		{apperr.Forbidden("not enough permissions"), http.StatusForbidden},
		{apperr.NotFound("transaction not found"), http.StatusNotFound},
		{fmt.Errorf("create: %w", apperr.Conflict("email already registered")), http.StatusConflict},
		{apperr.New(apperr.KindInactive, "inactive user"), http.StatusBadRequest},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			rec := httptest.NewRecorder()
			FromError(rec, httptest.NewRequest(http.MethodGet, "/", nil), tt.err)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.status, decode(t, rec).Code)
		})
	}
}

func TestFromErrorHidesInternalDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	FromError(rec, httptest.NewRequest(http.MethodGet, "/", nil), errors.New("pq: password authentication failed"))
	assert.Equal(t, "internal server error", decode(t, rec).Message)
}

func TestFromErrorCarriesFieldsAndChallenge(t *testing.T) {
	rec := httptest.NewRecorder()
	FromError(rec, httptest.NewRequest(http.MethodPost, "/", nil), apperr.Validation(apperr.FieldError{Field: "amount", Message: "bad"}))
	env := decode(t, rec)
	require.Len(t, env.Errors, 1)
	assert.Equal(t, "amount", env.Errors[0].Field)

	rec = httptest.NewRecorder()
	FromError(rec, httptest.NewRequest(http.MethodGet, "/", nil), apperr.Unauthorized("expired"))
	assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "expired", decode(t, rec).Message)
}

func TestUnauthorizedChallenge(t *testing.T) {
	rec := httptest.NewRecorder()
	Unauthorized(rec, "could not validate credentials")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
	env := decode(t, rec)
	assert.Equal(t, http.StatusUnauthorized, env.Code)
	assert.Equal(t, "could not validate credentials", env.Message)
}

func TestJSONEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	JSON(rec, http.StatusCreated, "created", map[string]int{"id": 1})
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"code":201,"message":"created","data":{"id":1}}`, rec.Body.String())
}
