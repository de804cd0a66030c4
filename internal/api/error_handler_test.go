package api

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/grindelf/accounts/internal/core/domain"
)

func TestHTTPErrorHandler(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantBody string
		wantLog  bool
	}{
		{"echo error", echo.NewHTTPError(http.StatusMethodNotAllowed, "nope"), http.StatusMethodNotAllowed, `{"error":"nope"}`, false},
		{"invalid credentials", domain.ErrInvalidCredentials, http.StatusUnauthorized, `{"error":"invalid credentials"}`, false},
		{"not found hides existence", fmt.Errorf("get: %w", domain.ErrUserNotFound), http.StatusUnauthorized, `{"error":"invalid credentials"}`, false},
		{"exists", domain.ErrUserExists, http.StatusConflict, `{"error":"name taken"}`, false},
		{"invalid user", domain.ErrInvalidUser, http.StatusBadRequest, `{"error":"name and password are required"}`, false},
		{"unexpected", errors.New("sqlite: disk I/O error"), http.StatusInternalServerError, `{"error":"internal server error"}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logs bytes.Buffer
			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodPost, "/login", nil), rec)

			NewHTTPErrorHandler(zerolog.New(&logs))(tt.err, c)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
			assert.NotContains(t, rec.Body.String(), "disk")
			if tt.wantLog {
				assert.Contains(t, logs.String(), "unhandled error")
				assert.Contains(t, logs.String(), "disk I/O error")
			} else {
				assert.Empty(t, logs.String())
			}
		})
	}
}

func TestHTTPErrorHandler_CommittedResponseUntouched(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	_ = c.String(http.StatusOK, "done")

	NewHTTPErrorHandler(zerolog.Nop())(errors.New("late"), c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "done", rec.Body.String())
}
