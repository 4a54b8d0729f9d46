package errors

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKind(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"validation", fmt.Errorf("%w: rating must be between 1 and 5", ErrValidation), ErrValidation},
		{"not found", fmt.Errorf("code block abc: %w", ErrNotFound), ErrNotFound},
		{"race", fmt.Errorf("edit after teardown: %w", ErrRaceRecovered), ErrRaceRecovered},
		{"transport", fmt.Errorf("%w: write failed", ErrTransport), ErrTransport},
		{"plain", fmt.Errorf("boom"), nil},
		{"nil", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Kind(tt.err))
		})
	}
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"no rows", fmt.Errorf("get code block: %w", pgx.ErrNoRows), CategoryNotFound},
		{"validation", fmt.Errorf("%w: rating out of range", ErrValidation), CategoryValidation},
		{"deadline", fmt.Errorf("list: %w", context.DeadlineExceeded), CategoryTimeout},
		{"canceled", context.Canceled, CategoryTimeout},
		{"redis", fmt.Errorf("redis: pipeline failed"), CategoryDatabase},
		{"dial", fmt.Errorf("dial tcp 127.0.0.1:5432"), CategoryNetwork},
		{"other", fmt.Errorf("boom"), CategoryUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := classifyError(tt.err)
			assert.Equal(t, tt.want, info.category)
			assert.Equal(t, tt.err.Error(), info.sanitized)
		})
	}
}

func TestClassifyErrorSanitizesInProduction(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")

	info := classifyError(fmt.Errorf("dial tcp 10.0.0.7:5432: connection refused"))
	assert.Equal(t, CategoryNetwork, info.category)
	assert.Equal(t, "connection error occurred", info.sanitized)
}

func TestRespond(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"validation", fmt.Errorf("%w: bad rating", ErrValidation), http.StatusBadRequest, CodeValidationError},
		{"not found", fmt.Errorf("x: %w", ErrNotFound), http.StatusNotFound, CodeNotFound},
		{"internal", fmt.Errorf("disk on fire"), http.StatusInternalServerError, CodeServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/api/codeblock/x", nil)

			Respond(c, tt.err, "code block")

			assert.Equal(t, tt.wantStatus, w.Code)

			var body ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.wantCode, body.Error)
		})
	}
}
