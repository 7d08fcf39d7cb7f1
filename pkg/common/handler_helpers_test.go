package common_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/richxcame/rental-insights/pkg/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestHandleServiceError(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		fallbackMsg    string
		expectHandled  bool
		expectStatus   int
		expectContains string
		expectRecorded bool
	}{
		{
			name:          "nil error returns false",
			err:           nil,
			fallbackMsg:   "failed",
			expectHandled: false,
		},
		{
			name:           "AppError is handled",
			err:            common.NewForbiddenError("you can only view your own agency's statistics"),
			fallbackMsg:    "failed to build report",
			expectHandled:  true,
			expectStatus:   http.StatusForbidden,
			expectContains: "FORBIDDEN",
		},
		{
			name:           "wrapped AppError keeps its status",
			err:            fmt.Errorf("fetch bookings: %w", common.NewServiceUnavailableError("reports are temporarily unavailable")),
			fallbackMsg:    "failed to build report",
			expectHandled:  true,
			expectStatus:   http.StatusServiceUnavailable,
			expectContains: "SERVICE_UNAVAILABLE",
			expectRecorded: true,
		},
		{
			name:           "regular error uses fallback",
			err:            errors.New("database error"),
			fallbackMsg:    "failed to build report",
			expectHandled:  true,
			expectStatus:   http.StatusInternalServerError,
			expectContains: "failed to build report",
			expectRecorded: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/test", nil)

			handled := common.HandleServiceError(c, tt.err, tt.fallbackMsg)
			assert.Equal(t, tt.expectHandled, handled)

			if tt.expectHandled {
				assert.Equal(t, tt.expectStatus, w.Code)
				assert.Contains(t, w.Body.String(), tt.expectContains)
				assert.Equal(t, tt.expectRecorded, len(c.Errors) > 0)
			}
		})
	}
}

func TestAppErrorUnwrap(t *testing.T) {
	err := fmt.Errorf("outer: %w", common.NewServiceUnavailableError("down"))
	assert.ErrorIs(t, err, common.ErrServiceUnavailable)
}

func TestParseUUIDParam(t *testing.T) {
	tests := []struct {
		name         string
		paramValue   string
		expectOK     bool
		expectStatus int
	}{
		{
			name:       "valid UUID",
			paramValue: "550e8400-e29b-41d4-a716-446655440000",
			expectOK:   true,
		},
		{
			name:         "invalid UUID",
			paramValue:   "not-a-uuid",
			expectOK:     false,
			expectStatus: http.StatusBadRequest,
		},
		{
			name:         "empty UUID",
			paramValue:   "",
			expectOK:     false,
			expectStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Params = gin.Params{{Key: "agency_id", Value: tt.paramValue}}
			c.Request = httptest.NewRequest(http.MethodGet, "/test/"+tt.paramValue, nil)

			id, ok := common.ParseUUIDParam(c, "agency_id", "agency ID")
			assert.Equal(t, tt.expectOK, ok)

			if tt.expectOK {
				assert.NotEqual(t, uuid.Nil, id)
			} else {
				assert.Equal(t, tt.expectStatus, w.Code)
			}
		})
	}
}

func TestBindQuery(t *testing.T) {
	type query struct {
		Start string `form:"start_date" binding:"required"`
	}

	tests := []struct {
		name     string
		rawQuery string
		expectOK bool
	}{
		{"present", "start_date=2024-01-01", true},
		{"missing required", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/test?"+tt.rawQuery, nil)

			var q query
			assert.Equal(t, tt.expectOK, common.BindQuery(c, &q))
			if !tt.expectOK {
				assert.Equal(t, http.StatusBadRequest, w.Code)
			}
		})
	}
}

func TestErrorResponse_DerivesErrorCode(t *testing.T) {
	tests := []struct {
		status int
		want   string
	}{
		{http.StatusUnauthorized, "UNAUTHORIZED"},
		{http.StatusGatewayTimeout, "GATEWAY_TIMEOUT"},
		{http.StatusTeapot, "IM_A_TEAPOT"},
		{599, ""},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			common.ErrorResponse(c, tt.status, "nope")

			var body common.Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.False(t, body.Success)
			require.NotNil(t, body.Error)
			assert.Equal(t, tt.status, body.Error.Code)
			assert.Equal(t, tt.want, body.Error.ErrorCode)
			assert.Equal(t, "nope", body.Error.Message)
		})
	}
}
