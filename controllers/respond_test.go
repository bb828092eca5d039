package controllers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ABFerraz00/mandacafe/services"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondServiceError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name   string
		err    error
		status int
		field  string
	}{
		{"validation", &services.ValidationError{Field: "preco", Message: "must be a number"}, http.StatusBadRequest, "preco"},
		{"duplicate code", services.ErrDuplicateCode, http.StatusBadRequest, "codigo"},
		{"not found", services.ErrNotFound, http.StatusNotFound, ""},
		{"unavailable", services.ErrUnavailable, http.StatusNotFound, ""},
		{"category", services.ErrCategoryNotFound, http.StatusNotFound, ""},
		{"wrapped not found", errors.Wrap(services.ErrNotFound, "lookup"), http.StatusNotFound, ""},
		{"unexpected", errors.New("connection reset"), http.StatusInternalServerError, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(rec)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			respondServiceError(c, tt.err, false)

			assert.Equal(t, tt.status, rec.Code)
			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.NotEmpty(t, body["error"])
			assert.NotEmpty(t, body["timestamp"])
			if tt.field != "" {
				assert.Equal(t, tt.field, body["field"])
			}
			if tt.status == http.StatusInternalServerError {
				assert.Equal(t, "internal server error", body["error"])
				require.Len(t, c.Errors, 1)
				assert.Equal(t, kindDatabase, c.Errors[0].Meta)
			} else {
				assert.Empty(t, c.Errors)
			}
		})
	}
}

func TestRespondServiceError_ExposesDetailInDevelopment(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	respondServiceError(c, errors.New("connection reset"), true)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "connection reset", body["detail"])
}
