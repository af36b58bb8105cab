package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huzaifanasir-fabtechsol/backend/internal/interfaces/http/dto"
)

type importForm struct {
	Profile       string `json:"profile" binding:"required"`
	URL           string `json:"url" binding:"required,url"`
	BankAccountID string `json:"bank_account_id" binding:"omitempty,uuid"`
}

func validationRouter() *gin.Engine {
	SetupValidator()
	router := gin.New()
	router.Use(RequestID())
	router.POST("/imports/url", func(c *gin.Context) {
		var req importForm
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.JSON(http.StatusOK, dto.NewSuccessResponse(req.Profile))
	})
	return router
}

func TestHandleValidationError(t *testing.T) {
	router := validationRouter()

	t.Run("reports each failing field by json name", func(t *testing.T) {
		body := strings.NewReader(`{"url":"not a url","bank_account_id":"nope"}`)
		req := httptest.NewRequest(http.MethodPost, "/imports/url", body)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(RequestIDHeader, "req-val-1")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusBadRequest, w.Code)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.False(t, resp.Success)
		require.NotNil(t, resp.Error)
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
		assert.Equal(t, "req-val-1", resp.Error.RequestID)

		fields := map[string]string{}
		for _, d := range resp.Error.Details {
			fields[d.Field] = d.Message
		}
		assert.Equal(t, "This field is required", fields["profile"])
		assert.Equal(t, "Invalid URL format", fields["url"])
		assert.Equal(t, "Invalid UUID format", fields["bank_account_id"])
	})

	t.Run("malformed json is not a validation error", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/imports/url", strings.NewReader(`{"profile":`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), dto.ErrCodeInvalidJSON)
	})

	t.Run("valid input passes", func(t *testing.T) {
		body := strings.NewReader(`{"profile":"bank-basic","url":"https://feeds.example.com/a.csv"}`)
		req := httptest.NewRequest(http.MethodPost, "/imports/url", body)
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestValidationMessage(t *testing.T) {
	type sample struct {
		Required string `validate:"required"`
		Min      string `validate:"min=5"`
		Max      string `validate:"max=3"`
		OneOf    string `validate:"oneof=buy sell"`
		GT       int    `validate:"gt=0"`
	}

	err := validator.New().Struct(sample{Min: "ab", Max: "abcdef", OneOf: "swap"})
	require.Error(t, err)

	got := map[string]string{}
	for _, e := range err.(validator.ValidationErrors) {
		got[e.Field()] = validationMessage(e)
	}

	assert.Equal(t, "This field is required", got["Required"])
	assert.Equal(t, "Must be at least 5 characters", got["Min"])
	assert.Equal(t, "Must be at most 3 characters", got["Max"])
	assert.Equal(t, "Must be one of: buy sell", got["OneOf"])
	assert.Equal(t, "Must be greater than 0", got["GT"])
}
