package opcode

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorIsIgnoresDetails(t *testing.T) {
	base := New(NotFound, "thing not found")
	decorated := base.WithDetails(map[string]interface{}{"things": []string{"a"}})

	assert.ErrorIs(t, decorated, base)
	assert.NotErrorIs(t, decorated, New(NotFound, "other thing not found"))
	assert.NotErrorIs(t, decorated, New(Err, "thing not found"))
}

func TestWithDetailsCopies(t *testing.T) {
	base := New(Err, "boom")
	decorated := base.WithDetails("payload")

	assert.Nil(t, base.Details)
	assert.Equal(t, "payload", decorated.Details)
}

func TestErrorHandler(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})

	app.Get("/domain", func(*fiber.Ctx) error {
		return New(NotFound, "user not found")
	})
	app.Get("/details", func(*fiber.Ctx) error {
		return New(AlreadyExists, "email is already in use").
			WithDetails(map[string]interface{}{"field": "email"})
	})
	app.Get("/wrapped", func(*fiber.Ctx) error {
		return fiber.ErrMethodNotAllowed
	})
	app.Get("/unknown", func(*fiber.Ctx) error {
		return errors.New("database exploded")
	})

	testCases := []struct {
		name            string
		path            string
		expectedStatus  int
		expectedCode    Code
		expectedMessage string
	}{
		{
			name:            "domain error",
			path:            "/domain",
			expectedStatus:  http.StatusNotFound,
			expectedCode:    NotFound,
			expectedMessage: "user not found",
		},
		{
			name:            "error with details",
			path:            "/details",
			expectedStatus:  http.StatusConflict,
			expectedCode:    AlreadyExists,
			expectedMessage: "email is already in use",
		},
		{
			name:            "fiber error",
			path:            "/wrapped",
			expectedStatus:  http.StatusMethodNotAllowed,
			expectedCode:    Err,
			expectedMessage: "Method Not Allowed",
		},
		{
			name:            "unknown error is not leaked",
			path:            "/unknown",
			expectedStatus:  http.StatusInternalServerError,
			expectedCode:    Err,
			expectedMessage: "an internal error has occurred",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tc.expectedStatus, resp.StatusCode)

			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)

			var payload struct {
				Opcode  Code   `json:"opcode"`
				Message string `json:"message"`
			}
			require.NoError(t, json.Unmarshal(body, &payload))

			assert.Equal(t, tc.expectedCode, payload.Opcode)
			assert.Equal(t, tc.expectedMessage, payload.Message)
		})
	}
}

func TestStatusMapping(t *testing.T) {
	testCases := []struct {
		code     Code
		expected int
	}{
		{Err, fiber.StatusInternalServerError},
		{RequiredLogin, fiber.StatusUnauthorized},
		{NotFound, fiber.StatusNotFound},
		{AlreadyExists, fiber.StatusConflict},
		{AccessDenied, fiber.StatusForbidden},
		{ValidationFailed, fiber.StatusBadRequest},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.expected, New(tc.code, "x").status())
	}
}
