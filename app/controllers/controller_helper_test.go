package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Vortex-Hub-Tech/agendamento/internal/pkg/apperrors"
)

func doJSON(t *testing.T, app *fiber.App, method, target string, body interface{}, headers map[string]string) (int, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			reader = strings.NewReader(b)
		default:
			raw, err := json.Marshal(b)
			require.NoError(t, err)
			reader = strings.NewReader(string(raw))
		}
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	out := map[string]interface{}{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &out)
	}
	return resp.StatusCode, out
}

func TestRespondError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", apperrors.Validation("phone", "Telefone inválido"), http.StatusBadRequest, "validation_error"},
		{"not found", apperrors.NotFound("appointment", 7), http.StatusNotFound, "not_found"},
		{"gorm not found", fmt.Errorf("load: %w", gorm.ErrRecordNotFound), http.StatusNotFound, "not_found"},
		{"conflict", apperrors.Conflict("slug_taken", "em uso", map[string]any{"slug": "x"}), http.StatusConflict, "slug_taken"},
		{"upstream", apperrors.Upstream("sms_gateway", errors.New("timeout")), http.StatusBadGateway, "upstream_error"},
		{"configuration", apperrors.Configuration("S3 ausente"), http.StatusServiceUnavailable, "configuration_error"},
		{"other", errors.New("boom"), http.StatusInternalServerError, "internal_server_error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/", func(c *fiber.Ctx) error { return respondError(c, tt.err) })

			status, body := doJSON(t, app, http.MethodGet, "/", nil, nil)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, body["error"])
		})
	}
}

func TestRespondError_ValidationFieldAndConflictDetails(t *testing.T) {
	app := fiber.New()
	app.Get("/v", func(c *fiber.Ctx) error { return respondError(c, apperrors.Validation("phone", "Telefone inválido")) })
	app.Get("/c", func(c *fiber.Ctx) error {
		return respondError(c, apperrors.Conflict("code_recently_sent", "Aguarde", map[string]any{"retry_after_seconds": 42}))
	})

	_, body := doJSON(t, app, http.MethodGet, "/v", nil, nil)
	assert.Equal(t, "phone", body["field"])

	_, body = doJSON(t, app, http.MethodGet, "/c", nil, nil)
	assert.EqualValues(t, 42, body["retry_after_seconds"])
}

type bindTarget struct {
	Name   string `json:"name" validate:"required,min=2"`
	Rating int    `json:"rating" validate:"gte=1,lte=5"`
}

func TestBindJSON(t *testing.T) {
	app := fiber.New()
	app.Post("/", func(c *fiber.Ctx) error {
		var in bindTarget
		if err := bindJSON(c, &in); err != nil {
			return respondError(c, err)
		}
		return c.JSON(in)
	})

	status, body := doJSON(t, app, http.MethodPost, "/", "", nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = doJSON(t, app, http.MethodPost, "/", "{not json", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "JSON inválido", body["message"])

	status, body = doJSON(t, app, http.MethodPost, "/", map[string]interface{}{"name": "Ana", "rating": "five"}, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "rating", body["field"])

	status, body = doJSON(t, app, http.MethodPost, "/", map[string]interface{}{"name": "A", "rating": 3}, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "name", body["field"])

	status, body = doJSON(t, app, http.MethodPost, "/", map[string]interface{}{"name": "Ana", "rating": 6}, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "rating", body["field"])

	status, body = doJSON(t, app, http.MethodPost, "/", map[string]interface{}{"name": "Ana", "rating": 5}, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Ana", body["name"])
}

func TestParamID(t *testing.T) {
	app := fiber.New()
	app.Get("/x/:id", func(c *fiber.Ctx) error {
		id, err := paramID(c, "id")
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"id": id})
	})

	status, body := doJSON(t, app, http.MethodGet, "/x/12", nil, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 12, body["id"])

	for _, bad := range []string{"/x/0", "/x/abc", "/x/-3"} {
		status, _ := doJSON(t, app, http.MethodGet, bad, nil, nil)
		assert.Equal(t, http.StatusBadRequest, status, bad)
	}
}
