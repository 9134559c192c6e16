package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Vortex-Hub-Tech/agendamento/internal/pkg/apperrors"
	"github.com/Vortex-Hub-Tech/agendamento/internal/pkg/logger"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// bindJSON decodes the body into out and runs struct validation. The first
// failing field is reported as a ValidationError.
func bindJSON(c *fiber.Ctx, out interface{}) error {
	if len(c.Body()) == 0 {
		return apperrors.Validation("", "Corpo da requisição vazio")
	}
	if err := json.Unmarshal(c.Body(), out); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return apperrors.Validation(typeErr.Field, fmt.Sprintf("Tipo inválido, esperado %s", typeErr.Type.String()))
		}
		return apperrors.Validation("", "JSON inválido")
	}
	return validateStruct(out)
}

func validateStruct(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		return apperrors.Validation(ve[0].Field(), formatFieldError(ve[0]))
	}
	return apperrors.Validation("", err.Error())
}

func formatFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "Campo obrigatório"
	case "email":
		return "E-mail inválido"
	case "min":
		return fmt.Sprintf("Deve ter no mínimo %s", fe.Param())
	case "max":
		return fmt.Sprintf("Deve ter no máximo %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("Deve ser um de: %s", fe.Param())
	case "gte":
		return fmt.Sprintf("Deve ser maior ou igual a %s", fe.Param())
	case "lte":
		return fmt.Sprintf("Deve ser menor ou igual a %s", fe.Param())
	}
	return fmt.Sprintf("Falhou na validação '%s'", fe.Tag())
}

// paramID parses a positive numeric route parameter.
func paramID(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, apperrors.Validation(name, "Identificador inválido")
	}
	return uint(id), nil
}

// respondError maps the error taxonomy to HTTP responses.
func respondError(c *fiber.Ctx, err error) error {
	var (
		validationErr *apperrors.ValidationError
		notFoundErr   *apperrors.NotFoundError
		conflictErr   *apperrors.ConflictError
		upstreamErr   *apperrors.UpstreamError
		configErr     *apperrors.ConfigurationError
	)
	switch {
	case errors.As(err, &validationErr):
		body := fiber.Map{"error": "validation_error", "message": validationErr.Message}
		if validationErr.Field != "" {
			body["field"] = validationErr.Field
		}
		return c.Status(fiber.StatusBadRequest).JSON(body)

	case errors.As(err, &notFoundErr):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": notFoundErr.Error()})

	case errors.Is(err, gorm.ErrRecordNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Registro não encontrado"})

	case errors.As(err, &conflictErr):
		code := conflictErr.Code
		if code == "" {
			code = "conflict"
		}
		body := fiber.Map{"error": code, "message": conflictErr.Message}
		for k, v := range conflictErr.Details {
			body[k] = v
		}
		return c.Status(fiber.StatusConflict).JSON(body)

	case errors.As(err, &upstreamErr):
		logger.FromCtx(c).Warn("upstream provider failed", zap.String("provider", upstreamErr.Provider), zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "upstream_error", "provider": upstreamErr.Provider, "message": "Falha no provedor externo"})

	case errors.As(err, &configErr):
		logger.FromCtx(c).Error("configuration error", zap.Error(err))
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "configuration_error", "message": configErr.Message})
	}

	logger.FromCtx(c).Error("request failed", zap.String("path", c.Path()), zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Erro interno"})
}

// queryInt reads a non-negative integer query parameter.
func queryInt(c *fiber.Ctx, key string, def int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil || v < 0 {
		return def
	}
	return v
}
