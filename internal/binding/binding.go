// Package binding parses and validates request payloads for the handlers.
package binding

import (
	"errors"
	"strconv"
	"strings"

	"workshop-backend/internal/apperr"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

// Body decodes the request body into out and runs the struct's validate tags.
func Body(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return apperr.Validation("invalid request body")
	}
	return Struct(out)
}

func Struct(v any) error {
	if err := validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fieldMessage(fe))
			}
			return apperr.Validation("%s", strings.Join(fields, "; "))
		}
		return apperr.Validation("%s", err.Error())
	}
	return nil
}

func fieldMessage(fe validator.FieldError) string {
	name := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return name + " is required"
	case "email":
		return name + " must be a valid email"
	case "gt":
		return name + " must be greater than " + fe.Param()
	case "gte", "min":
		return name + " must be at least " + fe.Param()
	case "lte", "max":
		return name + " must be at most " + fe.Param()
	case "oneof":
		return name + " must be one of " + fe.Param()
	}
	return name + " is invalid"
}

// ParamID reads a positive integer path parameter.
func ParamID(c *fiber.Ctx, name string) (uint, error) {
	raw := c.Params(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.Validation("invalid %s %q", name, raw)
	}
	return uint(id), nil
}

// QueryID reads an optional positive integer query parameter.
func QueryID(c *fiber.Ctx, name string) (*uint, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return nil, apperr.Validation("invalid %s %q", name, raw)
	}
	v := uint(id)
	return &v, nil
}
