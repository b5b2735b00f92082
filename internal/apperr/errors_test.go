package apperr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
)

func TestStatusMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{NotFound("order", 10), fiber.StatusNotFound, "not_found"},
		{Validation("bad"), fiber.StatusBadRequest, "validation_failed"},
		{Conflict("vehicle", "in use"), fiber.StatusConflict, "conflict"},
		{Unauthenticated("no token"), fiber.StatusUnauthorized, "unauthenticated"},
		{Forbidden("nope"), fiber.StatusForbidden, "forbidden"},
		{errors.New("boom"), fiber.StatusInternalServerError, "unexpected"},
		{fmt.Errorf("tx: %w", context.Canceled), StatusClientClosedRequest, "request_abandoned"},
		{context.DeadlineExceeded, fiber.StatusGatewayTimeout, "request_abandoned"},
		{fiber.ErrMethodNotAllowed, fiber.StatusMethodNotAllowed, "http_error"},
	}
	for _, tc := range cases {
		status, code := Status(tc.err)
		assert.Equal(t, tc.status, status, tc.err.Error())
		assert.Equal(t, tc.code, code, tc.err.Error())
	}
}

func TestIsMatchesKind(t *testing.T) {
	err := fmt.Errorf("lookup: %w", NotFound("product", "P1"))
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrConflict))
}

func TestWrapKeepsTaxonomy(t *testing.T) {
	orig := Conflict("offer", "has order")
	assert.Same(t, orig, Wrap(orig, "offer", "delete"))

	wrapped := Wrap(errors.New("connection reset"), "order", "update")
	assert.Equal(t, KindUnexpected, KindOf(wrapped))
	assert.Contains(t, wrapped.Error(), "update order")

	assert.ErrorIs(t, Wrap(context.Canceled, "order", "update"), context.Canceled)
	assert.NoError(t, Wrap(nil, "order", "update"))
}

func TestHandlerWritesCode(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: Handler})
	app.Get("/", func(c *fiber.Ctx) error {
		return Conflict("vehicle", "in use")
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil), -1)
	if !assert.NoError(t, err) {
		return
	}
	defer resp.Body.Close()
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	var body struct{ Error, Code string }
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "conflict", body.Code)
	assert.Equal(t, "vehicle: in use", body.Error)
}
