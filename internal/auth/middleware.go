package auth

import (
	"context"
	"strings"

	"workshop-backend/internal/apperr"
	"workshop-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

const CtxUserKey = "auth_user"

// TokenVerifier is satisfied by *Verifier.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (bool, *models.User)
}

// Authenticate resolves the bearer token into the caller's user record.
func Authenticate(verifier TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return apperr.Unauthenticated("authorization header missing")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			return apperr.Unauthenticated("authorization must be 'Bearer <token>'")
		}

		ok, user := verifier.Verify(c.UserContext(), strings.TrimSpace(parts[1]))
		if !ok {
			return apperr.Unauthenticated("invalid or expired token")
		}

		c.Locals(CtxUserKey, user)
		return c.Next()
	}
}

// Require enforces the policy entry of op for the authenticated caller.
func Require(policy Policy, op Operation) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := Actor(c)
		if user == nil {
			return apperr.Unauthenticated("authentication required")
		}
		if policy.Check(op, &user.Role) == Deny {
			return apperr.Forbidden("role " + string(user.Role) + " may not call " + string(op))
		}
		return c.Next()
	}
}

// Actor returns the authenticated user, or nil.
func Actor(c *fiber.Ctx) *models.User {
	user, _ := c.Locals(CtxUserKey).(*models.User)
	return user
}

// ActorID is used by the request logger.
func ActorID(c *fiber.Ctx) (uint, bool) {
	if u := Actor(c); u != nil {
		return u.ID, true
	}
	return 0, false
}
