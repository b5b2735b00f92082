package auth

import (
	"sort"

	"workshop-backend/internal/binding"
	"workshop-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type UserResponse struct {
	ID              uint            `json:"id"`
	Name            string          `json:"name"`
	Email           string          `json:"email"`
	Phone           string          `json:"phone"`
	Role            models.Role     `json:"role"`
	RoleName        string          `json:"role_name"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	Registered      bool            `json:"registered"`
}

func NewUserResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:              u.ID,
		Name:            u.Name,
		Email:           u.Email,
		Phone:           u.Phone,
		Role:            u.Role,
		RoleName:        models.RoleNames[u.Role],
		DiscountPercent: u.DiscountPercent,
		Registered:      u.Registered(),
	}
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone"`
	Password string `json:"password" validate:"required,min=8"`
}

// POST /api/auth/login
// Accepts either a JSON body or an "Authorization: Basic" header.
func LoginHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		email, password, ok := ParseBasic(c.Get(fiber.HeaderAuthorization))
		if !ok {
			var body LoginRequest
			if err := c.BodyParser(&body); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
			}
			email, password = body.Email, body.Password
		}

		token, user, err := svc.Login(c.UserContext(), email, password)
		if err != nil {
			return err
		}

		return c.JSON(fiber.Map{
			"token": token,
			"user":  NewUserResponse(user),
		})
	}
}

// POST /api/auth/register
func RegisterHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body RegisterRequest
		if err := binding.Body(c, &body); err != nil {
			return err
		}

		user, err := svc.Register(c.UserContext(), Registration{
			Name:     body.Name,
			Email:    body.Email,
			Phone:    body.Phone,
			Password: body.Password,
		})
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(NewUserResponse(user))
	}
}

// GET /api/auth/me
func MeHandler(policy Policy) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := Actor(c)
		allowed := policy.Allowed(user.Role)
		sort.Slice(allowed, func(i, j int) bool { return allowed[i] < allowed[j] })

		return c.JSON(fiber.Map{
			"user":       NewUserResponse(user),
			"operations": allowed,
		})
	}
}
