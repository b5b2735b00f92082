package admin

import (
	"workshop-backend/internal/auth"
	"workshop-backend/internal/binding"
	"workshop-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type CreateUserRequest struct {
	Name            string          `json:"name" validate:"required,max=100"`
	Email           string          `json:"email" validate:"required,email"`
	Phone           string          `json:"phone" validate:"max=30"`
	Role            models.Role     `json:"role" validate:"required,oneof=mechanic owner customer admin"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	Password        *string         `json:"password" validate:"omitempty,min=8"`
}

type UpdateUserRequest struct {
	Name            *string          `json:"name" validate:"omitempty,max=100"`
	Phone           *string          `json:"phone" validate:"omitempty,max=30"`
	Role            *models.Role     `json:"role" validate:"omitempty,oneof=mechanic owner customer admin"`
	DiscountPercent *decimal.Decimal `json:"discount_percent"`
}

// GET /api/users?role=customer&q=smith
func ListUsersHandler(svc *UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		users, err := svc.List(c.UserContext(), UserFilter{
			Role:   models.Role(c.Query("role")),
			Search: c.Query("q"),
		})
		if err != nil {
			return err
		}
		res := make([]auth.UserResponse, 0, len(users))
		for i := range users {
			res = append(res, auth.NewUserResponse(&users[i]))
		}
		return c.JSON(res)
	}
}

// GET /api/users/:id
func GetUserHandler(svc *UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := binding.ParamID(c, "id")
		if err != nil {
			return err
		}
		u, err := svc.Get(c.UserContext(), id)
		if err != nil {
			return err
		}
		return c.JSON(auth.NewUserResponse(u))
	}
}

// POST /api/users
func CreateUserHandler(svc *UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateUserRequest
		if err := binding.Body(c, &body); err != nil {
			return err
		}
		u, err := svc.Create(c.UserContext(), auth.Actor(c), UserInput{
			Name:            body.Name,
			Email:           body.Email,
			Phone:           body.Phone,
			Role:            body.Role,
			DiscountPercent: body.DiscountPercent,
			Password:        body.Password,
		})
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(auth.NewUserResponse(u))
	}
}

// PUT /api/users/:id
func UpdateUserHandler(svc *UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := binding.ParamID(c, "id")
		if err != nil {
			return err
		}
		var body UpdateUserRequest
		if err := binding.Body(c, &body); err != nil {
			return err
		}
		u, err := svc.Update(c.UserContext(), auth.Actor(c), id, UserUpdate{
			Name:            body.Name,
			Phone:           body.Phone,
			Role:            body.Role,
			DiscountPercent: body.DiscountPercent,
		})
		if err != nil {
			return err
		}
		return c.JSON(auth.NewUserResponse(u))
	}
}
