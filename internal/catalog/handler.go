package catalog

import (
	"workshop-backend/internal/apperr"
	"workshop-backend/internal/auth"
	"workshop-backend/internal/binding"
	"workshop-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type CategoryResponse struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	ParentID  *uint  `json:"parent_id"`
	CreatedAt string `json:"created_at"`
}

func NewCategoryResponse(cat *models.ProductCategory) CategoryResponse {
	return CategoryResponse{
		ID:        cat.ID,
		Name:      cat.Name,
		ParentID:  cat.ParentID,
		CreatedAt: cat.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

type CreateCategoryRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	ParentID *uint  `json:"parent_id" validate:"omitempty,gt=0"`
}

type UpdateCategoryRequest struct {
	Name        *string `json:"name" validate:"omitempty,max=100"`
	ParentID    *uint   `json:"parent_id" validate:"omitempty,gt=0"`
	ClearParent bool    `json:"clear_parent"`
}

type SetAssignmentsRequest struct {
	CategoryIDs []uint `json:"category_ids"`
}

// GET /api/product-categories
func ListCategoriesHandler(svc *CategoryService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		cats, err := svc.List(c.UserContext())
		if err != nil {
			return err
		}
		res := make([]CategoryResponse, 0, len(cats))
		for i := range cats {
			res = append(res, NewCategoryResponse(&cats[i]))
		}
		return c.JSON(res)
	}
}

// GET /api/product-categories/tree
func TreeHandler(svc *CategoryService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tree, err := svc.Tree(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(tree)
	}
}

// GET /api/product-categories/:id
func GetCategoryHandler(svc *CategoryService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := binding.ParamID(c, "id")
		if err != nil {
			return err
		}
		cat, err := svc.Get(c.UserContext(), id)
		if err != nil {
			return err
		}
		return c.JSON(NewCategoryResponse(cat))
	}
}

// POST /api/product-categories
func CreateCategoryHandler(svc *CategoryService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateCategoryRequest
		if err := binding.Body(c, &body); err != nil {
			return err
		}
		cat, err := svc.Create(c.UserContext(), CategoryInput{Name: body.Name, ParentID: body.ParentID})
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(NewCategoryResponse(cat))
	}
}

// PUT /api/product-categories/:id
func UpdateCategoryHandler(svc *CategoryService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := binding.ParamID(c, "id")
		if err != nil {
			return err
		}
		var body UpdateCategoryRequest
		if err := binding.Body(c, &body); err != nil {
			return err
		}
		if body.ClearParent && body.ParentID != nil {
			return apperr.Validation("parent_id and clear_parent are mutually exclusive")
		}

		cat, err := svc.Update(c.UserContext(), id, CategoryUpdate{
			Name:        body.Name,
			ParentID:    body.ParentID,
			ClearParent: body.ClearParent,
		})
		if err != nil {
			return err
		}
		return c.JSON(NewCategoryResponse(cat))
	}
}

// DELETE /api/product-categories/:id
func DeleteCategoryHandler(svc *CategoryService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := binding.ParamID(c, "id")
		if err != nil {
			return err
		}
		if err := svc.Delete(c.UserContext(), id); err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// GET /api/products/:sku/categories
func ProductTreeHandler(svc *CategoryService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rows, err := svc.ProductTree(c.UserContext(), skuParam(c))
		if err != nil {
			return err
		}
		return c.JSON(rows)
	}
}

// PUT /api/products/:sku/categories
func SetAssignmentsHandler(sync *Synchronizer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body SetAssignmentsRequest
		if err := binding.Body(c, &body); err != nil {
			return err
		}
		res, err := sync.SetAssignments(c.UserContext(), auth.Actor(c), skuParam(c), body.CategoryIDs)
		if err != nil {
			return err
		}
		return c.JSON(res)
	}
}

// POST /api/products/:sku/categories/:categoryId
func AddAssignmentHandler(sync *Synchronizer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		categoryID, err := binding.ParamID(c, "categoryId")
		if err != nil {
			return err
		}
		res, err := sync.AddAssignment(c.UserContext(), auth.Actor(c), skuParam(c), categoryID)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(res)
	}
}

// DELETE /api/products/:sku/categories/:categoryId
func RemoveAssignmentHandler(sync *Synchronizer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		categoryID, err := binding.ParamID(c, "categoryId")
		if err != nil {
			return err
		}
		res, err := sync.RemoveAssignment(c.UserContext(), auth.Actor(c), skuParam(c), categoryID)
		if err != nil {
			return err
		}
		return c.JSON(res)
	}
}

func skuParam(c *fiber.Ctx) string {
	return models.NormalizeSKU(c.Params("sku"))
}
