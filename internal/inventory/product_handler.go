package inventory

import (
	"strings"

	"workshop-backend/internal/apperr"
	"workshop-backend/internal/auth"
	"workshop-backend/internal/binding"
	"workshop-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

type CreateProductRequest struct {
	SKU           string             `json:"sku" validate:"required,max=40"`
	Name          string             `json:"name" validate:"required,max=150"`
	Type          models.ProductType `json:"type" validate:"required,oneof=part service"`
	Brand         string             `json:"brand" validate:"max=100"`
	PurchasePrice decimal.Decimal    `json:"purchase_price"`
	SellingPrice  decimal.Decimal    `json:"selling_price"`
	StockQuantity *int               `json:"stock_quantity" validate:"omitempty,gte=0"`
	Description   string             `json:"description"`
	CategoryIDs   *[]uint            `json:"category_ids"`
}

type UpdateProductRequest struct {
	Name          *string          `json:"name" validate:"omitempty,max=150"`
	Brand         *string          `json:"brand" validate:"omitempty,max=100"`
	PurchasePrice *decimal.Decimal `json:"purchase_price"`
	SellingPrice  *decimal.Decimal `json:"selling_price"`
	Description   *string          `json:"description"`
	CategoryIDs   *[]uint          `json:"category_ids"`
	// rejected when present: stock is changed by orders and restocks only
	StockQuantity *int `json:"stock_quantity"`
}

// GET /api/products?category_id=3&type=part&q=filter
func ListProductsHandler(svc *ProductService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		categoryID, err := binding.QueryID(c, "category_id")
		if err != nil {
			return err
		}
		f := ProductFilter{
			CategoryID: categoryID,
			Type:       models.ProductType(c.Query("type")),
			Search:     c.Query("q"),
		}
		if f.Type != "" && !f.Type.Valid() {
			return apperr.Validation("type must be part or service")
		}

		products, err := svc.List(c.UserContext(), f)
		if err != nil {
			return err
		}
		return c.JSON(products)
	}
}

// GET /api/products/:sku
func GetProductHandler(svc *ProductService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := svc.Get(c.UserContext(), c.Params("sku"))
		if err != nil {
			return err
		}
		return c.JSON(p)
	}
}

// POST /api/products
func CreateProductHandler(svc *ProductService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateProductRequest
		if err := binding.Body(c, &body); err != nil {
			return err
		}

		res, err := svc.Create(c.UserContext(), auth.Actor(c), ProductInput{
			SKU:           body.SKU,
			Name:          body.Name,
			Type:          body.Type,
			Brand:         body.Brand,
			PurchasePrice: body.PurchasePrice,
			SellingPrice:  body.SellingPrice,
			StockQuantity: body.StockQuantity,
			Description:   body.Description,
			CategoryIDs:   body.CategoryIDs,
		})
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(res)
	}
}

// PUT /api/products/:sku
func UpdateProductHandler(svc *ProductService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body UpdateProductRequest
		if err := binding.Body(c, &body); err != nil {
			return err
		}
		if body.StockQuantity != nil {
			return apperr.Validation("stock_quantity cannot be set directly; use supplier orders")
		}

		res, err := svc.Update(c.UserContext(), auth.Actor(c), c.Params("sku"), ProductUpdate{
			Name:          body.Name,
			Brand:         body.Brand,
			PurchasePrice: body.PurchasePrice,
			SellingPrice:  body.SellingPrice,
			Description:   body.Description,
			CategoryIDs:   body.CategoryIDs,
		})
		if err != nil {
			return err
		}
		return c.JSON(res)
	}
}

// DELETE /api/products/:sku
func DeleteProductHandler(svc *ProductService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := svc.Delete(c.UserContext(), auth.Actor(c), c.Params("sku")); err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// POST /api/products/import (multipart, field "file")
func ImportProductsHandler(svc *ProductService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fileHeader, err := c.FormFile("file")
		if err != nil {
			return apperr.Validation("file is required")
		}
		if !strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".xlsx") {
			return apperr.Validation("only .xlsx files can be imported")
		}

		file, err := fileHeader.Open()
		if err != nil {
			return apperr.Wrap(err, "catalog import", "open")
		}
		defer file.Close()

		rows, err := ReadCatalogSheet(file)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return apperr.Validation("xlsx file is empty")
		}

		report, err := svc.Import(c.UserContext(), auth.Actor(c), rows)
		if err != nil {
			return err
		}
		return c.JSON(report)
	}
}

// GET /api/products/import/template
func ImportTemplateHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		f := excelize.NewFile()
		defer f.Close()

		sheet := f.GetSheetName(0)
		header := make([]any, len(importColumns))
		for i, col := range importColumns {
			header[i] = col
		}
		if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
			return apperr.Wrap(err, "catalog import", "template")
		}

		buf, err := f.WriteToBuffer()
		if err != nil {
			return apperr.Wrap(err, "catalog import", "template")
		}
		c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Set(fiber.HeaderContentDisposition, `attachment; filename="catalog-import.xlsx"`)
		return c.Send(buf.Bytes())
	}
}
