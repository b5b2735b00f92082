package inventory

import (
	"context"
	"strings"

	"workshop-backend/internal/apperr"
	"workshop-backend/internal/audit"
	"workshop-backend/internal/catalog"
	"workshop-backend/internal/database"
	"workshop-backend/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ProductInput struct {
	SKU           string
	Name          string
	Type          models.ProductType
	Brand         string
	PurchasePrice decimal.Decimal
	SellingPrice  decimal.Decimal
	StockQuantity *int
	Description   string
	// nil leaves the assignments alone
	CategoryIDs *[]uint
}

// ProductUpdate never carries stock; stock moves through AdjustStock only.
type ProductUpdate struct {
	Name          *string
	Brand         *string
	PurchasePrice *decimal.Decimal
	SellingPrice  *decimal.Decimal
	Description   *string
	CategoryIDs   *[]uint
}

type ProductFilter struct {
	CategoryID *uint
	Type       models.ProductType
	Search     string
}

// ProductView is the flat read projection of a product.
type ProductView struct {
	SKU           string             `json:"sku"`
	Name          string             `json:"name"`
	Type          models.ProductType `json:"type"`
	Brand         string             `json:"brand"`
	PurchasePrice decimal.Decimal    `json:"purchase_price"`
	SellingPrice  decimal.Decimal    `json:"selling_price"`
	StockQuantity *int               `json:"stock_quantity"`
	Description   string             `json:"description"`
	CategoryIDs   []uint             `json:"category_ids"`
	UpdatedAt     string             `json:"updated_at"`
}

// ProductResult carries the outcome of the optional category change.
type ProductResult struct {
	Product    ProductView     `json:"product"`
	Categories *catalog.Result `json:"categories,omitempty"`
}

type ProductService struct {
	db   *gorm.DB
	sync *catalog.Synchronizer
}

func NewProductService(db *gorm.DB, sync *catalog.Synchronizer) *ProductService {
	return &ProductService{db: db, sync: sync}
}

func (s *ProductService) List(ctx context.Context, f ProductFilter) ([]ProductView, error) {
	q := s.db.WithContext(ctx).Model(&models.Product{})
	if f.CategoryID != nil {
		// the tree view also lists ancestors, so a parent category matches its subtree
		q = q.Where("id IN (?)", s.db.Model(&models.ProductCategoryTree{}).
			Select("product_id").Where("category_id = ?", *f.CategoryID))
	}
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	if term := strings.TrimSpace(f.Search); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		q = q.Where("LOWER(id) LIKE ? OR LOWER(name) LIKE ? OR LOWER(brand) LIKE ?", like, like, like)
	}

	var products []models.Product
	if err := q.Order("name asc, id asc").Find(&products).Error; err != nil {
		return nil, apperr.Wrap(err, "product", "list")
	}

	skus := make([]string, 0, len(products))
	for _, p := range products {
		skus = append(skus, p.ID)
	}
	cats, err := categoryIDsBySKU(s.db.WithContext(ctx), skus)
	if err != nil {
		return nil, err
	}

	out := make([]ProductView, 0, len(products))
	for i := range products {
		out = append(out, newProductView(&products[i], cats[products[i].ID]))
	}
	return out, nil
}

func (s *ProductService) Get(ctx context.Context, sku string) (*ProductView, error) {
	return loadView(s.db.WithContext(ctx), models.NormalizeSKU(sku))
}

func (s *ProductService) Create(ctx context.Context, actor *models.User, in ProductInput) (*ProductResult, error) {
	p, err := newProduct(in)
	if err != nil {
		return nil, err
	}

	var change *catalog.Change
	err = database.WithTransaction(ctx, s.db, database.DefaultTxOptions(), func(tx *gorm.DB) error {
		if err := tx.Create(p).Error; err != nil {
			if database.IsDuplicate(err) {
				return apperr.Conflict("product", "sku %s already exists", p.ID)
			}
			return apperr.Wrap(err, "product", "create")
		}
		if err := audit.Write(tx, audit.Entry{
			Actor:       actor,
			EntityType:  "product",
			EntityID:    p.ID,
			Action:      models.AuditActionCreate,
			Description: "product created",
			After:       p,
		}); err != nil {
			return err
		}

		if in.CategoryIDs != nil {
			c, err := s.sync.ApplyTx(tx, actor, p.ID, *in.CategoryIDs)
			if err != nil {
				return err
			}
			change = &c
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.finish(ctx, p.ID, change)
}

// Update changes descriptive fields and, when requested, the category set in
// the same transaction. The tree refresh runs after commit.
func (s *ProductService) Update(ctx context.Context, actor *models.User, sku string, in ProductUpdate) (*ProductResult, error) {
	sku = models.NormalizeSKU(sku)

	var change *catalog.Change
	err := database.WithTransaction(ctx, s.db, database.DefaultTxOptions(), func(tx *gorm.DB) error {
		var p models.Product
		if err := database.ForUpdate(tx).First(&p, "id = ?", sku).Error; err != nil {
			if database.IsNotFound(err) {
				return apperr.NotFound("product", sku)
			}
			return apperr.Wrap(err, "product", "get")
		}
		before := p

		if err := applyProductUpdate(&p, in); err != nil {
			return err
		}
		err := tx.Model(&p).
			Select("name", "brand", "purchase_price", "selling_price", "description").
			Updates(&p).Error
		if err != nil {
			return apperr.Wrap(err, "product", "update")
		}
		if err := audit.Write(tx, audit.Entry{
			Actor:       actor,
			EntityType:  "product",
			EntityID:    sku,
			Action:      models.AuditActionUpdate,
			Description: "product updated",
			Before:      before,
			After:       p,
		}); err != nil {
			return err
		}

		if in.CategoryIDs != nil {
			c, err := s.sync.ApplyTx(tx, actor, sku, *in.CategoryIDs)
			if err != nil {
				return err
			}
			change = &c
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.finish(ctx, sku, change)
}

// Delete refuses products that order items or supplier orders still reference.
func (s *ProductService) Delete(ctx context.Context, actor *models.User, sku string) error {
	sku = models.NormalizeSKU(sku)
	return database.WithTransaction(ctx, s.db, database.DefaultTxOptions(), func(tx *gorm.DB) error {
		var p models.Product
		if err := database.ForUpdate(tx).First(&p, "id = ?", sku).Error; err != nil {
			if database.IsNotFound(err) {
				return apperr.NotFound("product", sku)
			}
			return apperr.Wrap(err, "product", "get")
		}

		var items int64
		if err := tx.Model(&models.OrderItem{}).Where("product_id = ?", sku).Count(&items).Error; err != nil {
			return apperr.Wrap(err, "product", "delete")
		}
		if items > 0 {
			return apperr.Conflict("product", "%s is used by %d order items", sku, items)
		}
		var restocks int64
		if err := tx.Model(&models.SupplierOrder{}).Where("product_id = ?", sku).Count(&restocks).Error; err != nil {
			return apperr.Wrap(err, "product", "delete")
		}
		if restocks > 0 {
			return apperr.Conflict("product", "%s is used by %d supplier orders", sku, restocks)
		}

		if err := tx.Where("product_id = ?", sku).Delete(&models.ProductCategoryTree{}).Error; err != nil {
			return apperr.Wrap(err, "product category tree", "delete")
		}
		if err := tx.Where("product_id = ?", sku).Delete(&models.ProductCategoryAssignment{}).Error; err != nil {
			return apperr.Wrap(err, "product category assignment", "delete")
		}
		if err := tx.Delete(&models.Product{}, "id = ?", sku).Error; err != nil {
			if database.IsForeignKeyViolation(err) {
				return apperr.Conflict("product", "%s is still referenced", sku)
			}
			return apperr.Wrap(err, "product", "delete")
		}

		return audit.Write(tx, audit.Entry{
			Actor:       actor,
			EntityType:  "product",
			EntityID:    sku,
			Action:      models.AuditActionDelete,
			Description: "product deleted",
			Before:      p,
		})
	})
}

func (s *ProductService) finish(ctx context.Context, sku string, change *catalog.Change) (*ProductResult, error) {
	res := &ProductResult{}
	if change != nil {
		res.Categories = s.sync.AfterCommit(ctx, *change)
	}
	view, err := loadView(s.db.WithContext(ctx), sku)
	if err != nil {
		return nil, err
	}
	res.Product = *view
	return res, nil
}

func newProduct(in ProductInput) (*models.Product, error) {
	sku := models.NormalizeSKU(in.SKU)
	if !models.ValidSKU(sku) {
		return nil, apperr.Validation("sku %q must be alphanumeric", in.SKU)
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperr.Validation("name is required")
	}
	if !in.Type.Valid() {
		return nil, apperr.Validation("type must be part or service")
	}
	if in.PurchasePrice.IsNegative() || in.SellingPrice.IsNegative() {
		return nil, apperr.Validation("prices cannot be negative")
	}

	stock := in.StockQuantity
	switch in.Type {
	case models.ProductTypeService:
		if stock != nil {
			return nil, apperr.Validation("services have no stock")
		}
	case models.ProductTypePart:
		if stock == nil {
			zero := 0
			stock = &zero
		}
		if *stock < 0 {
			return nil, apperr.Validation("initial stock cannot be negative")
		}
	}

	return &models.Product{
		ID:            sku,
		Name:          name,
		Type:          in.Type,
		Brand:         strings.TrimSpace(in.Brand),
		PurchasePrice: in.PurchasePrice.Round(2),
		SellingPrice:  in.SellingPrice.Round(2),
		StockQuantity: stock,
		Description:   strings.TrimSpace(in.Description),
	}, nil
}

func applyProductUpdate(p *models.Product, in ProductUpdate) error {
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return apperr.Validation("name cannot be empty")
		}
		p.Name = name
	}
	if in.Brand != nil {
		p.Brand = strings.TrimSpace(*in.Brand)
	}
	if in.PurchasePrice != nil {
		if in.PurchasePrice.IsNegative() {
			return apperr.Validation("purchase_price cannot be negative")
		}
		p.PurchasePrice = in.PurchasePrice.Round(2)
	}
	if in.SellingPrice != nil {
		if in.SellingPrice.IsNegative() {
			return apperr.Validation("selling_price cannot be negative")
		}
		p.SellingPrice = in.SellingPrice.Round(2)
	}
	if in.Description != nil {
		p.Description = strings.TrimSpace(*in.Description)
	}
	return nil
}

func loadView(db *gorm.DB, sku string) (*ProductView, error) {
	var p models.Product
	if err := db.First(&p, "id = ?", sku).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, apperr.NotFound("product", sku)
		}
		return nil, apperr.Wrap(err, "product", "get")
	}
	cats, err := categoryIDsBySKU(db, []string{sku})
	if err != nil {
		return nil, err
	}
	v := newProductView(&p, cats[sku])
	return &v, nil
}

func categoryIDsBySKU(db *gorm.DB, skus []string) (map[string][]uint, error) {
	out := make(map[string][]uint, len(skus))
	if len(skus) == 0 {
		return out, nil
	}
	var rows []models.ProductCategoryAssignment
	err := db.Where("product_id IN ?", skus).Order("product_id, category_id").Find(&rows).Error
	if err != nil {
		return nil, apperr.Wrap(err, "product category assignment", "list")
	}
	for _, r := range rows {
		out[r.ProductID] = append(out[r.ProductID], r.CategoryID)
	}
	return out, nil
}

func newProductView(p *models.Product, categoryIDs []uint) ProductView {
	if categoryIDs == nil {
		categoryIDs = []uint{}
	}
	return ProductView{
		SKU:           p.ID,
		Name:          p.Name,
		Type:          p.Type,
		Brand:         p.Brand,
		PurchasePrice: p.PurchasePrice,
		SellingPrice:  p.SellingPrice,
		StockQuantity: p.StockQuantity,
		Description:   p.Description,
		CategoryIDs:   categoryIDs,
		UpdatedAt:     p.UpdatedAt.Format("2006-01-02 15:04:05"),
	}
}
