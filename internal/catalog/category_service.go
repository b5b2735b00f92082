package catalog

import (
	"context"
	"errors"
	"strings"

	"workshop-backend/internal/apperr"
	"workshop-backend/internal/database"
	"workshop-backend/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// hierarchyLockKey serializes writers of product_categories so two concurrent
// reparent requests cannot build a cycle between them.
const hierarchyLockKey = 7310001

type CategoryInput struct {
	Name     string
	ParentID *uint
}

type CategoryUpdate struct {
	Name        *string
	ParentID    *uint
	ClearParent bool
}

type CategoryService struct {
	db        *gorm.DB
	refresher TreeRefresher
}

func NewCategoryService(db *gorm.DB, refresher TreeRefresher) *CategoryService {
	return &CategoryService{db: db, refresher: refresher}
}

func (s *CategoryService) List(ctx context.Context) ([]models.ProductCategory, error) {
	var cats []models.ProductCategory
	if err := s.db.WithContext(ctx).Order("name asc, id asc").Find(&cats).Error; err != nil {
		return nil, apperr.Wrap(err, "product category", "list")
	}
	return cats, nil
}

func (s *CategoryService) Tree(ctx context.Context) ([]*TreeNode, error) {
	cats, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return BuildTree(cats), nil
}

func (s *CategoryService) Get(ctx context.Context, id uint) (*models.ProductCategory, error) {
	var cat models.ProductCategory
	err := s.db.WithContext(ctx).First(&cat, id).Error
	if database.IsNotFound(err) {
		return nil, apperr.NotFound("product category", id)
	}
	if err != nil {
		return nil, apperr.Wrap(err, "product category", "get")
	}
	return &cat, nil
}

// ProductTree returns the stored tree view rows of one product.
func (s *CategoryService) ProductTree(ctx context.Context, sku string) ([]models.ProductCategoryTree, error) {
	var exists int64
	if err := s.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", sku).Count(&exists).Error; err != nil {
		return nil, apperr.Wrap(err, "product", "get")
	}
	if exists == 0 {
		return nil, apperr.NotFound("product", sku)
	}

	var rows []models.ProductCategoryTree
	err := s.db.WithContext(ctx).
		Where("product_id = ?", sku).
		Order("level asc, name asc").
		Find(&rows).Error
	if err != nil {
		return nil, apperr.Wrap(err, "product category tree", "list")
	}
	return rows, nil
}

func (s *CategoryService) Create(ctx context.Context, in CategoryInput) (*models.ProductCategory, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperr.Validation("name is required")
	}

	cat := models.ProductCategory{Name: name, ParentID: in.ParentID}
	err := database.WithTransaction(ctx, s.db, database.DefaultTxOptions(), func(tx *gorm.DB) error {
		idx, err := lockHierarchy(tx)
		if err != nil {
			return err
		}
		if err := idx.ValidateParent(0, in.ParentID); err != nil {
			return err
		}
		return apperr.Wrap(tx.Create(&cat).Error, "product category", "create")
	})
	if err != nil {
		return nil, err
	}
	return &cat, nil
}

// Update renames or reparents a category. Products whose tree view contains
// the category are refreshed after commit; a refresh failure is logged only.
func (s *CategoryService) Update(ctx context.Context, id uint, in CategoryUpdate) (*models.ProductCategory, error) {
	var cat models.ProductCategory
	err := database.WithTransaction(ctx, s.db, database.DefaultTxOptions(), func(tx *gorm.DB) error {
		idx, err := lockHierarchy(tx)
		if err != nil {
			return err
		}
		if err := tx.First(&cat, id).Error; err != nil {
			if database.IsNotFound(err) {
				return apperr.NotFound("product category", id)
			}
			return apperr.Wrap(err, "product category", "get")
		}

		if in.Name != nil {
			name := strings.TrimSpace(*in.Name)
			if name == "" {
				return apperr.Validation("name cannot be empty")
			}
			cat.Name = name
		}
		switch {
		case in.ClearParent:
			cat.ParentID = nil
		case in.ParentID != nil:
			if err := idx.ValidateParent(id, in.ParentID); err != nil {
				return err
			}
			cat.ParentID = in.ParentID
		}

		return apperr.Wrap(
			tx.Model(&cat).Select("name", "parent_id").Updates(&cat).Error,
			"product category", "update",
		)
	})
	if err != nil {
		return nil, err
	}

	s.refreshAffected(ctx, id)
	return &cat, nil
}

// Delete removes a leaf category that has no products assigned.
func (s *CategoryService) Delete(ctx context.Context, id uint) error {
	return database.WithTransaction(ctx, s.db, database.DefaultTxOptions(), func(tx *gorm.DB) error {
		if _, err := lockHierarchy(tx); err != nil {
			return err
		}

		var cat models.ProductCategory
		if err := tx.First(&cat, id).Error; err != nil {
			if database.IsNotFound(err) {
				return apperr.NotFound("product category", id)
			}
			return apperr.Wrap(err, "product category", "get")
		}

		var children int64
		if err := tx.Model(&models.ProductCategory{}).Where("parent_id = ?", id).Count(&children).Error; err != nil {
			return apperr.Wrap(err, "product category", "delete")
		}
		if children > 0 {
			return apperr.Conflict("product category", "category %d has %d child categories", id, children)
		}

		var assigned int64
		if err := tx.Model(&models.ProductCategoryAssignment{}).Where("category_id = ?", id).Count(&assigned).Error; err != nil {
			return apperr.Wrap(err, "product category", "delete")
		}
		if assigned > 0 {
			return apperr.Conflict("product category", "category %d is assigned to %d products", id, assigned)
		}

		err := tx.Delete(&models.ProductCategory{}, id).Error
		if database.IsForeignKeyViolation(err) {
			return apperr.Conflict("product category", "category %d is still referenced", id)
		}
		return apperr.Wrap(err, "product category", "delete")
	})
}

func (s *CategoryService) refreshAffected(ctx context.Context, id uint) {
	var skus []string
	err := s.db.WithContext(ctx).Model(&models.ProductCategoryTree{}).
		Distinct("product_id").
		Where("category_id = ?", id).
		Pluck("product_id", &skus).Error
	if err != nil {
		zap.L().Warn("list products for tree refresh failed", zap.Uint("category_id", id), zap.Error(err))
		return
	}

	var errs []error
	for _, sku := range skus {
		if err := s.refresher.Refresh(ctx, sku); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		zap.L().Warn("category tree refresh failed",
			zap.Uint("category_id", id),
			zap.Int("products", len(skus)),
			zap.Error(err),
		)
	}
}

func lockHierarchy(tx *gorm.DB) (ParentIndex, error) {
	if err := tx.Exec("SELECT pg_advisory_xact_lock(?)", hierarchyLockKey).Error; err != nil {
		return nil, apperr.Wrap(err, "product category", "lock")
	}
	var cats []models.ProductCategory
	if err := tx.Select("id", "parent_id").Find(&cats).Error; err != nil {
		return nil, apperr.Wrap(err, "product category", "list")
	}
	return NewParentIndex(cats), nil
}
