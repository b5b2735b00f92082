package catalog

import (
	"context"
	"errors"
	"fmt"

	"workshop-backend/internal/apperr"
	"workshop-backend/internal/audit"
	"workshop-backend/internal/database"
	"workshop-backend/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Change is the committed effect of an assignment update.
type Change struct {
	SKU         string
	CategoryIDs []uint
	Added       []uint
	Removed     []uint
}

// Result is returned to callers once the change is committed. Degraded is set
// when the tree view could not be refreshed; the assignment stays committed.
type Result struct {
	SKU          string `json:"sku"`
	CategoryIDs  []uint `json:"category_ids"`
	Added        []uint `json:"added"`
	Removed      []uint `json:"removed"`
	Degraded     bool   `json:"degraded"`
	RefreshError string `json:"refresh_error,omitempty"`
}

type Synchronizer struct {
	db        *gorm.DB
	refresher TreeRefresher
}

func NewSynchronizer(db *gorm.DB, refresher TreeRefresher) *Synchronizer {
	return &Synchronizer{db: db, refresher: refresher}
}

// SetAssignments replaces the category set of the product.
func (s *Synchronizer) SetAssignments(ctx context.Context, actor *models.User, sku string, categoryIDs []uint) (*Result, error) {
	var change Change
	err := database.WithTransaction(ctx, s.db, database.DefaultTxOptions(), func(tx *gorm.DB) error {
		var err error
		change, err = s.ApplyTx(tx, actor, sku, categoryIDs)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.AfterCommit(ctx, change), nil
}

// ApplyTx writes the symmetric difference between the stored and the
// requested set through tx. The product row is locked so concurrent updates of
// the same product serialize.
func (s *Synchronizer) ApplyTx(tx *gorm.DB, actor *models.User, sku string, categoryIDs []uint) (Change, error) {
	if err := CheckDuplicates(categoryIDs); err != nil {
		return Change{}, err
	}
	if err := lockProduct(tx, sku); err != nil {
		return Change{}, err
	}
	if err := requireCategories(tx, categoryIDs); err != nil {
		return Change{}, err
	}

	current, err := assignedIDs(tx, sku)
	if err != nil {
		return Change{}, err
	}
	added, removed := Diff(current, categoryIDs)

	if len(removed) > 0 {
		if err := tx.Where("product_id = ? AND category_id IN ?", sku, removed).
			Delete(&models.ProductCategoryAssignment{}).Error; err != nil {
			return Change{}, apperr.Wrap(err, "product category assignment", "delete")
		}
	}
	if len(added) > 0 {
		rows := make([]models.ProductCategoryAssignment, 0, len(added))
		for _, id := range added {
			rows = append(rows, models.ProductCategoryAssignment{ProductID: sku, CategoryID: id})
		}
		if err := tx.Create(&rows).Error; err != nil {
			return Change{}, apperr.Wrap(err, "product category assignment", "create")
		}
	}

	ids := append([]uint(nil), categoryIDs...)
	sortIDs(ids)
	change := Change{SKU: sku, CategoryIDs: ids, Added: added, Removed: removed}

	if len(added) > 0 || len(removed) > 0 {
		err := audit.Write(tx, audit.Entry{
			Actor:       actor,
			EntityType:  "product",
			EntityID:    sku,
			Action:      models.AuditActionUpdate,
			Description: "category assignments changed",
			Before:      map[string]any{"category_ids": current},
			After:       map[string]any{"category_ids": ids},
		})
		if err != nil {
			return Change{}, err
		}
	}
	return change, nil
}

// AfterCommit runs the tree refresh for a committed change.
func (s *Synchronizer) AfterCommit(ctx context.Context, change Change) *Result {
	res := &Result{
		SKU:         change.SKU,
		CategoryIDs: nonNil(change.CategoryIDs),
		Added:       nonNil(change.Added),
		Removed:     nonNil(change.Removed),
	}

	var errs []error
	for _, id := range change.Removed {
		if err := s.refresher.RemoveAssignment(ctx, change.SKU, id); err != nil {
			errs = append(errs, err)
		}
	}
	if err := s.refresher.Refresh(ctx, change.SKU); err != nil {
		errs = append(errs, err)
	}

	if err := errors.Join(errs...); err != nil {
		res.Degraded = true
		res.RefreshError = err.Error()
		zap.L().Warn("category tree refresh failed",
			zap.String("sku", change.SKU),
			zap.Error(err),
		)
	}
	return res
}

// AddAssignment adds one pair. An existing pair is rejected.
func (s *Synchronizer) AddAssignment(ctx context.Context, actor *models.User, sku string, categoryID uint) (*Result, error) {
	var change Change
	err := database.WithTransaction(ctx, s.db, database.DefaultTxOptions(), func(tx *gorm.DB) error {
		if err := lockProduct(tx, sku); err != nil {
			return err
		}
		if err := requireCategories(tx, []uint{categoryID}); err != nil {
			return err
		}

		current, err := assignedIDs(tx, sku)
		if err != nil {
			return err
		}
		for _, id := range current {
			if id == categoryID {
				return apperr.Validation("product %s is already assigned to category %d", sku, categoryID)
			}
		}

		row := models.ProductCategoryAssignment{ProductID: sku, CategoryID: categoryID}
		if err := tx.Create(&row).Error; err != nil {
			if database.IsDuplicate(err) {
				return apperr.Validation("product %s is already assigned to category %d", sku, categoryID)
			}
			return apperr.Wrap(err, "product category assignment", "create")
		}

		ids := append(current, categoryID)
		sortIDs(ids)
		change = Change{SKU: sku, CategoryIDs: ids, Added: []uint{categoryID}}
		return audit.Write(tx, audit.Entry{
			Actor:       actor,
			EntityType:  "product",
			EntityID:    sku,
			Action:      models.AuditActionUpdate,
			Description: "category assigned",
			After:       map[string]any{"category_id": categoryID},
		})
	})
	if err != nil {
		return nil, err
	}
	return s.AfterCommit(ctx, change), nil
}

// RemoveAssignment drops one pair. A missing pair is NotFound.
func (s *Synchronizer) RemoveAssignment(ctx context.Context, actor *models.User, sku string, categoryID uint) (*Result, error) {
	var change Change
	err := database.WithTransaction(ctx, s.db, database.DefaultTxOptions(), func(tx *gorm.DB) error {
		if err := lockProduct(tx, sku); err != nil {
			return err
		}

		res := tx.Where("product_id = ? AND category_id = ?", sku, categoryID).
			Delete(&models.ProductCategoryAssignment{})
		if res.Error != nil {
			return apperr.Wrap(res.Error, "product category assignment", "delete")
		}
		if res.RowsAffected == 0 {
			return apperr.NotFound("product category assignment", fmt.Sprintf("%s/%d", sku, categoryID))
		}

		ids, err := assignedIDs(tx, sku)
		if err != nil {
			return err
		}
		change = Change{SKU: sku, CategoryIDs: ids, Removed: []uint{categoryID}}
		return audit.Write(tx, audit.Entry{
			Actor:       actor,
			EntityType:  "product",
			EntityID:    sku,
			Action:      models.AuditActionUpdate,
			Description: "category unassigned",
			Before:      map[string]any{"category_id": categoryID},
		})
	})
	if err != nil {
		return nil, err
	}
	return s.AfterCommit(ctx, change), nil
}

func lockProduct(tx *gorm.DB, sku string) error {
	var p models.Product
	err := database.ForUpdate(tx).Select("id").First(&p, "id = ?", sku).Error
	if database.IsNotFound(err) {
		return apperr.NotFound("product", sku)
	}
	return apperr.Wrap(err, "product", "lock")
}

func requireCategories(tx *gorm.DB, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	var found []uint
	if err := tx.Model(&models.ProductCategory{}).Where("id IN ?", ids).Pluck("id", &found).Error; err != nil {
		return apperr.Wrap(err, "product category", "lookup")
	}
	exists := make(map[uint]bool, len(found))
	for _, id := range found {
		exists[id] = true
	}
	for _, id := range ids {
		if !exists[id] {
			return apperr.NotFound("product category", id)
		}
	}
	return nil
}

func assignedIDs(tx *gorm.DB, sku string) ([]uint, error) {
	var ids []uint
	err := tx.Model(&models.ProductCategoryAssignment{}).
		Where("product_id = ?", sku).
		Order("category_id").
		Pluck("category_id", &ids).Error
	if err != nil {
		return nil, apperr.Wrap(err, "product category assignment", "list")
	}
	return ids, nil
}

func nonNil(ids []uint) []uint {
	if ids == nil {
		return []uint{}
	}
	return ids
}
