package catalog

import (
	"context"

	"gorm.io/gorm"
)

// TreeRefresher rebuilds the denormalized category tree of a product. It runs
// after the assignment change has committed.
type TreeRefresher interface {
	Refresh(ctx context.Context, sku string) error
	RemoveAssignment(ctx context.Context, sku string, categoryID uint) error
}

// SQLRefresher calls the database functions installed by database.Migrate.
type SQLRefresher struct {
	db *gorm.DB
}

func NewSQLRefresher(db *gorm.DB) *SQLRefresher {
	return &SQLRefresher{db: db}
}

func (r *SQLRefresher) Refresh(ctx context.Context, sku string) error {
	return r.db.WithContext(ctx).Exec("SELECT refresh_product_category_tree(?)", sku).Error
}

func (r *SQLRefresher) RemoveAssignment(ctx context.Context, sku string, categoryID uint) error {
	return r.db.WithContext(ctx).Exec("SELECT remove_product_category(?, ?)", sku, int64(categoryID)).Error
}
