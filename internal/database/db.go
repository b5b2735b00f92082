package database

import (
	"fmt"
	"time"

	"workshop-backend/internal/config"
	"workshop-backend/internal/models"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to Postgres. TranslateError lets callers match
// gorm.ErrDuplicatedKey and gorm.ErrForeignKeyViolated.
func Open(cfg *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("database handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}

// Migrate creates the schema, the hierarchy refresh functions and seeds the
// reference tables.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.RoleRecord{},
		&models.Status{},
		&models.FuelType{},
		&models.User{},
		&models.Vehicle{},
		&models.Offer{},
		&models.OfferImage{},
		&models.Product{},
		&models.ProductCategory{},
		&models.ProductCategoryAssignment{},
		&models.ProductCategoryTree{},
		&models.Order{},
		&models.OrderItem{},
		&models.SupplierOrder{},
		&models.AuditLog{},
	)
	if err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	for _, stmt := range hierarchyFunctions {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("install hierarchy function: %w", err)
		}
	}

	if err := seed(db); err != nil {
		return err
	}

	zap.S().Info("database migration completed")
	return nil
}

func seed(db *gorm.DB) error {
	for _, r := range models.AllRoles {
		rec := models.RoleRecord{Code: r, Name: models.RoleNames[r]}
		if err := db.Where(models.RoleRecord{Code: r}).FirstOrCreate(&rec).Error; err != nil {
			return fmt.Errorf("seed role %s: %w", r, err)
		}
	}

	for _, s := range models.DefaultStatuses {
		rec := s
		if err := db.Where(models.Status{Scope: s.Scope, Code: s.Code}).FirstOrCreate(&rec).Error; err != nil {
			return fmt.Errorf("seed status %s/%s: %w", s.Scope, s.Code, err)
		}
	}

	for _, name := range models.DefaultFuelTypes {
		rec := models.FuelType{Name: name}
		if err := db.Where(models.FuelType{Name: name}).FirstOrCreate(&rec).Error; err != nil {
			return fmt.Errorf("seed fuel type %s: %w", name, err)
		}
	}
	return nil
}

// hierarchyFunctions are the product-keyed refresh procedures behind the
// product_category_trees view table.
var hierarchyFunctions = []string{
	`CREATE OR REPLACE FUNCTION refresh_product_category_tree(p_product_id varchar)
RETURNS void AS $$
BEGIN
	DELETE FROM product_category_trees WHERE product_id = p_product_id;

	INSERT INTO product_category_trees (product_id, category_id, parent_id, name, level, assigned)
	WITH RECURSIVE nodes AS (
		SELECT c.id, c.parent_id, c.name, 0 AS level, ARRAY[c.id] AS path
		FROM product_categories c
		WHERE c.parent_id IS NULL
		UNION ALL
		SELECT c.id, c.parent_id, c.name, n.level + 1, n.path || c.id
		FROM product_categories c
		JOIN nodes n ON c.parent_id = n.id
		WHERE NOT c.id = ANY(n.path)
	),
	wanted AS (
		SELECT DISTINCT unnest(n.path) AS id
		FROM nodes n
		JOIN product_category_assignments a ON a.category_id = n.id
		WHERE a.product_id = p_product_id
	)
	SELECT p_product_id, n.id, n.parent_id, n.name, n.level,
		EXISTS (
			SELECT 1 FROM product_category_assignments a
			WHERE a.product_id = p_product_id AND a.category_id = n.id
		)
	FROM nodes n
	JOIN wanted w ON w.id = n.id;
END;
$$ LANGUAGE plpgsql`,
	`CREATE OR REPLACE FUNCTION remove_product_category(p_product_id varchar, p_category_id bigint)
RETURNS void AS $$
BEGIN
	-- the assignment row is gone already; a pair re-added since then keeps its tree row
	DELETE FROM product_category_trees t
	WHERE t.product_id = p_product_id AND t.category_id = p_category_id AND t.assigned
		AND NOT EXISTS (
			SELECT 1 FROM product_category_assignments a
			WHERE a.product_id = p_product_id AND a.category_id = p_category_id
		);
END;
$$ LANGUAGE plpgsql`,
}
