// Package testutil starts a disposable Postgres for store-backed tests.
package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"workshop-backend/internal/config"
	"workshop-backend/internal/database"
	"workshop-backend/internal/models"

	"github.com/shopspring/decimal"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"
)

// SetupDB starts postgres in a container, migrates the schema and returns a
// connection. The container is removed when the test ends. Skipped with -short.
func SetupDB(t *testing.T) *gorm.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping store-backed test in short mode")
	}
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "testuser",
			"POSTGRES_PASSWORD": "testpass",
			"POSTGRES_DB":       "workshop",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("container port: %v", err)
	}

	cfg := &config.Config{
		DatabaseDSN: fmt.Sprintf("postgres://testuser:testpass@%s:%s/workshop?sslmode=disable", host, port.Port()),
	}
	db, err := database.Open(cfg)
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// CreateUser inserts a user with the given role.
func CreateUser(t *testing.T, db *gorm.DB, email string, role models.Role) *models.User {
	t.Helper()
	u := models.User{Name: email, Email: email, Role: role}
	if err := db.Create(&u).Error; err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	return &u
}

// CreatePart inserts a part with tracked stock.
func CreatePart(t *testing.T, db *gorm.DB, sku string, stock int, price string) *models.Product {
	t.Helper()
	p := models.Product{
		ID:            sku,
		Name:          "Part " + sku,
		Type:          models.ProductTypePart,
		SellingPrice:  decimal.RequireFromString(price),
		PurchasePrice: decimal.RequireFromString(price),
		StockQuantity: &stock,
	}
	if err := db.Create(&p).Error; err != nil {
		t.Fatalf("create product %s: %v", sku, err)
	}
	return &p
}

// CreateVehicle inserts a vehicle owned by owner.
func CreateVehicle(t *testing.T, db *gorm.DB, owner *models.User, plate string) *models.Vehicle {
	t.Helper()
	v := models.Vehicle{
		OwnerID:      owner.ID,
		LicensePlate: plate,
		VIN:          "VIN" + plate,
		Make:         "Skoda",
		Model:        "Octavia",
		Year:         2019,
	}
	if err := db.Create(&v).Error; err != nil {
		t.Fatalf("create vehicle %s: %v", plate, err)
	}
	return &v
}

// Stock reads the current stock of sku.
func Stock(t *testing.T, db *gorm.DB, sku string) *int {
	t.Helper()
	var p models.Product
	if err := db.First(&p, "id = ?", sku).Error; err != nil {
		t.Fatalf("load product %s: %v", sku, err)
	}
	return p.StockQuantity
}
