package inventory

import (
	"context"
	"sync"
	"testing"

	"workshop-backend/internal/apperr"
	"workshop-backend/internal/catalog"
	"workshop-backend/internal/database"
	"workshop-backend/internal/models"
	"workshop-backend/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func adjust(t *testing.T, db *gorm.DB, adj Adjustment) error {
	t.Helper()
	return database.WithTransaction(context.Background(), db, database.DefaultTxOptions(), func(tx *gorm.DB) error {
		return AdjustStock(tx, adj)
	})
}

func TestAdjustStock(t *testing.T) {
	db := testutil.SetupDB(t)
	admin := testutil.CreateUser(t, db, "admin@example.com", models.RoleAdmin)
	testutil.CreatePart(t, db, "P1", 5, "10")

	require.NoError(t, adjust(t, db, Adjustment{SKU: "P1", Delta: -2, Actor: admin, Reason: "test"}))
	assert.Equal(t, 3, *testutil.Stock(t, db, "P1"))

	// going below zero is allowed
	require.NoError(t, adjust(t, db, Adjustment{SKU: "P1", Delta: -4, Actor: admin}))
	assert.Equal(t, -1, *testutil.Stock(t, db, "P1"))

	err := adjust(t, db, Adjustment{SKU: "NOPE", Delta: 1, Actor: admin})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	var logs int64
	require.NoError(t, db.Model(&models.AuditLog{}).Where("entity_id = ? AND action = ?", "P1", models.AuditActionStock).Count(&logs).Error)
	assert.EqualValues(t, 2, logs)
}

func TestAdjustStockIgnoresUntrackedProducts(t *testing.T) {
	db := testutil.SetupDB(t)
	require.NoError(t, db.Create(&models.Product{ID: "LABOUR", Name: "Labour", Type: models.ProductTypeService}).Error)

	require.NoError(t, adjust(t, db, Adjustment{SKU: "LABOUR", Delta: -3}))
	assert.Nil(t, testutil.Stock(t, db, "LABOUR"))
}

func TestSupplierOrderReceiptCreditsOnce(t *testing.T) {
	db := testutil.SetupDB(t)
	ctx := context.Background()
	mech := testutil.CreateUser(t, db, "mech@example.com", models.RoleMechanic)
	testutil.CreatePart(t, db, "P1", 10, "100")

	svc := NewSupplierOrderService(db)
	so, err := svc.Create(ctx, mech, SupplierOrderInput{SKU: "p1", Quantity: 50})
	require.NoError(t, err)
	assert.Equal(t, models.SupplierOrderPending, so.Status)
	assert.Equal(t, mech.ID, so.AgentID)

	received := models.SupplierOrderReceived
	got, err := svc.Update(ctx, mech, so.ID, SupplierOrderUpdate{Status: &received})
	require.NoError(t, err)
	assert.Equal(t, models.SupplierOrderReceived, got.Status)
	assert.NotNil(t, got.ReceivedAt)
	assert.Equal(t, 60, *testutil.Stock(t, db, "P1"))

	_, err = svc.Update(ctx, mech, so.ID, SupplierOrderUpdate{Status: &received})
	require.NoError(t, err)
	assert.Equal(t, 60, *testutil.Stock(t, db, "P1"), "second save must not credit again")

	pending := models.SupplierOrderPending
	_, err = svc.Update(ctx, mech, so.ID, SupplierOrderUpdate{Status: &pending})
	assert.ErrorIs(t, err, apperr.ErrValidationFailed)

	err = svc.Delete(ctx, mech, so.ID)
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestSupplierOrderConcurrentReceipt(t *testing.T) {
	db := testutil.SetupDB(t)
	ctx := context.Background()
	mech := testutil.CreateUser(t, db, "mech@example.com", models.RoleMechanic)
	testutil.CreatePart(t, db, "P1", 0, "100")

	svc := NewSupplierOrderService(db)
	so, err := svc.Create(ctx, mech, SupplierOrderInput{SKU: "P1", Quantity: 7})
	require.NoError(t, err)

	received := models.SupplierOrderReceived
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = svc.Update(ctx, mech, so.ID, SupplierOrderUpdate{Status: &received})
		}()
	}
	wg.Wait()

	assert.Equal(t, 7, *testutil.Stock(t, db, "P1"))
}

func TestSupplierOrderRejectsServicesAndCustomersAsAgents(t *testing.T) {
	db := testutil.SetupDB(t)
	ctx := context.Background()
	mech := testutil.CreateUser(t, db, "mech@example.com", models.RoleMechanic)
	cust := testutil.CreateUser(t, db, "cust@example.com", models.RoleCustomer)
	testutil.CreatePart(t, db, "P1", 0, "100")
	require.NoError(t, db.Create(&models.Product{ID: "LABOUR", Name: "Labour", Type: models.ProductTypeService}).Error)

	svc := NewSupplierOrderService(db)
	_, err := svc.Create(ctx, mech, SupplierOrderInput{SKU: "LABOUR", Quantity: 1})
	assert.ErrorIs(t, err, apperr.ErrValidationFailed)

	_, err = svc.Create(ctx, mech, SupplierOrderInput{SKU: "P1", Quantity: 1, AgentID: &cust.ID})
	assert.ErrorIs(t, err, apperr.ErrValidationFailed)

	_, err = svc.Create(ctx, mech, SupplierOrderInput{SKU: "P404", Quantity: 1})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestProductLifecycle(t *testing.T) {
	db := testutil.SetupDB(t)
	ctx := context.Background()
	admin := testutil.CreateUser(t, db, "admin@example.com", models.RoleAdmin)

	engine := models.ProductCategory{Name: "Engine"}
	require.NoError(t, db.Create(&engine).Error)
	filters := models.ProductCategory{Name: "Filters", ParentID: &engine.ID}
	require.NoError(t, db.Create(&filters).Error)

	svc := NewProductService(db, catalog.NewSynchronizer(db, catalog.NewSQLRefresher(db)))

	stock := 12
	ids := []uint{filters.ID}
	res, err := svc.Create(ctx, admin, ProductInput{
		SKU:           "oil-filter",
		Name:          "Oil filter",
		Type:          models.ProductTypePart,
		SellingPrice:  decimal.RequireFromString("8.5"),
		StockQuantity: &stock,
		CategoryIDs:   &ids,
	})
	require.NoError(t, err)
	assert.Equal(t, "OIL-FILTER", res.Product.SKU)
	assert.Equal(t, []uint{filters.ID}, res.Product.CategoryIDs)
	require.NotNil(t, res.Categories)
	assert.False(t, res.Categories.Degraded)

	_, err = svc.Create(ctx, admin, ProductInput{SKU: "OIL-FILTER", Name: "dup", Type: models.ProductTypePart})
	assert.ErrorIs(t, err, apperr.ErrConflict)

	// the parent category matches through the tree view
	list, err := svc.List(ctx, ProductFilter{CategoryID: &engine.ID})
	require.NoError(t, err)
	require.Len(t, list, 1)

	name := "Oil filter XL"
	res, err = svc.Update(ctx, admin, "oil-filter", ProductUpdate{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, name, res.Product.Name)
	assert.Equal(t, 12, *res.Product.StockQuantity)
	assert.Nil(t, res.Categories)

	so := models.SupplierOrder{ProductID: "OIL-FILTER", AgentID: admin.ID, Quantity: 1, Status: models.SupplierOrderPending}
	require.NoError(t, db.Create(&so).Error)
	err = svc.Delete(ctx, admin, "OIL-FILTER")
	assert.ErrorIs(t, err, apperr.ErrConflict)

	require.NoError(t, db.Delete(&so).Error)
	require.NoError(t, svc.Delete(ctx, admin, "OIL-FILTER"))
	_, err = svc.Get(ctx, "OIL-FILTER")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestImportSkipsExistingSKUs(t *testing.T) {
	db := testutil.SetupDB(t)
	ctx := context.Background()
	admin := testutil.CreateUser(t, db, "admin@example.com", models.RoleAdmin)
	testutil.CreatePart(t, db, "P1", 3, "10")

	svc := NewProductService(db, catalog.NewSynchronizer(db, catalog.NewSQLRefresher(db)))
	report, err := svc.Import(ctx, admin, [][]string{
		{"sku", "name", "type", "brand", "purchase_price", "selling_price", "stock"},
		{"P1", "Existing", "part", "", "1", "2", "99"},
		{"P2", "New part", "part", "", "1", "2", "4"},
		{"P2", "Twice", "part", "", "1", "2", "4"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"P2"}, report.Created)
	assert.Equal(t, []string{"P1"}, report.Skipped)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, 4, report.Errors[0].Row)

	assert.Equal(t, 3, *testutil.Stock(t, db, "P1"))
	assert.Equal(t, 4, *testutil.Stock(t, db, "P2"))
}
