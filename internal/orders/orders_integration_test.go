package orders

import (
	"context"
	"sync"
	"testing"
	"time"

	"workshop-backend/internal/apperr"
	"workshop-backend/internal/lifecycle"
	"workshop-backend/internal/models"
	"workshop-backend/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	db       *gorm.DB
	admin    *models.User
	mechanic *models.User
	customer *models.User
	vehicle  *models.Vehicle
	offers   *OfferService
	orders   *OrderService
	items    *ItemService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.SetupDB(t)
	f := &fixture{
		db:       db,
		admin:    testutil.CreateUser(t, db, "admin@example.com", models.RoleAdmin),
		mechanic: testutil.CreateUser(t, db, "mech@example.com", models.RoleMechanic),
		customer: testutil.CreateUser(t, db, "cust@example.com", models.RoleCustomer),
	}
	f.vehicle = testutil.CreateVehicle(t, db, f.customer, "ABC123")
	f.offers = NewOfferService(db)
	f.orders = NewOrderService(db, vat)
	f.items = NewItemService(db, vat, f.orders)
	return f
}

func (f *fixture) emptyOrder(t *testing.T) *OrderView {
	t.Helper()
	order, err := f.orders.Create(context.Background(), f.admin, OrderInput{VehicleID: f.vehicle.ID})
	require.NoError(t, err)
	return order
}

func TestItemAddAndQuantityEdit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	testutil.CreatePart(t, f.db, "P1", 20, "100")
	order := f.emptyOrder(t)
	assert.True(t, order.NetAmount.IsZero())

	res, err := f.items.Create(ctx, f.mechanic, order.ID, ItemInput{SKU: "P1", Quantity: 2, UnitPrice: ptrDec("100")})
	require.NoError(t, err)
	assert.Equal(t, "200", res.Item.NetAmount.String())
	assert.Equal(t, "254", res.Item.GrossAmount.String())
	assert.Equal(t, "200", res.Order.NetAmount.String())
	assert.Equal(t, "254", res.Order.GrossAmount.String())
	assert.Equal(t, 18, *testutil.Stock(t, f.db, "P1"))

	qty := 5
	res, err = f.items.Update(ctx, f.mechanic, res.Item.ID, ItemUpdate{Quantity: &qty})
	require.NoError(t, err)
	assert.Equal(t, "500", res.Order.NetAmount.String())
	assert.Equal(t, "635", res.Order.GrossAmount.String())
	assert.Equal(t, 15, *testutil.Stock(t, f.db, "P1"))

	// recompute is idempotent
	first, err := f.orders.Recompute(ctx, f.admin, order.ID)
	require.NoError(t, err)
	second, err := f.orders.Recompute(ctx, f.admin, order.ID)
	require.NoError(t, err)
	assert.Equal(t, first.NetAmount.String(), second.NetAmount.String())
	assert.Equal(t, first.GrossAmount.String(), second.GrossAmount.String())

	// the order cannot go while the item exists
	err = f.orders.Delete(ctx, f.admin, order.ID)
	assert.ErrorIs(t, err, apperr.ErrConflict)

	del, err := f.items.Delete(ctx, f.mechanic, res.Item.ID)
	require.NoError(t, err)
	assert.True(t, del.Order.NetAmount.IsZero())
	assert.Equal(t, 20, *testutil.Stock(t, f.db, "P1"))

	require.NoError(t, f.orders.Delete(ctx, f.admin, order.ID))
}

func TestItemProductSwapMovesStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	testutil.CreatePart(t, f.db, "P1", 10, "10")
	testutil.CreatePart(t, f.db, "P2", 10, "20")
	order := f.emptyOrder(t)

	res, err := f.items.Create(ctx, f.mechanic, order.ID, ItemInput{SKU: "P1", Quantity: 3})
	require.NoError(t, err)
	assert.Equal(t, "10", res.Item.UnitPrice.String(), "defaults to the selling price")

	sku, qty := "P2", 4
	res, err = f.items.Update(ctx, f.mechanic, res.Item.ID, ItemUpdate{SKU: &sku, Quantity: &qty, UnitPrice: ptrDec("20")})
	require.NoError(t, err)
	assert.Equal(t, "80", res.Order.NetAmount.String())
	assert.Equal(t, 10, *testutil.Stock(t, f.db, "P1"))
	assert.Equal(t, 6, *testutil.Stock(t, f.db, "P2"))
}

func TestItemStockSumMatchesDeltas(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	testutil.CreatePart(t, f.db, "P1", 100, "1")
	order := f.emptyOrder(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.items.Create(ctx, f.mechanic, order.ID, ItemInput{SKU: "P1", Quantity: 2})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 84, *testutil.Stock(t, f.db, "P1"))
	got, err := f.orders.Get(ctx, f.admin, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "16", got.NetAmount.String())
	assert.Equal(t, 8, got.ItemCount)
}

func TestCompletedOrderIsFrozen(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	testutil.CreatePart(t, f.db, "P1", 5, "10")
	order := f.emptyOrder(t)

	res, err := f.items.Create(ctx, f.mechanic, order.ID, ItemInput{SKU: "P1", Quantity: 1})
	require.NoError(t, err)

	for _, st := range []models.OrderStatus{models.OrderInProgress, models.OrderCompleted} {
		_, err := f.orders.SetStatus(ctx, f.mechanic, order.ID, st)
		require.NoError(t, err)
	}

	_, err = f.items.Create(ctx, f.mechanic, order.ID, ItemInput{SKU: "P1", Quantity: 1})
	assert.ErrorIs(t, err, apperr.ErrValidationFailed)
	_, err = f.items.Delete(ctx, f.mechanic, res.Item.ID)
	assert.ErrorIs(t, err, apperr.ErrValidationFailed)
	assert.Equal(t, 4, *testutil.Stock(t, f.db, "P1"))

	_, err = f.orders.SetStatus(ctx, f.mechanic, order.ID, models.OrderInProgress)
	assert.ErrorIs(t, err, apperr.ErrValidationFailed)
}

func TestOfferToOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	offer, err := f.offers.Create(ctx, f.customer, OfferInput{
		VehicleID:        f.vehicle.ID,
		IssueDescription: "brakes squeal",
		Images:           []string{"https://img.example/1.jpg"},
	})
	require.NoError(t, err)
	assert.Equal(t, models.OfferReceived, offer.Status)
	assert.Equal(t, f.customer.ID, offer.CustomerID)
	assert.Equal(t, []string{"https://img.example/1.jpg"}, offer.Images)

	_, err = f.orders.CreateFromOffer(ctx, f.admin, offer.ID, FromOfferInput{})
	assert.ErrorIs(t, err, apperr.ErrValidationFailed, "received offers cannot become orders")

	offer, err = f.offers.SetStatus(ctx, f.admin, offer.ID, lifecycle.OfferChange{To: models.OfferUnderReview})
	require.NoError(t, err)
	require.NotNil(t, offer.AgentID)
	assert.Equal(t, f.admin.ID, *offer.AgentID)

	at := time.Now().Add(48 * time.Hour)
	offer, err = f.offers.SetStatus(ctx, f.admin, offer.ID, lifecycle.OfferChange{
		To:            models.OfferAccepted,
		AgentID:       &f.mechanic.ID,
		AppointmentAt: &at,
	})
	require.NoError(t, err)
	assert.Equal(t, models.OfferAccepted, offer.Status)

	order, err := f.orders.CreateFromOffer(ctx, f.admin, offer.ID, FromOfferInput{})
	require.NoError(t, err)
	require.NotNil(t, order.OfferID)
	assert.Equal(t, offer.ID, *order.OfferID)
	require.NotNil(t, order.MechanicID)
	assert.Equal(t, f.mechanic.ID, *order.MechanicID)
	assert.Regexp(t, `^WO-[0-9A-F]{8}$`, order.OrderNumber)

	_, err = f.orders.CreateFromOffer(ctx, f.admin, offer.ID, FromOfferInput{})
	assert.ErrorIs(t, err, apperr.ErrConflict)

	err = f.offers.Delete(ctx, f.admin, offer.ID)
	assert.ErrorIs(t, err, apperr.ErrConflict)

	got, err := f.offers.Get(ctx, f.customer, offer.ID)
	require.NoError(t, err)
	require.NotNil(t, got.OrderID)
	assert.Equal(t, order.ID, *got.OrderID)
}

func TestTerminalOfferIsFrozen(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	offer, err := f.offers.Create(ctx, f.customer, OfferInput{VehicleID: f.vehicle.ID, IssueDescription: "noise"})
	require.NoError(t, err)
	_, err = f.offers.SetStatus(ctx, f.admin, offer.ID, lifecycle.OfferChange{To: models.OfferRejected})
	require.NoError(t, err)

	comment := "too late"
	_, err = f.offers.Update(ctx, f.admin, offer.ID, OfferUpdate{AdminComment: &comment})
	assert.ErrorIs(t, err, apperr.ErrValidationFailed)

	_, err = f.offers.SetStatus(ctx, f.admin, offer.ID, lifecycle.OfferChange{To: models.OfferUnderReview})
	assert.ErrorIs(t, err, apperr.ErrValidationFailed)
}

func TestCustomersSeeOnlyTheirOwnRecords(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	other := testutil.CreateUser(t, f.db, "other@example.com", models.RoleCustomer)
	otherVehicle := testutil.CreateVehicle(t, f.db, other, "XYZ999")

	_, err := f.offers.Create(ctx, f.customer, OfferInput{VehicleID: otherVehicle.ID, IssueDescription: "x"})
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	mine := f.emptyOrder(t)
	theirs, err := f.orders.Create(ctx, f.admin, OrderInput{VehicleID: otherVehicle.ID})
	require.NoError(t, err)

	list, err := f.orders.List(ctx, f.customer, OrderFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, mine.ID, list[0].ID)

	_, err = f.orders.Get(ctx, f.customer, theirs.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func ptrDec(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}
