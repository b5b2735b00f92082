package orders

import (
	"regexp"
	"testing"

	"workshop-backend/internal/apperr"
	"workshop-backend/internal/inventory"
	"workshop-backend/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

var vat = models.DefaultVATMultiplier

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestTotalsEmptyOrder(t *testing.T) {
	net, gross := Totals(nil, vat)
	assert.True(t, net.IsZero())
	assert.True(t, gross.IsZero())
}

func TestTotalsSumsItemNet(t *testing.T) {
	items := []models.OrderItem{
		{NetAmount: dec("200")},
		{NetAmount: dec("59.97")},
	}
	net, gross := Totals(items, vat)
	assert.Equal(t, "259.97", net.String())
	assert.Equal(t, "330.16", gross.String())
}

func TestTotalsIdempotent(t *testing.T) {
	items := []models.OrderItem{{NetAmount: dec("12.34")}, {NetAmount: dec("0.01")}}
	n1, g1 := Totals(items, vat)
	n2, g2 := Totals(items, vat)
	assert.True(t, n1.Equal(n2))
	assert.True(t, g1.Equal(g2))
}

func TestPriceLine(t *testing.T) {
	item := models.OrderItem{Quantity: 2, UnitPrice: dec("100")}
	PriceLine(&item, vat)
	assert.Equal(t, "200", item.NetAmount.String())
	assert.Equal(t, "254", item.GrossAmount.String())

	item = models.OrderItem{Quantity: 3, UnitPrice: dec("0.333")}
	PriceLine(&item, vat)
	assert.Equal(t, "0.33", item.UnitPrice.String())
	assert.Equal(t, "0.99", item.NetAmount.String())
}

func TestStockDeltas(t *testing.T) {
	cases := []struct {
		name   string
		oldSKU string
		oldQty int
		newSKU string
		newQty int
		want   []inventory.Adjustment
	}{
		{"quantity up", "P1", 2, "P1", 5, []inventory.Adjustment{{SKU: "P1", Delta: -3}}},
		{"quantity down", "P1", 5, "P1", 1, []inventory.Adjustment{{SKU: "P1", Delta: 4}}},
		{"unchanged", "P1", 2, "P1", 2, nil},
		{"product swap", "P2", 2, "P1", 3, []inventory.Adjustment{{SKU: "P1", Delta: -3}, {SKU: "P2", Delta: 2}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, StockDeltas(tc.oldSKU, tc.oldQty, tc.newSKU, tc.newQty))
		})
	}
}

func TestDiscountedPrice(t *testing.T) {
	assert.Equal(t, "100", DiscountedPrice(dec("100"), decimal.Zero).String())
	assert.Equal(t, "90", DiscountedPrice(dec("100"), dec("10")).String())
	assert.Equal(t, "17.99", DiscountedPrice(dec("19.99"), dec("10")).String())
}

func TestNewOrderNumber(t *testing.T) {
	re := regexp.MustCompile(`^WO-[0-9A-F]{8}$`)
	a, b := NewOrderNumber(), NewOrderNumber()
	assert.Regexp(t, re, a)
	assert.Regexp(t, re, b)
	assert.NotEqual(t, a, b)
}

func TestDuplicateOrderMessage(t *testing.T) {
	direct := &models.Order{OrderNumber: "WO-0A1B2C3D"}
	err := duplicateOrder(direct)
	assert.ErrorIs(t, err, apperr.ErrConflict)
	assert.Contains(t, err.Error(), "order number WO-0A1B2C3D is already taken")
	assert.NotContains(t, err.Error(), "offer")

	offerID := uint(7)
	fromOffer := &models.Order{OrderNumber: "WO-0A1B2C3D", OfferID: &offerID}
	err = duplicateOrder(fromOffer)
	assert.ErrorIs(t, err, apperr.ErrConflict)
	assert.Contains(t, err.Error(), "offer 7")
	assert.Contains(t, err.Error(), "WO-0A1B2C3D")
}
