package lifecycle

import (
	"testing"
	"time"

	"workshop-backend/internal/apperr"
	"workshop-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uintPtr(v uint) *uint { return &v }

func TestOfferReviewAssignsActorAsAgent(t *testing.T) {
	offer := &models.Offer{ID: 1, Status: models.OfferReceived}

	edge, err := ApplyOffer(offer, OfferChange{To: models.OfferUnderReview}, 42)
	require.NoError(t, err)
	assert.Equal(t, "review", edge.Name)
	assert.Equal(t, models.OfferUnderReview, offer.Status)
	require.NotNil(t, offer.AgentID)
	assert.Equal(t, uint(42), *offer.AgentID)
}

func TestOfferReviewKeepsExistingAgent(t *testing.T) {
	offer := &models.Offer{ID: 1, Status: models.OfferReceived, AgentID: uintPtr(5)}

	_, err := ApplyOffer(offer, OfferChange{To: models.OfferUnderReview}, 42)
	require.NoError(t, err)
	assert.Equal(t, uint(5), *offer.AgentID)
}

func TestOfferAcceptNeedsAppointment(t *testing.T) {
	offer := &models.Offer{ID: 3, Status: models.OfferUnderReview, AgentID: uintPtr(5)}

	_, err := ApplyOffer(offer, OfferChange{To: models.OfferAccepted}, 5)
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidationFailed, apperr.KindOf(err))
	assert.Equal(t, models.OfferUnderReview, offer.Status, "failed transition must not mutate")

	at := time.Date(2026, 11, 2, 9, 0, 0, 0, time.UTC)
	_, err = ApplyOffer(offer, OfferChange{To: models.OfferAccepted, AppointmentAt: &at}, 5)
	require.NoError(t, err)
	assert.Equal(t, models.OfferAccepted, offer.Status)
	assert.Equal(t, at, *offer.AppointmentAt)
}

func TestOfferReReviewEdge(t *testing.T) {
	at := time.Now()
	offer := &models.Offer{ID: 4, Status: models.OfferAccepted, AgentID: uintPtr(5), AppointmentAt: &at}

	edge, err := ApplyOffer(offer, OfferChange{To: models.OfferUnderReview}, 5)
	require.NoError(t, err)
	assert.Equal(t, "re-review", edge.Name)
}

func TestOfferInvalidTransitionsNameBothStatuses(t *testing.T) {
	offer := &models.Offer{ID: 9, Status: models.OfferReceived}

	_, err := ApplyOffer(offer, OfferChange{To: models.OfferScheduled}, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "received")
	assert.Contains(t, err.Error(), "scheduled")

	_, err = ApplyOffer(offer, OfferChange{To: models.OfferReceived}, 1)
	assert.Error(t, err, "same status is not a transition")
}

func TestOfferTerminalStates(t *testing.T) {
	for _, from := range []models.OfferStatus{models.OfferReceived, models.OfferUnderReview, models.OfferAccepted, models.OfferScheduled} {
		_, ok := FindOfferEdge(from, models.OfferRejected)
		assert.True(t, ok, "%s -> rejected", from)
		_, ok = FindOfferEdge(from, models.OfferCancelled)
		assert.True(t, ok, "%s -> cancelled", from)
	}

	for _, from := range []models.OfferStatus{models.OfferRejected, models.OfferCancelled} {
		for _, to := range offerStatuses {
			_, ok := FindOfferEdge(from, to)
			assert.False(t, ok, "%s -> %s", from, to)
		}
	}
}

func TestParseOfferStatus(t *testing.T) {
	st, err := ParseOfferStatus("scheduled")
	require.NoError(t, err)
	assert.Equal(t, models.OfferScheduled, st)

	_, err = ParseOfferStatus("done")
	assert.Error(t, err)
}

func TestCanConvertToOrder(t *testing.T) {
	assert.True(t, CanConvertToOrder(models.OfferAccepted))
	assert.True(t, CanConvertToOrder(models.OfferScheduled))
	assert.False(t, CanConvertToOrder(models.OfferUnderReview))
	assert.False(t, CanConvertToOrder(models.OfferRejected))
}

func TestOrderTransitions(t *testing.T) {
	order := &models.Order{OrderNumber: "WO-1", Status: models.OrderCreated}

	require.NoError(t, ApplyOrder(order, models.OrderInProgress))
	require.NoError(t, ApplyOrder(order, models.OrderAwaitingParts))
	require.NoError(t, ApplyOrder(order, models.OrderInProgress))
	require.NoError(t, ApplyOrder(order, models.OrderCompleted))
	assert.False(t, OrderEditable(order.Status))

	err := ApplyOrder(order, models.OrderInProgress)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "completed")

	_, err = ParseOrderStatus("shipped")
	assert.Error(t, err)
}

func TestSupplierOrderTransitions(t *testing.T) {
	assert.NoError(t, CheckSupplierOrder(models.SupplierOrderPending, models.SupplierOrderReceived))
	assert.NoError(t, CheckSupplierOrder(models.SupplierOrderReceived, models.SupplierOrderReceived))
	assert.Error(t, CheckSupplierOrder(models.SupplierOrderReceived, models.SupplierOrderPending))
	assert.Error(t, CheckSupplierOrder(models.SupplierOrderCancelled, models.SupplierOrderReceived))

	assert.True(t, CreditsStock(models.SupplierOrderPending, models.SupplierOrderReceived))
	assert.False(t, CreditsStock(models.SupplierOrderReceived, models.SupplierOrderReceived))
	assert.False(t, CreditsStock(models.SupplierOrderPending, models.SupplierOrderCancelled))
}
