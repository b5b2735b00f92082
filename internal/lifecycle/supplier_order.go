package lifecycle

import (
	"workshop-backend/internal/apperr"
	"workshop-backend/internal/models"
)

func ParseSupplierOrderStatus(s string) (models.SupplierOrderStatus, error) {
	switch st := models.SupplierOrderStatus(s); st {
	case models.SupplierOrderPending, models.SupplierOrderReceived, models.SupplierOrderCancelled:
		return st, nil
	}
	return "", apperr.Validation("unknown supplier order status %q", s)
}

// CheckSupplierOrder validates from→to. Saving the current status again is
// allowed and changes nothing.
func CheckSupplierOrder(from, to models.SupplierOrderStatus) error {
	if from == to {
		return nil
	}
	if from == models.SupplierOrderPending && (to == models.SupplierOrderReceived || to == models.SupplierOrderCancelled) {
		return nil
	}
	return apperr.Validation("supplier order cannot move from %s to %s", from, to)
}

// CreditsStock is true only for the transition that newly enters Received.
func CreditsStock(from, to models.SupplierOrderStatus) bool {
	return from != models.SupplierOrderReceived && to == models.SupplierOrderReceived
}
