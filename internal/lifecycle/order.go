package lifecycle

import (
	"workshop-backend/internal/apperr"
	"workshop-backend/internal/models"
)

var orderEdges = map[models.OrderStatus][]models.OrderStatus{
	models.OrderCreated:       {models.OrderInProgress},
	models.OrderInProgress:    {models.OrderAwaitingParts, models.OrderCompleted},
	models.OrderAwaitingParts: {models.OrderInProgress},
	models.OrderCompleted:     nil,
}

func ParseOrderStatus(s string) (models.OrderStatus, error) {
	st := models.OrderStatus(s)
	if _, ok := orderEdges[st]; !ok {
		return "", apperr.Validation("unknown order status %q", s)
	}
	return st, nil
}

func OrderTransitionAllowed(from, to models.OrderStatus) bool {
	for _, next := range orderEdges[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ApplyOrder moves the order to status to, or reports why it cannot.
func ApplyOrder(order *models.Order, to models.OrderStatus) error {
	if !OrderTransitionAllowed(order.Status, to) {
		return apperr.Validation("order %s cannot move from %s to %s", order.OrderNumber, order.Status, to)
	}
	order.Status = to
	return nil
}

// OrderEditable reports whether items and details of the order may change.
func OrderEditable(s models.OrderStatus) bool {
	return s != models.OrderCompleted
}
