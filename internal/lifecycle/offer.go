// Package lifecycle holds the status machines of offers, orders and supplier
// orders. It is pure: callers load the record, apply a transition here and
// persist the result inside their own transaction.
package lifecycle

import (
	"time"

	"workshop-backend/internal/apperr"
	"workshop-backend/internal/models"
)

// OfferEdge is one allowed offer status change.
type OfferEdge struct {
	From models.OfferStatus
	To   models.OfferStatus
	Name string
	// an agent must be attached; the acting user is assigned when none is set
	NeedsAgent bool
	// an appointment timestamp must be present after the transition
	NeedsAppointment bool
}

var offerEdges = []OfferEdge{
	{From: models.OfferReceived, To: models.OfferUnderReview, Name: "review", NeedsAgent: true},
	{From: models.OfferUnderReview, To: models.OfferAccepted, Name: "accept", NeedsAgent: true, NeedsAppointment: true},
	{From: models.OfferAccepted, To: models.OfferScheduled, Name: "schedule", NeedsAgent: true, NeedsAppointment: true},
	{From: models.OfferScheduled, To: models.OfferAccepted, Name: "unschedule", NeedsAgent: true, NeedsAppointment: true},
	// the only edge that walks backwards into review
	{From: models.OfferAccepted, To: models.OfferUnderReview, Name: "re-review", NeedsAgent: true},
}

var offerStatuses = []models.OfferStatus{
	models.OfferReceived,
	models.OfferUnderReview,
	models.OfferAccepted,
	models.OfferScheduled,
	models.OfferRejected,
	models.OfferCancelled,
}

func ParseOfferStatus(s string) (models.OfferStatus, error) {
	for _, st := range offerStatuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", apperr.Validation("unknown offer status %q", s)
}

func OfferTerminal(s models.OfferStatus) bool {
	return s == models.OfferRejected || s == models.OfferCancelled
}

// FindOfferEdge returns the edge from→to. Rejected and Cancelled are reachable
// from every non-terminal status.
func FindOfferEdge(from, to models.OfferStatus) (OfferEdge, bool) {
	if OfferTerminal(from) {
		return OfferEdge{}, false
	}
	if OfferTerminal(to) {
		name := "reject"
		if to == models.OfferCancelled {
			name = "cancel"
		}
		return OfferEdge{From: from, To: to, Name: name}, true
	}
	for _, e := range offerEdges {
		if e.From == from && e.To == to {
			return e, true
		}
	}
	return OfferEdge{}, false
}

// OfferChange is the caller's requested transition.
type OfferChange struct {
	To            models.OfferStatus
	AgentID       *uint
	AppointmentAt *time.Time
}

// ApplyOffer validates and applies the change to offer. actorID becomes the
// agent when the edge needs one and none is attached or requested.
func ApplyOffer(offer *models.Offer, change OfferChange, actorID uint) (OfferEdge, error) {
	edge, ok := FindOfferEdge(offer.Status, change.To)
	if !ok {
		return OfferEdge{}, apperr.Validation("offer %d cannot move from %s to %s", offer.ID, offer.Status, change.To)
	}

	agent := offer.AgentID
	if change.AgentID != nil {
		agent = change.AgentID
	}
	if edge.NeedsAgent && agent == nil {
		id := actorID
		agent = &id
	}

	appointment := offer.AppointmentAt
	if change.AppointmentAt != nil {
		appointment = change.AppointmentAt
	}
	if edge.NeedsAppointment && appointment == nil {
		return OfferEdge{}, apperr.Validation("offer %d needs an appointment to move from %s to %s", offer.ID, offer.Status, change.To)
	}

	offer.Status = change.To
	offer.AgentID = agent
	offer.AppointmentAt = appointment
	return edge, nil
}

// CanConvertToOrder reports whether an order may be opened from the offer.
func CanConvertToOrder(s models.OfferStatus) bool {
	return s == models.OfferAccepted || s == models.OfferScheduled
}
