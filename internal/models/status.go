package models

type StatusScope string

const (
	StatusScopeOffer         StatusScope = "offer"
	StatusScopeOrder         StatusScope = "order"
	StatusScopeSupplierOrder StatusScope = "supplier_order"
)

type OfferStatus string

const (
	OfferReceived    OfferStatus = "received"
	OfferUnderReview OfferStatus = "under_review"
	OfferAccepted    OfferStatus = "accepted"
	OfferScheduled   OfferStatus = "scheduled"
	OfferRejected    OfferStatus = "rejected"
	OfferCancelled   OfferStatus = "cancelled"
)

type OrderStatus string

const (
	OrderCreated       OrderStatus = "created"
	OrderInProgress    OrderStatus = "in_progress"
	OrderAwaitingParts OrderStatus = "awaiting_parts"
	OrderCompleted     OrderStatus = "completed"
)

type SupplierOrderStatus string

const (
	SupplierOrderPending   SupplierOrderStatus = "pending"
	SupplierOrderReceived  SupplierOrderStatus = "received"
	SupplierOrderCancelled SupplierOrderStatus = "cancelled"
)

// Status is the statuses reference table; Name is what read views display.
type Status struct {
	ID    uint        `gorm:"primaryKey" json:"id"`
	Scope StatusScope `gorm:"size:20;not null;uniqueIndex:idx_status_scope_code" json:"scope"`
	Code  string      `gorm:"size:30;not null;uniqueIndex:idx_status_scope_code" json:"code"`
	Name  string      `gorm:"size:60;not null" json:"name"`
}

var DefaultStatuses = []Status{
	{Scope: StatusScopeOffer, Code: string(OfferReceived), Name: "Received"},
	{Scope: StatusScopeOffer, Code: string(OfferUnderReview), Name: "Under review"},
	{Scope: StatusScopeOffer, Code: string(OfferAccepted), Name: "Accepted, waiting for schedule"},
	{Scope: StatusScopeOffer, Code: string(OfferScheduled), Name: "Scheduled"},
	{Scope: StatusScopeOffer, Code: string(OfferRejected), Name: "Rejected"},
	{Scope: StatusScopeOffer, Code: string(OfferCancelled), Name: "Cancelled"},
	{Scope: StatusScopeOrder, Code: string(OrderCreated), Name: "Created"},
	{Scope: StatusScopeOrder, Code: string(OrderInProgress), Name: "In progress"},
	{Scope: StatusScopeOrder, Code: string(OrderAwaitingParts), Name: "Awaiting parts"},
	{Scope: StatusScopeOrder, Code: string(OrderCompleted), Name: "Completed"},
	{Scope: StatusScopeSupplierOrder, Code: string(SupplierOrderPending), Name: "Pending"},
	{Scope: StatusScopeSupplierOrder, Code: string(SupplierOrderReceived), Name: "Received"},
	{Scope: StatusScopeSupplierOrder, Code: string(SupplierOrderCancelled), Name: "Cancelled"},
}

// StatusName returns the display name of a status code, or the code itself.
func StatusName(scope StatusScope, code string) string {
	for _, s := range DefaultStatuses {
		if s.Scope == scope && s.Code == code {
			return s.Name
		}
	}
	return code
}
