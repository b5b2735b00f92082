package orders

import (
	"workshop-backend/internal/models"

	"github.com/shopspring/decimal"
)

const timeLayout = "2006-01-02 15:04:05"

// OfferView is the flat read projection of an offer.
type OfferView struct {
	ID               uint               `json:"id"`
	CustomerID       uint               `json:"customer_id"`
	CustomerName     string             `json:"customer_name"`
	VehicleID        uint               `json:"vehicle_id"`
	LicensePlate     string             `json:"license_plate"`
	RequestedAt      string             `json:"requested_at"`
	IssueDescription string             `json:"issue_description"`
	Status           models.OfferStatus `json:"status"`
	StatusName       string             `json:"status_name"`
	AgentID          *uint              `json:"agent_id"`
	AgentName        string             `json:"agent_name"`
	AppointmentAt    *string            `json:"appointment_at"`
	AdminComment     string             `json:"admin_comment"`
	Images           []string           `json:"images"`
	OrderID          *uint              `json:"order_id"`
}

// OrderView is the flat read projection of an order.
type OrderView struct {
	ID           uint               `json:"id"`
	OrderNumber  string             `json:"order_number"`
	CustomerID   uint               `json:"customer_id"`
	CustomerName string             `json:"customer_name"`
	VehicleID    uint               `json:"vehicle_id"`
	LicensePlate string             `json:"license_plate"`
	OfferID      *uint              `json:"offer_id"`
	MechanicID   *uint              `json:"mechanic_id"`
	MechanicName string             `json:"mechanic_name"`
	Status       models.OrderStatus `json:"status"`
	StatusName   string             `json:"status_name"`
	Comment      string             `json:"comment"`
	NetAmount    decimal.Decimal    `json:"net_amount"`
	GrossAmount  decimal.Decimal    `json:"gross_amount"`
	OrderDate    string             `json:"order_date"`
	ItemCount    int                `json:"item_count"`
}

// ItemView is the flat read projection of an order item.
type ItemView struct {
	ID          uint            `json:"id"`
	OrderID     uint            `json:"order_id"`
	SKU         string          `json:"sku"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	NetAmount   decimal.Decimal `json:"net_amount"`
	GrossAmount decimal.Decimal `json:"gross_amount"`
	Comment     string          `json:"comment"`
}

func newOfferView(o *models.Offer, orderID *uint) OfferView {
	v := OfferView{
		ID:               o.ID,
		CustomerID:       o.CustomerID,
		VehicleID:        o.VehicleID,
		RequestedAt:      o.RequestedAt.Format(timeLayout),
		IssueDescription: o.IssueDescription,
		Status:           o.Status,
		StatusName:       models.StatusName(models.StatusScopeOffer, string(o.Status)),
		AgentID:          o.AgentID,
		AdminComment:     o.AdminComment,
		Images:           make([]string, 0, len(o.Images)),
		OrderID:          orderID,
	}
	if o.Customer != nil {
		v.CustomerName = o.Customer.Name
	}
	if o.Vehicle != nil {
		v.LicensePlate = o.Vehicle.LicensePlate
	}
	if o.Agent != nil {
		v.AgentName = o.Agent.Name
	}
	if o.AppointmentAt != nil {
		s := o.AppointmentAt.Format(timeLayout)
		v.AppointmentAt = &s
	}
	for _, img := range o.Images {
		v.Images = append(v.Images, img.URL)
	}
	return v
}

func newOrderView(o *models.Order, itemCount int) OrderView {
	v := OrderView{
		ID:          o.ID,
		OrderNumber: o.OrderNumber,
		CustomerID:  o.CustomerID,
		VehicleID:   o.VehicleID,
		OfferID:     o.OfferID,
		MechanicID:  o.MechanicID,
		Status:      o.Status,
		StatusName:  models.StatusName(models.StatusScopeOrder, string(o.Status)),
		Comment:     o.Comment,
		NetAmount:   o.NetAmount,
		GrossAmount: o.GrossAmount,
		OrderDate:   o.OrderDate.Format(timeLayout),
		ItemCount:   itemCount,
	}
	if o.Customer != nil {
		v.CustomerName = o.Customer.Name
	}
	if o.Vehicle != nil {
		v.LicensePlate = o.Vehicle.LicensePlate
	}
	if o.Mechanic != nil {
		v.MechanicName = o.Mechanic.Name
	}
	return v
}

func newItemView(it *models.OrderItem) ItemView {
	v := ItemView{
		ID:          it.ID,
		OrderID:     it.OrderID,
		SKU:         it.ProductID,
		Quantity:    it.Quantity,
		UnitPrice:   it.UnitPrice,
		NetAmount:   it.NetAmount,
		GrossAmount: it.GrossAmount,
		Comment:     it.Comment,
	}
	if it.Product != nil {
		v.ProductName = it.Product.Name
	}
	return v
}
