package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderStatusProcessing is the status every new order starts in. Later
// transitions are handled by kitchen-side tooling, not this service.
const OrderStatusProcessing = "processing"

// OrderUserDetails is the contact snapshot frozen onto an order at placement
// time, so later profile edits never alter a placed order.
type OrderUserDetails struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Address   string `json:"address"`
	ContactNo string `json:"contact_no"`
	Email     string `json:"email"`
}

// Order is an immutable record created from a cart plus payment evidence.
type Order struct {
	BaseModel
	UserID             uuid.UUID        `gorm:"type:uuid;index" json:"user_id"`
	UserDetails        OrderUserDetails `gorm:"embedded;embeddedPrefix:user_" json:"user_details"`
	Status             string           `json:"status"`
	PlacedAt           time.Time        `json:"placed_at"`
	Subtotal           float64          `json:"subtotal"`
	TotalAmount        float64          `json:"total_amount"`
	PaymentMethod      string           `json:"payment_method"`
	PaymentReference   string           `json:"payment_reference"`
	ProofOfPaymentPath string           `json:"proof_of_payment_path"`
	Items              []OrderItem      `json:"items,omitempty"`
}

// OrderItem is a line copied from the cart when the order was placed.
type OrderItem struct {
	BaseModel
	OrderID   uuid.UUID `gorm:"type:uuid;index" json:"order_id"`
	ProductID uuid.UUID `gorm:"type:uuid" json:"product_id"`
	Quantity  int       `json:"quantity"`
}
