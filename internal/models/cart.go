package models

import "github.com/google/uuid"

// CartItem is one line of a user's cart. A product appears at most once per
// user; repeated adds increment Quantity instead of inserting a second row,
// enforced by the composite unique index.
type CartItem struct {
	BaseModel
	UserID    uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_cart_user_product" json:"user_id"`
	ProductID uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_cart_user_product" json:"product_id"`
	Product   *Product  `json:"product,omitempty"`
	Quantity  int       `json:"quantity"`
}
