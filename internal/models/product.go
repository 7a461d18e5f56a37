package models

// Product is a menu item. The ordering core only reads products to join cart
// lines with current details and to verify order totals; menu management lives
// in the admin tooling.
type Product struct {
	BaseModel
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Image       string  `json:"image"`
	Category    string  `json:"category"`
	Status      string  `gorm:"default:available" json:"status"`
}
