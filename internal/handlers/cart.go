package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/dinehub/internal/models"
)

// CartHandler manages the per-user cart endpoints.
type CartHandler struct {
	db *gorm.DB
}

// NewCartHandler constructs a CartHandler.
func NewCartHandler(db *gorm.DB) *CartHandler {
	return &CartHandler{db: db}
}

type addItemRequest struct {
	UserID    string `json:"userId"`
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// AddItem merges a product into the user's cart. Adding a product already in
// the cart increments its quantity; the upsert is a single statement so
// concurrent adds to the same line cannot lose increments.
func (h *CartHandler) AddItem(c *fiber.Ctx) error {
	var req addItemRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.UserID == "" || req.ProductID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "User ID and product ID are required.")
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "User ID and product ID are required.")
	}
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "User ID and product ID are required.")
	}

	quantity := req.Quantity
	if quantity < 1 {
		quantity = 1
	}

	var product models.Product
	if err := h.db.First(&product, "id = ?", productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "Product not found.")
		}
		return err
	}

	item := models.CartItem{
		UserID:    userID,
		ProductID: productID,
		Quantity:  quantity,
	}

	err = h.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"quantity":   gorm.Expr("cart_items.quantity + ?", quantity),
			"updated_at": time.Now(),
		}),
	}).Create(&item).Error
	if err != nil {
		return err
	}

	return h.respondWithCart(c, userID)
}

// GetCart returns the cart lines joined with current product details. Product
// data is not frozen at add time, so price or name changes show up here. An
// absent cart is an empty list, not an error.
func (h *CartHandler) GetCart(c *fiber.Ctx) error {
	rawID := c.Query("userId")
	if rawID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "User ID is required.")
	}

	userID, err := uuid.Parse(rawID)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "User ID is required.")
	}

	return h.respondWithCart(c, userID)
}

type updateItemRequest struct {
	UserID    string `json:"userId"`
	ProductID string `json:"productId"`
	Action    string `json:"action"`
}

// UpdateItem adjusts a line's quantity by one. Decrease floors at 1 and never
// removes the line; removal is a separate, explicit operation.
func (h *CartHandler) UpdateItem(c *fiber.Ctx) error {
	var req updateItemRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.UserID == "" || req.ProductID == "" || req.Action == "" {
		return fiber.NewError(fiber.StatusBadRequest, "User ID, product ID and action are required.")
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "User ID, product ID and action are required.")
	}
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "User ID, product ID and action are required.")
	}

	var item models.CartItem
	if err := h.db.Where("user_id = ? AND product_id = ?", userID, productID).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "Cart item not found.")
		}
		return err
	}

	query := h.db.Model(&models.CartItem{}).Where("user_id = ? AND product_id = ?", userID, productID)

	switch req.Action {
	case "increase":
		err = query.UpdateColumn("quantity", gorm.Expr("quantity + 1")).Error
	case "decrease":
		// The extra predicate makes the floor atomic: a line already at 1 is
		// simply left untouched.
		err = query.Where("quantity > 1").
			UpdateColumn("quantity", gorm.Expr("quantity - 1")).Error
	default:
		return fiber.NewError(fiber.StatusBadRequest, "Action must be 'increase' or 'decrease'.")
	}
	if err != nil {
		return err
	}

	return h.respondWithCart(c, userID)
}

type removeItemRequest struct {
	UserID    string `json:"userId"`
	ProductID string `json:"productId"`
}

// RemoveItem filters a product out of the cart. Removing a product that is
// not in an existing cart succeeds and leaves the cart unchanged.
func (h *CartHandler) RemoveItem(c *fiber.Ctx) error {
	var req removeItemRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.UserID == "" || req.ProductID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "User ID and product ID are required.")
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "User ID and product ID are required.")
	}
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "User ID and product ID are required.")
	}

	var count int64
	if err := h.db.Model(&models.CartItem{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return fiber.NewError(fiber.StatusNotFound, "Cart not found.")
	}

	if err := h.db.Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&models.CartItem{}).Error; err != nil {
		return err
	}

	return h.respondWithCart(c, userID)
}

func (h *CartHandler) respondWithCart(c *fiber.Ctx, userID uuid.UUID) error {
	items := make([]models.CartItem, 0)
	if err := h.db.Preload("Product").
		Where("user_id = ?", userID).
		Order("created_at asc").
		Find(&items).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"cart":    items,
	})
}
