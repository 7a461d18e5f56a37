package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"math"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/dinehub/internal/config"
	"github.com/example/dinehub/internal/middleware"
	"github.com/example/dinehub/internal/models"
	"github.com/example/dinehub/internal/storage"
	"github.com/example/dinehub/internal/utils"
)

// totalTolerance absorbs float formatting noise when comparing a submitted
// total against the server-derived one.
const totalTolerance = 0.01

// OrderHandler manages order placement and order history.
type OrderHandler struct {
	db     *gorm.DB
	cfg    *config.Config
	proofs *storage.Local
}

// NewOrderHandler constructs an OrderHandler.
func NewOrderHandler(db *gorm.DB, cfg *config.Config, proofs *storage.Local) *OrderHandler {
	return &OrderHandler{db: db, cfg: cfg, proofs: proofs}
}

type orderItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// PlaceOrder converts the user's cart into an immutable order. The multipart
// form carries userId, total, an items JSON string, payment fields and an
// optional proofOfPayment file. Order creation and cart clearing run in one
// transaction, so a placed order always leaves an empty cart behind.
func (h *OrderHandler) PlaceOrder(c *fiber.Ctx) error {
	rawUserID := c.FormValue("userId")
	if rawUserID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "User ID is required.")
	}

	userID, err := uuid.Parse(rawUserID)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "User ID is required.")
	}

	var user models.User
	if err := h.db.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "User not found.")
		}
		return err
	}

	total, err := strconv.ParseFloat(c.FormValue("total"), 64)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Total must be a number.")
	}

	var items []orderItemRequest
	if err := json.Unmarshal([]byte(c.FormValue("items")), &items); err != nil || len(items) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "Items must be a non-empty JSON array.")
	}

	subtotal, err := h.verifyAgainstCart(userID, total)
	if err != nil {
		return err
	}

	// The proof file is optional at this layer; the client enforces presence.
	proofPath := ""
	if file, err := c.FormFile("proofOfPayment"); err == nil && file != nil {
		proofPath, err = h.proofs.SaveProof(file)
		if err != nil {
			return err
		}
	}

	order := models.Order{
		UserID: userID,
		UserDetails: models.OrderUserDetails{
			FirstName: user.FirstName,
			LastName:  user.LastName,
			Address:   user.Address,
			ContactNo: user.ContactNo,
			Email:     user.Email,
		},
		Status:             models.OrderStatusProcessing,
		PlacedAt:           time.Now(),
		Subtotal:           subtotal,
		TotalAmount:        total,
		PaymentMethod:      c.FormValue("payment[method]"),
		PaymentReference:   c.FormValue("payment[referenceNumber]"),
		ProofOfPaymentPath: proofPath,
	}

	for _, it := range items {
		productID, err := uuid.Parse(it.ProductID)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Items must reference valid products.")
		}
		quantity := it.Quantity
		if quantity < 1 {
			quantity = 1
		}
		order.Items = append(order.Items, models.OrderItem{
			ProductID: productID,
			Quantity:  quantity,
		})
	}

	txErr := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&order).Error; err != nil {
			return err
		}
		return tx.Where("user_id = ?", userID).Delete(&models.CartItem{}).Error
	})
	if txErr != nil {
		if proofPath != "" {
			if rmErr := h.proofs.Remove(proofPath); rmErr != nil {
				log.Printf("failed to remove orphaned proof %s: %v", proofPath, rmErr)
			}
		}
		return txErr
	}

	return c.JSON(fiber.Map{
		"success": true,
		"order":   order,
		"user":    user.Public(),
	})
}

// verifyAgainstCart re-derives the order total from the server-held cart and
// current product prices, rejecting a client total that diverges. Disabled via
// ORDER_VERIFY_TOTALS=false to fall back to trusting the submitted total, in
// which case the derived subtotal is still recorded.
func (h *OrderHandler) verifyAgainstCart(userID uuid.UUID, total float64) (float64, error) {
	var cartItems []models.CartItem
	if err := h.db.Preload("Product").Where("user_id = ?", userID).Find(&cartItems).Error; err != nil {
		return 0, err
	}

	subtotal := 0.0
	for _, item := range cartItems {
		if item.Product != nil {
			subtotal += item.Product.Price * float64(item.Quantity)
		}
	}

	if h.cfg.VerifyOrderTotals && math.Abs(subtotal-total) > totalTolerance {
		return 0, fiber.NewError(fiber.StatusBadRequest, "Order total does not match cart contents.")
	}

	return subtotal, nil
}

// ListOrders returns the authenticated user's order history, newest first.
func (h *OrderHandler) ListOrders(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	pg := utils.ParsePagination(c)
	query := h.db.Model(&models.Order{}).Where("user_id = ?", userID)

	var totalCount int64
	if err := query.Count(&totalCount).Error; err != nil {
		return err
	}

	orders := make([]models.Order, 0)
	if err := query.Preload("Items").
		Order("placed_at desc").
		Limit(pg.Limit).Offset(pg.Offset).
		Find(&orders).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"orders":  orders,
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    totalCount,
		},
	})
}

// GetOrder returns a single order belonging to the authenticated user.
func (h *OrderHandler) GetOrder(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var order models.Order
	if err := h.db.Preload("Items").
		First(&order, "id = ? AND user_id = ?", id, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "Order not found.")
		}
		return err
	}

	return c.JSON(fiber.Map{"success": true, "order": order})
}
