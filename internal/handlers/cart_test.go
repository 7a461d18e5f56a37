package handlers_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/dinehub/internal/models"
)

func cartOf(t *testing.T, body map[string]any) []any {
	t.Helper()
	cart, ok := body["cart"].([]any)
	require.True(t, ok, "response has no cart array: %v", body)
	return cart
}

func TestAddItem_MergesDuplicateLines(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "jamie@example.com", "pw123456", true)
	product := env.seedProduct(t, "Adobo Rice Bowl", 100)

	status, body := env.postJSON(t, "/api/user/cart", map[string]any{
		"userId":    user.ID.String(),
		"productId": product.ID.String(),
		"quantity":  1,
	})
	require.Equal(t, http.StatusOK, status)
	require.Len(t, cartOf(t, body), 1)

	status, body = env.postJSON(t, "/api/user/cart", map[string]any{
		"userId":    user.ID.String(),
		"productId": product.ID.String(),
		"quantity":  2,
	})
	require.Equal(t, http.StatusOK, status)

	cart := cartOf(t, body)
	require.Len(t, cart, 1, "duplicate add must merge, not append")
	line := cart[0].(map[string]any)
	assert.Equal(t, float64(3), line["quantity"])

	var count int64
	require.NoError(t, env.db.Model(&models.CartItem{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestAddItem_DefaultsQuantityToOne(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "jamie@example.com", "pw123456", true)
	product := env.seedProduct(t, "Halo-Halo", 75)

	status, body := env.postJSON(t, "/api/user/cart", map[string]any{
		"userId":    user.ID.String(),
		"productId": product.ID.String(),
	})
	require.Equal(t, http.StatusOK, status)

	line := cartOf(t, body)[0].(map[string]any)
	assert.Equal(t, float64(1), line["quantity"])
}

func TestAddItem_MissingIDs(t *testing.T) {
	env := newTestEnv(t)

	status, resp := env.postJSON(t, "/api/user/cart", map[string]any{
		"productId": "",
		"userId":    "",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "User ID and product ID are required.", resp["message"])
}

func TestAddItem_UnknownProduct(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "jamie@example.com", "pw123456", true)

	status, resp := env.postJSON(t, "/api/user/cart", map[string]any{
		"userId":    user.ID.String(),
		"productId": "3f1a8a6a-1111-4222-8333-444455556666",
	})
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Product not found.", resp["message"])
}

func TestGetCart_EmptyWhenNoCartExists(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "jamie@example.com", "pw123456", true)

	status, body := env.get(t, fmt.Sprintf("/api/user/cart?userId=%s", user.ID), nil)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, cartOf(t, body))
}

func TestGetCart_JoinsCurrentProductDetails(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "jamie@example.com", "pw123456", true)
	product := env.seedProduct(t, "Sinigang", 180)

	status, _ := env.postJSON(t, "/api/user/cart", map[string]any{
		"userId":    user.ID.String(),
		"productId": product.ID.String(),
		"quantity":  2,
	})
	require.Equal(t, http.StatusOK, status)

	// Price changes after adding are reflected in the cart view.
	require.NoError(t, env.db.Model(product).Update("price", 200).Error)

	status, body := env.get(t, fmt.Sprintf("/api/user/cart?userId=%s", user.ID), nil)
	require.Equal(t, http.StatusOK, status)

	line := cartOf(t, body)[0].(map[string]any)
	joined := line["product"].(map[string]any)
	assert.Equal(t, "Sinigang", joined["name"])
	assert.Equal(t, float64(200), joined["price"])
}

func TestUpdateItem_IncreaseAddsOne(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "jamie@example.com", "pw123456", true)
	product := env.seedProduct(t, "Lumpia", 60)

	status, _ := env.postJSON(t, "/api/user/cart", map[string]any{
		"userId":    user.ID.String(),
		"productId": product.ID.String(),
		"quantity":  2,
	})
	require.Equal(t, http.StatusOK, status)

	status, body := env.postJSON(t, "/api/user/cart/update", map[string]any{
		"userId":    user.ID.String(),
		"productId": product.ID.String(),
		"action":    "increase",
	})
	require.Equal(t, http.StatusOK, status)

	line := cartOf(t, body)[0].(map[string]any)
	assert.Equal(t, float64(3), line["quantity"])
}

func TestUpdateItem_DecreaseFloorsAtOne(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "jamie@example.com", "pw123456", true)
	product := env.seedProduct(t, "Lumpia", 60)

	status, _ := env.postJSON(t, "/api/user/cart", map[string]any{
		"userId":    user.ID.String(),
		"productId": product.ID.String(),
		"quantity":  1,
	})
	require.Equal(t, http.StatusOK, status)

	// Decreasing a quantity-1 line leaves it at 1, never 0.
	status, body := env.postJSON(t, "/api/user/cart/update", map[string]any{
		"userId":    user.ID.String(),
		"productId": product.ID.String(),
		"action":    "decrease",
	})
	require.Equal(t, http.StatusOK, status)

	cart := cartOf(t, body)
	require.Len(t, cart, 1)
	assert.Equal(t, float64(1), cart[0].(map[string]any)["quantity"])
}

func TestUpdateItem_MissingLine(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "jamie@example.com", "pw123456", true)

	status, resp := env.postJSON(t, "/api/user/cart/update", map[string]any{
		"userId":    user.ID.String(),
		"productId": "3f1a8a6a-1111-4222-8333-444455556666",
		"action":    "increase",
	})
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Cart item not found.", resp["message"])
}

func TestUpdateItem_RejectsUnknownAction(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "jamie@example.com", "pw123456", true)
	product := env.seedProduct(t, "Lumpia", 60)

	status, _ := env.postJSON(t, "/api/user/cart", map[string]any{
		"userId":    user.ID.String(),
		"productId": product.ID.String(),
	})
	require.Equal(t, http.StatusOK, status)

	status, _ = env.postJSON(t, "/api/user/cart/update", map[string]any{
		"userId":    user.ID.String(),
		"productId": product.ID.String(),
		"action":    "double",
	})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestRemoveItem_AbsentLineIsNoOp(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "jamie@example.com", "pw123456", true)
	kept := env.seedProduct(t, "Kare-Kare", 250)
	other := env.seedProduct(t, "Halo-Halo", 75)

	status, _ := env.postJSON(t, "/api/user/cart", map[string]any{
		"userId":    user.ID.String(),
		"productId": kept.ID.String(),
	})
	require.Equal(t, http.StatusOK, status)

	status, body := env.postJSON(t, "/api/user/cart/remove", map[string]any{
		"userId":    user.ID.String(),
		"productId": other.ID.String(),
	})
	require.Equal(t, http.StatusOK, status)

	cart := cartOf(t, body)
	require.Len(t, cart, 1, "removing an absent line must leave the cart unchanged")
	assert.Equal(t, kept.ID.String(), cart[0].(map[string]any)["product_id"])
}

func TestRemoveItem_RemovesLine(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "jamie@example.com", "pw123456", true)
	product := env.seedProduct(t, "Kare-Kare", 250)

	status, _ := env.postJSON(t, "/api/user/cart", map[string]any{
		"userId":    user.ID.String(),
		"productId": product.ID.String(),
	})
	require.Equal(t, http.StatusOK, status)

	status, body := env.postJSON(t, "/api/user/cart/remove", map[string]any{
		"userId":    user.ID.String(),
		"productId": product.ID.String(),
	})
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, cartOf(t, body))
}

func TestRemoveItem_NoCart(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "jamie@example.com", "pw123456", true)

	status, resp := env.postJSON(t, "/api/user/cart/remove", map[string]any{
		"userId":    user.ID.String(),
		"productId": "3f1a8a6a-1111-4222-8333-444455556666",
	})
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Cart not found.", resp["message"])
}
