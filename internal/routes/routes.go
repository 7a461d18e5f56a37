package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/example/dinehub/internal/config"
	"github.com/example/dinehub/internal/handlers"
	"github.com/example/dinehub/internal/middleware"
	"github.com/example/dinehub/internal/otp"
	"github.com/example/dinehub/internal/services"
	"github.com/example/dinehub/internal/session"
	"github.com/example/dinehub/internal/storage"
)

// Register wires up all HTTP routes.
func Register(app *fiber.App, db *gorm.DB, rdb *redis.Client, mailer services.Mailer, cfg *config.Config) {
	registerOTP := otp.NewLedger(rdb, "otp:register", cfg.OTPExpires)
	resetOTP := otp.NewLedger(rdb, "otp:reset", cfg.OTPExpires)
	sessions := session.NewStore(rdb, "session", cfg.SessionExpires)
	proofs := storage.NewLocal(cfg.UploadDir)

	authHandler := handlers.NewAuthHandler(db, cfg, registerOTP, resetOTP, mailer, sessions)
	cartHandler := handlers.NewCartHandler(db)
	orderHandler := handlers.NewOrderHandler(db, cfg, proofs)

	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/request-otp", authHandler.RequestOTP)
	auth.Post("/verify-otp", authHandler.VerifyOTP)
	auth.Post("/login", authHandler.Login)
	auth.Post("/logout", authHandler.Logout)
	auth.Post("/forgot-password/request-otp", authHandler.ForgotPasswordRequestOTP)
	auth.Post("/forgot-password/reset", authHandler.ResetPassword)

	user := api.Group("/user")
	user.Post("/cart", cartHandler.AddItem)
	user.Get("/cart", cartHandler.GetCart)
	user.Post("/cart/update", cartHandler.UpdateItem)
	user.Post("/cart/remove", cartHandler.RemoveItem)
	user.Post("/placeOrder", orderHandler.PlaceOrder)

	// Order history requires a bearer token from login.
	protected := user.Group("", middleware.AuthMiddleware(cfg))
	protected.Get("/orders", orderHandler.ListOrders)
	protected.Get("/orders/:id", orderHandler.GetOrder)
}
