package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/dinehub/internal/config"
	"github.com/example/dinehub/internal/models"
	"github.com/example/dinehub/internal/otp"
	"github.com/example/dinehub/internal/services"
	"github.com/example/dinehub/internal/session"
	"github.com/example/dinehub/internal/utils"
)

// AuthHandler bundles dependencies for the OTP-gated registration, login and
// password-reset endpoints.
type AuthHandler struct {
	db          *gorm.DB
	cfg         *config.Config
	registerOTP *otp.Ledger
	resetOTP    *otp.Ledger
	mailer      services.Mailer
	sessions    *session.Store
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(db *gorm.DB, cfg *config.Config, registerOTP, resetOTP *otp.Ledger, mailer services.Mailer, sessions *session.Store) *AuthHandler {
	return &AuthHandler{
		db:          db,
		cfg:         cfg,
		registerOTP: registerOTP,
		resetOTP:    resetOTP,
		mailer:      mailer,
		sessions:    sessions,
	}
}

// registrationPayload is the candidate user held in the OTP ledger between
// request-otp and verify-otp. The password stays plaintext only inside this
// short-lived entry; it is hashed before anything is persisted.
type registrationPayload struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Address   string `json:"address"`
	ContactNo string `json:"contactNo"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// RequestOTP validates the registration payload, issues a 6-digit code keyed
// by email and mails it. A failed send rolls the issued code back so no
// partial state survives.
func (h *AuthHandler) RequestOTP(c *fiber.Ctx) error {
	var req registrationPayload
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	req.Email = normalizeEmail(req.Email)

	if req.FirstName == "" || req.LastName == "" || req.Address == "" ||
		req.ContactNo == "" || req.Email == "" || req.Password == "" {
		return fiber.NewError(fiber.StatusBadRequest, "All registration fields are required.")
	}

	var existing models.User
	if err := h.db.Where("email = ?", req.Email).First(&existing).Error; err == nil {
		return fiber.NewError(fiber.StatusBadRequest, "Email already registered.")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	code, err := h.registerOTP.Issue(c.Context(), req.Email, req)
	if err != nil {
		return err
	}

	subject, html := services.RegistrationOTPMail(code)
	if err := h.mailer.Send(req.Email, subject, html); err != nil {
		if revokeErr := h.registerOTP.Revoke(c.Context(), req.Email); revokeErr != nil {
			log.Printf("failed to revoke OTP for %s after send failure: %v", req.Email, revokeErr)
		}
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to send OTP email.")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "OTP sent to email.",
	})
}

type verifyOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

// VerifyOTP consumes a pending registration code and, on success, persists
// the verified user with a hashed password.
func (h *AuthHandler) VerifyOTP(c *fiber.Ctx) error {
	var req verifyOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	req.Email = normalizeEmail(req.Email)
	req.OTP = strings.TrimSpace(req.OTP)

	if req.Email == "" || req.OTP == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Email and OTP are required.")
	}

	payload, err := h.registerOTP.Verify(c.Context(), req.Email, req.OTP)
	if err != nil {
		switch {
		case errors.Is(err, otp.ErrNotFound):
			return fiber.NewError(fiber.StatusBadRequest, "No OTP request found for this email.")
		case errors.Is(err, otp.ErrExpired):
			return fiber.NewError(fiber.StatusBadRequest, "OTP expired. Please request again.")
		case errors.Is(err, otp.ErrMismatch):
			return fiber.NewError(fiber.StatusBadRequest, "Invalid OTP.")
		}
		return err
	}

	var candidate registrationPayload
	if err := json.Unmarshal(payload, &candidate); err != nil {
		return err
	}

	// Re-check the registration race: the email may have been registered by a
	// concurrent request since the code was issued. The ledger entry is
	// already consumed, so the stale candidate cannot be replayed.
	var existing models.User
	if err := h.db.Where("email = ?", req.Email).First(&existing).Error; err == nil {
		return fiber.NewError(fiber.StatusBadRequest, "Email already registered.")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	passwordHash, err := utils.HashPassword(candidate.Password)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to hash password")
	}

	user := models.User{
		FirstName:    candidate.FirstName,
		LastName:     candidate.LastName,
		Address:      candidate.Address,
		ContactNo:    candidate.ContactNo,
		Email:        candidate.Email,
		PasswordHash: passwordHash,
		IsVerified:   true,
	}

	if err := h.db.Create(&user).Error; err != nil {
		return err
	}

	// Registration has committed; a failed welcome mail must not fail it.
	subject, html := services.WelcomeMail(user.FirstName)
	if err := h.mailer.Send(user.Email, subject, html); err != nil {
		log.Printf("failed to send welcome email to %s: %v", user.Email, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "User registered successfully.",
	})
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

// ForgotPasswordRequestOTP issues a reset code for an existing account. The
// reset ledger is a separate namespace, so an in-flight registration for the
// same email is untouched.
func (h *AuthHandler) ForgotPasswordRequestOTP(c *fiber.Ctx) error {
	var req forgotPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	req.Email = normalizeEmail(req.Email)

	if req.Email == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Email is required.")
	}

	var user models.User
	if err := h.db.Where("email = ?", req.Email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "No user found with this email.")
		}
		return err
	}

	code, err := h.resetOTP.Issue(c.Context(), req.Email, nil)
	if err != nil {
		return err
	}

	subject, html := services.PasswordResetOTPMail(code)
	if err := h.mailer.Send(req.Email, subject, html); err != nil {
		if revokeErr := h.resetOTP.Revoke(c.Context(), req.Email); revokeErr != nil {
			log.Printf("failed to revoke reset OTP for %s after send failure: %v", req.Email, revokeErr)
		}
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to send OTP email.")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "OTP sent to email.",
	})
}

type resetPasswordRequest struct {
	Email       string `json:"email"`
	OTP         string `json:"otp"`
	NewPassword string `json:"newPassword"`
}

// ResetPassword verifies the reset code and persists the new password hash.
func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var req resetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	req.Email = normalizeEmail(req.Email)
	req.OTP = strings.TrimSpace(req.OTP)

	if req.Email == "" || req.OTP == "" || req.NewPassword == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Email, OTP, and new password are required.")
	}

	if _, err := h.resetOTP.Verify(c.Context(), req.Email, req.OTP); err != nil {
		switch {
		case errors.Is(err, otp.ErrNotFound):
			return fiber.NewError(fiber.StatusBadRequest, "No OTP request found.")
		case errors.Is(err, otp.ErrExpired):
			return fiber.NewError(fiber.StatusBadRequest, "OTP expired. Please request again.")
		case errors.Is(err, otp.ErrMismatch):
			return fiber.NewError(fiber.StatusBadRequest, "Invalid OTP.")
		}
		return err
	}

	passwordHash, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to hash password")
	}

	if err := h.db.Model(&models.User{}).
		Where("email = ?", req.Email).
		Update("password_hash", passwordHash).Error; err != nil {
		return err
	}

	// Confirmation mail is best-effort; the password is already changed.
	var user models.User
	if err := h.db.Where("email = ?", req.Email).First(&user).Error; err == nil {
		subject, html := services.PasswordChangedMail(user.FirstName)
		if err := h.mailer.Send(user.Email, subject, html); err != nil {
			log.Printf("failed to send password change confirmation to %s: %v", user.Email, err)
		}
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Password reset successful.",
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login authenticates a verified user, creates a session and returns the
// sanitized user projection plus a bearer token for the order-history API.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	req.Email = normalizeEmail(req.Email)

	if req.Email == "" || req.Password == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Email and password are required.")
	}

	var user models.User
	if err := h.db.Where("email = ?", req.Email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusUnauthorized, "User not registered.")
		}
		return err
	}

	// Verification is checked before the password so an unverified account
	// never reaches hash comparison.
	if !user.IsVerified {
		return fiber.NewError(fiber.StatusForbidden, "Email not verified. Please verify your email first.")
	}

	if !utils.CheckPassword(user.PasswordHash, req.Password) {
		return fiber.NewError(fiber.StatusUnauthorized, "Incorrect password.")
	}

	sessionID, err := h.sessions.Create(c.Context(), user.ID)
	if err != nil {
		return err
	}

	token, err := utils.GenerateToken(h.cfg.JWTSecret, user.ID, h.cfg.TokenExpires)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to generate token")
	}

	return c.JSON(fiber.Map{
		"success":   true,
		"message":   "Login successful.",
		"user":      user.Public(),
		"sessionId": sessionID,
		"token":     token,
	})
}

type logoutRequest struct {
	SessionID string `json:"sessionId"`
}

// Logout destroys the supplied session if one exists. Logging out without an
// active session is still a success.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	var req logoutRequest
	_ = c.BodyParser(&req)

	if req.SessionID == "" {
		return c.JSON(fiber.Map{
			"success": true,
			"message": "No active session.",
		})
	}

	if err := h.sessions.Delete(c.Context(), req.SessionID); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to log out.")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Logged out successfully.",
	})
}
