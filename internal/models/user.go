package models

// User represents a registered customer. Accounts are only created through a
// completed OTP verification, so IsVerified is true for every user written by
// the registration flow; the flag still gates logins for accounts imported
// from elsewhere.
type User struct {
	BaseModel
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Address      string `json:"address"`
	ContactNo    string `json:"contact_no"`
	Email        string `gorm:"uniqueIndex" json:"email"`
	PasswordHash string `json:"-"`
	IsVerified   bool   `json:"is_verified"`
}

// Public returns the sanitized projection sent to clients. The mobile app
// reads display fields from this shape, so keys here are part of the API
// contract.
func (u *User) Public() map[string]interface{} {
	return map[string]interface{}{
		"id":          u.ID,
		"first_name":  u.FirstName,
		"last_name":   u.LastName,
		"address":     u.Address,
		"contact_no":  u.ContactNo,
		"email":       u.Email,
		"is_verified": u.IsVerified,
		"created_at":  u.CreatedAt,
	}
}
