package domain

import "time"

// User is a registered account. PasswordHash never leaves the process.
type User struct {
	ID           string    `json:"_id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	IsAdmin      bool      `json:"isAdmin"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Identity is the password-stripped user attached to an authenticated request.
type Identity struct {
	ID      string `json:"_id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"isAdmin"`
}

// Identity strips credentials from u.
func (u *User) Identity() Identity {
	return Identity{
		ID:      u.ID,
		Name:    u.Name,
		Email:   u.Email,
		IsAdmin: u.IsAdmin,
	}
}

// AuthResult is returned by register, login and profile update.
type AuthResult struct {
	Identity
	Token string `json:"token"`
}

// UserUpdate carries optional changes to a user. Nil fields keep the stored value.
type UserUpdate struct {
	Name     *string
	Email    *string
	Password *string
	IsAdmin  *bool
}

// Apply copies the non-empty fields of upd onto u. Empty strings count as
// omitted. Password is handled by the caller, which must hash it first.
func (upd UserUpdate) Apply(u *User) {
	if upd.Name != nil && *upd.Name != "" {
		u.Name = *upd.Name
	}
	if upd.Email != nil && *upd.Email != "" {
		u.Email = *upd.Email
	}
	if upd.IsAdmin != nil {
		u.IsAdmin = *upd.IsAdmin
	}
}
