package entity

import (
	"strings"
	"time"
)

const (
	RoleAdmin    = "admin"
	RoleProvider = "provider"
	RoleCustomer = "customer"
)

type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone,omitempty"`
	Password  string    `json:"-"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewUser(id, email, name, phone, role string) *User {
	now := time.Now().UTC()
	return &User{
		ID:        id,
		Email:     NormalizeEmail(email),
		Name:      strings.TrimSpace(name),
		Phone:     strings.TrimSpace(phone),
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewAdmin builds an administrator account with an already hashed password.
func NewAdmin(id, email, name, hashedPassword string) *User {
	u := NewUser(id, email, name, "", RoleAdmin)
	u.Password = hashedPassword
	return u
}

// MergeContact copies non-empty name and phone onto an existing identity.
// Admins keep their role; everybody else is promoted to provider.
func (u *User) MergeContact(name, phone string) {
	if n := strings.TrimSpace(name); n != "" {
		u.Name = n
	}
	if p := strings.TrimSpace(phone); p != "" {
		u.Phone = p
	}
	if u.Role != RoleAdmin {
		u.Role = RoleProvider
	}
	u.UpdatedAt = time.Now().UTC()
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// NormalizeEmail lower-cases and trims an address. An empty result means
// there is no usable email.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
