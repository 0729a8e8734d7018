package dto

import "time"

// User roles
const (
	RoleOwner   = "owner"
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleAgent   = "agent"
	RoleViewer  = "viewer"
)

// User represents a staff account from the users table.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email,omitempty"`
	PasswordHash string    `json:"password_hash,omitempty"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at,omitempty"`
}

// LoginRequest represents the login request body
// @Description Credentials exchanged for a bearer token
type LoginRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50" example:"admin"`
	Password string `json:"password" binding:"required,min=6"`
}

// RegisterRequest represents the admin-only account creation body
// @Description New staff account details
type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Email    string `json:"email,omitempty" binding:"omitempty,email"`
	Password string `json:"password" binding:"required,min=6"`
	Role     string `json:"role" binding:"required" example:"agent"`
}

// ValidRole reports whether r is one of the enumerated user roles.
func ValidRole(r string) bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleManager, RoleAgent, RoleViewer:
		return true
	}
	return false
}

// LoginResponse carries the issued bearer token.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	UserID    string    `json:"user_id"`
	Role      string    `json:"role"`
}

// CanWrite reports whether a role may create leads, hunts and messages.
// Viewers are read-only.
func CanWrite(role string) bool {
	switch role {
	case RoleOwner, RoleAdmin, RoleManager, RoleAgent:
		return true
	}
	return false
}

// IsAdmin reports whether a role may use the admin command surface.
func IsAdmin(role string) bool {
	return role == RoleOwner || role == RoleAdmin
}
