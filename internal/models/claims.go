package models

import "github.com/golang-jwt/jwt/v5"

// Roles
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Application permissions
const (
	PermissionWalletRead  = "wallet:read"
	PermissionVIPPurchase = "vip:purchase"
	PermissionWalletAdmin = "wallet:admin"
)

// UserClaims is issued by the authentication service; this service only
// verifies it and reads the caller identity from it.
type UserClaims struct {
	jwt.RegisteredClaims
	UserID      uint     `json:"user_id"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}

// HasPermission checks if the claims include a specific permission
func (c *UserClaims) HasPermission(permission string) bool {
	for _, p := range c.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}

// GetDefaultPermissions returns default permissions based on role
func GetDefaultPermissions(role string) []string {
	switch role {
	case RoleAdmin:
		return []string{
			PermissionWalletRead,
			PermissionVIPPurchase,
			PermissionWalletAdmin,
		}
	case RoleUser:
		return []string{
			PermissionWalletRead,
			PermissionVIPPurchase,
		}
	default:
		return []string{}
	}
}
