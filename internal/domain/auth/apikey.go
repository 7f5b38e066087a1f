package auth

import "context"

// Roles recognized by the API surface. The engine trusts the role attached
// to a validated key and performs no further identity checks.
const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

// APIKeyInfo holds the identity attached to a validated API key.
type APIKeyInfo struct {
	ID      string
	KeyHash string
	UserID  string
	Role    string
	Name    string
}

// Repository provides lookup of API keys by their HMAC hash.
type Repository interface {
	FindByHash(ctx context.Context, hash string) (*APIKeyInfo, error)
}

// Identity is the authenticated caller as seen by handlers.
type Identity struct {
	UserID string
	Role   string
}

// IsAdmin reports whether the identity may drive status transitions.
func (id Identity) IsAdmin() bool {
	return id.Role == RoleAdmin
}
