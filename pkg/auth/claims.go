package auth

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// RoleAdmin is the app_metadata role that grants access to admin endpoints.
const RoleAdmin = "admin"

// AppMetadata is the server-controlled metadata Supabase embeds in access tokens.
type AppMetadata struct {
	Provider string `json:"provider,omitempty"`
	Role     string `json:"role,omitempty"`
}

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID  uuid.UUID
	Email   string
	AppRole string
}

// AccessTokenClaims mirrors a Supabase Auth access token.
type AccessTokenClaims struct {
	Email       string         `json:"email"`
	Role        string         `json:"role"`
	AppMetadata AppMetadata    `json:"app_metadata"`
	UserMeta    map[string]any `json:"user_metadata,omitempty"`
	jwt.RegisteredClaims
}

// UserID parses the subject claim.
func (c *AccessTokenClaims) UserID() (uuid.UUID, error) {
	id, err := uuid.Parse(c.Subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid subject %q: %w", c.Subject, err)
	}
	return id, nil
}

// HasAdminRole reports whether app_metadata grants the admin role.
func (c *AccessTokenClaims) HasAdminRole() bool {
	return c.AppMetadata.Role == RoleAdmin
}
