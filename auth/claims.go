// Package auth provides the PawPilot identity service client.
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the subset of id token claims the client reads to manage its
// credential cache. Tokens are never verified here; the backend does that.
type Claims struct {
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`

	jwt.RegisteredClaims
}

// parseUnverified reads claims without checking the signature.
func parseUnverified(token string) (*Claims, bool) {
	var claims Claims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return nil, false
	}
	return &claims, true
}

// expiryFromToken returns the exp claim when the token is a readable JWT.
func expiryFromToken(token string) (time.Time, bool) {
	claims, ok := parseUnverified(token)
	if !ok || claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// identityFromToken builds an Identity from the sub/email/name claims. It is
// used when a token response does not carry a user block.
func identityFromToken(token string) (*Identity, bool) {
	claims, ok := parseUnverified(token)
	if !ok || claims.Subject == "" {
		return nil, false
	}
	return &Identity{
		UID:         claims.Subject,
		DisplayName: claims.Name,
		Email:       claims.Email,
	}, true
}
