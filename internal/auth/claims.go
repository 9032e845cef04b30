package auth

import "github.com/golang-jwt/jwt/v5"

// Claims are the only supported JWT claims shape for this service.
// The signaling token is long-lived (days); clients present it both on REST
// calls and when opening the signaling socket.
type Claims struct {
	jwt.RegisteredClaims

	UserID   string `json:"user_id"`
	Username string `json:"username"`
}
