package middleware

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TicketIssuer mints the short-lived websocket handshake tokens. Browsers
// cannot set headers on a websocket upgrade, so an authenticated client
// first fetches a ticket over HTTP and passes it in the query string.
type TicketIssuer struct {
	secret []byte
	ttl    time.Duration
}

func NewTicketIssuer(secret string, ttl time.Duration) *TicketIssuer {
	return &TicketIssuer{secret: []byte(secret), ttl: ttl}
}

func (t *TicketIssuer) Issue(userID uint, displayName string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":      userID,
		"display_name": displayName,
		"iat":          now.Unix(),
		"exp":          now.Add(t.ttl).Unix(),
	})
	return token.SignedString(t.secret)
}

// Verify checks the signature and expiry and returns the identity the
// ticket was issued for.
func (t *TicketIssuer) Verify(ticket string) (uint, string, error) {
	token, err := jwt.Parse(ticket, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil || !token.Valid {
		return 0, "", fmt.Errorf("invalid ticket")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, "", fmt.Errorf("invalid ticket claims")
	}
	userID, ok := claims["user_id"].(float64)
	if !ok {
		return 0, "", fmt.Errorf("invalid user ID in ticket")
	}
	displayName, _ := claims["display_name"].(string)
	return uint(userID), displayName, nil
}
