package utils

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type pickupClaims struct {
	OrderID string `json:"order_id"`
	jwt.RegisteredClaims
}

// SignPickupToken produces the QR payload for an order: an HS256 token over
// the order id and issue time. Pickup tokens do not expire; the order's own
// status gates whether a scan is accepted.
func SignPickupToken(secret string, orderID uuid.UUID, issuedAt time.Time) (string, error) {
	claims := &pickupClaims{
		OrderID: orderID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  orderID.String(),
			IssuedAt: jwt.NewNumericDate(issuedAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// VerifyPickupToken validates a scanned QR payload and returns the order id
// it was signed for.
func VerifyPickupToken(secret, tokenString string) (uuid.UUID, error) {
	token, err := jwt.ParseWithClaims(tokenString, &pickupClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return uuid.Nil, err
	}

	if claims, ok := token.Claims.(*pickupClaims); ok && token.Valid {
		return uuid.Parse(claims.OrderID)
	}

	return uuid.Nil, jwt.ErrTokenInvalidClaims
}
