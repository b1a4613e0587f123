package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// GenerateOrderNumber returns a human-readable unique order code, e.g.
// "FH-20260901-483920". A random suffix avoids collisions between orders
// created within the same second; the column's unique index is the backstop.
func GenerateOrderNumber(now time.Time) string {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	suffix := int64(0)
	if err == nil {
		suffix = n.Int64()
	} else {
		suffix = now.UnixNano() % 1000000
	}
	return fmt.Sprintf("FH-%s-%06d", now.Format("20060102"), suffix)
}
