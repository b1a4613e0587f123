package services

import (
	"context"

	"github.com/shopspring/decimal"
)

// PaymentAuthorizer fronts the upstream payment provider for card, ewallet
// and online-banking checkouts. Authorization runs before any persistence:
// a decline aborts checkout with nothing to roll back.
type PaymentAuthorizer interface {
	Authorize(ctx context.Context, amount decimal.Decimal, paymentToken string) error
}

// acceptAllAuthorizer approves every authorization. It stands in for the real
// provider in development; production wiring swaps in a provider-backed
// implementation.
type acceptAllAuthorizer struct{}

// NewAcceptAllAuthorizer returns an authorizer that approves everything.
func NewAcceptAllAuthorizer() PaymentAuthorizer {
	return acceptAllAuthorizer{}
}

func (acceptAllAuthorizer) Authorize(ctx context.Context, amount decimal.Decimal, paymentToken string) error {
	return nil
}
