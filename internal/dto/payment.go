package dto

import "github.com/shopspring/decimal"

// StripeToken is the client-side tokenized card.
type StripeToken struct {
	ID string `json:"id" binding:"required"`
}

// ChargeRequest charges the caller's card.
type ChargeRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	StripeToken StripeToken     `json:"stripeToken"`
	Description string          `json:"description" binding:"omitempty,max=256"`
}
