package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ChargeRequest is a card charge submitted to the payment processor.
// Amount is expressed in the currency's major unit (e.g. 12.50 USD).
type ChargeRequest struct {
	Amount      decimal.Decimal
	Currency    string
	SourceToken string
	Description string
	IdentityID  string
}

// Charge is the processor's record of a completed charge.
type Charge struct {
	ID          string          `json:"id"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Status      string          `json:"status"`
	Paid        bool            `json:"paid"`
	Description string          `json:"description,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
}
