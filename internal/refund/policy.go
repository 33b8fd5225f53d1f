// Package refund decides how much of an order's payment is returned when a
// customer asks to cancel it.
package refund

import (
	"fmt"
	"time"

	"kudos-cafe/internal/model"

	"github.com/shopspring/decimal"
)

// Policy holds the business parameters of the refund rule. Cancellations
// requested within ThresholdMinutes of placing the order (inclusive) refund
// only PartialFraction of the paid amount; later ones are refunded in full.
type Policy struct {
	ThresholdMinutes int
	PartialFraction  decimal.Decimal
	Currency         string
}

// DefaultPolicy returns the café's standing rule: 35% within 30 minutes.
func DefaultPolicy() Policy {
	return Policy{
		ThresholdMinutes: 30,
		PartialFraction:  decimal.RequireFromString("0.35"),
		Currency:         "KES",
	}
}

// Input is the part of an order the policy looks at.
type Input struct {
	CreatedAt   time.Time
	TotalAmount decimal.Decimal
	DepositPaid decimal.NullDecimal
}

// FromOrder extracts the refund input from an order.
func FromOrder(o model.Order) Input {
	return Input{
		CreatedAt:   o.CreatedAt,
		TotalAmount: o.TotalAmount,
		DepositPaid: o.DepositPaid,
	}
}

// Decision is the outcome of applying the policy to one order.
type Decision struct {
	Amount         decimal.Decimal
	Base           decimal.Decimal
	IsPartial      bool
	ElapsedMinutes int64
}

// Compute applies the policy at time now. The refund base is the deposit
// when one was recorded and the order total otherwise. The result always
// lies in [0, base] and is not rounded; callers round to cents when they
// display or store it.
func (p Policy) Compute(in Input, now time.Time) Decision {
	base := in.TotalAmount
	if in.DepositPaid.Valid {
		base = in.DepositPaid.Decimal
	}
	if base.IsNegative() {
		base = decimal.Zero
	}

	// A creation time after now is treated as "just placed".
	elapsed := int64(now.Sub(in.CreatedAt) / time.Minute)
	if elapsed < 0 {
		elapsed = 0
	}

	if elapsed <= int64(p.ThresholdMinutes) {
		amount := base.Mul(p.PartialFraction)
		if amount.IsNegative() {
			amount = decimal.Zero
		}
		if amount.GreaterThan(base) {
			amount = base
		}
		return Decision{Amount: amount, Base: base, IsPartial: true, ElapsedMinutes: elapsed}
	}

	return Decision{Amount: base, Base: base, IsPartial: false, ElapsedMinutes: elapsed}
}

// Advisory renders the note shown to the customer and attached to the
// cancellation request.
func (p Policy) Advisory(d Decision) string {
	if d.IsPartial {
		return fmt.Sprintf(
			"Orders cancelled within %d minutes of being placed are refunded %s%% because preparation may have started. Expected refund: %s %s of %s %s.",
			p.ThresholdMinutes,
			p.PartialFraction.Mul(decimal.NewFromInt(100)).String(),
			p.Currency, d.Amount.StringFixed(2),
			p.Currency, d.Base.StringFixed(2),
		)
	}
	return fmt.Sprintf("You are eligible for a full refund of %s %s.", p.Currency, d.Amount.StringFixed(2))
}
