package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// IntentAction tags what a staged payment is meant to fund.
type IntentAction string

const (
	IntentActionCreateGroup IntentAction = "group.create"
	IntentActionJoinGroup   IntentAction = "group.join"
)

// IntentStatus is the lifecycle state of a payment intent. A pending intent
// is consumed exactly once, inside the same transaction as the group-state
// change it funds; the reaper expires intents nobody ever completes.
type IntentStatus string

const (
	IntentStatusPending  IntentStatus = "pending"
	IntentStatusConsumed IntentStatus = "consumed"
	IntentStatusExpired  IntentStatus = "expired"
)

// PaymentIntent is a single-use staging record for an in-flight funding
// attempt. A stateless gateway callback re-derives "what was this payment
// for?" from the intent keyed by its reference.
type PaymentIntent struct {
	ID         string
	UserID     string
	Email      string
	Reference  string
	Action     IntentAction
	Method     FundingMethod
	Status     IntentStatus
	GroupID    string
	Slots      int64
	Amount     decimal.Decimal
	CreatedAt  time.Time
	ConsumedAt *time.Time
}

// Validate checks intent invariants.
func (i *PaymentIntent) Validate() error {
	if i.Amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}
	if i.Slots <= 0 {
		return ErrInvalidSlotCount
	}
	if i.Action != IntentActionCreateGroup && i.Action != IntentActionJoinGroup {
		return ErrInvalidIntentAction
	}
	return nil
}
