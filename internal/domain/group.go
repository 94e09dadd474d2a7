package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// GroupStatus is the lifecycle state of a purchase group. Transitions only
// move forward: pending -> active -> completed, or pending -> cancelled.
type GroupStatus string

const (
	GroupStatusPending   GroupStatus = "pending"
	GroupStatusActive    GroupStatus = "active"
	GroupStatusCompleted GroupStatus = "completed"
	GroupStatusCancelled GroupStatus = "cancelled"
)

// FundingMethod is the path money takes into a group.
type FundingMethod string

const (
	FundingMethodWallet   FundingMethod = "wallet"
	FundingMethodPaystack FundingMethod = "paystack"
)

// Group is a pooled livestock purchase split into slots. TotalSlots and
// SlotPrice are fixed at creation; slot counters are mutated only by the
// settlement orchestrator, and SlotsTaken + SlotsLeft == TotalSlots always.
type Group struct {
	ID            string
	LivestockID   string
	CreatorID     string
	TotalSlots    int64
	SlotPrice     decimal.Decimal
	SlotsTaken    int64
	SlotsLeft     int64
	AmountSettled decimal.Decimal
	AmountLeft    decimal.Decimal
	Status        GroupStatus
	FundingMethod FundingMethod
	Reference     string
	Version       int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// TotalPrice is the full cost of the group.
func (g *Group) TotalPrice() decimal.Decimal {
	return g.SlotPrice.Mul(decimal.NewFromInt(g.TotalSlots))
}

// PriceFor is the amount due for a number of slots.
func (g *Group) PriceFor(slots int64) decimal.Decimal {
	return g.SlotPrice.Mul(decimal.NewFromInt(slots))
}

// CanTake reports whether the group still has room for slots more claims.
func (g *Group) CanTake(slots int64) bool {
	return slots > 0 && slots <= g.SlotsLeft
}

// TakeSlots claims slots against the group and settles the matching amount.
// The caller must hold the group row lock.
func (g *Group) TakeSlots(slots int64, amount decimal.Decimal) error {
	if g.Status != GroupStatusActive {
		return ErrGroupNotJoinable
	}
	if !g.CanTake(slots) {
		return ErrSlotsExceedAvailable
	}

	g.SlotsTaken += slots
	g.SlotsLeft -= slots
	g.AmountSettled = g.AmountSettled.Add(amount)
	g.AmountLeft = g.AmountLeft.Sub(amount)
	if g.SlotsLeft == 0 {
		g.Status = GroupStatusCompleted
	}

	return nil
}

// Activate moves a pending group to active after the creator's initial
// contribution has settled.
func (g *Group) Activate(method FundingMethod, reference string, settled decimal.Decimal) error {
	if g.Status != GroupStatusPending {
		return ErrGroupNotPending
	}

	g.Status = GroupStatusActive
	g.FundingMethod = method
	g.Reference = reference
	g.AmountSettled = settled
	g.AmountLeft = g.TotalPrice().Sub(settled)

	return nil
}
