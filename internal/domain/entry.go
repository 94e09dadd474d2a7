package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryDirection is the side of a ledger entry relative to the owning wallet.
type EntryDirection string

const (
	EntryDirectionCredit EntryDirection = "credit"
	EntryDirectionDebit  EntryDirection = "debit"
)

// EntryChannel says where the money moved. Wallet-channel entries mutate the
// wallet balance; gateway-channel entries record an external settlement
// without touching it.
type EntryChannel string

const (
	EntryChannelWallet  EntryChannel = "wallet"
	EntryChannelGateway EntryChannel = "gateway"
)

// EntryStatus is the lifecycle state of a ledger entry.
type EntryStatus string

const (
	EntryStatusPending EntryStatus = "pending"
	EntryStatusSuccess EntryStatus = "success"
	EntryStatusFailed  EntryStatus = "failed"
)

// LedgerEntry is one immutable transaction record against a user's wallet.
// A payment reference backs at most one successful entry; that uniqueness is
// the de-duplication key for both wallet and gateway settlements.
type LedgerEntry struct {
	ID                   string
	UserID               string
	Direction            EntryDirection
	Amount               decimal.Decimal
	CounterpartyWalletID string
	Reference            string
	Channel              EntryChannel
	Status               EntryStatus
	Description          string
	WalletBalanceBefore  decimal.Decimal
	WalletBalanceAfter   decimal.Decimal
	CreatedAt            time.Time
}

// Validate checks entry invariants.
func (e *LedgerEntry) Validate() error {
	if e.Amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}
	if e.Direction != EntryDirectionCredit && e.Direction != EntryDirectionDebit {
		return ErrInvalidEntryDirection
	}
	if e.Reference == "" {
		return ErrUnknownReference
	}
	return nil
}
