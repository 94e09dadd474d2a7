package domain

import "time"

// Event types
const (
	EventTypeWalletCreated        = "wallet.created"
	EventTypeWalletDebited        = "wallet.debited"
	EventTypeWalletCredited       = "wallet.credited"
	EventTypeGroupActivated       = "group.activated"
	EventTypeGroupCompleted       = "group.completed"
	EventTypeGroupCancelled       = "group.cancelled"
	EventTypeParticipationCreated = "participation.created"
	EventTypeIntentConsumed       = "intent.consumed"
)

// Aggregate types
const (
	AggregateTypeWallet        = "wallet"
	AggregateTypeGroup         = "group"
	AggregateTypeParticipation = "participation"
	AggregateTypeIntent        = "intent"
)

// OutboxEvent represents a settlement event staged in the same transaction as
// the state change it describes, published later.
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// WalletMovedEvent payload for wallet.debited / wallet.credited
type WalletMovedEvent struct {
	WalletID  string `json:"wallet_id"`
	UserID    string `json:"user_id"`
	EntryID   string `json:"entry_id"`
	Reference string `json:"reference"`
	Amount    string `json:"amount"`
	Balance   string `json:"balance"`
}

// GroupActivatedEvent payload
type GroupActivatedEvent struct {
	GroupID       string `json:"group_id"`
	CreatorID     string `json:"creator_id"`
	FundingMethod string `json:"funding_method"`
	Reference     string `json:"reference"`
	SlotsTaken    int64  `json:"slots_taken"`
	AmountSettled string `json:"amount_settled"`
}

// GroupCompletedEvent payload
type GroupCompletedEvent struct {
	GroupID       string `json:"group_id"`
	TotalSlots    int64  `json:"total_slots"`
	AmountSettled string `json:"amount_settled"`
}

// ParticipationCreatedEvent payload
type ParticipationCreatedEvent struct {
	ParticipationID string `json:"participation_id"`
	GroupID         string `json:"group_id"`
	UserID          string `json:"user_id"`
	Slots           int64  `json:"slots"`
	Reference       string `json:"reference"`
}
