package usecase

import "time"

const (
	// DefaultTransactionTimeout is the maximum duration for a database transaction
	// This prevents long-running transactions from blocking tables
	DefaultTransactionTimeout = 10 * time.Second

	// DefaultIntentTTL is how long an uncompleted payment intent is kept
	// before the reaper expires it
	DefaultIntentTTL = 24 * time.Hour

	// DefaultDraftTTL is how long an unfunded pending group is kept before
	// the reaper cancels it
	DefaultDraftTTL = 7 * 24 * time.Hour

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour

	// walletReferencePrefix marks references minted for wallet-path settlements
	walletReferencePrefix = "WLT-"
)
