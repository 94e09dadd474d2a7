package domain

import "errors"

var (
	// Wallet errors
	ErrWalletNotFound      = errors.New("wallet not found")
	ErrWalletExists        = errors.New("wallet already exists for user")
	ErrInsufficientBalance = errors.New("insufficient wallet balance")

	// Ledger errors
	ErrInvalidAmount         = errors.New("amount must be positive")
	ErrInvalidEntryDirection = errors.New("entry direction must be credit or debit")
	ErrEntryNotFound         = errors.New("ledger entry not found")

	// Payment errors
	ErrUnknownReference     = errors.New("unknown payment reference")
	ErrReferenceAlreadyUsed = errors.New("payment reference already used")
	ErrVerificationFailed   = errors.New("gateway verification failed")
	ErrGatewayUnavailable   = errors.New("payment gateway unavailable")
	ErrPaymentMismatch      = errors.New("paid amount does not match amount due")
	ErrInvalidIntentAction  = errors.New("invalid payment intent action")

	// Group errors
	ErrGroupNotFound         = errors.New("group not found")
	ErrGroupNotPending       = errors.New("group is already active or beyond")
	ErrGroupNotJoinable      = errors.New("group is not open for joining")
	ErrNotCreator            = errors.New("only the group creator may do this")
	ErrAlreadyMember         = errors.New("user already holds a stake in this group")
	ErrSlotsExceedAvailable  = errors.New("requested slots exceed slots left")
	ErrInvalidSlotCount      = errors.New("slot count must be positive")
	ErrInvalidSlotPrice      = errors.New("slot price must be positive")
	ErrGroupHasMembers       = errors.New("group already has participants")
	ErrParticipationNotFound = errors.New("participation not found")

	// Catalog errors
	ErrListingNotFound = errors.New("livestock listing not found")
	ErrBelowMinimum    = errors.New("group total is below the listing minimum")
)
