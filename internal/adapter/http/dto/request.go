package dto

import (
	"github.com/shopspring/decimal"

	"github.com/herdpool/herdpool/internal/domain"
	"github.com/herdpool/herdpool/internal/usecase"
)

// CreateWalletRequest represents a request to provision a wallet.
type CreateWalletRequest struct {
	UserID string `json:"user_id"`
}

// MoveFundsRequest represents a debit or credit request.
type MoveFundsRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *MoveFundsRequest) ToUseCaseInput(userID string) usecase.MoveFundsInput {
	return usecase.MoveFundsInput{
		UserID:      userID,
		Amount:      r.Amount,
		Description: r.Description,
	}
}

// StartCreateGroupRequest represents a request to draft a group.
type StartCreateGroupRequest struct {
	CreatorID    string          `json:"creator_id"`
	LivestockID  string          `json:"livestock_id"`
	TotalSlots   int64           `json:"total_slots"`
	SlotPrice    decimal.Decimal `json:"slot_price"`
	InitialSlots int64           `json:"initial_slots"`
}

// ToUseCaseInput converts to use case input.
func (r *StartCreateGroupRequest) ToUseCaseInput() usecase.StartCreateInput {
	return usecase.StartCreateInput{
		CreatorID:    r.CreatorID,
		LivestockID:  r.LivestockID,
		TotalSlots:   r.TotalSlots,
		SlotPrice:    r.SlotPrice,
		InitialSlots: r.InitialSlots,
	}
}

// CompleteCreateGroupRequest represents a request to settle a drafted group.
type CompleteCreateGroupRequest struct {
	CreatorID string `json:"creator_id"`
	Email     string `json:"email,omitempty"`
	Method    string `json:"method"`
	Reference string `json:"reference,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *CompleteCreateGroupRequest) ToUseCaseInput(groupID, callbackURL string) usecase.CompleteCreateInput {
	return usecase.CompleteCreateInput{
		GroupID:     groupID,
		CreatorID:   r.CreatorID,
		Email:       r.Email,
		Method:      domain.FundingMethod(r.Method),
		Reference:   r.Reference,
		CallbackURL: callbackURL,
	}
}

// StartJoinGroupRequest represents a request to stage a join.
type StartJoinGroupRequest struct {
	UserID string `json:"user_id"`
	Email  string `json:"email,omitempty"`
	Slots  int64  `json:"slots"`
	Method string `json:"method"`
}

// ToUseCaseInput converts to use case input.
func (r *StartJoinGroupRequest) ToUseCaseInput(groupID, callbackURL string) usecase.StartJoinInput {
	return usecase.StartJoinInput{
		GroupID:     groupID,
		UserID:      r.UserID,
		Email:       r.Email,
		Slots:       r.Slots,
		Method:      domain.FundingMethod(r.Method),
		CallbackURL: callbackURL,
	}
}

// CompleteJoinGroupRequest represents a request to settle a staged join.
type CompleteJoinGroupRequest struct {
	UserID    string `json:"user_id"`
	Reference string `json:"reference"`
}

// ToUseCaseInput converts to use case input.
func (r *CompleteJoinGroupRequest) ToUseCaseInput(groupID string) usecase.CompleteJoinInput {
	return usecase.CompleteJoinInput{
		GroupID:   groupID,
		UserID:    r.UserID,
		Reference: r.Reference,
	}
}
