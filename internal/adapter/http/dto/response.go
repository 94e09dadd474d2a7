package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/herdpool/herdpool/internal/domain"
)

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// WalletResponse represents a wallet in API responses.
type WalletResponse struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	Balance   decimal.Decimal `json:"balance"`
	Currency  string          `json:"currency"`
	Version   int64           `json:"version"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// WalletFromDomain converts a domain wallet to a response.
func WalletFromDomain(w *domain.Wallet) *WalletResponse {
	return &WalletResponse{
		ID:        w.ID,
		UserID:    w.UserID,
		Balance:   w.Balance,
		Currency:  w.Currency,
		Version:   w.Version,
		CreatedAt: w.CreatedAt,
		UpdatedAt: w.UpdatedAt,
	}
}

// EntryResponse represents a ledger entry in API responses.
type EntryResponse struct {
	ID            string          `json:"id"`
	UserID        string          `json:"user_id"`
	Direction     string          `json:"direction"`
	Amount        decimal.Decimal `json:"amount"`
	Reference     string          `json:"reference"`
	Channel       string          `json:"channel"`
	Status        string          `json:"status"`
	Description   string          `json:"description,omitempty"`
	BalanceBefore decimal.Decimal `json:"balance_before"`
	BalanceAfter  decimal.Decimal `json:"balance_after"`
	CreatedAt     time.Time       `json:"created_at"`
}

// EntryFromDomain converts a domain entry to a response.
func EntryFromDomain(e *domain.LedgerEntry) *EntryResponse {
	return &EntryResponse{
		ID:            e.ID,
		UserID:        e.UserID,
		Direction:     string(e.Direction),
		Amount:        e.Amount,
		Reference:     e.Reference,
		Channel:       string(e.Channel),
		Status:        string(e.Status),
		Description:   e.Description,
		BalanceBefore: e.WalletBalanceBefore,
		BalanceAfter:  e.WalletBalanceAfter,
		CreatedAt:     e.CreatedAt,
	}
}

// EntriesFromDomain converts domain entries to responses.
func EntriesFromDomain(entries []*domain.LedgerEntry) []*EntryResponse {
	result := make([]*EntryResponse, len(entries))
	for i, e := range entries {
		result[i] = EntryFromDomain(e)
	}
	return result
}

// ListEntriesResponse represents a page of ledger entries.
type ListEntriesResponse struct {
	Entries []*EntryResponse `json:"entries"`
	Total   int64            `json:"total"`
}

// GroupResponse represents a group in API responses.
type GroupResponse struct {
	ID            string          `json:"id"`
	LivestockID   string          `json:"livestock_id"`
	CreatorID     string          `json:"creator_id"`
	TotalSlots    int64           `json:"total_slots"`
	SlotPrice     decimal.Decimal `json:"slot_price"`
	SlotsTaken    int64           `json:"slots_taken"`
	SlotsLeft     int64           `json:"slots_left"`
	AmountSettled decimal.Decimal `json:"amount_settled"`
	AmountLeft    decimal.Decimal `json:"amount_left"`
	Status        string          `json:"status"`
	FundingMethod string          `json:"funding_method,omitempty"`
	Reference     string          `json:"reference,omitempty"`
	Version       int64           `json:"version"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// GroupFromDomain converts a domain group to a response.
func GroupFromDomain(g *domain.Group) *GroupResponse {
	return &GroupResponse{
		ID:            g.ID,
		LivestockID:   g.LivestockID,
		CreatorID:     g.CreatorID,
		TotalSlots:    g.TotalSlots,
		SlotPrice:     g.SlotPrice,
		SlotsTaken:    g.SlotsTaken,
		SlotsLeft:     g.SlotsLeft,
		AmountSettled: g.AmountSettled,
		AmountLeft:    g.AmountLeft,
		Status:        string(g.Status),
		FundingMethod: string(g.FundingMethod),
		Reference:     g.Reference,
		Version:       g.Version,
		CreatedAt:     g.CreatedAt,
		UpdatedAt:     g.UpdatedAt,
	}
}

// GroupsFromDomain converts domain groups to responses.
func GroupsFromDomain(groups []*domain.Group) []*GroupResponse {
	result := make([]*GroupResponse, len(groups))
	for i, g := range groups {
		result[i] = GroupFromDomain(g)
	}
	return result
}

// ListGroupsResponse represents a page of groups.
type ListGroupsResponse struct {
	Groups []*GroupResponse `json:"groups"`
	Total  int64            `json:"total"`
}

// ParticipationResponse represents a participation in API responses.
type ParticipationResponse struct {
	ID        string    `json:"id"`
	GroupID   string    `json:"group_id"`
	UserID    string    `json:"user_id"`
	Slots     int64     `json:"slots"`
	Status    string    `json:"status"`
	Reference string    `json:"reference"`
	JoinedAt  time.Time `json:"joined_at"`
}

// ParticipationFromDomain converts a domain participation to a response.
func ParticipationFromDomain(p *domain.Participation) *ParticipationResponse {
	return &ParticipationResponse{
		ID:        p.ID,
		GroupID:   p.GroupID,
		UserID:    p.UserID,
		Slots:     p.Slots,
		Status:    string(p.Status),
		Reference: p.Reference,
		JoinedAt:  p.JoinedAt,
	}
}

// ParticipationsFromDomain converts domain participations to responses.
func ParticipationsFromDomain(participations []*domain.Participation) []*ParticipationResponse {
	result := make([]*ParticipationResponse, len(participations))
	for i, p := range participations {
		result[i] = ParticipationFromDomain(p)
	}
	return result
}

// CompleteCreateResponse is the outcome of a group settlement attempt.
type CompleteCreateResponse struct {
	Group         *GroupResponse         `json:"group"`
	Participation *ParticipationResponse `json:"participation,omitempty"`
	Reference     string                 `json:"reference,omitempty"`
	RedirectURL   string                 `json:"redirect_url,omitempty"`
}

// StartJoinResponse is a staged join handle.
type StartJoinResponse struct {
	Reference   string `json:"reference"`
	RedirectURL string `json:"redirect_url,omitempty"`
}

// CompleteJoinResponse is a settled join.
type CompleteJoinResponse struct {
	Participation *ParticipationResponse `json:"participation"`
	Group         *GroupResponse         `json:"group"`
}
