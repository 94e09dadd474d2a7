package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/herdpool/herdpool/internal/domain"
	"github.com/herdpool/herdpool/internal/infrastructure/metrics"
)

// WalletUseCase is the wallet ledger service: the only component that mutates
// wallet balances, always together with a matching ledger entry.
type WalletUseCase struct {
	txManager  TransactionManager
	walletRepo WalletRepository
	entryRepo  EntryRepository
	outboxRepo OutboxRepository
	auditRepo  AuditRepository
	idGen      IDGenerator
	retrier    Retrier
	metrics    *metrics.Metrics
}

// NewWalletUseCase creates a new WalletUseCase.
func NewWalletUseCase(
	txManager TransactionManager,
	walletRepo WalletRepository,
	entryRepo EntryRepository,
	outboxRepo OutboxRepository,
	auditRepo AuditRepository,
	idGen IDGenerator,
	retrier Retrier,
	metrics *metrics.Metrics,
) *WalletUseCase {
	return &WalletUseCase{
		txManager:  txManager,
		walletRepo: walletRepo,
		entryRepo:  entryRepo,
		outboxRepo: outboxRepo,
		auditRepo:  auditRepo,
		idGen:      idGen,
		retrier:    retrier,
		metrics:    metrics,
	}
}

// CreateWallet provisions the single wallet a user owns. Called once at
// account activation.
func (uc *WalletUseCase) CreateWallet(ctx context.Context, userID string) (*domain.Wallet, error) {
	now := time.Now().UTC()

	wallet := &domain.Wallet{
		ID:        uc.idGen.Generate(),
		UserID:    userID,
		Balance:   decimal.Zero,
		Currency:  "NGN",
		Version:   0,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := uc.walletRepo.Create(ctx, wallet); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.WalletsCreated.Inc()
	}

	return wallet, nil
}

// GetWallet retrieves a user's wallet.
func (uc *WalletUseCase) GetWallet(ctx context.Context, userID string) (*domain.Wallet, error) {
	return uc.walletRepo.GetByUserID(ctx, userID)
}

// MoveFundsInput represents input for a debit or credit.
type MoveFundsInput struct {
	UserID      string
	Amount      decimal.Decimal
	Description string
}

// Debit atomically locks the wallet, checks the balance floor, decrements the
// balance, and appends a successful ledger entry with a fresh reference.
func (uc *WalletUseCase) Debit(ctx context.Context, input MoveFundsInput) (*domain.LedgerEntry, error) {
	return uc.move(ctx, domain.EntryDirectionDebit, input)
}

// Credit is the symmetric increment; no balance floor check.
func (uc *WalletUseCase) Credit(ctx context.Context, input MoveFundsInput) (*domain.LedgerEntry, error) {
	return uc.move(ctx, domain.EntryDirectionCredit, input)
}

func (uc *WalletUseCase) move(ctx context.Context, direction domain.EntryDirection, input MoveFundsInput) (*domain.LedgerEntry, error) {
	if err := domain.ValidateAmount(input.Amount); err != nil {
		return nil, err
	}

	start := time.Now()

	var entry *domain.LedgerEntry
	err := uc.retry(ctx, func() error {
		txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
		defer cancel()

		tx, err := uc.txManager.Begin(txCtx)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(txCtx) }()

		reference := walletReferencePrefix + uc.idGen.Generate()

		if direction == domain.EntryDirectionDebit {
			entry, err = uc.DebitInTx(txCtx, tx, input.UserID, input.Amount, reference, input.Description)
		} else {
			entry, err = uc.CreditInTx(txCtx, tx, input.UserID, input.Amount, reference, input.Description)
		}
		if err != nil {
			return err
		}

		return tx.Commit(txCtx)
	})
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.WalletMoves.WithLabelValues(string(direction)).Inc()
		uc.metrics.WalletMoveDuration.Observe(time.Since(start).Seconds())
	}

	uc.audit(ctx, direction, entry)

	return entry, nil
}

// DebitInTx applies a debit inside a caller-owned transaction so it commits
// atomically with whatever the caller is settling. The wallet row stays
// locked until the caller commits.
func (uc *WalletUseCase) DebitInTx(ctx context.Context, tx Transaction, userID string, amount decimal.Decimal, reference, description string) (*domain.LedgerEntry, error) {
	wallet, err := uc.walletRepo.GetByUserIDForUpdate(ctx, tx, userID)
	if err != nil {
		return nil, err
	}

	if err := wallet.ValidateDebit(amount); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	newBalance := wallet.ApplyDebit(amount)

	entry := &domain.LedgerEntry{
		ID:                  uc.idGen.Generate(),
		UserID:              userID,
		Direction:           domain.EntryDirectionDebit,
		Amount:              amount,
		Reference:           reference,
		Channel:             domain.EntryChannelWallet,
		Status:              domain.EntryStatusSuccess,
		Description:         description,
		WalletBalanceBefore: wallet.Balance,
		WalletBalanceAfter:  newBalance,
		CreatedAt:           now,
	}

	if err := entry.Validate(); err != nil {
		return nil, err
	}

	if err := uc.entryRepo.Create(ctx, tx, entry); err != nil {
		return nil, err
	}

	if err := uc.walletRepo.UpdateBalance(ctx, tx, wallet.ID, newBalance, now); err != nil {
		return nil, err
	}

	if err := uc.emitMove(ctx, tx, domain.EventTypeWalletDebited, wallet, entry, newBalance); err != nil {
		return nil, err
	}

	return entry, nil
}

// CreditInTx applies a credit inside a caller-owned transaction.
func (uc *WalletUseCase) CreditInTx(ctx context.Context, tx Transaction, userID string, amount decimal.Decimal, reference, description string) (*domain.LedgerEntry, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, domain.ErrInvalidAmount
	}

	wallet, err := uc.walletRepo.GetByUserIDForUpdate(ctx, tx, userID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	newBalance := wallet.ApplyCredit(amount)

	entry := &domain.LedgerEntry{
		ID:                  uc.idGen.Generate(),
		UserID:              userID,
		Direction:           domain.EntryDirectionCredit,
		Amount:              amount,
		Reference:           reference,
		Channel:             domain.EntryChannelWallet,
		Status:              domain.EntryStatusSuccess,
		Description:         description,
		WalletBalanceBefore: wallet.Balance,
		WalletBalanceAfter:  newBalance,
		CreatedAt:           now,
	}

	if err := uc.entryRepo.Create(ctx, tx, entry); err != nil {
		return nil, err
	}

	if err := uc.walletRepo.UpdateBalance(ctx, tx, wallet.ID, newBalance, now); err != nil {
		return nil, err
	}

	if err := uc.emitMove(ctx, tx, domain.EventTypeWalletCredited, wallet, entry, newBalance); err != nil {
		return nil, err
	}

	return entry, nil
}

// RecordGatewayEntry appends a successful gateway-channel entry inside a
// caller-owned transaction. The wallet balance is untouched; the entry exists
// so every settlement, external ones included, is on the ledger under its
// unique reference.
func (uc *WalletUseCase) RecordGatewayEntry(ctx context.Context, tx Transaction, userID string, amount decimal.Decimal, reference, description string) (*domain.LedgerEntry, error) {
	entry := &domain.LedgerEntry{
		ID:          uc.idGen.Generate(),
		UserID:      userID,
		Direction:   domain.EntryDirectionDebit,
		Amount:      amount,
		Reference:   reference,
		Channel:     domain.EntryChannelGateway,
		Status:      domain.EntryStatusSuccess,
		Description: description,
		CreatedAt:   time.Now().UTC(),
	}

	if err := entry.Validate(); err != nil {
		return nil, err
	}

	if err := uc.entryRepo.Create(ctx, tx, entry); err != nil {
		return nil, err
	}

	return entry, nil
}

// ListEntriesInput represents input for listing a user's ledger entries.
type ListEntriesInput struct {
	UserID string
	Limit  int
	Offset int
}

// ListEntries lists a user's ledger entries, newest first.
func (uc *WalletUseCase) ListEntries(ctx context.Context, input ListEntriesInput) ([]*domain.LedgerEntry, error) {
	limit, offset := domain.ValidatePagination(input.Limit, input.Offset)
	return uc.entryRepo.ListByUser(ctx, input.UserID, limit, offset)
}

// CheckConsistency verifies that the wallet balance equals the sum of its
// successful wallet-channel credits minus debits.
func (uc *WalletUseCase) CheckConsistency(ctx context.Context, userID string) error {
	wallet, err := uc.walletRepo.GetByUserID(ctx, userID)
	if err != nil {
		return err
	}

	credits, debits, err := uc.walletRepo.SumEntries(ctx, userID)
	if err != nil {
		return err
	}

	expected := credits.Sub(debits)
	if !wallet.Balance.Equal(expected) {
		return fmt.Errorf(
			"wallet %s inconsistent: balance=%s entries=%s difference=%s",
			wallet.ID,
			wallet.Balance.String(),
			expected.String(),
			wallet.Balance.Sub(expected).String(),
		)
	}

	return nil
}

func (uc *WalletUseCase) retry(ctx context.Context, op func() error) error {
	if uc.retrier == nil {
		return op()
	}
	return uc.retrier.Retry(ctx, op)
}

func (uc *WalletUseCase) emitMove(ctx context.Context, tx Transaction, eventType string, wallet *domain.Wallet, entry *domain.LedgerEntry, balance decimal.Decimal) error {
	if uc.outboxRepo == nil {
		return nil
	}

	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   wallet.ID,
		AggregateType: domain.AggregateTypeWallet,
		EventType:     eventType,
		Payload: map[string]any{
			"wallet_id": wallet.ID,
			"user_id":   wallet.UserID,
			"entry_id":  entry.ID,
			"reference": entry.Reference,
			"amount":    entry.Amount.String(),
			"balance":   balance.String(),
		},
		CreatedAt: entry.CreatedAt,
		Published: false,
	}

	return uc.outboxRepo.Create(ctx, tx, event)
}

func (uc *WalletUseCase) audit(ctx context.Context, direction domain.EntryDirection, entry *domain.LedgerEntry) {
	if uc.auditRepo == nil {
		return
	}

	action := domain.AuditActionWalletDebit
	if direction == domain.EntryDirectionCredit {
		action = domain.AuditActionWalletCredit
	}

	userID := entry.UserID
	if user, ok := domain.UserFromContext(ctx); ok {
		userID = user.ID
	}

	_ = uc.auditRepo.Create(ctx, &domain.AuditLog{
		ID:           uc.idGen.Generate(),
		UserID:       userID,
		Action:       string(action),
		ResourceType: "entry",
		ResourceID:   entry.ID,
		AfterState:   domain.MarshalState(entry),
		Status:       string(domain.AuditStatusSuccess),
		CreatedAt:    time.Now(),
	})
}
