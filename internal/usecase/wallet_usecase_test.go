package usecase_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/herdpool/herdpool/internal/domain"
	"github.com/herdpool/herdpool/internal/usecase"
	"github.com/herdpool/herdpool/internal/usecase/mocks"
)

func newWalletUseCase(walletRepo *mocks.MockWalletRepository, entryRepo *mocks.MockEntryRepository) *usecase.WalletUseCase {
	return usecase.NewWalletUseCase(
		mocks.NewMockTransactionManager(),
		walletRepo,
		entryRepo,
		mocks.NewMockOutboxRepository(),
		nil,
		mocks.NewMockIDGenerator(),
		nil,
		nil,
	)
}

func seedWallet(repo *mocks.MockWalletRepository, userID string, balance decimal.Decimal) *domain.Wallet {
	wallet := &domain.Wallet{
		ID:       "wal-" + userID,
		UserID:   userID,
		Balance:  balance,
		Currency: "NGN",
	}
	repo.Seed(wallet)
	return wallet
}

func TestWalletUseCase_CreateWallet(t *testing.T) {
	tests := []struct {
		name        string
		userID      string
		setupMocks  func(*mocks.MockWalletRepository)
		expectError error
	}{
		{
			name:       "successful wallet creation",
			userID:     "usr_1",
			setupMocks: func(repo *mocks.MockWalletRepository) {},
		},
		{
			name:   "duplicate wallet",
			userID: "usr_1",
			setupMocks: func(repo *mocks.MockWalletRepository) {
				seedWallet(repo, "usr_1", decimal.Zero)
			},
			expectError: domain.ErrWalletExists,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			walletRepo := mocks.NewMockWalletRepository()
			tt.setupMocks(walletRepo)

			uc := newWalletUseCase(walletRepo, mocks.NewMockEntryRepository())
			wallet, err := uc.CreateWallet(context.Background(), tt.userID)

			if tt.expectError != nil {
				if !errors.Is(err, tt.expectError) {
					t.Fatalf("expected %v, got %v", tt.expectError, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if wallet.UserID != tt.userID {
				t.Errorf("expected user %q, got %q", tt.userID, wallet.UserID)
			}
			if !wallet.Balance.IsZero() {
				t.Errorf("new wallet should start at zero, got %s", wallet.Balance)
			}
		})
	}
}

func TestWalletUseCase_Debit(t *testing.T) {
	tests := []struct {
		name        string
		balance     decimal.Decimal
		amount      decimal.Decimal
		expectError error
	}{
		{
			name:    "successful debit",
			balance: decimal.NewFromInt(1000),
			amount:  decimal.NewFromInt(400),
		},
		{
			name:        "insufficient balance",
			balance:     decimal.NewFromInt(100),
			amount:      decimal.NewFromInt(400),
			expectError: domain.ErrInsufficientBalance,
		},
		{
			name:        "debit to exactly zero is allowed",
			balance:     decimal.NewFromInt(400),
			amount:      decimal.NewFromInt(400),
			expectError: nil,
		},
		{
			name:        "non-positive amount",
			balance:     decimal.NewFromInt(1000),
			amount:      decimal.Zero,
			expectError: domain.ErrInvalidAmount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			walletRepo := mocks.NewMockWalletRepository()
			entryRepo := mocks.NewMockEntryRepository()
			wallet := seedWallet(walletRepo, "usr_1", tt.balance)

			uc := newWalletUseCase(walletRepo, entryRepo)
			entry, err := uc.Debit(context.Background(), usecase.MoveFundsInput{
				UserID: "usr_1",
				Amount: tt.amount,
			})

			if tt.expectError != nil {
				if !errors.Is(err, tt.expectError) {
					t.Fatalf("expected %v, got %v", tt.expectError, err)
				}
				if !wallet.Balance.Equal(tt.balance) {
					t.Errorf("failed debit must not move the balance: %s", wallet.Balance)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			want := tt.balance.Sub(tt.amount)
			if !wallet.Balance.Equal(want) {
				t.Errorf("expected balance %s, got %s", want, wallet.Balance)
			}
			if entry.Direction != domain.EntryDirectionDebit {
				t.Errorf("expected debit entry, got %s", entry.Direction)
			}
			if entry.Channel != domain.EntryChannelWallet {
				t.Errorf("expected wallet channel, got %s", entry.Channel)
			}
			if entry.Status != domain.EntryStatusSuccess {
				t.Errorf("expected success entry, got %s", entry.Status)
			}
			if entry.Reference == "" {
				t.Error("expected a minted reference")
			}
			if !entry.WalletBalanceAfter.Equal(want) {
				t.Errorf("entry after-balance %s does not match wallet %s", entry.WalletBalanceAfter, want)
			}
			if got := len(entryRepo.Entries()); got != 1 {
				t.Errorf("expected exactly one ledger entry, got %d", got)
			}
		})
	}
}

func TestWalletUseCase_Credit(t *testing.T) {
	walletRepo := mocks.NewMockWalletRepository()
	entryRepo := mocks.NewMockEntryRepository()
	wallet := seedWallet(walletRepo, "usr_1", decimal.NewFromInt(50))

	uc := newWalletUseCase(walletRepo, entryRepo)
	entry, err := uc.Credit(context.Background(), usecase.MoveFundsInput{
		UserID:      "usr_1",
		Amount:      decimal.NewFromInt(200),
		Description: "top-up",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !wallet.Balance.Equal(decimal.NewFromInt(250)) {
		t.Errorf("expected balance 250, got %s", wallet.Balance)
	}
	if entry.Direction != domain.EntryDirectionCredit {
		t.Errorf("expected credit entry, got %s", entry.Direction)
	}
}

func TestWalletUseCase_Debit_RollsBackOnEntryFailure(t *testing.T) {
	walletRepo := mocks.NewMockWalletRepository()
	entryRepo := mocks.NewMockEntryRepository()
	wallet := seedWallet(walletRepo, "usr_1", decimal.NewFromInt(1000))

	entryRepo.CreateFunc = func(ctx context.Context, tx usecase.Transaction, entry *domain.LedgerEntry) error {
		return domain.ErrReferenceAlreadyUsed
	}

	var tx *mocks.MockTransaction
	txManager := mocks.NewMockTransactionManager()
	txManager.BeginFunc = func(ctx context.Context) (usecase.Transaction, error) {
		tx = &mocks.MockTransaction{}
		return tx, nil
	}

	uc := usecase.NewWalletUseCase(txManager, walletRepo, entryRepo, nil, nil, mocks.NewMockIDGenerator(), nil, nil)

	_, err := uc.Debit(context.Background(), usecase.MoveFundsInput{
		UserID: "usr_1",
		Amount: decimal.NewFromInt(100),
	})
	if !errors.Is(err, domain.ErrReferenceAlreadyUsed) {
		t.Fatalf("expected ErrReferenceAlreadyUsed, got %v", err)
	}
	if tx.Committed {
		t.Error("transaction must not commit when the entry write fails")
	}
	if !tx.RolledBack {
		t.Error("transaction should roll back")
	}
	if !wallet.Balance.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("balance must be untouched, got %s", wallet.Balance)
	}
}

func TestWalletUseCase_Debit_RetriesTransientFailures(t *testing.T) {
	walletRepo := mocks.NewMockWalletRepository()
	entryRepo := mocks.NewMockEntryRepository()
	seedWallet(walletRepo, "usr_1", decimal.NewFromInt(1000))

	transient := errors.New("deadlock detected")
	attempts := 0
	entryRepo.CreateFunc = func(ctx context.Context, tx usecase.Transaction, entry *domain.LedgerEntry) error {
		attempts++
		if attempts == 1 {
			return transient
		}
		return nil
	}

	retrier := mocks.NewMockRetrier()
	retrier.Attempts = 2

	uc := usecase.NewWalletUseCase(
		mocks.NewMockTransactionManager(),
		walletRepo,
		entryRepo,
		nil,
		nil,
		mocks.NewMockIDGenerator(),
		retrier,
		nil,
	)

	if _, err := uc.Debit(context.Background(), usecase.MoveFundsInput{
		UserID: "usr_1",
		Amount: decimal.NewFromInt(100),
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attempts != 2 {
		t.Errorf("expected 2 attempts, got %d", attempts)
	}
}

func TestWalletUseCase_RecordGatewayEntry(t *testing.T) {
	walletRepo := mocks.NewMockWalletRepository()
	entryRepo := mocks.NewMockEntryRepository()
	wallet := seedWallet(walletRepo, "usr_1", decimal.NewFromInt(500))

	uc := newWalletUseCase(walletRepo, entryRepo)
	tx := &mocks.MockTransaction{}

	entry, err := uc.RecordGatewayEntry(context.Background(), tx, "usr_1", decimal.NewFromInt(2000), "PS-REF-1", "join group grp_1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if entry.Channel != domain.EntryChannelGateway {
		t.Errorf("expected gateway channel, got %s", entry.Channel)
	}
	if !wallet.Balance.Equal(decimal.NewFromInt(500)) {
		t.Errorf("gateway entry must not touch the balance, got %s", wallet.Balance)
	}

	// Same reference again trips the uniqueness rule.
	if _, err := uc.RecordGatewayEntry(context.Background(), tx, "usr_1", decimal.NewFromInt(2000), "PS-REF-1", "replay"); !errors.Is(err, domain.ErrReferenceAlreadyUsed) {
		t.Fatalf("expected ErrReferenceAlreadyUsed, got %v", err)
	}
}

func TestWalletUseCase_CheckConsistency(t *testing.T) {
	tests := []struct {
		name        string
		balance     decimal.Decimal
		credits     decimal.Decimal
		debits      decimal.Decimal
		expectError bool
	}{
		{
			name:    "consistent wallet",
			balance: decimal.NewFromInt(600),
			credits: decimal.NewFromInt(1000),
			debits:  decimal.NewFromInt(400),
		},
		{
			name:        "balance drifted from entries",
			balance:     decimal.NewFromInt(601),
			credits:     decimal.NewFromInt(1000),
			debits:      decimal.NewFromInt(400),
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			walletRepo := mocks.NewMockWalletRepository()
			seedWallet(walletRepo, "usr_1", tt.balance)
			walletRepo.SumEntriesFunc = func(ctx context.Context, userID string) (decimal.Decimal, decimal.Decimal, error) {
				return tt.credits, tt.debits, nil
			}

			uc := newWalletUseCase(walletRepo, mocks.NewMockEntryRepository())
			err := uc.CheckConsistency(context.Background(), "usr_1")

			if tt.expectError && err == nil {
				t.Error("expected an inconsistency error, got nil")
			}
			if !tt.expectError && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestWalletUseCase_ConcurrentDebits(t *testing.T) {
	walletRepo := mocks.NewMockWalletRepository()
	entryRepo := mocks.NewMockEntryRepository()
	wallet := seedWallet(walletRepo, "usr_1", decimal.NewFromInt(300))

	// Hold a lock from Begin to Commit/Rollback so concurrent moves
	// serialize the way row locks serialize them in Postgres.
	var mu sync.Mutex
	txManager := mocks.NewMockTransactionManager()
	txManager.BeginFunc = func(ctx context.Context) (usecase.Transaction, error) {
		mu.Lock()
		var once sync.Once
		unlock := func() { once.Do(mu.Unlock) }
		return &mocks.MockTransaction{
			CommitFunc:   func(ctx context.Context) error { unlock(); return nil },
			RollbackFunc: func(ctx context.Context) error { unlock(); return nil },
		}, nil
	}

	uc := usecase.NewWalletUseCase(txManager, walletRepo, entryRepo, nil, nil, mocks.NewMockIDGenerator(), nil, nil)

	const workers = 5
	results := make(chan error, workers)
	for i := 0; i < workers; i++ {
		go func() {
			_, err := uc.Debit(context.Background(), usecase.MoveFundsInput{
				UserID: "usr_1",
				Amount: decimal.NewFromInt(100),
			})
			results <- err
		}()
	}

	var succeeded, rejected int
	deadline := time.After(5 * time.Second)
	for i := 0; i < workers; i++ {
		select {
		case err := <-results:
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, domain.ErrInsufficientBalance):
				rejected++
			default:
				t.Fatalf("unexpected error: %v", err)
			}
		case <-deadline:
			t.Fatal("timed out waiting for debits")
		}
	}

	if succeeded != 3 || rejected != 2 {
		t.Errorf("expected 3 successes and 2 rejections, got %d/%d", succeeded, rejected)
	}
	if !wallet.Balance.IsZero() {
		t.Errorf("expected balance 0, got %s", wallet.Balance)
	}
}
