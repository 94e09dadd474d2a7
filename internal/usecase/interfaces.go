package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/herdpool/herdpool/internal/domain"
)

// WalletRepository defines data access for wallets.
type WalletRepository interface {
	Create(ctx context.Context, wallet *domain.Wallet) error
	GetByUserID(ctx context.Context, userID string) (*domain.Wallet, error)
	GetByUserIDForUpdate(ctx context.Context, tx Transaction, userID string) (*domain.Wallet, error)
	UpdateBalance(ctx context.Context, tx Transaction, id string, balance decimal.Decimal, updatedAt time.Time) error
	SumEntries(ctx context.Context, userID string) (credits, debits decimal.Decimal, err error)
}

// EntryRepository defines data access for ledger entries.
type EntryRepository interface {
	Create(ctx context.Context, tx Transaction, entry *domain.LedgerEntry) error
	GetByReference(ctx context.Context, reference string) (*domain.LedgerEntry, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.LedgerEntry, error)
}

// GroupRepository defines data access for purchase groups.
type GroupRepository interface {
	Create(ctx context.Context, group *domain.Group) error
	GetByID(ctx context.Context, id string) (*domain.Group, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Group, error)
	Update(ctx context.Context, tx Transaction, group *domain.Group) error
	Delete(ctx context.Context, tx Transaction, id string) error
	List(ctx context.Context, status domain.GroupStatus, limit, offset int) ([]*domain.Group, error)
	CancelDraftsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// ParticipationRepository defines data access for group participations.
type ParticipationRepository interface {
	Create(ctx context.Context, tx Transaction, participation *domain.Participation) error
	GetByGroupAndUser(ctx context.Context, groupID, userID string) (*domain.Participation, error)
	ListByGroup(ctx context.Context, groupID string, limit, offset int) ([]*domain.Participation, error)
	CountOthers(ctx context.Context, groupID, creatorID string) (int64, error)
}

// IntentRepository defines data access for payment intents.
type IntentRepository interface {
	Create(ctx context.Context, intent *domain.PaymentIntent) error
	GetByReference(ctx context.Context, reference string) (*domain.PaymentIntent, error)
	Consume(ctx context.Context, tx Transaction, reference string, consumedAt time.Time) error
	ExpireBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	DeletePublished(ctx context.Context, before time.Time) error
}

// AuditRepository defines data access for audit logs.
type AuditRepository interface {
	Create(ctx context.Context, log *domain.AuditLog) error
	CreateTx(ctx context.Context, tx Transaction, log *domain.AuditLog) error
	GetByResourceID(ctx context.Context, resourceType, resourceID string) ([]*domain.AuditLog, error)
}

// Retrier retries an operation on transient database failures such as
// deadlocks. Non-transient errors pass through untouched.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// GatewayCheckout is the gateway's handle for a newly initialized payment.
type GatewayCheckout struct {
	Reference   string
	RedirectURL string
}

// GatewayVerification is the gateway's answer to a verify call. Amount is in
// the engine's decimal unit; the adapter converts from minor units.
type GatewayVerification struct {
	Status     string
	Amount     decimal.Decimal
	PayerEmail string
}

// PaymentGateway is the external payment collaborator. Verify is read-only
// and safe to call repeatedly.
type PaymentGateway interface {
	Initialize(ctx context.Context, email string, amount decimal.Decimal, callbackURL string) (*GatewayCheckout, error)
	Verify(ctx context.Context, reference string) (*GatewayVerification, error)
}

// LivestockCatalog supplies listing data used to validate group drafts.
type LivestockCatalog interface {
	GetListing(ctx context.Context, livestockID string) (*domain.Listing, error)
}

// Cache defines caching operations.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// IdempotencyInFlight is the placeholder stored for a key whose first
// request has not finished yet.
const IdempotencyInFlight = "in-flight"

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
}
