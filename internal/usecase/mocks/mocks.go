package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/herdpool/herdpool/internal/domain"
	"github.com/herdpool/herdpool/internal/usecase"
)

// MockWalletRepository is a mock implementation of WalletRepository. Without
// a Func override it behaves as an in-memory store keyed by user ID.
type MockWalletRepository struct {
	mu      sync.RWMutex
	wallets map[string]*domain.Wallet

	CreateFunc               func(ctx context.Context, wallet *domain.Wallet) error
	GetByUserIDFunc          func(ctx context.Context, userID string) (*domain.Wallet, error)
	GetByUserIDForUpdateFunc func(ctx context.Context, tx usecase.Transaction, userID string) (*domain.Wallet, error)
	UpdateBalanceFunc        func(ctx context.Context, tx usecase.Transaction, id string, balance decimal.Decimal, updatedAt time.Time) error
	SumEntriesFunc           func(ctx context.Context, userID string) (decimal.Decimal, decimal.Decimal, error)
}

func NewMockWalletRepository() *MockWalletRepository {
	return &MockWalletRepository{
		wallets: make(map[string]*domain.Wallet),
	}
}

func (m *MockWalletRepository) Create(ctx context.Context, wallet *domain.Wallet) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, wallet)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.wallets[wallet.UserID]; ok {
		return domain.ErrWalletExists
	}
	m.wallets[wallet.UserID] = wallet
	return nil
}

func (m *MockWalletRepository) GetByUserID(ctx context.Context, userID string) (*domain.Wallet, error) {
	if m.GetByUserIDFunc != nil {
		return m.GetByUserIDFunc(ctx, userID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if w, ok := m.wallets[userID]; ok {
		return w, nil
	}
	return nil, domain.ErrWalletNotFound
}

func (m *MockWalletRepository) GetByUserIDForUpdate(ctx context.Context, tx usecase.Transaction, userID string) (*domain.Wallet, error) {
	if m.GetByUserIDForUpdateFunc != nil {
		return m.GetByUserIDForUpdateFunc(ctx, tx, userID)
	}
	return m.GetByUserID(ctx, userID)
}

func (m *MockWalletRepository) UpdateBalance(ctx context.Context, tx usecase.Transaction, id string, balance decimal.Decimal, updatedAt time.Time) error {
	if m.UpdateBalanceFunc != nil {
		return m.UpdateBalanceFunc(ctx, tx, id, balance, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, w := range m.wallets {
		if w.ID == id {
			w.Balance = balance
			w.Version++
			w.UpdatedAt = updatedAt
			return nil
		}
	}
	return domain.ErrWalletNotFound
}

func (m *MockWalletRepository) SumEntries(ctx context.Context, userID string) (decimal.Decimal, decimal.Decimal, error) {
	if m.SumEntriesFunc != nil {
		return m.SumEntriesFunc(ctx, userID)
	}
	return decimal.Zero, decimal.Zero, nil
}

// Seed installs a wallet without going through Create.
func (m *MockWalletRepository) Seed(wallet *domain.Wallet) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.wallets[wallet.UserID] = wallet
}

// MockEntryRepository is a mock implementation of EntryRepository.
type MockEntryRepository struct {
	mu      sync.RWMutex
	entries []*domain.LedgerEntry

	CreateFunc         func(ctx context.Context, tx usecase.Transaction, entry *domain.LedgerEntry) error
	GetByReferenceFunc func(ctx context.Context, reference string) (*domain.LedgerEntry, error)
	ListByUserFunc     func(ctx context.Context, userID string, limit, offset int) ([]*domain.LedgerEntry, error)
}

func NewMockEntryRepository() *MockEntryRepository {
	return &MockEntryRepository{}
}

func (m *MockEntryRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.LedgerEntry) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, entry)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		if e.Reference == entry.Reference && e.Status == domain.EntryStatusSuccess &&
			entry.Status == domain.EntryStatusSuccess {
			return domain.ErrReferenceAlreadyUsed
		}
	}
	m.entries = append(m.entries, entry)
	return nil
}

func (m *MockEntryRepository) GetByReference(ctx context.Context, reference string) (*domain.LedgerEntry, error) {
	if m.GetByReferenceFunc != nil {
		return m.GetByReferenceFunc(ctx, reference)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, e := range m.entries {
		if e.Reference == reference {
			return e, nil
		}
	}
	return nil, domain.ErrEntryNotFound
}

func (m *MockEntryRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.LedgerEntry, error) {
	if m.ListByUserFunc != nil {
		return m.ListByUserFunc(ctx, userID, limit, offset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.LedgerEntry
	for _, e := range m.entries {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

// Entries returns a snapshot of everything recorded so far.
func (m *MockEntryRepository) Entries() []*domain.LedgerEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.LedgerEntry, len(m.entries))
	copy(out, m.entries)
	return out
}

// MockGroupRepository is a mock implementation of GroupRepository.
type MockGroupRepository struct {
	mu     sync.RWMutex
	groups map[string]*domain.Group

	CreateFunc             func(ctx context.Context, group *domain.Group) error
	GetByIDFunc            func(ctx context.Context, id string) (*domain.Group, error)
	GetByIDForUpdateFunc   func(ctx context.Context, tx usecase.Transaction, id string) (*domain.Group, error)
	UpdateFunc             func(ctx context.Context, tx usecase.Transaction, group *domain.Group) error
	DeleteFunc             func(ctx context.Context, tx usecase.Transaction, id string) error
	ListFunc               func(ctx context.Context, status domain.GroupStatus, limit, offset int) ([]*domain.Group, error)
	CancelDraftsBeforeFunc func(ctx context.Context, cutoff time.Time) (int64, error)
}

func NewMockGroupRepository() *MockGroupRepository {
	return &MockGroupRepository{
		groups: make(map[string]*domain.Group),
	}
}

func (m *MockGroupRepository) Create(ctx context.Context, group *domain.Group) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, group)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.groups[group.ID] = group
	return nil
}

func (m *MockGroupRepository) GetByID(ctx context.Context, id string) (*domain.Group, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if g, ok := m.groups[id]; ok {
		copied := *g
		return &copied, nil
	}
	return nil, domain.ErrGroupNotFound
}

func (m *MockGroupRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Group, error) {
	if m.GetByIDForUpdateFunc != nil {
		return m.GetByIDForUpdateFunc(ctx, tx, id)
	}
	return m.GetByID(ctx, id)
}

func (m *MockGroupRepository) Update(ctx context.Context, tx usecase.Transaction, group *domain.Group) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, tx, group)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.groups[group.ID]; !ok {
		return domain.ErrGroupNotFound
	}
	copied := *group
	copied.Version++
	m.groups[group.ID] = &copied
	return nil
}

func (m *MockGroupRepository) Delete(ctx context.Context, tx usecase.Transaction, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, tx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.groups[id]; !ok {
		return domain.ErrGroupNotFound
	}
	delete(m.groups, id)
	return nil
}

func (m *MockGroupRepository) List(ctx context.Context, status domain.GroupStatus, limit, offset int) ([]*domain.Group, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, status, limit, offset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Group
	for _, g := range m.groups {
		if status == "" || g.Status == status {
			copied := *g
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (m *MockGroupRepository) CancelDraftsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	if m.CancelDraftsBeforeFunc != nil {
		return m.CancelDraftsBeforeFunc(ctx, cutoff)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, g := range m.groups {
		if g.Status == domain.GroupStatusPending && g.CreatedAt.Before(cutoff) {
			g.Status = domain.GroupStatusCancelled
			n++
		}
	}
	return n, nil
}

// MockParticipationRepository is a mock implementation of
// ParticipationRepository.
type MockParticipationRepository struct {
	mu             sync.RWMutex
	participations []*domain.Participation

	CreateFunc            func(ctx context.Context, tx usecase.Transaction, participation *domain.Participation) error
	GetByGroupAndUserFunc func(ctx context.Context, groupID, userID string) (*domain.Participation, error)
	ListByGroupFunc       func(ctx context.Context, groupID string, limit, offset int) ([]*domain.Participation, error)
	CountOthersFunc       func(ctx context.Context, groupID, creatorID string) (int64, error)
}

func NewMockParticipationRepository() *MockParticipationRepository {
	return &MockParticipationRepository{}
}

func (m *MockParticipationRepository) Create(ctx context.Context, tx usecase.Transaction, participation *domain.Participation) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, participation)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.participations {
		if p.GroupID == participation.GroupID && p.UserID == participation.UserID {
			return domain.ErrAlreadyMember
		}
	}
	m.participations = append(m.participations, participation)
	return nil
}

func (m *MockParticipationRepository) GetByGroupAndUser(ctx context.Context, groupID, userID string) (*domain.Participation, error) {
	if m.GetByGroupAndUserFunc != nil {
		return m.GetByGroupAndUserFunc(ctx, groupID, userID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.participations {
		if p.GroupID == groupID && p.UserID == userID {
			return p, nil
		}
	}
	return nil, domain.ErrParticipationNotFound
}

func (m *MockParticipationRepository) ListByGroup(ctx context.Context, groupID string, limit, offset int) ([]*domain.Participation, error) {
	if m.ListByGroupFunc != nil {
		return m.ListByGroupFunc(ctx, groupID, limit, offset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Participation
	for _, p := range m.participations {
		if p.GroupID == groupID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *MockParticipationRepository) CountOthers(ctx context.Context, groupID, creatorID string) (int64, error) {
	if m.CountOthersFunc != nil {
		return m.CountOthersFunc(ctx, groupID, creatorID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var n int64
	for _, p := range m.participations {
		if p.GroupID == groupID && p.UserID != creatorID {
			n++
		}
	}
	return n, nil
}

// MockIntentRepository is a mock implementation of IntentRepository. Consume
// mirrors the single-use semantics of the real store: a second consume of the
// same reference fails.
type MockIntentRepository struct {
	mu      sync.RWMutex
	intents map[string]*domain.PaymentIntent

	CreateFunc         func(ctx context.Context, intent *domain.PaymentIntent) error
	GetByReferenceFunc func(ctx context.Context, reference string) (*domain.PaymentIntent, error)
	ConsumeFunc        func(ctx context.Context, tx usecase.Transaction, reference string, consumedAt time.Time) error
	ExpireBeforeFunc   func(ctx context.Context, cutoff time.Time) (int64, error)
}

func NewMockIntentRepository() *MockIntentRepository {
	return &MockIntentRepository{
		intents: make(map[string]*domain.PaymentIntent),
	}
}

func (m *MockIntentRepository) Create(ctx context.Context, intent *domain.PaymentIntent) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, intent)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.intents[intent.Reference]; ok {
		return domain.ErrReferenceAlreadyUsed
	}
	m.intents[intent.Reference] = intent
	return nil
}

func (m *MockIntentRepository) GetByReference(ctx context.Context, reference string) (*domain.PaymentIntent, error) {
	if m.GetByReferenceFunc != nil {
		return m.GetByReferenceFunc(ctx, reference)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if i, ok := m.intents[reference]; ok {
		return i, nil
	}
	return nil, domain.ErrUnknownReference
}

func (m *MockIntentRepository) Consume(ctx context.Context, tx usecase.Transaction, reference string, consumedAt time.Time) error {
	if m.ConsumeFunc != nil {
		return m.ConsumeFunc(ctx, tx, reference, consumedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	intent, ok := m.intents[reference]
	if !ok {
		return domain.ErrUnknownReference
	}
	if intent.ConsumedAt != nil {
		return domain.ErrReferenceAlreadyUsed
	}
	at := consumedAt
	intent.ConsumedAt = &at
	intent.Status = domain.IntentStatusConsumed
	return nil
}

func (m *MockIntentRepository) ExpireBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	if m.ExpireBeforeFunc != nil {
		return m.ExpireBeforeFunc(ctx, cutoff)
	}
	return 0, nil
}

// MockOutboxRepository is a mock implementation of OutboxRepository.
type MockOutboxRepository struct {
	mu     sync.RWMutex
	events []*domain.OutboxEvent

	CreateFunc          func(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error
	GetUnpublishedFunc  func(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublishedFunc   func(ctx context.Context, id string, publishedAt time.Time) error
	DeletePublishedFunc func(ctx context.Context, before time.Time) error
}

func NewMockOutboxRepository() *MockOutboxRepository {
	return &MockOutboxRepository{}
}

func (m *MockOutboxRepository) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, event)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *MockOutboxRepository) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	if m.GetUnpublishedFunc != nil {
		return m.GetUnpublishedFunc(ctx, limit)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.OutboxEvent
	for _, e := range m.events {
		if !e.Published {
			out = append(out, e)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *MockOutboxRepository) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	if m.MarkPublishedFunc != nil {
		return m.MarkPublishedFunc(ctx, id, publishedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.events {
		if e.ID == id {
			at := publishedAt
			e.Published = true
			e.PublishedAt = &at
			return nil
		}
	}
	return nil
}

func (m *MockOutboxRepository) DeletePublished(ctx context.Context, before time.Time) error {
	if m.DeletePublishedFunc != nil {
		return m.DeletePublishedFunc(ctx, before)
	}
	return nil
}

// Events returns a snapshot of everything emitted so far.
func (m *MockOutboxRepository) Events() []*domain.OutboxEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.OutboxEvent, len(m.events))
	copy(out, m.events)
	return out
}

// MockAuditRepository is a mock implementation of AuditRepository.
type MockAuditRepository struct {
	mu   sync.RWMutex
	logs []*domain.AuditLog

	CreateFunc          func(ctx context.Context, log *domain.AuditLog) error
	CreateTxFunc        func(ctx context.Context, tx usecase.Transaction, log *domain.AuditLog) error
	GetByResourceIDFunc func(ctx context.Context, resourceType, resourceID string) ([]*domain.AuditLog, error)
}

func NewMockAuditRepository() *MockAuditRepository {
	return &MockAuditRepository{}
}

func (m *MockAuditRepository) Create(ctx context.Context, log *domain.AuditLog) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, log)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs = append(m.logs, log)
	return nil
}

func (m *MockAuditRepository) CreateTx(ctx context.Context, tx usecase.Transaction, log *domain.AuditLog) error {
	if m.CreateTxFunc != nil {
		return m.CreateTxFunc(ctx, tx, log)
	}
	return m.Create(ctx, log)
}

func (m *MockAuditRepository) GetByResourceID(ctx context.Context, resourceType, resourceID string) ([]*domain.AuditLog, error) {
	if m.GetByResourceIDFunc != nil {
		return m.GetByResourceIDFunc(ctx, resourceType, resourceID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.AuditLog
	for _, l := range m.logs {
		if l.ResourceType == resourceType && l.ResourceID == resourceID {
			out = append(out, l)
		}
	}
	return out, nil
}

// MockTransactionManager is a mock implementation of TransactionManager.
type MockTransactionManager struct {
	BeginFunc func(ctx context.Context) (usecase.Transaction, error)
}

func NewMockTransactionManager() *MockTransactionManager {
	return &MockTransactionManager{}
}

func (m *MockTransactionManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}
	return &MockTransaction{}, nil
}

// MockTransaction is a mock implementation of Transaction.
type MockTransaction struct {
	CommitFunc   func(ctx context.Context) error
	RollbackFunc func(ctx context.Context) error

	Committed  bool
	RolledBack bool
}

func (m *MockTransaction) Commit(ctx context.Context) error {
	if m.CommitFunc != nil {
		return m.CommitFunc(ctx)
	}
	m.Committed = true
	return nil
}

func (m *MockTransaction) Rollback(ctx context.Context) error {
	if m.RollbackFunc != nil {
		return m.RollbackFunc(ctx)
	}
	if !m.Committed {
		m.RolledBack = true
	}
	return nil
}

// MockIDGenerator is a mock implementation of IDGenerator. Without an
// override it returns sequential IDs.
type MockIDGenerator struct {
	mu   sync.Mutex
	next int

	GenerateFunc func() string
}

func NewMockIDGenerator() *MockIDGenerator {
	return &MockIDGenerator{}
}

func (m *MockIDGenerator) Generate() string {
	if m.GenerateFunc != nil {
		return m.GenerateFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	return "id-" + itoa(m.next)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}

// MockRetrier is a mock implementation of Retrier. It runs the operation
// once, or Attempts+1 times when the operation keeps failing and Attempts is
// set.
type MockRetrier struct {
	Attempts int

	RetryFunc func(ctx context.Context, operation func() error) error
}

func NewMockRetrier() *MockRetrier {
	return &MockRetrier{}
}

func (m *MockRetrier) Retry(ctx context.Context, operation func() error) error {
	if m.RetryFunc != nil {
		return m.RetryFunc(ctx, operation)
	}
	var err error
	for i := 0; i <= m.Attempts; i++ {
		if err = operation(); err == nil {
			return nil
		}
	}
	return err
}

// MockCache is a mock implementation of Cache backed by a map. Expiry is not
// simulated.
type MockCache struct {
	mu    sync.RWMutex
	items map[string][]byte

	GetFunc    func(ctx context.Context, key string) ([]byte, error)
	SetFunc    func(ctx context.Context, key string, value []byte, ttl time.Duration) error
	DeleteFunc func(ctx context.Context, key string) error
}

func NewMockCache() *MockCache {
	return &MockCache{
		items: make(map[string][]byte),
	}
}

func (m *MockCache) Get(ctx context.Context, key string) ([]byte, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, key)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if v, ok := m.items[key]; ok {
		return v, nil
	}
	return nil, nil
}

func (m *MockCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if m.SetFunc != nil {
		return m.SetFunc(ctx, key, value, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = value
	return nil
}

func (m *MockCache) Delete(ctx context.Context, key string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, key)
	return nil
}

// MockIdempotencyStore is a mock implementation of IdempotencyStore.
type MockIdempotencyStore struct {
	mu    sync.Mutex
	items map[string][]byte

	CheckAndSetFunc func(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	UpdateFunc      func(ctx context.Context, key string, response []byte, ttl time.Duration) error
}

func NewMockIdempotencyStore() *MockIdempotencyStore {
	return &MockIdempotencyStore{
		items: make(map[string][]byte),
	}
}

func (m *MockIdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	if m.CheckAndSetFunc != nil {
		return m.CheckAndSetFunc(ctx, key, response, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.items[key]; ok {
		return true, existing, nil
	}
	m.items[key] = response
	return false, nil, nil
}

func (m *MockIdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, key, response, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = response
	return nil
}
