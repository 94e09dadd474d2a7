package usecase

import (
	"context"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/herdpool/herdpool/internal/domain"
	"github.com/herdpool/herdpool/internal/infrastructure/metrics"
)

const groupCacheTTL = 30 * time.Second

// GroupUseCase is the settlement orchestrator. It drives groups through the
// pending -> active -> completed lifecycle and is the only component that
// mutates slot counters. Every completion runs as one transaction: payment
// settlement, participation write, counter movement, and intent consumption
// commit together or not at all.
//
// Lock order inside a transaction is always group row first, wallet row
// second.
type GroupUseCase struct {
	txManager         TransactionManager
	groupRepo         GroupRepository
	participationRepo ParticipationRepository
	outboxRepo        OutboxRepository
	auditRepo         AuditRepository
	wallets           *WalletUseCase
	payments          *PaymentUseCase
	catalog           LivestockCatalog
	cache             Cache
	idGen             IDGenerator
	retrier           Retrier
	metrics           *metrics.Metrics
}

// NewGroupUseCase creates a new GroupUseCase.
func NewGroupUseCase(
	txManager TransactionManager,
	groupRepo GroupRepository,
	participationRepo ParticipationRepository,
	outboxRepo OutboxRepository,
	auditRepo AuditRepository,
	wallets *WalletUseCase,
	payments *PaymentUseCase,
	catalog LivestockCatalog,
	cache Cache,
	idGen IDGenerator,
	retrier Retrier,
	metrics *metrics.Metrics,
) *GroupUseCase {
	return &GroupUseCase{
		txManager:         txManager,
		groupRepo:         groupRepo,
		participationRepo: participationRepo,
		outboxRepo:        outboxRepo,
		auditRepo:         auditRepo,
		wallets:           wallets,
		payments:          payments,
		catalog:           catalog,
		cache:             cache,
		idGen:             idGen,
		retrier:           retrier,
		metrics:           metrics,
	}
}

// StartCreateInput represents input for drafting a group.
type StartCreateInput struct {
	CreatorID    string
	LivestockID  string
	TotalSlots   int64
	SlotPrice    decimal.Decimal
	InitialSlots int64
}

// StartCreate reserves the shape of a group: slot counts and pricing, no
// money. The group stays pending and invisible to joiners until the creator's
// initial contribution settles.
func (uc *GroupUseCase) StartCreate(ctx context.Context, input StartCreateInput) (*domain.Group, error) {
	if err := domain.ValidateSlotCount(input.TotalSlots); err != nil {
		return nil, err
	}
	if input.InitialSlots <= 0 || input.InitialSlots > input.TotalSlots {
		return nil, domain.ErrInvalidSlotCount
	}
	if input.SlotPrice.LessThanOrEqual(decimal.Zero) {
		return nil, domain.ErrInvalidSlotPrice
	}

	listing, err := uc.catalog.GetListing(ctx, input.LivestockID)
	if err != nil {
		return nil, err
	}

	total := input.SlotPrice.Mul(decimal.NewFromInt(input.TotalSlots))
	if total.LessThan(listing.MinimumAmount) {
		return nil, domain.ErrBelowMinimum
	}

	now := time.Now().UTC()
	group := &domain.Group{
		ID:            uc.idGen.Generate(),
		LivestockID:   input.LivestockID,
		CreatorID:     input.CreatorID,
		TotalSlots:    input.TotalSlots,
		SlotPrice:     input.SlotPrice,
		SlotsTaken:    input.InitialSlots,
		SlotsLeft:     input.TotalSlots - input.InitialSlots,
		AmountSettled: decimal.Zero,
		AmountLeft:    total,
		Status:        domain.GroupStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := uc.groupRepo.Create(ctx, group); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.GroupsDrafted.Inc()
	}

	uc.audit(ctx, domain.AuditActionGroupCreate, "group", group.ID, domain.MarshalState(group), nil)

	return group, nil
}

// CompleteCreateInput represents input for settling a drafted group.
type CompleteCreateInput struct {
	GroupID     string
	CreatorID   string
	Email       string
	Method      domain.FundingMethod
	Reference   string
	CallbackURL string
}

// CompleteCreateResult is the outcome of a completion attempt. When the
// creator chose external funding and no reference exists yet, RedirectURL is
// set and the group stays pending.
type CompleteCreateResult struct {
	Group         *domain.Group
	Participation *domain.Participation
	Reference     string
	RedirectURL   string
}

// CompleteCreate settles the creator's initial slots and activates the group.
// Wallet funding debits and activates in one transaction. External funding is
// two-legged: the first call stages an intent and returns a redirect handle,
// the second (with the gateway's reference) verifies and applies.
func (uc *GroupUseCase) CompleteCreate(ctx context.Context, input CompleteCreateInput) (*CompleteCreateResult, error) {
	group, err := uc.groupRepo.GetByID(ctx, input.GroupID)
	if err != nil {
		return nil, err
	}
	if group.CreatorID != input.CreatorID {
		return nil, domain.ErrNotCreator
	}
	if group.Status != domain.GroupStatusPending {
		return nil, domain.ErrGroupNotPending
	}

	due := group.PriceFor(group.SlotsTaken)

	switch {
	case input.Method == domain.FundingMethodWallet:
		return uc.activateFromWallet(ctx, input, due)
	case input.Reference == "":
		begin, err := uc.payments.BeginExternal(ctx, BeginInput{
			UserID:      input.CreatorID,
			Email:       input.Email,
			Amount:      due,
			Action:      domain.IntentActionCreateGroup,
			GroupID:     group.ID,
			Slots:       group.SlotsTaken,
			CallbackURL: input.CallbackURL,
		})
		if err != nil {
			return nil, err
		}
		return &CompleteCreateResult{
			Group:       group,
			Reference:   begin.Intent.Reference,
			RedirectURL: begin.RedirectURL,
		}, nil
	default:
		return uc.activateFromGateway(ctx, input, due)
	}
}

func (uc *GroupUseCase) activateFromWallet(ctx context.Context, input CompleteCreateInput, due decimal.Decimal) (*CompleteCreateResult, error) {
	start := time.Now()

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	group, err := uc.groupRepo.GetByIDForUpdate(txCtx, tx, input.GroupID)
	if err != nil {
		return nil, err
	}
	if group.CreatorID != input.CreatorID {
		return nil, domain.ErrNotCreator
	}

	reference := walletReferencePrefix + uc.idGen.Generate()

	entry, err := uc.wallets.DebitInTx(txCtx, tx, input.CreatorID, due, reference, "initial slots for group "+group.ID)
	if err != nil {
		return nil, err
	}

	participation, err := uc.applyActivation(txCtx, tx, group, domain.FundingMethodWallet, entry.Reference, due)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	uc.finishActivation(ctx, group, start)

	return &CompleteCreateResult{Group: group, Participation: participation, Reference: entry.Reference}, nil
}

func (uc *GroupUseCase) activateFromGateway(ctx context.Context, input CompleteCreateInput, due decimal.Decimal) (*CompleteCreateResult, error) {
	resolution, err := uc.payments.Resolve(ctx, input.Reference)
	if err != nil {
		return nil, err
	}

	intent := resolution.Intent
	if intent.Action != domain.IntentActionCreateGroup || intent.GroupID != input.GroupID || intent.UserID != input.CreatorID {
		return nil, domain.ErrPaymentMismatch
	}
	if !resolution.Amount.Equal(due) {
		return nil, domain.ErrPaymentMismatch
	}

	start := time.Now()

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	group, err := uc.groupRepo.GetByIDForUpdate(txCtx, tx, input.GroupID)
	if err != nil {
		return nil, err
	}

	entry, err := uc.wallets.RecordGatewayEntry(txCtx, tx, input.CreatorID, due, intent.Reference, "initial slots for group "+group.ID)
	if err != nil {
		return nil, err
	}

	participation, err := uc.applyActivation(txCtx, tx, group, domain.FundingMethodPaystack, entry.Reference, due)
	if err != nil {
		return nil, err
	}

	if err := uc.payments.ConsumeIntent(txCtx, tx, intent.Reference); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	uc.finishActivation(ctx, group, start)

	return &CompleteCreateResult{Group: group, Participation: participation, Reference: entry.Reference}, nil
}

// applyActivation flips the locked group to active, records its settlement,
// and writes the creator's participation. Caller commits.
func (uc *GroupUseCase) applyActivation(ctx context.Context, tx Transaction, group *domain.Group, method domain.FundingMethod, reference string, due decimal.Decimal) (*domain.Participation, error) {
	if err := group.Activate(method, reference, due); err != nil {
		return nil, err
	}
	group.UpdatedAt = time.Now().UTC()

	if err := uc.groupRepo.Update(ctx, tx, group); err != nil {
		return nil, err
	}

	participation := &domain.Participation{
		ID:        uc.idGen.Generate(),
		GroupID:   group.ID,
		UserID:    group.CreatorID,
		Slots:     group.SlotsTaken,
		Status:    domain.ParticipationStatusApproved,
		Reference: reference,
		JoinedAt:  group.UpdatedAt,
	}

	if err := uc.participationRepo.Create(ctx, tx, participation); err != nil {
		return nil, err
	}

	if err := uc.emit(ctx, tx, group.ID, domain.AggregateTypeGroup, domain.EventTypeGroupActivated, map[string]any{
		"group_id":       group.ID,
		"creator_id":     group.CreatorID,
		"funding_method": string(method),
		"reference":      reference,
		"slots_taken":    group.SlotsTaken,
		"amount_settled": group.AmountSettled.String(),
	}); err != nil {
		return nil, err
	}

	return participation, nil
}

func (uc *GroupUseCase) finishActivation(ctx context.Context, group *domain.Group, start time.Time) {
	uc.invalidate(ctx, group.ID)

	if uc.metrics != nil {
		uc.metrics.GroupsActivated.Inc()
		uc.metrics.SettlementDuration.Observe(time.Since(start).Seconds())
	}

	uc.audit(ctx, domain.AuditActionGroupActivate, "group", group.ID, nil, domain.MarshalState(group))
}

// StartJoinInput represents input for staging a join.
type StartJoinInput struct {
	GroupID     string
	UserID      string
	Email       string
	Slots       int64
	Method      domain.FundingMethod
	CallbackURL string
}

// StartJoinResult carries the reference that will complete the join and, for
// external funding, the redirect handle.
type StartJoinResult struct {
	Reference   string
	RedirectURL string
}

// StartJoin stages a join attempt against an active group. Slot counters are
// untouched here; the availability check is advisory and re-run under the
// group lock when the join completes.
func (uc *GroupUseCase) StartJoin(ctx context.Context, input StartJoinInput) (*StartJoinResult, error) {
	if err := domain.ValidateSlotCount(input.Slots); err != nil {
		return nil, err
	}

	group, err := uc.groupRepo.GetByID(ctx, input.GroupID)
	if err != nil {
		return nil, err
	}
	if group.Status != domain.GroupStatusActive {
		return nil, domain.ErrGroupNotJoinable
	}
	if !group.CanTake(input.Slots) {
		return nil, domain.ErrSlotsExceedAvailable
	}

	if _, err := uc.participationRepo.GetByGroupAndUser(ctx, input.GroupID, input.UserID); err == nil {
		return nil, domain.ErrAlreadyMember
	}

	begin := BeginInput{
		UserID:      input.UserID,
		Email:       input.Email,
		Amount:      group.PriceFor(input.Slots),
		Action:      domain.IntentActionJoinGroup,
		GroupID:     group.ID,
		Slots:       input.Slots,
		CallbackURL: input.CallbackURL,
	}

	var result *BeginResult
	if input.Method == domain.FundingMethodWallet {
		result, err = uc.payments.BeginInternal(ctx, begin)
	} else {
		result, err = uc.payments.BeginExternal(ctx, begin)
	}
	if err != nil {
		return nil, err
	}

	return &StartJoinResult{
		Reference:   result.Intent.Reference,
		RedirectURL: result.RedirectURL,
	}, nil
}

// CompleteJoinInput represents input for settling a staged join.
type CompleteJoinInput struct {
	GroupID   string
	UserID    string
	Reference string
}

// CompleteJoinResult is the settled join.
type CompleteJoinResult struct {
	Participation *domain.Participation
	Group         *domain.Group
}

// CompleteJoin settles a staged join. Payment verification happens first;
// then, in one transaction, the money moves, the participation is written,
// the slots are claimed, and the intent is consumed. The group flips to
// completed when the last slot is claimed.
func (uc *GroupUseCase) CompleteJoin(ctx context.Context, input CompleteJoinInput) (*CompleteJoinResult, error) {
	resolution, err := uc.payments.Resolve(ctx, input.Reference)
	if err != nil {
		return nil, err
	}

	intent := resolution.Intent
	if intent.Action != domain.IntentActionJoinGroup || intent.GroupID != input.GroupID || intent.UserID != input.UserID {
		return nil, domain.ErrPaymentMismatch
	}

	start := time.Now()

	var result *CompleteJoinResult
	if err := uc.retry(ctx, func() error {
		var err error
		result, err = uc.settleJoin(ctx, input, intent, resolution.Amount)
		return err
	}); err != nil {
		return nil, err
	}

	group := result.Group

	uc.invalidate(ctx, group.ID)

	if uc.metrics != nil {
		uc.metrics.SlotsSettled.Add(float64(intent.Slots))
		uc.metrics.SettlementDuration.Observe(time.Since(start).Seconds())
		if group.Status == domain.GroupStatusCompleted {
			uc.metrics.GroupsCompleted.Inc()
		}
	}

	uc.audit(ctx, domain.AuditActionGroupJoin, "participation", result.Participation.ID, nil, domain.MarshalState(result.Participation))

	return result, nil
}

// settleJoin is the transactional half of CompleteJoin. It re-validates
// everything under the group lock because the world may have moved since the
// join was staged.
func (uc *GroupUseCase) settleJoin(ctx context.Context, input CompleteJoinInput, intent *domain.PaymentIntent, paid decimal.Decimal) (*CompleteJoinResult, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	group, err := uc.groupRepo.GetByIDForUpdate(txCtx, tx, input.GroupID)
	if err != nil {
		return nil, err
	}
	if group.Status != domain.GroupStatusActive {
		return nil, domain.ErrGroupNotJoinable
	}

	due := group.PriceFor(intent.Slots)
	if !paid.Equal(due) {
		return nil, domain.ErrPaymentMismatch
	}

	if _, err := uc.participationRepo.GetByGroupAndUser(txCtx, input.GroupID, input.UserID); err == nil {
		return nil, domain.ErrAlreadyMember
	}

	var entry *domain.LedgerEntry
	if intent.Method == domain.FundingMethodWallet {
		entry, err = uc.wallets.DebitInTx(txCtx, tx, input.UserID, due, intent.Reference, "join group "+group.ID)
	} else {
		entry, err = uc.wallets.RecordGatewayEntry(txCtx, tx, input.UserID, due, intent.Reference, "join group "+group.ID)
	}
	if err != nil {
		return nil, err
	}

	if err := group.TakeSlots(intent.Slots, due); err != nil {
		return nil, err
	}
	group.UpdatedAt = time.Now().UTC()

	if err := uc.groupRepo.Update(txCtx, tx, group); err != nil {
		return nil, err
	}

	participation := &domain.Participation{
		ID:        uc.idGen.Generate(),
		GroupID:   group.ID,
		UserID:    input.UserID,
		Slots:     intent.Slots,
		Status:    domain.ParticipationStatusApproved,
		Reference: entry.Reference,
		JoinedAt:  group.UpdatedAt,
	}

	if err := uc.participationRepo.Create(txCtx, tx, participation); err != nil {
		return nil, err
	}

	if err := uc.payments.ConsumeIntent(txCtx, tx, intent.Reference); err != nil {
		return nil, err
	}

	if err := uc.emit(txCtx, tx, participation.ID, domain.AggregateTypeParticipation, domain.EventTypeParticipationCreated, map[string]any{
		"participation_id": participation.ID,
		"group_id":         group.ID,
		"user_id":          input.UserID,
		"slots":            intent.Slots,
		"reference":        entry.Reference,
	}); err != nil {
		return nil, err
	}

	if group.Status == domain.GroupStatusCompleted {
		if err := uc.emit(txCtx, tx, group.ID, domain.AggregateTypeGroup, domain.EventTypeGroupCompleted, map[string]any{
			"group_id":       group.ID,
			"total_slots":    group.TotalSlots,
			"amount_settled": group.AmountSettled.String(),
		}); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	return &CompleteJoinResult{Participation: participation, Group: group}, nil
}

// CancelDraft deletes a still-pending group. Only the creator may cancel, and
// only while nobody else holds a stake.
func (uc *GroupUseCase) CancelDraft(ctx context.Context, groupID, userID string) error {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	group, err := uc.groupRepo.GetByIDForUpdate(txCtx, tx, groupID)
	if err != nil {
		return err
	}
	if group.CreatorID != userID {
		return domain.ErrNotCreator
	}
	if group.Status != domain.GroupStatusPending {
		return domain.ErrGroupNotPending
	}

	others, err := uc.participationRepo.CountOthers(txCtx, groupID, group.CreatorID)
	if err != nil {
		return err
	}
	if others > 0 {
		return domain.ErrGroupHasMembers
	}

	if err := uc.groupRepo.Delete(txCtx, tx, groupID); err != nil {
		return err
	}

	if err := uc.emit(txCtx, tx, group.ID, domain.AggregateTypeGroup, domain.EventTypeGroupCancelled, map[string]any{
		"group_id":   group.ID,
		"creator_id": group.CreatorID,
	}); err != nil {
		return err
	}

	if err := tx.Commit(txCtx); err != nil {
		return err
	}

	uc.invalidate(ctx, groupID)

	if uc.metrics != nil {
		uc.metrics.GroupsCancelled.Inc()
	}

	uc.audit(ctx, domain.AuditActionGroupCancel, "group", groupID, domain.MarshalState(group), nil)

	return nil
}

// GetGroup retrieves a group, via the read cache when one is wired.
func (uc *GroupUseCase) GetGroup(ctx context.Context, id string) (*domain.Group, error) {
	if uc.cache != nil {
		if raw, err := uc.cache.Get(ctx, groupCacheKey(id)); err == nil && raw != nil {
			var group domain.Group
			if err := json.Unmarshal(raw, &group); err == nil {
				return &group, nil
			}
		}
	}

	group, err := uc.groupRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if uc.cache != nil {
		if raw, err := json.Marshal(group); err == nil {
			_ = uc.cache.Set(ctx, groupCacheKey(id), raw, groupCacheTTL)
		}
	}

	return group, nil
}

// ListGroupsInput represents input for listing groups.
type ListGroupsInput struct {
	Status domain.GroupStatus
	Limit  int
	Offset int
}

// ListGroups lists groups, optionally filtered by status.
func (uc *GroupUseCase) ListGroups(ctx context.Context, input ListGroupsInput) ([]*domain.Group, error) {
	limit, offset := domain.ValidatePagination(input.Limit, input.Offset)
	return uc.groupRepo.List(ctx, input.Status, limit, offset)
}

// ListParticipations lists a group's participations.
func (uc *GroupUseCase) ListParticipations(ctx context.Context, groupID string, limit, offset int) ([]*domain.Participation, error) {
	limit, offset = domain.ValidatePagination(limit, offset)
	return uc.participationRepo.ListByGroup(ctx, groupID, limit, offset)
}

func (uc *GroupUseCase) emit(ctx context.Context, tx Transaction, aggregateID, aggregateType, eventType string, payload map[string]any) error {
	if uc.outboxRepo == nil {
		return nil
	}

	return uc.outboxRepo.Create(ctx, tx, &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		EventType:     eventType,
		Payload:       payload,
		CreatedAt:     time.Now().UTC(),
		Published:     false,
	})
}

func (uc *GroupUseCase) retry(ctx context.Context, op func() error) error {
	if uc.retrier == nil {
		return op()
	}
	return uc.retrier.Retry(ctx, op)
}

func (uc *GroupUseCase) invalidate(ctx context.Context, groupID string) {
	if uc.cache != nil {
		_ = uc.cache.Delete(ctx, groupCacheKey(groupID))
	}
}

func (uc *GroupUseCase) audit(ctx context.Context, action domain.AuditAction, resourceType, resourceID string, before, after domain.JSON) {
	if uc.auditRepo == nil {
		return
	}

	userID := "system"
	if user, ok := domain.UserFromContext(ctx); ok {
		userID = user.ID
	}

	_ = uc.auditRepo.Create(ctx, &domain.AuditLog{
		ID:           uc.idGen.Generate(),
		UserID:       userID,
		Action:       string(action),
		ResourceType: resourceType,
		ResourceID:   resourceID,
		BeforeState:  before,
		AfterState:   after,
		Status:       string(domain.AuditStatusSuccess),
		CreatedAt:    time.Now(),
	})
}

func groupCacheKey(id string) string {
	return "group:" + id
}
