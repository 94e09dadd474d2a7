package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/herdpool/herdpool/internal/domain"
	"github.com/herdpool/herdpool/internal/infrastructure/metrics"
)

// PaymentUseCase is the payment reconciliation service. It stages funding
// intents, verifies them (repeatably, without side effects), and lets the
// orchestrator consume them exactly once. Verification and consumption are
// deliberately separate: that split is what makes duplicated gateway
// callbacks safe.
type PaymentUseCase struct {
	intentRepo IntentRepository
	gateway    PaymentGateway
	idGen      IDGenerator
	metrics    *metrics.Metrics
}

// NewPaymentUseCase creates a new PaymentUseCase.
func NewPaymentUseCase(
	intentRepo IntentRepository,
	gateway PaymentGateway,
	idGen IDGenerator,
	metrics *metrics.Metrics,
) *PaymentUseCase {
	return &PaymentUseCase{
		intentRepo: intentRepo,
		gateway:    gateway,
		idGen:      idGen,
		metrics:    metrics,
	}
}

// BeginInput describes the funding attempt being staged.
type BeginInput struct {
	UserID      string
	Email       string
	Amount      decimal.Decimal
	Action      domain.IntentAction
	GroupID     string
	Slots       int64
	CallbackURL string
}

// BeginResult carries the staged intent and, for external payments, the
// redirect handle the caller sends the payer to.
type BeginResult struct {
	Intent      *domain.PaymentIntent
	RedirectURL string
}

// BeginExternal initializes a payment with the external gateway and stages a
// pending intent under the gateway's reference.
func (uc *PaymentUseCase) BeginExternal(ctx context.Context, input BeginInput) (*BeginResult, error) {
	if err := domain.ValidateEmail(input.Email); err != nil {
		return nil, err
	}
	if err := domain.ValidateAmount(input.Amount); err != nil {
		return nil, err
	}

	checkout, err := uc.gateway.Initialize(ctx, input.Email, input.Amount, input.CallbackURL)
	if err != nil {
		if uc.metrics != nil {
			uc.metrics.GatewayCalls.WithLabelValues("initialize", "error").Inc()
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrGatewayUnavailable, err)
	}
	if uc.metrics != nil {
		uc.metrics.GatewayCalls.WithLabelValues("initialize", "ok").Inc()
	}

	intent, err := uc.stageIntent(ctx, input, checkout.Reference, domain.FundingMethodPaystack)
	if err != nil {
		return nil, err
	}

	return &BeginResult{Intent: intent, RedirectURL: checkout.RedirectURL}, nil
}

// BeginInternal stages a wallet-path intent under a locally minted reference.
// No gateway call; the wallet debit happens when the action completes.
func (uc *PaymentUseCase) BeginInternal(ctx context.Context, input BeginInput) (*BeginResult, error) {
	if err := domain.ValidateAmount(input.Amount); err != nil {
		return nil, err
	}

	reference := walletReferencePrefix + uc.idGen.Generate()

	intent, err := uc.stageIntent(ctx, input, reference, domain.FundingMethodWallet)
	if err != nil {
		return nil, err
	}

	return &BeginResult{Intent: intent}, nil
}

func (uc *PaymentUseCase) stageIntent(ctx context.Context, input BeginInput, reference string, method domain.FundingMethod) (*domain.PaymentIntent, error) {
	intent := &domain.PaymentIntent{
		ID:        uc.idGen.Generate(),
		UserID:    input.UserID,
		Email:     input.Email,
		Reference: reference,
		Action:    input.Action,
		Method:    method,
		Status:    domain.IntentStatusPending,
		GroupID:   input.GroupID,
		Slots:     input.Slots,
		Amount:    input.Amount,
		CreatedAt: time.Now().UTC(),
	}

	if err := intent.Validate(); err != nil {
		return nil, err
	}

	if err := uc.intentRepo.Create(ctx, intent); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.IntentsCreated.WithLabelValues(string(method)).Inc()
	}

	return intent, nil
}

// Resolution is a verified, not-yet-consumed funding intent.
type Resolution struct {
	Intent *domain.PaymentIntent
	// Amount is what actually settled: the gateway's verified figure for
	// external intents, the staged figure for wallet intents.
	Amount decimal.Decimal
}

// Resolve looks up an intent by reference and, for external intents, asks the
// gateway to verify it. Read-only and idempotent: a failed verification
// leaves the intent pending so the caller can retry later.
func (uc *PaymentUseCase) Resolve(ctx context.Context, reference string) (*Resolution, error) {
	if err := domain.ValidateReference(reference); err != nil {
		return nil, err
	}

	intent, err := uc.intentRepo.GetByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	if intent.Status != domain.IntentStatusPending {
		return nil, domain.ErrReferenceAlreadyUsed
	}

	if intent.Method == domain.FundingMethodWallet {
		return &Resolution{Intent: intent, Amount: intent.Amount}, nil
	}

	verification, err := uc.gateway.Verify(ctx, reference)
	if err != nil {
		if uc.metrics != nil {
			uc.metrics.GatewayCalls.WithLabelValues("verify", "error").Inc()
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrGatewayUnavailable, err)
	}

	if !strings.EqualFold(verification.Status, "success") {
		if uc.metrics != nil {
			uc.metrics.GatewayCalls.WithLabelValues("verify", verification.Status).Inc()
		}
		return nil, domain.ErrVerificationFailed
	}

	if uc.metrics != nil {
		uc.metrics.GatewayCalls.WithLabelValues("verify", "ok").Inc()
	}

	return &Resolution{Intent: intent, Amount: verification.Amount}, nil
}

// ConsumeIntent marks an intent consumed inside the caller's transaction.
// The orchestrator calls this in the same atomic unit as the group mutation
// the intent funds; replays hit ErrReferenceAlreadyUsed.
func (uc *PaymentUseCase) ConsumeIntent(ctx context.Context, tx Transaction, reference string) error {
	if err := uc.intentRepo.Consume(ctx, tx, reference, time.Now().UTC()); err != nil {
		return err
	}

	if uc.metrics != nil {
		uc.metrics.IntentsConsumed.Inc()
	}

	return nil
}

// GetIntent retrieves an intent by reference, whatever its status.
func (uc *PaymentUseCase) GetIntent(ctx context.Context, reference string) (*domain.PaymentIntent, error) {
	return uc.intentRepo.GetByReference(ctx, reference)
}
