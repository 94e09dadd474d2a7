package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"go.uber.org/mock/gomock"

	"github.com/herdpool/herdpool/internal/domain"
	"github.com/herdpool/herdpool/internal/usecase"
	"github.com/herdpool/herdpool/internal/usecase/mocks"
)

func TestPaymentUseCase_BeginExternal(t *testing.T) {
	ctrl := gomock.NewController(t)
	gateway := mocks.NewMockPaymentGateway(ctrl)
	intentRepo := mocks.NewMockIntentRepository()

	amount := decimal.NewFromInt(5000)
	gateway.EXPECT().
		Initialize(gomock.Any(), "buyer@example.com", amount, "http://localhost/cb").
		Return(&usecase.GatewayCheckout{
			Reference:   "PS-abc123",
			RedirectURL: "https://checkout.paystack.com/abc123",
		}, nil)

	uc := usecase.NewPaymentUseCase(intentRepo, gateway, mocks.NewMockIDGenerator(), nil)

	result, err := uc.BeginExternal(context.Background(), usecase.BeginInput{
		UserID:      "usr_1",
		Email:       "buyer@example.com",
		Amount:      amount,
		Action:      domain.IntentActionJoinGroup,
		GroupID:     "grp_1",
		Slots:       5,
		CallbackURL: "http://localhost/cb",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.RedirectURL != "https://checkout.paystack.com/abc123" {
		t.Errorf("unexpected redirect: %s", result.RedirectURL)
	}
	if result.Intent.Reference != "PS-abc123" {
		t.Errorf("intent must carry the gateway reference, got %s", result.Intent.Reference)
	}
	if result.Intent.Method != domain.FundingMethodPaystack {
		t.Errorf("expected paystack method, got %s", result.Intent.Method)
	}

	staged, err := intentRepo.GetByReference(context.Background(), "PS-abc123")
	if err != nil {
		t.Fatalf("intent was not staged: %v", err)
	}
	if staged.Status != domain.IntentStatusPending {
		t.Errorf("staged intent should be pending, got %s", staged.Status)
	}
}

func TestPaymentUseCase_BeginExternal_GatewayDown(t *testing.T) {
	ctrl := gomock.NewController(t)
	gateway := mocks.NewMockPaymentGateway(ctrl)
	gateway.EXPECT().
		Initialize(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, errors.New("connect timeout"))

	uc := usecase.NewPaymentUseCase(mocks.NewMockIntentRepository(), gateway, mocks.NewMockIDGenerator(), nil)

	_, err := uc.BeginExternal(context.Background(), usecase.BeginInput{
		UserID: "usr_1",
		Email:  "buyer@example.com",
		Amount: decimal.NewFromInt(5000),
		Action: domain.IntentActionJoinGroup,
		Slots:  1,
	})
	if !errors.Is(err, domain.ErrGatewayUnavailable) {
		t.Fatalf("expected ErrGatewayUnavailable, got %v", err)
	}
}

func TestPaymentUseCase_BeginInternal(t *testing.T) {
	intentRepo := mocks.NewMockIntentRepository()
	uc := usecase.NewPaymentUseCase(intentRepo, nil, mocks.NewMockIDGenerator(), nil)

	result, err := uc.BeginInternal(context.Background(), usecase.BeginInput{
		UserID:  "usr_1",
		Amount:  decimal.NewFromInt(1000),
		Action:  domain.IntentActionJoinGroup,
		GroupID: "grp_1",
		Slots:   1,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.RedirectURL != "" {
		t.Errorf("wallet intents have no redirect, got %s", result.RedirectURL)
	}
	if result.Intent.Method != domain.FundingMethodWallet {
		t.Errorf("expected wallet method, got %s", result.Intent.Method)
	}
	if result.Intent.Reference[:4] != "WLT-" {
		t.Errorf("wallet references carry the WLT- prefix, got %s", result.Intent.Reference)
	}
}

func TestPaymentUseCase_Resolve(t *testing.T) {
	tests := []struct {
		name        string
		intent      *domain.PaymentIntent
		setupMocks  func(*mocks.MockPaymentGateway)
		wantAmount  decimal.Decimal
		expectError error
	}{
		{
			name: "wallet intent resolves without a gateway call",
			intent: &domain.PaymentIntent{
				Reference: "WLT-000001",
				Method:    domain.FundingMethodWallet,
				Status:    domain.IntentStatusPending,
				Amount:    decimal.NewFromInt(1000),
			},
			setupMocks: func(gateway *mocks.MockPaymentGateway) {},
			wantAmount: decimal.NewFromInt(1000),
		},
		{
			name: "external intent resolves to the verified amount",
			intent: &domain.PaymentIntent{
				Reference: "PS-abc123",
				Method:    domain.FundingMethodPaystack,
				Status:    domain.IntentStatusPending,
				Amount:    decimal.NewFromInt(1000),
			},
			setupMocks: func(gateway *mocks.MockPaymentGateway) {
				gateway.EXPECT().
					Verify(gomock.Any(), "PS-abc123").
					Return(&usecase.GatewayVerification{
						Status: "success",
						Amount: decimal.NewFromInt(990),
					}, nil)
			},
			wantAmount: decimal.NewFromInt(990),
		},
		{
			name: "failed verification leaves the intent pending",
			intent: &domain.PaymentIntent{
				Reference: "PS-abc123",
				Method:    domain.FundingMethodPaystack,
				Status:    domain.IntentStatusPending,
				Amount:    decimal.NewFromInt(1000),
			},
			setupMocks: func(gateway *mocks.MockPaymentGateway) {
				gateway.EXPECT().
					Verify(gomock.Any(), "PS-abc123").
					Return(&usecase.GatewayVerification{Status: "abandoned"}, nil)
			},
			expectError: domain.ErrVerificationFailed,
		},
		{
			name: "consumed intent cannot be resolved again",
			intent: &domain.PaymentIntent{
				Reference: "PS-abc123",
				Method:    domain.FundingMethodPaystack,
				Status:    domain.IntentStatusConsumed,
				Amount:    decimal.NewFromInt(1000),
			},
			setupMocks:  func(gateway *mocks.MockPaymentGateway) {},
			expectError: domain.ErrReferenceAlreadyUsed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			gateway := mocks.NewMockPaymentGateway(ctrl)
			tt.setupMocks(gateway)

			intentRepo := mocks.NewMockIntentRepository()
			if err := intentRepo.Create(context.Background(), tt.intent); err != nil {
				t.Fatalf("failed to stage intent: %v", err)
			}

			uc := usecase.NewPaymentUseCase(intentRepo, gateway, mocks.NewMockIDGenerator(), nil)
			resolution, err := uc.Resolve(context.Background(), tt.intent.Reference)

			if tt.expectError != nil {
				if !errors.Is(err, tt.expectError) {
					t.Fatalf("expected %v, got %v", tt.expectError, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !resolution.Amount.Equal(tt.wantAmount) {
				t.Errorf("expected amount %s, got %s", tt.wantAmount, resolution.Amount)
			}
		})
	}
}

func TestPaymentUseCase_Resolve_UnknownReference(t *testing.T) {
	uc := usecase.NewPaymentUseCase(mocks.NewMockIntentRepository(), nil, mocks.NewMockIDGenerator(), nil)

	if _, err := uc.Resolve(context.Background(), "PS-missing"); !errors.Is(err, domain.ErrUnknownReference) {
		t.Fatalf("expected ErrUnknownReference, got %v", err)
	}

	// A malformed reference is rejected before any lookup.
	if _, err := uc.Resolve(context.Background(), "x"); !errors.Is(err, domain.ErrInvalidReference) {
		t.Fatalf("expected ErrInvalidReference, got %v", err)
	}
}

func TestPaymentUseCase_ConsumeIntent(t *testing.T) {
	intentRepo := mocks.NewMockIntentRepository()
	intent := &domain.PaymentIntent{
		Reference: "PS-abc123",
		Method:    domain.FundingMethodPaystack,
		Status:    domain.IntentStatusPending,
		Amount:    decimal.NewFromInt(1000),
	}
	if err := intentRepo.Create(context.Background(), intent); err != nil {
		t.Fatalf("failed to stage intent: %v", err)
	}

	uc := usecase.NewPaymentUseCase(intentRepo, nil, mocks.NewMockIDGenerator(), nil)
	tx := &mocks.MockTransaction{}

	if err := uc.ConsumeIntent(context.Background(), tx, "PS-abc123"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if intent.ConsumedAt == nil {
		t.Error("expected ConsumedAt to be set")
	}

	// Second consumption is the double-credit replay; it must fail.
	if err := uc.ConsumeIntent(context.Background(), tx, "PS-abc123"); !errors.Is(err, domain.ErrReferenceAlreadyUsed) {
		t.Fatalf("expected ErrReferenceAlreadyUsed, got %v", err)
	}
}
