package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestValidateAmount(t *testing.T) {
	tests := []struct {
		name        string
		amount      decimal.Decimal
		expectError error
	}{
		{name: "valid amount", amount: decimal.NewFromInt(1000)},
		{name: "minimum amount", amount: decimal.NewFromFloat(0.01)},
		{name: "zero", amount: decimal.Zero, expectError: ErrInvalidAmount},
		{name: "negative", amount: decimal.NewFromInt(-5), expectError: ErrInvalidAmount},
		{name: "below minimum", amount: decimal.NewFromFloat(0.001), expectError: ErrAmountTooSmall},
		{name: "above maximum", amount: decimal.RequireFromString("1000000001"), expectError: ErrAmountTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAmount(tt.amount)

			if tt.expectError == nil && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if tt.expectError != nil && !errors.Is(err, tt.expectError) {
				t.Errorf("expected %v, got %v", tt.expectError, err)
			}
		})
	}
}

func TestValidateSlotCount(t *testing.T) {
	if err := ValidateSlotCount(1); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := ValidateSlotCount(MaxSlotsPerGroup); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := ValidateSlotCount(0); !errors.Is(err, ErrInvalidSlotCount) {
		t.Errorf("expected ErrInvalidSlotCount, got %v", err)
	}
	if err := ValidateSlotCount(MaxSlotsPerGroup + 1); !errors.Is(err, ErrTooManySlots) {
		t.Errorf("expected ErrTooManySlots, got %v", err)
	}
}

func TestValidateEmail(t *testing.T) {
	valid := []string{"user@example.com", "USER@EXAMPLE.COM", "a.b+c@sub.domain.ng"}
	for _, email := range valid {
		if err := ValidateEmail(email); err != nil {
			t.Errorf("%q should be valid: %v", email, err)
		}
	}

	invalid := []string{"", "user", "user@", "@example.com", "user@example"}
	for _, email := range invalid {
		if err := ValidateEmail(email); err == nil {
			t.Errorf("%q should be invalid", email)
		}
	}
}

func TestValidateReference(t *testing.T) {
	valid := []string{"WLT-01HQZX3F8N", "PS-abc123", "a_b-c12345"}
	for _, ref := range valid {
		if err := ValidateReference(ref); err != nil {
			t.Errorf("%q should be valid: %v", ref, err)
		}
	}

	invalid := []string{"", "short", "has space here", "semi;colon-ref"}
	for _, ref := range invalid {
		if err := ValidateReference(ref); err == nil {
			t.Errorf("%q should be invalid", ref)
		}
	}
}

func TestValidatePagination(t *testing.T) {
	tests := []struct {
		name                 string
		limit, offset        int
		wantLimit, wantOffset int
	}{
		{name: "defaults", limit: 0, offset: 0, wantLimit: 50, wantOffset: 0},
		{name: "passthrough", limit: 20, offset: 40, wantLimit: 20, wantOffset: 40},
		{name: "capped limit", limit: 5000, offset: 0, wantLimit: 1000, wantOffset: 0},
		{name: "negative offset", limit: 10, offset: -5, wantLimit: 10, wantOffset: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limit, offset := ValidatePagination(tt.limit, tt.offset)
			if limit != tt.wantLimit || offset != tt.wantOffset {
				t.Errorf("got (%d, %d), want (%d, %d)", limit, offset, tt.wantLimit, tt.wantOffset)
			}
		})
	}
}

func TestPaymentIntent_Validate(t *testing.T) {
	valid := PaymentIntent{
		Action: IntentActionJoinGroup,
		Slots:  2,
		Amount: decimal.NewFromInt(2000),
	}

	if err := valid.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	noSlots := valid
	noSlots.Slots = 0
	if err := noSlots.Validate(); err != ErrInvalidSlotCount {
		t.Errorf("expected ErrInvalidSlotCount, got %v", err)
	}

	badAction := valid
	badAction.Action = "group.destroy"
	if err := badAction.Validate(); err != ErrInvalidIntentAction {
		t.Errorf("expected ErrInvalidIntentAction, got %v", err)
	}
}
