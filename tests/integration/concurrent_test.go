package integration

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/herdpool/herdpool/internal/domain"
	"github.com/herdpool/herdpool/internal/usecase"
	"github.com/herdpool/herdpool/tests/testutil"
)

// Five joiners race for the three remaining slots. The group row lock
// serializes the settlements; exactly three may land.
func TestConcurrentJoinsNoOversell(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	testDB := testutil.NewTestDB(t)
	defer testDB.Cleanup()
	testDB.TruncateAll(ctx)

	env := newTestEnv(t, testDB)

	livestockID := "cow_" + testutil.GenerateID()
	testDB.CreateTestListing(ctx, livestockID, decimal.NewFromInt(4000), decimal.NewFromInt(1000))

	creator := "usr_" + testutil.GenerateID()
	testDB.CreateTestWallet(ctx, creator, decimal.NewFromInt(1000))

	group, err := env.Groups.StartCreate(ctx, usecase.StartCreateInput{
		CreatorID:    creator,
		LivestockID:  livestockID,
		TotalSlots:   4,
		SlotPrice:    decimal.NewFromInt(1000),
		InitialSlots: 1,
	})
	if err != nil {
		t.Fatalf("StartCreate failed: %v", err)
	}
	if _, err := env.Groups.CompleteCreate(ctx, usecase.CompleteCreateInput{
		GroupID:   group.ID,
		CreatorID: creator,
		Method:    domain.FundingMethodWallet,
	}); err != nil {
		t.Fatalf("CompleteCreate failed: %v", err)
	}

	const contenders = 5

	joiners := make([]string, contenders)
	references := make([]string, contenders)
	for i := range joiners {
		joiners[i] = fmt.Sprintf("usr_joiner_%d_%s", i, testutil.GenerateID())
		testDB.CreateTestWallet(ctx, joiners[i], decimal.NewFromInt(1000))

		staged, err := env.Groups.StartJoin(ctx, usecase.StartJoinInput{
			GroupID: group.ID,
			UserID:  joiners[i],
			Slots:   1,
			Method:  domain.FundingMethodWallet,
		})
		if err != nil {
			t.Fatalf("StartJoin failed for %s: %v", joiners[i], err)
		}
		references[i] = staged.Reference
	}

	var wg sync.WaitGroup
	errs := make([]error, contenders)
	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.Groups.CompleteJoin(ctx, usecase.CompleteJoinInput{
				GroupID:   group.ID,
				UserID:    joiners[i],
				Reference: references[i],
			})
		}(i)
	}
	wg.Wait()

	var settled, rejected int
	for i, err := range errs {
		if err == nil {
			settled++
			if got := testDB.WalletBalance(ctx, joiners[i]); !got.IsZero() {
				t.Errorf("settled joiner %s should have spent everything, got %s", joiners[i], got)
			}
		} else {
			rejected++
			if got := testDB.WalletBalance(ctx, joiners[i]); !got.Equal(decimal.NewFromInt(1000)) {
				t.Errorf("rejected joiner %s must keep the money, got %s", joiners[i], got)
			}
		}
	}
	if settled != 3 || rejected != 2 {
		t.Fatalf("expected 3 settled / 2 rejected, got %d / %d", settled, rejected)
	}

	final, err := env.GroupRepo.GetByID(ctx, group.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if final.Status != domain.GroupStatusCompleted {
		t.Errorf("expected completed group, got %s", final.Status)
	}
	if final.SlotsTaken != 4 || final.SlotsLeft != 0 {
		t.Errorf("expected 4 taken / 0 left, got %d / %d", final.SlotsTaken, final.SlotsLeft)
	}
	if !final.AmountSettled.Equal(decimal.NewFromInt(4000)) {
		t.Errorf("expected 4000 settled, got %s", final.AmountSettled)
	}
	if got := testDB.CountRows(ctx, "participations"); got != 4 {
		t.Errorf("expected 4 participations, got %d", got)
	}
}

func TestConcurrentDebitsRespectBalanceFloor(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	testDB := testutil.NewTestDB(t)
	defer testDB.Cleanup()
	testDB.TruncateAll(ctx)

	env := newTestEnv(t, testDB)

	userID := "usr_" + testutil.GenerateID()
	testDB.CreateTestWallet(ctx, userID, decimal.NewFromInt(300))

	const workers = 5

	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.Wallets.Debit(ctx, usecase.MoveFundsInput{
				UserID:      userID,
				Amount:      decimal.NewFromInt(100),
				Description: "concurrent spend",
			})
		}(i)
	}
	wg.Wait()

	var succeeded int
	for _, err := range errs {
		if err == nil {
			succeeded++
		}
	}
	if succeeded != 3 {
		t.Errorf("expected exactly 3 debits to land, got %d", succeeded)
	}

	if got := testDB.WalletBalance(ctx, userID); !got.IsZero() {
		t.Errorf("expected drained wallet, got %s", got)
	}
	if err := env.Wallets.CheckConsistency(ctx, userID); err != nil {
		t.Errorf("consistency check failed: %v", err)
	}
}
