package usecase

import (
	"context"
	"time"

	"github.com/herdpool/herdpool/internal/infrastructure/metrics"
)

// ReaperUseCase expires stale staged state: payment intents nobody completed
// and drafted groups nobody funded. Run on demand from the CLI rather than a
// background scheduler.
type ReaperUseCase struct {
	intentRepo IntentRepository
	groupRepo  GroupRepository
	metrics    *metrics.Metrics
}

// NewReaperUseCase creates a new ReaperUseCase.
func NewReaperUseCase(intentRepo IntentRepository, groupRepo GroupRepository, metrics *metrics.Metrics) *ReaperUseCase {
	return &ReaperUseCase{
		intentRepo: intentRepo,
		groupRepo:  groupRepo,
		metrics:    metrics,
	}
}

// ExpireIntents marks pending intents older than ttl as expired. Expired
// intents can no longer be resolved or consumed.
func (uc *ReaperUseCase) ExpireIntents(ctx context.Context, ttl time.Duration) (int64, error) {
	if ttl <= 0 {
		ttl = DefaultIntentTTL
	}

	n, err := uc.intentRepo.ExpireBefore(ctx, time.Now().UTC().Add(-ttl))
	if err != nil {
		return 0, err
	}

	if uc.metrics != nil {
		uc.metrics.IntentsExpired.Add(float64(n))
	}

	return n, nil
}

// ExpireDraftGroups cancels pending groups older than ttl. Cancellation is a
// forward transition, so a late completion attempt fails cleanly.
func (uc *ReaperUseCase) ExpireDraftGroups(ctx context.Context, ttl time.Duration) (int64, error) {
	if ttl <= 0 {
		ttl = DefaultDraftTTL
	}

	n, err := uc.groupRepo.CancelDraftsBefore(ctx, time.Now().UTC().Add(-ttl))
	if err != nil {
		return 0, err
	}

	if uc.metrics != nil {
		uc.metrics.GroupsCancelled.Add(float64(n))
	}

	return n, nil
}
