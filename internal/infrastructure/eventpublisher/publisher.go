package eventpublisher

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"github.com/herdpool/herdpool/internal/domain"
	"github.com/herdpool/herdpool/internal/usecase"
)

const (
	defaultBatchSize = 100
	defaultInterval  = 5 * time.Second
)

// Publisher delivers an outbox event to an external system.
type Publisher interface {
	Publish(ctx context.Context, event *domain.OutboxEvent) error
}

// EventPublisher drains committed outbox events on a polling loop.
type EventPublisher struct {
	outboxRepo usecase.OutboxRepository
	publisher  Publisher
	logger     zerolog.Logger
	batchSize  int
	interval   time.Duration
}

// Config for EventPublisher.
type Config struct {
	OutboxRepo usecase.OutboxRepository
	Publisher  Publisher
	Logger     zerolog.Logger
	BatchSize  int
	Interval   time.Duration
}

// NewEventPublisher creates an EventPublisher with defaults applied.
func NewEventPublisher(cfg Config) *EventPublisher {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	if cfg.Interval <= 0 {
		cfg.Interval = defaultInterval
	}

	return &EventPublisher{
		outboxRepo: cfg.OutboxRepo,
		publisher:  cfg.Publisher,
		logger:     cfg.Logger,
		batchSize:  cfg.BatchSize,
		interval:   cfg.Interval,
	}
}

// Start runs the publishing loop until the context is cancelled. One
// drain happens immediately so a restart does not wait a full interval.
func (ep *EventPublisher) Start(ctx context.Context) error {
	ep.logger.Info().
		Int("batch_size", ep.batchSize).
		Dur("interval", ep.interval).
		Msg("outbox publisher started")

	ticker := time.NewTicker(ep.interval)
	defer ticker.Stop()

	if err := ep.drainOnce(ctx); err != nil {
		ep.logger.Error().Err(err).Msg("outbox drain failed")
	}

	for {
		select {
		case <-ctx.Done():
			ep.logger.Info().Msg("outbox publisher stopping")
			return ctx.Err()
		case <-ticker.C:
			if err := ep.drainOnce(ctx); err != nil {
				ep.logger.Error().Err(err).Msg("outbox drain failed")
			}
		}
	}
}

// drainOnce publishes one batch of unpublished events. A failing event
// is skipped and retried on the next pass; a published event that
// cannot be marked stays in the outbox, so delivery is at-least-once.
func (ep *EventPublisher) drainOnce(ctx context.Context) error {
	events, err := ep.outboxRepo.GetUnpublished(ctx, ep.batchSize)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		return nil
	}

	for _, event := range events {
		if err := ep.publisher.Publish(ctx, event); err != nil {
			ep.logger.Error().Err(err).
				Str("event_id", event.ID).
				Str("event_type", event.EventType).
				Msg("publish failed")
			continue
		}

		if err := ep.outboxRepo.MarkPublished(ctx, event.ID, time.Now()); err != nil {
			ep.logger.Error().Err(err).
				Str("event_id", event.ID).
				Msg("mark published failed")
			continue
		}

		ep.logger.Debug().
			Str("event_id", event.ID).
			Str("event_type", event.EventType).
			Str("aggregate_type", event.AggregateType).
			Str("aggregate_id", event.AggregateID).
			Msg("event published")
	}

	return nil
}

// LogPublisher writes events to the log instead of a broker. Used as
// the default sink until a real broker is wired in deployment.
type LogPublisher struct {
	logger zerolog.Logger
}

// NewLogPublisher creates a LogPublisher. A nil logger silences it.
func NewLogPublisher(logger *zerolog.Logger) *LogPublisher {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &LogPublisher{logger: *logger}
}

// Publish logs the event with its payload.
func (p *LogPublisher) Publish(ctx context.Context, event *domain.OutboxEvent) error {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return err
	}

	p.logger.Info().
		Str("event_id", event.ID).
		Str("event_type", event.EventType).
		Str("aggregate_type", event.AggregateType).
		Str("aggregate_id", event.AggregateID).
		RawJSON("payload", payload).
		Msg("outbox event")

	return nil
}
