package workers

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	application "daobank/contexts/governance-core/treasury-service/application"
	"daobank/contexts/governance-core/treasury-service/ports"
)

// OutboxRelay publishes persisted outbox records to the event bus.
type OutboxRelay struct {
	Outbox    ports.OutboxRepository
	Publisher ports.EventPublisher
	Clock     ports.Clock
	BatchSize int
	Logger    *slog.Logger
}

// RunOnce publishes a bounded batch of pending outbox rows and marks each row
// published only after the publish succeeds. It stops on the first failure so
// the retry loop can reprocess remaining rows safely. Returns the number of
// rows published.
func (r OutboxRelay) RunOnce(ctx context.Context) (int, error) {
	logger := application.ResolveLogger(r.Logger)
	limit := r.BatchSize
	if limit <= 0 {
		limit = 100
	}

	pending, err := r.Outbox.ListPendingOutbox(ctx, limit)
	if err != nil {
		logger.Error("treasury outbox list failed",
			"event", "treasury_outbox_list_failed",
			"module", "governance-core/treasury-service",
			"layer", "worker",
			"error", err.Error(),
		)
		return 0, err
	}
	if len(pending) == 0 {
		return 0, nil
	}

	now := time.Now().UTC()
	if r.Clock != nil {
		now = r.Clock.Now().UTC()
	}

	published := 0
	for _, row := range pending {
		var event ports.EventEnvelope
		if err := json.Unmarshal(row.Payload, &event); err != nil {
			logger.Error("treasury outbox decode failed",
				"event", "treasury_outbox_decode_failed",
				"module", "governance-core/treasury-service",
				"layer", "worker",
				"outbox_id", row.OutboxID,
				"error", err.Error(),
			)
			return published, err
		}
		topic := event.EventType
		if topic == "" {
			topic = row.EventType
		}
		if err := r.Publisher.Publish(ctx, topic, event); err != nil {
			logger.Error("treasury outbox publish failed",
				"event", "treasury_outbox_publish_failed",
				"module", "governance-core/treasury-service",
				"layer", "worker",
				"outbox_id", row.OutboxID,
				"event_type", event.EventType,
				"error", err.Error(),
			)
			return published, err
		}
		if err := r.Outbox.MarkOutboxPublished(ctx, row.OutboxID, now); err != nil {
			return published, err
		}
		published++
	}

	logger.Info("treasury outbox relay cycle completed",
		"event", "treasury_outbox_relay_completed",
		"module", "governance-core/treasury-service",
		"layer", "worker",
		"published_count", published,
	)
	return published, nil
}
