package workers

import (
	"context"
	"errors"
	"testing"

	"daobank/contexts/governance-core/treasury-service/adapters/memory"
	"daobank/contexts/governance-core/treasury-service/application/commands"
	"daobank/contexts/governance-core/treasury-service/ports"
)

type capturePublisher struct {
	published []ports.EventEnvelope
	failAfter int // publish errors once this many events went through; 0 never fails
}

func (p *capturePublisher) Publish(_ context.Context, _ string, event ports.EventEnvelope) error {
	if p.failAfter > 0 && len(p.published) >= p.failAfter {
		return errors.New("bus unavailable")
	}
	p.published = append(p.published, event)
	return nil
}

func appendEnvelopes(t *testing.T, store *memory.Store, count int) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < count; i++ {
		envelope := commands.NewTreasuryEnvelope(commands.EventSpendPolled, 11, store.Now(), map[string]any{
			"sequence": i,
		})
		if err := store.AppendOutbox(ctx, envelope); err != nil {
			t.Fatalf("append outbox: %v", err)
		}
	}
}

func TestOutboxRelayPublishesAndMarksRows(t *testing.T) {
	store := memory.NewStore()
	publisher := &capturePublisher{}
	relay := OutboxRelay{
		Outbox:    store,
		Publisher: publisher,
		Clock:     store,
	}
	appendEnvelopes(t, store, 3)

	published, err := relay.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("relay run: %v", err)
	}
	if published != 3 {
		t.Fatalf("expected 3 published, got %d", published)
	}
	if remaining := store.PendingOutboxCount(); remaining != 0 {
		t.Fatalf("expected no pending rows, got %d", remaining)
	}
	for _, event := range publisher.published {
		if event.EventType != commands.EventSpendPolled {
			t.Fatalf("unexpected event type %q", event.EventType)
		}
	}
}

func TestOutboxRelayEmptyOutboxIsNoop(t *testing.T) {
	store := memory.NewStore()
	publisher := &capturePublisher{}
	relay := OutboxRelay{Outbox: store, Publisher: publisher, Clock: store}

	published, err := relay.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("relay run: %v", err)
	}
	if published != 0 || len(publisher.published) != 0 {
		t.Fatalf("expected no publishes, got %d/%d", published, len(publisher.published))
	}
}

func TestOutboxRelayStopsOnPublishFailureAndRetries(t *testing.T) {
	store := memory.NewStore()
	publisher := &capturePublisher{failAfter: 2}
	relay := OutboxRelay{Outbox: store, Publisher: publisher, Clock: store}
	appendEnvelopes(t, store, 3)

	published, err := relay.RunOnce(context.Background())
	if err == nil {
		t.Fatal("expected publish failure")
	}
	if published != 2 {
		t.Fatalf("expected 2 published before the failure, got %d", published)
	}
	if remaining := store.PendingOutboxCount(); remaining != 1 {
		t.Fatalf("expected 1 row left pending, got %d", remaining)
	}

	// Lift the failure; the next cycle drains the rest without republishing.
	publisher.failAfter = 0
	published, err = relay.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("retry run: %v", err)
	}
	if published != 1 {
		t.Fatalf("expected the 1 remaining row, got %d", published)
	}
	if remaining := store.PendingOutboxCount(); remaining != 0 {
		t.Fatalf("expected outbox drained, got %d pending", remaining)
	}
}

func TestOutboxRelayHonorsBatchSize(t *testing.T) {
	store := memory.NewStore()
	publisher := &capturePublisher{}
	relay := OutboxRelay{Outbox: store, Publisher: publisher, Clock: store, BatchSize: 2}
	appendEnvelopes(t, store, 5)

	published, err := relay.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("relay run: %v", err)
	}
	if published != 2 {
		t.Fatalf("expected batch of 2, got %d", published)
	}
	if remaining := store.PendingOutboxCount(); remaining != 3 {
		t.Fatalf("expected 3 pending after batch, got %d", remaining)
	}
}
