package commands

import (
	"strconv"
	"time"

	"daobank/contexts/governance-core/treasury-service/ports"

	"github.com/google/uuid"
)

const (
	EventTreasuryOpened          = "treasury.opened"
	EventTreasuryClosed          = "treasury.closed"
	EventSpendProposed           = "treasury.spend.proposed"
	EventSpendVoteTriggered      = "treasury.spend.vote_triggered"
	EventSpendSudoApproved       = "treasury.spend.sudo_approved"
	EventSpendPolled             = "treasury.spend.polled"
	EventMembershipProposed      = "treasury.membership.proposed"
	EventMembershipVoteTriggered = "treasury.membership.vote_triggered"
	EventMembershipPolled        = "treasury.membership.polled"
)

// NewTreasuryEnvelope builds the canonical event envelope for a treasury
// scoped event. Workers reuse it for poll notifications.
func NewTreasuryEnvelope(
	eventType string,
	treasuryID uint64,
	occurredAt time.Time,
	payload map[string]any,
) ports.EventEnvelope {
	return ports.EventEnvelope{
		EventID:        uuid.NewString(),
		EventType:      eventType,
		SourceService:  "treasury-service",
		OccurredAtUTC:  occurredAt.UTC(),
		EntityType:     "treasury",
		EntityID:       strconv.FormatUint(treasuryID, 10),
		PayloadVersion: 1,
		Payload:        payload,
	}
}
