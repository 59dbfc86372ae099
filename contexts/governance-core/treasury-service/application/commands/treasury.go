package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "daobank/contexts/governance-core/treasury-service/application"
	"daobank/contexts/governance-core/treasury-service/domain/entities"
	domainerrors "daobank/contexts/governance-core/treasury-service/domain/errors"
	"daobank/contexts/governance-core/treasury-service/ports"
)

// OpenTreasuryCommand is the write-model input for opening an org treasury.
type OpenTreasuryCommand struct {
	Opener     string
	OrgID      uint64
	Deposit    uint64
	Controller string // optional; empty defers authorization to org supervision
}

// CloseTreasuryCommand winds a treasury down and distributes its balance.
type CloseTreasuryCommand struct {
	Closer     string
	TreasuryID uint64
}

// TreasuryUseCase owns treasury lifecycle: registry entries, the
// one-treasury-per-org slot, custodial funding, and close-out distribution.
type TreasuryUseCase struct {
	Treasuries  ports.TreasuryRepository
	Nonces      ports.NonceStore
	Org         ports.OrgService
	Ledger      ports.Ledger
	Distributor ports.Distributor
	Outbox      ports.OutboxWriter
	Clock       ports.Clock
	MinDeposit  uint64
	Logger      *slog.Logger
}

// Open validates the deposit and the org slot, allocates a treasury id,
// funds the custodial account and records the registry entry. Validation
// failures mutate nothing.
func (uc TreasuryUseCase) Open(ctx context.Context, cmd OpenTreasuryCommand) (entities.Treasury, error) {
	logger := application.ResolveLogger(uc.Logger)
	opener := strings.TrimSpace(cmd.Opener)
	logger.Info("treasury open started",
		"event", "treasury_open_started",
		"module", "governance-core/treasury-service",
		"layer", "application",
		"opener", opener,
		"org_id", cmd.OrgID,
		"deposit", cmd.Deposit,
	)

	if cmd.Deposit < uc.MinDeposit {
		logger.Warn("treasury open deposit below minimum",
			"event", "treasury_open_deposit_below_minimum",
			"module", "governance-core/treasury-service",
			"layer", "application",
			"org_id", cmd.OrgID,
			"deposit", cmd.Deposit,
			"minimum", uc.MinDeposit,
		)
		return entities.Treasury{}, domainerrors.ErrDepositBelowMinimum
	}
	taken, err := uc.Treasuries.OrgSlotTaken(ctx, cmd.OrgID)
	if err != nil {
		return entities.Treasury{}, err
	}
	if taken {
		return entities.Treasury{}, domainerrors.ErrOrgAlreadyHasTreasury
	}
	member, err := uc.Org.IsMember(ctx, cmd.OrgID, opener)
	if err != nil {
		return entities.Treasury{}, err
	}
	if !member {
		return entities.Treasury{}, domainerrors.ErrNotAMember
	}

	treasuryID, err := nextID(ctx, uc.Nonces, treasuryNamespace, uc.Treasuries.TreasuryExists)
	if err != nil {
		return entities.Treasury{}, err
	}
	custodial := entities.CustodialAccount(treasuryID)
	if err := uc.Ledger.Transfer(ctx, opener, custodial, cmd.Deposit, true); err != nil {
		return entities.Treasury{}, err
	}

	now := uc.now()
	treasury := entities.Treasury{
		TreasuryID: treasuryID,
		OrgID:      cmd.OrgID,
		Controller: strings.TrimSpace(cmd.Controller),
		OpenedBy:   opener,
		CreatedAt:  now,
	}
	if err := uc.Treasuries.SaveTreasury(ctx, treasury); err != nil {
		return entities.Treasury{}, err
	}
	if err := uc.Treasuries.ReserveOrgSlot(ctx, cmd.OrgID); err != nil {
		return entities.Treasury{}, err
	}
	if err := uc.appendEvent(ctx, EventTreasuryOpened, treasuryID, now, map[string]any{
		"opener":     opener,
		"org_id":     cmd.OrgID,
		"deposit":    cmd.Deposit,
		"controller": treasury.Controller,
	}); err != nil {
		return entities.Treasury{}, err
	}

	logger.Info("treasury opened",
		"event", "treasury_opened",
		"module", "governance-core/treasury-service",
		"layer", "application",
		"treasury_id", treasuryID,
		"org_id", cmd.OrgID,
		"custodial_account", custodial,
	)
	return treasury, nil
}

// Close distributes the remaining custodial balance pro-rata across the org
// membership, then removes the registry entry and releases the org slot.
func (uc TreasuryUseCase) Close(ctx context.Context, cmd CloseTreasuryCommand) error {
	logger := application.ResolveLogger(uc.Logger)
	closer := strings.TrimSpace(cmd.Closer)

	treasury, err := uc.Treasuries.GetTreasury(ctx, cmd.TreasuryID)
	if err != nil {
		return err
	}
	if err := uc.authorizeClose(ctx, treasury, closer); err != nil {
		logger.Warn("treasury close rejected",
			"event", "treasury_close_rejected",
			"module", "governance-core/treasury-service",
			"layer", "application",
			"treasury_id", cmd.TreasuryID,
			"closer", closer,
		)
		return err
	}

	custodial := entities.CustodialAccount(treasury.TreasuryID)
	remaining, err := uc.Ledger.TotalBalance(ctx, custodial)
	if err != nil {
		return err
	}
	if remaining > 0 {
		if err := uc.Distributor.Distribute(ctx, custodial, treasury.OrgID, closer, remaining); err != nil {
			return err
		}
	}

	if err := uc.Treasuries.DeleteTreasury(ctx, treasury.TreasuryID); err != nil {
		return err
	}
	if err := uc.Treasuries.ReleaseOrgSlot(ctx, treasury.OrgID); err != nil {
		return err
	}

	now := uc.now()
	if err := uc.appendEvent(ctx, EventTreasuryClosed, treasury.TreasuryID, now, map[string]any{
		"closer":      closer,
		"org_id":      treasury.OrgID,
		"distributed": remaining,
	}); err != nil {
		return err
	}

	logger.Info("treasury closed",
		"event", "treasury_closed",
		"module", "governance-core/treasury-service",
		"layer", "application",
		"treasury_id", treasury.TreasuryID,
		"org_id", treasury.OrgID,
		"distributed", remaining,
	)
	return nil
}

func (uc TreasuryUseCase) authorizeClose(ctx context.Context, treasury entities.Treasury, closer string) error {
	if treasury.HasController() {
		if treasury.IsController(closer) {
			return nil
		}
		return domainerrors.ErrNotAuthorized
	}
	supervisor, err := uc.Org.IsSupervisor(ctx, treasury.OrgID, closer)
	if err != nil {
		return err
	}
	if !supervisor {
		return domainerrors.ErrNotAuthorized
	}
	return nil
}

func (uc TreasuryUseCase) now() time.Time {
	if uc.Clock != nil {
		return uc.Clock.Now().UTC()
	}
	return time.Now().UTC()
}

func (uc TreasuryUseCase) appendEvent(
	ctx context.Context,
	eventType string,
	treasuryID uint64,
	occurredAt time.Time,
	payload map[string]any,
) error {
	if uc.Outbox == nil {
		return nil
	}
	return uc.Outbox.AppendOutbox(ctx, NewTreasuryEnvelope(eventType, treasuryID, occurredAt, payload))
}
