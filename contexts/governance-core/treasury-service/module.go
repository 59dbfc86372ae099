package treasuryservice

import (
	"log/slog"

	httpadapter "daobank/contexts/governance-core/treasury-service/adapters/http"
	"daobank/contexts/governance-core/treasury-service/adapters/memory"
	"daobank/contexts/governance-core/treasury-service/application/commands"
	"daobank/contexts/governance-core/treasury-service/application/queries"
	"daobank/contexts/governance-core/treasury-service/application/workers"
	"daobank/contexts/governance-core/treasury-service/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Poller  workers.BlockPoller
	Relay   *workers.OutboxRelay
	Store   *memory.Store
}

type Dependencies struct {
	Treasuries        ports.TreasuryRepository
	Spends            ports.SpendRepository
	Memberships       ports.MembershipRepository
	Nonces            ports.NonceStore
	Org               ports.OrgService
	Votes             ports.VoteService
	Ledger            ports.Ledger
	Distributor       ports.Distributor
	Outbox            ports.OutboxWriter
	OutboxRepo        ports.OutboxRepository
	Publisher         ports.EventPublisher
	Clock             ports.Clock
	MinDeposit        uint64
	SpendCadence      uint64
	MembershipCadence uint64
	Logger            *slog.Logger
}

func NewModule(deps Dependencies) Module {
	treasuryUseCase := commands.TreasuryUseCase{
		Treasuries:  deps.Treasuries,
		Nonces:      deps.Nonces,
		Org:         deps.Org,
		Ledger:      deps.Ledger,
		Distributor: deps.Distributor,
		Outbox:      deps.Outbox,
		Clock:       deps.Clock,
		MinDeposit:  deps.MinDeposit,
		Logger:      deps.Logger,
	}
	spendUseCase := commands.SpendUseCase{
		Treasuries: deps.Treasuries,
		Spends:     deps.Spends,
		Nonces:     deps.Nonces,
		Org:        deps.Org,
		Votes:      deps.Votes,
		Ledger:     deps.Ledger,
		Outbox:     deps.Outbox,
		Clock:      deps.Clock,
		Logger:     deps.Logger,
	}
	membershipUseCase := commands.MembershipUseCase{
		Treasuries:  deps.Treasuries,
		Memberships: deps.Memberships,
		Nonces:      deps.Nonces,
		Org:         deps.Org,
		Votes:       deps.Votes,
		Ledger:      deps.Ledger,
		Outbox:      deps.Outbox,
		Clock:       deps.Clock,
		Logger:      deps.Logger,
	}
	treasuryQueries := queries.TreasuryQueries{
		Treasuries:  deps.Treasuries,
		Spends:      deps.Spends,
		Memberships: deps.Memberships,
		Ledger:      deps.Ledger,
	}

	module := Module{
		Handler: httpadapter.Handler{
			Treasuries:  treasuryUseCase,
			Spends:      spendUseCase,
			Memberships: membershipUseCase,
			Queries:     treasuryQueries,
			Logger:      deps.Logger,
		},
		Poller: workers.BlockPoller{
			Spends:            deps.Spends,
			Memberships:       deps.Memberships,
			SpendMachine:      spendUseCase,
			MembershipMachine: membershipUseCase,
			Outbox:            deps.Outbox,
			Clock:             deps.Clock,
			SpendCadence:      deps.SpendCadence,
			MembershipCadence: deps.MembershipCadence,
			Logger:            deps.Logger,
		},
	}
	if deps.OutboxRepo != nil && deps.Publisher != nil {
		module.Relay = &workers.OutboxRelay{
			Outbox:    deps.OutboxRepo,
			Publisher: deps.Publisher,
			Clock:     deps.Clock,
			Logger:    deps.Logger,
		}
	}
	return module
}

// InMemoryConfig tunes the test/in-process wiring.
type InMemoryConfig struct {
	MinDeposit        uint64
	SpendCadence      uint64
	MembershipCadence uint64
}

// NewInMemoryModule wires every port to the single in-memory store plus the
// supplied ledger. Used by tests and local runs without Postgres.
func NewInMemoryModule(ledger ports.Ledger, cfg InMemoryConfig, logger *slog.Logger) Module {
	store := memory.NewStore()
	store.AttachLedger(ledger)
	module := NewModule(Dependencies{
		Treasuries:        store,
		Spends:            store,
		Memberships:       store,
		Nonces:            store,
		Org:               store,
		Votes:             store,
		Ledger:            ledger,
		Distributor:       store,
		Outbox:            store,
		OutboxRepo:        store,
		Clock:             store,
		MinDeposit:        cfg.MinDeposit,
		SpendCadence:      cfg.SpendCadence,
		MembershipCadence: cfg.MembershipCadence,
		Logger:            logger,
	})
	module.Store = store
	return module
}
