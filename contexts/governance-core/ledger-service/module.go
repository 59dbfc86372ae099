package ledgerservice

import (
	"log/slog"

	"daobank/contexts/governance-core/ledger-service/adapters/memory"
	"daobank/contexts/governance-core/ledger-service/application"
	"daobank/contexts/governance-core/ledger-service/ports"
)

type Module struct {
	Ledger *application.Ledger
	Store  *memory.Store
}

type Dependencies struct {
	Accounts           ports.AccountRepository
	ExistentialDeposit uint64
	Logger             *slog.Logger
}

func NewModule(deps Dependencies) Module {
	return Module{
		Ledger: application.NewLedger(deps.Accounts, deps.ExistentialDeposit, deps.Logger),
	}
}

func NewInMemoryModule(existentialDeposit uint64, logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Accounts:           store,
		ExistentialDeposit: existentialDeposit,
		Logger:             logger,
	})
	module.Store = store
	return module
}
