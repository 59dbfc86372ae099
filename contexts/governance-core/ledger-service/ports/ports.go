package ports

import (
	"context"

	"daobank/contexts/governance-core/ledger-service/domain/entities"
)

// AccountRepository persists ledger accounts. Reaped accounts are deleted.
type AccountRepository interface {
	GetAccount(ctx context.Context, address string) (entities.Account, bool, error)
	SaveAccount(ctx context.Context, account entities.Account) error
	DeleteAccount(ctx context.Context, address string) error
	ListAccounts(ctx context.Context) ([]entities.Account, error)
}
