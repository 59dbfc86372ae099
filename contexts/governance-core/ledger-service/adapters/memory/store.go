package memory

import (
	"context"
	"sort"
	"sync"

	"daobank/contexts/governance-core/ledger-service/domain/entities"
)

// Store is the in-memory account repository used by tests and the in-process
// wiring. It implements ports.AccountRepository.
type Store struct {
	mu       sync.RWMutex
	accounts map[string]entities.Account
}

func NewStore() *Store {
	return &Store{accounts: make(map[string]entities.Account)}
}

func (s *Store) GetAccount(_ context.Context, address string) (entities.Account, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	account, found := s.accounts[address]
	return account, found, nil
}

func (s *Store) SaveAccount(_ context.Context, account entities.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[account.Address] = account
	return nil
}

func (s *Store) DeleteAccount(_ context.Context, address string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.accounts, address)
	return nil
}

func (s *Store) ListAccounts(_ context.Context) ([]entities.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	accounts := make([]entities.Account, 0, len(s.accounts))
	for _, account := range s.accounts {
		accounts = append(accounts, account)
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].Address < accounts[j].Address })
	return accounts, nil
}

// AccountCount reports how many accounts currently exist. Test helper.
func (s *Store) AccountCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.accounts)
}
