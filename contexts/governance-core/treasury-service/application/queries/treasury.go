package queries

import (
	"context"

	"daobank/contexts/governance-core/treasury-service/domain/entities"
	domainerrors "daobank/contexts/governance-core/treasury-service/domain/errors"
	"daobank/contexts/governance-core/treasury-service/ports"
)

// TreasuryQueries serves the read side: balances, existence probes and the
// org-to-treasury lookup.
type TreasuryQueries struct {
	Treasuries  ports.TreasuryRepository
	Spends      ports.SpendRepository
	Memberships ports.MembershipRepository
	Ledger      ports.Ledger
}

func (q TreasuryQueries) Treasury(ctx context.Context, treasuryID uint64) (entities.Treasury, error) {
	return q.Treasuries.GetTreasury(ctx, treasuryID)
}

// Balance reads the custodial account's total balance.
func (q TreasuryQueries) Balance(ctx context.Context, treasuryID uint64) (uint64, error) {
	exists, err := q.Treasuries.TreasuryExists(ctx, treasuryID)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, domainerrors.ErrTreasuryNotFound
	}
	return q.Ledger.TotalBalance(ctx, entities.CustodialAccount(treasuryID))
}

func (q TreasuryQueries) IsTreasury(ctx context.Context, treasuryID uint64) (bool, error) {
	return q.Treasuries.TreasuryExists(ctx, treasuryID)
}

func (q TreasuryQueries) IsSpendProposal(ctx context.Context, treasuryID uint64, spendID uint64) (bool, error) {
	return q.Spends.SpendExists(ctx, treasuryID, spendID)
}

func (q TreasuryQueries) IsMembershipProposal(ctx context.Context, treasuryID uint64, proposalID uint64) (bool, error) {
	return q.Memberships.MembershipExists(ctx, treasuryID, proposalID)
}

// TreasuryForOrg resolves the single open treasury owned by an org.
func (q TreasuryQueries) TreasuryForOrg(ctx context.Context, orgID uint64) (entities.Treasury, error) {
	treasury, found, err := q.Treasuries.TreasuryForOrg(ctx, orgID)
	if err != nil {
		return entities.Treasury{}, err
	}
	if !found {
		return entities.Treasury{}, domainerrors.ErrNoTreasuryForOrg
	}
	return treasury, nil
}

func (q TreasuryQueries) TotalTreasuryCount(ctx context.Context) (int, error) {
	return q.Treasuries.CountTreasuries(ctx)
}

func (q TreasuryQueries) Spend(ctx context.Context, treasuryID uint64, spendID uint64) (entities.SpendProposal, error) {
	return q.Spends.GetSpend(ctx, treasuryID, spendID)
}

func (q TreasuryQueries) Membership(ctx context.Context, treasuryID uint64, proposalID uint64) (entities.MembershipProposal, error) {
	return q.Memberships.GetMembership(ctx, treasuryID, proposalID)
}

func (q TreasuryQueries) SpendsByTreasury(ctx context.Context, treasuryID uint64) ([]entities.SpendProposal, error) {
	return q.Spends.ListSpendsByTreasury(ctx, treasuryID)
}

func (q TreasuryQueries) MembershipsByTreasury(ctx context.Context, treasuryID uint64) ([]entities.MembershipProposal, error) {
	return q.Memberships.ListMembershipsByTreasury(ctx, treasuryID)
}
