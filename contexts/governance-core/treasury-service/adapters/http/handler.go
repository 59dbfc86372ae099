package httpadapter

import (
	"context"
	"log/slog"

	"daobank/contexts/governance-core/treasury-service/application/commands"
	"daobank/contexts/governance-core/treasury-service/application/queries"
	"daobank/contexts/governance-core/treasury-service/domain/entities"
	httptransport "daobank/contexts/governance-core/treasury-service/transport/http"
)

type Handler struct {
	Treasuries  commands.TreasuryUseCase
	Spends      commands.SpendUseCase
	Memberships commands.MembershipUseCase
	Queries     queries.TreasuryQueries
	Logger      *slog.Logger
}

func (h Handler) OpenTreasuryHandler(
	ctx context.Context,
	userID string,
	req httptransport.OpenTreasuryRequest,
) (httptransport.TreasuryResponse, error) {
	treasury, err := h.Treasuries.Open(ctx, commands.OpenTreasuryCommand{
		Opener:     userID,
		OrgID:      req.OrgID,
		Deposit:    req.Deposit,
		Controller: req.Controller,
	})
	if err != nil {
		return httptransport.TreasuryResponse{}, err
	}
	return treasuryResponse(treasury), nil
}

func (h Handler) CloseTreasuryHandler(ctx context.Context, userID string, treasuryID uint64) error {
	return h.Treasuries.Close(ctx, commands.CloseTreasuryCommand{
		Closer:     userID,
		TreasuryID: treasuryID,
	})
}

func (h Handler) GetTreasuryHandler(ctx context.Context, treasuryID uint64) (httptransport.TreasuryResponse, error) {
	treasury, err := h.Queries.Treasury(ctx, treasuryID)
	if err != nil {
		return httptransport.TreasuryResponse{}, err
	}
	return treasuryResponse(treasury), nil
}

func (h Handler) TreasuryBalanceHandler(ctx context.Context, treasuryID uint64) (httptransport.TreasuryBalanceResponse, error) {
	balance, err := h.Queries.Balance(ctx, treasuryID)
	if err != nil {
		return httptransport.TreasuryBalanceResponse{}, err
	}
	return httptransport.TreasuryBalanceResponse{
		TreasuryID: treasuryID,
		Balance:    balance,
	}, nil
}

func (h Handler) TreasuryForOrgHandler(ctx context.Context, orgID uint64) (httptransport.TreasuryResponse, error) {
	treasury, err := h.Queries.TreasuryForOrg(ctx, orgID)
	if err != nil {
		return httptransport.TreasuryResponse{}, err
	}
	return treasuryResponse(treasury), nil
}

func (h Handler) TreasuryCountHandler(ctx context.Context) (httptransport.TreasuryCountResponse, error) {
	count, err := h.Queries.TotalTreasuryCount(ctx)
	if err != nil {
		return httptransport.TreasuryCountResponse{}, err
	}
	return httptransport.TreasuryCountResponse{Count: count}, nil
}

func (h Handler) ProposeSpendHandler(
	ctx context.Context,
	userID string,
	treasuryID uint64,
	req httptransport.ProposeSpendRequest,
) (httptransport.SpendResponse, error) {
	proposal, err := h.Spends.Propose(ctx, commands.ProposeSpendCommand{
		Caller:     userID,
		TreasuryID: treasuryID,
		Amount:     req.Amount,
		Dest:       req.Dest,
	})
	if err != nil {
		return httptransport.SpendResponse{}, err
	}
	return spendResponse(proposal), nil
}

func (h Handler) TriggerSpendVoteHandler(
	ctx context.Context,
	userID string,
	treasuryID uint64,
	spendID uint64,
) (httptransport.TriggerVoteResponse, error) {
	voteID, err := h.Spends.TriggerVote(ctx, userID, treasuryID, spendID)
	if err != nil {
		return httptransport.TriggerVoteResponse{}, err
	}
	return httptransport.TriggerVoteResponse{
		TreasuryID: treasuryID,
		ProposalID: spendID,
		VoteID:     voteID,
		State:      string(entities.SpendStateVoting),
	}, nil
}

func (h Handler) SudoApproveSpendHandler(
	ctx context.Context,
	userID string,
	treasuryID uint64,
	spendID uint64,
) (httptransport.ProposalStateResponse, error) {
	state, err := h.Spends.SudoApprove(ctx, userID, treasuryID, spendID)
	if err != nil {
		return httptransport.ProposalStateResponse{}, err
	}
	return httptransport.ProposalStateResponse{
		TreasuryID: treasuryID,
		ProposalID: spendID,
		State:      string(state),
	}, nil
}

func (h Handler) GetSpendHandler(ctx context.Context, treasuryID uint64, spendID uint64) (httptransport.SpendResponse, error) {
	proposal, err := h.Queries.Spend(ctx, treasuryID, spendID)
	if err != nil {
		return httptransport.SpendResponse{}, err
	}
	return spendResponse(proposal), nil
}

func (h Handler) ListSpendsHandler(ctx context.Context, treasuryID uint64) (httptransport.SpendListResponse, error) {
	proposals, err := h.Queries.SpendsByTreasury(ctx, treasuryID)
	if err != nil {
		return httptransport.SpendListResponse{}, err
	}
	items := make([]httptransport.SpendResponse, 0, len(proposals))
	for _, proposal := range proposals {
		items = append(items, spendResponse(proposal))
	}
	return httptransport.SpendListResponse{Items: items}, nil
}

func (h Handler) ProposeMembershipHandler(
	ctx context.Context,
	userID string,
	treasuryID uint64,
	req httptransport.ProposeMembershipRequest,
) (httptransport.MembershipResponse, error) {
	proposal, err := h.Memberships.Propose(ctx, commands.ProposeMembershipCommand{
		Caller:          userID,
		TreasuryID:      treasuryID,
		Tribute:         req.Tribute,
		SharesRequested: req.SharesRequested,
		Applicant:       req.Applicant,
	})
	if err != nil {
		return httptransport.MembershipResponse{}, err
	}
	return membershipResponse(proposal), nil
}

func (h Handler) TriggerMembershipVoteHandler(
	ctx context.Context,
	userID string,
	treasuryID uint64,
	proposalID uint64,
) (httptransport.TriggerVoteResponse, error) {
	voteID, err := h.Memberships.TriggerVote(ctx, userID, treasuryID, proposalID)
	if err != nil {
		return httptransport.TriggerVoteResponse{}, err
	}
	return httptransport.TriggerVoteResponse{
		TreasuryID: treasuryID,
		ProposalID: proposalID,
		VoteID:     voteID,
		State:      string(entities.ProposalStateVoting),
	}, nil
}

func (h Handler) GetMembershipHandler(ctx context.Context, treasuryID uint64, proposalID uint64) (httptransport.MembershipResponse, error) {
	proposal, err := h.Queries.Membership(ctx, treasuryID, proposalID)
	if err != nil {
		return httptransport.MembershipResponse{}, err
	}
	return membershipResponse(proposal), nil
}

func (h Handler) ListMembershipsHandler(ctx context.Context, treasuryID uint64) (httptransport.MembershipListResponse, error) {
	proposals, err := h.Queries.MembershipsByTreasury(ctx, treasuryID)
	if err != nil {
		return httptransport.MembershipListResponse{}, err
	}
	items := make([]httptransport.MembershipResponse, 0, len(proposals))
	for _, proposal := range proposals {
		items = append(items, membershipResponse(proposal))
	}
	return httptransport.MembershipListResponse{Items: items}, nil
}

func treasuryResponse(treasury entities.Treasury) httptransport.TreasuryResponse {
	return httptransport.TreasuryResponse{
		TreasuryID: treasury.TreasuryID,
		OrgID:      treasury.OrgID,
		Controller: treasury.Controller,
		OpenedBy:   treasury.OpenedBy,
		CreatedAt:  treasury.CreatedAt,
	}
}

func spendResponse(proposal entities.SpendProposal) httptransport.SpendResponse {
	return httptransport.SpendResponse{
		TreasuryID: proposal.TreasuryID,
		SpendID:    proposal.SpendID,
		Amount:     proposal.Amount,
		Dest:       proposal.Dest,
		Proposer:   proposal.Proposer,
		State:      string(proposal.State),
		VoteID:     proposal.VoteID,
		CreatedAt:  proposal.CreatedAt,
		UpdatedAt:  proposal.UpdatedAt,
	}
}

func membershipResponse(proposal entities.MembershipProposal) httptransport.MembershipResponse {
	return httptransport.MembershipResponse{
		TreasuryID:      proposal.TreasuryID,
		ProposalID:      proposal.ProposalID,
		Tribute:         proposal.Tribute,
		SharesRequested: proposal.SharesRequested,
		Applicant:       proposal.Applicant,
		Proposer:        proposal.Proposer,
		State:           string(proposal.State),
		VoteID:          proposal.VoteID,
		CreatedAt:       proposal.CreatedAt,
		UpdatedAt:       proposal.UpdatedAt,
	}
}
