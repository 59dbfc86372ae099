package memory

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"time"

	"daobank/contexts/governance-core/treasury-service/domain/entities"
	domainerrors "daobank/contexts/governance-core/treasury-service/domain/errors"
	"daobank/contexts/governance-core/treasury-service/ports"

	"github.com/google/uuid"
)

type outboxRecord struct {
	message   ports.OutboxMessage
	published bool
}

type orgRecord struct {
	supervisor   string
	members      map[string]uint64 // account -> ownership shares
	issuanceHold bool
}

type voteRecord struct {
	orgID      uint64
	threshold  ports.Threshold
	electorate map[string]struct{}
	ballots    map[string]bool
	forced     ports.VoteOutcome
}

// Store is the in-memory adapter behind every treasury-service port, plus
// deterministic stand-ins for the org, vote and distribution collaborators.
type Store struct {
	mu sync.RWMutex

	treasuries  map[uint64]entities.Treasury
	orgSlots    map[uint64]struct{}
	spends      map[uint64]map[uint64]entities.SpendProposal
	memberships map[uint64]map[uint64]entities.MembershipProposal
	nonces      map[string]uint64
	outbox      map[string]outboxRecord

	orgs      map[uint64]*orgRecord
	votes     map[uint64]*voteRecord
	voteNonce uint64

	ledger ports.Ledger
}

func NewStore() *Store {
	return &Store{
		treasuries:  make(map[uint64]entities.Treasury),
		orgSlots:    make(map[uint64]struct{}),
		spends:      make(map[uint64]map[uint64]entities.SpendProposal),
		memberships: make(map[uint64]map[uint64]entities.MembershipProposal),
		nonces:      make(map[string]uint64),
		outbox:      make(map[string]outboxRecord),
		orgs:        make(map[uint64]*orgRecord),
		votes:       make(map[uint64]*voteRecord),
	}
}

// AttachLedger wires the transfer primitive the distributor uses on close.
func (s *Store) AttachLedger(ledger ports.Ledger) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ledger = ledger
}

// SeedOrg registers an org with its supervisor and member share weights.
func (s *Store) SeedOrg(orgID uint64, supervisor string, members map[string]uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record := &orgRecord{
		supervisor: supervisor,
		members:    make(map[string]uint64, len(members)),
	}
	for account, shares := range members {
		record.members[account] = shares
	}
	s.orgs[orgID] = record
}

// FreezeIssuance blocks share minting for an org, for exercising the
// degraded membership-execution path.
func (s *Store) FreezeIssuance(orgID uint64, hold bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if record, ok := s.orgs[orgID]; ok {
		record.issuanceHold = hold
	}
}

// Shares reports the current share balance of an account in an org.
func (s *Store) Shares(orgID uint64, account string) uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.orgs[orgID]
	if !ok {
		return 0
	}
	return record.members[account]
}

// --- TreasuryRepository ---

func (s *Store) SaveTreasury(_ context.Context, treasury entities.Treasury) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.treasuries[treasury.TreasuryID] = treasury
	return nil
}

func (s *Store) GetTreasury(_ context.Context, treasuryID uint64) (entities.Treasury, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	treasury, ok := s.treasuries[treasuryID]
	if !ok {
		return entities.Treasury{}, domainerrors.ErrTreasuryNotFound
	}
	return treasury, nil
}

func (s *Store) DeleteTreasury(_ context.Context, treasuryID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.treasuries[treasuryID]; !ok {
		return domainerrors.ErrTreasuryNotFound
	}
	delete(s.treasuries, treasuryID)
	return nil
}

func (s *Store) TreasuryExists(_ context.Context, treasuryID uint64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.treasuries[treasuryID]
	return ok, nil
}

func (s *Store) TreasuryForOrg(_ context.Context, orgID uint64) (entities.Treasury, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, treasury := range s.treasuries {
		if treasury.OrgID == orgID {
			return treasury, true, nil
		}
	}
	return entities.Treasury{}, false, nil
}

func (s *Store) ReserveOrgSlot(_ context.Context, orgID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.orgSlots[orgID]; taken {
		return domainerrors.ErrOrgAlreadyHasTreasury
	}
	s.orgSlots[orgID] = struct{}{}
	return nil
}

func (s *Store) ReleaseOrgSlot(_ context.Context, orgID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.orgSlots, orgID)
	return nil
}

func (s *Store) OrgSlotTaken(_ context.Context, orgID uint64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, taken := s.orgSlots[orgID]
	return taken, nil
}

func (s *Store) CountTreasuries(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.treasuries), nil
}

// --- SpendRepository ---

func (s *Store) SaveSpend(_ context.Context, proposal entities.SpendProposal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	byTreasury, ok := s.spends[proposal.TreasuryID]
	if !ok {
		byTreasury = make(map[uint64]entities.SpendProposal)
		s.spends[proposal.TreasuryID] = byTreasury
	}
	byTreasury[proposal.SpendID] = proposal
	return nil
}

func (s *Store) GetSpend(_ context.Context, treasuryID uint64, spendID uint64) (entities.SpendProposal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	proposal, ok := s.spends[treasuryID][spendID]
	if !ok {
		return entities.SpendProposal{}, domainerrors.ErrSpendNotFound
	}
	return proposal, nil
}

func (s *Store) SpendExists(_ context.Context, treasuryID uint64, spendID uint64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.spends[treasuryID][spendID]
	return ok, nil
}

func (s *Store) ListSpendsByTreasury(_ context.Context, treasuryID uint64) ([]entities.SpendProposal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	proposals := make([]entities.SpendProposal, 0, len(s.spends[treasuryID]))
	for _, proposal := range s.spends[treasuryID] {
		proposals = append(proposals, proposal)
	}
	sortSpends(proposals)
	return proposals, nil
}

func (s *Store) ListOpenSpends(_ context.Context) ([]entities.SpendProposal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var open []entities.SpendProposal
	for _, byTreasury := range s.spends {
		for _, proposal := range byTreasury {
			if !proposal.Finalized() {
				open = append(open, proposal)
			}
		}
	}
	sortSpends(open)
	return open, nil
}

func sortSpends(proposals []entities.SpendProposal) {
	sort.Slice(proposals, func(i, j int) bool {
		if proposals[i].TreasuryID != proposals[j].TreasuryID {
			return proposals[i].TreasuryID < proposals[j].TreasuryID
		}
		return proposals[i].SpendID < proposals[j].SpendID
	})
}

// --- MembershipRepository ---

func (s *Store) SaveMembership(_ context.Context, proposal entities.MembershipProposal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	byTreasury, ok := s.memberships[proposal.TreasuryID]
	if !ok {
		byTreasury = make(map[uint64]entities.MembershipProposal)
		s.memberships[proposal.TreasuryID] = byTreasury
	}
	byTreasury[proposal.ProposalID] = proposal
	return nil
}

func (s *Store) GetMembership(_ context.Context, treasuryID uint64, proposalID uint64) (entities.MembershipProposal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	proposal, ok := s.memberships[treasuryID][proposalID]
	if !ok {
		return entities.MembershipProposal{}, domainerrors.ErrProposalNotFound
	}
	return proposal, nil
}

func (s *Store) MembershipExists(_ context.Context, treasuryID uint64, proposalID uint64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.memberships[treasuryID][proposalID]
	return ok, nil
}

func (s *Store) ListMembershipsByTreasury(_ context.Context, treasuryID uint64) ([]entities.MembershipProposal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	proposals := make([]entities.MembershipProposal, 0, len(s.memberships[treasuryID]))
	for _, proposal := range s.memberships[treasuryID] {
		proposals = append(proposals, proposal)
	}
	sortMemberships(proposals)
	return proposals, nil
}

func (s *Store) ListOpenMemberships(_ context.Context) ([]entities.MembershipProposal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var open []entities.MembershipProposal
	for _, byTreasury := range s.memberships {
		for _, proposal := range byTreasury {
			if !proposal.Finalized() {
				open = append(open, proposal)
			}
		}
	}
	sortMemberships(open)
	return open, nil
}

func sortMemberships(proposals []entities.MembershipProposal) {
	sort.Slice(proposals, func(i, j int) bool {
		if proposals[i].TreasuryID != proposals[j].TreasuryID {
			return proposals[i].TreasuryID < proposals[j].TreasuryID
		}
		return proposals[i].ProposalID < proposals[j].ProposalID
	})
}

// --- NonceStore ---

func (s *Store) GetNonce(_ context.Context, namespace string) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nonces[namespace], nil
}

func (s *Store) PutNonce(_ context.Context, namespace string, value uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nonces[namespace] = value
	return nil
}

// --- OrgService ---

func (s *Store) IsMember(_ context.Context, orgID uint64, account string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.orgs[orgID]
	if !ok {
		return false, nil
	}
	_, member := record.members[account]
	return member, nil
}

func (s *Store) IsSupervisor(_ context.Context, orgID uint64, account string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.orgs[orgID]
	if !ok {
		return false, nil
	}
	return record.supervisor == account, nil
}

func (s *Store) CanIssueShares(_ context.Context, orgID uint64, _ string, _ uint64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.orgs[orgID]
	if !ok {
		return false, nil
	}
	return !record.issuanceHold, nil
}

func (s *Store) IssueShares(_ context.Context, orgID uint64, account string, amount uint64, _ bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.orgs[orgID]
	if !ok {
		return errors.New("org not found")
	}
	if record.issuanceHold {
		return errors.New("share issuance is frozen for org")
	}
	record.members[account] += amount
	return nil
}

func (s *Store) MemberWeights(_ context.Context, orgID uint64) (map[string]uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.orgs[orgID]
	if !ok {
		return nil, errors.New("org not found")
	}
	weights := make(map[string]uint64, len(record.members))
	for account, shares := range record.members {
		weights[account] = shares
	}
	return weights, nil
}

// --- VoteService ---

// OpenVote snapshots the org membership as an equally-weighted electorate.
func (s *Store) OpenVote(_ context.Context, orgID uint64, threshold ports.Threshold) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.orgs[orgID]
	if !ok {
		return 0, errors.New("org not found")
	}
	s.voteNonce++
	electorate := make(map[string]struct{}, len(record.members))
	for account := range record.members {
		electorate[account] = struct{}{}
	}
	s.votes[s.voteNonce] = &voteRecord{
		orgID:      orgID,
		threshold:  threshold,
		electorate: electorate,
		ballots:    make(map[string]bool),
	}
	return s.voteNonce, nil
}

// CastVote records one member's ballot on an open vote.
func (s *Store) CastVote(voteID uint64, voter string, approve bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	vote, ok := s.votes[voteID]
	if !ok {
		return errors.New("vote not found")
	}
	if _, eligible := vote.electorate[voter]; !eligible {
		return errors.New("voter is not in the electorate")
	}
	vote.ballots[voter] = approve
	return nil
}

// ForceOutcome pins a vote's outcome directly, for tests.
func (s *Store) ForceOutcome(voteID uint64, outcome ports.VoteOutcome) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if vote, ok := s.votes[voteID]; ok {
		vote.forced = outcome
	}
}

// Outcome evaluates the unanimous threshold: any rejection rejects, full
// approval approves, anything short of that stays pending.
func (s *Store) Outcome(_ context.Context, voteID uint64) (ports.VoteOutcome, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	vote, ok := s.votes[voteID]
	if !ok {
		return "", errors.New("vote not found")
	}
	if vote.forced != "" {
		return vote.forced, nil
	}
	approvals := 0
	for _, approve := range vote.ballots {
		if !approve {
			return ports.VoteOutcomeRejected, nil
		}
		approvals++
	}
	required := (len(vote.electorate)*int(vote.threshold.ApprovalPercent) + 99) / 100
	if approvals >= required && required > 0 {
		return ports.VoteOutcomeApproved, nil
	}
	return ports.VoteOutcomePending, nil
}

// --- Distributor ---

// Distribute pays the custodial balance out by ownership weight, sending any
// rounding remainder to remainderTo.
func (s *Store) Distribute(ctx context.Context, from string, orgID uint64, remainderTo string, amount uint64) error {
	weights, err := s.MemberWeights(ctx, orgID)
	if err != nil {
		return err
	}
	s.mu.RLock()
	ledger := s.ledger
	s.mu.RUnlock()
	if ledger == nil {
		return errors.New("no ledger attached for distribution")
	}

	var totalWeight uint64
	accounts := make([]string, 0, len(weights))
	for account, weight := range weights {
		totalWeight += weight
		accounts = append(accounts, account)
	}
	if totalWeight == 0 {
		return ledger.Transfer(ctx, from, remainderTo, amount, false)
	}
	sort.Strings(accounts)

	var distributed uint64
	for _, account := range accounts {
		share := amount * weights[account] / totalWeight
		if share == 0 {
			continue
		}
		if err := ledger.Transfer(ctx, from, account, share, false); err != nil {
			return err
		}
		distributed += share
	}
	if remainder := amount - distributed; remainder > 0 {
		return ledger.Transfer(ctx, from, remainderTo, remainder, false)
	}
	return nil
}

// --- Outbox ---

func (s *Store) AppendOutbox(_ context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.NewString()
	s.outbox[id] = outboxRecord{
		message: ports.OutboxMessage{
			OutboxID:  id,
			EventType: envelope.EventType,
			Payload:   payload,
			CreatedAt: envelope.OccurredAtUTC,
		},
	}
	return nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var pending []ports.OutboxMessage
	for _, record := range s.outbox {
		if !record.published {
			pending = append(pending, record.message)
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		if pending[i].CreatedAt.Equal(pending[j].CreatedAt) {
			return pending[i].OutboxID < pending[j].OutboxID
		}
		return pending[i].CreatedAt.Before(pending[j].CreatedAt)
	})
	if limit > 0 && len(pending) > limit {
		pending = pending[:limit]
	}
	return pending, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.outbox[outboxID]
	if !ok {
		return errors.New("outbox row not found")
	}
	record.published = true
	s.outbox[outboxID] = record
	return nil
}

// PendingOutboxCount reports how many rows still await relay.
func (s *Store) PendingOutboxCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, record := range s.outbox {
		if !record.published {
			count++
		}
	}
	return count
}

// --- Clock ---

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}
