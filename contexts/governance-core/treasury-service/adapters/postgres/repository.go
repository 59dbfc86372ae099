package postgresadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"daobank/contexts/governance-core/treasury-service/domain/entities"
	domainerrors "daobank/contexts/governance-core/treasury-service/domain/errors"
	"daobank/contexts/governance-core/treasury-service/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"
)

// Repository backs the treasury, spend, membership, nonce, and outbox ports
// with Postgres. The one-treasury-per-org registrar is a dedicated table so
// the uniqueness constraint is enforced by the database rather than a read
// followed by a write.
type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Models lists every table this repository owns, for schema migration.
func Models() []any {
	return []any{
		&treasuryModel{},
		&orgSlotModel{},
		&spendModel{},
		&membershipModel{},
		&nonceModel{},
		&outboxModel{},
	}
}

func (r *Repository) SaveTreasury(ctx context.Context, treasury entities.Treasury) error {
	row := treasuryModelFromEntity(treasury)
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "treasury_id"}},
			UpdateAll: true,
		}).
		Create(&row).
		Error
	if err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrConflict
		}
		return err
	}
	return nil
}

func (r *Repository) GetTreasury(ctx context.Context, treasuryID uint64) (entities.Treasury, error) {
	var row treasuryModel
	err := r.db.WithContext(ctx).
		Where("treasury_id = ?", treasuryID).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Treasury{}, domainerrors.ErrTreasuryNotFound
		}
		return entities.Treasury{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) DeleteTreasury(ctx context.Context, treasuryID uint64) error {
	result := r.db.WithContext(ctx).
		Where("treasury_id = ?", treasuryID).
		Delete(&treasuryModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrTreasuryNotFound
	}
	return nil
}

func (r *Repository) TreasuryExists(ctx context.Context, treasuryID uint64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&treasuryModel{}).
		Where("treasury_id = ?", treasuryID).
		Count(&count).
		Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *Repository) TreasuryForOrg(ctx context.Context, orgID uint64) (entities.Treasury, bool, error) {
	var row treasuryModel
	err := r.db.WithContext(ctx).
		Where("org_id = ?", orgID).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Treasury{}, false, nil
		}
		return entities.Treasury{}, false, err
	}
	return row.toEntity(), true, nil
}

func (r *Repository) ReserveOrgSlot(ctx context.Context, orgID uint64) error {
	row := orgSlotModel{OrgID: orgID, ReservedAt: time.Now().UTC()}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrOrgAlreadyHasTreasury
		}
		return err
	}
	return nil
}

func (r *Repository) ReleaseOrgSlot(ctx context.Context, orgID uint64) error {
	return r.db.WithContext(ctx).
		Where("org_id = ?", orgID).
		Delete(&orgSlotModel{}).
		Error
}

func (r *Repository) OrgSlotTaken(ctx context.Context, orgID uint64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&orgSlotModel{}).
		Where("org_id = ?", orgID).
		Count(&count).
		Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *Repository) CountTreasuries(ctx context.Context) (int, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&treasuryModel{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return int(count), nil
}

func (r *Repository) SaveSpend(ctx context.Context, proposal entities.SpendProposal) error {
	row := spendModelFromEntity(proposal)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "treasury_id"}, {Name: "spend_id"}},
			UpdateAll: true,
		}).
		Create(&row).
		Error
}

func (r *Repository) GetSpend(ctx context.Context, treasuryID uint64, spendID uint64) (entities.SpendProposal, error) {
	var row spendModel
	err := r.db.WithContext(ctx).
		Where("treasury_id = ? AND spend_id = ?", treasuryID, spendID).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.SpendProposal{}, domainerrors.ErrSpendNotFound
		}
		return entities.SpendProposal{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) SpendExists(ctx context.Context, treasuryID uint64, spendID uint64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&spendModel{}).
		Where("treasury_id = ? AND spend_id = ?", treasuryID, spendID).
		Count(&count).
		Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *Repository) ListSpendsByTreasury(ctx context.Context, treasuryID uint64) ([]entities.SpendProposal, error) {
	var rows []spendModel
	err := r.db.WithContext(ctx).
		Where("treasury_id = ?", treasuryID).
		Order("spend_id ASC").
		Find(&rows).
		Error
	if err != nil {
		return nil, err
	}
	return spendEntities(rows), nil
}

func (r *Repository) ListOpenSpends(ctx context.Context) ([]entities.SpendProposal, error) {
	var rows []spendModel
	err := r.db.WithContext(ctx).
		Where("state IN ?", []string{
			string(entities.SpendStateWaitingForApproval),
			string(entities.SpendStateVoting),
		}).
		Order("treasury_id ASC, spend_id ASC").
		Find(&rows).
		Error
	if err != nil {
		return nil, err
	}
	return spendEntities(rows), nil
}

func (r *Repository) SaveMembership(ctx context.Context, proposal entities.MembershipProposal) error {
	row := membershipModelFromEntity(proposal)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "treasury_id"}, {Name: "proposal_id"}},
			UpdateAll: true,
		}).
		Create(&row).
		Error
}

func (r *Repository) GetMembership(ctx context.Context, treasuryID uint64, proposalID uint64) (entities.MembershipProposal, error) {
	var row membershipModel
	err := r.db.WithContext(ctx).
		Where("treasury_id = ? AND proposal_id = ?", treasuryID, proposalID).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.MembershipProposal{}, domainerrors.ErrProposalNotFound
		}
		return entities.MembershipProposal{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) MembershipExists(ctx context.Context, treasuryID uint64, proposalID uint64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&membershipModel{}).
		Where("treasury_id = ? AND proposal_id = ?", treasuryID, proposalID).
		Count(&count).
		Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *Repository) ListMembershipsByTreasury(ctx context.Context, treasuryID uint64) ([]entities.MembershipProposal, error) {
	var rows []membershipModel
	err := r.db.WithContext(ctx).
		Where("treasury_id = ?", treasuryID).
		Order("proposal_id ASC").
		Find(&rows).
		Error
	if err != nil {
		return nil, err
	}
	return membershipEntities(rows), nil
}

func (r *Repository) ListOpenMemberships(ctx context.Context) ([]entities.MembershipProposal, error) {
	var rows []membershipModel
	err := r.db.WithContext(ctx).
		Where("state IN ?", []string{
			string(entities.ProposalStateWaitingForApproval),
			string(entities.ProposalStateVoting),
		}).
		Order("treasury_id ASC, proposal_id ASC").
		Find(&rows).
		Error
	if err != nil {
		return nil, err
	}
	return membershipEntities(rows), nil
}

func (r *Repository) GetNonce(ctx context.Context, namespace string) (uint64, error) {
	var row nonceModel
	err := r.db.WithContext(ctx).
		Where("namespace = ?", namespace).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return row.Value, nil
}

func (r *Repository) PutNonce(ctx context.Context, namespace string, value uint64) error {
	row := nonceModel{Namespace: namespace, Value: value}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "namespace"}},
			DoUpdates: clause.AssignmentColumns([]string{"value"}),
		}).
		Create(&row).
		Error
}

func (r *Repository) AppendOutbox(ctx context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	row := outboxModel{
		OutboxID:  envelope.EventID,
		EventType: envelope.EventType,
		Payload:   payload,
		Status:    outboxStatusPending,
		CreatedAt: envelope.OccurredAtUTC.UTC(),
	}
	if row.OutboxID == "" {
		row.OutboxID = uuid.NewString()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}

	createResult := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "outbox_id"}},
			DoNothing: true,
		}).
		Create(&row)
	if createResult.Error != nil {
		return createResult.Error
	}
	if createResult.RowsAffected > 0 {
		return nil
	}

	var existing outboxModel
	if err := r.db.WithContext(ctx).
		Select("payload").
		Where("outbox_id = ?", row.OutboxID).
		First(&existing).
		Error; err != nil {
		return err
	}
	if !bytes.Equal(existing.Payload, row.Payload) {
		return domainerrors.ErrConflict
	}
	return nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}

	var rows []outboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).
		Error; err != nil {
		return nil, err
	}

	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.OutboxMessage{
			OutboxID:  row.OutboxID,
			EventType: row.EventType,
			Payload:   append([]byte(nil), row.Payload...),
			CreatedAt: row.CreatedAt.UTC(),
		})
	}
	return items, nil
}

func (r *Repository) MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", outboxID).
		Updates(map[string]any{
			"status":       outboxStatusPublished,
			"published_at": publishedAt.UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrConflict
	}
	return nil
}

type treasuryModel struct {
	TreasuryID uint64    `gorm:"column:treasury_id;primaryKey"`
	OrgID      uint64    `gorm:"column:org_id"`
	Controller string    `gorm:"column:controller"`
	OpenedBy   string    `gorm:"column:opened_by"`
	CreatedAt  time.Time `gorm:"column:created_at"`
}

func (treasuryModel) TableName() string {
	return "treasuries"
}

func treasuryModelFromEntity(item entities.Treasury) treasuryModel {
	return treasuryModel{
		TreasuryID: item.TreasuryID,
		OrgID:      item.OrgID,
		Controller: item.Controller,
		OpenedBy:   item.OpenedBy,
		CreatedAt:  item.CreatedAt.UTC(),
	}
}

func (m treasuryModel) toEntity() entities.Treasury {
	return entities.Treasury{
		TreasuryID: m.TreasuryID,
		OrgID:      m.OrgID,
		Controller: m.Controller,
		OpenedBy:   m.OpenedBy,
		CreatedAt:  m.CreatedAt.UTC(),
	}
}

type orgSlotModel struct {
	OrgID      uint64    `gorm:"column:org_id;primaryKey"`
	ReservedAt time.Time `gorm:"column:reserved_at"`
}

func (orgSlotModel) TableName() string {
	return "treasury_org_slots"
}

type spendModel struct {
	TreasuryID uint64    `gorm:"column:treasury_id;primaryKey"`
	SpendID    uint64    `gorm:"column:spend_id;primaryKey"`
	Amount     uint64    `gorm:"column:amount"`
	Dest       string    `gorm:"column:dest"`
	Proposer   string    `gorm:"column:proposer"`
	State      string    `gorm:"column:state"`
	VoteID     uint64    `gorm:"column:vote_id"`
	CreatedAt  time.Time `gorm:"column:created_at"`
	UpdatedAt  time.Time `gorm:"column:updated_at"`
}

func (spendModel) TableName() string {
	return "spend_proposals"
}

func spendModelFromEntity(item entities.SpendProposal) spendModel {
	return spendModel{
		TreasuryID: item.TreasuryID,
		SpendID:    item.SpendID,
		Amount:     item.Amount,
		Dest:       item.Dest,
		Proposer:   item.Proposer,
		State:      string(item.State),
		VoteID:     item.VoteID,
		CreatedAt:  item.CreatedAt.UTC(),
		UpdatedAt:  item.UpdatedAt.UTC(),
	}
}

func (m spendModel) toEntity() entities.SpendProposal {
	return entities.SpendProposal{
		TreasuryID: m.TreasuryID,
		SpendID:    m.SpendID,
		Amount:     m.Amount,
		Dest:       m.Dest,
		Proposer:   m.Proposer,
		State:      entities.SpendState(m.State),
		VoteID:     m.VoteID,
		CreatedAt:  m.CreatedAt.UTC(),
		UpdatedAt:  m.UpdatedAt.UTC(),
	}
}

func spendEntities(rows []spendModel) []entities.SpendProposal {
	items := make([]entities.SpendProposal, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items
}

type membershipModel struct {
	TreasuryID      uint64    `gorm:"column:treasury_id;primaryKey"`
	ProposalID      uint64    `gorm:"column:proposal_id;primaryKey"`
	Tribute         uint64    `gorm:"column:tribute"`
	SharesRequested uint64    `gorm:"column:shares_requested"`
	Applicant       string    `gorm:"column:applicant"`
	Proposer        string    `gorm:"column:proposer"`
	State           string    `gorm:"column:state"`
	VoteID          uint64    `gorm:"column:vote_id"`
	CreatedAt       time.Time `gorm:"column:created_at"`
	UpdatedAt       time.Time `gorm:"column:updated_at"`
}

func (membershipModel) TableName() string {
	return "membership_proposals"
}

func membershipModelFromEntity(item entities.MembershipProposal) membershipModel {
	return membershipModel{
		TreasuryID:      item.TreasuryID,
		ProposalID:      item.ProposalID,
		Tribute:         item.Tribute,
		SharesRequested: item.SharesRequested,
		Applicant:       item.Applicant,
		Proposer:        item.Proposer,
		State:           string(item.State),
		VoteID:          item.VoteID,
		CreatedAt:       item.CreatedAt.UTC(),
		UpdatedAt:       item.UpdatedAt.UTC(),
	}
}

func (m membershipModel) toEntity() entities.MembershipProposal {
	return entities.MembershipProposal{
		TreasuryID:      m.TreasuryID,
		ProposalID:      m.ProposalID,
		Tribute:         m.Tribute,
		SharesRequested: m.SharesRequested,
		Applicant:       m.Applicant,
		Proposer:        m.Proposer,
		State:           entities.ProposalState(m.State),
		VoteID:          m.VoteID,
		CreatedAt:       m.CreatedAt.UTC(),
		UpdatedAt:       m.UpdatedAt.UTC(),
	}
}

func membershipEntities(rows []membershipModel) []entities.MembershipProposal {
	items := make([]entities.MembershipProposal, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items
}

type nonceModel struct {
	Namespace string `gorm:"column:namespace;primaryKey"`
	Value     uint64 `gorm:"column:value"`
}

func (nonceModel) TableName() string {
	return "treasury_nonces"
}

type outboxModel struct {
	OutboxID    string     `gorm:"column:outbox_id;primaryKey"`
	EventType   string     `gorm:"column:event_type"`
	Payload     []byte     `gorm:"column:payload"`
	Status      string     `gorm:"column:status"`
	CreatedAt   time.Time  `gorm:"column:created_at"`
	PublishedAt *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string {
	return "treasury_outbox"
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
