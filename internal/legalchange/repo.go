package legalchange

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/landlordheaven/heaven-backend/pkg/db/models"
	"github.com/landlordheaven/heaven-backend/pkg/enums"
	"github.com/landlordheaven/heaven-backend/pkg/pagination"
	"github.com/landlordheaven/heaven-backend/pkg/types"
)

// Repository persists legal-change events and their history.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, event *models.LegalChangeEvent) error
	List(ctx context.Context, state enums.LegalChangeState, cursor *pagination.Cursor, limit int) ([]models.LegalChangeEvent, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.LegalChangeEvent, error)
	// UpdateState moves the event only while it is still in from.
	UpdateState(ctx context.Context, id uuid.UUID, from, to enums.LegalChangeState) (bool, error)
	SetLinkedPRs(ctx context.Context, id uuid.UUID, urls types.StringList) error
	AppendTransition(ctx context.Context, transition *models.LegalChangeTransition) error
	// History returns up to limit of the latest transitions in chronological order; limit <= 0 returns all.
	History(ctx context.Context, eventID uuid.UUID, limit int) ([]models.LegalChangeTransition, int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, event *models.LegalChangeEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *repository) List(ctx context.Context, state enums.LegalChangeState, cursor *pagination.Cursor, limit int) ([]models.LegalChangeEvent, error) {
	query := r.db.WithContext(ctx).Model(&models.LegalChangeEvent{})
	if state != "" {
		query = query.Where("state = ?", state)
	}
	if cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}
	var events []models.LegalChangeEvent
	err := query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&events).Error
	return events, err
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.LegalChangeEvent, error) {
	var event models.LegalChangeEvent
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&event).Error; err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *repository) UpdateState(ctx context.Context, id uuid.UUID, from, to enums.LegalChangeState) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.LegalChangeEvent{}).
		Where("id = ? AND state = ?", id, from).
		Update("state", to)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) SetLinkedPRs(ctx context.Context, id uuid.UUID, urls types.StringList) error {
	return r.db.WithContext(ctx).
		Model(&models.LegalChangeEvent{}).
		Where("id = ?", id).
		Update("linked_pr_urls", urls).Error
}

func (r *repository) AppendTransition(ctx context.Context, transition *models.LegalChangeTransition) error {
	return r.db.WithContext(ctx).Create(transition).Error
}

func (r *repository) History(ctx context.Context, eventID uuid.UUID, limit int) ([]models.LegalChangeTransition, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).
		Model(&models.LegalChangeTransition{}).
		Where("event_id = ?", eventID).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query := r.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var rows []models.LegalChangeTransition
	if err := query.Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
	return rows, total, nil
}
