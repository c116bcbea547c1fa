package documents

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/landlordheaven/heaven-backend/pkg/db/models"
	"github.com/landlordheaven/heaven-backend/pkg/enums"
)

// Repository exposes persistence helpers for case documents.
type Repository interface {
	Create(ctx context.Context, doc *models.Document) error
	ListByCase(ctx context.Context, caseID uuid.UUID) ([]models.Document, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.DocumentStatus) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a documents repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, doc *models.Document) error {
	return r.db.WithContext(ctx).Create(doc).Error
}

func (r *repository) ListByCase(ctx context.Context, caseID uuid.UUID) ([]models.Document, error) {
	var rows []models.Document
	err := r.db.WithContext(ctx).
		Where("case_id = ?", caseID).
		Order("created_at DESC, id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.DocumentStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Document{}).
		Where("id = ?", id).
		Update("status", status).Error
}
