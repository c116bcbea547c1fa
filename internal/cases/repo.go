package cases

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/landlordheaven/heaven-backend/pkg/db/models"
	"github.com/landlordheaven/heaven-backend/pkg/types"
)

// Repository exposes persistence helpers for cases.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, c *models.Case) error
	List(ctx context.Context, ownerID *uuid.UUID) ([]models.Case, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Case, error)
	Update(ctx context.Context, c *models.Case) error
	UpdateAnalysis(ctx context.Context, id uuid.UUID, analysis map[string]any) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a cases repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, c *models.Case) error {
	return r.db.WithContext(ctx).Create(c).Error
}

// List returns cases newest first. A nil owner lists every case.
func (r *repository) List(ctx context.Context, ownerID *uuid.UUID) ([]models.Case, error) {
	query := r.db.WithContext(ctx).Model(&models.Case{})
	if ownerID != nil {
		query = query.Where("user_id = ?", *ownerID)
	}
	var rows []models.Case
	if err := query.Order("updated_at DESC, id DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Case, error) {
	var c models.Case
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *repository) Update(ctx context.Context, c *models.Case) error {
	return r.db.WithContext(ctx).
		Model(c).
		Select("collected_facts", "wizard_progress", "status", "updated_at").
		Updates(c).Error
}

func (r *repository) UpdateAnalysis(ctx context.Context, id uuid.UUID, analysis map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Case{ID: id}).
		Update("ai_analysis", analysisColumn(analysis)).Error
}

// Delete removes the case and its documents and detaches orders. Postgres
// cascades these too; SQLite needs them explicitly.
func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("case_id = ?", id).Delete(&models.Document{}).Error; err != nil {
		return err
	}
	if err := db.Model(&models.Order{}).Where("case_id = ?", id).Update("case_id", nil).Error; err != nil {
		return err
	}
	result := db.Where("id = ?", id).Delete(&models.Case{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func analysisColumn(analysis map[string]any) types.JSONMap {
	if analysis == nil {
		return types.JSONMap{}
	}
	return types.JSONMap(analysis)
}
