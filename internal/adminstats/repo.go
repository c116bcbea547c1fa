package adminstats

import (
	"context"

	"gorm.io/gorm"

	"github.com/landlordheaven/heaven-backend/pkg/db/models"
	"github.com/landlordheaven/heaven-backend/pkg/enums"
)

// Repository runs the aggregate queries behind the dashboard.
type Repository interface {
	OrdersByStatus(ctx context.Context) (map[string]int64, error)
	SumAmount(ctx context.Context, status enums.OrderStatus) (int64, error)
	CasesByStatus(ctx context.Context) (map[string]int64, error)
	CountDocuments(ctx context.Context) (int64, error)
	CountOpenLegalEvents(ctx context.Context) (int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

type statusCount struct {
	Status string
	Total  int64
}

func (r *repository) groupByStatus(ctx context.Context, model any) (map[string]int64, error) {
	var rows []statusCount
	err := r.db.WithContext(ctx).
		Model(model).
		Select("status, COUNT(*) AS total").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Status] = row.Total
	}
	return out, nil
}

func (r *repository) OrdersByStatus(ctx context.Context) (map[string]int64, error) {
	return r.groupByStatus(ctx, &models.Order{})
}

func (r *repository) CasesByStatus(ctx context.Context) (map[string]int64, error) {
	return r.groupByStatus(ctx, &models.Case{})
}

func (r *repository) SumAmount(ctx context.Context, status enums.OrderStatus) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("status = ?", status).
		Scan(&total).Error
	return total, err
}

func (r *repository) CountDocuments(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.Document{}).Count(&total).Error
	return total, err
}

func (r *repository) CountOpenLegalEvents(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.LegalChangeEvent{}).
		Where("state NOT IN ?", []enums.LegalChangeState{enums.LegalChangeStateClosed, enums.LegalChangeStateDismissed}).
		Count(&total).Error
	return total, err
}
