package orders

import (
	"context"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/landlordheaven/heaven-backend/pkg/db/models"
	"github.com/landlordheaven/heaven-backend/pkg/enums"
)

// Repository defines persistence operations for the orders table.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	List(ctx context.Context, q ListQuery, failedOnly bool) ([]models.Order, int64, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByPaymentIntent(ctx context.Context, paymentIntentID string) (*models.Order, error)
	// UpdateIfStatus applies updates only while the order still has the given status.
	UpdateIfStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus, updates map[string]any) (bool, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Question)

// listFilter is shared by the row and count statements so both see the same set.
func listFilter(q ListQuery, failedOnly bool) sq.And {
	where := sq.And{}
	if q.Status != "" {
		where = append(where, sq.Eq{"o.status": q.Status})
	}
	if q.ProductType != "" {
		where = append(where, sq.Eq{"o.product_type": q.ProductType})
	}
	if failedOnly {
		statuses := make([]string, 0, len(enums.FailedPaymentStatuses))
		for _, s := range enums.FailedPaymentStatuses {
			statuses = append(statuses, string(s))
		}
		where = append(where, sq.Eq{"o.payment_status": statuses})
	}
	if q.Search != "" {
		term := containsPattern(q.Search)
		where = append(where, sq.Or{
			sq.Expr(`LOWER(u.email) LIKE ? ESCAPE '\'`, term),
			sq.Expr(`LOWER(CAST(o.id AS TEXT)) LIKE ? ESCAPE '\'`, term),
			sq.Expr(`LOWER(o.stripe_payment_intent_id) LIKE ? ESCAPE '\'`, term),
		})
	}
	return where
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// containsPattern turns a search term into a LIKE pattern that matches it literally.
func containsPattern(term string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(term)) + "%"
}

func listStatements(q ListQuery, failedOnly bool) (rows sq.SelectBuilder, count sq.SelectBuilder) {
	where := listFilter(q, failedOnly)
	page := q.Page.Normalize()

	rows = psql.Select("o.*").
		From("orders o").
		LeftJoin("users u ON u.id = o.user_id").
		Where(where).
		OrderBy(sortColumns[q.Sort], "o.id ASC").
		Limit(uint64(page.PageSize)).
		Offset(uint64(page.Offset()))
	count = psql.Select("COUNT(*)").
		From("orders o").
		LeftJoin("users u ON u.id = o.user_id").
		Where(where)
	return rows, count
}

func (r *repository) List(ctx context.Context, q ListQuery, failedOnly bool) ([]models.Order, int64, error) {
	rowsStmt, countStmt := listStatements(q, failedOnly)

	countSQL, countArgs, err := countStmt.ToSql()
	if err != nil {
		return nil, 0, err
	}
	var total int64
	if err := r.db.WithContext(ctx).Raw(countSQL, countArgs...).Scan(&total).Error; err != nil {
		return nil, 0, err
	}

	rowsSQL, rowsArgs, err := rowsStmt.ToSql()
	if err != nil {
		return nil, 0, err
	}
	orders := []models.Order{}
	if err := r.db.WithContext(ctx).Raw(rowsSQL, rowsArgs...).Scan(&orders).Error; err != nil {
		return nil, 0, err
	}
	if err := r.attachUsers(ctx, orders); err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (r *repository) attachUsers(ctx context.Context, orders []models.Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, 0, len(orders))
	seen := map[uuid.UUID]struct{}{}
	for _, o := range orders {
		if _, ok := seen[o.UserID]; ok {
			continue
		}
		seen[o.UserID] = struct{}{}
		ids = append(ids, o.UserID)
	}
	var users []models.User
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return err
	}
	byID := make(map[uuid.UUID]*models.User, len(users))
	for i := range users {
		byID[users[i].ID] = &users[i]
	}
	for i := range orders {
		orders[i].User = byID[orders[i].UserID]
	}
	return nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).Preload("User").Where("id = ?", id).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindByPaymentIntent(ctx context.Context, paymentIntentID string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Where("stripe_payment_intent_id = ?", paymentIntentID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) UpdateIfStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus, updates map[string]any) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", id, status).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
