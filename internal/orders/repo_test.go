package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/landlordheaven/heaven-backend/pkg/db/dbtest"
	"github.com/landlordheaven/heaven-backend/pkg/db/models"
	"github.com/landlordheaven/heaven-backend/pkg/enums"
	"github.com/landlordheaven/heaven-backend/pkg/pagination"
)

type orderFixture struct {
	email   string
	product enums.ProductType
	amount  int64
	status  enums.OrderStatus
	payment enums.PaymentStatus
	intent  string
}

func seedOrders(t *testing.T, db *gorm.DB, fixtures []orderFixture) []models.Order {
	t.Helper()
	users := map[string]models.User{}
	base := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	out := make([]models.Order, 0, len(fixtures))
	for i, f := range fixtures {
		user, ok := users[f.email]
		if !ok {
			user = models.User{Email: f.email}
			require.NoError(t, db.Create(&user).Error)
			users[f.email] = user
		}
		order := models.Order{
			UserID:        user.ID,
			ProductType:   f.product,
			Amount:        f.amount,
			Currency:      "gbp",
			Status:        f.status,
			PaymentStatus: f.payment,
			CreatedAt:     base.Add(time.Duration(i) * time.Hour),
		}
		if f.intent != "" {
			intent := f.intent
			order.StripePaymentIntentID = &intent
		}
		require.NoError(t, db.Create(&order).Error)
		out = append(out, order)
	}
	return out
}

func defaultFixtures() []orderFixture {
	return []orderFixture{
		{"tariq@example.com", enums.ProductTypeCompletePack, 14999, enums.OrderStatusSucceeded, enums.PaymentStatusSucceeded, "pi_complete"},
		{"sonia@example.com", enums.ProductTypeNoticeOnly, 3999, enums.OrderStatusFailed, enums.PaymentStatusFailed, "pi_failed"},
		{"tariq@example.com", enums.ProductTypeMoneyClaim, 9999, enums.OrderStatusProcessing, enums.PaymentStatusPending, ""},
		{"agent@lettings.co.uk", enums.ProductTypeASTStandard, 1999, enums.OrderStatusRefunded, enums.PaymentStatusSucceeded, "pi_refunded"},
	}
}

func normalized(t *testing.T, q ListQuery) ListQuery {
	t.Helper()
	n, err := q.Normalize()
	require.NoError(t, err)
	return n
}

func TestListStatementsBuildFilters(t *testing.T) {
	rows, count := listStatements(normalized(t, ListQuery{
		Status: "succeeded",
		Sort:   SortAmountDesc,
		Search: "Tariq",
		Page:   pagination.PageParams{Page: 2},
	}), true)

	sqlText, args, err := rows.ToSql()
	require.NoError(t, err)
	assert.Contains(t, sqlText, "FROM orders o LEFT JOIN users u ON u.id = o.user_id")
	assert.Contains(t, sqlText, "o.payment_status IN (?,?)")
	assert.Contains(t, sqlText, "ORDER BY o.amount DESC, o.id ASC")
	assert.Contains(t, sqlText, `LOWER(u.email) LIKE ? ESCAPE '\'`)
	assert.Equal(t, []any{"succeeded", "failed", "pending", "%tariq%", "%tariq%", "%tariq%"}, args)

	countSQL, countArgs, err := count.ToSql()
	require.NoError(t, err)
	assert.Contains(t, countSQL, "SELECT COUNT(*) FROM orders o")
	assert.NotContains(t, countSQL, "ORDER BY")
	assert.Equal(t, args, countArgs)
}

func TestListFiltersAndCounts(t *testing.T) {
	client := dbtest.New(t)
	seedOrders(t, client.DB(), defaultFixtures())
	repo := NewRepository(client.DB())
	ctx := context.Background()

	rows, count, err := repo.List(ctx, normalized(t, ListQuery{}), false)
	require.NoError(t, err)
	require.EqualValues(t, 4, count)
	require.Len(t, rows, 4)
	require.Equal(t, "agent@lettings.co.uk", rows[0].User.Email, "newest first")

	rows, count, err = repo.List(ctx, normalized(t, ListQuery{Status: "succeeded"}), false)
	require.NoError(t, err)
	require.EqualValues(t, 1, count)
	require.Equal(t, int64(14999), rows[0].Amount)

	rows, _, err = repo.List(ctx, normalized(t, ListQuery{Sort: SortAmountAsc}), false)
	require.NoError(t, err)
	require.Equal(t, int64(1999), rows[0].Amount)
}

func TestListFailedPaymentsOnlyFailedOrPending(t *testing.T) {
	client := dbtest.New(t)
	seedOrders(t, client.DB(), defaultFixtures())
	repo := NewRepository(client.DB())

	rows, count, err := repo.List(context.Background(), normalized(t, ListQuery{}), true)
	require.NoError(t, err)
	require.EqualValues(t, 2, count)
	for _, row := range rows {
		require.Contains(t, []enums.PaymentStatus{enums.PaymentStatusFailed, enums.PaymentStatusPending}, row.PaymentStatus)
	}
}

func TestListSearchRunsBeforePagination(t *testing.T) {
	client := dbtest.New(t)
	fixtures := make([]orderFixture, 0, 25)
	for i := 0; i < 24; i++ {
		fixtures = append(fixtures, orderFixture{"filler@example.com", enums.ProductTypeNoticeOnly, 3999, enums.OrderStatusSucceeded, enums.PaymentStatusSucceeded, ""})
	}
	// oldest row lands on page two when unfiltered
	fixtures = append([]orderFixture{{"sonia@example.com", enums.ProductTypeCompletePack, 14999, enums.OrderStatusSucceeded, enums.PaymentStatusSucceeded, ""}}, fixtures...)
	seedOrders(t, client.DB(), fixtures)
	repo := NewRepository(client.DB())

	rows, count, err := repo.List(context.Background(), normalized(t, ListQuery{Search: "SONIA"}), false)
	require.NoError(t, err)
	require.EqualValues(t, 1, count)
	require.Len(t, rows, 1)
	require.Equal(t, "sonia@example.com", rows[0].User.Email)

	_, count, err = repo.List(context.Background(), normalized(t, ListQuery{}), false)
	require.NoError(t, err)
	require.EqualValues(t, 25, count)
	require.Equal(t, 2, pagination.PageCount(count, pagination.DefaultLimit))
}

func TestListSearchMatchesWildcardsLiterally(t *testing.T) {
	client := dbtest.New(t)
	seedOrders(t, client.DB(), []orderFixture{
		{"sonia_s@example.com", enums.ProductTypeNoticeOnly, 3999, enums.OrderStatusSucceeded, enums.PaymentStatusSucceeded, ""},
		{"tariq@example.com", enums.ProductTypeMoneyClaim, 9999, enums.OrderStatusSucceeded, enums.PaymentStatusSucceeded, ""},
	})
	repo := NewRepository(client.DB())
	ctx := context.Background()

	rows, count, err := repo.List(ctx, normalized(t, ListQuery{Search: "_"}), false)
	require.NoError(t, err)
	require.EqualValues(t, 1, count)
	require.Equal(t, "sonia_s@example.com", rows[0].User.Email)

	_, count, err = repo.List(ctx, normalized(t, ListQuery{Search: "%"}), false)
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestContainsPattern(t *testing.T) {
	assert.Equal(t, `%sonia\_s%`, containsPattern("Sonia_S"))
	assert.Equal(t, `%50\%%`, containsPattern("50%"))
	assert.Equal(t, `%a\\b%`, containsPattern(`a\b`))
}

func TestUpdateIfStatus(t *testing.T) {
	client := dbtest.New(t)
	orders := seedOrders(t, client.DB(), defaultFixtures())
	repo := NewRepository(client.DB())
	ctx := context.Background()

	ok, err := repo.UpdateIfStatus(ctx, orders[1].ID, enums.OrderStatusSucceeded, map[string]any{"status": enums.OrderStatusRefunded})
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = repo.UpdateIfStatus(ctx, orders[0].ID, enums.OrderStatusSucceeded, map[string]any{"status": enums.OrderStatusRefunded})
	require.NoError(t, err)
	require.True(t, ok)

	found, err := repo.FindByPaymentIntent(ctx, "pi_complete")
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusRefunded, found.Status)

	require.ErrorIs(t, repo.Update(ctx, uuid.New(), map[string]any{"failure_reason": "x"}), gorm.ErrRecordNotFound)
}

func TestNormalizeRejectsUnknownValues(t *testing.T) {
	_, err := ListQuery{Status: "shipped"}.Normalize()
	require.Error(t, err)
	_, err = ListQuery{Sort: "cheapest"}.Normalize()
	require.Error(t, err)

	q, err := ListQuery{Status: "all", ProductType: "ALL"}.Normalize()
	require.NoError(t, err)
	require.Empty(t, q.Status)
	require.Empty(t, q.ProductType)
	require.Equal(t, SortNewest, q.Sort)
}
