package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/landlordheaven/heaven-backend/internal/console/listview"
	"github.com/landlordheaven/heaven-backend/pkg/db/models"
	"github.com/landlordheaven/heaven-backend/pkg/dto"
	"github.com/landlordheaven/heaven-backend/pkg/enums"
)

type fakeAPI struct {
	admin   bool
	order   models.Order
	refunds atomic.Int32
}

func (f *fakeAPI) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer ops-token", r.Header.Get("Authorization"))
		switch {
		case r.URL.Path == "/api/admin/check-access":
			if !f.admin {
				w.WriteHeader(http.StatusForbidden)
				_, _ = w.Write([]byte(`{"error":{"code":"FORBIDDEN","message":"admin access required"}}`))
				return
			}
			_ = json.NewEncoder(w).Encode(dto.AccessResponse{Authorized: true})
		case r.URL.Path == "/api/admin/orders" && r.Method == http.MethodGet:
			_ = json.NewEncoder(w).Encode(dto.OrdersPage{Data: []models.Order{f.order}, Count: 1})
		case r.URL.Path == "/api/admin/orders/refund" && r.Method == http.MethodPost:
			f.refunds.Add(1)
			_ = json.NewEncoder(w).Encode(dto.OrderActionResult{Message: "Refund issued"})
		default:
			http.NotFound(w, r)
		}
	}
}

func newFakeAPI(t *testing.T, admin bool) *fakeAPI {
	t.Helper()
	intent := "pi_1"
	f := &fakeAPI{
		admin: admin,
		order: models.Order{
			ID:                    uuid.MustParse("8d0f6c1e-4b7a-4f55-9a57-2f1c3e0b9a10"),
			ProductType:           enums.ProductTypeNoticeOnly,
			Amount:                3999,
			Currency:              "gbp",
			Status:                enums.OrderStatusSucceeded,
			PaymentStatus:         enums.PaymentStatusSucceeded,
			StripePaymentIntentID: &intent,
			CreatedAt:             time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC),
			User:                  &models.User{Email: "sonia@example.com"},
		},
	}
	srv := httptest.NewServer(f.handler(t))
	t.Cleanup(srv.Close)

	t.Setenv("HEAVEN_CONSOLE_BASE_URL", srv.URL)
	t.Setenv("HEAVEN_CONSOLE_TOKEN", "ops-token")
	t.Setenv("HEAVEN_CONSOLE_SEARCH_MODE", "server")
	t.Setenv("HEAVEN_CONSOLE_PAGE_SIZE", "20")
	return f
}

func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := newRootCommand()
	root.SetArgs(args)
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&out)
	root.SetErr(&errOut)
	err := root.Execute()
	return out.String(), errOut.String(), err
}

func TestOrdersList(t *testing.T) {
	newFakeAPI(t, true)

	out, _, err := execute(t, "", "orders", "list")
	require.NoError(t, err)
	require.Contains(t, out, "sonia@example.com")
	require.Contains(t, out, "Notice Only")
	require.Contains(t, out, "£39.99")
	require.Contains(t, out, "Page 1 of 1, 1 orders in total")
	require.Contains(t, out, "revenue £39.99")
}

func TestOrdersExportCSV(t *testing.T) {
	newFakeAPI(t, true)

	out, _, err := execute(t, "", "orders", "export")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	require.Equal(t, "Order ID,Date,Email,Product,Amount,Status", lines[0])
	require.Equal(t, "8d0f6c1e-4b7a-4f55-9a57-2f1c3e0b9a10,05/01/2026,sonia@example.com,Notice Only,39.99,succeeded", lines[1])
}

func TestOrdersRefundDeclined(t *testing.T) {
	f := newFakeAPI(t, true)

	out, _, err := execute(t, "n\n", "orders", "refund", f.order.ID.String())
	require.ErrorIs(t, err, listview.ErrDeclined)
	require.Contains(t, out, "Refund £39.99 for order 8d0f6c1e? This cannot be undone. [y/N]")
	require.Zero(t, f.refunds.Load())
}

func TestOrdersRefundConfirmed(t *testing.T) {
	f := newFakeAPI(t, true)

	out, _, err := execute(t, "", "--yes", "orders", "refund", f.order.ID.String())
	require.NoError(t, err)
	require.Contains(t, out, "[success] Refund issued")
	require.EqualValues(t, 1, f.refunds.Load())
}

func TestNonAdminIsTurnedAway(t *testing.T) {
	newFakeAPI(t, false)

	_, _, err := execute(t, "", "orders", "list")
	require.Error(t, err)
	require.Contains(t, err.Error(), "not an admin")
}

func TestInvalidOrderID(t *testing.T) {
	newFakeAPI(t, true)

	_, _, err := execute(t, "", "orders", "refund", "not-a-uuid")
	require.EqualError(t, err, `invalid order id "not-a-uuid"`)
}
