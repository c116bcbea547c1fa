package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/landlordheaven/heaven-backend/pkg/db/models"
	"github.com/landlordheaven/heaven-backend/pkg/dto"
	"github.com/landlordheaven/heaven-backend/pkg/enums"
	pkgerrors "github.com/landlordheaven/heaven-backend/pkg/errors"
	"github.com/landlordheaven/heaven-backend/pkg/types"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := NewClient(srv.URL, append([]Option{WithToken("token-1")}, opts...)...)
	require.NoError(t, err)
	return client
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	_, err := NewClient("  ")
	require.ErrorIs(t, err, errBaseURLRequired)
}

func TestCheckAccessMapsStatuses(t *testing.T) {
	cases := []struct {
		status int
		code   pkgerrors.Code
	}{
		{http.StatusUnauthorized, pkgerrors.CodeUnauthorized},
		{http.StatusForbidden, pkgerrors.CodeForbidden},
		{http.StatusInternalServerError, pkgerrors.CodeDependency},
		{http.StatusBadGateway, pkgerrors.CodeDependency},
	}
	for _, tc := range cases {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
		})
		err := client.CheckAccess(context.Background())
		require.True(t, pkgerrors.Is(err, tc.code), "status %d gave %v", tc.status, err)
	}

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer token-1", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(dto.AccessResponse{Authorized: true})
	})
	require.NoError(t, client.CheckAccess(context.Background()))
}

func TestErrorsKeepServerMessageVerbatim(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_ = json.NewEncoder(w).Encode(types.ErrorEnvelope{Error: types.APIError{
			Code:    string(pkgerrors.CodeStateConflict),
			Message: "Order is not refundable: status is refunded",
		}})
	})

	_, err := client.RefundOrder(context.Background(), uuid.New())
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeStateConflict, typed.Code())
	require.Equal(t, "Order is not refundable: status is refunded", typed.Message())
}

func TestLegalChangeErrorEnvelope(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(types.ResultEnvelope{Error: &types.APIError{
			Code:    string(pkgerrors.CodeIdempotency),
			Message: "already running",
		}})
	})
	_, err := client.PushPR(context.Background(), uuid.New())
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeIdempotency))
	require.Equal(t, "already running", pkgerrors.As(err).Message())
}

func TestRefundSendsIdempotencyKey(t *testing.T) {
	orderID := uuid.New()
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/admin/orders/refund", r.URL.Path)
		_, err := uuid.Parse(r.Header.Get(idempotencyHeaderName))
		require.NoError(t, err)

		var body dto.OrderActionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, orderID, body.OrderID)

		_ = json.NewEncoder(w).Encode(types.SuccessEnvelope{Data: dto.OrderActionResult{Message: "Refund issued"}})
	})

	result, err := client.RefundOrder(context.Background(), orderID)
	require.NoError(t, err)
	require.Equal(t, "Refund issued", result.Message)
}

func TestListOrdersEncodesQuery(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		require.Equal(t, "succeeded", q.Get("status"))
		require.Equal(t, "amount_desc", q.Get("sort"))
		require.Equal(t, "sonia", q.Get("q"))
		require.Equal(t, "3", q.Get("page"))
		require.Equal(t, "20", q.Get("page_size"))
		require.Empty(t, q.Get("product_type"))
		_ = json.NewEncoder(w).Encode(dto.OrdersPage{Data: []models.Order{{Amount: 3999}}, Count: 41})
	})

	page, err := client.ListOrders(context.Background(), OrderQuery{Status: "succeeded", SortBy: "amount_desc", Search: "sonia", Page: 3, PageSize: 20})
	require.NoError(t, err)
	require.Equal(t, int64(41), page.Count)
	require.Len(t, page.Data, 1)
}

func TestGetLegalChangeEventFullAudit(t *testing.T) {
	id := uuid.New()
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/admin/legal-change/events/"+id.String(), r.URL.Path)
		require.Equal(t, "fullAuditLog", r.URL.Query().Get("include"))
		detail := dto.LegalChangeEventDetail{
			LegalChangeEvent: models.LegalChangeEvent{ID: id, Title: "Renters' Rights Act", State: enums.LegalChangeStateTriaged},
			AllowedActions:   []enums.LegalChangeAction{enums.LegalChangeActionMarkActionRequired, enums.LegalChangeActionClose},
		}
		_ = json.NewEncoder(w).Encode(types.ResultEnvelope{Success: true, Data: detail})
	})

	detail, err := client.GetLegalChangeEvent(context.Background(), id, true)
	require.NoError(t, err)
	require.Equal(t, "Renters' Rights Act", detail.Title)
	require.Equal(t, []enums.LegalChangeAction{enums.LegalChangeActionMarkActionRequired, enums.LegalChangeActionClose}, detail.AllowedActions)
}

func TestPushPRHonoursActionTimeout(t *testing.T) {
	release := make(chan struct{})
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}, WithActionTimeout(50*time.Millisecond))
	defer close(release)

	_, err := client.PushPR(context.Background(), uuid.New())
	require.Error(t, err)
	require.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestActionTimeoutOutlastsRequestTimeout(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data":    dto.PushPRResult{PRURL: "https://github.com/landlordheaven/rules/pull/7"},
		})
	}, WithRequestTimeout(100*time.Millisecond), WithActionTimeout(5*time.Second))

	res, err := client.PushPR(context.Background(), uuid.New())
	require.NoError(t, err)
	require.Equal(t, "https://github.com/landlordheaven/rules/pull/7", res.PRURL)

	_, err = client.ListCases(context.Background())
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCancelledContextIsReturnedUnwrapped(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := client.ListCases(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
