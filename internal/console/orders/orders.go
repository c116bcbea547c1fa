// Package orders wires the admin order tables onto the list view: the main
// order list, the failed payments list, refund and resend actions, summary
// statistics and CSV export.
package orders

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/landlordheaven/heaven-backend/internal/console/feedback"
	"github.com/landlordheaven/heaven-backend/internal/console/listview"
	"github.com/landlordheaven/heaven-backend/pkg/db/models"
	"github.com/landlordheaven/heaven-backend/pkg/dto"
	"github.com/landlordheaven/heaven-backend/pkg/enums"
	"github.com/landlordheaven/heaven-backend/pkg/gateway"
	"github.com/landlordheaven/heaven-backend/pkg/logger"
	"github.com/landlordheaven/heaven-backend/pkg/money"
)

const (
	FilterStatus      = "status"
	FilterProductType = "product_type"

	ActionRefund = "refund"
	ActionResend = "resend_email"
)

// API is the slice of the gateway used by the order views.
type API interface {
	ListOrders(ctx context.Context, q gateway.OrderQuery) (*dto.OrdersPage, error)
	ListFailedPayments(ctx context.Context, q gateway.OrderQuery) (*dto.OrdersPage, error)
	RefundOrder(ctx context.Context, orderID uuid.UUID) (*dto.OrderActionResult, error)
	ResendOrderEmail(ctx context.Context, orderID uuid.UUID) (*dto.OrderActionResult, error)
}

type Options struct {
	PageSize int
	Search   listview.SearchMode
	Logger   *logger.Logger
}

// View is the admin order table.
type View struct {
	*listview.Controller[models.Order]
	api API
}

// NewView builds the main order list.
func NewView(api API, opts Options) *View {
	return &View{Controller: newController(api.ListOrders, nil, opts), api: api}
}

// NewFailedView builds the failed payments list. Rows outside failed or
// pending payment status are dropped even if the server returns them.
func NewFailedView(api API, opts Options) *View {
	return &View{Controller: newController(api.ListFailedPayments, FailedOrPending, opts), api: api}
}

func newController(list func(context.Context, gateway.OrderQuery) (*dto.OrdersPage, error), keep func(models.Order) bool, opts Options) *listview.Controller[models.Order] {
	fetch := func(ctx context.Context, q listview.Query) (listview.Page[models.Order], error) {
		page, err := list(ctx, gateway.OrderQuery{
			Status:      q.Filter(FilterStatus),
			ProductType: q.Filter(FilterProductType),
			SortBy:      q.SortBy,
			Search:      q.Search,
			Page:        q.Page,
			PageSize:    q.PageSize,
		})
		if err != nil {
			return listview.Page[models.Order]{}, err
		}
		rows, count := page.Data, page.Count
		if keep != nil {
			rows = rows[:0:0]
			for _, o := range page.Data {
				if keep(o) {
					rows = append(rows, o)
				}
			}
			// rows the server should not have sent leave the total too
			count = max(0, count-int64(len(page.Data)-len(rows)))
		}
		return listview.Page[models.Order]{Rows: rows, Count: count}, nil
	}
	return listview.New(fetch, listview.Options[models.Order]{
		PageSize: opts.PageSize,
		SortBy:   "newest",
		Filters:  []string{FilterStatus, FilterProductType},
		Search:   opts.Search,
		Match:    Match,
		Logger:   opts.Logger,
	})
}

// FailedOrPending keeps orders whose payment failed or never completed.
func FailedOrPending(o models.Order) bool {
	return o.PaymentStatus == enums.PaymentStatusFailed || o.PaymentStatus == enums.PaymentStatusPending
}

// Match is the page-local search: order id prefix, customer email or name,
// or product label.
func Match(o models.Order, term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	if strings.HasPrefix(o.ID.String(), term) {
		return true
	}
	if strings.Contains(strings.ToLower(o.ProductType.Label()), term) {
		return true
	}
	if o.User != nil {
		if strings.Contains(strings.ToLower(o.User.Email), term) {
			return true
		}
		if o.User.FullName != nil && strings.Contains(strings.ToLower(*o.User.FullName), term) {
			return true
		}
	}
	return false
}

// RefundPrompt is the confirmation text for a refund.
func RefundPrompt(o models.Order) string {
	return "Refund " + money.Format(o.Amount) + " for order " + shortID(o.ID) + "? This cannot be undone."
}

// Refund refunds an order after confirmation and refetches on success.
func (v *View) Refund(ctx context.Context, confirm feedback.Confirmer, o models.Order) (feedback.Message, error) {
	return v.Run(ctx, confirm, listview.Action{
		Name:    ActionRefund,
		Key:     o.ID.String(),
		Confirm: RefundPrompt(o),
		Do: func(ctx context.Context) (string, error) {
			res, err := v.api.RefundOrder(ctx, o.ID)
			if err != nil {
				return "", err
			}
			return messageOr(res, "Order refunded"), nil
		},
		FailureText: "Failed to refund order",
	})
}

// ResendEmail re-sends the purchase confirmation. No confirmation is needed.
func (v *View) ResendEmail(ctx context.Context, o models.Order) (feedback.Message, error) {
	return v.Run(ctx, nil, listview.Action{
		Name: ActionResend,
		Key:  o.ID.String(),
		Do: func(ctx context.Context) (string, error) {
			res, err := v.api.ResendOrderEmail(ctx, o.ID)
			if err != nil {
				return "", err
			}
			return messageOr(res, "Confirmation email sent"), nil
		},
		FailureText: "Failed to resend email",
	})
}

func messageOr(res *dto.OrderActionResult, fallback string) string {
	if res != nil && res.Message != "" {
		return res.Message
	}
	return fallback
}

func shortID(id uuid.UUID) string {
	return id.String()[:8]
}
