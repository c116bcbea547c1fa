package controllers

import (
	"net/http"
	"strings"

	"github.com/landlordheaven/heaven-backend/api/responses"
	"github.com/landlordheaven/heaven-backend/api/validators"
	"github.com/landlordheaven/heaven-backend/internal/orders"
	"github.com/landlordheaven/heaven-backend/pkg/dto"
	pkgerrors "github.com/landlordheaven/heaven-backend/pkg/errors"
	"github.com/landlordheaven/heaven-backend/pkg/logger"
)

func parseOrderQuery(r *http.Request) (orders.ListQuery, error) {
	page, err := validators.ParsePage(r)
	if err != nil {
		return orders.ListQuery{}, err
	}
	values := r.URL.Query()
	return orders.ListQuery{
		Status:      strings.TrimSpace(values.Get("status")),
		ProductType: strings.TrimSpace(values.Get("product_type")),
		Sort:        strings.TrimSpace(values.Get("sort")),
		Search:      validators.CleanText(values.Get("q"), 200),
		Page:        page,
	}, nil
}

// AdminOrders returns one page of orders with the total matching count.
func AdminOrders(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		q, err := parseOrderQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.List(r.Context(), q)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCounted(w, page.Data, page.Count)
	}
}

// AdminFailedPayments lists orders whose payment failed or is still pending.
func AdminFailedPayments(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		q, err := parseOrderQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.ListFailedPayments(r.Context(), q)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCounted(w, page.Data, page.Count)
	}
}

func AdminRefundOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		actor, ok := requireActor(w, r, logg)
		if !ok {
			return
		}

		var body dto.OrderActionRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithOrderID(ctx, body.OrderID.String())
		}
		result, err := svc.Refund(ctx, actor, body.OrderID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func AdminResendOrderEmail(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		actor, ok := requireActor(w, r, logg)
		if !ok {
			return
		}

		var body dto.OrderActionRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithOrderID(ctx, body.OrderID.String())
		}
		result, err := svc.ResendEmail(ctx, actor, body.OrderID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
