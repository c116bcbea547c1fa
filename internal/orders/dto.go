package orders

import (
	"strings"

	"github.com/landlordheaven/heaven-backend/pkg/enums"
	pkgerrors "github.com/landlordheaven/heaven-backend/pkg/errors"
	"github.com/landlordheaven/heaven-backend/pkg/pagination"
)

// Sort keys accepted by the admin order list.
const (
	SortNewest     = "newest"
	SortOldest     = "oldest"
	SortAmountDesc = "amount_desc"
	SortAmountAsc  = "amount_asc"
)

// FilterAll disables a filter.
const FilterAll = "all"

var sortColumns = map[string]string{
	SortNewest:     "o.created_at DESC",
	SortOldest:     "o.created_at ASC",
	SortAmountDesc: "o.amount DESC",
	SortAmountAsc:  "o.amount ASC",
}

// ListQuery carries admin list filters. Search runs before pagination.
type ListQuery struct {
	Status      string
	ProductType string
	Sort        string
	Search      string
	Page        pagination.PageParams
}

// Normalize fills defaults and rejects unknown filter values.
func (q ListQuery) Normalize() (ListQuery, error) {
	q.Status = strings.TrimSpace(strings.ToLower(q.Status))
	q.ProductType = strings.TrimSpace(strings.ToLower(q.ProductType))
	q.Sort = strings.TrimSpace(strings.ToLower(q.Sort))
	q.Search = strings.TrimSpace(q.Search)
	q.Page = q.Page.Normalize()

	if q.Status == FilterAll {
		q.Status = ""
	}
	if q.ProductType == FilterAll {
		q.ProductType = ""
	}
	if q.Sort == "" {
		q.Sort = SortNewest
	}
	if q.Status != "" {
		if _, err := enums.ParseOrderStatus(q.Status); err != nil {
			return q, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter")
		}
	}
	if q.ProductType != "" {
		if _, err := enums.ParseProductType(q.ProductType); err != nil {
			return q, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product_type filter")
		}
	}
	if _, ok := sortColumns[q.Sort]; !ok {
		return q, pkgerrors.New(pkgerrors.CodeValidation, "invalid sort").WithDetails(map[string]any{"sort": q.Sort})
	}
	return q, nil
}
