package gateway

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/uuid"

	"github.com/landlordheaven/heaven-backend/pkg/db/models"
	"github.com/landlordheaven/heaven-backend/pkg/dto"
	"github.com/landlordheaven/heaven-backend/pkg/enums"
	pkgerrors "github.com/landlordheaven/heaven-backend/pkg/errors"
	"github.com/landlordheaven/heaven-backend/pkg/types"
)

// CheckAccess returns nil when the caller may use admin pages.
func (c *Client) CheckAccess(ctx context.Context) error {
	var out dto.AccessResponse
	if err := c.do(ctx, request{method: http.MethodGet, path: "/api/admin/check-access"}, &out); err != nil {
		return err
	}
	if !out.Authorized {
		return pkgerrors.New(pkgerrors.CodeForbidden, "access denied")
	}
	return nil
}

func (c *Client) ListCases(ctx context.Context) ([]models.Case, error) {
	var out dto.CasesResponse
	if err := c.do(ctx, request{method: http.MethodGet, path: "/api/cases"}, &out); err != nil {
		return nil, err
	}
	return out.Cases, nil
}

func (c *Client) GetCase(ctx context.Context, id uuid.UUID) (*models.Case, error) {
	var out dto.CaseResponse
	if err := c.do(ctx, request{method: http.MethodGet, path: "/api/cases/" + id.String()}, &out); err != nil {
		return nil, err
	}
	return &out.Case, nil
}

func (c *Client) CreateCase(ctx context.Context, req dto.CreateCaseRequest) (*models.Case, error) {
	var out dto.CaseResponse
	if err := c.do(ctx, request{method: http.MethodPost, path: "/api/cases", body: req}, &out); err != nil {
		return nil, err
	}
	return &out.Case, nil
}

// UpdateCaseFacts replaces the case's collected facts wholesale.
func (c *Client) UpdateCaseFacts(ctx context.Context, id uuid.UUID, facts types.JSONMap) (*models.Case, error) {
	var out dto.CaseResponse
	body := dto.UpdateCaseRequest{CollectedFacts: facts}
	if err := c.do(ctx, request{method: http.MethodPut, path: "/api/cases/" + id.String(), body: body}, &out); err != nil {
		return nil, err
	}
	return &out.Case, nil
}

func (c *Client) DeleteCase(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, request{method: http.MethodDelete, path: "/api/cases/" + id.String()}, nil)
}

func (c *Client) ListDocuments(ctx context.Context, caseID uuid.UUID) ([]models.Document, error) {
	var out dto.DocumentsResponse
	query := url.Values{"case_id": []string{caseID.String()}}
	if err := c.do(ctx, request{method: http.MethodGet, path: "/api/documents", query: query}, &out); err != nil {
		return nil, err
	}
	return out.Documents, nil
}

func (c *Client) GenerateDocument(ctx context.Context, req dto.GenerateDocumentRequest) (*models.Document, error) {
	var out dto.DocumentResponse
	if err := c.do(ctx, request{method: http.MethodPost, path: "/api/documents/generate", body: req, action: true}, &out); err != nil {
		return nil, err
	}
	return &out.Document, nil
}

func (c *Client) Analyze(ctx context.Context, req dto.AnalyzeRequest) (*dto.AnalyzeResponse, error) {
	var out dto.AnalyzeResponse
	if err := c.do(ctx, request{method: http.MethodPost, path: "/api/wizard/analyze", body: req, action: true}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// OrderQuery is the filter, sort and page state sent to the order list endpoints.
type OrderQuery struct {
	Status      string
	ProductType string
	SortBy      string
	Search      string
	Page        int
	PageSize    int
}

func (q OrderQuery) values() url.Values {
	values := url.Values{}
	if q.Status != "" {
		values.Set("status", q.Status)
	}
	if q.ProductType != "" {
		values.Set("product_type", q.ProductType)
	}
	if q.SortBy != "" {
		values.Set("sort", q.SortBy)
	}
	if q.Search != "" {
		values.Set("q", q.Search)
	}
	if q.Page > 0 {
		values.Set("page", strconv.Itoa(q.Page))
	}
	if q.PageSize > 0 {
		values.Set("page_size", strconv.Itoa(q.PageSize))
	}
	return values
}

func (c *Client) ListOrders(ctx context.Context, q OrderQuery) (*dto.OrdersPage, error) {
	var out dto.OrdersPage
	if err := c.do(ctx, request{method: http.MethodGet, path: "/api/admin/orders", query: q.values()}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListFailedPayments(ctx context.Context, q OrderQuery) (*dto.OrdersPage, error) {
	var out dto.OrdersPage
	if err := c.do(ctx, request{method: http.MethodGet, path: "/api/admin/orders/failed", query: q.values()}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RefundOrder asks the API to refund the order through Stripe.
func (c *Client) RefundOrder(ctx context.Context, orderID uuid.UUID) (*dto.OrderActionResult, error) {
	var out dataEnvelope[dto.OrderActionResult]
	req := request{
		method:  http.MethodPost,
		path:    "/api/admin/orders/refund",
		body:    dto.OrderActionRequest{OrderID: orderID},
		headers: newIdempotencyKey(),
		action:  true,
	}
	if err := c.do(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

func (c *Client) ResendOrderEmail(ctx context.Context, orderID uuid.UUID) (*dto.OrderActionResult, error) {
	var out dataEnvelope[dto.OrderActionResult]
	req := request{method: http.MethodPost, path: "/api/admin/orders/resend-email", body: dto.OrderActionRequest{OrderID: orderID}, action: true}
	if err := c.do(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

func (c *Client) AdminStats(ctx context.Context) (*dto.AdminStats, error) {
	var out dataEnvelope[dto.AdminStats]
	if err := c.do(ctx, request{method: http.MethodGet, path: "/api/admin/stats"}, &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

func (c *Client) ListLegalChangeEvents(ctx context.Context, state enums.LegalChangeState, cursor string) (*dto.LegalChangeEventList, error) {
	query := url.Values{}
	if state != "" {
		query.Set("state", string(state))
	}
	if cursor != "" {
		query.Set("cursor", cursor)
	}
	var out resultEnvelope[dto.LegalChangeEventList]
	if err := c.do(ctx, request{method: http.MethodGet, path: "/api/admin/legal-change/events", query: query}, &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

// GetLegalChangeEvent loads an event. fullAuditLog returns every history entry instead of the latest ten.
func (c *Client) GetLegalChangeEvent(ctx context.Context, id uuid.UUID, fullAuditLog bool) (*dto.LegalChangeEventDetail, error) {
	query := url.Values{}
	if fullAuditLog {
		query.Set("include", "fullAuditLog")
	}
	var out resultEnvelope[dto.LegalChangeEventDetail]
	if err := c.do(ctx, request{method: http.MethodGet, path: legalChangePath(id), query: query}, &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

func (c *Client) PushPRStatus(ctx context.Context, id uuid.UUID) (*dto.PushPRStatus, error) {
	var out resultEnvelope[dto.PushPRStatus]
	if err := c.do(ctx, request{method: http.MethodGet, path: legalChangePath(id) + "/push-pr"}, &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

// PushPR opens a pull request for the event. Bounded by the action timeout.
func (c *Client) PushPR(ctx context.Context, id uuid.UUID) (*dto.PushPRResult, error) {
	var out resultEnvelope[dto.PushPRResult]
	if err := c.do(ctx, request{method: http.MethodPost, path: legalChangePath(id) + "/push-pr", action: true}, &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

func (c *Client) ApplyLegalChangeAction(ctx context.Context, id uuid.UUID, action enums.LegalChangeAction, reason string) (*dto.LegalChangeEventDetail, error) {
	var out resultEnvelope[dto.LegalChangeEventDetail]
	body := dto.LegalChangeActionRequest{Action: action, Reason: reason}
	if err := c.do(ctx, request{method: http.MethodPost, path: legalChangePath(id) + "/actions", body: body}, &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

func legalChangePath(id uuid.UUID) string {
	return "/api/admin/legal-change/events/" + id.String()
}
