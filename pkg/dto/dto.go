// Package dto holds the JSON request and response bodies shared by the HTTP
// API and the console gateway client.
package dto

import (
	"github.com/google/uuid"

	"github.com/landlordheaven/heaven-backend/pkg/db/models"
	"github.com/landlordheaven/heaven-backend/pkg/enums"
	"github.com/landlordheaven/heaven-backend/pkg/types"
)

type AccessResponse struct {
	Authorized bool `json:"authorized"`
}

type CasesResponse struct {
	Cases []models.Case `json:"cases"`
}

type CaseResponse struct {
	Case models.Case `json:"case"`
}

type CreateCaseRequest struct {
	CaseType     enums.CaseType     `json:"case_type" validate:"required,known"`
	Jurisdiction enums.Jurisdiction `json:"jurisdiction" validate:"required,known"`
}

// UpdateCaseRequest replaces collected facts wholesale. Progress and status
// are optional and may only move forward.
type UpdateCaseRequest struct {
	CollectedFacts types.JSONMap     `json:"collected_facts" validate:"required"`
	WizardProgress *int              `json:"wizard_progress,omitempty" validate:"omitempty,min=0,max=100"`
	Status         *enums.CaseStatus `json:"status,omitempty" validate:"omitempty,known"`
}

type DocumentsResponse struct {
	Documents []models.Document `json:"documents"`
}

type DocumentResponse struct {
	Document models.Document `json:"document"`
}

type GenerateDocumentRequest struct {
	CaseID       uuid.UUID `json:"case_id" validate:"required"`
	DocumentType string    `json:"document_type" validate:"required,max=64"`
	IsPreview    bool      `json:"is_preview"`
}

type AnalyzeRequest struct {
	CaseID   uuid.UUID `json:"case_id" validate:"required"`
	Question *string   `json:"question,omitempty" validate:"omitempty,max=2000"`
}

// MonetaryTotals are pence amounts derived from collected facts.
type MonetaryTotals struct {
	ArrearsPence int64 `json:"arrears_pence"`
	RentPence    int64 `json:"rent_pence"`
	ClaimPence   int64 `json:"claim_pence"`
	TotalPence   int64 `json:"total_pence"`
}

type CaseSummary struct {
	CaseID       uuid.UUID          `json:"case_id"`
	CaseType     enums.CaseType     `json:"case_type"`
	Jurisdiction enums.Jurisdiction `json:"jurisdiction"`
	Route        string             `json:"route"`
	Grounds      []string           `json:"grounds"`
	Totals       MonetaryTotals     `json:"totals"`
}

type AnalyzeResponse struct {
	CaseSummary     CaseSummary `json:"case_summary"`
	AskHeavenAnswer *string     `json:"ask_heaven_answer"`
	NextStep        string      `json:"next_step,omitempty"`
}

// OrdersPage is the paginated admin order list. Orders carry their user when joined.
type OrdersPage struct {
	Data  []models.Order `json:"data"`
	Count int64          `json:"count"`
}

type OrderActionRequest struct {
	OrderID uuid.UUID `json:"orderId" validate:"required"`
}

type OrderActionResult struct {
	Message string        `json:"message"`
	Order   *models.Order `json:"order,omitempty"`
}

type AdminStats struct {
	OrdersByStatus  map[string]int64 `json:"orders_by_status"`
	RevenuePence    int64            `json:"revenue_pence"`
	RefundedPence   int64            `json:"refunded_pence"`
	CasesByStatus   map[string]int64 `json:"cases_by_status"`
	DocumentCount   int64            `json:"document_count"`
	OpenLegalEvents int64            `json:"open_legal_events"`
}

// LegalChangeEventDetail is an event with its history and the actions the
// server allows from its current state.
type LegalChangeEventDetail struct {
	models.LegalChangeEvent
	StateHistory   []models.LegalChangeTransition `json:"stateHistory"`
	HistoryTotal   int64                          `json:"historyTotal"`
	AllowedActions []enums.LegalChangeAction      `json:"allowedActions"`
}

type LegalChangeEventList struct {
	Events     []models.LegalChangeEvent `json:"events"`
	NextCursor string                    `json:"nextCursor,omitempty"`
}

type LegalChangeActionRequest struct {
	Action enums.LegalChangeAction `json:"action" validate:"required,known"`
	Reason string                  `json:"reason" validate:"max=1000"`
}

type PushPRStatus struct {
	Eligible     bool     `json:"eligible"`
	Reasons      []string `json:"reasons"`
	LinkedPRURLs []string `json:"linkedPrUrls"`
}

type PushPRResult struct {
	PRURL        string   `json:"prUrl"`
	Branch       string   `json:"branch"`
	LinkedPRURLs []string `json:"linkedPrUrls"`
}
