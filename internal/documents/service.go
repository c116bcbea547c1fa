package documents

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/landlordheaven/heaven-backend/pkg/auth"
	"github.com/landlordheaven/heaven-backend/pkg/db/models"
	"github.com/landlordheaven/heaven-backend/pkg/dto"
	"github.com/landlordheaven/heaven-backend/pkg/enums"
	pkgerrors "github.com/landlordheaven/heaven-backend/pkg/errors"
	"github.com/landlordheaven/heaven-backend/pkg/logger"
	"github.com/landlordheaven/heaven-backend/pkg/metrics"
)

// CaseReader resolves a case the actor may see.
type CaseReader interface {
	Get(ctx context.Context, actor auth.Actor, id uuid.UUID) (*models.Case, error)
}

// Service lists and requests generation of case documents.
type Service interface {
	List(ctx context.Context, actor auth.Actor, caseID uuid.UUID) ([]models.Document, error)
	Generate(ctx context.Context, actor auth.Actor, req dto.GenerateDocumentRequest) (*models.Document, error)
}

type service struct {
	repo      Repository
	cases     CaseReader
	publisher Publisher
	metrics   *metrics.ActionMetrics
	logg      *logger.Logger
	now       func() time.Time
}

// NewService wires document dependencies.
func NewService(repo Repository, cases CaseReader, publisher Publisher, actionMetrics *metrics.ActionMetrics, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "documents repository required")
	}
	if cases == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "case reader required")
	}
	if publisher == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "document publisher required")
	}
	return &service{
		repo:      repo,
		cases:     cases,
		publisher: publisher,
		metrics:   actionMetrics,
		logg:      logg,
		now:       func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) List(ctx context.Context, actor auth.Actor, caseID uuid.UUID) ([]models.Document, error) {
	if caseID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "case_id is required")
	}
	if _, err := s.cases.Get(ctx, actor, caseID); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListByCase(ctx, caseID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list documents")
	}
	if rows == nil {
		rows = []models.Document{}
	}
	return rows, nil
}

// Generate records a pending document and publishes the generation request.
// Every call creates a new row; earlier documents are kept.
func (s *service) Generate(ctx context.Context, actor auth.Actor, req dto.GenerateDocumentRequest) (doc *models.Document, err error) {
	started := time.Now()
	defer func() { s.metrics.Observe(metrics.ActionDocumentGenerate, started, err) }()

	docType := strings.TrimSpace(req.DocumentType)
	if docType == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "document_type is required")
	}
	c, err := s.cases.Get(ctx, actor, req.CaseID)
	if err != nil {
		return nil, err
	}

	doc = &models.Document{
		CaseID:       c.ID,
		UserID:       c.UserID,
		Title:        Title(docType, req.IsPreview),
		DocumentType: docType,
		IsPreview:    req.IsPreview,
		Status:       enums.DocumentStatusPending,
	}
	if err := s.repo.Create(ctx, doc); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create document")
	}

	payload, err := json.Marshal(GenerationRequest{
		DocumentID:   doc.ID,
		CaseID:       c.ID,
		UserID:       c.UserID,
		DocumentType: docType,
		IsPreview:    req.IsPreview,
		RequestedAt:  s.now(),
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode generation request")
	}
	attrs := map[string]string{
		"event_type":  EventTypeGenerateRequested,
		"document_id": doc.ID.String(),
		"case_id":     c.ID.String(),
	}
	if _, err := s.publisher.Publish(ctx, s.publisher.DocumentsTopic(), payload, attrs); err != nil {
		if updateErr := s.repo.UpdateStatus(ctx, doc.ID, enums.DocumentStatusFailed); updateErr != nil && s.logg != nil {
			s.logg.Error(s.logg.WithCaseID(ctx, c.ID.String()), "documents.mark_failed", updateErr)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "publish generation request")
	}
	return doc, nil
}

var documentTitles = map[string]string{
	"section8_notice":      "Section 8 Notice (Form 3)",
	"section21_notice":     "Section 21 Notice (Form 6A)",
	"notice_to_leave":      "Notice to Leave",
	"notice_to_quit":       "Notice to Quit",
	"money_claim":          "Money Claim (N1)",
	"letter_before_action": "Letter Before Action",
	"tenancy_agreement":    "Tenancy Agreement",
	"witness_statement":    "Witness Statement",
	"possession_claim":     "Possession Claim (N5)",
	"arrears_schedule":     "Rent Arrears Schedule",
}

// Title returns the display title for a document type.
func Title(docType string, preview bool) string {
	title, ok := documentTitles[docType]
	if !ok {
		words := strings.Fields(strings.ReplaceAll(docType, "_", " "))
		for i, w := range words {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
		title = strings.Join(words, " ")
	}
	if preview {
		return title + " (Preview)"
	}
	return title
}
