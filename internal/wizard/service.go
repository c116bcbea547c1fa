package wizard

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/landlordheaven/heaven-backend/pkg/auth"
	"github.com/landlordheaven/heaven-backend/pkg/db/models"
	"github.com/landlordheaven/heaven-backend/pkg/dto"
	pkgerrors "github.com/landlordheaven/heaven-backend/pkg/errors"
	"github.com/landlordheaven/heaven-backend/pkg/logger"
	"github.com/landlordheaven/heaven-backend/pkg/redis"
)

const (
	lockScope = "analyze"
	lockTTL   = 90 * time.Second
)

// CaseStore reads cases for an actor and persists analysis results.
type CaseStore interface {
	Get(ctx context.Context, actor auth.Actor, id uuid.UUID) (*models.Case, error)
	SaveAnalysis(ctx context.Context, id uuid.UUID, analysis map[string]any) error
}

// DocumentLister counts documents already attached to a case.
type DocumentLister interface {
	ListByCase(ctx context.Context, caseID uuid.UUID) ([]models.Document, error)
}

// Service runs the wizard analysis for a case.
type Service interface {
	Analyze(ctx context.Context, actor auth.Actor, req dto.AnalyzeRequest) (*dto.AnalyzeResponse, error)
}

type service struct {
	cases     CaseStore
	documents DocumentLister
	locker    redis.Locker
	answerer  Answerer
	logg      *logger.Logger
}

// NewService wires analysis dependencies. answerer may be nil.
func NewService(cases CaseStore, documents DocumentLister, locker redis.Locker, answerer Answerer, logg *logger.Logger) (Service, error) {
	if cases == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "case store required")
	}
	if documents == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "document lister required")
	}
	if locker == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "locker required")
	}
	return &service{cases: cases, documents: documents, locker: locker, answerer: answerer, logg: logg}, nil
}

func (s *service) Analyze(ctx context.Context, actor auth.Actor, req dto.AnalyzeRequest) (*dto.AnalyzeResponse, error) {
	if req.CaseID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "case_id is required")
	}
	c, err := s.cases.Get(ctx, actor, req.CaseID)
	if err != nil {
		return nil, err
	}

	release, err := s.locker.Acquire(ctx, lockScope, c.ID.String(), lockTTL)
	if err != nil {
		if errors.Is(err, redis.ErrLockHeld) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "an analysis is already running for this case")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquire analysis lock")
	}
	defer func() {
		if relErr := release(context.WithoutCancel(ctx)); relErr != nil && s.logg != nil {
			s.logg.Error(s.logg.WithCaseID(ctx, c.ID.String()), "release analysis lock failed", relErr)
		}
	}()

	summary := Summarize(c)
	resp := &dto.AnalyzeResponse{CaseSummary: summary}

	if req.Question != nil && strings.TrimSpace(*req.Question) != "" {
		answer := s.answer(ctx, summary, strings.TrimSpace(*req.Question))
		resp.AskHeavenAnswer = &answer
	}

	docs, err := s.documents.ListByCase(ctx, c.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list case documents")
	}
	resp.NextStep = NextStep(c, len(docs))

	analysis, err := toMap(resp)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode analysis")
	}
	analysis["analyzed_at"] = time.Now().UTC().Format(time.RFC3339)
	if err := s.cases.SaveAnalysis(ctx, c.ID, analysis); err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *service) answer(ctx context.Context, summary dto.CaseSummary, question string) string {
	if s.answerer == nil {
		return UnavailableAnswer
	}
	answer, err := s.answerer.Answer(ctx, summary, question)
	if err != nil || answer == "" {
		if s.logg != nil {
			s.logg.Error(s.logg.WithCaseID(ctx, summary.CaseID.String()), "ask heaven answer failed", err)
		}
		return UnavailableAnswer
	}
	return answer
}

func toMap(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	out := map[string]any{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
