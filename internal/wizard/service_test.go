package wizard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/landlordheaven/heaven-backend/pkg/auth"
	"github.com/landlordheaven/heaven-backend/pkg/db/models"
	"github.com/landlordheaven/heaven-backend/pkg/dto"
	"github.com/landlordheaven/heaven-backend/pkg/enums"
	pkgerrors "github.com/landlordheaven/heaven-backend/pkg/errors"
	"github.com/landlordheaven/heaven-backend/pkg/redis"
	"github.com/landlordheaven/heaven-backend/pkg/types"
)

type stubCaseStore struct {
	c     *models.Case
	saved map[string]any
}

func (s *stubCaseStore) Get(ctx context.Context, actor auth.Actor, id uuid.UUID) (*models.Case, error) {
	if s.c == nil || s.c.ID != id || !actor.CanAccess(s.c.UserID) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "case not found")
	}
	return s.c, nil
}

func (s *stubCaseStore) SaveAnalysis(ctx context.Context, id uuid.UUID, analysis map[string]any) error {
	s.saved = analysis
	return nil
}

type stubDocuments struct{ docs []models.Document }

func (s stubDocuments) ListByCase(ctx context.Context, caseID uuid.UUID) ([]models.Document, error) {
	return s.docs, nil
}

type stubLocker struct {
	held     bool
	released bool
}

func (l *stubLocker) Acquire(ctx context.Context, scope, id string, ttl time.Duration) (func(context.Context) error, error) {
	if l.held {
		return nil, redis.ErrLockHeld
	}
	l.held = true
	return func(context.Context) error {
		l.held = false
		l.released = true
		return nil
	}, nil
}

type stubAnswerer struct {
	answer string
	err    error
}

func (a stubAnswerer) Answer(ctx context.Context, summary dto.CaseSummary, question string) (string, error) {
	return a.answer, a.err
}

func newCase() (*models.Case, auth.Actor) {
	owner := uuid.New()
	return &models.Case{
		ID:             uuid.New(),
		UserID:         owner,
		CaseType:       enums.CaseTypeEviction,
		Jurisdiction:   enums.JurisdictionEnglandWales,
		WizardProgress: 100,
		CollectedFacts: types.JSONMap{"arrears_amount": 3000.0, "grounds": []any{"8"}},
	}, auth.Actor{UserID: owner}
}

func TestAnalyzeSavesSummary(t *testing.T) {
	c, actor := newCase()
	store := &stubCaseStore{c: c}
	locker := &stubLocker{}
	svc, err := NewService(store, stubDocuments{}, locker, nil, nil)
	require.NoError(t, err)

	resp, err := svc.Analyze(context.Background(), actor, dto.AnalyzeRequest{CaseID: c.ID})
	require.NoError(t, err)
	require.Equal(t, RouteSection8, resp.CaseSummary.Route)
	require.Nil(t, resp.AskHeavenAnswer)
	require.Equal(t, "generate_preview", resp.NextStep)
	require.True(t, locker.released)
	require.NotNil(t, store.saved["case_summary"])
	require.NotEmpty(t, store.saved["analyzed_at"])
}

func TestAnalyzeRejectsConcurrentRun(t *testing.T) {
	c, actor := newCase()
	svc, err := NewService(&stubCaseStore{c: c}, stubDocuments{}, &stubLocker{held: true}, nil, nil)
	require.NoError(t, err)

	_, err = svc.Analyze(context.Background(), actor, dto.AnalyzeRequest{CaseID: c.ID})
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeConflict))
}

func TestAnalyzeHidesForeignCase(t *testing.T) {
	c, _ := newCase()
	svc, err := NewService(&stubCaseStore{c: c}, stubDocuments{}, &stubLocker{}, nil, nil)
	require.NoError(t, err)

	_, err = svc.Analyze(context.Background(), auth.Actor{UserID: uuid.New()}, dto.AnalyzeRequest{CaseID: c.ID})
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))
}

func TestAnalyzeAnswersQuestion(t *testing.T) {
	c, actor := newCase()
	question := "Can I serve a section 8 notice?"

	svc, err := NewService(&stubCaseStore{c: c}, stubDocuments{}, &stubLocker{}, stubAnswerer{answer: "Yes, ground 8 applies."}, nil)
	require.NoError(t, err)
	resp, err := svc.Analyze(context.Background(), actor, dto.AnalyzeRequest{CaseID: c.ID, Question: &question})
	require.NoError(t, err)
	require.Equal(t, "Yes, ground 8 applies.", *resp.AskHeavenAnswer)

	svc, err = NewService(&stubCaseStore{c: c}, stubDocuments{}, &stubLocker{}, nil, nil)
	require.NoError(t, err)
	resp, err = svc.Analyze(context.Background(), actor, dto.AnalyzeRequest{CaseID: c.ID, Question: &question})
	require.NoError(t, err)
	require.Equal(t, UnavailableAnswer, *resp.AskHeavenAnswer)

	svc, err = NewService(&stubCaseStore{c: c}, stubDocuments{}, &stubLocker{}, stubAnswerer{err: errors.New("quota")}, nil)
	require.NoError(t, err)
	resp, err = svc.Analyze(context.Background(), actor, dto.AnalyzeRequest{CaseID: c.ID, Question: &question})
	require.NoError(t, err)
	require.Equal(t, UnavailableAnswer, *resp.AskHeavenAnswer)
}

func TestNewGeminiAnswererWithoutKey(t *testing.T) {
	answerer, err := NewGeminiAnswerer(context.Background(), "", "gemini-2.5-flash")
	require.NoError(t, err)
	require.Nil(t, answerer)
}
