package legalchange

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/landlordheaven/heaven-backend/pkg/auth"
	"github.com/landlordheaven/heaven-backend/pkg/db/dbtest"
	"github.com/landlordheaven/heaven-backend/pkg/db/models"
	"github.com/landlordheaven/heaven-backend/pkg/dto"
	"github.com/landlordheaven/heaven-backend/pkg/enums"
	pkgerrors "github.com/landlordheaven/heaven-backend/pkg/errors"
	"github.com/landlordheaven/heaven-backend/pkg/redis"
)

type stubLocker struct{ held bool }

func (l *stubLocker) Acquire(ctx context.Context, scope, id string, ttl time.Duration) (func(context.Context) error, error) {
	if l.held {
		return nil, redis.ErrLockHeld
	}
	return func(context.Context) error { return nil }, nil
}

type stubPRCreator struct {
	requests []PullRequest
	url      string
	err      error
}

func (s *stubPRCreator) CreatePullRequest(ctx context.Context, pr PullRequest) (string, error) {
	s.requests = append(s.requests, pr)
	if _, ok := ctx.Deadline(); !ok {
		return "", errors.New("expected a deadline")
	}
	return s.url, s.err
}

var operator = auth.Actor{UserID: uuid.New(), Email: "ops@landlordheaven.co.uk", Admin: true}

func eligibleAssessment() models.ImpactAssessment {
	return models.ImpactAssessment{
		Severity:          enums.SeverityHigh,
		Rationale:         "Section 21 notices can no longer be served after commencement",
		ImpactedRuleIDs:   []string{"s21_eligibility"},
		ImpactedRouteIDs:  []string{"section_21"},
		RequiredReviewers: []string{"legal@landlordheaven.co.uk"},
	}
}

func newLegalService(t *testing.T, prs PRCreator, locker *stubLocker) (Service, Repository) {
	t.Helper()
	client := dbtest.New(t)
	repo := NewRepository(client.DB())
	svc, err := NewService(ServiceParams{Repo: repo, Tx: client, Locker: locker, PRCreator: prs, PRTimeout: time.Second})
	require.NoError(t, err)
	return svc, repo
}

func createEvent(t *testing.T, repo Repository, state enums.LegalChangeState, assessment models.ImpactAssessment) *models.LegalChangeEvent {
	t.Helper()
	event := &models.LegalChangeEvent{
		Title:            "Renters' Rights Act: abolition of section 21",
		Summary:          "No-fault evictions end in England.",
		Jurisdictions:    []string{"england"},
		State:            state,
		ImpactAssessment: assessment,
	}
	require.NoError(t, repo.Create(context.Background(), event))
	return event
}

func TestAllowedActionsTable(t *testing.T) {
	assert.Equal(t, []enums.LegalChangeAction{enums.LegalChangeActionTriage, enums.LegalChangeActionDismiss}, AllowedActions(enums.LegalChangeStateNew))
	assert.Contains(t, AllowedActions(enums.LegalChangeStateActionRequired), enums.LegalChangeActionPushPR)
	assert.Empty(t, AllowedActions("archived"))

	to, ok := Next(enums.LegalChangeStateInProgress, enums.LegalChangeActionRevert)
	require.True(t, ok)
	assert.Equal(t, enums.LegalChangeStateActionRequired, to)
	_, ok = Next(enums.LegalChangeStateNew, enums.LegalChangeActionClose)
	assert.False(t, ok)
}

func TestApplyTransitionsAndRecordsHistory(t *testing.T) {
	svc, repo := newLegalService(t, nil, &stubLocker{})
	event := createEvent(t, repo, enums.LegalChangeStateNew, models.ImpactAssessment{})
	ctx := context.Background()

	detail, err := svc.Apply(ctx, operator, event.ID, dto.LegalChangeActionRequest{Action: enums.LegalChangeActionTriage})
	require.NoError(t, err)
	require.Equal(t, enums.LegalChangeStateTriaged, detail.State)
	require.Len(t, detail.StateHistory, 1)
	require.Equal(t, enums.LegalChangeStateNew, detail.StateHistory[0].FromState)
	require.Equal(t, "ops@landlordheaven.co.uk", detail.StateHistory[0].Actor)
	require.Equal(t, AllowedActions(enums.LegalChangeStateTriaged), detail.AllowedActions)

	_, err = svc.Apply(ctx, operator, event.ID, dto.LegalChangeActionRequest{Action: enums.LegalChangeActionTriage})
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeStateConflict))
}

func TestApplyRequiresReason(t *testing.T) {
	svc, repo := newLegalService(t, nil, &stubLocker{})
	event := createEvent(t, repo, enums.LegalChangeStateNew, models.ImpactAssessment{})

	_, err := svc.Apply(context.Background(), operator, event.ID, dto.LegalChangeActionRequest{Action: enums.LegalChangeActionDismiss, Reason: "  "})
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))

	detail, err := svc.Apply(context.Background(), operator, event.ID, dto.LegalChangeActionRequest{Action: enums.LegalChangeActionDismiss, Reason: "Duplicate of an earlier event"})
	require.NoError(t, err)
	require.Equal(t, enums.LegalChangeStateDismissed, detail.State)
	require.Equal(t, "Duplicate of an earlier event", *detail.StateHistory[0].Reason)

	_, err = svc.Apply(context.Background(), operator, event.ID, dto.LegalChangeActionRequest{Action: "archive"})
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
}

func TestGetLimitsHistoryUnlessFullAudit(t *testing.T) {
	svc, repo := newLegalService(t, nil, &stubLocker{})
	event := createEvent(t, repo, enums.LegalChangeStateNew, models.ImpactAssessment{})
	ctx := context.Background()

	base := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 12; i++ {
		require.NoError(t, repo.AppendTransition(ctx, &models.LegalChangeTransition{
			EventID:   event.ID,
			FromState: enums.LegalChangeStateNew,
			ToState:   enums.LegalChangeStateNew,
			Action:    enums.LegalChangeActionTriage,
			Actor:     "seed",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	detail, err := svc.Get(ctx, event.ID, false)
	require.NoError(t, err)
	require.Len(t, detail.StateHistory, RecentHistoryLimit)
	require.EqualValues(t, 12, detail.HistoryTotal)
	require.True(t, detail.StateHistory[0].CreatedAt.Before(detail.StateHistory[9].CreatedAt), "chronological order")
	require.True(t, detail.StateHistory[9].CreatedAt.Equal(base.Add(11*time.Minute)))

	full, err := svc.Get(ctx, event.ID, true)
	require.NoError(t, err)
	require.Len(t, full.StateHistory, 12)

	_, err = svc.Get(ctx, uuid.New(), false)
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))
}

func TestEligibilityReasons(t *testing.T) {
	event := &models.LegalChangeEvent{State: enums.LegalChangeStateTriaged}
	reasons := Eligibility(event)
	require.Len(t, reasons, 5)
	require.Equal(t, "Event must be in action_required state (currently triaged)", reasons[0])

	event.State = enums.LegalChangeStateActionRequired
	event.ImpactAssessment = eligibleAssessment()
	require.Empty(t, Eligibility(event))
}

func TestPushPROpensAndLinks(t *testing.T) {
	prs := &stubPRCreator{url: "https://github.com/landlordheaven/rules/pull/42"}
	svc, repo := newLegalService(t, prs, &stubLocker{})
	event := createEvent(t, repo, enums.LegalChangeStateActionRequired, eligibleAssessment())
	ctx := context.Background()

	status, err := svc.PushPRStatus(ctx, event.ID)
	require.NoError(t, err)
	require.True(t, status.Eligible)
	require.Empty(t, status.Reasons)

	result, err := svc.PushPR(ctx, operator, event.ID)
	require.NoError(t, err)
	require.Equal(t, prs.url, result.PRURL)
	require.True(t, strings.HasPrefix(result.Branch, "legal-change/renters-rights-act-abolition-of-section-21-"))
	require.Equal(t, []string{prs.url}, result.LinkedPRURLs)

	detail, err := svc.Get(ctx, event.ID, false)
	require.NoError(t, err)
	require.Equal(t, []string{prs.url}, []string(detail.LinkedPRURLs))
	require.Equal(t, enums.LegalChangeActionPushPR, detail.StateHistory[len(detail.StateHistory)-1].Action)
	require.Equal(t, enums.LegalChangeStateActionRequired, detail.State)
}

func TestPushPRRejections(t *testing.T) {
	ctx := context.Background()

	svc, repo := newLegalService(t, &stubPRCreator{url: "x"}, &stubLocker{})
	ineligible := createEvent(t, repo, enums.LegalChangeStateTriaged, eligibleAssessment())
	_, err := svc.PushPR(ctx, operator, ineligible.ID)
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeStateConflict))

	svc, repo = newLegalService(t, &stubPRCreator{url: "x"}, &stubLocker{held: true})
	event := createEvent(t, repo, enums.LegalChangeStateActionRequired, eligibleAssessment())
	_, err = svc.PushPR(ctx, operator, event.ID)
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeConflict))

	svc, repo = newLegalService(t, nil, &stubLocker{})
	event = createEvent(t, repo, enums.LegalChangeStateActionRequired, eligibleAssessment())
	status, err := svc.PushPRStatus(ctx, event.ID)
	require.NoError(t, err)
	require.False(t, status.Eligible)
	require.Equal(t, []string{"GitHub integration is not configured"}, status.Reasons)
	_, err = svc.PushPR(ctx, operator, event.ID)
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeDependency))

	svc, repo = newLegalService(t, &stubPRCreator{err: errors.New("502 bad gateway")}, &stubLocker{})
	event = createEvent(t, repo, enums.LegalChangeStateActionRequired, eligibleAssessment())
	_, err = svc.PushPR(ctx, operator, event.ID)
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeDependency))
}

func TestListPaginatesWithCursor(t *testing.T) {
	svc, repo := newLegalService(t, nil, &stubLocker{})
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		createEvent(t, repo, enums.LegalChangeStateNew, models.ImpactAssessment{})
	}
	createEvent(t, repo, enums.LegalChangeStateClosed, models.ImpactAssessment{})

	page, err := svc.List(ctx, "new", "", 2)
	require.NoError(t, err)
	require.Len(t, page.Events, 2)
	require.NotEmpty(t, page.NextCursor)

	next, err := svc.List(ctx, "new", page.NextCursor, 2)
	require.NoError(t, err)
	require.Len(t, next.Events, 1)
	require.Empty(t, next.NextCursor)

	_, err = svc.List(ctx, "archived", "", 0)
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
}
