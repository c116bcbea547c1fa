package legalchange

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/landlordheaven/heaven-backend/pkg/auth"
	"github.com/landlordheaven/heaven-backend/pkg/db/models"
	"github.com/landlordheaven/heaven-backend/pkg/dto"
	"github.com/landlordheaven/heaven-backend/pkg/enums"
	pkgerrors "github.com/landlordheaven/heaven-backend/pkg/errors"
	"github.com/landlordheaven/heaven-backend/pkg/logger"
	"github.com/landlordheaven/heaven-backend/pkg/metrics"
	"github.com/landlordheaven/heaven-backend/pkg/pagination"
	"github.com/landlordheaven/heaven-backend/pkg/redis"
	"github.com/landlordheaven/heaven-backend/pkg/types"
)

// RecentHistoryLimit is the number of history entries returned without the full audit log.
const RecentHistoryLimit = 10

const pushPRLockTTL = 2 * time.Minute

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service runs the admin legal-change workflow.
type Service interface {
	List(ctx context.Context, state string, cursor string, limit int) (*dto.LegalChangeEventList, error)
	Get(ctx context.Context, id uuid.UUID, fullAuditLog bool) (*dto.LegalChangeEventDetail, error)
	Apply(ctx context.Context, actor auth.Actor, id uuid.UUID, req dto.LegalChangeActionRequest) (*dto.LegalChangeEventDetail, error)
	PushPRStatus(ctx context.Context, id uuid.UUID) (*dto.PushPRStatus, error)
	PushPR(ctx context.Context, actor auth.Actor, id uuid.UUID) (*dto.PushPRResult, error)
}

type ServiceParams struct {
	Repo      Repository
	Tx        txRunner
	Locker    redis.Locker
	PRCreator PRCreator
	PRTimeout time.Duration
	Metrics   *metrics.ActionMetrics
	Logger    *logger.Logger
}

type service struct {
	repo      Repository
	tx        txRunner
	locker    redis.Locker
	prs       PRCreator
	prTimeout time.Duration
	metrics   *metrics.ActionMetrics
	logg      *logger.Logger
}

// NewService wires the workflow. PRCreator may be nil when GitHub is not configured.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "legal change repository required")
	}
	if params.Tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	if params.Locker == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "locker required")
	}
	timeout := params.PRTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &service{
		repo:      params.Repo,
		tx:        params.Tx,
		locker:    params.Locker,
		prs:       params.PRCreator,
		prTimeout: timeout,
		metrics:   params.Metrics,
		logg:      params.Logger,
	}, nil
}

func (s *service) List(ctx context.Context, state string, cursor string, limit int) (*dto.LegalChangeEventList, error) {
	var filter enums.LegalChangeState
	if state = strings.TrimSpace(state); state != "" && state != "all" {
		parsed, err := enums.ParseLegalChangeState(state)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid state filter")
		}
		filter = parsed
	}
	parsedCursor, err := pagination.ParseCursor(cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	pageSize := pagination.NormalizeLimit(limit)
	rows, err := s.repo.List(ctx, filter, parsedCursor, pageSize+1)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list legal change events")
	}
	out := &dto.LegalChangeEventList{Events: rows}
	if len(rows) > pageSize {
		out.Events = rows[:pageSize]
		last := out.Events[pageSize-1]
		out.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID, fullAuditLog bool) (*dto.LegalChangeEventDetail, error) {
	event, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	limit := RecentHistoryLimit
	if fullAuditLog {
		limit = 0
	}
	history, total, err := s.repo.History(ctx, id, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load state history")
	}
	return &dto.LegalChangeEventDetail{
		LegalChangeEvent: *event,
		StateHistory:     history,
		HistoryTotal:     total,
		AllowedActions:   AllowedActions(event.State),
	}, nil
}

func (s *service) Apply(ctx context.Context, actor auth.Actor, id uuid.UUID, req dto.LegalChangeActionRequest) (detail *dto.LegalChangeEventDetail, err error) {
	action, err := enums.ParseLegalChangeAction(string(req.Action))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown action")
	}
	reason := strings.TrimSpace(req.Reason)
	if action.RequiresReason() && reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("a reason is required to %s an event", action))
	}
	if action == enums.LegalChangeActionPushPR {
		if _, err := s.PushPR(ctx, actor, id); err != nil {
			return nil, err
		}
		return s.Get(ctx, id, false)
	}

	started := time.Now()
	defer func() { s.metrics.Observe(metrics.ActionLegalChange, started, err) }()

	event, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	to, ok := Next(event.State, action)
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("cannot %s an event in state %s", action, event.State)).
			WithDetails(map[string]any{"allowedActions": AllowedActions(event.State)})
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		moved, err := repo.UpdateState(ctx, id, event.State, to)
		if err != nil {
			return err
		}
		if !moved {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "event changed state; reload and try again")
		}
		return repo.AppendTransition(ctx, newTransition(id, event.State, to, action, actor, reason))
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "apply legal change action")
	}

	if s.logg != nil {
		logCtx := s.logg.WithFields(s.logg.WithEventID(ctx, id.String()), map[string]any{
			"action": action,
			"from":   event.State,
			"to":     to,
			"actor":  actor.Label(),
		})
		s.logg.Info(logCtx, "legal change event transitioned")
	}
	return s.Get(ctx, id, false)
}

func (s *service) PushPRStatus(ctx context.Context, id uuid.UUID) (*dto.PushPRStatus, error) {
	event, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	reasons := Eligibility(event)
	if len(reasons) == 0 && s.prs == nil {
		reasons = append(reasons, "GitHub integration is not configured")
	}
	return &dto.PushPRStatus{
		Eligible:     len(reasons) == 0,
		Reasons:      reasons,
		LinkedPRURLs: nonNil(event.LinkedPRURLs),
	}, nil
}

func (s *service) PushPR(ctx context.Context, actor auth.Actor, id uuid.UUID) (result *dto.PushPRResult, err error) {
	started := time.Now()
	defer func() { s.metrics.Observe(metrics.ActionPushPR, started, err) }()

	release, err := s.locker.Acquire(ctx, "push_pr", id.String(), pushPRLockTTL)
	if err != nil {
		if errors.Is(err, redis.ErrLockHeld) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "a pull request is already being created for this event")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquire push-pr lock")
	}
	defer func() {
		if relErr := release(context.WithoutCancel(ctx)); relErr != nil && s.logg != nil {
			s.logg.Error(s.logg.WithEventID(ctx, id.String()), "release push-pr lock failed", relErr)
		}
	}()

	event, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if reasons := Eligibility(event); len(reasons) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, strings.Join(reasons, "; ")).
			WithDetails(map[string]any{"reasons": reasons})
	}
	if s.prs == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "GitHub integration is not configured")
	}

	pr := BuildPullRequest(event)
	prCtx, cancel := context.WithTimeout(ctx, s.prTimeout)
	defer cancel()
	url, err := s.prs.CreatePullRequest(prCtx, pr)
	if err != nil {
		if s.logg != nil {
			s.logg.Error(s.logg.WithEventID(ctx, id.String()), "open pull request failed", err)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "open pull request")
	}

	linked := append(types.StringList{}, event.LinkedPRURLs...)
	if !linked.Contains(url) {
		linked = append(linked, url)
	}
	reason := url
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.SetLinkedPRs(ctx, id, linked); err != nil {
			return err
		}
		return repo.AppendTransition(ctx, newTransition(id, event.State, event.State, enums.LegalChangeActionPushPR, actor, reason))
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record pull request")
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithFields(s.logg.WithEventID(ctx, id.String()), map[string]any{"pr_url": url, "branch": pr.Branch}), "pull request opened")
	}
	return &dto.PushPRResult{PRURL: url, Branch: pr.Branch, LinkedPRURLs: linked}, nil
}

// Eligibility lists why an event cannot be pushed as a pull request. Empty means eligible.
func Eligibility(event *models.LegalChangeEvent) []string {
	reasons := []string{}
	if event.State != enums.LegalChangeStateActionRequired {
		reasons = append(reasons, fmt.Sprintf("Event must be in action_required state (currently %s)", event.State))
	}
	a := event.ImpactAssessment
	if a.Severity == "" {
		reasons = append(reasons, "Impact assessment needs a severity")
	}
	if strings.TrimSpace(a.Rationale) == "" {
		reasons = append(reasons, "Impact assessment needs a rationale")
	}
	if len(a.RequiredReviewers) == 0 {
		reasons = append(reasons, "At least one required reviewer must be assigned")
	}
	if a.ImpactedIDCount() == 0 {
		reasons = append(reasons, "At least one impacted rule, product or route id is required")
	}
	return reasons
}

func newTransition(eventID uuid.UUID, from, to enums.LegalChangeState, action enums.LegalChangeAction, actor auth.Actor, reason string) *models.LegalChangeTransition {
	t := &models.LegalChangeTransition{
		EventID:   eventID,
		FromState: from,
		ToState:   to,
		Action:    action,
		Actor:     actor.Label(),
	}
	if reason != "" {
		t.Reason = &reason
	}
	return t
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.LegalChangeEvent, error) {
	event, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "legal change event not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load legal change event")
	}
	return event, nil
}

func nonNil(list types.StringList) []string {
	if list == nil {
		return []string{}
	}
	return list
}
