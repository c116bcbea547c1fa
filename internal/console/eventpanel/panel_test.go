package eventpanel

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/landlordheaven/heaven-backend/internal/console/feedback"
	"github.com/landlordheaven/heaven-backend/pkg/db/models"
	"github.com/landlordheaven/heaven-backend/pkg/dto"
	"github.com/landlordheaven/heaven-backend/pkg/enums"
	pkgerrors "github.com/landlordheaven/heaven-backend/pkg/errors"
)

type stubAPI struct {
	mu       sync.Mutex
	allowed  []enums.LegalChangeAction
	status   dto.PushPRStatus
	gets     int
	applied  []enums.LegalChangeAction
	reasons  []string
	pushes   int
	applyErr error
	pushErr  error
	block    chan struct{}
}

func (s *stubAPI) GetLegalChangeEvent(_ context.Context, id uuid.UUID, _ bool) (*dto.LegalChangeEventDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gets++
	return &dto.LegalChangeEventDetail{
		LegalChangeEvent: models.LegalChangeEvent{ID: id, Title: "Section 21 abolished"},
		AllowedActions:   append([]enums.LegalChangeAction(nil), s.allowed...),
	}, nil
}

func (s *stubAPI) PushPRStatus(context.Context, uuid.UUID) (*dto.PushPRStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pushErr != nil {
		return nil, s.pushErr
	}
	st := s.status
	return &st, nil
}

func (s *stubAPI) PushPR(context.Context, uuid.UUID) (*dto.PushPRResult, error) {
	s.mu.Lock()
	s.pushes++
	s.mu.Unlock()
	return &dto.PushPRResult{PRURL: "https://github.com/landlordheaven/rules/pull/7"}, nil
}

func (s *stubAPI) ApplyLegalChangeAction(_ context.Context, _ uuid.UUID, action enums.LegalChangeAction, reason string) (*dto.LegalChangeEventDetail, error) {
	if s.block != nil {
		<-s.block
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.applyErr != nil {
		return nil, s.applyErr
	}
	s.applied = append(s.applied, action)
	s.reasons = append(s.reasons, reason)
	return &dto.LegalChangeEventDetail{}, nil
}

func actionsOf(buttons []Button) []enums.LegalChangeAction {
	out := make([]enums.LegalChangeAction, 0, len(buttons))
	for _, b := range buttons {
		out = append(out, b.Action)
	}
	return out
}

func TestButtonsMirrorAllowedActions(t *testing.T) {
	cases := map[string][]enums.LegalChangeAction{
		"new":             {enums.LegalChangeActionTriage, enums.LegalChangeActionDismiss},
		"triaged":         {enums.LegalChangeActionMarkActionRequired, enums.LegalChangeActionRevert, enums.LegalChangeActionDismiss},
		"action_required": {enums.LegalChangeActionStartWork, enums.LegalChangeActionPushPR, enums.LegalChangeActionRevert, enums.LegalChangeActionClose},
		"closed":          {enums.LegalChangeActionReopen},
		"unknown":         {"escalate"},
		"empty":           {},
	}
	for name, allowed := range cases {
		t.Run(name, func(t *testing.T) {
			api := &stubAPI{allowed: allowed, status: dto.PushPRStatus{Eligible: true}}
			p := New(api, uuid.New(), feedback.Always, nil)
			require.NoError(t, p.Load(context.Background()))
			require.Equal(t, allowed, actionsOf(p.Buttons()))
		})
	}
}

func TestLoadKeepsEventWhenEligibilityFails(t *testing.T) {
	api := &stubAPI{
		allowed: []enums.LegalChangeAction{enums.LegalChangeActionTriage},
		pushErr: pkgerrors.New(pkgerrors.CodeDependency, "eligibility unavailable"),
	}
	p := New(api, uuid.New(), feedback.Always, nil)

	err := p.Load(context.Background())
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeDependency))
	require.NoError(t, p.EventErr())
	require.Equal(t, "Section 21 abolished", p.Event().Title)
	require.Equal(t, []enums.LegalChangeAction{enums.LegalChangeActionTriage}, actionsOf(p.Buttons()))

	push := p.PushPRButton()
	require.True(t, push.Disabled)
	require.Equal(t, []string{"Eligibility could not be checked"}, push.Reasons)
}

func TestPushPRButtonShowsReasonsWhenIneligible(t *testing.T) {
	reasons := []string{"Event must be in action_required state", "At least one required reviewer is needed"}
	api := &stubAPI{
		allowed: []enums.LegalChangeAction{enums.LegalChangeActionTriage},
		status:  dto.PushPRStatus{Eligible: false, Reasons: reasons},
	}
	p := New(api, uuid.New(), feedback.Always, nil)
	require.NoError(t, p.Load(context.Background()))

	b := p.PushPRButton()
	require.True(t, b.Disabled)
	require.Equal(t, reasons, b.Reasons)

	_, err := p.Submit(context.Background(), enums.LegalChangeActionPushPR, "")
	require.ErrorIs(t, err, ErrNotAllowed)
	require.Zero(t, api.pushes)
}

func TestPushPRRequiresConfirmationAndRefetches(t *testing.T) {
	api := &stubAPI{
		allowed: []enums.LegalChangeAction{enums.LegalChangeActionPushPR},
		status:  dto.PushPRStatus{Eligible: true},
	}
	declined := New(api, uuid.New(), feedback.Never, nil)
	require.NoError(t, declined.Load(context.Background()))
	_, err := declined.Submit(context.Background(), enums.LegalChangeActionPushPR, "")
	require.ErrorIs(t, err, ErrDeclined)
	require.Zero(t, api.pushes)

	p := New(api, uuid.New(), feedback.Always, nil)
	require.NoError(t, p.Load(context.Background()))
	require.False(t, p.PushPRButton().Disabled)
	gets := api.gets
	msg, err := p.Submit(context.Background(), enums.LegalChangeActionPushPR, "")
	require.NoError(t, err)
	require.Equal(t, feedback.Success("Pull request opened: https://github.com/landlordheaven/rules/pull/7"), msg)
	require.Equal(t, 1, api.pushes)
	require.Equal(t, gets+1, api.gets)
}

func TestActionNotOfferedIsRejected(t *testing.T) {
	api := &stubAPI{allowed: []enums.LegalChangeAction{enums.LegalChangeActionTriage}}
	p := New(api, uuid.New(), feedback.Always, nil)
	require.NoError(t, p.Load(context.Background()))
	_, err := p.Submit(context.Background(), enums.LegalChangeActionClose, "done")
	require.ErrorIs(t, err, ErrNotAllowed)
	require.Empty(t, api.applied)
}

func TestReasonRequired(t *testing.T) {
	api := &stubAPI{allowed: []enums.LegalChangeAction{enums.LegalChangeActionDismiss}}
	p := New(api, uuid.New(), feedback.Always, nil)
	require.NoError(t, p.Load(context.Background()))

	_, err := p.Submit(context.Background(), enums.LegalChangeActionDismiss, "  ")
	require.ErrorIs(t, err, ErrReasonRequired)

	_, err = p.Submit(context.Background(), enums.LegalChangeActionDismiss, "not relevant to England")
	require.NoError(t, err)
	require.Equal(t, []string{"not relevant to England"}, api.reasons)
}

func TestServerRejectionIsVerbatimAndRefetched(t *testing.T) {
	api := &stubAPI{
		allowed:  []enums.LegalChangeAction{enums.LegalChangeActionTriage},
		applyErr: pkgerrors.New(pkgerrors.CodeStateConflict, "action triage is not allowed from state triaged"),
	}
	p := New(api, uuid.New(), feedback.Always, nil)
	require.NoError(t, p.Load(context.Background()))
	gets := api.gets

	msg, err := p.Submit(context.Background(), enums.LegalChangeActionTriage, "")
	require.Error(t, err)
	require.Equal(t, feedback.Error("action triage is not allowed from state triaged"), msg)
	require.Equal(t, gets+1, api.gets)
}

func TestLoadingGateIsPerAction(t *testing.T) {
	api := &stubAPI{
		allowed: []enums.LegalChangeAction{enums.LegalChangeActionStartWork, enums.LegalChangeActionPushPR},
		status:  dto.PushPRStatus{Eligible: true},
		block:   make(chan struct{}),
	}
	p := New(api, uuid.New(), feedback.Always, nil)
	require.NoError(t, p.Load(context.Background()))

	done := make(chan error, 1)
	go func() {
		_, err := p.Submit(context.Background(), enums.LegalChangeActionStartWork, "")
		done <- err
	}()
	require.Eventually(t, func() bool {
		for _, b := range p.Buttons() {
			if b.Action == enums.LegalChangeActionStartWork {
				return b.Loading
			}
		}
		return false
	}, time.Second, 5*time.Millisecond)

	_, err := p.Submit(context.Background(), enums.LegalChangeActionStartWork, "")
	require.ErrorIs(t, err, ErrInFlight)

	// an unrelated action is not blocked
	_, err = p.Submit(context.Background(), enums.LegalChangeActionPushPR, "")
	require.NoError(t, err)

	close(api.block)
	require.NoError(t, <-done)
}
