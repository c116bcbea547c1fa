// Package eventpanel renders the actions of a legal change event exactly as
// the server allows them. It keeps no transition table of its own.
package eventpanel

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/landlordheaven/heaven-backend/internal/console/feedback"
	"github.com/landlordheaven/heaven-backend/pkg/dto"
	"github.com/landlordheaven/heaven-backend/pkg/enums"
	"github.com/landlordheaven/heaven-backend/pkg/logger"
)

var (
	ErrNotLoaded      = errors.New("event not loaded")
	ErrNotAllowed     = errors.New("action is not allowed for this event")
	ErrReasonRequired = errors.New("a reason is required for this action")
	ErrDeclined       = errors.New("action not confirmed")
	ErrInFlight       = errors.New("action already in progress")
)

var labels = map[enums.LegalChangeAction]string{
	enums.LegalChangeActionTriage:             "Triage",
	enums.LegalChangeActionMarkActionRequired: "Mark action required",
	enums.LegalChangeActionStartWork:          "Start work",
	enums.LegalChangeActionRevert:             "Revert",
	enums.LegalChangeActionClose:              "Close",
	enums.LegalChangeActionDismiss:            "Dismiss",
	enums.LegalChangeActionReopen:             "Reopen",
	enums.LegalChangeActionPushPR:             "Push PR",
}

// Label is the button text for an action. Unknown actions show their raw name.
func Label(action enums.LegalChangeAction) string {
	if l, ok := labels[action]; ok {
		return l
	}
	return string(action)
}

// Irreversible reports whether the action needs confirmation.
func Irreversible(action enums.LegalChangeAction) bool {
	switch action {
	case enums.LegalChangeActionClose, enums.LegalChangeActionDismiss, enums.LegalChangeActionPushPR:
		return true
	}
	return false
}

// API is the slice of the gateway the panel needs.
type API interface {
	GetLegalChangeEvent(ctx context.Context, id uuid.UUID, fullAuditLog bool) (*dto.LegalChangeEventDetail, error)
	PushPRStatus(ctx context.Context, id uuid.UUID) (*dto.PushPRStatus, error)
	PushPR(ctx context.Context, id uuid.UUID) (*dto.PushPRResult, error)
	ApplyLegalChangeAction(ctx context.Context, id uuid.UUID, action enums.LegalChangeAction, reason string) (*dto.LegalChangeEventDetail, error)
}

type Button struct {
	Action      enums.LegalChangeAction
	Label       string
	NeedsReason bool
	Confirm     bool
	Disabled    bool
	// Reasons are the server's eligibility reasons, shown verbatim.
	Reasons []string
	Loading bool
}

type Panel struct {
	api          API
	id           uuid.UUID
	confirm      feedback.Confirmer
	logg         *logger.Logger
	fullAuditLog bool

	mu       sync.Mutex
	event    *dto.LegalChangeEventDetail
	pushPR   *dto.PushPRStatus
	eventErr error
	pushErr  error
	loading  map[enums.LegalChangeAction]bool
	message  feedback.Message
}

func New(api API, id uuid.UUID, confirm feedback.Confirmer, logg *logger.Logger) *Panel {
	return &Panel{
		api:     api,
		id:      id,
		confirm: confirm,
		logg:    logg,
		loading: map[enums.LegalChangeAction]bool{},
	}
}

// WithFullAuditLog makes loads request the whole state history.
func (p *Panel) WithFullAuditLog(full bool) *Panel {
	p.fullAuditLog = full
	return p
}

// Load fetches the event and its push-PR eligibility concurrently.
func (p *Panel) Load(ctx context.Context) error {
	var (
		event    *dto.LegalChangeEventDetail
		status   *dto.PushPRStatus
		eventErr error
		pushErr  error
	)
	var wg sync.WaitGroup
	wg.Go(func() { event, eventErr = p.api.GetLegalChangeEvent(ctx, p.id, p.fullAuditLog) })
	wg.Go(func() { status, pushErr = p.api.PushPRStatus(ctx, p.id) })
	wg.Wait()

	p.mu.Lock()
	defer p.mu.Unlock()
	p.eventErr = eventErr
	p.pushErr = pushErr
	if eventErr == nil {
		p.event = event
	}
	if pushErr == nil {
		p.pushPR = status
	}
	err := multierr.Combine(eventErr, pushErr)
	if err != nil && p.logg != nil {
		p.logg.Error(p.logg.WithEventID(ctx, p.id.String()), "legal change event load failed", err)
	}
	return err
}

// Event returns the latest loaded event detail.
func (p *Panel) Event() *dto.LegalChangeEventDetail {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.event == nil {
		return nil
	}
	e := *p.event
	e.AllowedActions = append([]enums.LegalChangeAction(nil), p.event.AllowedActions...)
	e.StateHistory = append(e.StateHistory[:0:0], p.event.StateHistory...)
	return &e
}

func (p *Panel) EventErr() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.eventErr
}

func (p *Panel) Message() feedback.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.message
}

// Buttons returns one button per server-allowed action, in server order.
func (p *Panel) Buttons() []Button {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.buttonsLocked()
}

// PushPRButton is the primary action. It is always present and disabled
// with the server's reasons when the event is not eligible.
func (p *Panel) PushPRButton() Button {
	p.mu.Lock()
	defer p.mu.Unlock()
	allowed := false
	if p.event != nil {
		for _, a := range p.event.AllowedActions {
			if a == enums.LegalChangeActionPushPR {
				allowed = true
				break
			}
		}
	}
	return p.pushButtonLocked(allowed)
}

func (p *Panel) pushButtonLocked(allowed bool) Button {
	b := Button{
		Action:  enums.LegalChangeActionPushPR,
		Label:   Label(enums.LegalChangeActionPushPR),
		Confirm: true,
		Loading: p.loading[enums.LegalChangeActionPushPR],
	}
	switch {
	case p.pushPR == nil:
		b.Disabled = true
		b.Reasons = []string{"Eligibility could not be checked"}
	case !p.pushPR.Eligible:
		b.Disabled = true
		b.Reasons = append([]string(nil), p.pushPR.Reasons...)
	case !allowed:
		b.Disabled = true
	}
	if b.Loading {
		b.Disabled = true
	}
	return b
}

// Submit runs an action offered by the panel, then refetches the event
// whatever the outcome.
func (p *Panel) Submit(ctx context.Context, action enums.LegalChangeAction, reason string) (feedback.Message, error) {
	reason = strings.TrimSpace(reason)

	p.mu.Lock()
	if p.event == nil {
		p.mu.Unlock()
		return feedback.Message{}, ErrNotLoaded
	}
	var button *Button
	for _, b := range p.buttonsLocked() {
		if b.Action == action {
			button = &b
			break
		}
	}
	p.mu.Unlock()
	switch {
	case button == nil:
		return feedback.Message{}, ErrNotAllowed
	case button.Loading:
		return feedback.Message{}, ErrInFlight
	case button.Disabled:
		return feedback.Message{}, ErrNotAllowed
	}

	if button.NeedsReason && reason == "" {
		return feedback.Message{}, ErrReasonRequired
	}
	if button.Confirm {
		prompt := Label(action) + " this event?"
		if action == enums.LegalChangeActionPushPR {
			prompt = "Open a pull request for this event?"
		}
		if p.confirm == nil || !p.confirm.Confirm(ctx, prompt) {
			return feedback.Message{}, ErrDeclined
		}
	}

	p.mu.Lock()
	if p.loading[action] {
		p.mu.Unlock()
		return feedback.Message{}, ErrInFlight
	}
	p.loading[action] = true
	p.mu.Unlock()

	var (
		msg feedback.Message
		err error
	)
	if action == enums.LegalChangeActionPushPR {
		var res *dto.PushPRResult
		res, err = p.api.PushPR(ctx, p.id)
		if err == nil {
			msg = feedback.Success("Pull request opened: " + res.PRURL)
		}
	} else {
		_, err = p.api.ApplyLegalChangeAction(ctx, p.id, action, reason)
		if err == nil {
			msg = feedback.Success(Label(action) + " applied")
		}
	}
	if err != nil {
		msg = feedback.FromError(err, Label(action)+" failed")
	}

	p.mu.Lock()
	delete(p.loading, action)
	p.message = msg
	p.mu.Unlock()

	if loadErr := p.Load(ctx); loadErr != nil && p.logg != nil {
		p.logg.Warn(p.logg.WithEventID(ctx, p.id.String()), "refetch after action failed")
	}
	return msg, err
}

func (p *Panel) buttonsLocked() []Button {
	if p.event == nil {
		return nil
	}
	out := make([]Button, 0, len(p.event.AllowedActions))
	for _, action := range p.event.AllowedActions {
		if action == enums.LegalChangeActionPushPR {
			out = append(out, p.pushButtonLocked(true))
			continue
		}
		out = append(out, Button{
			Action:      action,
			Label:       Label(action),
			NeedsReason: action.RequiresReason(),
			Confirm:     Irreversible(action),
			Loading:     p.loading[action],
			Disabled:    p.loading[action],
		})
	}
	return out
}
