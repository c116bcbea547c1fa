package listview

import (
	"context"
	"errors"

	"github.com/landlordheaven/heaven-backend/internal/console/feedback"
)

var (
	// ErrDeclined means the operator declined the confirmation prompt.
	ErrDeclined = errors.New("action not confirmed")
	// ErrInFlight means the same action is already running for the row.
	ErrInFlight = errors.New("action already in progress")
)

// Action is a row-level operation such as a refund.
type Action struct {
	Name string
	// Key identifies the row. The in-flight guard is per Name and Key.
	Key string
	// Confirm is the prompt shown before running. Empty means no confirmation.
	Confirm string
	// Do performs the call and returns the success text.
	Do func(ctx context.Context) (string, error)
	// FailureText is shown when Do fails without a server message.
	FailureText string
}

// Run executes a row action. A declined confirmation makes no call. Success
// triggers a full refetch; the refetch result does not change the outcome.
func (c *Controller[T]) Run(ctx context.Context, confirm feedback.Confirmer, action Action) (feedback.Message, error) {
	if action.Confirm != "" {
		if confirm == nil || !confirm.Confirm(ctx, action.Confirm) {
			return feedback.Message{}, ErrDeclined
		}
	}

	guard := action.Name + ":" + action.Key
	c.mu.Lock()
	if c.inFlight[guard] {
		c.mu.Unlock()
		return feedback.Message{}, ErrInFlight
	}
	c.inFlight[guard] = true
	c.mu.Unlock()

	text, err := action.Do(ctx)

	c.mu.Lock()
	delete(c.inFlight, guard)
	var msg feedback.Message
	if err != nil {
		msg = feedback.FromError(err, action.FailureText)
	} else {
		msg = feedback.Success(text)
	}
	c.message = msg
	c.mu.Unlock()

	if err != nil {
		if c.logg != nil {
			c.logg.Error(c.logg.WithField(ctx, "action", action.Name), "row action failed", err)
		}
		return msg, err
	}
	if refreshErr := c.load(ctx); refreshErr != nil && c.logg != nil && !errors.Is(refreshErr, ErrSuperseded) {
		c.logg.Warn(ctx, "refetch after action failed")
	}
	// the refetch may have replaced the message with a load error
	c.mu.Lock()
	if !c.message.IsError() {
		c.message = msg
	}
	c.mu.Unlock()
	return msg, nil
}

// Running reports whether the named action is in flight for key.
func (c *Controller[T]) Running(name, key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight[name+":"+key]
}
