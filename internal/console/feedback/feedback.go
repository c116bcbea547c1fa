// Package feedback is the uniform message model the console views use to
// report the outcome of fetches and actions.
package feedback

import (
	"context"
	"errors"

	pkgerrors "github.com/landlordheaven/heaven-backend/pkg/errors"
)

type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
	KindInfo    Kind = "info"
)

// Message is a transient outcome tied to the action that produced it.
type Message struct {
	Kind Kind   `json:"type"`
	Text string `json:"text"`
}

func Success(text string) Message { return Message{Kind: KindSuccess, Text: text} }

func Error(text string) Message { return Message{Kind: KindError, Text: text} }

func Info(text string) Message { return Message{Kind: KindInfo, Text: text} }

// IsZero reports whether no message is set.
func (m Message) IsZero() bool { return m.Kind == "" && m.Text == "" }

func (m Message) IsError() bool { return m.Kind == KindError }

// FromError converts err into an error message. Typed API errors keep the
// server's text verbatim; anything else falls back to fallback.
func FromError(err error, fallback string) Message {
	if err == nil {
		return Message{}
	}
	if typed := pkgerrors.As(err); typed != nil && typed.Message() != "" {
		return Error(typed.Message())
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return Error("the request timed out")
	}
	if fallback == "" {
		fallback = err.Error()
	}
	return Error(fallback)
}

// Confirmer asks the operator to approve a destructive action.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, prompt string) bool

func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) bool { return f(ctx, prompt) }

// Always approves every prompt. Used for non-interactive runs.
var Always Confirmer = ConfirmFunc(func(context.Context, string) bool { return true })

// Never declines every prompt.
var Never Confirmer = ConfirmFunc(func(context.Context, string) bool { return false })
