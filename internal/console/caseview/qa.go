package caseview

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/landlordheaven/heaven-backend/internal/console/feedback"
	"github.com/landlordheaven/heaven-backend/pkg/dto"
)

var (
	ErrQuestionInFlight = errors.New("a question is already being answered")
	ErrEmptyQuestion    = errors.New("question is empty")
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one transcript entry. The transcript lives in memory only.
// A failed question is answered by an assistant turn with Failed set and the
// error text as content, so turns stay paired.
type Turn struct {
	Role    Role
	Content string
	At      time.Time
	Failed  bool
}

// Ask sends a question to Ask Heaven. Only one question may be in flight;
// the user turn is recorded before the call so order matches submission.
func (v *View) Ask(ctx context.Context, question string) (Turn, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return Turn{}, ErrEmptyQuestion
	}

	v.mu.Lock()
	if v.deleted {
		v.mu.Unlock()
		return Turn{}, ErrDeleted
	}
	if v.asking {
		v.mu.Unlock()
		return Turn{}, ErrQuestionInFlight
	}
	v.asking = true
	v.transcript = append(v.transcript, Turn{Role: RoleUser, Content: question, At: v.now()})
	v.mu.Unlock()

	resp, err := v.api.Analyze(ctx, dto.AnalyzeRequest{CaseID: v.id, Question: &question})

	v.mu.Lock()
	defer v.mu.Unlock()
	v.asking = false
	if err != nil {
		v.message = feedback.FromError(err, "Ask Heaven is unavailable right now")
		v.transcript = append(v.transcript, Turn{Role: RoleAssistant, Content: v.message.Text, At: v.now(), Failed: true})
		return Turn{}, err
	}
	summary := resp.CaseSummary
	v.summary = &summary
	answer := ""
	if resp.AskHeavenAnswer != nil {
		answer = *resp.AskHeavenAnswer
	}
	turn := Turn{Role: RoleAssistant, Content: answer, At: v.now()}
	v.transcript = append(v.transcript, turn)
	return turn, nil
}

// Asking reports whether a question is in flight.
func (v *View) Asking() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.asking
}

func (v *View) Transcript() []Turn {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]Turn(nil), v.transcript...)
}

// Summary is the latest case-summary projection, nil before the first answer.
func (v *View) Summary() *dto.CaseSummary {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.summary == nil {
		return nil
	}
	s := *v.summary
	s.Grounds = append([]string(nil), v.summary.Grounds...)
	return &s
}
