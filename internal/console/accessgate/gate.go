// Package accessgate decides whether the viewer may open an admin page
// before any protected data is requested.
package accessgate

import (
	"context"

	"github.com/landlordheaven/heaven-backend/internal/console/feedback"
	pkgerrors "github.com/landlordheaven/heaven-backend/pkg/errors"
	"github.com/landlordheaven/heaven-backend/pkg/logger"
)

const (
	LoginPath     = "/login"
	DashboardPath = "/dashboard"
)

type Decision int

const (
	Allowed Decision = iota
	RedirectLogin
	RedirectDashboard
	Failed
)

func (d Decision) String() string {
	switch d {
	case Allowed:
		return "allowed"
	case RedirectLogin:
		return "redirect_login"
	case RedirectDashboard:
		return "redirect_dashboard"
	default:
		return "error"
	}
}

// Checker is the access-check endpoint.
type Checker interface {
	CheckAccess(ctx context.Context) error
}

// Result is the outcome of one resolution.
type Result struct {
	Decision Decision
	// Redirect is set for the two redirect decisions.
	Redirect string
	Message  feedback.Message
	Err      error
}

type Gate struct {
	checker Checker
	logg    *logger.Logger
}

func New(checker Checker, logg *logger.Logger) *Gate {
	return &Gate{checker: checker, logg: logg}
}

// Resolve calls the access check once. Nothing is cached between calls.
func (g *Gate) Resolve(ctx context.Context) Result {
	err := g.checker.CheckAccess(ctx)
	if err == nil {
		return Result{Decision: Allowed}
	}
	switch {
	case pkgerrors.Is(err, pkgerrors.CodeUnauthorized):
		return Result{Decision: RedirectLogin, Redirect: LoginPath, Err: err}
	case pkgerrors.Is(err, pkgerrors.CodeForbidden):
		return Result{Decision: RedirectDashboard, Redirect: DashboardPath, Err: err}
	}
	if g.logg != nil {
		g.logg.Error(ctx, "access check failed", err)
	}
	return Result{
		Decision: Failed,
		Message:  feedback.FromError(err, "could not verify access"),
		Err:      err,
	}
}

// Guard resolves access and runs load only after an allowed decision.
func (g *Gate) Guard(ctx context.Context, load func(ctx context.Context) error) (Result, error) {
	res := g.Resolve(ctx)
	if res.Decision != Allowed {
		return res, res.Err
	}
	return res, load(ctx)
}
