package accessgate

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	pkgerrors "github.com/landlordheaven/heaven-backend/pkg/errors"
)

type stubChecker struct {
	err   error
	calls int
}

func (s *stubChecker) CheckAccess(context.Context) error {
	s.calls++
	return s.err
}

func TestGuardOutcomes(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		decision Decision
		redirect string
	}{
		{"allowed", nil, Allowed, ""},
		{"unauthenticated", pkgerrors.New(pkgerrors.CodeUnauthorized, "missing token"), RedirectLogin, LoginPath},
		{"forbidden", pkgerrors.New(pkgerrors.CodeForbidden, "admin access required"), RedirectDashboard, DashboardPath},
		{"infra", pkgerrors.New(pkgerrors.CodeDependency, "Service Unavailable"), Failed, ""},
		{"transport", errors.New("dial tcp: refused"), Failed, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			checker := &stubChecker{err: tc.err}
			gate := New(checker, nil)
			loads := 0
			res, _ := gate.Guard(context.Background(), func(context.Context) error {
				loads++
				return nil
			})
			require.Equal(t, tc.decision, res.Decision)
			require.Equal(t, tc.redirect, res.Redirect)
			if tc.decision == Allowed {
				require.Equal(t, 1, loads)
			} else {
				require.Zero(t, loads)
			}
			if tc.decision == Failed {
				require.True(t, res.Message.IsError())
			}
		})
	}
}

func TestResolveIsNotCached(t *testing.T) {
	checker := &stubChecker{}
	gate := New(checker, nil)
	gate.Resolve(context.Background())
	checker.err = pkgerrors.New(pkgerrors.CodeForbidden, "admin access required")
	require.Equal(t, RedirectDashboard, gate.Resolve(context.Background()).Decision)
	require.Equal(t, 2, checker.calls)
}

func TestGuardSurfacesLoadError(t *testing.T) {
	gate := New(&stubChecker{}, nil)
	loadErr := errors.New("load failed")
	res, err := gate.Guard(context.Background(), func(context.Context) error { return loadErr })
	require.Equal(t, Allowed, res.Decision)
	require.ErrorIs(t, err, loadErr)
}
