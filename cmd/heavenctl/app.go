package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/landlordheaven/heaven-backend/internal/console/accessgate"
	"github.com/landlordheaven/heaven-backend/internal/console/feedback"
	"github.com/landlordheaven/heaven-backend/internal/console/listview"
	"github.com/landlordheaven/heaven-backend/pkg/config"
	"github.com/landlordheaven/heaven-backend/pkg/gateway"
	"github.com/landlordheaven/heaven-backend/pkg/logger"
)

// app carries what every command needs once flags and config are parsed.
type app struct {
	token   string
	baseURL string
	yes     bool

	cfg    *config.ConsoleConfig
	client *gateway.Client
	logg   *logger.Logger
	search listview.SearchMode

	in     *bufio.Reader
	out    io.Writer
	errOut io.Writer
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.LoadConsole()
	if err != nil {
		return err
	}
	if a.baseURL != "" {
		cfg.BaseURL = a.baseURL
	}
	if a.token != "" {
		cfg.Token = a.token
	}
	a.cfg = cfg

	a.search, err = listview.ParseSearchMode(cfg.SearchMode)
	if err != nil {
		return err
	}

	a.logg = logger.New(logger.Options{
		ServiceName: "heavenctl",
		Level:       logger.ParseLevel(cfg.LogLevel),
		Format:      cfg.LogFormat,
		Output:      cmd.ErrOrStderr(),
	})

	a.client, err = gateway.NewClient(cfg.BaseURL,
		gateway.WithToken(cfg.Token),
		gateway.WithActionTimeout(cfg.ActionTimeout),
		gateway.WithRequestTimeout(cfg.RequestTimeout),
	)
	if err != nil {
		return err
	}

	a.in = bufio.NewReader(cmd.InOrStdin())
	a.out = cmd.OutOrStdout()
	a.errOut = cmd.ErrOrStderr()
	return nil
}

// confirmer prompts on stdin unless --yes was given.
func (a *app) confirmer() feedback.Confirmer {
	if a.yes {
		return feedback.Always
	}
	return feedback.ConfirmFunc(func(_ context.Context, prompt string) bool {
		fmt.Fprintf(a.out, "%s [y/N]: ", prompt)
		line, err := a.in.ReadString('\n')
		if err != nil && line == "" {
			return false
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true
		}
		return false
	})
}

// requireAdmin runs the access gate. Protected loads start only after it allows.
func (a *app) requireAdmin(ctx context.Context) error {
	res := accessgate.New(a.client, a.logg).Resolve(ctx)
	switch res.Decision {
	case accessgate.Allowed:
		return nil
	case accessgate.RedirectLogin:
		return fmt.Errorf("not signed in: set HEAVEN_CONSOLE_TOKEN or pass --token (redirect %s)", res.Redirect)
	case accessgate.RedirectDashboard:
		return fmt.Errorf("this account is not an admin (redirect %s)", res.Redirect)
	}
	return fmt.Errorf("access check failed: %s", res.Message.Text)
}

func (a *app) report(msg feedback.Message) {
	if msg.IsZero() {
		return
	}
	w := a.out
	if msg.IsError() {
		w = a.errOut
	}
	fmt.Fprintf(w, "[%s] %s\n", msg.Kind, msg.Text)
}

func parseID(raw, label string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s %q", label, raw)
	}
	return id, nil
}
