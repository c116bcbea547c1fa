package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/landlordheaven/heaven-backend/internal/console/eventpanel"
	"github.com/landlordheaven/heaven-backend/pkg/enums"
)

func eventCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "event",
		Aliases: []string{"events"},
		Short:   "Triage legal change events",
	}
	cmd.AddCommand(
		eventListCommand(a),
		eventShowCommand(a),
		eventActCommand(a),
		eventPushPRCommand(a),
	)
	return cmd
}

func eventListCommand(a *app) *cobra.Command {
	var state, cursor string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List legal change events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.requireAdmin(cmd.Context()); err != nil {
				return err
			}
			list, err := a.client.ListLegalChangeEvents(cmd.Context(), enums.LegalChangeState(state), cursor)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tSTATE\tSEVERITY\tTITLE")
			for _, e := range list.Events {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.ID, e.State, e.ImpactAssessment.Severity, e.Title)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			if list.NextCursor != "" {
				fmt.Fprintf(a.out, "\nmore: --cursor %s\n", list.NextCursor)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&state, "state", "", "filter by state")
	cmd.Flags().StringVar(&cursor, "cursor", "", "continue from a previous page")
	return cmd
}

func (a *app) eventPanel(cmd *cobra.Command, raw string, full bool) (*eventpanel.Panel, error) {
	if err := a.requireAdmin(cmd.Context()); err != nil {
		return nil, err
	}
	id, err := parseID(raw, "event id")
	if err != nil {
		return nil, err
	}
	panel := eventpanel.New(a.client, id, a.confirmer(), a.logg).WithFullAuditLog(full)
	if err := panel.Load(cmd.Context()); err != nil && panel.Event() == nil {
		return nil, err
	}
	return panel, nil
}

func eventShowCommand(a *app) *cobra.Command {
	var full bool
	cmd := &cobra.Command{
		Use:   "show <event-id>",
		Short: "Show an event, its history and the actions available",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			panel, err := a.eventPanel(cmd, args[0], full)
			if err != nil {
				return err
			}
			printPanel(a.out, panel)
			return nil
		},
	}
	cmd.Flags().BoolVar(&full, "full", false, "show the full audit log")
	return cmd
}

func printPanel(w io.Writer, panel *eventpanel.Panel) {
	e := panel.Event()
	fmt.Fprintf(w, "%s\n  state: %s\n", e.Title, e.State)
	if e.Summary != "" {
		fmt.Fprintf(w, "  %s\n", e.Summary)
	}
	ia := e.ImpactAssessment
	if ia.Severity != "" {
		fmt.Fprintf(w, "  severity: %s\n", ia.Severity)
	}
	if len(e.LinkedPRURLs) > 0 {
		fmt.Fprintf(w, "  pull requests: %s\n", strings.Join(e.LinkedPRURLs, ", "))
	}

	fmt.Fprintf(w, "\nHistory (%d of %d)\n", len(e.StateHistory), e.HistoryTotal)
	for _, h := range e.StateHistory {
		line := fmt.Sprintf("  %s  %s -> %s  %s by %s", h.CreatedAt.UTC().Format("02/01/2006 15:04"), h.FromState, h.ToState, h.Action, h.Actor)
		if h.Reason != nil && *h.Reason != "" {
			line += "  (" + *h.Reason + ")"
		}
		fmt.Fprintln(w, line)
	}

	fmt.Fprintln(w, "\nActions")
	for _, b := range panel.Buttons() {
		suffix := ""
		if b.NeedsReason {
			suffix = " (reason required)"
		}
		if b.Disabled {
			suffix += " [disabled]"
		}
		fmt.Fprintf(w, "  %s: %s%s\n", b.Action, b.Label, suffix)
	}

	push := panel.PushPRButton()
	state := "available"
	if push.Disabled {
		state = "disabled"
	}
	fmt.Fprintf(w, "\nPush PR: %s\n", state)
	for _, r := range push.Reasons {
		fmt.Fprintf(w, "  - %s\n", r)
	}
}

func eventActCommand(a *app) *cobra.Command {
	var reason string
	cmd := &cobra.Command{
		Use:   "act <event-id> <action>",
		Short: "Apply an allowed action to an event",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			panel, err := a.eventPanel(cmd, args[0], false)
			if err != nil {
				return err
			}
			msg, err := panel.Submit(cmd.Context(), enums.LegalChangeAction(strings.TrimSpace(args[1])), reason)
			a.report(msg)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "state: %s\n", panel.Event().State)
			return nil
		},
	}
	cmd.Flags().StringVar(&reason, "reason", "", "reason (required for close, dismiss and reopen)")
	return cmd
}

func eventPushPRCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "push-pr <event-id>",
		Short: "Open a pull request for an eligible event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			panel, err := a.eventPanel(cmd, args[0], false)
			if err != nil {
				return err
			}
			if b := panel.PushPRButton(); b.Disabled {
				for _, r := range b.Reasons {
					fmt.Fprintf(a.errOut, "  - %s\n", r)
				}
				return eventpanel.ErrNotAllowed
			}
			msg, err := panel.Submit(cmd.Context(), enums.LegalChangeActionPushPR, "")
			a.report(msg)
			return err
		},
	}
}
