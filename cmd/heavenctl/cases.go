package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/landlordheaven/heaven-backend/internal/console/caseview"
	"github.com/landlordheaven/heaven-backend/pkg/dto"
	"github.com/landlordheaven/heaven-backend/pkg/enums"
	"github.com/landlordheaven/heaven-backend/pkg/money"
)

func caseCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "case",
		Short: "Inspect and manage landlord cases",
	}
	cmd.AddCommand(
		caseListCommand(a),
		caseCreateCommand(a),
		caseShowCommand(a),
		caseEditCommand(a),
		caseRegenerateCommand(a),
		caseDeleteCommand(a),
		caseAskCommand(a),
	)
	return cmd
}

func (a *app) caseView(raw string) (*caseview.View, error) {
	id, err := parseID(raw, "case id")
	if err != nil {
		return nil, err
	}
	return caseview.New(a.client, id, a.confirmer(), a.logg), nil
}

func caseListCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List your cases",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cases, err := a.client.ListCases(cmd.Context())
			if err != nil {
				return err
			}
			if len(cases) == 0 {
				fmt.Fprintln(a.out, "No cases yet.")
				return nil
			}
			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTYPE\tJURISDICTION\tSTATUS\tPROGRESS")
			for _, c := range cases {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d%%\n", c.ID, c.CaseType, c.Jurisdiction, c.Status, c.WizardProgress)
			}
			return tw.Flush()
		},
	}
}

func caseCreateCommand(a *app) *cobra.Command {
	var caseType, jurisdiction string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Start a new case",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.client.CreateCase(cmd.Context(), dto.CreateCaseRequest{
				CaseType:     enums.CaseType(caseType),
				Jurisdiction: enums.Jurisdiction(jurisdiction),
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, c.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&caseType, "type", string(enums.CaseTypeEviction), "eviction, money_claim or tenancy_agreement")
	cmd.Flags().StringVar(&jurisdiction, "jurisdiction", string(enums.JurisdictionEnglandWales), "england-wales, scotland or northern-ireland")
	return cmd
}

func caseShowCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <case-id>",
		Short: "Show a case with its facts and documents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			view, err := a.caseView(args[0])
			if err != nil {
				return err
			}
			loadErr := view.Load(cmd.Context())
			if view.NotFound() {
				return fmt.Errorf("case %s not found", view.ID())
			}
			printCase(a.out, view)
			a.report(view.Message())
			return loadErr
		},
	}
}

func printCase(w io.Writer, view *caseview.View) {
	if c := view.Case(); c != nil {
		fmt.Fprintf(w, "Case %s\n", c.ID)
		fmt.Fprintf(w, "  type: %s  jurisdiction: %s  status: %s  progress: %d%%\n",
			c.CaseType, c.Jurisdiction, c.Status, c.WizardProgress)
		fmt.Fprintf(w, "  next step: %s\n\n", view.Journey())

		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "FACT\tKIND\tVALUE")
		for _, f := range view.Facts() {
			value := f.Display()
			if f.Kind == caseview.KindLongText || f.Kind == caseview.KindStructured {
				value = strings.ReplaceAll(value, "\n", " ")
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\n", f.Key, f.Kind, value)
		}
		_ = tw.Flush()
	}

	if err := view.DocumentsErr(); err != nil {
		fmt.Fprintln(w, "\nDocuments unavailable.")
		return
	}
	docs := view.Documents()
	fmt.Fprintf(w, "\nDocuments (%d)\n", len(docs))
	for _, d := range docs {
		kind := "final"
		if d.IsPreview {
			kind = "preview"
		}
		fmt.Fprintf(w, "  %s  %s  %s  %s\n", d.ID, d.DocumentType, kind, d.Status)
	}
}

func caseEditCommand(a *app) *cobra.Command {
	var sets []string
	cmd := &cobra.Command{
		Use:   "edit <case-id> --set key=value ...",
		Short: "Edit collected facts and save them",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(sets) == 0 {
				return fmt.Errorf("nothing to change: pass --set key=value")
			}
			view, err := a.caseView(args[0])
			if err != nil {
				return err
			}
			if err := view.Load(cmd.Context()); err != nil && view.Case() == nil {
				return err
			}
			if err := view.BeginEdit(); err != nil {
				return err
			}
			for _, kv := range sets {
				key, value, ok := strings.Cut(kv, "=")
				if !ok || strings.TrimSpace(key) == "" {
					view.Cancel()
					return fmt.Errorf("invalid --set %q, want key=value", kv)
				}
				if err := view.SetFactInput(strings.TrimSpace(key), value); err != nil {
					view.Cancel()
					return err
				}
			}
			if !view.Dirty() {
				view.Cancel()
				fmt.Fprintln(a.out, "No changes.")
				return nil
			}
			err = view.Save(cmd.Context())
			a.report(view.Message())
			if err == nil && view.DocumentsErr() != nil {
				fmt.Fprintln(a.errOut, "Documents could not be refreshed.")
			}
			return err
		},
	}
	cmd.Flags().StringArrayVar(&sets, "set", nil, "fact to change as key=value (repeatable)")
	return cmd
}

func caseRegenerateCommand(a *app) *cobra.Command {
	var (
		docType string
		preview bool
	)
	cmd := &cobra.Command{
		Use:   "regenerate <case-id>",
		Short: "Regenerate a document from the saved case details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			view, err := a.caseView(args[0])
			if err != nil {
				return err
			}
			doc, err := view.Regenerate(cmd.Context(), docType, preview)
			a.report(view.Message())
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "document %s is %s\n", doc.ID, doc.Status)
			return nil
		},
	}
	cmd.Flags().StringVar(&docType, "type", "", "document type, e.g. section_8_notice")
	cmd.Flags().BoolVar(&preview, "preview", false, "generate a watermarked preview")
	_ = cmd.MarkFlagRequired("type")
	return cmd
}

func caseDeleteCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <case-id>",
		Short: "Delete a case permanently",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			view, err := a.caseView(args[0])
			if err != nil {
				return err
			}
			err = view.Delete(cmd.Context())
			a.report(view.Message())
			return err
		},
	}
}

func caseAskCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ask <case-id> <question>...",
		Short: "Ask Heaven a question about a case",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			view, err := a.caseView(args[0])
			if err != nil {
				return err
			}
			turn, err := view.Ask(cmd.Context(), strings.Join(args[1:], " "))
			if err != nil {
				a.report(view.Message())
				return err
			}
			if s := view.Summary(); s != nil {
				fmt.Fprintf(a.out, "Route: %s (%s)\n", s.Route, s.Jurisdiction)
				if len(s.Grounds) > 0 {
					fmt.Fprintf(a.out, "Grounds: %s\n", strings.Join(s.Grounds, ", "))
				}
				fmt.Fprintf(a.out, "Arrears: %s  Rent: %s  Claim: %s  Total: %s\n",
					money.Format(s.Totals.ArrearsPence), money.Format(s.Totals.RentPence),
					money.Format(s.Totals.ClaimPence), money.Format(s.Totals.TotalPence))
			}
			fmt.Fprintf(a.out, "\n%s\n", turn.Content)
			return nil
		},
	}
}
