package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/landlordheaven/heaven-backend/internal/console/listview"
	"github.com/landlordheaven/heaven-backend/internal/console/orders"
	"github.com/landlordheaven/heaven-backend/pkg/db/models"
	"github.com/landlordheaven/heaven-backend/pkg/money"
)

type orderFlags struct {
	status  string
	product string
	sort    string
	search  string
	page    int
	failed  bool
	// lookup forces server-side search for id lookups
	lookup bool
}

func (f *orderFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.status, "status", "all", "order status filter")
	cmd.Flags().StringVar(&f.product, "product", "all", "product type filter")
	cmd.Flags().StringVar(&f.sort, "sort", "newest", "newest, oldest, amount_desc or amount_asc")
	cmd.Flags().StringVar(&f.search, "search", "", "search term")
	cmd.Flags().IntVar(&f.page, "page", 1, "page number")
}

func ordersCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "List, export, refund and resend orders",
	}
	cmd.AddCommand(
		ordersListCommand(a, false),
		ordersListCommand(a, true),
		ordersExportCommand(a),
		ordersRefundCommand(a),
		ordersResendCommand(a),
	)
	return cmd
}

func (a *app) orderView(failed, lookup bool) *orders.View {
	opts := orders.Options{PageSize: a.cfg.PageSize, Search: a.search, Logger: a.logg}
	if lookup {
		opts.Search = listview.SearchServer
	}
	if failed {
		return orders.NewFailedView(a.client, opts)
	}
	return orders.NewView(a.client, opts)
}

// loadOrders passes the access gate and then loads one page.
func (a *app) loadOrders(ctx context.Context, f orderFlags) (*orders.View, error) {
	if err := a.requireAdmin(ctx); err != nil {
		return nil, err
	}
	view := a.orderView(f.failed, f.lookup)
	view.Configure(map[string]string{
		orders.FilterStatus:      f.status,
		orders.FilterProductType: f.product,
	}, f.sort, f.page, f.search)
	if err := view.Refresh(ctx); err != nil {
		a.report(view.Snapshot().Message)
		return nil, err
	}
	return view, nil
}

func ordersListCommand(a *app, failed bool) *cobra.Command {
	f := orderFlags{failed: failed}
	use, short := "list", "List orders"
	if failed {
		use, short = "failed", "List orders whose payment failed or is pending"
	}
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			view, err := a.loadOrders(cmd.Context(), f)
			if err != nil {
				return err
			}
			snap := view.Snapshot()
			if len(snap.Rows) == 0 {
				fmt.Fprintln(a.out, "No orders found.")
			} else {
				printOrders(a.out, snap.Rows)
			}
			sum := orders.Summarize(snap.Rows)
			fmt.Fprintf(a.out, "\nPage %d of %d, %d orders in total\n", snap.Query.Page, snap.PageCount, snap.Count)
			fmt.Fprintf(a.out, "This page: %d succeeded, %d failed, %d refunded, revenue %s\n",
				sum.Succeeded, sum.Failed, sum.Refunded, money.Format(sum.RevenuePence))
			return nil
		},
	}
	f.bind(cmd)
	return cmd
}

func ordersExportCommand(a *app) *cobra.Command {
	var (
		f   orderFlags
		out string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the loaded page of orders as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			view, err := a.loadOrders(cmd.Context(), f)
			if err != nil {
				return err
			}
			var w io.Writer = a.out
			if out != "" && out != "-" {
				file, err := os.Create(out)
				if err != nil {
					return err
				}
				defer func() { _ = file.Close() }()
				w = file
			}
			return orders.WriteCSV(w, view.Rows())
		},
	}
	f.bind(cmd)
	cmd.Flags().BoolVar(&f.failed, "failed", false, "export the failed payments list")
	cmd.Flags().StringVarP(&out, "output", "o", "-", "output file, - for stdout")
	return cmd
}

// findOrder looks the order up through the list search so the prompt can
// show its amount.
func (a *app) findOrder(ctx context.Context, raw string) (*orders.View, models.Order, error) {
	id, err := parseID(raw, "order id")
	if err != nil {
		return nil, models.Order{}, err
	}
	view, err := a.loadOrders(ctx, orderFlags{status: "all", product: "all", search: id.String(), page: 1, lookup: true})
	if err != nil {
		return nil, models.Order{}, err
	}
	for _, o := range view.Rows() {
		if o.ID == id {
			return view, o, nil
		}
	}
	return nil, models.Order{}, fmt.Errorf("order %s not found", id)
}

func ordersRefundCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "refund <order-id>",
		Short: "Refund an order through Stripe",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			view, o, err := a.findOrder(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			msg, err := view.Refund(cmd.Context(), a.confirmer(), o)
			a.report(msg)
			return err
		},
	}
}

func ordersResendCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "resend <order-id>",
		Short: "Resend the purchase confirmation email",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			view, o, err := a.findOrder(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			msg, err := view.ResendEmail(cmd.Context(), o)
			a.report(msg)
			return err
		},
	}
}

func printOrders(w io.Writer, rows []models.Order) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tEMAIL\tPRODUCT\tAMOUNT\tSTATUS\tPAYMENT")
	for _, o := range rows {
		email := ""
		if o.User != nil {
			email = o.User.Email
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			o.ID, o.CreatedAt.UTC().Format("02/01/2006"), email, o.ProductType.Label(),
			money.Format(o.Amount), o.Status, o.PaymentStatus)
	}
	_ = tw.Flush()
}
