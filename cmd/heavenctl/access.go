package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/landlordheaven/heaven-backend/internal/console/accessgate"
)

func accessCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "access",
		Short: "Check whether the current token may use admin pages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res := accessgate.New(a.client, a.logg).Resolve(cmd.Context())
			fmt.Fprintln(a.out, res.Decision)
			if res.Redirect != "" {
				fmt.Fprintln(a.out, "redirect:", res.Redirect)
			}
			a.report(res.Message)
			if res.Decision != accessgate.Allowed {
				return fmt.Errorf("access %s", res.Decision)
			}
			return nil
		},
	}
}
