package main

import (
	"context"
	"fmt"
	"time"

	"github.com/koustreak/dbinit/internal/bootstrap"
	"github.com/spf13/cobra"
)

func newReportsCmd(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "reports [run-id]",
		Short: "List published bootstrap reports, or print one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.cfg.Report.Enabled {
				return fmt.Errorf("report publishing is disabled; set report.enabled in the config file")
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			pub, err := openPublisher(ctx, a.cfg.Report)
			if err != nil {
				return err
			}

			if len(args) == 1 {
				r, err := pub.Fetch(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), r)
			}

			objs, err := pub.List(ctx, limit)
			if err != nil {
				return err
			}
			for _, o := range objs {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%d\n",
					bootstrap.RunID(o.Key), o.LastModified.Format(time.RFC3339), o.Size)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of reports to list, newest first (0 for all)")
	return cmd
}
