package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/koustreak/dbinit/internal/bootstrap"
	"github.com/spf13/cobra"
)

func newBootstrapCmd(a *app) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "bootstrap",
		Short: "Run the startup hook once and print the report",
		Long: `Bootstrap runs column reconciliation and seeding once, prints the JSON
report to stdout, and exits non-zero when the report is degraded.

With --dry-run nothing is contacted: the hook runs against an in-memory
catalog and repository that model an empty database, and the report lists
the statements that would be issued.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), a.cfg.Bootstrap.Timeout)
			defer cancel()

			if dryRun {
				r, statements, err := a.runDry(ctx)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), struct {
					*bootstrap.Report
					Statements []string `json:"statements"`
				}{r, statements})
			}

			r, db := a.runHook(ctx)
			if db != nil {
				defer db.Close()
			}
			if err := printJSON(cmd.OutOrStdout(), r); err != nil {
				return err
			}
			if r.Status != bootstrap.StatusOK {
				return fmt.Errorf("bootstrap %s (run %s)", r.Status, r.RunID)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "run against an in-memory database instead of connecting")
	return cmd
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
