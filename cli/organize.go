package cli

import (
	"fmt"
	"io"

	"github.com/kasuganosora/vaultctl/inventory"
	"github.com/kasuganosora/vaultctl/organizer"
	"github.com/kasuganosora/vaultctl/transfer"
	"github.com/spf13/cobra"
)

func newOrganizeCmd(a *app) *cobra.Command {
	var (
		apply  bool
		dryRun bool
	)
	cmd := &cobra.Command{
		Use:   "organize",
		Short: "Suggest duplicates to dismantle and items to vault",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			idx, err := a.index(ctx)
			if err != nil {
				return err
			}
			report := organizer.Analyze(idx.All)

			w := newTable(a.out)
			fmt.Fprint(w, "KIND\tKEY\tNAME\tPOWER\tREASON\n")
			for _, list := range [][]organizer.Suggestion{report.Duplicates, report.Underpowered, report.VaultPrep} {
				writeSuggestions(w, list)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%d suggestions\n", report.Total())

			if !apply || len(report.VaultPrep) == 0 {
				return nil
			}
			items := make([]*inventory.Item, len(report.VaultPrep))
			for i, s := range report.VaultPrep {
				items[i] = s.Item
			}
			res := a.exec.MoveBatch(ctx, items, inventory.VaultLocation, idx, transfer.Options{DryRun: dryRun})
			printBatch(a.out, res)
			return nil
		},
	}
	cmd.Flags().BoolVar(&apply, "apply", false, "move the vault-prep items to the vault")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "with --apply, only check the moves")
	return cmd
}

func writeSuggestions(w io.Writer, list []organizer.Suggestion) {
	for _, s := range list {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", s.Kind, inventory.ItemKey(s.Item), s.Item.Name, powerString(s.Item), s.Reason)
	}
}

func printBatch(out io.Writer, res transfer.BatchResult) {
	for _, f := range res.Failures {
		fmt.Fprintf(out, "skipped %s (%s): %v\n", f.Item.Name, inventory.ItemKey(f.Item), f.Err)
	}
	fmt.Fprintf(out, "run %s: %d done, %d skipped\n", res.RunID, res.Succeeded, res.Skipped)
}
