package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newHistoryCmd(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show recent transfer and equip calls",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runID := ""
			if len(args) == 1 {
				runID = args[0]
			}
			logs, err := a.audit.Recent(cmd.Context(), runID, limit)
			if err != nil {
				return err
			}
			w := newTable(a.out)
			fmt.Fprint(w, "TIME\tRUN\tACTION\tITEM\tFROM\tTO\tCOUNT\tRESULT\n")
			for _, l := range logs {
				result := "ok"
				if l.Error != "" {
					result = l.Error
				}
				run := l.RunID
				if len(run) > 8 {
					run = run[:8]
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
					l.CreatedAt.Local().Format("2006-01-02 15:04:05"), run, l.Action, l.ItemName,
					l.FromCharacterID, l.ToCharacterID, l.Count, result)
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of entries (0 for all)")
	return cmd
}
