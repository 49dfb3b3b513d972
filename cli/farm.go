package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/kasuganosora/vaultctl/scheduler"
	"github.com/kasuganosora/vaultctl/transfer"
	"github.com/spf13/cobra"
)

func newFarmCmd(a *app) *cobra.Command {
	var (
		interval time.Duration
		duration time.Duration
	)
	cmd := &cobra.Command{
		Use:   "farm <character-id>",
		Short: "Keep a character's inventory clear by vaulting loose gear",
		Long: `Keep a character's inventory clear while playing. Every interval the
inventory is re-read and unlocked, unequipped weapons and armor on the
character are moved to the vault. Runs until interrupted or --duration ends.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if interval <= 0 {
				interval = a.cfg.Farming.Interval
			}

			sched := scheduler.New(a.logger)
			defer sched.Stop()
			farmer := transfer.NewFarmer(a.exec, a.index, args[0], sched, a.cache, a.logger)

			// First pass right away so a bad character id fails fast.
			if _, err := farmer.Tick(ctx); err != nil {
				return err
			}
			farmer.Start(interval)
			if duration > 0 {
				sched.AddDelay("farm:deadline", duration, func(context.Context) { sched.Stop() })
			}
			fmt.Fprintf(a.out, "farming %s every %s\n", args[0], interval)

			select {
			case <-ctx.Done():
			case <-sched.Done():
			}
			farmer.Stop()

			st := farmer.Stats()
			fmt.Fprintf(a.out, "%d ticks: %d moved, %d skipped\n", st.Ticks, st.Moved, st.Skipped)
			return nil
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 0, "time between passes (default farming.interval)")
	cmd.Flags().DurationVar(&duration, "duration", 0, "stop after this long (default: until interrupted)")
	return cmd
}
