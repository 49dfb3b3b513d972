package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kasuganosora/vaultctl/inventory"
	"github.com/kasuganosora/vaultctl/query"
	"github.com/kasuganosora/vaultctl/store"
	"github.com/kasuganosora/vaultctl/transfer"
	"github.com/spf13/cobra"
)

var classNames = map[int]string{0: "titan", 1: "hunter", 2: "warlock"}

func newIndexCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "index",
		Short: "Fetch the profile and summarise the inventory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := a.index(cmd.Context())
			if err != nil {
				return err
			}
			w := newTable(a.out)
			fmt.Fprint(w, "CHARACTER\tCLASS\tLIGHT\tITEMS\n")
			for _, c := range idx.Characters {
				fmt.Fprintf(w, "%s\t%s\t%d\t%d\n", c.CharacterID, classNames[c.ClassType], c.Light, len(idx.ByCharacter[c.CharacterID]))
			}
			fmt.Fprintf(w, "%s\t\t\t%d\n", inventory.VaultLocation, len(idx.VaultItems))
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%d items indexed\n", len(idx.All))
			return nil
		},
	}
}

func newSearchCmd(a *app) *cobra.Command {
	var saved string
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "List items matching a search query",
		Long: `List items matching a search query. Terms are AND'ed, "or" separates
alternatives and "not:" negates a term, e.g.

  vaultctl search is:weapon not:is:locked power:<1800
  vaultctl search --saved trash`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			q := strings.Join(args, " ")
			if saved != "" {
				if q != "" {
					return errors.New("pass either a query or --saved, not both")
				}
				ss, err := a.store.Search(ctx, saved)
				if err != nil {
					return fmt.Errorf("saved search %q: %w", saved, err)
				}
				q = ss.Query
			}
			if strings.TrimSpace(q) == "" {
				return errors.New("empty query")
			}
			pred, err := query.Parse(q)
			if err != nil {
				return err
			}
			idx, err := a.index(ctx)
			if err != nil {
				return err
			}
			tagsFor, err := a.tagsFor(ctx)
			if err != nil {
				return err
			}

			found := query.Filter(idx.All, pred, tagsFor)
			w := newTable(a.out)
			fmt.Fprint(w, itemHeader)
			for _, it := range found {
				itemRow(w, it, tagsFor(it))
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%d of %d items\n", len(found), len(idx.All))
			return nil
		},
	}
	cmd.Flags().StringVar(&saved, "saved", "", "run a saved search by name")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "save <name> <query>",
			Short: "Save a query under a name",
			Args:  cobra.MinimumNArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				q := strings.Join(args[1:], " ")
				if _, err := query.Parse(q); err != nil {
					return err
				}
				if err := a.store.SaveSearch(cmd.Context(), args[0], q); err != nil {
					return err
				}
				fmt.Fprintf(a.out, "saved search %q\n", args[0])
				return nil
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List saved searches",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				list, err := a.store.ListSearches(cmd.Context())
				if err != nil {
					return err
				}
				w := newTable(a.out)
				fmt.Fprint(w, "NAME\tQUERY\n")
				for _, s := range list {
					fmt.Fprintf(w, "%s\t%s\n", s.Name, s.Query)
				}
				return w.Flush()
			},
		},
		&cobra.Command{
			Use:   "rm <name>",
			Short: "Delete a saved search",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := a.store.DeleteSearch(cmd.Context(), args[0]); err != nil {
					if errors.Is(err, store.ErrNotFound) {
						return fmt.Errorf("no saved search %q", args[0])
					}
					return err
				}
				return nil
			},
		},
	)
	return cmd
}

func newMoveCmd(a *app) *cobra.Command {
	var (
		dryRun bool
		count  int
	)
	cmd := &cobra.Command{
		Use:   "move <item-key> <vault|character-id>",
		Short: "Move an item to the vault or a character",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			idx, err := a.index(ctx)
			if err != nil {
				return err
			}
			it, err := findItem(idx, args[0])
			if err != nil {
				return err
			}

			opts := transfer.Options{
				Count:  count,
				DryRun: dryRun,
				OnStep: func(step transfer.Step, i, total int) {
					fmt.Fprintf(a.out, "[%d/%d] %s\n", i+1, total, step.Description)
				},
			}
			plan, err := a.exec.MoveItem(ctx, it, args[1], idx, opts)
			if !plan.IsValid {
				return fmt.Errorf("cannot move %s: %s", it.Name, strings.Join(plan.Errors, "; "))
			}
			if dryRun {
				for i, step := range plan.Steps {
					fmt.Fprintf(a.out, "[%d/%d] %s (dry run)\n", i+1, len(plan.Steps), step.Description)
				}
				return nil
			}
			return err
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the plan without moving anything")
	cmd.Flags().IntVar(&count, "count", 0, "units of a stack to move (default: all)")
	return cmd
}
