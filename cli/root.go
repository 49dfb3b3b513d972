package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/kasuganosora/vaultctl/inventory"
	"github.com/spf13/cobra"
)

// Run executes the command line args, writing results to out.
func Run(ctx context.Context, args []string, out io.Writer) error {
	a := &app{out: out}
	defer a.close()

	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetOut(out)
	return root.ExecuteContext(ctx)
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "vaultctl",
		Short:         "Inspect, grade and move game inventory items",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}
	root.PersistentFlags().StringVarP(&a.cfgPath, "config", "c", "", "config file (YAML)")
	root.PersistentFlags().BoolVar(&a.debug, "debug", false, "development logging")

	root.AddCommand(
		newIndexCmd(a),
		newSearchCmd(a),
		newMoveCmd(a),
		newGradeCmd(a),
		newOptimizeCmd(a),
		newOrganizeCmd(a),
		newRollsCmd(a),
		newLoadoutCmd(a),
		newFarmCmd(a),
		newTagCmd(a),
		newNoteCmd(a),
		newHistoryCmd(a),
	)
	return root
}

func newTable(out io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
}

func powerString(it *inventory.Item) string {
	if it.Power == nil {
		return "-"
	}
	return strconv.Itoa(*it.Power)
}

func itemRow(w io.Writer, it *inventory.Item, tags []string) {
	state := ""
	if it.IsEquipped {
		state += "E"
	}
	if it.IsLocked {
		state += "L"
	}
	name := it.Name
	if it.Quantity > 1 {
		name = fmt.Sprintf("%s x%d", name, it.Quantity)
	}
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
		inventory.ItemKey(it), name, it.Slot, powerString(it), it.Location, state, strings.Join(tags, ","))
}

const itemHeader = "KEY\tNAME\tSLOT\tPOWER\tLOCATION\tSTATE\tTAGS\n"

// findItem resolves an item key, giving a readable error when it is gone.
func findItem(idx *inventory.Index, key string) (*inventory.Item, error) {
	it, ok := idx.FindByKey(key)
	if !ok {
		return nil, fmt.Errorf("no item %q in the inventory", key)
	}
	return it, nil
}
