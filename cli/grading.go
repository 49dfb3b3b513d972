package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kasuganosora/vaultctl/grading"
	"github.com/kasuganosora/vaultctl/inventory"
	"github.com/kasuganosora/vaultctl/manifest"
	"github.com/kasuganosora/vaultctl/query"
	"github.com/spf13/cobra"
)

func newGradeCmd(a *app) *cobra.Command {
	var (
		source  string
		filter  string
		refresh bool
	)
	cmd := &cobra.Command{
		Use:   "grade",
		Short: "Grade weapon rolls against the wishlist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			wl, err := a.wishlist(ctx, source, refresh)
			if err != nil {
				return err
			}
			if wl == nil {
				return errors.New("no wishlist configured (grading.wishlist or --wishlist)")
			}
			pred := query.MustParse("is:weapon")
			if filter != "" {
				if pred, err = query.Parse("is:weapon " + filter); err != nil {
					return err
				}
			}
			idx, err := a.index(ctx)
			if err != nil {
				return err
			}
			tagsFor, err := a.tagsFor(ctx)
			if err != nil {
				return err
			}

			counts := make(map[grading.Grade]int)
			w := newTable(a.out)
			fmt.Fprint(w, "KEY\tNAME\tPOWER\tLOCATION\tGRADE\n")
			for _, it := range query.Filter(idx.All, pred, tagsFor) {
				g := grading.GradeUnknown
				if it.PerksKnown {
					g = grading.GradeItem(it.Hash, it.Perks, wl)
				}
				counts[g]++
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", inventory.ItemKey(it), it.Name, powerString(it), it.Location, g)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "god %d, good %d, trash %d, unknown %d\n",
				counts[grading.GradeGod], counts[grading.GradeGood], counts[grading.GradeTrash], counts[grading.GradeUnknown])
			return nil
		},
	}
	cmd.Flags().StringVar(&source, "wishlist", "", "wishlist path or URL (default grading.wishlist)")
	cmd.Flags().StringVarP(&filter, "query", "q", "", "only grade weapons matching this query")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "download the wishlist again instead of using the cached copy")
	return cmd
}

func newOptimizeCmd(a *app) *cobra.Command {
	var (
		usePopularity bool
		source        string
		all           bool
		refresh       bool
	)
	cmd := &cobra.Command{
		Use:   "optimize <character-id>",
		Short: "Suggest the best item for every equipment slot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			opts := grading.OptimizeOptions{
				UsePopularity:    usePopularity,
				PopularityWeight: a.cfg.Grading.PopularityWeight,
			}
			var err error
			if opts.Wishlist, err = a.wishlist(ctx, "", refresh); err != nil {
				return err
			}
			if usePopularity {
				if opts.Popularity, err = a.popularity(ctx, source, refresh); err != nil {
					return err
				}
			}
			idx, err := a.index(ctx)
			if err != nil {
				return err
			}
			res, err := grading.AnalyzeLoadout(idx, args[0], opts)
			if err != nil {
				return err
			}

			w := newTable(a.out)
			fmt.Fprint(w, "SLOT\tEQUIPPED\tSUGGESTED\tSCORE\tDELTA\n")
			for _, sa := range res.Slots {
				if !sa.Improvable && !all {
					continue
				}
				current, suggested, score := "-", "-", "-"
				if sa.Current != nil {
					current = sa.Current.Item.Name
				}
				if sa.Suggestion != nil {
					suggested = fmt.Sprintf("%s (%s, %s)", sa.Suggestion.Item.Name, inventory.ItemKey(sa.Suggestion.Item), sa.Suggestion.Item.Location)
					score = fmt.Sprintf("%.3f", sa.Suggestion.Score)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%+.3f\n", sa.Slot, current, suggested, score, sa.Delta)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%d of %d slots can improve\n", res.Improvable, len(res.Slots))
			return nil
		},
	}
	cmd.Flags().BoolVar(&usePopularity, "popularity", false, "blend community popularity into scores")
	cmd.Flags().StringVar(&source, "popularity-source", "", "popularity path or URL (default grading.popularity)")
	cmd.Flags().BoolVar(&all, "all", false, "show slots that cannot improve too")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "download wishlist and popularity again instead of using cached copies")
	return cmd
}

func newRollsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rolls <perk> [perk...]",
		Short: "Find weapons that can roll all the given perks together",
		Long: `Find weapons that can roll all the given perks together, each from a
different socket column. Quote perk names with spaces.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.loadManifest(); err != nil {
				return err
			}
			groups := make([]manifest.PerkGroup, 0, len(args))
			for _, name := range args {
				hashes := a.manifest.PerksByName(name)
				if len(hashes) == 0 {
					return fmt.Errorf("no perk named %q", name)
				}
				groups = append(groups, manifest.PerkGroup{Label: name, Hashes: hashes})
			}

			matches := a.manifest.FindRolls(groups, nil)
			for _, m := range matches {
				cols := make([]string, len(m.Columns))
				for i, c := range m.Columns {
					cols[i] = fmt.Sprintf("%s@%d", groups[i].Label, c)
				}
				fmt.Fprintf(a.out, "%s (%d): %s\n", m.Name, m.WeaponHash, strings.Join(cols, ", "))
			}
			fmt.Fprintf(a.out, "%d weapons\n", len(matches))
			return nil
		},
	}
}
