package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/kasuganosora/vaultctl/inventory"
	"github.com/kasuganosora/vaultctl/model"
	"github.com/kasuganosora/vaultctl/store"
	"github.com/kasuganosora/vaultctl/transfer"
	"github.com/spf13/cobra"
	"gorm.io/datatypes"
)

// loadoutFromCharacter snapshots what characterID has equipped, plus the
// carried items named by carry.
func loadoutFromCharacter(idx *inventory.Index, name, characterID string, carry []string) (*model.Loadout, error) {
	char, ok := idx.Character(characterID)
	if !ok {
		return nil, fmt.Errorf("unknown character %q", characterID)
	}
	lo := &model.Loadout{Name: name, CharacterID: characterID, ClassType: char.ClassType}
	for _, it := range idx.ByCharacter[characterID] {
		if !it.IsEquipped || it.InstanceID == "" || !slices.Contains(inventory.EquipmentSlots, it.Slot) {
			continue
		}
		lo.Items = append(lo.Items, model.LoadoutItem{
			ItemHash:   it.Hash,
			InstanceID: it.InstanceID,
			BucketHash: it.BucketHash,
			Equipped:   true,
		})
	}
	for _, key := range carry {
		it, err := findItem(idx, key)
		if err != nil {
			return nil, err
		}
		lo.Items = append(lo.Items, model.LoadoutItem{
			ItemHash:   it.Hash,
			InstanceID: it.InstanceID,
			BucketHash: it.BucketHash,
		})
	}
	if len(lo.Items) == 0 {
		return nil, fmt.Errorf("character %s has nothing equipped", characterID)
	}
	return lo, nil
}

func loadoutEntries(lo *model.Loadout) []transfer.LoadoutEntry {
	out := make([]transfer.LoadoutEntry, len(lo.Items))
	for i, li := range lo.Items {
		out[i] = transfer.LoadoutEntry{ItemHash: li.ItemHash, InstanceID: li.InstanceID, Equip: li.Equipped}
	}
	return out
}

func newLoadoutCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "loadout",
		Short: "Save and apply loadouts",
	}

	var (
		carry []string
		notes string
	)
	save := &cobra.Command{
		Use:   "save <name> <character-id>",
		Short: "Save what a character has equipped",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			idx, err := a.index(ctx)
			if err != nil {
				return err
			}
			lo, err := loadoutFromCharacter(idx, args[0], args[1], carry)
			if err != nil {
				return err
			}
			if notes != "" {
				meta, err := json.Marshal(map[string]string{"notes": notes})
				if err != nil {
					return err
				}
				lo.Meta = datatypes.JSON(meta)
			}
			if err := a.store.SaveLoadout(ctx, lo); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "saved loadout %q with %d items\n", lo.Name, len(lo.Items))
			return nil
		},
	}
	save.Flags().StringSliceVar(&carry, "carry", nil, "item keys to carry without equipping")
	save.Flags().StringVar(&notes, "notes", "", "free-form notes stored with the loadout")

	var dryRun bool
	apply := &cobra.Command{
		Use:   "apply <name> <character-id>",
		Short: "Bring a loadout's items to a character and equip them",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			lo, err := a.store.Loadout(ctx, args[0])
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("no loadout %q", args[0])
			}
			if err != nil {
				return err
			}
			idx, err := a.index(ctx)
			if err != nil {
				return err
			}
			if _, ok := idx.Character(args[1]); !ok {
				return fmt.Errorf("unknown character %q", args[1])
			}
			res := a.exec.ApplyLoadout(ctx, loadoutEntries(lo), args[1], idx, transfer.Options{DryRun: dryRun})
			printBatch(a.out, res)
			return nil
		},
	}
	apply.Flags().BoolVar(&dryRun, "dry-run", false, "check the loadout without moving anything")

	list := &cobra.Command{
		Use:   "list",
		Short: "List saved loadouts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			los, err := a.store.ListLoadouts(cmd.Context())
			if err != nil {
				return err
			}
			w := newTable(a.out)
			fmt.Fprint(w, "NAME\tCHARACTER\tCLASS\tSAVED\n")
			for _, lo := range los {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", lo.Name, lo.CharacterID, classNames[lo.ClassType], lo.UpdatedAt.Format("2006-01-02 15:04"))
			}
			return w.Flush()
		},
	}

	rm := &cobra.Command{
		Use:   "rm <name>",
		Short: "Delete a loadout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := a.store.DeleteLoadout(cmd.Context(), args[0])
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("no loadout %q", args[0])
			}
			return err
		},
	}

	cmd.AddCommand(save, apply, list, rm)
	return cmd
}
