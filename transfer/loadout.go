package transfer

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/kasuganosora/vaultctl/audit"
	"github.com/kasuganosora/vaultctl/inventory"
	"go.uber.org/zap"
)

// LoadoutEntry is one saved loadout item. InstanceID is empty for
// stackables; Equip is false for items that are only carried.
type LoadoutEntry struct {
	ItemHash   uint32
	InstanceID string
	Equip      bool
}

var errNoCandidate = errors.New("transfer: no copy of the item is left")

// CandidateScore ranks a copy of a loadout item for characterID. Higher is
// better. Each rule outweighs every rule after it: on the target, then in the
// vault, then elsewhere; transferable and unlocked; unequipped; instanced.
func CandidateScore(it *inventory.Item, characterID string) int {
	score := 0
	switch {
	case it.Location == characterID:
		score += 2000
	case it.InVault():
		score += 1000
	}
	if !it.NonTransferrable && !it.IsLocked {
		score += 100
	}
	if !it.IsEquipped {
		score += 10
	}
	if it.InstanceID != "" {
		score++
	}
	return score
}

// loadoutCandidates returns the copies to try for entry, best first. The
// recorded instance wins when it still exists.
func loadoutCandidates(entry LoadoutEntry, characterID string, idx *inventory.Index) []*inventory.Item {
	if entry.InstanceID != "" {
		if it, ok := idx.ByInstanceID[entry.InstanceID]; ok {
			return []*inventory.Item{it}
		}
	}
	copies := slices.Clone(idx.ByHash[entry.ItemHash])
	slices.SortStableFunc(copies, func(a, b *inventory.Item) int {
		if c := cmp.Compare(CandidateScore(b, characterID), CandidateScore(a, characterID)); c != 0 {
			return c
		}
		return cmp.Compare(inventory.ItemKey(a), inventory.ItemKey(b))
	})
	return copies
}

// ApplyLoadout brings every entry onto characterID and equips it. Each entry
// counts once as succeeded or skipped.
func (e *Executor) ApplyLoadout(ctx context.Context, entries []LoadoutEntry, characterID string, idx *inventory.Index, opts Options) BatchResult {
	if opts.RunID == "" {
		opts.RunID = audit.NewRunID()
	}
	// Loadouts always move whole stacks.
	opts.Count = 0
	res := BatchResult{RunID: opts.RunID}

	for _, entry := range entries {
		candidates := loadoutCandidates(entry, characterID, idx)
		err := errNoCandidate
		var last *inventory.Item
		for _, it := range candidates {
			if ctx.Err() != nil {
				err = ctx.Err()
				break
			}
			last = it
			if err = e.applyOne(ctx, it, entry, characterID, idx, opts); err == nil {
				break
			}
			e.logger.Debug("loadout candidate failed", zap.String("item", it.Name), zap.Error(err))
		}
		if err != nil {
			if last == nil {
				last = &inventory.Item{Hash: entry.ItemHash, InstanceID: entry.InstanceID}
			}
			res.skip(last, fmt.Errorf("loadout item %d: %w", entry.ItemHash, err))
			continue
		}
		res.Succeeded++
	}

	e.logger.Info("loadout applied",
		zap.String("run", res.RunID),
		zap.String("character", characterID),
		zap.Int("succeeded", res.Succeeded),
		zap.Int("skipped", res.Skipped))
	return res
}

func (e *Executor) applyOne(ctx context.Context, it *inventory.Item, entry LoadoutEntry, characterID string, idx *inventory.Index, opts Options) error {
	wantEquip := entry.Equip && it.InstanceID != ""

	if it.Location == characterID {
		if !wantEquip || it.IsEquipped || opts.DryRun {
			return nil
		}
		return e.equip(ctx, it, characterID, opts.RunID)
	}

	plan := PlanMove(it, characterID, idx, opts)
	if !plan.IsValid {
		return fmt.Errorf("%w: %s", ErrInvalidPlan, plan.Errors[0])
	}
	if opts.DryRun {
		return nil
	}
	if err := e.Execute(ctx, plan, opts); err != nil {
		return err
	}
	if wantEquip {
		return e.equip(ctx, it, characterID, opts.RunID)
	}
	return nil
}
