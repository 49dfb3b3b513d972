package transfer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/kasuganosora/vaultctl/audit"
	"github.com/kasuganosora/vaultctl/cache"
	"github.com/kasuganosora/vaultctl/inventory"
	"github.com/kasuganosora/vaultctl/scheduler"
	"go.uber.org/zap"
)

// IndexSource loads a fresh inventory snapshot.
type IndexSource func(ctx context.Context) (*inventory.Index, error)

// Locker is the subset of cache.Cache used to keep two farming processes off
// the same character.
type Locker interface {
	Get(ctx context.Context, key string) (string, error)
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
}

const farmLockTTL = 5 * time.Minute

// FarmStats accumulates farming results over the life of a Farmer.
type FarmStats struct {
	Ticks   int
	Moved   int
	Skipped int
}

// Farmer keeps a character's inventory clear while playing by moving
// disposable gear to the vault on every tick.
type Farmer struct {
	exec        *Executor
	source      IndexSource
	characterID string
	sched       *scheduler.Scheduler
	locker      Locker
	logger      *zap.Logger

	mu    sync.Mutex
	stats FarmStats
}

// NewFarmer creates a Farmer for characterID. locker may be nil.
func NewFarmer(exec *Executor, source IndexSource, characterID string, sched *scheduler.Scheduler, locker Locker, logger *zap.Logger) *Farmer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Farmer{
		exec:        exec,
		source:      source,
		characterID: characterID,
		sched:       sched,
		locker:      locker,
		logger:      logger.With(zap.String("character", characterID)),
	}
}

// FarmCandidates returns the weapons and armor on characterID that can be
// moved without touching anything the player cares about.
func FarmCandidates(idx *inventory.Index, characterID string) []*inventory.Item {
	var out []*inventory.Item
	for _, it := range idx.ByCharacter[characterID] {
		if !it.IsWeapon() && !it.IsArmor() {
			continue
		}
		if it.IsLocked || it.IsEquipped || it.NonTransferrable {
			continue
		}
		out = append(out, it)
	}
	return out
}

// Tick re-reads the inventory and moves every farm candidate to the vault.
func (f *Farmer) Tick(ctx context.Context) (BatchResult, error) {
	runID := audit.NewRunID()
	if f.locker != nil {
		key := "vaultctl:farm:" + f.characterID
		ok, err := f.locker.SetNX(ctx, key, runID, farmLockTTL)
		if err != nil {
			return BatchResult{}, fmt.Errorf("transfer: farm lock: %w", err)
		}
		if !ok {
			f.logger.Info("farming tick skipped, lock held elsewhere")
			return BatchResult{RunID: runID}, nil
		}
		defer f.unlock(context.WithoutCancel(ctx), key, runID)
	}

	idx, err := f.source(ctx)
	if err != nil {
		return BatchResult{}, fmt.Errorf("transfer: farm refresh: %w", err)
	}
	if _, ok := idx.Character(f.characterID); !ok {
		return BatchResult{}, fmt.Errorf("transfer: unknown character %s", f.characterID)
	}

	items := FarmCandidates(idx, f.characterID)
	res := f.exec.MoveBatch(ctx, items, inventory.VaultLocation, idx, Options{RunID: runID})

	f.mu.Lock()
	f.stats.Ticks++
	f.stats.Moved += res.Succeeded
	f.stats.Skipped += res.Skipped
	f.mu.Unlock()
	return res, nil
}

// unlock releases key only while it still holds runID. A tick that outlived
// farmLockTTL may find the lock taken over by another process.
func (f *Farmer) unlock(ctx context.Context, key, runID string) {
	owner, err := f.locker.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrNotFound) {
			f.logger.Warn("farm lock not released", zap.Error(err))
		}
		return
	}
	if owner != runID {
		f.logger.Warn("farm lock taken over before release", zap.String("owner", owner))
		return
	}
	if err := f.locker.Del(ctx, key); err != nil {
		f.logger.Warn("farm lock not released", zap.Error(err))
	}
}

func (f *Farmer) taskName() string { return "farm:" + f.characterID }

// Start runs Tick every interval until Stop or the scheduler stops.
func (f *Farmer) Start(interval time.Duration) {
	f.sched.AddTicker(f.taskName(), interval, func(ctx context.Context) {
		res, err := f.Tick(ctx)
		if err != nil {
			f.logger.Warn("farming tick failed", zap.Error(err))
			return
		}
		if res.Succeeded > 0 || res.Skipped > 0 {
			f.logger.Info("farming tick",
				zap.Int("moved", res.Succeeded),
				zap.Int("skipped", res.Skipped))
		}
	})
}

// Stop stops scheduled ticks. A tick in progress has its context cancelled.
func (f *Farmer) Stop() {
	f.sched.Remove(f.taskName())
}

// Stats returns the totals so far.
func (f *Farmer) Stats() FarmStats {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stats
}
