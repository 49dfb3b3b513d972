package transfer

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kasuganosora/vaultctl/inventory"
	"github.com/kasuganosora/vaultctl/scheduler"
	"github.com/kasuganosora/vaultctl/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func farmIndex() *inventory.Index {
	keep := gun("keep", "c1")
	keep.IsLocked = true
	worn := gun("worn", "c1")
	worn.IsEquipped = true
	bound := gun("bound", "c1")
	bound.NonTransferrable = true
	junk := gun("junk", "c1")
	core := stack("c1", 10)
	elsewhere := gun("c2-junk", "c2")
	return inventory.FromItems([]*inventory.Item{keep, worn, bound, junk, core, elsewhere}, chars)
}

func TestFarmCandidates(t *testing.T) {
	got := FarmCandidates(farmIndex(), "c1")
	require.Len(t, got, 1)
	assert.Equal(t, "junk", got[0].InstanceID)
}

func TestFarmer_Tick(t *testing.T) {
	remote := &fakeRemote{}
	exec := NewExecutor(remote, nil, nop())
	sched := scheduler.New(nop())
	defer sched.Stop()

	var loads int32
	source := func(context.Context) (*inventory.Index, error) {
		atomic.AddInt32(&loads, 1)
		return farmIndex(), nil
	}
	f := NewFarmer(exec, source, "c1", sched, nil, nop())

	res, err := f.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Succeeded)
	require.Len(t, remote.Calls(), 1)
	assert.True(t, remote.Calls()[0].Req.ToVault)

	_, err = f.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&loads), "profile is re-read every tick")
	assert.Equal(t, FarmStats{Ticks: 2, Moved: 2}, f.Stats())
}

func TestFarmer_TickErrors(t *testing.T) {
	exec := NewExecutor(&fakeRemote{}, nil, nop())
	sched := scheduler.New(nop())
	defer sched.Stop()

	failing := NewFarmer(exec, func(context.Context) (*inventory.Index, error) {
		return nil, errors.New("503")
	}, "c1", sched, nil, nop())
	_, err := failing.Tick(context.Background())
	assert.ErrorContains(t, err, "503")

	unknown := NewFarmer(exec, func(context.Context) (*inventory.Index, error) {
		return farmIndex(), nil
	}, "c9", sched, nil, nop())
	_, err = unknown.Tick(context.Background())
	assert.ErrorContains(t, err, "unknown character")
}

func TestFarmer_LockHeldElsewhere(t *testing.T) {
	locker := testutil.SetupTestCache(t)
	ctx := context.Background()
	ok, err := locker.SetNX(ctx, "vaultctl:farm:c1", "other-process", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	remote := &fakeRemote{}
	sched := scheduler.New(nop())
	defer sched.Stop()
	f := NewFarmer(NewExecutor(remote, nil, nop()), func(context.Context) (*inventory.Index, error) {
		return farmIndex(), nil
	}, "c1", sched, locker, nop())

	res, err := f.Tick(ctx)
	require.NoError(t, err)
	assert.Zero(t, res.Succeeded)
	assert.Empty(t, remote.Calls())

	// released lock: the tick runs and frees the lock afterwards
	require.NoError(t, locker.Del(ctx, "vaultctl:farm:c1"))
	res, err = f.Tick(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Succeeded)
	held, _ := locker.Exists(ctx, "vaultctl:farm:c1")
	assert.False(t, held)
}

func TestFarmer_KeepsLockTakenOverMidTick(t *testing.T) {
	locker := testutil.SetupTestCache(t)
	ctx := context.Background()
	sched := scheduler.New(nop())
	defer sched.Stop()

	// the lock expires during a slow refresh and another process claims it
	f := NewFarmer(NewExecutor(&fakeRemote{}, nil, nop()), func(ctx context.Context) (*inventory.Index, error) {
		require.NoError(t, locker.Set(ctx, "vaultctl:farm:c1", "other-process", time.Minute))
		return farmIndex(), nil
	}, "c1", sched, locker, nop())

	res, err := f.Tick(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Succeeded)
	owner, err := locker.Get(ctx, "vaultctl:farm:c1")
	require.NoError(t, err)
	assert.Equal(t, "other-process", owner)
}

func TestFarmer_StartStop(t *testing.T) {
	remote := &fakeRemote{}
	sched := scheduler.New(nop())
	defer sched.Stop()

	var loads int32
	f := NewFarmer(NewExecutor(remote, nil, nop()), func(context.Context) (*inventory.Index, error) {
		atomic.AddInt32(&loads, 1)
		return farmIndex(), nil
	}, "c1", sched, nil, nop())

	f.Start(15 * time.Millisecond)
	assert.Contains(t, sched.ListTickers(), "farm:c1")
	time.Sleep(80 * time.Millisecond)
	f.Stop()
	assert.NotContains(t, sched.ListTickers(), "farm:c1")

	time.Sleep(20 * time.Millisecond)
	snap := atomic.LoadInt32(&loads)
	assert.GreaterOrEqual(t, snap, int32(2))
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, snap, atomic.LoadInt32(&loads))
	assert.Equal(t, int(snap), f.Stats().Ticks)
}
