package transfer

import (
	"context"
	"sync"

	"github.com/kasuganosora/vaultctl/audit"
	"github.com/kasuganosora/vaultctl/inventory"
	"github.com/kasuganosora/vaultctl/manifest"
)

type call struct {
	Kind        string // "transfer" or "equip"
	Req         TransferRequest
	InstanceID  string
	CharacterID string
}

type fakeRemote struct {
	mu         sync.Mutex
	calls      []call
	transferFn func(TransferRequest) error
	equipErr   error
}

func (f *fakeRemote) TransferItem(_ context.Context, req TransferRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{Kind: "transfer", Req: req})
	if f.transferFn != nil {
		return f.transferFn(req)
	}
	return nil
}

func (f *fakeRemote) EquipItem(_ context.Context, instanceID, characterID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{Kind: "equip", InstanceID: instanceID, CharacterID: characterID})
	return f.equipErr
}

func (f *fakeRemote) Calls() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]call(nil), f.calls...)
}

type fakeAuditor struct {
	mu      sync.Mutex
	entries []audit.Entry
}

func (a *fakeAuditor) Log(e audit.Entry) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, e)
}

var chars = []inventory.Character{
	{CharacterID: "c1", ClassType: manifest.ClassWarlock},
	{CharacterID: "c2", ClassType: manifest.ClassTitan},
}

func gun(id, loc string) *inventory.Item {
	return &inventory.Item{
		Hash: 1001, InstanceID: id, Name: "Fatebringer", ItemType: manifest.ItemTypeWeapon,
		Quantity: 1, Location: loc, Equippable: true, ClassRestriction: -1,
	}
}

func stack(loc string, qty int) *inventory.Item {
	return &inventory.Item{
		Hash: 300, Name: "Enhancement Core", ItemType: manifest.ItemTypeConsumable,
		Quantity: qty, Location: loc, MaxStackSize: 50, ClassRestriction: -1,
	}
}
