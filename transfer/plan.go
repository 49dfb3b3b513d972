// Package transfer plans and executes item moves between characters and the
// vault. The remote API only moves items into or out of the vault, so a move
// between two characters is always a deposit followed by a withdrawal.
package transfer

import (
	"fmt"

	"github.com/kasuganosora/vaultctl/inventory"
)

// StepType is the kind of remote mutation a step issues.
type StepType string

const (
	StepToVault   StepType = "to_vault"
	StepFromVault StepType = "from_vault"
)

// Step is one remote transfer call.
type Step struct {
	Type            StepType
	Item            *inventory.Item
	FromCharacterID string // set on to_vault steps
	ToCharacterID   string // set on from_vault steps
	Count           int
	Description     string
}

// Plan is the result of PlanMove. An invalid plan has no steps and exactly
// one error.
type Plan struct {
	Item        *inventory.Item
	Destination string
	Steps       []Step
	IsValid     bool
	Errors      []string
}

// Options tune planning and execution.
type Options struct {
	// Count is the number of units to move; zero moves the whole stack.
	Count  int
	DryRun bool
	// OnStep is called before each remote call. It must not block.
	OnStep func(step Step, index, total int)
	// RunID groups audit entries; one is generated when empty.
	RunID string
}

// PlanMove validates a move of item to destination (inventory.VaultLocation
// or a character id) and returns the steps it takes. It does not modify item
// or idx.
func PlanMove(item *inventory.Item, destination string, idx *inventory.Index, opts Options) Plan {
	plan := Plan{Item: item, Destination: destination}
	if msg := validate(item, destination, idx); msg != "" {
		plan.Errors = []string{msg}
		return plan
	}

	count := opts.Count
	if count <= 0 {
		count = max(item.Quantity, 1)
	}

	switch {
	case item.InVault():
		plan.Steps = []Step{withdrawal(item, destination, count)}
	case destination == inventory.VaultLocation:
		plan.Steps = []Step{deposit(item, item.Location, count)}
	default:
		plan.Steps = []Step{
			deposit(item, item.Location, count),
			withdrawal(item, destination, count),
		}
	}
	plan.IsValid = true
	return plan
}

// validate returns the first failing rule as a message, or "".
func validate(item *inventory.Item, destination string, idx *inventory.Index) string {
	name := item.Name
	switch {
	case item.NonTransferrable:
		return fmt.Sprintf("%s cannot be transferred", name)
	case item.IsLocked:
		return fmt.Sprintf("%s is locked; unlock it in-game first", name)
	case item.IsEquipped:
		return fmt.Sprintf("%s is equipped; unequip it first", name)
	case destination == inventory.VaultLocation && item.InVault():
		return fmt.Sprintf("%s is already in the vault", name)
	case destination != inventory.VaultLocation && item.Location == destination:
		return fmt.Sprintf("%s is already on character %s", name, destination)
	}
	if destination == "" {
		return "no destination given"
	}
	if destination != inventory.VaultLocation && idx != nil && len(idx.Characters) > 0 {
		if _, ok := idx.Character(destination); !ok {
			return fmt.Sprintf("unknown character %s", destination)
		}
	}
	return ""
}

func deposit(item *inventory.Item, from string, count int) Step {
	return Step{
		Type:            StepToVault,
		Item:            item,
		FromCharacterID: from,
		Count:           count,
		Description:     fmt.Sprintf("%s%s: %s -> vault", item.Name, countSuffix(count), from),
	}
}

func withdrawal(item *inventory.Item, to string, count int) Step {
	return Step{
		Type:          StepFromVault,
		Item:          item,
		ToCharacterID: to,
		Count:         count,
		Description:   fmt.Sprintf("%s%s: vault -> %s", item.Name, countSuffix(count), to),
	}
}

func countSuffix(count int) string {
	if count > 1 {
		return fmt.Sprintf(" x%d", count)
	}
	return ""
}
