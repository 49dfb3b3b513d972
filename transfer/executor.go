package transfer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kasuganosora/vaultctl/audit"
	"github.com/kasuganosora/vaultctl/inventory"
	"go.uber.org/zap"
)

// ErrInvalidPlan is returned by Execute for a plan that failed validation.
var ErrInvalidPlan = errors.New("transfer: plan is not valid")

// StackableInstanceID is sent in place of an instance id for stackables.
const StackableInstanceID = "0"

// TransferRequest is one remote transfer call. CharacterID is the source of
// a deposit or the target of a withdrawal.
type TransferRequest struct {
	ItemHash    uint32
	InstanceID  string
	Count       int
	ToVault     bool
	CharacterID string
}

// Remote is the mutation side of the inventory API.
type Remote interface {
	TransferItem(ctx context.Context, req TransferRequest) error
	EquipItem(ctx context.Context, instanceID, characterID string) error
}

// Auditor records remote calls. *audit.Service implements it.
type Auditor interface {
	Log(entry audit.Entry)
}

// Executor runs plans against a Remote.
type Executor struct {
	remote  Remote
	auditor Auditor
	logger  *zap.Logger
}

// NewExecutor creates an Executor. auditor may be nil.
func NewExecutor(remote Remote, auditor Auditor, logger *zap.Logger) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{remote: remote, auditor: auditor, logger: logger}
}

// Execute runs the plan's steps in order and stops at the first failure.
// An invalid plan fails with ErrInvalidPlan before any remote call.
func (e *Executor) Execute(ctx context.Context, plan Plan, opts Options) error {
	if !plan.IsValid {
		return fmt.Errorf("%w: %s", ErrInvalidPlan, strings.Join(plan.Errors, "; "))
	}
	runID := opts.RunID
	if runID == "" {
		runID = audit.NewRunID()
	}

	for i, step := range plan.Steps {
		if opts.OnStep != nil {
			opts.OnStep(step, i, len(plan.Steps))
		}
		req := TransferRequest{
			ItemHash:   step.Item.Hash,
			InstanceID: instanceIDOf(step.Item),
			Count:      step.Count,
			ToVault:    step.Type == StepToVault,
		}
		if req.ToVault {
			req.CharacterID = step.FromCharacterID
		} else {
			req.CharacterID = step.ToCharacterID
		}

		start := time.Now()
		err := e.remote.TransferItem(ctx, req)
		e.record(runID, step, start, err)
		if err != nil {
			e.logger.Warn("transfer step failed",
				zap.String("step", step.Description),
				zap.Int("index", i),
				zap.Error(err))
			return fmt.Errorf("transfer: %s: %w", step.Description, err)
		}
		e.logger.Debug("transfer step done", zap.String("step", step.Description))
	}
	return nil
}

// MoveItem plans a move and executes it unless the plan is invalid or
// opts.DryRun is set. The plan is always returned.
func (e *Executor) MoveItem(ctx context.Context, item *inventory.Item, destination string, idx *inventory.Index, opts Options) (Plan, error) {
	plan := PlanMove(item, destination, idx, opts)
	if !plan.IsValid || opts.DryRun {
		return plan, nil
	}
	return plan, e.Execute(ctx, plan, opts)
}

// equip issues an equip call and records it.
func (e *Executor) equip(ctx context.Context, item *inventory.Item, characterID, runID string) error {
	start := time.Now()
	err := e.remote.EquipItem(ctx, item.InstanceID, characterID)
	if e.auditor != nil {
		e.auditor.Log(audit.Entry{
			RunID:         runID,
			Action:        "equip",
			ItemHash:      item.Hash,
			InstanceID:    item.InstanceID,
			ItemName:      item.Name,
			ToCharacterID: characterID,
			Count:         1,
			Error:         errString(err),
			Duration:      time.Since(start),
		})
	}
	if err != nil {
		return fmt.Errorf("transfer: equip %s on %s: %w", item.Name, characterID, err)
	}
	return nil
}

func (e *Executor) record(runID string, step Step, start time.Time, err error) {
	if e.auditor == nil {
		return
	}
	e.auditor.Log(audit.Entry{
		RunID:           runID,
		Action:          string(step.Type),
		ItemHash:        step.Item.Hash,
		InstanceID:      step.Item.InstanceID,
		ItemName:        step.Item.Name,
		FromCharacterID: step.FromCharacterID,
		ToCharacterID:   step.ToCharacterID,
		Count:           step.Count,
		Error:           errString(err),
		Duration:        time.Since(start),
	})
}

func instanceIDOf(it *inventory.Item) string {
	if it.InstanceID == "" {
		return StackableInstanceID
	}
	return it.InstanceID
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
