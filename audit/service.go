// Package audit keeps a durable trail of the remote mutations vaultctl issues.
package audit

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kasuganosora/vaultctl/model"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Entry holds one transfer or equip call to be logged.
type Entry struct {
	RunID           string
	Action          string
	ItemHash        uint32
	InstanceID      string
	ItemName        string
	FromCharacterID string
	ToCharacterID   string
	Count           int
	Error           string
	Detail          interface{}
	Duration        time.Duration
}

// NewRunID returns an id grouping the calls of one command invocation.
func NewRunID() string { return uuid.NewString() }

// Service logs audit entries asynchronously in batches.
type Service struct {
	db     *gorm.DB
	ch     chan *model.TransferLog
	stopCh chan struct{}
	wg     sync.WaitGroup
	logger *zap.Logger
}

// New creates a new audit Service and starts its background worker.
func New(db *gorm.DB, logger *zap.Logger) *Service {
	svc := &Service{
		db:     db,
		ch:     make(chan *model.TransferLog, 1024),
		stopCh: make(chan struct{}),
		logger: logger,
	}
	svc.wg.Add(1)
	go svc.worker()
	return svc
}

// Log enqueues an audit entry for async DB write. It never blocks.
func (svc *Service) Log(entry Entry) {
	var detail datatypes.JSON
	if entry.Detail != nil {
		b, err := json.Marshal(entry.Detail)
		if err == nil {
			detail = datatypes.JSON(b)
		}
	}
	record := &model.TransferLog{
		RunID:           entry.RunID,
		Action:          entry.Action,
		ItemHash:        entry.ItemHash,
		InstanceID:      entry.InstanceID,
		ItemName:        entry.ItemName,
		FromCharacterID: entry.FromCharacterID,
		ToCharacterID:   entry.ToCharacterID,
		Count:           entry.Count,
		Error:           entry.Error,
		Detail:          detail,
		DurationMs:      int(entry.Duration.Milliseconds()),
	}
	select {
	case svc.ch <- record:
	default:
		svc.logger.Warn("audit channel full, dropping entry",
			zap.String("action", entry.Action),
			zap.String("run", entry.RunID))
	}
}

// Recent returns the newest logged calls, newest first. A non-empty runID
// limits the result to that run.
func (svc *Service) Recent(ctx context.Context, runID string, limit int) ([]model.TransferLog, error) {
	q := svc.db.WithContext(ctx).Order("created_at DESC, id DESC")
	if runID != "" {
		q = q.Where("run_id = ?", runID)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	var out []model.TransferLog
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// Stop flushes remaining entries and shuts down the worker.
// It blocks until the worker goroutine has finished.
func (svc *Service) Stop(_ context.Context) {
	select {
	case <-svc.stopCh:
	default:
		close(svc.stopCh)
	}
	svc.wg.Wait()
}

func (svc *Service) worker() {
	defer svc.wg.Done()
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	batch := make([]*model.TransferLog, 0, 100)

	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := svc.db.Create(&batch).Error; err != nil {
			svc.logger.Error("audit batch write failed", zap.Error(err), zap.Int("entries", len(batch)))
		}
		batch = batch[:0]
	}

	for {
		select {
		case entry := <-svc.ch:
			batch = append(batch, entry)
			if len(batch) >= 100 {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-svc.stopCh:
			// Drain remaining entries.
			for {
				select {
				case entry := <-svc.ch:
					batch = append(batch, entry)
				default:
					flush()
					return
				}
			}
		}
	}
}
