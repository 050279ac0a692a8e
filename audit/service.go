package audit

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/wome-online/server/model"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Actions recorded in the audit trail.
const (
	ActionRegister        = "account.register"
	ActionLogin           = "account.login"
	ActionCharacterCreate = "character.create"
	ActionCharacterUpdate = "character.update"
	ActionOfferCreate     = "market.offer_create"
	ActionExchange        = "market.exchange"
)

const (
	queueDepth    = 1024
	batchMax      = 100
	flushInterval = 2 * time.Second
)

// Entry holds one audit event.
type Entry struct {
	TraceID    string
	AccountID  *int64
	CharID     *int64
	Action     string
	Detail     interface{}
	Error      string
	IP         string
	DurationMs int
}

// Service persists audit entries off the request path: Log only
// enqueues, and a single worker goroutine writes queued entries to the
// audit table in batches.
type Service struct {
	db     *gorm.DB
	queue  chan Entry
	stop   chan struct{}
	done   sync.WaitGroup
	logger *zap.Logger
}

// New creates an audit Service and starts its worker.
func New(db *gorm.DB, logger *zap.Logger) *Service {
	svc := &Service{
		db:     db,
		queue:  make(chan Entry, queueDepth),
		stop:   make(chan struct{}),
		logger: logger,
	}
	svc.done.Add(1)
	go svc.run()
	return svc
}

// Log enqueues an entry. A full queue drops the entry with a warning
// rather than stalling the caller.
func (svc *Service) Log(entry Entry) {
	select {
	case svc.queue <- entry:
	default:
		svc.logger.Warn("audit queue full, entry dropped",
			zap.String("action", entry.Action))
	}
}

// Stop drains the queue and blocks until the worker has exited. Safe
// to call more than once.
func (svc *Service) Stop(_ context.Context) {
	select {
	case <-svc.stop:
	default:
		close(svc.stop)
	}
	svc.done.Wait()
}

func (svc *Service) record(entry Entry) *model.AuditLog {
	detail, _ := json.Marshal(entry.Detail)
	return &model.AuditLog{
		TraceID:    entry.TraceID,
		AccountID:  entry.AccountID,
		CharID:     entry.CharID,
		Action:     entry.Action,
		Detail:     datatypes.JSON(detail),
		Error:      entry.Error,
		IP:         entry.IP,
		DurationMs: entry.DurationMs,
	}
}

func (svc *Service) run() {
	defer svc.done.Done()
	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	batch := make([]*model.AuditLog, 0, batchMax)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := svc.db.Create(&batch).Error; err != nil {
			svc.logger.Error("audit flush failed",
				zap.Error(err), zap.Int("entries", len(batch)))
		}
		batch = batch[:0]
	}

	for {
		select {
		case e := <-svc.queue:
			batch = append(batch, svc.record(e))
			if len(batch) >= batchMax {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-svc.stop:
			for {
				select {
				case e := <-svc.queue:
					batch = append(batch, svc.record(e))
				default:
					flush()
					return
				}
			}
		}
	}
}
