package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"draftd/internal/domain"

	"go.uber.org/zap"
)

// AuditRecorder persists audit entries off the request path. Record never
// blocks and never returns an error to the caller: a full buffer drops the
// entry and logs the drop. Observability failures must not fail requests.
type AuditRecorder struct {
	store   domain.AuditStore
	logger  *zap.Logger
	events  chan domain.AuditEntry
	workers int

	wg        sync.WaitGroup
	closeOnce sync.Once
	done      chan struct{}
}

type AuditRecorderConfig struct {
	BufferSize int
	Workers    int
}

func NewAuditRecorder(store domain.AuditStore, logger *zap.Logger, cfg AuditRecorderConfig) (*AuditRecorder, error) {
	if store == nil {
		return nil, errors.New("audit store is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 4096
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	recorder := &AuditRecorder{
		store:   store,
		logger:  logger,
		events:  make(chan domain.AuditEntry, cfg.BufferSize),
		workers: cfg.Workers,
		done:    make(chan struct{}),
	}
	for i := 0; i < recorder.workers; i++ {
		recorder.wg.Add(1)
		go recorder.worker()
	}
	return recorder, nil
}

// Record enqueues the entry for background persistence. Fire and forget.
func (r *AuditRecorder) Record(entry domain.AuditEntry) {
	if r == nil {
		return
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	select {
	case <-r.done:
		r.logger.Warn("audit entry dropped: recorder closed",
			zap.String("action", string(entry.Action)))
		return
	default:
	}
	select {
	case r.events <- entry:
	default:
		r.logger.Warn("audit entry dropped: buffer full",
			zap.String("action", string(entry.Action)),
			zap.String("tenant_id", entry.TenantID))
	}
}

func (r *AuditRecorder) worker() {
	defer r.wg.Done()
	for {
		select {
		case entry := <-r.events:
			r.append(entry)
		case <-r.done:
			// Drain whatever is already buffered, then exit.
			for {
				select {
				case entry := <-r.events:
					r.append(entry)
				default:
					return
				}
			}
		}
	}
}

func (r *AuditRecorder) append(entry domain.AuditEntry) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.store.Append(ctx, entry); err != nil {
		r.logger.Error("audit append failed",
			zap.String("action", string(entry.Action)),
			zap.String("tenant_id", entry.TenantID),
			zap.Error(err))
	}
}

// Close stops intake and drains buffered entries, bounded by ctx.
func (r *AuditRecorder) Close(ctx context.Context) error {
	r.closeOnce.Do(func() {
		close(r.done)
	})

	drained := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(drained)
	}()
	select {
	case <-drained:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
