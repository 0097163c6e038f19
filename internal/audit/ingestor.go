// Package audit persists a trail of destructive console operations without
// blocking the request path.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/nulzo/prism-console/internal/store"
	"github.com/nulzo/prism-console/internal/store/model"
	"go.uber.org/zap"
)

// Ingestor handles the asynchronous persistence of audit events.
type Ingestor interface {
	Record(actor, resource, action string, details interface{})
	Start(ctx context.Context)
	Stop()
}

type ingestor struct {
	logger    *zap.Logger
	repo      store.Repository
	eventChan chan *model.AuditEvent
	batchSize int
	flushTime time.Duration
}

func NewIngestor(logger *zap.Logger, repo store.Repository) Ingestor {
	return &ingestor{
		logger:    logger,
		repo:      repo,
		eventChan: make(chan *model.AuditEvent, 1024),
		batchSize: 20,
		flushTime: 5 * time.Second,
	}
}

func (i *ingestor) Record(actor, resource, action string, details interface{}) {
	detailsJSON := "{}"
	if details != nil {
		if data, err := json.Marshal(details); err == nil {
			detailsJSON = string(data)
		}
	}

	event := &model.AuditEvent{
		ID:             uuid.New().String(),
		Actor:          actor,
		TargetResource: resource,
		Action:         action,
		DetailsJSON:    detailsJSON,
		CreatedAt:      time.Now(),
	}

	select {
	case i.eventChan <- event:
	default:
		i.logger.Warn("Audit buffer full, dropping event",
			zap.String("resource", resource),
			zap.String("action", action))
	}
}

func (i *ingestor) Start(ctx context.Context) {
	go i.worker(ctx)
}

func (i *ingestor) Stop() {
	close(i.eventChan)
}

func (i *ingestor) worker(ctx context.Context) {
	batch := make([]*model.AuditEvent, 0, i.batchSize)
	ticker := time.NewTicker(i.flushTime)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}

		for _, event := range batch {
			if err := i.repo.Audit().Log(context.Background(), event); err != nil {
				i.logger.Error("Failed to persist audit event",
					zap.String("id", event.ID), zap.Error(err))
			}
		}
		batch = batch[:0]
	}

	for {
		select {
		case event, ok := <-i.eventChan:
			if !ok {
				flush()
				return
			}
			batch = append(batch, event)
			if len(batch) >= i.batchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-ctx.Done():
			flush()
			return
		}
	}
}
