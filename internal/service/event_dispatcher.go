package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/qualisoftsn/workflow-api/internal/metrics"
	"github.com/qualisoftsn/workflow-api/internal/model"
	"github.com/qualisoftsn/workflow-api/internal/repository"
)

// Notifier pushes a serialized notification to one user's live
// connections. The WebSocket hub satisfies it.
type Notifier interface {
	SendToUser(userID string, message []byte)
}

// EventDispatcher drains the notification outbox: pending events are
// picked up in order, pushed through the Notifier and marked delivered.
// A failed push bumps the retry count until the event is parked as
// failed. Workflow mutations never wait on delivery.
type EventDispatcher struct {
	eventRepo    repository.EventRepository
	notifier     Notifier
	logger       *logrus.Logger
	workers      int
	maxRetries   int
	pollInterval time.Duration
	queue        chan *model.EventModel
	cancel       context.CancelFunc
	done         chan struct{}
}

// NewEventDispatcher creates a dispatcher.
func NewEventDispatcher(eventRepo repository.EventRepository, notifier Notifier, logger *logrus.Logger, workers, maxRetries int, pollInterval time.Duration) *EventDispatcher {
	if workers <= 0 {
		workers = 1
	}
	if maxRetries <= 0 {
		maxRetries = 3
	}
	if pollInterval <= 0 {
		pollInterval = 5 * time.Second
	}
	return &EventDispatcher{
		eventRepo:    eventRepo,
		notifier:     notifier,
		logger:       logger,
		workers:      workers,
		maxRetries:   maxRetries,
		pollInterval: pollInterval,
		queue:        make(chan *model.EventModel, 1000),
		done:         make(chan struct{}),
	}
}

// Start launches the poller and the worker pool.
func (d *EventDispatcher) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel

	for i := 0; i < d.workers; i++ {
		go d.worker(ctx)
	}
	go d.poll(ctx)
}

// Stop shuts the dispatcher down.
func (d *EventDispatcher) Stop() {
	if d.cancel != nil {
		d.cancel()
	}
	<-d.done
}

// poll enqueues pending events on every tick.
func (d *EventDispatcher) poll(ctx context.Context) {
	ticker := time.NewTicker(d.pollInterval)
	defer ticker.Stop()
	defer close(d.done)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			events, err := d.eventRepo.FindPending(100)
			if err != nil {
				d.logger.WithError(err).Warn("failed to poll pending events")
				continue
			}
			for _, evt := range events {
				select {
				case d.queue <- evt:
				default:
					// queue full, the next tick will retry
				}
			}
		}
	}
}

func (d *EventDispatcher) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt := <-d.queue:
			d.dispatch(evt)
		}
	}
}

// notification is the wire shape pushed to clients.
type notification struct {
	Type       string          `json:"type"`
	WorkflowID string          `json:"workflow_id"`
	Data       json.RawMessage `json:"data"`
	CreatedAt  time.Time       `json:"created_at"`
}

func (d *EventDispatcher) dispatch(evt *model.EventModel) {
	msg, err := json.Marshal(notification{
		Type:       evt.Type,
		WorkflowID: evt.WorkflowID,
		Data:       json.RawMessage(evt.Data),
		CreatedAt:  evt.CreatedAt,
	})
	if err != nil {
		d.logger.WithError(err).WithField("event_id", evt.ID).Error("failed to marshal notification")
		_ = d.eventRepo.MarkFailed(evt.ID, d.maxRetries)
		metrics.RecordEventDispatched("failed")
		return
	}

	if evt.RecipientID != "" {
		d.notifier.SendToUser(evt.RecipientID, msg)
	}

	if err := d.eventRepo.MarkSuccess(evt.ID); err != nil {
		d.logger.WithError(err).WithField("event_id", evt.ID).Error("failed to mark event delivered")
		_ = d.eventRepo.MarkFailed(evt.ID, d.maxRetries)
		metrics.RecordEventDispatched("failed")
		return
	}

	metrics.RecordEventDispatched("success")
	d.logger.WithFields(logrus.Fields{
		"event_id":  evt.ID,
		"type":      evt.Type,
		"recipient": evt.RecipientID,
	}).Debug("notification dispatched")
}
