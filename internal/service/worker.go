package service

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/rs/zerolog/log"
	"github.com/streadway/amqp"

	appErrors "github.com/unclebandit/pricing-catalog-backend/internal/errors"
	"github.com/unclebandit/pricing-catalog-backend/internal/model"
)

// EventRecorder stores consumed change events.
type EventRecorder interface {
	Record(ctx context.Context, e model.ChangeEvent) (bool, error)
}

// Worker turns change events from the broker into audit log entries.
type Worker struct {
	Recorder   EventRecorder
	Deliveries <-chan amqp.Delivery
}

// Constructor
func NewWorker(rec EventRecorder, deliveries <-chan amqp.Delivery) *Worker {
	return &Worker{Recorder: rec, Deliveries: deliveries}
}

// Start processes deliveries until the channel closes or ctx is done.
func (w *Worker) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-w.Deliveries:
			if !ok {
				return
			}
			w.Handle(ctx, d)
		}
	}
}

// Handle acks recorded and duplicate events, drops malformed ones, and
// requeues a failed write once before giving up on it.
func (w *Worker) Handle(ctx context.Context, d amqp.Delivery) {
	var e model.ChangeEvent
	if err := json.Unmarshal(d.Body, &e); err != nil {
		log.Warn().Err(err).Uint64("delivery_tag", d.DeliveryTag).Msg("dropping malformed event")
		_ = d.Reject(false)
		return
	}

	wrote, err := w.Recorder.Record(ctx, e)
	if errors.Is(err, appErrors.ErrValidation) {
		log.Warn().Err(err).Uint64("delivery_tag", d.DeliveryTag).Msg("dropping incomplete event")
		_ = d.Reject(false)
		return
	}
	if err != nil {
		requeue := !d.Redelivered
		log.Error().Err(err).Str("event_id", e.ID).Bool("requeue", requeue).Msg("failed to record event")
		_ = d.Nack(false, requeue)
		return
	}

	log.Info().Str("event_id", e.ID).Str("routing_key", e.RoutingKey()).Bool("duplicate", !wrote).Msg("event recorded")
	_ = d.Ack(false)
}
