package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/unclebandit/pricing-catalog-backend/internal/model"
)

// TopicCatalogChanges carries model.ChangeEvent values.
const TopicCatalogChanges = "catalog_changes"

// Queue interface
type Queue interface {
	Publish(topic string, payload any) error
	Subscribe(topic string, handler func(payload any) error) error
}

// InMemoryQueue fans every published payload out to all subscribers of the
// topic, retrying failed handlers with linear backoff.
type InMemoryQueue struct {
	mu       sync.Mutex
	handlers map[string][]func(payload any) error
	wg       sync.WaitGroup

	MaxRetries int
	Backoff    time.Duration
}

// NewInMemoryQueue creates a new queue
func NewInMemoryQueue() *InMemoryQueue {
	return &InMemoryQueue{
		handlers:   make(map[string][]func(payload any) error),
		MaxRetries: 3,
		Backoff:    500 * time.Millisecond,
	}
}

// JobPayload wraps a message payload with retry info
type JobPayload struct {
	Topic      string
	Payload    any
	RetryCount int
	MaxRetries int
}

// Publish sends a message to all subscribers
func (q *InMemoryQueue) Publish(topic string, payload any) error {
	q.mu.Lock()
	handlers := append([]func(any) error(nil), q.handlers[topic]...)
	q.mu.Unlock()

	if len(handlers) == 0 {
		return fmt.Errorf("no subscribers for topic %s", topic)
	}

	for _, handler := range handlers {
		job := JobPayload{Topic: topic, Payload: payload, MaxRetries: q.MaxRetries}
		q.wg.Add(1)
		go q.processJob(handler, job)
	}
	return nil
}

// processJob handles retries and errors
func (q *InMemoryQueue) processJob(handler func(payload any) error, job JobPayload) {
	defer q.wg.Done()

	for {
		err := handler(job.Payload)
		if err == nil {
			log.Debug().Str("topic", job.Topic).Int("attempt", job.RetryCount+1).Msg("job processed")
			return
		}

		job.RetryCount++
		if job.RetryCount > job.MaxRetries {
			log.Error().Err(err).Str("topic", job.Topic).Int("attempts", job.RetryCount).
				Msg("job permanently failed")
			return
		}
		log.Warn().Err(err).Str("topic", job.Topic).
			Int("attempt", job.RetryCount).Int("max_retries", job.MaxRetries).
			Msg("job failed, retrying")

		time.Sleep(time.Duration(job.RetryCount) * q.Backoff)
	}
}

// Subscribe adds a handler for a topic
func (q *InMemoryQueue) Subscribe(topic string, handler func(payload any) error) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.handlers[topic] = append(q.handlers[topic], handler)
	return nil
}

// Wait blocks until every in-flight job has finished, including retries.
func (q *InMemoryQueue) Wait() {
	q.wg.Wait()
}

// EventPublisher forwards change events to a broker.
type EventPublisher interface {
	PublishEvent(ctx context.Context, e model.ChangeEvent) error
}

func changeEvent(payload any) (model.ChangeEvent, bool) {
	switch e := payload.(type) {
	case model.ChangeEvent:
		return e, true
	case *model.ChangeEvent:
		if e != nil {
			return *e, true
		}
	}
	log.Warn().Type("payload", payload).Msg("unexpected payload on catalog_changes")
	return model.ChangeEvent{}, false
}

// StartEventForwarder relays change events to the broker. Publish failures
// are retried by the queue.
func StartEventForwarder(q Queue, pub EventPublisher, timeout time.Duration) error {
	return q.Subscribe(TopicCatalogChanges, func(payload any) error {
		e, ok := changeEvent(payload)
		if !ok {
			return nil
		}
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := pub.PublishEvent(ctx, e); err != nil {
			return fmt.Errorf("forward event %s: %w", e.ID, err)
		}
		log.Info().Str("event_id", e.ID).Str("routing_key", e.RoutingKey()).Msg("change event forwarded")
		return nil
	})
}
