package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/lune-shop/backend-lune/internal/events"
)

// Queue is the asynq queue notification tasks land on.
const Queue = "notify"

// Task types processed by the worker.
const (
	TaskOrderConfirmation = "notify:order_confirmation"
	TaskOrderCancellation = "notify:order_cancellation"
)

// Enqueuer turns domain events into background notification tasks. It
// implements events.Notifier; topics it does not care about are ignored.
type Enqueuer struct {
	Client *asynq.Client
}

func (e *Enqueuer) Notify(ctx context.Context, event events.Event) error {
	if e == nil || e.Client == nil {
		return nil
	}
	var taskType string
	switch event.Topic {
	case events.TopicOrderCreated:
		taskType = TaskOrderConfirmation
	case events.TopicOrderCancelled:
		taskType = TaskOrderCancellation
	default:
		return nil
	}
	task := asynq.NewTask(taskType, event.Payload)
	if _, err := e.Client.EnqueueContext(ctx, task, asynq.Queue(Queue), asynq.MaxRetry(5)); err != nil {
		return fmt.Errorf("notify: enqueue %s: %w", taskType, err)
	}
	return nil
}

type orderPayload struct {
	OrderNumber string `json:"orderNumber"`
	Status      string `json:"status"`
	TotalAmount int64  `json:"totalAmount"`
}

// Worker processes notification tasks. Message delivery is a log line
// for now; the mailer hangs off here once the template service lands.
type Worker struct {
	Log zerolog.Logger
}

// Register binds the worker's handlers onto mux.
func (w *Worker) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TaskOrderConfirmation, w.handleOrderConfirmation)
	mux.HandleFunc(TaskOrderCancellation, w.handleOrderCancellation)
}

func (w *Worker) handleOrderConfirmation(_ context.Context, t *asynq.Task) error {
	p, err := decodeOrderPayload(t)
	if err != nil {
		return err
	}
	w.Log.Info().
		Str("order", p.OrderNumber).
		Int64("total", p.TotalAmount).
		Msg("order confirmation notification")
	return nil
}

func (w *Worker) handleOrderCancellation(_ context.Context, t *asynq.Task) error {
	p, err := decodeOrderPayload(t)
	if err != nil {
		return err
	}
	w.Log.Info().
		Str("order", p.OrderNumber).
		Msg("order cancellation notification")
	return nil
}

func decodeOrderPayload(t *asynq.Task) (orderPayload, error) {
	var p orderPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return orderPayload{}, fmt.Errorf("notify: decode %s payload: %w", t.Type(), err)
	}
	if p.OrderNumber == "" {
		return orderPayload{}, fmt.Errorf("notify: %s payload missing order number", t.Type())
	}
	return p, nil
}
