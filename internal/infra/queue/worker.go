package queue

import (
	"context"
	"encoding/json"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/xavierca1/retirement-leads/internal/usecase"
)

// Consumer is satisfied by *amqp.Channel.
type Consumer interface {
	Qos(prefetchCount, prefetchSize int, global bool) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
}

// DeliveryWorker runs the fan-out for queued jobs. Each job is acked after
// one delivery pass whatever the sink outcomes; only undecodable messages are
// rejected to the DLQ.
type DeliveryWorker struct {
	Channel   Consumer
	Deliverer usecase.Deliverer
	Prefetch  int
}

func NewDeliveryWorker(ch Consumer, deliverer usecase.Deliverer) *DeliveryWorker {
	return &DeliveryWorker{Channel: ch, Deliverer: deliverer, Prefetch: 10}
}

// Run consumes until ctx is cancelled or the channel closes.
func (w *DeliveryWorker) Run(ctx context.Context) error {
	if err := w.Channel.Qos(w.Prefetch, 0, false); err != nil {
		return eris.Wrap(err, "queue: set qos")
	}

	msgs, err := w.Channel.Consume(DeliveryQueue, "", false, false, false, false, nil)
	if err != nil {
		return eris.Wrap(err, "queue: register consumer")
	}

	zap.L().Info("queue: delivery worker started", zap.String("queue", DeliveryQueue))
	for {
		select {
		case <-ctx.Done():
			zap.L().Info("queue: delivery worker stopping")
			return nil
		case d, ok := <-msgs:
			if !ok {
				return eris.New("queue: delivery channel closed")
			}
			w.handle(ctx, d)
		}
	}
}

func (w *DeliveryWorker) handle(ctx context.Context, d amqp.Delivery) {
	var job DeliveryJob
	if err := json.Unmarshal(d.Body, &job); err != nil || job.Lead.ID == "" {
		zap.L().Error("queue: malformed delivery job, rejecting",
			zap.String("message_id", d.MessageId),
			zap.Error(err),
		)
		_ = d.Nack(false, false)
		return
	}

	report := w.Deliverer.Deliver(ctx, &job.Lead, &job.Contact)
	if failed := report.Failed(); len(failed) > 0 {
		zap.L().Warn("queue: job delivered with failures",
			zap.String("lead_id", job.Lead.ID),
			zap.Int("failed", len(failed)),
			zap.Int("attempts", len(report.Attempts)),
		)
	} else {
		zap.L().Info("queue: job delivered", zap.String("lead_id", job.Lead.ID))
	}

	// No redelivery: a failed sink is not retried.
	if err := d.Ack(false); err != nil {
		zap.L().Error("queue: ack failed", zap.String("lead_id", job.Lead.ID), zap.Error(err))
	}
}
