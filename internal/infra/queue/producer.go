package queue

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/xavierca1/retirement-leads/internal/entity"
	"github.com/xavierca1/retirement-leads/internal/usecase"
)

// Publisher is satisfied by *amqp.Channel.
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type Producer struct {
	ch Publisher
}

func NewProducer(ch Publisher) *Producer {
	return &Producer{ch: ch}
}

func (p *Producer) publishJSON(ctx context.Context, key, messageID string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return eris.Wrap(err, "queue: marshal message")
	}

	err = p.ch.PublishWithContext(ctx,
		ExchangeName,
		key,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			MessageId:    messageID,
			Timestamp:    time.Now(),
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return eris.Wrapf(err, "queue: publish %s", key)
	}
	return nil
}

const EventSinkName = "lead_bus"

// LeadEventSink publishes every verified lead on the lead exchange.
type LeadEventSink struct {
	producer *Producer
}

func NewLeadEventSink(p *Producer) *LeadEventSink {
	if p == nil {
		return nil
	}
	return &LeadEventSink{producer: p}
}

func (s *LeadEventSink) Name() string { return EventSinkName }

func (s *LeadEventSink) Send(ctx context.Context, lead *entity.Lead, contact *entity.Contact) error {
	if err := s.producer.publishJSON(ctx, RoutingKeyVerified, lead.ID, newLeadMessage(lead, contact)); err != nil {
		return &usecase.DeliveryError{Sink: EventSinkName, Err: err}
	}
	return nil
}

const QueueSinkName = "delivery_queue"

// QueuedDeliverer hands leads to the delivery worker instead of calling the
// sinks in-process. Publishing is the only attempt it reports.
type QueuedDeliverer struct {
	producer *Producer
}

func NewQueuedDeliverer(p *Producer) *QueuedDeliverer {
	return &QueuedDeliverer{producer: p}
}

func (q *QueuedDeliverer) Deliver(ctx context.Context, lead *entity.Lead, contact *entity.Contact) entity.DeliveryReport {
	start := time.Now()
	job := DeliveryJob{Lead: *lead, Contact: *contact, EnqueuedAt: start}

	attempt := entity.DeliveryAttempt{Sink: QueueSinkName, Outcome: entity.OutcomeSuccess}
	if err := q.producer.publishJSON(ctx, RoutingKeyDeliver, lead.ID, job); err != nil {
		attempt.Outcome = entity.OutcomeFailure
		attempt.Error = err.Error()
		zap.L().Error("queue: delivery job not published, lead will not reach sinks",
			zap.String("lead_id", lead.ID),
			zap.Error(err),
		)
	}
	attempt.Duration = time.Since(start)

	return entity.DeliveryReport{
		LeadID:   lead.ID,
		Event:    entity.EventLeadCaptured,
		Attempts: []entity.DeliveryAttempt{attempt},
	}
}
